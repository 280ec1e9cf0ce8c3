package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	bookingdb "ms-booking/internal/booking/db"
	"ms-booking/internal/models"
)

type DB struct {
	Bun *bun.DB
}

func (d *DB) ListActiveBookings(ctx context.Context, customerID string) ([]models.ResolvedBooking, error) {
	var bookings []models.Booking
	q := d.Bun.NewSelect().
		Model(&bookings).
		Where("status <> ?", models.StatusCancelled).
		Order("created_at ASC")
	if customerID != "" {
		q = q.Where("customer_id = ?", customerID)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("list active bookings: %w", err)
	}
	return bookingdb.ResolveItems(ctx, d.Bun, bookings)
}

func (d *DB) GetHotelByManager(ctx context.Context, managerID string) (*models.Hotel, error) {
	var hotel models.Hotel
	err := d.Bun.NewSelect().Model(&hotel).Where("manager_id = ?", managerID).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("hotel of manager %s: %w", managerID, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load hotel of manager %s: %w", managerID, err)
	}
	return &hotel, nil
}

func (d *DB) ListPackageIDsByAgent(ctx context.Context, agentID string) ([]string, error) {
	var ids []string
	err := d.Bun.NewSelect().
		Model((*models.Package)(nil)).
		Column("id").
		Where("agent_id = ?", agentID).
		Scan(ctx, &ids)
	if err != nil {
		return nil, fmt.Errorf("list package ids of agent %s: %w", agentID, err)
	}
	return ids, nil
}

// ListPackageIDsReferencing returns ids of packages naming resourceID as hotel, driver or guide.
func (d *DB) ListPackageIDsReferencing(ctx context.Context, role models.Role, resourceID string) ([]string, error) {
	var column string
	switch role {
	case models.RoleHotelManager:
		column = "hotel_id"
	case models.RoleDriver:
		column = "driver_id"
	case models.RoleGuide:
		column = "guide_id"
	default:
		return nil, fmt.Errorf("role %s owns no package resources: %w", role, models.ErrForbiddenRole)
	}

	var ids []string
	err := d.Bun.NewSelect().
		Model((*models.Package)(nil)).
		Column("id").
		Where("? = ?", bun.Ident(column), resourceID).
		Scan(ctx, &ids)
	if err != nil {
		return nil, fmt.Errorf("list packages referencing %s: %w", resourceID, err)
	}
	return ids, nil
}
