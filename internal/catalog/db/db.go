package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/uptrace/bun"

	"ms-booking/internal/models"
)

type DB struct {
	Bun *bun.DB
}

// ---------------- PACKAGES ----------------

func (d *DB) InsertPackage(ctx context.Context, pkg *models.Package) error {
	if _, err := d.Bun.NewInsert().Model(pkg).Exec(ctx); err != nil {
		return fmt.Errorf("insert package: %w", err)
	}
	return nil
}

// ListPackages returns packages newest first. Custom packages are included only when asked.
func (d *DB) ListPackages(ctx context.Context, includeCustom bool) ([]models.Package, error) {
	var pkgs []models.Package
	q := d.Bun.NewSelect().Model(&pkgs).Order("created_at DESC")
	if !includeCustom {
		q = q.Where("is_custom = ?", false)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("list packages: %w", err)
	}
	return pkgs, nil
}

// ---------------- HOTELS ----------------

func (d *DB) ListHotels(ctx context.Context) ([]models.Hotel, error) {
	var hotels []models.Hotel
	if err := d.Bun.NewSelect().Model(&hotels).Order("created_at DESC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("list hotels: %w", err)
	}
	return hotels, nil
}

func (d *DB) GetHotel(ctx context.Context, id string) (*models.Hotel, error) {
	var hotel models.Hotel
	err := d.Bun.NewSelect().Model(&hotel).Where("id = ?", id).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("hotel %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load hotel %s: %w", id, err)
	}
	return &hotel, nil
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

// UpsertHotel stores the manager's hotel, updating the existing row when there is one.
// hotel.ID and CreatedAt are only used for a new row.
func (d *DB) UpsertHotel(ctx context.Context, hotel *models.Hotel) error {
	return d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var existing models.Hotel
		err := tx.NewSelect().Model(&existing).Where("manager_id = ?", hotel.ManagerID).Limit(1).Scan(ctx)
		if errors.Is(err, sql.ErrNoRows) {
			if _, err := tx.NewInsert().Model(hotel).Exec(ctx); err != nil {
				return fmt.Errorf("insert hotel: %w", err)
			}
			return nil
		}
		if err != nil {
			return fmt.Errorf("load hotel of manager %s: %w", hotel.ManagerID, err)
		}

		hotel.ID = existing.ID
		hotel.CreatedAt = existing.CreatedAt
		_, err = tx.NewUpdate().
			Model(hotel).
			Column("name", "city", "address", "description", "amenities", "images", "price_per_night", "available_rooms", "updated_at").
			WherePK().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("update hotel %s: %w", hotel.ID, err)
		}
		return nil
	})
}

// ---------------- RESOURCES ----------------

func (d *DB) GetUser(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := d.Bun.NewSelect().Model(&user).Where("id = ?", id).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load user %s: %w", id, err)
	}
	return &user, nil
}

func (d *DB) ListApprovedUsers(ctx context.Context, role models.Role) ([]models.User, error) {
	var users []models.User
	err := d.Bun.NewSelect().
		Model(&users).
		Where("role = ?", role).
		Where("is_approved = ?", models.ApprovalApproved).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list approved %s users: %w", role, err)
	}
	return users, nil
}

// ---------------- SEARCH ----------------

// Filter narrows a search. Location matches any of the given columns as a case-insensitive
// substring; a nil MaxPrice means no ceiling.
type Filter struct {
	Location string
	MaxPrice *float64
}

func (d *DB) SearchPackages(ctx context.Context, f Filter) ([]models.Package, error) {
	pkgs := make([]models.Package, 0)
	q := d.Bun.NewSelect().Model(&pkgs).Where("is_custom = ?", false).Order("created_at DESC")
	q = applyFilter(q, f, "price", "destination")
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("search packages: %w", err)
	}
	return pkgs, nil
}

func (d *DB) SearchHotels(ctx context.Context, f Filter) ([]models.Hotel, error) {
	hotels := make([]models.Hotel, 0)
	q := d.Bun.NewSelect().Model(&hotels).Order("created_at DESC")
	q = applyFilter(q, f, "price_per_night", "city")
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("search hotels: %w", err)
	}
	return hotels, nil
}

// SearchResources finds approved drivers or guides. Drivers match on address and are priced
// per km; guides match on address or language and are priced per day.
func (d *DB) SearchResources(ctx context.Context, role models.Role, f Filter) ([]models.User, error) {
	var priceColumn string
	var locationColumns []string
	switch role {
	case models.RoleDriver:
		priceColumn, locationColumns = "price_per_km", []string{"address"}
	case models.RoleGuide:
		priceColumn, locationColumns = "price_per_day", []string{"address", "language"}
	default:
		return nil, fmt.Errorf("search role %s: %w", role, models.ErrInvalidInput)
	}

	users := make([]models.User, 0)
	q := d.Bun.NewSelect().
		Model(&users).
		Where("role = ?", role).
		Where("is_approved = ?", models.ApprovalApproved).
		Order("created_at DESC")
	q = applyFilter(q, f, priceColumn, locationColumns...)
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("search %s users: %w", role, err)
	}
	return users, nil
}

// likeEscaper makes a location match literally under ESCAPE '!'.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func applyFilter(q *bun.SelectQuery, f Filter, priceColumn string, locationColumns ...string) *bun.SelectQuery {
	if loc := strings.TrimSpace(f.Location); loc != "" {
		pattern := "%" + likeEscaper.Replace(strings.ToLower(loc)) + "%"
		q = q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			for _, col := range locationColumns {
				q = q.WhereOr("LOWER(?) LIKE ? ESCAPE '!'", bun.Ident(col), pattern)
			}
			return q
		})
	}
	// A zero ceiling is a real ceiling; callers pass nil for "no limit".
	if f.MaxPrice != nil {
		q = q.Where("? <= ?", bun.Ident(priceColumn), *f.MaxPrice)
	}
	return q
}
