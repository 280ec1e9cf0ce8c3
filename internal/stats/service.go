package stats

import (
	"context"
	"errors"
	"fmt"

	"ms-booking/internal/logger"
	"ms-booking/internal/models"
)

type DBLayer interface {
	// ListActiveBookings returns non-cancelled bookings with their items resolved. An empty
	// customerID means every customer.
	ListActiveBookings(ctx context.Context, customerID string) ([]models.ResolvedBooking, error)
	GetHotelByManager(ctx context.Context, managerID string) (*models.Hotel, error)
	ListPackageIDsByAgent(ctx context.Context, agentID string) ([]string, error)
	ListPackageIDsReferencing(ctx context.Context, role models.Role, resourceID string) ([]string, error)
}

// Service computes dashboard statistics. It only reads from the store.
type Service struct {
	DB     DBLayer
	Logger *logger.Logger
}

func NewService(db DBLayer, log *logger.Logger) *Service {
	return &Service{DB: db, Logger: log}
}

// DashboardStats computes the caller's earnings, booking count, monthly series and, for
// customers and admins, the category breakdown.
func (s *Service) DashboardStats(ctx context.Context, actor models.Actor) (*DashboardStats, error) {
	if !actor.Role.Valid() {
		return nil, fmt.Errorf("stats for role %q: %w", actor.Role, models.ErrForbiddenRole)
	}

	own, err := s.ownership(ctx, actor)
	if err != nil {
		return nil, err
	}

	customerID := ""
	if actor.Role == models.RoleCustomer {
		customerID = actor.ID
	}
	bookings, err := s.DB.ListActiveBookings(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load bookings: %w", err)
	}

	out, skipped := Compute(actor, own, bookings)
	for _, id := range skipped {
		s.Logger.Warn("STATS", fmt.Sprintf("Skipping booking %s: referenced item no longer exists", id))
	}
	s.Logger.LogStats(actor.ID, string(actor.Role), fmt.Sprintf("%d bookings, earnings %.2f", out.TotalBookings, out.TotalEarnings))
	return &out, nil
}

func (s *Service) ownership(ctx context.Context, actor models.Actor) (Ownership, error) {
	own := Ownership{DirectIDs: map[string]bool{}, PackageIDs: map[string]bool{}}

	var pkgIDs []string
	var err error
	switch actor.Role {
	case models.RoleTravelAgent:
		pkgIDs, err = s.DB.ListPackageIDsByAgent(ctx, actor.ID)
	case models.RoleDriver, models.RoleGuide:
		own.DirectType = models.BookingTypeDriver
		if actor.Role == models.RoleGuide {
			own.DirectType = models.BookingTypeGuide
		}
		own.DirectIDs[actor.ID] = true
		pkgIDs, err = s.DB.ListPackageIDsReferencing(ctx, actor.Role, actor.ID)
	case models.RoleHotelManager:
		own.DirectType = models.BookingTypeHotel
		hotel, herr := s.DB.GetHotelByManager(ctx, actor.ID)
		if errors.Is(herr, models.ErrNotFound) {
			return own, nil
		}
		if herr != nil {
			return own, herr
		}
		own.DirectIDs[hotel.ID] = true
		pkgIDs, err = s.DB.ListPackageIDsReferencing(ctx, actor.Role, hotel.ID)
	}
	if err != nil {
		return own, fmt.Errorf("failed to load owned packages: %w", err)
	}

	for _, id := range pkgIDs {
		own.PackageIDs[id] = true
	}
	return own, nil
}
