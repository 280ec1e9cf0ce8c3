package booking

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"ms-booking/internal/config"
	"ms-booking/internal/logger"
	"ms-booking/internal/models"
)

type DBLayer interface {
	GetPackage(ctx context.Context, id string) (*models.Package, error)
	GetHotel(ctx context.Context, id string) (*models.Hotel, error)
	GetHotelByManager(ctx context.Context, managerID string) (*models.Hotel, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetBooking(ctx context.Context, id string) (*models.Booking, error)

	SumActiveGuests(ctx context.Context, packageID string) (int, error)
	InsertBooking(ctx context.Context, b *models.Booking) error
	InsertBookingWithinCapacity(ctx context.Context, b *models.Booking) error
	InsertCustomPackageBooking(ctx context.Context, pkg *models.Package, b *models.Booking) error
	CancelBooking(ctx context.Context, id string, at time.Time) (*models.Booking, error)
	DeleteBooking(ctx context.Context, id string) error
	DeletePackageCascade(ctx context.Context, packageID string) (int, error)

	ListPackagesByAgent(ctx context.Context, agentID string) ([]models.Package, error)
	ListPackagesReferencing(ctx context.Context, role models.Role, resourceID string) ([]models.Package, error)
	ListBookingsByCustomer(ctx context.Context, customerID string) ([]models.Booking, error)
	ListBookingsByType(ctx context.Context, t models.BookingType) ([]models.Booking, error)
	ListActiveBookings(ctx context.Context, t models.BookingType, itemIDs []string) ([]models.Booking, error)
	ResolveItems(ctx context.Context, bookings []models.Booking) ([]models.ResolvedBooking, error)
}

type PackageLock interface {
	LockPackage(ctx context.Context, packageID, holder string) (bool, error)
	UnlockPackage(ctx context.Context, packageID, holder string) error
}

type EventPublisher interface {
	PublishBookingEvent(ctx context.Context, event models.BookingEvent) error
	PublishPackageDeleted(ctx context.Context, event models.PackageDeletedEvent) error
}

// Ledger owns booking creation, cancellation and deletion, and the package capacity check.
type Ledger struct {
	DB       DBLayer
	Lock     PackageLock
	Events   EventPublisher
	Strategy config.CapacityStrategy
	Logger   *logger.Logger

	now   func() time.Time
	newID func() string
}

func NewLedger(db DBLayer, lock PackageLock, events EventPublisher, strategy config.CapacityStrategy, log *logger.Logger) *Ledger {
	if !strategy.Valid() {
		strategy = config.StrategyAtomic
	}
	if strategy == config.StrategyRedisLock && lock == nil {
		log.Warn("BOOKING", "redis-lock capacity strategy without a lock, falling back to atomic")
		strategy = config.StrategyAtomic
	}
	return &Ledger{
		DB:       db,
		Lock:     lock,
		Events:   events,
		Strategy: strategy,
		Logger:   log,
		now:      func() time.Time { return time.Now().UTC() },
		newID:    func() string { return uuid.New().String() },
	}
}

type CreateBookingInput struct {
	Type          models.BookingType
	ItemID        string
	Guests        int
	Days          int
	TotalPrice    float64
	PaymentMethod models.PaymentMethod
	BookingDate   time.Time
}

type CustomPackageInput struct {
	Title         string
	Destination   string
	Duration      int
	StartDate     time.Time
	HotelID       string
	DriverID      string
	GuideID       string
	PaymentMethod models.PaymentMethod
}

// ---------------- CREATE ----------------

// CreateBooking books an item for the customer at the caller-supplied price. Package
// bookings are checked against the package's remaining seats using the configured strategy.
func (l *Ledger) CreateBooking(ctx context.Context, customer models.Actor, in CreateBookingInput) (*models.Booking, error) {
	if in.Guests == 0 {
		in.Guests = 1
	}
	if in.Days == 0 {
		in.Days = 1
	}
	if err := validateBooking(in); err != nil {
		return nil, err
	}

	now := l.now()
	b := &models.Booking{
		ID:            l.newID(),
		CustomerID:    customer.ID,
		BookingType:   in.Type,
		BookingDate:   in.BookingDate,
		Guests:        in.Guests,
		Days:          in.Days,
		TotalPrice:    in.TotalPrice,
		PaymentMethod: in.PaymentMethod,
		Status:        models.StatusConfirmed,
		CreatedAt:     now,
	}
	b.SetRef(models.RefFor(in.Type, in.ItemID))

	if in.Type == models.BookingTypePackage {
		pkg, err := l.DB.GetPackage(ctx, in.ItemID)
		if err != nil {
			return nil, err
		}
		if err := l.insertWithinCapacity(ctx, pkg, b); err != nil {
			if errors.Is(err, models.ErrCapacityExceeded) {
				l.Logger.LogBooking("REJECTED", b.ID, fmt.Sprintf("package %s cannot take %d more guests", pkg.ID, b.Guests))
			}
			return nil, err
		}
	} else {
		if err := l.checkItemExists(ctx, in.Type, in.ItemID); err != nil {
			return nil, err
		}
		if err := l.DB.InsertBooking(ctx, b); err != nil {
			return nil, fmt.Errorf("failed to create booking: %w", err)
		}
	}

	l.Logger.LogBooking("CREATED", b.ID, fmt.Sprintf("%s booking on %s by %s for %.2f", b.BookingType, b.ItemID, b.CustomerID, b.TotalPrice))
	l.publish(ctx, models.EventBookingCreated, b)
	return b, nil
}

func validateBooking(in CreateBookingInput) error {
	switch {
	case !in.Type.Valid():
		return fmt.Errorf("unknown booking type %q: %w", in.Type, models.ErrInvalidInput)
	case strings.TrimSpace(in.ItemID) == "":
		return fmt.Errorf("item id is required: %w", models.ErrInvalidInput)
	case in.Guests < 1 || in.Days < 1:
		return fmt.Errorf("guests and days must be positive: %w", models.ErrInvalidInput)
	case in.TotalPrice < 0:
		return fmt.Errorf("total price must not be negative: %w", models.ErrInvalidInput)
	case !in.PaymentMethod.Valid():
		return fmt.Errorf("unknown payment method %q: %w", in.PaymentMethod, models.ErrInvalidInput)
	case in.BookingDate.IsZero():
		return fmt.Errorf("booking date is required: %w", models.ErrInvalidInput)
	}
	return nil
}

func (l *Ledger) insertWithinCapacity(ctx context.Context, pkg *models.Package, b *models.Booking) error {
	// Larger requests can never fit and would overflow the INTEGER seat arithmetic.
	if b.Guests > pkg.Seats {
		return fmt.Errorf("%d guests for %d seats: %w", b.Guests, pkg.Seats, models.ErrCapacityExceeded)
	}
	switch l.Strategy {
	case config.StrategyNaive:
		return l.checkThenInsert(ctx, pkg, b)
	case config.StrategyRedisLock:
		locked, err := l.Lock.LockPackage(ctx, pkg.ID, b.ID)
		if err != nil {
			return err
		}
		if !locked {
			return models.ErrPackageLocked
		}
		defer func() {
			if err := l.Lock.UnlockPackage(ctx, pkg.ID, b.ID); err != nil {
				l.Logger.Error("REDIS", fmt.Sprintf("Failed to unlock package %s: %v", pkg.ID, err))
			}
		}()
		return l.checkThenInsert(ctx, pkg, b)
	default:
		return l.DB.InsertBookingWithinCapacity(ctx, b)
	}
}

// checkThenInsert reads the active guest sum and inserts in two steps. Without an external
// lock two requests can both pass the check and oversell the package.
func (l *Ledger) checkThenInsert(ctx context.Context, pkg *models.Package, b *models.Booking) error {
	taken, err := l.DB.SumActiveGuests(ctx, pkg.ID)
	if err != nil {
		return err
	}
	if taken+b.Guests > pkg.Seats {
		return models.ErrCapacityExceeded
	}
	if err := l.DB.InsertBooking(ctx, b); err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}
	return nil
}

// checkItemExists verifies a hotel, driver or guide booking points at a real item.
// Drivers and guides must be users holding the matching role.
func (l *Ledger) checkItemExists(ctx context.Context, t models.BookingType, itemID string) error {
	switch t {
	case models.BookingTypeHotel:
		_, err := l.DB.GetHotel(ctx, itemID)
		return err
	case models.BookingTypeDriver:
		_, err := l.resourceRate(ctx, itemID, models.RoleDriver)
		return err
	case models.BookingTypeGuide:
		_, err := l.resourceRate(ctx, itemID, models.RoleGuide)
		return err
	}
	return nil
}

// resourceRate returns the driver's per-km or the guide's per-day rate.
func (l *Ledger) resourceRate(ctx context.Context, userID string, role models.Role) (float64, error) {
	u, err := l.DB.GetUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	if u.Role != role {
		return 0, fmt.Errorf("%s %s: %w", strings.ToLower(string(role)), userID, models.ErrNotFound)
	}
	if role == models.RoleDriver {
		return u.PricePerKm, nil
	}
	return u.PricePerDay, nil
}

// CreateCustomBooking synthesizes a single-seat package from the chosen resources, prices it
// and books it for the customer in one step.
func (l *Ledger) CreateCustomBooking(ctx context.Context, customer models.Actor, in CustomPackageInput) (*models.Package, *models.Booking, error) {
	switch {
	case strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Destination) == "":
		return nil, nil, fmt.Errorf("title and destination are required: %w", models.ErrInvalidInput)
	case in.Duration < 1:
		return nil, nil, fmt.Errorf("duration must be positive: %w", models.ErrInvalidInput)
	case !in.PaymentMethod.Valid():
		return nil, nil, fmt.Errorf("unknown payment method %q: %w", in.PaymentMethod, models.ErrInvalidInput)
	}

	var hotelRate, driverRate float64
	if in.HotelID != "" {
		hotel, err := l.DB.GetHotel(ctx, in.HotelID)
		if err != nil {
			return nil, nil, err
		}
		hotelRate = hotel.PricePerNight
	}
	if in.DriverID != "" {
		rate, err := l.resourceRate(ctx, in.DriverID, models.RoleDriver)
		if err != nil {
			return nil, nil, err
		}
		driverRate = rate
	}
	if in.GuideID != "" {
		if _, err := l.resourceRate(ctx, in.GuideID, models.RoleGuide); err != nil {
			return nil, nil, err
		}
	}

	now := l.now()
	startDate := in.StartDate
	if startDate.IsZero() {
		startDate = now
	}
	price := CustomPackagePrice(hotelRate, driverRate, in.Duration, in.GuideID != "")

	pkg := &models.Package{
		ID:          l.newID(),
		AgentID:     customer.ID,
		IsCustom:    true,
		Title:       in.Title,
		Destination: in.Destination,
		Duration:    in.Duration,
		Seats:       1,
		SeatsTaken:  1,
		StartDate:   startDate,
		Price:       price,
		Description: fmt.Sprintf("Custom trip to %s", in.Destination),
		HotelID:     in.HotelID,
		DriverID:    in.DriverID,
		GuideID:     in.GuideID,
		CreatedAt:   now,
	}
	b := &models.Booking{
		ID:            l.newID(),
		CustomerID:    customer.ID,
		BookingType:   models.BookingTypePackage,
		BookingDate:   startDate,
		Guests:        1,
		Days:          in.Duration,
		TotalPrice:    price,
		PaymentMethod: in.PaymentMethod,
		Status:        models.StatusConfirmed,
		CreatedAt:     now,
	}
	b.SetRef(models.PackageRef(pkg.ID))

	if err := l.DB.InsertCustomPackageBooking(ctx, pkg, b); err != nil {
		return nil, nil, fmt.Errorf("failed to create custom package: %w", err)
	}

	l.Logger.LogBooking("CUSTOM", b.ID, fmt.Sprintf("custom package %s priced %.0f for %s", pkg.ID, price, customer.ID))
	l.publish(ctx, models.EventBookingCreated, b)
	return pkg, b, nil
}

// ---------------- CANCEL / DELETE ----------------

// CancelBooking moves the customer's booking to Cancelled. Cancelling an already
// cancelled booking returns it unchanged.
func (l *Ledger) CancelBooking(ctx context.Context, customer models.Actor, bookingID string) (*models.Booking, error) {
	b, err := l.DB.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.CustomerID != customer.ID {
		return nil, fmt.Errorf("booking %s: %w", bookingID, models.ErrNotAuthorized)
	}
	if !b.Active() {
		return b, nil
	}

	cancelled, err := l.DB.CancelBooking(ctx, bookingID, l.now())
	if err != nil {
		return nil, err
	}

	l.Logger.LogBooking("CANCELLED", bookingID, fmt.Sprintf("cancelled by %s", customer.ID))
	l.publish(ctx, models.EventBookingCancelled, cancelled)
	return cancelled, nil
}

// DeleteBooking hard-removes one of the customer's bookings.
func (l *Ledger) DeleteBooking(ctx context.Context, customer models.Actor, bookingID string) error {
	b, err := l.DB.GetBooking(ctx, bookingID)
	if err != nil {
		return err
	}
	if b.CustomerID != customer.ID {
		return fmt.Errorf("booking %s: %w", bookingID, models.ErrNotAuthorized)
	}
	if b.Active() {
		l.Logger.Warn("BOOKING", fmt.Sprintf("Deleting active booking %s, its seats are released", bookingID))
	}

	if err := l.DB.DeleteBooking(ctx, bookingID); err != nil {
		return err
	}

	l.Logger.LogBooking("DELETED", bookingID, fmt.Sprintf("deleted by %s", customer.ID))
	l.publish(ctx, models.EventBookingDeleted, b)
	return nil
}

// DeletePackage removes a package with all of its bookings. Only the owning agent or an
// admin may do this.
func (l *Ledger) DeletePackage(ctx context.Context, actor models.Actor, packageID string) (int, error) {
	pkg, err := l.DB.GetPackage(ctx, packageID)
	if err != nil {
		return 0, err
	}
	if actor.Role != models.RoleAdmin && pkg.AgentID != actor.ID {
		return 0, fmt.Errorf("package %s: %w", packageID, models.ErrNotAuthorized)
	}
	return l.DeletePackageCascade(ctx, packageID, actor.ID)
}

// DeletePackageCascade deletes the package and every Package booking on it in one unit.
// Either both halves apply or neither does.
func (l *Ledger) DeletePackageCascade(ctx context.Context, packageID, deletedBy string) (int, error) {
	removed, err := l.DB.DeletePackageCascade(ctx, packageID)
	if err != nil {
		return 0, err
	}

	l.Logger.LogBooking("CASCADE", packageID, fmt.Sprintf("package deleted with %d bookings", removed))
	event := models.PackageDeletedEvent{
		Type:            models.EventPackageDeleted,
		PackageID:       packageID,
		DeletedBookings: removed,
		DeletedBy:       deletedBy,
		Timestamp:       l.now(),
	}
	if err := l.Events.PublishPackageDeleted(ctx, event); err != nil {
		l.Logger.Error("KAFKA", fmt.Sprintf("Failed to publish %s for %s: %v", event.Type, packageID, err))
	}
	return removed, nil
}

func (l *Ledger) publish(ctx context.Context, eventType string, b *models.Booking) {
	if err := l.Events.PublishBookingEvent(ctx, models.NewBookingEvent(eventType, b, l.now())); err != nil {
		l.Logger.Error("KAFKA", fmt.Sprintf("Failed to publish %s for %s: %v", eventType, b.ID, err))
	}
}

// ---------------- LISTINGS ----------------

// AgentBooking is a booking on one of the agent's packages with the package's free seats.
type AgentBooking struct {
	models.ResolvedBooking
	SeatsLeft int `json:"seatsLeft"`
}

type Origin string

const (
	OriginDirect  Origin = "Direct"
	OriginPackage Origin = "Package"
)

// ServiceBooking is a booking that reaches a hotel, driver or guide either directly or
// through a package that includes them.
type ServiceBooking struct {
	models.ResolvedBooking
	Origin      Origin `json:"origin"`
	PackageName string `json:"packageName,omitempty"`
}

// ListCustomerBookings returns every booking of the customer, newest first.
func (l *Ledger) ListCustomerBookings(ctx context.Context, customerID string) ([]models.ResolvedBooking, error) {
	bookings, err := l.DB.ListBookingsByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	return l.DB.ResolveItems(ctx, bookings)
}

// ListAgentBookings returns the active bookings on the agent's packages.
func (l *Ledger) ListAgentBookings(ctx context.Context, agentID string) ([]AgentBooking, error) {
	pkgs, err := l.DB.ListPackagesByAgent(ctx, agentID)
	if err != nil {
		return nil, err
	}

	seatsLeft := make(map[string]int, len(pkgs))
	ids := make([]string, 0, len(pkgs))
	for i := range pkgs {
		seatsLeft[pkgs[i].ID] = pkgs[i].SeatsLeft()
		ids = append(ids, pkgs[i].ID)
	}

	bookings, err := l.DB.ListActiveBookings(ctx, models.BookingTypePackage, ids)
	if err != nil {
		return nil, err
	}
	resolved, err := l.DB.ResolveItems(ctx, bookings)
	if err != nil {
		return nil, err
	}

	out := make([]AgentBooking, 0, len(resolved))
	for _, rb := range resolved {
		out = append(out, AgentBooking{ResolvedBooking: rb, SeatsLeft: seatsLeft[rb.ItemID]})
	}
	return out, nil
}

// ListServiceBookings returns the active bookings that involve a hotel manager's hotel or a
// driver or guide, whether booked directly or through a package.
func (l *Ledger) ListServiceBookings(ctx context.Context, actor models.Actor) ([]ServiceBooking, error) {
	var directType models.BookingType
	directID := actor.ID

	switch actor.Role {
	case models.RoleDriver:
		directType = models.BookingTypeDriver
	case models.RoleGuide:
		directType = models.BookingTypeGuide
	case models.RoleHotelManager:
		directType = models.BookingTypeHotel
		hotel, err := l.DB.GetHotelByManager(ctx, actor.ID)
		if errors.Is(err, models.ErrNotFound) {
			return []ServiceBooking{}, nil
		}
		if err != nil {
			return nil, err
		}
		directID = hotel.ID
	default:
		return nil, fmt.Errorf("service bookings for %s: %w", actor.Role, models.ErrForbiddenRole)
	}

	pkgs, err := l.DB.ListPackagesReferencing(ctx, actor.Role, directID)
	if err != nil {
		return nil, err
	}
	pkgNames := make(map[string]string, len(pkgs))
	pkgIDs := make([]string, 0, len(pkgs))
	for _, p := range pkgs {
		pkgNames[p.ID] = p.Title
		pkgIDs = append(pkgIDs, p.ID)
	}

	direct, err := l.DB.ListActiveBookings(ctx, directType, []string{directID})
	if err != nil {
		return nil, err
	}
	viaPackage, err := l.DB.ListActiveBookings(ctx, models.BookingTypePackage, pkgIDs)
	if err != nil {
		return nil, err
	}

	resolved, err := l.DB.ResolveItems(ctx, append(direct, viaPackage...))
	if err != nil {
		return nil, err
	}

	out := make([]ServiceBooking, 0, len(resolved))
	for _, rb := range resolved {
		sb := ServiceBooking{ResolvedBooking: rb, Origin: OriginDirect}
		if rb.BookingType == models.BookingTypePackage {
			sb.Origin = OriginPackage
			sb.PackageName = pkgNames[rb.ItemID]
		}
		out = append(out, sb)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// ListAllPackageBookings is the admin view over every package booking.
func (l *Ledger) ListAllPackageBookings(ctx context.Context) ([]models.ResolvedBooking, error) {
	bookings, err := l.DB.ListBookingsByType(ctx, models.BookingTypePackage)
	if err != nil {
		return nil, err
	}
	return l.DB.ResolveItems(ctx, bookings)
}
