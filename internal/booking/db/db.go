package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"ms-booking/internal/models"
)

type DB struct {
	Bun *bun.DB
}

func notFound(err error, what, id string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %s: %w", what, id, models.ErrNotFound)
	}
	return fmt.Errorf("load %s %s: %w", what, id, err)
}

// ---------------- ITEMS ----------------

func (d *DB) GetPackage(ctx context.Context, id string) (*models.Package, error) {
	var pkg models.Package
	err := d.Bun.NewSelect().Model(&pkg).Where("id = ?", id).Limit(1).Scan(ctx)
	if err != nil {
		return nil, notFound(err, "package", id)
	}
	return &pkg, nil
}

func (d *DB) GetHotel(ctx context.Context, id string) (*models.Hotel, error) {
	var hotel models.Hotel
	err := d.Bun.NewSelect().Model(&hotel).Where("id = ?", id).Limit(1).Scan(ctx)
	if err != nil {
		return nil, notFound(err, "hotel", id)
	}
	return &hotel, nil
}

func (d *DB) GetHotelByManager(ctx context.Context, managerID string) (*models.Hotel, error) {
	var hotel models.Hotel
	err := d.Bun.NewSelect().Model(&hotel).Where("manager_id = ?", managerID).Limit(1).Scan(ctx)
	if err != nil {
		return nil, notFound(err, "hotel of manager", managerID)
	}
	return &hotel, nil
}

func (d *DB) GetUser(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := d.Bun.NewSelect().Model(&user).Where("id = ?", id).Limit(1).Scan(ctx)
	if err != nil {
		return nil, notFound(err, "user", id)
	}
	return &user, nil
}

func (d *DB) ListPackagesByAgent(ctx context.Context, agentID string) ([]models.Package, error) {
	var pkgs []models.Package
	err := d.Bun.NewSelect().Model(&pkgs).Where("agent_id = ?", agentID).Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list packages of agent %s: %w", agentID, err)
	}
	return pkgs, nil
}

// ListPackagesReferencing returns the packages that list resourceID as their hotel,
// driver or guide, picked by the resource owner's role.
func (d *DB) ListPackagesReferencing(ctx context.Context, role models.Role, resourceID string) ([]models.Package, error) {
	column, err := referenceColumn(role)
	if err != nil {
		return nil, err
	}

	var pkgs []models.Package
	err = d.Bun.NewSelect().Model(&pkgs).Where("? = ?", bun.Ident(column), resourceID).Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list packages referencing %s: %w", resourceID, err)
	}
	return pkgs, nil
}

func referenceColumn(role models.Role) (string, error) {
	switch role {
	case models.RoleHotelManager:
		return "hotel_id", nil
	case models.RoleDriver:
		return "driver_id", nil
	case models.RoleGuide:
		return "guide_id", nil
	}
	return "", fmt.Errorf("role %s owns no package resources: %w", role, models.ErrForbiddenRole)
}

// ---------------- BOOKINGS ----------------

func (d *DB) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	var b models.Booking
	err := d.Bun.NewSelect().Model(&b).Where("id = ?", id).Limit(1).Scan(ctx)
	if err != nil {
		return nil, notFound(err, "booking", id)
	}
	return &b, nil
}

// SumActiveGuests reads the current guest total over non-cancelled bookings of a package.
func (d *DB) SumActiveGuests(ctx context.Context, packageID string) (int, error) {
	return sumActiveGuests(ctx, d.Bun, packageID)
}

func sumActiveGuests(ctx context.Context, idb bun.IDB, packageID string) (int, error) {
	var sum int
	err := idb.NewSelect().
		Model((*models.Booking)(nil)).
		ColumnExpr("COALESCE(SUM(guests), 0)").
		Where("item_id = ?", packageID).
		Where("booking_type = ?", models.BookingTypePackage).
		Where("status <> ?", models.StatusCancelled).
		Scan(ctx, &sum)
	if err != nil {
		return 0, fmt.Errorf("sum guests of package %s: %w", packageID, err)
	}
	return sum, nil
}

// InsertBooking stores the booking without any capacity guard. A package booking
// still moves the package's seats_taken counter.
func (d *DB) InsertBooking(ctx context.Context, b *models.Booking) error {
	return d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if b.HoldsSeats() {
			if _, err := tx.NewUpdate().
				Model((*models.Package)(nil)).
				Set("seats_taken = seats_taken + ?", b.Guests).
				Where("id = ?", b.ItemID).
				Exec(ctx); err != nil {
				return fmt.Errorf("reserve seats on %s: %w", b.ItemID, err)
			}
		}
		if _, err := tx.NewInsert().Model(b).Exec(ctx); err != nil {
			return fmt.Errorf("insert booking: %w", err)
		}
		return nil
	})
}

// InsertBookingWithinCapacity reserves the seats with a conditional update and inserts
// the booking in the same transaction. No row matching the guard means the package is full.
func (d *DB) InsertBookingWithinCapacity(ctx context.Context, b *models.Booking) error {
	return d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewUpdate().
			Model((*models.Package)(nil)).
			Set("seats_taken = seats_taken + ?", b.Guests).
			Where("id = ?", b.ItemID).
			Where("seats_taken + ? <= seats", b.Guests).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("reserve seats on %s: %w", b.ItemID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("reserve seats on %s: %w", b.ItemID, err)
		}
		if n == 0 {
			return models.ErrCapacityExceeded
		}

		if _, err := tx.NewInsert().Model(b).Exec(ctx); err != nil {
			return fmt.Errorf("insert booking: %w", err)
		}
		return nil
	})
}

// InsertCustomPackageBooking stores a synthesized package together with its only booking.
func (d *DB) InsertCustomPackageBooking(ctx context.Context, pkg *models.Package, b *models.Booking) error {
	return d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(pkg).Exec(ctx); err != nil {
			return fmt.Errorf("insert custom package: %w", err)
		}
		if _, err := tx.NewInsert().Model(b).Exec(ctx); err != nil {
			return fmt.Errorf("insert custom booking: %w", err)
		}
		return nil
	})
}

// CancelBooking flips a Confirmed booking to Cancelled and releases its seats. A booking
// that is already cancelled is returned unchanged.
func (d *DB) CancelBooking(ctx context.Context, id string, at time.Time) (*models.Booking, error) {
	var b models.Booking
	err := d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := tx.NewSelect().Model(&b).Where("id = ?", id).Limit(1).Scan(ctx); err != nil {
			return notFound(err, "booking", id)
		}
		if !b.Active() {
			return nil
		}

		res, err := tx.NewUpdate().
			Model((*models.Booking)(nil)).
			Set("status = ?", models.StatusCancelled).
			Set("updated_at = ?", at).
			Where("id = ?", id).
			Where("status = ?", models.StatusConfirmed).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("cancel booking %s: %w", id, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return nil
		}

		wasHolding := b.HoldsSeats()
		b.Status = models.StatusCancelled
		b.UpdatedAt = at
		if wasHolding {
			return releaseSeats(ctx, tx, b.ItemID, b.Guests)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// DeleteBooking hard-removes a booking, releasing seats if it still held any.
func (d *DB) DeleteBooking(ctx context.Context, id string) error {
	return d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var b models.Booking
		if err := tx.NewSelect().Model(&b).Where("id = ?", id).Limit(1).Scan(ctx); err != nil {
			return notFound(err, "booking", id)
		}
		if _, err := tx.NewDelete().Model((*models.Booking)(nil)).Where("id = ?", id).Exec(ctx); err != nil {
			return fmt.Errorf("delete booking %s: %w", id, err)
		}
		if b.HoldsSeats() {
			return releaseSeats(ctx, tx, b.ItemID, b.Guests)
		}
		return nil
	})
}

// DeletePackageCascade removes a package and every Package booking on it in one
// transaction and reports how many bookings went with it.
func (d *DB) DeletePackageCascade(ctx context.Context, packageID string) (int, error) {
	var removed int64
	err := d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewDelete().
			Model((*models.Booking)(nil)).
			Where("item_id = ?", packageID).
			Where("booking_type = ?", models.BookingTypePackage).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("delete bookings of package %s: %w", packageID, err)
		}
		removed, _ = res.RowsAffected()

		res, err = tx.NewDelete().Model((*models.Package)(nil)).Where("id = ?", packageID).Exec(ctx)
		if err != nil {
			return fmt.Errorf("delete package %s: %w", packageID, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("package %s: %w", packageID, models.ErrNotFound)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return int(removed), nil
}

func releaseSeats(ctx context.Context, tx bun.Tx, packageID string, guests int) error {
	_, err := tx.NewUpdate().
		Model((*models.Package)(nil)).
		Set("seats_taken = CASE WHEN seats_taken >= ? THEN seats_taken - ? ELSE 0 END", guests, guests).
		Where("id = ?", packageID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("release seats on %s: %w", packageID, err)
	}
	return nil
}

// ---------------- LISTINGS ----------------

func (d *DB) ListBookingsByCustomer(ctx context.Context, customerID string) ([]models.Booking, error) {
	var bookings []models.Booking
	err := d.Bun.NewSelect().
		Model(&bookings).
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list bookings of customer %s: %w", customerID, err)
	}
	return bookings, nil
}

func (d *DB) ListBookingsByType(ctx context.Context, t models.BookingType) ([]models.Booking, error) {
	var bookings []models.Booking
	err := d.Bun.NewSelect().
		Model(&bookings).
		Where("booking_type = ?", t).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list %s bookings: %w", t, err)
	}
	return bookings, nil
}

// ListActiveBookings returns non-cancelled bookings of type t on any of itemIDs, newest first.
func (d *DB) ListActiveBookings(ctx context.Context, t models.BookingType, itemIDs []string) ([]models.Booking, error) {
	if len(itemIDs) == 0 {
		return nil, nil
	}

	var bookings []models.Booking
	err := d.Bun.NewSelect().
		Model(&bookings).
		Where("booking_type = ?", t).
		Where("item_id IN (?)", bun.In(itemIDs)).
		Where("status <> ?", models.StatusCancelled).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active %s bookings: %w", t, err)
	}
	return bookings, nil
}

func (d *DB) ResolveItems(ctx context.Context, bookings []models.Booking) ([]models.ResolvedBooking, error) {
	return ResolveItems(ctx, d.Bun, bookings)
}

// ResolveItems loads the item of every booking with one query per item table. Bookings whose
// item no longer exists come back with a nil Item.
func ResolveItems(ctx context.Context, idb bun.IDB, bookings []models.Booking) ([]models.ResolvedBooking, error) {
	ids := map[models.ItemModel][]string{}
	for _, b := range bookings {
		ids[b.ItemModel] = append(ids[b.ItemModel], b.ItemID)
	}

	items := map[models.ItemModel]map[string]models.Item{}

	if len(ids[models.ItemModelPackage]) > 0 {
		var pkgs []models.Package
		if err := idb.NewSelect().Model(&pkgs).Where("id IN (?)", bun.In(ids[models.ItemModelPackage])).Scan(ctx); err != nil {
			return nil, fmt.Errorf("resolve packages: %w", err)
		}
		m := make(map[string]models.Item, len(pkgs))
		for i := range pkgs {
			m[pkgs[i].ID] = &pkgs[i]
		}
		items[models.ItemModelPackage] = m
	}

	if len(ids[models.ItemModelHotel]) > 0 {
		var hotels []models.Hotel
		if err := idb.NewSelect().Model(&hotels).Where("id IN (?)", bun.In(ids[models.ItemModelHotel])).Scan(ctx); err != nil {
			return nil, fmt.Errorf("resolve hotels: %w", err)
		}
		m := make(map[string]models.Item, len(hotels))
		for i := range hotels {
			m[hotels[i].ID] = &hotels[i]
		}
		items[models.ItemModelHotel] = m
	}

	if len(ids[models.ItemModelUser]) > 0 {
		var users []models.User
		if err := idb.NewSelect().Model(&users).Where("id IN (?)", bun.In(ids[models.ItemModelUser])).Scan(ctx); err != nil {
			return nil, fmt.Errorf("resolve users: %w", err)
		}
		m := make(map[string]models.Item, len(users))
		for i := range users {
			m[users[i].ID] = &users[i]
		}
		items[models.ItemModelUser] = m
	}

	resolved := make([]models.ResolvedBooking, 0, len(bookings))
	for _, b := range bookings {
		rb := models.ResolvedBooking{Booking: b}
		if item, ok := items[b.ItemModel][b.ItemID]; ok {
			rb.Item = item
		}
		resolved = append(resolved, rb)
	}
	return resolved, nil
}
