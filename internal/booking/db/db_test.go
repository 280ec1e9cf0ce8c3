package db_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ms-booking/internal/booking/db"
	"ms-booking/internal/database/dbtest"
	"ms-booking/internal/models"
)

func setupTestDB(t *testing.T) *db.DB {
	return &db.DB{Bun: dbtest.New(t)}
}

func newPackage(seats int) *models.Package {
	return &models.Package{
		ID:          uuid.New().String(),
		AgentID:     "agent-1",
		Title:       "Hunza Explorer",
		Destination: "Hunza",
		Duration:    5,
		Seats:       seats,
		StartDate:   time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
		Price:       45000,
		HotelID:     "hotel-1",
		DriverID:    "driver-1",
		CreatedAt:   time.Now().UTC(),
	}
}

func newPackageBooking(pkgID, customerID string, guests int, createdAt time.Time) *models.Booking {
	b := &models.Booking{
		ID:            uuid.New().String(),
		CustomerID:    customerID,
		BookingType:   models.BookingTypePackage,
		BookingDate:   createdAt,
		Guests:        guests,
		Days:          1,
		TotalPrice:    1000,
		PaymentMethod: models.PaymentCard,
		Status:        models.StatusConfirmed,
		CreatedAt:     createdAt,
	}
	b.SetRef(models.PackageRef(pkgID))
	return b
}

func TestGetPackageNotFound(t *testing.T) {
	store := setupTestDB(t)

	pkg, err := store.GetPackage(context.Background(), "missing")
	assert.Nil(t, pkg)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestInsertBookingWithinCapacity(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()
	pkg := newPackage(3)
	dbtest.Insert(t, store.Bun, pkg)

	now := time.Now().UTC()
	require.NoError(t, store.InsertBookingWithinCapacity(ctx, newPackageBooking(pkg.ID, "c1", 2, now)))

	err := store.InsertBookingWithinCapacity(ctx, newPackageBooking(pkg.ID, "c2", 2, now))
	assert.ErrorIs(t, err, models.ErrCapacityExceeded)

	require.NoError(t, store.InsertBookingWithinCapacity(ctx, newPackageBooking(pkg.ID, "c3", 1, now)))

	sum, err := store.SumActiveGuests(ctx, pkg.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, sum)

	stored, err := store.GetPackage(ctx, pkg.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stored.SeatsTaken)
	assert.Equal(t, 0, stored.SeatsLeft())
}

func TestRejectedBookingLeavesNoRow(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()
	pkg := newPackage(1)
	dbtest.Insert(t, store.Bun, pkg)

	b := newPackageBooking(pkg.ID, "c1", 2, time.Now().UTC())
	assert.ErrorIs(t, store.InsertBookingWithinCapacity(ctx, b), models.ErrCapacityExceeded)

	_, err := store.GetBooking(ctx, b.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestInsertBookingMovesCounter(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()
	pkg := newPackage(10)
	dbtest.Insert(t, store.Bun, pkg)

	require.NoError(t, store.InsertBooking(ctx, newPackageBooking(pkg.ID, "c1", 4, time.Now().UTC())))

	stored, err := store.GetPackage(ctx, pkg.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, stored.SeatsTaken)
}

func TestCancelBookingReleasesSeatsOnce(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()
	pkg := newPackage(5)
	dbtest.Insert(t, store.Bun, pkg)

	b := newPackageBooking(pkg.ID, "c1", 3, time.Now().UTC())
	require.NoError(t, store.InsertBookingWithinCapacity(ctx, b))

	at := time.Now().UTC()
	cancelled, err := store.CancelBooking(ctx, b.ID, at)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, cancelled.Status)
	assert.Equal(t, b.TotalPrice, cancelled.TotalPrice)
	assert.Equal(t, b.ItemID, cancelled.ItemID)
	assert.Equal(t, b.CustomerID, cancelled.CustomerID)

	again, err := store.CancelBooking(ctx, b.ID, at.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, again.Status)

	stored, err := store.GetPackage(ctx, pkg.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.SeatsTaken)

	sum, err := store.SumActiveGuests(ctx, pkg.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, sum)
}

func TestCancelBookingNotFound(t *testing.T) {
	store := setupTestDB(t)

	b, err := store.CancelBooking(context.Background(), "missing", time.Now())
	assert.Nil(t, b)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestDeleteActiveBookingReleasesSeats(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()
	pkg := newPackage(5)
	dbtest.Insert(t, store.Bun, pkg)

	b := newPackageBooking(pkg.ID, "c1", 2, time.Now().UTC())
	require.NoError(t, store.InsertBookingWithinCapacity(ctx, b))
	require.NoError(t, store.DeleteBooking(ctx, b.ID))

	stored, err := store.GetPackage(ctx, pkg.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.SeatsTaken)

	assert.ErrorIs(t, store.DeleteBooking(ctx, b.ID), models.ErrNotFound)
}

func TestDeletePackageCascade(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()
	pkg := newPackage(10)
	other := newPackage(10)
	dbtest.Insert(t, store.Bun, pkg, other)

	now := time.Now().UTC()
	require.NoError(t, store.InsertBooking(ctx, newPackageBooking(pkg.ID, "c1", 1, now)))
	require.NoError(t, store.InsertBooking(ctx, newPackageBooking(pkg.ID, "c2", 2, now)))
	kept := newPackageBooking(other.ID, "c1", 1, now)
	require.NoError(t, store.InsertBooking(ctx, kept))

	removed, err := store.DeletePackageCascade(ctx, pkg.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	left, err := store.ListActiveBookings(ctx, models.BookingTypePackage, []string{pkg.ID})
	require.NoError(t, err)
	assert.Empty(t, left)

	_, err = store.GetPackage(ctx, pkg.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = store.GetBooking(ctx, kept.ID)
	assert.NoError(t, err)
}

func TestDeletePackageCascadeMissingPackageRollsBack(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	orphan := newPackageBooking("gone", "c1", 1, time.Now().UTC())
	dbtest.Insert(t, store.Bun, orphan)

	_, err := store.DeletePackageCascade(ctx, "gone")
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = store.GetBooking(ctx, orphan.ID)
	assert.NoError(t, err)
}

func TestListPackagesReferencing(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()
	withDriver := newPackage(4)
	withoutDriver := newPackage(4)
	withoutDriver.DriverID = ""
	dbtest.Insert(t, store.Bun, withDriver, withoutDriver)

	pkgs, err := store.ListPackagesReferencing(ctx, models.RoleDriver, "driver-1")
	require.NoError(t, err)
	require.Len(t, pkgs, 1)
	assert.Equal(t, withDriver.ID, pkgs[0].ID)

	_, err = store.ListPackagesReferencing(ctx, models.RoleCustomer, "c1")
	assert.ErrorIs(t, err, models.ErrForbiddenRole)
}

func TestResolveItemsMarksDangling(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()
	pkg := newPackage(4)
	hotel := &models.Hotel{ID: "hotel-1", ManagerID: "m1", Name: "Hunza Inn", City: "Hunza", Address: "Karimabad", PricePerNight: 8000}
	dbtest.Insert(t, store.Bun, pkg, hotel)

	now := time.Now().UTC()
	hotelBooking := models.Booking{ID: "b-hotel", CustomerID: "c1", BookingType: models.BookingTypeHotel, Guests: 1, Days: 2, TotalPrice: 16000, Status: models.StatusConfirmed, CreatedAt: now}
	hotelBooking.SetRef(models.HotelRef(hotel.ID))
	bookings := []models.Booking{
		*newPackageBooking(pkg.ID, "c1", 1, now),
		*newPackageBooking("deleted-package", "c1", 1, now),
		hotelBooking,
	}

	resolved, err := store.ResolveItems(ctx, bookings)
	require.NoError(t, err)
	require.Len(t, resolved, 3)

	assert.False(t, resolved[0].Dangling())
	assert.IsType(t, &models.Package{}, resolved[0].Item)
	assert.True(t, resolved[1].Dangling())
	assert.IsType(t, &models.Hotel{}, resolved[2].Item)
}

func TestListBookingsByCustomerNewestFirst(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()
	pkg := newPackage(10)
	dbtest.Insert(t, store.Bun, pkg)

	older := newPackageBooking(pkg.ID, "c1", 1, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	newer := newPackageBooking(pkg.ID, "c1", 1, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	dbtest.Insert(t, store.Bun, older, newer, newPackageBooking(pkg.ID, "c2", 1, time.Now().UTC()))

	bookings, err := store.ListBookingsByCustomer(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, bookings, 2)
	assert.Equal(t, newer.ID, bookings[0].ID)
	assert.Equal(t, older.ID, bookings[1].ID)
}
