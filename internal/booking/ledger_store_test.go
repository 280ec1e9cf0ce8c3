package booking_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ms-booking/internal/booking"
	"ms-booking/internal/booking/db"
	bookingkafka "ms-booking/internal/booking/kafka"
	"ms-booking/internal/config"
	"ms-booking/internal/database/dbtest"
	"ms-booking/internal/kafka"
	"ms-booking/internal/models"
)

func setupLedger(t *testing.T, strategy config.CapacityStrategy, seats int) (*booking.Ledger, *db.DB, *models.Package) {
	store := &db.DB{Bun: dbtest.New(t)}
	pkg := &models.Package{
		ID:          "pkg-1",
		AgentID:     "agent-1",
		Title:       "Skardu Lakes",
		Destination: "Skardu",
		Duration:    4,
		Seats:       seats,
		StartDate:   time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
		Price:       30000,
		CreatedAt:   time.Now().UTC(),
	}
	dbtest.Insert(t, store.Bun, pkg)

	events := bookingkafka.NewPublisher(kafka.NoopPublisher{}, config.TopicConfig{})
	return booking.NewLedger(store, nil, events, strategy, nil), store, pkg
}

func book(l *booking.Ledger, customerID string, guests int) (*models.Booking, error) {
	return l.CreateBooking(context.Background(), models.Actor{ID: customerID, Role: models.RoleCustomer}, booking.CreateBookingInput{
		Type:          models.BookingTypePackage,
		ItemID:        "pkg-1",
		Guests:        guests,
		TotalPrice:    float64(guests) * 30000,
		PaymentMethod: models.PaymentCard,
		BookingDate:   time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
	})
}

func TestLedgerNeverOversellsSequentially(t *testing.T) {
	for _, strategy := range []config.CapacityStrategy{config.StrategyNaive, config.StrategyAtomic} {
		t.Run(string(strategy), func(t *testing.T) {
			l, store, pkg := setupLedger(t, strategy, 5)
			ctx := context.Background()

			accepted := 0
			for _, guests := range []int{2, 2, 2, 1, 3, 1} {
				if _, err := book(l, "c1", guests); err == nil {
					accepted += guests
				} else {
					assert.ErrorIs(t, err, models.ErrCapacityExceeded)
				}
			}
			assert.Equal(t, 5, accepted)

			sum, err := store.SumActiveGuests(ctx, pkg.ID)
			require.NoError(t, err)
			assert.LessOrEqual(t, sum, pkg.Seats)
		})
	}
}

func TestLedgerAtomicUnderConcurrency(t *testing.T) {
	l, store, pkg := setupLedger(t, config.StrategyAtomic, 10)

	var wg sync.WaitGroup
	var mu sync.Mutex
	rejected := 0
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := book(l, "c1", 1)
			if errors.Is(err, models.ErrCapacityExceeded) {
				mu.Lock()
				rejected++
				mu.Unlock()
				return
			}
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 15, rejected)
	sum, err := store.SumActiveGuests(context.Background(), pkg.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, sum)
}

func TestLedgerCancelFreesCapacity(t *testing.T) {
	l, _, _ := setupLedger(t, config.StrategyAtomic, 2)
	ctx := context.Background()
	owner := models.Actor{ID: "c1", Role: models.RoleCustomer}

	first, err := book(l, "c1", 2)
	require.NoError(t, err)
	_, err = book(l, "c2", 1)
	require.ErrorIs(t, err, models.ErrCapacityExceeded)

	cancelled, err := l.CancelBooking(ctx, owner, first.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, cancelled.Status)
	assert.Equal(t, first.TotalPrice, cancelled.TotalPrice)
	assert.Equal(t, first.CustomerID, cancelled.CustomerID)
	assert.Equal(t, first.ItemID, cancelled.ItemID)

	_, err = book(l, "c2", 2)
	assert.NoError(t, err)

	again, err := l.CancelBooking(ctx, owner, first.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, again.Status)

	// a repeated cancel must not release the seats a second time
	_, err = book(l, "c3", 1)
	assert.ErrorIs(t, err, models.ErrCapacityExceeded)
}

func TestLedgerDeletePackageLeavesNoBookings(t *testing.T) {
	l, store, pkg := setupLedger(t, config.StrategyAtomic, 10)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := book(l, "c1", 1)
		require.NoError(t, err)
	}

	removed, err := l.DeletePackage(ctx, models.Actor{ID: "agent-1", Role: models.RoleTravelAgent}, pkg.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, removed)

	left, err := store.ListActiveBookings(ctx, models.BookingTypePackage, []string{pkg.ID})
	require.NoError(t, err)
	assert.Empty(t, left)

	mine, err := l.ListCustomerBookings(ctx, "c1")
	require.NoError(t, err)
	assert.Empty(t, mine)
}

func TestLedgerCustomBookingPersists(t *testing.T) {
	l, store, _ := setupLedger(t, config.StrategyAtomic, 10)
	ctx := context.Background()
	dbtest.Insert(t, store.Bun,
		&models.Hotel{ID: "hotel-1", ManagerID: "m1", Name: "Lake View", City: "Skardu", Address: "Shangrila", PricePerNight: 10000},
		&models.User{ID: "driver-1", Role: models.RoleDriver, FullName: "Ali", Email: "ali@example.com", PasswordHash: "!", IsApproved: models.ApprovalApproved, PricePerKm: 50, CreatedAt: time.Now().UTC()},
	)

	pkg, b, err := l.CreateCustomBooking(ctx, models.Actor{ID: "c1", Role: models.RoleCustomer}, booking.CustomPackageInput{
		Title:         "Lakes",
		Destination:   "Skardu",
		Duration:      3,
		HotelID:       "hotel-1",
		DriverID:      "driver-1",
		PaymentMethod: models.PaymentCard,
	})
	require.NoError(t, err)
	assert.Equal(t, 74250.0, b.TotalPrice)

	stored, err := store.GetPackage(ctx, pkg.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsCustom)
	assert.Equal(t, 0, stored.SeatsLeft())

	_, err = l.CreateBooking(ctx, models.Actor{ID: "c2", Role: models.RoleCustomer}, booking.CreateBookingInput{
		Type:          models.BookingTypePackage,
		ItemID:        pkg.ID,
		TotalPrice:    1,
		PaymentMethod: models.PaymentCard,
		BookingDate:   time.Now().UTC(),
	})
	assert.ErrorIs(t, err, models.ErrCapacityExceeded)

	mine, err := l.ListCustomerBookings(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.False(t, mine[0].Dangling())
}
