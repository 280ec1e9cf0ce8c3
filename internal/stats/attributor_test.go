package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ms-booking/internal/models"
)

var (
	admin    = models.Actor{ID: "admin-1", Role: models.RoleAdmin}
	customer = models.Actor{ID: "customer-1", Role: models.RoleCustomer}
	march    = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
)

func resolved(id string, t models.BookingType, itemID string, price float64, item models.Item) models.ResolvedBooking {
	b := models.Booking{
		ID:          id,
		CustomerID:  "customer-1",
		BookingType: t,
		TotalPrice:  price,
		Status:      models.StatusConfirmed,
		CreatedAt:   march,
	}
	b.SetRef(models.RefFor(t, itemID))
	return models.ResolvedBooking{Booking: b, Item: item}
}

func standardPackage(id string) *models.Package { return &models.Package{ID: id} }
func customPackage(id string) *models.Package   { return &models.Package{ID: id, IsCustom: true} }

func TestAdminStandardPackageShare(t *testing.T) {
	out, skipped := Compute(admin, Ownership{}, []models.ResolvedBooking{
		resolved("b1", models.BookingTypePackage, "p1", 1000, standardPackage("p1")),
	})

	assert.Empty(t, skipped)
	require.NotNil(t, out.Breakdown)
	assert.Equal(t, 400.0, out.Breakdown.Packages)
	assert.Equal(t, 0.0, out.Breakdown.CustomPackages)
	assert.Equal(t, 400.0, out.TotalEarnings)
	assert.Equal(t, 1, out.TotalBookings)
}

func TestAdminCustomPackageShare(t *testing.T) {
	out, _ := Compute(admin, Ownership{}, []models.ResolvedBooking{
		resolved("b1", models.BookingTypePackage, "p1", 1000, customPackage("p1")),
	})

	require.NotNil(t, out.Breakdown)
	assert.Equal(t, 700.0, out.Breakdown.CustomPackages)
	assert.Equal(t, 0.0, out.Breakdown.Packages)
	assert.Equal(t, 700.0, out.TotalEarnings)
}

func TestAdminDirectShares(t *testing.T) {
	out, _ := Compute(admin, Ownership{}, []models.ResolvedBooking{
		resolved("h", models.BookingTypeHotel, "hotel-1", 500, &models.Hotel{ID: "hotel-1"}),
		resolved("d", models.BookingTypeDriver, "driver-1", 200, &models.User{ID: "driver-1"}),
		resolved("g", models.BookingTypeGuide, "guide-1", 100, &models.User{ID: "guide-1"}),
	})

	assert.Equal(t, 200.0, out.Breakdown.Hotels)
	assert.Equal(t, 80.0, out.Breakdown.Drivers)
	assert.Equal(t, 40.0, out.Breakdown.Guides)
	assert.Equal(t, 320.0, out.TotalEarnings)
	assert.Equal(t, 3, out.TotalBookings)
}

func TestCustomerEarnsExactSumOfOwnBookings(t *testing.T) {
	mine := []models.ResolvedBooking{
		resolved("b1", models.BookingTypePackage, "p1", 1234.56, standardPackage("p1")),
		resolved("b2", models.BookingTypeHotel, "h1", 99.99, &models.Hotel{ID: "h1"}),
		resolved("b3", models.BookingTypeGuide, "g1", 0.01, &models.User{ID: "g1"}),
	}
	other := resolved("b4", models.BookingTypeHotel, "h1", 5000, &models.Hotel{ID: "h1"})
	other.CustomerID = "customer-2"

	out, _ := Compute(customer, Ownership{}, append(mine, other))

	want := 0.0
	for _, rb := range mine {
		want += rb.TotalPrice
	}
	assert.Equal(t, want, out.TotalEarnings)
	assert.Equal(t, 3, out.TotalBookings)
	require.NotNil(t, out.Breakdown)
	assert.Equal(t, 1234.56, out.Breakdown.Packages)
	assert.Equal(t, 99.99, out.Breakdown.Hotels)
}

func TestDanglingBookingIsSkipped(t *testing.T) {
	bookings := []models.ResolvedBooking{
		resolved("ok", models.BookingTypeHotel, "h1", 1000, &models.Hotel{ID: "h1"}),
		resolved("gone", models.BookingTypePackage, "deleted", 5000, nil),
	}

	out, skipped := Compute(admin, Ownership{}, bookings)

	assert.Equal(t, []string{"gone"}, skipped)
	assert.Equal(t, 400.0, out.TotalEarnings)
	assert.Equal(t, 1, out.TotalBookings)
	assert.Equal(t, 0.0, out.Breakdown.Packages)
}

func TestCancelledBookingsAreIgnored(t *testing.T) {
	b := resolved("c", models.BookingTypeHotel, "h1", 1000, &models.Hotel{ID: "h1"})
	b.Status = models.StatusCancelled

	out, _ := Compute(admin, Ownership{}, []models.ResolvedBooking{b})

	assert.Equal(t, 0.0, out.TotalEarnings)
	assert.Equal(t, 0, out.TotalBookings)
}

func TestMonthlySeriesHasTwelveLabelledMonths(t *testing.T) {
	jan := resolved("jan", models.BookingTypeHotel, "h1", 100, &models.Hotel{ID: "h1"})
	jan.CreatedAt = time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)
	janNextYear := resolved("jan2", models.BookingTypeHotel, "h1", 50, &models.Hotel{ID: "h1"})
	janNextYear.CreatedAt = time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC)
	dec := resolved("dec", models.BookingTypeHotel, "h1", 10, &models.Hotel{ID: "h1"})
	dec.CreatedAt = time.Date(2025, 12, 31, 23, 0, 0, 0, time.UTC)

	for _, input := range [][]models.ResolvedBooking{nil, {jan, janNextYear, dec}} {
		out, _ := Compute(customer, Ownership{}, input)
		require.Len(t, out.MonthlySeries, 12)

		names := make([]string, 0, 12)
		for _, m := range out.MonthlySeries {
			names = append(names, m.Name)
		}
		assert.Equal(t, []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}, names)
	}

	out, _ := Compute(customer, Ownership{}, []models.ResolvedBooking{jan, janNextYear, dec})
	assert.Equal(t, 150.0, out.MonthlySeries[0].Amount, "years fold onto the same month")
	assert.Equal(t, 0.0, out.MonthlySeries[5].Amount)
	assert.Equal(t, 10.0, out.MonthlySeries[11].Amount)
}

func TestMonthlySeriesRoundsToWholeUnits(t *testing.T) {
	out, _ := Compute(customer, Ownership{}, []models.ResolvedBooking{
		resolved("b1", models.BookingTypeHotel, "h1", 100.4, &models.Hotel{ID: "h1"}),
		resolved("b2", models.BookingTypeHotel, "h1", 0.2, &models.Hotel{ID: "h1"}),
	})

	assert.Equal(t, 101.0, out.MonthlySeries[2].Amount)
	assert.InDelta(t, 100.6, out.TotalEarnings, 1e-9)
}

func TestTravelAgentShare(t *testing.T) {
	agent := models.Actor{ID: "agent-1", Role: models.RoleTravelAgent}
	own := Ownership{PackageIDs: map[string]bool{"mine": true}}

	out, _ := Compute(agent, own, []models.ResolvedBooking{
		resolved("b1", models.BookingTypePackage, "mine", 1000, standardPackage("mine")),
		resolved("b2", models.BookingTypePackage, "theirs", 1000, standardPackage("theirs")),
		resolved("b3", models.BookingTypeHotel, "mine", 1000, &models.Hotel{ID: "mine"}),
	})

	assert.Equal(t, 300.0, out.TotalEarnings)
	assert.Equal(t, 1, out.TotalBookings)
	assert.Nil(t, out.Breakdown)
}

func TestProviderShares(t *testing.T) {
	tests := []struct {
		name   string
		actor  models.Actor
		own    Ownership
		direct models.ResolvedBooking
	}{
		{
			name:   "hotel manager",
			actor:  models.Actor{ID: "manager-1", Role: models.RoleHotelManager},
			own:    Ownership{DirectType: models.BookingTypeHotel, DirectIDs: map[string]bool{"hotel-1": true}, PackageIDs: map[string]bool{"p1": true}},
			direct: resolved("direct", models.BookingTypeHotel, "hotel-1", 1000, &models.Hotel{ID: "hotel-1"}),
		},
		{
			name:   "driver",
			actor:  models.Actor{ID: "driver-1", Role: models.RoleDriver},
			own:    Ownership{DirectType: models.BookingTypeDriver, DirectIDs: map[string]bool{"driver-1": true}, PackageIDs: map[string]bool{"p1": true}},
			direct: resolved("direct", models.BookingTypeDriver, "driver-1", 1000, &models.User{ID: "driver-1"}),
		},
		{
			name:   "guide",
			actor:  models.Actor{ID: "guide-1", Role: models.RoleGuide},
			own:    Ownership{DirectType: models.BookingTypeGuide, DirectIDs: map[string]bool{"guide-1": true}, PackageIDs: map[string]bool{"p1": true}},
			direct: resolved("direct", models.BookingTypeGuide, "guide-1", 1000, &models.User{ID: "guide-1"}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			viaPackage := resolved("via", models.BookingTypePackage, "p1", 1000, standardPackage("p1"))
			unrelated := resolved("other", models.BookingTypePackage, "p2", 1000, standardPackage("p2"))

			out, _ := Compute(tt.actor, tt.own, []models.ResolvedBooking{tt.direct, viaPackage, unrelated})

			assert.Equal(t, 700.0, out.TotalEarnings, "60 percent direct plus 10 percent via package")
			assert.Equal(t, 2, out.TotalBookings)
			assert.Nil(t, out.Breakdown)
		})
	}
}

func TestDriverDoesNotEarnFromGuideBookingWithSameID(t *testing.T) {
	driver := models.Actor{ID: "u1", Role: models.RoleDriver}
	own := Ownership{DirectType: models.BookingTypeDriver, DirectIDs: map[string]bool{"u1": true}}

	out, _ := Compute(driver, own, []models.ResolvedBooking{
		resolved("g", models.BookingTypeGuide, "u1", 1000, &models.User{ID: "u1"}),
	})

	assert.Equal(t, 0, out.TotalBookings)
}

func TestSharesAreNotReconciledAcrossRoles(t *testing.T) {
	pkg := &models.Package{ID: "p1", AgentID: "agent-1", HotelID: "hotel-1", DriverID: "driver-1", GuideID: "guide-1"}
	b := resolved("b1", models.BookingTypePackage, "p1", 1000, pkg)
	all := []models.ResolvedBooking{b}
	viaPkg := map[string]bool{"p1": true}

	adminOut, _ := Compute(admin, Ownership{}, all)
	agentOut, _ := Compute(models.Actor{ID: "agent-1", Role: models.RoleTravelAgent}, Ownership{PackageIDs: viaPkg}, all)
	hotelOut, _ := Compute(models.Actor{ID: "m", Role: models.RoleHotelManager}, Ownership{DirectType: models.BookingTypeHotel, PackageIDs: viaPkg}, all)
	driverOut, _ := Compute(models.Actor{ID: "driver-1", Role: models.RoleDriver}, Ownership{DirectType: models.BookingTypeDriver, PackageIDs: viaPkg}, all)
	guideOut, _ := Compute(models.Actor{ID: "guide-1", Role: models.RoleGuide}, Ownership{DirectType: models.BookingTypeGuide, PackageIDs: viaPkg}, all)

	sum := adminOut.TotalEarnings + agentOut.TotalEarnings + hotelOut.TotalEarnings + driverOut.TotalEarnings + guideOut.TotalEarnings
	assert.Equal(t, 1000.0, sum, "40 + 30 + 3 x 10 happens to equal the price")

	customOut, _ := Compute(admin, Ownership{}, []models.ResolvedBooking{resolved("c", models.BookingTypePackage, "pc", 1000, customPackage("pc"))})
	assert.Equal(t, 700.0, customOut.TotalEarnings)
}
