package stats

import (
	"math"
	"time"

	"ms-booking/internal/models"
)

// Share percentages per role. Shares of different roles on the same booking are not
// reconciled against each other and may sum to more or less than 100.
const (
	CustomerSharePct      = 100
	AdminCustomPackagePct = 70
	AdminPackagePct       = 40
	AdminHotelPct         = 40
	AdminResourcePct      = 40
	AgentPackagePct       = 30
	ProviderDirectPct     = 60
	ProviderViaPackagePct = 10
)

// Ownership is what the caller owns, resolved before the scan. DirectIDs are matched against
// bookings of DirectType; PackageIDs against Package bookings.
type Ownership struct {
	DirectType models.BookingType
	DirectIDs  map[string]bool
	PackageIDs map[string]bool
}

type MonthAmount struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
}

// Breakdown splits earnings by item category. Only customers and admins get one.
type Breakdown struct {
	Packages       float64 `json:"packages"`
	CustomPackages float64 `json:"customPackages"`
	Hotels         float64 `json:"hotels"`
	Drivers        float64 `json:"drivers"`
	Guides         float64 `json:"guides"`
}

type DashboardStats struct {
	TotalEarnings float64       `json:"totalEarnings"`
	TotalBookings int           `json:"totalBookings"`
	MonthlySeries []MonthAmount `json:"monthlySeries"`
	Breakdown     *Breakdown    `json:"breakdown,omitempty"`
}

// Compute attributes each active booking to actor and sums the actor's share. Bookings whose
// item no longer exists are left out and their ids returned as skipped.
func Compute(actor models.Actor, own Ownership, bookings []models.ResolvedBooking) (DashboardStats, []string) {
	var monthly [12]float64
	var skipped []string
	out := DashboardStats{}
	if actor.Role == models.RoleCustomer || actor.Role == models.RoleAdmin {
		out.Breakdown = &Breakdown{}
	}

	for i := range bookings {
		rb := &bookings[i]
		if !rb.Active() {
			continue
		}
		if rb.Dangling() {
			skipped = append(skipped, rb.ID)
			continue
		}

		pct, ok := sharePct(actor, own, rb)
		if !ok {
			continue
		}
		amount := shareOf(rb.TotalPrice, pct)

		out.TotalEarnings += amount
		out.TotalBookings++
		monthly[rb.CreatedAt.UTC().Month()-1] += amount
		if out.Breakdown != nil {
			out.Breakdown.add(rb, amount)
		}
	}

	out.MonthlySeries = make([]MonthAmount, 12)
	for m := range monthly {
		out.MonthlySeries[m] = MonthAmount{
			Name:   time.Month(m + 1).String()[:3],
			Amount: math.Round(monthly[m]),
		}
	}
	return out, skipped
}

// sharePct reports whether rb is relevant to actor and the percentage of its price earned.
func sharePct(actor models.Actor, own Ownership, rb *models.ResolvedBooking) (int, bool) {
	switch actor.Role {
	case models.RoleCustomer:
		if rb.CustomerID == actor.ID {
			return CustomerSharePct, true
		}
	case models.RoleAdmin:
		switch rb.BookingType {
		case models.BookingTypePackage:
			if isCustomPackage(rb) {
				return AdminCustomPackagePct, true
			}
			return AdminPackagePct, true
		case models.BookingTypeHotel:
			return AdminHotelPct, true
		case models.BookingTypeDriver, models.BookingTypeGuide:
			return AdminResourcePct, true
		}
	case models.RoleTravelAgent:
		if rb.BookingType == models.BookingTypePackage && own.PackageIDs[rb.ItemID] {
			return AgentPackagePct, true
		}
	case models.RoleHotelManager, models.RoleDriver, models.RoleGuide:
		if rb.BookingType == own.DirectType && own.DirectIDs[rb.ItemID] {
			return ProviderDirectPct, true
		}
		if rb.BookingType == models.BookingTypePackage && own.PackageIDs[rb.ItemID] {
			return ProviderViaPackagePct, true
		}
	}
	return 0, false
}

// shareOf returns pct percent of price. A full share is the price itself, untouched by
// floating point.
func shareOf(price float64, pct int) float64 {
	if pct == 100 {
		return price
	}
	return price * float64(pct) / 100
}

func isCustomPackage(rb *models.ResolvedBooking) bool {
	pkg, ok := rb.Item.(*models.Package)
	return ok && pkg.IsCustom
}

func (b *Breakdown) add(rb *models.ResolvedBooking, amount float64) {
	switch rb.BookingType {
	case models.BookingTypePackage:
		if isCustomPackage(rb) {
			b.CustomPackages += amount
		} else {
			b.Packages += amount
		}
	case models.BookingTypeHotel:
		b.Hotels += amount
	case models.BookingTypeDriver:
		b.Drivers += amount
	case models.BookingTypeGuide:
		b.Guides += amount
	}
}
