package booking

import "math"

const (
	// DriverDailyDistance is the distance a driver is assumed to cover per day of a custom package.
	DriverDailyDistance = 250
	// GuideDailyRate is the flat guide cost per day of a custom package.
	GuideDailyRate = 3000
	// PlatformFeePercent is added on top of the summed resource cost.
	PlatformFeePercent = 10
)

// CustomPackagePrice prices an ad hoc package from its resources. The result is rounded
// to a whole currency unit.
func CustomPackagePrice(hotelRate, driverRate float64, duration int, withGuide bool) float64 {
	days := float64(duration)
	raw := hotelRate*days + driverRate*DriverDailyDistance*days
	if withGuide {
		raw += GuideDailyRate * days
	}
	return math.Round(raw * (100 + PlatformFeePercent) / 100)
}
