package models

import "time"

const (
	EventBookingCreated   = "booking.created"
	EventBookingCancelled = "booking.cancelled"
	EventBookingDeleted   = "booking.deleted"
	EventPackageDeleted   = "package.deleted"
)

type BookingEvent struct {
	Type        string        `json:"type"`
	BookingID   string        `json:"booking_id"`
	CustomerID  string        `json:"customer_id"`
	ItemID      string        `json:"item_id"`
	BookingType BookingType   `json:"booking_type"`
	Guests      int           `json:"guests"`
	TotalPrice  float64       `json:"total_price"`
	Status      BookingStatus `json:"status"`
	Timestamp   time.Time     `json:"timestamp"`
}

func NewBookingEvent(eventType string, b *Booking, at time.Time) BookingEvent {
	return BookingEvent{
		Type:        eventType,
		BookingID:   b.ID,
		CustomerID:  b.CustomerID,
		ItemID:      b.ItemID,
		BookingType: b.BookingType,
		Guests:      b.Guests,
		TotalPrice:  b.TotalPrice,
		Status:      b.Status,
		Timestamp:   at,
	}
}

type PackageDeletedEvent struct {
	Type            string    `json:"type"`
	PackageID       string    `json:"package_id"`
	DeletedBookings int       `json:"deleted_bookings"`
	DeletedBy       string    `json:"deleted_by"`
	Timestamp       time.Time `json:"timestamp"`
}
