package models

import (
	"time"

	"github.com/uptrace/bun"
)

type BookingType string

const (
	BookingTypePackage BookingType = "Package"
	BookingTypeHotel   BookingType = "Hotel"
	BookingTypeDriver  BookingType = "Driver"
	BookingTypeGuide   BookingType = "Guide"
)

func (t BookingType) Valid() bool {
	switch t {
	case BookingTypePackage, BookingTypeHotel, BookingTypeDriver, BookingTypeGuide:
		return true
	}
	return false
}

// ItemModel names the collection an item id points into.
type ItemModel string

const (
	ItemModelPackage ItemModel = "Package"
	ItemModelHotel   ItemModel = "Hotel"
	ItemModelUser    ItemModel = "User"
)

type BookingStatus string

const (
	StatusConfirmed BookingStatus = "Confirmed"
	StatusCancelled BookingStatus = "Cancelled"
)

type PaymentMethod string

const (
	PaymentCard      PaymentMethod = "Credit/Debit Card"
	PaymentJazzCash  PaymentMethod = "JazzCash"
	PaymentEasypaisa PaymentMethod = "Easypaisa"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentCard || m == PaymentJazzCash || m == PaymentEasypaisa
}

// Booking is a ledger entry. TotalPrice is fixed at creation and the only status
// transition is Confirmed -> Cancelled.
type Booking struct {
	bun.BaseModel `bun:"table:bookings"`

	ID            string        `bun:"id,pk" json:"id"`
	CustomerID    string        `bun:"customer_id,notnull" json:"customerId"`
	BookingType   BookingType   `bun:"booking_type,notnull" json:"bookingType"`
	ItemID        string        `bun:"item_id,notnull" json:"itemId"`
	ItemModel     ItemModel     `bun:"item_model,notnull" json:"itemModel"`
	BookingDate   time.Time     `bun:"booking_date,notnull" json:"bookingDate"`
	Guests        int           `bun:"guests,notnull" json:"guests"`
	Days          int           `bun:"days,notnull" json:"days"`
	TotalPrice    float64       `bun:"total_price,notnull" json:"totalPrice"`
	PaymentMethod PaymentMethod `bun:"payment_method,notnull" json:"paymentMethod"`
	Status        BookingStatus `bun:"status,notnull" json:"status"`
	CreatedAt     time.Time     `bun:"created_at,notnull" json:"createdAt"`
	UpdatedAt     time.Time     `bun:"updated_at,nullzero" json:"updatedAt,omitempty"`
}

func (b *Booking) Active() bool {
	return b.Status != StatusCancelled
}

// HoldsSeats reports whether the booking counts against a package's capacity.
func (b *Booking) HoldsSeats() bool {
	return b.BookingType == BookingTypePackage && b.Active()
}

// Ref returns the typed reference to the booked item.
func (b *Booking) Ref() ItemRef {
	switch b.ItemModel {
	case ItemModelPackage:
		return PackageRef(b.ItemID)
	case ItemModelHotel:
		return HotelRef(b.ItemID)
	case ItemModelUser:
		return ResourceRef(b.ItemID)
	}
	return nil
}

// SetRef stores ref in the ItemID/ItemModel columns.
func (b *Booking) SetRef(ref ItemRef) {
	b.ItemID = ref.ID()
	b.ItemModel = ref.Model()
}

// ItemRef points at a Package, a Hotel or a resource actor (driver or guide).
type ItemRef interface {
	ID() string
	Model() ItemModel
}

type (
	PackageRef  string
	HotelRef    string
	ResourceRef string
)

func (r PackageRef) ID() string      { return string(r) }
func (r HotelRef) ID() string        { return string(r) }
func (r ResourceRef) ID() string     { return string(r) }
func (PackageRef) Model() ItemModel  { return ItemModelPackage }
func (HotelRef) Model() ItemModel    { return ItemModelHotel }
func (ResourceRef) Model() ItemModel { return ItemModelUser }

// RefFor builds the reference a booking of type t on itemID uses.
func RefFor(t BookingType, itemID string) ItemRef {
	switch t {
	case BookingTypePackage:
		return PackageRef(itemID)
	case BookingTypeHotel:
		return HotelRef(itemID)
	case BookingTypeDriver, BookingTypeGuide:
		return ResourceRef(itemID)
	}
	return nil
}

// Item is a resolved booking target: *Package, *Hotel or *User.
type Item interface {
	itemID() string
}

func (p *Package) itemID() string { return p.ID }
func (h *Hotel) itemID() string   { return h.ID }
func (u *User) itemID() string    { return u.ID }

// ResolvedBooking pairs a booking with its item. Item is nil when the reference dangles.
type ResolvedBooking struct {
	Booking
	Item Item `json:"item"`
}

func (rb *ResolvedBooking) Dangling() bool {
	return rb.Item == nil
}
