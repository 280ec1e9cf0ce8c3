package models

import (
	"strings"
	"time"

	"github.com/uptrace/bun"
)

type Role string

const (
	RoleAdmin        Role = "Admin"
	RoleTravelAgent  Role = "TravelAgent"
	RoleHotelManager Role = "HotelManager"
	RoleGuide        Role = "Guide"
	RoleDriver       Role = "Driver"
	RoleCustomer     Role = "Customer"
)

var AllRoles = []Role{RoleAdmin, RoleTravelAgent, RoleHotelManager, RoleGuide, RoleDriver, RoleCustomer}

func (r Role) Valid() bool {
	for _, known := range AllRoles {
		if r == known {
			return true
		}
	}
	return false
}

// ParseRole matches a role name case-insensitively.
func ParseRole(s string) (Role, bool) {
	for _, known := range AllRoles {
		if strings.EqualFold(string(known), s) {
			return known, true
		}
	}
	return "", false
}

type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "Pending"
	ApprovalApproved ApprovalStatus = "Approved"
	ApprovalRejected ApprovalStatus = "Rejected"
)

func (s ApprovalStatus) Valid() bool {
	return s == ApprovalPending || s == ApprovalApproved || s == ApprovalRejected
}

// Actor is the identity resolved from a verified bearer token.
type Actor struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

// User stores every role in one table. Role-specific columns are only meaningful for
// the matching role; use Profile to read them.
type User struct {
	bun.BaseModel `bun:"table:users"`

	ID             string         `bun:"id,pk" json:"id"`
	Role           Role           `bun:"role,notnull" json:"role"`
	FullName       string         `bun:"full_name,notnull" json:"fullName"`
	Email          string         `bun:"email,unique,notnull" json:"email"`
	PasswordHash   string         `bun:"password_hash,notnull" json:"-"`
	Phone          string         `bun:"phone" json:"phone"`
	Address        string         `bun:"address" json:"address"`
	DOB            time.Time      `bun:"dob,nullzero" json:"dob,omitempty"`
	CNIC           string         `bun:"cnic,nullzero" json:"cnic,omitempty"`
	Gender         string         `bun:"gender" json:"gender"`
	ProfilePicture string         `bun:"profile_picture" json:"profilePicture"`
	IsApproved     ApprovalStatus `bun:"is_approved,notnull" json:"isApproved"`

	Qualification string  `bun:"qualification" json:"qualification,omitempty"`
	AssignedArea  string  `bun:"assigned_area" json:"assignedArea,omitempty"`
	HotelName     string  `bun:"hotel_name" json:"hotelName,omitempty"`
	Language      string  `bun:"language" json:"language,omitempty"`
	LicenseNumber string  `bun:"license_number" json:"licenseNumber,omitempty"`
	CarName       string  `bun:"car_name" json:"carName,omitempty"`
	CarModel      string  `bun:"car_model" json:"carModel,omitempty"`
	PricePerKm    float64 `bun:"price_per_km" json:"pricePerKm,omitempty"`
	PricePerDay   float64 `bun:"price_per_day" json:"pricePerDay,omitempty"`
	City          string  `bun:"city" json:"city,omitempty"`

	CreatedAt time.Time `bun:"created_at,notnull" json:"createdAt"`
	UpdatedAt time.Time `bun:"updated_at,nullzero" json:"updatedAt,omitempty"`
}

// Profile is the role-specific part of a user.
type Profile interface {
	Role() Role
}

type AdminProfile struct {
	Qualification string `json:"qualification"`
}

type TravelAgentProfile struct {
	AssignedArea string `json:"assignedArea"`
}

type HotelManagerProfile struct {
	HotelName string `json:"hotelName"`
}

type GuideProfile struct {
	Language    string  `json:"language"`
	PricePerDay float64 `json:"pricePerDay"`
}

type DriverProfile struct {
	LicenseNumber string  `json:"licenseNumber"`
	CarName       string  `json:"carName"`
	CarModel      string  `json:"carModel"`
	PricePerKm    float64 `json:"pricePerKm"`
}

type CustomerProfile struct {
	City string `json:"city"`
}

func (AdminProfile) Role() Role        { return RoleAdmin }
func (TravelAgentProfile) Role() Role  { return RoleTravelAgent }
func (HotelManagerProfile) Role() Role { return RoleHotelManager }
func (GuideProfile) Role() Role        { return RoleGuide }
func (DriverProfile) Role() Role       { return RoleDriver }
func (CustomerProfile) Role() Role     { return RoleCustomer }

// Profile returns the variant matching the user's role, or nil for an unknown role.
func (u *User) Profile() Profile {
	switch u.Role {
	case RoleAdmin:
		return AdminProfile{Qualification: u.Qualification}
	case RoleTravelAgent:
		return TravelAgentProfile{AssignedArea: u.AssignedArea}
	case RoleHotelManager:
		return HotelManagerProfile{HotelName: u.HotelName}
	case RoleGuide:
		return GuideProfile{Language: u.Language, PricePerDay: u.PricePerDay}
	case RoleDriver:
		return DriverProfile{LicenseNumber: u.LicenseNumber, CarName: u.CarName, CarModel: u.CarModel, PricePerKm: u.PricePerKm}
	case RoleCustomer:
		return CustomerProfile{City: u.City}
	}
	return nil
}

// ApplyProfile copies the variant's fields onto the user. It fails when the variant does
// not belong to the user's role.
func (u *User) ApplyProfile(p Profile) error {
	if p == nil || p.Role() != u.Role {
		return ErrInvalidInput
	}
	switch v := p.(type) {
	case AdminProfile:
		u.Qualification = v.Qualification
	case TravelAgentProfile:
		u.AssignedArea = v.AssignedArea
	case HotelManagerProfile:
		u.HotelName = v.HotelName
	case GuideProfile:
		u.Language = v.Language
		u.PricePerDay = v.PricePerDay
	case DriverProfile:
		u.LicenseNumber = v.LicenseNumber
		u.CarName = v.CarName
		u.CarModel = v.CarModel
		u.PricePerKm = v.PricePerKm
	case CustomerProfile:
		u.City = v.City
	}
	return nil
}

func (u *User) Actor() Actor {
	return Actor{ID: u.ID, Role: u.Role}
}
