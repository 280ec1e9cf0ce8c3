package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"ms-booking/internal/catalog/db"
	"ms-booking/internal/logger"
	"ms-booking/internal/models"
)

type DBLayer interface {
	InsertPackage(ctx context.Context, pkg *models.Package) error
	ListPackages(ctx context.Context, includeCustom bool) ([]models.Package, error)
	ListHotels(ctx context.Context) ([]models.Hotel, error)
	GetHotel(ctx context.Context, id string) (*models.Hotel, error)
	GetHotelByManager(ctx context.Context, managerID string) (*models.Hotel, error)
	UpsertHotel(ctx context.Context, hotel *models.Hotel) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	ListApprovedUsers(ctx context.Context, role models.Role) ([]models.User, error)
	SearchPackages(ctx context.Context, f db.Filter) ([]models.Package, error)
	SearchHotels(ctx context.Context, f db.Filter) ([]models.Hotel, error)
	SearchResources(ctx context.Context, role models.Role, f db.Filter) ([]models.User, error)
}

// PackageRemover deletes a package together with its bookings. The booking ledger owns
// this so that capacity and events stay consistent.
type PackageRemover interface {
	DeletePackage(ctx context.Context, actor models.Actor, packageID string) (int, error)
}

type Service struct {
	DB       DBLayer
	Packages PackageRemover
	Logger   *logger.Logger

	now   func() time.Time
	newID func() string
}

func NewService(db DBLayer, packages PackageRemover, log *logger.Logger) *Service {
	return &Service{
		DB:       db,
		Packages: packages,
		Logger:   log,
		now:      func() time.Time { return time.Now().UTC() },
		newID:    func() string { return uuid.New().String() },
	}
}

type PackageInput struct {
	Title       string
	Destination string
	Duration    int
	Seats       int
	StartDate   time.Time
	Price       float64
	Description string
	Images      []string
	Itinerary   []models.ItineraryDay
	HotelID     string
	GuideID     string
	DriverID    string
}

type HotelInput struct {
	Name           string
	City           string
	Address        string
	Description    string
	Amenities      []string
	Images         models.HotelImages
	PricePerNight  float64
	AvailableRooms int
}

// Resources lists what an agent can attach to a package.
type Resources struct {
	Hotels  []models.Hotel `json:"hotels"`
	Guides  []models.User  `json:"guides"`
	Drivers []models.User  `json:"drivers"`
}

type HomeData struct {
	Packages []models.Package `json:"packages"`
	Hotels   []models.Hotel   `json:"hotels"`
	Drivers  []models.User    `json:"drivers"`
	Guides   []models.User    `json:"guides"`
}

// Search types accepted by Search.
const (
	SearchPackages = "packages"
	SearchHotels   = "hotels"
	SearchDrivers  = "drivers"
	SearchGuides   = "guides"
)

// ---------------- PACKAGES ----------------

// CreatePackage stores a new agent-owned package. Attached hotel, guide and driver must exist,
// and the guide and driver must be approved.
func (s *Service) CreatePackage(ctx context.Context, agent models.Actor, in PackageInput) (*models.Package, error) {
	if agent.Role != models.RoleTravelAgent {
		return nil, fmt.Errorf("create package as %s: %w", agent.Role, models.ErrForbiddenRole)
	}
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Destination) == "" {
		return nil, fmt.Errorf("title and destination are required: %w", models.ErrInvalidInput)
	}
	if in.Duration < 1 || in.Seats < 1 || in.Price < 0 {
		return nil, fmt.Errorf("duration and seats must be positive, price non-negative: %w", models.ErrInvalidInput)
	}

	if in.HotelID != "" {
		if _, err := s.DB.GetHotel(ctx, in.HotelID); err != nil {
			return nil, err
		}
	}
	if err := s.checkResource(ctx, in.GuideID, models.RoleGuide); err != nil {
		return nil, err
	}
	if err := s.checkResource(ctx, in.DriverID, models.RoleDriver); err != nil {
		return nil, err
	}

	pkg := &models.Package{
		ID:          s.newID(),
		AgentID:     agent.ID,
		Title:       in.Title,
		Destination: in.Destination,
		Duration:    in.Duration,
		Seats:       in.Seats,
		StartDate:   in.StartDate,
		Price:       in.Price,
		Description: in.Description,
		Images:      in.Images,
		Itinerary:   in.Itinerary,
		HotelID:     in.HotelID,
		GuideID:     in.GuideID,
		DriverID:    in.DriverID,
		CreatedAt:   s.now(),
	}
	if err := s.DB.InsertPackage(ctx, pkg); err != nil {
		return nil, err
	}
	s.Logger.Info("CATALOG", fmt.Sprintf("Package %s created by %s with %d seats", pkg.ID, agent.ID, pkg.Seats))
	return pkg, nil
}

func (s *Service) checkResource(ctx context.Context, userID string, role models.Role) error {
	if userID == "" {
		return nil
	}
	u, err := s.DB.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if u.Role != role || u.IsApproved != models.ApprovalApproved {
		return fmt.Errorf("%s is not an approved %s: %w", userID, role, models.ErrInvalidInput)
	}
	return nil
}

func (s *Service) ListPackages(ctx context.Context) ([]models.Package, error) {
	return s.DB.ListPackages(ctx, true)
}

func (s *Service) DeletePackage(ctx context.Context, actor models.Actor, packageID string) (int, error) {
	return s.Packages.DeletePackage(ctx, actor, packageID)
}

func (s *Service) GetPackageResources(ctx context.Context) (*Resources, error) {
	hotels, err := s.DB.ListHotels(ctx)
	if err != nil {
		return nil, err
	}
	guides, err := s.DB.ListApprovedUsers(ctx, models.RoleGuide)
	if err != nil {
		return nil, err
	}
	drivers, err := s.DB.ListApprovedUsers(ctx, models.RoleDriver)
	if err != nil {
		return nil, err
	}
	return &Resources{Hotels: hotels, Guides: guides, Drivers: drivers}, nil
}

// ---------------- HOTELS ----------------

// GetMyHotel returns the manager's hotel, or an empty hotel when none has been set up yet.
func (s *Service) GetMyHotel(ctx context.Context, managerID string) (*models.Hotel, error) {
	hotel, err := s.DB.GetHotelByManager(ctx, managerID)
	if errors.Is(err, models.ErrNotFound) {
		return &models.Hotel{ManagerID: managerID, Amenities: []string{}}, nil
	}
	return hotel, err
}

func (s *Service) UpsertMyHotel(ctx context.Context, manager models.Actor, in HotelInput) (*models.Hotel, error) {
	if manager.Role != models.RoleHotelManager {
		return nil, fmt.Errorf("update hotel as %s: %w", manager.Role, models.ErrForbiddenRole)
	}
	if in.PricePerNight < 0 || in.AvailableRooms < 0 {
		return nil, fmt.Errorf("price and rooms must be non-negative: %w", models.ErrInvalidInput)
	}

	now := s.now()
	hotel := &models.Hotel{
		ID:             s.newID(),
		ManagerID:      manager.ID,
		Name:           in.Name,
		City:           in.City,
		Address:        in.Address,
		Description:    in.Description,
		Amenities:      in.Amenities,
		Images:         in.Images,
		PricePerNight:  in.PricePerNight,
		AvailableRooms: in.AvailableRooms,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.DB.UpsertHotel(ctx, hotel); err != nil {
		return nil, err
	}
	s.Logger.Info("CATALOG", fmt.Sprintf("Hotel %s saved by manager %s", hotel.ID, manager.ID))
	return hotel, nil
}

// ---------------- PUBLIC ----------------

func (s *Service) HomeData(ctx context.Context) (*HomeData, error) {
	pkgs, err := s.DB.ListPackages(ctx, false)
	if err != nil {
		return nil, err
	}
	res, err := s.GetPackageResources(ctx)
	if err != nil {
		return nil, err
	}
	return &HomeData{Packages: pkgs, Hotels: res.Hotels, Drivers: res.Drivers, Guides: res.Guides}, nil
}

// Search runs a filtered query over one kind of listing. The result is a slice of packages,
// hotels or users depending on searchType.
func (s *Service) Search(ctx context.Context, searchType, location string, maxPrice *float64) (interface{}, error) {
	f := db.Filter{Location: location, MaxPrice: maxPrice}
	switch searchType {
	case SearchPackages:
		return s.DB.SearchPackages(ctx, f)
	case SearchHotels:
		return s.DB.SearchHotels(ctx, f)
	case SearchDrivers:
		return s.DB.SearchResources(ctx, models.RoleDriver, f)
	case SearchGuides:
		return s.DB.SearchResources(ctx, models.RoleGuide, f)
	}
	return nil, fmt.Errorf("unknown search type %q: %w", searchType, models.ErrInvalidInput)
}
