package catalog_api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"ms-booking/internal/api"
	"ms-booking/internal/auth"
	"ms-booking/internal/catalog"
	"ms-booking/internal/logger"
	"ms-booking/internal/models"
)

type Catalog interface {
	CreatePackage(ctx context.Context, agent models.Actor, in catalog.PackageInput) (*models.Package, error)
	ListPackages(ctx context.Context) ([]models.Package, error)
	DeletePackage(ctx context.Context, actor models.Actor, packageID string) (int, error)
	GetPackageResources(ctx context.Context) (*catalog.Resources, error)
	GetMyHotel(ctx context.Context, managerID string) (*models.Hotel, error)
	UpsertMyHotel(ctx context.Context, manager models.Actor, in catalog.HotelInput) (*models.Hotel, error)
	HomeData(ctx context.Context) (*catalog.HomeData, error)
	Search(ctx context.Context, searchType, location string, maxPrice *float64) (interface{}, error)
}

type Handler struct {
	Catalog Catalog
	Logger  *logger.Logger
}

func NewHandler(c Catalog, log *logger.Logger) *Handler {
	return &Handler{Catalog: c, Logger: log}
}

// RegisterPublicRoutes mounts the unauthenticated listing endpoints.
func (h *Handler) RegisterPublicRoutes(r chi.Router) {
	r.Get("/api/public/home-data", h.HomeData)
	r.Get("/api/public/search", h.Search)
}

// RegisterRoutes mounts the package and hotel endpoints. The router must already run auth.Middleware.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/packages", func(r chi.Router) {
		r.Get("/resources", h.PackageResources)
		r.With(auth.RequireRole(models.RoleTravelAgent)).Post("/create", h.CreatePackage)
		r.Get("/all", h.ListPackages)
		r.Delete("/{id}", h.DeletePackage)
	})
	r.Route("/api/hotels", func(r chi.Router) {
		r.Use(auth.RequireRole(models.RoleHotelManager))
		r.Get("/my-hotel", h.MyHotel)
		r.Put("/update", h.UpdateMyHotel)
	})
}

type createPackageRequest struct {
	Title       string                `json:"title" validate:"required"`
	Destination string                `json:"destination" validate:"required"`
	Duration    int                   `json:"duration" validate:"required,min=1"`
	Seats       int                   `json:"seats" validate:"required,min=1"`
	StartDate   api.Date              `json:"startDate" validate:"required"`
	Price       float64               `json:"price" validate:"gte=0"`
	Description string                `json:"description"`
	Images      []string              `json:"images"`
	Itinerary   []models.ItineraryDay `json:"itinerary"`
	HotelID     string                `json:"hotelId"`
	GuideID     string                `json:"guideId"`
	DriverID    string                `json:"driverId"`
}

type hotelRequest struct {
	Name           string             `json:"name" validate:"required"`
	City           string             `json:"city" validate:"required"`
	Address        string             `json:"address" validate:"required"`
	Description    string             `json:"description"`
	Amenities      []string           `json:"amenities"`
	Images         models.HotelImages `json:"images"`
	PricePerNight  float64            `json:"pricePerNight" validate:"gte=0"`
	AvailableRooms int                `json:"availableRooms" validate:"gte=0"`
}

// ---------------- PACKAGES ----------------

func (h *Handler) CreatePackage(w http.ResponseWriter, r *http.Request) {
	actor, ok := api.Actor(w, r)
	if !ok {
		return
	}

	var req createPackageRequest
	if err := api.Decode(r, &req); err != nil {
		api.SendError(w, h.Logger, "CATALOG", err)
		return
	}

	pkg, err := h.Catalog.CreatePackage(r.Context(), actor, catalog.PackageInput{
		Title:       req.Title,
		Destination: req.Destination,
		Duration:    req.Duration,
		Seats:       req.Seats,
		StartDate:   req.StartDate.Time,
		Price:       req.Price,
		Description: req.Description,
		Images:      req.Images,
		Itinerary:   req.Itinerary,
		HotelID:     req.HotelID,
		GuideID:     req.GuideID,
		DriverID:    req.DriverID,
	})
	if err != nil {
		api.SendError(w, h.Logger, "CATALOG", err)
		return
	}
	api.SendJSON(w, http.StatusCreated, pkg)
}

func (h *Handler) ListPackages(w http.ResponseWriter, r *http.Request) {
	pkgs, err := h.Catalog.ListPackages(r.Context())
	if err != nil {
		api.SendError(w, h.Logger, "CATALOG", err)
		return
	}
	api.SendJSON(w, http.StatusOK, api.NonNil(pkgs))
}

func (h *Handler) DeletePackage(w http.ResponseWriter, r *http.Request) {
	actor, ok := api.Actor(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	removed, err := h.Catalog.DeletePackage(r.Context(), actor, id)
	if err != nil {
		api.SendError(w, h.Logger, "CATALOG", err)
		return
	}
	api.SendJSON(w, http.StatusOK, map[string]interface{}{
		"message":         fmt.Sprintf("Package %s and associated bookings deleted", id),
		"deletedBookings": removed,
	})
}

func (h *Handler) PackageResources(w http.ResponseWriter, r *http.Request) {
	res, err := h.Catalog.GetPackageResources(r.Context())
	if err != nil {
		api.SendError(w, h.Logger, "CATALOG", err)
		return
	}
	res.Hotels = api.NonNil(res.Hotels)
	res.Guides = api.NonNil(res.Guides)
	res.Drivers = api.NonNil(res.Drivers)
	api.SendJSON(w, http.StatusOK, res)
}

// ---------------- HOTELS ----------------

func (h *Handler) MyHotel(w http.ResponseWriter, r *http.Request) {
	actor, ok := api.Actor(w, r)
	if !ok {
		return
	}

	hotel, err := h.Catalog.GetMyHotel(r.Context(), actor.ID)
	if err != nil {
		api.SendError(w, h.Logger, "CATALOG", err)
		return
	}
	api.SendJSON(w, http.StatusOK, hotel)
}

func (h *Handler) UpdateMyHotel(w http.ResponseWriter, r *http.Request) {
	actor, ok := api.Actor(w, r)
	if !ok {
		return
	}

	var req hotelRequest
	if err := api.Decode(r, &req); err != nil {
		api.SendError(w, h.Logger, "CATALOG", err)
		return
	}

	hotel, err := h.Catalog.UpsertMyHotel(r.Context(), actor, catalog.HotelInput{
		Name:           req.Name,
		City:           req.City,
		Address:        req.Address,
		Description:    req.Description,
		Amenities:      req.Amenities,
		Images:         req.Images,
		PricePerNight:  req.PricePerNight,
		AvailableRooms: req.AvailableRooms,
	})
	if err != nil {
		api.SendError(w, h.Logger, "CATALOG", err)
		return
	}
	api.SendJSON(w, http.StatusOK, hotel)
}

// ---------------- PUBLIC ----------------

func (h *Handler) HomeData(w http.ResponseWriter, r *http.Request) {
	data, err := h.Catalog.HomeData(r.Context())
	if err != nil {
		api.SendError(w, h.Logger, "CATALOG", err)
		return
	}
	data.Packages = api.NonNil(data.Packages)
	data.Hotels = api.NonNil(data.Hotels)
	data.Drivers = api.NonNil(data.Drivers)
	data.Guides = api.NonNil(data.Guides)
	api.SendJSON(w, http.StatusOK, data)
}

// Search handles ?type=packages|hotels|drivers|guides&location=&price=.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var maxPrice *float64
	if raw := q.Get("price"); raw != "" {
		p, err := strconv.ParseFloat(raw, 64)
		if err != nil || p < 0 {
			api.SendMessage(w, http.StatusBadRequest, "price must be a non-negative number")
			return
		}
		maxPrice = &p
	}

	results, err := h.Catalog.Search(r.Context(), q.Get("type"), q.Get("location"), maxPrice)
	if err != nil {
		api.SendError(w, h.Logger, "CATALOG", err)
		return
	}
	api.SendJSON(w, http.StatusOK, results)
}
