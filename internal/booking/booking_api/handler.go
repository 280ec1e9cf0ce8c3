package booking_api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ms-booking/internal/api"
	"ms-booking/internal/auth"
	"ms-booking/internal/booking"
	"ms-booking/internal/logger"
	"ms-booking/internal/models"
)

type Ledger interface {
	CreateBooking(ctx context.Context, customer models.Actor, in booking.CreateBookingInput) (*models.Booking, error)
	CreateCustomBooking(ctx context.Context, customer models.Actor, in booking.CustomPackageInput) (*models.Package, *models.Booking, error)
	CancelBooking(ctx context.Context, customer models.Actor, bookingID string) (*models.Booking, error)
	DeleteBooking(ctx context.Context, customer models.Actor, bookingID string) error
	ListCustomerBookings(ctx context.Context, customerID string) ([]models.ResolvedBooking, error)
	ListAgentBookings(ctx context.Context, agentID string) ([]booking.AgentBooking, error)
	ListServiceBookings(ctx context.Context, actor models.Actor) ([]booking.ServiceBooking, error)
	ListAllPackageBookings(ctx context.Context) ([]models.ResolvedBooking, error)
}

type Handler struct {
	Ledger Ledger
	Logger *logger.Logger
}

func NewHandler(ledger Ledger, log *logger.Logger) *Handler {
	return &Handler{Ledger: ledger, Logger: log}
}

// RegisterRoutes mounts the booking endpoints. The router must already run auth.Middleware.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/bookings", func(r chi.Router) {
		r.Post("/create", h.CreateBooking)
		r.Post("/custom", h.CreateCustomBooking)
		r.Get("/my-bookings", h.MyBookings)
		r.With(auth.RequireRole(models.RoleTravelAgent)).Get("/agent-bookings", h.AgentBookings)
		r.With(auth.RequireRole(models.RoleDriver, models.RoleGuide, models.RoleHotelManager)).Get("/service-bookings", h.ServiceBookings)
		r.With(auth.RequireRole(models.RoleAdmin)).Get("/admin/packages", h.AdminPackageBookings)
		r.Put("/cancel/{id}", h.CancelBooking)
		r.Delete("/{id}", h.DeleteBooking)
	})
}

type createBookingRequest struct {
	BookingType   models.BookingType   `json:"bookingType" validate:"required,oneof=Package Hotel Driver Guide"`
	ItemID        string               `json:"itemId" validate:"required"`
	Guests        int                  `json:"guests" validate:"omitempty,min=1"`
	Days          int                  `json:"days" validate:"omitempty,min=1"`
	TotalPrice    float64              `json:"totalPrice" validate:"gte=0"`
	PaymentMethod models.PaymentMethod `json:"paymentMethod" validate:"required"`
	BookingDate   api.Date             `json:"bookingDate" validate:"required"`
}

type customBookingRequest struct {
	Title         string               `json:"title" validate:"required"`
	Destination   string               `json:"destination" validate:"required"`
	Duration      int                  `json:"duration" validate:"required,min=1"`
	StartDate     api.Date             `json:"startDate"`
	HotelID       string               `json:"hotelId"`
	DriverID      string               `json:"driverId"`
	GuideID       string               `json:"guideId"`
	PaymentMethod models.PaymentMethod `json:"paymentMethod" validate:"required"`
}

type customBookingResponse struct {
	Package *models.Package `json:"package"`
	Booking *models.Booking `json:"booking"`
}

func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	actor, ok := api.Actor(w, r)
	if !ok {
		return
	}

	var req createBookingRequest
	if err := api.Decode(r, &req); err != nil {
		api.SendError(w, h.Logger, "BOOKING", err)
		return
	}

	b, err := h.Ledger.CreateBooking(r.Context(), actor, booking.CreateBookingInput{
		Type:          req.BookingType,
		ItemID:        req.ItemID,
		Guests:        req.Guests,
		Days:          req.Days,
		TotalPrice:    req.TotalPrice,
		PaymentMethod: req.PaymentMethod,
		BookingDate:   req.BookingDate.Time,
	})
	if err != nil {
		api.SendError(w, h.Logger, "BOOKING", err)
		return
	}
	api.SendJSON(w, http.StatusCreated, b)
}

func (h *Handler) CreateCustomBooking(w http.ResponseWriter, r *http.Request) {
	actor, ok := api.Actor(w, r)
	if !ok {
		return
	}

	var req customBookingRequest
	if err := api.Decode(r, &req); err != nil {
		api.SendError(w, h.Logger, "BOOKING", err)
		return
	}

	pkg, b, err := h.Ledger.CreateCustomBooking(r.Context(), actor, booking.CustomPackageInput{
		Title:         req.Title,
		Destination:   req.Destination,
		Duration:      req.Duration,
		StartDate:     req.StartDate.Time,
		HotelID:       req.HotelID,
		DriverID:      req.DriverID,
		GuideID:       req.GuideID,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		api.SendError(w, h.Logger, "BOOKING", err)
		return
	}
	api.SendJSON(w, http.StatusCreated, customBookingResponse{Package: pkg, Booking: b})
}

func (h *Handler) MyBookings(w http.ResponseWriter, r *http.Request) {
	actor, ok := api.Actor(w, r)
	if !ok {
		return
	}

	bookings, err := h.Ledger.ListCustomerBookings(r.Context(), actor.ID)
	if err != nil {
		api.SendError(w, h.Logger, "BOOKING", err)
		return
	}
	api.SendJSON(w, http.StatusOK, api.NonNil(bookings))
}

func (h *Handler) AgentBookings(w http.ResponseWriter, r *http.Request) {
	actor, ok := api.Actor(w, r)
	if !ok {
		return
	}

	bookings, err := h.Ledger.ListAgentBookings(r.Context(), actor.ID)
	if err != nil {
		api.SendError(w, h.Logger, "BOOKING", err)
		return
	}
	api.SendJSON(w, http.StatusOK, api.NonNil(bookings))
}

func (h *Handler) ServiceBookings(w http.ResponseWriter, r *http.Request) {
	actor, ok := api.Actor(w, r)
	if !ok {
		return
	}

	bookings, err := h.Ledger.ListServiceBookings(r.Context(), actor)
	if err != nil {
		api.SendError(w, h.Logger, "BOOKING", err)
		return
	}
	api.SendJSON(w, http.StatusOK, api.NonNil(bookings))
}

func (h *Handler) AdminPackageBookings(w http.ResponseWriter, r *http.Request) {
	bookings, err := h.Ledger.ListAllPackageBookings(r.Context())
	if err != nil {
		api.SendError(w, h.Logger, "BOOKING", err)
		return
	}
	api.SendJSON(w, http.StatusOK, api.NonNil(bookings))
}

func (h *Handler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	actor, ok := api.Actor(w, r)
	if !ok {
		return
	}

	b, err := h.Ledger.CancelBooking(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		api.SendError(w, h.Logger, "BOOKING", err)
		return
	}
	api.SendJSON(w, http.StatusOK, b)
}

func (h *Handler) DeleteBooking(w http.ResponseWriter, r *http.Request) {
	actor, ok := api.Actor(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.Ledger.DeleteBooking(r.Context(), actor, id); err != nil {
		api.SendError(w, h.Logger, "BOOKING", err)
		return
	}
	api.SendMessage(w, http.StatusOK, fmt.Sprintf("Booking %s deleted", id))
}
