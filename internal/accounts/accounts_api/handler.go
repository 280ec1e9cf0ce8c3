package accounts_api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"ms-booking/internal/accounts"
	"ms-booking/internal/api"
	"ms-booking/internal/auth"
	"ms-booking/internal/logger"
	"ms-booking/internal/models"
)

type Accounts interface {
	GetProfile(ctx context.Context, actorID string) (*models.User, error)
	UpdateProfile(ctx context.Context, actor models.Actor, upd accounts.ProfileUpdate) (*models.User, error)
	ListUsersByRole(ctx context.Context, roleName string) ([]models.User, error)
	UpdateApproval(ctx context.Context, admin models.Actor, userID string, status models.ApprovalStatus) (*models.User, error)
	DeleteUser(ctx context.Context, admin models.Actor, userID string) error
}

type Handler struct {
	Accounts Accounts
	Logger   *logger.Logger
}

func NewHandler(a Accounts, log *logger.Logger) *Handler {
	return &Handler{Accounts: a, Logger: log}
}

// RegisterRoutes mounts profile and user administration endpoints. The router must already
// run auth.Middleware.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/api/users/profile", h.GetProfile)
	r.Put("/api/users/profile/update", h.UpdateProfile)

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(auth.RequireRole(models.RoleAdmin))
		// chi needs one param name per segment; on GET the segment names a role.
		r.Get("/{id}", h.ListUsersByRole)
		r.Put("/{id}/status", h.UpdateApproval)
		r.Delete("/{id}", h.DeleteUser)
	})
}

// profileRequest holds the shared profile fields. Email, password, role and id are not
// accepted here.
type profileRequest struct {
	FullName       *string    `json:"fullName" validate:"omitempty,min=2"`
	Phone          *string    `json:"phone"`
	Address        *string    `json:"address"`
	DOB            *time.Time `json:"dob"`
	CNIC           *string    `json:"cnic"`
	Gender         *string    `json:"gender"`
	ProfilePicture *string    `json:"profilePicture"`
}

type approvalRequest struct {
	Status models.ApprovalStatus `json:"status" validate:"required,oneof=Pending Approved Rejected"`
}

func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	actor, ok := api.Actor(w, r)
	if !ok {
		return
	}

	u, err := h.Accounts.GetProfile(r.Context(), actor.ID)
	if err != nil {
		api.SendError(w, h.Logger, "ACCOUNTS", err)
		return
	}
	api.SendJSON(w, http.StatusOK, u)
}

func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	actor, ok := api.Actor(w, r)
	if !ok {
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		api.SendMessage(w, http.StatusBadRequest, "could not read request body")
		return
	}
	r.Body = io.NopCloser(bytes.NewReader(body))

	var req profileRequest
	if err := api.Decode(r, &req); err != nil {
		api.SendError(w, h.Logger, "ACCOUNTS", err)
		return
	}

	u, err := h.Accounts.UpdateProfile(r.Context(), actor, accounts.ProfileUpdate{
		FullName:       req.FullName,
		Phone:          req.Phone,
		Address:        req.Address,
		DOB:            req.DOB,
		CNIC:           req.CNIC,
		Gender:         req.Gender,
		ProfilePicture: req.ProfilePicture,
		Details:        body,
	})
	if err != nil {
		api.SendError(w, h.Logger, "ACCOUNTS", err)
		return
	}
	api.SendJSON(w, http.StatusOK, u)
}

func (h *Handler) ListUsersByRole(w http.ResponseWriter, r *http.Request) {
	users, err := h.Accounts.ListUsersByRole(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		api.SendError(w, h.Logger, "ACCOUNTS", err)
		return
	}
	api.SendJSON(w, http.StatusOK, api.NonNil(users))
}

func (h *Handler) UpdateApproval(w http.ResponseWriter, r *http.Request) {
	admin, ok := api.Actor(w, r)
	if !ok {
		return
	}

	var req approvalRequest
	if err := api.Decode(r, &req); err != nil {
		api.SendError(w, h.Logger, "ACCOUNTS", err)
		return
	}

	u, err := h.Accounts.UpdateApproval(r.Context(), admin, chi.URLParam(r, "id"), req.Status)
	if err != nil {
		api.SendError(w, h.Logger, "ACCOUNTS", err)
		return
	}
	api.SendJSON(w, http.StatusOK, u)
}

func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	admin, ok := api.Actor(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.Accounts.DeleteUser(r.Context(), admin, id); err != nil {
		api.SendError(w, h.Logger, "ACCOUNTS", err)
		return
	}
	api.SendMessage(w, http.StatusOK, fmt.Sprintf("User %s deleted", id))
}
