package accounts

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ms-booking/internal/logger"
	"ms-booking/internal/models"
)

type DBLayer interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
	UpdateProfile(ctx context.Context, u *models.User) error
	ListUsersByRole(ctx context.Context, role models.Role) ([]models.User, error)
	UpdateApproval(ctx context.Context, id string, status models.ApprovalStatus, at time.Time) (*models.User, error)
	DeleteUser(ctx context.Context, id string) error
}

type Service struct {
	DB     DBLayer
	Logger *logger.Logger

	now func() time.Time
}

func NewService(db DBLayer, log *logger.Logger) *Service {
	return &Service{
		DB:     db,
		Logger: log,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// ProfileUpdate carries the fields a user may change. Nil fields are left as they are.
// Details holds the role-specific fields as JSON; fields that do not belong to the
// user's role are ignored.
type ProfileUpdate struct {
	FullName       *string
	Phone          *string
	Address        *string
	DOB            *time.Time
	CNIC           *string
	Gender         *string
	ProfilePicture *string
	Details        json.RawMessage
}

// ---------------- PROFILE ----------------

func (s *Service) GetProfile(ctx context.Context, actorID string) (*models.User, error) {
	return s.DB.GetUser(ctx, actorID)
}

func (s *Service) UpdateProfile(ctx context.Context, actor models.Actor, upd ProfileUpdate) (*models.User, error) {
	u, err := s.DB.GetUser(ctx, actor.ID)
	if err != nil {
		return nil, err
	}

	setIf(&u.FullName, upd.FullName)
	setIf(&u.Phone, upd.Phone)
	setIf(&u.Address, upd.Address)
	setIf(&u.DOB, upd.DOB)
	setIf(&u.CNIC, upd.CNIC)
	setIf(&u.Gender, upd.Gender)
	setIf(&u.ProfilePicture, upd.ProfilePicture)

	if len(upd.Details) > 0 {
		if err := mergeDetails(u, upd.Details); err != nil {
			return nil, err
		}
	}
	u.UpdatedAt = s.now()

	if err := s.DB.UpdateProfile(ctx, u); err != nil {
		return nil, err
	}
	s.Logger.Info("ACCOUNTS", fmt.Sprintf("Profile of %s (%s) updated", u.ID, u.Role))
	return u, nil
}

func setIf[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

// mergeDetails decodes raw over the user's current role variant, so omitted fields keep
// their stored values.
func mergeDetails(u *models.User, raw json.RawMessage) error {
	switch u.Role {
	case models.RoleAdmin:
		return merge[models.AdminProfile](u, raw)
	case models.RoleTravelAgent:
		return merge[models.TravelAgentProfile](u, raw)
	case models.RoleHotelManager:
		return merge[models.HotelManagerProfile](u, raw)
	case models.RoleGuide:
		return merge[models.GuideProfile](u, raw)
	case models.RoleDriver:
		return merge[models.DriverProfile](u, raw)
	case models.RoleCustomer:
		return merge[models.CustomerProfile](u, raw)
	}
	return fmt.Errorf("user %s has unknown role %q: %w", u.ID, u.Role, models.ErrInvalidInput)
}

func merge[P models.Profile](u *models.User, raw json.RawMessage) error {
	p, _ := u.Profile().(P)
	if err := json.Unmarshal(raw, &p); err != nil {
		return fmt.Errorf("invalid %s details: %v: %w", u.Role, err, models.ErrInvalidInput)
	}
	return u.ApplyProfile(p)
}

// ---------------- ADMIN ----------------

// ListUsersByRole lists users of the named role. The name is matched case-insensitively.
func (s *Service) ListUsersByRole(ctx context.Context, roleName string) ([]models.User, error) {
	role, ok := models.ParseRole(roleName)
	if !ok {
		return nil, fmt.Errorf("unknown role %q: %w", roleName, models.ErrInvalidInput)
	}
	return s.DB.ListUsersByRole(ctx, role)
}

func (s *Service) UpdateApproval(ctx context.Context, admin models.Actor, userID string, status models.ApprovalStatus) (*models.User, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("unknown approval status %q: %w", status, models.ErrInvalidInput)
	}
	u, err := s.DB.UpdateApproval(ctx, userID, status, s.now())
	if err != nil {
		return nil, err
	}
	s.Logger.LogSecurity("APPROVAL", fmt.Sprintf("%s set %s to %s", admin.ID, userID, status))
	return u, nil
}

func (s *Service) DeleteUser(ctx context.Context, admin models.Actor, userID string) error {
	if err := s.DB.DeleteUser(ctx, userID); err != nil {
		return err
	}
	s.Logger.LogSecurity("USER_DELETED", fmt.Sprintf("%s deleted %s", admin.ID, userID))
	return nil
}
