package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"ms-booking/internal/models"
)

// profileColumns are the columns a user may change on their own profile. Identity columns
// (id, email, password_hash, role) and the approval status are never among them.
var profileColumns = []string{
	"full_name", "phone", "address", "dob", "cnic", "gender", "profile_picture",
	"qualification", "assigned_area", "hotel_name", "language", "license_number",
	"car_name", "car_model", "price_per_km", "price_per_day", "city",
	"updated_at",
}

type DB struct {
	Bun *bun.DB
}

func (d *DB) GetUser(ctx context.Context, id string) (*models.User, error) {
	return getUser(ctx, d.Bun, id)
}

func getUser(ctx context.Context, idb bun.IDB, id string) (*models.User, error) {
	var user models.User
	err := idb.NewSelect().Model(&user).Where("id = ?", id).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load user %s: %w", id, err)
	}
	return &user, nil
}

func (d *DB) UpdateProfile(ctx context.Context, u *models.User) error {
	res, err := d.Bun.NewUpdate().Model(u).Column(profileColumns...).WherePK().Exec(ctx)
	if err != nil {
		return fmt.Errorf("update profile %s: %w", u.ID, err)
	}
	return expectRow(res, "user", u.ID)
}

// ListUsersByRole returns users of role, newest first.
func (d *DB) ListUsersByRole(ctx context.Context, role models.Role) ([]models.User, error) {
	var users []models.User
	err := d.Bun.NewSelect().Model(&users).Where("role = ?", role).Order("created_at DESC").Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list %s users: %w", role, err)
	}
	return users, nil
}

func (d *DB) UpdateApproval(ctx context.Context, id string, status models.ApprovalStatus, at time.Time) (*models.User, error) {
	var user *models.User
	err := d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewUpdate().
			Model((*models.User)(nil)).
			Set("is_approved = ?", status).
			Set("updated_at = ?", at).
			Where("id = ?", id).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("update approval of %s: %w", id, err)
		}
		if err := expectRow(res, "user", id); err != nil {
			return err
		}
		user, err = getUser(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (d *DB) DeleteUser(ctx context.Context, id string) error {
	res, err := d.Bun.NewDelete().Model((*models.User)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete user %s: %w", id, err)
	}
	return expectRow(res, "user", id)
}

func expectRow(res sql.Result, what, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected for %s %s: %w", what, id, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", what, id, models.ErrNotFound)
	}
	return nil
}
