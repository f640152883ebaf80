package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/jacrowe/clientbook/internal/model"
)

// UserRepo persists users. Reads exclude soft-deleted rows so a deleted
// account becomes invisible to login and to the auth gate while the row
// survives for bookkeeping. The password digest is stored opaque; hashing
// and verification happen outside this layer.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id,username,email,first_name,last_name,password_hash,confirmed,member_since,deleted,deleted_on"

// Create inserts a user and returns its ID. The caller supplies the
// already-computed password digest. A duplicate username surfaces as
// ErrUsernameExists via the unique index, which also settles concurrent
// registrations racing on the same handle.
func (r *UserRepo) Create(ctx context.Context, u model.User) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (username, email, first_name, last_name, password_hash) VALUES (?,?,?,?,?)",
		u.Username, u.Email, u.FirstName, u.LastName, u.PasswordHash)
	if err != nil {
		if isDuplicateKey(err) {
			return 0, ErrUsernameExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// FindByUsername fetches a non-deleted user by handle. Returns
// sql.ErrNoRows when the handle is unknown or soft-deleted.
func (r *UserRepo) FindByUsername(ctx context.Context, username string) (model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE username=? AND deleted=0 LIMIT 1",
		username).Scan(&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName,
		&u.PasswordHash, &u.Confirmed, &u.MemberSince, &u.Deleted, &u.DeletedOn)
	return u, err
}

// UpdateProfile overwrites the mutable profile fields.
func (r *UserRepo) UpdateProfile(ctx context.Context, id uint64, firstName, lastName string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET first_name=?, last_name=? WHERE id=?",
		firstName, lastName, id)
	return err
}

// UpdatePassword replaces the stored digest.
func (r *UserRepo) UpdatePassword(ctx context.Context, id uint64, digest string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET password_hash=? WHERE id=?", digest, id)
	return err
}

// UpdateEmail applies a confirmed email change.
func (r *UserRepo) UpdateEmail(ctx context.Context, id uint64, email string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET email=? WHERE id=?", email, id)
	return err
}

// Confirm marks the account as confirmed.
func (r *UserRepo) Confirm(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET confirmed=1 WHERE id=?", id)
	return err
}

// SoftDelete flags the user as deleted and records the timestamp. Already
// deleted rows are left untouched so the original deletion time survives.
func (r *UserRepo) SoftDelete(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET deleted=1, deleted_on=? WHERE id=? AND deleted=0",
		time.Now().UTC(), id)
	return err
}

// HardDelete removes the row permanently.
func (r *UserRepo) HardDelete(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM users WHERE id=?", id)
	return err
}

// isDuplicateKey reports whether err is a MySQL duplicate-entry error
// (code 1062, unique index violation).
func isDuplicateKey(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "1062")
}
