package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/jacrowe/clientbook/internal/model"
)

// ClientRepo persists clients. Every query is scoped to the owning user so
// one user can never read or mutate another user's clients.
type ClientRepo struct{ DB *sql.DB }

func NewClientRepo(db *sql.DB) *ClientRepo { return &ClientRepo{DB: db} }

const clientColumns = "id,user_id,name,email,description,created_at,deleted,deleted_on"

// Create inserts a client for userID. The unique index on
// (user_id, name, email) surfaces duplicates as ErrClientExists.
func (r *ClientRepo) Create(ctx context.Context, userID uint64, c model.Client) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO clients (user_id, name, email, description) VALUES (?,?,?,?)",
		userID, c.Name, c.Email, c.Description)
	if err != nil {
		if isDuplicateKey(err) {
			return 0, ErrClientExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// ListByUser returns all non-deleted clients owned by userID.
func (r *ClientRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Client, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+clientColumns+" FROM clients WHERE user_id=? AND deleted=0 ORDER BY created_at",
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Client
	for rows.Next() {
		var c model.Client
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.Email, &c.Description,
			&c.CreatedAt, &c.Deleted, &c.DeletedOn); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// FindByID fetches a non-deleted client by id, scoped to its owner.
func (r *ClientRepo) FindByID(ctx context.Context, userID, id uint64) (model.Client, error) {
	var c model.Client
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+clientColumns+" FROM clients WHERE id=? AND user_id=? AND deleted=0 LIMIT 1",
		id, userID).Scan(&c.ID, &c.UserID, &c.Name, &c.Email, &c.Description,
		&c.CreatedAt, &c.Deleted, &c.DeletedOn)
	return c, err
}

// Update overwrites the client's mutable fields.
func (r *ClientRepo) Update(ctx context.Context, userID, id uint64, name, email, description string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE clients SET name=?, email=?, description=? WHERE id=? AND user_id=? AND deleted=0",
		name, email, description, id, userID)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrClientExists
		}
		return err
	}
	return requireRow(res)
}

// SoftDelete flags the client as deleted and records the timestamp.
func (r *ClientRepo) SoftDelete(ctx context.Context, userID, id uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE clients SET deleted=1, deleted_on=? WHERE id=? AND user_id=? AND deleted=0",
		time.Now().UTC(), id, userID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// HardDelete removes the client row permanently.
func (r *ClientRepo) HardDelete(ctx context.Context, userID, id uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM clients WHERE id=? AND user_id=?", id, userID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// requireRow converts a zero-row update into sql.ErrNoRows so handlers can
// answer "does not exist" uniformly.
func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
