package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/jacrowe/clientbook/internal/model"
)

// ProjectRepo persists projects. Ownership runs through the client table:
// every query joins on clients.user_id so access control matches the
// client repository.
type ProjectRepo struct{ DB *sql.DB }

func NewProjectRepo(db *sql.DB) *ProjectRepo { return &ProjectRepo{DB: db} }

const projectColumns = "p.id,p.client_id,p.name,p.description,p.created_at,p.deleted,p.deleted_on"

// Create inserts a project under clientID after verifying the client is
// owned by userID and not deleted. A duplicate name within the client
// surfaces as ErrProjectExists.
func (r *ProjectRepo) Create(ctx context.Context, userID, clientID uint64, p model.Project) (uint64, error) {
	var owned uint64
	err := r.DB.QueryRowContext(ctx,
		"SELECT id FROM clients WHERE id=? AND user_id=? AND deleted=0 LIMIT 1",
		clientID, userID).Scan(&owned)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO projects (client_id, name, description) VALUES (?,?,?)",
		clientID, p.Name, p.Description)
	if err != nil {
		if isDuplicateKey(err) {
			return 0, ErrProjectExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// ListByClient returns all non-deleted projects of a client owned by userID.
func (r *ProjectRepo) ListByClient(ctx context.Context, userID, clientID uint64) ([]model.Project, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+projectColumns+" FROM projects p JOIN clients c ON c.id=p.client_id "+
			"WHERE p.client_id=? AND c.user_id=? AND p.deleted=0 ORDER BY p.created_at",
		clientID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Project
	for rows.Next() {
		var p model.Project
		if err := rows.Scan(&p.ID, &p.ClientID, &p.Name, &p.Description,
			&p.CreatedAt, &p.Deleted, &p.DeletedOn); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// FindByID fetches a non-deleted project by id, scoped through the owner.
func (r *ProjectRepo) FindByID(ctx context.Context, userID, id uint64) (model.Project, error) {
	var p model.Project
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+projectColumns+" FROM projects p JOIN clients c ON c.id=p.client_id "+
			"WHERE p.id=? AND c.user_id=? AND p.deleted=0 LIMIT 1",
		id, userID).Scan(&p.ID, &p.ClientID, &p.Name, &p.Description,
		&p.CreatedAt, &p.Deleted, &p.DeletedOn)
	return p, err
}

// Update overwrites the project's mutable fields.
func (r *ProjectRepo) Update(ctx context.Context, userID, id uint64, name, description string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE projects p JOIN clients c ON c.id=p.client_id "+
			"SET p.name=?, p.description=? WHERE p.id=? AND c.user_id=? AND p.deleted=0",
		name, description, id, userID)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrProjectExists
		}
		return err
	}
	return requireRow(res)
}

// SoftDelete flags the project as deleted and records the timestamp.
func (r *ProjectRepo) SoftDelete(ctx context.Context, userID, id uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE projects p JOIN clients c ON c.id=p.client_id "+
			"SET p.deleted=1, p.deleted_on=? WHERE p.id=? AND c.user_id=? AND p.deleted=0",
		time.Now().UTC(), id, userID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// HardDelete removes the project row permanently.
func (r *ProjectRepo) HardDelete(ctx context.Context, userID, id uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"DELETE p FROM projects p JOIN clients c ON c.id=p.client_id WHERE p.id=? AND c.user_id=?",
		id, userID)
	if err != nil {
		return err
	}
	return requireRow(res)
}
