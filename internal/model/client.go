package model

import "time"

// Client represents a row in the `clients` table. Clients are created
// and managed by a user; the pair (name, email) is unique per owning
// user. Soft deletion mirrors the user table: the row is kept with the
// Deleted flag set so listings can exclude it.
//
// Fields:
//  ID          – primary key identifier.
//  UserID      – owning user (clients.user_id).
//  Name        – client display name.
//  Email       – client contact email.
//  Description – free-form notes about the client.
//  CreatedAt   – timestamp of creation.
//  Deleted     – soft-delete flag.
//  DeletedOn   – when the soft delete happened (nullable).
type Client struct {
	ID          uint64     // clients.id
	UserID      uint64     // clients.user_id
	Name        string     // clients.name
	Email       string     // clients.email
	Description string     // clients.description
	CreatedAt   time.Time  // clients.created_at
	Deleted     bool       // clients.deleted
	DeletedOn   *time.Time // clients.deleted_on (nullable)
}
