package model

import "time"

// Project represents a row in the `projects` table. A project belongs
// to a client and its name is unique within that client. Deletion
// follows the same soft-delete pattern as clients and users.
//
// Fields:
//  ID          – primary key identifier.
//  ClientID    – owning client (projects.client_id).
//  Name        – project name, unique per client.
//  Description – free-form notes about the project.
//  CreatedAt   – timestamp of creation.
//  Deleted     – soft-delete flag.
//  DeletedOn   – when the soft delete happened (nullable).
type Project struct {
	ID          uint64     // projects.id
	ClientID    uint64     // projects.client_id
	Name        string     // projects.name
	Description string     // projects.description
	CreatedAt   time.Time  // projects.created_at
	Deleted     bool       // projects.deleted
	DeletedOn   *time.Time // projects.deleted_on (nullable)
}
