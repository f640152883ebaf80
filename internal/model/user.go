package model

import "time"

// User represents an application user record as stored in the `users`
// table. Each field corresponds to a column. The json tags are omitted
// because these structs are used internally by the repository layer;
// handlers define separate response types with appropriate JSON tags.
//
// A user is identified by a unique username. The PasswordHash column
// holds the argon2id digest; the plaintext never reaches this layer.
// Deleted users stay in the table with Deleted set and DeletedOn
// recorded so that soft-deleted accounts become non-searchable without
// losing the row. Permanent deletion removes the row entirely.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Username     – unique handle used for login and token subjects.
//  Email        – contact email; mutable only through the confirmation flow.
//  FirstName    – given name.
//  LastName     – family name.
//  PasswordHash – argon2id digest of the password.
//  Confirmed    – whether the account has completed confirmation.
//  MemberSince  – timestamp of registration.
//  Deleted      – soft-delete flag.
//  DeletedOn    – when the soft delete happened (nullable).
type User struct {
	ID           uint64     // users.id
	Username     string     // users.username
	Email        string     // users.email
	FirstName    string     // users.first_name
	LastName     string     // users.last_name
	PasswordHash string     // users.password_hash
	Confirmed    bool       // users.confirmed
	MemberSince  time.Time  // users.member_since
	Deleted      bool       // users.deleted
	DeletedOn    *time.Time // users.deleted_on (nullable)
}
