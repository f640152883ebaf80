// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios without
// inspecting driver-specific error strings. For example,
// ErrUsernameExists maps the storage-layer unique index violation so
// registration can answer with a conflict, while ErrNoSession lets the
// auth gate treat a missing session claim as unauthenticated.
package repository

import "errors"

// ErrUsernameExists is returned when an insert hits the unique index on
// users.username. Handlers should translate this into an HTTP 409.
var ErrUsernameExists = errors.New("username already exists")

// ErrClientExists is returned when a user already has a client with the
// same name and email.
var ErrClientExists = errors.New("client already exists")

// ErrProjectExists is returned when a client already has a project with
// the same name.
var ErrProjectExists = errors.New("project already exists")

// ErrNoSession is returned when a session context carries no identity
// claim. The auth gate treats it identically to any other missing or
// invalid credential.
var ErrNoSession = errors.New("no session claim")
