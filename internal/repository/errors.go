// Package repository holds thin persistence wrappers over *sql.DB.
// Sentinel errors let the service layer distinguish failure cases
// without inspecting driver-specific errors.
package repository

import "errors"

// ErrEmailExists is returned when an insert violates the unique email
// index. The index, not the application-level pre-check, is the
// authoritative uniqueness guarantee under concurrent sign-ups.
var ErrEmailExists = errors.New("email already exists")

// ErrNotFound is returned when a looked-up row does not exist.
var ErrNotFound = errors.New("not found")
