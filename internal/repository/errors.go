// Package repository holds the data access layer. Each entity file defines
// its own not-found sentinel; this file keeps the error values shared by
// several repositories so handlers can translate failure scenarios into
// HTTP responses (403 for ErrForbidden, 409 for ErrConflict).
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation on a
// resource their role does not permit.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when an operation cannot proceed because of
// conflicting state, such as scheduling an exam into a hall slot that is
// already booked.
var ErrConflict = errors.New("conflict")
