// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios. For
// example, ErrForbidden indicates that the current user is not
// authorized to perform an operation on a resource owned by another
// organization, while ErrConflict signals that an operation cannot
// proceed due to existing records (e.g. a second payment for the
// same reservation).
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation
// on a resource belonging to an organization they are not a member
// of. Handlers should translate this into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when an insert or update collides with
// existing state, such as a duplicate payment for a reservation or
// a replayed split operation id. Handlers should translate this
// into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrNotFound is returned when the requested row does not exist
// within the caller's organization. Handlers should translate this
// into an HTTP 404 response.
var ErrNotFound = errors.New("not found")
