// Package repository implements data access over MySQL using database/sql.
// This file defines sentinel errors shared across repositories so handlers
// can map failure scenarios to HTTP statuses: ErrForbidden -> 403,
// ErrConflict -> 409, the *NotFound values -> 404.
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when an operation cannot proceed because of
// existing dependent state, such as deleting a seat type that still has
// seats or double-booking an occupied slot.
var ErrConflict = errors.New("conflict")

// Per-entity not-found sentinels.
var (
	ErrUserNotFound     = errors.New("user not found")
	ErrLibraryNotFound  = errors.New("library not found")
	ErrSeatTypeNotFound = errors.New("seat type not found")
	ErrSeatNotFound     = errors.New("seat not found")
	ErrBookingNotFound  = errors.New("booking not found")
	ErrPlanNotFound     = errors.New("membership plan not found")
	ErrPostNotFound     = errors.New("forum post not found")
	ErrCommentNotFound  = errors.New("forum comment not found")
)
