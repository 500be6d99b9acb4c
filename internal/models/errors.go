package models

import "errors"

// Errors shared across the scratch card packages.
var (
	// ErrSurfaceUnavailable means the covering surface could not be created.
	ErrSurfaceUnavailable = errors.New("scratch surface unavailable")
	// ErrSessionNotFound means the client has no live session to drive.
	ErrSessionNotFound = errors.New("no active scratch session")
	// ErrCorruptRecord marks an unreadable play record; it never leaves the gate.
	ErrCorruptRecord = errors.New("persisted play record is corrupt")
	// ErrRecordNotFound is returned by stores on a missing key.
	ErrRecordNotFound = errors.New("record not found")
)
