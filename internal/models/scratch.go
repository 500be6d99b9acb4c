package models

import "time"

// PrizeType classifies a catalog entry. A try-again entry is a normal draw
// result, not an error.
type PrizeType string

const (
	PrizeDiscount     PrizeType = "discount"
	PrizeFreeProduct  PrizeType = "free_product"
	PrizeFreeShipping PrizeType = "free_shipping"
	PrizeTryAgain     PrizeType = "try_again"
)

// PrizeEntry is a single immutable row of the prize catalog.
// Weight is relative; the selector normalizes weights at draw time.
type PrizeEntry struct {
	Text        string    `json:"text"`
	Icon        string    `json:"icon"`
	Type        PrizeType `json:"type"`
	Description string    `json:"description"`
	Weight      int       `json:"weight"`
}

// PlayRecord is the persisted play history of one client.
type PlayRecord struct {
	LastPlayDate time.Time `json:"lastPlayDate"`
	TotalPlays   int       `json:"totalPlays"`
}

// Point is a coordinate on the covering surface, in surface units.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// EventKind names a notification sent to presentation collaborators.
type EventKind string

const (
	EventAlreadyPlayed   EventKind = "already_played"
	EventPrizeAssigned   EventKind = "prize_assigned"
	EventScratchProgress EventKind = "scratch_progress"
	EventComplete        EventKind = "complete"
	EventError           EventKind = "error"
)

// Event is a captured collaborator notification, queued until the
// presentation layer picks it up.
type Event struct {
	Kind       EventKind   `json:"kind"`
	Prize      *PrizeEntry `json:"prize,omitempty"`
	TotalPlays int         `json:"totalPlays,omitempty"`
	Fraction   float64     `json:"fraction,omitempty"`
	Error      string      `json:"error,omitempty"`
}
