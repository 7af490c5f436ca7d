package models

import "time"

// TrackingEvent is an append-only fact about an order's progress. Events are
// never edited or deleted; the order's current status is derived from the
// latest one.
type TrackingEvent struct {
	ID          uint64    `json:"id"`
	OrderID     uint64    `json:"order_id"`
	Status      string    `json:"status"`
	Location    *string   `json:"location,omitempty"`
	Description *string   `json:"description,omitempty"`
	Operator    *string   `json:"operator,omitempty"`
	EventDate   time.Time `json:"event_date"`
	CreatedAt   time.Time `json:"created_at"`
}

type TrackingEventInput struct {
	Status      string     `json:"status"`
	Location    *string    `json:"location"`
	Description *string    `json:"description"`
	Operator    *string    `json:"operator"`
	EventDate   *time.Time `json:"event_date"`

	// Force skips the status transition check (staff correction).
	Force bool `json:"force"`
}
