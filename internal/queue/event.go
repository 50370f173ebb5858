// Package queue defines message payloads exchanged over the message broker.
package queue

// BookingCreatedQueue is the durable queue booking events are routed to.
const BookingCreatedQueue = "booking.created"

// BookingCreatedEvent is published after a booking row is committed. It
// carries the identifiers as the caller sent them and enough display data
// for consumers to log or notify without querying the primary database.
type BookingCreatedEvent struct {
	BookingID     string `json:"booking_id"`
	OwnerID       string `json:"owner_id"`
	SitterID      string `json:"sitter_id"`
	DogID         string `json:"dog_id"`
	StartTime     string `json:"start_time"`
	EndTime       string `json:"end_time"`
	Location      string `json:"location,omitempty"`
	SourceKind    string `json:"source_kind,omitempty"`
	SourceID      string `json:"source_id,omitempty"`
	PostingClosed bool   `json:"posting_closed"`
	CreatedAt     string `json:"created_at"`
}
