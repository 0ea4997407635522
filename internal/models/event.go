package models

import (
	"errors"
	"fmt"
	"time"
)

// EventKind classifies what the tracker observed.
type EventKind string

const (
	// EventRemoved means a tracked product left the watchlist. Log only.
	EventRemoved EventKind = "removed"
	// EventInvalidProduct means a watchlist entry is unknown to the endpoint.
	EventInvalidProduct EventKind = "invalid_product"
	// EventAvailabilityChanged means a tracked product should be announced.
	EventAvailabilityChanged EventKind = "availability_changed"
)

// Event is one observation produced by a tracker step.
type Event struct {
	ID         string     `json:"id"`
	Category   Category   `json:"category"`
	Kind       EventKind  `json:"kind"`
	Key        ProductKey `json:"key"`
	Available  bool       `json:"available"` // only meaningful for EventAvailabilityChanged
	DetectedAt time.Time  `json:"detected_at"`
}

// Validate checks that all event fields are valid
func (e *Event) Validate() error {
	if e.ID == "" {
		return errors.New("event ID must not be empty")
	}
	if e.Category == "" {
		return errors.New("event category must not be empty")
	}
	if e.Key.Asset == "" {
		return errors.New("event product asset must not be empty")
	}
	switch e.Kind {
	case EventRemoved, EventInvalidProduct, EventAvailabilityChanged:
	default:
		return fmt.Errorf("unknown event kind %q", e.Kind)
	}
	if e.DetectedAt.IsZero() {
		return errors.New("detected at must be set")
	}
	return nil
}

func (e Event) String() string {
	if e.Kind == EventAvailabilityChanged {
		return fmt.Sprintf("%s %s %s available=%t", e.Category, e.Kind, e.Key, e.Available)
	}
	return fmt.Sprintf("%s %s %s", e.Category, e.Kind, e.Key)
}
