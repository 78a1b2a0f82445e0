// Package event owns the registry of events badges can be claimed for.
package event

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/mahavirb22/EventLens/internal/geofence"
	"github.com/mahavirb22/EventLens/internal/kv"
	dErrors "github.com/mahavirb22/EventLens/pkg/domain-errors"
)

const keyPrefix = "event/"

// Event is one registered event. Coordinates are optional; without them the
// geofence signal reports unavailable.
type Event struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	AssetID     uint64    `json:"asset_id"`
	Capacity    int       `json:"capacity"`
	Minted      int       `json:"minted"`
	Latitude    *float64  `json:"latitude,omitempty"`
	Longitude   *float64  `json:"longitude,omitempty"`
	StartsAt    string    `json:"starts_at,omitempty"`
	EndsAt      string    `json:"ends_at,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Venue returns the venue coordinates, or nil when not configured.
func (e *Event) Venue() *geofence.Coordinates {
	if e.Latitude == nil || e.Longitude == nil {
		return nil
	}
	return &geofence.Coordinates{Lat: *e.Latitude, Lon: *e.Longitude}
}

// Stats is the platform-wide aggregate for the dashboard.
type Stats struct {
	TotalEvents    int `json:"total_events"`
	TotalMinted    int `json:"total_badges_minted"`
	TotalAvailable int `json:"total_badges_available"`
}

// CreateParams are the fields an admin supplies when registering an event.
type CreateParams struct {
	Name        string
	Description string
	Location    string
	AssetID     uint64
	Capacity    int
	Latitude    *float64
	Longitude   *float64
	StartsAt    string
	EndsAt      string
}

// Registry persists events in the durable key-value store.
type Registry struct {
	store kv.Store
	now   func() time.Time
}

// NewRegistry creates a Registry over the given store.
func NewRegistry(store kv.Store) *Registry {
	return &Registry{store: store, now: time.Now}
}

// Create registers a new event and returns it.
func (r *Registry) Create(p CreateParams) (*Event, error) {
	if p.Name == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "event name is required")
	}
	if p.Capacity <= 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "event capacity must be positive")
	}

	e := &Event{
		ID:          uuid.NewString()[:8],
		Name:        p.Name,
		Description: p.Description,
		Location:    p.Location,
		AssetID:     p.AssetID,
		Capacity:    p.Capacity,
		Latitude:    p.Latitude,
		Longitude:   p.Longitude,
		StartsAt:    p.StartsAt,
		EndsAt:      p.EndsAt,
		CreatedAt:   r.now().UTC(),
	}
	if err := r.store.Put(keyPrefix+e.ID, e); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist event")
	}
	return e, nil
}

// Get returns the event or a not_found error.
func (r *Registry) Get(id string) (*Event, error) {
	var e Event
	found, err := r.store.Get(keyPrefix+id, &e)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read event")
	}
	if !found {
		return nil, dErrors.New(dErrors.CodeNotFound, "event not found")
	}
	return &e, nil
}

// List returns all registered events.
func (r *Registry) List() ([]*Event, error) {
	keys, err := r.store.Keys(keyPrefix)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list events")
	}
	events := make([]*Event, 0, len(keys))
	for _, k := range keys {
		var e Event
		if _, err := r.store.Get(k, &e); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read event")
		}
		events = append(events, &e)
	}
	return events, nil
}

// IncrementMinted bumps the minted counter, refusing to pass capacity. The
// read-modify-write runs atomically inside the store's guard.
func (r *Registry) IncrementMinted(id string) error {
	found := false
	err := r.store.Update(keyPrefix+id, func(current json.RawMessage) (any, error) {
		if current == nil {
			return nil, nil
		}
		found = true
		var e Event
		if err := json.Unmarshal(current, &e); err != nil {
			return nil, err
		}
		if e.Minted >= e.Capacity {
			return nil, dErrors.New(dErrors.CodeSupplyExhausted, "all badges have been claimed")
		}
		e.Minted++
		return &e, nil
	})
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update minted count")
	}
	if !found {
		return dErrors.New(dErrors.CodeNotFound, "event not found")
	}
	return nil
}

// DecrementMinted returns one unit of supply after a failed issuance. Never
// drops below zero.
func (r *Registry) DecrementMinted(id string) error {
	err := r.store.Update(keyPrefix+id, func(current json.RawMessage) (any, error) {
		if current == nil {
			return nil, nil
		}
		var e Event
		if err := json.Unmarshal(current, &e); err != nil {
			return nil, err
		}
		if e.Minted == 0 {
			return nil, nil
		}
		e.Minted--
		return &e, nil
	})
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update minted count")
	}
	return nil
}

// Stats aggregates counts across every event.
func (r *Registry) Stats() (*Stats, error) {
	events, err := r.List()
	if err != nil {
		return nil, err
	}
	s := &Stats{TotalEvents: len(events)}
	for _, e := range events {
		s.TotalMinted += e.Minted
		s.TotalAvailable += e.Capacity
	}
	return s, nil
}
