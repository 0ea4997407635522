// Package tracker reconciles a category's watchlist against its latest status
// snapshot and decides which availability changes are worth announcing.
//
// Each category owns a CategoryState. Per cycle the caller runs
// ReconcileWatchlist and then, if anything is tracked, DetectStatusChanges.
// Both steps either commit completely or leave the state as it was, so a
// failed fetch or unreadable watchlist never produces a half-applied cycle.
//
// A product is tracked only once the endpoint has confirmed it exists. Adding
// a product that is already available announces it immediately; adding one
// that is sold out stays silent until it flips.
package tracker

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rewired-gh/stakewatch/internal/logger"
	"github.com/rewired-gh/stakewatch/internal/models"
)

// StatusSource produces a fresh snapshot for one category.
type StatusSource interface {
	Fetch(ctx context.Context) (*models.Snapshot, error)
}

// WatchlistSource produces the current watchlist for one category.
type WatchlistSource interface {
	Load() ([]models.ProductKey, error)
}

// CategoryState is everything the tracker remembers about one category.
type CategoryState struct {
	Category models.Category
	Status   StatusSource
	List     WatchlistSource

	Current   *models.Snapshot
	Previous  *models.Snapshot
	Watchlist []models.ProductKey
	Tracked   *models.KeySet
}

// NewCategoryState returns an empty state: nothing fetched, nothing tracked.
func NewCategoryState(category models.Category, status StatusSource, list WatchlistSource) *CategoryState {
	return &CategoryState{
		Category: category,
		Status:   status,
		List:     list,
		Tracked:  models.NewKeySet(),
	}
}

// Tracker runs reconciliation and change detection over CategoryStates.
type Tracker struct {
	now func() time.Time
}

// New creates a Tracker. A nil now uses time.Now.
func New(now func() time.Time) *Tracker {
	if now == nil {
		now = time.Now
	}
	return &Tracker{now: now}
}

func (t *Tracker) event(state *CategoryState, kind models.EventKind, key models.ProductKey, available bool) models.Event {
	return models.Event{
		ID:         uuid.New().String(),
		Category:   state.Category,
		Kind:       kind,
		Key:        key,
		Available:  available,
		DetectedAt: t.now(),
	}
}

// Prime fetches the first snapshot for state. Callers treat a failure here as
// fatal because there is nothing to reconcile the watchlist against.
func (t *Tracker) Prime(ctx context.Context, state *CategoryState) error {
	snap, err := state.Status.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("initial %s status: %w", state.Category, err)
	}
	state.Current = snap
	state.Previous = nil
	logger.Debug("Primed %s with %d products", state.Category, snap.Len())
	return nil
}

// ReconcileWatchlist reloads the watchlist and brings the tracked set in line
// with it. Keys dropped from the list produce EventRemoved; new keys unknown
// to the current snapshot produce EventInvalidProduct and stay untracked; new
// keys that are available right now produce EventAvailabilityChanged.
//
// If the watchlist cannot be loaded the error is returned and state is not
// modified.
func (t *Tracker) ReconcileWatchlist(state *CategoryState) ([]models.Event, error) {
	list, err := state.List.Load()
	if err != nil {
		return nil, err
	}

	listed := models.NewKeySet(list...)
	tracked := state.Tracked.Clone()
	var events []models.Event

	for _, key := range state.Tracked.Keys() {
		if !listed.Has(key) {
			tracked.Remove(key)
			events = append(events, t.event(state, models.EventRemoved, key, false))
		}
	}

	for _, key := range listed.Keys() {
		if tracked.Has(key) {
			continue
		}
		available, known := state.Current.Lookup(key)
		if !known {
			events = append(events, t.event(state, models.EventInvalidProduct, key, false))
			continue
		}
		tracked.Add(key)
		logger.Info("Adding %s to %s tracking", key.PrettyName(), state.Category)
		if available {
			events = append(events, t.event(state, models.EventAvailabilityChanged, key, true))
		}
	}

	state.Tracked = tracked
	state.Watchlist = list
	return events, nil
}

// DetectStatusChanges fetches a new snapshot and reports every tracked key
// whose availability differs from the current snapshot. Keys missing from the
// new snapshot are not reported and keep their last known value.
//
// On fetch failure the error is returned, no events are produced and state is
// not modified. With nothing tracked it does nothing.
func (t *Tracker) DetectStatusChanges(ctx context.Context, state *CategoryState) ([]models.Event, error) {
	if state.Tracked.Len() == 0 {
		return nil, nil
	}

	fresh, err := state.Status.Fetch(ctx)
	if err != nil {
		return nil, err
	}

	var events []models.Event
	var carried []models.StatusEntry
	for _, key := range state.Tracked.Keys() {
		before, hadOld := state.Current.Lookup(key)
		after, hasNew := fresh.Lookup(key)
		switch {
		case !hasNew:
			if hadOld {
				carried = append(carried, models.StatusEntry{Key: key, Available: before})
			}
			logger.Debug("%s %s missing from fresh snapshot, keeping last known value", state.Category, key)
		case hadOld && after != before:
			events = append(events, t.event(state, models.EventAvailabilityChanged, key, after))
		}
	}

	if len(carried) > 0 {
		fresh = models.BuildSnapshot(fresh.Category, fresh.FetchedAt, append(fresh.Entries(), carried...))
	}
	state.Previous = state.Current
	state.Current = fresh
	return events, nil
}
