// Package poller drives the tracker: one reconcile and detect pass per
// category per interval, with every resulting event dispatched to a notifier.
package poller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rewired-gh/stakewatch/internal/logger"
	"github.com/rewired-gh/stakewatch/internal/models"
	"github.com/rewired-gh/stakewatch/internal/notify"
	"github.com/rewired-gh/stakewatch/internal/tracker"
)

// Clock abstracts time so multi-cycle runs can be tested without sleeping.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

// RealClock is the wall clock.
type RealClock struct{}

func (RealClock) Now() time.Time                         { return time.Now() }
func (RealClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// Option configures a Poller.
type Option func(*Poller)

// WithClock replaces the wall clock.
func WithClock(c Clock) Option {
	return func(p *Poller) { p.clock = c }
}

// Poller runs tracking cycles over a fixed set of categories.
type Poller struct {
	tracker  *tracker.Tracker
	notifier notify.Notifier
	interval time.Duration
	clock    Clock

	states   []*tracker.CategoryState
	failures map[models.Category]int
}

// New creates a Poller.
func New(t *tracker.Tracker, n notify.Notifier, interval time.Duration, opts ...Option) *Poller {
	p := &Poller{
		tracker:  t,
		notifier: n,
		interval: interval,
		clock:    RealClock{},
		failures: make(map[models.Category]int),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Init primes and reconciles every category once. Any error is fatal: there
// is no valid starting state without a first snapshot and a readable watchlist.
func (p *Poller) Init(ctx context.Context, states []*tracker.CategoryState) error {
	for _, state := range states {
		if err := p.tracker.Prime(ctx, state); err != nil {
			return err
		}
		logger.Info("Updating %s watchlist...", state.Category)
		events, err := p.tracker.ReconcileWatchlist(state)
		if err != nil {
			return fmt.Errorf("initial %s watchlist: %w", state.Category, err)
		}
		p.dispatch(ctx, events)
		logger.Info("Tracking %d of %d %s watchlist entries", state.Tracked.Len(), len(state.Watchlist), state.Category)
	}
	p.states = states
	return nil
}

// RunCycle performs one reconcile and detect pass for every category. It
// never fails; problems are logged and the affected step is skipped.
func (p *Poller) RunCycle(ctx context.Context) {
	startTime := p.clock.Now()
	for _, state := range p.states {
		if ctx.Err() != nil {
			return
		}
		p.runCategory(ctx, state)
	}
	logger.Debug("Cycle completed in %v", p.clock.Now().Sub(startTime))
}

func (p *Poller) runCategory(ctx context.Context, state *tracker.CategoryState) {
	logger.Info("Updating %s watchlist...", state.Category)
	events, err := p.tracker.ReconcileWatchlist(state)
	if err != nil {
		logger.Error("Failed to reload %s watchlist, keeping previous one: %v", state.Category, err)
	} else {
		p.dispatch(ctx, events)
	}

	if state.Tracked.Len() == 0 {
		logger.Debug("Nothing tracked for %s, skipping status check", state.Category)
		return
	}

	logger.Info("Requesting %s staking info...", state.Category)
	events, err = p.tracker.DetectStatusChanges(ctx, state)
	if err != nil {
		p.recordFailure(ctx, state.Category, err)
		return
	}
	p.recordSuccess(ctx, state.Category)
	logger.Debug("Checked %d tracked %s products, %d changed", state.Tracked.Len(), state.Category, len(events))
	p.dispatch(ctx, events)
}

func (p *Poller) recordFailure(ctx context.Context, category models.Category, err error) {
	p.failures[category]++
	logger.Error("Status check for %s failed, keeping previous snapshot: %v", category, err)
	if p.failures[category] != 1 {
		return
	}
	if hr, ok := p.notifier.(notify.HealthReporter); ok {
		if sendErr := hr.ReportFailure(ctx, category, err); sendErr != nil {
			logger.Warn("Failed to send error notification: %v", sendErr)
		}
	}
}

func (p *Poller) recordSuccess(ctx context.Context, category models.Category) {
	failures := p.failures[category]
	if failures == 0 {
		return
	}
	p.failures[category] = 0
	logger.Info("Status check for %s recovered after %d failures", category, failures)
	if hr, ok := p.notifier.(notify.HealthReporter); ok {
		if sendErr := hr.ReportRecovery(ctx, category, failures); sendErr != nil {
			logger.Warn("Failed to send recovery notification: %v", sendErr)
		}
	}
}

func (p *Poller) dispatch(ctx context.Context, events []models.Event) {
	for _, e := range events {
		switch e.Kind {
		case models.EventRemoved:
			logger.Info("%s has been removed from %s tracking", e.Key.PrettyName(), e.Category)
		case models.EventInvalidProduct:
			logger.Warn("%s is not a valid %s product. Consider removing it from the watchlist", e.Key.PrettyName(), e.Category)
		case models.EventAvailabilityChanged:
			logger.Info("Posting update: %s", notify.Message(e.Key, e.Available))
			if err := p.notifier.Notify(ctx, e.Category, e.Key, e.Available); err != nil {
				var notifyErr *notify.Error
				if errors.As(err, &notifyErr) {
					logger.Error("Notification failed: %v", notifyErr)
				} else {
					logger.Error("Notification for %s failed: %v", e, err)
				}
			}
		}
	}
}

// Run initializes the categories and then polls until ctx is cancelled. The
// first poll happens one interval after initialization. Only an Init failure
// is returned; cancellation returns nil.
func (p *Poller) Run(ctx context.Context, states []*tracker.CategoryState) error {
	if err := p.Init(ctx, states); err != nil {
		return err
	}

	for {
		logger.Info("Sleeping for %v", p.interval)
		select {
		case <-ctx.Done():
			logger.Info("Poller stopped")
			return nil
		case <-p.clock.After(p.interval):
		}
		p.RunCycle(ctx)
	}
}

// States returns the category states the poller is driving.
func (p *Poller) States() []*tracker.CategoryState {
	return p.states
}
