// Package scheduler fires the monthly donation triggers on their Jalali day,
// at most once per trigger per day.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/frahmantamala/charity-reminder/internal"
	"github.com/frahmantamala/charity-reminder/internal/core/clock"
	"github.com/frahmantamala/charity-reminder/internal/core/jalali"
	"github.com/frahmantamala/charity-reminder/internal/observability"
)

// Status describes a trigger for the admin API.
type Status struct {
	Kind      Kind   `json:"kind"`
	Day       int    `json:"day"`
	LastFired string `json:"last_fired,omitempty"`
	DueToday  bool   `json:"due_today"`
}

type Scheduler struct {
	source   *clock.Source
	markers  MarkerRepository
	triggers []Trigger
	actions  map[Kind]ActionFunc
	interval time.Duration
	metrics  *observability.Metrics
	logger   *slog.Logger

	// mu keeps a manual trigger from overlapping a poll.
	mu sync.Mutex
}

func New(source *clock.Source, markers MarkerRepository, triggers []Trigger, actions map[Kind]ActionFunc, interval time.Duration, metrics *observability.Metrics, logger *slog.Logger) (*Scheduler, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("poll interval must be positive, got %s", interval)
	}
	for _, t := range triggers {
		if t.Day < 1 || t.Day > 31 {
			return nil, fmt.Errorf("trigger %s: day %d out of range", t.Kind, t.Day)
		}
		if _, ok := actions[t.Kind]; !ok {
			return nil, fmt.Errorf("trigger %s has no action", t.Kind)
		}
	}
	return &Scheduler{
		source:   source,
		markers:  markers,
		triggers: triggers,
		actions:  actions,
		interval: interval,
		metrics:  metrics,
		logger:   logger,
	}, nil
}

// Run polls immediately and then once per interval until ctx is done. Action
// failures are logged and never stop the loop.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("scheduler started", "interval", s.interval.String(), "timezone", s.source.Location().String())

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if err := s.RunOnce(ctx); err != nil {
			s.logger.Warn("scheduler poll finished with errors", "error", err)
		}

		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// RunOnce evaluates every trigger against today. A trigger whose action fails
// keeps its old marker so the next poll retries it; the remaining triggers are
// still evaluated.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	today := s.source.Today()
	var errs []error

	for _, t := range s.triggers {
		if today.Day() != t.Day {
			continue
		}

		last, found, err := s.markers.LastFired(ctx, t.Kind)
		if err != nil {
			s.logger.Error("failed to read trigger marker", "trigger", t.Kind, "date", today.String(), "error", err)
			s.metrics.TriggerError(string(t.Kind), err)
			errs = append(errs, fmt.Errorf("read marker %s: %w", t.Kind, err))
			continue
		}
		if found && last.Equal(today) {
			continue
		}

		if err := s.run(ctx, t.Kind, today); err != nil {
			errs = append(errs, err)
			continue
		}

		if err := s.markers.Advance(ctx, t.Kind, today); err != nil {
			s.logger.Error("failed to advance trigger marker", "trigger", t.Kind, "date", today.String(), "error", err)
			s.metrics.TriggerError(string(t.Kind), err)
			errs = append(errs, fmt.Errorf("advance marker %s: %w", t.Kind, err))
			continue
		}
		s.logger.Info("trigger fired", "trigger", t.Kind, "date", today.String())
	}

	return errors.Join(errs...)
}

// Trigger runs kind's action now, ignoring its day and marker. The marker is
// left as it is.
func (s *Scheduler) Trigger(ctx context.Context, kind Kind) error {
	if _, ok := s.actions[kind]; !ok {
		return fmt.Errorf("trigger %q: %w", kind, internal.ErrInvalidTrigger)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	today := s.source.Today()
	s.logger.Info("manual trigger", "trigger", kind, "date", today.String())
	return s.run(ctx, kind, today)
}

// Statuses reports each trigger's day and marker.
func (s *Scheduler) Statuses(ctx context.Context) ([]Status, error) {
	markers, err := s.markers.List(ctx)
	if err != nil {
		return nil, err
	}
	byKind := make(map[Kind]*Marker, len(markers))
	for _, m := range markers {
		byKind[m.Kind] = m
	}

	today := s.source.Today()
	statuses := make([]Status, 0, len(s.triggers))
	for _, t := range s.triggers {
		st := Status{Kind: t.Kind, Day: t.Day}
		m, fired := byKind[t.Kind]
		if fired {
			st.LastFired = m.LastFired.String()
		}
		st.DueToday = today.Day() == t.Day && !(fired && m.LastFired.Equal(today))
		statuses = append(statuses, st)
	}
	return statuses, nil
}

func (s *Scheduler) run(ctx context.Context, kind Kind, today jalali.Date) (err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("trigger action panicked", "trigger", kind, "date", today.String(), "panic", r, "stack", string(debug.Stack()))
			err = fmt.Errorf("trigger %s on %s: %w", kind, today, &observability.PanicError{Value: r})
			s.metrics.TriggerError(string(kind), err)
		}
	}()

	s.metrics.TriggerRun(string(kind))
	if err := s.actions[kind](ctx, today); err != nil {
		s.logger.Error("trigger action failed", "trigger", kind, "date", today.String(), "error", err)
		s.metrics.TriggerError(string(kind), err)
		return fmt.Errorf("trigger %s on %s: %w", kind, today, err)
	}
	return nil
}
