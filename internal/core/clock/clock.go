// Package clock is the single place where wall-clock instants are turned into
// civil dates of the operating timezone.
package clock

import (
	"fmt"
	"sync"
	"time"

	"github.com/frahmantamala/charity-reminder/internal/core/jalali"
)

type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

type FakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func NewFakeClock(t time.Time) *FakeClock {
	return &FakeClock{now: t.UTC()}
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *FakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t.UTC()
	c.mu.Unlock()
}

func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// Source evaluates a Clock in one fixed IANA timezone.
type Source struct {
	clock Clock
	loc   *time.Location
}

func NewSource(c Clock, timezone string) (*Source, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", timezone, err)
	}
	if c == nil {
		c = SystemClock{}
	}
	return &Source{clock: c, loc: loc}, nil
}

// Now returns the current instant in the operating timezone.
func (s *Source) Now() time.Time {
	return s.clock.Now().In(s.loc)
}

// Today returns the current Jalali date in the operating timezone.
func (s *Source) Today() jalali.Date {
	return jalali.FromTime(s.Now())
}

func (s *Source) Period() jalali.Period {
	return s.Today().Period()
}

func (s *Source) Location() *time.Location {
	return s.loc
}
