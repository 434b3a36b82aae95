// Package scheduler fires a job at fixed wall-clock times every day.
package scheduler

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/deusflow/newsbot/internal/logger"
)

// Clock is a time of day.
type Clock struct {
	Hour   int
	Minute int
}

func (c Clock) String() string {
	return fmt.Sprintf("%d:%02d", c.Hour, c.Minute)
}

// ParseTimes reads a comma separated list like "08:30,13:00". An empty
// string yields no times.
func ParseTimes(list string) ([]Clock, error) {
	var out []Clock
	for _, part := range strings.Split(list, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		t, err := time.Parse("15:04", part)
		if err != nil {
			return nil, fmt.Errorf("invalid schedule time %q: %w", part, err)
		}
		out = append(out, Clock{Hour: t.Hour(), Minute: t.Minute()})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Hour != out[j].Hour {
			return out[i].Hour < out[j].Hour
		}
		return out[i].Minute < out[j].Minute
	})
	return out, nil
}

// Labels formats times for display, e.g. ["8:30", "13:00"].
func Labels(times []Clock) []string {
	out := make([]string, len(times))
	for i, t := range times {
		out[i] = t.String()
	}
	return out
}

type Scheduler struct {
	times    []Clock
	location *time.Location
	job      func(ctx context.Context, at time.Time)

	now   func() time.Time
	after func(time.Duration) <-chan time.Time

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

// New returns a scheduler running job at each of times in loc.
func New(times []Clock, loc *time.Location, job func(ctx context.Context, at time.Time)) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	return &Scheduler{
		times:    times,
		location: loc,
		job:      job,
		now:      time.Now,
		after:    time.After,
	}
}

// Next returns the first scheduled instant strictly after from.
func (s *Scheduler) Next(from time.Time) time.Time {
	from = from.In(s.location)
	for day := 0; day < 2; day++ {
		base := from.AddDate(0, 0, day)
		for _, c := range s.times {
			at := time.Date(base.Year(), base.Month(), base.Day(), c.Hour, c.Minute, 0, 0, s.location)
			if at.After(from) {
				return at
			}
		}
	}
	return time.Time{}
}

// Start launches the loop in the background. It is a no-op without times
// or when already running.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.times) == 0 || s.job == nil || s.stop != nil {
		return
	}
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	go s.loop(ctx, s.stop, s.done)
	logger.Info("scheduler started", "times", strings.Join(Labels(s.times), ","), "timezone", s.location.String())
}

// Stop halts the loop and waits for a running job to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	stop, done := s.stop, s.done
	s.stop, s.done = nil, nil
	s.mu.Unlock()
	if stop == nil {
		return
	}
	close(stop)
	<-done
}

func (s *Scheduler) loop(ctx context.Context, stop, done chan struct{}) {
	defer close(done)
	for {
		next := s.Next(s.now())
		logger.Debug("next scheduled run", "at", next)
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-s.after(next.Sub(s.now())):
			s.job(ctx, next)
		}
	}
}
