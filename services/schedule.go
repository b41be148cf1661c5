package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler fires a callback on a cron spec in a fixed time zone. Runs never
// overlap: a tick that arrives while the previous run is busy is skipped.
type Scheduler struct {
	cron *cron.Cron
}

func NewScheduler(timezone string, logger *slog.Logger) (*Scheduler, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", timezone, err)
	}
	cl := cronLogger{logger: logger}
	c := cron.New(
		cron.WithLogger(cl),
		cron.WithLocation(loc),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	return &Scheduler{cron: c}, nil
}

// Add registers fn under spec. fn receives ctx.
func (s *Scheduler) Add(ctx context.Context, spec string, fn func(ctx context.Context)) error {
	_, err := s.cron.AddFunc(spec, func() { fn(ctx) })
	if err != nil {
		return fmt.Errorf("schedule %q: %w", spec, err)
	}
	return nil
}

func (s *Scheduler) Start() { s.cron.Start() }

// Stop halts the schedule and waits for a running job to return or ctx to end.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

// Next reports when the first registered entry fires next.
func (s *Scheduler) Next() (time.Time, bool) {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}, false
	}
	return entries[0].Next, true
}

type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append([]any{"error", err}, keysAndValues...)...)
}
