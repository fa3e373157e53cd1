// Package cleanup periodically trims in-flight matching state: idle browsing
// sessions, counters of past quota days and in-process expiring stores.
package cleanup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const defaultInterval = time.Hour

type SessionSweeper interface {
	SweepIdle(ctx context.Context) (int, error)
}

type QuotaSweeper interface {
	Sweep(ctx context.Context) (int, error)
}

// ExpirySweeper is an in-process store whose entries expire. Redis-backed stores expire on their own.
type ExpirySweeper interface {
	SweepExpired() int
}

type namedSweeper struct {
	name    string
	sweeper ExpirySweeper
}

type Job struct {
	sessions SessionSweeper
	quota    QuotaSweeper
	expirers []namedSweeper
	interval time.Duration
	logger   *zap.Logger
}

func New(sessions SessionSweeper, quota QuotaSweeper, interval time.Duration, logger *zap.Logger) *Job {
	if interval <= 0 {
		interval = defaultInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Job{
		sessions: sessions,
		quota:    quota,
		interval: interval,
		logger:   logger,
	}
}

// AttachExpirySweep adds an in-process store to every pass. name appears in the log line.
func (j *Job) AttachExpirySweep(name string, sweeper ExpirySweeper) {
	if sweeper == nil {
		return
	}
	j.expirers = append(j.expirers, namedSweeper{name: name, sweeper: sweeper})
}

// Run performs one pass. Every sweeper runs even if an earlier one fails.
func (j *Job) Run(ctx context.Context) error {
	var errs []error

	if j.sessions != nil {
		removed, err := j.sessions.SweepIdle(ctx)
		if err != nil {
			errs = append(errs, fmt.Errorf("sweep idle sessions: %w", err))
		} else if removed > 0 {
			j.logger.Info("cleanup idle browsing sessions completed", zap.Int("removed", removed))
		}
	}

	if j.quota != nil {
		removed, err := j.quota.Sweep(ctx)
		if err != nil {
			errs = append(errs, fmt.Errorf("sweep quota counters: %w", err))
		} else if removed > 0 {
			j.logger.Info("cleanup stale quota counters completed", zap.Int("removed", removed))
		}
	}

	for _, e := range j.expirers {
		if removed := e.sweeper.SweepExpired(); removed > 0 {
			j.logger.Debug("cleanup expired entries completed", zap.String("store", e.name), zap.Int("removed", removed))
		}
	}

	return errors.Join(errs...)
}

// Loop runs the job every interval until ctx is done. Failed passes are logged, not fatal.
func (j *Job) Loop(ctx context.Context) error {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := j.Run(ctx); err != nil {
				j.logger.Warn("cleanup pass failed", zap.Error(err))
			}
		}
	}
}
