// Package scheduler runs the periodic review-progress refresh.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/okian/jury/pkg/logger"
	"github.com/okian/jury/pkg/metrics"
)

// Refresher recomputes progress for every known event and judge.
type Refresher interface {
	RefreshProgress(ctx context.Context) error
}

// ProgressScheduler calls a Refresher on a fixed interval. Runs never overlap;
// a slow run pushes the next one back.
type ProgressScheduler struct {
	sched     gocron.Scheduler
	refresher Refresher
	interval  time.Duration
	timeout   time.Duration
	logger    logger.Logger
}

// Option applies a configuration option to the ProgressScheduler.
type Option func(*ProgressScheduler)

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(p *ProgressScheduler) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithTimeout bounds a single refresh run.
func WithTimeout(d time.Duration) Option {
	return func(p *ProgressScheduler) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// New creates a scheduler refreshing every interval.
func New(r Refresher, interval time.Duration, opts ...Option) (*ProgressScheduler, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("scheduler: interval must be positive, got %s", interval)
	}
	p := &ProgressScheduler{
		refresher: r,
		interval:  interval,
		timeout:   30 * time.Second,
		logger:    logger.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}

	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("scheduler: %w", err)
	}
	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(p.run),
		gocron.WithName("progress-refresh"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, fmt.Errorf("scheduler: %w", err)
	}
	p.sched = sched
	return p, nil
}

// Start begins running jobs in the background.
func (p *ProgressScheduler) Start() {
	p.sched.Start()
	p.logger.Info(context.Background(), "progress refresher started", logger.Duration("interval", p.interval))
}

// Stop waits for a running refresh to finish and stops the scheduler.
func (p *ProgressScheduler) Stop() error {
	return p.sched.Shutdown()
}

func (p *ProgressScheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	start := time.Now()
	if err := p.refresher.RefreshProgress(ctx); err != nil {
		metrics.RecordProgressRefresh("error")
		p.logger.Warn(ctx, "progress refresh failed", logger.Error(err), logger.Duration("elapsed", time.Since(start)))
		return
	}
	metrics.RecordProgressRefresh("success")
	p.logger.Debug(ctx, "progress refreshed", logger.Duration("elapsed", time.Since(start)))
}
