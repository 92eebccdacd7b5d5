// Package poller runs background jobs on a fixed cadence while the storefront is up.
package poller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/packfinderz-storefront/pkg/logger"
	"github.com/angelmondragon/packfinderz-storefront/pkg/metrics"
)

const defaultInterval = 30 * time.Second

// ErrSkipped is returned by a job that had nothing to do this tick.
var ErrSkipped = errors.New("poll job skipped")

// ServiceParams configure the poller.
type ServiceParams struct {
	Logger   *logger.Logger
	Registry *Registry
	Metrics  *metrics.PollJobMetrics
	Interval time.Duration
}

// Service executes registered jobs every interval. It does not run them at startup;
// the first tick happens one interval after Run.
type Service struct {
	logg     *logger.Logger
	registry *Registry
	metrics  *metrics.PollJobMetrics
	interval time.Duration
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	registry := params.Registry
	if registry == nil {
		registry = NewRegistry()
	}
	interval := params.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Service{
		logg:     params.Logger,
		registry: registry,
		metrics:  params.Metrics,
		interval: interval,
	}, nil
}

// Run ticks until the context is canceled.
func (s *Service) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "poller stopped")
			return ctx.Err()
		case <-ticker.C:
			s.runCycle(ctx)
		}
	}
}

func (s *Service) runCycle(ctx context.Context) {
	for _, job := range s.registry.Jobs() {
		s.runJob(ctx, job)
	}
}

func (s *Service) runJob(ctx context.Context, job Job) {
	jobCtx := s.logg.WithField(ctx, "job", job.Name())
	start := time.Now()
	err := job.Run(jobCtx)
	duration := time.Since(start)
	switch {
	case errors.Is(err, ErrSkipped):
		s.metrics.IncSkipped(job.Name())
		s.logg.Debug(jobCtx, "poll job skipped")
		return
	case err != nil:
		s.metrics.ObserveDuration(job.Name(), duration)
		s.metrics.IncFailure(job.Name())
		s.logg.Error(s.logg.WithField(jobCtx, "duration_ms", duration.Milliseconds()), "poll job failed", err)
		return
	}
	s.metrics.ObserveDuration(job.Name(), duration)
	s.metrics.IncSuccess(job.Name())
	s.logg.Debug(s.logg.WithField(jobCtx, "duration_ms", duration.Milliseconds()), "poll job completed")
}
