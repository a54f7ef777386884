package service

import (
	"time"

	"github.com/okian/jury/internal/adapters/repository"
	"github.com/okian/jury/internal/domain/evaluation"
	"github.com/okian/jury/internal/domain/inflight"
	"github.com/okian/jury/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithBackend sets the event platform client.
func WithBackend(b Backend) Option {
	return func(s *Service) {
		if b != nil {
			s.backend = b
		}
	}
}

// WithStore sets the draft store. Defaults to an in-memory store.
func WithStore(st repository.Store) Option {
	return func(s *Service) {
		if st != nil {
			s.store = st
		}
	}
}

// WithEngine sets the evaluation engine.
func WithEngine(e *evaluation.Engine) Option {
	return func(s *Service) {
		if e != nil {
			s.engine = e
		}
	}
}

// WithTracker sets the in-flight submission tracker.
func WithTracker(t inflight.Tracker) Option {
	return func(s *Service) {
		if t != nil {
			s.tracker = t
		}
	}
}

// WithCriteriaTTL sets how long criteria are cached per event. Zero disables caching.
func WithCriteriaTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl >= 0 {
			s.criteriaTTL = ttl
		}
	}
}

// WithExporter enables archiving of result exports.
func WithExporter(a Archiver) Option {
	return func(s *Service) {
		s.archiver = a
	}
}

// WithClock sets the time source for draft timestamps and caching.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}
