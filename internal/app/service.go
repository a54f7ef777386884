// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/okian/jury/internal/adapters/repository"
	"github.com/okian/jury/internal/domain/evaluation"
	"github.com/okian/jury/internal/domain/inflight"
	"github.com/okian/jury/internal/domain/model"
	"github.com/okian/jury/pkg/logger"
	"github.com/okian/jury/pkg/metrics"
)

// Backend is the event platform API the service reads from and submits to.
type Backend interface {
	ListCriteria(ctx context.Context, eventID string) ([]model.Criterion, error)
	ListApplications(ctx context.Context, eventID, judgeID string) ([]model.ApplicationEvaluationState, error)
	GetApplication(ctx context.Context, applicationID string) (model.ApplicationEvaluationState, error)
	SubmitEvaluation(ctx context.Context, payload model.SubmissionPayload) error
}

// Archiver stores rendered exports and returns where they went.
type Archiver interface {
	Archive(ctx context.Context, eventID, judgeID string, data []byte) (string, error)
}

type cachedCriteria struct {
	list    []model.Criterion
	fetched time.Time
}

type pair struct {
	eventID string
	judgeID string
}

// Service implements the API dependencies for judge evaluations.
type Service struct {
	mu sync.RWMutex

	// Core components
	backend  Backend
	store    repository.Store
	engine   *evaluation.Engine
	tracker  inflight.Tracker
	archiver Archiver

	// Configuration
	criteriaTTL time.Duration
	now         func() time.Time

	// State
	criteria  map[string]cachedCriteria
	pairs     map[pair]struct{}
	drafts    draftLocks
	started   bool
	startedAt time.Time

	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		store:       repository.NewMemoryStore(),
		engine:      evaluation.New(),
		tracker:     inflight.NewTracker(),
		criteriaTTL: 5 * time.Minute,
		now:         time.Now,
		criteria:    make(map[string]cachedCriteria),
		pairs:       make(map[pair]struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start checks the service wiring and marks it ready.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	if s.backend == nil {
		return ErrBackendNotConfigured
	}

	s.started = true
	s.startedAt = s.now()
	metrics.UpdateDraftsActive(s.store.Count(ctx))
	s.logger.Info(ctx, "evaluation service started",
		logger.Duration("criteriaTTL", s.criteriaTTL),
		logger.Bool("archive", s.archiver != nil),
		logger.Int("drafts", s.store.Count(ctx)),
	)
	return nil
}

// Stop closes the draft store.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	if err := s.store.Close(); err != nil {
		s.logger.Warn(context.Background(), "closing draft store", logger.Error(err))
	}
	s.started = false
	s.logger.Info(context.Background(), "evaluation service stopped")
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":         s.started,
		"criteriaTTL":     s.criteriaTTL.String(),
		"cachedEvents":    len(s.criteria),
		"trackedJudges":   len(s.pairs),
		"archiveEnabled":  s.archiver != nil,
		"inflightSubmits": s.tracker.Size(),
		"lockedDrafts":    s.drafts.size(),
		"drafts":          s.store.Count(ctx),
	}
	if s.started {
		stats["uptime"] = s.now().Sub(s.startedAt).Round(time.Second).String()
	}
	return stats
}

// Criteria returns an event's normalized criteria, cached for the configured TTL.
func (s *Service) Criteria(ctx context.Context, eventID string) ([]model.Criterion, error) {
	if s.backend == nil {
		return nil, ErrBackendNotConfigured
	}
	s.mu.RLock()
	c, ok := s.criteria[eventID]
	s.mu.RUnlock()
	if ok && s.criteriaTTL > 0 && s.now().Sub(c.fetched) < s.criteriaTTL {
		metrics.RecordCriteriaCache("hit")
		return c.list, nil
	}
	metrics.RecordCriteriaCache("miss")

	raw, err := s.backend.ListCriteria(ctx, eventID)
	if err != nil {
		return nil, err
	}
	list, err := evaluation.NormalizeCriteria(raw)
	if err != nil {
		s.log().Error(ctx, "event has invalid criteria", logger.String("event_id", eventID), logger.Error(err))
		return nil, err
	}

	s.mu.Lock()
	s.criteria[eventID] = cachedCriteria{list: list, fetched: s.now()}
	s.mu.Unlock()
	return list, nil
}

// InvalidateCriteria drops the cached criteria of an event.
func (s *Service) InvalidateCriteria(eventID string) {
	s.mu.Lock()
	delete(s.criteria, eventID)
	s.mu.Unlock()
}

// Preview scores criteria and scores without touching any state.
func (s *Service) Preview(criteria []model.Criterion, scores model.Scores) (PreviewResult, error) {
	list, err := evaluation.NormalizeCriteria(criteria)
	if err != nil {
		return PreviewResult{}, err
	}
	for name, v := range scores {
		if err := evaluation.ValidateScore(v); err != nil {
			return PreviewResult{}, fmt.Errorf("%s: %w", name, err)
		}
	}
	missing := evaluation.MissingCriteria(list, scores)
	if missing == nil {
		missing = []string{}
	}
	return PreviewResult{
		FinalScore: evaluation.ComputeWeightedScore(list, scores),
		Ready:      evaluation.IsReadyForSubmission(list, scores),
		Missing:    missing,
		State:      evaluation.Derive(list, scores, true, nil),
	}, nil
}

func (s *Service) track(eventID, judgeID string) {
	s.mu.Lock()
	s.pairs[pair{eventID: eventID, judgeID: judgeID}] = struct{}{}
	s.mu.Unlock()
}

func (s *Service) trackedPairs() []pair {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]pair, 0, len(s.pairs))
	for p := range s.pairs {
		out = append(out, p)
	}
	return out
}

// log returns the service logger, falling back to a no-op before Start.
func (s *Service) log() logger.Logger {
	if s.logger == nil {
		return logger.NewNop()
	}
	return s.logger
}

func validateKey(key model.DraftKey) error {
	if key.EventID == "" || key.JudgeID == "" || key.ApplicationID == "" {
		return ErrInvalidKey
	}
	return nil
}

func (s *Service) loadDraft(ctx context.Context, key model.DraftKey) (*model.Draft, error) {
	d, err := s.store.Get(ctx, key)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}
