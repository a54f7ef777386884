package service

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"time"

	"github.com/okian/jury/internal/domain/evaluation"
	"github.com/okian/jury/internal/domain/inflight"
	"github.com/okian/jury/internal/domain/model"
	"github.com/okian/jury/pkg/logger"
	"github.com/okian/jury/pkg/metrics"
)

// Evaluation returns the judge's current view of one application.
func (s *Service) Evaluation(ctx context.Context, key model.DraftKey) (ApplicationView, error) {
	criteria, app, draft, err := s.load(ctx, key)
	if err != nil {
		return ApplicationView{}, err
	}
	return buildView(criteria, app, draft), nil
}

// SetScore records one criterion score in the judge's draft. The first change
// to an application seeds the draft from its persisted evaluation, which puts
// reviewed applications into edit mode.
func (s *Service) SetScore(ctx context.Context, key model.DraftKey, criterion string, score int) (ApplicationView, error) {
	if err := evaluation.ValidateScore(score); err != nil {
		metrics.RecordValidationFailure("score_out_of_range")
		return ApplicationView{}, err
	}
	unlock := s.drafts.lock(key)
	defer unlock()

	criteria, app, draft, err := s.load(ctx, key)
	if err != nil {
		return ApplicationView{}, err
	}
	if !evaluation.HasCriterion(criteria, criterion) {
		metrics.RecordValidationFailure("unknown_criterion")
		return ApplicationView{}, fmt.Errorf("%w: %q", evaluation.ErrUnknownCriterion, criterion)
	}

	d := seedDraft(key, app, draft)
	d.Scores[criterion] = score
	if err := s.saveDraft(ctx, &d); err != nil {
		return ApplicationView{}, err
	}
	return buildView(criteria, app, &d), nil
}

// SetComment replaces the judge's comment in the draft.
func (s *Service) SetComment(ctx context.Context, key model.DraftKey, comment string) (ApplicationView, error) {
	unlock := s.drafts.lock(key)
	defer unlock()

	criteria, app, draft, err := s.load(ctx, key)
	if err != nil {
		return ApplicationView{}, err
	}
	d := seedDraft(key, app, draft)
	d.Comment = comment
	if err := s.saveDraft(ctx, &d); err != nil {
		return ApplicationView{}, err
	}
	return buildView(criteria, app, &d), nil
}

// Edit opens a draft without changing anything, e.g. to revise a reviewed
// application. It is a no-op when a draft exists.
func (s *Service) Edit(ctx context.Context, key model.DraftKey) (ApplicationView, error) {
	unlock := s.drafts.lock(key)
	defer unlock()

	criteria, app, draft, err := s.load(ctx, key)
	if err != nil {
		return ApplicationView{}, err
	}
	if draft != nil {
		return buildView(criteria, app, draft), nil
	}
	d := seedDraft(key, app, nil)
	if err := s.saveDraft(ctx, &d); err != nil {
		return ApplicationView{}, err
	}
	return buildView(criteria, app, &d), nil
}

// Discard drops the draft so the application shows its persisted state again.
func (s *Service) Discard(ctx context.Context, key model.DraftKey) error {
	if err := validateKey(key); err != nil {
		return err
	}
	unlock := s.drafts.lock(key)
	defer unlock()

	if err := s.store.Delete(ctx, key); err != nil {
		return err
	}
	metrics.RecordDraftDiscarded()
	metrics.UpdateDraftsActive(s.store.Count(ctx))
	return nil
}

// Submit computes the final score and hands the evaluation to the backend.
//
// Incomplete evaluations fail with a *ValidationError and nothing is sent. A
// second submit of the same application while one is running fails with
// ErrSubmissionInFlight, and ErrTooManySubmissions is returned when the
// in-flight limit is reached. When the backend rejects the submission the
// draft is kept, so the judge can retry without re-entering scores. Edits made
// while the backend call runs survive as a new draft.
func (s *Service) Submit(ctx context.Context, key model.DraftKey) (model.SubmissionPayload, error) {
	start := time.Now()
	if err := validateKey(key); err != nil {
		return model.SubmissionPayload{}, err
	}
	if err := s.tracker.Acquire(ctx, key.ApplicationID); err != nil {
		if errors.Is(err, inflight.ErrFull) {
			metrics.RecordSubmission("busy")
			s.log().Warn(ctx, "in-flight submission limit reached",
				logger.String("application_id", key.ApplicationID),
				logger.Int64("inflight", s.tracker.Size()))
			return model.SubmissionPayload{}, ErrTooManySubmissions
		}
		metrics.RecordSubmission("in_flight")
		return model.SubmissionPayload{}, ErrSubmissionInFlight
	}
	metrics.UpdateInflightSubmissions(s.tracker.Size())
	defer func() {
		s.tracker.Release(ctx, key.ApplicationID)
		metrics.UpdateInflightSubmissions(s.tracker.Size())
	}()

	d, criteria, stored, err := s.snapshot(ctx, key)
	if err != nil {
		return model.SubmissionPayload{}, err
	}

	if missing := evaluation.MissingCriteria(criteria, d.Scores); len(missing) > 0 {
		metrics.RecordSubmission("not_ready")
		metrics.RecordValidationFailure("not_ready")
		return model.SubmissionPayload{}, &ValidationError{Missing: missing}
	}

	payload := s.engine.BuildSubmissionPayload(key.ApplicationID, key.JudgeID, criteria, d.Scores, d.Comment)
	if err := s.backend.SubmitEvaluation(ctx, payload); err != nil {
		metrics.RecordSubmission("failed")
		s.log().Error(ctx, "submission failed",
			logger.String("event_id", key.EventID),
			logger.String("application_id", key.ApplicationID),
			logger.Error(err))
		if !stored {
			s.keepDraft(ctx, d)
		}
		return model.SubmissionPayload{}, fmt.Errorf("%w: %w", ErrSubmissionFailed, err)
	}

	s.clearDraft(ctx, d)
	metrics.RecordSubmission("success")
	metrics.RecordSubmissionLatency(float64(time.Since(start).Microseconds()) / 1000)
	s.log().Info(ctx, "evaluation submitted",
		logger.String("event_id", key.EventID),
		logger.String("judge_id", key.JudgeID),
		logger.String("application_id", key.ApplicationID),
		logger.Float64("final_score", payload.FinalScore))
	return payload, nil
}

// snapshot reads what is about to be submitted. stored reports whether the
// draft came from the store rather than the persisted evaluation.
func (s *Service) snapshot(ctx context.Context, key model.DraftKey) (model.Draft, []model.Criterion, bool, error) {
	unlock := s.drafts.lock(key)
	defer unlock()

	criteria, app, draft, err := s.load(ctx, key)
	if err != nil {
		return model.Draft{}, nil, false, err
	}
	return seedDraft(key, app, draft), criteria, draft != nil, nil
}

// keepDraft stores d after a failed submission unless the judge saved one
// in the meantime.
func (s *Service) keepDraft(ctx context.Context, d model.Draft) {
	unlock := s.drafts.lock(d.DraftKey)
	defer unlock()

	cur, err := s.loadDraft(ctx, d.DraftKey)
	if err == nil && cur != nil {
		return
	}
	if err := s.saveDraft(ctx, &d); err != nil {
		s.log().Error(ctx, "preserving draft after failed submission", logger.Error(err))
	}
}

// clearDraft deletes the submitted draft. A draft changed since the snapshot
// holds newer edits and is left alone.
func (s *Service) clearDraft(ctx context.Context, submitted model.Draft) {
	unlock := s.drafts.lock(submitted.DraftKey)
	defer unlock()

	cur, err := s.loadDraft(ctx, submitted.DraftKey)
	switch {
	case err != nil:
		s.log().Warn(ctx, "reading submitted draft", logger.Error(err))
		return
	case cur == nil:
		return
	case !sameContent(*cur, submitted):
		s.log().Debug(ctx, "draft edited during submission; keeping it",
			logger.String("application_id", submitted.ApplicationID))
		return
	}
	if err := s.store.Delete(ctx, submitted.DraftKey); err != nil {
		s.log().Warn(ctx, "deleting submitted draft", logger.Error(err))
	}
	metrics.UpdateDraftsActive(s.store.Count(ctx))
}

func sameContent(a, b model.Draft) bool {
	return a.Comment == b.Comment && maps.Equal(a.Scores, b.Scores)
}

// load reads everything an operation on one application needs. Applications
// not listed for the judge in the event are refused with ErrNotAssigned.
func (s *Service) load(ctx context.Context, key model.DraftKey) ([]model.Criterion, model.ApplicationEvaluationState, *model.Draft, error) {
	var app model.ApplicationEvaluationState
	if err := validateKey(key); err != nil {
		return nil, app, nil, err
	}
	criteria, err := s.Criteria(ctx, key.EventID)
	if err != nil {
		return nil, app, nil, err
	}
	if err := s.checkAssigned(ctx, key); err != nil {
		return nil, app, nil, err
	}
	app, err = s.backend.GetApplication(ctx, key.ApplicationID)
	if err != nil {
		return nil, app, nil, err
	}
	draft, err := s.loadDraft(ctx, key)
	if err != nil {
		return nil, app, nil, err
	}
	return criteria, app, draft, nil
}

func (s *Service) checkAssigned(ctx context.Context, key model.DraftKey) error {
	apps, err := s.backend.ListApplications(ctx, key.EventID, key.JudgeID)
	if err != nil {
		return err
	}
	for _, a := range apps {
		if a.ApplicationID == key.ApplicationID {
			return nil
		}
	}
	metrics.RecordValidationFailure("not_assigned")
	s.log().Warn(ctx, "application not assigned to judge",
		logger.String("event_id", key.EventID),
		logger.String("judge_id", key.JudgeID),
		logger.String("application_id", key.ApplicationID))
	return fmt.Errorf("%w: %s", ErrNotAssigned, key.ApplicationID)
}

// seedDraft returns a copy of draft, or a new draft holding app's persisted
// scores and comment.
func seedDraft(key model.DraftKey, app model.ApplicationEvaluationState, draft *model.Draft) model.Draft {
	if draft != nil {
		return draft.Clone()
	}
	return model.Draft{
		DraftKey: key,
		Scores:   app.PerCriterionScores.Clone(),
		Comment:  app.JudgeComment,
	}
}

func (s *Service) saveDraft(ctx context.Context, d *model.Draft) error {
	d.UpdatedAt = s.now().UTC()
	if err := s.store.Save(ctx, *d); err != nil {
		return err
	}
	metrics.RecordDraftSaved()
	metrics.UpdateDraftsActive(s.store.Count(ctx))
	return nil
}
