package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/okian/jury/internal/domain/evaluation"
	"github.com/okian/jury/internal/domain/model"
	"github.com/okian/jury/internal/export"
	"github.com/okian/jury/pkg/logger"
	"github.com/okian/jury/pkg/metrics"
)

// Applications lists a judge's applications for an event with drafts applied.
func (s *Service) Applications(ctx context.Context, eventID, judgeID string, f Filter) ([]ApplicationView, error) {
	if err := f.validate(); err != nil {
		return nil, err
	}
	views, err := s.views(ctx, eventID, judgeID)
	if err != nil {
		return nil, err
	}
	return f.apply(views), nil
}

// Progress returns the dashboard counters for a judge and refreshes the
// matching gauges. The pair is remembered for periodic refreshes.
func (s *Service) Progress(ctx context.Context, eventID, judgeID string) (model.Progress, error) {
	if s.backend == nil {
		return model.Progress{}, ErrBackendNotConfigured
	}
	apps, err := s.backend.ListApplications(ctx, eventID, judgeID)
	if err != nil {
		return model.Progress{}, err
	}
	p := evaluation.Classify(apps)
	metrics.UpdateReviewProgress(eventID, judgeID, p.ReviewProgressPercent, p.Pending, p.Reviewed)
	s.track(eventID, judgeID)
	return p, nil
}

// RefreshProgress recomputes progress for every (event, judge) pair seen so far.
func (s *Service) RefreshProgress(ctx context.Context) error {
	var errs []error
	for _, p := range s.trackedPairs() {
		if _, err := s.Progress(ctx, p.eventID, p.judgeID); err != nil {
			errs = append(errs, fmt.Errorf("%s/%s: %w", p.eventID, p.judgeID, err))
		}
	}
	return errors.Join(errs...)
}

// Export renders the judge's results for an event as CSV.
func (s *Service) Export(ctx context.Context, eventID, judgeID string) ([]byte, error) {
	data, err := s.export(ctx, eventID, judgeID)
	if err != nil {
		metrics.RecordExport("csv", "error")
		return nil, err
	}
	metrics.RecordExport("csv", "success")
	return data, nil
}

// Archive renders the export and uploads it, returning the object key.
func (s *Service) Archive(ctx context.Context, eventID, judgeID string) (string, error) {
	if s.archiver == nil {
		return "", ErrArchiveNotConfigured
	}
	data, err := s.export(ctx, eventID, judgeID)
	if err == nil {
		var key string
		key, err = s.archiver.Archive(ctx, eventID, judgeID, data)
		if err == nil {
			metrics.RecordExport("archive", "success")
			s.log().Info(ctx, "export archived", logger.String("event_id", eventID), logger.String("key", key))
			return key, nil
		}
	}
	metrics.RecordExport("archive", "error")
	return "", err
}

// export renders reviewed applications from their persisted evaluation, so an
// open edit never mixes draft scores with the submitted final score.
func (s *Service) export(ctx context.Context, eventID, judgeID string) ([]byte, error) {
	criteria, apps, drafts, err := s.merged(ctx, eventID, judgeID)
	if err != nil {
		return nil, err
	}
	rows := make([]export.Row, 0, len(apps))
	for _, app := range apps {
		if app.Reviewed() {
			rows = append(rows, export.Row{
				ApplicationID: app.ApplicationID,
				Status:        string(model.StateReviewed),
				FinalScore:    app.FinalScore,
				Scores:        app.PerCriterionScores,
				Comment:       app.JudgeComment,
			})
			continue
		}
		v := buildView(criteria, app, drafts[app.ApplicationID])
		rows = append(rows, export.Row{
			ApplicationID: v.ApplicationID,
			Status:        string(v.State),
			Scores:        v.Scores,
			Comment:       v.Comment,
		})
	}
	return export.CSV(criteria, rows)
}

func (s *Service) views(ctx context.Context, eventID, judgeID string) ([]ApplicationView, error) {
	criteria, apps, drafts, err := s.merged(ctx, eventID, judgeID)
	if err != nil {
		return nil, err
	}
	out := make([]ApplicationView, 0, len(apps))
	for _, app := range apps {
		out = append(out, buildView(criteria, app, drafts[app.ApplicationID]))
	}
	return out, nil
}

// merged loads a judge's applications with their drafts keyed by application id.
func (s *Service) merged(ctx context.Context, eventID, judgeID string) ([]model.Criterion, []model.ApplicationEvaluationState, map[string]*model.Draft, error) {
	criteria, err := s.Criteria(ctx, eventID)
	if err != nil {
		return nil, nil, nil, err
	}
	apps, err := s.backend.ListApplications(ctx, eventID, judgeID)
	if err != nil {
		return nil, nil, nil, err
	}
	drafts, err := s.store.List(ctx, eventID, judgeID)
	if err != nil {
		return nil, nil, nil, err
	}
	byApp := make(map[string]*model.Draft, len(drafts))
	for i := range drafts {
		byApp[drafts[i].ApplicationID] = &drafts[i]
	}

	p := evaluation.Classify(apps)
	metrics.UpdateReviewProgress(eventID, judgeID, p.ReviewProgressPercent, p.Pending, p.Reviewed)
	s.track(eventID, judgeID)
	return criteria, apps, byApp, nil
}
