package service_test

import (
	"context"
	"errors"
	"sync"

	"github.com/okian/jury/internal/adapters/backend"
	"github.com/okian/jury/internal/domain/model"
)

// fakeBackend is an in-memory event platform.
type fakeBackend struct {
	mu            sync.Mutex
	criteria      map[string][]model.Criterion
	apps          map[string]model.ApplicationEvaluationState
	order         []string
	submitted     []model.SubmissionPayload
	submitErr     error
	criteriaCalls int
	// owner restricts an application to one judge; unlisted ones go to everyone.
	owner   map[string]string
	block   chan struct{}
	entered chan struct{}
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		criteria: map[string][]model.Criterion{
			"ev-1": {{Name: "Innovation", Weight: 50}, {Name: "Execution", Weight: 50}},
		},
		apps: map[string]model.ApplicationEvaluationState{},
	}
}

func (f *fakeBackend) addApp(app model.ApplicationEvaluationState) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if app.PerCriterionScores == nil {
		app.PerCriterionScores = model.Scores{}
	}
	f.apps[app.ApplicationID] = app
	f.order = append(f.order, app.ApplicationID)
}

func (f *fakeBackend) ListCriteria(_ context.Context, eventID string) ([]model.Criterion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.criteriaCalls++
	c, ok := f.criteria[eventID]
	if !ok {
		return nil, &backend.StatusError{Op: backend.OpListCriteria, StatusCode: 404}
	}
	return c, nil
}

func (f *fakeBackend) assign(appID, judgeID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.owner == nil {
		f.owner = map[string]string{}
	}
	f.owner[appID] = judgeID
}

func (f *fakeBackend) ListApplications(_ context.Context, _, judgeID string) ([]model.ApplicationEvaluationState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.ApplicationEvaluationState, 0, len(f.order))
	for _, id := range f.order {
		if owner, ok := f.owner[id]; ok && owner != judgeID {
			continue
		}
		app := f.apps[id]
		app.PerCriterionScores = app.PerCriterionScores.Clone()
		out = append(out, app)
	}
	return out, nil
}

func (f *fakeBackend) GetApplication(_ context.Context, id string) (model.ApplicationEvaluationState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	app, ok := f.apps[id]
	if !ok {
		return app, &backend.StatusError{Op: backend.OpGetApplication, StatusCode: 404}
	}
	app.PerCriterionScores = app.PerCriterionScores.Clone()
	return app, nil
}

func (f *fakeBackend) SubmitEvaluation(_ context.Context, p model.SubmissionPayload) error {
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.submitErr != nil {
		return f.submitErr
	}
	f.submitted = append(f.submitted, p)
	app := f.apps[p.ApplicationID]
	score := p.FinalScore
	app.FinalScore = &score
	app.PerCriterionScores = p.EvaluationScores.Clone()
	app.JudgeComment = p.JudgeComment
	f.apps[p.ApplicationID] = app
	return nil
}

func (f *fakeBackend) submissions() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.submitted)
}

type fakeArchiver struct {
	data []byte
	err  error
}

func (a *fakeArchiver) Archive(_ context.Context, eventID, judgeID string, data []byte) (string, error) {
	if a.err != nil {
		return "", a.err
	}
	a.data = data
	return "exports/" + eventID + "/" + judgeID + ".csv", nil
}

var errBackendDown = errors.New("connection refused")

func ptr(f float64) *float64 { return &f }
