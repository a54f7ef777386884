package service

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/okian/jury/internal/domain/evaluation"
	"github.com/okian/jury/internal/domain/model"
)

// Bucket filters for application listings.
const (
	FilterPending  = "pending"
	FilterReviewed = "reviewed"

	SortByID    = "id"
	SortByScore = "score"
)

// ApplicationView is one application as a judge sees it: persisted state from
// the backend merged with any local draft.
type ApplicationView struct {
	ApplicationID string         `json:"applicationId"`
	State         model.State    `json:"state"`
	FinalScore    *float64       `json:"finalScore"`
	CurrentScore  float64        `json:"currentScore"`
	Ready         bool           `json:"ready"`
	Missing       []string       `json:"missing"`
	Scores        model.Scores   `json:"scores"`
	Comment       string         `json:"comment"`
	Editing       bool           `json:"editing"`
	HasDraft      bool           `json:"hasDraft"`
	DraftUpdated  *time.Time     `json:"draftUpdatedAt,omitempty"`
	Response      map[string]any `json:"response,omitempty"`
}

// Filter narrows and orders an application listing.
type Filter struct {
	// Status is pending, reviewed or one of the model.State values.
	Status string
	// Query matches application ids and comments, case-insensitively.
	Query string
	// Sort is "id" (default) or "score" (current score, highest first).
	Sort string
}

// PreviewResult is the stateless scoring answer for UI previews.
type PreviewResult struct {
	FinalScore float64     `json:"finalScore"`
	Ready      bool        `json:"ready"`
	Missing    []string    `json:"missing"`
	State      model.State `json:"state"`
}

func buildView(criteria []model.Criterion, app model.ApplicationEvaluationState, draft *model.Draft) ApplicationView {
	v := ApplicationView{
		ApplicationID: app.ApplicationID,
		FinalScore:    app.FinalScore,
		Scores:        app.PerCriterionScores.Clone(),
		Comment:       app.JudgeComment,
		Response:      app.Response,
	}
	if draft != nil {
		v.HasDraft = true
		v.Editing = app.FinalScore != nil
		v.Scores = draft.Scores.Clone()
		v.Comment = draft.Comment
		updated := draft.UpdatedAt
		v.DraftUpdated = &updated
	}
	v.State = evaluation.Derive(criteria, v.Scores, v.HasDraft, app.FinalScore)
	v.CurrentScore = evaluation.ComputeWeightedScore(criteria, v.Scores)
	v.Ready = evaluation.IsReadyForSubmission(criteria, v.Scores)
	v.Missing = evaluation.MissingCriteria(criteria, v.Scores)
	if v.Missing == nil {
		v.Missing = []string{}
	}
	return v
}

func (f Filter) validate() error {
	switch f.Status {
	case "", FilterPending, FilterReviewed,
		string(model.StateUnscored), string(model.StatePartiallyScored),
		string(model.StateReadyToSubmit):
	default:
		return fmt.Errorf("%w: unknown status %q", ErrInvalidFilter, f.Status)
	}
	switch f.Sort {
	case "", SortByID, SortByScore:
	default:
		return fmt.Errorf("%w: unknown sort %q", ErrInvalidFilter, f.Sort)
	}
	return nil
}

func (f Filter) match(v ApplicationView) bool {
	switch f.Status {
	case "":
	case FilterPending:
		if v.FinalScore != nil {
			return false
		}
	case FilterReviewed:
		if v.FinalScore == nil {
			return false
		}
	default:
		if string(v.State) != f.Status {
			return false
		}
	}
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		return strings.Contains(strings.ToLower(v.ApplicationID), q) ||
			strings.Contains(strings.ToLower(v.Comment), q)
	}
	return true
}

func (f Filter) apply(views []ApplicationView) []ApplicationView {
	out := make([]ApplicationView, 0, len(views))
	for _, v := range views {
		if f.match(v) {
			out = append(out, v)
		}
	}
	if f.Sort == SortByScore {
		sort.SliceStable(out, func(i, j int) bool {
			if out[i].CurrentScore != out[j].CurrentScore {
				return out[i].CurrentScore > out[j].CurrentScore
			}
			return out[i].ApplicationID < out[j].ApplicationID
		})
	} else {
		sort.SliceStable(out, func(i, j int) bool { return out[i].ApplicationID < out[j].ApplicationID })
	}
	return out
}
