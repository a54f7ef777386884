// Package evaluation turns a judge's per-criterion scores into a weighted final
// score, gates submission on completeness and buckets applications for progress
// reporting.
package evaluation

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/okian/jury/internal/domain/model"
)

// Rounding configuration.
const (
	scorePrecision   = 100 // two decimal places
	percentMultipler = 100
)

// Engine builds submission payloads. The zero value is not usable; use New.
type Engine struct {
	now func() time.Time
}

// New creates an Engine with configuration options.
func New(opts ...Option) *Engine {
	e := &Engine{
		now: time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ComputeWeightedScore returns Σ(score×weight)/Σ(weight) rounded to two decimals.
// Missing scores count as 0 and scores are clamped to [0,5], so the result is
// always within [0,5]. A zero total weight yields 0.
func ComputeWeightedScore(criteria []model.Criterion, scores model.Scores) float64 {
	var totalWeighted, totalWeight float64
	for _, c := range criteria {
		w := math.Max(0, c.Weight)
		totalWeighted += float64(clamp(scores[c.Name])) * w
		totalWeight += w
	}
	if totalWeight <= 0 {
		return 0
	}
	return round2(totalWeighted / totalWeight)
}

// IsReadyForSubmission reports whether every criterion has a score above zero.
// An explicit 0 counts as unscored.
func IsReadyForSubmission(criteria []model.Criterion, scores model.Scores) bool {
	for _, c := range criteria {
		if v, ok := scores[c.Name]; !ok || v <= 0 {
			return false
		}
	}
	return true
}

// MissingCriteria lists, in criteria order, the criteria that block submission.
func MissingCriteria(criteria []model.Criterion, scores model.Scores) []string {
	var missing []string
	for _, c := range criteria {
		if v, ok := scores[c.Name]; !ok || v <= 0 {
			missing = append(missing, c.Name)
		}
	}
	return missing
}

// BuildSubmissionPayload assembles the record sent to the backend on submit.
// Callers must check IsReadyForSubmission first.
func (e *Engine) BuildSubmissionPayload(applicationID, judgeID string, criteria []model.Criterion, scores model.Scores, comment string) model.SubmissionPayload {
	breakdown := make([]model.CriterionScore, 0, len(criteria))
	for _, c := range criteria {
		breakdown = append(breakdown, model.CriterionScore{
			Name:   c.Name,
			Score:  scores[c.Name],
			Weight: c.Weight,
		})
	}
	return model.SubmissionPayload{
		ApplicationID:    applicationID,
		JudgeID:          judgeID,
		EvaluationScores: scores.Clone(),
		JudgeComment:     comment,
		FinalScore:       ComputeWeightedScore(criteria, scores),
		ReviewDate:       e.now().UTC(),
		CriteriaScores:   breakdown,
	}
}

// Classify counts pending and reviewed applications for dashboard counters.
func Classify(apps []model.ApplicationEvaluationState) model.Progress {
	p := model.Progress{Total: len(apps)}
	for _, a := range apps {
		if a.Reviewed() {
			p.Reviewed++
		} else {
			p.Pending++
		}
	}
	if p.Total > 0 {
		p.ReviewProgressPercent = int(math.Round(float64(p.Reviewed) / float64(p.Total) * percentMultipler))
	}
	return p
}

// Derive places an application in the judge-side state machine.
//
// Without a local draft a recorded final score means Reviewed. With a draft the
// application is being edited and its state follows the draft scores, even when a
// persisted final score exists.
func Derive(criteria []model.Criterion, scores model.Scores, hasDraft bool, finalScore *float64) model.State {
	if !hasDraft && finalScore != nil {
		return model.StateReviewed
	}
	touched := 0
	for _, c := range criteria {
		if _, ok := scores[c.Name]; ok {
			touched++
		}
	}
	switch {
	case len(criteria) > 0 && touched == 0:
		return model.StateUnscored
	case IsReadyForSubmission(criteria, scores):
		return model.StateReadyToSubmit
	default:
		return model.StatePartiallyScored
	}
}

// ValidateScore checks that score is an allowed criterion score.
func ValidateScore(score int) error {
	if score < model.MinScore || score > model.MaxScore {
		return fmt.Errorf("%w: %d not in [%d,%d]", ErrScoreOutOfRange, score, model.MinScore, model.MaxScore)
	}
	return nil
}

// NormalizeCriteria trims names and rejects empty, duplicate or negatively
// weighted criteria. Order is preserved.
func NormalizeCriteria(criteria []model.Criterion) ([]model.Criterion, error) {
	out := make([]model.Criterion, 0, len(criteria))
	seen := make(map[string]struct{}, len(criteria))
	for i, c := range criteria {
		c.Name = strings.TrimSpace(c.Name)
		switch {
		case c.Name == "":
			return nil, fmt.Errorf("%w: criterion %d has no name", ErrInvalidCriterion, i)
		case c.Weight < 0 || math.IsNaN(c.Weight) || math.IsInf(c.Weight, 0):
			return nil, fmt.Errorf("%w: %q has weight %v", ErrInvalidCriterion, c.Name, c.Weight)
		}
		if _, dup := seen[c.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate name %q", ErrInvalidCriterion, c.Name)
		}
		seen[c.Name] = struct{}{}
		out = append(out, c)
	}
	return out, nil
}

// HasCriterion reports whether name belongs to criteria.
func HasCriterion(criteria []model.Criterion, name string) bool {
	for _, c := range criteria {
		if c.Name == name {
			return true
		}
	}
	return false
}

func clamp(v int) int {
	switch {
	case v < model.MinScore:
		return model.MinScore
	case v > model.MaxScore:
		return model.MaxScore
	default:
		return v
	}
}

// round2 rounds half away from zero to two decimals.
func round2(v float64) float64 {
	return math.Round(v*scorePrecision) / scorePrecision
}
