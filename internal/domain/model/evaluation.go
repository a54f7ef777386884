// Package model contains domain models passed between layers.
package model

import "time"

// Score bounds for a single criterion.
const (
	MinScore = 0
	MaxScore = 5
)

// Criterion is a named, weighted axis of judge evaluation.
// Criteria are defined by the organizer and read-only for judges.
type Criterion struct {
	Name        string  `json:"name"`                  // unique within an event
	Weight      float64 `json:"weight"`                // non-negative; need not sum to 100
	Description *string `json:"description,omitempty"` // optional help text
}

// Scores maps criterion name to an integer score in [MinScore, MaxScore].
// A missing key means the criterion has not been touched yet.
type Scores map[string]int

// Clone returns an independent copy of s. A nil map clones to an empty one.
func (s Scores) Clone() Scores {
	out := make(Scores, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// ApplicationEvaluationState is the judge-side view of one application.
type ApplicationEvaluationState struct {
	ApplicationID      string         `json:"applicationId"`
	FinalScore         *float64       `json:"finalScore"` // nil until a submission is recorded
	JudgeComment       string         `json:"judgeComment"`
	PerCriterionScores Scores         `json:"evaluationScores"`
	Response           map[string]any `json:"response,omitempty"` // applicant's form answers, passed through
}

// Reviewed reports whether a submission has been recorded for the application.
func (a ApplicationEvaluationState) Reviewed() bool {
	return a.FinalScore != nil
}

// CriterionScore is one line of the per-criterion breakdown in a submission.
type CriterionScore struct {
	Name   string  `json:"name"`
	Score  int     `json:"score"`
	Weight float64 `json:"weight"`
}

// SubmissionPayload is the record handed to the backend when a judge submits.
type SubmissionPayload struct {
	ApplicationID    string           `json:"applicationId"`
	JudgeID          string           `json:"judgeId"`
	EvaluationScores Scores           `json:"evaluationScores"`
	JudgeComment     string           `json:"judgeComment"`
	FinalScore       float64          `json:"finalScore"`
	ReviewDate       time.Time        `json:"reviewDate"`
	CriteriaScores   []CriterionScore `json:"criteriaScores"`
}

// Progress summarizes review counters for a dashboard.
type Progress struct {
	Total                 int `json:"total"`
	Pending               int `json:"pending"`
	Reviewed              int `json:"reviewed"`
	ReviewProgressPercent int `json:"reviewProgressPercent"`
}
