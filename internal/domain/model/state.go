package model

import "time"

// State is the judge-perspective lifecycle of a single application.
type State string

// Application states.
const (
	StateUnscored        State = "unscored"
	StatePartiallyScored State = "partially_scored"
	StateReadyToSubmit   State = "ready_to_submit"
	StateReviewed        State = "reviewed"
)

// String returns the wire form of the state.
func (s State) String() string { return string(s) }

// DraftKey addresses one judge's local evaluation of one application.
type DraftKey struct {
	EventID       string `json:"eventId"`
	JudgeID       string `json:"judgeId"`
	ApplicationID string `json:"applicationId"`
}

// Draft holds scores and comment a judge has entered but not yet submitted.
type Draft struct {
	DraftKey
	Scores    Scores    `json:"scores"`
	Comment   string    `json:"comment"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Clone returns a copy of d that shares no maps with it.
func (d Draft) Clone() Draft {
	d.Scores = d.Scores.Clone()
	return d
}
