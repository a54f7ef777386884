package evalcli

import (
	"io"
	"time"

	"github.com/okian/jury/internal/domain/model"
)

// Config holds what a single evalctl invocation needs.
type Config struct {
	CriteriaFile string        // JSON criteria: bare array or {"criteria": [...]}
	ScoresFile   string        // JSON object of criterion name to score
	BaseURL      string        // when set, probe a running service instead
	EventID      string        // event to probe
	JudgeID      string        // sent as X-Judge-ID when no token is given
	Token        string        // bearer token for the probe
	Timeout      time.Duration // HTTP request timeout
	Out          io.Writer     // where results are printed
}

// Result is the offline scoring answer.
type Result struct {
	FinalScore float64     `json:"finalScore"`
	Ready      bool        `json:"ready"`
	Missing    []string    `json:"missing"`
	State      model.State `json:"state"`
}
