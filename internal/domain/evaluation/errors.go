package evaluation

import "errors"

// Sentinel kinds for evaluation errors.
var (
	ErrScoreOutOfRange  = errors.New("score out of range")
	ErrInvalidCriterion = errors.New("invalid criterion")
	ErrUnknownCriterion = errors.New("unknown criterion")
)
