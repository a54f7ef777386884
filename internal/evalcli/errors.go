package evalcli

import "errors"

// Sentinel kinds for evalctl errors.
var (
	ErrUsage = errors.New("usage")
	ErrProbe = errors.New("progress probe failed")
)
