package export

import "errors"

// Sentinel kinds for export errors.
var (
	ErrArchiveDisabled = errors.New("archive storage not configured")
	ErrUpload          = errors.New("archive upload failed")
)
