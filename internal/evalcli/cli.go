package evalcli

import (
	"io"
)

// ShowHelp prints usage information for evalctl.
func ShowHelp(w io.Writer) {
	_, _ = io.WriteString(w, `jury evaluation tool
====================

Scores an evaluation offline, or reads review progress from a running service.

Usage:
  evalctl -criteria criteria.json -scores scores.json
  evalctl -url http://localhost:9080 -event ev-1 -judge judge-1

Options:
  -criteria string
        Criteria JSON file (array, or object with a "criteria" array)
  -scores string
        Scores JSON file, e.g. {"Innovation": 4, "Execution": 3}
  -url string
        Base URL of a running service; switches to progress probe mode
  -event string
        Event id for the progress probe
  -judge string
        Judge id sent as X-Judge-ID (development mode)
  -token string
        Bearer token for the progress probe
  -timeout duration
        HTTP request timeout (default 10s)
  -help
        Show this help message
`)
}
