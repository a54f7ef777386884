package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/okian/jury/internal/evalcli"
	"github.com/okian/jury/pkg/logger"
)

const (
	defaultTimeout = 10 * time.Second
	runTimeout     = time.Minute
)

func main() {
	var (
		criteria = flag.String("criteria", "", "Criteria JSON file")
		scores   = flag.String("scores", "", "Scores JSON file")
		baseURL  = flag.String("url", "", "Base URL of a running service (progress probe)")
		eventID  = flag.String("event", "", "Event id for the progress probe")
		judgeID  = flag.String("judge", "", "Judge id sent as X-Judge-ID")
		token    = flag.String("token", "", "Bearer token for the progress probe")
		timeout  = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		verbose  = flag.Bool("verbose", false, "Enable debug logging")
		help     = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		evalcli.ShowHelp(os.Stdout)
		return
	}

	if err := logger.Init(logger.WithOutput(os.Stderr)); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	if *verbose {
		_ = logger.SetLevelString("debug")
	}

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	cfg := &evalcli.Config{
		CriteriaFile: *criteria,
		ScoresFile:   *scores,
		BaseURL:      *baseURL,
		EventID:      *eventID,
		JudgeID:      *judgeID,
		Token:        *token,
		Timeout:      *timeout,
		Out:          os.Stdout,
	}
	if err := evalcli.Run(ctx, cfg); err != nil {
		os.Stderr.WriteString("evalctl: " + err.Error() + "\n")
		cancel()
		os.Exit(1)
	}
}
