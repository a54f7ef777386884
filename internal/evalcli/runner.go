// Package evalcli implements the evalctl command: offline scoring of a
// criteria/scores pair and a progress probe against a running service.
package evalcli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"

	"github.com/okian/jury/internal/domain/evaluation"
	"github.com/okian/jury/internal/domain/model"
	"github.com/okian/jury/pkg/logger"
)

// Run executes one evalctl invocation.
func Run(ctx context.Context, cfg *Config) error {
	if cfg.BaseURL != "" {
		return probe(ctx, cfg)
	}
	if cfg.CriteriaFile == "" || cfg.ScoresFile == "" {
		return fmt.Errorf("%w: -criteria and -scores are required without -url", ErrUsage)
	}
	res, err := Score(cfg.CriteriaFile, cfg.ScoresFile)
	if err != nil {
		return err
	}
	return printJSON(cfg, res)
}

// Score reads both files and evaluates them.
func Score(criteriaFile, scoresFile string) (Result, error) {
	criteria, err := readCriteria(criteriaFile)
	if err != nil {
		return Result{}, err
	}
	scores, err := readScores(scoresFile)
	if err != nil {
		return Result{}, err
	}
	criteria, err = evaluation.NormalizeCriteria(criteria)
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", criteriaFile, err)
	}
	for name, v := range scores {
		if err := evaluation.ValidateScore(v); err != nil {
			return Result{}, fmt.Errorf("%s: %s: %w", scoresFile, name, err)
		}
	}
	missing := evaluation.MissingCriteria(criteria, scores)
	if missing == nil {
		missing = []string{}
	}
	return Result{
		FinalScore: evaluation.ComputeWeightedScore(criteria, scores),
		Ready:      evaluation.IsReadyForSubmission(criteria, scores),
		Missing:    missing,
		State:      evaluation.Derive(criteria, scores, true, nil),
	}, nil
}

func readCriteria(path string) ([]model.Criterion, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read criteria: %w", err)
	}
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%s: invalid json", path)
	}
	raw := gjson.ParseBytes(data)
	if raw.IsObject() {
		raw = raw.Get("criteria")
	}
	if !raw.IsArray() {
		return nil, fmt.Errorf("%s: expected a criteria array", path)
	}
	var out []model.Criterion
	if err := json.Unmarshal([]byte(raw.Raw), &out); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return out, nil
}

func readScores(path string) (model.Scores, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scores: %w", err)
	}
	var out model.Scores
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return out, nil
}

// probe fetches review progress for one judge from a running service.
func probe(ctx context.Context, cfg *Config) error {
	if cfg.EventID == "" {
		return fmt.Errorf("%w: -event is required with -url", ErrUsage)
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout)
	req := client.R().
		SetContext(ctx).
		SetPathParam("eventID", cfg.EventID)
	switch {
	case cfg.Token != "":
		req.SetAuthToken(cfg.Token)
	case cfg.JudgeID != "":
		req.SetHeader("X-Judge-ID", cfg.JudgeID)
	}
	resp, err := req.Get("/events/{eventID}/progress")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrProbe, err)
	}
	if resp.IsError() {
		return fmt.Errorf("%w: %s: %s", ErrProbe, resp.Status(), strings.TrimSpace(resp.String()))
	}
	var p model.Progress
	if err := json.Unmarshal(resp.Body(), &p); err != nil {
		return fmt.Errorf("%w: %w", ErrProbe, err)
	}
	logger.Get().Debug(ctx, "progress probed",
		logger.String("event_id", cfg.EventID),
		logger.Int("reviewed", p.Reviewed),
		logger.Int("total", p.Total))
	return printJSON(cfg, p)
}

func printJSON(cfg *Config, v any) error {
	enc := json.NewEncoder(cfg.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
