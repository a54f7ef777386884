// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	service "github.com/okian/jury/internal/app"
	"github.com/okian/jury/internal/domain/model"
	"github.com/okian/jury/pkg/logger"
)

// maxBodyBytes bounds request bodies accepted by the API.
const maxBodyBytes = 1 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the service implementation.
type Dependencies interface {
	Criteria(ctx context.Context, eventID string) ([]model.Criterion, error)
	Applications(ctx context.Context, eventID, judgeID string, f service.Filter) ([]service.ApplicationView, error)
	Progress(ctx context.Context, eventID, judgeID string) (model.Progress, error)

	Evaluation(ctx context.Context, key model.DraftKey) (service.ApplicationView, error)
	SetScore(ctx context.Context, key model.DraftKey, criterion string, score int) (service.ApplicationView, error)
	SetComment(ctx context.Context, key model.DraftKey, comment string) (service.ApplicationView, error)
	Edit(ctx context.Context, key model.DraftKey) (service.ApplicationView, error)
	Discard(ctx context.Context, key model.DraftKey) error
	Submit(ctx context.Context, key model.DraftKey) (model.SubmissionPayload, error)

	Export(ctx context.Context, eventID, judgeID string) ([]byte, error)
	Archive(ctx context.Context, eventID, judgeID string) (string, error)

	Preview(criteria []model.Criterion, scores model.Scores) (service.PreviewResult, error)
}

// Option configures a Server.
type Option func(*Server)

// WithAuthenticator sets how callers are identified. Defaults to header
// identity (no secret).
func WithAuthenticator(a *Authenticator) Option {
	return func(s *Server) {
		if a != nil {
			s.auth = a
		}
	}
}

// WithLogger sets the logger used for server-side failures.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// Server wires HTTP routes for the business API.
type Server struct {
	auth *Authenticator
	log  logger.Logger

	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	scoreHandler       *ScoreHandler
	evaluationsHandler *EvaluationsHandler
	exportsHandler     *ExportsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{
		auth: NewAuthenticator(""),
		log:  logger.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.healthHandler = NewHealthHandler()
	s.statsHandler = NewStatsHandler(statsProvider)
	s.scoreHandler = NewScoreHandler(deps)
	s.evaluationsHandler = NewEvaluationsHandler(deps, s.log)
	s.exportsHandler = NewExportsHandler(deps)
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.Handle("GET /metrics", s.healthHandler.MetricsHandler())
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("POST /score", MetricsMiddleware(s.scoreHandler.HandlePreview, "score"))

	ev := s.evaluationsHandler
	s.secure(mux, "GET /events/{eventID}/criteria", "criteria", ev.HandleCriteria)
	s.secure(mux, "GET /events/{eventID}/applications", "applications", ev.HandleApplications)
	s.secure(mux, "GET /events/{eventID}/progress", "progress", ev.HandleProgress)
	s.secure(mux, "GET /events/{eventID}/applications/{applicationID}", "evaluation", ev.HandleEvaluation)
	s.secure(mux, "PUT /events/{eventID}/applications/{applicationID}/scores/{criterion}", "score_criterion", ev.HandleSetScore)
	s.secure(mux, "PUT /events/{eventID}/applications/{applicationID}/comment", "comment", ev.HandleSetComment)
	s.secure(mux, "POST /events/{eventID}/applications/{applicationID}/edit", "edit", ev.HandleEdit)
	s.secure(mux, "DELETE /events/{eventID}/applications/{applicationID}/draft", "discard", ev.HandleDiscard)
	s.secure(mux, "POST /events/{eventID}/applications/{applicationID}/submit", "submit", ev.HandleSubmit)

	s.secure(mux, "GET /events/{eventID}/export.csv", "export", s.exportsHandler.HandleCSV)
	s.secure(mux, "POST /events/{eventID}/exports", "archive", s.exportsHandler.HandleArchive)
}

func (s *Server) secure(mux *http.ServeMux, pattern, endpoint string, h http.HandlerFunc) {
	mux.HandleFunc(pattern, MetricsMiddleware(s.auth.Middleware(h), endpoint))
}

type errorResponse struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Missing []string `json:"missing,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg, Missing: missingOf(err)})
}

// writeErr picks the status for err and writes it.
func writeErr(w http.ResponseWriter, err error) {
	status, code := classify(err)
	writeError(w, status, code, err)
}

// decodeJSON reads a single JSON document from r into v.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("empty request body")
		}
		return fmt.Errorf("invalid json: %w", err)
	}
	return nil
}
