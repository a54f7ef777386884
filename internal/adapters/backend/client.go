// Package backend is the REST client for the event platform API that owns
// criteria, applications and persisted evaluations.
package backend

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"github.com/okian/jury/internal/domain/model"
	"github.com/okian/jury/pkg/logger"
	"github.com/okian/jury/pkg/metrics"
)

// Operation names used in errors, logs and metrics.
const (
	OpListCriteria     = "list_criteria"
	OpListApplications = "list_applications"
	OpGetApplication   = "get_application"
	OpSubmitEvaluation = "submit_evaluation"
)

const (
	headerRequestID = "X-Request-ID"
	maxErrorBody    = 512
)

// Client talks to the backend over HTTP.
type Client struct {
	http         *resty.Client
	baseURL      string
	token        string
	timeout      time.Duration
	retries      int
	retryWait    time.Duration
	retryMaxWait time.Duration
	logger       logger.Logger
}

// New creates a Client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:      baseURL,
		timeout:      10 * time.Second,
		retries:      2,
		retryWait:    100 * time.Millisecond,
		retryMaxWait: 2 * time.Second,
		logger:       logger.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.http = resty.New().
		SetBaseURL(c.baseURL).
		SetTimeout(c.timeout).
		SetRetryCount(c.retries).
		SetRetryWaitTime(c.retryWait).
		SetRetryMaxWaitTime(c.retryMaxWait).
		SetHeader("Accept", "application/json").
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= http.StatusInternalServerError
		})
	if c.token != "" {
		c.http.SetAuthToken(c.token)
	}
	return c
}

// ListCriteria fetches the weighted criteria of an event.
func (c *Client) ListCriteria(ctx context.Context, eventID string) ([]model.Criterion, error) {
	resp, err := c.do(ctx, OpListCriteria, func(r *resty.Request) (*resty.Response, error) {
		return r.SetPathParam("eventId", eventID).Get("/events/{eventId}/criteria")
	})
	if err != nil {
		return nil, err
	}
	out, err := decodeCriteria(resp.Body())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", OpListCriteria, err)
	}
	return out, nil
}

// ListApplications fetches the applications assigned to a judge with their
// persisted evaluation state.
func (c *Client) ListApplications(ctx context.Context, eventID, judgeID string) ([]model.ApplicationEvaluationState, error) {
	resp, err := c.do(ctx, OpListApplications, func(r *resty.Request) (*resty.Response, error) {
		return r.SetPathParams(map[string]string{
			"eventId": eventID,
			"judgeId": judgeID,
		}).Get("/events/{eventId}/judges/{judgeId}/applications")
	})
	if err != nil {
		return nil, err
	}
	out, err := decodeApplications(resp.Body())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", OpListApplications, err)
	}
	return out, nil
}

// GetApplication fetches one application.
func (c *Client) GetApplication(ctx context.Context, applicationID string) (model.ApplicationEvaluationState, error) {
	resp, err := c.do(ctx, OpGetApplication, func(r *resty.Request) (*resty.Response, error) {
		return r.SetPathParam("applicationId", applicationID).Get("/applications/{applicationId}")
	})
	if err != nil {
		return model.ApplicationEvaluationState{}, err
	}
	out, err := decodeSingleApplication(resp.Body())
	if err != nil {
		return out, fmt.Errorf("%s: %w", OpGetApplication, err)
	}
	return out, nil
}

// SubmitEvaluation persists a finished evaluation.
func (c *Client) SubmitEvaluation(ctx context.Context, payload model.SubmissionPayload) error {
	_, err := c.do(ctx, OpSubmitEvaluation, func(r *resty.Request) (*resty.Response, error) {
		return r.SetPathParam("applicationId", payload.ApplicationID).
			SetHeader("Content-Type", "application/json").
			SetBody(payload).
			Put("/applications/{applicationId}")
	})
	return err
}

func (c *Client) do(ctx context.Context, op string, send func(*resty.Request) (*resty.Response, error)) (*resty.Response, error) {
	reqID := middleware.GetReqID(ctx)
	if reqID == "" {
		reqID = uuid.NewString()
	}
	start := time.Now()
	resp, err := send(c.http.R().SetContext(ctx).SetHeader(headerRequestID, reqID))
	elapsed := time.Since(start)
	latencyMs := float64(elapsed.Microseconds()) / 1000

	if err != nil {
		metrics.RecordBackendRequest(op, "error", latencyMs)
		c.logger.Warn(ctx, "backend request failed",
			logger.String("op", op),
			logger.String("backend_request_id", reqID),
			logger.Duration("elapsed", elapsed),
			logger.Error(err))
		return nil, fmt.Errorf("%w: %s: %w", ErrBackend, op, err)
	}
	if resp.IsError() || resp.StatusCode() >= http.StatusMultipleChoices {
		metrics.RecordBackendRequest(op, "status_"+strconv.Itoa(resp.StatusCode()), latencyMs)
		body := resp.String()
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		c.logger.Warn(ctx, "backend returned error status",
			logger.String("op", op),
			logger.Int("status", resp.StatusCode()),
			logger.String("backend_request_id", reqID))
		return nil, &StatusError{Op: op, StatusCode: resp.StatusCode(), Body: body}
	}

	metrics.RecordBackendRequest(op, "success", latencyMs)
	c.logger.Debug(ctx, "backend request",
		logger.String("op", op),
		logger.Int("status", resp.StatusCode()),
		logger.Duration("elapsed", elapsed))
	return resp, nil
}
