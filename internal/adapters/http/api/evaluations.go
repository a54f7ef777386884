package api

import (
	"errors"
	"net/http"
	"strings"

	service "github.com/okian/jury/internal/app"
	"github.com/okian/jury/internal/domain/model"
	"github.com/okian/jury/pkg/logger"
)

type scoreRequest struct {
	Score *int `json:"score"`
}

type commentRequest struct {
	Comment *string `json:"comment"`
}

// EvaluationsHandler serves a judge's criteria, listings and per-application
// scoring flow.
type EvaluationsHandler struct {
	deps Dependencies
	log  logger.Logger
}

// NewEvaluationsHandler creates a new evaluations handler.
func NewEvaluationsHandler(deps Dependencies, log logger.Logger) *EvaluationsHandler {
	return &EvaluationsHandler{deps: deps, log: log}
}

// HandleCriteria handles GET /events/{eventID}/criteria.
func (h *EvaluationsHandler) HandleCriteria(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_criteria"
	criteria, err := h.deps.Criteria(r.Context(), r.PathValue("eventID"))
	if err != nil {
		h.fail(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, criteria)
}

// HandleApplications handles GET /events/{eventID}/applications.
func (h *EvaluationsHandler) HandleApplications(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_applications"
	judgeID, err := judgeFor(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	q := r.URL.Query()
	f := service.Filter{
		Status: strings.TrimSpace(q.Get("status")),
		Query:  q.Get("q"),
		Sort:   strings.TrimSpace(q.Get("sort")),
	}
	views, err := h.deps.Applications(r.Context(), r.PathValue("eventID"), judgeID, f)
	if err != nil {
		h.fail(w, r, Wrap(op, err))
		return
	}
	if views == nil {
		views = []service.ApplicationView{}
	}
	writeJSON(w, http.StatusOK, views)
}

// HandleProgress handles GET /events/{eventID}/progress.
func (h *EvaluationsHandler) HandleProgress(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_progress"
	judgeID, err := judgeFor(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	p, err := h.deps.Progress(r.Context(), r.PathValue("eventID"), judgeID)
	if err != nil {
		h.fail(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// HandleEvaluation handles GET /events/{eventID}/applications/{applicationID}.
func (h *EvaluationsHandler) HandleEvaluation(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_evaluation"
	key, err := draftKey(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	v, err := h.deps.Evaluation(r.Context(), key)
	if err != nil {
		h.fail(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// HandleSetScore handles PUT .../scores/{criterion} with body {"score": n}.
func (h *EvaluationsHandler) HandleSetScore(w http.ResponseWriter, r *http.Request) {
	const op = "api.set_score"
	key, err := draftKey(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req scoreRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	if req.Score == nil {
		h.fail(w, r, WrapKind(op, ErrBadRequest, errors.New("missing score")))
		return
	}
	v, err := h.deps.SetScore(r.Context(), key, r.PathValue("criterion"), *req.Score)
	if err != nil {
		h.fail(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// HandleSetComment handles PUT .../comment with body {"comment": "..."}.
func (h *EvaluationsHandler) HandleSetComment(w http.ResponseWriter, r *http.Request) {
	const op = "api.set_comment"
	key, err := draftKey(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req commentRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	if req.Comment == nil {
		h.fail(w, r, WrapKind(op, ErrBadRequest, errors.New("missing comment")))
		return
	}
	v, err := h.deps.SetComment(r.Context(), key, *req.Comment)
	if err != nil {
		h.fail(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// HandleEdit handles POST .../edit.
func (h *EvaluationsHandler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	const op = "api.edit"
	key, err := draftKey(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	v, err := h.deps.Edit(r.Context(), key)
	if err != nil {
		h.fail(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// HandleDiscard handles DELETE .../draft.
func (h *EvaluationsHandler) HandleDiscard(w http.ResponseWriter, r *http.Request) {
	const op = "api.discard"
	key, err := draftKey(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.deps.Discard(r.Context(), key); err != nil {
		h.fail(w, r, Wrap(op, err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleSubmit handles POST .../submit.
func (h *EvaluationsHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	const op = "api.submit"
	key, err := draftKey(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	payload, err := h.deps.Submit(r.Context(), key)
	if err != nil {
		h.fail(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

// fail writes err and logs anything the client cannot fix.
func (h *EvaluationsHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	if status >= statusInternalError {
		h.log.Error(r.Context(), "request failed",
			logger.String("path", r.URL.Path),
			logger.String("code", code),
			logger.Error(err))
	}
	writeError(w, status, code, err)
}

func draftKey(r *http.Request) (model.DraftKey, error) {
	judgeID, err := judgeFor(r)
	if err != nil {
		return model.DraftKey{}, err
	}
	return model.DraftKey{
		EventID:       r.PathValue("eventID"),
		JudgeID:       judgeID,
		ApplicationID: r.PathValue("applicationID"),
	}, nil
}
