package api

import (
	"net/http"

	"github.com/okian/jury/internal/domain/model"
)

// previewRequest mirrors the OpenAPI schema for POST /score.
type previewRequest struct {
	Criteria []model.Criterion `json:"criteria"`
	Scores   model.Scores      `json:"scores"`
}

// ScoreHandler answers stateless scoring previews.
type ScoreHandler struct {
	deps Dependencies
}

// NewScoreHandler creates a new score handler.
func NewScoreHandler(deps Dependencies) *ScoreHandler {
	return &ScoreHandler{deps: deps}
}

// HandlePreview handles POST /score requests.
func (h *ScoreHandler) HandlePreview(w http.ResponseWriter, r *http.Request) {
	const op = "api.preview_score"
	var req previewRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	res, err := h.deps.Preview(req.Criteria, req.Scores)
	if err != nil {
		// Criteria come from the caller here, so any rejection is theirs.
		writeErr(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	writeJSON(w, http.StatusOK, res)
}
