package api

import (
	"fmt"
	"net/http"

	"github.com/gosimple/slug"
)

// ExportsHandler serves CSV downloads and object-storage archives.
type ExportsHandler struct {
	deps Dependencies
}

// NewExportsHandler creates a new exports handler.
func NewExportsHandler(deps Dependencies) *ExportsHandler {
	return &ExportsHandler{deps: deps}
}

type archiveResponse struct {
	Key string `json:"key"`
}

// HandleCSV handles GET /events/{eventID}/export.csv.
func (h *ExportsHandler) HandleCSV(w http.ResponseWriter, r *http.Request) {
	const op = "api.export_csv"
	judgeID, err := judgeFor(r)
	if err != nil {
		writeErr(w, err)
		return
	}
	eventID := r.PathValue("eventID")
	data, err := h.deps.Export(r.Context(), eventID, judgeID)
	if err != nil {
		writeErr(w, Wrap(op, err))
		return
	}
	name := fmt.Sprintf("%s-%s.csv", slug.Make(eventID), slug.Make(judgeID))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// HandleArchive handles POST /events/{eventID}/exports.
func (h *ExportsHandler) HandleArchive(w http.ResponseWriter, r *http.Request) {
	const op = "api.archive"
	judgeID, err := judgeFor(r)
	if err != nil {
		writeErr(w, err)
		return
	}
	key, err := h.deps.Archive(r.Context(), r.PathValue("eventID"), judgeID)
	if err != nil {
		writeErr(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusCreated, archiveResponse{Key: key})
}
