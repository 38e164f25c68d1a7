package httptransport

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"pharmatrace/internal/recall"
	"pharmatrace/pkg/domain"
	dErrors "pharmatrace/pkg/domain-errors"
)

type issueRecallRequest struct {
	Reason   string   `json:"reason"`
	Severity int      `json:"severity"`
	Regions  []string `json:"regions"`
}

func (h *Handler) handleIssueRecall(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseBatchID(chi.URLParam(r, "batchID"))
	if err != nil {
		writeError(w, err)
		return
	}
	var req issueRecallRequest
	if !decodeBody(w, r, &req) {
		return
	}
	rec, err := h.recalls.Issue(r.Context(), id, req.Reason, req.Severity, req.Regions)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (h *Handler) handleResolveRecall(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseBatchID(chi.URLParam(r, "batchID"))
	if err != nil {
		writeError(w, err)
		return
	}
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid recall index"))
		return
	}
	if err := h.recalls.Resolve(r.Context(), id, index); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleListRecalls(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseBatchID(chi.URLParam(r, "batchID"))
	if err != nil {
		writeError(w, err)
		return
	}
	ctx := r.Context()
	recalls, err := h.recalls.Recalls(ctx, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Recalled bool            `json:"recalled"`
		Recalls  []recall.Recall `json:"recalls"`
	}{recall.IsRecalled(recalls), recalls})
}
