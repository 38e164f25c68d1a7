package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"pharmatrace/internal/quality"
	"pharmatrace/pkg/domain"
)

type inspectorRequest struct {
	Actor string `json:"actor"`
}

func (h *Handler) handleAuthorizeInspector(w http.ResponseWriter, r *http.Request) {
	var req inspectorRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.quality.AuthorizeInspector(r.Context(), domain.Actor(req.Actor)); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleRevokeInspector(w http.ResponseWriter, r *http.Request) {
	actor := domain.Actor(chi.URLParam(r, "actor"))
	if err := h.quality.RevokeInspector(r.Context(), actor); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type performCheckRequest struct {
	Passed   bool   `json:"passed"`
	TestType string `json:"test_type"`
	Results  string `json:"results"`
	Notes    string `json:"notes"`
}

func (h *Handler) handlePerformCheck(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseBatchID(chi.URLParam(r, "batchID"))
	if err != nil {
		writeError(w, err)
		return
	}
	var req performCheckRequest
	if !decodeBody(w, r, &req) {
		return
	}
	check, err := h.quality.PerformCheck(r.Context(), id, req.Passed, req.TestType, req.Results, req.Notes)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, check)
}

func (h *Handler) handleListChecks(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseBatchID(chi.URLParam(r, "batchID"))
	if err != nil {
		writeError(w, err)
		return
	}
	ctx := r.Context()
	checks, err := h.quality.Checks(ctx, id)
	if err != nil {
		writeError(w, err)
		return
	}
	passed, err := h.quality.HasPassedQualityControl(ctx, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Passed bool            `json:"passed"`
		Checks []quality.Check `json:"checks"`
	}{passed, checks})
}
