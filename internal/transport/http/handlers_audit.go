package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"pharmatrace/pkg/domain"
)

func (h *Handler) handleBatchAuditTrail(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseBatchID(chi.URLParam(r, "batchID"))
	if err != nil {
		writeError(w, err)
		return
	}
	entries, err := h.audits.BatchAuditTrail(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

type verifyHashRequest struct {
	EntryID uint64 `json:"entry_id"`
	Hash    string `json:"hash"`
}

func (h *Handler) handleVerifyAuditHash(w http.ResponseWriter, r *http.Request) {
	var req verifyHashRequest
	if !decodeBody(w, r, &req) {
		return
	}
	match, err := h.audits.VerifyDataHash(r.Context(), req.EntryID, req.Hash)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"match": match})
}

func (h *Handler) handleAuditCount(w http.ResponseWriter, r *http.Request) {
	total, err := h.audits.TotalEntries(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]uint64{"total": total})
}
