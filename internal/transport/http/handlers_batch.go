package httptransport

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"pharmatrace/internal/trace"
	"pharmatrace/pkg/domain"
	dErrors "pharmatrace/pkg/domain-errors"
)

type mintBatchRequest struct {
	BatchID    string    `json:"batch_id"`
	Expiry     time.Time `json:"expiry"`
	ContentRef string    `json:"content_ref"`
}

func (h *Handler) handleMintBatch(w http.ResponseWriter, r *http.Request) {
	var req mintBatchRequest
	if !decodeBody(w, r, &req) {
		return
	}
	id, err := domain.ParseBatchID(req.BatchID)
	if err != nil {
		writeError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid batch id"))
		return
	}
	batch, err := h.batches.Mint(r.Context(), id, req.Expiry, req.ContentRef)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, batch)
}

func (h *Handler) handleGetBatch(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseBatchID(chi.URLParam(r, "batchID"))
	if err != nil {
		writeError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid batch id"))
		return
	}
	batch, err := h.batches.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, batch)
}

func (h *Handler) handleBatchStatus(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseBatchID(chi.URLParam(r, "batchID"))
	if err != nil {
		writeError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid batch id"))
		return
	}
	status, err := h.status.BatchStatus(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		*trace.Status
		Dispensable bool `json:"dispensable"`
	}{status, status.Dispensable()})
}
