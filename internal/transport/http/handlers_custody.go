package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"pharmatrace/internal/custody"
	"pharmatrace/pkg/domain"
)

type initiateTransferRequest struct {
	To       string `json:"to"`
	Location string `json:"location"`
	Notes    string `json:"notes"`
}

func (h *Handler) handleInitiateTransfer(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseBatchID(chi.URLParam(r, "batchID"))
	if err != nil {
		writeError(w, err)
		return
	}
	var req initiateTransferRequest
	if !decodeBody(w, r, &req) {
		return
	}
	rec, err := h.custody.InitiateTransfer(r.Context(), id, domain.Actor(req.To), req.Location, req.Notes)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (h *Handler) handleConfirmReceipt(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseBatchID(chi.URLParam(r, "batchID"))
	if err != nil {
		writeError(w, err)
		return
	}
	rec, err := h.custody.ConfirmReceipt(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) handleCustodyChain(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseBatchID(chi.URLParam(r, "batchID"))
	if err != nil {
		writeError(w, err)
		return
	}
	ctx := r.Context()
	records, err := h.custody.TransferHistory(ctx, id)
	if err != nil {
		writeError(w, err)
		return
	}
	holder, err := h.custody.CurrentHolder(ctx, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		CurrentHolder domain.Actor     `json:"current_holder"`
		Records       []custody.Record `json:"records"`
	}{holder, records})
}
