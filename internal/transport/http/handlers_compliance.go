package httptransport

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"pharmatrace/internal/compliance"
	"pharmatrace/pkg/domain"
	dErrors "pharmatrace/pkg/domain-errors"
)

type recognizeBodyRequest struct {
	Name string `json:"name"`
}

func (h *Handler) handleRecognizeBody(w http.ResponseWriter, r *http.Request) {
	var req recognizeBodyRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.compliance.RecognizeBody(r.Context(), req.Name); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type grantApprovalRequest struct {
	RegulatoryBody string    `json:"regulatory_body"`
	ApprovalNumber string    `json:"approval_number"`
	Expiry         time.Time `json:"expiry"`
	DocumentRef    string    `json:"document_ref"`
}

func (h *Handler) handleGrantApproval(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseBatchID(chi.URLParam(r, "batchID"))
	if err != nil {
		writeError(w, err)
		return
	}
	var req grantApprovalRequest
	if !decodeBody(w, r, &req) {
		return
	}
	approval, err := h.compliance.GrantApproval(r.Context(), id, req.RegulatoryBody, req.ApprovalNumber, req.Expiry, req.DocumentRef)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, approval)
}

func (h *Handler) handleRevokeApproval(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseBatchID(chi.URLParam(r, "batchID"))
	if err != nil {
		writeError(w, err)
		return
	}
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid approval index"))
		return
	}
	if err := h.compliance.RevokeApproval(r.Context(), id, index); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleListApprovals(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseBatchID(chi.URLParam(r, "batchID"))
	if err != nil {
		writeError(w, err)
		return
	}
	ctx := r.Context()
	approvals, err := h.compliance.Approvals(ctx, id)
	if err != nil {
		writeError(w, err)
		return
	}
	compliant, err := h.compliance.IsCompliant(ctx, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Compliant bool                  `json:"compliant"`
		Approvals []compliance.Approval `json:"approvals"`
	}{compliant, approvals})
}
