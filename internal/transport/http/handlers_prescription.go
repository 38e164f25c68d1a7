package httptransport

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"pharmatrace/pkg/domain"
	dErrors "pharmatrace/pkg/domain-errors"
	"pharmatrace/pkg/requestcontext"
)

type issuePrescriptionRequest struct {
	Patient   string    `json:"patient"`
	PatientID string    `json:"patient_id"`
	DoctorID  string    `json:"doctor_id"`
	DrugID    string    `json:"drug_id"`
	Dosage    string    `json:"dosage"`
	Expiry    time.Time `json:"expiry"`
	Notes     string    `json:"notes"`
}

func (h *Handler) handleIssuePrescription(w http.ResponseWriter, r *http.Request) {
	var req issuePrescriptionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	p, err := h.prescriptions.Issue(r.Context(),
		domain.Actor(req.Patient), req.PatientID, req.DoctorID, req.DrugID, req.Dosage, req.Expiry, req.Notes)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

type fillPrescriptionRequest struct {
	PharmacyID string `json:"pharmacy_id"`
}

func (h *Handler) handleFillPrescription(w http.ResponseWriter, r *http.Request) {
	id := domain.PrescriptionID(chi.URLParam(r, "prescriptionID"))
	if id.IsZero() {
		writeError(w, dErrors.New(dErrors.CodeInvalidInput, "prescription id is required"))
		return
	}
	var req fillPrescriptionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	p, err := h.prescriptions.Fill(r.Context(), id, req.PharmacyID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) handleGetPrescription(w http.ResponseWriter, r *http.Request) {
	id := domain.PrescriptionID(chi.URLParam(r, "prescriptionID"))
	if id.IsZero() {
		writeError(w, dErrors.New(dErrors.CodeInvalidInput, "prescription id is required"))
		return
	}
	p, err := h.prescriptions.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Prescription any  `json:"prescription"`
		Valid        bool `json:"valid"`
	}{p, p.IsValid(requestcontext.Now(r.Context()))})
}
