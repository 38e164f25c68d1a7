package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"pharmatrace/internal/coldchain"
	"pharmatrace/pkg/domain"
)

type sensorRequest struct {
	Sensor string `json:"sensor"`
}

func (h *Handler) handleAuthorizeSensor(w http.ResponseWriter, r *http.Request) {
	var req sensorRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.coldchain.AuthorizeSensor(r.Context(), domain.Actor(req.Sensor)); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleRevokeSensor(w http.ResponseWriter, r *http.Request) {
	actor := domain.Actor(chi.URLParam(r, "actor"))
	if err := h.coldchain.RevokeSensor(r.Context(), actor); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type setThresholdRequest struct {
	Min coldchain.Centidegrees `json:"min"`
	Max coldchain.Centidegrees `json:"max"`
}

func (h *Handler) handleSetThreshold(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseBatchID(chi.URLParam(r, "batchID"))
	if err != nil {
		writeError(w, err)
		return
	}
	var req setThresholdRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.coldchain.SetThreshold(r.Context(), id, coldchain.Threshold{Min: req.Min, Max: req.Max}); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type recordTemperatureRequest struct {
	Temperature coldchain.Centidegrees `json:"temperature"`
	Location    string                 `json:"location"`
}

func (h *Handler) handleRecordTemperature(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseBatchID(chi.URLParam(r, "batchID"))
	if err != nil {
		writeError(w, err)
		return
	}
	var req recordTemperatureRequest
	if !decodeBody(w, r, &req) {
		return
	}
	reading, err := h.coldchain.RecordTemperature(r.Context(), id, req.Temperature, req.Location)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, reading)
}

func (h *Handler) handleListReadings(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseBatchID(chi.URLParam(r, "batchID"))
	if err != nil {
		writeError(w, err)
		return
	}
	ctx := r.Context()
	readings, err := h.coldchain.Readings(ctx, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Violated bool                `json:"violated"`
		Readings []coldchain.Reading `json:"readings"`
	}{coldchain.HasViolations(readings), readings})
}
