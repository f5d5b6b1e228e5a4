package handlers

import (
	"errors"
	"net/http"

	"github.com/xelth-com/soletrack/internal/milestone"
	"github.com/xelth-com/soletrack/internal/services/alerts"
)

// getSampleStatus returns the derived state of one sample
func (r *Router) getSampleStatus(w http.ResponseWriter, req *http.Request) {
	id, ok := pathID(w, req, "Invalid sample ID")
	if !ok {
		return
	}

	view, err := r.alerts.DeriveSampleStatus(req.Context(), id)
	if err != nil {
		respondStatusError(w, err, "Sample not found")
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// getLineSemaphore returns the traffic light of one order line
func (r *Router) getLineSemaphore(w http.ResponseWriter, req *http.Request) {
	id, ok := pathID(w, req, "Invalid line ID")
	if !ok {
		return
	}

	view, err := r.alerts.DeriveLineSemaphore(req.Context(), id)
	if err != nil {
		respondStatusError(w, err, "Order line not found")
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// getOrderStatus returns the derived state of one purchase order
func (r *Router) getOrderStatus(w http.ResponseWriter, req *http.Request) {
	id, ok := pathID(w, req, "Invalid purchase order ID")
	if !ok {
		return
	}

	view, err := r.alerts.DerivePOStatus(req.Context(), id)
	if err != nil {
		respondStatusError(w, err, "Purchase order not found")
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// respondStatusError maps lookup errors to a status code
func respondStatusError(w http.ResponseWriter, err error, notFound string) {
	switch {
	case errors.Is(err, alerts.ErrNotFound):
		respondError(w, http.StatusNotFound, notFound)
	case errors.Is(err, milestone.ErrInvalidDate):
		respondError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "Failed to derive status")
	}
}
