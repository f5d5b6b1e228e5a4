package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/xelth-com/soletrack/internal/middleware"
	"github.com/xelth-com/soletrack/internal/models"
	"github.com/xelth-com/soletrack/internal/services/alerts"
	"github.com/xelth-com/soletrack/internal/services/report"
)

// generateAlerts runs one generation pass and returns its summary
func (r *Router) generateAlerts(w http.ResponseWriter, req *http.Request) {
	// the run outlives a dropped client connection
	ctx, cancel := context.WithTimeout(context.WithoutCancel(req.Context()), r.runTimeout)
	defer cancel()

	log.Printf("🔔 Alerts: manual run requested by %q", middleware.Subject(req.Context()))

	res, err := r.alerts.Generate(ctx, models.RunTriggerManual)
	if errors.Is(err, alerts.ErrRunInProgress) {
		respondError(w, http.StatusConflict, "Alert generation already running")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Alert generation failed: "+err.Error())
		return
	}

	respondJSON(w, http.StatusOK, res)
}

// alertQuery reads the listing filters shared by the JSON and PDF endpoints
func alertQuery(req *http.Request) (alerts.AlertQuery, error) {
	q := req.URL.Query()
	query := alerts.AlertQuery{
		Category:        q.Get("category"),
		UnreadOnly:      q.Get("unread") == "true",
		IncludeResolved: q.Get("include_resolved") == "true",
	}
	if limit := q.Get("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 0 {
			return query, errors.New("invalid limit")
		}
		query.Limit = n
	}
	return query, nil
}

// listAlerts returns stored alerts, most severe first
func (r *Router) listAlerts(w http.ResponseWriter, req *http.Request) {
	query, err := alertQuery(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid limit")
		return
	}

	list, err := r.alerts.ListAlerts(req.Context(), query)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch alerts")
		return
	}
	if list == nil {
		list = []models.Alert{}
	}

	respondJSON(w, http.StatusOK, list)
}

// alertReport renders the current alerts as a printable PDF sheet
func (r *Router) alertReport(w http.ResponseWriter, req *http.Request) {
	query, err := alertQuery(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid limit")
		return
	}

	list, err := r.alerts.ListAlerts(req.Context(), query)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch alerts")
		return
	}

	now := time.Now()
	pdf, err := report.AlertSheet(list, report.SheetConfig{
		Title:       "Production alerts",
		BaseURL:     r.publicURL,
		GeneratedAt: now,
	})
	if err != nil {
		log.Printf("❌ Alerts: report rendering failed: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to render report")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`inline; filename="alerts-%s.pdf"`, now.Format("20060102")))
	w.WriteHeader(http.StatusOK)
	w.Write(pdf)
}

type markReadRequest struct {
	Read *bool `json:"read"`
}

// markAlertRead sets the read flag, defaulting to read when no body is sent
func (r *Router) markAlertRead(w http.ResponseWriter, req *http.Request) {
	id, ok := pathID(w, req, "Invalid alert ID")
	if !ok {
		return
	}

	read := true
	if req.ContentLength != 0 {
		var body markReadRequest
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request payload")
			return
		}
		if body.Read != nil {
			read = *body.Read
		}
	}

	alert, err := r.alerts.MarkRead(req.Context(), id, read)
	if errors.Is(err, alerts.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Alert not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to update alert")
		return
	}

	respondJSON(w, http.StatusOK, alert)
}

// listRuns returns the run history, newest first
func (r *Router) listRuns(w http.ResponseWriter, req *http.Request) {
	limit := 0
	if s := req.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			respondError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}

	runs, err := r.alerts.ListRuns(req.Context(), limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch alert runs")
		return
	}
	if runs == nil {
		runs = []models.AlertRun{}
	}

	respondJSON(w, http.StatusOK, runs)
}

// listRules returns the active monitoring table
func (r *Router) listRules(w http.ResponseWriter, req *http.Request) {
	respondJSON(w, http.StatusOK, r.alerts.Rules().Rules())
}

// pathID parses the {id} route variable, writing a 400 on failure
func pathID(w http.ResponseWriter, req *http.Request, msg string) (uint, bool) {
	id, err := strconv.ParseUint(mux.Vars(req)["id"], 10, 32)
	if err != nil {
		respondError(w, http.StatusBadRequest, msg)
		return 0, false
	}
	return uint(id), true
}
