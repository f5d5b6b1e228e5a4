package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/xelth-com/soletrack/internal/buildinfo"
	"github.com/xelth-com/soletrack/internal/middleware"
	"github.com/xelth-com/soletrack/internal/milestone"
	"github.com/xelth-com/soletrack/internal/models"
	"github.com/xelth-com/soletrack/internal/services/alerts"
	"github.com/xelth-com/soletrack/internal/websocket"
)

// AlertService is what the HTTP layer needs from the alert engine
type AlertService interface {
	Generate(ctx context.Context, trigger string) (*alerts.Result, error)
	ListAlerts(ctx context.Context, q alerts.AlertQuery) ([]models.Alert, error)
	MarkRead(ctx context.Context, id uint, read bool) (*models.Alert, error)
	ListRuns(ctx context.Context, limit int) ([]models.AlertRun, error)
	DeriveSampleStatus(ctx context.Context, id uint) (*alerts.SampleStatusView, error)
	DeriveLineSemaphore(ctx context.Context, id uint) (*alerts.LineSemaphoreView, error)
	DerivePOStatus(ctx context.Context, id uint) (*alerts.POStatusView, error)
	Rules() *milestone.RuleTable
}

// Pinger reports database reachability
type Pinger interface {
	Ping(ctx context.Context) error
}

// Router wraps the mux router and its collaborators
type Router struct {
	*mux.Router
	alerts     AlertService
	hub        *websocket.Hub
	db         Pinger
	runTimeout time.Duration
	publicURL  string
}

// Options configures NewRouter
type Options struct {
	JWTSecret  string
	RunTimeout time.Duration
	PublicURL  string
}

// NewRouter creates a new HTTP router with all routes
func NewRouter(svc AlertService, hub *websocket.Hub, db Pinger, opts Options) *Router {
	if opts.RunTimeout <= 0 {
		opts.RunTimeout = 2 * time.Minute
	}
	r := &Router{
		Router:     mux.NewRouter(),
		alerts:     svc,
		hub:        hub,
		db:         db,
		runTimeout: opts.RunTimeout,
		publicURL:  opts.PublicURL,
	}

	// Health check endpoint
	r.HandleFunc("/health", r.healthCheck).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/status", r.getStatus).Methods("GET")

	// Alerts
	api.HandleFunc("/alerts", r.listAlerts).Methods("GET")
	api.HandleFunc("/alerts/runs", r.listRuns).Methods("GET")
	api.HandleFunc("/alerts/rules", r.listRules).Methods("GET")
	api.HandleFunc("/alerts/report.pdf", r.alertReport).Methods("GET")
	api.HandleFunc("/alerts/{id:[0-9]+}/read", r.markAlertRead).Methods("PUT")
	api.Handle("/alerts/generate", middleware.Auth(opts.JWTSecret)(http.HandlerFunc(r.generateAlerts))).Methods("POST")

	// Derived status
	api.HandleFunc("/samples/{id:[0-9]+}/status", r.getSampleStatus).Methods("GET")
	api.HandleFunc("/lines/{id:[0-9]+}/semaphore", r.getLineSemaphore).Methods("GET")
	api.HandleFunc("/orders/{id:[0-9]+}/status", r.getOrderStatus).Methods("GET")

	// Live updates for dashboards
	if hub != nil {
		r.HandleFunc("/ws", func(w http.ResponseWriter, req *http.Request) {
			websocket.ServeWs(hub, w, req)
		})
	}

	return r
}

// healthCheck returns the health status of the API
func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	if r.db != nil {
		ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
		defer cancel()
		if err := r.db.Ping(ctx); err != nil {
			respondJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status":   "degraded",
				"database": err.Error(),
			})
			return
		}
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// getStatus returns build and runtime information
func (r *Router) getStatus(w http.ResponseWriter, req *http.Request) {
	clients := 0
	if r.hub != nil {
		clients = r.hub.Count()
	}
	info := buildinfo.Fields()
	info["status"] = "running"
	info["ws_clients"] = clients
	respondJSON(w, http.StatusOK, info)
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError sends an error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}
