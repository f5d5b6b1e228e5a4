package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/xelth-com/soletrack/internal/buildinfo"
	"github.com/xelth-com/soletrack/internal/config"
	"github.com/xelth-com/soletrack/internal/database"
	"github.com/xelth-com/soletrack/internal/handlers"
	"github.com/xelth-com/soletrack/internal/models"
	"github.com/xelth-com/soletrack/internal/services/alerts"
	"github.com/xelth-com/soletrack/internal/websocket"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	policy, err := alerts.ParsePolicy(cfg.Alerts.Policy)
	if err != nil {
		log.Fatalf("Invalid ALERT_POLICY: %v", err)
	}

	// 2. Initialize database (Detects Embedded vs External automatically)
	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// 3. Auto-Migrate Schema
	log.Println("🚀 Synchronizing database schema...")
	if err := db.AutoMigrate(models.All()...); err != nil {
		log.Printf("⚠️ Migration warning: %v", err)
	} else {
		log.Println("✅ Schema synchronized successfully")
	}

	// 4. Alert engine, live updates and scheduler
	hub := websocket.NewHub()
	go hub.Run()

	alertService := alerts.NewService(alerts.NewGormStore(db), cfg.Alerts.Rules, policy)
	alertService.SetNotifier(hub)

	scheduler := alerts.NewScheduler(alertService, alerts.SchedulerConfig{
		Enabled:      cfg.Alerts.Enabled,
		Interval:     cfg.Alerts.Interval(),
		InitialDelay: cfg.Alerts.InitialDelay(),
		RunTimeout:   cfg.Alerts.RunTimeout(),
	})
	scheduler.Start()

	// 5. HTTP router
	router := handlers.NewRouter(alertService, hub, db, handlers.Options{
		JWTSecret:  cfg.JWTSecret,
		RunTimeout: cfg.Alerts.RunTimeout(),
		PublicURL:  cfg.PublicURL,
	})

	// 6. Start server with graceful shutdown
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("🚀 Server %s starting on port %s (alert policy: %s)", buildinfo.Version(), cfg.Port, policy)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	sig := <-shutdown
	log.Printf("⚠️  Received signal: %v. Shutting down gracefully...", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	// waits for a run in flight
	scheduler.Stop()
	hub.Stop()

	// Close database (this also stops embedded PostgreSQL)
	log.Println("🛑 Closing database connection...")
	if err := db.Close(); err != nil {
		log.Printf("Database close error: %v", err)
	}

	log.Println("✅ Shutdown complete")
}
