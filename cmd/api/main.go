package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/safar/go-shop-admin/internal/auth"
	"github.com/safar/go-shop-admin/internal/config"
	"github.com/safar/go-shop-admin/internal/database"
	"github.com/safar/go-shop-admin/internal/metrics"
	"github.com/safar/go-shop-admin/internal/models"
	"github.com/safar/go-shop-admin/internal/presence"
	"github.com/safar/go-shop-admin/internal/upload"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Load config: %v", err)
	}

	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		log.Fatalf("Connect to database: %v", err)
	}
	defer db.Close()

	log.Printf("Connected to database successfully")

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	tracker := presence.NewTracker(&presence.PQStore{DB: db})
	hub := presence.NewHub(tracker, collector)

	gate := auth.NewGate()
	authService := auth.NewService(db, &auth.PQProvider{DB: db}, gate, auth.Config{
		SessionTTL: cfg.Auth.SessionTTL,
		BcryptCost: cfg.Auth.BcryptCost,
	})

	// Presence follows auth state: a sign-in marks the owner online and
	// registers the disconnect write; a sign-out marks them offline and
	// releases it, then drops any live presence connection.
	unsubscribe := gate.Subscribe(func(ev auth.Event) {
		switch ev.State {
		case auth.StateAuthenticated:
			tracker.Activate(context.Background(), ev.UserID)
		case auth.StateUnauthenticated:
			if err := tracker.Deactivate(context.Background(), ev.UserID); err != nil {
				log.Printf("Deactivate presence for %s: %v", ev.UserID, err)
			}
			hub.Disconnect(ev.UserID)
		}
	})
	defer unsubscribe()

	var pipeline *upload.Pipeline
	if cfg.Upload.CloudinaryURL != "" {
		blobs, err := upload.NewCloudinaryStore(cfg.Upload.CloudinaryURL)
		if err != nil {
			log.Fatalf("Init blob store: %v", err)
		}
		pipeline = upload.NewPipeline(blobs, cfg.Upload.KeyPrefix)
	} else {
		log.Printf("CLOUDINARY_URL not set, image uploads disabled")
	}

	r := chi.NewRouter()

	r.Post("/auth/signup", handleSignup(authService))
	r.Post("/auth/login", handleLogin(authService, collector))
	r.Get("/presence/{userID}", handleGetPresence(db))
	r.Handle("/metrics", metrics.Handler(registry))

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireSession(authService))

		r.Post("/auth/logout", handleLogout(authService))
		r.Get("/auth/me", handleMe())

		r.Get("/products", handleListProducts(db))
		r.Post("/products", handleCreateProduct(db, pipeline, collector, cfg.Upload.MaxFileSize))
		r.Get("/products/{id}", handleGetProduct(db))
		r.Put("/products/{id}", handleUpdateProduct(db))

		r.Get("/orders", handleListOrders(db))
		r.Post("/orders/{id}/deliver", handleTransition(db, collector, models.OrderStatusDelivered))
		r.Post("/orders/{id}/reject", handleTransition(db, collector, models.OrderStatusRejected))

		r.Get("/profile", handleGetProfile())
		r.Put("/profile", handleUpdateProfile(db))
		r.Put("/profile/payment", handleUpdatePayment(db))

		r.Get("/ws/presence", handlePresenceSocket(hub))
	})

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("Server starting on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown: %v", err)
	}

	// Graceful-exit hook: everyone still marked online goes offline before
	// the process ends.
	tracker.Shutdown(shutdownCtx)
	hub.Close()
}
