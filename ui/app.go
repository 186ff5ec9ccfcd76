// Package ui serves stored PRI runs over HTTP.
package ui

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"gopri/internal/errors"
	"gopri/ports"
)

// App represents the results server
type App struct {
	router *chi.Mux
	repo   ports.RunRepository
	config Config
}

// Config holds server configuration
type Config struct {
	Port string
}

// NewApp creates the server over a run repository
func NewApp(repo ports.RunRepository, config Config) *App {
	if config.Port == "" {
		config.Port = "8080"
	}
	app := &App{
		router: chi.NewRouter(),
		repo:   repo,
		config: config,
	}
	app.setupMiddleware()
	app.setupRoutes()
	return app
}

func (a *App) setupMiddleware() {
	a.router.Use(middleware.RequestID)
	a.router.Use(middleware.Logger)
	a.router.Use(middleware.Recoverer)
	a.router.Use(middleware.Compress(5))
}

func (a *App) setupRoutes() {
	a.router.Get("/health", a.handleHealth)

	a.router.Route("/runs", func(r chi.Router) {
		r.Get("/", a.handleListRuns)
		r.Route("/{runID}", func(r chi.Router) {
			r.Get("/", a.handleGetRun)
			r.Get("/participants", a.handleParticipants)
			r.Get("/unreliable", a.handleUnreliable)
			r.Get("/report", a.handleReport)
		})
	})
}

// ServeHTTP lets the app be mounted or tested directly
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.router.ServeHTTP(w, r)
}

// Start serves until ctx is cancelled
func (a *App) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + a.config.Port,
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("[UI] Shutdown error: %v", err)
		}
	}()

	log.Printf("[UI] Starting PRI results server on %s", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[UI] Failed to encode response: %v", err)
	}
}

// writeError maps application error codes to HTTP statuses
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch errors.GetCode(err) {
	case errors.CodeNotFound:
		status = http.StatusNotFound
	case errors.CodeInvalidInput:
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		log.Printf("[UI] Request failed: %v", err)
	}
	writeJSON(w, status, map[string]string{
		"error": err.Error(),
		"code":  errors.GetCode(err),
	})
}
