// Package server assembles all HTTP handlers and starts the server.
package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matthewbaird/pageforge/internal/apiclient"
	"github.com/matthewbaird/pageforge/internal/eventbus"
	"github.com/matthewbaird/pageforge/internal/handler"
	"github.com/matthewbaird/pageforge/internal/idgen"
	"github.com/matthewbaird/pageforge/internal/pagestore"
	"github.com/matthewbaird/pageforge/internal/render"
	"github.com/matthewbaird/pageforge/internal/wire"
)

// Config holds server configuration.
type Config struct {
	Port           int
	Store          pagestore.Store
	Client         apiclient.Caller
	Bus            *eventbus.Bus
	SessionMaxAge  time.Duration
	SessionIdle    time.Duration
	CleanupPeriod  time.Duration
}

// Run starts the HTTP server with all routes registered. It blocks until
// ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context, cfg Config) error {
	if cfg.SessionMaxAge == 0 {
		cfg.SessionMaxAge = 8 * time.Hour
	}
	if cfg.SessionIdle == 0 {
		cfg.SessionIdle = 30 * time.Minute
	}
	if cfg.CleanupPeriod == 0 {
		cfg.CleanupPeriod = time.Minute
	}

	ids := idgen.New()
	sessions := render.NewManager(cfg.SessionMaxAge, cfg.SessionIdle)

	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	ph := handler.NewPageHandler(cfg.Store, cfg.Bus)
	r.Get("/v1/pages", ph.ListPages)
	r.Post("/v1/pages", ph.SavePage)
	r.Get("/v1/pages/{pageKey}", ph.GetPage)
	r.Delete("/v1/pages/{pageKey}", ph.DeletePage)
	r.Post("/v1/pages/{pageKey}/render", ph.RenderPage)

	bh := handler.NewBuilderHandler(cfg.Store, ids)
	r.Post("/v1/pages/{pageKey}/tabs", bh.AddTab)
	r.Patch("/v1/pages/{pageKey}/tabs/{tabID}", bh.RenameTab)
	r.Delete("/v1/pages/{pageKey}/tabs/{tabID}", bh.RemoveTab)
	r.Post("/v1/pages/{pageKey}/sections", bh.AddSection)
	r.Patch("/v1/pages/{pageKey}/sections/{sectionID}", bh.UpdateSection)
	r.Delete("/v1/pages/{pageKey}/sections/{sectionID}", bh.RemoveSection)
	r.Post("/v1/pages/{pageKey}/sections/{sectionID}/components", bh.AddComponent)
	r.Put("/v1/pages/{pageKey}/sections/{sectionID}/components/{componentID}", bh.SaveComponent)
	r.Delete("/v1/pages/{pageKey}/sections/{sectionID}/components/{componentID}", bh.RemoveComponent)
	r.Post("/v1/pages/{pageKey}/sections/{sectionID}/components/{componentID}/move", bh.MoveComponent)

	wh := wire.NewHandler(cfg.Store, sessions, cfg.Client, cfg.Bus, ids)
	r.Get("/v1/sessions/ws", wh.ServeHTTP)

	wrapped := handler.Recovery(handler.Logging(r))

	// Expired page sessions are swept in the background for as long as the
	// server runs.
	go func() {
		ticker := time.NewTicker(cfg.CleanupPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sessions.Cleanup()
			}
		}
	}()

	addr := fmt.Sprintf(":%d", cfg.Port)
	log.Printf("starting server on %s", addr)

	server := &http.Server{
		Addr:    addr,
		Handler: wrapped,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
