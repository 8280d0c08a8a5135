// Package server serves the lecture viewer and its JSON API over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ziadkadry99/lecturedoc/internal/catalog"
	"github.com/ziadkadry99/lecturedoc/internal/progress"
	"github.com/ziadkadry99/lecturedoc/internal/search"
	"github.com/ziadkadry99/lecturedoc/internal/viewer"
)

// Config holds server configuration.
type Config struct {
	Port         int
	AllowAll     bool          // allow all CORS origins (dev mode)
	PollInterval time.Duration // background refresh, zero disables it
}

// Index is the search index used by /api/search. It is optional.
type Index interface {
	Search(ctx context.Context, query string, limit int, lectureID string) ([]search.Hit, error)
	Sync(ctx context.Context, cat *catalog.Catalog, fingerprint string, rep progress.Reporter) (bool, error)
}

// Server is the local lecture viewer.
type Server struct {
	cfg        Config
	viewer     *viewer.Viewer
	index      Index
	logger     *slog.Logger
	hub        *Hub
	router     chi.Router
	httpServer *http.Server

	stopPoll context.CancelFunc
	wg       sync.WaitGroup
}

// New creates a server for the given viewer. index may be nil when search
// is not configured.
func New(cfg Config, v *viewer.Viewer, index Index, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:    cfg,
		viewer: v,
		index:  index,
		logger: logger,
		hub:    NewHub(logger),
	}
	s.router = s.buildRouter()
	return s
}

// buildRouter creates and configures the chi router with all routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS
	corsOpts := cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		ExposedHeaders:   []string{"X-Cache"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if s.cfg.AllowAll {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))

	// Health check
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Websocket connections outlive the request timeout.
	r.Get("/ws", s.hub.ServeHTTP)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))

		r.Get("/", s.handleIndex)
		r.Get("/style.css", handleStylesheet)
		r.Get("/lectures/{id}", s.handlePage)

		r.Route("/api", func(r chi.Router) {
			r.Get("/lectures", s.handleLectures)
			r.Get("/lectures/{id}", s.handleArticle)
			r.Post("/refresh", s.handleRefresh)
			r.Get("/cache", s.handleCacheStats)
			r.Delete("/cache", s.handleCacheClear)
			r.Post("/search", s.handleSearch)
		})
	})

	return r
}

// Router returns the chi router.
func (s *Server) Router() chi.Router { return s.router }

// Hub returns the websocket hub used for change notifications.
func (s *Server) Hub() *Hub { return s.hub }

// Start begins listening on the configured port and, when configured,
// polls the source for changes. It blocks until the server stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	s.startPolling()

	s.logger.Info("lecturedoc viewer listening", "addr", addr, "poll", s.cfg.PollInterval)
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops polling, disconnects websocket clients and gracefully
// shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.stopPoll != nil {
		s.stopPoll()
	}
	s.wg.Wait()
	s.hub.Close()
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// startPolling runs the background refresh loop until Shutdown.
func (s *Server) startPolling() {
	if s.cfg.PollInterval <= 0 || s.stopPoll != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.stopPoll = cancel
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.poll(ctx)
	}()
}

func (s *Server) poll(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.refresh(ctx); err != nil && ctx.Err() == nil {
				s.logger.Warn("background refresh failed", "error", err)
			}
		}
	}
}

// refresh re-fetches the catalog. On change it updates the search index and
// tells connected browsers to reload.
func (s *Server) refresh(ctx context.Context) (bool, error) {
	changed, err := s.viewer.Refresh(ctx)
	if err != nil || !changed {
		return changed, err
	}

	if s.index != nil {
		snap := s.viewer.Snapshot()
		if _, err := s.index.Sync(ctx, s.viewer.Catalog(), snap.Fingerprint, nil); err != nil {
			s.logger.Warn("search index update failed", "error", err)
		}
	}
	s.hub.Broadcast(Event{Type: EventChanged, Fingerprint: s.viewer.Snapshot().Fingerprint})
	return true, nil
}
