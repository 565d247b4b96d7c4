// Package server exposes the dashboard HTTP API and the WebSocket playback
// boundary. Handlers stay thin: validation, status mapping and JSON shaping
// live here, everything else is delegated to the aggregation, profile,
// playback and admin packages.
package server

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"cricket-rank-lab/internal/admin"
	"cricket-rank-lab/internal/aggregate"
	"cricket-rank-lab/internal/observability"
	"cricket-rank-lab/internal/profile"
	"cricket-rank-lab/internal/rankingapi"
	"cricket-rank-lab/internal/storage"
)

// DefaultCacheTTL is how long a cached ranking set stays fresh.
const DefaultCacheTTL = 5 * time.Minute

// Server holds the wired dashboard components behind the HTTP boundary.
type Server struct {
	engine    *aggregate.Engine
	profiles  *profile.Service
	rebuilder *admin.Rebuilder
	rankings  *rankingapi.Client
	cache     storage.RankingCacheStore

	window   int
	cacheTTL time.Duration
	logger   *log.Logger
	now      func() time.Time
}

// Options contains configuration for creating a Server.
type Options struct {
	Engine    *aggregate.Engine
	Profiles  *profile.Service
	Rebuilder *admin.Rebuilder
	Rankings  *rankingapi.Client
	Cache     storage.RankingCacheStore

	Window   int           // defaults to aggregate.DefaultWindow
	CacheTTL time.Duration // defaults to DefaultCacheTTL
	Logger   *log.Logger
	Now      func() time.Time // defaults to time.Now
}

// New creates a new Server.
func New(opts Options) *Server {
	window := opts.Window
	if window == 0 {
		window = aggregate.DefaultWindow
	}

	cacheTTL := opts.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = DefaultCacheTTL
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Server{
		engine:    opts.Engine,
		profiles:  opts.Profiles,
		rebuilder: opts.Rebuilder,
		rankings:  opts.Rankings,
		cache:     opts.Cache,
		window:    window,
		cacheTTL:  cacheTTL,
		logger:    logger,
		now:       now,
	}
}

// Router builds the chi router with all dashboard routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", observability.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/teams", s.handleTeams)
		r.Get("/search", s.handleSearch)
		r.Get("/players/{playerId}/profiles", s.handlePlayerProfiles)
		r.Get("/teams/{teamId}/top", s.handleTopPerformers)
		r.Get("/teams/{teamId}/rankings", s.handleRankings)
		r.Get("/teams/{teamId}/players/{playerId}", s.handlePlayerProfile)
		r.Post("/admin/rebuild", s.handleRebuild)
	})

	r.Get("/ws/playback", s.handlePlayback)

	return r
}

// writeJSON writes a JSON response with the given status code.
func (s *Server) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Printf("write response: %v", err)
	}
}

// writeError writes a JSON error envelope with the given status code.
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, errorResponse{Error: message})
}
