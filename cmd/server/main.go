package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/doferlabs/printcost/internal/config"
	"github.com/doferlabs/printcost/internal/db"
	"github.com/doferlabs/printcost/internal/estimate"
	"github.com/doferlabs/printcost/internal/hub"
	"github.com/doferlabs/printcost/internal/logging"
	"github.com/doferlabs/printcost/internal/migrations"
	"github.com/doferlabs/printcost/internal/printers"
	"github.com/doferlabs/printcost/internal/seed"
	"github.com/doferlabs/printcost/internal/store"
)

type server struct {
	store    *store.Store
	ping     func(context.Context) error
	table    *printers.Table
	tools    *hub.Registry
	pipeline *estimate.Pipeline
	profile  config.Profile
	timeout  time.Duration
	log      zerolog.Logger

	schemaVersion int64

	// sessions holds one estimate.Runner per client session so a new upload
	// supersedes that client's previous one.
	sessions sessionRunners
}

func main() {
	cfg := config.Load()
	logger := logging.Setup(cfg.LogLevel, cfg.IsDev())

	profile, err := config.LoadProfile(cfg.ProfilePath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load pricing profile")
	}

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer database.Close()

	if err := migrations.Up(database); err != nil {
		log.Fatal().Err(err).Msg("failed to run database migrations")
	}
	version, err := migrations.Version(database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to read schema version")
	}
	stats, err := seed.Run(database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to seed materials")
	}
	if stats.Inserts > 0 {
		log.Info().Int("inserts", stats.Inserts).Msg("seeded materials")
	}

	table := printers.DefaultTable()
	srv := &server{
		store: store.New(database),
		ping:  database.PingContext,
		table: table,
		tools: hub.Default(),
		pipeline: estimate.NewPipeline(table,
			estimate.WithMeshOptions(profile.Mesh),
			estimate.WithAutoOrient(profile.AutoOrient),
			estimate.WithLogger(logger),
		),
		profile:       profile,
		timeout:       cfg.EstimateTimeout,
		log:           logger,
		schemaVersion: version,
	}

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", httpServer.Addr).Msg("listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/tools", s.handleToolsList)
		r.Get("/tools/{id}", s.handleToolGet)
		r.Get("/printers", s.handlePrintersList)
		r.Get("/materials", s.handleMaterialsList)
		r.Post("/materials", s.handleMaterialCreate)
		r.Put("/materials/{id}", s.handleMaterialUpdate)
		r.Post("/estimate", s.handleEstimate)
		r.Post("/cost", s.handleCost)
		r.Post("/quotes", s.handleQuoteCreate)
		r.Get("/quotes", s.handleQuotesList)
		r.Get("/quotes/{id}", s.handleQuoteGet)
		r.Get("/quotes/{id}/text", s.handleQuoteText)
		r.Get("/quotes/{id}/export.xlsx", s.handleQuoteExport)
	})
	return r
}

func (s *server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("took", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("request")
	})
}

type healthResponse struct {
	Status        string `json:"status"`
	SchemaVersion int64  `json:"schema_version"`
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.ping != nil {
		if err := s.ping(r.Context()); err != nil {
			s.log.Error().Err(err).Msg("health check")
			writeError(w, http.StatusServiceUnavailable, "base de datos no disponible")
			return
		}
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", SchemaVersion: s.schemaVersion})
}

// handleToolsList filters by one of q, category or tier, in that order of
// precedence. Without a filter only non-deprecated tools are listed.
func (s *server) handleToolsList(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	var tools []hub.Manifest
	switch {
	case query.Get("q") != "":
		tools = s.tools.Search(query.Get("q"))
	case query.Get("category") != "":
		tools = s.tools.ByCategory(hub.Category(query.Get("category")))
	case query.Get("tier") != "":
		tools = s.tools.ByTier(hub.Tier(query.Get("tier")))
	default:
		tools = s.tools.Available()
	}
	writeJSON(w, http.StatusOK, nonNil(tools))
}

func (s *server) handleToolGet(w http.ResponseWriter, r *http.Request) {
	m, ok := s.tools.Get(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "herramienta no encontrada")
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *server) handlePrintersList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.table.Search(r.URL.Query().Get("q")))
}
