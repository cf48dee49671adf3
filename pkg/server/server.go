package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/parsisearch/jostoju/pkg/cache"
	"github.com/parsisearch/jostoju/pkg/compression"
	"github.com/parsisearch/jostoju/pkg/corpus"
	gql "github.com/parsisearch/jostoju/pkg/graphql"
	"github.com/parsisearch/jostoju/pkg/index"
	"github.com/parsisearch/jostoju/pkg/metrics"
	"github.com/parsisearch/jostoju/pkg/server/handlers"
)

// Server represents the search daemon's HTTP server.
type Server struct {
	config   *Config
	router   *chi.Mux
	httpSrv  *http.Server
	handlers *handlers.Handlers

	startTime        time.Time
	metricsCollector *metrics.Collector
	resourceTracker  *metrics.ResourceTracker
	promExporter     *metrics.PrometheusExporter
}

// New loads the index artifact and metadata from config's paths and builds
// a ready-to-start Server. A missing or corrupt index artifact is fatal at
// startup, per the store-load-failure error handling rule.
func New(config *Config) (*Server, error) {
	if config.EnableTLS {
		if config.TLSCertFile == "" || config.TLSKeyFile == "" {
			return nil, fmt.Errorf("TLS enabled but certificate or key file not specified")
		}
		if _, err := os.Stat(config.TLSCertFile); os.IsNotExist(err) {
			return nil, fmt.Errorf("TLS certificate file not found: %s", config.TLSCertFile)
		}
		if _, err := os.Stat(config.TLSKeyFile); os.IsNotExist(err) {
			return nil, fmt.Errorf("TLS key file not found: %s", config.TLSKeyFile)
		}
	}

	compressionConfig := compression.DefaultConfig()

	store, err := index.Open(config.IndexPath, compressionConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to open index artifact: %w", err)
	}
	defer store.Close()

	snap, err := store.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("failed to materialize index snapshot: %w", err)
	}

	meta, err := corpus.LoadMetadata(config.MetadataPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load metadata: %w", err)
	}

	initial := &handlers.State{
		Snapshot: snap,
		Metadata: meta,
		Report: index.BuildReport{
			TotalDocuments: snap.N,
			UniqueTerms:    len(snap.Index),
		},
		BuiltAt: time.Now(),
	}

	resultCache := cache.New(config.CacheCapacity, config.CacheTTL)
	metricsCollector := metrics.NewCollector()
	resourceTracker := metrics.NewResourceTracker(nil)
	promExporter := metrics.NewPrometheusExporter(metricsCollector)

	h := handlers.New(initial, resultCache, metricsCollector, resourceTracker, config.RankOptions, config.IndexPath, config.MetadataPath, compressionConfig)

	srv := &Server{
		config:           config,
		router:           chi.NewRouter(),
		handlers:         h,
		startTime:        time.Now(),
		metricsCollector: metricsCollector,
		resourceTracker:  resourceTracker,
		promExporter:     promExporter,
	}

	srv.setupMiddleware()
	srv.setupRoutes()

	if config.EnableGraphQL {
		if err := srv.setupGraphQLRoutes(); err != nil {
			return nil, fmt.Errorf("failed to setup GraphQL routes: %w", err)
		}
	}

	addr := fmt.Sprintf("%s:%d", config.Host, config.Port)
	srv.httpSrv = &http.Server{
		Addr:         addr,
		Handler:      srv.router,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}

	return srv, nil
}

// setupMiddleware configures HTTP middleware stack
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)

	if s.config.EnableLogging {
		s.router.Use(middleware.Logger)
	}

	if s.config.EnableCORS {
		s.router.Use(s.corsMiddleware)
	}

	s.router.Use(s.requestSizeLimitMiddleware)
	s.router.Use(middleware.Timeout(60 * time.Second))
}

// setupRoutes configures HTTP routes
func (s *Server) setupRoutes() {
	s.router.Get("/search", s.handlers.Search)
	s.router.Post("/search", s.handlers.Search)

	s.router.Get("/healthz", s.handlers.Health)
	s.router.Get("/stats", s.handlers.Stats)
	s.router.Post("/admin/reload", s.handlers.ReloadIndex)
	s.router.Get("/admin/build/stream", s.handlers.StreamReload)

	s.router.Get("/_metrics", s.handlePrometheusMetrics)
}

// setupGraphQLRoutes configures the GraphQL query endpoint and playground.
func (s *Server) setupGraphQLRoutes() error {
	graphqlHandler, err := gql.NewHandler(s.handlers)
	if err != nil {
		return fmt.Errorf("failed to create GraphQL handler: %w", err)
	}

	s.router.Post("/graphql", graphqlHandler.ServeHTTP)
	s.router.Get("/graphiql", gql.GraphiQLHandler())

	fmt.Println("GraphQL API enabled: /graphql, playground at /graphiql")
	return nil
}

// corsMiddleware handles CORS headers
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := "*"
		if len(s.config.AllowedOrigins) > 0 {
			origin = s.config.AllowedOrigins[0]
		}

		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// requestSizeLimitMiddleware limits request body size
func (s *Server) requestSizeLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxRequestSize)
		next.ServeHTTP(w, r)
	})
}

// handlePrometheusMetrics serves the Prometheus text exposition format.
func (s *Server) handlePrometheusMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	if err := s.promExporter.WriteMetrics(w); err != nil {
		http.Error(w, fmt.Sprintf("error writing metrics: %v", err), http.StatusInternalServerError)
	}
}

// Start starts the HTTP server and blocks until it is shut down, either by
// a termination signal or a listener error.
func (s *Server) Start() error {
	protocol := "http"
	if s.config.EnableTLS {
		protocol = "https"
		fmt.Printf("TLS/SSL enabled, certificate: %s\n", s.config.TLSCertFile)
	}
	fmt.Printf("jostoju search daemon starting on %s://%s:%d\n", protocol, s.config.Host, s.config.Port)
	fmt.Printf("index artifact: %s\n", s.config.IndexPath)

	errChan := make(chan error, 1)
	go func() {
		var err error
		if s.config.EnableTLS {
			err = s.httpSrv.ListenAndServeTLS(s.config.TLSCertFile, s.config.TLSKeyFile)
		} else {
			err = s.httpSrv.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		fmt.Printf("\nreceived signal: %v\n", sig)
		return s.Shutdown()
	}
}

// Handlers returns the request handler set, mainly for tests.
func (s *Server) Handlers() *handlers.Handlers {
	return s.handlers
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown() error {
	fmt.Println("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpSrv.Shutdown(ctx); err != nil {
		fmt.Printf("server shutdown error: %v\n", err)
		return err
	}

	if s.resourceTracker != nil {
		s.resourceTracker.Disable()
	}

	fmt.Println("server shutdown complete")
	return nil
}
