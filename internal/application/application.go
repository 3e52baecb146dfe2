package application

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/junekyoopark/ReUSV/internal/api"
	"github.com/junekyoopark/ReUSV/internal/config"
	"github.com/junekyoopark/ReUSV/internal/metrics"
	"github.com/junekyoopark/ReUSV/internal/packer"
	"github.com/junekyoopark/ReUSV/internal/trace"
)

// App encapsulates the application dependencies and HTTP server.
type App struct {
	store   *trace.MemoryStore
	metrics *metrics.Collector
	service *packer.Service
	handler *api.Handler
	router  http.Handler
	logger  *zap.Logger
	server  *http.Server
}

// New initializes the application with all dependencies from the provided configuration.
func New(cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		return nil, errors.New("logger is required")
	}

	store := trace.NewMemoryStore(cfg.RunCapacity)
	collector := metrics.NewCollector()
	service := packer.NewService(
		packer.WithStore(store),
		packer.WithLogger(logger),
		packer.WithMetrics(collector),
	)

	handler := api.NewHandler(service, store, api.WithDefaults(cfg.Solver, cfg.Separation))
	apiRouter := api.NewRouter(handler, logger,
		api.WithLogging(cfg.EnableRequestLogging),
		api.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
		api.WithRequestMetrics(collector),
	)

	return &App{
		store:   store,
		metrics: collector,
		service: service,
		handler: handler,
		router:  apiRouter,
		logger:  logger,
		server:  NewServer(cfg, BuildRootHandler(apiRouter, collector.Handler())),
	}, nil
}

// BuildRootHandler mounts the API under /api/ and the prometheus scrape
// endpoint at /metrics. Scrapes bypass the API rate limiter.
func BuildRootHandler(apiHandler, metricsHandler http.Handler) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/api/", apiHandler)
	if metricsHandler != nil {
		mux.Handle("GET /metrics", metricsHandler)
	}
	mux.Handle("/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		http.Redirect(w, r, "/api/health", http.StatusFound)
	}))
	return mux
}

// NewServer creates and configures an HTTP server from the provided configuration.
func NewServer(cfg config.Config, handler http.Handler) *http.Server {
	addr := cfg.Port
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}

// Start starts the HTTP server in a goroutine and logs the listening address.
func (a *App) Start() error {
	go func() {
		a.logger.Info("server listening", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Fatal("server error", zap.Error(err))
		}
	}()
	return nil
}

// Server returns the HTTP server instance for shutdown handling.
func (a *App) Server() *http.Server {
	return a.server
}

// Handler returns the root handler served by Server.
func (a *App) Handler() http.Handler {
	return a.server.Handler
}
