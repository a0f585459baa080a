package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/couchcryptid/chronic-disease-etl/internal/domain"
	"github.com/couchcryptid/chronic-disease-etl/internal/observability"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ForecastStore is the read side of the loaded artifact.
type ForecastStore interface {
	List(ctx context.Context) ([]domain.StateRow, error)
	Get(ctx context.Context, state string) (domain.StateRow, error)
}

// Server exposes health, readiness and metrics endpoints, plus the forecast
// query API when a store is configured.
type Server struct {
	httpServer *http.Server
	store      ForecastStore
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewServer creates an HTTP server. A nil store serves only the operational
// routes.
func NewServer(addr string, ready sharedobs.ReadinessChecker, store ForecastStore, metrics *observability.Metrics, logger *slog.Logger) *Server {
	r := chi.NewRouter()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      r,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		store:   store,
		metrics: metrics,
		logger:  logger,
	}

	r.Use(middleware.Recoverer)
	r.Get("/healthz", sharedobs.LivenessHandler())
	r.Get("/readyz", sharedobs.ReadinessHandler(ready))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	if store != nil {
		r.Route("/api/forecasts", func(r chi.Router) {
			r.Use(s.countRequests)
			r.Get("/", s.listForecasts)
			r.Get("/{state}", s.getForecast)
		})
	}

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr, "api", s.store != nil)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

type listResponse struct {
	Count     int               `json:"count"`
	Forecasts []domain.StateRow `json:"forecasts"`
}

func (s *Server) listForecasts(w http.ResponseWriter, r *http.Request) {
	rows, err := s.store.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if rows == nil {
		rows = []domain.StateRow{}
	}
	sharedobs.WriteJSON(w, http.StatusOK, listResponse{Count: len(rows), Forecasts: rows})
}

func (s *Server) getForecast(w http.ResponseWriter, r *http.Request) {
	row, err := s.store.Get(r.Context(), chi.URLParam(r, "state"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, row)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, domain.ErrNotFound) {
		sharedobs.WriteJSON(w, http.StatusNotFound, map[string]string{"error": "state not found"})
		return
	}
	s.logger.Error("forecast query failed", "path", r.URL.Path, "error", err)
	sharedobs.WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
}

// countRequests records API requests by route pattern and status.
func (s *Server) countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	})
}
