// Package http serves the JSON API plus health, readiness and metrics.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/agri-assist-service/internal/chat"
	"github.com/couchcryptid/agri-assist-service/internal/fallback"
	"github.com/couchcryptid/agri-assist-service/internal/service"
	"github.com/couchcryptid/agri-assist-service/internal/session"
)

// Services are the handlers' collaborators.
type Services struct {
	Weather   *service.Weather
	Market    *service.Market
	Pest      *service.Pest
	Fallback  *fallback.Service
	Assistant *chat.Assistant
	Sessions  *session.Store
}

// Server exposes the API and the health, readiness, and metrics endpoints.
type Server struct {
	httpServer     *http.Server
	svc            Services
	requestTimeout time.Duration
	logger         *slog.Logger
}

// NewServer creates an HTTP server. Every /api/v1 request is bounded by requestTimeout.
func NewServer(addr string, ready sharedobs.ReadinessChecker, svc Services, requestTimeout time.Duration, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: requestTimeout + 5*time.Second,
			IdleTimeout:  60 * time.Second,
		},
		svc:            svc,
		requestTimeout: requestTimeout,
		logger:         logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	api := http.NewServeMux()
	api.HandleFunc("POST /api/v1/session", s.handleLogin)
	api.HandleFunc("GET /api/v1/session", s.handleCurrentSession)
	api.HandleFunc("DELETE /api/v1/session", s.handleLogout)

	api.HandleFunc("GET /api/v1/weather/current", s.handleCurrentWeather)
	api.HandleFunc("GET /api/v1/weather/forecast", s.handleForecast)
	api.HandleFunc("GET /api/v1/weather/alerts", s.handleAlerts)
	api.HandleFunc("GET /api/v1/market/prices", s.handleMarketPrices)
	api.HandleFunc("GET /api/v1/crops/recommendations", s.handleCropRecommendations)
	api.HandleFunc("POST /api/v1/pests/detect", s.handleDetectPest)
	api.HandleFunc("POST /api/v1/pests/simulate", s.handleSimulatePest)

	api.HandleFunc("POST /api/v1/chat", s.handleChat)
	api.HandleFunc("POST /api/v1/voice", s.handleChat)
	api.HandleFunc("GET /api/v1/chat/{id}", s.handleChatHistory)

	api.HandleFunc("GET /api/v1/community/posts", s.handleCommunityPosts)
	api.HandleFunc("GET /api/v1/tips", s.handleTips)
	api.HandleFunc("GET /api/v1/translate", s.handleTranslate)

	mux.Handle("/api/v1/", s.withTimeout(s.requireSession(api)))

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
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

func (s *Server) withTimeout(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout)
		defer cancel()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
