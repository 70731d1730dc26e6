package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"mollie-gateway/internal/application"
	"mollie-gateway/internal/config"
	"mollie-gateway/internal/domain/ports/repository"
	"mollie-gateway/internal/infra/redis"
)

// Server exposes the registered gateway modules to the billing host and
// their providers.
type Server struct {
	registry *application.Registry
	auth     *AuthManager
	logs     repository.GatewayLogRepository
	limiter  Limiter
	cfg      config.HTTPConfig
	validate *validator.Validate
	log      *zerolog.Logger
}

// NewServer constructs the HTTP layer. logs and limiter may be nil; the log
// route and rate limiting are then disabled.
func NewServer(
	registry *application.Registry,
	auth *AuthManager,
	logs repository.GatewayLogRepository,
	limiter Limiter,
	cfg config.HTTPConfig,
	logger *zerolog.Logger,
) *Server {
	if logger == nil {
		n := zerolog.Nop()
		logger = &n
	}
	return &Server{
		registry: registry,
		auth:     auth,
		logs:     logs,
		limiter:  limiter,
		cfg:      cfg,
		validate: newValidator(),
		log:      logger,
	}
}

// Router builds the chi route tree.
//
//	GET      /health
//	GET      /metrics
//	GET|POST /modules/gateways/{module}/callback.php   provider webhook
//	GET|POST /gateways/{module}/config                 host, bearer token
//	POST     /gateways/{module}/link                   host, bearer token
//	POST     /gateways/{module}/refund                 host, bearer token
//	GET      /gateways/{module}/log                    host, bearer token
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(
		TraceID(),
		RequestLog(s.log),
		Metrics(),
		Recover(s.log),
		Timeout(s.requestTimeout()),
	)

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(RateLimit(s.limiter, routeKey("callback"), s.cfg.RateLimit, s.cfg.RateWindow, s.log))
		r.Get("/modules/gateways/{module}/callback.php", s.handleCallback)
		r.Post("/modules/gateways/{module}/callback.php", s.handleCallback)
	})

	r.Group(func(r chi.Router) {
		r.Use(
			s.auth.Require(s.log, moduleParam),
			RateLimit(s.limiter, routeKey("dispatch"), s.cfg.RateLimit, s.cfg.RateWindow, s.log),
		)
		r.Get("/gateways/{module}/config", s.handleConfig)
		r.Post("/gateways/{module}/config", s.handleConfig)
		r.Post("/gateways/{module}/link", s.handleLink)
		r.Post("/gateways/{module}/refund", s.handleRefund)
		r.Get("/gateways/{module}/log", s.handleLog)
	})
	return r
}

// Handler wraps Router in an http.Server configured from cfg.
func (s *Server) Handler() *http.Server {
	return &http.Server{
		Addr:              addr(s.cfg.Port),
		Handler:           s.Router(),
		ReadTimeout:       s.cfg.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      s.cfg.WriteTimeout,
	}
}

func (s *Server) requestTimeout() time.Duration {
	if s.cfg.RequestTimeout > 0 {
		return s.cfg.RequestTimeout
	}
	return 15 * time.Second
}

func moduleParam(r *http.Request) string { return chi.URLParam(r, "module") }

func routeKey(route string) func(r *http.Request) string {
	return func(r *http.Request) string { return redis.RouteKey(route, clientIP(r)) }
}
