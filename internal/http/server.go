package http

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	echoMid "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/jmehdipour/typed-rpc/internal/audit"
	"github.com/jmehdipour/typed-rpc/internal/config"
	"github.com/jmehdipour/typed-rpc/internal/http/middleware"
	"github.com/jmehdipour/typed-rpc/internal/metrics"
	"github.com/jmehdipour/typed-rpc/internal/rpc"
	"github.com/jmehdipour/typed-rpc/internal/util"
)

// Deps are the collaborators of the HTTP server. Redis and Calls are
// optional.
type Deps struct {
	Registry *rpc.Registry
	Logger   *zap.Logger
	Metrics  *metrics.Metrics
	Redis    *redis.Client
	Calls    audit.CallsRepository
}

type Server struct {
	e   *echo.Echo
	log *zap.Logger
}

func NewServer(cfg config.Config, d Deps) *Server {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Metrics == nil {
		d.Metrics = metrics.New()
	}

	// echo
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = cfg.HTTP.ReadTimeout
	e.Server.WriteTimeout = cfg.HTTP.WriteTimeout
	e.Use(
		echoMid.Recover(),
		echoMid.RequestIDWithConfig(echoMid.RequestIDConfig{Generator: util.NewID}),
		echoMid.Logger(),
	)

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// health
	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

	// middlewares
	rlMW := middleware.RateLimitMiddleware(middleware.RateLimitConfig{
		Redis:          d.Redis,
		RPS:            cfg.RateLimit.RPS,
		KeyPrefix:      "rl:ip:",
		RetryAfterHint: true,
	})

	// routes
	g := e.Group("/rpc", echoMid.BodyLimit("1M"), rlMW)
	g.GET("", catalogueHandler(d.Registry))
	g.POST("", batchHandler(d.Registry, d.Metrics, d.Logger))
	g.POST("/:procedure", callHandler(d.Registry, d.Metrics, d.Logger))

	if d.Calls != nil {
		admin := rpc.ContextBuilder{AdminCredential: cfg.Auth.AdminCredential}
		e.GET("/reports/calls", listCallsHandler(admin, d.Calls, d.Logger))
	}

	return &Server{e: e, log: d.Logger}
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler { return s.e }

func (s *Server) Start(addr string) error {
	s.log.Info("server is running", zap.String("addr", addr))
	return s.e.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error { return s.e.Shutdown(ctx) }
