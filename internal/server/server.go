package server

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/rs/zerolog"

	"github.com/logify-sh/logify/internal/auth"
	"github.com/logify-sh/logify/internal/clock"
	"github.com/logify-sh/logify/internal/config"
	"github.com/logify-sh/logify/internal/observability"
	"github.com/logify-sh/logify/internal/quota"
	"github.com/logify-sh/logify/internal/ratelimit"
	"github.com/logify-sh/logify/internal/repository"
	"github.com/logify-sh/logify/internal/response"
)

// Server holds the Echo app and dependencies.
type Server struct {
	Echo   *echo.Echo
	Config *config.Config
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// New builds the Echo server and wires the ingestion pipeline.
// Caller must provide a non-nil pool.
func New(cfg *config.Config, pool *pgxpool.Pool, logger zerolog.Logger, app *newrelic.Application) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover(), middleware.Logger(), observability.Middleware(app))

	clk := clock.System{}
	keys := repository.NewAPIKeyRepository(pool)
	logs := repository.NewLogRepository(pool)

	var limiter ratelimit.Limiter
	switch cfg.RateLimit.Backend {
	case "memory":
		// Degraded mode: accurate only within one process. The default
		// postgres backend is what holds across scaled instances.
		limiter = ratelimit.NewMemoryLimiter(cfg.RateLimit.Limit, cfg.RateLimit.Window(), clk)
	default:
		limiter = ratelimit.NewPostgresLimiter(pool, cfg.RateLimit.Limit, cfg.RateLimit.Window(), clk)
	}

	ingestHandler := &IngestHandler{
		Auth:         auth.NewResolver(keys, clk, logger),
		Limiter:      limiter,
		Quota:        quota.NewOracle(logs, clk),
		Logs:         logs,
		RateLimit:    cfg.RateLimit.Limit,
		MonthlyLimit: cfg.Quota.MonthlyLogLimit,
		StoreTimeout: time.Duration(cfg.Server.StoreTimeout) * time.Second,
		Clock:        clk,
		Logger:       logger,
	}

	e.POST("/v1/logs", ingestHandler.Create)

	e.GET("/healthz", func(c echo.Context) error {
		if err := pool.Ping(c.Request().Context()); err != nil {
			return response.InternalError(c, "database unreachable", err.Error())
		}
		return c.JSON(200, map[string]string{"status": "ok"})
	})

	return &Server{Echo: e, Config: cfg, pool: pool, logger: logger}
}

// Start starts the HTTP server. Blocks until the context is cancelled or
// the server fails. On context cancel, Shutdown drains in-flight requests.
func (s *Server) Start(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = s.Shutdown(shutdownCtx)
	}()
	addr := ":" + s.Config.Server.Port
	s.Echo.Server.ReadTimeout = time.Duration(s.Config.Server.ReadTimeout) * time.Second
	s.Echo.Server.WriteTimeout = time.Duration(s.Config.Server.WriteTimeout) * time.Second
	s.Echo.Server.IdleTimeout = time.Duration(s.Config.Server.IdleTimeout) * time.Second
	return s.Echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.Echo.Shutdown(ctx)
}
