package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/platinummonkey/hrportal/pkg/api"
	"github.com/platinummonkey/hrportal/pkg/config"
	"github.com/platinummonkey/hrportal/pkg/guard"
	"github.com/platinummonkey/hrportal/pkg/middleware"
	"github.com/platinummonkey/hrportal/pkg/observability"
	"github.com/platinummonkey/hrportal/pkg/permissions"
	"github.com/platinummonkey/hrportal/pkg/rbac"
	"github.com/platinummonkey/hrportal/pkg/routes"
	"github.com/platinummonkey/hrportal/pkg/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
)

var issueSession = flag.String("issue-session", "", "Issue a session for the given user id, print its token and exit")

func main() {
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)

	if err := run(cfg, logger); err != nil {
		logger.WithError(err).Fatal("hrportal exited")
	}
}

func run(cfg *config.Config, logger *logrus.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := openDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	logger.WithField("driver", cfg.Database.Driver).Info("Database connected")

	var metrics *observability.Metrics
	if cfg.Observability.MetricsEnabled {
		registry := prometheus.NewRegistry()
		registry.MustRegister(collectors.NewGoCollector(), collectors.NewDBStatsCollector(db, cfg.Database.Driver))
		metrics = observability.NewMetrics(registry)
	}

	var (
		store       session.Store
		redisClient *redis.Client
		limiter     middleware.Limiter
		reaper      *session.Reaper
	)
	limits := middleware.RateLimitConfig{
		RequestsPerWindow: cfg.RateLimit.RequestsPerMinute,
		WindowDuration:    time.Minute,
		BurstSize:         cfg.RateLimit.Burst,
	}
	switch cfg.Sessions.Backend {
	case config.SessionBackendRedis:
		redisClient, err = session.NewRedisClient(ctx, cfg.Sessions.RedisURL, cfg.Sessions.RedisPoolSize)
		if err != nil {
			return err
		}
		store = session.NewRedisStore(redisClient)
		limiter = middleware.NewDistributedRateLimiter(redisClient, limits, "")
		logger.Info("Using Redis session store")
	default:
		memory := session.NewMemoryStore()
		store = memory
		reaper, err = session.NewReaper(memory, cfg.Sessions.ReapSchedule, logger, metrics)
		if err != nil {
			return err
		}
		local := middleware.NewRateLimiter(limits)
		local.StartCleanup(ctx)
		limiter = local
		logger.Info("Using in-memory session store")
	}
	if !cfg.RateLimit.Enabled {
		limiter = nil
	}

	sessions := session.NewProvider(store, session.NewSQLProfileStore(db), session.Config{
		SessionTTL:  cfg.Sessions.TTL,
		GracePeriod: cfg.Sessions.GracePeriod,
		LoadTimeout: cfg.Sessions.LoadTimeout,
	}, logger)

	if *issueSession != "" {
		s, err := sessions.Issue(ctx, *issueSession)
		if err != nil {
			return err
		}
		fmt.Println(s.Token)
		return nil
	}

	table, err := loadRoutes(ctx, cfg.Routes, logger)
	if err != nil {
		return err
	}

	tp, err := observability.InitTracing(ctx, observability.TracingConfig{
		Enabled:        cfg.Observability.OTelEnabled,
		Endpoint:       cfg.Observability.OTelEndpoint,
		ServiceName:    cfg.Observability.OTelServiceName,
		ServiceVersion: cfg.Observability.OTelServiceVersion,
		Insecure:       cfg.Observability.OTelInsecure,
	}, logger)
	if err != nil {
		return err
	}

	perms := permissions.NewProvider(permissions.NewSQLStore(db), permissions.Config{
		CacheSize:    cfg.Permissions.CacheSize,
		CacheTTL:     cfg.Permissions.CacheTTL,
		Wait:         cfg.Permissions.Wait,
		FetchTimeout: cfg.Permissions.FetchTimeout,
	}, logger, metrics)

	resolvers, err := rbac.NewResolverPool(cfg.Permissions.ResolverPoolSize, logger, metrics)
	if err != nil {
		return err
	}

	g := guard.New(table, logger, guard.WithHomeRoute(cfg.Routes.HomeRoute), guard.WithMetrics(metrics))
	watcher, err := guard.NewExpiryWatcher(sessions.ForceLogout, logger, metrics)
	if err != nil {
		return err
	}
	gate := middleware.NewGate(sessions, perms, resolvers, g, watcher, middleware.GateConfig{
		SessionCookie: cfg.Sessions.SessionCookie,
		RetryAfter:    cfg.Permissions.RetryAfter,
		SecureCookies: cfg.Sessions.SecureCookies,
	}, logger)

	server := api.NewServer(api.Deps{
		Gate:         gate,
		Sessions:     sessions,
		Permissions:  perms,
		Routes:       table,
		Health:       observability.NewHealthChecker(db, redisClient),
		Metrics:      metrics,
		Logger:       logger,
		RateLimiter:  limiter,
		ClientCookie: cfg.Sessions.ClientCookie,
		Secure:       cfg.Sessions.SecureCookies,
	})

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      server.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdown := observability.NewShutdownManager(logger, httpServer, cfg.Server.ShutdownTimeout)
	shutdown.RegisterShutdownFunc(func(ctx context.Context) error {
		return db.Close()
	})
	if redisClient != nil {
		shutdown.RegisterShutdownFunc(func(ctx context.Context) error {
			return redisClient.Close()
		})
	}
	if tp != nil {
		shutdown.RegisterShutdownFunc(tp.Shutdown)
	}
	if reaper != nil {
		reaper.Start()
		shutdown.RegisterShutdownFunc(reaper.Stop)
	}
	shutdown.RegisterShutdownFunc(func(ctx context.Context) error {
		cancel()
		return nil
	})

	go func() {
		logger.WithField("addr", httpServer.Addr).Info("Starting hrportal")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("HTTP server failed")
		}
	}()

	return shutdown.WaitForShutdown()
}

func openDatabase(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open(cfg.Driver, cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

func loadRoutes(ctx context.Context, cfg config.RouteConfig, logger logrus.FieldLogger) (*routes.Table, error) {
	if cfg.File == "" {
		return routes.DefaultTable(), nil
	}
	table, err := routes.LoadFile(cfg.File)
	if err != nil {
		return nil, err
	}
	logger.WithField("route_file", cfg.File).WithField("routes", len(table.Routes())).Info("Route table loaded")

	if cfg.Watch {
		if _, err := routes.Watch(ctx, cfg.File, table, logger); err != nil {
			return nil, err
		}
	}
	return table, nil
}
