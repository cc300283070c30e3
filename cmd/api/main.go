// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/minicms/internal/admin"
	"github.com/carterperez-dev/minicms/internal/article"
	"github.com/carterperez-dev/minicms/internal/auth"
	"github.com/carterperez-dev/minicms/internal/category"
	"github.com/carterperez-dev/minicms/internal/comment"
	"github.com/carterperez-dev/minicms/internal/config"
	"github.com/carterperez-dev/minicms/internal/core"
	"github.com/carterperez-dev/minicms/internal/health"
	"github.com/carterperez-dev/minicms/internal/mail"
	"github.com/carterperez-dev/minicms/internal/middleware"
	"github.com/carterperez-dev/minicms/internal/server"
	"github.com/carterperez-dev/minicms/internal/user"
)

const (
	drainDelay = 5 * time.Second
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

//nolint:funlen // bootstrap code is inherently verbose
func run(configPath string) error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Log)
	slog.SetDefault(logger)

	if err := core.SetLocale(cfg.App.Locale); err != nil {
		return err
	}

	logger.Info("starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
		"locale", cfg.App.Locale,
	)

	var telemetry *core.Telemetry
	if cfg.Otel.Enabled {
		tel, telErr := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
		if telErr != nil {
			logger.Warn("failed to initialize telemetry", "error", telErr)
		} else {
			telemetry = tel
			logger.Info("OpenTelemetry tracer initialized",
				"endpoint", cfg.Otel.Endpoint,
			)
		}
	}

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	logger.Info("database connected",
		"max_open_conns", cfg.Database.MaxOpenConns,
		"max_idle_conns", cfg.Database.MaxIdleConns,
	)

	if err := db.Migrate(); err != nil {
		return err
	}

	redis, err := core.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	logger.Info("redis connected",
		"pool_size", cfg.Redis.PoolSize,
	)

	if err := auth.EnsureKeyPair(cfg.JWT, cfg.IsProduction()); err != nil {
		return err
	}

	jwtManager, err := auth.NewJWTManager(cfg.JWT)
	if err != nil {
		return err
	}
	logger.Info("JWT manager initialized",
		"algorithm", "ES256",
		"key_id", jwtManager.GetKeyID(),
	)

	mailer := mail.NewMailer(cfg.Mail)
	if !mailer.Configured() {
		logger.Warn("smtp is not configured, verification codes cannot be sent")
	}

	userSvc := user.NewService(user.NewRepository(db.DB))
	userHandler := user.NewHandler(userSvc)

	otpSvc := auth.NewOTPService(
		auth.NewOTPRepository(db.DB),
		userSvc,
		mail.NewOTPSender(mailer),
		cfg.OTP,
	)
	authSvc := auth.NewService(
		auth.NewRepository(db.DB),
		otpSvc,
		jwtManager,
		userSvc,
		redis.Client,
	)
	authHandler := auth.NewHandler(authSvc)

	var articleSvc *article.Service
	categorySvc := category.NewService(
		category.NewRepository(db.DB),
		userSvc,
		func(ctx context.Context) {
			if articleSvc != nil {
				articleSvc.InvalidateCache(ctx)
			}
		},
	)
	articleSvc = article.NewService(
		article.NewRepository(db.DB),
		userSvc,
		categorySvc,
		article.NewRedisCache(redis, cfg.Articles.CacheTTL),
		cfg.Articles,
	)
	commentSvc := comment.NewService(
		comment.NewRepository(db.DB),
		userSvc,
		cfg.Comments,
	)

	if err := userSvc.BootstrapAdmin(ctx, cfg.Admin.BootstrapEmail); err != nil {
		return err
	}
	if _, err := categorySvc.EnsureUncategorized(ctx); err != nil {
		return err
	}

	oauthProviders := auth.InitProviders(cfg.OAuth, cfg.IsProduction())

	go auth.NewJanitor(authSvc, cfg.OTP.CleanupInterval, logger).Run(ctx)

	healthHandler := health.NewHandler(
		health.Check{Name: "database", Checker: db},
		health.Check{Name: "redis", Checker: redis},
		health.Check{Name: "smtp", Checker: mailer, Optional: true},
	)

	adminHandler := admin.NewHandler(admin.HandlerConfig{
		Articles:   articleSvc,
		Users:      userSvc,
		Comments:   commentSvc,
		DBStats:    db.Stats,
		RedisStats: redis.PoolStats,
		DBPing:     db.Ping,
		RedisPing:  redis.Ping,
	})

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: healthHandler,
		Logger:        logger,
	})

	router := srv.Router()

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(logger))
	if telemetry != nil {
		router.Use(telemetry.HTTPMiddleware(cfg.Otel.ServiceName))
	}
	router.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	router.Use(middleware.CORS(cfg.CORS))

	healthHandler.RegisterRoutes(router)

	router.Get("/.well-known/jwks.json", jwtManager.GetJWKSHandler())

	authenticator := middleware.Authenticator(authSvc)
	optionalAuth := middleware.OptionalAuth(authSvc)
	adminOnly := middleware.RequireAdmin

	endpointLimiter := func(perMinute int) func(next http.Handler) http.Handler {
		return middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
			Limit:    middleware.PerMinute(perMinute, perMinute),
			KeyFunc:  middleware.KeyByIPAndEndpoint,
			FailOpen: true,
		}).Handler
	}

	router.Route("/v1", func(r chi.Router) {
		r.Use(optionalAuth)
		r.Use(middleware.RoleRateLimiter(redis.Client, middleware.DefaultRoleLimits))

		authHandler.RegisterRoutes(r, authenticator, auth.Limiters{
			SendOTP:   endpointLimiter(cfg.OTP.SendLimitPerMinute),
			VerifyOTP: endpointLimiter(cfg.OTP.VerifyLimitPerMinute),
		}, len(oauthProviders) > 0)

		userHandler.RegisterRoutes(r, authenticator)
		userHandler.RegisterAdminRoutes(r, authenticator, adminOnly)

		article.NewHandler(articleSvc).RegisterRoutes(r, optionalAuth, authenticator)
		category.NewHandler(categorySvc).RegisterRoutes(r, authenticator)
		comment.NewHandler(commentSvc).RegisterRoutes(
			r,
			authenticator,
			endpointLimiter(cfg.Comments.CreateLimitPerMinute),
		)

		adminHandler.RegisterRoutes(r, authenticator, adminOnly)
	})

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		cfg.Server.ShutdownTimeout+drainDelay+5*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx, drainDelay); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}

	if err := redis.Close(); err != nil {
		logger.Error("redis close error", "error", err)
	}

	if err := db.Close(); err != nil {
		logger.Error("database close error", "error", err)
	}

	logger.Info("application stopped")
	return nil
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var handler slog.Handler

	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
