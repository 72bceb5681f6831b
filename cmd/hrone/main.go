package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/manish6022/hrone-sub000/internal/api"
	"github.com/manish6022/hrone-sub000/internal/app"
	"github.com/manish6022/hrone-sub000/internal/audit"
	"github.com/manish6022/hrone-sub000/internal/auth"
	"github.com/manish6022/hrone-sub000/internal/guard"
	"github.com/manish6022/hrone-sub000/internal/observability"
	"github.com/manish6022/hrone-sub000/internal/platform/cache"
	"github.com/manish6022/hrone-sub000/internal/platform/db"
	"github.com/manish6022/hrone-sub000/internal/rbac"
	"github.com/manish6022/hrone-sub000/internal/session"
	"github.com/manish6022/hrone-sub000/internal/shared"
	"github.com/manish6022/hrone-sub000/internal/token"
	"github.com/manish6022/hrone-sub000/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, revocation checks disabled", slog.Any("error", err))
		redisClient = nil
	}
	defer func() {
		if redisClient != nil {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}
	}()

	codec := token.NewCodec()
	eval := rbac.NewEvaluator()
	metrics := observability.NewMetrics()
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret, cfg.IsProduction())
	revocations := session.NewRevocationList(redisClient)
	recorder := audit.NewRecorder(pool)

	store := session.NewStore(codec, eval, session.Config{
		CookieTTL: cfg.CookieTTL(),
		Secure:    cfg.IsProduction(),
	})
	monitor := session.NewMonitor(store, cfg.LivenessInterval, func() {
		logger.Info("held session expired, state torn down")
	})
	monitor.Start()
	defer monitor.Stop()

	edge := guard.New(guard.DefaultConfig(), codec, eval, logger, metrics, recorder)

	protectDeps := api.Deps{
		Codec:       codec,
		Evaluator:   eval,
		CSRF:        csrfManager,
		Revocations: revocations,
		Limiter:     api.NewRateLimiter(),
		Logger:      logger,
	}

	provider := auth.NewHTTPProvider(cfg.IdentityURL)
	authService := auth.NewService(provider, codec, revocations)
	authHandler := auth.NewHandler(logger, authService, store, csrfManager, eval, recorder, protectDeps)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger: logger,
		Config: cfg,
		Middleware: app.MiddlewareConfig{
			Config:  cfg,
			Guard:   edge,
			Metrics: metrics,
		},
		AuthHandler: authHandler,
		JobHandler:  jobHandler,
		Metrics:     metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server", slog.Any("error", err))
		os.Exit(1)
	}
}
