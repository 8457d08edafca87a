package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dariamatveeva/beautycare-backend/api/middleware"
	"github.com/dariamatveeva/beautycare-backend/api/routes"
	"github.com/dariamatveeva/beautycare-backend/internal/affiliates"
	"github.com/dariamatveeva/beautycare-backend/internal/cart"
	"github.com/dariamatveeva/beautycare-backend/internal/catalog"
	"github.com/dariamatveeva/beautycare-backend/internal/flows"
	"github.com/dariamatveeva/beautycare-backend/internal/profiles"
	"github.com/dariamatveeva/beautycare-backend/internal/recommend"
	"github.com/dariamatveeva/beautycare-backend/internal/sources"
	"github.com/dariamatveeva/beautycare-backend/pkg/config"
	"github.com/dariamatveeva/beautycare-backend/pkg/instance"
	"github.com/dariamatveeva/beautycare-backend/pkg/logger"
	"github.com/dariamatveeva/beautycare-backend/pkg/metrics"
	"github.com/dariamatveeva/beautycare-backend/pkg/pidlock"
	"github.com/dariamatveeva/beautycare-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	// One writer per data dir: the cart and profile stores are plain files.
	lock, err := pidlock.Acquire(cfg.Data.PIDFilePath)
	if err != nil {
		logg.Error(context.Background(), "another instance is already running", err)
		os.Exit(1)
	}
	defer func() {
		if err := lock.Release(); err != nil {
			logg.Error(context.Background(), "error releasing pid lock", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	platformMetrics := metrics.NewPlatformMetrics(registry)

	catalogStore, err := catalog.NewStore(ctx, logg, cfg.Catalog.Path)
	if err != nil {
		logg.Error(ctx, "failed to load catalog", err)
		os.Exit(1)
	}

	profileStore, err := profiles.NewStore(cfg.Data.ProfilesDir(), logg)
	if err != nil {
		logg.Error(ctx, "failed to create profile store", err)
		os.Exit(1)
	}

	cartStore, err := cart.NewStore(cfg.Data.CartsDir(), cfg.Cart.UndoTTL, logg)
	if err != nil {
		logg.Error(ctx, "failed to create cart store", err)
		os.Exit(1)
	}

	affiliateService := affiliates.NewService(cfg.Partner)
	resolver := sources.NewResolver(logg)

	selector, err := recommend.NewService(recommend.ServiceParams{
		Affiliates: affiliateService,
		Metrics:    platformMetrics,
		Logger:     logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create selector", err)
		os.Exit(1)
	}

	cartService, err := cart.NewService(cart.ServiceParams{
		Catalog:    catalogStore,
		Store:      cartStore,
		Affiliates: affiliateService,
		Metrics:    platformMetrics,
		Logger:     logg,
		Config:     cfg.Cart,
	})
	if err != nil {
		logg.Error(ctx, "failed to create cart service", err)
		os.Exit(1)
	}

	coordinator, err := flows.NewCoordinator(flows.CoordinatorParams{
		Config:  cfg.Sessions,
		Metrics: platformMetrics,
		Logger:  logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create flow coordinator", err)
		os.Exit(1)
	}

	sweeper, err := flows.NewSweeper(coordinator, cfg.Sessions, platformMetrics, logg)
	if err != nil {
		logg.Error(ctx, "failed to create session sweeper", err)
		os.Exit(1)
	}
	go sweeper.Run(ctx)

	var limiter middleware.Limiter = middleware.NewLocalLimiter()
	var redisPinger interface{ Ping(context.Context) error }
	if cfg.Redis.Enabled() {
		redisClient, err := redis.New(ctx, cfg.Redis)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(ctx, "error closing redis", err)
			}
		}()
		limiter = redisClient
		redisPinger = redisClient
	}

	router := routes.NewRouter(routes.Deps{
		Config:          cfg,
		Logger:          logg,
		Catalog:         catalogStore,
		Profiles:        profileStore,
		Coordinator:     coordinator,
		CartService:     cartService,
		Selector:        selector,
		Resolver:        resolver,
		Limiter:         limiter,
		RedisPinger:     redisPinger,
		MetricsGatherer: registry,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	sctx := logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID(),
	})
	logg.Info(sctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(sctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logg.Info(sctx, "shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(sctx, "graceful shutdown failed", err)
		}
	}
}
