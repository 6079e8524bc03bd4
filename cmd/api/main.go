package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"pix-link-gateway/config"
	"pix-link-gateway/internal/adapter/gateway/mercadopago"
	httpHandler "pix-link-gateway/internal/adapter/http/handler"
	pgStorage "pix-link-gateway/internal/adapter/storage/postgres"
	redisStorage "pix-link-gateway/internal/adapter/storage/redis"
	"pix-link-gateway/internal/core/ports"
	"pix-link-gateway/internal/service"
	"pix-link-gateway/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Msg("Starting Pix Link Gateway")

	gin.SetMode(cfg.Server.Mode)

	ctx := context.Background()

	// Initialize PostgreSQL pool
	pool, err := pgStorage.NewPool(ctx, cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()
	log.Info().Msg("PostgreSQL connected")

	// Initialize Redis client
	rdb, err := redisStorage.NewClient(ctx, cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()
	log.Info().Msg("Redis connected")

	// Initialize repositories
	linkRepo := pgStorage.NewLinkRepository(pool)
	merchantRepo := pgStorage.NewMerchantRepository(pool)
	notificationRepo := pgStorage.NewNotificationRepository(pool)

	// Initialize Redis stores
	notificationGuard := redisStorage.NewNotificationGuard(rdb)
	rateLimitStore := redisStorage.NewRateLimitStore(rdb)

	// Initialize core services
	encSvc, err := service.NewEncryptionService(cfg.AES.Key)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize encryption service")
	}
	hashSvc := service.NewHashService()
	tokenSvc := service.NewTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)
	notifier := service.NewNotifier(log)

	// Initialize the Mercado Pago client
	mpClient := mercadopago.New(cfg.Gateway.BaseURL, cfg.Gateway.AppURL, cfg.Gateway.Timeout, log)

	// Initialize business services
	authSvc := service.NewAuthService(merchantRepo, hashSvc, encSvc, tokenSvc, log)
	linkSvc := service.NewLinkService(
		linkRepo,
		merchantRepo,
		mpClient,
		encSvc,
		notifier,
		cfg.Link.Validity,
		cfg.Link.MaxAmount,
		log,
	)
	reconciler := service.NewReconciler(
		linkRepo,
		notificationRepo,
		merchantRepo,
		mpClient,
		encSvc,
		notifier,
		notificationGuard,
		log,
	)

	// Initialize health checkers
	pgHealth := pgStorage.NewHealthCheck(pool)
	redisHealth := redisStorage.NewHealthCheck(rdb)

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		Auth:       authSvc,
		Links:      linkSvc,
		Reconciler: reconciler,
		Notifier:   notifier,
		Tokens:     tokenSvc,
		RateLimits: rateLimitStore,
		Health:     []ports.HealthChecker{pgHealth, redisHealth},
		Log:        log,
	})

	// HTTP Server with graceful shutdown
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
