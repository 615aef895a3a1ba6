package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bulkmart/internal/auth"
	"bulkmart/internal/config"
	"bulkmart/internal/content"
	"bulkmart/internal/database"
	"bulkmart/internal/handler"
	"bulkmart/internal/localstore"
	"bulkmart/internal/notify"
	"bulkmart/internal/repository"
	"bulkmart/internal/router"
	"bulkmart/internal/service"
	"bulkmart/internal/session"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Logger)
	logger.Info().Msg("starting bulkmart API server")

	// Create context for application lifecycle
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection pool
	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	if cfg.Database.AutoMigrate {
		if err := repository.Migrate(ctx, pool); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
		logger.Info().Msg("database schema applied")
	}

	// Initialize repositories
	productRepo := repository.NewProductRepository(pool, logger)
	categoryRepo := repository.NewCategoryRepository(pool, logger)
	orderRepo := repository.NewOrderRepository(pool, logger)
	returnRepo := repository.NewReturnRepository(pool, logger)
	userRepo := repository.NewUserRepository(pool, logger)

	// Session-durable storage: Redis when configured, process memory otherwise
	store, redisClient := newSessionStore(ctx, cfg.Redis, logger)
	if redisClient != nil {
		defer redisClient.Close()
	}

	provider := auth.NewLocalProvider(userRepo, store, auth.Config{
		JWTSecret:     cfg.Auth.JWTSecret,
		Issuer:        "bulkmart",
		TokenTTL:      cfg.Auth.TokenTTL,
		MaxAttempts:   cfg.Auth.MaxLoginAttempts,
		AttemptWindow: cfg.Auth.LoginWindow,
	}, logger)

	sessions := session.NewRegistry(store, provider, productRepo, session.Config{
		PageSize: cfg.Catalog.PageSize,
		IdleTTL:  cfg.Catalog.SessionIdleTTL,
	}, logger)
	defer sessions.Close()
	go sessions.Run(ctx)

	// Homepage content loader with S3 and local fallback
	fileLoader := content.NewFileLoader(logger)
	var s3Loader content.Loader
	if cfg.S3.Enabled {
		s3Loader, err = content.NewS3Loader(ctx, cfg.S3.Bucket, cfg.S3.Region, logger)
		if err != nil {
			logger.Warn().
				Err(err).
				Msg("failed to initialise S3 loader, falling back to local file system only")
			s3Loader = nil
		}
	} else {
		logger.Info().Msg("using local file system for homepage content (S3 disabled)")
	}
	contentLoader := content.NewFallbackLoader(s3Loader, fileLoader, cfg.S3.Prefix, s3Loader != nil, logger)

	// Change signals between instances
	var natsConn *nats.Conn
	if cfg.NATS.Enabled {
		natsConn, err = notify.Connect(notify.NATSConfig{
			URL:           cfg.NATS.URL,
			Name:          "bulkmart-api",
			SubjectPrefix: cfg.NATS.SubjectPrefix,
			ReloadTimeout: cfg.NATS.ReloadTimeout,
		}, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize change bridge: %w", err)
		}
		defer natsConn.Drain()
	}
	bridge := notify.NewBridge(natsConn, cfg.NATS.SubjectPrefix, cfg.NATS.ReloadTimeout, logger)
	defer bridge.Close()

	// Initialize services
	catalogService := service.NewCatalogService(productRepo, categoryRepo, contentLoader, sessions, service.CatalogConfig{
		FeaturedLimit: cfg.Catalog.FeaturedLimit,
		ContentPath:   cfg.Catalog.ContentPath,
	}, logger)
	defer catalogService.Close()
	cartService := service.NewCartService(productRepo, sessions, logger)
	accountService := service.NewAccountService(sessions, logger)
	orderService := service.NewOrderService(orderRepo, returnRepo, productRepo, sessions, bridge, logger)
	adminService := service.NewAdminService(productRepo, categoryRepo, orderRepo, returnRepo, bridge, logger)

	bridge.Handle(notify.TopicProducts, catalogService.ReloadFeatured)
	bridge.Handle(notify.TopicCategories, catalogService.ReloadCategories)
	bridge.Handle(notify.TopicContent, catalogService.ReloadContent)
	if err := bridge.Start(); err != nil {
		return fmt.Errorf("failed to start change bridge: %w", err)
	}

	// Warm the caches; failures fall back to built-in data on first read
	warmCaches(ctx, catalogService, logger)

	// Initialize HTTP handlers
	handlers := router.Handlers{
		Catalog: handler.NewCatalogHandler(catalogService, logger),
		Cart:    handler.NewCartHandler(cartService, logger),
		Account: handler.NewAccountHandler(accountService, logger),
		Order:   handler.NewOrderHandler(orderService, logger),
		Admin:   handler.NewAdminHandler(adminService, logger),
	}

	// Initialize router
	mux := router.New(handlers, accountService, cfg.Auth.APIKey, logger)

	// Create HTTP server. WriteTimeout stays zero so the content stream can
	// stay open; slow clients are bounded by ReadTimeout and IdleTimeout.
	server := &http.Server{
		Addr:              cfg.Server.Address(),
		Handler:           mux,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	// Shutdown waits for open connections; closing the content hub ends the
	// streams so they do not hold it up.
	server.RegisterOnShutdown(catalogService.Close)

	// Channel to listen for errors from the server
	serverErrors := make(chan error, 1)

	// Start HTTP server in a goroutine
	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	// Channel to listen for interrupt signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a signal or an error
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}

// newSessionStore connects the Redis store, or returns the in-memory store
// when Redis is disabled or unreachable.
func newSessionStore(ctx context.Context, cfg config.RedisConfig, logger zerolog.Logger) (localstore.Store, *redis.Client) {
	if !cfg.Enabled {
		logger.Info().Msg("using in-memory session store (redis disabled)")
		return localstore.NewMemoryStore(), nil
	}

	client, err := localstore.NewRedisClient(ctx, localstore.RedisConfig{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		Prefix:   cfg.Prefix,
		TTL:      cfg.TTL,
	})
	if err != nil {
		logger.Warn().
			Err(err).
			Msg("failed to connect to redis, sessions will not survive a restart")
		return localstore.NewMemoryStore(), nil
	}

	logger.Info().Str("addr", cfg.Addr).Msg("using redis session store")
	return localstore.NewRedisStore(client, cfg.Prefix, cfg.TTL, logger), client
}

func warmCaches(ctx context.Context, catalog service.CatalogService, logger zerolog.Logger) {
	for name, reload := range map[string]func(context.Context) error{
		"featured":   catalog.ReloadFeatured,
		"categories": catalog.ReloadCategories,
		"content":    catalog.ReloadContent,
	} {
		if err := reload(ctx); err != nil {
			logger.Warn().Err(err).Str("cache", name).Msg("initial cache load failed")
		}
	}
}
