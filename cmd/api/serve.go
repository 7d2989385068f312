package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"

	"github.com/redmonkez12/identity-api/internal/auth"
	"github.com/redmonkez12/identity-api/internal/config"
	"github.com/redmonkez12/identity-api/internal/database"
	httpServer "github.com/redmonkez12/identity-api/internal/http"
	"github.com/redmonkez12/identity-api/internal/logging"
	"github.com/redmonkez12/identity-api/internal/password"
	"github.com/redmonkez12/identity-api/internal/token"
	"github.com/redmonkez12/identity-api/internal/user"
)

func runServe(cmd *cobra.Command, _ []string) error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	logger := logging.NewLogger(cfg.Server.IsDevelopment())
	logger.Info("starting application",
		"env", cfg.Server.Env,
		"port", cfg.Server.Port,
		"token_format", cfg.Auth.TokenFormat,
		"password_hasher", cfg.Auth.PasswordHasher,
	)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	// Initialize database connection
	db, err := initDB(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := database.CreateSchema(ctx, db); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
		logger.Info("database schema ready")
	}

	// Initialize repositories
	var store user.Store = user.NewRepository(db)
	if cfg.Redis.Enabled {
		redisClient, err := initRedis(ctx, cfg.Redis)
		if err != nil {
			return fmt.Errorf("failed to initialize Redis: %w", err)
		}
		defer redisClient.Close()

		store = user.NewCachedRepository(store, redisClient, cfg.Identity.UserCacheTTL, logger)
		logger.Info("user cache enabled", "ttl", cfg.Identity.UserCacheTTL.String())
	}

	// Initialize credential and token services
	hasher, err := password.New(cfg.Auth.PasswordHasher, cfg.Auth.BcryptCost)
	if err != nil {
		return fmt.Errorf("failed to initialize password hasher: %w", err)
	}

	codec, err := newTokenCodec(cfg.Auth)
	if err != nil {
		return fmt.Errorf("failed to initialize token codec: %w", err)
	}
	tokens := token.NewService(codec, token.WithValidity(cfg.Auth.TokenValidity))

	// Initialize services
	userService := user.NewService(store, hasher, tokens,
		user.WithPasswordRedaction(cfg.Identity.RedactPasswordHash),
	)
	authService := auth.NewService(store, hasher, tokens)

	// Initialize HTTP handlers
	userHandler := user.NewHandler(userService, cfg.Identity.EnforceRecordOwnership)
	authHandler := auth.NewHandler(authService)
	authMiddleware := auth.NewMiddleware(tokens)

	// Initialize router
	router := httpServer.NewRouter(cfg, userHandler, authHandler, authMiddleware, db, logger)

	// Initialize HTTP server
	server := httpServer.NewServer(
		":"+cfg.Server.Port,
		router,
		cfg.Server.ReadTimeout,
		cfg.Server.WriteTimeout,
		logger,
	)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.Start()
	}()

	// Wait for interrupt signal or server error
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		logger.Info("received signal", "signal", sig.String())

		// Graceful shutdown with timeout
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// newTokenCodec builds the signing codec selected by TOKEN_FORMAT. A bad key
// fails here, before the server accepts any request.
func newTokenCodec(cfg config.AuthConfig) (token.Codec, error) {
	switch cfg.TokenFormat {
	case config.TokenFormatPaseto:
		codec, err := token.NewPasetoCodec(cfg.TokenSecret)
		if err != nil {
			return nil, err
		}
		return codec, nil
	case config.TokenFormatJWT:
		codec, err := token.NewJWTCodec(cfg.TokenSecret)
		if err != nil {
			return nil, err
		}
		return codec, nil
	default:
		return nil, fmt.Errorf("unknown token format %q", cfg.TokenFormat)
	}
}

// initDB initializes the database connection and returns a Bun DB instance
func initDB(ctx context.Context, cfg config.DatabaseConfig) (*bun.DB, error) {
	return database.Open(ctx, cfg.ConnectionString(), database.PoolConfig{
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	})
}

// initRedis initializes the Redis connection and returns a Redis client
func initRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Verify connection
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return client, nil
}
