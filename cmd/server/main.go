package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/d60-Lab/chirp/config"
	"github.com/d60-Lab/chirp/internal/api/handler"
	"github.com/d60-Lab/chirp/internal/api/middleware"
	"github.com/d60-Lab/chirp/internal/api/router"
	"github.com/d60-Lab/chirp/internal/directory"
	"github.com/d60-Lab/chirp/internal/model"
	"github.com/d60-Lab/chirp/internal/ratelimit"
	"github.com/d60-Lab/chirp/internal/repository"
	"github.com/d60-Lab/chirp/internal/service"
	"github.com/d60-Lab/chirp/pkg/auth"
	"github.com/d60-Lab/chirp/pkg/database"
	"github.com/d60-Lab/chirp/pkg/logger"
	"github.com/d60-Lab/chirp/pkg/redisclient"
	"github.com/d60-Lab/chirp/pkg/tracing"
)

// @title Chirp API
// @version 1.0
// @description Emoji-only status feed.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	if err := logger.Init(cfg.Log); err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	gin.SetMode(cfg.Server.Mode)

	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.Sentry.DSN,
			Environment: cfg.Sentry.Environment,
		}); err != nil {
			logger.Warn("sentry init failed", zap.Error(err))
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := tracing.Init(ctx, cfg.Tracing, cfg.Sentry.Environment)
	if err != nil {
		logger.Warn("tracing init failed", zap.Error(err))
	} else {
		defer func() { _ = shutdownTracing(context.Background()) }()
	}

	db, err := database.InitDB(cfg)
	if err != nil {
		logger.Fatal("database init failed", zap.Error(err))
	}
	defer func() { _ = database.Close(db) }()
	if err := db.AutoMigrate(model.Models()...); err != nil {
		logger.Fatal("auto migrate failed", zap.Error(err))
	}

	rdb, err := redisclient.InitRedis(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal("redis init failed", zap.Error(err))
	}
	defer rdb.Close()

	tokens := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.Expire)
	postRepo := repository.NewPostRepository(db)

	var (
		dir     directory.Directory
		authSvc service.AuthService
	)
	switch cfg.Directory.Mode {
	case "http":
		dir = directory.NewHTTPDirectory(cfg.Directory.BaseURL, cfg.Directory.SecretKey, cfg.Directory.Timeout)
	case "local":
		userRepo := repository.NewUserRepository(db)
		dir = directory.NewLocalDirectory(userRepo)
		authSvc = service.NewAuthService(userRepo, tokens)
	default:
		logger.Fatal("unsupported directory mode", zap.String("mode", cfg.Directory.Mode))
	}

	limiter := ratelimit.NewRedisLimiter(rdb, cfg.RateLimit.Limit, cfg.RateLimit.Window, cfg.RateLimit.Prefix)
	h := handler.NewHandler(
		service.NewPostService(postRepo, dir, limiter),
		service.NewProfileService(dir),
		authSvc,
	)

	opts := router.Options{
		ServiceName: cfg.Tracing.ServiceName,
		Tokens:      tokens,
		Swagger:     cfg.Server.Mode != gin.ReleaseMode,
	}
	stopThrottle := make(chan struct{})
	if cfg.Throttle.Enabled {
		opts.Throttle = middleware.NewIPThrottle(cfg.Throttle.RPS, cfg.Throttle.Burst)
		go opts.Throttle.Run(stopThrottle)
	}

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router.Setup(h, opts),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr), zap.String("directory", cfg.Directory.Mode))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")
	close(stopThrottle)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}
	logger.Info("server exited")
}
