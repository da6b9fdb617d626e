package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/Dan9191/travel-blog/internal/auth"
	"github.com/Dan9191/travel-blog/internal/cache"
	"github.com/Dan9191/travel-blog/internal/config"
	"github.com/Dan9191/travel-blog/internal/handler"
	"github.com/Dan9191/travel-blog/internal/media"
	"github.com/Dan9191/travel-blog/internal/middleware"
	"github.com/Dan9191/travel-blog/internal/repository"
	"github.com/Dan9191/travel-blog/internal/service"
	"github.com/Dan9191/travel-blog/internal/utils/email"
)

type mediaBackend interface {
	service.MediaStore
	handler.URLResolver
}

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warnf("Failed to load .env: %v", err)
	}

	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	logLevel, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	ctx := context.Background()

	// Initialize database
	db, err := repository.Open(ctx, cfg.DBConn)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	repo := repository.NewRepository(db)
	if cfg.DBAutoMigrate {
		if err := repo.EnsureSchema(ctx); err != nil {
			logger.Fatalf("Failed to apply schema: %v", err)
		}
	}

	store, err := newMedia(ctx, cfg)
	if err != nil {
		logger.Fatalf("Failed to initialize media storage: %v", err)
	}

	opts := service.Options{Media: store, PageSize: cfg.PageSize}
	if cfg.CacheEnabled() {
		client, err := cache.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			logger.Fatalf("Failed to connect to cache: %v", err)
		}
		defer client.Close()
		opts.Cache = cache.NewPostCache(client, cfg.CacheTTL)
		logger.Infof("Post listing cache enabled at %s", cfg.RedisAddr)
	}
	if cfg.SMTPEnabled() {
		opts.Mailer = email.NewSender(cfg, logger)
	}

	// Initialize layers
	tokens := auth.NewManager(cfg.SecretKey, cfg.AccessTokenLifetime, cfg.RefreshTokenLifetime)
	svc := service.NewService(repo, tokens, logger, opts)

	hopts := handler.Options{
		Media:       store,
		DB:          repo,
		Debug:       cfg.Debug,
		SiteURL:     cfg.SiteURL,
		FeedSize:    cfg.FeedSize,
		StaticRoot:  cfg.StaticRoot,
		FrontendDir: cfg.FrontendDir,
	}
	if cfg.MediaBackend == config.MediaLocal {
		hopts.MediaRoot = cfg.MediaRoot
		hopts.MediaURL = cfg.MediaURL
	}
	h := handler.NewHandler(svc, logger, hopts)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	r := handler.NewRouter(h, handler.RouterOptions{
		Metrics:        middleware.NewMetrics(reg),
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	})

	if len(cfg.AllowedHosts) == 0 {
		logger.Warn("ALLOWED_HOSTS is empty; Host header checks are disabled")
	}
	chain := middleware.LoggingMiddleware(logger)(
		middleware.AllowedHostsMiddleware(cfg.AllowedHosts)(
			middleware.CORSMiddleware(cfg.CORSAllowedOrigins)(r),
		),
	)

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      chain,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Infof("Starting server on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}
	logger.Info("Server stopped")
}

func newMedia(ctx context.Context, cfg *config.Config) (mediaBackend, error) {
	if cfg.MediaBackend == config.MediaS3 {
		s3, err := media.NewS3Storage(media.S3Config{
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			UseSSL:    cfg.S3UseSSL,
			Bucket:    cfg.S3Bucket,
		})
		if err != nil {
			return nil, err
		}
		if err := s3.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return s3, nil
	}
	return media.NewLocalStorage(cfg.MediaRoot, cfg.MediaURL)
}
