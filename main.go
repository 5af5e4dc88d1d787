package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"

	"visaverse/internal/api"
	"visaverse/internal/auth"
	"visaverse/internal/config"
	"visaverse/internal/logging"
	"visaverse/internal/metrics"
	"visaverse/internal/redis"
	"visaverse/internal/service/account"
	"visaverse/internal/service/document"
	"visaverse/internal/service/gemini"
	"visaverse/internal/storage"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		logrus.Fatalf("load .env: %v", err)
	}
	cfg, err := config.Load(os.Getenv("VISAVERSE_CONFIG"))
	if err != nil {
		logrus.Fatalf("load config: %v", err)
	}
	logger := logging.New(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.WithField("driver", cfg.Database.Driver).Info("opening database")
	db, err := storage.Open(cfg.Database)
	if err != nil {
		logger.Fatalf("open database: %v", err)
	}
	defer db.Close()
	// Create necessary tables: users, user_tokens
	if err := storage.Migrate(db, cfg.Database.Driver); err != nil {
		logger.Fatalf("migrate database: %v", err)
	}

	var cache *redis.Client
	if cfg.Redis.Addr != "" {
		cache, err = redis.NewRedisClient(cfg.Redis)
		if err != nil {
			// tokens still validate against SQL
			logger.WithError(err).Warn("redis unavailable, token cache disabled")
			cache = nil
		} else {
			defer cache.Close()
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(registry)

	geminiClient, err := gemini.NewClient(ctx, gemini.Config{
		APIKey:  cfg.Gemini.APIKey,
		Model:   cfg.Gemini.Model,
		BaseURL: cfg.Gemini.BaseURL,
		Invoker: gemini.InvokerConfig{
			MaxAttempts:    cfg.Gemini.MaxAttempts,
			BaseDelay:      cfg.Gemini.BaseDelay(),
			AttemptTimeout: cfg.Gemini.AttemptTimeout(),
		},
	}, collector, logger)
	if err != nil {
		logger.Fatalf("init gemini client: %v", err)
	}

	extractor, err := document.NewPDFExtractor(ctx)
	if err != nil {
		logger.Fatalf("init pdf extractor: %v", err)
	}
	stager, err := document.NewStager(cfg.Upload.Dir)
	if err != nil {
		logger.Fatalf("init upload dir: %v", err)
	}
	// Uploads are deleted per request; the sweeper only catches leftovers from crashes.
	document.NewSweeper(stager.Dir(), cfg.Upload.TempTTL(), logger).Start(ctx, cfg.Upload.CleanInterval())

	authService := auth.NewService(db, cache, cfg.BasicConfig.TokenTTL()).WithLogger(logger).WithNames(cfg.Auth)
	handler := api.NewHandler(api.Dependencies{
		Guidance:    geminiClient,
		Documents:   document.NewPipeline(geminiClient, extractor, logger),
		Stager:      stager,
		Accounts:    account.NewService(db),
		Auth:        authService,
		Logger:      logger,
		Recorder:    collector,
		Gatherer:    registry,
		FrontendURL: cfg.BasicConfig.FrontendURL,
	})

	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:              cfg.BasicConfig.ServerAddress,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Error("graceful shutdown failed")
		}
	}()

	logger.WithFields(logrus.Fields{
		"addr":     srv.Addr,
		"model":    cfg.Gemini.Model,
		"frontend": cfg.BasicConfig.FrontendURL,
	}).Info("VisaVerse backend listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalf("server stopped: %v", err)
	}
	logger.Info("server stopped")
}
