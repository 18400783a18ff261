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

	"emotioncrypt/api/internal/adapters"
	"emotioncrypt/api/internal/api/handlers"
	"emotioncrypt/api/internal/api/middleware"
	"emotioncrypt/api/internal/api/router"
	"emotioncrypt/api/internal/config"
	"emotioncrypt/api/internal/core/domain"
	"emotioncrypt/api/internal/core/services"
	"emotioncrypt/api/internal/db/postgres"
	"emotioncrypt/api/internal/infrastructure/crypto"
	"emotioncrypt/api/internal/telemetry"
	"emotioncrypt/api/internal/workers"
)

func main() {
	// --- 1. Core Telemetry & Configuration ---
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)
	logger.Info("Booting EmotionCrypt API...")
	cfg := config.Load()

	// --- 2. Cipher Engine ---
	engine, err := crypto.NewAESCipherEngine(cfg.EncryptionSecret)
	if err != nil {
		logger.Error("FATAL: cipher engine init failed", "error", err)
		os.Exit(1)
	}

	// --- 3. Classifier Tiers (highest priority first) ---
	var classifierTiers []domain.Classifier
	if cfg.OpenAIAPIKey != "" {
		classifierTiers = append(classifierTiers, adapters.NewOpenAIClassifier(cfg.OpenAIAPIKey, cfg.OpenAIModel))
		logger.Info("remote LLM classifier configured", "model", cfg.OpenAIModel)
	}
	if cfg.InferenceURL != "" {
		classifierTiers = append(classifierTiers, adapters.NewInferenceClassifier(cfg.InferenceURL, cfg.ClassifierTimeout))
		logger.Info("local inference classifier configured", "url", cfg.InferenceURL)
	}
	if len(classifierTiers) == 0 {
		logger.Warn("no classifier backends configured; detection runs on the keyword fallback only")
	}

	detector := services.NewDetector(logger, classifierTiers...)
	envelopeService := services.NewEnvelopeService(engine, detector, logger)

	// --- 4. Optional Persistence ---
	var envelopeRepo domain.EnvelopeRepository
	var auditRepo domain.AuditRepository
	if cfg.DatabaseURL != "" {
		pool, err := postgres.NewPool(context.Background(), cfg.DatabaseURL)
		if err != nil {
			logger.Error("FATAL: DB failed", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		envelopeRepo = postgres.NewEnvelopeRepo(pool)
		auditRepo = postgres.NewAuditRepo(pool)
	} else {
		logger.Info("DATABASE_URL not set; running stateless")
	}

	// --- 5. Hardened Dependency Injection ---
	hub := telemetry.NewHub()
	tokenService := services.NewTokenService(cfg.JWTSecret)

	cipherHandler := handlers.NewCipherHandler(envelopeService, envelopeRepo, auditRepo, hub, logger)
	authHandler := handlers.NewAuthHandler(tokenService, cfg.APIAccessKey)
	eventsHandler := handlers.NewEventsHandler(hub, logger)
	authMiddleware := middleware.NewAuthMiddleware(tokenService, logger)

	var envelopeHandler *handlers.EnvelopeHandler
	var auditHandler *handlers.AuditHandler
	if envelopeRepo != nil {
		envelopeHandler = handlers.NewEnvelopeHandler(envelopeRepo)
		auditHandler = handlers.NewAuditHandler(auditRepo)
	}

	// --- 6. Background Workers ---
	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()

	if len(classifierTiers) > 0 {
		monitor := workers.NewClassifierMonitor(logger, 1*time.Minute, classifierTiers...)
		go monitor.Start(workerCtx)
	}

	// --- 7. HTTP Gateway ---
	mux := router.NewRouter(router.RouterConfig{
		AllowedOrigins:  cfg.AllowedOrigins,
		CipherHandler:   cipherHandler,
		EnvelopeHandler: envelopeHandler,
		AuditHandler:    auditHandler,
		AuthHandler:     authHandler,
		EventsHandler:   eventsHandler,
		AuthMiddleware:  authMiddleware,
		Logger:          logger,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	// --- 8. Graceful Exit ---
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("EmotionCrypt API active", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("CRITICAL: server crashed", "error", err)
			os.Exit(1)
		}
	}()

	<-stop
	logger.Info("Shutting down...")
	cancelWorkers()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("ERROR: forced shutdown", "error", err)
	}
	logger.Info("EmotionCrypt API shutdown complete.")
}
