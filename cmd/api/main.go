package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"reimburse/internal/app"
	"reimburse/internal/calculator"
	"reimburse/internal/config"
	"reimburse/internal/models"
	"reimburse/internal/server"
	"reimburse/pkg/utils"
)

func main() {
	configPath := flag.String("config", "", "YAML config file (optional)")
	flag.Parse()

	logger := utils.Logger()
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}
	if logger, err = utils.Configure(cfg.Logger.Level, cfg.Logger.File); err != nil {
		utils.Logger().Fatal("Failed to configure logger", zap.Error(err))
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	env, err := app.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to open resources", zap.Error(err))
	}
	defer func() {
		if err := env.Close(); err != nil {
			logger.Error("Failed to close resources", zap.Error(err))
		}
	}()

	params, err := env.Parameters(ctx, cfg.Parameters.Source)
	if err != nil {
		logger.Fatal("Failed to resolve parameters", zap.String("source", cfg.Parameters.Source), zap.Error(err))
	}
	logger.Info("Parameters loaded", zap.String("version", params.Version))

	var model models.Model
	if cfg.Model.Path != "" {
		saved, err := models.Load(cfg.Model.Path)
		if err != nil {
			logger.Warn("Model not loaded, /predict disabled", zap.String("path", cfg.Model.Path), zap.Error(err))
		} else {
			model = saved.Model
			logger.Info("Model loaded", zap.String("algo", saved.Algo), zap.Time("saved_at", saved.SavedAt))
		}
	}

	gin.SetMode(cfg.Server.Mode)
	opts := server.Options{
		APIKey:   cfg.Server.APIKey,
		MaxBatch: cfg.Server.MaxBatch,
		Cache:    env.Cache,
		Model:    model,
		Logger:   logger,
	}
	// A nil *store.Store must not become a non-nil interface.
	if env.Store != nil {
		opts.Store = env.Store
	}
	srv := server.New(calculator.New(params), opts)

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      srv.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("Listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown failed", zap.Error(err))
	}
}
