package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"clipshare/internal/config"
	"clipshare/internal/di"
	"clipshare/internal/logger"
	"clipshare/internal/metrics"

	"go.uber.org/zap"
)

func main() {
	cfg := config.LoadConfig()

	zlog, err := logger.Initialize(cfg.Logging.Level, cfg.Logging.File)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Close()
	metrics.Initialize()

	zlog.Info("Initializing API service...")
	app, cleanup, err := di.InitializeAPI(cfg, zlog)
	if err != nil {
		zlog.Fatal("Failed to initialize application", zap.Error(err))
	}
	defer cleanup()

	server := &http.Server{
		Addr:           fmt.Sprintf(":%s", cfg.Server.APIPort),
		Handler:        app.Handler,
		ReadTimeout:    time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout:   time.Duration(cfg.Server.WriteTimeout) * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		zlog.Info("API server starting", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("API server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zlog.Info("Shutting down API server...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		zlog.Warn("Server forced to shutdown", zap.Error(err))
	}
	zlog.Info("API server stopped")
}
