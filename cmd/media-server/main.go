package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"clipshare/internal/config"
	"clipshare/internal/di"
	"clipshare/internal/logger"

	"go.uber.org/zap"
)

func main() {
	cfg := config.LoadConfig()

	zlog, err := logger.Initialize(cfg.Logging.Level, cfg.Logging.File)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Close()

	app, cleanup, err := di.InitializeMedia(cfg, zlog)
	if err != nil {
		zlog.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	defer cleanup()

	server := &http.Server{
		Addr:        ":" + cfg.Server.MediaPort,
		Handler:     app.Server,
		ReadTimeout: time.Duration(cfg.Server.ReadTimeout) * time.Second,
	}

	go func() {
		zlog.Info("Media HTTP server starting",
			zap.String("addr", server.Addr),
			zap.String("files", cfg.Server.MediaBaseURL+"/{fileId}"),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		zlog.Warn("Media server forced to shutdown", zap.Error(err))
	}
}
