package main

import (
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"

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

	zlog.Info("Starting platform service...")
	app, cleanup, err := di.InitializeRPC(cfg, zlog)
	if err != nil {
		zlog.Fatal("Failed to initialize platform service", zap.Error(err))
	}
	defer cleanup()

	lis, err := net.Listen("tcp", ":"+cfg.Server.RPCPort)
	if err != nil {
		zlog.Fatal("Failed to listen", zap.String("port", cfg.Server.RPCPort), zap.Error(err))
	}

	go func() {
		zlog.Info("gRPC server listening", zap.String("addr", lis.Addr().String()))
		if err := app.Server.Serve(lis); err != nil {
			zlog.Fatal("Failed to serve", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zlog.Info("Shutting down platform service...")
	app.Server.GracefulStop()
	zlog.Info("Platform service stopped")
}
