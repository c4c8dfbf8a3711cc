package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"pharmacy/internal/config"
	"pharmacy/internal/logger"
)

func main() {
	if err := run(viper.GetViper()); err != nil {
		log.Printf("pharmacy: %v", err)
		os.Exit(1)
	}
}

// run owns the process lifecycle. Every failure is returned so the deferred
// cleanup runs before the process exits.
func run(v *viper.Viper) error {
	cfg := config.Load(v)

	flush, err := logger.Init(logger.Config{Mode: cfg.LogMode, Filename: cfg.LogFile})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer flush()

	app, err := NewApp(cfg)
	if err != nil {
		zap.L().Error("failed to create app", zap.Error(err))
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			zap.L().Error("error while closing app", zap.Error(err))
		}
	}()

	if cfg.SeedFile != "" {
		if err := app.Seed(cfg.SeedFile); err != nil {
			zap.L().Error("seeding failed", zap.String("file", cfg.SeedFile), zap.Error(err))
		}
	}
	if err := app.StartScheduler(); err != nil {
		zap.L().Error("failed to start scheduler", zap.Error(err))
		return err
	}
	if err := app.StartConsumers(); err != nil {
		zap.L().Error("failed to start order consumer", zap.Error(err))
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serveErr := make(chan error, 1)
	go func() {
		zap.L().Info("starting server", zap.String("addr", cfg.AppPort))
		serveErr <- app.http.Listen(cfg.AppPort)
	}()

	var listenErr error
	select {
	case <-quit:
	case listenErr = <-serveErr:
		zap.L().Error("server stopped", zap.Error(listenErr))
	}

	zap.L().Info("shutting down server")
	if err := app.http.Shutdown(); err != nil {
		zap.L().Error("error during fiber shutdown", zap.Error(err))
	}
	zap.L().Info("server gracefully stopped")
	return listenErr
}
