package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/uvm-fablab/scheduler/internal/app"
	"github.com/uvm-fablab/scheduler/internal/config"
	"github.com/uvm-fablab/scheduler/internal/logger"
)

func main() {
	log := logger.New()

	if err := run(log); err != nil {
		log.Error("Application error", logger.Error(err))
		os.Exit(1)
	}
}

func run(log *logger.Logger) error {
	envPath := getEnvOrDefault("ENV_FILE", ".env")
	cfg, err := config.LoadWithFile(envPath)
	if err != nil {
		return err
	}

	application := app.New(cfg, log)
	if err := application.Initialize(); err != nil {
		return err
	}
	defer func() {
		if cerr := application.Close(); cerr != nil {
			log.Error("Failed to close application", logger.Error(cerr))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return application.Run(ctx)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
