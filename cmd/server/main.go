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

	"usage-ingestion/internal/app"
	"usage-ingestion/internal/shared/configs"
)

const defaultConfigPath = "./configs/configs.yml"

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = defaultConfigPath
	}

	cfg, err := configs.LoadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	application, err := app.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize app: %v\n", err)
		os.Exit(1)
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := application.Start(context.Background()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	fmt.Println("Server started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	exitCode := 0
	select {
	case <-quit:
	case err := <-serverErr:
		fmt.Fprintf(os.Stderr, "Server failed: %v\n", err)
		exitCode = 1
	case err := <-application.Fatal():
		fmt.Fprintf(os.Stderr, "Publisher failed: %v\n", err)
		exitCode = 1
	}

	timeout := time.Duration(cfg.Server.ShutdownTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	if err := application.Shutdown(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Server forced to shutdown: %v\n", err)
		exitCode = 1
	}
	cancel()
	os.Exit(exitCode)
}
