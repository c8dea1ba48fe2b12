package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/mixtape/internal/api"
	"github.com/desertthunder/mixtape/internal/shared"
)

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		}
	}

	httpClient := http.DefaultClient
	if config.API.TimeoutSeconds > 0 {
		httpClient = &http.Client{Timeout: time.Duration(config.API.TimeoutSeconds) * time.Second}
	}

	client := api.NewClient(config.API.BaseURL, httpClient)
	if config.API.RateLimit > 0 {
		client.SetRateLimit(config.API.RateLimit)
	}

	runner := NewRunner(RunnerOpts{
		Config: config,
		Client: client,
		Logger: logger,
	})
	runner.restoreToken()

	app := &cli.Command{
		Name:     "mixtape",
		Usage:    "Generate mood-driven Spotify playlists from the terminal",
		Version:  "0.1.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		err_ := errors.Unwrap(err)
		if errors.Is(err_, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		} else {
			logger.Fatalf("application error: %v", err)
		}
	}
}
