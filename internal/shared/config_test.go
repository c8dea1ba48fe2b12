package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.API.BaseURL != "http://localhost:8000" {
			t.Errorf("expected base url http://localhost:8000, got %s", config.API.BaseURL)
		}

		if config.API.TimeoutSeconds != 30 {
			t.Errorf("expected timeout 30, got %d", config.API.TimeoutSeconds)
		}

		if config.Database.Path != "mixtape.db" {
			t.Errorf("expected database path mixtape.db, got %s", config.Database.Path)
		}

		if config.Stream.PingIntervalSeconds != 25 {
			t.Errorf("expected ping interval 25, got %d", config.Stream.PingIntervalSeconds)
		}

		if config.Stream.MaxReconnectAttempts != 5 {
			t.Errorf("expected max reconnect attempts 5, got %d", config.Stream.MaxReconnectAttempts)
		}

		if config.Stream.PollIntervalSeconds != 3 {
			t.Errorf("expected poll interval 3, got %d", config.Stream.PollIntervalSeconds)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Fatalf("config file should exist: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		defaultConfig := DefaultConfig()
		if config.Database.Path != defaultConfig.Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[api]
base_url = "https://mixtape.example.com"
timeout_seconds = 10
rate_limit = 4

[credentials.spotify]
client_id = "test_client_id"
redirect_uri = "http://127.0.0.1:9090/callback"

[database]
path = "/custom/path.db"
max_open_conns = 20
max_idle_conns = 10

[stream]
ping_interval_seconds = 15
max_reconnect_attempts = 3
poll_interval_seconds = 5
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.API.BaseURL != "https://mixtape.example.com" {
			t.Errorf("expected base url https://mixtape.example.com, got %s", config.API.BaseURL)
		}

		if config.Credentials.Spotify.ClientID != "test_client_id" {
			t.Errorf("expected spotify client_id test_client_id, got %s", config.Credentials.Spotify.ClientID)
		}

		if config.Database.Path != "/custom/path.db" {
			t.Errorf("expected database path /custom/path.db, got %s", config.Database.Path)
		}

		if config.Stream.MaxReconnectAttempts != 3 {
			t.Errorf("expected max reconnect attempts 3, got %d", config.Stream.MaxReconnectAttempts)
		}
	})

	t.Run("LoadMissingFile", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml")); !errors.Is(err, ErrMissingConfig) {
			t.Errorf("expected ErrMissingConfig, got %v", err)
		}
	})
}
