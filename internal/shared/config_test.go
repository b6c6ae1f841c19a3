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

		if config.Database.Path != "./kopisync.db" {
			t.Errorf("expected database path ./kopisync.db, got %s", config.Database.Path)
		}

		if config.Database.Driver != "sqlite3" {
			t.Errorf("expected driver sqlite3, got %s", config.Database.Driver)
		}

		if config.Server.Port != 3000 {
			t.Errorf("expected server port 3000, got %d", config.Server.Port)
		}

		if config.Kopis.BaseURL != "http://www.kopis.or.kr/openApi/restful" {
			t.Errorf("expected default KOPIS base URL, got %s", config.Kopis.BaseURL)
		}

		if config.Kopis.BoxofficeGenre != "CCCA" {
			t.Errorf("expected box-office genre CCCA, got %s", config.Kopis.BoxofficeGenre)
		}

		if len(config.Kopis.Areas) != 17 {
			t.Errorf("expected 17 area codes, got %d", len(config.Kopis.Areas))
		}

		if config.Scheduler.VenueHour != 2 || config.Scheduler.ConcertHour != 3 {
			t.Errorf("expected hours 2 and 3, got %d and %d", config.Scheduler.VenueHour, config.Scheduler.ConcertHour)
		}

		if err := config.Validate(); err != nil {
			t.Errorf("default config should validate: %v", err)
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

		testConfig := `[database]
path = "/custom/path.db"
max_open_conns = 20
max_idle_conns = 10

[server]
host = "0.0.0.0"
port = 8080

[kopis]
api_key = "file_key"

[[kopis.areas]]
code = "11"
name = "서울"
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Database.Path != "/custom/path.db" {
			t.Errorf("expected database path /custom/path.db, got %s", config.Database.Path)
		}

		if config.Server.Port != 8080 {
			t.Errorf("expected server port 8080, got %d", config.Server.Port)
		}

		if config.Kopis.APIKey != "file_key" {
			t.Errorf("expected api key file_key, got %s", config.Kopis.APIKey)
		}

		if len(config.Kopis.Areas) != 1 || config.Kopis.Areas[0].Code != "11" {
			t.Errorf("expected area table to be replaced by the file, got %+v", config.Kopis.Areas)
		}

		if config.Scheduler.ConcertHour != 3 {
			t.Errorf("expected default concert hour to survive, got %d", config.Scheduler.ConcertHour)
		}
	})

	t.Run("LoadConfig Missing File", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
			t.Error("expected error for missing config file")
		}
	})

	t.Run("ApplyEnv", func(t *testing.T) {
		t.Setenv("KOPIS_API_KEY", "env_key")
		t.Setenv("KOPIS_BASE_URL", "http://localhost:9999/restful")
		t.Setenv("DATABASE_PATH", "/tmp/env.db")
		t.Setenv("SERVER_PORT", "4000")

		config := DefaultConfig()
		config.ApplyEnv()

		if config.Kopis.APIKey != "env_key" {
			t.Errorf("expected api key env_key, got %s", config.Kopis.APIKey)
		}
		if config.Kopis.BaseURL != "http://localhost:9999/restful" {
			t.Errorf("expected env base URL, got %s", config.Kopis.BaseURL)
		}
		if config.Database.Path != "/tmp/env.db" {
			t.Errorf("expected env database path, got %s", config.Database.Path)
		}
		if config.Server.Port != 4000 {
			t.Errorf("expected port 4000, got %d", config.Server.Port)
		}
	})

	t.Run("LoadEnvFile", func(t *testing.T) {
		envPath := filepath.Join(t.TempDir(), ".env")
		if err := os.WriteFile(envPath, []byte("KOPISYNC_TEST_VALUE=from_dotenv\n"), 0644); err != nil {
			t.Fatalf("failed to write env file: %v", err)
		}
		t.Cleanup(func() { os.Unsetenv("KOPISYNC_TEST_VALUE") })

		if err := LoadEnvFile(envPath, filepath.Join(t.TempDir(), "missing.env")); err != nil {
			t.Fatalf("failed to load env file: %v", err)
		}
		if got := os.Getenv("KOPISYNC_TEST_VALUE"); got != "from_dotenv" {
			t.Errorf("expected from_dotenv, got %q", got)
		}
	})

	t.Run("Validate", func(t *testing.T) {
		tc := []struct {
			name   string
			mutate func(*Config)
		}{
			{name: "hour out of range", mutate: func(c *Config) { c.Scheduler.VenueHour = 24 }},
			{name: "unknown driver", mutate: func(c *Config) { c.Database.Driver = "postgres" }},
			{name: "mysql without dsn", mutate: func(c *Config) { c.Database.Driver = "mysql"; c.Database.DSN = "" }},
			{name: "page size above provider max", mutate: func(c *Config) { c.Kopis.PageSize = 500 }},
			{name: "no concert genres", mutate: func(c *Config) { c.Kopis.ConcertGenres = nil }},
			{name: "area without code", mutate: func(c *Config) { c.Kopis.Areas = []CodeName{{Name: "서울"}} }},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				config := DefaultConfig()
				tt.mutate(config)
				err := config.Validate()
				if err == nil {
					t.Fatal("expected validation error")
				}
				if !errors.Is(err, ErrInvalidConfig) {
					t.Errorf("expected ErrInvalidConfig, got %v", err)
				}
			})
		}
	})
}
