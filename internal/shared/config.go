package shared

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

var validate = validator.New()

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	LogLevel  string          `toml:"log_level" validate:"omitempty,oneof=debug info warn error fatal"`
	Kopis     KopisConfig     `toml:"kopis"`
	Scheduler SchedulerConfig `toml:"scheduler"`
	Database  DatabaseConfig  `toml:"database"`
	Server    ServerConfig    `toml:"server"`
	Events    EventsConfig    `toml:"events"`
}

// KopisConfig contains provider credentials and the genre/area lookup tables.
type KopisConfig struct {
	APIKey              string     `toml:"api_key"`
	BaseURL             string     `toml:"base_url" validate:"required,url"`
	TimeoutSeconds      int        `toml:"timeout_seconds" validate:"gte=0"`
	RequestsPerSecond   float64    `toml:"requests_per_second" validate:"gte=0"`
	PageSize            int        `toml:"page_size" validate:"gte=1,lte=100"`
	HorizonDays         int        `toml:"horizon_days" validate:"gte=1"`
	BoxofficeWindowDays int        `toml:"boxoffice_window_days" validate:"gte=1"`
	BoxofficeTopN       int        `toml:"boxoffice_top_n" validate:"gte=1"`
	BoxofficeGenre      string     `toml:"boxoffice_genre" validate:"required"`
	ConcertGenres       []CodeName `toml:"concert_genres" validate:"min=1,dive"`
	Areas               []CodeName `toml:"areas" validate:"dive"`
}

// CodeName is a row of a provider lookup table (genre or area).
type CodeName struct {
	Code string `toml:"code" validate:"required"`
	Name string `toml:"name"`
}

// SchedulerConfig contains the daily run hours and lock settings.
type SchedulerConfig struct {
	RunOnStart         bool `toml:"run_on_start"`
	VenueHour          int  `toml:"venue_hour" validate:"gte=0,lte=23"`
	ConcertHour        int  `toml:"concert_hour" validate:"gte=0,lte=23"`
	LockTimeoutMinutes int  `toml:"lock_timeout_minutes" validate:"gte=0"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Driver       string `toml:"driver" validate:"oneof=sqlite3 mysql"`
	Path         string `toml:"path" validate:"required_if=Driver sqlite3"`
	DSN          string `toml:"dsn" validate:"required_if=Driver mysql"`
	MaxOpenConns int    `toml:"max_open_conns" validate:"gte=0"`
	MaxIdleConns int    `toml:"max_idle_conns" validate:"gte=0"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host           string `toml:"host"`
	Port           int    `toml:"port" validate:"gte=1,lte=65535"`
	AdminJWTSecret string `toml:"admin_jwt_secret"`
}

// EventsConfig contains the AMQP broker used for sync-completed events.
type EventsConfig struct {
	AMQPURL string `toml:"amqp_url"`
	Queue   string `toml:"queue" validate:"required_with=AMQPURL"`
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// LoadEnvFile loads KEY=value pairs from the given dotenv files into the process environment.
//
// Missing files are ignored; variables already set in the environment win.
func LoadEnvFile(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load env file %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv overrides file values with environment variables.
func (c *Config) ApplyEnv() {
	setString := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}

	setString("KOPIS_API_KEY", &c.Kopis.APIKey)
	setString("KOPIS_BASE_URL", &c.Kopis.BaseURL)
	setString("DATABASE_DRIVER", &c.Database.Driver)
	setString("DATABASE_PATH", &c.Database.Path)
	setString("DATABASE_DSN", &c.Database.DSN)
	setString("ADMIN_JWT_SECRET", &c.Server.AdminJWTSecret)
	setString("AMQP_URL", &c.Events.AMQPURL)
	setString("LOG_LEVEL", &c.LogLevel)

	if v, ok := os.LookupEnv("SERVER_PORT"); ok {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
}

// Validate checks the configuration against its struct constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}
