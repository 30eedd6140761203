// Package config loads service settings from an optional YAML file, a .env
// file and the environment.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const (
	DriverBadger = "badger"
	DriverMemory = "memory"
)

type Config struct {
	HTTPServer `yaml:"http_server"`
	Storage    `yaml:"storage"`
	Log        `yaml:"log"`
	Board      `yaml:"board"`
}

type HTTPServer struct {
	Address         string        `yaml:"address" env:"HTTP_ADDRESS" env-default:":8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"HTTP_READ_TIMEOUT" env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"HTTP_WRITE_TIMEOUT" env-default:"10s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env:"HTTP_IDLE_TIMEOUT" env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

type Storage struct {
	Driver    string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"badger"`
	Path      string `yaml:"path" env:"STORAGE_PATH" env-default:"data/badger"`
	BackupDir string `yaml:"backup_dir" env:"STORAGE_BACKUP_DIR" env-default:"data/backups"`
}

type Log struct {
	Level  string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	Pretty bool   `yaml:"pretty" env:"LOG_PRETTY" env-default:"false"`
}

type Board struct {
	// DefaultViewer is used when a request carries no identity.
	DefaultViewer  string   `yaml:"default_viewer" env:"BOARD_DEFAULT_VIEWER" env-default:"currentUser"`
	AnonymousName  string   `yaml:"anonymous_name" env:"BOARD_ANONYMOUS_NAME" env-default:"Anonymous"`
	PageSize       int      `yaml:"page_size" env:"BOARD_PAGE_SIZE" env-default:"10"`
	AllowedOrigins []string `yaml:"allowed_origins" env:"CORS_ALLOWED_ORIGINS" env-separator:"," env-default:"*"`
}

// Load reads configuration. A .env file in the working directory is applied
// first when present; CONFIG_PATH then names an optional YAML file. Environment
// variables override both.
func Load() (*Config, error) {
	const op = "config.Load"

	// A missing .env file is fine; the environment is used as is.
	_ = godotenv.Load()

	var cfg Config
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("%s: config file %s: %w", op, path, err)
		}
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("%s: cannot read config: %w", op, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("%s: cannot read environment: %w", op, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Storage.Driver {
	case DriverBadger:
		if c.Storage.Path == "" {
			return fmt.Errorf("storage path is required for the badger driver")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.Board.DefaultViewer == "" {
		return fmt.Errorf("board default viewer cannot be empty")
	}
	if c.Board.PageSize < 1 {
		return fmt.Errorf("board page size must be positive, got %d", c.Board.PageSize)
	}
	return nil
}
