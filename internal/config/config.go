// Package config loads the server configuration.
//
// Values come from an optional YAML file (CONFIG_PATH or --config) and are
// overridden by environment variables; a .env file in the working directory
// is loaded into the environment first. Every field has a default, so the
// server starts with no configuration at all.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"
)

// Storage drivers.
const (
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
)

// Rasterizer drivers.
const (
	RasterizerRod    = "rod"
	RasterizerDocker = "docker"
	RasterizerNone   = "none"
)

type Config struct {
	Env        string     `yaml:"env" env:"APP_ENV" env-default:"local"`
	HTTP       HTTP       `yaml:"http"`
	Storage    Storage    `yaml:"storage"`
	Draft      Draft      `yaml:"draft"`
	Session    Session    `yaml:"session"`
	Rasterizer Rasterizer `yaml:"rasterizer"`
}

type HTTP struct {
	Port int `yaml:"port" env:"PORT" env-default:"8080"`
	// BaseURL prefixes share links. Empty derives it from each request.
	BaseURL      string        `yaml:"base_url" env:"BASE_URL"`
	ReadTimeout  time.Duration `yaml:"read_timeout" env:"HTTP_READ_TIMEOUT" env-default:"15s"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"HTTP_WRITE_TIMEOUT" env-default:"30s"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" env:"HTTP_IDLE_TIMEOUT" env-default:"60s"`
	// MaxBodyBytes caps request bodies; images arrive inline as data URLs.
	MaxBodyBytes int64 `yaml:"max_body_bytes" env:"HTTP_MAX_BODY_BYTES" env-default:"8388608"`
}

type Storage struct {
	Driver      string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"sqlite"`
	SQLitePath  string `yaml:"sqlite_path" env:"DB_PATH" env-default:"data/cards.db"`
	PostgresDSN string `yaml:"postgres_dsn" env:"DATABASE_URL"`
}

type Draft struct {
	Secret string        `yaml:"secret" env:"DRAFT_SECRET"`
	TTL    time.Duration `yaml:"ttl" env:"DRAFT_TTL" env-default:"1h"`
}

type Session struct {
	Lifetime   time.Duration `yaml:"lifetime" env:"SESSION_LIFETIME" env-default:"12h"`
	CookieName string        `yaml:"cookie_name" env:"SESSION_COOKIE" env-default:"card_session"`
	Secure     bool          `yaml:"secure" env:"SESSION_SECURE" env-default:"false"`
}

type Rasterizer struct {
	Driver      string        `yaml:"driver" env:"RASTERIZER" env-default:"rod"`
	BrowserBin  string        `yaml:"browser_bin" env:"ROD_BROWSER_BIN"`
	BrowserURL  string        `yaml:"browser_url" env:"ROD_CONTROL_URL"`
	DockerImage string        `yaml:"docker_image" env:"RASTERIZER_IMAGE" env-default:"surnet/alpine-wkhtmltopdf:3.20.2-0.12.6-full"`
	PoolSize    int           `yaml:"pool_size" env:"RASTERIZER_POOL_SIZE" env-default:"2"`
	Timeout     time.Duration `yaml:"timeout" env:"RASTERIZER_TIMEOUT" env-default:"20s"`
}

// Load reads the configuration. path may be empty, in which case only the
// environment (and .env) is consulted.
func Load(path string) (*Config, error) {
	// a missing .env is normal outside development
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: loading .env: %w", err)
	}

	var cfg Config
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config: reading environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects unknown drivers and incomplete storage settings.
func (c *Config) Validate() error {
	switch c.Env {
	case EnvLocal, EnvDev, EnvProd:
	default:
		return fmt.Errorf("config: unknown env %q", c.Env)
	}

	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("config: invalid port %d", c.HTTP.Port)
	}

	switch c.Storage.Driver {
	case StorageSQLite:
		if c.Storage.SQLitePath == "" {
			return errors.New("config: sqlite storage needs DB_PATH")
		}
	case StoragePostgres:
		if c.Storage.PostgresDSN == "" {
			return errors.New("config: postgres storage needs DATABASE_URL")
		}
	default:
		return fmt.Errorf("config: unknown storage driver %q", c.Storage.Driver)
	}

	switch c.Rasterizer.Driver {
	case RasterizerRod, RasterizerDocker, RasterizerNone:
	default:
		return fmt.Errorf("config: unknown rasterizer %q", c.Rasterizer.Driver)
	}

	if c.Draft.Secret != "" && len(c.Draft.Secret) < 16 {
		return errors.New("config: DRAFT_SECRET must be at least 16 characters")
	}

	return nil
}

// EnsureDraftSecret fills an empty draft secret with a random one and
// reports whether it did. Drafts signed with a generated secret do not
// survive a restart.
func (c *Config) EnsureDraftSecret() (bool, error) {
	if c.Draft.Secret != "" {
		return false, nil
	}
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return false, fmt.Errorf("config: generating draft secret: %w", err)
	}
	c.Draft.Secret = hex.EncodeToString(buf)
	return true, nil
}
