package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"quizhub/internal/validation"
)

const (
	EnvConfigFile = "QUIZ_CONFIG"
	envAddr       = "QUIZ_ADDR"
	envDBPath     = "QUIZ_DB_PATH"
	envJWTSecret  = "QUIZ_JWT_SECRET"
	envTokenTTL   = "QUIZ_TOKEN_TTL"
	envLogMode    = "QUIZ_LOG_MODE"
	envOpenTDBURL = "QUIZ_OPENTDB_URL"
)

type Config struct {
	Server struct {
		Addr            string        `yaml:"addr" validate:"required"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" validate:"gt=0"`
		SecureCookies   bool          `yaml:"secure_cookies"`
	} `yaml:"server"`
	Database struct {
		Path string `yaml:"path" validate:"required"`
	} `yaml:"database"`
	Auth struct {
		JWTSecret string        `yaml:"jwt_secret" validate:"required,min=16"`
		TokenTTL  time.Duration `yaml:"token_ttl" validate:"gt=0"`
	} `yaml:"auth"`
	Log struct {
		Mode string `yaml:"mode" validate:"oneof=dev prod"`
	} `yaml:"log"`
	OpenTDB struct {
		URL string `yaml:"url" validate:"omitempty,url"`
	} `yaml:"opentdb"`
}

func defaults() *Config {
	cfg := &Config{}
	cfg.Server.Addr = ":8080"
	cfg.Server.ShutdownTimeout = 10 * time.Second
	cfg.Database.Path = "quiz.db"
	cfg.Auth.TokenTTL = 24 * time.Hour
	cfg.Log.Mode = "dev"
	return cfg
}

// Load builds the configuration from defaults, then the YAML file at path
// (or $QUIZ_CONFIG), then QUIZ_* environment variables. A .env file in the
// working directory is loaded first without overriding the real environment.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	if path == "" {
		path = os.Getenv(EnvConfigFile)
	}

	cfg := defaults()
	if path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	cfg.Log.Mode = strings.ToLower(cfg.Log.Mode)
	if err := validation.Struct(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil {
		return fmt.Errorf("decode config %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if v, ok := lookup(envAddr); ok {
		cfg.Server.Addr = v
	}
	if v, ok := lookup(envDBPath); ok {
		cfg.Database.Path = v
	}
	if v, ok := lookup(envJWTSecret); ok {
		cfg.Auth.JWTSecret = v
	}
	if v, ok := lookup(envTokenTTL); ok {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", envTokenTTL, err)
		}
		cfg.Auth.TokenTTL = ttl
	}
	if v, ok := lookup(envLogMode); ok {
		cfg.Log.Mode = v
	}
	if v, ok := lookup(envOpenTDBURL); ok {
		cfg.OpenTDB.URL = v
	}
	return nil
}

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}
