package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	envPath  = ".env"
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"
)

type Config struct {
	Env     string
	DB      db
	Server  server
	Logger  logger
	Session session
	Sync    syncConfig
}

type db struct {
	DatabaseURI string `env:"DATABASE_URI"`
	Migrations  string `env:"MIGRATIONS_PATH"`
}

type server struct {
	RunAddress      string        `env:"RUN_ADDRESS"`
	ReadTimeout     time.Duration `env:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT"`
}

type logger struct {
	// File путь к файлу с ротацией, пустой пишет только в stdout
	File string `env:"LOG_FILE"`
}

type session struct {
	TTL time.Duration `env:"SESSION_TTL"`
}

type syncConfig struct {
	AllowReparent bool  `env:"SYNC_ALLOW_REPARENT"`
	MaxRecords    int   `env:"SYNC_MAX_RECORDS"`
	MaxBodyBytes  int64 `env:"SYNC_MAX_BODY_BYTES"`
}

func defaults(v *viper.Viper) {
	v.SetDefault("app_env", EnvLocal)
	v.SetDefault("run_address", ":8080")
	v.SetDefault("migrations_path", "migrations")
	v.SetDefault("read_timeout", 15*time.Second)
	v.SetDefault("write_timeout", 60*time.Second)
	v.SetDefault("shutdown_timeout", 10*time.Second)
	v.SetDefault("session_ttl", 24*time.Hour)
	v.SetDefault("sync_allow_reparent", false)
	v.SetDefault("sync_max_records", 5000)
	v.SetDefault("sync_max_body_bytes", 10<<20)
}

// Load читает .env (если есть) и переменные окружения
func Load() (*Config, error) {
	if err := godotenv.Load(envPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", envPath, err)
	}

	v := viper.New()
	v.AutomaticEnv()
	defaults(v)

	cfg := &Config{
		Env: v.GetString("app_env"),
		DB: db{
			DatabaseURI: v.GetString("database_uri"),
			Migrations:  v.GetString("migrations_path"),
		},
		Server: server{
			RunAddress:      v.GetString("run_address"),
			ReadTimeout:     v.GetDuration("read_timeout"),
			WriteTimeout:    v.GetDuration("write_timeout"),
			ShutdownTimeout: v.GetDuration("shutdown_timeout"),
		},
		Logger:  logger{File: v.GetString("log_file")},
		Session: session{TTL: v.GetDuration("session_ttl")},
		Sync: syncConfig{
			AllowReparent: v.GetBool("sync_allow_reparent"),
			MaxRecords:    v.GetInt("sync_max_records"),
			MaxBodyBytes:  v.GetInt64("sync_max_body_bytes"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("config: %v", err))
	}
	return cfg
}

func (c *Config) validate() error {
	switch c.Env {
	case EnvLocal, EnvDev, EnvProd:
	default:
		return fmt.Errorf("unknown APP_ENV %q", c.Env)
	}
	if c.DB.DatabaseURI == "" {
		return errors.New("DATABASE_URI is required")
	}
	if c.Sync.MaxRecords < 0 {
		return fmt.Errorf("SYNC_MAX_RECORDS must not be negative, got %d", c.Sync.MaxRecords)
	}
	if c.Sync.MaxBodyBytes <= 0 {
		return fmt.Errorf("SYNC_MAX_BODY_BYTES must be positive, got %d", c.Sync.MaxBodyBytes)
	}
	return nil
}
