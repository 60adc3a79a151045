package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	defaultServerAddress = "localhost:8080"
	defaultEnv           = "local"
	defaultConfigDir     = ".farmsync"
	defaultTimeout       = 30 * time.Second
)

type Config struct {
	Env           string        `mapstructure:"app_env"`
	ServerAddress string        `mapstructure:"server_address"`
	ConfigDir     string        `mapstructure:"config_dir"`
	DataPath      string        `mapstructure:"data_path"`
	EnableTLS     bool          `mapstructure:"enable_tls"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

// Load собирает конфигурацию из .env, файла конфигурации и окружения.
// v должен быть уже прочитан вызывающим (ReadInConfig), если используется файл.
func Load(v *viper.Viper) (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return nil, fmt.Errorf("load .env: %w", err)
		}
	}

	v.AutomaticEnv()
	v.SetDefault("app_env", defaultEnv)
	v.SetDefault("server_address", defaultServerAddress)
	v.SetDefault("config_dir", defaultConfigDir)
	v.SetDefault("enable_tls", false)
	v.SetDefault("timeout", defaultTimeout)

	configDir := v.GetString("config_dir")
	if configDir == defaultConfigDir {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		configDir = filepath.Join(home, configDir)
	}

	dataPath := v.GetString("data_path")
	if dataPath == "" {
		dataPath = filepath.Join(configDir, "state.db")
	}

	cfg := &Config{
		Env:           v.GetString("app_env"),
		ServerAddress: v.GetString("server_address"),
		ConfigDir:     configDir,
		DataPath:      dataPath,
		EnableTLS:     v.GetBool("enable_tls"),
		Timeout:       v.GetDuration("timeout"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.ServerAddress == "" {
		return errors.New("server_address не может быть пустым")
	}
	if c.Timeout <= 0 {
		return errors.New("timeout должен быть положительным")
	}
	return nil
}

// BaseURL адрес сервера с протоколом
func (c *Config) BaseURL() string {
	scheme := "http://"
	if c.EnableTLS {
		scheme = "https://"
	}
	return scheme + c.ServerAddress
}

// EnsureDirs создает каталог для локального состояния
func (c *Config) EnsureDirs() error {
	if err := os.MkdirAll(filepath.Dir(c.DataPath), 0o700); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	return nil
}
