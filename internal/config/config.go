// Package config は環境変数からアプリケーション設定を読み込みます。
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"
)

const (
	StorageMySQL  = "mysql"
	StorageMemory = "memory"
)

type Config struct {
	Env             string        `env:"APP_ENV" env-default:"local"`
	LogLevel        string        `env:"LOG_LEVEL"`
	HTTPAddr        string        `env:"HTTP_ADDR" env-default:":8080"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" env-default:"5s"`
	StorageDriver   string        `env:"STORAGE_DRIVER" env-default:"mysql"`
	CORSOrigins     []string      `env:"CORS_ALLOW_ORIGINS" env-separator:"," env-default:"http://localhost:3000"`
	DB              DBConfig
}

type DBConfig struct {
	User            string        `env:"DB_USER"`
	Pass            string        `env:"DB_PASS"`
	Host            string        `env:"DB_HOST" env-default:"127.0.0.1"`
	Port            string        `env:"DB_PORT" env-default:"3306"`
	Name            string        `env:"DB_NAME"`
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" env-default:"25"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" env-default:"25"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" env-default:"5m"`
	PingTimeout     time.Duration `env:"DB_PING_TIMEOUT" env-default:"10s"`
}

// Load は.envファイル (存在すれば) と環境変数から設定を読み込みます。
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		// 既に設定されている環境変数は上書きされない
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("could not load %s: %w", f, err)
		}
	}

	cfg := new(Config)
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("could not read env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate は値の組み合わせを検証します。
func (c *Config) Validate() error {
	switch c.Env {
	case EnvLocal, EnvDev, EnvProd:
	default:
		return fmt.Errorf("unknown env: %s", c.Env)
	}
	switch c.StorageDriver {
	case StorageMemory:
	case StorageMySQL:
		if c.DB.User == "" || c.DB.Name == "" {
			return errors.New("DB_USER and DB_NAME are required for mysql storage")
		}
	default:
		return fmt.Errorf("unknown storage driver: %s", c.StorageDriver)
	}
	return nil
}
