// Package postgres provides PostgreSQL and CockroachDB connection pools for
// the DAL. CockroachDB speaks the Postgres wire protocol, so both providers
// share this driver.
package postgres

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	// Registers the "postgres" driver.
	_ "github.com/lib/pq"

	"github.com/txn2/mcp-dal/pkg/pool"
)

// Config holds connection settings for a Postgres-wire target.
type Config struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"ssl_mode"`

	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// Open builds a pool for the provider ("postgres" or "cockroach") from cfg.
func Open(provider string, cfg Config, logger *slog.Logger) (*pool.Pool, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("postgres host is required")
	}
	cfg = applyDefaults(cfg)

	db, err := sql.Open("postgres", dsn(cfg))
	if err != nil {
		return nil, fmt.Errorf("opening postgres pool: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	return pool.New(provider, db, logger), nil
}

func applyDefaults(cfg Config) Config {
	if cfg.Port == 0 {
		cfg.Port = 5432
	}
	if cfg.SSLMode == "" {
		cfg.SSLMode = "prefer"
	}
	if cfg.MaxOpenConns == 0 {
		cfg.MaxOpenConns = 10
	}
	if cfg.MaxIdleConns == 0 {
		cfg.MaxIdleConns = 2
	}
	if cfg.ConnMaxLifetime == 0 {
		cfg.ConnMaxLifetime = 30 * time.Minute
	}
	return cfg
}

func dsn(cfg Config) string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(cfg.User, cfg.Password),
		Host:   fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Path:   "/" + cfg.Database,
	}
	q := u.Query()
	q.Set("sslmode", cfg.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
