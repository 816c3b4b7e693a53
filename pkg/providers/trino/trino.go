// Package trino provides Trino connection pools for the DAL. Trino executes
// reads without transaction blocks; the capability table reflects that and
// the pool never wraps one.
package trino

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/trinodb/trino-go-client/trino"

	"github.com/txn2/mcp-dal/pkg/pool"
)

const (
	defaultPlainPort = 8080
	defaultSSLPort   = 443
)

// Config holds connection settings for a Trino target.
type Config struct {
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	User      string `yaml:"user"`
	Password  string `yaml:"password"`
	Catalog   string `yaml:"catalog"`
	Schema    string `yaml:"schema"`
	SSL       bool   `yaml:"ssl"`
	SSLVerify bool   `yaml:"ssl_verify"`

	MaxOpenConns int `yaml:"max_open_conns"`
}

// Open builds a pool for a Trino target from cfg.
func Open(provider string, cfg Config, logger *slog.Logger) (*pool.Pool, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("trino host is required")
	}
	if cfg.User == "" {
		return nil, fmt.Errorf("trino user is required")
	}
	cfg = applyDefaults(cfg)

	serverURI := fmt.Sprintf("%s://%s@%s:%d", scheme(cfg.SSL), userInfo(cfg), cfg.Host, cfg.Port)
	dc := trino.Config{
		ServerURI: serverURI,
		Source:    "mcp-dal",
		Catalog:   cfg.Catalog,
		Schema:    cfg.Schema,
	}
	dsn, err := dc.FormatDSN()
	if err != nil {
		return nil, fmt.Errorf("building trino DSN: %w", err)
	}

	db, err := sql.Open("trino", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening trino pool: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	return pool.New(provider, db, logger), nil
}

func applyDefaults(cfg Config) Config {
	if cfg.Port == 0 {
		if cfg.SSL {
			cfg.Port = defaultSSLPort
		} else {
			cfg.Port = defaultPlainPort
		}
	}
	return cfg
}

func scheme(ssl bool) string {
	if ssl {
		return "https"
	}
	return "http"
}

func userInfo(cfg Config) string {
	if cfg.Password != "" {
		return cfg.User + ":" + cfg.Password
	}
	return cfg.User
}
