// Package snowflake provides Snowflake connection pools for the DAL.
package snowflake

import (
	"database/sql"
	"fmt"
	"log/slog"

	sf "github.com/snowflakedb/gosnowflake"

	"github.com/txn2/mcp-dal/pkg/pool"
)

// Config holds connection settings for a Snowflake target.
type Config struct {
	Account   string `yaml:"account"`
	User      string `yaml:"user"`
	Password  string `yaml:"password"`
	Database  string `yaml:"database"`
	Schema    string `yaml:"schema"`
	Warehouse string `yaml:"warehouse"`
	Role      string `yaml:"role"`

	MaxOpenConns int `yaml:"max_open_conns"`
}

// Open builds a pool for a Snowflake target from cfg.
func Open(provider string, cfg Config, logger *slog.Logger) (*pool.Pool, error) {
	if cfg.Account == "" {
		return nil, fmt.Errorf("snowflake account is required")
	}
	if cfg.User == "" {
		return nil, fmt.Errorf("snowflake user is required")
	}

	dsn, err := sf.DSN(&sf.Config{
		Account:   cfg.Account,
		User:      cfg.User,
		Password:  cfg.Password,
		Database:  cfg.Database,
		Schema:    cfg.Schema,
		Warehouse: cfg.Warehouse,
		Role:      cfg.Role,
	})
	if err != nil {
		return nil, fmt.Errorf("building snowflake DSN: %w", err)
	}

	db, err := sql.Open("snowflake", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening snowflake pool: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	return pool.New(provider, db, logger), nil
}
