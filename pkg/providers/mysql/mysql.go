// Package mysql provides MySQL and MariaDB connection pools for the DAL.
package mysql

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/txn2/mcp-dal/pkg/pool"
)

// Config holds connection settings for a MySQL target.
type Config struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	TLS      bool   `yaml:"tls"`

	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// Open builds a pool for a MySQL-wire target from cfg.
func Open(provider string, cfg Config, logger *slog.Logger) (*pool.Pool, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("mysql host is required")
	}
	cfg = applyDefaults(cfg)

	dc := mysql.NewConfig()
	dc.Net = "tcp"
	dc.Addr = fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	dc.User = cfg.User
	dc.Passwd = cfg.Password
	dc.DBName = cfg.Database
	dc.ParseTime = true
	if cfg.TLS {
		dc.TLSConfig = "true"
	}

	db, err := sql.Open("mysql", dc.FormatDSN())
	if err != nil {
		return nil, fmt.Errorf("opening mysql pool: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	return pool.New(provider, db, logger), nil
}

func applyDefaults(cfg Config) Config {
	if cfg.Port == 0 {
		cfg.Port = 3306
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
