package postgres

import (
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestOpen_RequiresHost(t *testing.T) {
	_, err := Open("postgres", Config{}, slog.Default())
	if err == nil || !strings.Contains(err.Error(), "host is required") {
		t.Errorf("Open() error = %v, want host required", err)
	}
}

func TestOpen(t *testing.T) {
	p, err := Open("postgres", Config{Host: "localhost", User: "app", Database: "appdb"}, slog.Default())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer func() { _ = p.Close() }()

	if p.Provider() != "postgres" {
		t.Errorf("Provider() = %q, want %q", p.Provider(), "postgres")
	}
}

func TestDSN(t *testing.T) {
	cfg := applyDefaults(Config{
		Host:     "db.example.com",
		User:     "app",
		Password: "p@ss:word",
		Database: "warehouse",
		SSLMode:  "require",
	})
	got := dsn(cfg)

	if !strings.HasPrefix(got, "postgres://") {
		t.Errorf("dsn() = %q, want postgres scheme", got)
	}
	if !strings.Contains(got, "db.example.com:5432") {
		t.Errorf("dsn() = %q, want default port 5432", got)
	}
	if !strings.Contains(got, "/warehouse") {
		t.Errorf("dsn() = %q, want database path", got)
	}
	if !strings.Contains(got, "sslmode=require") {
		t.Errorf("dsn() = %q, want sslmode", got)
	}
	// Credentials with reserved characters must be escaped.
	if strings.Contains(got, "p@ss:word@") {
		t.Errorf("dsn() = %q, password not escaped", got)
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := applyDefaults(Config{Host: "localhost"})

	if cfg.Port != 5432 {
		t.Errorf("Port = %d, want 5432", cfg.Port)
	}
	if cfg.SSLMode != "prefer" {
		t.Errorf("SSLMode = %q, want %q", cfg.SSLMode, "prefer")
	}
	if cfg.MaxOpenConns != 10 {
		t.Errorf("MaxOpenConns = %d, want 10", cfg.MaxOpenConns)
	}
	if cfg.ConnMaxLifetime != 30*time.Minute {
		t.Errorf("ConnMaxLifetime = %v, want 30m", cfg.ConnMaxLifetime)
	}
}
