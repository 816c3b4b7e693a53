package snowflake

import (
	"log/slog"
	"strings"
	"testing"
)

func TestOpen_Validation(t *testing.T) {
	_, err := Open("snowflake", Config{}, slog.Default())
	if err == nil || !strings.Contains(err.Error(), "account is required") {
		t.Errorf("Open() error = %v, want account required", err)
	}

	_, err = Open("snowflake", Config{Account: "xy12345"}, slog.Default())
	if err == nil || !strings.Contains(err.Error(), "user is required") {
		t.Errorf("Open() error = %v, want user required", err)
	}
}

func TestOpen(t *testing.T) {
	p, err := Open("snowflake", Config{
		Account:   "xy12345",
		User:      "svc",
		Password:  "pw",
		Database:  "analytics",
		Warehouse: "compute_wh",
	}, slog.Default())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer func() { _ = p.Close() }()

	if p.Provider() != "snowflake" {
		t.Errorf("Provider() = %q, want %q", p.Provider(), "snowflake")
	}
}
