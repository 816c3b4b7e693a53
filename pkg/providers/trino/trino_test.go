package trino

import (
	"log/slog"
	"strings"
	"testing"
)

func TestOpen_Validation(t *testing.T) {
	_, err := Open("trino", Config{}, slog.Default())
	if err == nil || !strings.Contains(err.Error(), "host is required") {
		t.Errorf("Open() error = %v, want host required", err)
	}

	_, err = Open("trino", Config{Host: "trino.example.com"}, slog.Default())
	if err == nil || !strings.Contains(err.Error(), "user is required") {
		t.Errorf("Open() error = %v, want user required", err)
	}
}

func TestOpen(t *testing.T) {
	p, err := Open("trino", Config{Host: "trino.example.com", User: "svc", Catalog: "hive"}, slog.Default())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer func() { _ = p.Close() }()

	if p.Capabilities().SupportsTransactions {
		t.Error("trino pool should not report transaction support")
	}
}

func TestApplyDefaults_PortFollowsScheme(t *testing.T) {
	plain := applyDefaults(Config{Host: "h"})
	if plain.Port != defaultPlainPort {
		t.Errorf("plain Port = %d, want %d", plain.Port, defaultPlainPort)
	}

	ssl := applyDefaults(Config{Host: "h", SSL: true})
	if ssl.Port != defaultSSLPort {
		t.Errorf("ssl Port = %d, want %d", ssl.Port, defaultSSLPort)
	}

	explicit := applyDefaults(Config{Host: "h", Port: 9999})
	if explicit.Port != 9999 {
		t.Errorf("explicit Port = %d, want 9999", explicit.Port)
	}
}

func TestScheme(t *testing.T) {
	if scheme(true) != "https" {
		t.Errorf("scheme(true) = %q", scheme(true))
	}
	if scheme(false) != "http" {
		t.Errorf("scheme(false) = %q", scheme(false))
	}
}

func TestUserInfo(t *testing.T) {
	if got := userInfo(Config{User: "svc"}); got != "svc" {
		t.Errorf("userInfo = %q, want %q", got, "svc")
	}
	if got := userInfo(Config{User: "svc", Password: "pw"}); got != "svc:pw" {
		t.Errorf("userInfo = %q, want %q", got, "svc:pw")
	}
}
