package main

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/txn2/mcp-dal/pkg/health"
	"github.com/txn2/mcp-dal/pkg/platform"
)

func TestNewMux_HealthRoutes(t *testing.T) {
	srv := mcp.NewServer(&mcp.Implementation{Name: "test-dal", Version: "0.0.1"}, nil)
	checker := health.NewChecker()
	mux := newMux(srv, checker)

	t.Run("liveness always ok", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Errorf("/healthz status = %d, want %d", w.Code, http.StatusOK)
		}
	})

	t.Run("readiness follows checker state", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, req)
		if w.Code != http.StatusServiceUnavailable {
			t.Errorf("/readyz status before ready = %d, want %d", w.Code, http.StatusServiceUnavailable)
		}

		checker.SetReady()
		w = httptest.NewRecorder()
		mux.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Errorf("/readyz status after ready = %d, want %d", w.Code, http.StatusOK)
		}
	})

	t.Run("mcp endpoint registered", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/mcp", nil)
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, req)
		if w.Code == http.StatusNotFound {
			t.Error("/mcp should be routed")
		}
	})
}

func newTestPlatform(t *testing.T, yaml string) *platform.Platform {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	cfg, err := platform.LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	p, err := platform.New(context.Background(), cfg, slog.Default())
	if err != nil {
		t.Fatalf("platform.New() error = %v", err)
	}
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func TestApplyConfigOverrides(t *testing.T) {
	p := newTestPlatform(t, `
server:
  transport: http
  address: ":9090"
`)

	opts := serverOptions{transport: "stdio", address: ":8080"}
	applyConfigOverrides(p, &opts)

	if opts.transport != "http" {
		t.Errorf("transport = %q, want %q", opts.transport, "http")
	}
	if opts.address != ":9090" {
		t.Errorf("address = %q, want %q", opts.address, ":9090")
	}
}

func TestStartServer_UnknownTransport(t *testing.T) {
	p := newTestPlatform(t, `
server:
  transport: stdio
`)
	srv := mcp.NewServer(&mcp.Implementation{Name: "test-dal", Version: "0.0.1"}, nil)

	err := startServer(context.Background(), srv, p, serverOptions{transport: "telepathy"})
	if err == nil || !strings.Contains(err.Error(), "unknown transport") {
		t.Errorf("startServer() error = %v, want unknown transport", err)
	}
}

func TestNewLogger_Levels(t *testing.T) {
	tests := []struct {
		level   string
		enabled slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logger := newLogger(tt.level)
			if !logger.Enabled(context.Background(), tt.enabled) {
				t.Errorf("level %s should be enabled", tt.level)
			}
		})
	}
}
