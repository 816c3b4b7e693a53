package server

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/txn2/mcp-dal/pkg/platform"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// listTools connects an in-memory client to the server and lists its tools.
func listTools(t *testing.T, srv *mcp.Server) []string {
	t.Helper()
	ctx := context.Background()

	t1, t2 := mcp.NewInMemoryTransports()
	serverSession, err := srv.Connect(ctx, t1, nil)
	require.NoError(t, err)
	defer func() { _ = serverSession.Close() }()

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v1"}, nil)
	session, err := client.Connect(ctx, t2, nil)
	require.NoError(t, err)
	defer func() { _ = session.Close() }()

	result, err := session.ListTools(ctx, &mcp.ListToolsParams{})
	require.NoError(t, err)

	names := make([]string, 0, len(result.Tools))
	for _, tool := range result.Tools {
		names = append(names, tool.Name)
	}
	return names
}

func TestNewWithConfig(t *testing.T) {
	path := writeConfig(t, `
server:
  name: dal-test
  transport: stdio
targets:
  warehouse:
    provider: trino
    connection:
      host: trino.example.com
      user: svc
      catalog: hive
`)

	srv, p, err := NewWithConfig(context.Background(), path, slog.Default())
	require.NoError(t, err)
	defer func() { _ = p.Close() }()

	names := listTools(t, srv)
	assert.Contains(t, names, "query")
	assert.Contains(t, names, "list_targets")
	assert.Contains(t, names, "list_table_names")
	assert.Contains(t, names, "get_table_def")
	assert.Contains(t, names, "get_sample_rows")
}

func TestNewWithConfig_MissingFile(t *testing.T) {
	_, _, err := NewWithConfig(context.Background(), "/nonexistent/config.yaml", nil)
	assert.Error(t, err)
}

func TestNewWithConfig_InvalidConfig(t *testing.T) {
	path := writeConfig(t, `
server:
  transport: telegraph
`)
	_, _, err := NewWithConfig(context.Background(), path, nil)
	assert.Error(t, err)
}

func TestNewWithPlatform_VersionFallback(t *testing.T) {
	path := writeConfig(t, `
server:
  transport: stdio
`)
	cfg, err := platform.LoadConfig(path)
	require.NoError(t, err)
	// Defaults give the config a version; clear it to exercise the
	// build-time fallback.
	cfg.Server.Version = ""

	p, err := platform.New(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer func() { _ = p.Close() }()

	srv := NewWithPlatform(p, nil)
	assert.NotNil(t, srv)
}
