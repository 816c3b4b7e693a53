// Package server provides a factory for creating the MCP server.
package server

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/txn2/mcp-dal/pkg/middleware"
	"github.com/txn2/mcp-dal/pkg/platform"
)

// Version is set at build time.
var Version = "dev"

// NewWithConfig loads configuration from path, builds the platform behind
// it, and returns the MCP server with all DAL tools registered. The caller
// owns the returned platform and must Close it.
func NewWithConfig(ctx context.Context, path string, logger *slog.Logger) (*mcp.Server, *platform.Platform, error) {
	cfg, err := platform.LoadConfig(path)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	p, err := platform.New(ctx, cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("creating platform: %w", err)
	}

	return NewWithPlatform(p, logger), p, nil
}

// NewWithPlatform builds the MCP server around an existing platform.
func NewWithPlatform(p *platform.Platform, logger *slog.Logger) *mcp.Server {
	cfg := p.Config()

	version := cfg.Server.Version
	if version == "" {
		version = Version
	}

	srv := mcp.NewServer(&mcp.Implementation{
		Name:    cfg.Server.Name,
		Version: version,
	}, nil)
	srv.AddReceivingMiddleware(middleware.ToolLoggingMiddleware(logger))
	p.RegisterTools(srv)

	return srv
}
