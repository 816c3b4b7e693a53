// Package main provides the entry point for the mcp-dal server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	mcpserver "github.com/txn2/mcp-dal/internal/server"
	"github.com/txn2/mcp-dal/pkg/health"
	"github.com/txn2/mcp-dal/pkg/platform"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type serverOptions struct {
	configPath  string
	transport   string
	address     string
	logLevel    string
	showVersion bool
}

func parseFlags() serverOptions {
	opts := serverOptions{}
	flag.StringVar(&opts.configPath, "config", "", "Path to configuration file")
	flag.StringVar(&opts.transport, "transport", "stdio", "Transport type: stdio, http")
	flag.StringVar(&opts.address, "address", ":8080", "Server address for the http transport")
	flag.StringVar(&opts.logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	flag.BoolVar(&opts.showVersion, "version", false, "Show version and exit")
	flag.Parse()
	return opts
}

// newLogger builds the process logger. Logs go to stderr so the stdio
// transport keeps stdout for the protocol.
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

func setupSignalHandler() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()
	return ctx
}

func run() error {
	opts := parseFlags()

	if opts.showVersion {
		fmt.Printf("mcp-dal version %s\n", mcpserver.Version)
		return nil
	}
	if opts.configPath == "" {
		return fmt.Errorf("a configuration file is required (-config)")
	}

	logger := newLogger(opts.logLevel)
	ctx := setupSignalHandler()

	srv, p, err := mcpserver.NewWithConfig(ctx, opts.configPath, logger)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	defer func() { _ = p.Close() }()

	applyConfigOverrides(p, &opts)

	// Connectivity tests can block on slow backends; run the startup
	// sequence alongside the transport.
	go func() {
		if err := p.Start(ctx); err != nil {
			logger.Warn("platform start failed", "error", err)
		}
	}()

	return startServer(ctx, srv, p, opts)
}

// applyConfigOverrides lets the config file win over flag defaults.
func applyConfigOverrides(p *platform.Platform, opts *serverOptions) {
	if p.Config().Server.Transport != "" {
		opts.transport = p.Config().Server.Transport
	}
	if p.Config().Server.Address != "" {
		opts.address = p.Config().Server.Address
	}
}

func startServer(ctx context.Context, srv *mcp.Server, p *platform.Platform, opts serverOptions) error {
	switch opts.transport {
	case "stdio":
		return srv.Run(ctx, &mcp.StdioTransport{})
	case "http":
		return serveHTTP(ctx, srv, p, opts.address)
	default:
		return fmt.Errorf("unknown transport: %s", opts.transport)
	}
}

// newMux routes the streamable MCP endpoint alongside the health probes.
func newMux(srv *mcp.Server, checker *health.Checker) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/mcp", mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return srv }, nil))
	mux.HandleFunc("/healthz", checker.LivenessHandler())
	mux.HandleFunc("/readyz", checker.ReadinessHandler())
	return mux
}

func serveHTTP(ctx context.Context, srv *mcp.Server, p *platform.Platform, address string) error {
	httpServer := &http.Server{
		Addr:              address,
		Handler:           newMux(srv, p.Checker()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		p.Checker().SetDraining()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	}
}
