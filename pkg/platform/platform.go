package platform

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/txn2/mcp-dal/pkg/capability"
	"github.com/txn2/mcp-dal/pkg/database/migrate"
	"github.com/txn2/mcp-dal/pkg/executor"
	"github.com/txn2/mcp-dal/pkg/health"
	"github.com/txn2/mcp-dal/pkg/providers/bigquery"
	"github.com/txn2/mcp-dal/pkg/providers/mysql"
	"github.com/txn2/mcp-dal/pkg/providers/postgres"
	"github.com/txn2/mcp-dal/pkg/providers/snowflake"
	"github.com/txn2/mcp-dal/pkg/providers/trino"
	"github.com/txn2/mcp-dal/pkg/registry"
	"github.com/txn2/mcp-dal/pkg/targetstore"
	storepg "github.com/txn2/mcp-dal/pkg/targetstore/postgres"
	"github.com/txn2/mcp-dal/pkg/toolkits/dal"
)

// Platform is the main service facade: it owns the target registry, the
// query executor, the metadata store, and the DAL toolkit.
type Platform struct {
	config    *Config
	logger    *slog.Logger
	lifecycle *Lifecycle

	registry *registry.Registry
	exec     *executor.Executor
	toolkit  *dal.Toolkit
	checker  *health.Checker

	metaDB *sql.DB
	store  targetstore.Store
	tester *targetstore.Tester
}

// New builds a platform from configuration. Targets are opened lazily by
// their drivers; no network traffic happens until the first use or an
// explicit connectivity test.
func New(ctx context.Context, cfg *Config, logger *slog.Logger) (*Platform, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	p := &Platform{
		config:    cfg,
		logger:    logger.With("component", "platform"),
		lifecycle: NewLifecycle(logger),
		registry:  registry.New(),
		exec:      executor.New(logger),
		checker:   health.NewChecker(),
	}

	if err := p.initMetadataStore(); err != nil {
		return nil, err
	}
	if err := p.initTargets(ctx); err != nil {
		_ = p.Close()
		return nil, err
	}
	if err := p.initToolkit(); err != nil {
		_ = p.Close()
		return nil, err
	}

	p.lifecycle.RegisterCloser(p.registry)
	p.lifecycle.OnStart(func(ctx context.Context) error {
		p.TestTargets(ctx)
		return nil
	})
	return p, nil
}

// Start runs the startup sequence: the connectivity sweep over all
// registered targets, after which the health checker reports ready.
func (p *Platform) Start(ctx context.Context) error {
	return p.lifecycle.Start(ctx)
}

// initMetadataStore opens the metadata database when configured and prepares
// the target store on top of it.
func (p *Platform) initMetadataStore() error {
	if p.config.Database.DSN == "" {
		return nil
	}

	db, err := sql.Open("postgres", p.config.Database.DSN)
	if err != nil {
		return fmt.Errorf("opening metadata database: %w", err)
	}
	db.SetMaxOpenConns(p.config.Database.MaxOpenConns)
	p.metaDB = db
	p.lifecycle.RegisterCloser(db)

	if p.config.Database.Migrate {
		if err := migrate.Run(db); err != nil {
			return fmt.Errorf("migrating metadata database: %w", err)
		}
	}

	p.store = storepg.New(db)
	p.tester = targetstore.NewTester(p.store, p.exec, p.logger)
	return nil
}

// initTargets builds a pool or job runner for every configured target and
// registers it.
func (p *Platform) initTargets(ctx context.Context) error {
	for name, tc := range p.config.Targets {
		target, err := p.buildTarget(ctx, name, tc)
		if err != nil {
			return fmt.Errorf("building target %s: %w", name, err)
		}
		if err := p.registry.Add(target); err != nil {
			_ = target.Close()
			return err
		}
		p.logger.Info("target configured", "target", name, "provider", tc.Provider)
	}
	return nil
}

// buildTarget decodes the provider-specific connection section and opens the
// matching pool or job runner.
func (p *Platform) buildTarget(ctx context.Context, name string, tc TargetConfig) (*executor.Target, error) {
	provider, _ := capability.Canonical(tc.Provider)

	switch provider {
	case capability.PostgreSQL, capability.CockroachDB:
		var cfg postgres.Config
		if err := decodeConnection(tc, &cfg); err != nil {
			return nil, err
		}
		pl, err := postgres.Open(string(provider), cfg, p.logger)
		if err != nil {
			return nil, err
		}
		return executor.NewTarget(name, string(provider), pl, nil, tc.Guardrails)

	case capability.MySQL:
		var cfg mysql.Config
		if err := decodeConnection(tc, &cfg); err != nil {
			return nil, err
		}
		pl, err := mysql.Open(string(provider), cfg, p.logger)
		if err != nil {
			return nil, err
		}
		return executor.NewTarget(name, string(provider), pl, nil, tc.Guardrails)

	case capability.Trino:
		var cfg trino.Config
		if err := decodeConnection(tc, &cfg); err != nil {
			return nil, err
		}
		pl, err := trino.Open(string(provider), cfg, p.logger)
		if err != nil {
			return nil, err
		}
		return executor.NewTarget(name, string(provider), pl, nil, tc.Guardrails)

	case capability.Snowflake:
		var cfg snowflake.Config
		if err := decodeConnection(tc, &cfg); err != nil {
			return nil, err
		}
		pl, err := snowflake.Open(string(provider), cfg, p.logger)
		if err != nil {
			return nil, err
		}
		return executor.NewTarget(name, string(provider), pl, nil, tc.Guardrails)

	case capability.BigQuery:
		var cfg bigquery.Config
		if err := decodeConnection(tc, &cfg); err != nil {
			return nil, err
		}
		runner, err := bigquery.New(ctx, cfg, p.logger)
		if err != nil {
			return nil, err
		}
		return executor.NewTarget(name, string(provider), nil, runner, tc.Guardrails)

	default:
		return nil, fmt.Errorf("provider %q is not supported", tc.Provider)
	}
}

func decodeConnection(tc TargetConfig, out any) error {
	if tc.Connection.IsZero() {
		return fmt.Errorf("connection section is required")
	}
	if err := tc.Connection.Decode(out); err != nil {
		return fmt.Errorf("decoding connection: %w", err)
	}
	return nil
}

func (p *Platform) initToolkit() error {
	tk, err := dal.New("dal", p.config.Toolkit, p.registry, p.exec, p.logger)
	if err != nil {
		return fmt.Errorf("creating toolkit: %w", err)
	}
	p.toolkit = tk
	return nil
}

// RegisterTools registers the DAL tools with the MCP server.
func (p *Platform) RegisterTools(s *mcp.Server) {
	p.toolkit.RegisterTools(s)
}

// Config returns the platform configuration.
func (p *Platform) Config() *Config {
	return p.config
}

// Registry returns the target registry.
func (p *Platform) Registry() *registry.Registry {
	return p.registry
}

// Executor returns the shared query executor.
func (p *Platform) Executor() *executor.Executor {
	return p.exec
}

// Checker returns the health checker.
func (p *Platform) Checker() *health.Checker {
	return p.checker
}

// Store returns the target store, or nil when no metadata database is
// configured.
func (p *Platform) Store() targetstore.Store {
	return p.store
}

// TestTargets runs a connectivity test against every registered target and
// records the outcomes. With a metadata store configured the lifecycle
// transitions are persisted; without one, outcomes only feed the health
// checker. Individual failures do not abort the sweep.
func (p *Platform) TestTargets(ctx context.Context) {
	for _, target := range p.registry.All() {
		h := health.TargetHealth{Name: target.Name, Provider: target.Provider}

		status, err := p.testTarget(ctx, target)
		if err != nil {
			p.logger.Warn("connectivity test not recorded", "target", target.Name, "error", err)
			continue
		}
		h.Status = string(status.Status)
		h.Detail = status.Detail
		p.checker.SetTargetHealth(h)
	}
	p.checker.SetReady()
}

type testResult struct {
	Status targetstore.Status
	Detail string
}

func (p *Platform) testTarget(ctx context.Context, target *executor.Target) (testResult, error) {
	if p.tester == nil {
		// No metadata store: probe directly and report health only.
		_, err := p.exec.Query(ctx, target, executor.Request{SQL: "SELECT 1", ReadOnly: true, MaxRows: 1})
		if err != nil {
			return testResult{Status: targetstore.StatusUnhealthy, Detail: err.Error()}, nil
		}
		return testResult{Status: targetstore.StatusActive}, nil
	}

	rec, err := p.ensureRecord(ctx, target)
	if err != nil {
		return testResult{}, err
	}
	status, err := p.tester.Test(ctx, rec, target)
	if err != nil {
		return testResult{}, err
	}
	return testResult{Status: status, Detail: rec.LastTestError}, nil
}

// ensureRecord loads the stored record for a configured target, creating it
// on first sight.
func (p *Platform) ensureRecord(ctx context.Context, target *executor.Target) (*targetstore.Record, error) {
	rec, err := p.store.GetByName(ctx, target.Name)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, targetstore.ErrNotFound) {
		return nil, err
	}

	rec = &targetstore.Record{
		Name:      target.Name,
		Provider:  target.Provider,
		Guardrail: target.Guardrails,
	}
	if err := p.store.Create(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Close releases all platform resources.
func (p *Platform) Close() error {
	return p.lifecycle.Stop(context.Background())
}
