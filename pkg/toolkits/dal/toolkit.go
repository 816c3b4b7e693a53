// Package dal provides the MCP toolkit exposing SQL data-access tools over
// the configured query targets.
package dal

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/txn2/mcp-dal/pkg/dalerror"
	"github.com/txn2/mcp-dal/pkg/dialect"
	"github.com/txn2/mcp-dal/pkg/executor"
	"github.com/txn2/mcp-dal/pkg/introspect"
	"github.com/txn2/mcp-dal/pkg/registry"
)

const defaultSampleRowLimit = 10

// Config holds DAL toolkit configuration.
type Config struct {
	// ReadOnly blocks statements that modify data or schema before they
	// reach any backend.
	ReadOnly bool `yaml:"read_only"`
	// DefaultTarget is used when a tool call names no target.
	DefaultTarget string `yaml:"default_target"`
	// SampleRowLimit bounds get_sample_rows output.
	SampleRowLimit int `yaml:"sample_row_limit"`
}

// Toolkit registers the data-access tools with an MCP server.
type Toolkit struct {
	name      string
	config    Config
	registry  *registry.Registry
	exec      *executor.Executor
	inspector *introspect.Inspector
	logger    *slog.Logger
}

// New creates a DAL toolkit over a target registry.
func New(name string, cfg Config, reg *registry.Registry, exec *executor.Executor, logger *slog.Logger) (*Toolkit, error) {
	if reg == nil {
		return nil, fmt.Errorf("target registry is required")
	}
	if exec == nil {
		exec = executor.New(logger)
	}
	if cfg.SampleRowLimit <= 0 {
		cfg.SampleRowLimit = defaultSampleRowLimit
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Toolkit{
		name:      name,
		config:    cfg,
		registry:  reg,
		exec:      exec,
		inspector: introspect.New(exec),
		logger:    logger.With("component", "dal_toolkit"),
	}, nil
}

// Kind returns the toolkit kind.
func (*Toolkit) Kind() string {
	return "dal"
}

// Name returns the toolkit instance name.
func (t *Toolkit) Name() string {
	return t.name
}

// Tools returns the list of tool names provided by this toolkit.
func (*Toolkit) Tools() []string {
	return []string{
		"query",
		"list_targets",
		"list_table_names",
		"get_table_def",
		"get_sample_rows",
	}
}

// RegisterTools registers all DAL tools with the MCP server.
func (t *Toolkit) RegisterTools(s *mcp.Server) {
	mcp.AddTool(s, &mcp.Tool{
		Name: "query",
		Description: "Run a SQL query against a configured target. Results are paginated; " +
			"pass the returned next_page_token to continue a result set.",
	}, t.handleQuery)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "list_targets",
		Description: "List the configured query targets and their capabilities.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, t.handleListTargets)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "list_table_names",
		Description: "List table names in a schema (optionally catalog.schema) of a target.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, t.handleListTableNames)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_table_def",
		Description: "Describe a table's columns with normalized and native types.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, t.handleGetTableDef)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_sample_rows",
		Description: "Fetch a few sample rows from a table.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, t.handleGetSampleRows)
}

// Close releases resources. Target lifecycles belong to the registry owner.
func (*Toolkit) Close() error {
	return nil
}

// queryInput defines the input schema for the query tool.
type queryInput struct {
	Target    string `json:"target,omitempty"`
	SQL       string `json:"sql"`
	Params    []any  `json:"params,omitempty"`
	TenantID  string `json:"tenant_id,omitempty"`
	MaxRows   int    `json:"max_rows,omitempty"`
	Limit     int    `json:"limit,omitempty"`
	PageToken string `json:"page_token,omitempty"`
}

func (t *Toolkit) handleQuery(ctx context.Context, _ *mcp.CallToolRequest, input queryInput) (*mcp.CallToolResult, any, error) {
	target, err := t.resolveTarget(input.Target)
	if err != nil {
		return errorResult(err.Error()), nil, nil
	}

	if t.config.ReadOnly {
		if err := checkReadOnly(input.SQL); err != nil {
			return errorResult(err.Error()), nil, nil
		}
	}

	result, err := t.exec.Query(ctx, target, executor.Request{
		SQL:       input.SQL,
		Params:    input.Params,
		TenantID:  input.TenantID,
		ReadOnly:  t.config.ReadOnly,
		MaxRows:   input.MaxRows,
		Limit:     input.Limit,
		PageToken: input.PageToken,
	})
	if err != nil {
		return dalErrorResult(err), nil, nil
	}
	return jsonResult(result)
}

// targetEntry describes one configured target.
type targetEntry struct {
	Name                 string `json:"name"`
	Provider             string `json:"provider"`
	ExecutionModel       string `json:"execution_model"`
	SupportsTransactions bool   `json:"supports_transactions"`
	SupportsCancel       bool   `json:"supports_cancel"`
}

// listTargetsOutput is the JSON response for the list_targets tool.
type listTargetsOutput struct {
	Targets []targetEntry `json:"targets"`
	Count   int           `json:"count"`
}

// listTargetsInput is empty since this tool has no parameters.
type listTargetsInput struct{}

func (t *Toolkit) handleListTargets(_ context.Context, _ *mcp.CallToolRequest, _ listTargetsInput) (*mcp.CallToolResult, any, error) {
	targets := t.registry.All()

	entries := make([]targetEntry, 0, len(targets))
	for _, target := range targets {
		caps := target.Capabilities()
		entries = append(entries, targetEntry{
			Name:                 target.Name,
			Provider:             target.Provider,
			ExecutionModel:       string(caps.ExecutionModel),
			SupportsTransactions: caps.SupportsTransactions,
			SupportsCancel:       caps.SupportsCancel,
		})
	}

	return jsonResult(listTargetsOutput{Targets: entries, Count: len(entries)})
}

// schemaInput names a schema within a target.
type schemaInput struct {
	Target   string `json:"target,omitempty"`
	Schema   string `json:"schema"`
	TenantID string `json:"tenant_id,omitempty"`
}

// listTableNamesOutput is the JSON response for the list_table_names tool.
type listTableNamesOutput struct {
	Tables []string `json:"tables"`
	Count  int      `json:"count"`
}

func (t *Toolkit) handleListTableNames(ctx context.Context, _ *mcp.CallToolRequest, input schemaInput) (*mcp.CallToolResult, any, error) {
	target, err := t.resolveTarget(input.Target)
	if err != nil {
		return errorResult(err.Error()), nil, nil
	}

	names, err := t.inspector.ListTableNames(ctx, target, input.TenantID, parseSchemaPath(input.Schema))
	if err != nil {
		return dalErrorResult(err), nil, nil
	}
	return jsonResult(listTableNamesOutput{Tables: names, Count: len(names)})
}

// tableInput names a table within a target.
type tableInput struct {
	Target   string `json:"target,omitempty"`
	Table    string `json:"table"`
	TenantID string `json:"tenant_id,omitempty"`
	Limit    int    `json:"limit,omitempty"`
}

func (t *Toolkit) handleGetTableDef(ctx context.Context, _ *mcp.CallToolRequest, input tableInput) (*mcp.CallToolResult, any, error) {
	target, err := t.resolveTarget(input.Target)
	if err != nil {
		return errorResult(err.Error()), nil, nil
	}

	def, err := t.inspector.GetTableDef(ctx, target, input.TenantID, dialect.ParseNamespace(input.Table))
	if err != nil {
		return dalErrorResult(err), nil, nil
	}
	return jsonResult(def)
}

func (t *Toolkit) handleGetSampleRows(ctx context.Context, _ *mcp.CallToolRequest, input tableInput) (*mcp.CallToolResult, any, error) {
	target, err := t.resolveTarget(input.Target)
	if err != nil {
		return errorResult(err.Error()), nil, nil
	}

	limit := input.Limit
	if limit <= 0 || limit > t.config.SampleRowLimit {
		limit = t.config.SampleRowLimit
	}

	rows, err := t.inspector.GetSampleRows(ctx, target, input.TenantID, dialect.ParseNamespace(input.Table), limit)
	if err != nil {
		return dalErrorResult(err), nil, nil
	}
	return jsonResult(rows)
}

// resolveTarget maps a tool-call target name to a registered target, falling
// back to the configured default.
func (t *Toolkit) resolveTarget(name string) (*executor.Target, error) {
	if name == "" {
		name = t.config.DefaultTarget
	}
	if name == "" {
		names := t.registry.Names()
		if len(names) == 1 {
			name = names[0]
		} else {
			return nil, fmt.Errorf("target is required; configured targets: %s", strings.Join(names, ", "))
		}
	}

	target, ok := t.registry.Get(name)
	if !ok {
		return nil, fmt.Errorf("unknown target %q; configured targets: %s", name, strings.Join(t.registry.Names(), ", "))
	}
	return target, nil
}

// parseSchemaPath parses "schema" or "catalog.schema" into a namespace.
func parseSchemaPath(s string) dialect.Namespace {
	parts := strings.SplitN(s, ".", 2)
	if len(parts) == 2 {
		return dialect.Namespace{Level1: parts[0], Level2: parts[1]}
	}
	return dialect.Namespace{Level2: s}
}

// jsonResult marshals v as an indented JSON text result. A value that cannot
// be encoded comes back as a TOOL_RESPONSE_MALFORMED envelope.
func jsonResult(v any) (*mcp.CallToolResult, any, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return malformedResult("encoding response: " + err.Error()), nil, nil
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(data)},
		},
	}, nil, nil
}

// malformedResult renders a response the DAL itself could not encode.
func malformedResult(msg string) *mcp.CallToolResult {
	env := dalerror.NewEnvelope(dalerror.Malformed("", msg))
	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return errorResult(msg)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(data)},
		},
		IsError: true,
	}
}

// errorResult creates an error CallToolResult.
func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf(`{"error": %q}`, msg)},
		},
		IsError: true,
	}
}

// dalErrorResult renders a classified failure as the versioned error envelope.
func dalErrorResult(err error) *mcp.CallToolResult {
	env := dalerror.NewEnvelope(dalerror.InfoFrom(err))
	data, mErr := json.MarshalIndent(env, "", "  ")
	if mErr != nil {
		return errorResult(err.Error())
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(data)},
		},
		IsError: true,
	}
}

// Verify interface compliance.
var _ interface {
	Kind() string
	Name() string
	RegisterTools(s *mcp.Server)
	Tools() []string
	Close() error
} = (*Toolkit)(nil)
