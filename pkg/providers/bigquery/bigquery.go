// Package bigquery implements the DAL job protocol on BigQuery: queries run
// as background jobs that are submitted, polled, fetched, and cancelled by ID.
package bigquery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/txn2/mcp-dal/pkg/executor"
)

// Config holds connection settings for a BigQuery target.
type Config struct {
	ProjectID       string `yaml:"project_id"`
	Location        string `yaml:"location"`
	CredentialsFile string `yaml:"credentials_file"`
}

// Runner drives BigQuery jobs through the executor's submit/poll/fetch/cancel
// protocol.
type Runner struct {
	client   *bigquery.Client
	location string
	logger   *slog.Logger
}

// New creates a Runner for the configured project.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Runner, error) {
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("bigquery project_id is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := bigquery.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating bigquery client: %w", err)
	}
	if cfg.Location != "" {
		client.Location = cfg.Location
	}

	return &Runner{
		client:   client,
		location: cfg.Location,
		logger:   logger.With("component", "bigquery"),
	}, nil
}

// Submit starts a query job and returns its ID.
func (r *Runner) Submit(ctx context.Context, sqlText string, params []any) (string, error) {
	q := r.client.Query(sqlText)
	for _, p := range params {
		q.Parameters = append(q.Parameters, bigquery.QueryParameter{Value: p})
	}

	job, err := q.Run(ctx)
	if err != nil {
		return "", fmt.Errorf("starting bigquery job: %w", err)
	}
	return job.ID(), nil
}

// Poll reports the job's state. A FAILED state carries the backend's failure
// detail as the returned error.
func (r *Runner) Poll(ctx context.Context, jobID string) (executor.JobState, error) {
	job, err := r.client.JobFromID(ctx, jobID)
	if err != nil {
		return "", fmt.Errorf("looking up job %s: %w", jobID, err)
	}
	status, err := job.Status(ctx)
	if err != nil {
		return "", fmt.Errorf("checking job %s status: %w", jobID, err)
	}

	if !status.Done() {
		return executor.JobRunning, nil
	}
	if serr := status.Err(); serr != nil {
		if isCancelled(serr) {
			return executor.JobCancelled, serr
		}
		return executor.JobFailed, serr
	}
	return executor.JobSucceeded, nil
}

// Fetch reads up to maxRows result rows for a succeeded job.
func (r *Runner) Fetch(ctx context.Context, jobID string, maxRows int) (*executor.RawRows, error) {
	job, err := r.client.JobFromID(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("looking up job %s: %w", jobID, err)
	}
	it, err := job.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading job %s results: %w", jobID, err)
	}

	raw := &executor.RawRows{}
	for {
		if maxRows > 0 && len(raw.Rows) >= maxRows {
			break
		}
		var row map[string]bigquery.Value
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("iterating job %s results: %w", jobID, err)
		}
		if raw.Columns == nil {
			raw.Columns = schemaColumns(it.Schema)
		}
		rowMap := make(map[string]any, len(row))
		for k, v := range row {
			rowMap[k] = v
		}
		raw.Rows = append(raw.Rows, rowMap)
	}
	if raw.Columns == nil {
		raw.Columns = schemaColumns(it.Schema)
	}
	return raw, nil
}

// Cancel requests termination of a running job. BigQuery treats cancellation
// as best-effort; the job may still complete.
func (r *Runner) Cancel(ctx context.Context, jobID string) error {
	job, err := r.client.JobFromID(ctx, jobID)
	if err != nil {
		return fmt.Errorf("looking up job %s: %w", jobID, err)
	}
	if err := job.Cancel(ctx); err != nil {
		return fmt.Errorf("cancelling job %s: %w", jobID, err)
	}
	return nil
}

// Close releases the underlying client.
func (r *Runner) Close() error {
	return r.client.Close()
}

func schemaColumns(schema bigquery.Schema) []executor.RawColumn {
	if len(schema) == 0 {
		return nil
	}
	cols := make([]executor.RawColumn, len(schema))
	for i, f := range schema {
		cols[i] = executor.RawColumn{Name: f.Name, NativeType: string(f.Type)}
	}
	return cols
}

func isCancelled(err error) bool {
	return errors.Is(err, context.Canceled) ||
		strings.Contains(strings.ToLower(err.Error()), "cancel")
}

// Verify interface compliance.
var _ executor.JobRunner = (*Runner)(nil)
