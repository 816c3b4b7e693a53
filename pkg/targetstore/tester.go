package targetstore

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/txn2/mcp-dal/pkg/dalerror"
	"github.com/txn2/mcp-dal/pkg/executor"
)

// Tester runs connectivity tests against targets and drives the record
// lifecycle from their classified outcomes.
type Tester struct {
	store  Store
	exec   *executor.Executor
	logger *slog.Logger
	now    func() time.Time
}

// NewTester creates a Tester. A nil logger falls back to slog.Default.
func NewTester(store Store, exec *executor.Executor, logger *slog.Logger) *Tester {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tester{
		store:  store,
		exec:   exec,
		logger: logger.With("component", "target_tester"),
		now:    time.Now,
	}
}

// Test runs a connectivity probe against the target and persists the
// resulting lifecycle transition. A record still INACTIVE is moved to
// PENDING before the probe runs, so an interrupted test leaves a truthful
// state behind. Success settles ACTIVE; a non-retryable classified failure
// settles UNHEALTHY; a retryable failure keeps the record PENDING with the
// failure detail recorded.
func (t *Tester) Test(ctx context.Context, rec *Record, target *executor.Target) (Status, error) {
	if rec.Status == StatusInactive {
		if err := t.store.RecordTest(ctx, rec.ID, TestOutcome{Status: StatusPending, Detail: "connectivity test started", At: t.now()}); err != nil {
			return rec.Status, fmt.Errorf("marking target pending: %w", err)
		}
		rec.Status = StatusPending
	}

	_, probeErr := t.exec.Query(ctx, target, executor.Request{
		SQL:      "SELECT 1",
		ReadOnly: true,
		MaxRows:  1,
	})

	outcome := t.outcomeFor(probeErr)
	if err := t.store.RecordTest(ctx, rec.ID, outcome); err != nil {
		return rec.Status, fmt.Errorf("recording test outcome: %w", err)
	}
	rec.Status = outcome.Status

	t.logger.Info("connectivity test complete",
		"target", rec.Name,
		"provider", rec.Provider,
		"status", outcome.Status,
		"detail", outcome.Detail,
	)
	return outcome.Status, nil
}

func (t *Tester) outcomeFor(probeErr error) TestOutcome {
	at := t.now()
	if probeErr == nil {
		return TestOutcome{Status: StatusActive, At: at}
	}

	info := dalerror.InfoFrom(probeErr)
	if info.IsRetryable {
		// Transient failures do not demote the target; it stays PENDING
		// until a test produces a definitive answer.
		return TestOutcome{Status: StatusPending, Detail: info.Message, At: at}
	}
	return TestOutcome{Status: StatusUnhealthy, Detail: info.Message, At: at}
}
