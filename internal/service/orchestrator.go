package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/vanshika/graphload/internal/domain"
)

// FailFastPolicy aborts a run once the failure rate crosses MaxFailureRate.
// A zero MaxFailureRate means fail-soft: every record is attempted.
type FailFastPolicy struct {
	MaxFailureRate float64
	// MinAttempts is how many results must be in before the rate is judged.
	MinAttempts int
}

func (p FailFastPolicy) enabled() bool {
	return p.MaxFailureRate > 0
}

// Policy holds the run-level decisions the orchestrator owns.
type Policy struct {
	Workers          int
	RatePerSecond    float64
	Retry            RetryPolicy
	OperationTimeout time.Duration
	FailFast         FailFastPolicy
}

// DefaultPolicy is fail-soft with modest concurrency.
func DefaultPolicy() Policy {
	return Policy{
		Workers:          defaultWorkers,
		Retry:            DefaultRetryPolicy(),
		OperationTimeout: 30 * time.Second,
	}
}

// RunOptions narrows a run to a subset of the input.
type RunOptions struct {
	// Indices selects which records to import, typically the failures of a
	// previous report. Nil imports every record.
	Indices []int
}

// Orchestrator drives complete import runs: it opens the graph session,
// pushes records through the matching importer and always releases the
// session before returning the report.
type Orchestrator struct {
	open     Opener
	policy   Policy
	logger   *slog.Logger
	newRunID func() string
	nowFn    func() time.Time
}

// NewOrchestrator constructs an Orchestrator.
func NewOrchestrator(open Opener, policy Policy, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		open:     open,
		policy:   policy,
		logger:   logger.With("component", "orchestrator"),
		newRunID: func() string { return uuid.NewString() },
		nowFn:    time.Now,
	}
}

// WithClock overrides the time provider (used primarily in tests).
func (o *Orchestrator) WithClock(nowFn func() time.Time) {
	if nowFn != nil {
		o.nowFn = nowFn
	}
}

// ImportVertices creates one vertex per selected record.
func (o *Orchestrator) ImportVertices(ctx context.Context, records []domain.VertexRecord, opts RunOptions) (ImportReport, error) {
	return o.run(ctx, KindVertices, len(records), opts, func(session Session, idx int) domain.ElementResult {
		return NewVertexImporter(session, nil).ImportRecord(ctx, idx, records[idx])
	})
}

// ImportEdges resolves and creates one edge per selected record. Vertex
// import for the referenced keys must already have run.
func (o *Orchestrator) ImportEdges(ctx context.Context, records []domain.EdgeRecord, opts RunOptions) (ImportReport, error) {
	return o.run(ctx, KindEdges, len(records), opts, func(session Session, idx int) domain.ElementResult {
		return NewEdgeImporter(session, nil).ImportRecord(ctx, idx, records[idx])
	})
}

// recordFunc imports the record at idx through session.
type recordFunc func(session Session, idx int) domain.ElementResult

func (o *Orchestrator) run(ctx context.Context, kind RecordKind, total int, opts RunOptions, importRecord recordFunc) (ImportReport, error) {
	start := o.nowFn()
	report := ImportReport{
		RunID:     o.newRunID(),
		Kind:      kind,
		Total:     total,
		StartedAt: start,
		Failures:  []Failure{},
	}
	logger := o.logger.With("run_id", report.RunID, "kind", string(kind))

	selected, err := selectIndices(opts.Indices, total)
	if err != nil {
		report.Aborted = err
		return report, err
	}

	session, err := o.openSession(ctx, logger)
	if err != nil {
		report.Aborted = fmt.Errorf("open graph session: %w", err)
		report.Skipped = len(selected)
		report.Duration = o.nowFn().Sub(start)
		logger.Error("graph session unavailable", "error", err)
		return report, report.Aborted
	}
	defer func() {
		if err := session.Close(context.WithoutCancel(ctx)); err != nil {
			logger.Warn("closing graph session failed", "error", err)
		}
	}()

	pool := NewPool(o.policy.Workers, o.policy.RatePerSecond)
	fn := func(idx int) domain.ElementResult {
		resilient := newResilientSession(session, o.policy.Retry, o.policy.OperationTimeout, logger)
		res := importRecord(resilient, idx)
		res.Attempts = resilient.LastAttempts()
		return res
	}

	logger.Info("import started", "records", len(selected), "workers", pool.Workers())

	tracker := &failureTracker{policy: o.policy.FailFast}
	results := pool.Run(ctx, selected, total, fn, tracker.observe)

	summarize(&report, results, selected)
	report.Duration = o.nowFn().Sub(start)

	switch {
	case tracker.tripped:
		report.Aborted = fmt.Errorf("%w: %d of %d failed (limit %.2f)",
			ErrFailFastThreshold, tracker.failed, tracker.completed, o.policy.FailFast.MaxFailureRate)
	case ctx.Err() != nil && report.Skipped > 0:
		report.Aborted = fmt.Errorf("import interrupted: %w", ctx.Err())
	}

	logger.Info("import finished",
		"attempted", report.Attempted,
		"succeeded", report.Succeeded,
		"failed", report.Failed,
		"skipped", report.Skipped,
		"duration", report.Duration.String(),
	)
	if report.Aborted != nil {
		logger.Error("import aborted", "error", report.Aborted)
		return report, report.Aborted
	}
	return report, nil
}

// openSession establishes the run's session, retrying connection failures
// under the same policy as individual operations.
func (o *Orchestrator) openSession(ctx context.Context, logger *slog.Logger) (GraphSession, error) {
	if o.open == nil {
		return nil, errors.New("no graph session opener configured")
	}
	var session GraphSession
	_, err := o.policy.Retry.Do(ctx, func() error {
		s, err := o.open(ctx)
		if err != nil {
			return err
		}
		session = s
		return nil
	}, func(attempt int, wait time.Duration, err error) {
		logger.Warn("graph session open failed, retrying", "attempt", attempt, "backoff", wait.String(), "error", err)
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

// failureTracker counts outcomes for the fail-fast decision. The pool
// serialises calls to observe.
type failureTracker struct {
	policy    FailFastPolicy
	completed int
	failed    int
	tripped   bool
}

func (t *failureTracker) observe(res domain.ElementResult) bool {
	t.completed++
	if res.Failed() {
		t.failed++
	}
	if !t.policy.enabled() || t.tripped {
		return t.tripped
	}
	minAttempts := t.policy.MinAttempts
	if minAttempts < 1 {
		minAttempts = 1
	}
	if t.completed >= minAttempts && float64(t.failed)/float64(t.completed) > t.policy.MaxFailureRate {
		t.tripped = true
	}
	return t.tripped
}

func selectIndices(requested []int, total int) ([]int, error) {
	if requested == nil {
		return allIndices(total), nil
	}
	seen := make(map[int]struct{}, len(requested))
	selected := make([]int, 0, len(requested))
	for _, idx := range requested {
		if idx < 0 || idx >= total {
			return nil, fmt.Errorf("record index %d out of range [0,%d)", idx, total)
		}
		if _, dup := seen[idx]; dup {
			continue
		}
		seen[idx] = struct{}{}
		selected = append(selected, idx)
	}
	sort.Ints(selected)
	return selected, nil
}
