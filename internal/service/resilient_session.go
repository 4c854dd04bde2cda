package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/vanshika/graphload/internal/domain"
	"github.com/vanshika/graphload/internal/graph"
)

// resilientSession applies the orchestrator's per-operation policy to a
// Session: every attempt runs detached from caller cancellation under its own
// timeout, and connection failures are retried with backoff. The caller's
// context still cuts retry waits short.
//
// It remembers the attempt count of its latest operation, so each record gets
// its own instance; the wrapped Session is what is shared.
type resilientSession struct {
	next    Session
	policy  RetryPolicy
	timeout time.Duration
	logger  *slog.Logger

	lastAttempts int
}

func newResilientSession(next Session, policy RetryPolicy, timeout time.Duration, logger *slog.Logger) *resilientSession {
	return &resilientSession{
		next:    next,
		policy:  policy,
		timeout: timeout,
		logger:  logger,
	}
}

func (s *resilientSession) CreateVertex(ctx context.Context, label string, properties map[string]string) (domain.VertexHandle, error) {
	var handle domain.VertexHandle
	err := s.call(ctx, "create vertex", func(opCtx context.Context) error {
		var err error
		handle, err = s.next.CreateVertex(opCtx, label, properties)
		return err
	})
	return handle, err
}

func (s *resilientSession) FindVertex(ctx context.Context, key string) (domain.VertexHandle, bool, error) {
	var (
		handle domain.VertexHandle
		found  bool
	)
	err := s.call(ctx, "find vertex", func(opCtx context.Context) error {
		var err error
		handle, found, err = s.next.FindVertex(opCtx, key)
		return err
	})
	return handle, found, err
}

func (s *resilientSession) CreateEdge(ctx context.Context, relationship string, from, to domain.VertexHandle) (domain.EdgeHandle, error) {
	var handle domain.EdgeHandle
	err := s.call(ctx, "create edge", func(opCtx context.Context) error {
		var err error
		handle, err = s.next.CreateEdge(opCtx, relationship, from, to)
		return err
	})
	return handle, err
}

func (s *resilientSession) call(ctx context.Context, op string, fn func(opCtx context.Context) error) error {
	attempts, err := s.policy.Do(ctx, func() error {
		return s.attempt(ctx, op, fn)
	}, func(attempt int, wait time.Duration, err error) {
		s.logger.Debug("retrying graph operation", "op", op, "attempt", attempt, "backoff", wait.String(), "error", err)
	})
	s.lastAttempts = attempts
	return err
}

// LastAttempts returns how many tries the most recent operation took.
func (s *resilientSession) LastAttempts() int {
	return s.lastAttempts
}

func (s *resilientSession) attempt(ctx context.Context, op string, fn func(opCtx context.Context) error) error {
	opCtx := context.WithoutCancel(ctx)
	if s.timeout > 0 {
		var cancel context.CancelFunc
		opCtx, cancel = context.WithTimeout(opCtx, s.timeout)
		defer cancel()
	}

	err := fn(opCtx)
	if err != nil && !graph.IsConnection(err) && errors.Is(opCtx.Err(), context.DeadlineExceeded) {
		return graph.ConnectionFailure(op, errors.Join(context.DeadlineExceeded, err))
	}
	return err
}
