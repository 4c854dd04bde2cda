package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanshika/graphload/internal/domain"
	"github.com/vanshika/graphload/internal/graph"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestResilientSessionRetriesConnectionFailures(t *testing.T) {
	inner := newFakeSession()
	inner.findErr = func(call int, _ string) error {
		if call < 3 {
			return graph.ConnectionFailure("find vertex", errors.New("reset"))
		}
		return nil
	}
	inner.vertices["v9"] = map[string]string{}

	s := newResilientSession(inner, RetryPolicy{MaxAttempts: 3, Sleep: noSleep}, 0, discardLogger())
	handle, found, err := s.FindVertex(context.Background(), "v9")

	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, domain.VertexHandle("v9"), handle)
	assert.Equal(t, 3, inner.findCalls)
	assert.Equal(t, 3, s.LastAttempts())
}

func TestResilientSessionDoesNotRetryRejections(t *testing.T) {
	inner := newFakeSession()
	inner.createEdgeErr = func(int) error { return graph.Rejection("create edge", errors.New("denied")) }

	s := newResilientSession(inner, RetryPolicy{MaxAttempts: 5, Sleep: noSleep}, 0, discardLogger())
	_, err := s.CreateEdge(context.Background(), "knows", "v1", "v2")

	assert.True(t, graph.IsRejection(err))
	assert.Equal(t, 1, inner.createEdgeCalls)
	assert.Equal(t, 1, s.LastAttempts())
}

type blockingSession struct {
	fakeSession
	sawCancel chan bool
}

func (b *blockingSession) CreateVertex(ctx context.Context, label string, props map[string]string) (domain.VertexHandle, error) {
	<-ctx.Done()
	b.sawCancel <- errors.Is(ctx.Err(), context.Canceled)
	return "", ctx.Err()
}

func TestResilientSessionTimeoutIsConnectionError(t *testing.T) {
	inner := &blockingSession{sawCancel: make(chan bool, 4)}
	s := newResilientSession(inner, RetryPolicy{MaxAttempts: 2, Sleep: noSleep}, 5*time.Millisecond, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.CreateVertex(ctx, "person", nil)

	assert.True(t, graph.IsConnection(err))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	// The caller's cancellation never reaches the operation itself.
	assert.False(t, <-inner.sawCancel)
}
