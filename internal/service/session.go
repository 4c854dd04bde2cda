package service

import (
	"context"
	"errors"

	"github.com/vanshika/graphload/internal/domain"
	"github.com/vanshika/graphload/internal/graph"
	"github.com/vanshika/graphload/internal/repository"
)

// Session is the capability set the importers need from the graph service.
// Implementations must tolerate concurrent calls.
type Session interface {
	CreateVertex(ctx context.Context, label string, properties map[string]string) (domain.VertexHandle, error)
	// FindVertex reports found=false, not an error, when no vertex matches key.
	FindVertex(ctx context.Context, key string) (domain.VertexHandle, bool, error)
	CreateEdge(ctx context.Context, relationship string, from, to domain.VertexHandle) (domain.EdgeHandle, error)
}

// GraphSession is a Session that owns a remote connection.
type GraphSession interface {
	Session
	Close(ctx context.Context) error
}

// Opener establishes the session for one import run.
type Opener func(ctx context.Context) (GraphSession, error)

var (
	// ErrUnresolvedEndpoint means an edge key matched no existing vertex.
	ErrUnresolvedEndpoint = errors.New("edge endpoint not resolved")

	// ErrFailFastThreshold means the run stopped after too many failures.
	ErrFailFastThreshold = errors.New("failure rate threshold exceeded")
)

var _ GraphSession = (*repository.Session)(nil)

// kindOf maps an operation error onto the failure taxonomy.
func kindOf(err error) domain.ErrorKind {
	switch {
	case err == nil:
		return domain.KindNone
	case errors.Is(err, domain.ErrInvalidRecord):
		return domain.KindInvalidRecord
	case errors.Is(err, ErrUnresolvedEndpoint), errors.Is(err, repository.ErrEndpointMissing):
		return domain.KindUnresolvedEndpoint
	case graph.IsConnection(err):
		return domain.KindConnectionError
	default:
		return domain.KindRemoteRejection
	}
}
