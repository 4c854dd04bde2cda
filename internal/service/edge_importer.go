package service

import (
	"context"
	"fmt"

	"github.com/vanshika/graphload/internal/domain"
)

// EdgeImporter resolves both endpoints of each record and then creates the
// edge. Each record costs up to two lookups and one write.
type EdgeImporter struct {
	session Session
	pool    *Pool
}

// NewEdgeImporter creates an EdgeImporter. A nil pool makes Import run records one
// at a time; ImportRecord never uses the pool.
func NewEdgeImporter(session Session, pool *Pool) *EdgeImporter {
	return &EdgeImporter{session: session, pool: pool}
}

// Import creates every record and returns exactly one result per record,
// results[i] describing records[i].
func (im *EdgeImporter) Import(ctx context.Context, records []domain.EdgeRecord) []domain.ElementResult {
	pool := im.pool
	if pool == nil {
		pool = NewPool(1, 0)
	}
	return pool.Run(ctx, allIndices(len(records)), len(records), func(idx int) domain.ElementResult {
		return im.ImportRecord(ctx, idx, records[idx])
	}, nil)
}

// ImportRecord validates, resolves and creates a single edge. The edge is
// not attempted when either endpoint fails to resolve. A self-loop reuses
// the source lookup.
func (im *EdgeImporter) ImportRecord(ctx context.Context, index int, rec domain.EdgeRecord) domain.ElementResult {
	if err := rec.Validate(); err != nil {
		return domain.Failure(index, domain.KindInvalidRecord, err)
	}

	from, err := im.resolve(ctx, "from", rec.FromKey)
	if err != nil {
		return domain.Failure(index, kindOf(err), err)
	}

	to := from
	if !rec.SelfLoop() {
		to, err = im.resolve(ctx, "to", rec.ToKey)
		if err != nil {
			return domain.Failure(index, kindOf(err), err)
		}
	}

	handle, err := im.session.CreateEdge(ctx, rec.Relationship, from, to)
	if err != nil {
		return domain.Failure(index, kindOf(err), err)
	}
	return domain.Success(index, string(handle))
}

func (im *EdgeImporter) resolve(ctx context.Context, end, key string) (domain.VertexHandle, error) {
	handle, found, err := im.session.FindVertex(ctx, key)
	if err != nil {
		return "", fmt.Errorf("resolve %s %q: %w", end, key, err)
	}
	if !found {
		return "", fmt.Errorf("%s %q: %w", end, key, ErrUnresolvedEndpoint)
	}
	return handle, nil
}
