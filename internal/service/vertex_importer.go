package service

import (
	"context"

	"github.com/vanshika/graphload/internal/domain"
)

// VertexImporter creates one vertex per record. A failed record never stops
// the others, and nothing is retried here.
type VertexImporter struct {
	session Session
	pool    *Pool
}

// NewVertexImporter creates a VertexImporter. A nil pool makes Import run records one
// at a time; ImportRecord never uses the pool.
func NewVertexImporter(session Session, pool *Pool) *VertexImporter {
	return &VertexImporter{session: session, pool: pool}
}

// Import creates every record and returns exactly one result per record,
// results[i] describing records[i].
func (im *VertexImporter) Import(ctx context.Context, records []domain.VertexRecord) []domain.ElementResult {
	pool := im.pool
	if pool == nil {
		pool = NewPool(1, 0)
	}
	return pool.Run(ctx, allIndices(len(records)), len(records), func(idx int) domain.ElementResult {
		return im.ImportRecord(ctx, idx, records[idx])
	}, nil)
}

// ImportRecord validates and creates a single vertex.
func (im *VertexImporter) ImportRecord(ctx context.Context, index int, rec domain.VertexRecord) domain.ElementResult {
	if err := rec.Validate(); err != nil {
		return domain.Failure(index, domain.KindInvalidRecord, err)
	}
	handle, err := im.session.CreateVertex(ctx, rec.Label, rec.Properties)
	if err != nil {
		return domain.Failure(index, kindOf(err), err)
	}
	return domain.Success(index, string(handle))
}
