package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanshika/graphload/internal/domain"
	"github.com/vanshika/graphload/internal/graph"
)

func TestVertexImporterAlignsResultsWithInput(t *testing.T) {
	session := newFakeSession()
	records := make([]domain.VertexRecord, 50)
	for i := range records {
		records[i] = domain.VertexRecord{Label: "person", Properties: map[string]string{"name": fmt.Sprintf("p%02d", i)}}
	}
	records[7] = domain.VertexRecord{}

	session.createVertexErr = func(_ int, props map[string]string) error {
		if props["name"] == "p13" {
			return graph.Rejection("create vertex", errors.New("constraint violated"))
		}
		return nil
	}

	results := NewVertexImporter(session, NewPool(8, 0)).Import(context.Background(), records)

	require.Len(t, results, len(records))
	for i, res := range results {
		assert.Equal(t, i, res.Index)
		switch i {
		case 7:
			assert.Equal(t, domain.KindInvalidRecord, res.Kind)
		case 13:
			assert.Equal(t, domain.KindRemoteRejection, res.Kind)
		default:
			require.True(t, res.Succeeded(), "record %d: %v", i, res.Err)
			assert.Equal(t, session.handleOf("name", fmt.Sprintf("p%02d", i)), domain.VertexHandle(res.ElementID))
		}
	}
	assert.Equal(t, 48, session.vertexCount())
	assert.Equal(t, 49, session.createVertexCalls, "invalid records never reach the session")
}

func TestVertexImporterEmptyInput(t *testing.T) {
	results := NewVertexImporter(newFakeSession(), nil).Import(context.Background(), nil)
	assert.Empty(t, results)
}

func TestVertexImporterConnectionFailure(t *testing.T) {
	session := newFakeSession()
	session.createVertexErr = func(int, map[string]string) error {
		return graph.ConnectionFailure("create vertex", errors.New("broken pipe"))
	}
	res := NewVertexImporter(session, nil).ImportRecord(context.Background(), 3, domain.VertexRecord{Label: "person"})
	assert.Equal(t, 3, res.Index)
	assert.Equal(t, domain.KindConnectionError, res.Kind)
	assert.Equal(t, 1, session.createVertexCalls, "importers never retry")
}

func TestEdgeImporterResolvesEndpoints(t *testing.T) {
	session := newFakeSession()
	session.matchProperty = "name"
	vertices := NewVertexImporter(session, nil).Import(context.Background(), []domain.VertexRecord{
		domain.VertexRecord{Label: "person", Properties: map[string]string{"name": "Alice"}},
		domain.VertexRecord{Label: "person", Properties: map[string]string{"name": "Bob"}},
	})
	require.True(t, vertices[0].Succeeded())
	require.True(t, vertices[1].Succeeded())

	results := NewEdgeImporter(session, nil).Import(context.Background(), []domain.EdgeRecord{
		domain.EdgeRecord{FromKey: "Alice", ToKey: "Bob", Relationship: "knows"},
		domain.EdgeRecord{FromKey: "Alice", ToKey: "Carol", Relationship: "knows"},
		domain.EdgeRecord{FromKey: "Bob", ToKey: "Bob", Relationship: "likes"},
		domain.EdgeRecord{FromKey: "Alice", ToKey: "", Relationship: "knows"},
	})

	require.Len(t, results, 4)
	assert.True(t, results[0].Succeeded())
	assert.Equal(t, domain.KindUnresolvedEndpoint, results[1].Kind)
	assert.ErrorIs(t, results[1].Err, ErrUnresolvedEndpoint)
	assert.Contains(t, results[1].Err.Error(), "Carol")
	assert.True(t, results[2].Succeeded())
	assert.Equal(t, domain.KindInvalidRecord, results[3].Kind)

	edges := session.edgeList()
	require.Len(t, edges, 2)
	alice := session.handleOf("name", "Alice")
	bob := session.handleOf("name", "Bob")
	assert.ElementsMatch(t, []fakeEdge{
		{Relationship: "knows", From: alice, To: bob},
		{Relationship: "likes", From: bob, To: bob},
	}, edges)
	// Self-loop resolves once: 2 + 2 + 1 lookups, the invalid record none.
	assert.Equal(t, 5, session.findCalls)
}

func TestEdgeImporterSkipsCreateWhenSourceUnresolved(t *testing.T) {
	session := newFakeSession()
	res := NewEdgeImporter(session, nil).ImportRecord(context.Background(), 0, domain.EdgeRecord{FromKey: "v404", ToKey: "v1", Relationship: "knows"})
	assert.Equal(t, domain.KindUnresolvedEndpoint, res.Kind)
	assert.Equal(t, 1, session.findCalls)
	assert.Zero(t, session.createEdgeCalls)
}

func TestEdgeImporterLookupFailureKinds(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want domain.ErrorKind
	}{
		{"connection", graph.ConnectionFailure("find vertex", errors.New("reset")), domain.KindConnectionError},
		{"rejection", graph.Rejection("find vertex", errors.New("syntax")), domain.KindRemoteRejection},
		{"unknown", errors.New("mystery"), domain.KindRemoteRejection},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			session := newFakeSession()
			session.findErr = func(int, string) error { return tc.err }
			res := NewEdgeImporter(session, nil).ImportRecord(context.Background(), 2, domain.EdgeRecord{FromKey: "a", ToKey: "b", Relationship: "knows"})
			assert.Equal(t, tc.want, res.Kind)
			assert.ErrorIs(t, res.Err, tc.err)
			assert.Zero(t, session.createEdgeCalls)
		})
	}
}

func TestImporterPoolOnlyForImport(t *testing.T) {
	session := newFakeSession()
	vi := NewVertexImporter(session, nil)
	assert.Nil(t, vi.pool, "per-record use allocates no pool")
	res := vi.ImportRecord(context.Background(), 0, domain.VertexRecord{Label: "person"})
	assert.True(t, res.Succeeded())

	ei := NewEdgeImporter(session, nil)
	assert.Nil(t, ei.pool)
	results := ei.Import(context.Background(), []domain.EdgeRecord{{FromKey: string(res.ElementID), ToKey: string(res.ElementID), Relationship: "self"}})
	require.Len(t, results, 1)
	assert.True(t, results[0].Succeeded())
}
