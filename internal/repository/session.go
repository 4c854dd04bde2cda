package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/vanshika/graphload/internal/domain"
	"github.com/vanshika/graphload/internal/graph"
)

// Strategy selects how edge endpoint keys are matched to existing vertices.
type Strategy string

const (
	// StrategyID matches the key against the database-assigned identifier.
	StrategyID Strategy = "id"
	// StrategyProperty matches the key against a user-defined property.
	StrategyProperty Strategy = "property"
)

// Resolution fixes the endpoint lookup rule for a whole run.
type Resolution struct {
	Strategy Strategy
	// Property is the vertex property compared with the key under StrategyProperty.
	Property string
	// Label optionally restricts property lookups to vertices with this label.
	Label string
}

// Options configures a Session.
type Options struct {
	Resolution Resolution
	// IDFunction is the Cypher function returning element identity:
	// "elementId" for Neo4j 5, "id" for Neptune openCypher.
	IDFunction string
}

const (
	IDFunctionElementID = "elementId"
	IDFunctionID        = "id"
)

var (
	// ErrEndpointMissing indicates an edge endpoint disappeared between lookup and create.
	ErrEndpointMissing = errors.New("edge endpoint not found at write time")

	errNoIdentity = errors.New("graph returned no element identity")
)

// Session implements vertex and edge creation plus endpoint lookup as Cypher
// statements over a graph.Client. It holds no mutable state, so concurrent
// use is safe whenever the client is.
type Session struct {
	client     graph.Client
	resolution Resolution
	idFunc     string
}

// New instantiates a Session backed by the supplied graph client.
func New(client graph.Client, opts Options) (*Session, error) {
	if client == nil {
		return nil, errors.New("graph client is required")
	}
	idFunc := opts.IDFunction
	if idFunc == "" {
		idFunc = IDFunctionElementID
	}
	if idFunc != IDFunctionElementID && idFunc != IDFunctionID {
		return nil, fmt.Errorf("unsupported id function %q", opts.IDFunction)
	}

	res := opts.Resolution
	if res.Strategy == "" {
		res.Strategy = StrategyID
	}
	switch res.Strategy {
	case StrategyID:
	case StrategyProperty:
		if strings.TrimSpace(res.Property) == "" {
			return nil, errors.New("property resolution requires a property name")
		}
	default:
		return nil, fmt.Errorf("unsupported resolution strategy %q", res.Strategy)
	}

	return &Session{client: client, resolution: res, idFunc: idFunc}, nil
}

// Resolution returns the lookup rule in force for this session.
func (s *Session) Resolution() Resolution {
	return s.resolution
}

// CreateVertex creates one vertex and returns its service-assigned identifier.
func (s *Session) CreateVertex(ctx context.Context, label string, properties map[string]string) (domain.VertexHandle, error) {
	params := map[string]any{
		"props": vertexProperties(properties),
	}
	res, err := s.client.ExecuteWrite(ctx, s.createVertexCypher(label), params)
	if err != nil {
		return "", fmt.Errorf("create vertex %s: %w", label, err)
	}
	id, ok := firstID(res)
	if !ok {
		return "", graph.Rejection("create vertex", errNoIdentity)
	}
	return domain.VertexHandle(id), nil
}

// FindVertex resolves key to a vertex. A missing vertex is reported as
// found=false with a nil error.
func (s *Session) FindVertex(ctx context.Context, key string) (domain.VertexHandle, bool, error) {
	var (
		cypher string
		params map[string]any
	)
	switch s.resolution.Strategy {
	case StrategyProperty:
		cypher = s.findByPropertyCypher()
		params = map[string]any{"key": key}
	default:
		cypher = s.findByIDCypher()
		params = map[string]any{"key": s.idParam(key)}
	}

	res, err := s.client.ExecuteRead(ctx, cypher, params)
	if err != nil {
		return "", false, fmt.Errorf("find vertex %q: %w", key, err)
	}
	id, ok := firstID(res)
	if !ok {
		return "", false, nil
	}
	return domain.VertexHandle(id), true, nil
}

// CreateEdge creates a directed relationship between two resolved vertices.
func (s *Session) CreateEdge(ctx context.Context, relationship string, from, to domain.VertexHandle) (domain.EdgeHandle, error) {
	params := map[string]any{
		"from": s.idParam(string(from)),
		"to":   s.idParam(string(to)),
	}
	res, err := s.client.ExecuteWrite(ctx, s.createEdgeCypher(relationship), params)
	if err != nil {
		return "", fmt.Errorf("create edge %s: %w", relationship, err)
	}
	id, ok := firstID(res)
	if !ok {
		return "", fmt.Errorf("create edge %s: %w", relationship, ErrEndpointMissing)
	}
	return domain.EdgeHandle(id), nil
}

// Close releases the underlying client.
func (s *Session) Close(ctx context.Context) error {
	return s.client.Close(ctx)
}

// idParam converts a textual identifier into what the id comparison expects.
// elementId() yields strings. id() yields integers on Neo4j but strings on
// Neptune, so a numeric key is offered in both forms.
func (s *Session) idParam(id string) any {
	if s.idFunc != IDFunctionID {
		return id
	}
	if n, err := strconv.ParseInt(id, 10, 64); err == nil {
		return []any{n, id}
	}
	return []any{id}
}

func vertexProperties(src map[string]string) map[string]any {
	props := make(map[string]any, len(src))
	for k, v := range src {
		props[k] = v
	}
	return props
}

func firstID(res graph.Result) (string, bool) {
	if len(res.Records) == 0 {
		return "", false
	}
	value, ok := res.Records[0]["id"]
	if !ok || value == nil {
		return "", false
	}
	id := toString(value)
	return id, id != ""
}

func toString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case int64:
		return strconv.FormatInt(val, 10)
	case int:
		return strconv.Itoa(val)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}
