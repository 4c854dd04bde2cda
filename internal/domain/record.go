package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidRecord marks an input row with an empty required field.
var ErrInvalidRecord = errors.New("invalid record")

// VertexRecord is one vertex to create: a label plus string properties.
type VertexRecord struct {
	Label      string
	Properties map[string]string
}

// EdgeRecord is one directed edge to create between two existing vertices.
// FromKey and ToKey are resolved with the run's lookup strategy.
type EdgeRecord struct {
	FromKey      string
	ToKey        string
	Relationship string
}

// VertexHandle is the opaque identifier the graph service assigned to a vertex.
type VertexHandle string

// EdgeHandle is the opaque identifier the graph service assigned to an edge.
type EdgeHandle string

// NewVertexRecord builds a validated VertexRecord. The properties map is copied.
func NewVertexRecord(label string, properties map[string]string) (VertexRecord, error) {
	rec := VertexRecord{Label: label, Properties: cloneProperties(properties)}
	if err := rec.Validate(); err != nil {
		return VertexRecord{}, err
	}
	return rec, nil
}

// NewEdgeRecord builds a validated EdgeRecord.
func NewEdgeRecord(fromKey, toKey, relationship string) (EdgeRecord, error) {
	rec := EdgeRecord{FromKey: fromKey, ToKey: toKey, Relationship: relationship}
	if err := rec.Validate(); err != nil {
		return EdgeRecord{}, err
	}
	return rec, nil
}

// Validate reports ErrInvalidRecord when the label is blank.
func (r VertexRecord) Validate() error {
	if strings.TrimSpace(r.Label) == "" {
		return fmt.Errorf("%w: vertex label is required", ErrInvalidRecord)
	}
	for key := range r.Properties {
		if key == "" {
			return fmt.Errorf("%w: property key must not be empty", ErrInvalidRecord)
		}
	}
	return nil
}

// Validate reports ErrInvalidRecord when any of from, to or relationship is blank.
func (r EdgeRecord) Validate() error {
	var missing []string
	if strings.TrimSpace(r.FromKey) == "" {
		missing = append(missing, "from")
	}
	if strings.TrimSpace(r.ToKey) == "" {
		missing = append(missing, "to")
	}
	if strings.TrimSpace(r.Relationship) == "" {
		missing = append(missing, "relationship")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: edge %s required", ErrInvalidRecord, strings.Join(missing, ", "))
	}
	return nil
}

// SelfLoop reports whether the edge starts and ends at the same key.
func (r EdgeRecord) SelfLoop() bool {
	return r.FromKey == r.ToKey
}

func cloneProperties(src map[string]string) map[string]string {
	dst := make(map[string]string, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
