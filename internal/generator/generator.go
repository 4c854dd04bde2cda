package generator

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"github.com/vanshika/graphload/internal/domain"
)

// KeyProperty is the vertex property edges refer to; run the edge import
// with property resolution on this name.
const KeyProperty = "name"

// Dataset contains the generated vertices and edges.
type Dataset struct {
	Vertices []domain.VertexRecord
	Edges    []domain.EdgeRecord
}

// Generator produces synthetic person graphs for import rehearsals.
type Generator struct {
	cfg           Config
	rand          *rand.Rand
	nameFragments nameFragments
}

// New returns a configured Generator instance.
func New(cfg Config) *Generator {
	if cfg.NumVertices <= 0 {
		cfg.NumVertices = DefaultConfig().NumVertices
	}
	if cfg.NumEdges < 0 {
		cfg.NumEdges = 0
	}
	if cfg.DanglingEdgeChance < 0 {
		cfg.DanglingEdgeChance = 0
	}
	if cfg.SelfLoopChance < 0 {
		cfg.SelfLoopChance = 0
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}

	return &Generator{
		cfg:           cfg,
		rand:          rand.New(rand.NewSource(cfg.Seed)),
		nameFragments: defaultNameFragments(),
	}
}

// Generate synthesises vertices and edges. It respects context cancellation.
// Vertex names are unique; edge endpoints refer to them by name.
func (g *Generator) Generate(ctx context.Context) (Dataset, error) {
	vertices := make([]domain.VertexRecord, g.cfg.NumVertices)
	names := make([]string, g.cfg.NumVertices)

	for i := range vertices {
		if err := ctx.Err(); err != nil {
			return Dataset{}, err
		}
		names[i] = g.uniqueName(i)
		vertices[i] = domain.VertexRecord{
			Label: g.randomLabel(),
			Properties: map[string]string{
				KeyProperty: names[i],
				"city":      g.randomCity(),
				"age":       strconv.Itoa(18 + g.rand.Intn(60)),
			},
		}
	}

	edges := make([]domain.EdgeRecord, g.cfg.NumEdges)
	for i := range edges {
		if err := ctx.Err(); err != nil {
			return Dataset{}, err
		}
		from := names[g.rand.Intn(len(names))]
		var to string
		switch roll := g.rand.Float64(); {
		case roll < g.cfg.DanglingEdgeChance:
			to = fmt.Sprintf("ghost-%06d", i+1)
		case roll < g.cfg.DanglingEdgeChance+g.cfg.SelfLoopChance:
			to = from
		default:
			to = names[g.rand.Intn(len(names))]
		}
		edges[i] = domain.EdgeRecord{FromKey: from, ToKey: to, Relationship: g.randomRelationship()}
	}

	return Dataset{Vertices: vertices, Edges: edges}, nil
}

func (g *Generator) uniqueName(i int) string {
	return fmt.Sprintf("%s %s %05d",
		g.nameFragments.first[g.rand.Intn(len(g.nameFragments.first))],
		g.nameFragments.last[g.rand.Intn(len(g.nameFragments.last))],
		i+1)
}

func (g *Generator) randomLabel() string {
	return g.nameFragments.labels[g.rand.Intn(len(g.nameFragments.labels))]
}

func (g *Generator) randomCity() string {
	return g.nameFragments.cities[g.rand.Intn(len(g.nameFragments.cities))]
}

func (g *Generator) randomRelationship() string {
	return g.nameFragments.relationships[g.rand.Intn(len(g.nameFragments.relationships))]
}

type nameFragments struct {
	first         []string
	last          []string
	cities        []string
	labels        []string
	relationships []string
}

func defaultNameFragments() nameFragments {
	return nameFragments{
		first:         []string{"Jane", "John", "Alex", "Priya", "Liu", "Maria", "Omar", "Sofia", "Noah", "Emma", "Lucas", "Mia", "Ava", "Ethan", "Zara"},
		last:          []string{"Doe", "Smith", "Chen", "Patel", "Garcia", "Khan", "Kim", "Ivanov", "Nguyen", "Silva", "Brown", "Lee"},
		cities:        []string{"Austin", "Seattle", "Boston", "Denver", "Chicago", "Miami", "Portland", "Atlanta"},
		labels:        []string{"person", "person", "person", "employee"},
		relationships: []string{"knows", "knows", "follows", "works_with"},
	}
}
