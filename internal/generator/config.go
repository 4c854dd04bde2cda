package generator

// Config drives the synthetic data generator.
type Config struct {
	NumVertices int
	NumEdges    int
	// DanglingEdgeChance is the share of edges whose target names no vertex.
	DanglingEdgeChance float64
	SelfLoopChance     float64
	Seed               int64
}

// DefaultConfig returns baseline settings for a medium sized social graph.
func DefaultConfig() Config {
	return Config{
		NumVertices:        1000,
		NumEdges:           5000,
		DanglingEdgeChance: 0.01,
		SelfLoopChance:     0.005,
		Seed:               42,
	}
}
