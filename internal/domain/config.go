package domain

// VectorConfig holds internal vectorization settings, not exposed to clients.
type VectorConfig struct {
	Model               string
	Dimensions          int
	DistanceMetric      string
	DocumentInstruction string
	QueryInstruction    string
}

// DefaultVectorConfig returns the default configuration for a MiniLM-class
// sentence embedding model (384 dims).
func DefaultVectorConfig() VectorConfig {
	return VectorConfig{
		Model:          "all-MiniLM-L6-v2",
		Dimensions:     384,
		DistanceMetric: "cosine",
	}
}

// ChunkConfig holds chunking defaults, measured in runes.
type ChunkConfig struct {
	Size    int
	Overlap int
}

// DefaultChunkConfig returns the default chunk sizing.
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{Size: 1000, Overlap: 200}
}
