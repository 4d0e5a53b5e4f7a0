package interfaces

import "context"

// EmbeddingService generates vector embeddings
type EmbeddingService interface {
	// Generate embedding for raw text
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)

	// Generate embeddings for a batch of texts, index-aligned with the
	// input. A failed item surfaces as a nil vector at its index, not as
	// an error for the whole batch.
	GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error)

	// Get model information
	ModelName() string
	Dimension() int

	// Check if service is available
	IsAvailable(ctx context.Context) bool
}
