package embeddings

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/indago/internal/common"
	"github.com/ternarybob/indago/internal/interfaces"
)

// NewService creates the embedding provider named in configuration.
func NewService(ctx context.Context, cfg *common.EmbeddingsConfig, logger arbor.ILogger) (interfaces.EmbeddingService, error) {
	switch cfg.Provider {
	case "", ProviderOpenAI:
		return NewOpenAIService(cfg, logger), nil
	case ProviderGemini:
		return NewGeminiService(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("unknown embeddings provider: %s", cfg.Provider)
	}
}
