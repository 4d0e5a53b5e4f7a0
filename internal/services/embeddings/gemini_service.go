package embeddings

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"google.golang.org/genai"

	"github.com/ternarybob/indago/internal/common"
)

// DefaultGeminiModel is used when the configured model is empty or carries
// an OpenAI model name left over from the config defaults.
const DefaultGeminiModel = "gemini-embedding-001"

// GeminiService generates embeddings with the Gemini API.
type GeminiService struct {
	client    *genai.Client
	model     string
	dimension int
	timeout   time.Duration
	logger    arbor.ILogger
}

// NewGeminiService creates the Gemini provider.
func NewGeminiService(ctx context.Context, cfg *common.EmbeddingsConfig, logger arbor.ILogger) (*GeminiService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini embeddings require an API key")
	}

	model := cfg.Model
	if model == "" || !strings.HasPrefix(model, "gemini") {
		model = DefaultGeminiModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize genai client: %w", err)
	}

	logger.Info().
		Str("model", model).
		Int("dimension", cfg.Dimension).
		Msg("Gemini embedding provider initialized")

	return &GeminiService{
		client:    client,
		model:     model,
		dimension: cfg.Dimension,
		timeout:   cfg.TimeoutDuration(),
		logger:    logger,
	}, nil
}

// GenerateEmbedding creates a vector embedding for one text.
func (s *GeminiService) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}

	vectors, err := s.embedContents(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 || vectors[0] == nil {
		return nil, fmt.Errorf("no embedding returned from API")
	}
	return vectors[0], nil
}

// GenerateEmbeddings embeds all texts in one API call. On failure every
// position is nil so callers degrade to zero-similarity scores.
func (s *GeminiService) GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	vectors, err := s.embedContents(ctx, texts)
	if err != nil {
		s.logger.Warn().Err(err).
			Int("texts", len(texts)).
			Msg("Batch embedding failed, entries will score zero")
		return make([][]float32, len(texts)), nil
	}
	return vectors, nil
}

// ModelName returns the configured model.
func (s *GeminiService) ModelName() string {
	return s.model
}

// Dimension returns the configured embedding dimension.
func (s *GeminiService) Dimension() int {
	return s.dimension
}

// IsAvailable reports whether the provider can be called.
func (s *GeminiService) IsAvailable(ctx context.Context) bool {
	return s.client != nil
}

// embedContents calls Models.EmbedContent with every text as a content
// entry. The response embeddings are aligned with the request order.
func (s *GeminiService) embedContents(ctx context.Context, texts []string) ([][]float32, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	contents := make([]*genai.Content, len(texts))
	for i, text := range texts {
		contents[i] = genai.NewContentFromText(text, genai.RoleUser)
	}

	var config *genai.EmbedContentConfig
	if s.dimension > 0 {
		outputDim := int32(s.dimension)
		config = &genai.EmbedContentConfig{
			OutputDimensionality: &outputDim,
		}
	}

	result, err := s.client.Models.EmbedContent(timeoutCtx, s.model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("embedding generation failed: %w", err)
	}

	vectors := make([][]float32, len(texts))
	if result != nil {
		for i, embedding := range result.Embeddings {
			if i >= len(vectors) {
				break
			}
			if embedding != nil {
				vectors[i] = embedding.Values
			}
		}
	}
	return vectors, nil
}
