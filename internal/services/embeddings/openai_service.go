// Package embeddings generates text embedding vectors through a configured
// provider. Two providers are supported: any OpenAI-compatible /embeddings
// endpoint, and the Gemini API.
package embeddings

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/ternarybob/indago/internal/common"
)

const (
	// ProviderOpenAI selects the OpenAI-compatible REST provider.
	ProviderOpenAI = "openai"

	// ProviderGemini selects the Gemini API provider.
	ProviderGemini = "gemini"

	// DefaultOpenAIModel is used when no model is configured.
	DefaultOpenAIModel = "text-embedding-3-small"

	// batchChunkSize bounds inputs per request. Smaller chunks keep
	// responses reliable on compatible providers with low body limits.
	batchChunkSize = 25
)

// openaiEmbedRequest is the request body for the embeddings endpoint.
type openaiEmbedRequest struct {
	Model      string   `json:"model"`
	Input      []string `json:"input"`
	Dimensions int      `json:"dimensions,omitempty"`
}

// openaiEmbedResponse is the response envelope.
type openaiEmbedResponse struct {
	Data []openaiEmbedding `json:"data"`
}

// openaiEmbedding is a single embedding in the response.
type openaiEmbedding struct {
	Embedding []float32 `json:"embedding"`
	Index     int       `json:"index"`
}

// OpenAIService generates embeddings through an OpenAI-compatible REST API.
type OpenAIService struct {
	apiKey    string
	model     string
	endpoint  string
	dimension int
	client    *http.Client
	limiter   *rate.Limiter
	logger    arbor.ILogger
	backoffs  []time.Duration
}

// NewOpenAIService creates the OpenAI-compatible provider. The configured
// endpoint is the API base URL; /embeddings is appended here.
func NewOpenAIService(cfg *common.EmbeddingsConfig, logger arbor.ILogger) *OpenAIService {
	model := cfg.Model
	if model == "" {
		model = DefaultOpenAIModel
	}
	endpoint := strings.TrimSuffix(cfg.Endpoint, "/")
	if endpoint == "" {
		endpoint = "https://api.openai.com/v1"
	}

	return &OpenAIService{
		apiKey:    cfg.APIKey,
		model:     model,
		endpoint:  endpoint + "/embeddings",
		dimension: cfg.Dimension,
		client:    &http.Client{Timeout: cfg.TimeoutDuration()},
		limiter:   rate.NewLimiter(rate.Every(500*time.Millisecond), 1),
		logger:    logger,
		backoffs:  []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second},
	}
}

// GenerateEmbedding creates a vector embedding for one text.
func (s *OpenAIService) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}

	resp, err := s.embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("provider returned no embedding")
	}
	return resp.Data[0].Embedding, nil
}

// GenerateEmbeddings embeds texts in batches. The result is index-aligned
// with the input; positions the provider failed to embed are nil so callers
// can score them as zero-similarity instead of failing the batch.
func (s *OpenAIService) GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	results := make([][]float32, len(texts))
	for chunkStart := 0; chunkStart < len(texts); chunkStart += batchChunkSize {
		if ctx.Err() != nil {
			return results, ctx.Err()
		}

		chunkEnd := chunkStart + batchChunkSize
		if chunkEnd > len(texts) {
			chunkEnd = len(texts)
		}
		chunk := texts[chunkStart:chunkEnd]

		resp, err := s.embed(ctx, chunk)
		if err != nil {
			s.logger.Warn().Err(err).
				Int("chunk_start", chunkStart).
				Int("chunk_size", len(chunk)).
				Msg("Embedding batch chunk failed, entries will score zero")
			continue
		}

		for _, item := range resp.Data {
			if item.Index < 0 || item.Index >= len(chunk) {
				s.logger.Warn().
					Int("index", item.Index).
					Int("chunk_size", len(chunk)).
					Msg("Embedding response index out of range, skipping")
				continue
			}
			results[chunkStart+item.Index] = item.Embedding
		}
	}

	return results, nil
}

// ModelName returns the configured model.
func (s *OpenAIService) ModelName() string {
	return s.model
}

// Dimension returns the configured embedding dimension.
func (s *OpenAIService) Dimension() int {
	return s.dimension
}

// IsAvailable reports whether the provider can be called.
func (s *OpenAIService) IsAvailable(ctx context.Context) bool {
	return s.apiKey != ""
}

// embed calls the embeddings endpoint with retry for transient failures.
func (s *OpenAIService) embed(ctx context.Context, input []string) (*openaiEmbedResponse, error) {
	reqBody := openaiEmbedRequest{
		Model:      s.model,
		Input:      input,
		Dimensions: s.dimension,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal embedding request: %w", err)
	}

	return s.doWithRetry(ctx, jsonBody)
}

// doWithRetry executes the request, retrying 429 and 5xx responses with
// exponential backoff. A Retry-After header on 429 overrides the backoff.
func (s *OpenAIService) doWithRetry(ctx context.Context, reqBody []byte) (*openaiEmbedResponse, error) {
	var lastErr error

	for attempt := 0; attempt <= len(s.backoffs); attempt++ {
		// Wait for rate limiter
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait failed: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(reqBody))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+s.apiKey)

		resp, err := s.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("request cancelled: %w", ctx.Err())
			}
			return nil, fmt.Errorf("request failed: %w", err)
		}

		body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read response: %w", err)
		}

		if resp.StatusCode == http.StatusOK {
			var embedResp openaiEmbedResponse
			if err := json.Unmarshal(body, &embedResp); err != nil {
				// Truncated or malformed body, worth another attempt
				lastErr = fmt.Errorf("failed to parse response: %w", err)
				if attempt < len(s.backoffs) {
					select {
					case <-ctx.Done():
						return nil, ctx.Err()
					case <-time.After(s.backoffs[attempt]):
					}
				}
				continue
			}
			return &embedResp, nil
		}

		retryable := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		if !retryable {
			return nil, fmt.Errorf("provider returned status %d: %s", resp.StatusCode, string(body))
		}
		lastErr = fmt.Errorf("provider returned status %d: %s", resp.StatusCode, string(body))

		if attempt < len(s.backoffs) {
			delay := s.backoffs[attempt]

			// Honor Retry-After on 429, capped at 30s
			if resp.StatusCode == http.StatusTooManyRequests {
				if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
					if seconds, err := strconv.Atoi(retryAfter); err == nil && seconds > 0 {
						delay = time.Duration(seconds) * time.Second
						if delay > 30*time.Second {
							delay = 30 * time.Second
						}
					}
				}
			}

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return nil, fmt.Errorf("all retries exhausted: %w", lastErr)
}
