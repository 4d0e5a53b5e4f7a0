package embeddings

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/indago/internal/common"
)

func setupOpenAIService(t *testing.T, endpoint string) *OpenAIService {
	t.Helper()
	cfg := &common.EmbeddingsConfig{
		Provider:  ProviderOpenAI,
		APIKey:    "test-key",
		Model:     "text-embedding-3-small",
		Dimension: 4,
		Endpoint:  endpoint,
		Timeout:   "2s",
	}
	service := NewOpenAIService(cfg, arbor.NewLogger())
	service.backoffs = []time.Duration{time.Millisecond, time.Millisecond, time.Millisecond}
	return service
}

func TestOpenAI_GenerateEmbedding(t *testing.T) {
	var mu sync.Mutex
	var gotAuth string
	var gotReq openaiEmbedRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		gotAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&gotReq)
		mu.Unlock()
		json.NewEncoder(w).Encode(openaiEmbedResponse{Data: []openaiEmbedding{
			{Embedding: []float32{0.1, 0.2, 0.3, 0.4}, Index: 0},
		}})
	}))
	t.Cleanup(ts.Close)

	service := setupOpenAIService(t, ts.URL)
	vector, err := service.GenerateEmbedding(context.Background(), "manufacturing new orders decrease")

	assert.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3, 0.4}, vector)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "text-embedding-3-small", gotReq.Model)
	assert.Equal(t, []string{"manufacturing new orders decrease"}, gotReq.Input)
	assert.Equal(t, 4, gotReq.Dimensions)
}

func TestOpenAI_GenerateEmbedding_EmptyText(t *testing.T) {
	service := setupOpenAIService(t, "http://127.0.0.1:0")
	_, err := service.GenerateEmbedding(context.Background(), "")
	assert.Error(t, err)
}

func TestOpenAI_GenerateEmbeddings_IndexAligned(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req openaiEmbedRequest
		json.NewDecoder(r.Body).Decode(&req)
		// Out of order, and the middle input is missing from the response
		json.NewEncoder(w).Encode(openaiEmbedResponse{Data: []openaiEmbedding{
			{Embedding: []float32{3, 3}, Index: 2},
			{Embedding: []float32{1, 1}, Index: 0},
		}})
	}))
	t.Cleanup(ts.Close)

	service := setupOpenAIService(t, ts.URL)
	vectors, err := service.GenerateEmbeddings(context.Background(), []string{"a", "b", "c"})

	assert.NoError(t, err)
	assert.Len(t, vectors, 3)
	assert.Equal(t, []float32{1, 1}, vectors[0])
	assert.Nil(t, vectors[1], "missing response entry stays nil")
	assert.Equal(t, []float32{3, 3}, vectors[2])
}

func TestOpenAI_GenerateEmbeddings_ChunkFailureLeavesNils(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n == 1 {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		var req openaiEmbedRequest
		json.NewDecoder(r.Body).Decode(&req)
		data := make([]openaiEmbedding, len(req.Input))
		for i := range req.Input {
			data[i] = openaiEmbedding{Embedding: []float32{float32(i)}, Index: i}
		}
		json.NewEncoder(w).Encode(openaiEmbedResponse{Data: data})
	}))
	t.Cleanup(ts.Close)

	service := setupOpenAIService(t, ts.URL)

	// 30 texts = two chunks; the first chunk's request fails outright
	texts := make([]string, 30)
	for i := range texts {
		texts[i] = "text"
	}
	vectors, err := service.GenerateEmbeddings(context.Background(), texts)

	assert.NoError(t, err)
	assert.Len(t, vectors, 30)
	assert.Nil(t, vectors[0], "failed chunk entries stay nil")
	assert.Nil(t, vectors[24])
	assert.NotNil(t, vectors[25], "second chunk succeeded")
}

func TestOpenAI_RetriesThenSucceeds(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n == 1 {
			w.Header().Set("Retry-After", "0")
			http.Error(w, "slow down", http.StatusTooManyRequests)
			return
		}
		json.NewEncoder(w).Encode(openaiEmbedResponse{Data: []openaiEmbedding{
			{Embedding: []float32{1}, Index: 0},
		}})
	}))
	t.Cleanup(ts.Close)

	service := setupOpenAIService(t, ts.URL)
	vector, err := service.GenerateEmbedding(context.Background(), "retry me")

	assert.NoError(t, err)
	assert.Equal(t, []float32{1}, vector)
	mu.Lock()
	assert.Equal(t, 2, calls)
	mu.Unlock()
}

func TestOpenAI_FailsFastOnBadRequest(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		mu.Unlock()
		http.Error(w, "model not found", http.StatusBadRequest)
	}))
	t.Cleanup(ts.Close)

	service := setupOpenAIService(t, ts.URL)
	_, err := service.GenerateEmbedding(context.Background(), "doomed")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
	mu.Lock()
	assert.Equal(t, 1, calls)
	mu.Unlock()
}

func TestOpenAI_IsAvailable(t *testing.T) {
	cfg := &common.EmbeddingsConfig{Provider: ProviderOpenAI}
	service := NewOpenAIService(cfg, arbor.NewLogger())
	assert.False(t, service.IsAvailable(context.Background()))

	cfg.APIKey = "key"
	service = NewOpenAIService(cfg, arbor.NewLogger())
	assert.True(t, service.IsAvailable(context.Background()))
}

func TestFactory_SelectsProvider(t *testing.T) {
	logger := arbor.NewLogger()

	openai, err := NewService(context.Background(), &common.EmbeddingsConfig{Provider: "openai"}, logger)
	assert.NoError(t, err)
	assert.IsType(t, &OpenAIService{}, openai)

	defaulted, err := NewService(context.Background(), &common.EmbeddingsConfig{}, logger)
	assert.NoError(t, err)
	assert.IsType(t, &OpenAIService{}, defaulted)

	_, err = NewService(context.Background(), &common.EmbeddingsConfig{Provider: "gemini"}, logger)
	assert.Error(t, err, "gemini without an API key must fail")

	_, err = NewService(context.Background(), &common.EmbeddingsConfig{Provider: "cohere"}, logger)
	assert.Error(t, err)
}
