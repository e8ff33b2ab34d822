package integration

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"ai-facilityops-be/pkg/embedding"
	"ai-facilityops-be/pkg/llm"
	"ai-facilityops-be/pkg/llm/factory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ollamaBaseURL(t *testing.T) string {
	t.Helper()
	baseURL := os.Getenv("OLLAMA_BASE_URL")
	if baseURL == "" {
		t.Skip("Skipping integration test: OLLAMA_BASE_URL not set")
	}
	return baseURL
}

func TestOllamaChat(t *testing.T) {
	baseURL := ollamaBaseURL(t)
	model := os.Getenv("LLM_MODEL")
	if model == "" {
		model = "llama3"
	}

	provider, err := factory.NewLLMProvider("ollama", model, baseURL)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	response, err := provider.Chat(ctx, []llm.Message{
		{Role: "user", Content: "Reply with the single word: pong"},
	}, llm.WithTemperature(0))
	require.NoError(t, err)
	assert.NotEmpty(t, response)
	t.Logf("Chat response: %s", response)
}

func TestOllamaStreamDeliversTokens(t *testing.T) {
	baseURL := ollamaBaseURL(t)
	model := os.Getenv("LLM_MODEL")
	if model == "" {
		model = "llama3"
	}

	provider, err := factory.NewLLMProvider("ollama", model, baseURL)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	var tokens []string
	full, err := provider.Stream(ctx, []llm.Message{
		{Role: "user", Content: "Count from 1 to 5, digits only."},
	}, func(token string) {
		tokens = append(tokens, token)
	})
	require.NoError(t, err)
	assert.NotEmpty(t, tokens)
	assert.Equal(t, full, strings.Join(tokens, ""))
}

func TestOllamaEmbedding(t *testing.T) {
	baseURL := ollamaBaseURL(t)
	model := os.Getenv("OLLAMA_EMBEDDING_MODEL")
	if model == "" {
		model = "nomic-embed-text"
	}

	provider := embedding.NewOllamaProvider(baseURL, model)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	response, err := provider.Generate(ctx, "HVAC inspection at the north tower", "RETRIEVAL_QUERY")
	require.NoError(t, err)
	require.NotEmpty(t, response.Embedding.Values)

	// Vectors are normalized for cosine distance.
	var norm float64
	for _, v := range response.Embedding.Values {
		norm += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, norm, 0.01)
}
