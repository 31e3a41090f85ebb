package nlp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundprediction/annotato/pkg/types"
)

func TestNewOpenAIClientRequiresKey(t *testing.T) {
	_, err := NewOpenAIClient("", Config{})
	require.Error(t, err)
	assert.ErrorIs(t, err, &FatalError{})
}

func TestNewOpenAIClientDefaultModel(t *testing.T) {
	client, err := NewOpenAIClient("test-key", Config{})
	require.NoError(t, err)
	assert.NotEmpty(t, client.config.Model)
	assert.NoError(t, client.Close())
}

func TestNewOpenAIClientBaseURLValidation(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		wantErr bool
	}{
		{"valid https", "https://llm.example.com/v1", false},
		{"valid http without path", "http://localhost:11434", false},
		{"bad scheme", "ftp://example.com", true},
		{"no scheme", "example.com", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewOpenAIClient("", Config{BaseURL: tt.baseURL, Model: "test-model"})
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestHasAPIPath(t *testing.T) {
	assert.True(t, hasAPIPath("https://x.test/v1"))
	assert.True(t, hasAPIPath("https://x.test/api/"))
	assert.False(t, hasAPIPath("https://x.test"))
}

func TestBuildChatRequest(t *testing.T) {
	temp := float32(0.2)
	maxTokens := 512
	client, err := NewOpenAIClient("test-key", Config{
		Model:       "gpt-4o-mini",
		Temperature: &temp,
		MaxTokens:   &maxTokens,
	})
	require.NoError(t, err)

	req := client.buildChatRequest([]types.Message{
		NewSystemMessage("instructions"),
		NewUserMessage("source text"),
	})
	require.Len(t, req.Messages, 2)
	assert.Equal(t, "system", req.Messages[0].Role)
	assert.Equal(t, "gpt-4o-mini", req.Model)
	assert.Equal(t, temp, req.Temperature)
	assert.Equal(t, maxTokens, req.MaxTokens)
	require.NotNil(t, req.ResponseFormat)
}
