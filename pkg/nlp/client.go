// Package nlp defines the model gateway boundary: a narrow client interface
// for text-generation backends plus the retry, circuit-breaking, and error
// classification wrappers the extraction core composes around it. The core
// treats the gateway as a black box that completes or fails within the
// caller-supplied context deadline.
package nlp

import (
	"context"

	"github.com/soundprediction/annotato/pkg/types"
)

// Client is the interface to a text-generation backend.
type Client interface {
	// Chat sends a chat completion request and returns the raw response.
	// Cancellation and timeouts are controlled by ctx; a call that fails
	// returns either a TransientError or a FatalError.
	Chat(ctx context.Context, messages []types.Message) (*types.Response, error)

	// Close cleans up any resources.
	Close() error
}

const (
	// RoleSystem represents a system message.
	RoleSystem types.Role = "system"
	// RoleUser represents a user message.
	RoleUser types.Role = "user"
	// RoleAssistant represents an assistant message.
	RoleAssistant types.Role = "assistant"
)

// Config holds per-client model configuration. There is no ambient or global
// state: credentials and model selection are always passed in explicitly.
type Config struct {
	Model       string   `json:"model"`
	Temperature *float32 `json:"temperature,omitempty"`
	MaxTokens   *int     `json:"max_tokens,omitempty"`
	TopP        *float32 `json:"top_p,omitempty"`
	Stop        []string `json:"stop,omitempty"`
	BaseURL     string   `json:"base_url,omitempty"` // Custom base URL for OpenAI-compatible services
}

// NewMessage creates a new message with the specified role and content.
func NewMessage(role types.Role, content string) types.Message {
	return types.Message{Role: role, Content: content}
}

// NewSystemMessage creates a new system message.
func NewSystemMessage(content string) types.Message {
	return NewMessage(RoleSystem, content)
}

// NewUserMessage creates a new user message.
func NewUserMessage(content string) types.Message {
	return NewMessage(RoleUser, content)
}
