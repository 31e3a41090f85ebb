package nlp

import (
	"context"
	"time"

	retry "github.com/avast/retry-go/v4"

	"github.com/soundprediction/annotato/pkg/types"
)

// RetryConfig holds configuration for the retry wrapper.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts including the first
	// (default: 4).
	MaxAttempts uint
	// InitialDelay is the delay before the first retry (default: 1s).
	InitialDelay time.Duration
	// MaxDelay caps the exponential backoff (default: 30s).
	MaxDelay time.Duration
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  4,
		InitialDelay: 1 * time.Second,
		MaxDelay:     30 * time.Second,
	}
}

// RetryClient wraps a Client with bounded exponential backoff. Only
// TransientError is retried; FatalError and context cancellation propagate
// immediately.
type RetryClient struct {
	client Client
	config RetryConfig
}

// NewRetryClient creates a retry wrapper around client.
func NewRetryClient(client Client, config RetryConfig) *RetryClient {
	if config.MaxAttempts == 0 {
		config.MaxAttempts = 4
	}
	if config.InitialDelay <= 0 {
		config.InitialDelay = 1 * time.Second
	}
	if config.MaxDelay <= 0 {
		config.MaxDelay = 30 * time.Second
	}
	return &RetryClient{client: client, config: config}
}

// Chat implements Client with retry logic.
func (r *RetryClient) Chat(ctx context.Context, messages []types.Message) (*types.Response, error) {
	var resp *types.Response

	err := retry.Do(
		func() error {
			var err error
			resp, err = r.client.Chat(ctx, messages)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(r.config.MaxAttempts),
		retry.Delay(r.config.InitialDelay),
		retry.MaxDelay(r.config.MaxDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.RetryIf(IsTransient),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// Close implements Client.
func (r *RetryClient) Close() error {
	return r.client.Close()
}
