package nlp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundprediction/annotato/pkg/types"
)

// scriptedClient returns the queued errors in order, then succeeds.
type scriptedClient struct {
	errs  []error
	calls int
}

func (c *scriptedClient) Chat(ctx context.Context, messages []types.Message) (*types.Response, error) {
	c.calls++
	if len(c.errs) > 0 {
		err := c.errs[0]
		c.errs = c.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	return &types.Response{Content: `{"extractions": []}`}, nil
}

func (c *scriptedClient) Close() error { return nil }

func fastRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
	}
}

func TestRetryClientRecoversFromTransient(t *testing.T) {
	mock := &scriptedClient{errs: []error{
		&TransientError{Err: errors.New("503")},
		&TransientError{Err: errors.New("429")},
	}}
	client := NewRetryClient(mock, fastRetryConfig())

	resp, err := client.Chat(context.Background(), []types.Message{NewUserMessage("hi")})
	require.NoError(t, err)
	assert.Equal(t, `{"extractions": []}`, resp.Content)
	assert.Equal(t, 3, mock.calls)
}

func TestRetryClientGivesUpAfterMaxAttempts(t *testing.T) {
	mock := &scriptedClient{errs: []error{
		&TransientError{Err: errors.New("one")},
		&TransientError{Err: errors.New("two")},
		&TransientError{Err: errors.New("three")},
	}}
	client := NewRetryClient(mock, fastRetryConfig())

	_, err := client.Chat(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, IsTransient(err))
	assert.Equal(t, 3, mock.calls)
}

func TestRetryClientDoesNotRetryFatal(t *testing.T) {
	mock := &scriptedClient{errs: []error{
		&FatalError{Err: errors.New("invalid credentials")},
	}}
	client := NewRetryClient(mock, fastRetryConfig())

	_, err := client.Chat(context.Background(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, &FatalError{})
	assert.Equal(t, 1, mock.calls)
}

func TestRetryClientHonorsCancellation(t *testing.T) {
	mock := &scriptedClient{errs: []error{
		&TransientError{Err: errors.New("slow backend")},
		&TransientError{Err: errors.New("slow backend")},
	}}
	client := NewRetryClient(mock, RetryConfig{
		MaxAttempts:  3,
		InitialDelay: time.Hour, // force the backoff wait to block
		MaxDelay:     time.Hour,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := client.Chat(ctx, nil)
	require.Error(t, err)
	assert.Equal(t, 1, mock.calls)
}
