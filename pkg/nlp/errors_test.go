package nlp

import (
	"context"
	"errors"
	"fmt"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
)

func TestClassifyNil(t *testing.T) {
	assert.NoError(t, Classify(nil))
}

func TestClassifyPatterns(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		wantTransient bool
	}{
		{"rate limit", errors.New("429 too many requests"), true},
		{"server error", errors.New("HTTP 503 service unavailable"), true},
		{"timeout", errors.New("request timeout"), true},
		{"connection reset", errors.New("read: connection reset by peer"), true},
		{"auth failure", errors.New("invalid api key"), false},
		{"unknown", errors.New("model does not exist"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			classified := Classify(tt.err)
			assert.Equal(t, tt.wantTransient, IsTransient(classified))
			if !tt.wantTransient {
				assert.ErrorIs(t, classified, &FatalError{})
			}
		})
	}
}

func TestClassifyAPIErrorStatusCodes(t *testing.T) {
	tests := []struct {
		status        int
		wantTransient bool
	}{
		{429, true},
		{500, true},
		{503, true},
		{400, false},
		{401, false},
		{404, false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("status_%d", tt.status), func(t *testing.T) {
			err := fmt.Errorf("call failed: %w", &openai.APIError{HTTPStatusCode: tt.status, Message: "boom"})
			assert.Equal(t, tt.wantTransient, IsTransient(Classify(err)))
		})
	}
}

func TestClassifyPreservesClassification(t *testing.T) {
	transient := &TransientError{Err: errors.New("x")}
	assert.Same(t, transient, Classify(transient).(*TransientError))

	fatal := &FatalError{Err: errors.New("y")}
	assert.Same(t, fatal, Classify(fatal).(*FatalError))
}

func TestClassifyContextErrorsPassThrough(t *testing.T) {
	assert.ErrorIs(t, Classify(context.Canceled), context.Canceled)
	assert.ErrorIs(t, Classify(context.DeadlineExceeded), context.DeadlineExceeded)
	assert.False(t, IsTransient(Classify(context.Canceled)))
}

func TestErrorUnwrap(t *testing.T) {
	inner := errors.New("backend exploded")
	te := &TransientError{Err: inner}
	assert.ErrorIs(t, te, inner)
	assert.Contains(t, te.Error(), "backend exploded")

	fe := &FatalError{Err: inner}
	assert.ErrorIs(t, fe, inner)
}
