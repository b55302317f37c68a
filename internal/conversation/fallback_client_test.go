package conversation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Luxury-Leads-AI/Luxury-Leads-AI/pkg/logging"
)

func replyWith(text string, calls *int) Provider {
	return Provider{Name: text, Client: LLMClientFunc(func(ctx context.Context, req LLMRequest) (LLMResponse, error) {
		if calls != nil {
			*calls++
		}
		return LLMResponse{Text: text}, nil
	})}
}

func failWith(err error) Provider {
	return Provider{Name: "failing", Client: LLMClientFunc(func(ctx context.Context, req LLMRequest) (LLMResponse, error) {
		return LLMResponse{}, err
	})}
}

func TestFallbackUsesPrimaryWhenHealthy(t *testing.T) {
	fallbackCalls := 0
	c := NewFallbackLLMClient(logging.Discard(), replyWith("primary", nil), replyWith("fallback", &fallbackCalls))

	resp, err := c.Complete(context.Background(), LLMRequest{})
	require.NoError(t, err)
	assert.Equal(t, "primary", resp.Text)
	assert.Zero(t, fallbackCalls)
}

func TestFallbackAfterPrimaryFailure(t *testing.T) {
	var fallbackModel string
	c := NewFallbackLLMClient(logging.Discard(),
		failWith(errors.New("throttled")),
		Provider{Name: "gemini", Client: LLMClientFunc(func(ctx context.Context, req LLMRequest) (LLMResponse, error) {
			fallbackModel = req.Model
			return LLMResponse{Text: "fallback"}, nil
		})},
	)

	resp, err := c.Complete(context.Background(), LLMRequest{Model: "gpt-4o-mini"})
	require.NoError(t, err)
	assert.Equal(t, "fallback", resp.Text)
	assert.Empty(t, fallbackModel)
}

func TestFallbackTreatsBlankReplyAsFailure(t *testing.T) {
	c := NewFallbackLLMClient(logging.Discard(), replyWith("  ", nil), replyWith("second", nil))

	resp, err := c.Complete(context.Background(), LLMRequest{})
	require.NoError(t, err)
	assert.Equal(t, "second", resp.Text)
}

func TestFallbackSkippedWhenContextDone(t *testing.T) {
	fallbackCalls := 0
	primaryErr := errors.New("cancelled upstream")
	c := NewFallbackLLMClient(logging.Discard(), failWith(primaryErr), replyWith("fallback", &fallbackCalls))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Complete(ctx, LLMRequest{})
	assert.ErrorIs(t, err, primaryErr)
	assert.Zero(t, fallbackCalls)
}

func TestFallbackJoinsEveryProviderError(t *testing.T) {
	first, second := errors.New("down"), errors.New("also down")
	c := NewFallbackLLMClient(nil, failWith(first), failWith(second))

	_, err := c.Complete(context.Background(), LLMRequest{})
	assert.ErrorIs(t, err, first)
	assert.ErrorIs(t, err, second)
}

func TestFallbackIgnoresNilProviders(t *testing.T) {
	assert.Panics(t, func() { NewFallbackLLMClient(nil, Provider{Name: "none"}) })

	c := NewFallbackLLMClient(nil, Provider{Name: "none"}, replyWith("only", nil))
	resp, err := c.Complete(context.Background(), LLMRequest{})
	require.NoError(t, err)
	assert.Equal(t, "only", resp.Text)
}
