package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/semaphore"

	"github.com/Luxury-Leads-AI/Luxury-Leads-AI/internal/observability/metrics"
	"github.com/Luxury-Leads-AI/Luxury-Leads-AI/pkg/logging"
)

// ErrEmptyCompletion is returned when a provider answers with no text.
var ErrEmptyCompletion = errors.New("conversation: llm returned empty response")

// GuardedClient bounds outstanding completion calls, applies a per-call
// timeout and records latency and token usage.
type GuardedClient struct {
	next    LLMClient
	sem     *semaphore.Weighted
	timeout time.Duration
	metrics *metrics.ChatMetrics
	tracer  trace.Tracer
	logger  *logging.Logger
}

// GuardOptions configures NewGuardedClient.
type GuardOptions struct {
	MaxConcurrent int
	Timeout       time.Duration
	Metrics       *metrics.ChatMetrics
	Logger        *logging.Logger
}

func NewGuardedClient(next LLMClient, opts GuardOptions) *GuardedClient {
	if next == nil {
		panic("conversation: llm client required")
	}
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 16
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = logging.Default()
	}
	return &GuardedClient{
		next:    next,
		sem:     semaphore.NewWeighted(int64(opts.MaxConcurrent)),
		timeout: opts.Timeout,
		metrics: opts.Metrics,
		tracer:  otel.Tracer("luxuryleads.internal.conversation.llm"),
		logger:  opts.Logger,
	}
}

func (g *GuardedClient) Complete(ctx context.Context, req LLMRequest) (LLMResponse, error) {
	ctx, span := g.tracer.Start(ctx, "conversation.llm")
	defer span.End()

	if err := g.sem.Acquire(ctx, 1); err != nil {
		span.RecordError(err)
		return LLMResponse{}, fmt.Errorf("conversation: waiting for completion slot: %w", err)
	}
	defer g.sem.Release(1)

	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	resp, err := g.next.Complete(callCtx, req)
	latency := time.Since(start)
	if err == nil && strings.TrimSpace(resp.Text) == "" {
		err = ErrEmptyCompletion
	}

	model := resp.Model
	if model == "" {
		model = req.Model
	}
	if model == "" {
		model = "default"
	}
	status := "ok"
	switch {
	case err != nil && errors.Is(callCtx.Err(), context.DeadlineExceeded):
		status = "timeout"
	case err != nil:
		status = "error"
	}
	g.metrics.ObserveCompletion(model, status, latency.Seconds(), resp.Usage.Prompt, resp.Usage.Completion)
	if span.IsRecording() {
		span.SetAttributes(
			attribute.Float64("luxuryleads.llm.latency_ms", float64(latency.Milliseconds())),
			attribute.String("luxuryleads.llm.model", model),
			attribute.String("luxuryleads.llm.status", status),
			attribute.Int("luxuryleads.llm.total_tokens", int(resp.Usage.Total())),
		)
	}
	if err != nil {
		span.RecordError(err)
		g.logger.Warn("llm completion failed", "model", model, "status", status, "latency_ms", latency.Milliseconds(), "error", err)
		return LLMResponse{}, err
	}
	g.logger.Debug("llm completion finished",
		"model", model,
		"latency_ms", latency.Milliseconds(),
		"prompt_tokens", resp.Usage.Prompt,
		"completion_tokens", resp.Usage.Completion,
	)
	resp.Text = strings.TrimSpace(resp.Text)
	return resp, nil
}
