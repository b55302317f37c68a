package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// SummaryUnavailable replaces the summary when the completion call fails.
const SummaryUnavailable = "Summary unavailable: the visitor shared details in chat, review the conversation with them directly."

const (
	summaryMaxTokens   = 160
	summaryTemperature = 0.2
)

const summaryInstruction = `You analyze sales chats for a luxury real estate agency.
Summarize the visitor's interest in one to three sentences for the agent who will follow up.
Mention property type, location, budget, key requirements and urgency when the visitor stated them.
Do not invent details. Reply with the summary only.`

// Summarizer turns a conversation window into a short lead summary.
type Summarizer struct {
	client LLMClient
	tracer trace.Tracer
}

func NewSummarizer(client LLMClient) *Summarizer {
	if client == nil {
		panic("conversation: summarizer llm client required")
	}
	return &Summarizer{
		client: client,
		tracer: otel.Tracer("luxuryleads.internal.conversation.summarizer"),
	}
}

// Summarize makes one completion call over the window. On failure it returns
// SummaryUnavailable together with the error so callers can log it and move on.
func (s *Summarizer) Summarize(ctx context.Context, turns []Turn) (string, error) {
	ctx, span := s.tracer.Start(ctx, "conversation.summarize")
	defer span.End()

	transcript := renderTranscript(turns)
	if transcript == "" {
		return SummaryUnavailable, errors.New("conversation: nothing to summarize")
	}

	resp, err := s.client.Complete(ctx, LLMRequest{
		System:      []string{summaryInstruction},
		Messages:    []ChatMessage{{Role: ChatRoleUser, Content: "Conversation:\n" + transcript}},
		MaxTokens:   summaryMaxTokens,
		Temperature: summaryTemperature,
	})
	if err != nil {
		span.RecordError(err)
		return SummaryUnavailable, fmt.Errorf("conversation: summarize: %w", err)
	}
	summary := strings.TrimSpace(resp.Text)
	if summary == "" {
		return SummaryUnavailable, ErrEmptyCompletion
	}
	return summary, nil
}

func renderTranscript(turns []Turn) string {
	var b strings.Builder
	for _, t := range turns {
		text := strings.TrimSpace(t.Text)
		if text == "" {
			continue
		}
		role := "Visitor"
		if t.Role == ChatRoleAssistant {
			role = "Assistant"
		}
		b.WriteString(role)
		b.WriteString(": ")
		b.WriteString(text)
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String())
}
