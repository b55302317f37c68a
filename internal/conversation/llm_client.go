package conversation

import (
	"context"
	"fmt"
	"strings"
)

// Message roles. Stored turns only carry user or assistant.
const (
	ChatRoleSystem    = "system"
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
)

// ChatMessage is one completion message.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// TokenUsage is what a provider reported; zero when it reported nothing.
type TokenUsage struct {
	Prompt     int32
	Completion int32
}

func (u TokenUsage) Total() int32 {
	return u.Prompt + u.Completion
}

// LLMRequest is a provider-neutral completion request. An empty Model selects
// the provider default and a negative Temperature leaves the provider's own.
type LLMRequest struct {
	Model       string
	System      []string
	Messages    []ChatMessage
	MaxTokens   int32
	Temperature float32
}

type LLMResponse struct {
	Text       string
	Model      string
	StopReason string
	Usage      TokenUsage
}

// LLMClient is implemented by every completion provider and by the wrappers
// layered over them (fallback, guard).
type LLMClient interface {
	Complete(ctx context.Context, req LLMRequest) (LLMResponse, error)
}

// LLMClientFunc adapts a function to LLMClient.
type LLMClientFunc func(ctx context.Context, req LLMRequest) (LLMResponse, error)

func (f LLMClientFunc) Complete(ctx context.Context, req LLMRequest) (LLMResponse, error) {
	return f(ctx, req)
}

// normalize folds system-role messages into the system blocks and drops blank
// content. Providers map the result onto their own wire types.
func (r LLMRequest) normalize() (system []string, messages []ChatMessage, err error) {
	for _, block := range r.System {
		if block = strings.TrimSpace(block); block != "" {
			system = append(system, block)
		}
	}
	messages = make([]ChatMessage, 0, len(r.Messages))
	for _, msg := range r.Messages {
		content := strings.TrimSpace(msg.Content)
		if content == "" {
			continue
		}
		switch msg.Role {
		case ChatRoleSystem:
			system = append(system, content)
		case ChatRoleUser, ChatRoleAssistant:
			messages = append(messages, ChatMessage{Role: msg.Role, Content: content})
		default:
			return nil, nil, fmt.Errorf("conversation: unsupported role %q", msg.Role)
		}
	}
	return system, messages, nil
}

func turnsToMessages(turns []Turn) []ChatMessage {
	out := make([]ChatMessage, 0, len(turns))
	for _, t := range turns {
		out = append(out, ChatMessage{Role: t.Role, Content: t.Text})
	}
	return out
}
