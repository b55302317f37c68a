package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Luxury-Leads-AI/Luxury-Leads-AI/pkg/logging"
)

// Provider is a completion client plus the name it is logged under.
type Provider struct {
	Name   string
	Client LLMClient
}

// FallbackLLMClient asks each provider in turn until one returns text.
// Providers after the first get an empty Model so they use their own default.
type FallbackLLMClient struct {
	providers []Provider
	logger    *logging.Logger
}

func NewFallbackLLMClient(logger *logging.Logger, providers ...Provider) *FallbackLLMClient {
	var usable []Provider
	for _, p := range providers {
		if p.Client != nil {
			usable = append(usable, p)
		}
	}
	if len(usable) == 0 {
		panic("conversation: at least one llm provider required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &FallbackLLMClient{providers: usable, logger: logger}
}

func (c *FallbackLLMClient) Complete(ctx context.Context, req LLMRequest) (LLMResponse, error) {
	var errs []error
	for i, p := range c.providers {
		attempt := req
		if i > 0 {
			attempt.Model = ""
		}
		resp, err := p.Client.Complete(ctx, attempt)
		if err == nil && strings.TrimSpace(resp.Text) == "" {
			err = fmt.Errorf("conversation: %s returned an empty reply", p.Name)
		}
		if err == nil {
			if i > 0 {
				c.logger.Info("llm fallback answered", "provider", p.Name, "attempt", i+1)
			}
			return resp, nil
		}
		errs = append(errs, err)
		if ctx.Err() != nil {
			break
		}
		if i+1 < len(c.providers) {
			c.logger.Warn("llm provider failed, trying next", "provider", p.Name, "next", c.providers[i+1].Name, "error", err)
		}
	}
	return LLMResponse{}, errors.Join(errs...)
}
