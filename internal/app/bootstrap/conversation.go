package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/redis/go-redis/v9"

	appconfig "github.com/Luxury-Leads-AI/Luxury-Leads-AI/internal/config"
	"github.com/Luxury-Leads-AI/Luxury-Leads-AI/internal/conversation"
	"github.com/Luxury-Leads-AI/Luxury-Leads-AI/internal/observability/metrics"
	"github.com/Luxury-Leads-AI/Luxury-Leads-AI/pkg/logging"
)

const (
	ProviderOpenAI  = "openai"
	ProviderBedrock = "bedrock"
	ProviderGemini  = "gemini"
)

// BuildLLMClient wires the configured completion provider, an optional
// fallback, and the timeout/concurrency guard.
func BuildLLMClient(ctx context.Context, cfg *appconfig.Config, chatMetrics *metrics.ChatMetrics, logger *logging.Logger) (conversation.LLMClient, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	primary, err := buildProvider(ctx, cfg, cfg.LLMProvider)
	if err != nil {
		return nil, err
	}
	client := primary

	if name := cfg.LLMFallbackProvider; name != "" && name != cfg.LLMProvider {
		fallback, err := buildProvider(ctx, cfg, name)
		if err != nil {
			logger.Warn("fallback LLM provider unavailable", "provider", name, "error", err)
		} else {
			client = conversation.NewFallbackLLMClient(logger,
				conversation.Provider{Name: cfg.LLMProvider, Client: primary},
				conversation.Provider{Name: name, Client: fallback},
			)
			logger.Info("LLM fallback enabled", "primary", cfg.LLMProvider, "fallback", name)
		}
	}

	logger.Info("using LLM provider", "provider", cfg.LLMProvider, "timeout", cfg.LLMTimeout.String(), "max_concurrent", cfg.LLMMaxConcurrent)
	return conversation.NewGuardedClient(client, conversation.GuardOptions{
		MaxConcurrent: cfg.LLMMaxConcurrent,
		Timeout:       cfg.LLMTimeout,
		Metrics:       chatMetrics,
		Logger:        logger,
	}), nil
}

func buildProvider(ctx context.Context, cfg *appconfig.Config, name string) (conversation.LLMClient, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case ProviderOpenAI, "":
		client, err := conversation.NewOpenAILLMClient(conversation.OpenAIConfig{
			APIKey:  cfg.OpenAIAPIKey,
			Model:   cfg.OpenAIModel,
			BaseURL: cfg.OpenAIBaseURL,
		})
		if err != nil {
			return nil, fmt.Errorf("bootstrap: openai: %w", err)
		}
		return client, nil
	case ProviderBedrock:
		if strings.TrimSpace(cfg.BedrockModelID) == "" {
			return nil, fmt.Errorf("bootstrap: bedrock: BEDROCK_MODEL_ID is required")
		}
		awsCfg, err := LoadAWSConfig(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return conversation.NewBedrockLLMClient(bedrockruntime.NewFromConfig(awsCfg), cfg.BedrockModelID), nil
	case ProviderGemini:
		client, err := conversation.NewGeminiLLMClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: gemini: %w", err)
		}
		return client, nil
	default:
		return nil, fmt.Errorf("bootstrap: unknown LLM provider %q", name)
	}
}

// BuildMemory returns Redis-backed memory when configured and reachable,
// otherwise the in-process window store.
func BuildMemory(cfg *appconfig.Config, redisClient *redis.Client, logger *logging.Logger) conversation.Memory {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.MemoryBackend == "redis" {
		if redisClient != nil {
			logger.Info("conversation memory backend", "backend", "redis", "ttl", cfg.MemoryTTL.String())
			return conversation.NewRedisMemory(redisClient, cfg.MemoryMaxTurns, cfg.MemoryTTL)
		}
		logger.Warn("redis memory requested but redis unavailable; using local memory")
	}
	logger.Info("conversation memory backend", "backend", "memory", "max_conversations", cfg.MemoryMaxConversations)
	return conversation.NewLocalMemory(conversation.LocalMemoryConfig{
		MaxTurns:         cfg.MemoryMaxTurns,
		MaxConversations: cfg.MemoryMaxConversations,
		TTL:              cfg.MemoryTTL,
	})
}

// ConversationDeps are the collaborators of the chat service.
type ConversationDeps struct {
	Agencies conversation.AgencyLookup
	Leads    conversation.LeadStore
	Memory   conversation.Memory
	LLM      conversation.LLMClient
	Notifier conversation.LeadNotifier
	Metrics  *metrics.ChatMetrics
}

// BuildConversationService assembles the turn orchestrator from config.
func BuildConversationService(cfg *appconfig.Config, deps ConversationDeps, logger *logging.Logger) (*conversation.Service, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if deps.Agencies == nil || deps.Leads == nil || deps.Memory == nil || deps.LLM == nil {
		return nil, fmt.Errorf("bootstrap: agencies, leads, memory and llm are required")
	}

	opts := []conversation.ServiceOption{
		conversation.WithWindow(cfg.MemoryWindowTurns, cfg.LeadMinTurns),
		conversation.WithChatParams(float32(cfg.ChatTemperature), int32(cfg.ChatMaxTokens)),
		conversation.WithMetrics(deps.Metrics),
	}
	if cfg.LeadSummaryEnabled {
		opts = append(opts, conversation.WithSummarizer(conversation.NewSummarizer(deps.LLM)))
	}
	if deps.Notifier != nil {
		opts = append(opts, conversation.WithNotifier(deps.Notifier))
	}
	return conversation.NewService(deps.Agencies, deps.Memory, deps.LLM, deps.Leads, logger, opts...), nil
}
