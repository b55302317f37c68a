package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Luxury-Leads-AI/Luxury-Leads-AI/internal/agency"
	"github.com/Luxury-Leads-AI/Luxury-Leads-AI/internal/leads"
	"github.com/Luxury-Leads-AI/Luxury-Leads-AI/internal/observability/metrics"
	"github.com/Luxury-Leads-AI/Luxury-Leads-AI/pkg/logging"
)

var (
	// ErrInvalidRequest is returned when the agency id or message is missing or too long.
	ErrInvalidRequest = errors.New("conversation: agency_id and message are required")

	// ErrCompletionFailed is returned when the assistant reply could not be generated.
	ErrCompletionFailed = errors.New("conversation: completion failed")

	// ErrLeadPersistence is returned when a qualifying lead could not be stored.
	ErrLeadPersistence = errors.New("conversation: lead persistence failed")
)

const (
	// MaxMessageRunes bounds a single visitor message.
	MaxMessageRunes = 4000

	// FallbackLeadMessage is stored when no summary text is available.
	FallbackLeadMessage = "Visitor engaged with the assistant and may be interested in a property."

	defaultWindowTurns = 10
	defaultMinTurns    = 6
	defaultTemperature = 0.7
	defaultMaxTokens   = 400
)

var serviceTracer = otel.Tracer("luxuryleads.internal.conversation.service")

// AgencyLookup resolves the agency serving a chat turn.
type AgencyLookup interface {
	LookupActive(ctx context.Context, id string) (*agency.Agency, error)
}

// LeadStore persists qualified leads.
type LeadStore interface {
	Create(ctx context.Context, req *leads.CreateLeadRequest) (*leads.Lead, error)
}

// LeadNotifier tells the agency owner about a new lead without blocking the turn.
type LeadNotifier interface {
	Dispatch(a *agency.Agency, lead *leads.Lead)
}

// TurnRequest is one visitor message.
type TurnRequest struct {
	AgencyID  string
	SessionID string
	Message   string
}

// TurnResult is the assistant reply plus any lead the turn produced.
type TurnResult struct {
	Reply  string
	Fields LeadFields
	Lead   *leads.Lead
}

// Service runs the chat turn cycle: remember, reply, extract, qualify,
// summarize, persist, notify.
type Service struct {
	agencies    AgencyLookup
	memory      Memory
	llm         LLMClient
	leads       LeadStore
	summarizer  *Summarizer
	notifier    LeadNotifier
	metrics     *metrics.ChatMetrics
	logger      *logging.Logger
	locks       *keyLocks
	windowTurns int
	minTurns    int
	temperature float32
	maxTokens   int32
}

type ServiceOption func(*Service)

// WithSummarizer enables AI lead summaries. Without it the raw message is stored.
func WithSummarizer(s *Summarizer) ServiceOption {
	return func(svc *Service) {
		svc.summarizer = s
	}
}

func WithNotifier(n LeadNotifier) ServiceOption {
	return func(svc *Service) {
		svc.notifier = n
	}
}

func WithMetrics(m *metrics.ChatMetrics) ServiceOption {
	return func(svc *Service) {
		svc.metrics = m
	}
}

// WithWindow sets how many recent turns are sent to the model and how many
// stored turns qualify a conversation on engagement alone.
func WithWindow(windowTurns, minTurns int) ServiceOption {
	return func(svc *Service) {
		if windowTurns > 0 {
			svc.windowTurns = windowTurns
		}
		if minTurns > 0 {
			svc.minTurns = minTurns
		}
	}
}

func WithChatParams(temperature float32, maxTokens int32) ServiceOption {
	return func(svc *Service) {
		svc.temperature = temperature
		if maxTokens > 0 {
			svc.maxTokens = maxTokens
		}
	}
}

func NewService(agencies AgencyLookup, memory Memory, llm LLMClient, leadStore LeadStore, logger *logging.Logger, opts ...ServiceOption) *Service {
	if agencies == nil {
		panic("conversation: agency lookup cannot be nil")
	}
	if memory == nil {
		panic("conversation: memory cannot be nil")
	}
	if llm == nil {
		panic("conversation: llm client cannot be nil")
	}
	if leadStore == nil {
		panic("conversation: lead store cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	svc := &Service{
		agencies:    agencies,
		memory:      memory,
		llm:         llm,
		leads:       leadStore,
		logger:      logger,
		locks:       newKeyLocks(),
		windowTurns: defaultWindowTurns,
		minTurns:    defaultMinTurns,
		temperature: defaultTemperature,
		maxTokens:   defaultMaxTokens,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// HandleTurn processes one visitor message. Turns sharing a conversation key
// run one at a time. When the completion fails the visitor's message stays
// in the window and no lead is created.
func (s *Service) HandleTurn(ctx context.Context, req TurnRequest) (*TurnResult, error) {
	ctx, span := serviceTracer.Start(ctx, "conversation.turn")
	defer span.End()

	message := strings.TrimSpace(req.Message)
	agencyID := strings.TrimSpace(req.AgencyID)
	if agencyID == "" || message == "" || utf8.RuneCountInString(message) > MaxMessageRunes {
		s.metrics.ObserveTurn("invalid")
		return nil, ErrInvalidRequest
	}

	ag, err := s.agencies.LookupActive(ctx, agencyID)
	if err != nil {
		s.metrics.ObserveTurn("rejected")
		return nil, err
	}
	logger := s.logger.WithAgency(ag.ID)
	key := ConversationKey(ag.ID, req.SessionID)
	span.SetAttributes(attribute.String("luxuryleads.agency_id", ag.ID))

	unlock := s.locks.Lock(key)
	defer unlock()

	if err := s.memory.AppendTurn(ctx, key, ChatRoleUser, message); err != nil {
		s.metrics.ObserveTurn("memory_error")
		span.RecordError(err)
		return nil, fmt.Errorf("conversation: store visitor turn: %w", err)
	}

	history, err := s.memory.RecentContext(ctx, key, s.windowTurns)
	if err != nil || len(history) == 0 {
		if err != nil {
			logger.Warn("failed to load conversation window", "error", err)
		}
		history = []Turn{{Role: ChatRoleUser, Text: message}}
	}

	resp, err := s.llm.Complete(ctx, LLMRequest{
		System:      systemPrompt(ag),
		Messages:    turnsToMessages(history),
		MaxTokens:   s.maxTokens,
		Temperature: s.temperature,
	})
	if err != nil {
		s.metrics.ObserveTurn("llm_error")
		span.RecordError(err)
		return nil, fmt.Errorf("%w: %w", ErrCompletionFailed, err)
	}
	reply := strings.TrimSpace(resp.Text)
	if reply == "" {
		s.metrics.ObserveTurn("llm_error")
		return nil, fmt.Errorf("%w: %w", ErrCompletionFailed, ErrEmptyCompletion)
	}

	if err := s.memory.AppendTurn(ctx, key, ChatRoleAssistant, reply); err != nil {
		logger.Warn("failed to store assistant turn", "error", err)
	}

	result := &TurnResult{Reply: reply, Fields: Extract(message)}

	windowLen, err := s.memory.Len(ctx, key)
	if err != nil {
		logger.Warn("failed to count conversation window", "error", err)
		windowLen = len(history) + 1
	}
	trigger, ok := Qualify(result.Fields, windowLen, s.minTurns)
	if !ok {
		s.metrics.ObserveTurn("ok")
		return result, nil
	}

	lead, err := s.leads.Create(ctx, &leads.CreateLeadRequest{
		AgencyID: ag.ID,
		Name:     result.Fields.Name,
		Email:    result.Fields.Email,
		Phone:    result.Fields.Phone,
		Budget:   result.Fields.Budget,
		Message:  s.leadMessage(ctx, logger, key, message),
		Trigger:  trigger,
	})
	if err != nil {
		s.metrics.ObserveTurn("lead_error")
		span.RecordError(err)
		logger.Error("failed to persist lead", "error", err, "trigger", trigger)
		return nil, fmt.Errorf("%w: %w", ErrLeadPersistence, err)
	}
	result.Lead = lead
	s.metrics.ObserveLead(trigger)
	s.metrics.ObserveTurn("ok")
	logger.Info("lead captured", "lead_id", lead.ID, "trigger", trigger)

	if s.notifier != nil {
		s.notifier.Dispatch(ag, lead)
	}
	return result, nil
}

// leadMessage never fails: summary errors degrade to a placeholder.
func (s *Service) leadMessage(ctx context.Context, logger *logging.Logger, key, message string) string {
	if s.summarizer == nil {
		return message
	}
	window, err := s.memory.Window(ctx, key)
	if err != nil || len(window) == 0 {
		window = []Turn{{Role: ChatRoleUser, Text: message}}
	}
	summary, err := s.summarizer.Summarize(ctx, window)
	if err != nil {
		s.metrics.ObserveSummary("fallback")
		logger.Warn("lead summary failed, using placeholder", "error", err)
	} else {
		s.metrics.ObserveSummary("ok")
	}
	if strings.TrimSpace(summary) == "" {
		return FallbackLeadMessage
	}
	return summary
}
