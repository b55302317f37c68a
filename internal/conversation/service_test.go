package conversation

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Luxury-Leads-AI/Luxury-Leads-AI/internal/agency"
	"github.com/Luxury-Leads-AI/Luxury-Leads-AI/internal/leads"
	"github.com/Luxury-Leads-AI/Luxury-Leads-AI/pkg/logging"
)

const testAgencyID = "6f1c2d9a-4b7e-4c1a-9d2e-3f5a6b7c8d9e"

// scriptedLLM answers chat turns and summary requests separately and records
// every request it sees.
type scriptedLLM struct {
	mu       sync.Mutex
	chat     []LLMRequest
	summary  []LLMRequest
	replyErr error
	sumErr   error
	reply    string
	sumText  string
}

func (s *scriptedLLM) Complete(ctx context.Context, req LLMRequest) (LLMResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(req.System) == 1 && req.System[0] == summaryInstruction {
		s.summary = append(s.summary, req)
		if s.sumErr != nil {
			return LLMResponse{}, s.sumErr
		}
		return LLMResponse{Text: s.sumText}, nil
	}
	s.chat = append(s.chat, req)
	if s.replyErr != nil {
		return LLMResponse{}, s.replyErr
	}
	reply := s.reply
	if reply == "" {
		reply = "Happy to help. Which neighbourhood do you prefer?"
	}
	return LLMResponse{Text: reply}, nil
}

func (s *scriptedLLM) chatCalls() []LLMRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]LLMRequest(nil), s.chat...)
}

type recordingNotifier struct {
	mu    sync.Mutex
	leads []*leads.Lead
}

func (n *recordingNotifier) Dispatch(a *agency.Agency, lead *leads.Lead) {
	n.mu.Lock()
	n.leads = append(n.leads, lead)
	n.mu.Unlock()
}

type serviceFixture struct {
	svc      *Service
	llm      *scriptedLLM
	memory   *LocalMemory
	leads    *leads.InMemoryRepository
	agencies *agency.InMemoryRepository
	notifier *recordingNotifier
}

func newServiceFixture(t *testing.T, summarize bool) *serviceFixture {
	t.Helper()
	agencies := agency.NewInMemoryRepository(nil)
	require.NoError(t, agencies.Create(context.Background(), &agency.Agency{
		ID:     testAgencyID,
		Name:   "Marina Luxury Homes",
		Prompt: "We sell waterfront apartments in Dubai Marina.",
		Status: agency.StatusActive,
	}))
	leadRepo := leads.NewInMemoryRepository(agencies)
	agencies.SetLeadPurger(leadRepo)

	llm := &scriptedLLM{sumText: "Sarah wants a Dubai Marina apartment with a 2 million budget."}
	memory := NewLocalMemory(LocalMemoryConfig{MaxTurns: 50})
	notifier := &recordingNotifier{}
	opts := []ServiceOption{WithNotifier(notifier), WithWindow(10, 6)}
	if summarize {
		opts = append(opts, WithSummarizer(NewSummarizer(llm)))
	}
	svc := NewService(agency.NewService(agencies, nil, logging.Discard()), memory, llm, leadRepo, logging.Discard(), opts...)
	return &serviceFixture{svc: svc, llm: llm, memory: memory, leads: leadRepo, agencies: agencies, notifier: notifier}
}

func (f *serviceFixture) storedLeads(t *testing.T) []*leads.Lead {
	t.Helper()
	out, err := f.leads.ListByAgency(context.Background(), testAgencyID, leads.ListFilter{})
	require.NoError(t, err)
	return out
}

func TestHandleTurnCapturesLeadFromFields(t *testing.T) {
	f := newServiceFixture(t, true)

	res, err := f.svc.HandleTurn(context.Background(), TurnRequest{
		AgencyID: testAgencyID,
		Message:  "Hi, I'm Sarah, my budget is 2 million for a place in Dubai Marina",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Reply)
	require.NotNil(t, res.Lead)
	assert.Equal(t, "Sarah", res.Lead.Name)
	assert.Equal(t, "2 million", res.Lead.Budget)
	assert.Equal(t, leads.TriggerFields, res.Lead.Trigger)
	assert.Equal(t, "Sarah wants a Dubai Marina apartment with a 2 million budget.", res.Lead.Message)

	stored := f.storedLeads(t)
	require.Len(t, stored, 1)
	assert.Equal(t, res.Lead.ID, stored[0].ID)
	require.Len(t, f.notifier.leads, 1)
	assert.Equal(t, res.Lead.ID, f.notifier.leads[0].ID)

	calls := f.llm.chatCalls()
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].System[0], "Marina Luxury Homes")
	assert.Contains(t, calls[0].System, "We sell waterfront apartments in Dubai Marina.")
	require.Len(t, calls[0].Messages, 1)
	assert.Equal(t, ChatRoleUser, calls[0].Messages[0].Role)
}

func TestHandleTurnBelowThresholdCreatesNoLead(t *testing.T) {
	f := newServiceFixture(t, true)
	ctx := context.Background()

	for _, msg := range []string{"hello there", "what do you have near the beach?"} {
		res, err := f.svc.HandleTurn(ctx, TurnRequest{AgencyID: testAgencyID, Message: msg})
		require.NoError(t, err)
		assert.Nil(t, res.Lead)
	}
	assert.Empty(t, f.storedLeads(t))
	assert.Empty(t, f.notifier.leads)
}

func TestHandleTurnQualifiesOnEngagement(t *testing.T) {
	f := newServiceFixture(t, false)
	ctx := context.Background()

	messages := []string{"hello there", "what do you have near the beach?", "do the villas have pools?"}
	var last *TurnResult
	for _, msg := range messages {
		res, err := f.svc.HandleTurn(ctx, TurnRequest{AgencyID: testAgencyID, SessionID: "visitor-1", Message: msg})
		require.NoError(t, err)
		last = res
	}

	require.NotNil(t, last.Lead)
	assert.Equal(t, leads.TriggerEngagement, last.Lead.Trigger)
	assert.Equal(t, "do the villas have pools?", last.Lead.Message)
	assert.Empty(t, last.Lead.Name)
	assert.Len(t, f.storedLeads(t), 1)
}

func TestHandleTurnCompletionFailureKeepsVisitorTurn(t *testing.T) {
	f := newServiceFixture(t, true)
	f.llm.replyErr = errors.New("provider unavailable")
	ctx := context.Background()

	res, err := f.svc.HandleTurn(ctx, TurnRequest{AgencyID: testAgencyID, Message: "I'm Sarah, budget 2 million"})
	require.Error(t, err)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrCompletionFailed)

	assert.Empty(t, f.storedLeads(t))
	assert.Empty(t, f.notifier.leads)

	window, err := f.memory.Window(ctx, ConversationKey(testAgencyID, ""))
	require.NoError(t, err)
	require.Len(t, window, 1)
	assert.Equal(t, ChatRoleUser, window[0].Role)
	assert.Equal(t, "I'm Sarah, budget 2 million", window[0].Text)
}

func TestHandleTurnEmptyReplyIsCompletionFailure(t *testing.T) {
	f := newServiceFixture(t, false)
	f.llm.reply = "   "

	_, err := f.svc.HandleTurn(context.Background(), TurnRequest{AgencyID: testAgencyID, Message: "hello"})
	assert.ErrorIs(t, err, ErrCompletionFailed)
	assert.ErrorIs(t, err, ErrEmptyCompletion)
}

func TestHandleTurnSummaryFailureUsesPlaceholder(t *testing.T) {
	f := newServiceFixture(t, true)
	f.llm.sumErr = errors.New("summary timeout")

	res, err := f.svc.HandleTurn(context.Background(), TurnRequest{AgencyID: testAgencyID, Message: "email me at sarah@example.com"})
	require.NoError(t, err)
	require.NotNil(t, res.Lead)
	assert.Equal(t, "sarah@example.com", res.Lead.Email)
	assert.Equal(t, SummaryUnavailable, res.Lead.Message)
}

func TestHandleTurnWithoutSummarizerStoresRawMessage(t *testing.T) {
	f := newServiceFixture(t, false)

	res, err := f.svc.HandleTurn(context.Background(), TurnRequest{AgencyID: testAgencyID, Message: "call me on +971 50 123 4567"})
	require.NoError(t, err)
	require.NotNil(t, res.Lead)
	assert.Equal(t, "+971 50 123 4567", res.Lead.Phone)
	assert.Equal(t, "call me on +971 50 123 4567", res.Lead.Message)
	assert.Empty(t, f.llm.summary)
}

func TestHandleTurnSendsBoundedWindow(t *testing.T) {
	f := newServiceFixture(t, false)
	ctx := context.Background()
	f.svc.minTurns = 1000

	for i := 0; i < 7; i++ {
		_, err := f.svc.HandleTurn(ctx, TurnRequest{AgencyID: testAgencyID, Message: "tell me more please"})
		require.NoError(t, err)
	}

	calls := f.llm.chatCalls()
	require.Len(t, calls, 7)
	lastCall := calls[6]
	require.Len(t, lastCall.Messages, 10)
	assert.Equal(t, ChatRoleAssistant, lastCall.Messages[0].Role)
	assert.Equal(t, ChatRoleUser, lastCall.Messages[9].Role)
	assert.Equal(t, float32(defaultTemperature), lastCall.Temperature)
	assert.Equal(t, int32(defaultMaxTokens), lastCall.MaxTokens)
}

func TestHandleTurnConcurrentSubmissionsAreSerialized(t *testing.T) {
	f := newServiceFixture(t, false)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.HandleTurn(ctx, TurnRequest{AgencyID: testAgencyID, SessionID: "s1", Message: "reach me at sarah@example.com"})
		}(i)
	}
	wg.Wait()
	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	window, err := f.memory.Window(ctx, ConversationKey(testAgencyID, "s1"))
	require.NoError(t, err)
	require.Len(t, window, 4)
	for i, turn := range window {
		want := ChatRoleUser
		if i%2 == 1 {
			want = ChatRoleAssistant
		}
		assert.Equal(t, want, turn.Role, "turn %d", i)
	}
	assert.Len(t, f.storedLeads(t), 2)
	assert.Equal(t, 0, f.svc.locks.size())
}

func TestHandleTurnSessionsAreIsolated(t *testing.T) {
	f := newServiceFixture(t, false)
	ctx := context.Background()

	_, err := f.svc.HandleTurn(ctx, TurnRequest{AgencyID: testAgencyID, SessionID: "a", Message: "hello"})
	require.NoError(t, err)
	_, err = f.svc.HandleTurn(ctx, TurnRequest{AgencyID: testAgencyID, SessionID: "b", Message: "hello"})
	require.NoError(t, err)

	calls := f.llm.chatCalls()
	require.Len(t, calls, 2)
	assert.Len(t, calls[1].Messages, 1)
}

func TestHandleTurnRejectsBadRequests(t *testing.T) {
	f := newServiceFixture(t, false)
	ctx := context.Background()

	_, err := f.svc.HandleTurn(ctx, TurnRequest{AgencyID: testAgencyID, Message: "   "})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = f.svc.HandleTurn(ctx, TurnRequest{Message: "hello"})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = f.svc.HandleTurn(ctx, TurnRequest{AgencyID: testAgencyID, Message: strings.Repeat("a", MaxMessageRunes+1)})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = f.svc.HandleTurn(ctx, TurnRequest{AgencyID: "missing", Message: "hello"})
	assert.ErrorIs(t, err, agency.ErrNotFound)

	assert.Empty(t, f.llm.chatCalls())
}

func TestHandleTurnRejectsSuspendedAgency(t *testing.T) {
	f := newServiceFixture(t, false)
	ctx := context.Background()
	require.NoError(t, f.agencies.Create(ctx, &agency.Agency{ID: "suspended-1", Name: "Closed", Status: agency.StatusSuspended}))

	_, err := f.svc.HandleTurn(ctx, TurnRequest{AgencyID: "suspended-1", Message: "hello"})
	assert.ErrorIs(t, err, agency.ErrSuspended)
}

type failingLeadStore struct{}

func (failingLeadStore) Create(ctx context.Context, req *leads.CreateLeadRequest) (*leads.Lead, error) {
	return nil, errors.New("disk full")
}

func TestHandleTurnLeadPersistenceFailure(t *testing.T) {
	agencies := agency.NewInMemoryRepository(nil)
	require.NoError(t, agencies.Create(context.Background(), &agency.Agency{ID: testAgencyID, Name: "Marina", Status: agency.StatusActive}))
	notifier := &recordingNotifier{}
	svc := NewService(agency.NewService(agencies, nil, logging.Discard()), NewLocalMemory(LocalMemoryConfig{}), &scriptedLLM{}, failingLeadStore{}, logging.Discard(), WithNotifier(notifier))

	_, err := svc.HandleTurn(context.Background(), TurnRequest{AgencyID: testAgencyID, Message: "I'm Sarah"})
	assert.ErrorIs(t, err, ErrLeadPersistence)
	assert.Empty(t, notifier.leads)
}

func TestNewServicePanicsWithoutDependencies(t *testing.T) {
	assert.Panics(t, func() {
		NewService(nil, NewLocalMemory(LocalMemoryConfig{}), &scriptedLLM{}, failingLeadStore{}, nil)
	})
}
