package agency

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/Luxury-Leads-AI/Luxury-Leads-AI/pkg/logging"
)

// Service implements registration, lookup, login and deletion of agencies.
type Service struct {
	repo     Repository
	tokens   *TokenIssuer
	logger   *logging.Logger
	hashCost int
}

// NewService wires the agency service. tokens may be nil to disable login.
func NewService(repo Repository, tokens *TokenIssuer, logger *logging.Logger) *Service {
	if repo == nil {
		panic("agency: repository required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{repo: repo, tokens: tokens, logger: logger, hashCost: bcrypt.DefaultCost}
}

// Register validates the request and stores a new active agency.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*Agency, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	a := &Agency{
		ID:            uuid.New().String(),
		Name:          req.Name,
		Prompt:        req.Prompt,
		AssistantName: req.AssistantName,
		OwnerName:     req.OwnerName,
		OwnerEmail:    req.OwnerEmail,
		OwnerPhone:    req.OwnerPhone,
		Plan:          PlanTrial,
		Status:        StatusActive,
	}
	if a.AssistantName == "" {
		a.AssistantName = DefaultAssistantName
	}
	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.hashCost)
		if err != nil {
			return nil, fmt.Errorf("agency: hash password: %w", err)
		}
		a.PasswordHash = string(hash)
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}
	s.logger.Info("agency registered", "agency_id", a.ID, "name", a.Name)
	return a, nil
}

// Get returns the agency regardless of status.
func (s *Service) Get(ctx context.Context, id string) (*Agency, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrNotFound
	}
	return s.repo.Get(ctx, id)
}

// LookupActive returns the agency when it may serve chat traffic.
func (s *Service) LookupActive(ctx context.Context, id string) (*Agency, error) {
	a, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !a.Active() {
		return nil, ErrSuspended
	}
	return a, nil
}

// LoginResult carries a signed owner token.
type LoginResult struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expires_at"`
	AgencyID  string `json:"agency_id"`
}

// Login checks owner credentials and issues a token scoped to the agency.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if s.tokens == nil {
		return nil, errors.New("agency: owner login disabled")
	}
	a, err := s.repo.GetByOwnerEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if a.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	token, expires, err := s.tokens.Issue(a.ID)
	if err != nil {
		return nil, fmt.Errorf("agency: issue token: %w", err)
	}
	return &LoginResult{Token: token, ExpiresAt: expires.Unix(), AgencyID: a.ID}, nil
}

// SetStatus activates or suspends an agency.
func (s *Service) SetStatus(ctx context.Context, id, status string) error {
	status = strings.ToLower(strings.TrimSpace(status))
	if !ValidStatus(status) {
		return ErrInvalidStatus
	}
	if err := s.repo.UpdateStatus(ctx, strings.TrimSpace(id), status); err != nil {
		return err
	}
	s.logger.Info("agency status changed", "agency_id", id, "status", status)
	return nil
}

// Delete removes the agency and cascades to its leads.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("agency deleted", "agency_id", id)
	return nil
}
