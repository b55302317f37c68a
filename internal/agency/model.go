package agency

import (
	"strings"
	"time"
)

const (
	StatusActive    = "active"
	StatusSuspended = "suspended"

	PlanTrial = "trial"

	// DefaultAssistantName is shown in the widget when the agency did not pick one.
	DefaultAssistantName = "Assistant"

	MinPasswordLength = 8
)

// Agency is a tenant: a sales business that embeds the chat widget.
type Agency struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Prompt        string    `json:"prompt"`
	AssistantName string    `json:"assistant_name"`
	OwnerName     string    `json:"owner_name,omitempty"`
	OwnerEmail    string    `json:"owner_email,omitempty"`
	OwnerPhone    string    `json:"owner_phone,omitempty"`
	PasswordHash  string    `json:"-"`
	Plan          string    `json:"plan"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

// ValidStatus reports whether status is one the platform assigns.
func ValidStatus(status string) bool {
	return status == StatusActive || status == StatusSuspended
}

// Active reports whether the agency may serve chat traffic.
func (a *Agency) Active() bool {
	return a != nil && a.Status != StatusSuspended
}

// Public is the subset of agency data the widget may read.
func (a *Agency) Public() PublicInfo {
	name := strings.TrimSpace(a.AssistantName)
	if name == "" {
		name = DefaultAssistantName
	}
	return PublicInfo{ID: a.ID, Name: a.Name, AssistantName: name}
}

// PublicInfo is returned by the unauthenticated agency lookup.
type PublicInfo struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	AssistantName string `json:"assistant"`
}

// RegisterRequest is the body of the agency registration endpoint.
type RegisterRequest struct {
	Name          string `json:"name"`
	Prompt        string `json:"prompt"`
	AssistantName string `json:"assistant_name"`
	OwnerName     string `json:"owner_name"`
	OwnerEmail    string `json:"owner_email"`
	OwnerPhone    string `json:"owner_phone"`
	Password      string `json:"password"`
}

// Normalize trims user input in place.
func (r *RegisterRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Prompt = strings.TrimSpace(r.Prompt)
	r.AssistantName = strings.TrimSpace(r.AssistantName)
	r.OwnerName = strings.TrimSpace(r.OwnerName)
	r.OwnerEmail = strings.ToLower(strings.TrimSpace(r.OwnerEmail))
	r.OwnerPhone = strings.TrimSpace(r.OwnerPhone)
}

// Validate checks the required registration fields.
func (r *RegisterRequest) Validate() error {
	if r.Name == "" {
		return ErrMissingName
	}
	if r.Prompt == "" {
		return ErrMissingPrompt
	}
	if r.Password != "" && len(r.Password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	return nil
}
