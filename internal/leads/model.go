package leads

import (
	"strings"
	"time"
)

// Trigger records why a conversation turn produced a lead.
const (
	TriggerFields     = "fields"
	TriggerEngagement = "engagement"
)

// Lead is a detected sales prospect attributed to one agency.
type Lead struct {
	ID        string    `json:"id"`
	AgencyID  string    `json:"agency_id"`
	Name      string    `json:"name,omitempty"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Budget    string    `json:"budget,omitempty"`
	Message   string    `json:"message"`
	Trigger   string    `json:"trigger"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateLeadRequest carries the fields of a lead to persist.
type CreateLeadRequest struct {
	AgencyID string
	Name     string
	Email    string
	Phone    string
	Budget   string
	Message  string
	Trigger  string
}

// Validate validates the create lead request
func (r *CreateLeadRequest) Validate() error {
	if strings.TrimSpace(r.AgencyID) == "" {
		return ErrMissingAgencyID
	}
	if r.Name == "" && r.Email == "" && r.Phone == "" && r.Budget == "" && strings.TrimSpace(r.Message) == "" {
		return ErrEmptyLead
	}
	return nil
}

func (r *CreateLeadRequest) toLead(id string, createdAt time.Time) *Lead {
	trigger := r.Trigger
	if trigger == "" {
		trigger = TriggerFields
	}
	return &Lead{
		ID:        id,
		AgencyID:  r.AgencyID,
		Name:      r.Name,
		Email:     r.Email,
		Phone:     r.Phone,
		Budget:    r.Budget,
		Message:   r.Message,
		Trigger:   trigger,
		CreatedAt: createdAt,
	}
}

// ListFilter pages through an agency's leads. Limit zero means no limit.
type ListFilter struct {
	Limit  int
	Offset int
}
