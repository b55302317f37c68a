package bootstrap

import (
	"context"

	"github.com/Luxury-Leads-AI/Luxury-Leads-AI/internal/agency"
)

type fakeLookup struct{}

func (fakeLookup) LookupActive(_ context.Context, id string) (*agency.Agency, error) {
	return &agency.Agency{ID: id, Name: "Palm Estates", Status: agency.StatusActive}, nil
}
