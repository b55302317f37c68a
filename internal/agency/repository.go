package agency

import (
	"context"
	"strings"
	"sync"
)

// Repository persists agencies.
type Repository interface {
	Create(ctx context.Context, a *Agency) error
	Get(ctx context.Context, id string) (*Agency, error)
	GetByOwnerEmail(ctx context.Context, email string) (*Agency, error)
	Exists(ctx context.Context, id string) (bool, error)
	UpdateStatus(ctx context.Context, id, status string) error
	// Delete removes the agency together with every lead that references it.
	Delete(ctx context.Context, id string) error
}

// LeadPurger removes the leads owned by an agency.
type LeadPurger interface {
	DeleteByAgency(ctx context.Context, agencyID string) (int64, error)
}

// InMemoryRepository keeps agencies in process memory.
type InMemoryRepository struct {
	mu       sync.RWMutex
	agencies map[string]*Agency
	purger   LeadPurger
}

// NewInMemoryRepository creates an empty repository. purger may be nil when no
// lead store exists.
func NewInMemoryRepository(purger LeadPurger) *InMemoryRepository {
	return &InMemoryRepository{
		agencies: make(map[string]*Agency),
		purger:   purger,
	}
}

// SetLeadPurger wires the lead store after construction.
func (r *InMemoryRepository) SetLeadPurger(purger LeadPurger) {
	r.mu.Lock()
	r.purger = purger
	r.mu.Unlock()
}

func (r *InMemoryRepository) Create(ctx context.Context, a *Agency) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a.OwnerEmail != "" {
		for _, existing := range r.agencies {
			if strings.EqualFold(existing.OwnerEmail, a.OwnerEmail) {
				return ErrOwnerEmailTaken
			}
		}
	}
	cp := *a
	r.agencies[a.ID] = &cp
	return nil
}

func (r *InMemoryRepository) Get(ctx context.Context, id string) (*Agency, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.agencies[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *InMemoryRepository) GetByOwnerEmail(ctx context.Context, email string) (*Agency, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, ErrNotFound
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, a := range r.agencies {
		if strings.EqualFold(a.OwnerEmail, email) {
			cp := *a
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (r *InMemoryRepository) Exists(ctx context.Context, id string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.agencies[id]
	return ok, nil
}

func (r *InMemoryRepository) UpdateStatus(ctx context.Context, id, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.agencies[id]
	if !ok {
		return ErrNotFound
	}
	a.Status = status
	return nil
}

// Delete drops the agency first so concurrent lead inserts fail the existence
// check, then purges the leads already stored.
func (r *InMemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	if _, ok := r.agencies[id]; !ok {
		r.mu.Unlock()
		return ErrNotFound
	}
	delete(r.agencies, id)
	purger := r.purger
	r.mu.Unlock()

	if purger == nil {
		return nil
	}
	_, err := purger.DeleteByAgency(ctx, id)
	return err
}
