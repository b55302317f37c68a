package leads

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for lead storage
type Repository interface {
	Create(ctx context.Context, req *CreateLeadRequest) (*Lead, error)
	ListByAgency(ctx context.Context, agencyID string, filter ListFilter) ([]*Lead, error)
	CountByAgency(ctx context.Context, agencyID string) (int, error)
	DeleteByAgency(ctx context.Context, agencyID string) (int64, error)
}

// AgencyChecker reports whether an agency exists.
type AgencyChecker interface {
	Exists(ctx context.Context, id string) (bool, error)
}

// InMemoryRepository keeps leads in process memory.
type InMemoryRepository struct {
	mu       sync.RWMutex
	leads    map[string][]*Lead
	agencies AgencyChecker
	now      func() time.Time
}

// NewInMemoryRepository creates a repository that checks agency existence on
// every insert.
func NewInMemoryRepository(agencies AgencyChecker) *InMemoryRepository {
	if agencies == nil {
		panic("leads: agency checker required")
	}
	return &InMemoryRepository{
		leads:    make(map[string][]*Lead),
		agencies: agencies,
		now:      time.Now,
	}
}

// Create stores a lead. The existence check runs under the write lock so a
// concurrent agency purge cannot interleave with the insert.
func (r *InMemoryRepository) Create(ctx context.Context, req *CreateLeadRequest) (*Lead, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	ok, err := r.agencies.Exists(ctx, req.AgencyID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrUnknownAgency
	}

	lead := req.toLead(uuid.New().String(), r.now().UTC())
	r.leads[req.AgencyID] = append(r.leads[req.AgencyID], lead)
	cp := *lead
	return &cp, nil
}

// ListByAgency returns leads newest first.
func (r *InMemoryRepository) ListByAgency(ctx context.Context, agencyID string, filter ListFilter) ([]*Lead, error) {
	r.mu.RLock()
	stored := r.leads[agencyID]
	out := make([]*Lead, 0, len(stored))
	for i := len(stored) - 1; i >= 0; i-- {
		cp := *stored[i]
		out = append(out, &cp)
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return page(out, filter), nil
}

func (r *InMemoryRepository) CountByAgency(ctx context.Context, agencyID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.leads[agencyID]), nil
}

func (r *InMemoryRepository) DeleteByAgency(ctx context.Context, agencyID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := int64(len(r.leads[agencyID]))
	delete(r.leads, agencyID)
	return n, nil
}

func page(all []*Lead, filter ListFilter) []*Lead {
	if filter.Offset > 0 {
		if filter.Offset >= len(all) {
			return []*Lead{}
		}
		all = all[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(all) {
		all = all[:filter.Limit]
	}
	return all
}
