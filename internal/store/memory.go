package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// MemoryStore implements Store with a single mutex guarding all state. One
// serialization point keeps upserts and transitions on the same lead from
// interleaving; per-key locking is not worth it at expected lead volumes.
type MemoryStore struct {
	mu    sync.Mutex
	byKey map[string]*model.Lead
	byID  map[string]*model.Lead
	order []*model.Lead // insertion order, never reordered
}

// NewMemory creates an empty in-memory lead store.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		byKey: make(map[string]*model.Lead),
		byID:  make(map[string]*model.Lead),
	}
}

func (s *MemoryStore) Upsert(ctx context.Context, candidate model.CandidateLead, dedupeKey string) (*model.Lead, error) {
	if dedupeKey == "" {
		return nil, eris.New("store: empty dedupe key")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()

	if existing, ok := s.byKey[dedupeKey]; ok {
		merge(existing, candidate)
		existing.UpdatedAt = now
		return cloneLead(existing), nil
	}

	lead := &model.Lead{
		ID:              uuid.New().String(),
		Name:            candidate.Name,
		Email:           candidate.Email,
		Phone:           candidate.Phone,
		PropertyAddress: candidate.PropertyAddress,
		Source:          candidate.Source,
		Status:          model.StatusNew,
		DedupeKey:       dedupeKey,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if candidate.PriceNumeric != nil {
		price := *candidate.PriceNumeric
		lead.PriceNumeric = &price
	}

	s.byKey[dedupeKey] = lead
	s.byID[lead.ID] = lead
	s.order = append(s.order, lead)
	return cloneLead(lead), nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*model.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lead, ok := s.byID[id]
	if !ok {
		return nil, eris.Wrapf(ErrNotFound, "store: get %s", id)
	}
	return cloneLead(lead), nil
}

func (s *MemoryStore) List(ctx context.Context, filter LeadFilter) ([]model.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	leads := make([]model.Lead, 0, len(s.order))
	for _, lead := range s.order {
		if filter.Status != "" && lead.Status != filter.Status {
			continue
		}
		leads = append(leads, *cloneLead(lead))
	}
	return leads, nil
}

func (s *MemoryStore) Transition(ctx context.Context, id string, status model.Status) (*model.Lead, error) {
	if _, ok := model.ParseStatus(string(status)); !ok {
		return nil, eris.Wrapf(ErrInvalidStatus, "store: transition to %q", status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	lead, ok := s.byID[id]
	if !ok {
		return nil, eris.Wrapf(ErrNotFound, "store: transition %s", id)
	}

	lead.Status = status
	lead.UpdatedAt = time.Now().UTC()
	return cloneLead(lead), nil
}

func (s *MemoryStore) Count(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order), nil
}

func (s *MemoryStore) Close() error {
	return nil
}

// merge applies the fill-in policy: every non-empty candidate field overwrites
// the stored lead except status, so a re-scraped lead never regresses pipeline
// progress.
func merge(lead *model.Lead, candidate model.CandidateLead) {
	if candidate.Name != "" {
		lead.Name = candidate.Name
	}
	if candidate.Email != "" {
		lead.Email = candidate.Email
	}
	if candidate.Phone != "" {
		lead.Phone = candidate.Phone
	}
	if candidate.PropertyAddress != "" {
		lead.PropertyAddress = candidate.PropertyAddress
	}
	if candidate.Source != "" {
		lead.Source = candidate.Source
	}
	if candidate.PriceNumeric != nil {
		price := *candidate.PriceNumeric
		lead.PriceNumeric = &price
	}
}

// cloneLead deep-copies a lead so callers can never alias store-owned state.
func cloneLead(l *model.Lead) *model.Lead {
	cp := *l
	if l.PriceNumeric != nil {
		price := *l.PriceNumeric
		cp.PriceNumeric = &price
	}
	return &cp
}
