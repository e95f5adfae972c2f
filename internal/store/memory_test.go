package store

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadgen-cli/internal/model"
)

func newTestStore(t *testing.T) *MemoryStore {
	t.Helper()
	s := NewMemory()
	t.Cleanup(func() { s.Close() })
	return s
}

func price(v float64) *float64 { return &v }

func TestUpsert_Insert(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	lead, err := s.Upsert(ctx, model.CandidateLead{
		Name:         "Jane Seller",
		Email:        "jane@x.com",
		PriceNumeric: price(450000),
	}, "email:jane@x.com")
	require.NoError(t, err)

	assert.NotEmpty(t, lead.ID)
	assert.Equal(t, model.StatusNew, lead.Status)
	assert.Equal(t, "email:jane@x.com", lead.DedupeKey)
	assert.Equal(t, lead.CreatedAt, lead.UpdatedAt)
	require.NotNil(t, lead.PriceNumeric)
	assert.Equal(t, 450000.0, *lead.PriceNumeric)

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestUpsert_MergeFillsAndOverwrites(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, err := s.Upsert(ctx, model.CandidateLead{
		Name:  "A",
		Email: "a@x.com",
	}, "email:a@x.com")
	require.NoError(t, err)

	merged, err := s.Upsert(ctx, model.CandidateLead{
		Name:         "A2",
		Email:        "a@x.com",
		Phone:        "5551212",
		PriceNumeric: price(300000),
	}, "email:a@x.com")
	require.NoError(t, err)

	assert.Equal(t, first.ID, merged.ID)
	assert.Equal(t, first.CreatedAt, merged.CreatedAt)
	assert.Equal(t, "A2", merged.Name)
	assert.Equal(t, "5551212", merged.Phone)
	require.NotNil(t, merged.PriceNumeric)
	assert.Equal(t, 300000.0, *merged.PriceNumeric)

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestUpsert_MergeKeepsExistingFieldsWhenIncomingEmpty(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Upsert(ctx, model.CandidateLead{
		Name:         "A",
		Email:        "a@x.com",
		Phone:        "5551212",
		PriceNumeric: price(100),
	}, "email:a@x.com")
	require.NoError(t, err)

	merged, err := s.Upsert(ctx, model.CandidateLead{
		Email: "a@x.com",
	}, "email:a@x.com")
	require.NoError(t, err)

	assert.Equal(t, "A", merged.Name)
	assert.Equal(t, "5551212", merged.Phone)
	require.NotNil(t, merged.PriceNumeric)
	assert.Equal(t, 100.0, *merged.PriceNumeric)
}

func TestUpsert_MergeNeverTouchesStatus(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	lead, err := s.Upsert(ctx, model.CandidateLead{Name: "A", Email: "a@x.com"}, "email:a@x.com")
	require.NoError(t, err)

	_, err = s.Transition(ctx, lead.ID, model.StatusContacted)
	require.NoError(t, err)

	merged, err := s.Upsert(ctx, model.CandidateLead{Name: "A2", Email: "a@x.com"}, "email:a@x.com")
	require.NoError(t, err)
	assert.Equal(t, model.StatusContacted, merged.Status)
}

func TestUpsert_EmptyKey(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Upsert(context.Background(), model.CandidateLead{Name: "A"}, "")
	require.Error(t, err)
}

func TestGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	lead, err := s.Upsert(ctx, model.CandidateLead{Name: "A", Email: "a@x.com"}, "email:a@x.com")
	require.NoError(t, err)

	got, err := s.Get(ctx, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, lead.ID, got.ID)

	_, err = s.Get(ctx, "nope")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTransition(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	lead, err := s.Upsert(ctx, model.CandidateLead{Name: "A", Email: "a@x.com"}, "email:a@x.com")
	require.NoError(t, err)

	t.Run("AnyStatusReachable", func(t *testing.T) {
		// NEW straight to CLOSED, then back: the graph is permissive.
		got, err := s.Transition(ctx, lead.ID, model.StatusClosed)
		require.NoError(t, err)
		assert.Equal(t, model.StatusClosed, got.Status)

		got, err = s.Transition(ctx, lead.ID, model.StatusNew)
		require.NoError(t, err)
		assert.Equal(t, model.StatusNew, got.Status)
	})

	t.Run("NotFoundLeavesStoreUnchanged", func(t *testing.T) {
		before, err := s.List(ctx, LeadFilter{})
		require.NoError(t, err)

		_, err = s.Transition(ctx, "L99", model.StatusContacted)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrNotFound)

		after, err := s.List(ctx, LeadFilter{})
		require.NoError(t, err)
		assert.Equal(t, before, after)
	})

	t.Run("InvalidStatus", func(t *testing.T) {
		_, err := s.Transition(ctx, lead.ID, model.Status("ARCHIVED"))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidStatus)

		got, err := s.Get(ctx, lead.ID)
		require.NoError(t, err)
		assert.Equal(t, model.StatusNew, got.Status)
	})
}

func TestList(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i, key := range []string{"email:a@x.com", "email:b@x.com", "email:c@x.com"} {
		_, err := s.Upsert(ctx, model.CandidateLead{
			Name:  fmt.Sprintf("Lead %d", i),
			Email: key[len("email:"):],
		}, key)
		require.NoError(t, err)
	}

	leads, err := s.List(ctx, LeadFilter{})
	require.NoError(t, err)
	require.Len(t, leads, 3)

	// Insertion order is stable.
	assert.Equal(t, "Lead 0", leads[0].Name)
	assert.Equal(t, "Lead 1", leads[1].Name)
	assert.Equal(t, "Lead 2", leads[2].Name)

	_, err = s.Transition(ctx, leads[1].ID, model.StatusFollowUp)
	require.NoError(t, err)

	followUps, err := s.List(ctx, LeadFilter{Status: model.StatusFollowUp})
	require.NoError(t, err)
	require.Len(t, followUps, 1)
	assert.Equal(t, "Lead 1", followUps[0].Name)
}

func TestList_ReturnsCopies(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Upsert(ctx, model.CandidateLead{
		Name:         "A",
		Email:        "a@x.com",
		PriceNumeric: price(100),
	}, "email:a@x.com")
	require.NoError(t, err)

	leads, err := s.List(ctx, LeadFilter{})
	require.NoError(t, err)
	leads[0].Name = "mutated"
	*leads[0].PriceNumeric = -1

	fresh, err := s.List(ctx, LeadFilter{})
	require.NoError(t, err)
	assert.Equal(t, "A", fresh[0].Name)
	assert.Equal(t, 100.0, *fresh[0].PriceNumeric)
}

func TestUpsert_ConcurrentSameKey(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	const workers = 32

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.Upsert(ctx, model.CandidateLead{
				Name:  "Shared",
				Email: "shared@x.com",
				Phone: fmt.Sprintf("312555%04d", i),
			}, "email:shared@x.com")
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
