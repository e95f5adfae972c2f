package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// Store-level failures form a closed set so callers can tell "this request
// failed" apart from the per-record rejection taxonomy, which never surfaces
// as an error. Match with eris.Is.
var (
	// ErrNotFound is returned by Get and Transition for an unknown lead id.
	ErrNotFound = eris.New("lead not found")
	// ErrInvalidStatus is returned by Transition for a status outside the
	// closed enumeration.
	ErrInvalidStatus = eris.New("invalid status")
)

// LeadFilter specifies criteria for listing leads.
type LeadFilter struct {
	Status model.Status `json:"status,omitempty"`
}

// Store is the authoritative, concurrency-safe collection of leads. All
// mutations are atomic with respect to each other; reads observe a consistent
// snapshot and never a partially merged lead.
type Store interface {
	// Upsert inserts a new lead for an unseen dedupe key, or merges the
	// candidate into the existing lead for that key. Merges fill or overwrite
	// every non-empty field except status, which only Transition may change.
	Upsert(ctx context.Context, candidate model.CandidateLead, dedupeKey string) (*model.Lead, error)

	// Get returns the lead with the given id, or ErrNotFound.
	Get(ctx context.Context, id string) (*model.Lead, error)

	// List returns leads in insertion order, optionally filtered by status.
	List(ctx context.Context, filter LeadFilter) ([]model.Lead, error)

	// Transition sets a lead's status. Any valid status is reachable from any
	// other; the only guards are ErrNotFound and ErrInvalidStatus.
	Transition(ctx context.Context, id string, status model.Status) (*model.Lead, error)

	// Count returns the number of leads held.
	Count(ctx context.Context) (int, error)

	Close() error
}
