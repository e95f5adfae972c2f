package model

import "time"

// Status represents a lead's position in the pipeline.
type Status string

const (
	StatusNew       Status = "NEW"
	StatusContacted Status = "CONTACTED"
	StatusFollowUp  Status = "FOLLOW_UP"
	StatusClosed    Status = "CLOSED"
)

// Statuses lists every valid status in lifecycle order.
var Statuses = []Status{StatusNew, StatusContacted, StatusFollowUp, StatusClosed}

// ParseStatus validates a raw status string against the closed set.
func ParseStatus(s string) (Status, bool) {
	for _, st := range Statuses {
		if Status(s) == st {
			return st, true
		}
	}
	return "", false
}

// Lead is a tracked prospective client. Leads are owned exclusively by the
// pipeline store; everything handed out to callers is a copy.
type Lead struct {
	ID              string    `json:"id"`
	Name            string    `json:"name,omitempty"`
	Email           string    `json:"email,omitempty"`
	Phone           string    `json:"phone,omitempty"`
	PropertyAddress string    `json:"property_address,omitempty"`
	PriceNumeric    *float64  `json:"price_numeric,omitempty"`
	Source          string    `json:"source,omitempty"`
	Status          Status    `json:"status"`
	DedupeKey       string    `json:"dedupe_key"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// RawRecord is an unvalidated lead sighting as produced by a listing source.
// Every field is optional; nothing is trusted until it passes Normalize.
type RawRecord struct {
	Name            string `json:"name,omitempty"`
	Email           string `json:"email,omitempty"`
	Phone           string `json:"phone,omitempty"`
	PropertyAddress string `json:"property_address,omitempty"`
	Price           string `json:"price,omitempty"`
	Source          string `json:"source,omitempty"`
}

// CandidateLead is a raw record that passed validation, with contact fields
// normalized and the price parsed. It has no identity yet; the store assigns
// one at upsert.
type CandidateLead struct {
	Name            string   `json:"name,omitempty"`
	Email           string   `json:"email,omitempty"`
	Phone           string   `json:"phone,omitempty"`
	PropertyAddress string   `json:"property_address,omitempty"`
	PriceNumeric    *float64 `json:"price_numeric,omitempty"`
	Source          string   `json:"source,omitempty"`
}

// RejectionReason classifies why a raw record was dropped during ingestion.
type RejectionReason string

const (
	RejectMissingIdentity RejectionReason = "MISSING_IDENTITY"
	RejectMissingContact  RejectionReason = "MISSING_CONTACT"
	RejectInvalidEmail    RejectionReason = "INVALID_EMAIL"
	RejectInvalidPrice    RejectionReason = "INVALID_PRICE"
)

// RejectedRecord pairs a failed raw record with its rejection reason. It is
// returned to the caller and never stored.
type RejectedRecord struct {
	Record RawRecord       `json:"record"`
	Reason RejectionReason `json:"reason"`
}
