// Package job models the tender/quote pairing that job-linked reviews
// attach to.
//
// Tenders and quotes are managed elsewhere in the product; the policy
// engine only reads their state, so this package carries the statuses and
// the derived facts the review rules need, not the tendering workflow.
package job

import (
	"strings"
	"time"
)

// TenderStatus represents the lifecycle status of a work tender.
type TenderStatus int

const (
	// TenderStatusUnspecified represents an invalid tender status.
	TenderStatusUnspecified TenderStatus = iota
	// TenderStatusOpen indicates a tender accepting quotes.
	TenderStatusOpen
	// TenderStatusInProgress indicates work underway on an accepted quote.
	TenderStatusInProgress
	// TenderStatusCompleted indicates the work is finished and signed off.
	TenderStatusCompleted
	// TenderStatusCancelled indicates the landlord withdrew the tender.
	TenderStatusCancelled
)

// String returns the stable lowercase label for the tender status.
func (s TenderStatus) String() string {
	switch s {
	case TenderStatusOpen:
		return "open"
	case TenderStatusInProgress:
		return "in_progress"
	case TenderStatusCompleted:
		return "completed"
	case TenderStatusCancelled:
		return "cancelled"
	default:
		return "unspecified"
	}
}

// ParseTenderStatus maps a stored label to a TenderStatus.
func ParseTenderStatus(label string) TenderStatus {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "open":
		return TenderStatusOpen
	case "in_progress":
		return TenderStatusInProgress
	case "completed":
		return TenderStatusCompleted
	case "cancelled":
		return TenderStatusCancelled
	default:
		return TenderStatusUnspecified
	}
}

// QuoteStatus represents the lifecycle status of a contractor quote.
type QuoteStatus int

const (
	// QuoteStatusUnspecified represents an invalid quote status.
	QuoteStatusUnspecified QuoteStatus = iota
	// QuoteStatusSubmitted indicates a quote awaiting the landlord.
	QuoteStatusSubmitted
	// QuoteStatusAccepted indicates the landlord accepted the quote.
	QuoteStatusAccepted
	// QuoteStatusRejected indicates the landlord declined the quote.
	QuoteStatusRejected
	// QuoteStatusWithdrawn indicates the contractor pulled the quote.
	QuoteStatusWithdrawn
	// QuoteStatusCompleted indicates the quoted work is done.
	QuoteStatusCompleted
)

// String returns the stable lowercase label for the quote status.
func (s QuoteStatus) String() string {
	switch s {
	case QuoteStatusSubmitted:
		return "submitted"
	case QuoteStatusAccepted:
		return "accepted"
	case QuoteStatusRejected:
		return "rejected"
	case QuoteStatusWithdrawn:
		return "withdrawn"
	case QuoteStatusCompleted:
		return "completed"
	default:
		return "unspecified"
	}
}

// ParseQuoteStatus maps a stored label to a QuoteStatus.
func ParseQuoteStatus(label string) QuoteStatus {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "submitted":
		return QuoteStatusSubmitted
	case "accepted":
		return QuoteStatusAccepted
	case "rejected":
		return QuoteStatusRejected
	case "withdrawn":
		return QuoteStatusWithdrawn
	case "completed":
		return QuoteStatusCompleted
	default:
		return QuoteStatusUnspecified
	}
}

// Job represents one tender with its winning quote.
type Job struct {
	ID           string
	TenderID     string
	LandlordID   string
	ContractorID string
	TenderStatus TenderStatus
	QuoteStatus  QuoteStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsCompleted reports whether the tender is signed off.
func (j Job) IsCompleted() bool {
	return j.TenderStatus == TenderStatusCompleted
}

// QuoteEngaged reports whether the contractor's quote was accepted or has
// run to completion - the states that qualify both parties for reviews.
func (j Job) QuoteEngaged() bool {
	return j.QuoteStatus == QuoteStatusAccepted || j.QuoteStatus == QuoteStatusCompleted
}
