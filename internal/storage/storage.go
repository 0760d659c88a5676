// Package storage defines persistence contracts for the policy engine's
// records.
//
// The decision engines never talk to a database directly; they consume
// these interfaces, which keeps the rule logic pure and lets tests swap in
// in-memory fakes.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/aarons2222/letlog/internal/invitation"
	"github.com/aarons2222/letlog/internal/job"
	"github.com/aarons2222/letlog/internal/review"
	"github.com/aarons2222/letlog/internal/role"
	"github.com/aarons2222/letlog/internal/tenancy"
)

// ErrNotFound indicates a requested record is missing.
var ErrNotFound = errors.New("record not found")

// ErrDuplicatePending indicates the pending-invitation uniqueness
// constraint rejected an insert. The in-engine pre-check is advisory; this
// constraint is the authoritative guard against concurrent issuance.
var ErrDuplicatePending = errors.New("pending invitation already exists")

// ErrAlreadyExists indicates a write collided with a unique constraint.
var ErrAlreadyExists = errors.New("record already exists")

// ErrConflict indicates a conditional update lost to a concurrent
// transition into a different terminal state.
var ErrConflict = errors.New("record changed concurrently")

// User stores one account profile. Profiles are owned by the identity
// service and read-only to this engine.
type User struct {
	ID          string
	Role        role.Role
	DisplayName string
	Email       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Property stores one landlord-owned property.
type Property struct {
	ID         string
	LandlordID string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// DecisionRecord stores one audited policy decision.
type DecisionRecord struct {
	ID        string
	Action    string
	ActorID   string
	ActorRole role.Role
	Resource  string
	Allowed   bool
	Code      string
	TraceID   string
	SpanID    string
	DecidedAt time.Time
}

// TenancyStore persists tenancy lifecycle state.
type TenancyStore interface {
	PutTenancy(ctx context.Context, t tenancy.Tenancy) error
	GetTenancy(ctx context.Context, id string) (tenancy.Tenancy, error)
	UpdateTenancy(ctx context.Context, t tenancy.Tenancy) error
}

// InvitationStore persists invitation lifecycle state.
//
// PutInvitation maps a violation of the pending-per-(email, tenancy)
// partial unique index to ErrDuplicatePending. MarkInvitationAccepted is a
// conditional update: accepting an already-accepted invitation returns the
// stored record unchanged, while a concurrent transition to a different
// terminal state returns ErrConflict.
type InvitationStore interface {
	PutInvitation(ctx context.Context, inv invitation.Invitation) error
	GetInvitationByToken(ctx context.Context, token string) (invitation.Invitation, error)
	FindPendingInvitation(ctx context.Context, email string, tenancyID string) (invitation.Invitation, error)
	MarkInvitationAccepted(ctx context.Context, invitationID string, acceptedAt time.Time) (invitation.Invitation, error)
	MarkInvitationExpired(ctx context.Context, invitationID string, expiredAt time.Time) error
	MarkInvitationRevoked(ctx context.Context, invitationID string, revokedAt time.Time) error
	ListPendingInvitationsExpiringBefore(ctx context.Context, cutoff time.Time, limit int) ([]invitation.Invitation, error)
}

// PropertyStore persists property ownership records.
type PropertyStore interface {
	PutProperty(ctx context.Context, p Property) error
	GetProperty(ctx context.Context, id string) (Property, error)
}

// UserStore persists account profiles.
type UserStore interface {
	PutUser(ctx context.Context, u User) error
	GetUser(ctx context.Context, id string) (User, error)
}

// JobStore persists tender/quote job state.
type JobStore interface {
	PutJob(ctx context.Context, j job.Job) error
	GetJob(ctx context.Context, id string) (job.Job, error)
}

// ReviewStore persists write-once reviews.
//
// PutReview maps a violation of the one-per-(reviewer, link, kind) unique
// index to ErrAlreadyExists; reviews are never overwritten.
type ReviewStore interface {
	PutReview(ctx context.Context, r review.Review) error
	HasReview(ctx context.Context, reviewerID string, linkID string, kind review.Kind) (bool, error)
}

// DecisionLog appends audited policy decisions.
type DecisionLog interface {
	AppendDecision(ctx context.Context, record DecisionRecord) error
}
