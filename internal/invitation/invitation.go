// Package invitation owns the tenant invitation lifecycle.
//
// An invitation is a single-use, time-limited token that lets a named email
// address claim tenant membership on a tenancy. The functions here are pure
// over invitation values; persistence (including the authoritative unique
// constraint on pending invitations) lives behind the storage layer.
package invitation

import (
	"fmt"
	"net/mail"
	"strings"
	"time"

	apperrors "github.com/aarons2222/letlog/internal/platform/errors"
	"github.com/aarons2222/letlog/internal/platform/id"
)

// Status represents the lifecycle status of an invitation.
type Status int

const (
	// StatusUnspecified represents an invalid invitation status.
	StatusUnspecified Status = iota
	// StatusPending indicates an invitation is available to accept.
	StatusPending
	// StatusAccepted indicates the invitee claimed the invitation.
	StatusAccepted
	// StatusExpired indicates the invitation passed its expiry unaccepted.
	StatusExpired
	// StatusRevoked indicates the landlord cancelled the invitation.
	StatusRevoked
)

// String returns the stable lowercase label for the status.
func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusAccepted:
		return "accepted"
	case StatusExpired:
		return "expired"
	case StatusRevoked:
		return "revoked"
	default:
		return "unspecified"
	}
}

// ParseStatus maps a stored label to a Status.
func ParseStatus(label string) Status {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "pending":
		return StatusPending
	case "accepted":
		return StatusAccepted
	case "expired":
		return StatusExpired
	case "revoked":
		return StatusRevoked
	default:
		return StatusUnspecified
	}
}

// IsTerminal reports whether the invitation can change no further.
func (s Status) IsTerminal() bool {
	return s == StatusAccepted || s == StatusExpired || s == StatusRevoked
}

// Invitation represents one tenant invitation for a (email, tenancy) pair.
type Invitation struct {
	ID          string
	Token       string
	TenancyID   string
	Email       string
	InviteeName string
	InviterID   string
	Status      Status
	IssuedAt    time.Time
	ExpiresAt   time.Time
	AcceptedAt  *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IssueInput describes the metadata needed to issue an invitation.
type IssueInput struct {
	TenancyID   string
	Email       string
	InviteeName string
	InviterID   string
}

// Issue creates a pending invitation with a generated ID, opaque token and
// expiry at now + ttl.
func Issue(input IssueInput, ttl time.Duration, now func() time.Time, idGenerator func() (string, error), tokenGenerator func() (string, error)) (Invitation, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}
	if tokenGenerator == nil {
		tokenGenerator = id.NewToken
	}

	normalized, err := NormalizeIssueInput(input)
	if err != nil {
		return Invitation{}, err
	}

	invitationID, err := idGenerator()
	if err != nil {
		return Invitation{}, fmt.Errorf("generate invitation id: %w", err)
	}
	token, err := tokenGenerator()
	if err != nil {
		return Invitation{}, fmt.Errorf("generate invitation token: %w", err)
	}

	issuedAt := now().UTC()
	return Invitation{
		ID:          invitationID,
		Token:       token,
		TenancyID:   normalized.TenancyID,
		Email:       normalized.Email,
		InviteeName: normalized.InviteeName,
		InviterID:   normalized.InviterID,
		Status:      StatusPending,
		IssuedAt:    issuedAt,
		ExpiresAt:   issuedAt.Add(ttl),
		CreatedAt:   issuedAt,
		UpdatedAt:   issuedAt,
	}, nil
}

// NormalizeIssueInput trims input metadata and case-normalizes the email.
func NormalizeIssueInput(input IssueInput) (IssueInput, error) {
	input.TenancyID = strings.TrimSpace(input.TenancyID)
	input.InviterID = strings.TrimSpace(input.InviterID)
	input.InviteeName = strings.TrimSpace(input.InviteeName)
	if input.TenancyID == "" {
		return IssueInput{}, apperrors.New(apperrors.CodeInvitationEmptyTenancyID, "tenancy id is required")
	}
	if input.InviterID == "" {
		return IssueInput{}, apperrors.New(apperrors.CodeInvitationEmptyInviterID, "inviter id is required")
	}
	email, err := NormalizeEmail(input.Email)
	if err != nil {
		return IssueInput{}, err
	}
	input.Email = email
	return input, nil
}

// NormalizeEmail validates an address and lowers its case so the
// one-pending-per-(email, tenancy) rule compares like with like.
func NormalizeEmail(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	parsed, err := mail.ParseAddress(trimmed)
	if err != nil || parsed.Address != trimmed {
		return "", apperrors.Wrap(apperrors.CodeInvitationInvalidEmail, "invalid invitee email", err)
	}
	return strings.ToLower(parsed.Address), nil
}

// Accept resolves an acceptance attempt against one invitation value.
//
// Acceptance is idempotent: an already-accepted invitation is returned
// unchanged with no error, so a client retry after a lost response still
// observes success. A pending invitation past its expiry is returned in
// expired state alongside the error so the caller can persist that
// transition.
func Accept(inv Invitation, now time.Time) (Invitation, error) {
	switch inv.Status {
	case StatusAccepted:
		return inv, nil
	case StatusRevoked:
		return inv, apperrors.New(apperrors.CodeInvitationAlreadyUsed, "invitation was revoked")
	case StatusExpired:
		return inv, apperrors.New(apperrors.CodeInvitationExpired, "invitation has expired")
	case StatusPending:
		moment := now.UTC()
		if moment.After(inv.ExpiresAt) {
			inv.Status = StatusExpired
			inv.UpdatedAt = moment
			return inv, apperrors.New(apperrors.CodeInvitationExpired, "invitation has expired")
		}
		inv.Status = StatusAccepted
		inv.AcceptedAt = &moment
		inv.UpdatedAt = moment
		return inv, nil
	default:
		return inv, invalidTransition(inv.Status, StatusAccepted)
	}
}

// Revoke cancels a pending invitation.
func Revoke(inv Invitation, now time.Time) (Invitation, error) {
	if inv.Status != StatusPending {
		return inv, invalidTransition(inv.Status, StatusRevoked)
	}
	inv.Status = StatusRevoked
	inv.UpdatedAt = now.UTC()
	return inv, nil
}

// ExpireDue returns the subset of invitations that are pending past their
// expiry, each transitioned to expired. The caller persists the results;
// running the sweep eagerly or on a schedule is a caller decision.
func ExpireDue(list []Invitation, now time.Time) []Invitation {
	moment := now.UTC()
	var expired []Invitation
	for _, inv := range list {
		if inv.Status != StatusPending || !moment.After(inv.ExpiresAt) {
			continue
		}
		inv.Status = StatusExpired
		inv.UpdatedAt = moment
		expired = append(expired, inv)
	}
	return expired
}

func invalidTransition(from, to Status) error {
	return apperrors.WithMetadata(
		apperrors.CodeInvitationInvalidStatusTransition,
		fmt.Sprintf("cannot move invitation from %s to %s", from, to),
		map[string]string{
			"FromStatus": from.String(),
			"ToStatus":   to.String(),
		},
	)
}
