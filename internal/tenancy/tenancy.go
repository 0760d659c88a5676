// Package tenancy owns the tenancy lifecycle state machine and its derived
// time queries.
//
// Status transitions are explicit actions, never derived from dates: a
// tenancy whose planned end date has passed is still active until someone
// ends it, because tenancies routinely run past their agreed term.
package tenancy

import (
	"fmt"
	"strings"
	"time"

	apperrors "github.com/aarons2222/letlog/internal/platform/errors"
	"github.com/aarons2222/letlog/internal/platform/id"
)

// Status represents the lifecycle status of a tenancy.
type Status int

const (
	// StatusUnspecified represents an invalid tenancy status.
	StatusUnspecified Status = iota
	// StatusDraft indicates a tenancy created but with no invitation sent.
	StatusDraft
	// StatusPending indicates an invitation has been issued and not yet accepted.
	StatusPending
	// StatusActive indicates an occupied, running tenancy.
	StatusActive
	// StatusEnded indicates the landlord ended the tenancy normally.
	StatusEnded
	// StatusTerminated indicates the tenancy was ended administratively.
	StatusTerminated
)

// String returns the stable lowercase label for the status.
func (s Status) String() string {
	switch s {
	case StatusDraft:
		return "draft"
	case StatusPending:
		return "pending"
	case StatusActive:
		return "active"
	case StatusEnded:
		return "ended"
	case StatusTerminated:
		return "terminated"
	default:
		return "unspecified"
	}
}

// ParseStatus maps a stored label to a Status.
func ParseStatus(label string) Status {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "draft":
		return StatusDraft
	case "pending":
		return StatusPending
	case "active":
		return StatusActive
	case "ended":
		return StatusEnded
	case "terminated":
		return StatusTerminated
	default:
		return StatusUnspecified
	}
}

// IsTerminal reports whether no further transitions are possible.
func (s Status) IsTerminal() bool {
	return s == StatusEnded || s == StatusTerminated
}

// Action is a tenancy lifecycle transition request.
type Action int

const (
	// ActionUnspecified represents an invalid action value.
	ActionUnspecified Action = iota
	// ActionSubmit moves a draft to pending when an invitation is issued.
	ActionSubmit
	// ActionActivate moves a pending tenancy to active on invitation
	// acceptance or landlord force-activation.
	ActionActivate
	// ActionEnd ends an active tenancy and stamps EndedAt.
	ActionEnd
	// ActionTerminate administratively ends any non-terminal tenancy.
	ActionTerminate
)

// String returns the label used in transition error metadata.
func (a Action) String() string {
	switch a {
	case ActionSubmit:
		return "submit"
	case ActionActivate:
		return "activate"
	case ActionEnd:
		return "end"
	case ActionTerminate:
		return "terminate"
	default:
		return "unspecified"
	}
}

// Tenancy represents the contractual relationship between a property and
// its tenants over a period.
type Tenancy struct {
	ID                 string
	PropertyID         string
	LandlordID         string
	LeadTenantID       string
	SecondaryTenantIDs []string
	StartDate          time.Time
	// EndDate is nil for a rolling tenancy with no agreed end.
	EndDate *time.Time
	Status  Status
	// EndedAt is set if and only if Status is ended or terminated.
	EndedAt   *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreateTenancyInput describes the metadata needed to create a tenancy.
type CreateTenancyInput struct {
	PropertyID   string
	LandlordID   string
	LeadTenantID string
	StartDate    time.Time
	EndDate      *time.Time
}

// CreateTenancy creates a draft tenancy with a generated ID and timestamps.
func CreateTenancy(input CreateTenancyInput, now func() time.Time, idGenerator func() (string, error)) (Tenancy, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}

	normalized, err := NormalizeCreateTenancyInput(input)
	if err != nil {
		return Tenancy{}, err
	}

	tenancyID, err := idGenerator()
	if err != nil {
		return Tenancy{}, fmt.Errorf("generate tenancy id: %w", err)
	}

	createdAt := now().UTC()
	return Tenancy{
		ID:           tenancyID,
		PropertyID:   normalized.PropertyID,
		LandlordID:   normalized.LandlordID,
		LeadTenantID: normalized.LeadTenantID,
		StartDate:    normalized.StartDate,
		EndDate:      normalized.EndDate,
		Status:       StatusDraft,
		CreatedAt:    createdAt,
		UpdatedAt:    createdAt,
	}, nil
}

// NormalizeCreateTenancyInput trims and validates tenancy input metadata.
func NormalizeCreateTenancyInput(input CreateTenancyInput) (CreateTenancyInput, error) {
	input.PropertyID = strings.TrimSpace(input.PropertyID)
	input.LandlordID = strings.TrimSpace(input.LandlordID)
	input.LeadTenantID = strings.TrimSpace(input.LeadTenantID)
	if input.PropertyID == "" {
		return CreateTenancyInput{}, apperrors.New(apperrors.CodeTenancyEmptyPropertyID, "property id is required")
	}
	if input.LandlordID == "" {
		return CreateTenancyInput{}, apperrors.New(apperrors.CodeTenancyEmptyLandlordID, "landlord id is required")
	}
	if input.LeadTenantID == "" {
		return CreateTenancyInput{}, apperrors.New(apperrors.CodeTenancyEmptyTenantID, "lead tenant id is required")
	}
	return input, nil
}

// Transition applies a lifecycle action and returns the updated tenancy.
//
// Ownership is not checked here; Transition is the pure state machine and
// the caller composes it with the authz ownership predicates.
func Transition(t Tenancy, action Action, now time.Time) (Tenancy, error) {
	target, ok := targetStatus(t.Status, action)
	if !ok {
		return Tenancy{}, invalidTransition(t.Status, action)
	}

	moment := now.UTC()
	t.Status = target
	t.UpdatedAt = moment
	if target.IsTerminal() {
		t.EndedAt = &moment
	}
	return t, nil
}

// targetStatus resolves the allowed transition table.
func targetStatus(from Status, action Action) (Status, bool) {
	if from.IsTerminal() {
		return StatusUnspecified, false
	}
	switch action {
	case ActionSubmit:
		if from == StatusDraft {
			return StatusPending, true
		}
	case ActionActivate:
		if from == StatusPending {
			return StatusActive, true
		}
	case ActionEnd:
		if from == StatusActive {
			return StatusEnded, true
		}
	case ActionTerminate:
		// Any non-terminal state may be terminated administratively.
		switch from {
		case StatusDraft, StatusPending, StatusActive:
			return StatusTerminated, true
		}
	}
	return StatusUnspecified, false
}

func invalidTransition(from Status, action Action) error {
	return apperrors.WithMetadata(
		apperrors.CodeTenancyInvalidStatusTransition,
		fmt.Sprintf("cannot %s tenancy in status %s", action, from),
		map[string]string{
			"FromStatus": from.String(),
			"ToStatus":   action.String(),
		},
	)
}

// IsEnded reports whether the tenancy reached a terminal state.
func IsEnded(t Tenancy) bool {
	return t.Status.IsTerminal()
}

// DaysUntilEnd returns the whole calendar days between now and the planned
// end date. The second return value is false for rolling tenancies. The
// count is negative when the tenancy has run past its planned end.
func DaysUntilEnd(t Tenancy, now time.Time) (int, bool) {
	if t.EndDate == nil {
		return 0, false
	}
	end := dateOnly(t.EndDate.UTC())
	today := dateOnly(now.UTC())
	return int(end.Sub(today).Hours() / 24), true
}

func dateOnly(value time.Time) time.Time {
	return time.Date(value.Year(), value.Month(), value.Day(), 0, 0, 0, 0, time.UTC)
}
