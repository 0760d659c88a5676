// Package notify delivers engine events to interested parties.
//
// Delivery is best-effort: a notification failure is logged by the caller
// and never rolls back the decision or write that produced the event.
package notify

import (
	"context"
	"log"
	"time"
)

// InvitationIssued describes a freshly issued invitation. The opaque token
// is included so the mailer can build the acceptance link; it must never be
// logged.
type InvitationIssued struct {
	InvitationID string    `json:"invitation_id"`
	TenancyID    string    `json:"tenancy_id"`
	Email        string    `json:"email"`
	InviteeName  string    `json:"invitee_name,omitempty"`
	InviterID    string    `json:"inviter_id"`
	Token        string    `json:"token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// TenancyEnded describes a tenancy that left its active phase, opening the
// tenant's review window.
type TenancyEnded struct {
	TenancyID    string    `json:"tenancy_id"`
	PropertyID   string    `json:"property_id"`
	LandlordID   string    `json:"landlord_id"`
	LeadTenantID string    `json:"lead_tenant_id"`
	EndedAt      time.Time `json:"ended_at"`
}

// Notifier publishes engine events.
type Notifier interface {
	InvitationIssued(ctx context.Context, event InvitationIssued) error
	TenancyEnded(ctx context.Context, event TenancyEnded) error
}

// LogNotifier writes notifications to the process log. It backs local
// development and tests where no broker is configured.
type LogNotifier struct{}

// InvitationIssued logs an invitation event without its token.
func (LogNotifier) InvitationIssued(_ context.Context, event InvitationIssued) error {
	log.Printf("notify invitation issued: invitation=%s tenancy=%s", event.InvitationID, event.TenancyID)
	return nil
}

// TenancyEnded logs a tenancy-ended event.
func (LogNotifier) TenancyEnded(_ context.Context, event TenancyEnded) error {
	log.Printf("notify tenancy ended: tenancy=%s", event.TenancyID)
	return nil
}

var _ Notifier = LogNotifier{}
