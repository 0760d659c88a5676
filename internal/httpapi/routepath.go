// Package httpapi exposes the policy engine over HTTP.
//
// Handlers follow one shape: authenticate the actor, ask the policy engine
// for a decision, and only then perform the writes the decision authorized.
// No rule logic lives here.
package httpapi

// Canonical route patterns. Guard table prefixes in the authz package must
// cover every protected pattern listed here.
const (
	Health = "/up"

	TenancyInvitationsPattern       = "/tenancies/{tenancyID}/invitations"
	TenancyEndPattern               = "/tenancies/{tenancyID}/end"
	TenancyReviewEligibilityPattern = "/tenancies/{tenancyID}/review-eligibility"

	InvitationAccept  = "/invitations/accept"
	InvitationPattern = "/invitations/{token}"

	Reviews = "/reviews"
)
