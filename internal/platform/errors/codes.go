// Package errors provides structured error handling with i18n support.
package errors

import "net/http"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Role errors
	CodeRoleInvalid Code = "ROLE_INVALID"

	// Tenancy errors
	CodeTenancyEmptyPropertyID         Code = "TENANCY_EMPTY_PROPERTY_ID"
	CodeTenancyEmptyLandlordID         Code = "TENANCY_EMPTY_LANDLORD_ID"
	CodeTenancyEmptyTenantID           Code = "TENANCY_EMPTY_TENANT_ID"
	CodeTenancyInvalidStatusTransition Code = "TENANCY_INVALID_STATUS_TRANSITION"

	// Invitation errors
	CodeInvitationEmptyTenancyID          Code = "INVITATION_EMPTY_TENANCY_ID"
	CodeInvitationEmptyInviterID          Code = "INVITATION_EMPTY_INVITER_ID"
	CodeInvitationInvalidEmail            Code = "INVITATION_INVALID_EMAIL"
	CodeInvitationDuplicatePending        Code = "INVITATION_DUPLICATE_PENDING"
	CodeInvitationExpired                 Code = "INVITATION_EXPIRED"
	CodeInvitationAlreadyUsed             Code = "INVITATION_ALREADY_USED"
	CodeInvitationInvalidStatusTransition Code = "INVITATION_INVALID_STATUS_TRANSITION"

	// Authorization errors
	CodeRouteRoleNotPermitted Code = "ROUTE_ROLE_NOT_PERMITTED"
	CodeOwnershipRequired     Code = "OWNERSHIP_REQUIRED"

	// Review errors
	CodeReviewAlreadySubmitted Code = "REVIEW_ALREADY_SUBMITTED"
	CodeReviewWindowClosed     Code = "REVIEW_WINDOW_CLOSED"
	CodeReviewTenancyNotEnded  Code = "REVIEW_TENANCY_NOT_ENDED"
	CodeReviewJobNotCompleted  Code = "REVIEW_JOB_NOT_COMPLETED"
	CodeReviewQuoteNotAccepted Code = "REVIEW_QUOTE_NOT_ACCEPTED"
	CodeReviewNotParty         Code = "REVIEW_NOT_PARTY"
	CodeReviewInvalidRating    Code = "REVIEW_INVALID_RATING"
	CodeReviewInvalidKind      Code = "REVIEW_INVALID_KIND"
	CodeReviewEmptyLink        Code = "REVIEW_EMPTY_LINK"
	CodeReviewEmptyReviewee    Code = "REVIEW_EMPTY_REVIEWEE"

	// Identity errors
	CodeIdentityTokenInvalid  Code = "IDENTITY_TOKEN_INVALID"
	CodeIdentityTokenExpired  Code = "IDENTITY_TOKEN_EXPIRED"
	CodeIdentityTokenMismatch Code = "IDENTITY_TOKEN_MISMATCH"
	CodeIdentityRoleMissing   Code = "IDENTITY_ROLE_MISSING"

	// Storage errors
	CodeNotFound Code = "NOT_FOUND"
)

// HTTPStatus maps domain codes to HTTP status codes.
//
// Ownership failures map to 404 rather than 403 so unauthorized actors
// cannot probe for resource existence.
func (c Code) HTTPStatus() int {
	switch c {
	// Bad request - validation failures, bad input
	case CodeRoleInvalid,
		CodeTenancyEmptyPropertyID,
		CodeTenancyEmptyLandlordID,
		CodeTenancyEmptyTenantID,
		CodeInvitationEmptyTenancyID,
		CodeInvitationEmptyInviterID,
		CodeInvitationInvalidEmail,
		CodeReviewInvalidRating,
		CodeReviewInvalidKind,
		CodeReviewEmptyLink,
		CodeReviewEmptyReviewee:
		return http.StatusBadRequest

	// Conflict - state already claimed or already recorded
	case CodeInvitationDuplicatePending,
		CodeInvitationAlreadyUsed,
		CodeTenancyInvalidStatusTransition,
		CodeInvitationInvalidStatusTransition,
		CodeReviewAlreadySubmitted:
		return http.StatusConflict

	// Gone - the resource existed but its time has passed
	case CodeInvitationExpired:
		return http.StatusGone

	// Unprocessable - state does not satisfy the rule right now
	case CodeReviewWindowClosed,
		CodeReviewTenancyNotEnded,
		CodeReviewJobNotCompleted,
		CodeReviewQuoteNotAccepted,
		CodeReviewNotParty:
		return http.StatusUnprocessableEntity

	// Unauthenticated - the caller's identity could not be established
	case CodeIdentityTokenInvalid,
		CodeIdentityTokenExpired,
		CodeIdentityTokenMismatch,
		CodeIdentityRoleMissing:
		return http.StatusUnauthorized

	// Forbidden - role is known and not permitted
	case CodeRouteRoleNotPermitted:
		return http.StatusForbidden

	// Not found - also covers ownership mismatches (no existence leak)
	case CodeNotFound,
		CodeOwnershipRequired:
		return http.StatusNotFound

	default:
		return http.StatusInternalServerError
	}
}
