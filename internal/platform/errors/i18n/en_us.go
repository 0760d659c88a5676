package i18n

// Error codes must match the codes defined in internal/platform/errors/codes.go.
// These are duplicated as strings to avoid an import cycle.
const (
	CodeRoleInvalid = "ROLE_INVALID"

	CodeTenancyEmptyPropertyID         = "TENANCY_EMPTY_PROPERTY_ID"
	CodeTenancyEmptyLandlordID         = "TENANCY_EMPTY_LANDLORD_ID"
	CodeTenancyEmptyTenantID           = "TENANCY_EMPTY_TENANT_ID"
	CodeTenancyInvalidStatusTransition = "TENANCY_INVALID_STATUS_TRANSITION"

	CodeInvitationEmptyTenancyID          = "INVITATION_EMPTY_TENANCY_ID"
	CodeInvitationEmptyInviterID          = "INVITATION_EMPTY_INVITER_ID"
	CodeInvitationInvalidEmail            = "INVITATION_INVALID_EMAIL"
	CodeInvitationDuplicatePending        = "INVITATION_DUPLICATE_PENDING"
	CodeInvitationExpired                 = "INVITATION_EXPIRED"
	CodeInvitationAlreadyUsed             = "INVITATION_ALREADY_USED"
	CodeInvitationInvalidStatusTransition = "INVITATION_INVALID_STATUS_TRANSITION"

	CodeRouteRoleNotPermitted = "ROUTE_ROLE_NOT_PERMITTED"
	CodeOwnershipRequired     = "OWNERSHIP_REQUIRED"

	CodeReviewAlreadySubmitted = "REVIEW_ALREADY_SUBMITTED"
	CodeReviewWindowClosed     = "REVIEW_WINDOW_CLOSED"
	CodeReviewTenancyNotEnded  = "REVIEW_TENANCY_NOT_ENDED"
	CodeReviewJobNotCompleted  = "REVIEW_JOB_NOT_COMPLETED"
	CodeReviewQuoteNotAccepted = "REVIEW_QUOTE_NOT_ACCEPTED"
	CodeReviewNotParty         = "REVIEW_NOT_PARTY"
	CodeReviewInvalidRating    = "REVIEW_INVALID_RATING"
	CodeReviewInvalidKind      = "REVIEW_INVALID_KIND"
	CodeReviewEmptyLink        = "REVIEW_EMPTY_LINK"
	CodeReviewEmptyReviewee    = "REVIEW_EMPTY_REVIEWEE"

	CodeIdentityTokenInvalid  = "IDENTITY_TOKEN_INVALID"
	CodeIdentityTokenExpired  = "IDENTITY_TOKEN_EXPIRED"
	CodeIdentityTokenMismatch = "IDENTITY_TOKEN_MISMATCH"
	CodeIdentityRoleMissing   = "IDENTITY_ROLE_MISSING"

	CodeNotFound = "NOT_FOUND"
)

// enUS holds the en-US reason templates. Templates render over
// Error.Metadata, so variable names must match the metadata keys set where
// each error is raised.
var enUS = map[Code]string{
	CodeRoleInvalid: "The role {{.Role}} is not recognized",

	CodeTenancyEmptyPropertyID:         "A property is required",
	CodeTenancyEmptyLandlordID:         "A landlord is required",
	CodeTenancyEmptyTenantID:           "A lead tenant is required",
	CodeTenancyInvalidStatusTransition: "The tenancy cannot move from {{.FromStatus}} to {{.ToStatus}}",

	CodeInvitationEmptyTenancyID:          "A tenancy is required",
	CodeInvitationEmptyInviterID:          "An inviting landlord is required",
	CodeInvitationInvalidEmail:            "The email address is not valid",
	CodeInvitationDuplicatePending:        "An invitation for this email is already pending",
	CodeInvitationExpired:                 "This invitation has expired; ask your landlord for a new one",
	CodeInvitationAlreadyUsed:             "This invitation is no longer available",
	CodeInvitationInvalidStatusTransition: "The invitation cannot move from {{.FromStatus}} to {{.ToStatus}}",

	CodeRouteRoleNotPermitted: "Your role does not allow this action",
	CodeOwnershipRequired:     "Not found",

	CodeReviewAlreadySubmitted: "You have already submitted a review for this",
	CodeReviewWindowClosed:     "The review window closed {{.DaysAgo}} days ago",
	CodeReviewTenancyNotEnded:  "Reviews open once the tenancy has ended",
	CodeReviewJobNotCompleted:  "Reviews open once the job is completed",
	CodeReviewQuoteNotAccepted: "Reviews require an accepted quote on this job",
	CodeReviewNotParty:         "You are not a party to this {{.Link}}",
	CodeReviewInvalidRating:    "Ratings run from 1 to 5",
	CodeReviewInvalidKind:      "The review kind is not recognized",
	CodeReviewEmptyLink:        "A tenancy or job reference is required",
	CodeReviewEmptyReviewee:    "A review subject is required",

	CodeIdentityTokenInvalid:  "Sign in again to continue",
	CodeIdentityTokenExpired:  "Your session has expired; sign in again",
	CodeIdentityTokenMismatch: "Sign in again to continue",
	CodeIdentityRoleMissing:   "Your account has no role assigned",

	CodeNotFound: "Not found",
}
