// Package review owns review records and the review eligibility rules.
//
// Eligibility is the most intricate rule set in the engine. It is expressed
// as one pure decision function per (reviewer role, subject link) so every
// call site shares identical logic instead of re-deriving it.
package review

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aarons2222/letlog/internal/job"
	apperrors "github.com/aarons2222/letlog/internal/platform/errors"
	"github.com/aarons2222/letlog/internal/platform/id"
	"github.com/aarons2222/letlog/internal/role"
	"github.com/aarons2222/letlog/internal/tenancy"
)

// Kind identifies which party a review is about.
type Kind int

const (
	// KindUnspecified represents an invalid review kind.
	KindUnspecified Kind = iota
	// KindLandlordReview is a review of a landlord, written by a tenant
	// after a tenancy or by a contractor after a job.
	KindLandlordReview
	// KindContractorReview is a review of a contractor, written by the
	// landlord after a completed job.
	KindContractorReview
)

// String returns the stable label for the review kind.
func (k Kind) String() string {
	switch k {
	case KindLandlordReview:
		return "landlord-review"
	case KindContractorReview:
		return "contractor-review"
	default:
		return "unspecified"
	}
}

// ParseKind maps a stored label to a Kind.
func ParseKind(label string) Kind {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "landlord-review":
		return KindLandlordReview
	case "contractor-review":
		return KindContractorReview
	default:
		return KindUnspecified
	}
}

// SubRatings carries the optional per-aspect scores. Zero means unset.
type SubRatings struct {
	Communication int
	Reliability   int
}

// Review represents one write-once review of a counterparty.
type Review struct {
	ID         string
	ReviewerID string
	RevieweeID string
	Kind       Kind
	Rating     int
	SubRatings SubRatings
	Text       string
	// Exactly one of TenancyID and JobID is set, naming the relationship
	// the review is about.
	TenancyID string
	JobID     string
	CreatedAt time.Time
}

// CreateReviewInput describes the metadata needed to record a review.
type CreateReviewInput struct {
	ReviewerID string
	RevieweeID string
	Kind       Kind
	Rating     int
	SubRatings SubRatings
	Text       string
	TenancyID  string
	JobID      string
}

// CreateReview validates input and builds a review record with a generated
// ID and timestamp. It does not check eligibility; callers decide that
// first via Evaluate.
func CreateReview(input CreateReviewInput, now func() time.Time, idGenerator func() (string, error)) (Review, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}

	input.ReviewerID = strings.TrimSpace(input.ReviewerID)
	input.RevieweeID = strings.TrimSpace(input.RevieweeID)
	input.TenancyID = strings.TrimSpace(input.TenancyID)
	input.JobID = strings.TrimSpace(input.JobID)
	input.Text = strings.TrimSpace(input.Text)

	if input.Kind != KindLandlordReview && input.Kind != KindContractorReview {
		return Review{}, apperrors.New(apperrors.CodeReviewInvalidKind, "review kind is required")
	}
	if input.RevieweeID == "" {
		return Review{}, apperrors.New(apperrors.CodeReviewEmptyReviewee, "a review subject is required")
	}
	if input.Rating < 1 || input.Rating > 5 {
		return Review{}, apperrors.WithMetadata(apperrors.CodeReviewInvalidRating, "rating must be 1-5",
			map[string]string{"Rating": strconv.Itoa(input.Rating)})
	}
	for _, sub := range []int{input.SubRatings.Communication, input.SubRatings.Reliability} {
		if sub != 0 && (sub < 1 || sub > 5) {
			return Review{}, apperrors.WithMetadata(apperrors.CodeReviewInvalidRating, "sub-rating must be 1-5",
				map[string]string{"Rating": strconv.Itoa(sub)})
		}
	}
	if (input.TenancyID == "") == (input.JobID == "") {
		return Review{}, apperrors.New(apperrors.CodeReviewEmptyLink, "exactly one of tenancy id and job id is required")
	}

	reviewID, err := idGenerator()
	if err != nil {
		return Review{}, fmt.Errorf("generate review id: %w", err)
	}

	return Review{
		ID:         reviewID,
		ReviewerID: input.ReviewerID,
		RevieweeID: input.RevieweeID,
		Kind:       input.Kind,
		Rating:     input.Rating,
		SubRatings: input.SubRatings,
		Text:       input.Text,
		TenancyID:  input.TenancyID,
		JobID:      input.JobID,
		CreatedAt:  now().UTC(),
	}, nil
}

// LinkID returns the identifier of the relationship the review is about.
func (r Review) LinkID() string {
	if r.TenancyID != "" {
		return r.TenancyID
	}
	return r.JobID
}

// Request carries everything Evaluate needs, pre-loaded by the caller.
// Exactly one of Tenancy and Job is set, matching the subject link.
type Request struct {
	ReviewerID   string
	ReviewerRole role.Role
	Tenancy      *tenancy.Tenancy
	Job          *job.Job
	// HasPriorReview reports whether a review already exists for
	// (reviewer, link, kind); reviews are write-once facts.
	HasPriorReview bool
}

// Eligibility is the outcome of one eligibility evaluation. When Eligible
// is false, Code and Metadata name the reason so the caller can render an
// explanation instead of silently hiding the action.
type Eligibility struct {
	Eligible bool
	Kind     Kind
	// RevieweeID names the counterparty the authorized review is about.
	// It comes from the loaded link record, never from the reviewer.
	RevieweeID string
	Code       apperrors.Code
	Metadata   map[string]string
}

// Evaluate computes review eligibility for one (reviewer role, subject)
// pair against a single time snapshot.
//
// Tenant reviews of landlords are bounded by windowDays after the
// tenancy's own EndedAt, so a re-let tenancy opens a fresh window
// independent of any earlier one. Job-based reviews carry no window.
func Evaluate(req Request, windowDays int, now time.Time) Eligibility {
	if req.HasPriorReview {
		return ineligible(KindFor(req.ReviewerRole), apperrors.CodeReviewAlreadySubmitted, nil)
	}

	switch req.ReviewerRole {
	case role.Tenant:
		return evaluateTenant(req, windowDays, now)
	case role.Landlord:
		return evaluateJobParty(req, KindContractorReview)
	case role.Contractor:
		return evaluateJobParty(req, KindLandlordReview)
	default:
		return ineligible(KindUnspecified, apperrors.CodeRoleInvalid, map[string]string{"Role": req.ReviewerRole.String()})
	}
}

func evaluateTenant(req Request, windowDays int, now time.Time) Eligibility {
	t := req.Tenancy
	if t == nil {
		return ineligible(KindLandlordReview, apperrors.CodeNotFound, nil)
	}
	if !isParty(req.ReviewerID, *t) {
		return ineligible(KindLandlordReview, apperrors.CodeReviewNotParty, map[string]string{"Link": "tenancy"})
	}
	if !t.Status.IsTerminal() || t.EndedAt == nil {
		return ineligible(KindLandlordReview, apperrors.CodeReviewTenancyNotEnded, nil)
	}

	closesAt := t.EndedAt.Add(time.Duration(windowDays) * 24 * time.Hour)
	moment := now.UTC()
	if moment.After(closesAt) {
		daysAgo := int(moment.Sub(closesAt).Hours() / 24)
		return ineligible(KindLandlordReview, apperrors.CodeReviewWindowClosed, map[string]string{
			"DaysAgo": strconv.Itoa(daysAgo),
			"Window":  strconv.Itoa(windowDays),
		})
	}
	return Eligibility{Eligible: true, Kind: KindLandlordReview, RevieweeID: t.LandlordID}
}

func evaluateJobParty(req Request, kind Kind) Eligibility {
	j := req.Job
	if j == nil {
		return ineligible(kind, apperrors.CodeNotFound, nil)
	}
	// The reviewer must be one party; the other is the reviewee.
	reviewerID, revieweeID := j.LandlordID, j.ContractorID
	if kind == KindLandlordReview {
		reviewerID, revieweeID = j.ContractorID, j.LandlordID
	}
	if strings.TrimSpace(req.ReviewerID) == "" || req.ReviewerID != reviewerID {
		return ineligible(kind, apperrors.CodeReviewNotParty, map[string]string{"Link": "job"})
	}
	if !j.IsCompleted() {
		return ineligible(kind, apperrors.CodeReviewJobNotCompleted, nil)
	}
	if !j.QuoteEngaged() {
		return ineligible(kind, apperrors.CodeReviewQuoteNotAccepted, nil)
	}
	return Eligibility{Eligible: true, Kind: kind, RevieweeID: revieweeID}
}

// KindFor maps a reviewer role to the kind of review it writes.
func KindFor(r role.Role) Kind {
	switch r {
	case role.Tenant, role.Contractor:
		return KindLandlordReview
	case role.Landlord:
		return KindContractorReview
	default:
		return KindUnspecified
	}
}

// isParty reports whether the reviewer is the lead or a secondary tenant.
func isParty(reviewerID string, t tenancy.Tenancy) bool {
	if reviewerID == t.LeadTenantID {
		return true
	}
	for _, tenantID := range t.SecondaryTenantIDs {
		if reviewerID == tenantID {
			return true
		}
	}
	return false
}

func ineligible(kind Kind, code apperrors.Code, metadata map[string]string) Eligibility {
	return Eligibility{Kind: kind, Code: code, Metadata: metadata}
}
