// Package policy is the single entry point for authorization and lifecycle
// decisions.
//
// Every call site routes through Decide instead of re-deriving rules. The
// facade loads only the records a sub-engine needs through the Repository
// interface, evaluates against one time snapshot, and returns a structured
// decision with a rendered reason - never a bare boolean. It performs no
// writes itself; persisting an authorized mutation belongs to the caller.
package policy

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/aarons2222/letlog/internal/authz"
	"github.com/aarons2222/letlog/internal/invitation"
	"github.com/aarons2222/letlog/internal/job"
	apperrors "github.com/aarons2222/letlog/internal/platform/errors"
	"github.com/aarons2222/letlog/internal/platform/errors/i18n"
	"github.com/aarons2222/letlog/internal/platform/id"
	"github.com/aarons2222/letlog/internal/review"
	"github.com/aarons2222/letlog/internal/role"
	"github.com/aarons2222/letlog/internal/storage"
	"github.com/aarons2222/letlog/internal/tenancy"
)

// Action identifies what a caller is asking permission for.
type Action string

const (
	// ActionAccessRoute asks whether a role may reach a route prefix.
	ActionAccessRoute Action = "access_route"
	// ActionIssueInvitation asks whether a landlord may invite a tenant.
	ActionIssueInvitation Action = "issue_invitation"
	// ActionAcceptInvitation asks whether a token claims its invitation.
	ActionAcceptInvitation Action = "accept_invitation"
	// ActionEndTenancy asks whether the actor may end a tenancy.
	ActionEndTenancy Action = "end_tenancy"
	// ActionWriteReview asks whether the actor may review a counterparty.
	ActionWriteReview Action = "write_review"
)

// Actor is the verified principal a decision is evaluated for. It is
// always passed explicitly; the engine holds no ambient current user.
type Actor struct {
	UserID string
	Role   role.Role
}

// Request carries one decision's inputs. Fields beyond Action and Actor
// are read per action kind.
type Request struct {
	Action Action
	Actor  Actor

	// RouteID names the route for ActionAccessRoute.
	RouteID string
	// TenancyID names the tenancy for ActionIssueInvitation,
	// ActionEndTenancy and tenancy-linked ActionWriteReview.
	TenancyID string
	// InviteeEmail and InviteeName describe the invitation target.
	InviteeEmail string
	InviteeName  string
	// Token is the opaque invitation token for ActionAcceptInvitation.
	Token string
	// JobID names the job for job-linked ActionWriteReview.
	JobID string
}

// Decision is the structured outcome of one Decide call.
//
// When a mutation was authorized, the post-transition records are attached
// so the caller can persist exactly what was decided without re-deriving
// state.
type Decision struct {
	Allowed  bool
	Code     apperrors.Code
	Reason   string
	Metadata map[string]string

	// Invitation carries the issued, accepted, or expiry-transitioned
	// invitation for the invitation actions.
	Invitation *invitation.Invitation
	// Tenancy carries the post-transition tenancy when a decision moved
	// its lifecycle (submit on issue, activate on accept, end).
	Tenancy *tenancy.Tenancy
	// ReviewKind names the kind of review authorized by ActionWriteReview.
	ReviewKind review.Kind
	// RevieweeID names the counterparty an authorized review is about,
	// derived from the loaded link record rather than caller input.
	RevieweeID string
}

// Repository loads the records decisions are evaluated against. It is the
// only path from the engine to persistence, and it is read-only.
type Repository interface {
	GetTenancy(ctx context.Context, tenancyID string) (tenancy.Tenancy, error)
	GetInvitationByToken(ctx context.Context, token string) (invitation.Invitation, error)
	FindPendingInvitation(ctx context.Context, email string, tenancyID string) (invitation.Invitation, error)
	GetJob(ctx context.Context, jobID string) (job.Job, error)
	HasReview(ctx context.Context, reviewerID string, linkID string, kind review.Kind) (bool, error)
}

// EngineOptions configures a policy engine.
type EngineOptions struct {
	Repository Repository
	// DecisionLog receives one audit record per decision; nil disables
	// auditing. Appends are best-effort and never block a decision.
	DecisionLog storage.DecisionLog
	Config      Config
	Clock       func() time.Time
	IDGenerator func() (string, error)
	// TokenGenerator mints invitation tokens.
	TokenGenerator func() (string, error)
	// Table overrides the route permission table; nil uses DefaultTable.
	Table *authz.Table
}

// Engine evaluates policy decisions. It is stateless per call and safe for
// concurrent use.
type Engine struct {
	repo     Repository
	log      storage.DecisionLog
	cfg      Config
	clock    func() time.Time
	newID    func() (string, error)
	newToken func() (string, error)
	table    authz.Table
	tracer   trace.Tracer
}

// NewEngine creates a policy engine.
func NewEngine(opts EngineOptions) (*Engine, error) {
	if opts.Repository == nil {
		return nil, errors.New("repository is required")
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.IDGenerator == nil {
		opts.IDGenerator = id.NewID
	}
	if opts.TokenGenerator == nil {
		opts.TokenGenerator = id.NewToken
	}
	table := authz.DefaultTable()
	if opts.Table != nil {
		table = *opts.Table
	}
	return &Engine{
		repo:     opts.Repository,
		log:      opts.DecisionLog,
		cfg:      opts.Config.withDefaults(),
		clock:    opts.Clock,
		newID:    opts.IDGenerator,
		newToken: opts.TokenGenerator,
		table:    table,
		tracer:   otel.Tracer("letlog/policy"),
	}, nil
}

// Decide evaluates one request and returns a structured decision.
//
// The whole evaluation uses a single now snapshot so a decision straddling
// a day boundary stays internally consistent. A non-nil error means the
// decision could not be evaluated (a repository failure), not that it was
// denied; denials are decisions.
func (e *Engine) Decide(ctx context.Context, req Request) (Decision, error) {
	now := e.clock().UTC()

	ctx, span := e.tracer.Start(ctx, "policy.decide",
		trace.WithAttributes(attribute.String("policy.action", string(req.Action))))
	defer span.End()

	decision, err := e.dispatch(ctx, req, now)
	if err != nil {
		span.RecordError(err)
		return Decision{}, fmt.Errorf("decide %s: %w", req.Action, err)
	}

	if !decision.Allowed {
		decision.Reason = i18n.GetCatalog(e.cfg.Locale).Format(string(decision.Code), decision.Metadata)
	}

	span.SetAttributes(
		attribute.Bool("policy.allowed", decision.Allowed),
		attribute.String("policy.code", string(decision.Code)),
	)

	e.audit(ctx, span, req, decision, now)
	return decision, nil
}

func (e *Engine) dispatch(ctx context.Context, req Request, now time.Time) (Decision, error) {
	switch req.Action {
	case ActionAccessRoute:
		return e.decideAccessRoute(req), nil
	case ActionIssueInvitation:
		return e.decideIssueInvitation(ctx, req, now)
	case ActionAcceptInvitation:
		return e.decideAcceptInvitation(ctx, req, now)
	case ActionEndTenancy:
		return e.decideEndTenancy(ctx, req, now)
	case ActionWriteReview:
		return e.decideWriteReview(ctx, req, now)
	default:
		return Decision{}, fmt.Errorf("unknown action %q", req.Action)
	}
}

func (e *Engine) decideAccessRoute(req Request) Decision {
	verdict := e.table.CanAccess(req.Actor.Role, req.RouteID)
	if !verdict.Allowed {
		return Decision{Code: verdict.Code}
	}
	return Decision{Allowed: true}
}

func (e *Engine) decideIssueInvitation(ctx context.Context, req Request, now time.Time) (Decision, error) {
	if req.Actor.Role != role.Landlord {
		return Decision{Code: apperrors.CodeRouteRoleNotPermitted}, nil
	}

	subject, err := e.repo.GetTenancy(ctx, req.TenancyID)
	if err != nil {
		return denyOrFail(err)
	}
	if !authz.OwnsTenancy(req.Actor.UserID, subject) {
		return Decision{Code: apperrors.CodeOwnershipRequired}, nil
	}
	if subject.Status.IsTerminal() {
		return deny(apperrors.WithMetadata(
			apperrors.CodeTenancyInvalidStatusTransition,
			"cannot invite to an ended tenancy",
			map[string]string{"FromStatus": subject.Status.String(), "ToStatus": "pending"},
		)), nil
	}

	issued, err := invitation.Issue(invitation.IssueInput{
		TenancyID:   subject.ID,
		Email:       req.InviteeEmail,
		InviteeName: req.InviteeName,
		InviterID:   req.Actor.UserID,
	}, e.cfg.InvitationTTL(), func() time.Time { return now }, e.newID, e.newToken)
	if err != nil {
		return denyOrFail(err)
	}

	// Advisory pre-check for a friendly error; the storage layer's unique
	// constraint remains the authoritative guard against races.
	_, err = e.repo.FindPendingInvitation(ctx, issued.Email, subject.ID)
	switch {
	case err == nil:
		return Decision{Code: apperrors.CodeInvitationDuplicatePending}, nil
	case errors.Is(err, storage.ErrNotFound):
	default:
		return Decision{}, err
	}

	decision := Decision{Allowed: true, Invitation: &issued}
	if subject.Status == tenancy.StatusDraft {
		submitted, err := tenancy.Transition(subject, tenancy.ActionSubmit, now)
		if err != nil {
			return denyOrFail(err)
		}
		decision.Tenancy = &submitted
	}
	return decision, nil
}

func (e *Engine) decideAcceptInvitation(ctx context.Context, req Request, now time.Time) (Decision, error) {
	stored, err := e.repo.GetInvitationByToken(ctx, req.Token)
	if err != nil {
		return denyOrFail(err)
	}

	resolved, err := invitation.Accept(stored, now)
	if err != nil {
		decision := deny(err)
		if resolved.Status == invitation.StatusExpired && stored.Status == invitation.StatusPending {
			// Surface the expiry transition so the caller persists it and
			// the token cannot be retried against a stale pending row.
			decision.Invitation = &resolved
		}
		return decision, nil
	}

	decision := Decision{Allowed: true, Invitation: &resolved}

	subject, err := e.repo.GetTenancy(ctx, resolved.TenancyID)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return decision, nil
	case err != nil:
		return Decision{}, err
	}
	if subject.Status == tenancy.StatusPending {
		activated, err := tenancy.Transition(subject, tenancy.ActionActivate, now)
		if err != nil {
			return denyOrFail(err)
		}
		decision.Tenancy = &activated
	}
	return decision, nil
}

func (e *Engine) decideEndTenancy(ctx context.Context, req Request, now time.Time) (Decision, error) {
	if req.Actor.Role != role.Landlord {
		return Decision{Code: apperrors.CodeRouteRoleNotPermitted}, nil
	}

	subject, err := e.repo.GetTenancy(ctx, req.TenancyID)
	if err != nil {
		return denyOrFail(err)
	}
	if !authz.OwnsTenancy(req.Actor.UserID, subject) {
		return Decision{Code: apperrors.CodeOwnershipRequired}, nil
	}

	ended, err := tenancy.Transition(subject, tenancy.ActionEnd, now)
	if err != nil {
		return denyOrFail(err)
	}
	return Decision{Allowed: true, Tenancy: &ended}, nil
}

func (e *Engine) decideWriteReview(ctx context.Context, req Request, now time.Time) (Decision, error) {
	kind := review.KindFor(req.Actor.Role)
	if kind == review.KindUnspecified {
		return Decision{Code: apperrors.CodeRouteRoleNotPermitted}, nil
	}

	evalReq := review.Request{
		ReviewerID:   req.Actor.UserID,
		ReviewerRole: req.Actor.Role,
	}

	var linkID string
	switch {
	case req.TenancyID != "" && req.JobID == "":
		linkID = req.TenancyID
		subject, err := e.repo.GetTenancy(ctx, req.TenancyID)
		if err != nil {
			return denyOrFail(err)
		}
		evalReq.Tenancy = &subject
	case req.JobID != "" && req.TenancyID == "":
		linkID = req.JobID
		subject, err := e.repo.GetJob(ctx, req.JobID)
		if err != nil {
			return denyOrFail(err)
		}
		evalReq.Job = &subject
	default:
		return Decision{Code: apperrors.CodeReviewEmptyLink}, nil
	}

	hasPrior, err := e.repo.HasReview(ctx, req.Actor.UserID, linkID, kind)
	if err != nil {
		return Decision{}, err
	}
	evalReq.HasPriorReview = hasPrior

	eligibility := review.Evaluate(evalReq, e.cfg.ReviewWindowDays, now)
	if !eligibility.Eligible {
		return Decision{
			Code:       eligibility.Code,
			Metadata:   eligibility.Metadata,
			ReviewKind: eligibility.Kind,
		}, nil
	}
	return Decision{Allowed: true, ReviewKind: eligibility.Kind, RevieweeID: eligibility.RevieweeID}, nil
}

// deny converts a domain error into a denial decision.
func deny(err error) Decision {
	return Decision{
		Code:     apperrors.GetCode(err),
		Metadata: apperrors.GetMetadata(err),
	}
}

// denyOrFail maps domain and not-found errors to denials and passes
// repository failures through untouched.
func denyOrFail(err error) (Decision, error) {
	if errors.Is(err, storage.ErrNotFound) {
		return Decision{Code: apperrors.CodeNotFound}, nil
	}
	if apperrors.GetCode(err) != apperrors.CodeUnknown {
		return deny(err), nil
	}
	return Decision{}, err
}

// audit appends one decision record. Failures log and never affect the
// decision.
func (e *Engine) audit(ctx context.Context, span trace.Span, req Request, decision Decision, now time.Time) {
	if e.log == nil {
		return
	}
	recordID, err := e.newID()
	if err != nil {
		log.Printf("policy audit id: %v", err)
		return
	}
	record := storage.DecisionRecord{
		ID:        recordID,
		Action:    string(req.Action),
		ActorID:   req.Actor.UserID,
		ActorRole: req.Actor.Role,
		Resource:  auditResource(req, decision),
		Allowed:   decision.Allowed,
		Code:      string(decision.Code),
		DecidedAt: now,
	}
	if spanCtx := span.SpanContext(); spanCtx.IsValid() {
		record.TraceID = spanCtx.TraceID().String()
		record.SpanID = spanCtx.SpanID().String()
	}
	if err := e.log.AppendDecision(ctx, record); err != nil {
		log.Printf("policy audit append: %v", err)
	}
}

// auditResource names the resource a decision was about. Invitation tokens
// are never written to the audit log.
func auditResource(req Request, decision Decision) string {
	switch {
	case req.RouteID != "":
		return req.RouteID
	case req.TenancyID != "":
		return req.TenancyID
	case req.JobID != "":
		return req.JobID
	case decision.Invitation != nil:
		return decision.Invitation.ID
	default:
		return ""
	}
}
