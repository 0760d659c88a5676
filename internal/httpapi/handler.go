package httpapi

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/aarons2222/letlog/internal/identity"
	"github.com/aarons2222/letlog/internal/notify"
	apperrors "github.com/aarons2222/letlog/internal/platform/errors"
	"github.com/aarons2222/letlog/internal/policy"
	"github.com/aarons2222/letlog/internal/storage"
)

// Decider evaluates policy decisions. Satisfied by *policy.Engine.
type Decider interface {
	Decide(ctx context.Context, req policy.Request) (policy.Decision, error)
}

// Store is the persistence surface handlers write through once a decision
// authorized the mutation.
type Store interface {
	storage.TenancyStore
	storage.InvitationStore
	storage.ReviewStore
}

// Handler routes policy API requests.
type Handler struct {
	engine   Decider
	store    Store
	notifier notify.Notifier
	identity identity.Config
	now      func() time.Time
}

// HandlerOptions configures a Handler.
type HandlerOptions struct {
	Engine   Decider
	Store    Store
	Notifier notify.Notifier
	Identity identity.Config
	Now      func() time.Time
}

// NewHandler creates an API handler.
func NewHandler(opts HandlerOptions) *Handler {
	if opts.Notifier == nil {
		opts.Notifier = notify.LogNotifier{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Handler{
		engine:   opts.Engine,
		store:    opts.Store,
		notifier: opts.Notifier,
		identity: opts.Identity,
		now:      opts.Now,
	}
}

// Register mounts all API routes on the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET "+Health, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("POST "+TenancyInvitationsPattern, h.guarded(h.handleIssueInvitation))
	mux.HandleFunc("POST "+TenancyEndPattern, h.guarded(h.handleEndTenancy))
	mux.HandleFunc("GET "+TenancyReviewEligibilityPattern, h.guarded(h.handleReviewEligibility))
	mux.HandleFunc("POST "+InvitationAccept, h.guarded(h.handleAcceptInvitation))
	mux.HandleFunc("GET "+InvitationPattern, h.guarded(h.handleInvitationLookup))
	mux.HandleFunc("POST "+Reviews, h.guarded(h.handleCreateReview))
}

type errorResponse struct {
	Code   string `json:"code"`
	Reason string `json:"reason,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encoder := json.NewEncoder(w)
	_ = encoder.Encode(payload)
}

// writeDenial renders a denied decision. Ownership denials become a plain
// 404 so the response does not confirm the resource exists.
func writeDenial(w http.ResponseWriter, decision policy.Decision) {
	code := decision.Code
	reason := decision.Reason
	if code == apperrors.CodeOwnershipRequired {
		code = apperrors.CodeNotFound
		reason = ""
	}
	writeJSON(w, code.HTTPStatus(), errorResponse{Code: string(code), Reason: reason})
}

func writeError(w http.ResponseWriter, err error) {
	code := apperrors.GetCode(err)
	if code == apperrors.CodeUnknown {
		log.Printf("httpapi internal error: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Code: string(apperrors.CodeUnknown)})
		return
	}
	writeJSON(w, code.HTTPStatus(), errorResponse{Code: string(code), Reason: err.Error()})
}

func writeNotFound(w http.ResponseWriter) {
	writeJSON(w, http.StatusNotFound, errorResponse{Code: string(apperrors.CodeNotFound)})
}

func decodeBody(r *http.Request, target any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(target)
}
