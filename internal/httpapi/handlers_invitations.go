package httpapi

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/aarons2222/letlog/internal/invitation"
	"github.com/aarons2222/letlog/internal/notify"
	apperrors "github.com/aarons2222/letlog/internal/platform/errors"
	"github.com/aarons2222/letlog/internal/policy"
	"github.com/aarons2222/letlog/internal/storage"
)

type issueInvitationRequest struct {
	Email       string `json:"email"`
	InviteeName string `json:"invitee_name,omitempty"`
}

type invitationResponse struct {
	ID          string     `json:"id"`
	TenancyID   string     `json:"tenancy_id"`
	Email       string     `json:"email"`
	InviteeName string     `json:"invitee_name,omitempty"`
	Status      string     `json:"status"`
	ExpiresAt   time.Time  `json:"expires_at"`
	AcceptedAt  *time.Time `json:"accepted_at,omitempty"`
}

func invitationToResponse(inv invitation.Invitation) invitationResponse {
	return invitationResponse{
		ID:          inv.ID,
		TenancyID:   inv.TenancyID,
		Email:       inv.Email,
		InviteeName: inv.InviteeName,
		Status:      inv.Status.String(),
		ExpiresAt:   inv.ExpiresAt,
		AcceptedAt:  inv.AcceptedAt,
	}
}

func (h *Handler) handleIssueInvitation(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	tenancyID := strings.TrimSpace(r.PathValue("tenancyID"))

	var body issueInvitationRequest
	if err := decodeBody(r, &body); err != nil {
		writeError(w, apperrors.Wrap(apperrors.CodeInvitationInvalidEmail, "invalid request body", err))
		return
	}

	decision, err := h.engine.Decide(r.Context(), policy.Request{
		Action:       policy.ActionIssueInvitation,
		Actor:        actor,
		TenancyID:    tenancyID,
		InviteeEmail: body.Email,
		InviteeName:  body.InviteeName,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	if !decision.Allowed {
		writeDenial(w, decision)
		return
	}

	issued := *decision.Invitation
	if err := h.store.PutInvitation(r.Context(), issued); err != nil {
		if errors.Is(err, storage.ErrDuplicatePending) {
			// A concurrent issue won the race; report it the same way the
			// engine's own pre-check would have.
			writeDenial(w, policy.Decision{Code: apperrors.CodeInvitationDuplicatePending})
			return
		}
		writeError(w, err)
		return
	}
	if decision.Tenancy != nil {
		if err := h.store.UpdateTenancy(r.Context(), *decision.Tenancy); err != nil {
			writeError(w, err)
			return
		}
	}

	if err := h.notifier.InvitationIssued(r.Context(), notify.InvitationIssued{
		InvitationID: issued.ID,
		TenancyID:    issued.TenancyID,
		Email:        issued.Email,
		InviteeName:  issued.InviteeName,
		InviterID:    issued.InviterID,
		Token:        issued.Token,
		ExpiresAt:    issued.ExpiresAt,
	}); err != nil {
		log.Printf("notify invitation issued: %v", err)
	}

	writeJSON(w, http.StatusCreated, invitationToResponse(issued))
}

type acceptInvitationRequest struct {
	Token string `json:"token"`
}

func (h *Handler) handleAcceptInvitation(w http.ResponseWriter, r *http.Request) {
	var body acceptInvitationRequest
	if err := decodeBody(r, &body); err != nil {
		writeError(w, apperrors.Wrap(apperrors.CodeIdentityTokenInvalid, "invalid request body", err))
		return
	}

	decision, err := h.engine.Decide(r.Context(), policy.Request{
		Action: policy.ActionAcceptInvitation,
		Actor:  requestActor(r),
		Token:  strings.TrimSpace(body.Token),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	if !decision.Allowed {
		// An expiry discovered at accept time is persisted before the
		// denial goes out, so a retry of the same token stays denied.
		if decision.Invitation != nil && decision.Invitation.Status == invitation.StatusExpired {
			if err := h.store.MarkInvitationExpired(r.Context(), decision.Invitation.ID, h.now().UTC()); err != nil && !errors.Is(err, storage.ErrConflict) {
				log.Printf("mark invitation expired: %v", err)
			}
		}
		writeDenial(w, decision)
		return
	}

	accepted := *decision.Invitation
	stored, err := h.store.MarkInvitationAccepted(r.Context(), accepted.ID, h.now().UTC())
	if err != nil {
		if errors.Is(err, storage.ErrConflict) {
			writeDenial(w, policy.Decision{Code: apperrors.CodeInvitationAlreadyUsed})
			return
		}
		writeError(w, err)
		return
	}
	if decision.Tenancy != nil {
		if err := h.store.UpdateTenancy(r.Context(), *decision.Tenancy); err != nil {
			writeError(w, err)
			return
		}
	}

	writeJSON(w, http.StatusOK, invitationToResponse(stored))
}

// handleInvitationLookup resolves a token so the invitee page can render
// who invited them and when the link dies. The route is public; the token
// itself is the credential.
func (h *Handler) handleInvitationLookup(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimSpace(r.PathValue("token"))
	if token == "" {
		writeNotFound(w)
		return
	}

	inv, err := h.store.GetInvitationByToken(r.Context(), token)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeNotFound(w)
			return
		}
		writeError(w, err)
		return
	}

	// Report expiry even if the sweeper has not visited the row yet.
	if inv.Status == invitation.StatusPending && h.now().UTC().After(inv.ExpiresAt) {
		inv.Status = invitation.StatusExpired
	}
	writeJSON(w, http.StatusOK, invitationToResponse(inv))
}
