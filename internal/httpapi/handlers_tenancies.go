package httpapi

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/aarons2222/letlog/internal/notify"
	"github.com/aarons2222/letlog/internal/policy"
	"github.com/aarons2222/letlog/internal/tenancy"
)

type tenancyResponse struct {
	ID         string     `json:"id"`
	PropertyID string     `json:"property_id"`
	Status     string     `json:"status"`
	EndedAt    *time.Time `json:"ended_at,omitempty"`
}

func tenancyToResponse(t tenancy.Tenancy) tenancyResponse {
	return tenancyResponse{
		ID:         t.ID,
		PropertyID: t.PropertyID,
		Status:     t.Status.String(),
		EndedAt:    t.EndedAt,
	}
}

func (h *Handler) handleEndTenancy(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	tenancyID := strings.TrimSpace(r.PathValue("tenancyID"))

	decision, err := h.engine.Decide(r.Context(), policy.Request{
		Action:    policy.ActionEndTenancy,
		Actor:     actor,
		TenancyID: tenancyID,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	if !decision.Allowed {
		writeDenial(w, decision)
		return
	}

	ended := *decision.Tenancy
	if err := h.store.UpdateTenancy(r.Context(), ended); err != nil {
		writeError(w, err)
		return
	}

	endedAt := time.Time{}
	if ended.EndedAt != nil {
		endedAt = *ended.EndedAt
	}
	if err := h.notifier.TenancyEnded(r.Context(), notify.TenancyEnded{
		TenancyID:    ended.ID,
		PropertyID:   ended.PropertyID,
		LandlordID:   ended.LandlordID,
		LeadTenantID: ended.LeadTenantID,
		EndedAt:      endedAt,
	}); err != nil {
		log.Printf("notify tenancy ended: %v", err)
	}

	writeJSON(w, http.StatusOK, tenancyToResponse(ended))
}

type eligibilityResponse struct {
	Eligible bool   `json:"eligible"`
	Kind     string `json:"kind,omitempty"`
	Code     string `json:"code,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// handleReviewEligibility answers whether the actor could review the
// other party of a tenancy right now, without writing anything. UIs use
// it to decide whether to render the review prompt.
func (h *Handler) handleReviewEligibility(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	tenancyID := strings.TrimSpace(r.PathValue("tenancyID"))

	decision, err := h.engine.Decide(r.Context(), policy.Request{
		Action:    policy.ActionWriteReview,
		Actor:     actor,
		TenancyID: tenancyID,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, eligibilityResponse{
		Eligible: decision.Allowed,
		Kind:     decision.ReviewKind.String(),
		Code:     string(decision.Code),
		Reason:   decision.Reason,
	})
}
