package httpapi

import (
	"errors"
	"net/http"
	"time"

	apperrors "github.com/aarons2222/letlog/internal/platform/errors"
	"github.com/aarons2222/letlog/internal/policy"
	"github.com/aarons2222/letlog/internal/review"
	"github.com/aarons2222/letlog/internal/storage"
)

// createReviewRequest deliberately has no reviewee field; the subject of
// the review comes from the decided link record, never from the client.
type createReviewRequest struct {
	TenancyID     string `json:"tenancy_id,omitempty"`
	JobID         string `json:"job_id,omitempty"`
	Rating        int    `json:"rating"`
	Communication int    `json:"communication,omitempty"`
	Reliability   int    `json:"reliability,omitempty"`
	Text          string `json:"text,omitempty"`
}

type reviewResponse struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Rating    int       `json:"rating"`
	TenancyID string    `json:"tenancy_id,omitempty"`
	JobID     string    `json:"job_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (h *Handler) handleCreateReview(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var body createReviewRequest
	if err := decodeBody(r, &body); err != nil {
		writeError(w, apperrors.Wrap(apperrors.CodeReviewInvalidRating, "invalid request body", err))
		return
	}

	decision, err := h.engine.Decide(r.Context(), policy.Request{
		Action:    policy.ActionWriteReview,
		Actor:     actor,
		TenancyID: body.TenancyID,
		JobID:     body.JobID,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	if !decision.Allowed {
		writeDenial(w, decision)
		return
	}

	created, err := review.CreateReview(review.CreateReviewInput{
		ReviewerID: actor.UserID,
		RevieweeID: decision.RevieweeID,
		Kind:       decision.ReviewKind,
		Rating:     body.Rating,
		SubRatings: review.SubRatings{
			Communication: body.Communication,
			Reliability:   body.Reliability,
		},
		Text:      body.Text,
		TenancyID: body.TenancyID,
		JobID:     body.JobID,
	}, h.now, nil)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.store.PutReview(r.Context(), created); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			writeDenial(w, policy.Decision{Code: apperrors.CodeReviewAlreadySubmitted})
			return
		}
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, reviewResponse{
		ID:        created.ID,
		Kind:      created.Kind.String(),
		Rating:    created.Rating,
		TenancyID: created.TenancyID,
		JobID:     created.JobID,
		CreatedAt: created.CreatedAt,
	})
}
