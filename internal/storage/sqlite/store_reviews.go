package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/aarons2222/letlog/internal/review"
	"github.com/aarons2222/letlog/internal/storage"
)

// PutReview inserts one write-once review.
//
// The unique index over (reviewer_id, link_id, kind) rejects a second
// review of the same relationship; its violation maps to ErrAlreadyExists.
func (s *Store) PutReview(ctx context.Context, r review.Review) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(r.ID) == "" {
		return fmt.Errorf("review id is required")
	}
	linkID := r.LinkID()
	if linkID == "" {
		return fmt.Errorf("review link is required")
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO reviews (
		   id, reviewer_id, reviewee_id, kind, rating,
		   communication_rating, reliability_rating, body,
		   tenancy_id, job_id, link_id, created_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID,
		r.ReviewerID,
		r.RevieweeID,
		r.Kind.String(),
		r.Rating,
		r.SubRatings.Communication,
		r.SubRatings.Reliability,
		r.Text,
		r.TenancyID,
		r.JobID,
		linkID,
		toMillis(r.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err, "") {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("put review: %w", err)
	}
	return nil
}

// HasReview reports whether a review already exists for one
// (reviewer, link, kind) relationship.
func (s *Store) HasReview(ctx context.Context, reviewerID string, linkID string, kind review.Kind) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if s == nil || s.sqlDB == nil {
		return false, fmt.Errorf("storage is not configured")
	}

	var count int
	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT COUNT(*) FROM reviews
		  WHERE reviewer_id = ? AND link_id = ? AND kind = ?`,
		reviewerID,
		linkID,
		kind.String(),
	)
	if err := row.Scan(&count); err != nil {
		return false, fmt.Errorf("has review: %w", err)
	}
	return count > 0, nil
}
