package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aarons2222/letlog/internal/invitation"
	"github.com/aarons2222/letlog/internal/storage"
)

const invitationColumns = `id, token, tenancy_id, email, invitee_name,
        inviter_id, status, issued_at, expires_at, accepted_at,
        created_at, updated_at`

// PutInvitation inserts one invitation record.
//
// The partial unique index over pending (email, tenancy_id) pairs is the
// authoritative duplicate guard; its violation maps to ErrDuplicatePending.
func (s *Store) PutInvitation(ctx context.Context, inv invitation.Invitation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(inv.ID) == "" {
		return fmt.Errorf("invitation id is required")
	}
	if strings.TrimSpace(inv.Token) == "" {
		return fmt.Errorf("invitation token is required")
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO invitations (`+invitationColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		inv.ID,
		inv.Token,
		inv.TenancyID,
		inv.Email,
		inv.InviteeName,
		inv.InviterID,
		inv.Status.String(),
		toMillis(inv.IssuedAt),
		toMillis(inv.ExpiresAt),
		nullMillis(inv.AcceptedAt),
		toMillis(inv.CreatedAt),
		toMillis(inv.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err, "invitations.email") {
			return storage.ErrDuplicatePending
		}
		if isUniqueViolation(err, "") {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("put invitation: %w", err)
	}
	return nil
}

// GetInvitationByToken returns one invitation by its opaque token.
func (s *Store) GetInvitationByToken(ctx context.Context, token string) (invitation.Invitation, error) {
	if err := ctx.Err(); err != nil {
		return invitation.Invitation{}, err
	}
	if s == nil || s.sqlDB == nil {
		return invitation.Invitation{}, fmt.Errorf("storage is not configured")
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return invitation.Invitation{}, fmt.Errorf("invitation token is required")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT `+invitationColumns+` FROM invitations WHERE token = ?`,
		token,
	)
	inv, err := scanInvitation(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return invitation.Invitation{}, storage.ErrNotFound
		}
		return invitation.Invitation{}, fmt.Errorf("get invitation by token: %w", err)
	}
	return inv, nil
}

// FindPendingInvitation returns the pending invitation for one
// (email, tenancy) pair, if any.
func (s *Store) FindPendingInvitation(ctx context.Context, email string, tenancyID string) (invitation.Invitation, error) {
	if err := ctx.Err(); err != nil {
		return invitation.Invitation{}, err
	}
	if s == nil || s.sqlDB == nil {
		return invitation.Invitation{}, fmt.Errorf("storage is not configured")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT `+invitationColumns+`
		   FROM invitations
		  WHERE email = ? AND tenancy_id = ? AND status = 'pending'`,
		email,
		tenancyID,
	)
	inv, err := scanInvitation(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return invitation.Invitation{}, storage.ErrNotFound
		}
		return invitation.Invitation{}, fmt.Errorf("find pending invitation: %w", err)
	}
	return inv, nil
}

// MarkInvitationAccepted transitions a pending invitation to accepted.
//
// The update is conditional on the stored status so concurrent accepts
// converge: a retry against an already-accepted row returns the stored
// record with its original accepted_at, while a row that moved to a
// different terminal state returns ErrConflict.
func (s *Store) MarkInvitationAccepted(ctx context.Context, invitationID string, acceptedAt time.Time) (invitation.Invitation, error) {
	if err := ctx.Err(); err != nil {
		return invitation.Invitation{}, err
	}
	if s == nil || s.sqlDB == nil {
		return invitation.Invitation{}, fmt.Errorf("storage is not configured")
	}
	invitationID = strings.TrimSpace(invitationID)
	if invitationID == "" {
		return invitation.Invitation{}, fmt.Errorf("invitation id is required")
	}

	result, err := s.sqlDB.ExecContext(
		ctx,
		`UPDATE invitations
		    SET status = 'accepted', accepted_at = ?, updated_at = ?
		  WHERE id = ? AND status = 'pending'`,
		toMillis(acceptedAt),
		toMillis(acceptedAt),
		invitationID,
	)
	if err != nil {
		return invitation.Invitation{}, fmt.Errorf("mark invitation accepted: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return invitation.Invitation{}, fmt.Errorf("mark invitation accepted: %w", err)
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT `+invitationColumns+` FROM invitations WHERE id = ?`,
		invitationID,
	)
	stored, err := scanInvitation(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return invitation.Invitation{}, storage.ErrNotFound
		}
		return invitation.Invitation{}, fmt.Errorf("mark invitation accepted: %w", err)
	}
	if affected == 0 && stored.Status != invitation.StatusAccepted {
		return invitation.Invitation{}, storage.ErrConflict
	}
	return stored, nil
}

// MarkInvitationExpired transitions a pending invitation to expired.
func (s *Store) MarkInvitationExpired(ctx context.Context, invitationID string, expiredAt time.Time) error {
	return s.markInvitationTerminal(ctx, invitationID, "expired", expiredAt)
}

// MarkInvitationRevoked transitions a pending invitation to revoked.
func (s *Store) MarkInvitationRevoked(ctx context.Context, invitationID string, revokedAt time.Time) error {
	return s.markInvitationTerminal(ctx, invitationID, "revoked", revokedAt)
}

func (s *Store) markInvitationTerminal(ctx context.Context, invitationID string, status string, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	invitationID = strings.TrimSpace(invitationID)
	if invitationID == "" {
		return fmt.Errorf("invitation id is required")
	}

	result, err := s.sqlDB.ExecContext(
		ctx,
		`UPDATE invitations
		    SET status = ?, updated_at = ?
		  WHERE id = ? AND status = 'pending'`,
		status,
		toMillis(at),
		invitationID,
	)
	if err != nil {
		return fmt.Errorf("mark invitation %s: %w", status, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark invitation %s: %w", status, err)
	}
	if affected == 0 {
		return storage.ErrConflict
	}
	return nil
}

// ListPendingInvitationsExpiringBefore returns pending invitations whose
// expiry precedes the cutoff, oldest first.
func (s *Store) ListPendingInvitationsExpiringBefore(ctx context.Context, cutoff time.Time, limit int) ([]invitation.Invitation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than zero")
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT `+invitationColumns+`
		   FROM invitations
		  WHERE status = 'pending' AND expires_at < ?
		  ORDER BY expires_at ASC
		  LIMIT ?`,
		toMillis(cutoff),
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list pending invitations: %w", err)
	}
	defer rows.Close()

	var due []invitation.Invitation
	for rows.Next() {
		inv, err := scanInvitation(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("list pending invitations: %w", err)
		}
		due = append(due, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list pending invitations: %w", err)
	}
	return due, nil
}

func scanInvitation(scan func(dest ...any) error) (invitation.Invitation, error) {
	var inv invitation.Invitation
	var status string
	var issuedAt int64
	var expiresAt int64
	var acceptedAt sql.NullInt64
	var createdAt int64
	var updatedAt int64
	if err := scan(
		&inv.ID,
		&inv.Token,
		&inv.TenancyID,
		&inv.Email,
		&inv.InviteeName,
		&inv.InviterID,
		&status,
		&issuedAt,
		&expiresAt,
		&acceptedAt,
		&createdAt,
		&updatedAt,
	); err != nil {
		return invitation.Invitation{}, err
	}
	inv.Status = invitation.ParseStatus(status)
	inv.IssuedAt = fromMillis(issuedAt)
	inv.ExpiresAt = fromMillis(expiresAt)
	inv.AcceptedAt = millisPtr(acceptedAt)
	inv.CreatedAt = fromMillis(createdAt)
	inv.UpdatedAt = fromMillis(updatedAt)
	return inv, nil
}
