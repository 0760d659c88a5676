package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/aarons2222/letlog/internal/job"
	"github.com/aarons2222/letlog/internal/role"
	"github.com/aarons2222/letlog/internal/storage"
)

// PutProperty inserts one property ownership record.
func (s *Store) PutProperty(ctx context.Context, p storage.Property) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("property id is required")
	}
	if strings.TrimSpace(p.LandlordID) == "" {
		return fmt.Errorf("landlord id is required")
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO properties (id, landlord_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?)`,
		p.ID,
		p.LandlordID,
		toMillis(p.CreatedAt),
		toMillis(p.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err, "properties.id") {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("put property: %w", err)
	}
	return nil
}

// GetProperty returns one property by ID.
func (s *Store) GetProperty(ctx context.Context, id string) (storage.Property, error) {
	if err := ctx.Err(); err != nil {
		return storage.Property{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.Property{}, fmt.Errorf("storage is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return storage.Property{}, fmt.Errorf("property id is required")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT id, landlord_id, created_at, updated_at
		   FROM properties WHERE id = ?`,
		id,
	)
	var p storage.Property
	var createdAt int64
	var updatedAt int64
	if err := row.Scan(&p.ID, &p.LandlordID, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.Property{}, storage.ErrNotFound
		}
		return storage.Property{}, fmt.Errorf("get property: %w", err)
	}
	p.CreatedAt = fromMillis(createdAt)
	p.UpdatedAt = fromMillis(updatedAt)
	return p, nil
}

// PutUser inserts one account profile.
func (s *Store) PutUser(ctx context.Context, u storage.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(u.ID) == "" {
		return fmt.Errorf("user id is required")
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO users (id, role, display_name, email, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		u.ID,
		u.Role.String(),
		u.DisplayName,
		u.Email,
		toMillis(u.CreatedAt),
		toMillis(u.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err, "users.id") {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("put user: %w", err)
	}
	return nil
}

// GetUser returns one account profile by ID.
func (s *Store) GetUser(ctx context.Context, id string) (storage.User, error) {
	if err := ctx.Err(); err != nil {
		return storage.User{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.User{}, fmt.Errorf("storage is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return storage.User{}, fmt.Errorf("user id is required")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT id, role, display_name, email, created_at, updated_at
		   FROM users WHERE id = ?`,
		id,
	)
	var u storage.User
	var roleLabel string
	var createdAt int64
	var updatedAt int64
	if err := row.Scan(&u.ID, &roleLabel, &u.DisplayName, &u.Email, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.User{}, storage.ErrNotFound
		}
		return storage.User{}, fmt.Errorf("get user: %w", err)
	}
	parsed, err := role.Parse(roleLabel)
	if err == nil {
		u.Role = parsed
	}
	u.CreatedAt = fromMillis(createdAt)
	u.UpdatedAt = fromMillis(updatedAt)
	return u, nil
}

// PutJob inserts one tender/quote job record.
func (s *Store) PutJob(ctx context.Context, j job.Job) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(j.ID) == "" {
		return fmt.Errorf("job id is required")
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO jobs (id, tender_id, landlord_id, contractor_id,
		       tender_status, quote_status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		j.ID,
		j.TenderID,
		j.LandlordID,
		j.ContractorID,
		j.TenderStatus.String(),
		j.QuoteStatus.String(),
		toMillis(j.CreatedAt),
		toMillis(j.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err, "jobs.id") {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("put job: %w", err)
	}
	return nil
}

// GetJob returns one job by ID.
func (s *Store) GetJob(ctx context.Context, id string) (job.Job, error) {
	if err := ctx.Err(); err != nil {
		return job.Job{}, err
	}
	if s == nil || s.sqlDB == nil {
		return job.Job{}, fmt.Errorf("storage is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return job.Job{}, fmt.Errorf("job id is required")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT id, tender_id, landlord_id, contractor_id,
		        tender_status, quote_status, created_at, updated_at
		   FROM jobs WHERE id = ?`,
		id,
	)
	var j job.Job
	var tenderStatus string
	var quoteStatus string
	var createdAt int64
	var updatedAt int64
	if err := row.Scan(
		&j.ID,
		&j.TenderID,
		&j.LandlordID,
		&j.ContractorID,
		&tenderStatus,
		&quoteStatus,
		&createdAt,
		&updatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return job.Job{}, storage.ErrNotFound
		}
		return job.Job{}, fmt.Errorf("get job: %w", err)
	}
	j.TenderStatus = job.ParseTenderStatus(tenderStatus)
	j.QuoteStatus = job.ParseQuoteStatus(quoteStatus)
	j.CreatedAt = fromMillis(createdAt)
	j.UpdatedAt = fromMillis(updatedAt)
	return j, nil
}
