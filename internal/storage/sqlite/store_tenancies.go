package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aarons2222/letlog/internal/storage"
	"github.com/aarons2222/letlog/internal/tenancy"
)

const tenancyColumns = `id, property_id, landlord_id, lead_tenant_id,
        secondary_tenant_ids, start_date, end_date, status, ended_at,
        created_at, updated_at`

// PutTenancy inserts one tenancy record.
func (s *Store) PutTenancy(ctx context.Context, t tenancy.Tenancy) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(t.ID) == "" {
		return fmt.Errorf("tenancy id is required")
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO tenancies (`+tenancyColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID,
		t.PropertyID,
		t.LandlordID,
		t.LeadTenantID,
		joinIDs(t.SecondaryTenantIDs),
		toMillis(t.StartDate),
		nullMillis(t.EndDate),
		t.Status.String(),
		nullMillis(t.EndedAt),
		toMillis(t.CreatedAt),
		toMillis(t.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err, "tenancies.id") {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("put tenancy: %w", err)
	}
	return nil
}

// GetTenancy returns one tenancy by ID.
func (s *Store) GetTenancy(ctx context.Context, id string) (tenancy.Tenancy, error) {
	if err := ctx.Err(); err != nil {
		return tenancy.Tenancy{}, err
	}
	if s == nil || s.sqlDB == nil {
		return tenancy.Tenancy{}, fmt.Errorf("storage is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return tenancy.Tenancy{}, fmt.Errorf("tenancy id is required")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT `+tenancyColumns+` FROM tenancies WHERE id = ?`,
		id,
	)
	t, err := scanTenancy(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return tenancy.Tenancy{}, storage.ErrNotFound
		}
		return tenancy.Tenancy{}, fmt.Errorf("get tenancy: %w", err)
	}
	return t, nil
}

// UpdateTenancy replaces a stored tenancy's mutable fields.
func (s *Store) UpdateTenancy(ctx context.Context, t tenancy.Tenancy) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(t.ID) == "" {
		return fmt.Errorf("tenancy id is required")
	}

	result, err := s.sqlDB.ExecContext(
		ctx,
		`UPDATE tenancies
		    SET lead_tenant_id = ?,
		        secondary_tenant_ids = ?,
		        end_date = ?,
		        status = ?,
		        ended_at = ?,
		        updated_at = ?
		  WHERE id = ?`,
		t.LeadTenantID,
		joinIDs(t.SecondaryTenantIDs),
		nullMillis(t.EndDate),
		t.Status.String(),
		nullMillis(t.EndedAt),
		toMillis(t.UpdatedAt),
		t.ID,
	)
	if err != nil {
		return fmt.Errorf("update tenancy: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update tenancy: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func scanTenancy(scan func(dest ...any) error) (tenancy.Tenancy, error) {
	var t tenancy.Tenancy
	var secondaryIDs string
	var startDate int64
	var endDate sql.NullInt64
	var status string
	var endedAt sql.NullInt64
	var createdAt int64
	var updatedAt int64
	if err := scan(
		&t.ID,
		&t.PropertyID,
		&t.LandlordID,
		&t.LeadTenantID,
		&secondaryIDs,
		&startDate,
		&endDate,
		&status,
		&endedAt,
		&createdAt,
		&updatedAt,
	); err != nil {
		return tenancy.Tenancy{}, err
	}
	t.SecondaryTenantIDs = splitIDs(secondaryIDs)
	t.StartDate = fromMillis(startDate)
	t.EndDate = millisPtr(endDate)
	t.Status = tenancy.ParseStatus(status)
	t.EndedAt = millisPtr(endedAt)
	t.CreatedAt = fromMillis(createdAt)
	t.UpdatedAt = fromMillis(updatedAt)
	return t, nil
}

func nullMillis(value *time.Time) sql.NullInt64 {
	if value == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: toMillis(*value), Valid: true}
}

func millisPtr(value sql.NullInt64) *time.Time {
	if !value.Valid {
		return nil
	}
	restored := fromMillis(value.Int64)
	return &restored
}

// joinIDs packs secondary tenant IDs into one column. IDs never contain
// commas.
func joinIDs(ids []string) string {
	return strings.Join(ids, ",")
}

func splitIDs(value string) []string {
	if value == "" {
		return nil
	}
	return strings.Split(value, ",")
}
