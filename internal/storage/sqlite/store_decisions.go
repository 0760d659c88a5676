package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/aarons2222/letlog/internal/storage"
)

// AppendDecision stores one audited policy decision.
func (s *Store) AppendDecision(ctx context.Context, record storage.DecisionRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(record.ID) == "" {
		return fmt.Errorf("decision id is required")
	}
	if strings.TrimSpace(record.Action) == "" {
		return fmt.Errorf("decision action is required")
	}

	allowed := 0
	if record.Allowed {
		allowed = 1
	}
	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO policy_decisions (
		   id, action, actor_id, actor_role, resource,
		   allowed, code, trace_id, span_id, decided_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.Action,
		record.ActorID,
		record.ActorRole.String(),
		record.Resource,
		allowed,
		record.Code,
		record.TraceID,
		record.SpanID,
		toMillis(record.DecidedAt),
	)
	if err != nil {
		return fmt.Errorf("append decision: %w", err)
	}
	return nil
}
