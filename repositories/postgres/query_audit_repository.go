package postgres

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/lendkraft/bfsi-assistant/models"
	"github.com/lendkraft/bfsi-assistant/repositories"
)

// QueryAuditRepository implements repositories.QueryAuditRepository on
// PostgreSQL.
type QueryAuditRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewQueryAuditRepository creates a new audit repository
func NewQueryAuditRepository(db *DB, logger *zap.Logger) repositories.QueryAuditRepository {
	return &QueryAuditRepository{
		db:     db,
		logger: logger,
	}
}

// Insert inserts a new audit log entry
func (r *QueryAuditRepository) Insert(ctx context.Context, log *models.QueryAuditLog) error {
	query := `
		INSERT INTO query_audit_logs (
			id, query, tier, confidence, source_id, matched_instruction,
			reject_reason, request_id, latency_ms, timestamp
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10
		)
	`

	_, err := r.db.ExecContext(ctx, query,
		log.ID,
		log.Query,
		log.Tier,
		log.Confidence,
		log.SourceID,
		log.MatchedInstruction,
		log.RejectReason,
		log.RequestID,
		log.LatencyMs,
		log.Timestamp,
	)

	if err != nil {
		return fmt.Errorf("failed to insert audit log: %w", err)
	}

	r.logger.Debug("audit log inserted",
		zap.String("id", log.ID.String()),
		zap.String("tier", log.Tier))
	return nil
}

// GetRecent retrieves the newest audit entries, most recent first
func (r *QueryAuditRepository) GetRecent(ctx context.Context, limit int) ([]*models.QueryAuditLog, error) {
	query := `
		SELECT id, query, tier, confidence, source_id, matched_instruction,
		       reject_reason, request_id, latency_ms, timestamp
		FROM query_audit_logs
		ORDER BY timestamp DESC
		LIMIT $1
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit logs: %w", err)
	}
	defer rows.Close()

	var logs []*models.QueryAuditLog
	for rows.Next() {
		log := &models.QueryAuditLog{}
		err := rows.Scan(
			&log.ID,
			&log.Query,
			&log.Tier,
			&log.Confidence,
			&log.SourceID,
			&log.MatchedInstruction,
			&log.RejectReason,
			&log.RequestID,
			&log.LatencyMs,
			&log.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit log: %w", err)
		}
		logs = append(logs, log)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate audit logs: %w", err)
	}

	return logs, nil
}

// CountByTier returns the number of recorded entries per tier
func (r *QueryAuditRepository) CountByTier(ctx context.Context) (map[string]int, error) {
	query := `
		SELECT tier, COUNT(*)
		FROM query_audit_logs
		GROUP BY tier
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to count audit logs: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var tier string
		var count int
		if err := rows.Scan(&tier, &count); err != nil {
			return nil, fmt.Errorf("failed to scan tier count: %w", err)
		}
		counts[tier] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tier counts: %w", err)
	}

	return counts, nil
}
