// Package repositories defines the persistence interfaces consumed by the
// service layer. Implementations live in subpackages named after the backing
// store.
package repositories

import (
	"context"

	"github.com/lendkraft/bfsi-assistant/models"
)

// QueryAuditRepository persists routing decisions for compliance review.
type QueryAuditRepository interface {
	// Insert writes one audit entry. Called from background workers only;
	// it must never be invoked on the query path.
	Insert(ctx context.Context, log *models.QueryAuditLog) error

	// GetRecent returns the newest entries, most recent first.
	GetRecent(ctx context.Context, limit int) ([]*models.QueryAuditLog, error)

	// CountByTier returns how many entries were recorded per tier.
	CountByTier(ctx context.Context) (map[string]int, error)
}
