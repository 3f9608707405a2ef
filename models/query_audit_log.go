package models

import (
	"time"

	"github.com/google/uuid"
)

// QueryAuditLog records a single routing decision for compliance review.
// Rows are written asynchronously by the audit service and are operational
// telemetry only; they are never read back on the query path.
type QueryAuditLog struct {
	ID                 uuid.UUID `json:"id" db:"id"`
	Query              string    `json:"query" db:"query"`
	Tier               string    `json:"tier" db:"tier"`
	Confidence         float64   `json:"confidence" db:"confidence"`
	SourceID           *string   `json:"source_id,omitempty" db:"source_id"`
	MatchedInstruction *string   `json:"matched_instruction,omitempty" db:"matched_instruction"`
	RejectReason       *string   `json:"reject_reason,omitempty" db:"reject_reason"`
	RequestID          string    `json:"request_id" db:"request_id"`
	LatencyMs          int       `json:"latency_ms" db:"latency_ms"`
	Timestamp          time.Time `json:"timestamp" db:"timestamp"`
}

// TableName returns the table name for the QueryAuditLog model.
func (QueryAuditLog) TableName() string {
	return "query_audit_logs"
}

// NewQueryAuditLog creates a new audit entry with a fresh ID and timestamp.
func NewQueryAuditLog(query, tier string, confidence float64) *QueryAuditLog {
	return &QueryAuditLog{
		ID:         uuid.New(),
		Query:      query,
		Tier:       tier,
		Confidence: confidence,
		Timestamp:  time.Now().UTC(),
	}
}

// WithSource attaches provenance metadata to the entry.
func (l *QueryAuditLog) WithSource(sourceID, matchedInstruction string) *QueryAuditLog {
	if sourceID != "" {
		l.SourceID = &sourceID
	}
	if matchedInstruction != "" {
		l.MatchedInstruction = &matchedInstruction
	}
	return l
}

// WithRejection attaches the guardrail reason code to the entry.
func (l *QueryAuditLog) WithRejection(reason string) *QueryAuditLog {
	if reason != "" {
		l.RejectReason = &reason
	}
	return l
}
