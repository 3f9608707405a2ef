package assistant

import (
	"github.com/lendkraft/bfsi-assistant/models"
	"github.com/lendkraft/bfsi-assistant/services/guardrail"
	"github.com/lendkraft/bfsi-assistant/services/knowledge"
	"github.com/lendkraft/bfsi-assistant/services/matcher"
)

// Version identifies the assistant core for the info endpoint.
const Version = "1.2.0"

// pipelineState is one node of the routing state machine. The machine is
// strictly forward-progressing: no state is ever revisited and every query
// terminates in at most five transitions.
type pipelineState int

const (
	stateStart pipelineState = iota
	stateGuardrail
	stateTier1
	stateTier2
	stateTier3
	stateFinalize
	stateDone
	stateRejected
)

func (s pipelineState) String() string {
	switch s {
	case stateStart:
		return "start"
	case stateGuardrail:
		return "guardrail"
	case stateTier1:
		return "tier1"
	case stateTier2:
		return "tier2"
	case stateTier3:
		return "tier3"
	case stateFinalize:
		return "finalize"
	case stateDone:
		return "done"
	case stateRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// pipelineContext carries one query through the state machine. Created fresh
// per query; nothing in it is shared.
type pipelineContext struct {
	query     string
	requestID string

	// embedding is nil when the embedder was unavailable; the pipeline
	// then fails open past the domain check and falls through the
	// similarity tiers to ungrounded generation.
	embedding []float64

	verdict   guardrail.Verdict
	match     matcher.MatchResult
	retrieval knowledge.RetrievalResult

	result      models.TierResult
	explanation []string
}

// QueryResult is the public outcome of ProcessQuery.
type QueryResult struct {
	Response           string              `json:"response"`
	Tier               models.ResponseTier `json:"tier"`
	Confidence         float64             `json:"confidence"`
	Source             string              `json:"source"`
	MatchedInstruction string              `json:"matched_instruction,omitempty"`

	// Explanation traces the routing decision. Populated only when the
	// caller asked for it.
	Explanation []string `json:"explanation,omitempty"`
}

// Info is the read-only introspection payload.
type Info struct {
	DatasetStats matcher.DatasetStats `json:"dataset_stats"`
	RAGStats     knowledge.Stats      `json:"rag_stats"`
	Tiers        []string             `json:"tiers"`
	Version      string               `json:"version"`
}

// Recorder receives routing decisions for the audit trail. Implementations
// must not block the query path.
type Recorder interface {
	Record(log *models.QueryAuditLog)
}
