package models

// ResponseTier identifies which pipeline stage produced a response.
type ResponseTier string

const (
	// TierDatasetMatch is a curated Tier 1 response.
	TierDatasetMatch ResponseTier = "dataset_match"

	// TierRAG is a knowledge-grounded Tier 2 generation.
	TierRAG ResponseTier = "rag"

	// TierGenerative is an ungrounded Tier 3 generation.
	TierGenerative ResponseTier = "generative"

	// TierRejected covers guardrail rejections and the terminal
	// generation-failure fallback.
	TierRejected ResponseTier = "rejected"
)

// TierResult is the single result produced for a query. Immutable after the
// finalizer returns it; Tier always names the stage that actually produced
// Text.
type TierResult struct {
	Text               string       `json:"text"`
	Tier               ResponseTier `json:"tier"`
	Confidence         float64      `json:"confidence"`
	SourceID           string       `json:"source_id,omitempty"`
	MatchedInstruction string       `json:"matched_instruction,omitempty"`
}
