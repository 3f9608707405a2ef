// Package compliance post-processes tier results: length limits, compliance
// disclaimers, and provenance metadata.
package compliance

import (
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/lendkraft/bfsi-assistant/config"
	"github.com/lendkraft/bfsi-assistant/models"
)

// Disclaimer texts per tier. Curated dataset responses are pre-reviewed and
// carry none.
const (
	ragDisclaimer = "\n\nNote: This answer was generated from our knowledge base. Final terms are confirmed at approval."

	generativeDisclaimer = "\n\nNote: This is general guidance, not financial advice. Please consult a loan specialist for decisions specific to your profile."
)

// Service finalizes tier results before they are returned to the caller.
type Service struct {
	cfg    config.PipelineConfig
	logger *zap.Logger
}

// NewService creates a compliance finalizer.
func NewService(cfg config.PipelineConfig, logger *zap.Logger) *Service {
	return &Service{cfg: cfg, logger: logger}
}

// Finalize truncates the response to the configured maximum, appends the
// tier-appropriate disclaimer, and preserves provenance fields. The length
// limit binds after the disclaimer is appended, so the returned text never
// exceeds MaxResponseLength. Guardrail refusals never reach this point;
// their fixed refusal texts are returned as-is by the orchestrator, and the
// rejected tier is only finalized here when it carries the generation
// fallback.
func (s *Service) Finalize(result models.TierResult) models.TierResult {
	disclaimer := ""
	switch result.Tier {
	case models.TierRAG:
		disclaimer = ragDisclaimer
	case models.TierGenerative, models.TierRejected:
		disclaimer = generativeDisclaimer
	}

	budget := s.cfg.MaxResponseLength - len(disclaimer)
	if budget < 0 {
		budget = 0
	}

	text := result.Text
	if len(text) > budget {
		truncated := truncateAtSentence(text, budget)
		s.logger.Debug("response truncated",
			zap.Int("original_len", len(text)),
			zap.Int("truncated_len", len(truncated)))
		text = truncated
	}

	result.Text = text + disclaimer
	return result
}

// truncateAtSentence cuts text to at most max bytes, preferring the last
// sentence boundary, then the last word boundary, over a mid-word cut. The
// cut never lands inside a multi-byte rune, so the result stays valid UTF-8.
func truncateAtSentence(text string, max int) string {
	if max <= 0 {
		return ""
	}
	if len(text) <= max {
		return text
	}

	for max > 0 && !utf8.RuneStart(text[max]) {
		max--
	}
	cut := text[:max]

	// Prefer a sentence boundary if one falls in the second half of the
	// budget; an earlier one would waste too much of the response.
	if i := lastSentenceEnd(cut); i >= max/2 {
		return strings.TrimSpace(cut[:i+1])
	}

	// Reserve room for the ellipsis so the budget still holds.
	if max > 3 {
		if i := strings.LastIndexByte(text[:max-3], ' '); i > 0 {
			return strings.TrimSpace(text[:i]) + "..."
		}
	}
	return cut
}

func lastSentenceEnd(text string) int {
	for i := len(text) - 1; i >= 0; i-- {
		switch text[i] {
		case '.', '!', '?':
			// A period inside "8.5%" is not a sentence end.
			if i+1 < len(text) && text[i+1] != ' ' && text[i+1] != '\n' {
				continue
			}
			return i
		}
	}
	return -1
}
