// Package guardrail implements the admission-control gate that screens
// queries before any embedding or generative work occurs.
package guardrail

import (
	"strings"

	"go.uber.org/zap"

	"github.com/lendkraft/bfsi-assistant/config"
)

// ReasonCode identifies why a query was rejected.
type ReasonCode string

const (
	// ReasonNone means the query was admitted.
	ReasonNone ReasonCode = "NONE"

	// ReasonUnsafeKeyword means the query matched the deny list.
	ReasonUnsafeKeyword ReasonCode = "UNSAFE_KEYWORD"

	// ReasonOutOfDomain means the query is outside the BFSI domain.
	ReasonOutOfDomain ReasonCode = "OUT_OF_DOMAIN"
)

// Verdict is the guardrail's decision for one query. Created fresh per
// query, never persisted.
type Verdict struct {
	Admitted    bool
	ReasonCode  ReasonCode
	MatchedTerm string
}

func admit() Verdict {
	return Verdict{Admitted: true, ReasonCode: ReasonNone}
}

func reject(reason ReasonCode, term string) Verdict {
	return Verdict{Admitted: false, ReasonCode: reason, MatchedTerm: term}
}

// domainLexicon is the minimal BFSI vocabulary used by the out-of-domain
// check. A query containing any of these terms is assumed on-domain without
// consulting similarity scores. Terms are stems where that widens coverage
// (refinanc matches refinance/refinancing).
var domainLexicon = []string{
	"account", "balance", "bank", "branch", "card", "cheque", "credit",
	"debit", "deposit", "emi", "installment", "instalment", "interest",
	"kyc", "lend", "loan", "mortgage", "overdraft", "payment", "policy",
	"prepay", "refinanc", "repay", "statement", "tenure", "transaction",
	"upi",
}

// Service screens queries against the deny list and the domain lexicon.
// Pure function of input and config; safe for concurrent use.
type Service struct {
	cfg    config.PipelineConfig
	logger *zap.Logger
}

// NewService creates a guardrail service.
func NewService(cfg config.PipelineConfig, logger *zap.Logger) *Service {
	return &Service{cfg: cfg, logger: logger}
}

// Check runs the checks that need no embedding: normalization, minimum
// length, and the unsafe-keyword deny list. UnsafeKeywords arrive sorted
// from config, so the first matching keyword is deterministic.
func (s *Service) Check(query string) Verdict {
	normalized := Normalize(query)

	if len(normalized) < s.cfg.MinQueryLength {
		return reject(ReasonOutOfDomain, "")
	}

	for _, kw := range s.cfg.UnsafeKeywords {
		if strings.Contains(normalized, kw) {
			s.logger.Warn("query rejected by deny list", zap.String("matched_term", kw))
			return reject(ReasonUnsafeKeyword, kw)
		}
	}

	return admit()
}

// CheckDomain runs the two-signal out-of-domain check: a query is rejected
// only when it contains no BFSI lexicon term AND its best Tier-1 similarity
// (computed by the caller via a dry-run dataset match) is below the domain
// floor. Requiring both signals avoids false rejection of legitimate domain
// queries phrased with unseen vocabulary.
func (s *Service) CheckDomain(query string, bestSimilarity float64) Verdict {
	normalized := Normalize(query)

	for _, term := range domainLexicon {
		if strings.Contains(normalized, term) {
			return admit()
		}
	}

	if bestSimilarity < s.cfg.DomainFloorThreshold {
		s.logger.Info("query rejected as out of domain",
			zap.Float64("best_similarity", bestSimilarity),
			zap.Float64("domain_floor", s.cfg.DomainFloorThreshold))
		return reject(ReasonOutOfDomain, "")
	}

	return admit()
}

// Normalize case-folds and trims a query for comparison.
func Normalize(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}
