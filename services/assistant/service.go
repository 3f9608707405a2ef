// Package assistant implements the response orchestrator: the state machine
// that sequences guardrail, dataset match, knowledge-grounded generation,
// and the generator-only fallback.
package assistant

import (
	"context"
	"fmt"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/lendkraft/bfsi-assistant/config"
	"github.com/lendkraft/bfsi-assistant/corpus"
	"github.com/lendkraft/bfsi-assistant/internal/observability"
	"github.com/lendkraft/bfsi-assistant/models"
	"github.com/lendkraft/bfsi-assistant/services/compliance"
	"github.com/lendkraft/bfsi-assistant/services/guardrail"
	"github.com/lendkraft/bfsi-assistant/services/knowledge"
	"github.com/lendkraft/bfsi-assistant/services/matcher"
	"github.com/lendkraft/bfsi-assistant/services/providers"
)

// User-facing texts for the two terminal non-answer paths.
const (
	refusalUnsafe = "I can't help with that request. I can only answer questions about loans, payments, accounts, and related banking services."

	refusalOutOfDomain = "I can only help with banking and financial services questions, such as loans, EMI, interest rates, payments, and account support."

	safeFallback = "We are unable to answer your question right now. Please contact customer support for assistance."
)

// Service orchestrates the escalating response pipeline. All dependencies
// are injected at construction; the service itself holds no per-query state
// and is safe for concurrent use.
type Service struct {
	cfg        config.PipelineConfig
	store      *corpus.Store
	embedder   providers.Embedder
	generator  providers.Generator
	guardrail  *guardrail.Service
	matcher    *matcher.Service
	knowledge  *knowledge.Service
	finalizer  *compliance.Service
	recorder   Recorder
	metrics    *observability.Metrics
	logger     *zap.Logger
	tier2Blend float64
}

// NewService creates the orchestrator. recorder and metrics may be nil.
func NewService(
	cfg config.PipelineConfig,
	store *corpus.Store,
	embedder providers.Embedder,
	generator providers.Generator,
	guardrailSvc *guardrail.Service,
	matcherSvc *matcher.Service,
	knowledgeSvc *knowledge.Service,
	finalizer *compliance.Service,
	recorder Recorder,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *Service {
	return &Service{
		cfg:       cfg,
		store:     store,
		embedder:  embedder,
		generator: generator,
		guardrail: guardrailSvc,
		matcher:   matcherSvc,
		knowledge: knowledgeSvc,
		finalizer: finalizer,
		recorder:  recorder,
		metrics:   metrics,
		logger:    logger,
		// Grounded generation inherits most of the retrieval relevance;
		// the discount reflects generation uncertainty on top of it.
		tier2Blend: 0.95,
	}
}

// ProcessQuery routes one query through the pipeline and returns exactly one
// result. Recoverable collaborator failures escalate or fall back; they never
// surface as errors to the caller.
func (s *Service) ProcessQuery(ctx context.Context, query string, explainTier bool) QueryResult {
	start := time.Now()
	snap := s.store.Snapshot()

	pc := &pipelineContext{
		query:     query,
		requestID: chimiddleware.GetReqID(ctx),
	}
	state := stateStart

	for state != stateDone && state != stateRejected {
		switch state {
		case stateStart:
			state = stateGuardrail

		case stateGuardrail:
			state = s.runGuardrail(ctx, snap, pc)

		case stateTier1:
			state = s.runTier1(snap, pc)

		case stateTier2:
			state = s.runTier2(ctx, snap, pc)

		case stateTier3:
			state = s.runTier3(ctx, pc)

		case stateFinalize:
			pc.result = s.finalizer.Finalize(pc.result)
			state = stateDone
		}
	}

	elapsed := time.Since(start)
	s.metrics.RecordQuery(string(pc.result.Tier), elapsed)
	s.record(pc, elapsed)

	s.logger.Info("query processed",
		zap.String("tier", string(pc.result.Tier)),
		zap.Float64("confidence", pc.result.Confidence),
		zap.Duration("elapsed", elapsed))

	res := QueryResult{
		Response:           pc.result.Text,
		Tier:               pc.result.Tier,
		Confidence:         pc.result.Confidence,
		Source:             pc.result.SourceID,
		MatchedInstruction: pc.result.MatchedInstruction,
	}
	if explainTier {
		res.Explanation = pc.explanation
	}
	return res
}

// runGuardrail screens the query, embeds it, and applies the two-signal
// domain check. The embedding computed here is reused by Tier 1, so the
// dry-run dataset match costs nothing extra.
func (s *Service) runGuardrail(ctx context.Context, snap *corpus.Corpus, pc *pipelineContext) pipelineState {
	verdict := s.guardrail.Check(pc.query)
	if !verdict.Admitted {
		return s.rejectWith(pc, verdict)
	}

	embedding, err := s.embedder.Embed(ctx, pc.query)
	if err != nil {
		// Fail open: a broken embedder must not silently block
		// legitimate customers. Similarity tiers are skipped and the
		// query proceeds to ungrounded generation.
		s.metrics.RecordCollaboratorError("embedder")
		s.logger.Warn("embedder unavailable, guardrail domain check degraded to fail-open",
			zap.Error(err))
		pc.explain("embedder unavailable: domain check skipped, similarity tiers unavailable")
		pc.verdict = verdict
		return stateTier1
	}
	pc.embedding = embedding
	pc.match = s.matcher.Match(snap.Samples, embedding)

	verdict = s.guardrail.CheckDomain(pc.query, pc.match.Score)
	if !verdict.Admitted {
		return s.rejectWith(pc, verdict)
	}

	pc.verdict = verdict
	pc.explainf("guardrail admitted query (best tier-1 similarity %.4f)", pc.match.Score)
	return stateTier1
}

func (s *Service) rejectWith(pc *pipelineContext, verdict guardrail.Verdict) pipelineState {
	pc.verdict = verdict
	s.metrics.RecordRejection(string(verdict.ReasonCode))

	text := refusalOutOfDomain
	if verdict.ReasonCode == guardrail.ReasonUnsafeKeyword {
		text = refusalUnsafe
	}
	pc.result = models.TierResult{
		Text:       text,
		Tier:       models.TierRejected,
		Confidence: 0,
	}
	pc.explainf("guardrail rejected query: %s", verdict.ReasonCode)
	return stateRejected
}

// runTier1 checks the curated-corpus match computed during the guardrail
// phase against the similarity threshold.
func (s *Service) runTier1(snap *corpus.Corpus, pc *pipelineContext) pipelineState {
	if pc.embedding == nil {
		pc.explain("tier1 skipped: no query embedding")
		return stateTier2
	}

	if pc.match.Sample != nil && pc.match.Score >= s.cfg.SimilarityThreshold {
		pc.result = models.TierResult{
			Text:               pc.match.Sample.Response,
			Tier:               models.TierDatasetMatch,
			Confidence:         clamp01(pc.match.Score),
			SourceID:           "dataset_match",
			MatchedInstruction: pc.match.Sample.Instruction,
		}
		pc.explainf("tier1 matched %q with similarity %.4f >= threshold %.2f",
			pc.match.Sample.Instruction, pc.match.Score, s.cfg.SimilarityThreshold)
		return stateFinalize
	}

	pc.explainf("tier1 best similarity %.4f below threshold %.2f, escalating",
		pc.match.Score, s.cfg.SimilarityThreshold)
	return stateTier2
}

// runTier2 retrieves the most relevant knowledge document and, when it
// clears the relevance threshold, grounds a generation on it. Retrieval
// below threshold skips the generator call entirely.
func (s *Service) runTier2(ctx context.Context, snap *corpus.Corpus, pc *pipelineContext) pipelineState {
	if pc.embedding == nil {
		pc.explain("tier2 skipped: no query embedding")
		return stateTier3
	}

	pc.retrieval = s.knowledge.Retrieve(snap.Documents, pc.embedding)
	if pc.retrieval.Document == nil || pc.retrieval.Relevance < s.cfg.RelevanceThreshold {
		pc.explainf("tier2 best relevance %.4f below threshold %.2f, escalating",
			pc.retrieval.Relevance, s.cfg.RelevanceThreshold)
		return stateTier3
	}

	prompt := s.knowledge.BuildPrompt(pc.query, pc.retrieval.Document)
	text, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		s.metrics.RecordCollaboratorError("generator")
		s.logger.Warn("tier2 generation failed, escalating",
			zap.String("document", pc.retrieval.Document.ID),
			zap.Error(err))
		pc.explain("tier2 generation failed, escalating")
		return stateTier3
	}

	pc.result = models.TierResult{
		Text:               text,
		Tier:               models.TierRAG,
		Confidence:         clamp01(pc.retrieval.Relevance * s.tier2Blend),
		SourceID:           pc.retrieval.Document.ID,
		MatchedInstruction: pc.retrieval.Document.Title,
	}
	pc.explainf("tier2 grounded on %q with relevance %.4f >= threshold %.2f",
		pc.retrieval.Document.ID, pc.retrieval.Relevance, s.cfg.RelevanceThreshold)
	return stateFinalize
}

// runTier3 is the terminal generative attempt. A generator failure here is
// the single terminal failure path: a fixed safe-fallback message with zero
// confidence.
func (s *Service) runTier3(ctx context.Context, pc *pipelineContext) pipelineState {
	text, err := s.generator.Generate(ctx, providers.Prompt{Query: pc.query})
	if err != nil {
		s.metrics.RecordCollaboratorError("generator")
		s.logger.Error("tier3 generation failed, returning safe fallback", zap.Error(err))
		pc.result = models.TierResult{
			Text:       safeFallback,
			Tier:       models.TierRejected,
			Confidence: 0,
		}
		pc.explain("tier3 generation failed: safe fallback returned")
		return stateFinalize
	}

	pc.result = models.TierResult{
		Text:       text,
		Tier:       models.TierGenerative,
		Confidence: s.cfg.FallbackConfidence,
		SourceID:   "generative",
	}
	pc.explainf("tier3 ungrounded generation with fixed confidence %.2f", s.cfg.FallbackConfidence)
	return stateFinalize
}

// GetAssistantInfo returns read-only corpus and version introspection.
func (s *Service) GetAssistantInfo() Info {
	snap := s.store.Snapshot()
	return Info{
		DatasetStats: s.matcher.Stats(snap.Samples),
		RAGStats:     s.knowledge.CorpusStats(snap.Documents),
		Tiers: []string{
			string(models.TierDatasetMatch),
			string(models.TierRAG),
			string(models.TierGenerative),
		},
		Version: Version,
	}
}

// TopMatches lists the k best curated matches for a query. Debug surface;
// not on the routing path.
func (s *Service) TopMatches(ctx context.Context, query string, k int) ([]matcher.ScoredSample, error) {
	embedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}
	snap := s.store.Snapshot()
	return s.matcher.TopK(snap.Samples, embedding, k), nil
}

func (s *Service) record(pc *pipelineContext, elapsed time.Duration) {
	if s.recorder == nil {
		return
	}
	// Customer data never reaches the trail in the clear.
	log := models.NewQueryAuditLog(guardrail.MaskPII(pc.query), string(pc.result.Tier), pc.result.Confidence).
		WithSource(pc.result.SourceID, pc.result.MatchedInstruction)
	if !pc.verdict.Admitted {
		log = log.WithRejection(string(pc.verdict.ReasonCode))
	}
	log.RequestID = pc.requestID
	log.LatencyMs = int(elapsed.Milliseconds())
	s.recorder.Record(log)
}

func (pc *pipelineContext) explain(msg string) {
	pc.explanation = append(pc.explanation, msg)
}

func (pc *pipelineContext) explainf(format string, args ...any) {
	pc.explanation = append(pc.explanation, fmt.Sprintf(format, args...))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
