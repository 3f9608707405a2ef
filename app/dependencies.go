// Package app wires the application dependencies. This is the single place
// where concrete implementations are chosen and connected.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/lendkraft/bfsi-assistant/config"
	"github.com/lendkraft/bfsi-assistant/corpus"
	"github.com/lendkraft/bfsi-assistant/internal/observability"
	"github.com/lendkraft/bfsi-assistant/repositories/postgres"
	"github.com/lendkraft/bfsi-assistant/services/assistant"
	"github.com/lendkraft/bfsi-assistant/services/audit"
	"github.com/lendkraft/bfsi-assistant/services/compliance"
	"github.com/lendkraft/bfsi-assistant/services/guardrail"
	"github.com/lendkraft/bfsi-assistant/services/knowledge"
	"github.com/lendkraft/bfsi-assistant/services/matcher"
	"github.com/lendkraft/bfsi-assistant/services/providers"
	"github.com/lendkraft/bfsi-assistant/services/providers/openaicompat"
	"github.com/lendkraft/bfsi-assistant/services/ratelimit"
)

// Dependencies holds all application dependencies. It is the central wiring
// point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config   *config.Config
	Logger   *zap.Logger
	DB       *postgres.DB
	Registry *prometheus.Registry
	Metrics  *observability.Metrics

	// Collaborators
	Embedder  providers.Embedder
	Generator providers.Generator

	// Corpus
	Store *corpus.Store

	// Services
	Assistant *assistant.Service
	Audit     *audit.Service
	Limiter   *ratelimit.Service
}

// NewDependencies creates and wires up all application dependencies.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	deps.initMetrics()
	deps.initProviders()

	if err := deps.initCorpus(ctx); err != nil {
		return nil, fmt.Errorf("failed to load corpus: %w", err)
	}

	if err := deps.initAudit(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize audit trail: %w", err)
	}

	deps.initServices()

	logger.Info("all dependencies initialized")
	return deps, nil
}

func (d *Dependencies) initMetrics() {
	if !d.Config.Observability.MetricsEnabled {
		d.Logger.Info("metrics disabled")
		return
	}
	d.Registry = prometheus.NewRegistry()
	d.Metrics = observability.NewMetrics(d.Registry)
}

// initProviders selects the embedding and generation collaborators. Without
// a configured base URL the deterministic in-process stubs are used, which
// keeps development and CI runs hermetic.
func (d *Dependencies) initProviders() {
	pcfg := d.Config.Providers

	if pcfg.Embedder.BaseURL != "" {
		d.Embedder = openaicompat.NewEmbedderAdapter(providers.EmbedderConfig{
			APIKey:     pcfg.Embedder.APIKey,
			BaseURL:    pcfg.Embedder.BaseURL,
			Model:      pcfg.Embedder.Model,
			Timeout:    pcfg.Embedder.Timeout,
			MaxRetries: pcfg.Embedder.MaxRetries,
		})
		d.Logger.Info("using remote embedder",
			zap.String("base_url", pcfg.Embedder.BaseURL),
			zap.String("model", pcfg.Embedder.Model))
	} else {
		d.Embedder = &providers.StubEmbedder{}
		d.Logger.Warn("EMBEDDER_BASE_URL not set, using stub embedder")
	}

	if pcfg.Generator.BaseURL != "" {
		d.Generator = openaicompat.NewGeneratorAdapter(providers.GeneratorConfig{
			APIKey:      pcfg.Generator.APIKey,
			BaseURL:     pcfg.Generator.BaseURL,
			Model:       pcfg.Generator.Model,
			Timeout:     pcfg.Generator.Timeout,
			MaxRetries:  pcfg.Generator.MaxRetries,
			MaxTokens:   pcfg.Generator.MaxTokens,
			Temperature: pcfg.Generator.Temperature,
		})
		d.Logger.Info("using remote generator",
			zap.String("base_url", pcfg.Generator.BaseURL),
			zap.String("model", pcfg.Generator.Model))
	} else {
		d.Generator = &providers.StubGenerator{}
		d.Logger.Warn("GENERATOR_BASE_URL not set, using stub generator")
	}
}

func (d *Dependencies) initCorpus(ctx context.Context) error {
	loader := corpus.NewLoader(d.Embedder, d.Logger)
	snap, err := loader.Load(ctx, d.Config.Corpus, d.Config.Pipeline.AllowedCategories)
	if err != nil {
		return err
	}

	d.Store = corpus.NewStore(snap)
	d.Metrics.SetCorpusSize(len(snap.Samples), len(snap.Documents))
	d.Logger.Info("corpus loaded",
		zap.Int("samples", len(snap.Samples)),
		zap.Int("documents", len(snap.Documents)),
		zap.Int("embedding_dim", snap.EmbeddingDim))
	return nil
}

// initAudit sets up the asynchronous audit trail when AUDIT_DATABASE_URL is
// configured. Without it the assistant runs with auditing disabled.
func (d *Dependencies) initAudit(ctx context.Context) error {
	if d.Config.AuditDatabase == nil {
		d.Logger.Info("audit trail disabled")
		return nil
	}

	db, err := postgres.NewDB(*d.Config.AuditDatabase, d.Logger)
	if err != nil {
		return err
	}
	d.DB = db

	if err := db.InitSchema(ctx); err != nil {
		return err
	}

	repo := postgres.NewQueryAuditRepository(db, d.Logger)
	d.Audit = audit.NewService(repo, d.Logger, audit.DefaultConfig())
	if err := d.Audit.Start(); err != nil {
		return err
	}

	return nil
}

func (d *Dependencies) initServices() {
	cfg := d.Config.Pipeline

	guardrailSvc := guardrail.NewService(cfg, d.Logger)
	matcherSvc := matcher.NewService(d.Logger)
	knowledgeSvc := knowledge.NewService(d.Logger)
	finalizer := compliance.NewService(cfg, d.Logger)

	var recorder assistant.Recorder
	if d.Audit != nil {
		recorder = d.Audit
	}

	d.Assistant = assistant.NewService(
		cfg,
		d.Store,
		d.Embedder,
		d.Generator,
		guardrailSvc,
		matcherSvc,
		knowledgeSvc,
		finalizer,
		recorder,
		d.Metrics,
		d.Logger,
	)

	d.Limiter = ratelimit.NewService(ratelimit.DefaultConfig(), d.Logger)
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	if d.Audit != nil {
		if err := d.Audit.Stop(10 * time.Second); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop audit service: %w", err))
		}
	}

	if d.DB != nil {
		if err := d.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}

	d.Logger.Info("dependencies shut down cleanly")
	return nil
}
