// Package results turns raw static-analysis tool output into a financial
// risk analysis.
package results

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/riskledger/api/schemas"
	"github.com/xkilldash9x/riskledger/internal/mapping"
	"github.com/xkilldash9x/riskledger/internal/observability"
	"github.com/xkilldash9x/riskledger/internal/ticket"
)

// Pipeline manages the processing of tool results into a risk analysis.
type Pipeline struct {
	assets      schemas.AssetStore
	rules       *mapping.RuleStore
	enricher    *Enricher
	tickets     *ticket.Generator
	metrics     *observability.Metrics
	concurrency int
	logger      *zap.Logger
	now         func() time.Time
}

// NewPipeline wires a pipeline. assets and ai may be nil: no inventory means
// every finding is unmapped, no AI matcher disables tier 3.
func NewPipeline(assets schemas.AssetStore, rules *mapping.RuleStore, ai *mapping.AIMatcher, opts Options, logger *zap.Logger) *Pipeline {
	if rules == nil {
		rules = mapping.NewStaticRuleStore(mapping.EmptyRuleSet())
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	logger = logger.Named("results_pipeline")

	return &Pipeline{
		assets:      assets,
		rules:       rules,
		enricher:    NewEnricher(ai, opts.Params, logger),
		tickets:     ticket.NewGenerator(opts.Params),
		metrics:     opts.Metrics,
		concurrency: opts.Concurrency,
		logger:      logger,
		now:         time.Now,
	}
}

// ProcessResults runs extraction, prioritization, asset matching, ticket
// generation and summarization. Only cancellation of ctx is returned as an
// error; every other failure degrades the affected findings to unmapped.
func (p *Pipeline) ProcessResults(ctx context.Context, toolResults schemas.ToolResults, ownerID string) (*schemas.AnalysisResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := p.now()
	result := &schemas.AnalysisResult{
		AnalysisID:  uuid.NewString(),
		OwnerID:     ownerID,
		GeneratedAt: start.UTC(),
		Summary:     Summarize(nil),
		RiskTickets: []schemas.RiskTicket{},
	}
	log := p.logger.With(zap.String("analysis_id", result.AnalysisID), zap.String("owner_id", ownerID))

	// 1. Extraction
	findings := Extract(toolResults, log)
	log.Info("Extracted vulnerabilities.", zap.Int("count", len(findings)))
	if len(findings) == 0 {
		return result, nil
	}

	// 2. Prioritization
	Prioritize(findings)

	// 3. Asset matching
	docs, err := p.loadAssets(ctx, ownerID, log)
	if err != nil {
		return nil, err
	}
	enriched, err := p.enrichAll(ctx, findings, docs, log)
	if err != nil {
		return nil, err
	}

	// 4. Tickets
	tickets := p.tickets.GenerateAll(enriched)

	// 5. Summary
	result.RiskTickets = tickets
	result.Summary = Summarize(tickets)
	result.VulnerabilitiesProcessed = len(findings)
	result.EnrichedVulnerabilities = enriched
	for _, ef := range enriched {
		result.TierStats.Record(ef.MatchedAsset)
		if ef.MatchedAsset != nil {
			result.AssetsMapped++
		}
	}

	p.record(result, p.now().Sub(start))
	log.Info("Financial analysis complete.",
		zap.Int("tickets", len(tickets)),
		zap.Int("assets_mapped", result.AssetsMapped),
		zap.Float64("total_exposure", result.Summary.TotalFinancialExposure),
		zap.Float64("average_rosi", result.Summary.AverageROSI))
	return result, nil
}

// loadAssets fetches the owner's inventory. A failing store is logged and
// treated as an empty inventory; only cancellation aborts.
func (p *Pipeline) loadAssets(ctx context.Context, ownerID string, log *zap.Logger) ([]schemas.AssetDocument, error) {
	if p.assets == nil {
		return nil, nil
	}
	docs, err := p.assets.ListAssetDocuments(ctx, ownerID)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		log.Warn("Failed to load asset inventory; continuing without assets.", zap.Error(err))
		return nil, nil
	}
	log.Debug("Loaded asset inventory.", zap.Int("documents", len(docs)))
	return docs, nil
}

// enrichAll matches findings concurrently. Each worker writes only its own
// slot; the rule set snapshot is taken once so a reload mid-run has no effect.
func (p *Pipeline) enrichAll(ctx context.Context, findings []schemas.Finding, docs []schemas.AssetDocument, log *zap.Logger) ([]schemas.EnrichedFinding, error) {
	rs := p.rules.Current()
	out := make([]schemas.EnrichedFinding, len(findings))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i, f := range findings {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out[i] = p.enrichOne(gctx, rs, f, docs, log)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("asset matching aborted: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *Pipeline) enrichOne(ctx context.Context, rs *mapping.RuleSet, f schemas.Finding, docs []schemas.AssetDocument, log *zap.Logger) (ef schemas.EnrichedFinding) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("Panic while matching finding; leaving it unmapped.",
				zap.Any("panic_value", r),
				zap.String("file", f.File),
				zap.String("source_tool", f.SourceTool))
			ef = p.enricher.Unmapped(f)
		}
	}()
	return p.enricher.Enrich(ctx, rs, f, docs)
}

func (p *Pipeline) record(result *schemas.AnalysisResult, elapsed time.Duration) {
	if p.metrics == nil {
		return
	}
	m := p.metrics
	m.FindingsProcessed.Add(float64(result.VulnerabilitiesProcessed))
	m.TierMatches.WithLabelValues(string(schemas.TierPathRule)).Add(float64(result.TierStats.PathRule))
	m.TierMatches.WithLabelValues(string(schemas.TierKeyword)).Add(float64(result.TierStats.Keyword))
	m.TierMatches.WithLabelValues(string(schemas.TierAI)).Add(float64(result.TierStats.AI))
	m.TierMatches.WithLabelValues("unmapped").Add(float64(result.TierStats.Unmapped))
	m.FinancialExposure.Add(result.Summary.TotalFinancialExposure)
	m.AnalysisDuration.Observe(elapsed.Seconds())
}
