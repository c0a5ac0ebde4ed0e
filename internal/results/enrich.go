package results

import (
	"context"

	"go.uber.org/zap"

	"github.com/xkilldash9x/riskledger/api/schemas"
	"github.com/xkilldash9x/riskledger/internal/financial"
	"github.com/xkilldash9x/riskledger/internal/mapping"
)

// Enricher attaches an asset match and a financial context to findings.
type Enricher struct {
	ai     *mapping.AIMatcher
	params financial.Params
	logger *zap.Logger
}

// NewEnricher creates an Enricher. ai may be nil, which disables tier 3.
func NewEnricher(ai *mapping.AIMatcher, params financial.Params, logger *zap.Logger) *Enricher {
	return &Enricher{
		ai:     ai,
		params: params,
		logger: logger.Named("enricher"),
	}
}

// Match runs the tiers in priority order and returns the first hit, or nil.
// The AI tier only runs when both rule tiers missed.
func (e *Enricher) Match(ctx context.Context, rs *mapping.RuleSet, f schemas.Finding, docs []schemas.AssetDocument) *schemas.AssetMatch {
	if m := rs.MatchPathRule(f, docs); m != nil {
		return m
	}
	if m := rs.MatchKeywords(f, docs); m != nil {
		return m
	}
	if !rs.Tiers.AIFallback || e.ai == nil || len(docs) == 0 {
		return nil
	}
	return e.ai.Match(ctx, f, docs)
}

// FinancialContext resolves the inputs of the impact calculation. Positive
// values extracted from the inventory win; otherwise the platform default
// hourly cost and a severity-based RTO estimate are used. A zero cost cell is
// treated as a placeholder, matching the ticket generator's fallback.
func (e *Enricher) FinancialContext(f schemas.Finding, m *schemas.AssetMatch) schemas.FinancialContext {
	fc := schemas.FinancialContext{
		HourlyCost:       e.params.DefaultHourlyCost,
		HasPIIData:       e.params.AssumePII,
		AssetCriticality: unmatchedCriticality,
	}
	if m != nil {
		fc.AssetCriticality = matchedCriticality
		if h := m.Asset.HourlyCost; h != nil && *h > 0 {
			fc.HourlyCost = *h
		}
		if r := m.Asset.RTOHours; r != nil {
			fc.RTOHours = *r
		}
	}
	if fc.RTOHours <= 0 {
		fc.RTOHours = financial.EstimateRTOHours(f.Severity, fc.AssetCriticality)
		fc.RTOEstimated = true
	}
	return fc
}

// Enrich produces the enriched record for one finding.
func (e *Enricher) Enrich(ctx context.Context, rs *mapping.RuleSet, f schemas.Finding, docs []schemas.AssetDocument) schemas.EnrichedFinding {
	m := e.Match(ctx, rs, f, docs)
	return schemas.EnrichedFinding{
		Finding:          f,
		MatchedAsset:     m,
		FinancialContext: e.FinancialContext(f, m),
	}
}

// Unmapped is the enriched record of a finding no tier could place.
func (e *Enricher) Unmapped(f schemas.Finding) schemas.EnrichedFinding {
	return schemas.EnrichedFinding{Finding: f, FinancialContext: e.FinancialContext(f, nil)}
}
