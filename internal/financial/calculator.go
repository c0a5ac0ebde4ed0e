// Package financial converts vulnerability severity and asset context into
// dollar-denominated risk and return-on-security-investment figures.
package financial

import (
	"math"

	"github.com/xkilldash9x/riskledger/api/schemas"
	"github.com/xkilldash9x/riskledger/internal/config"
)

// ROSI recommendation tiers, keyed by percentage thresholds.
const (
	RecommendCritical = "CRITICAL INVESTMENT - Immediate action required"
	RecommendHigh     = "HIGH PRIORITY - Strong financial justification"
	RecommendPositive = "RECOMMENDED - Positive return on investment"
	RecommendMarginal = "CONSIDER - Marginal positive return"
	RecommendLow      = "LOW PRIORITY - Cost exceeds immediate risk"
)

// Params holds the constants of the impact model.
type Params struct {
	// DirectLossRatio is the share of total impact attributed to downtime.
	// Values <= 0 disable indirect loss.
	DirectLossRatio   float64
	BreachPenalty     float64
	DefaultFixCost    float64
	DefaultHourlyCost float64
	AssumePII         bool
}

// DefaultParams returns the industry-average constants: downtime is 4% of
// total incident cost, breaches carry a flat $1M, fixes cost $5K.
func DefaultParams() Params {
	return Params{
		DirectLossRatio:   0.04,
		BreachPenalty:     1_000_000,
		DefaultFixCost:    5_000,
		DefaultHourlyCost: 10_000,
		AssumePII:         false,
	}
}

// ParamsFromConfig maps the financial config section onto Params.
func ParamsFromConfig(cfg config.FinancialConfig) Params {
	return Params{
		DirectLossRatio:   cfg.DirectLossRatio,
		BreachPenalty:     cfg.BreachPenalty,
		DefaultFixCost:    cfg.DefaultFixCost,
		DefaultHourlyCost: cfg.DefaultHourlyCost,
		AssumePII:         cfg.AssumePII,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// DirectLoss is the downtime cost of an incident.
func DirectLoss(hourlyCost, rtoHours float64) float64 {
	return hourlyCost * rtoHours
}

// TotalImpact extrapolates total incident cost from the direct downtime loss
// and adds the breach penalty when personal data is involved.
func TotalImpact(directLoss float64, hasPII bool, p Params) schemas.FinancialExposure {
	ratio := p.DirectLossRatio
	if ratio <= 0 {
		ratio = 1
	}
	indirect := directLoss/ratio - directLoss

	var breach float64
	if hasPII {
		breach = p.BreachPenalty
	}

	return schemas.FinancialExposure{
		DirectLoss:    round2(directLoss),
		IndirectLoss:  round2(indirect),
		BreachPenalty: round2(breach),
		Total:         round2(directLoss + indirect + breach),
	}
}

// ROSI computes the return on fixing a vulnerability whose total exposure is
// totalRisk. The percentage is zero when the fix is free.
func ROSI(totalRisk, fixCost float64) schemas.ROSI {
	net := totalRisk - fixCost
	var pct float64
	if fixCost > 0 {
		pct = net / fixCost * 100
	}

	return schemas.ROSI{
		FixCost:        round2(fixCost),
		RiskReduction:  round2(totalRisk),
		NetBenefit:     round2(net),
		ROSIPercentage: round2(pct),
		Recommendation: Recommendation(pct),
	}
}

// Recommendation maps a ROSI percentage onto its investment tier.
func Recommendation(pct float64) string {
	switch {
	case pct > 10000:
		return RecommendCritical
	case pct > 1000:
		return RecommendHigh
	case pct > 100:
		return RecommendPositive
	case pct > 0:
		return RecommendMarginal
	default:
		return RecommendLow
	}
}
