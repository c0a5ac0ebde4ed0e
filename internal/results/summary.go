package results

import (
	"math"

	"github.com/xkilldash9x/riskledger/api/schemas"
	"github.com/xkilldash9x/riskledger/internal/financial"
)

// Summarize aggregates tickets for the executive dashboard. Severity buckets
// use the canonical labels, so "High" and "HIGH_RISK" count together.
func Summarize(tickets []schemas.RiskTicket) schemas.Summary {
	s := schemas.Summary{SeverityBreakdown: map[string]int{}}
	if len(tickets) == 0 {
		return s
	}

	var exposure, fixCost, rosi float64
	for _, t := range tickets {
		exposure += t.FinancialExposure.Total
		fixCost += t.ROSI.FixCost
		rosi += t.ROSI.ROSIPercentage
		s.SeverityBreakdown[financial.SeverityLabel(t.Severity)]++
	}

	s.TotalVulnerabilities = len(tickets)
	s.TotalFinancialExposure = round2(exposure)
	s.TotalFixCost = round2(fixCost)
	s.AverageROSI = round2(rosi / float64(len(tickets)))
	s.NetBenefit = round2(exposure - fixCost)
	s.CriticalCount = s.SeverityBreakdown[financial.LabelCritical]
	s.HighCount = s.SeverityBreakdown[financial.LabelHigh]
	s.MediumCount = s.SeverityBreakdown[financial.LabelMedium]
	s.LowCount = s.SeverityBreakdown[financial.LabelLow]
	return s
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
