package schemas

import (
	"time"
)

// -- Risk Ticket Schemas --

// FinancialExposure is the dollar breakdown of a single vulnerability's impact.
type FinancialExposure struct {
	Total         float64 `json:"total"`
	DirectLoss    float64 `json:"direct_loss"`
	IndirectLoss  float64 `json:"indirect_loss"`
	BreachPenalty float64 `json:"breach_penalty"`
}

// ROSI is the return-on-security-investment breakdown for fixing a vulnerability.
type ROSI struct {
	FixCost        float64 `json:"fix_cost"`
	RiskReduction  float64 `json:"risk_reduction"`
	NetBenefit     float64 `json:"net_benefit"`
	ROSIPercentage float64 `json:"rosi_percentage"`
	Recommendation string  `json:"recommendation"`
}

// TechnicalDetails passes the tool's view of the finding through to the ticket.
type TechnicalDetails struct {
	SourceTool      string `json:"source_tool"`
	File            string `json:"file"`
	Line            *int   `json:"line,omitempty"`
	Package         string `json:"package"`
	RuleID          string `json:"rule_id"`
	OriginalMessage string `json:"original_message"`
}

// RiskTicket is the business-facing record for one vulnerability.
type RiskTicket struct {
	TicketNumber      int               `json:"ticket_number"`
	Severity          string            `json:"severity"`
	SeverityWeight    int               `json:"severity_weight"`
	AssetName         string            `json:"asset_name"`
	AssetConfidence   int               `json:"asset_confidence"`
	BusinessImpact    string            `json:"business_impact"`
	ExecutiveSummary  string            `json:"executive_summary"`
	FinancialExposure FinancialExposure `json:"financial_exposure"`
	ROSI              ROSI              `json:"rosi"`
	TechnicalDetails  TechnicalDetails  `json:"technical_details"`
	MatchedAsset      *AssetMatch       `json:"matched_asset,omitempty"`
}

// -- Analysis Result Schemas --

// Summary aggregates every ticket of an analysis for the executive dashboard.
type Summary struct {
	TotalVulnerabilities   int            `json:"total_vulnerabilities"`
	TotalFinancialExposure float64        `json:"total_financial_exposure"`
	SeverityBreakdown      map[string]int `json:"severity_breakdown"`
	TotalFixCost           float64        `json:"total_fix_cost"`
	AverageROSI            float64        `json:"average_rosi"`
	NetBenefit             float64        `json:"net_benefit"`
	CriticalCount          int            `json:"critical_count"`
	HighCount              int            `json:"high_count"`
	MediumCount            int            `json:"medium_count"`
	LowCount               int            `json:"low_count"`
}

// TierStats counts which mapping tier resolved each vulnerability.
type TierStats struct {
	PathRule int `json:"path_rule"`
	Keyword  int `json:"keyword"`
	AI       int `json:"ai"`
	Unmapped int `json:"unmapped"`
}

// Record increments the counter for the tier of m (or Unmapped when m is nil).
func (s *TierStats) Record(m *AssetMatch) {
	if m == nil {
		s.Unmapped++
		return
	}
	switch m.Tier {
	case TierPathRule:
		s.PathRule++
	case TierKeyword:
		s.Keyword++
	case TierAI:
		s.AI++
	}
}

// AnalysisResult is the complete output of one pipeline run.
type AnalysisResult struct {
	AnalysisID               string            `json:"analysis_id"`
	OwnerID                  string            `json:"owner_id"`
	GeneratedAt              time.Time         `json:"generated_at"`
	Summary                  Summary           `json:"summary"`
	RiskTickets              []RiskTicket      `json:"risk_tickets"`
	VulnerabilitiesProcessed int               `json:"vulnerabilities_processed"`
	AssetsMapped             int               `json:"assets_mapped"`
	TierStats                TierStats         `json:"tier_stats"`
	EnrichedVulnerabilities  []EnrichedFinding `json:"enriched_vulnerabilities,omitempty"`
}
