package schemas

import (
	"strings"
)

// -- Finding Schemas --

// SeverityUnknown is the label assigned to findings whose tool reported no severity.
const SeverityUnknown = "UNKNOWN"

// RawFinding is a single record from a tool's "essential" findings list.
// Tools disagree on field names, so the record stays untyped until it is
// normalized into a Finding.
type RawFinding map[string]any

// ToolResult is the output of a single static-analysis tool run.
type ToolResult struct {
	Essential []RawFinding `json:"essential"`
	Error     string       `json:"error,omitempty"`
}

// ToolResults maps a tool name (e.g. "semgrep", "bandit") to its result.
type ToolResults map[string]ToolResult

// Finding is the canonical vulnerability record every downstream stage works on.
// It is immutable once extracted; multiple findings may reference the same file.
type Finding struct {
	SourceTool  string `json:"source_tool"`           // Tool that reported the finding.
	File        string `json:"file,omitempty"`        // Path of the affected file, as reported by the tool.
	Line        *int   `json:"line,omitempty"`        // Line number, when the tool reports one.
	Package     string `json:"package,omitempty"`     // Affected dependency, for SCA tools.
	Severity    string `json:"severity"`              // Free-text severity label.
	Message     string `json:"message,omitempty"`     // Primary human-readable finding text.
	Description string `json:"description,omitempty"` // Secondary finding text.
	RuleID      string `json:"rule_id,omitempty"`     // Tool rule or check identifier.
}

// Text returns the most specific human-readable text for the finding.
func (f Finding) Text() string {
	if strings.TrimSpace(f.Message) != "" {
		return f.Message
	}
	return f.Description
}

// SearchText is the lower-cased, space-joined text the keyword tier scores against.
func (f Finding) SearchText() string {
	return strings.ToLower(strings.Join([]string{f.File, f.Package, f.Message, f.Description}, " "))
}

// -- Enrichment Schemas --

// MatchTier identifies which mapping strategy resolved a finding to an asset.
type MatchTier string

const (
	TierPathRule MatchTier = "hard_rules" // Exact path substring rule.
	TierKeyword  MatchTier = "keywords"   // Keyword scoring rule.
	TierAI       MatchTier = "ai"         // Language-model fallback.
)

// AssetMatch is the typed outcome of a successful mapping tier. A nil
// *AssetMatch means no tier produced a match.
type AssetMatch struct {
	Tier            MatchTier     `json:"tier"`
	Confidence      int           `json:"confidence"` // 0-100.
	Reasoning       string        `json:"reasoning"`
	BusinessImpact  string        `json:"business_impact,omitempty"` // Narrative supplied by the AI tier.
	RuleUsed        string        `json:"rule_used,omitempty"`
	KeywordsMatched []string      `json:"keywords_matched,omitempty"`
	Asset           ResolvedAsset `json:"asset"`
}

// FinancialContext carries the resolved inputs of the financial calculation.
type FinancialContext struct {
	HourlyCost       float64 `json:"hourly_cost"`
	RTOHours         float64 `json:"rto_hours"`
	RTOEstimated     bool    `json:"rto_estimated"`
	HasPIIData       bool    `json:"has_pii_data"`
	AssetCriticality string  `json:"asset_criticality"`
}

// EnrichedFinding is a Finding plus its asset mapping and financial context.
type EnrichedFinding struct {
	Finding
	MatchedAsset     *AssetMatch      `json:"matched_asset"`
	FinancialContext FinancialContext `json:"financial_context"`
}
