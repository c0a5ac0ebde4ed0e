// Package ticket turns enriched findings into business-facing risk tickets.
package ticket

import (
	"cmp"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/xkilldash9x/riskledger/api/schemas"
	"github.com/xkilldash9x/riskledger/internal/financial"
)

// UnidentifiedAsset names the asset of a finding no tier could map.
const UnidentifiedAsset = "Unidentified System Component"

// DefaultImpactPhrase is used when no technical term in the finding text has
// a business translation.
const DefaultImpactPhrase = "security vulnerability that could compromise system integrity or data confidentiality"

// translations is checked in order; the first term contained in the
// lower-cased finding text wins.
var translations = []struct{ term, phrase string }{
	{"sql injection", "database manipulation that could expose customer data"},
	{"xss", "malicious code injection that could compromise user sessions"},
	{"cross-site scripting", "malicious code injection that could compromise user sessions"},
	{"buffer overflow", "system instability that could cause crashes or data theft"},
	{"authentication bypass", "unauthorized access to protected systems"},
	{"csrf", "unauthorized actions performed on behalf of legitimate users"},
	{"path traversal", "unauthorized file access that could expose sensitive data"},
	{"command injection", "system takeover that could compromise all data"},
	{"insecure deserialization", "code execution that could lead to system compromise"},
	{"sensitive data exposure", "unprotected customer or business information"},
	{"broken access control", "unauthorized access to restricted features or data"},
	{"security misconfiguration", "improper settings that create security gaps"},
	{"vulnerable dependency", "outdated software component with known security flaws"},
	{"hardcoded credentials", "embedded passwords that could grant unauthorized access"},
	{"weak cryptography", "inadequate data protection that could be easily broken"},
}

// consequences is appended to every generated business impact statement.
var consequences = []struct{ label, text string }{
	{"Service Disruption", "System downtime affecting business operations"},
	{"Data Breach", "Unauthorized access to sensitive customer or business data"},
	{"Reputation Damage", "Loss of customer trust and brand value"},
	{"Regulatory Penalties", "Potential fines for compliance violations"},
	{"Competitive Disadvantage", "Loss of market position due to security incidents"},
}

// documentExts are stripped from asset names that still look like filenames.
var documentExts = map[string]bool{
	".xlsx": true, ".xls": true, ".csv": true, ".pdf": true,
	".docx": true, ".doc": true, ".json": true,
}

// Generator builds risk tickets under a fixed set of financial parameters.
// It is stateless apart from its parameters and safe for concurrent use.
type Generator struct {
	params financial.Params
}

// NewGenerator returns a Generator using p for every calculation.
func NewGenerator(p financial.Params) *Generator {
	return &Generator{params: p}
}

// Translate maps the finding's technical text to business language.
func Translate(f schemas.Finding) string {
	text := strings.ToLower(f.Text())
	for _, t := range translations {
		if strings.Contains(text, t.term) {
			return t.phrase
		}
	}
	return DefaultImpactPhrase
}

// looksLikeFilename reports whether a name still carries filename artifacts.
func looksLikeFilename(name string) bool {
	return documentExts[strings.ToLower(filepath.Ext(name))] || strings.Contains(name, "_")
}

// cleanName turns "payment_gateway.xlsx" into "Payment Gateway".
func cleanName(name string) string {
	if ext := filepath.Ext(name); documentExts[strings.ToLower(ext)] {
		name = strings.TrimSuffix(name, ext)
	}
	name = strings.ReplaceAll(name, "_", " ")
	return cases.Title(language.Und).String(name)
}

// AssetName returns the display name and confidence for a match.
func AssetName(m *schemas.AssetMatch) (string, int) {
	if m == nil {
		return UnidentifiedAsset, 0
	}
	name := m.Asset.Name
	if strings.TrimSpace(name) == "" {
		name = m.Asset.Filename
	}
	if looksLikeFilename(name) {
		name = cleanName(name)
	}
	return name, m.Confidence
}

// FormatExposure scales a dollar amount for prose: $1.2M, $340K, $500.
func FormatExposure(amount float64) string {
	switch {
	case amount >= 1_000_000:
		return fmt.Sprintf("$%.1fM", amount/1_000_000)
	case amount >= 1_000:
		return fmt.Sprintf("$%.0fK", amount/1_000)
	default:
		return fmt.Sprintf("$%.0f", amount)
	}
}

// ExecutiveSummary is the two-sentence explanation for a non-technical reader.
func ExecutiveSummary(f schemas.Finding, assetName string, total float64) string {
	return fmt.Sprintf(
		"A %s security vulnerability has been identified in %s, exposing the organization to %s. "+
			"The estimated financial impact is %s, including potential downtime costs, reputation damage, and regulatory penalties.",
		strings.ToLower(f.Severity), assetName, Translate(f), FormatExposure(total))
}

// BusinessImpact prefers the AI tier's narrative, and otherwise builds a
// statement from the translated finding text and the standard consequences.
func BusinessImpact(f schemas.Finding, m *schemas.AssetMatch) string {
	if m != nil && strings.TrimSpace(m.BusinessImpact) != "" {
		return m.BusinessImpact
	}

	subject := "this system"
	if m != nil && m.Asset.Filename != "" {
		subject = cleanName(m.Asset.Filename)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**%s** is a critical business component that, if compromised, could result in %s. ", subject, Translate(f))
	fmt.Fprintf(&b, "This %s-severity vulnerability creates a direct pathway for attackers to exploit this weakness, potentially leading to:\n", strings.ToLower(f.Severity))
	for _, c := range consequences {
		fmt.Fprintf(&b, "\n- **%s**: %s", c.label, c.text)
	}
	return b.String()
}

// Generate builds ticket number n for one enriched finding.
func (g *Generator) Generate(n int, ef schemas.EnrichedFinding) schemas.RiskTicket {
	name, confidence := AssetName(ef.MatchedAsset)

	fc := ef.FinancialContext
	hourly := fc.HourlyCost
	if hourly <= 0 {
		hourly = g.params.DefaultHourlyCost
	}
	rto := fc.RTOHours
	if rto <= 0 {
		rto = financial.EstimateRTOHours(ef.Severity, cmp.Or(fc.AssetCriticality, "medium"))
	}

	exposure := financial.TotalImpact(financial.DirectLoss(hourly, rto), fc.HasPIIData, g.params)

	return schemas.RiskTicket{
		TicketNumber:      n,
		Severity:          ef.Severity,
		SeverityWeight:    financial.SeverityWeight(ef.Severity),
		AssetName:         name,
		AssetConfidence:   confidence,
		BusinessImpact:    BusinessImpact(ef.Finding, ef.MatchedAsset),
		ExecutiveSummary:  ExecutiveSummary(ef.Finding, name, exposure.Total),
		FinancialExposure: exposure,
		ROSI:              financial.ROSI(exposure.Total, g.params.DefaultFixCost),
		TechnicalDetails: schemas.TechnicalDetails{
			SourceTool:      ef.SourceTool,
			File:            ef.File,
			Line:            ef.Line,
			Package:         ef.Package,
			RuleID:          ef.RuleID,
			OriginalMessage: ef.Text(),
		},
		MatchedAsset: ef.MatchedAsset,
	}
}

// GenerateAll numbers tickets in input order, sorts them by severity weight
// and then total exposure (both descending, ties keep input order), and
// renumbers them 1..N.
func (g *Generator) GenerateAll(findings []schemas.EnrichedFinding) []schemas.RiskTicket {
	tickets := make([]schemas.RiskTicket, len(findings))
	for i, ef := range findings {
		tickets[i] = g.Generate(i+1, ef)
	}

	slices.SortStableFunc(tickets, func(a, b schemas.RiskTicket) int {
		if c := cmp.Compare(b.SeverityWeight, a.SeverityWeight); c != 0 {
			return c
		}
		return cmp.Compare(b.FinancialExposure.Total, a.FinancialExposure.Total)
	})

	for i := range tickets {
		tickets[i].TicketNumber = i + 1
	}
	return tickets
}

// Emoji is the marker shown next to a severity in rendered reports.
func Emoji(severity string) string {
	switch strings.ToUpper(strings.TrimSpace(severity)) {
	case financial.LabelCritical:
		return "🔴"
	case financial.LabelHigh:
		return "🟠"
	case financial.LabelMedium:
		return "🟡"
	case financial.LabelLow:
		return "🟢"
	default:
		return "⚪"
	}
}
