package reporting

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/xkilldash9x/riskledger/api/schemas"
	"github.com/xkilldash9x/riskledger/internal/ticket"
)

const (
	notAvailable       = "N/A"
	topRecommendations = 5
)

// printer groups thousands in dollar amounts and percentages.
var printer = message.NewPrinter(language.English)

func money(v float64) string {
	return printer.Sprintf("$%.2f", v)
}

func percent(v float64) string {
	return printer.Sprintf("%.0f%%", v)
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return notAvailable
	}
	return s
}

// FormatTicket renders one risk ticket as a Markdown section.
func FormatTicket(t schemas.RiskTicket) string {
	var b strings.Builder
	w := func(format string, args ...any) { fmt.Fprintf(&b, format, args...) }

	w("\n## %s FINANCIAL RISK TICKET #%03d\n\n", ticket.Emoji(t.Severity), t.TicketNumber)
	w("**Severity:** %s | **Asset:** %s\n\n---\n\n", t.Severity, t.AssetName)

	w("### 🎯 BUSINESS IMPACT\n\n%s\n\n---\n\n", t.BusinessImpact)

	fe := t.FinancialExposure
	w("### 💰 FINANCIAL EXPOSURE\n\n")
	w("**Total Potential Loss:** %s\n\n", money(fe.Total))
	w("**Breakdown:**\n")
	w("- Direct Costs (Downtime): %s\n", money(fe.DirectLoss))
	w("- Indirect Costs (Reputation/Churn): %s\n", money(fe.IndirectLoss))
	w("- Data Breach Penalty: %s\n\n---\n\n", money(fe.BreachPenalty))

	w("### 👔 EXECUTIVE SUMMARY\n\n%s\n\n---\n\n", t.ExecutiveSummary)

	r := t.ROSI
	w("### 📊 RETURN ON SECURITY INVESTMENT (ROSI)\n\n")
	w("**Fix Cost:** %s  \n", money(r.FixCost))
	w("**Risk Reduction:** %s  \n", money(r.RiskReduction))
	w("**Net Benefit:** %s  \n", money(r.NetBenefit))
	w("**ROSI:** %s\n\n", percent(r.ROSIPercentage))
	w("**Recommendation:** %s\n\n---\n\n", r.Recommendation)

	td := t.TechnicalDetails
	line := notAvailable
	if td.Line != nil {
		line = strconv.Itoa(*td.Line)
	}
	w("### 🔧 TECHNICAL DETAILS\n\n")
	w("- **Affected File:** `%s`\n", orNA(td.File))
	w("- **Line Number:** %s\n", line)
	w("- **Package:** %s\n", orNA(td.Package))
	w("- **Rule ID:** %s\n\n", orNA(td.RuleID))
	w("**Technical Description:**  \n%s\n\n", td.OriginalMessage)

	if m := t.MatchedAsset; m != nil {
		w("\n---\n\n### 📋 ASSET MAPPING\n\n")
		w("**Confidence:** %d%%  \n", t.AssetConfidence)
		w("**Reasoning:** %s\n\n", orNA(m.Reasoning))
	}
	return b.String()
}

// RenderMarkdown renders a full analysis: the executive dashboard, every
// ticket in ticket order, and the top investment recommendations by ROSI.
func RenderMarkdown(result *schemas.AnalysisResult) string {
	if result == nil {
		result = &schemas.AnalysisResult{}
	}
	s := result.Summary

	var b strings.Builder
	w := func(format string, args ...any) { fmt.Fprintf(&b, format, args...) }

	w("\n# 💰 FINANCIAL IMPACT ANALYSIS\n\n## Executive Dashboard\n\n")
	w("**Total Vulnerabilities:** %d  \n", s.TotalVulnerabilities)
	w("**Total Financial Exposure:** %s  \n", money(s.TotalFinancialExposure))
	w("**Estimated Fix Cost:** %s  \n", money(s.TotalFixCost))
	w("**Net Benefit of Remediation:** %s  \n", money(s.NetBenefit))
	w("**Average ROSI:** %s\n\n", percent(s.AverageROSI))

	w("### Severity Distribution\n\n")
	w("- 🔴 **Critical:** %d\n", s.CriticalCount)
	w("- 🟠 **High:** %d\n", s.HighCount)
	w("- 🟡 **Medium:** %d\n", s.MediumCount)
	w("- 🟢 **Low:** %d\n\n", s.LowCount)

	if result.VulnerabilitiesProcessed > 0 {
		ts := result.TierStats
		w("### Asset Mapping\n\n")
		w("- **Mapped:** %d of %d\n", result.AssetsMapped, result.VulnerabilitiesProcessed)
		w("- **Path rules:** %d | **Keywords:** %d | **AI:** %d | **Unmapped:** %d\n\n", ts.PathRule, ts.Keyword, ts.AI, ts.Unmapped)
	}

	w("---\n\n## 🎫 Financial Risk Tickets\n\n")
	w("The following tickets represent individual security vulnerabilities translated into business risks with financial quantification.\n\n")
	for _, t := range result.RiskTickets {
		b.WriteString(FormatTicket(t))
		b.WriteString("\n---\n\n")
	}

	w("\n## 💡 Investment Recommendations\n\n")
	w("Based on the ROSI analysis, we recommend prioritizing remediation in the following order:\n\n")
	byROSI := slices.Clone(result.RiskTickets)
	slices.SortStableFunc(byROSI, func(a, b schemas.RiskTicket) int {
		return cmp.Compare(b.ROSI.ROSIPercentage, a.ROSI.ROSIPercentage)
	})
	for i, t := range byROSI[:min(topRecommendations, len(byROSI))] {
		w("%d. **Ticket #%03d** - %s (ROSI: %s)\n", i+1, t.TicketNumber, t.AssetName, percent(t.ROSI.ROSIPercentage))
	}
	b.WriteString("\n")
	return b.String()
}
