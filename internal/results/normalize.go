package results

import (
	"cmp"
	"maps"
	"slices"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/riskledger/api/schemas"
)

// Field aliases, checked in order. Tools name the same concept differently.
var (
	fileKeys     = []string{"file", "path", "filename"}
	lineKeys     = []string{"line", "line_number"}
	severityKeys = []string{"severity", "issue_severity"}
	messageKeys  = []string{"message", "issue", "issue_text", "vulnerability"}
	ruleKeys     = []string{"rule_id", "test_id", "check_id", "rule"}
)

// Normalize maps one raw tool record onto the canonical Finding.
func Normalize(tool string, raw schemas.RawFinding) schemas.Finding {
	f := schemas.Finding{
		SourceTool:  tool,
		File:        firstString(raw, fileKeys...),
		Line:        firstInt(raw, lineKeys...),
		Package:     firstString(raw, "package"),
		Severity:    firstString(raw, severityKeys...),
		Message:     firstString(raw, messageKeys...),
		Description: firstString(raw, "description"),
		RuleID:      firstString(raw, ruleKeys...),
	}
	f.Severity = cmp.Or(f.Severity, schemas.SeverityUnknown)
	return f
}

// Extract flattens every tool's findings into one list. Tools are visited in
// name order and findings keep their list order, so output is reproducible.
func Extract(results schemas.ToolResults, logger *zap.Logger) []schemas.Finding {
	var out []schemas.Finding
	for _, tool := range slices.Sorted(maps.Keys(results)) {
		res := results[tool]
		if res.Error != "" {
			logger.Warn("Tool reported an error.", zap.String("tool", tool), zap.String("error", res.Error))
		}
		for _, raw := range res.Essential {
			if raw == nil {
				continue
			}
			out = append(out, Normalize(tool, raw))
		}
	}
	return out
}

func firstString(raw schemas.RawFinding, keys ...string) string {
	for _, k := range keys {
		var s string
		switch v := raw[k].(type) {
		case string:
			s = v
		case float64:
			s = strconv.FormatFloat(v, 'f', -1, 64)
		case int:
			s = strconv.Itoa(v)
		}
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return ""
}

func firstInt(raw schemas.RawFinding, keys ...string) *int {
	for _, k := range keys {
		var (
			n  int
			ok bool
		)
		switch v := raw[k].(type) {
		case float64:
			n, ok = int(v), true
		case int:
			n, ok = v, true
		case int64:
			n, ok = int(v), true
		case string:
			parsed, err := strconv.Atoi(strings.TrimSpace(v))
			n, ok = parsed, err == nil
		}
		if ok {
			return &n
		}
	}
	return nil
}
