package results

import (
	"cmp"
	"slices"

	"github.com/xkilldash9x/riskledger/api/schemas"
	"github.com/xkilldash9x/riskledger/internal/financial"
)

// Prioritize sorts findings in place by severity weight, highest first.
// Findings of equal weight keep their extraction order.
func Prioritize(findings []schemas.Finding) {
	slices.SortStableFunc(findings, func(a, b schemas.Finding) int {
		return cmp.Compare(financial.SeverityWeight(b.Severity), financial.SeverityWeight(a.Severity))
	})
}
