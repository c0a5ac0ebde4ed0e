package results

import (
	"github.com/xkilldash9x/riskledger/internal/financial"
	"github.com/xkilldash9x/riskledger/internal/observability"
)

// DefaultConcurrency bounds parallel asset matching when none is configured.
const DefaultConcurrency = 4

// Criticality assumed for matched and unmatched findings when estimating RTO.
const (
	matchedCriticality   = "medium"
	unmatchedCriticality = "low"
)

// Options holds the tunables of the results pipeline.
type Options struct {
	// Concurrency caps the number of findings matched at once.
	Concurrency int
	Params      financial.Params
	// Metrics is optional. If nil, nothing is recorded.
	Metrics *observability.Metrics
}
