package reporting

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"regexp"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/riskledger/api/schemas"
	"github.com/xkilldash9x/riskledger/internal/financial"
	"github.com/xkilldash9x/riskledger/internal/observability"
	"github.com/xkilldash9x/riskledger/internal/reporting/sarif"
)

// Constants for tool identification in the SARIF report.
const (
	ToolName     = "riskledger"
	ToolInfoURI  = "https://github.com/xkilldash9x/riskledger"
	SARIFVersion = "2.1.0"
	SARIFSchema  = "https://schemastore.azurewebsites.net/schemas/json/sarif-2.1.0-rtm.5.json"
	rulePrefix   = "RISKLEDGER-"
)

// ruleIDSanitizer collapses anything outside [A-Za-z0-9_.] into one hyphen.
var ruleIDSanitizer = regexp.MustCompile(`[^a-zA-Z0-9_.]+`)

// RuleFingerprint identifies a rule by the tool and rule that raised it.
type RuleFingerprint string

func calculateFingerprint(td schemas.TechnicalDetails) RuleFingerprint {
	h := sha1.New()
	_, _ = io.WriteString(h, td.SourceTool+"\x00"+td.RuleID)
	return RuleFingerprint(hex.EncodeToString(h.Sum(nil)))
}

// SARIFReporter emits risk tickets as SARIF 2.1.0 results so code-scanning
// UIs can show the dollar exposure next to the affected line. It is thread safe.
type SARIFReporter struct {
	writer io.WriteCloser
	logger *zap.Logger
	log    *sarif.Log
	// mu protects the log structure and the maps.
	mu                 sync.Mutex
	rulesByFingerprint map[RuleFingerprint]string
	ruleIDUsage        map[string]int
}

// NewSARIFReporter takes ownership of writer.
func NewSARIFReporter(writer io.WriteCloser, toolVersion string) *SARIFReporter {
	log := &sarif.Log{
		Version: SARIFVersion,
		Schema:  SARIFSchema,
		Runs: []*sarif.Run{{
			Tool: &sarif.Tool{
				Driver: &sarif.ToolComponent{
					Name:           ToolName,
					Version:        pString(toolVersion),
					InformationURI: pString(ToolInfoURI),
					Rules:          []*sarif.ReportingDescriptor{},
				},
			},
			// Empty, not nil, so it encodes as [].
			Results: []*sarif.Result{},
		}},
	}

	return &SARIFReporter{
		writer:             writer,
		logger:             observability.GetLogger().Named("sarif_reporter"),
		log:                log,
		rulesByFingerprint: make(map[RuleFingerprint]string),
		ruleIDUsage:        make(map[string]int),
	}
}

// Write converts every ticket of the analysis into a SARIF result.
func (r *SARIFReporter) Write(result *schemas.AnalysisResult) error {
	if result == nil {
		return nil
	}
	startTime := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	run := r.log.Runs[0]
	for _, t := range result.RiskTickets {
		run.Results = append(run.Results, &sarif.Result{
			RuleID:    r.ensureRule(t.TechnicalDetails),
			Message:   &sarif.Message{Text: pString(t.ExecutiveSummary)},
			Level:     severityLevel(t.Severity),
			Locations: createLocations(t.TechnicalDetails),
			Properties: sarif.PropertyBag{
				"ticket_number":   t.TicketNumber,
				"asset_name":      t.AssetName,
				"total_exposure":  t.FinancialExposure.Total,
				"rosi_percentage": t.ROSI.ROSIPercentage,
				"recommendation":  t.ROSI.Recommendation,
			},
		})
	}

	if len(result.RiskTickets) > 0 {
		r.logger.Debug("Wrote risk tickets to SARIF buffer",
			zap.Int("tickets", len(result.RiskTickets)),
			zap.Duration("duration", time.Since(startTime)),
		)
	}
	return nil
}

// Close encodes the SARIF log and closes the writer.
func (r *SARIFReporter) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	run := r.log.Runs[0]
	r.logger.Info("Finalizing SARIF report",
		zap.Int("total_results", len(run.Results)),
		zap.Int("total_rules", len(run.Tool.Driver.Rules)),
	)

	encoder := json.NewEncoder(r.writer)
	encoder.SetIndent("", "  ")
	encodeErr := encoder.Encode(r.log)
	// Always attempt to close the writer, regardless of encoding success.
	closeErr := r.writer.Close()

	if encodeErr != nil {
		return fmt.Errorf("failed to encode SARIF output: %w", encodeErr)
	}
	if closeErr != nil {
		return fmt.Errorf("failed to close output writer: %w", closeErr)
	}
	return nil
}

func sanitizeRuleName(name string) string {
	sanitized := strings.Trim(ruleIDSanitizer.ReplaceAllString(strings.ToUpper(name), "-"), "-")
	if sanitized == "" {
		return "UNNAMED-RULE"
	}
	return sanitized
}

// ensureRule returns the rule id for the ticket's source rule, registering
// it on first use. Must be called while holding the mutex.
func (r *SARIFReporter) ensureRule(td schemas.TechnicalDetails) string {
	fingerprint := calculateFingerprint(td)
	if id, ok := r.rulesByFingerprint[fingerprint]; ok {
		return id
	}

	base := rulePrefix + sanitizeRuleName(td.RuleID)
	usage := r.ruleIDUsage[base]
	r.ruleIDUsage[base] = usage + 1

	id := base
	if usage > 0 {
		// Same rule id from a different tool.
		id = fmt.Sprintf("%s-%d", base, usage)
	}

	name := td.RuleID
	if name == "" {
		name = "unnamed rule"
	}
	help := fmt.Sprintf("**Source tool:** %s\n\n**Rule:** %s", orNA(td.SourceTool), orNA(td.RuleID))

	driver := r.log.Runs[0].Tool.Driver
	driver.Rules = append(driver.Rules, &sarif.ReportingDescriptor{
		ID:               id,
		Name:             pString(name),
		ShortDescription: &sarif.MultiformatMessageString{Text: pString(name)},
		Help:             &sarif.MultiformatMessageString{Text: pString(help), Markdown: pString(help)},
		Properties: sarif.PropertyBag{
			"tags":        []string{"security", "financial-risk"},
			"source_tool": td.SourceTool,
		},
	})
	r.rulesByFingerprint[fingerprint] = id
	return id
}

func createLocations(td schemas.TechnicalDetails) []*sarif.Location {
	if td.File == "" {
		return nil
	}
	loc := &sarif.PhysicalLocation{
		ArtifactLocation: &sarif.ArtifactLocation{URI: pString(td.File)},
	}
	if td.Line != nil && *td.Line > 0 {
		loc.Region = &sarif.Region{StartLine: *td.Line}
	}
	return []*sarif.Location{{PhysicalLocation: loc}}
}

func severityLevel(severity string) sarif.Level {
	switch financial.SeverityLabel(severity) {
	case financial.LabelCritical, financial.LabelHigh:
		return sarif.LevelError
	case financial.LabelMedium:
		return sarif.LevelWarning
	default:
		return sarif.LevelNote
	}
}

func pString(s string) *string {
	return &s
}
