package mapping

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xkilldash9x/riskledger/api/schemas"
	"github.com/xkilldash9x/riskledger/internal/llmutil"
	"go.uber.org/zap"
)

// Defaults for the AI tier.
const (
	DefaultAITimeout      = 30 * time.Second
	DefaultAIPreviewChars = 500
)

const aiSystemPrompt = "You are a cybersecurity analyst mapping technical vulnerabilities to business assets. " +
	"Respond only with the requested JSON object."

// AIOutcome labels the result of one AI tier call for metrics.
type AIOutcome string

const (
	AIOutcomeMatched   AIOutcome = "matched"
	AIOutcomeNoMatch   AIOutcome = "no_match"
	AIOutcomeMalformed AIOutcome = "malformed"
	AIOutcomeError     AIOutcome = "error"
)

// AIOptions tunes the AI tier.
type AIOptions struct {
	Timeout      time.Duration
	PreviewChars int
	Temperature  float64
	MaxTokens    int
	// OnOutcome, when set, observes the outcome of every call.
	OnOutcome func(AIOutcome)
}

// aiVerdict is the JSON object the model must answer with.
type aiVerdict struct {
	Matched        bool    `json:"matched"`
	AssetIndex     int     `json:"asset_index"`
	Confidence     float64 `json:"confidence"`
	Reasoning      string  `json:"reasoning"`
	BusinessImpact string  `json:"business_impact"`
}

// AIMatcher is tier 3. It asks a language model to pick the inventory document
// a finding most plausibly belongs to. Every failure mode degrades to "no
// match"; nothing is propagated to the caller.
type AIMatcher struct {
	client schemas.LLMClient
	opts   AIOptions
	logger *zap.Logger
}

// NewAIMatcher wraps client. Zero options fall back to the defaults.
func NewAIMatcher(client schemas.LLMClient, opts AIOptions, logger *zap.Logger) *AIMatcher {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultAITimeout
	}
	if opts.PreviewChars <= 0 {
		opts.PreviewChars = DefaultAIPreviewChars
	}
	return &AIMatcher{client: client, opts: opts, logger: logger.Named("ai_matcher")}
}

// Match returns the document chosen by the model, or nil.
func (m *AIMatcher) Match(ctx context.Context, f schemas.Finding, docs []schemas.AssetDocument) *schemas.AssetMatch {
	if m == nil || m.client == nil || len(docs) == 0 {
		return nil
	}

	prompt, err := m.buildPrompt(f, docs)
	if err != nil {
		m.logger.Warn("Failed to build AI mapping prompt.", zap.Error(err))
		m.record(AIOutcomeError)
		return nil
	}

	callCtx, cancel := context.WithTimeout(ctx, m.opts.Timeout)
	defer cancel()

	response, err := m.client.Generate(callCtx, schemas.GenerationRequest{
		SystemPrompt: aiSystemPrompt,
		UserPrompt:   prompt,
		Options: schemas.GenerationOptions{
			Temperature:     m.opts.Temperature,
			ForceJSONFormat: true,
			MaxTokens:       m.opts.MaxTokens,
		},
	})
	if err != nil {
		m.logger.Warn("AI mapping request failed.", zap.String("file", f.File), zap.Error(err))
		m.record(AIOutcomeError)
		return nil
	}

	verdict, err := llmutil.ParseJSONResponse[aiVerdict](response)
	if err != nil {
		m.logger.Warn("AI mapping response was not valid JSON.", zap.String("file", f.File), zap.Error(err))
		m.record(AIOutcomeMalformed)
		return nil
	}
	if !verdict.Matched || verdict.AssetIndex < 0 || verdict.AssetIndex >= len(docs) {
		m.logger.Debug("AI mapping found no asset.",
			zap.String("file", f.File),
			zap.Bool("matched", verdict.Matched),
			zap.Int("asset_index", verdict.AssetIndex))
		m.record(AIOutcomeNoMatch)
		return nil
	}

	doc := docs[verdict.AssetIndex]
	m.record(AIOutcomeMatched)
	return &schemas.AssetMatch{
		Tier:           schemas.TierAI,
		Confidence:     clampConfidence(verdict.Confidence),
		Reasoning:      strings.TrimSpace(verdict.Reasoning),
		BusinessImpact: strings.TrimSpace(verdict.BusinessImpact),
		Asset: schemas.ResolvedAsset{
			DocumentID: doc.ID,
			Filename:   doc.Filename,
		},
	}
}

func (m *AIMatcher) record(o AIOutcome) {
	if m.opts.OnOutcome != nil {
		m.opts.OnOutcome(o)
	}
}

type vulnerabilityContext struct {
	File        string `json:"file"`
	Package     string `json:"package"`
	Message     string `json:"message"`
	Description string `json:"description"`
	Rule        string `json:"rule"`
	Severity    string `json:"severity"`
}

type assetSummary struct {
	Index       int    `json:"index"`
	Filename    string `json:"filename"`
	DataPreview string `json:"data_preview"`
}

func (m *AIMatcher) buildPrompt(f schemas.Finding, docs []schemas.AssetDocument) (string, error) {
	vuln, err := json.MarshalIndent(vulnerabilityContext{
		File:        f.File,
		Package:     f.Package,
		Message:     f.Message,
		Description: f.Description,
		Rule:        f.RuleID,
		Severity:    f.Severity,
	}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode vulnerability context: %w", err)
	}

	summaries := make([]assetSummary, 0, len(docs))
	for i, doc := range docs {
		data, err := json.Marshal(doc.Data)
		if err != nil {
			return "", fmt.Errorf("failed to encode asset document %s: %w", doc.ID, err)
		}
		summaries = append(summaries, assetSummary{
			Index:       i,
			Filename:    doc.Filename,
			DataPreview: llmutil.Clip(string(data), m.opts.PreviewChars),
		})
	}
	assets, err := json.MarshalIndent(summaries, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode asset summaries: %w", err)
	}

	var b strings.Builder
	b.WriteString("VULNERABILITY DETAILS:\n")
	b.Write(vuln)
	b.WriteString("\n\nAVAILABLE BUSINESS ASSETS:\n")
	b.Write(assets)
	b.WriteString(`

TASK:
Analyze the vulnerability and determine which business asset (if any) is most likely affected.
Consider:
- File paths and their relationship to asset names/purposes
- Package names and their business context
- Vulnerability descriptions and asset functionality
- Technical components mentioned in the vulnerability

Respond with ONLY a JSON object in this exact format:
{
    "matched": true/false,
    "asset_index": <index of matched asset or -1>,
    "confidence": <0-100>,
    "reasoning": "<brief explanation of why this asset matches>",
    "business_impact": "<1-2 sentence explanation of business impact>"
}

If no asset is a good match, set matched to false and asset_index to -1.
`)
	return b.String(), nil
}

func clampConfidence(c float64) int {
	switch {
	case c < 0:
		return 0
	case c > 100:
		return 100
	default:
		return int(c + 0.5)
	}
}
