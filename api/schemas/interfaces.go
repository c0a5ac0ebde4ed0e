package schemas

import (
	"context"
)

// -- Asset Store Interface --

// AssetStore supplies the asset inventory documents a user has uploaded. The
// pipeline treats the result as read-only.
type AssetStore interface {
	// ListAssetDocuments returns the owner's inventory documents, most recent
	// first.
	ListAssetDocuments(ctx context.Context, ownerID string) ([]AssetDocument, error)
}

// AnalysisStore persists finished analyses.
type AnalysisStore interface {
	PersistAnalysis(ctx context.Context, result *AnalysisResult) error
}

// -- LLM Client Schemas & Interface --

// GenerationOptions controls the text generation process of the LLM.
type GenerationOptions struct {
	Temperature     float64 `json:"temperature"`       // Controls randomness. Lower is more deterministic.
	ForceJSONFormat bool    `json:"force_json_format"` // If true, asks the model for a JSON-only response.
	MaxTokens       int     `json:"max_tokens"`        // Upper bound on response length; 0 uses the client default.
}

// GenerationRequest is a complete request to the LLM.
type GenerationRequest struct {
	SystemPrompt string            `json:"system_prompt"` // Instructions for the model's persona and task.
	UserPrompt   string            `json:"user_prompt"`   // The specific query.
	Options      GenerationOptions `json:"options"`
}

// LLMClient abstracts the language model behind the AI mapping tier. Clients
// that hold resources also implement io.Closer.
type LLMClient interface {
	// Generate produces a text completion for the request.
	Generate(ctx context.Context, req GenerationRequest) (string, error)
}
