// internal/llmclient/factory.go
package llmclient

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/riskledger/api/schemas"
	"github.com/xkilldash9x/riskledger/internal/config"
)

var (
	// ErrMissingAPIKey is returned when a provider is configured without a key.
	ErrMissingAPIKey = errors.New("LLM API key is required")
	// ErrProviderDisabled is returned when no provider is configured.
	ErrProviderDisabled = errors.New("no LLM provider configured")
)

// NewClient builds the configured provider client and wraps it in the rate
// limiter. The result implements io.Closer.
func NewClient(ctx context.Context, cfg config.LLMConfig, logger *zap.Logger) (*RateLimitedClient, error) {
	var (
		base schemas.LLMClient
		err  error
	)

	switch cfg.Provider {
	case config.ProviderNone:
		return nil, ErrProviderDisabled
	case config.ProviderGemini:
		base, err = NewGeminiClient(ctx, cfg, logger)
	case config.ProviderOpenAI:
		base, err = NewOpenAIClient(cfg, logger)
	default:
		return nil, fmt.Errorf("unknown or unsupported LLM provider configured: '%s'. Supported: [%s, %s]",
			cfg.Provider, config.ProviderGemini, config.ProviderOpenAI)
	}
	if err != nil {
		return nil, err
	}

	logger.Info("LLM client initialized.",
		zap.String("provider", string(cfg.Provider)),
		zap.String("model", cfg.Model),
		zap.Float64("requests_per_second", cfg.RequestsPerSecond))
	return NewRateLimitedClient(base, cfg.RequestsPerSecond, logger), nil
}
