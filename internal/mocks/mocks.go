// File: internal/mocks/mocks.go
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/xkilldash9x/riskledger/api/schemas"
	"github.com/xkilldash9x/riskledger/internal/config"
)

// -- Config Mock --

// MockConfig mocks the config.Interface.
type MockConfig struct {
	mock.Mock
}

// --- Getters ---

func (m *MockConfig) Logger() config.LoggerConfig {
	args := m.Called()
	return args.Get(0).(config.LoggerConfig)
}

func (m *MockConfig) Database() config.DatabaseConfig {
	args := m.Called()
	return args.Get(0).(config.DatabaseConfig)
}

func (m *MockConfig) LLM() config.LLMConfig {
	args := m.Called()
	return args.Get(0).(config.LLMConfig)
}

func (m *MockConfig) Mapping() config.MappingConfig {
	args := m.Called()
	return args.Get(0).(config.MappingConfig)
}

func (m *MockConfig) Financial() config.FinancialConfig {
	args := m.Called()
	return args.Get(0).(config.FinancialConfig)
}

func (m *MockConfig) Pipeline() config.PipelineConfig {
	args := m.Called()
	return args.Get(0).(config.PipelineConfig)
}

func (m *MockConfig) Metrics() config.MetricsConfig {
	args := m.Called()
	return args.Get(0).(config.MetricsConfig)
}

// --- Setters ---

func (m *MockConfig) SetRulesPath(path string)     { m.Called(path) }
func (m *MockConfig) SetPipelineConcurrency(n int) { m.Called(n) }
func (m *MockConfig) SetDatabaseURL(url string)    { m.Called(url) }

// -- LLM Client Mock --

// MockLLMClient mocks the schemas.LLMClient interface.
type MockLLMClient struct {
	mock.Mock
}

// Generate honors cancellation before recording the call, like a real client
// would fail fast on a dead context.
func (m *MockLLMClient) Generate(ctx context.Context, req schemas.GenerationRequest) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

// -- Store Mocks --

// MockAssetStore mocks the schemas.AssetStore interface.
type MockAssetStore struct {
	mock.Mock
}

func (m *MockAssetStore) ListAssetDocuments(ctx context.Context, ownerID string) ([]schemas.AssetDocument, error) {
	args := m.Called(ctx, ownerID)
	docs, _ := args.Get(0).([]schemas.AssetDocument)
	return docs, args.Error(1)
}

// MockAnalysisStore mocks the schemas.AnalysisStore interface.
type MockAnalysisStore struct {
	mock.Mock
}

func (m *MockAnalysisStore) PersistAnalysis(ctx context.Context, result *schemas.AnalysisResult) error {
	return m.Called(ctx, result).Error(0)
}
