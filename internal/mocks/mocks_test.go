package mocks

import (
	"github.com/xkilldash9x/riskledger/api/schemas"
	"github.com/xkilldash9x/riskledger/internal/config"
)

// Compile-time interface checks.
var (
	_ config.Interface      = (*MockConfig)(nil)
	_ schemas.LLMClient     = (*MockLLMClient)(nil)
	_ schemas.AssetStore    = (*MockAssetStore)(nil)
	_ schemas.AnalysisStore = (*MockAnalysisStore)(nil)
)
