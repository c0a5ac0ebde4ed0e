// File: cmd/helpers_test.go
package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/riskledger/api/schemas"
	"github.com/xkilldash9x/riskledger/internal/config"
)

const testRules = `{
  "path_rules": {"rules": {"PAYMENTS": {"services/payments": "APP-001"}}},
  "keyword_rules": {"mappings": {"APP-002": ["portal", "login"]}},
  "tier_config": {"use_hard_path_rules": true, "use_keyword_matching": true, "use_ai_fallback": false}
}`

const testResults = `{
  "semgrep": {"essential": [
    {"file": "services/payments/charge.py", "line": 42, "severity": "HIGH",
     "message": "SQL injection in charge handler", "rule_id": "python.sqli"}
  ]},
  "bandit": {"essential": [], "error": "bandit crashed"}
}`

const testAssets = `[{
  "id": "doc-1",
  "owner_id": "owner-1",
  "filename": "critical_assets.xlsx",
  "data": {"sheets": [{"rows": [
    ["Asset ID", "Asset Name", "Hourly Cost", "RTO Hours"],
    ["APP-001", "Payment Gateway", "$50,000", "4 hours"],
    ["APP-002", "Customer Portal", "$2,000", ""]
  ]}]}
}]`

// writeTempFile writes content to name inside a per-test directory.
func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// newTestConfig returns the default configuration with the AI tier disabled
// and no database.
func newTestConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.NewDefaultConfig()
	cfg.SetRulesPath(writeTempFile(t, "rules.json", testRules))
	return cfg
}

// executeCommand runs a fresh command tree with args and captures its output.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Cleanup(func() { cfgFile = "" })

	root := NewRootCommand()
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return buf.String(), err
}

// findSubcommand returns the command registered under name.
func findSubcommand(t *testing.T, root *cobra.Command, name string) *cobra.Command {
	t.Helper()
	for _, c := range root.Commands() {
		if c.Name() == name {
			return c
		}
	}
	t.Fatalf("subcommand %q not registered", name)
	return nil
}

// mockDataStore stands in for the PostgreSQL store.
type mockDataStore struct {
	mock.Mock
}

func (m *mockDataStore) ListAssetDocuments(ctx context.Context, ownerID string) ([]schemas.AssetDocument, error) {
	args := m.Called(ctx, ownerID)
	docs, _ := args.Get(0).([]schemas.AssetDocument)
	return docs, args.Error(1)
}

func (m *mockDataStore) PersistAnalysis(ctx context.Context, result *schemas.AnalysisResult) error {
	return m.Called(ctx, result).Error(0)
}

// fakeStoreProvider hands out a prepared store and records cleanup.
type fakeStoreProvider struct {
	store   dataStore
	err     error
	created int
	closed  int
}

func (p *fakeStoreProvider) Create(ctx context.Context, cfg config.Interface) (dataStore, func(), error) {
	p.created++
	if p.err != nil {
		return nil, nil, p.err
	}
	return p.store, func() { p.closed++ }, nil
}
