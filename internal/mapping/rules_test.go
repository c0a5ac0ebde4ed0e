package mapping

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRules_JSON(t *testing.T) {
	rs := mustParse(sampleRulesJSON)

	want := []PathRule{
		{Category: "CORE_BANKING", Substring: "services/payments", AssetID: "APP-001"},
		{Category: "CORE_BANKING", Substring: "payments", AssetID: "APP-001"},
		{Category: "CUSTOMER", Substring: "frontend/portal", AssetID: "APP-002"},
	}
	if diff := cmp.Diff(want, rs.PathRules); diff != "" {
		t.Errorf("path rules mismatch (-want +got):\n%s", diff)
	}

	require.Len(t, rs.KeywordRules, 2)
	assert.Equal(t, "APP-001", rs.KeywordRules[0].AssetID)
	assert.Equal(t, []string{"payment", "transaction", "stripe"}, rs.KeywordRules[0].Keywords)
	assert.Equal(t, TierConfig{PathRules: true, Keywords: true, AIFallback: false}, rs.Tiers)
}

func TestParseRules_YAML(t *testing.T) {
	doc := `
path_rules:
  rules:
    billing:
      src/billing: BILL-1
keyword_rules:
  mappings:
    BILL-1: [invoice, ledger]
tier_config:
  use_keyword_matching: false
`
	rs, err := ParseRules([]byte(doc), "yaml")
	require.NoError(t, err)

	require.Len(t, rs.PathRules, 1)
	assert.Equal(t, "BILL-1", rs.PathRules[0].AssetID)
	require.Len(t, rs.KeywordRules, 1)
	assert.Equal(t, TierConfig{PathRules: true, Keywords: false, AIFallback: true}, rs.Tiers)
}

func TestParseRules_Ordering(t *testing.T) {
	doc := `{"path_rules": {"rules": {
		"zeta":  {"api": "Z-1", "shared": "Z-2"},
		"alpha": {"api/v2": "A-1", "web": "A-2", "shared": "A-3", "apx": "A-4"}
	}}}`
	rs := mustParse(doc)

	var got []string
	for _, r := range rs.PathRules {
		got = append(got, r.Category+":"+r.Substring+"="+r.AssetID)
	}
	// Categories sort lexicographically; inside, longer substrings first.
	// "shared" appears twice and keeps the later category's mapping.
	want := []string{
		"alpha:api/v2=A-1",
		"alpha:apx=A-4",
		"alpha:web=A-2",
		"zeta:shared=Z-2",
		"zeta:api=Z-1",
	}
	assert.Equal(t, want, got)
}

func TestParseRules_LegacyKeys(t *testing.T) {
	doc := `{
		"keyword_rules": {"rules": {"APP-9": ["legacy"]}},
		"tier_config": {"use_hard_rules": false}
	}`
	rs := mustParse(doc)

	require.Len(t, rs.KeywordRules, 1)
	assert.Equal(t, "APP-9", rs.KeywordRules[0].AssetID)
	assert.False(t, rs.Tiers.PathRules, "use_hard_rules is honored when use_hard_path_rules is absent")
	assert.True(t, rs.Tiers.Keywords)
}

func TestParseRules_TolerantOfBadEntries(t *testing.T) {
	doc := `{
		"path_rules": {"rules": {"cat": {"": "X", "ok": "Y", "num": 5}, "flat": "not-a-map"}},
		"keyword_rules": {"mappings": {"A": "not-a-list", "B": ["", 3, "kw"], "C": []}},
		"tier_config": {"use_ai_fallback": "yes"}
	}`
	rs := mustParse(doc)

	require.Len(t, rs.PathRules, 1)
	assert.Equal(t, "ok", rs.PathRules[0].Substring)
	require.Len(t, rs.KeywordRules, 1)
	assert.Equal(t, []string{"kw"}, rs.KeywordRules[0].Keywords)
	assert.True(t, rs.Tiers.AIFallback, "non-boolean flags keep the default")
}

func TestParseRules_Errors(t *testing.T) {
	_, err := ParseRules([]byte("{not json"), "json")
	assert.ErrorContains(t, err, "failed to parse JSON rules")

	_, err = ParseRules([]byte("null"), "json")
	assert.ErrorContains(t, err, "empty")

	_, err = ParseRules([]byte("a: [b"), "yaml")
	assert.ErrorContains(t, err, "failed to parse YAML rules")

	_, err = ParseRules([]byte("{}"), "toml")
	assert.ErrorContains(t, err, "unsupported rules format")
}

func TestEmptyRuleSet(t *testing.T) {
	rs := EmptyRuleSet()
	assert.Empty(t, rs.PathRules)
	assert.Empty(t, rs.KeywordRules)
	assert.Equal(t, TierConfig{PathRules: true, Keywords: true, AIFallback: true}, rs.Tiers)
}

func TestFormatForPath(t *testing.T) {
	assert.Equal(t, "yaml", formatForPath("rules.yaml"))
	assert.Equal(t, "yaml", formatForPath("/etc/RULES.YML"))
	assert.Equal(t, "json", formatForPath("rules.json"))
	assert.Equal(t, "json", formatForPath("rules"))
}
