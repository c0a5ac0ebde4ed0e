// Package mapping correlates vulnerability findings with business assets. It
// implements the deterministic path-rule and keyword tiers, the language-model
// fallback tier, and resolution of asset ids inside uploaded inventories.
package mapping

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"gopkg.in/yaml.v3"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// PathRule maps a file-path substring to an asset id.
type PathRule struct {
	Category  string
	Substring string
	AssetID   string
}

// KeywordRule lists the keywords that point at an asset id.
type KeywordRule struct {
	AssetID  string
	Keywords []string
}

// TierConfig switches the individual mapping tiers on or off.
type TierConfig struct {
	PathRules  bool
	Keywords   bool
	AIFallback bool
}

// RuleSet is an immutable, fully ordered snapshot of the mapping rules.
type RuleSet struct {
	// PathRules is ordered: categories lexicographically, then substrings by
	// length descending and lexicographically. The first match wins.
	PathRules []PathRule
	// KeywordRules is ordered by asset id, which makes score ties resolve to
	// the lexicographically smallest id.
	KeywordRules []KeywordRule
	Tiers        TierConfig
	// Source is the file the rules were read from, empty for built-in rules.
	Source string
}

// EmptyRuleSet has no rules and every tier enabled, so tiers 1 and 2 always
// miss and matching falls through to the AI tier.
func EmptyRuleSet() *RuleSet {
	return &RuleSet{Tiers: TierConfig{PathRules: true, Keywords: true, AIFallback: true}}
}

// ParseRules decodes a rule document. format is "json" or "yaml".
func ParseRules(data []byte, format string) (*RuleSet, error) {
	var doc map[string]any
	switch format {
	case "yaml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse YAML rules: %w", err)
		}
	case "json":
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse JSON rules: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported rules format %q", format)
	}
	if doc == nil {
		return nil, fmt.Errorf("rules document is empty")
	}
	return buildRuleSet(doc), nil
}

// formatForPath picks the decoder from the file extension; JSON is the default.
func formatForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	default:
		return "json"
	}
}

func buildRuleSet(doc map[string]any) *RuleSet {
	rs := &RuleSet{
		PathRules:    flattenPathRules(asMap(asMap(doc["path_rules"])["rules"])),
		KeywordRules: keywordRules(asMap(doc["keyword_rules"])),
	}

	tiers := asMap(doc["tier_config"])
	pathFlag, ok := tiers["use_hard_path_rules"]
	if !ok {
		pathFlag = tiers["use_hard_rules"]
	}
	rs.Tiers = TierConfig{
		PathRules:  asBool(pathFlag, true),
		Keywords:   asBool(tiers["use_keyword_matching"], true),
		AIFallback: asBool(tiers["use_ai_fallback"], true),
	}
	return rs
}

// flattenPathRules turns {category: {substring: asset_id}} into an ordered
// table. A substring listed under several categories keeps the mapping of the
// lexicographically last category.
func flattenPathRules(categories map[string]any) []PathRule {
	names := make([]string, 0, len(categories))
	for name := range categories {
		names = append(names, name)
	}
	sort.Strings(names)

	bySubstring := make(map[string]PathRule)
	for _, category := range names {
		for substring, target := range asMap(categories[category]) {
			assetID, ok := target.(string)
			if !ok || strings.TrimSpace(substring) == "" || strings.TrimSpace(assetID) == "" {
				continue
			}
			bySubstring[substring] = PathRule{Category: category, Substring: substring, AssetID: assetID}
		}
	}

	rules := make([]PathRule, 0, len(bySubstring))
	for _, r := range bySubstring {
		rules = append(rules, r)
	}
	sort.Slice(rules, func(i, j int) bool {
		a, b := rules[i], rules[j]
		if a.Category != b.Category {
			return a.Category < b.Category
		}
		if len(a.Substring) != len(b.Substring) {
			return len(a.Substring) > len(b.Substring)
		}
		return a.Substring < b.Substring
	})
	return rules
}

// keywordRules reads keyword_rules.mappings, falling back to the legacy
// keyword_rules.rules key.
func keywordRules(section map[string]any) []KeywordRule {
	raw, ok := section["mappings"]
	if !ok {
		raw = section["rules"]
	}

	var rules []KeywordRule
	for assetID, list := range asMap(raw) {
		items, ok := list.([]any)
		if !ok || strings.TrimSpace(assetID) == "" {
			continue
		}
		var keywords []string
		for _, item := range items {
			if kw, ok := item.(string); ok && strings.TrimSpace(kw) != "" {
				keywords = append(keywords, kw)
			}
		}
		if len(keywords) > 0 {
			rules = append(rules, KeywordRule{AssetID: assetID, Keywords: keywords})
		}
	}
	sort.Slice(rules, func(i, j int) bool { return rules[i].AssetID < rules[j].AssetID })
	return rules
}

func asMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func asBool(v any, def bool) bool {
	if b, ok := v.(bool); ok {
		return b
	}
	return def
}
