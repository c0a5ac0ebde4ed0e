package mapping

import (
	"fmt"
	"strings"

	"github.com/xkilldash9x/riskledger/api/schemas"
)

// Confidence bounds of the deterministic tiers.
const (
	PathRuleConfidence   = 100
	keywordBaseScore     = 60
	keywordPerMatch      = 10
	keywordMaxConfidence = 90
)

// MatchPathRule is tier 1: the first rule whose substring occurs in the
// lower-cased file path, and whose asset id resolves, wins outright.
func (rs *RuleSet) MatchPathRule(f schemas.Finding, docs []schemas.AssetDocument) *schemas.AssetMatch {
	if !rs.Tiers.PathRules {
		return nil
	}
	path := strings.ToLower(f.File)
	if path == "" {
		return nil
	}

	for _, rule := range rs.PathRules {
		if !strings.Contains(path, strings.ToLower(rule.Substring)) {
			continue
		}
		asset := ResolveAsset(rule.AssetID, docs)
		if asset == nil {
			// The rule points at an asset missing from this inventory.
			continue
		}
		return &schemas.AssetMatch{
			Tier:       schemas.TierPathRule,
			Confidence: PathRuleConfidence,
			Reasoning:  fmt.Sprintf("Path rule matched: '%s' → '%s'", rule.Substring, rule.AssetID),
			RuleUsed:   rule.Substring,
			Asset:      *asset,
		}
	}
	return nil
}

// MatchKeywords is tier 2: every asset is scored by how many of its keywords
// occur in the finding's combined text, and the best nonzero score wins.
func (rs *RuleSet) MatchKeywords(f schemas.Finding, docs []schemas.AssetDocument) *schemas.AssetMatch {
	if !rs.Tiers.Keywords {
		return nil
	}
	text := f.SearchText()
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var (
		best      *KeywordRule
		bestHits  []string
		bestScore int
	)
	for i := range rs.KeywordRules {
		rule := &rs.KeywordRules[i]
		var hits []string
		for _, kw := range rule.Keywords {
			if strings.Contains(text, strings.ToLower(kw)) {
				hits = append(hits, kw)
			}
		}
		// Strictly greater keeps the earliest (smallest) asset id on ties.
		if len(hits) > bestScore {
			best, bestHits, bestScore = rule, hits, len(hits)
		}
	}
	if best == nil {
		return nil
	}

	asset := ResolveAsset(best.AssetID, docs)
	if asset == nil {
		return nil
	}
	return &schemas.AssetMatch{
		Tier:       schemas.TierKeyword,
		Confidence: min(keywordBaseScore+keywordPerMatch*bestScore, keywordMaxConfidence),
		Reasoning: fmt.Sprintf("Keyword matching: %d keyword(s) matched '%s' (%s)",
			bestScore, best.AssetID, strings.Join(bestHits, ", ")),
		KeywordsMatched: bestHits,
		Asset:           *asset,
	}
}
