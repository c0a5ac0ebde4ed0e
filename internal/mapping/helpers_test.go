package mapping

import (
	"github.com/xkilldash9x/riskledger/api/schemas"
)

// inventoryDoc is a spreadsheet-shaped inventory with two assets.
func inventoryDoc() schemas.AssetDocument {
	return schemas.AssetDocument{
		ID:       "doc-1",
		Filename: "critical_assets.xlsx",
		Data: schemas.AssetData{Sheets: []schemas.Sheet{{
			Name: "Assets",
			Rows: [][]any{
				{"Asset ID", "Asset Name", "Hourly Cost", "RTO (hours)"},
				{"APP-001", "Payments Gateway", "$50,000", "4 hours"},
				{"APP-002", "Customer Portal", 12500.0, "n/a"},
				{"APP-003", "Reporting", "unknown", 48.0},
			},
		}}},
	}
}

// recordDoc is a dict-shaped inventory.
func recordDoc() schemas.AssetDocument {
	return schemas.AssetDocument{
		ID:       "doc-2",
		Filename: "hr_system.json",
		Data:     schemas.AssetData{Record: map[string]any{"asset_code": "HR-7", "name": "HR"}},
	}
}

// recordsDoc is a list-shaped inventory.
func recordsDoc() schemas.AssetDocument {
	return schemas.AssetDocument{
		ID:       "doc-3",
		Filename: "crm.json",
		Data: schemas.AssetData{Records: []map[string]any{
			{"id": 42.0, "name": "CRM"},
			{"id": "ignored-second-record"},
		}},
	}
}

const sampleRulesJSON = `{
  "path_rules": {
    "rules": {
      "CORE_BANKING": {"services/payments": "APP-001", "payments": "APP-001"},
      "CUSTOMER": {"frontend/portal": "APP-002"}
    }
  },
  "keyword_rules": {
    "mappings": {
      "APP-001": ["payment", "transaction", "stripe"],
      "APP-002": ["portal", "login"]
    }
  },
  "tier_config": {
    "use_hard_path_rules": true,
    "use_keyword_matching": true,
    "use_ai_fallback": false
  }
}`

func mustParse(data string) *RuleSet {
	rs, err := ParseRules([]byte(data), "json")
	if err != nil {
		panic(err)
	}
	return rs
}
