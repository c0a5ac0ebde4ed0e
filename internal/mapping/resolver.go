package mapping

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/xkilldash9x/riskledger/api/schemas"
)

// idKeys are the record keys consulted when a document is not tabular.
var idKeys = []string{"asset_id", "id", "asset_code", "code", "application_id"}

// columnLayout records which header columns carry which asset attribute.
// -1 means absent.
type columnLayout struct {
	id, name, hourly, rto int
}

// detectColumns applies fuzzy header matching. Each column is assigned to the
// first attribute whose pattern it satisfies; a later column matching the
// same attribute replaces an earlier one.
func detectColumns(header []any) columnLayout {
	layout := columnLayout{id: -1, name: -1, hourly: -1, rto: -1}
	for idx, cell := range header {
		col := strings.ToLower(cellString(cell))
		switch {
		case strings.Contains(col, "asset") && strings.Contains(col, "id"):
			layout.id = idx
		case strings.Contains(col, "asset") && strings.Contains(col, "name"):
			layout.name = idx
		case strings.Contains(col, "hourly") || (strings.Contains(col, "cost") && strings.Contains(col, "hour")):
			layout.hourly = idx
		case strings.Contains(col, "rto"):
			layout.rto = idx
		}
	}
	return layout
}

// ResolveAsset locates assetID inside the documents, scanning tabular sheets
// first and then id-like keys of record-shaped data. It returns nil when the
// id appears nowhere.
func ResolveAsset(assetID string, docs []schemas.AssetDocument) *schemas.ResolvedAsset {
	target := strings.ToLower(strings.TrimSpace(assetID))
	if target == "" {
		return nil
	}

	for _, doc := range docs {
		if asset := resolveInSheets(target, doc); asset != nil {
			return asset
		}
		if matchesRecord(target, doc.Data.Record) {
			return &schemas.ResolvedAsset{DocumentID: doc.ID, Filename: doc.Filename, AssetID: assetID}
		}
		if len(doc.Data.Records) > 0 && matchesRecord(target, doc.Data.Records[0]) {
			return &schemas.ResolvedAsset{DocumentID: doc.ID, Filename: doc.Filename, AssetID: assetID}
		}
	}
	return nil
}

func resolveInSheets(target string, doc schemas.AssetDocument) *schemas.ResolvedAsset {
	for _, sheet := range doc.Data.Sheets {
		// Header plus at least one data row.
		if len(sheet.Rows) < 2 {
			continue
		}
		layout := detectColumns(sheet.Rows[0])
		if layout.id < 0 {
			continue
		}

		for _, row := range sheet.Rows[1:] {
			if len(row) <= layout.id {
				continue
			}
			rowID := strings.TrimSpace(cellString(row[layout.id]))
			if strings.ToLower(rowID) != target {
				continue
			}

			asset := &schemas.ResolvedAsset{
				DocumentID: doc.ID,
				Filename:   doc.Filename,
				AssetID:    rowID,
			}
			if layout.name >= 0 && len(row) > layout.name {
				asset.Name = strings.TrimSpace(cellString(row[layout.name]))
			}
			if layout.hourly >= 0 && len(row) > layout.hourly {
				if v, ok := parseCurrency(row[layout.hourly]); ok {
					asset.HourlyCost = &v
				}
			}
			if layout.rto >= 0 && len(row) > layout.rto {
				if v, ok := parseHours(row[layout.rto]); ok {
					asset.RTOHours = &v
				}
			}
			return asset
		}
	}
	return nil
}

func matchesRecord(target string, record map[string]any) bool {
	if record == nil {
		return false
	}
	for _, key := range idKeys {
		v, ok := record[key]
		if !ok {
			continue
		}
		if strings.ToLower(strings.TrimSpace(cellString(v))) == target {
			return true
		}
	}
	return false
}

// cellString renders a decoded spreadsheet cell as text.
func cellString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

// parseCurrency reads "$12,500" style cells.
func parseCurrency(v any) (float64, bool) {
	if f, ok := v.(float64); ok {
		return finite(f)
	}
	s := strings.NewReplacer("$", "", ",", "").Replace(cellString(v))
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return finite(f)
}

// parseHours reads "4 hours" style cells.
func parseHours(v any) (float64, bool) {
	if f, ok := v.(float64); ok {
		return finite(f)
	}
	s := strings.ToLower(cellString(v))
	s = strings.ReplaceAll(s, "hours", "")
	s = strings.ReplaceAll(s, "hour", "")
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return finite(f)
}

// finite rejects the NaN and infinity spellings ParseFloat accepts.
func finite(f float64) (float64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
