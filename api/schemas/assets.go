package schemas

import (
	"bytes"
	"encoding/json"
	"time"
)

// -- Asset Inventory Schemas --

// Sheet is one tabular sheet of an uploaded asset inventory. The first row is
// the header; every following row is a data row.
type Sheet struct {
	Name string  `json:"name,omitempty"`
	Rows [][]any `json:"rows"`
}

// AssetData is the extracted content of an asset inventory document. Spreadsheet
// uploads populate Sheets; already-structured uploads populate Record (a single
// object) or Records (a list of objects).
type AssetData struct {
	Sheets  []Sheet
	Record  map[string]any
	Records []map[string]any
}

// UnmarshalJSON accepts either an object (optionally carrying "sheets") or an
// array of records.
func (d *AssetData) UnmarshalJSON(b []byte) error {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*d = AssetData{}
		return nil
	}

	if trimmed[0] == '[' {
		var records []map[string]any
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return err
		}
		*d = AssetData{Records: records}
		return nil
	}

	var record map[string]any
	if err := json.Unmarshal(trimmed, &record); err != nil {
		return err
	}
	out := AssetData{Record: record}
	if _, ok := record["sheets"]; ok {
		var wrapper struct {
			Sheets []Sheet `json:"sheets"`
		}
		if err := json.Unmarshal(trimmed, &wrapper); err != nil {
			return err
		}
		out.Sheets = wrapper.Sheets
	}
	*d = out
	return nil
}

// MarshalJSON writes the data back in the shape it was read from.
func (d AssetData) MarshalJSON() ([]byte, error) {
	switch {
	case d.Record != nil:
		return json.Marshal(d.Record)
	case d.Sheets != nil:
		return json.Marshal(map[string]any{"sheets": d.Sheets})
	case d.Records != nil:
		return json.Marshal(d.Records)
	default:
		return []byte("{}"), nil
	}
}

// AssetDocument is one uploaded asset inventory owned by a user.
type AssetDocument struct {
	ID         string    `json:"id"`
	OwnerID    string    `json:"owner_id,omitempty"`
	Filename   string    `json:"filename"`
	UploadedAt time.Time `json:"uploaded_at,omitempty"`
	Data       AssetData `json:"data"`
}

// ResolvedAsset is a concrete asset located inside an inventory document, with
// whatever financial attributes could be extracted from its row.
type ResolvedAsset struct {
	DocumentID string   `json:"document_id,omitempty"`
	Filename   string   `json:"filename"`
	AssetID    string   `json:"asset_id,omitempty"`
	Name       string   `json:"asset_name,omitempty"`
	HourlyCost *float64 `json:"hourly_cost,omitempty"`
	RTOHours   *float64 `json:"rto_hours,omitempty"`
}
