package extract

import (
	"encoding/json"
	"fmt"
	"os"
)

// Mapping represents one extraction rule.
type Mapping struct {
	Selector string `json:"selector"`        // evaluated relative to the record element
	Extract  string `json:"extract"`         // "text" (default) or "attr"
	Attr     string `json:"attr,omitempty"`  // used when Extract == "attr"
	Field    string `json:"field"`           // key name in the output record
	Match    string `json:"match,omitempty"` // optional regex filter on the extracted value
}

// MappingFile describes the mappings.json file.
type MappingFile struct {
	// RecordSelector matches one element per flight row on the page.
	RecordSelector string `json:"record_selector"`
	// ListKey is the envelope field the records are written under; when empty
	// the loader's default applies.
	ListKey  string    `json:"list_key,omitempty"`
	Mappings []Mapping `json:"mappings"`
}

// LoadMappingFile loads and validates a JSON mapping file.
func LoadMappingFile(path string) (*MappingFile, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read mappings file: %w", err)
	}

	var mf MappingFile
	if err := json.Unmarshal(b, &mf); err != nil {
		return nil, fmt.Errorf("parse mappings json: %w", err)
	}

	if mf.RecordSelector == "" {
		return nil, fmt.Errorf("mappings.json has no record_selector")
	}
	if len(mf.Mappings) == 0 {
		return nil, fmt.Errorf("mappings.json has no mappings")
	}
	return &mf, nil
}
