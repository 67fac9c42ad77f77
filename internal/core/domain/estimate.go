// internal/core/domain/estimate.go
package domain

import "encoding/json"

// ConditionEstimate is the structured answer of the external image
// analysis service. The catalog never reads it; it is passed through to
// the seller as-is.
type ConditionEstimate struct {
	Condition      string          `json:"condition"`
	Confidence     float64         `json:"confidence"`
	ValueLow       int64           `json:"value_low"`
	ValueHigh      int64           `json:"value_high"`
	Suggestions    []string        `json:"suggestions,omitempty"`
	DetectedBrand  string          `json:"detected_brand,omitempty"`
	DetectedLabels []string        `json:"detected_labels,omitempty"`
	ImageURL       string          `json:"image_url,omitempty"`
	Raw            json.RawMessage `json:"raw,omitempty"`
}
