package webhook

import "encoding/json"

// The automation endpoint answers with a recommendation for the patient.
// Historically the field name drifted between deployments, so decoding is
// split into a versioned schema plus a tolerant adapter that confines the
// drift to this file.

// RecommendationV1 is the current response schema.
type RecommendationV1 struct {
	Version        int     `json:"version"`
	Recommendation string  `json:"recommendation"`
	Confidence     float64 `json:"confidence"`
}

// recommendationKeys lists the field names older endpoint versions have
// used, in probe order.
var recommendationKeys = []string{
	"recommendation",
	"Recommendation",
	"recommendation_text",
	"advice",
	"output",
	"message",
}

// DecodeRecommendation adapts a raw webhook response body to the v1 schema.
// It returns false for non-JSON bodies and for JSON carrying no known
// recommendation field.
func DecodeRecommendation(body string) (RecommendationV1, bool) {
	var versioned RecommendationV1
	if err := json.Unmarshal([]byte(body), &versioned); err == nil &&
		versioned.Version >= 1 && versioned.Recommendation != "" {
		return versioned, true
	}

	var fields map[string]any
	if err := json.Unmarshal([]byte(body), &fields); err != nil {
		return RecommendationV1{}, false
	}
	for _, key := range recommendationKeys {
		text, ok := fields[key].(string)
		if !ok || text == "" {
			continue
		}
		rec := RecommendationV1{Version: 1, Recommendation: text}
		if confidence, ok := fields["confidence"].(float64); ok {
			rec.Confidence = confidence
		}
		return rec, true
	}
	return RecommendationV1{}, false
}
