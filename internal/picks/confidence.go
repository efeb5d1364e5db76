// Package picks filters recommender candidates by confidence and
// formats the survivors for display and persistence.
package picks

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Confidence key names observed across recommender output shapes
var confidenceKeys = []string{"confidence", "confidenceScore", "confidence_score"}

// extractionStrategy attempts to pull a numeric confidence out of one
// historical recommender output shape
type extractionStrategy func(raw interface{}) (float64, bool)

// extractionStrategies are tried in order; the first hit wins. Shapes
// covered: a bare number or numeric string, a flat object, an object
// nested one or two levels down, and a JSON-encoded string of any of
// those.
var extractionStrategies = []extractionStrategy{
	extractScalar,
	extractFlat,
	extractNested(1),
	extractNested(2),
	extractEncoded,
}

// ExtractConfidence pulls a 0.0-1.0 confidence from an opaque
// recommender payload. A payload yielding no numeric confidence under
// any strategy is confidence 0 (excluded by the filter).
func ExtractConfidence(raw interface{}) float64 {
	for _, strategy := range extractionStrategies {
		if v, ok := strategy(raw); ok {
			return v
		}
	}
	return 0
}

func extractScalar(raw interface{}) (float64, bool) {
	return asNumber(raw)
}

func extractFlat(raw interface{}) (float64, bool) {
	obj, ok := raw.(map[string]interface{})
	if !ok {
		return 0, false
	}
	return confidenceField(obj)
}

// extractNested probes maps nested the given number of levels below
// the top-level object
func extractNested(depth int) extractionStrategy {
	return func(raw interface{}) (float64, bool) {
		obj, ok := raw.(map[string]interface{})
		if !ok {
			return 0, false
		}
		return searchNested(obj, depth)
	}
}

func searchNested(obj map[string]interface{}, depth int) (float64, bool) {
	if depth == 0 {
		return confidenceField(obj)
	}
	for _, v := range obj {
		child, ok := v.(map[string]interface{})
		if !ok {
			continue
		}
		if conf, ok := searchNested(child, depth-1); ok {
			return conf, true
		}
	}
	return 0, false
}

func extractEncoded(raw interface{}) (float64, bool) {
	s, ok := raw.(string)
	if !ok {
		return 0, false
	}
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "{") {
		return 0, false
	}
	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(s), &obj); err != nil {
		return 0, false
	}
	if conf, ok := confidenceField(obj); ok {
		return conf, true
	}
	if conf, ok := searchNested(obj, 1); ok {
		return conf, true
	}
	return searchNested(obj, 2)
}

func confidenceField(obj map[string]interface{}) (float64, bool) {
	for _, key := range confidenceKeys {
		if v, ok := obj[key]; ok {
			if n, ok := asNumber(v); ok {
				return n, true
			}
		}
	}
	return 0, false
}

func asNumber(v interface{}) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case json.Number:
		f, err := val.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
