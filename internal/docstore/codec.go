package docstore

import (
	"encoding/json"
	"fmt"
	"time"
)

// Documents cross the storage boundary as JSON objects, which is also what
// gives Update its per-field merge semantics: unknown fields are preserved,
// named fields are overwritten wholesale.

// timeLayout is the stored form of timestamps: UTC with a full nine-digit
// fractional part. Encoding/json would trim trailing zeros, and a trimmed
// whole-second value ("...:05Z") sorts lexicographically after a fractional
// one ("...:05.5Z"). Fixed width keeps text order equal to time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func encodeDoc[T Document](doc T) (map[string]any, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	for k, v := range fields {
		fields[k] = normalizeTime(v)
	}
	return fields, nil
}

// normalizeTime rewrites a value that reads as an RFC 3339 timestamp into
// the fixed-width stored form. Anything else passes through untouched.
func normalizeTime(v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return v
	}
	return t.UTC().Format(timeLayout)
}

func decodeDoc[T Document](fields map[string]any) (T, error) {
	var doc T
	raw, err := json.Marshal(fields)
	if err != nil {
		return doc, fmt.Errorf("decode document: %w", err)
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return doc, fmt.Errorf("decode document: %w", err)
	}
	return doc, nil
}

func mergeFields(dst map[string]any, updates map[string]any) map[string]any {
	merged := make(map[string]any, len(dst)+len(updates))
	for k, v := range dst {
		merged[k] = v
	}
	for k, v := range updates {
		merged[k] = normalizeValue(v)
	}
	return merged
}

// normalizeValue round-trips a value through JSON so that values supplied by
// callers compare equal to values decoded from storage (ints become float64,
// time.Time becomes an RFC 3339 string, and so on).
func normalizeValue(v any) any {
	raw, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return v
	}
	return normalizeTime(out)
}

func valuesEqual(a, b any) bool {
	an, bn := normalizeValue(a), normalizeValue(b)
	af, aok := an.(float64)
	bf, bok := bn.(float64)
	if aok && bok {
		return af == bf
	}
	return fmt.Sprint(an) == fmt.Sprint(bn)
}

// lessValue orders two field values: numerically when both are numbers,
// lexicographically otherwise. Timestamps are stored as fixed-width UTC
// strings (timeLayout), so their lexicographic order matches chronological
// order.
func lessValue(a, b any) bool {
	af, aok := a.(float64)
	bf, bok := b.(float64)
	if aok && bok {
		return af < bf
	}
	return fmt.Sprint(a) < fmt.Sprint(b)
}
