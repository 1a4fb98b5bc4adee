package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Clean returns a copy of fields without entries whose value is nil or
// the empty string. Other zero values such as 0 and false are kept.
func Clean(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		if v == nil {
			continue
		}
		if s, ok := v.(string); ok && s == "" {
			continue
		}
		out[k] = v
	}
	return out
}

// cleanBody renders e as a JSON object with empty fields removed.
func cleanBody(e any) ([]byte, error) {
	raw, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encode entity: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return nil, fmt.Errorf("encode entity: %w", err)
	}
	return json.Marshal(Clean(fields))
}
