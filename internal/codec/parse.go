package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Parse decodes canonical (or any valid JSON) bytes back into a Value
// tree using json.Number so re-encoding never loses integer precision —
// this is what makes Digest(Parse(CanonicalBytes(v))) == Digest(v)
// hold.
func Parse(b []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("canonical codec: parse failed: %w", err)
	}
	return normalize(v), nil
}

// normalize converts the generic map[string]interface{}/[]interface{}
// tree produced by encoding/json into the map[string]Value/[]Value
// shapes appendValue expects, recursively.
func normalize(v any) Value {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]Value, len(t))
		for k, val := range t {
			out[k] = normalize(val)
		}
		return out
	case []any:
		out := make([]Value, len(t))
		for i, val := range t {
			out[i] = normalize(val)
		}
		return out
	default:
		return t
	}
}
