package utils

import (
	"bytes"
	"encoding/json"
)

// MarshalNoEscape encodes v as JSON with HTML escaping off, so URLs and
// comparison operators in relayed payloads stay literal instead of turning
// into <-style escapes.
func MarshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	out := buf.Bytes()
	// Encode appends a newline that json.Marshal would not.
	if n := len(out); n > 0 && out[n-1] == '\n' {
		out = out[:n-1]
	}
	return out, nil
}
