package gateway

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// validationError carries a field-specific message for a 400 response.
type validationError struct {
	msg string
}

func (e *validationError) Error() string { return e.msg }

func invalidf(format string, args ...any) *validationError {
	return &validationError{msg: fmt.Sprintf(format, args...)}
}

// validateBody checks body against the route's field schema and returns the
// body to forward. String params are trimmed in place (via sjson) so the
// upstream sees the same values the gateway validated. Empty-after-trim
// counts as absent. Routes without a schema still require any body they do
// receive to parse as JSON: everything forwarded is declared application/json.
func validateBody(body []byte, fields []BodyField) ([]byte, *validationError) {
	if len(body) == 0 {
		if len(fields) == 0 {
			return body, nil
		}
		body = []byte("{}")
	}
	if !gjson.ValidBytes(body) {
		return nil, invalidf("request body must be valid JSON")
	}
	if len(fields) == 0 {
		return body, nil
	}

	for _, f := range fields {
		v := gjson.GetBytes(body, f.Name)
		if !v.Exists() || v.Type == gjson.Null {
			if f.Required {
				return nil, invalidf("%s is required", f.Name)
			}
			continue
		}

		switch f.Kind {
		case FieldString, FieldEnum:
			if v.Type != gjson.String {
				return nil, invalidf("%s must be a string", f.Name)
			}
			trimmed := strings.TrimSpace(v.Str)
			if trimmed == "" {
				if f.Required {
					return nil, invalidf("%s is required", f.Name)
				}
				continue
			}
			if f.Kind == FieldEnum && !contains(f.Enum, trimmed) {
				return nil, invalidf("%s must be one of: %s", f.Name, strings.Join(f.Enum, ", "))
			}
			if trimmed != v.Str {
				patched, err := sjson.SetBytes(body, f.Name, trimmed)
				if err != nil {
					return nil, invalidf("%s is invalid", f.Name)
				}
				body = patched
			}
		case FieldNumber:
			if v.Type != gjson.Number {
				return nil, invalidf("%s must be a number", f.Name)
			}
		case FieldObject:
			if !v.IsObject() {
				return nil, invalidf("%s must be an object", f.Name)
			}
		}
	}
	return body, nil
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
