// Package utils holds small helpers shared across the gateway packages.
package utils

// MaskKey renders a credential for logs: enough of the prefix to tell which
// key is loaded, never enough to use it. Anything shorter than 16 characters
// is fully redacted.
func MaskKey(key string) string {
	if key == "" {
		return "(empty)"
	}
	if len(key) < 16 {
		return "****"
	}
	return key[:8] + "..." + key[len(key)-4:]
}
