package envelope

import "strings"

// Mask replaces the value of every sensitive key.
const Mask = "***"

var sensitiveKeys = map[string]bool{
	"password":      true,
	"token":         true,
	"secret":        true,
	"apikey":        true,
	"authorization": true,
	"auth":          true,
	"bearer":        true,
}

// IsSensitiveKey reports whether a map key holds a secret.
func IsSensitiveKey(key string) bool {
	return sensitiveKeys[strings.ToLower(key)]
}

// Redact returns a copy of m with sensitive values masked. Nested maps are
// walked; slices are passed through untouched.
func Redact(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for key, val := range m {
		if IsSensitiveKey(key) {
			out[key] = Mask
			continue
		}
		if nested, ok := val.(map[string]any); ok {
			out[key] = Redact(nested)
			continue
		}
		out[key] = val
	}
	return out
}
