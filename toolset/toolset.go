package toolset

import (
	"time"

	"github.com/google/uuid"
)

// newRef builds a short prefixed reference such as ORDER_1a2b3c4d, matching
// the identifier style used across the aviation datasets.
func newRef(prefix string) string {
	return prefix + "_" + uuid.NewString()[:8]
}

func nowStamp() string {
	return time.Now().Format(time.RFC3339)
}

func today() string {
	return time.Now().Format("2006-01-02")
}

// stringArg reads an optional string argument with a fallback.
func stringArg(args map[string]any, key, fallback string) string {
	if v, ok := args[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

// intArg reads an optional integer argument, accepting the float64 shape
// JSON decoding produces.
func intArg(args map[string]any, key string, fallback int) int {
	switch v := args[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return fallback
}

// sliceArg reads an optional list argument, tolerating absent values.
func sliceArg(args map[string]any, key string) []any {
	if v, ok := args[key].([]any); ok {
		return v
	}
	return nil
}

func successEnvelope(message string, extra map[string]any) map[string]any {
	out := map[string]any{"status": "success", "message": message}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

func errorEnvelope(message string) map[string]any {
	return map[string]any{"status": "error", "message": message}
}
