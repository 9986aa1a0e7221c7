package services

import (
	"context"
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func uniqueUints(values []uint) []uint {
	if len(values) == 0 {
		return nil
	}

	seen := make(map[uint]struct{}, len(values))
	out := make([]uint, 0, len(values))
	for _, value := range values {
		if value == 0 {
			continue
		}
		if _, exists := seen[value]; exists {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	return out
}

// coerceID accepts JSON numbers and base-10 numeric strings as record
// identifiers. Booleans and other types are rejected.
func coerceID(value any) (uint, bool) {
	switch v := value.(type) {
	case string:
		n, err := strconv.ParseUint(strings.TrimSpace(v), 10, 64)
		if err != nil || n == 0 {
			return 0, false
		}
		return uint(n), true
	case float64, float32:
		f := cast.ToFloat64(v)
		if f <= 0 || f != math.Trunc(f) {
			return 0, false
		}
		return uint(f), true
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		n, err := cast.ToInt64E(v)
		if err != nil || n <= 0 {
			return 0, false
		}
		return uint(n), true
	default:
		return 0, false
	}
}

func normaliseNames(values []string) []string {
	if len(values) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(values))
	var out []string
	for _, value := range values {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		key := strings.ToLower(value)
		if _, exists := seen[key]; exists {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, value)
	}
	return out
}
