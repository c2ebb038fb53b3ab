package pqcatalog

import (
	"strconv"
	"strings"

	"github.com/araddon/dateparse"
)

// SuggestPartitionType guesses a catalog type for a partition value:
// "int" for integers, "date" for calendar dates, "timestamp" for dates
// with a time of day and "string" for everything else.
func SuggestPartitionType(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "string"
	}

	if _, err := strconv.ParseInt(value, 10, 32); err == nil {
		return "int"
	}
	if _, err := strconv.ParseInt(value, 10, 64); err == nil {
		return "bigint"
	}

	// dateparse accepts a lot of layouts; only take dash or slash separated
	// dates into account so that values like "v2" or "1.5" stay strings.
	if !strings.ContainsAny(value, "-/") {
		return "string"
	}

	t, err := dateparse.ParseStrict(value)
	if err != nil {
		return "string"
	}

	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 && !strings.ContainsAny(value, ":T ") {
		return "date"
	}
	return "timestamp"
}

// InferPartitionTypes returns a copy of keys with the types suggested for the
// sampled values. values must be index-aligned with keys; keys without a
// value keep their type.
func InferPartitionTypes(keys []PartitionKey, values []string) []PartitionKey {
	out := make([]PartitionKey, len(keys))
	copy(out, keys)
	for i := range out {
		if i < len(values) {
			out[i].Type = SuggestPartitionType(values[i])
		}
	}
	return out
}
