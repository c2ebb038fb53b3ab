package storage

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

var sizeSuffixes = map[string]int64{
	"B":   1,
	"KB":  1000,
	"KiB": 1 << 10,
	"MB":  1000 * 1000,
	"MiB": 1 << 20,
	"GB":  1000 * 1000 * 1000,
	"GiB": 1 << 30,
}

// suffixes sorted longest first, so that "KiB" is tried before "B".
var sizeSuffixOrder = func() []string {
	keys := make([]string, 0, len(sizeSuffixes))
	for k := range sizeSuffixes {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	return keys
}()

// ParseSize parses a byte size such as "65536", "64KiB" or "1MB".
func ParseSize(in string) (int64, error) {
	in = strings.TrimSpace(in)
	if b, err := strconv.ParseInt(in, 10, 64); err == nil {
		if b < 0 {
			return 0, fmt.Errorf("negative size %q", in)
		}
		return b, nil
	}

	for _, suffix := range sizeSuffixOrder {
		if !strings.HasSuffix(in, suffix) {
			continue
		}
		b, err := strconv.ParseInt(strings.TrimSpace(strings.TrimSuffix(in, suffix)), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid size %q: %w", in, err)
		}
		if b < 0 {
			return 0, fmt.Errorf("negative size %q", in)
		}
		mult := sizeSuffixes[suffix]
		if b > math.MaxInt64/mult {
			return 0, fmt.Errorf("size %q is too large", in)
		}
		return b * mult, nil
	}

	return 0, fmt.Errorf("invalid size %q", in)
}
