package pqcatalog

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"sort"
	"strings"

	"github.com/samber/lo"
)

// DefaultDataFilePrefix is the name prefix of the data files written by
// Spark, Hive and most other engines.
const DefaultDataFilePrefix = "part-"

// ErrNoDataFiles is returned when partition discovery reaches a prefix that
// holds no data files.
var ErrNoDataFiles = errors.New("no data files found")

// Lister lists the contents of a bucket one directory level at a time. Keys
// and prefixes use "/" as the separator; prefixes end with "/".
type Lister interface {
	// ListPrefixes returns the common prefixes directly below prefix.
	ListPrefixes(ctx context.Context, prefix string) ([]string, error)
	// ListObjects returns the keys of the objects directly below the
	// directory of prefix whose names start with prefix.
	ListObjects(ctx context.Context, prefix string) ([]string, error)
}

// Discovery is the result of DiscoverPartitions.
type Discovery struct {
	// PartitionKeys holds one key per partition directory level, outermost first.
	PartitionKeys []PartitionKey
	// Values holds the partition value of the sampled path for each key.
	Values []string
	// Prefix is the deepest partition prefix that was visited.
	Prefix string
	// SampleKey is the data file whose footer describes the dataset.
	SampleKey string
}

// DiscoverPartitions walks down from prefix, following the first key=value
// directory on every level, and returns the partition keys found on the way
// together with the first data file below the deepest partition directory.
// Only one path is followed, so the result is only meaningful for datasets
// with a uniform partition layout.
func DiscoverPartitions(ctx context.Context, l Lister, prefix, dataFilePrefix string) (*Discovery, error) {
	d := &Discovery{
		PartitionKeys: []PartitionKey{},
		Prefix:        dirPrefix(prefix),
	}

	for {
		prefixes, err := l.ListPrefixes(ctx, d.Prefix)
		if err != nil {
			return nil, fmt.Errorf("listing prefixes of %q failed: %w", d.Prefix, err)
		}

		next, key, value, ok := firstPartitionPrefix(prefixes)
		if !ok {
			break
		}

		d.PartitionKeys = append(d.PartitionKeys, PartitionKey{Name: key, Type: "string"})
		d.Values = append(d.Values, value)
		d.Prefix = next
	}

	if dupes := lo.FindDuplicates(lo.Map(d.PartitionKeys, func(k PartitionKey, _ int) string { return k.Name })); len(dupes) > 0 {
		return nil, fmt.Errorf("partition key %q appears on more than one directory level", dupes[0])
	}

	objects, err := l.ListObjects(ctx, d.Prefix+dataFilePrefix)
	if err != nil {
		return nil, fmt.Errorf("listing objects of %q failed: %w", d.Prefix, err)
	}

	objects = lo.Filter(objects, func(key string, _ int) bool {
		return !strings.HasSuffix(key, "/") && !isHidden(path.Base(key))
	})
	if len(objects) == 0 {
		return nil, fmt.Errorf("%w below %q with prefix %q", ErrNoDataFiles, d.Prefix, dataFilePrefix)
	}

	sort.Strings(objects)
	d.SampleKey = objects[0]

	return d, nil
}

// SplitPartitionSegment splits a key=value path segment. Hive escapes
// special characters in both parts; they are unescaped here.
func SplitPartitionSegment(segment string) (key, value string, ok bool) {
	segment = strings.TrimSuffix(segment, "/")
	idx := strings.Index(segment, "=")
	if idx <= 0 {
		return "", "", false
	}

	key, value = segment[:idx], segment[idx+1:]
	if k, err := url.PathUnescape(key); err == nil {
		key = k
	}
	if v, err := url.PathUnescape(value); err == nil {
		value = v
	}
	return key, value, true
}

func firstPartitionPrefix(prefixes []string) (next, key, value string, ok bool) {
	sorted := append([]string(nil), prefixes...)
	sort.Strings(sorted)

	for _, p := range sorted {
		segment := path.Base(strings.TrimSuffix(p, "/"))
		if isHidden(segment) {
			continue
		}
		if key, value, ok = SplitPartitionSegment(segment); ok {
			return dirPrefix(p), key, value, true
		}
	}
	return "", "", "", false
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, "_") || strings.HasPrefix(name, ".")
}

// dirPrefix makes p usable as a directory prefix. The empty prefix denotes
// the bucket root.
func dirPrefix(p string) string {
	p = strings.TrimPrefix(p, "/")
	if p == "" || strings.HasSuffix(p, "/") {
		return p
	}
	return p + "/"
}
