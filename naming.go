package pqcatalog

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/iancoleman/strcase"
)

// DefaultTableName derives a table name from a dataset location: the last
// path segment that is neither a partition directory nor a data file,
// converted to snake_case. Local paths are made absolute first. It returns ""
// when no such segment exists.
func DefaultTableName(location string) string {
	if !strings.Contains(location, "://") {
		// relative paths such as "." name their directory only once resolved
		if abs, err := filepath.Abs(location); err == nil {
			location = filepath.ToSlash(abs)
		}
	}

	if idx := strings.Index(location, "://"); idx >= 0 {
		location = location[idx+3:]
		// the bucket is not part of the dataset path
		if slash := strings.Index(location, "/"); slash >= 0 {
			location = location[slash:]
		} else {
			location = ""
		}
	}

	segments := strings.Split(strings.Trim(path.Clean("/"+location), "/"), "/")
	for i := len(segments) - 1; i >= 0; i-- {
		seg := segments[i]
		if seg == "" || isHidden(seg) || strings.Contains(seg, "=") || strings.HasSuffix(strings.ToLower(seg), ".parquet") {
			continue
		}
		return strcase.ToSnake(seg)
	}
	return ""
}
