package pqcatalog

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// DecimalMode selects how decimal columns are named in the catalog.
type DecimalMode int

const (
	// DecimalPlain names every decimal column "decimal".
	DecimalPlain DecimalMode = iota
	// DecimalFixed names every decimal column "decimal(16,2)".
	DecimalFixed
	// DecimalFromSchema uses the precision and scale stored in the file, e.g. "decimal(10,2)".
	DecimalFromSchema
)

var decimalModeNames = map[string]DecimalMode{
	"plain":  DecimalPlain,
	"fixed":  DecimalFixed,
	"schema": DecimalFromSchema,
}

// ParseDecimalMode parses one of "plain", "fixed" or "schema".
func ParseDecimalMode(s string) (DecimalMode, error) {
	m, ok := decimalModeNames[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return DecimalPlain, fmt.Errorf("invalid decimal mode %q, expected one of plain, fixed, schema", s)
	}
	return m, nil
}

// TypeMapper converts column types to catalog type names.
type TypeMapper struct {
	decimalMode DecimalMode
}

// MapperOption configures a TypeMapper.
type MapperOption func(*TypeMapper)

// WithDecimalMode sets the naming of decimal columns. The default is DecimalPlain.
func WithDecimalMode(m DecimalMode) MapperOption {
	return func(tm *TypeMapper) {
		tm.decimalMode = m
	}
}

// NewTypeMapper returns a TypeMapper configured with opts.
func NewTypeMapper(opts ...MapperOption) *TypeMapper {
	tm := &TypeMapper{}
	for _, opt := range opts {
		opt(tm)
	}
	return tm
}

// CatalogType returns the catalog type name for t. The first matching rule
// wins; types without a rule are returned as t.String().
func (tm *TypeMapper) CatalogType(t ColumnType) string {
	switch t.Kind {
	case KindString, KindLargeString:
		return "string"
	case KindInt64, KindUint64:
		return "bigint"
	case KindBinary:
		return "binary"
	case KindBoolean:
		return "boolean"
	case KindDate32, KindDate64:
		return "date"
	case KindDecimal:
		return tm.decimal(t)
	case KindFloat64:
		return "double"
	case KindInt16, KindInt32, KindUint16, KindUint32:
		return "int"
	case KindFloat16, KindFloat32:
		return "float"
	case KindMap:
		return "map"
	case KindStruct:
		return "struct"
	case KindTimestamp:
		return "timestamp"
	case KindUnion:
		return "union"
	}
	return t.String()
}

func (tm *TypeMapper) decimal(t ColumnType) string {
	switch tm.decimalMode {
	case DecimalFixed:
		return "decimal(16,2)"
	case DecimalFromSchema:
		return fmt.Sprintf("decimal(%d,%d)", t.Precision, t.Scale)
	default:
		return "decimal"
	}
}

// Columns maps fields to catalog columns, preserving their order.
func (tm *TypeMapper) Columns(fields []Field) []Column {
	return lo.Map(fields, func(f Field, _ int) Column {
		return Column{Name: f.Name, Type: tm.CatalogType(f.Type)}
	})
}
