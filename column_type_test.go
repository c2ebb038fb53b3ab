package pqcatalog

import (
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/fraugster/parquet-go/parquetschema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustFields(t *testing.T, schema string) []Field {
	t.Helper()

	sd, err := parquetschema.ParseSchemaDefinition(schema)
	require.NoError(t, err)

	fields, err := Fields(sd)
	require.NoError(t, err)
	return fields
}

func TestColumnTypeFromSchema(t *testing.T) {
	fields := mustFields(t, `message test {
  required boolean flag;
  required int32 i32;
  required int64 i64;
  required int96 legacy_ts;
  required float f32;
  required double f64;
  optional binary raw;
  required fixed_len_byte_array(8) fixed;
  optional binary name (STRING);
  optional binary state (ENUM);
  optional binary doc (JSON);
  optional binary blob (BSON);
  required int32 day (DATE);
  required int64 ts_millis (TIMESTAMP(MILLIS, true));
  required int64 ts_micros (TIMESTAMP(MICROS, false));
  required int64 ts_nanos (TIMESTAMP(NANOS, true));
  required int32 time_millis (TIME(MILLIS, true));
  required int64 time_micros (TIME(MICROS, true));
  required int32 small (INT(16, true));
  required int32 tiny_unsigned (INT(8, false));
  required int32 medium_unsigned (INT(32, false));
  required int64 big_unsigned (INT(64, false));
  required int32 price (DECIMAL(9, 2));
  required fixed_len_byte_array(16) amount (DECIMAL(30, 4));
  required fixed_len_byte_array(16) id (UUID);
  required fixed_len_byte_array(12) span (INTERVAL);
}`)

	expected := []string{
		"bool",
		"int32",
		"int64",
		"timestamp[ns]",
		"float",
		"double",
		"binary",
		"fixed_size_binary[8]",
		"string",
		"string",
		"string",
		"binary",
		"date32[day]",
		"timestamp[ms, tz=UTC]",
		"timestamp[us]",
		"timestamp[ns, tz=UTC]",
		"time32[ms]",
		"time64[us]",
		"int16",
		"uint8",
		"uint32",
		"uint64",
		"decimal128(9, 2)",
		"decimal128(30, 4)",
		"fixed_size_binary[16]",
		"fixed_size_binary[12]",
	}

	require.Len(t, fields, len(expected))
	for i, f := range fields {
		assert.Equal(t, expected[i], f.Type.String(), "column %s", f.Name)
	}
}

func TestColumnTypeNested(t *testing.T) {
	fields := mustFields(t, `message test {
  optional group tags (LIST) {
    repeated group list {
      optional binary element (STRING);
    }
  }
  optional group attributes (MAP) {
    repeated group key_value {
      required binary key (STRING);
      optional int32 value;
    }
  }
  required group address {
    required binary street (STRING);
    optional int32 number;
  }
  repeated int64 scores;
  optional group ids (LIST) {
    repeated group list {
      required int64 element;
    }
  }
}`)

	t.Log(spew.Sdump(fields[1].Type))

	require.Len(t, fields, 5)
	assert.Equal(t, KindList, fields[0].Type.Kind)
	assert.Equal(t, "list<element: string>", fields[0].Type.String())
	assert.Equal(t, KindMap, fields[1].Type.Kind)
	assert.Equal(t, "map<string, int32>", fields[1].Type.String())
	assert.Equal(t, KindStruct, fields[2].Type.Kind)
	assert.Equal(t, "struct<street: string, number: int32>", fields[2].Type.String())
	assert.Equal(t, "list<scores: int64>", fields[3].Type.String())
	assert.Equal(t, "list<element: int64>", fields[4].Type.String())
}

func TestColumnTypeString(t *testing.T) {
	elem := Field{Name: "item", Type: ColumnType{Kind: KindInt8}}

	tests := map[string]struct {
		typ      ColumnType
		expected string
	}{
		"null":         {typ: ColumnType{Kind: KindNull}, expected: "null"},
		"half float":   {typ: ColumnType{Kind: KindFloat16}, expected: "halffloat"},
		"large string": {typ: ColumnType{Kind: KindLargeString}, expected: "large_string"},
		"date64":       {typ: ColumnType{Kind: KindDate64}, expected: "date64[ms]"},
		"decimal256":   {typ: ColumnType{Kind: KindDecimal, Precision: 50, Scale: 10}, expected: "decimal256(50, 10)"},
		"time64 nanos": {typ: ColumnType{Kind: KindTime64, Unit: Nanosecond}, expected: "time64[ns]"},
		"empty list":   {typ: ColumnType{Kind: KindList}, expected: "list<item: null>"},
		"list":         {typ: ColumnType{Kind: KindList, Elem: &elem}, expected: "list<item: int8>"},
		"empty map":    {typ: ColumnType{Kind: KindMap}, expected: "map<null, null>"},
		"union": {
			typ:      ColumnType{Kind: KindUnion, Fields: []Field{{Name: "a", Type: ColumnType{Kind: KindInt32}}, {Name: "b", Type: ColumnType{Kind: KindString}}}},
			expected: "union<a: int32, b: string>",
		},
		"unknown kind": {typ: ColumnType{Kind: Kind(99)}, expected: "Kind(99)"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.typ.String())
		})
	}
}
