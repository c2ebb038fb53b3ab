package pqcatalog

import (
	"fmt"
	"strings"

	"github.com/fraugster/parquet-go/parquet"
	"github.com/fraugster/parquet-go/parquetschema"
)

// Kind is the family of a column type, modelled after the Arrow type system.
type Kind int

// Supported kinds.
const (
	KindNull Kind = iota
	KindBoolean
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindUint8
	KindUint16
	KindUint32
	KindUint64
	KindFloat16
	KindFloat32
	KindFloat64
	KindString
	KindLargeString
	KindBinary
	KindFixedSizeBinary
	KindDate32
	KindDate64
	KindDecimal
	KindTimestamp
	KindTime32
	KindTime64
	KindList
	KindMap
	KindStruct
	KindUnion
)

var kindNames = map[Kind]string{
	KindNull:            "null",
	KindBoolean:         "bool",
	KindInt8:            "int8",
	KindInt16:           "int16",
	KindInt32:           "int32",
	KindInt64:           "int64",
	KindUint8:           "uint8",
	KindUint16:          "uint16",
	KindUint32:          "uint32",
	KindUint64:          "uint64",
	KindFloat16:         "halffloat",
	KindFloat32:         "float",
	KindFloat64:         "double",
	KindString:          "string",
	KindLargeString:     "large_string",
	KindBinary:          "binary",
	KindFixedSizeBinary: "fixed_size_binary",
	KindDate32:          "date32",
	KindDate64:          "date64",
	KindDecimal:         "decimal128",
	KindTimestamp:       "timestamp",
	KindTime32:          "time32",
	KindTime64:          "time64",
	KindList:            "list",
	KindMap:             "map",
	KindStruct:          "struct",
	KindUnion:           "union",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// TimeUnit is the resolution of timestamp and time columns.
type TimeUnit string

// Time units as they are rendered in type names.
const (
	Second      TimeUnit = "s"
	Millisecond TimeUnit = "ms"
	Microsecond TimeUnit = "us"
	Nanosecond  TimeUnit = "ns"
)

// ColumnType describes the type of a single column. Only the attributes
// relevant to Kind are set.
type ColumnType struct {
	Kind Kind

	// decimal
	Precision int32
	Scale     int32

	// timestamp, time32, time64
	Unit TimeUnit
	UTC  bool

	// fixed_size_binary
	ByteWidth int32

	// list (Elem), map (Key, Value), struct and union (Fields)
	Elem   *Field
	Key    *ColumnType
	Value  *ColumnType
	Fields []Field
}

// Field is a named column type.
type Field struct {
	Name string
	Type ColumnType
}

func (f Field) String() string {
	return f.Name + ": " + f.Type.String()
}

// String renders the type the way Arrow names it, e.g. "int64",
// "timestamp[ms, tz=UTC]" or "list<element: int32>".
func (t ColumnType) String() string {
	switch t.Kind {
	case KindFixedSizeBinary:
		return fmt.Sprintf("fixed_size_binary[%d]", t.ByteWidth)
	case KindDate32:
		return "date32[day]"
	case KindDate64:
		return "date64[ms]"
	case KindDecimal:
		if t.Precision > 38 {
			return fmt.Sprintf("decimal256(%d, %d)", t.Precision, t.Scale)
		}
		return fmt.Sprintf("decimal128(%d, %d)", t.Precision, t.Scale)
	case KindTimestamp:
		if t.UTC {
			return fmt.Sprintf("timestamp[%s, tz=UTC]", t.Unit)
		}
		return fmt.Sprintf("timestamp[%s]", t.Unit)
	case KindTime32, KindTime64:
		return fmt.Sprintf("%s[%s]", t.Kind, t.Unit)
	case KindList:
		if t.Elem == nil {
			return "list<item: null>"
		}
		return "list<" + t.Elem.String() + ">"
	case KindMap:
		key, value := "null", "null"
		if t.Key != nil {
			key = t.Key.String()
		}
		if t.Value != nil {
			value = t.Value.String()
		}
		return "map<" + key + ", " + value + ">"
	case KindStruct, KindUnion:
		parts := make([]string, 0, len(t.Fields))
		for _, f := range t.Fields {
			parts = append(parts, f.String())
		}
		return t.Kind.String() + "<" + strings.Join(parts, ", ") + ">"
	default:
		return t.Kind.String()
	}
}

// fieldFromColumn converts a column of a parquet schema definition into a
// field. A repeated column that is not part of a LIST or MAP annotation is a
// list of its element type.
func fieldFromColumn(col *parquetschema.ColumnDefinition) Field {
	typ := columnType(col)
	if col.SchemaElement.GetRepetitionType() == parquet.FieldRepetitionType_REPEATED {
		elem := Field{Name: col.SchemaElement.GetName(), Type: typ}
		typ = ColumnType{Kind: KindList, Elem: &elem}
	}
	return Field{Name: col.SchemaElement.GetName(), Type: typ}
}

func columnType(col *parquetschema.ColumnDefinition) ColumnType {
	elem := col.SchemaElement
	if len(col.Children) > 0 || !elem.IsSetType() {
		return groupType(col)
	}

	if lt := elem.GetLogicalType(); lt != nil {
		if t, ok := fromLogicalType(lt); ok {
			return t
		}
	}

	if elem.IsSetConvertedType() {
		if t, ok := fromConvertedType(elem); ok {
			return t
		}
	}

	switch elem.GetType() {
	case parquet.Type_BOOLEAN:
		return ColumnType{Kind: KindBoolean}
	case parquet.Type_INT32:
		return ColumnType{Kind: KindInt32}
	case parquet.Type_INT64:
		return ColumnType{Kind: KindInt64}
	case parquet.Type_INT96:
		return ColumnType{Kind: KindTimestamp, Unit: Nanosecond}
	case parquet.Type_FLOAT:
		return ColumnType{Kind: KindFloat32}
	case parquet.Type_DOUBLE:
		return ColumnType{Kind: KindFloat64}
	case parquet.Type_FIXED_LEN_BYTE_ARRAY:
		return ColumnType{Kind: KindFixedSizeBinary, ByteWidth: elem.GetTypeLength()}
	default:
		return ColumnType{Kind: KindBinary}
	}
}

func fromLogicalType(lt *parquet.LogicalType) (ColumnType, bool) {
	switch {
	case lt.IsSetSTRING(), lt.IsSetENUM(), lt.IsSetJSON():
		return ColumnType{Kind: KindString}, true
	case lt.IsSetDATE():
		return ColumnType{Kind: KindDate32}, true
	case lt.IsSetDECIMAL():
		return ColumnType{Kind: KindDecimal, Precision: lt.DECIMAL.Precision, Scale: lt.DECIMAL.Scale}, true
	case lt.IsSetTIMESTAMP():
		return ColumnType{Kind: KindTimestamp, Unit: timeUnit(lt.TIMESTAMP.Unit), UTC: lt.TIMESTAMP.IsAdjustedToUTC}, true
	case lt.IsSetTIME():
		unit := timeUnit(lt.TIME.Unit)
		if unit == Millisecond {
			return ColumnType{Kind: KindTime32, Unit: unit}, true
		}
		return ColumnType{Kind: KindTime64, Unit: unit}, true
	case lt.IsSetINTEGER():
		return integerType(int(lt.INTEGER.BitWidth), lt.INTEGER.IsSigned), true
	case lt.IsSetUUID():
		return ColumnType{Kind: KindFixedSizeBinary, ByteWidth: 16}, true
	case lt.IsSetBSON():
		return ColumnType{Kind: KindBinary}, true
	case lt.IsSetUNKNOWN():
		return ColumnType{Kind: KindNull}, true
	}
	return ColumnType{}, false
}

func fromConvertedType(elem *parquet.SchemaElement) (ColumnType, bool) {
	switch elem.GetConvertedType() {
	case parquet.ConvertedType_UTF8, parquet.ConvertedType_ENUM, parquet.ConvertedType_JSON:
		return ColumnType{Kind: KindString}, true
	case parquet.ConvertedType_DATE:
		return ColumnType{Kind: KindDate32}, true
	case parquet.ConvertedType_DECIMAL:
		return ColumnType{Kind: KindDecimal, Precision: elem.GetPrecision(), Scale: elem.GetScale()}, true
	case parquet.ConvertedType_TIMESTAMP_MILLIS:
		return ColumnType{Kind: KindTimestamp, Unit: Millisecond, UTC: true}, true
	case parquet.ConvertedType_TIMESTAMP_MICROS:
		return ColumnType{Kind: KindTimestamp, Unit: Microsecond, UTC: true}, true
	case parquet.ConvertedType_TIME_MILLIS:
		return ColumnType{Kind: KindTime32, Unit: Millisecond}, true
	case parquet.ConvertedType_TIME_MICROS:
		return ColumnType{Kind: KindTime64, Unit: Microsecond}, true
	case parquet.ConvertedType_INT_8:
		return integerType(8, true), true
	case parquet.ConvertedType_INT_16:
		return integerType(16, true), true
	case parquet.ConvertedType_INT_32:
		return integerType(32, true), true
	case parquet.ConvertedType_INT_64:
		return integerType(64, true), true
	case parquet.ConvertedType_UINT_8:
		return integerType(8, false), true
	case parquet.ConvertedType_UINT_16:
		return integerType(16, false), true
	case parquet.ConvertedType_UINT_32:
		return integerType(32, false), true
	case parquet.ConvertedType_UINT_64:
		return integerType(64, false), true
	case parquet.ConvertedType_BSON:
		return ColumnType{Kind: KindBinary}, true
	case parquet.ConvertedType_INTERVAL:
		return ColumnType{Kind: KindFixedSizeBinary, ByteWidth: 12}, true
	}
	return ColumnType{}, false
}

func integerType(bitWidth int, signed bool) ColumnType {
	kinds := map[int][2]Kind{
		8:  {KindUint8, KindInt8},
		16: {KindUint16, KindInt16},
		32: {KindUint32, KindInt32},
		64: {KindUint64, KindInt64},
	}
	k, ok := kinds[bitWidth]
	if !ok {
		k = kinds[64]
	}
	if signed {
		return ColumnType{Kind: k[1]}
	}
	return ColumnType{Kind: k[0]}
}

func timeUnit(u *parquet.TimeUnit) TimeUnit {
	switch {
	case u == nil:
		return Millisecond
	case u.IsSetNANOS():
		return Nanosecond
	case u.IsSetMICROS():
		return Microsecond
	default:
		return Millisecond
	}
}

func groupType(col *parquetschema.ColumnDefinition) ColumnType {
	elem := col.SchemaElement
	lt := elem.GetLogicalType()

	isMap := (lt != nil && lt.IsSetMAP()) ||
		elem.GetConvertedType() == parquet.ConvertedType_MAP ||
		elem.GetConvertedType() == parquet.ConvertedType_MAP_KEY_VALUE
	isList := (lt != nil && lt.IsSetLIST()) || elem.GetConvertedType() == parquet.ConvertedType_LIST

	switch {
	case isMap:
		if t, ok := mapType(col); ok {
			return t
		}
	case isList:
		if t, ok := listType(col); ok {
			return t
		}
	}

	fields := make([]Field, 0, len(col.Children))
	for _, child := range col.Children {
		fields = append(fields, fieldFromColumn(child))
	}
	return ColumnType{Kind: KindStruct, Fields: fields}
}

// mapType reads the MAP layout:
//
//	<map-repetition> group <name> (MAP) {
//	  repeated group key_value {
//	    required <key-type> key;
//	    <value-repetition> <value-type> value;
//	  }
//	}
func mapType(col *parquetschema.ColumnDefinition) (ColumnType, bool) {
	if len(col.Children) != 1 {
		return ColumnType{}, false
	}
	kv := col.Children[0]
	if len(kv.Children) == 0 || len(kv.Children) > 2 {
		return ColumnType{}, false
	}

	key := columnType(kv.Children[0])
	t := ColumnType{Kind: KindMap, Key: &key}
	if len(kv.Children) == 2 {
		value := fieldFromColumn(kv.Children[1]).Type
		t.Value = &value
	}
	return t, true
}

// listType reads both the three-level LIST layout and the legacy two-level
// layouts, where the repeated field is the element itself.
func listType(col *parquetschema.ColumnDefinition) (ColumnType, bool) {
	if len(col.Children) != 1 {
		return ColumnType{}, false
	}
	repeated := col.Children[0]

	var elem Field
	if len(repeated.Children) == 1 && repeated.SchemaElement.GetName() != "array" &&
		repeated.SchemaElement.GetName() != col.SchemaElement.GetName()+"_tuple" {
		elem = fieldFromColumn(repeated.Children[0])
	} else {
		elem = Field{Name: repeated.SchemaElement.GetName(), Type: columnType(repeated)}
	}
	return ColumnType{Kind: KindList, Elem: &elem}, true
}
