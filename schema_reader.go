package pqcatalog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	goparquet "github.com/fraugster/parquet-go"
	"github.com/fraugster/parquet-go/parquet"
	"github.com/fraugster/parquet-go/parquetschema"
)

// ErrNoColumns is returned for files whose schema has no columns.
var ErrNoColumns = errors.New("parquet schema has no columns")

// ReadSchemaDefinition reads the footer of the parquet file behind r and
// returns its schema as a tree. Only the footer is read; files without rows
// carry no leading magic header and are accepted.
func ReadSchemaDefinition(ctx context.Context, r io.ReadSeeker) (*parquetschema.SchemaDefinition, error) {
	if err := checkFooterMagic(r); err != nil {
		return nil, err
	}

	meta, err := goparquet.ReadFileMetaDataWithContext(ctx, r, false)
	if err != nil {
		return nil, fmt.Errorf("reading file meta data failed: %w", err)
	}

	if len(meta.Schema) == 0 {
		return nil, ErrNoColumns
	}

	root, next, err := buildColumn(meta.Schema, 0)
	if err != nil {
		return nil, err
	}
	if next != len(meta.Schema) {
		return nil, fmt.Errorf("schema has %d trailing elements that belong to no group", len(meta.Schema)-next)
	}

	return &parquetschema.SchemaDefinition{RootColumn: root}, nil
}

var parquetMagic = []byte("PAR1")

// checkFooterMagic verifies that the file behind r ends with the parquet
// magic bytes.
func checkFooterMagic(r io.ReadSeeker) error {
	if _, err := r.Seek(-int64(len(parquetMagic)), io.SeekEnd); err != nil {
		return fmt.Errorf("seek for the file magic footer failed: %w", err)
	}
	buf := make([]byte, len(parquetMagic))
	if _, err := io.ReadFull(r, buf); err != nil {
		return fmt.Errorf("read the file magic footer failed: %w", err)
	}
	if !bytes.Equal(buf, parquetMagic) {
		return errors.New("invalid parquet file footer")
	}
	return nil
}

// buildColumn turns the depth-first flattened schema element list starting
// at idx into a column definition. It returns the index of the first
// element after the column's subtree.
func buildColumn(elems []*parquet.SchemaElement, idx int) (*parquetschema.ColumnDefinition, int, error) {
	if idx >= len(elems) {
		return nil, idx, fmt.Errorf("schema element %d out of range", idx)
	}

	elem := elems[idx]
	if elem == nil {
		return nil, idx, fmt.Errorf("schema element %d is nil", idx)
	}

	col := &parquetschema.ColumnDefinition{SchemaElement: elem}
	idx++

	for i := int32(0); i < elem.GetNumChildren(); i++ {
		child, next, err := buildColumn(elems, idx)
		if err != nil {
			return nil, idx, fmt.Errorf("%s: %w", elem.GetName(), err)
		}
		col.Children = append(col.Children, child)
		idx = next
	}

	return col, idx, nil
}

// Fields returns the top-level fields of a schema definition in file order.
func Fields(sd *parquetschema.SchemaDefinition) ([]Field, error) {
	if sd == nil || sd.RootColumn == nil || len(sd.RootColumn.Children) == 0 {
		return nil, ErrNoColumns
	}

	fields := make([]Field, 0, len(sd.RootColumn.Children))
	for _, col := range sd.RootColumn.Children {
		fields = append(fields, fieldFromColumn(col))
	}
	return fields, nil
}

// ReadSchema reads the footer of the parquet file behind r and returns its
// top-level fields.
func ReadSchema(ctx context.Context, r io.ReadSeeker) ([]Field, error) {
	sd, err := ReadSchemaDefinition(ctx, r)
	if err != nil {
		return nil, err
	}
	return Fields(sd)
}

// ReadLocalSchema reads the schema of a parquet file on the local filesystem.
func ReadLocalSchema(ctx context.Context, path string) ([]Field, error) {
	fl, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("can not open the file: %w", err)
	}
	defer fl.Close()

	fields, err := ReadSchema(ctx, fl)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return fields, nil
}

// PhysicalType describes how a column is stored, e.g. "int64", "binary (STRING)"
// or "group (LIST)".
func PhysicalType(col *parquetschema.ColumnDefinition) string {
	elem := col.SchemaElement

	typ := "group"
	if elem.IsSetType() {
		typ = physicalTypeNames[elem.GetType()]
		if elem.GetType() == parquet.Type_FIXED_LEN_BYTE_ARRAY {
			typ = fmt.Sprintf("%s(%d)", typ, elem.GetTypeLength())
		}
	}

	if elem.IsSetConvertedType() {
		typ += " (" + elem.GetConvertedType().String() + ")"
	}
	return typ
}

var physicalTypeNames = map[parquet.Type]string{
	parquet.Type_BOOLEAN:              "boolean",
	parquet.Type_INT32:                "int32",
	parquet.Type_INT64:                "int64",
	parquet.Type_INT96:                "int96",
	parquet.Type_FLOAT:                "float",
	parquet.Type_DOUBLE:               "double",
	parquet.Type_BYTE_ARRAY:           "binary",
	parquet.Type_FIXED_LEN_BYTE_ARRAY: "fixed_len_byte_array",
}
