package pqcatalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildTable(t *testing.T) {
	fields := mustFields(t, `message test {
  required int64 id;
  optional binary name (STRING);
  optional int32 amount (DECIMAL(9, 2));
}`)

	table, err := BuildTable(TableOptions{
		Name:          "events",
		Description:   "raw events",
		Location:      "s3://bucket/events/",
		Fields:        fields,
		PartitionKeys: []PartitionKey{{Name: "year", Type: "string"}},
		Mapper:        NewTypeMapper(WithDecimalMode(DecimalFromSchema)),
	})
	require.NoError(t, err)

	assert.Equal(t, &TableDefinition{
		Name:        "events",
		Description: "raw events",
		StorageDescriptor: StorageDescriptor{
			Columns: []Column{
				{Name: "id", Type: "bigint"},
				{Name: "name", Type: "string"},
				{Name: "amount", Type: "decimal(9,2)"},
			},
			Location:     "s3://bucket/events/",
			InputFormat:  ParquetInputFormat,
			OutputFormat: ParquetOutputFormat,
			SerdeInfo: SerDeInfo{
				SerializationLibrary: ParquetSerDe,
				Parameters:           map[string]string{"serialization.format": "1"},
			},
		},
		PartitionKeys: []PartitionKey{{Name: "year", Type: "string"}},
		TableType:     "EXTERNAL_TABLE",
		Parameters:    map[string]string{"EXTERNAL": "TRUE"},
	}, table)
}

func TestBuildTableDefaults(t *testing.T) {
	table, err := BuildTable(TableOptions{
		Name:     "t",
		Location: "s3://bucket/t/",
		Fields:   []Field{{Name: "amount", Type: ColumnType{Kind: KindDecimal, Precision: 10, Scale: 2}}},
	})
	require.NoError(t, err)

	assert.Equal(t, []Column{{Name: "amount", Type: "decimal"}}, table.StorageDescriptor.Columns)
	assert.NotNil(t, table.PartitionKeys)
	assert.Empty(t, table.PartitionKeys)
}

func TestBuildTableErrors(t *testing.T) {
	fields := []Field{{Name: "id", Type: ColumnType{Kind: KindInt64}}}

	tests := map[string]TableOptions{
		"missing name":     {Location: "s3://b/t/", Fields: fields},
		"missing location": {Name: "t", Fields: fields},
		"no fields":        {Name: "t", Location: "s3://b/t/"},
		"partition key shadows column": {
			Name: "t", Location: "s3://b/t/", Fields: fields,
			PartitionKeys: []PartitionKey{{Name: "ID", Type: "string"}},
		},
		"duplicate partition key": {
			Name: "t", Location: "s3://b/t/", Fields: fields,
			PartitionKeys: []PartitionKey{{Name: "dt", Type: "string"}, {Name: "dt", Type: "date"}},
		},
	}

	for name, opts := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := BuildTable(opts)
			require.Error(t, err)
		})
	}

	_, err := BuildTable(TableOptions{Name: "t", Location: "s3://b/t/"})
	require.ErrorIs(t, err, ErrNoColumns)
}
