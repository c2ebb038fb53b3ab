package pqcatalog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// Hive storage classes for parquet backed tables.
const (
	ParquetInputFormat  = "org.apache.hadoop.hive.ql.io.parquet.MapredParquetInputFormat"
	ParquetOutputFormat = "org.apache.hadoop.hive.ql.io.parquet.MapredParquetOutputFormat"
	ParquetSerDe        = "org.apache.hadoop.hive.ql.io.parquet.serde.ParquetHiveSerDe"

	ExternalTableType = "EXTERNAL_TABLE"
)

// Column is a column of a catalog table.
type Column struct {
	Name string `json:"Name" yaml:"Name"`
	Type string `json:"Type" yaml:"Type"`
}

// PartitionKey is a column derived from the directory layout of a table.
type PartitionKey = Column

// SerDeInfo names the serialization library used to read and write rows.
type SerDeInfo struct {
	SerializationLibrary string            `json:"SerializationLibrary" yaml:"SerializationLibrary"`
	Parameters           map[string]string `json:"Parameters" yaml:"Parameters"`
}

// StorageDescriptor describes where and how the table data is stored.
type StorageDescriptor struct {
	Columns      []Column  `json:"Columns" yaml:"Columns"`
	Location     string    `json:"Location" yaml:"Location"`
	InputFormat  string    `json:"InputFormat" yaml:"InputFormat"`
	OutputFormat string    `json:"OutputFormat" yaml:"OutputFormat"`
	Compressed   bool      `json:"Compressed" yaml:"Compressed"`
	SerdeInfo    SerDeInfo `json:"SerdeInfo" yaml:"SerdeInfo"`
}

// TableDefinition is an external table in the shape of the Glue TableInput
// structure.
type TableDefinition struct {
	Name              string            `json:"Name" yaml:"Name"`
	Description       string            `json:"Description,omitempty" yaml:"Description,omitempty"`
	StorageDescriptor StorageDescriptor `json:"StorageDescriptor" yaml:"StorageDescriptor"`
	PartitionKeys     []PartitionKey    `json:"PartitionKeys" yaml:"PartitionKeys"`
	TableType         string            `json:"TableType" yaml:"TableType"`
	Parameters        map[string]string `json:"Parameters" yaml:"Parameters"`
}

// TableOptions are the inputs of BuildTable.
type TableOptions struct {
	Name          string
	Description   string
	Location      string
	Fields        []Field
	PartitionKeys []PartitionKey

	// Mapper converts the field types. A mapper with default options is
	// used when nil.
	Mapper *TypeMapper
}

// BuildTable assembles the table definition for a parquet dataset.
func BuildTable(opts TableOptions) (*TableDefinition, error) {
	if strings.TrimSpace(opts.Name) == "" {
		return nil, errors.New("table name is empty")
	}
	if strings.TrimSpace(opts.Location) == "" {
		return nil, errors.New("table location is empty")
	}
	if len(opts.Fields) == 0 {
		return nil, ErrNoColumns
	}

	mapper := opts.Mapper
	if mapper == nil {
		mapper = NewTypeMapper()
	}

	columns := mapper.Columns(opts.Fields)

	names := lo.Map(columns, func(c Column, _ int) string { return strings.ToLower(c.Name) })
	for _, pk := range opts.PartitionKeys {
		if lo.Contains(names, strings.ToLower(pk.Name)) {
			return nil, fmt.Errorf("partition key %q is also a data column", pk.Name)
		}
		names = append(names, strings.ToLower(pk.Name))
	}

	partitionKeys := opts.PartitionKeys
	if partitionKeys == nil {
		partitionKeys = []PartitionKey{}
	}

	return &TableDefinition{
		Name:        opts.Name,
		Description: opts.Description,
		StorageDescriptor: StorageDescriptor{
			Columns:      columns,
			Location:     opts.Location,
			InputFormat:  ParquetInputFormat,
			OutputFormat: ParquetOutputFormat,
			Compressed:   false,
			SerdeInfo: SerDeInfo{
				SerializationLibrary: ParquetSerDe,
				Parameters: map[string]string{
					"serialization.format": "1",
				},
			},
		},
		PartitionKeys: partitionKeys,
		TableType:     ExternalTableType,
		Parameters: map[string]string{
			"EXTERNAL": "TRUE",
		},
	}, nil
}
