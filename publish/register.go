package publish

import (
	"context"

	pqcatalog "github.com/fraugster/parquet-catalog"
)

// RegisterOptions controls Register.
type RegisterOptions struct {
	// Replace updates an existing table instead of failing.
	Replace bool
	// SkipRepair disables the partition repair query.
	SkipRepair bool
	Repair     RepairOptions
}

// Registration is the outcome of Register.
type Registration struct {
	// QueryExecutionID identifies the repair query; empty if none was started.
	QueryExecutionID string
}

// Register creates table in the catalog and, for partitioned tables, starts
// the query that loads the existing partitions.
func Register(ctx context.Context, catalog *GlueCatalog, repairer *PartitionRepairer, database string, table *pqcatalog.TableDefinition, opts RegisterOptions) (*Registration, error) {
	if err := catalog.CreateTable(ctx, database, table, opts.Replace); err != nil {
		return nil, err
	}

	reg := &Registration{}
	if opts.SkipRepair || len(table.PartitionKeys) == 0 || repairer == nil {
		catalog.log.Debug("Skipping partition repair", "table", table.Name, "partition_keys", len(table.PartitionKeys))
		return reg, nil
	}

	id, err := repairer.Repair(ctx, database, table.Name, opts.Repair)
	if err != nil {
		return nil, err
	}
	reg.QueryExecutionID = id
	return reg, nil
}
