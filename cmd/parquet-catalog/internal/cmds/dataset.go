package cmds

import (
	"context"
	"fmt"

	"github.com/fraugster/parquet-go/parquetschema"
	"github.com/spf13/cobra"

	pqcatalog "github.com/fraugster/parquet-catalog"
	"github.com/fraugster/parquet-catalog/storage"
)

// dataset is what the commands learn about a source location: where it
// lives, how it is partitioned and the schema of one of its data files.
type dataset struct {
	loc storage.Location
	// bucket is closed when inspectDataset returns; only URI is used afterwards.
	bucket storage.Bucket

	// discovery is nil when the location names a single object.
	discovery *pqcatalog.Discovery
	sampleKey string
	schema    *parquetschema.SchemaDefinition
}

// inspectDataset resolves source, walks its partition directories unless it
// names a single file and reads the schema of the sample data file.
func (e *environment) inspectDataset(ctx context.Context, source, dataFilePrefix string) (*dataset, error) {
	loc, err := storage.ParseLocation(source)
	if err != nil {
		return nil, err
	}

	bucket, err := e.bucket(ctx, loc)
	if err != nil {
		return nil, fmt.Errorf("opening %s failed: %w", loc, err)
	}
	defer bucket.Close()

	ds := &dataset{loc: loc, bucket: bucket, sampleKey: loc.Key}

	if !loc.Object {
		d, err := pqcatalog.DiscoverPartitions(ctx, bucket, loc.Key, dataFilePrefix)
		if err != nil {
			return nil, err
		}
		e.log.Debug("Discovered partitions", "location", loc.String(), "partition_keys", len(d.PartitionKeys), "sample", d.SampleKey)
		ds.discovery = d
		ds.sampleKey = d.SampleKey
	}

	r, err := bucket.Open(ctx, ds.sampleKey)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	ds.schema, err = pqcatalog.ReadSchemaDefinition(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("reading the schema of %s failed: %w", bucket.URI(ds.sampleKey), err)
	}

	return ds, nil
}

// tableLocation is the storage location of the table: the dataset directory.
func (ds *dataset) tableLocation() string {
	return ds.loc.URI(ds.loc.Dir())
}

// dataFilePrefix returns the value of the --data-file-prefix flag of cmd,
// falling back to the configuration when the flag was not given.
func (e *environment) dataFilePrefix(cmd *cobra.Command, flagValue string) string {
	if !cmd.Flags().Changed("data-file-prefix") && e.cfg.DataFilePrefix != "" {
		return e.cfg.DataFilePrefix
	}
	return flagValue
}
