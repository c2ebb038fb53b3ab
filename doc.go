/*
Package pqcatalog derives external table definitions for a Hive-style metadata
catalog (such as the AWS Glue Data Catalog) from the schema of a Parquet
dataset.

The schema is taken from the footer of a single Parquet file. For partitioned
datasets laid out as key=value directories, DiscoverPartitions walks one path
down the directory tree, collecting the partition key names on the way and
returning the first data file it finds as the sample whose footer describes
the dataset:

	bucket, err := storage.NewLocalBucket("/data/events")
	if err != nil {
		// handle error
	}

	discovery, err := pqcatalog.DiscoverPartitions(ctx, bucket, "", pqcatalog.DefaultDataFilePrefix)
	if err != nil {
		// handle error
	}

	rs, err := bucket.Open(ctx, discovery.SampleKey)
	if err != nil {
		// handle error
	}
	defer rs.Close()

	fields, err := pqcatalog.ReadSchema(ctx, rs)
	if err != nil {
		// handle error
	}

	table, err := pqcatalog.BuildTable(pqcatalog.TableOptions{
		Name:          "events",
		Location:      "s3://my-bucket/events/",
		Fields:        fields,
		PartitionKeys: discovery.PartitionKeys,
	})

Column types are mapped to catalog type names by a TypeMapper. The mapping is a
first-match cascade over the Arrow-style ColumnType of each field; types the
catalog has no name for are passed through using their ColumnType string.

The resulting TableDefinition serializes to the same JSON shape as the Glue
TableInput structure, so it can be handed to the aws CLI as is. The publish
package offers the other ways of getting the definition into a catalog.
*/
package pqcatalog
