package cmds

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/athena"
	"github.com/aws/aws-sdk-go-v2/service/glue"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	pqcatalog "github.com/fraugster/parquet-catalog"
	"github.com/fraugster/parquet-catalog/publish"
	"github.com/fraugster/parquet-catalog/storage"
)

// defaultPartitionKey is used for single file sources when no partition key
// is given.
const defaultPartitionKey = "version"

type generateFlags struct {
	source              string
	database            string
	table               string
	location            string
	description         string
	partitionKeys       []string
	dataFilePrefix      string
	decimal             string
	inferPartitionTypes bool
	output              string

	register      bool
	replace       bool
	skipRepair    bool
	resultsBucket string
	workgroup     string
}

func newGenerateCmd(env *environment) *cobra.Command {
	flags := &generateFlags{}

	cmd := &cobra.Command{
		Use:   "generate --source location --database name",
		Short: "Generate the catalog table definition of a parquet dataset",
		Long: `Generate reads the schema of a parquet dataset and prints the matching
external table definition, either as an "aws glue create-table" command or as
JSON or YAML. With --register the table is created in the Glue Data Catalog
directly and, for partitioned tables, an Athena MSCK REPAIR TABLE query is
started to load the existing partitions.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGenerate(cmd, env, flags)
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&flags.source, "source", "", "parquet file or dataset directory, local path or s3://, gs://, az:// URI")
	fs.StringVar(&flags.database, "database", "", "Glue database name")
	fs.StringVar(&flags.table, "table", "", "table name, derived from the source when empty")
	fs.StringVar(&flags.location, "location", "", "storage location of the table, the source directory when empty")
	fs.StringVar(&flags.description, "description", "", "table description")
	fs.StringArrayVar(&flags.partitionKeys, "partition-key", []string{defaultPartitionKey}, "partition key as name or name:type, can be repeated; discovered from the directory layout unless given")
	fs.StringVar(&flags.dataFilePrefix, "data-file-prefix", pqcatalog.DefaultDataFilePrefix, "name prefix of the data files")
	fs.StringVar(&flags.decimal, "decimal", "plain", "decimal rendering: plain, fixed or schema")
	fs.BoolVar(&flags.inferPartitionTypes, "infer-partition-types", false, "derive partition key types from the sampled values")
	fs.StringVarP(&flags.output, "output", "o", string(publish.FormatCommand), "output format: command, json or yaml")

	fs.BoolVar(&flags.register, "register", false, "create the table in Glue instead of printing it")
	fs.BoolVar(&flags.replace, "replace", false, "update the table if it already exists")
	fs.BoolVar(&flags.skipRepair, "skip-repair", false, "do not start the partition repair query")
	fs.StringVar(&flags.resultsBucket, "results-bucket", "", "S3 bucket or URI for the Athena query results")
	fs.StringVar(&flags.workgroup, "workgroup", "", "Athena workgroup")

	_ = cmd.MarkFlagRequired("source")

	return cmd
}

func runGenerate(cmd *cobra.Command, env *environment, flags *generateFlags) error {
	ctx := cmd.Context()
	changed := cmd.Flags().Changed

	if !changed("database") {
		flags.database = env.cfg.Database
	}
	flags.dataFilePrefix = env.dataFilePrefix(cmd, flags.dataFilePrefix)
	if !changed("results-bucket") {
		flags.resultsBucket = env.cfg.Athena.ResultsBucket
	}
	if !changed("workgroup") {
		flags.workgroup = env.cfg.Athena.Workgroup
	}

	format, err := publish.ParseFormat(flags.output)
	if err != nil {
		return err
	}
	decimalMode, err := pqcatalog.ParseDecimalMode(flags.decimal)
	if err != nil {
		return err
	}
	if (flags.register || format == publish.FormatCommand) && flags.database == "" {
		return errors.New("--database is required")
	}

	ds, err := env.inspectDataset(ctx, flags.source, flags.dataFilePrefix)
	if err != nil {
		return err
	}

	fields, err := pqcatalog.Fields(ds.schema)
	if err != nil {
		return err
	}

	partitionKeys, err := resolvePartitionKeys(flags, changed("partition-key"), ds)
	if err != nil {
		return err
	}
	if !changed("partition-key") && ds.discovery == nil {
		var dropped []pqcatalog.PartitionKey
		partitionKeys, dropped = withoutDataColumns(partitionKeys, fields)
		for _, k := range dropped {
			env.log.Warn("Default partition key is also a data column, leaving it out", "key", k.Name)
		}
	}

	name := flags.table
	if name == "" {
		name = pqcatalog.DefaultTableName(flags.source)
		if name == "" {
			return errors.New("can not derive a table name from the source, use --table")
		}
	}

	location := flags.location
	if location == "" {
		if ds.loc.Scheme == storage.SchemeFile {
			return errors.New("--location is required for local sources")
		}
		location = ds.tableLocation()
	}

	table, err := pqcatalog.BuildTable(pqcatalog.TableOptions{
		Name:          name,
		Description:   flags.description,
		Location:      location,
		Fields:        fields,
		PartitionKeys: partitionKeys,
		Mapper:        pqcatalog.NewTypeMapper(pqcatalog.WithDecimalMode(decimalMode)),
	})
	if err != nil {
		return err
	}

	env.log.Debug("Built table definition", "table", table.Name, "columns", len(table.StorageDescriptor.Columns), "partition_keys", len(table.PartitionKeys))

	if !flags.register {
		return publish.Write(cmd.OutOrStdout(), format, publish.Target{Database: flags.database, Region: env.cfg.AWS.Region}, table)
	}

	return env.register(cmd, flags, table)
}

func (e *environment) register(cmd *cobra.Command, flags *generateFlags, table *pqcatalog.TableDefinition) error {
	ctx := cmd.Context()

	awsCfg, err := e.cfg.AWSConfig(ctx)
	if err != nil {
		return err
	}

	catalog := publish.NewGlueCatalog(e.glueClient(glue.NewFromConfig(awsCfg)), e.log)
	repairer := publish.NewPartitionRepairer(e.athenaClient(athena.NewFromConfig(awsCfg)), e.log)

	reg, err := publish.Register(ctx, catalog, repairer, flags.database, table, publish.RegisterOptions{
		Replace:    flags.replace,
		SkipRepair: flags.skipRepair,
		Repair: publish.RepairOptions{
			ResultsBucket: flags.resultsBucket,
			Workgroup:     flags.workgroup,
		},
	})
	if err != nil {
		return err
	}

	if reg.QueryExecutionID != "" {
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "Registered %s.%s, partition repair query %s\n", flags.database, table.Name, reg.QueryExecutionID)
	} else {
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "Registered %s.%s\n", flags.database, table.Name)
	}
	return err
}

// resolvePartitionKeys picks the partition keys of the table: the keys given
// on the command line, else the discovered ones, else the default key.
func resolvePartitionKeys(flags *generateFlags, explicit bool, ds *dataset) ([]pqcatalog.PartitionKey, error) {
	if !explicit && ds.discovery != nil {
		if flags.inferPartitionTypes {
			return pqcatalog.InferPartitionTypes(ds.discovery.PartitionKeys, ds.discovery.Values), nil
		}
		return ds.discovery.PartitionKeys, nil
	}

	keys := []pqcatalog.PartitionKey{}
	for _, arg := range flags.partitionKeys {
		arg = strings.TrimSpace(arg)
		if arg == "" {
			continue
		}
		name, typ, found := strings.Cut(arg, ":")
		if !found || typ == "" {
			typ = "string"
		}
		if name == "" {
			return nil, fmt.Errorf("invalid partition key %q", arg)
		}
		keys = append(keys, pqcatalog.PartitionKey{Name: name, Type: typ})
	}
	return keys, nil
}

// withoutDataColumns splits keys into those that do not name a data column
// and those that do. Names are compared case-insensitively, as the catalog does.
func withoutDataColumns(keys []pqcatalog.PartitionKey, fields []pqcatalog.Field) (kept, dropped []pqcatalog.PartitionKey) {
	columns := lo.SliceToMap(fields, func(f pqcatalog.Field) (string, struct{}) {
		return strings.ToLower(f.Name), struct{}{}
	})

	kept = []pqcatalog.PartitionKey{}
	for _, k := range keys {
		if _, ok := columns[strings.ToLower(k.Name)]; ok {
			dropped = append(dropped, k)
			continue
		}
		kept = append(kept, k)
	}
	return kept, dropped
}
