package cmds

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/athena"
	"github.com/aws/aws-sdk-go-v2/service/glue"
	goparquet "github.com/fraugster/parquet-go"
	"github.com/fraugster/parquet-go/parquetschema"
	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	pqcatalog "github.com/fraugster/parquet-catalog"
	"github.com/fraugster/parquet-catalog/publish"
	"github.com/fraugster/parquet-catalog/storage"
)

func writeParquet(t *testing.T, fn string) {
	t.Helper()

	sd, err := parquetschema.ParseSchemaDefinition(`message event {
  required int64 id;
  optional binary name (STRING);
  optional double score;
  optional int32 amount (DECIMAL(9, 2));
}`)
	require.NoError(t, err)

	require.NoError(t, os.MkdirAll(filepath.Dir(fn), 0o755))
	fl, err := os.Create(fn)
	require.NoError(t, err)
	defer fl.Close()

	fw := goparquet.NewFileWriter(fl, goparquet.WithSchemaDefinition(sd))
	require.NoError(t, fw.AddData(map[string]interface{}{
		"id":     int64(1),
		"name":   []byte("first"),
		"score":  float64(0.5),
		"amount": int32(1250),
	}))
	require.NoError(t, fw.Close())
}

// newTestDataset lays out a partitioned dataset and returns its root.
func newTestDataset(t *testing.T) string {
	t.Helper()

	root := filepath.Join(t.TempDir(), "events")
	writeParquet(t, filepath.Join(root, "year=2020", "month=01", "part-0000.parquet"))
	writeParquet(t, filepath.Join(root, "year=2020", "month=02", "part-0000.parquet"))
	require.NoError(t, os.WriteFile(filepath.Join(root, "_SUCCESS"), nil, 0o644))
	return root
}

type fakeGlue struct {
	inputs []*glue.CreateTableInput
}

func (f *fakeGlue) CreateTable(_ context.Context, params *glue.CreateTableInput, _ ...func(*glue.Options)) (*glue.CreateTableOutput, error) {
	f.inputs = append(f.inputs, params)
	return &glue.CreateTableOutput{}, nil
}

func (f *fakeGlue) UpdateTable(context.Context, *glue.UpdateTableInput, ...func(*glue.Options)) (*glue.UpdateTableOutput, error) {
	return &glue.UpdateTableOutput{}, nil
}

type fakeAthena struct {
	inputs []*athena.StartQueryExecutionInput
}

func (f *fakeAthena) StartQueryExecution(_ context.Context, params *athena.StartQueryExecutionInput, _ ...func(*athena.Options)) (*athena.StartQueryExecutionOutput, error) {
	f.inputs = append(f.inputs, params)
	return &athena.StartQueryExecutionOutput{QueryExecutionId: aws.String("query-42")}, nil
}

type closeCountingBucket struct {
	storage.Bucket
	closed int
}

func (b *closeCountingBucket) Close() error {
	b.closed++
	return b.Bucket.Close()
}

// run executes the tool with args and returns what it printed to stdout.
func run(t *testing.T, env *environment, args ...string) (string, error) {
	t.Helper()

	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("AWS_CONFIG_FILE", filepath.Join(home, "aws-config"))
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", filepath.Join(home, "aws-credentials"))
	t.Setenv("PQCATALOG_DATABASE", "")
	t.Setenv("PQCATALOG_DATA_FILE_PREFIX", "")

	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	if env == nil {
		env = &environment{}
	}
	env.stdout, env.stderr = stdout, stderr

	cmd := newRootCmd(env)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	t.Logf("stderr: %s", stderr.String())
	return stdout.String(), err
}

func decodeTable(t *testing.T, out string) *pqcatalog.TableDefinition {
	t.Helper()

	var table pqcatalog.TableDefinition
	require.NoError(t, jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal([]byte(out), &table))
	return &table
}

func TestGenerateDiscoversPartitions(t *testing.T) {
	root := newTestDataset(t)

	out, err := run(t, nil, "generate", "--source", root, "--location", "s3://bucket/events/", "-o", "json")
	require.NoError(t, err)

	table := decodeTable(t, out)
	assert.Equal(t, "events", table.Name)
	assert.Equal(t, "s3://bucket/events/", table.StorageDescriptor.Location)
	assert.Equal(t, []pqcatalog.Column{
		{Name: "id", Type: "bigint"},
		{Name: "name", Type: "string"},
		{Name: "score", Type: "double"},
		{Name: "amount", Type: "decimal"},
	}, table.StorageDescriptor.Columns)
	assert.Equal(t, []pqcatalog.PartitionKey{
		{Name: "year", Type: "string"},
		{Name: "month", Type: "string"},
	}, table.PartitionKeys)
}

func TestGenerateInferPartitionTypes(t *testing.T) {
	root := newTestDataset(t)

	out, err := run(t, nil, "generate", "--source", root, "--location", "s3://bucket/events/",
		"--table", "raw_events", "--decimal", "schema", "--infer-partition-types", "-o", "json")
	require.NoError(t, err)

	table := decodeTable(t, out)
	assert.Equal(t, "raw_events", table.Name)
	assert.Equal(t, "decimal(9,2)", table.StorageDescriptor.Columns[3].Type)
	assert.Equal(t, []pqcatalog.PartitionKey{
		{Name: "year", Type: "int"},
		{Name: "month", Type: "int"},
	}, table.PartitionKeys)
}

func TestGenerateExplicitPartitionKeys(t *testing.T) {
	root := newTestDataset(t)

	out, err := run(t, nil, "generate", "--source", root, "--location", "s3://bucket/events/",
		"--partition-key", "dt:date", "--partition-key", "region", "-o", "yaml")
	require.NoError(t, err)

	var table pqcatalog.TableDefinition
	require.NoError(t, yaml.Unmarshal([]byte(out), &table))
	assert.Equal(t, []pqcatalog.PartitionKey{
		{Name: "dt", Type: "date"},
		{Name: "region", Type: "string"},
	}, table.PartitionKeys)
}

func TestGenerateSingleFileCommand(t *testing.T) {
	root := newTestDataset(t)
	fn := filepath.Join(root, "year=2020", "month=01", "part-0000.parquet")

	out, err := run(t, nil, "generate", "--source", fn, "--database", "analytics", "--table", "events",
		"--location", "s3://bucket/events/", "--region", "eu-west-1")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "aws glue create-table --region eu-west-1 --database-name analytics --table-input '{"), out)
	assert.Contains(t, out, `"PartitionKeys":[{"Name":"version","Type":"string"}]`)
}

// writeEmptyParquet writes a parquet file without rows.
func writeEmptyParquet(t *testing.T, fn, schema string) {
	t.Helper()

	sd, err := parquetschema.ParseSchemaDefinition(schema)
	require.NoError(t, err)

	fl, err := os.Create(fn)
	require.NoError(t, err)
	defer fl.Close()

	require.NoError(t, goparquet.NewFileWriter(fl, goparquet.WithSchemaDefinition(sd)).Close())
}

func TestGenerateDefaultKeyNamesDataColumn(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "releases.parquet")
	writeEmptyParquet(t, fn, `message release {
  required binary name (STRING);
  required int32 version;
}`)

	out, err := run(t, nil, "generate", "--source", fn, "--table", "releases", "--location", "s3://bucket/releases/", "-o", "json")
	require.NoError(t, err)

	table := decodeTable(t, out)
	assert.Equal(t, "releases", table.Name)
	assert.Equal(t, []pqcatalog.Column{
		{Name: "name", Type: "string"},
		{Name: "version", Type: "int"},
	}, table.StorageDescriptor.Columns)
	assert.Empty(t, table.PartitionKeys)

	_, err = run(t, nil, "generate", "--source", fn, "--table", "releases", "--location", "s3://bucket/releases/", "-o", "json",
		"--partition-key", "version")
	require.Error(t, err)
}

func TestInspectDatasetClosesBucket(t *testing.T) {
	root := newTestDataset(t)

	var buckets []*closeCountingBucket
	env := &environment{
		newBucket: func(ctx context.Context, loc storage.Location, cfg storage.Config) (storage.Bucket, error) {
			b, err := storage.NewBucket(ctx, loc, cfg)
			if err != nil {
				return nil, err
			}
			cb := &closeCountingBucket{Bucket: b}
			buckets = append(buckets, cb)
			return cb, nil
		},
	}

	out, err := run(t, env, "schema", root)
	require.NoError(t, err)
	assert.Contains(t, out, "Sample file: ")

	require.Len(t, buckets, 1)
	assert.Equal(t, 1, buckets[0].closed)
}

func TestGenerateErrors(t *testing.T) {
	root := newTestDataset(t)

	tests := map[string][]string{
		"missing source":    {"generate", "--database", "analytics"},
		"missing database":  {"generate", "--source", root, "--location", "s3://bucket/events/"},
		"missing location":  {"generate", "--source", root, "--database", "analytics"},
		"bad output":        {"generate", "--source", root, "--database", "analytics", "-o", "xml"},
		"bad decimal":       {"generate", "--source", root, "--database", "analytics", "--decimal", "exact"},
		"no data files":     {"generate", "--source", root, "--database", "analytics", "--location", "s3://b/e/", "--data-file-prefix", "data-"},
		"bad partition key": {"generate", "--source", root, "--database", "analytics", "--location", "s3://b/e/", "--partition-key", ":int"},
		"bad prefetch":      {"--prefetch", "lots", "generate", "--source", root, "--database", "analytics"},
	}

	for name, args := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := run(t, nil, args...)
			require.Error(t, err)
		})
	}
}

func TestGenerateRegister(t *testing.T) {
	root := newTestDataset(t)
	glueFake, athenaFake := &fakeGlue{}, &fakeAthena{}
	env := &environment{
		newGlue:   func(*glue.Client) publish.GlueAPI { return glueFake },
		newAthena: func(*athena.Client) publish.AthenaAPI { return athenaFake },
	}

	out, err := run(t, env, "--region", "eu-west-1", "generate", "--source", root, "--database", "analytics",
		"--location", "s3://bucket/events/", "--register", "--results-bucket", "results")
	require.NoError(t, err)
	assert.Equal(t, "Registered analytics.events, partition repair query query-42\n", out)

	require.Len(t, glueFake.inputs, 1)
	assert.Equal(t, "events", aws.ToString(glueFake.inputs[0].TableInput.Name))
	require.Len(t, athenaFake.inputs, 1)
	assert.Equal(t, "MSCK REPAIR TABLE `events`", aws.ToString(athenaFake.inputs[0].QueryString))
	assert.Equal(t, "s3://results/", aws.ToString(athenaFake.inputs[0].ResultConfiguration.OutputLocation))
}

func TestSchemaCommand(t *testing.T) {
	root := newTestDataset(t)

	out, err := run(t, nil, "schema", root)
	require.NoError(t, err)

	assert.Contains(t, out, "Sample file: "+filepath.Join(root, "year=2020", "month=01", "part-0000.parquet"))
	assert.Contains(t, out, "Parquet type")
	for _, want := range []string{"binary (UTF8)", "decimal128(9, 2)", "bigint", "double"} {
		assert.Contains(t, out, want)
	}
}

func TestPartitionsCommand(t *testing.T) {
	root := newTestDataset(t)

	out, err := run(t, nil, "partitions", root)
	require.NoError(t, err)
	assert.Contains(t, out, "Suggested type")
	assert.Contains(t, out, "year")
	assert.Contains(t, out, "2020")
	assert.Contains(t, out, "month")

	_, err = run(t, nil, "partitions", filepath.Join(root, "year=2020", "month=01", "part-0000.parquet"))
	require.Error(t, err)
}
