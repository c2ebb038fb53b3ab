package publish

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/athena"
	athenatypes "github.com/aws/aws-sdk-go-v2/service/athena/types"
	"github.com/google/uuid"
)

// AthenaAPI is the part of the Athena client used to start queries.
type AthenaAPI interface {
	StartQueryExecution(ctx context.Context, params *athena.StartQueryExecutionInput, optFns ...func(*athena.Options)) (*athena.StartQueryExecutionOutput, error)
}

// RepairOptions configures where the repair query runs and where its
// results go.
type RepairOptions struct {
	// ResultsBucket receives the query results, as a bucket name or an
	// s3:// URI. When empty the workgroup's result location is used.
	ResultsBucket string
	// Workgroup is the Athena workgroup; the service default when empty.
	Workgroup string
}

// PartitionRepairer discovers the partitions of a table with
// MSCK REPAIR TABLE queries.
type PartitionRepairer struct {
	client AthenaAPI
	log    *slog.Logger
}

// NewPartitionRepairer returns a repairer backed by client.
func NewPartitionRepairer(client AthenaAPI, log *slog.Logger) *PartitionRepairer {
	if log == nil {
		log = slog.Default()
	}
	return &PartitionRepairer{client: client, log: log}
}

// Repair starts the repair query for database.table and returns its query
// execution id. It does not wait for the query to finish.
func (p *PartitionRepairer) Repair(ctx context.Context, database, table string, opts RepairOptions) (string, error) {
	if database == "" || table == "" {
		return "", errors.New("database and table name are required")
	}

	input := &athena.StartQueryExecutionInput{
		QueryString:        aws.String(RepairQuery(table)),
		ClientRequestToken: aws.String(uuid.NewString()),
		QueryExecutionContext: &athenatypes.QueryExecutionContext{
			Database: aws.String(database),
		},
	}
	if loc := ResultsLocation(opts.ResultsBucket); loc != "" {
		input.ResultConfiguration = &athenatypes.ResultConfiguration{OutputLocation: aws.String(loc)}
	}
	if opts.Workgroup != "" {
		input.WorkGroup = aws.String(opts.Workgroup)
	}

	out, err := p.client.StartQueryExecution(ctx, input)
	if err != nil {
		return "", fmt.Errorf("start partition repair of %s.%s: %w", database, table, err)
	}

	id := aws.ToString(out.QueryExecutionId)
	p.log.Info("Started partition repair", "database", database, "table", table, "query_execution_id", id)
	return id, nil
}

// RepairQuery returns the statement that loads all partitions of table.
func RepairQuery(table string) string {
	return "MSCK REPAIR TABLE `" + strings.ReplaceAll(table, "`", "``") + "`"
}

// ResultsLocation turns a bucket name or URI into an s3:// output location
// ending with a slash.
func ResultsLocation(bucket string) string {
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return ""
	}
	if !strings.HasPrefix(bucket, "s3://") {
		bucket = "s3://" + bucket
	}
	if !strings.HasSuffix(bucket, "/") {
		bucket += "/"
	}
	return bucket
}
