package publish

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/glue"
	gluetypes "github.com/aws/aws-sdk-go-v2/service/glue/types"

	pqcatalog "github.com/fraugster/parquet-catalog"
)

// GlueAPI is the part of the Glue client used to register tables.
type GlueAPI interface {
	CreateTable(ctx context.Context, params *glue.CreateTableInput, optFns ...func(*glue.Options)) (*glue.CreateTableOutput, error)
	UpdateTable(ctx context.Context, params *glue.UpdateTableInput, optFns ...func(*glue.Options)) (*glue.UpdateTableOutput, error)
}

// GlueCatalog registers tables in the Glue Data Catalog.
type GlueCatalog struct {
	client GlueAPI
	log    *slog.Logger
}

// NewGlueCatalog returns a catalog backed by client.
func NewGlueCatalog(client GlueAPI, log *slog.Logger) *GlueCatalog {
	if log == nil {
		log = slog.Default()
	}
	return &GlueCatalog{client: client, log: log}
}

// CreateTable creates table in database. If the table already exists and
// replace is set, the existing table is updated instead.
func (g *GlueCatalog) CreateTable(ctx context.Context, database string, table *pqcatalog.TableDefinition, replace bool) error {
	input := toGlueTableInput(table)

	_, err := g.client.CreateTable(ctx, &glue.CreateTableInput{
		DatabaseName: aws.String(database),
		TableInput:   input,
	})
	if err == nil {
		g.log.Info("Created table", "database", database, "table", table.Name)
		return nil
	}

	var alreadyExistsException *gluetypes.AlreadyExistsException
	if !replace || !errors.As(err, &alreadyExistsException) {
		return fmt.Errorf("create table %s.%s: %w", database, table.Name, err)
	}

	g.log.Info("Table exists, updating it", "database", database, "table", table.Name)

	if _, err := g.client.UpdateTable(ctx, &glue.UpdateTableInput{
		DatabaseName: aws.String(database),
		TableInput:   input,
	}); err != nil {
		return fmt.Errorf("update table %s.%s: %w", database, table.Name, err)
	}
	return nil
}

func toGlueColumns(cols []pqcatalog.Column) []gluetypes.Column {
	out := make([]gluetypes.Column, 0, len(cols))
	for _, c := range cols {
		out = append(out, gluetypes.Column{Name: aws.String(c.Name), Type: aws.String(c.Type)})
	}
	return out
}

func toGlueTableInput(table *pqcatalog.TableDefinition) *gluetypes.TableInput {
	sd := table.StorageDescriptor

	input := &gluetypes.TableInput{
		Name: aws.String(table.Name),
		StorageDescriptor: &gluetypes.StorageDescriptor{
			Columns:      toGlueColumns(sd.Columns),
			Location:     aws.String(sd.Location),
			InputFormat:  aws.String(sd.InputFormat),
			OutputFormat: aws.String(sd.OutputFormat),
			Compressed:   sd.Compressed,
			SerdeInfo: &gluetypes.SerDeInfo{
				SerializationLibrary: aws.String(sd.SerdeInfo.SerializationLibrary),
				Parameters:           sd.SerdeInfo.Parameters,
			},
		},
		PartitionKeys: toGlueColumns(table.PartitionKeys),
		TableType:     aws.String(table.TableType),
		Parameters:    table.Parameters,
	}
	if table.Description != "" {
		input.Description = aws.String(table.Description)
	}
	return input
}
