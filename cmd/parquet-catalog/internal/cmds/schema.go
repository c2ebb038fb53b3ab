package cmds

import (
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	pqcatalog "github.com/fraugster/parquet-catalog"
)

func newSchemaCmd(env *environment) *cobra.Command {
	var (
		dataFilePrefix string
		decimal        string
	)

	cmd := &cobra.Command{
		Use:   "schema location",
		Short: "Print the columns of a parquet dataset with their parquet, arrow and catalog types",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := pqcatalog.ParseDecimalMode(decimal)
			if err != nil {
				return err
			}

			ds, err := env.inspectDataset(cmd.Context(), args[0], env.dataFilePrefix(cmd, dataFilePrefix))
			if err != nil {
				return err
			}

			fields, err := pqcatalog.Fields(ds.schema)
			if err != nil {
				return err
			}
			mapper := pqcatalog.NewTypeMapper(pqcatalog.WithDecimalMode(mode))

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Sample file: %s\n", ds.bucket.URI(ds.sampleKey))

			table := tablewriter.NewWriter(out)
			table.SetAutoFormatHeaders(false)
			table.SetHeader([]string{"Column", "Parquet type", "Arrow type", "Catalog type"})
			for i, col := range ds.schema.RootColumn.Children {
				f := fields[i]
				table.Append([]string{f.Name, pqcatalog.PhysicalType(col), f.Type.String(), mapper.CatalogType(f.Type)})
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().StringVar(&dataFilePrefix, "data-file-prefix", pqcatalog.DefaultDataFilePrefix, "name prefix of the data files")
	cmd.Flags().StringVar(&decimal, "decimal", "plain", "decimal rendering: plain, fixed or schema")

	return cmd
}
