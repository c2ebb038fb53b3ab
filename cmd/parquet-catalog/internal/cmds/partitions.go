package cmds

import (
	"errors"
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	pqcatalog "github.com/fraugster/parquet-catalog"
)

func newPartitionsCmd(env *environment) *cobra.Command {
	var dataFilePrefix string

	cmd := &cobra.Command{
		Use:   "partitions location",
		Short: "Print the partition keys found in the directory layout of a dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := env.inspectDataset(cmd.Context(), args[0], env.dataFilePrefix(cmd, dataFilePrefix))
			if err != nil {
				return err
			}
			if ds.discovery == nil {
				return errors.New("location is a single file, partitions can only be discovered for directories")
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Sample file: %s\n", ds.bucket.URI(ds.sampleKey))
			if len(ds.discovery.PartitionKeys) == 0 {
				fmt.Fprintln(out, "No partition directories found.")
				return nil
			}

			table := tablewriter.NewWriter(out)
			table.SetAutoFormatHeaders(false)
			table.SetHeader([]string{"Key", "Sample value", "Suggested type"})
			for i, key := range ds.discovery.PartitionKeys {
				value := ds.discovery.Values[i]
				table.Append([]string{key.Name, value, pqcatalog.SuggestPartitionType(value)})
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().StringVar(&dataFilePrefix, "data-file-prefix", pqcatalog.DefaultDataFilePrefix, "name prefix of the data files")

	return cmd
}
