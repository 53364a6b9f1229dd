package cmd

import (
	"github.com/spf13/cobra"
)

var aggregateCmd = &cobra.Command{
	Use:     "aggregate <count|sum|min|max> [pipeline]",
	Short:   "Reduce output columns of the pipeline to a single value.",
	Example: `vtable aggregate count --columns 0,1`,
	Args:    cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) (outErr error) {
		application, pipeline, err := openPipeline(cmd, args[1:], nil)
		if err != nil {
			return err
		}
		defer closePipeline(pipeline, &outErr)

		columns, _ := cmd.Flags().GetIntSlice("columns")
		_, err = application.Aggregate(pipeline, args[0], columns)
		return err
	},
}

func init() {
	aggregateCmd.Flags().IntSlice("columns", nil, "Output columns passed to the aggregate.")
	rootCmd.AddCommand(aggregateCmd)
}
