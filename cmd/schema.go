package cmd

import (
	"github.com/spf13/cobra"
)

var schemaCmd = &cobra.Command{
	Use:   "schema [pipeline]",
	Short: "Describe the output columns of the pipeline.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (outErr error) {
		application, pipeline, err := openPipeline(cmd, args, nil)
		if err != nil {
			return err
		}
		defer closePipeline(pipeline, &outErr)

		return application.Describe(pipeline)
	},
}

func init() {
	rootCmd.AddCommand(schemaCmd)
}
