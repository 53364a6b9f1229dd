package cmd

import (
	"github.com/spf13/cobra"

	"github.com/cube2222/vtable/vtable"
)

var explainCmd = &cobra.Command{
	Use:   "explain [pipeline]",
	Short: "Print the compiled plan of the pipeline.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (outErr error) {
		application, pipeline, err := openPipeline(cmd, args, nil)
		if err != nil {
			return err
		}
		defer closePipeline(pipeline, &outErr)

		selection := vtable.SelectAll()
		if cmd.Flags().Changed("columns") {
			columns, _ := cmd.Flags().GetIntSlice("columns")
			selection = vtable.SelectColumns(columns...)
		}
		dot, _ := cmd.Flags().GetBool("dot")
		return application.Explain(pipeline, selection, dot)
	},
}

func init() {
	explainCmd.Flags().Bool("dot", false, "Print the plan as a graphviz graph.")
	explainCmd.Flags().IntSlice("columns", nil, "Compile the plan for these output columns only.")
	rootCmd.AddCommand(explainCmd)
}
