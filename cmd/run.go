package cmd

import (
	"github.com/spf13/cobra"

	"github.com/cube2222/vtable/config"
)

var runCmd = &cobra.Command{
	Use:   "run [pipeline]",
	Short: "Materialize the pipeline into the configured output.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (outErr error) {
		application, pipeline, err := openPipeline(cmd, args, func(cfg *config.Config) {
			if cfg.Output == nil {
				cfg.Output = make(map[string]interface{})
			}
			if format, _ := cmd.Flags().GetString("format"); format != "" {
				cfg.Output["format"] = format
			}
			if path, _ := cmd.Flags().GetString("output"); path != "" {
				cfg.Output["path"] = path
			}
		})
		if err != nil {
			return err
		}
		defer closePipeline(pipeline, &outErr)

		_, err = application.Run(pipeline)
		return err
	},
}

func init() {
	runCmd.Flags().String("format", "", "Output format: table, csv, json or arrow.")
	runCmd.Flags().StringP("output", "o", "", "Output file, required for the arrow format.")
	rootCmd.AddCommand(runCmd)
}
