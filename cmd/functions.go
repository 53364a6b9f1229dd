package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cube2222/vtable/functions"
	"github.com/cube2222/vtable/logical"
)

var functionsCmd = &cobra.Command{
	Use:   "functions",
	Short: "List the functions pipelines can refer to.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		registry := logical.NewRegistry()
		functions.Register(registry)
		mappers, predicates, observers := registry.Names()

		out := cmd.OutOrStdout()
		for _, group := range []struct {
			kind  string
			names []string
		}{
			{"mappers", mappers},
			{"predicates", predicates},
			{"observers", observers},
			{"aggregates", []string{"count", "max", "min", "sum"}},
		} {
			if _, err := fmt.Fprintf(out, "%s: %s\n", group.kind, strings.Join(group.names, ", ")); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(functionsCmd)
}
