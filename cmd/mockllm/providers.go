package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/uigen/go-llm/pkg/factory"
	"github.com/uigen/go-llm/pkg/llm"
)

func newProvidersCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List the registered providers and their default models",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "PROVIDER\tDEFAULT MODEL")
			for _, name := range factory.ListProviders() {
				model := llm.DefaultModelFor(name)
				if model == "" {
					model = "-"
				}
				_, _ = fmt.Fprintf(w, "%s\t%s\n", name, model)
			}
			return w.Flush()
		},
	}
}
