package cmd

import (
	"github.com/giygas/protocolos-api/catalog"
	"github.com/spf13/cobra"
)

func newCIDsCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "cids <query>",
		Short: "Search CID codes and meanings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a.initConsoleLogger()

			dc, err := a.loadTables(cmd.Context())
			if err != nil {
				return err
			}

			return printCIDs(cmd.OutOrStdout(), catalog.SearchCIDs(dc.GetCIDs(), args[0], limit))
		},
	}

	cmd.Flags().IntVar(&limit, "limit", catalog.DefaultSuggestionLimit, "maximum number of results")

	return cmd
}
