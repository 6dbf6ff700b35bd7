package cmd

import (
	"fmt"
	"strings"

	"github.com/giygas/protocolos-api/catalog"
	"github.com/spf13/cobra"
)

func newProtocolsCmd(a *app) *cobra.Command {
	var (
		show  string
		limit int
	)

	cmd := &cobra.Command{
		Use:   "protocols [query]",
		Short: "List protocol names, search them, or show the rows of one protocol",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a.initConsoleLogger()

			dc, err := a.loadTables(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if show != "" {
				rows, ok := dc.GetProtocolIndex()[catalog.Key(show)]
				if !ok {
					return fmt.Errorf("protocol not found: %s", show)
				}
				summary := catalog.Summarize(rows)
				fmt.Fprintf(out, "%s (%d pré-medicação, %d tratamento)\n\n",
					summary.Name, summary.PreMedicationCount, summary.TreatmentCount)
				return printProtocolRows(out, rows)
			}

			names := dc.GetProtocolNames()
			if len(args) == 1 && strings.TrimSpace(args[0]) != "" {
				names = catalog.SuggestProtocols(names, args[0], limit)
			}

			for _, name := range names {
				fmt.Fprintln(out, name)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&show, "show", "", "print the rows of this protocol")
	cmd.Flags().IntVar(&limit, "limit", catalog.DefaultSuggestionLimit, "maximum number of search results")

	return cmd
}
