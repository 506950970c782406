package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func (a *app) printersCmd() *cobra.Command {
	var match string

	cmd := &cobra.Command{
		Use:   "printers [QUERY]",
		Short: "List the printer power reference",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			if match != "" {
				m, ok := a.table.Lookup(match)
				if !ok {
					return fmt.Errorf("sin coincidencia para %q", match)
				}
				fmt.Fprintf(out, "%s: %.0f W (%s)\n", m.FullName, m.Watts, m.Via)
				return nil
			}

			query := ""
			if len(args) == 1 {
				query = args[0]
			}
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "MARCA\tMODELO\tPOTENCIA")
			for _, e := range a.table.Search(query) {
				fmt.Fprintf(tw, "%s\t%s\t%.0f W\n", e.Brand, e.FullName, e.Watts)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&match, "match", "", "resolve a printer name as found in a slicer file")
	return cmd
}
