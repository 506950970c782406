package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func (a *app) toolsCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List the tools in the hub",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tools := a.tools.Available()
			if all {
				tools = a.tools.All()
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNOMBRE\tCATEGORÍA\tESTADO\tPLAN")
			for _, m := range tools {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", m.ID, m.Name, m.Category, m.Status, m.Tier)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "include deprecated tools")
	return cmd
}
