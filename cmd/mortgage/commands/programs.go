package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func programsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "programs",
		Short: "List mortgage programs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := opts.view.Formatter()
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTITLE\tRATE\tZERO DOWN")
			for _, p := range opts.catalog.All() {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%t\n", p.ID, p.Title, f.Percent(p.Rate*100), p.ZeroDown)
			}
			return tw.Flush()
		},
	}
}
