package commands

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/Dan9191/mortgage-service/internal/mortgage"
	"github.com/spf13/cobra"
)

func scheduleCmd(opts *options) *cobra.Command {
	lf := &loanFlags{}
	var start string
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Print the month-by-month amortization schedule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			first := time.Now().UTC().Truncate(24 * time.Hour)
			if start != "" {
				parsed, err := time.Parse("2006-01-02", start)
				if err != nil {
					return fmt.Errorf("invalid start date %q: %w", start, err)
				}
				first = parsed
			}
			m, err := lf.model(cmd, opts.catalog)
			if err != nil {
				return err
			}

			f := opts.view.Formatter()
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', tabwriter.AlignRight)
			fmt.Fprintln(tw, "MONTH\tDATE\tPAYMENT\tPRINCIPAL\tINTEREST\tBALANCE\t")
			for _, row := range mortgage.Schedule(m.Data(), first) {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t\n",
					row.Month, row.PaymentDate.Format("2006-01-02"),
					f.Number(row.Payment), f.Number(row.Principal), f.Number(row.Interest), f.Number(row.Balance))
			}
			return tw.Flush()
		},
	}
	lf.register(cmd)
	cmd.Flags().StringVar(&start, "start", "", "loan start date, YYYY-MM-DD (default today)")
	return cmd
}
