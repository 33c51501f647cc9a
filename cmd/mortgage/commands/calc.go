package commands

import (
	"fmt"

	"github.com/Dan9191/mortgage-service/internal/models"
	"github.com/Dan9191/mortgage-service/internal/mortgage"
	"github.com/spf13/cobra"
)

type loanFlags struct {
	program string
	price   float64
	payment float64
	years   float64
}

func (lf *loanFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&lf.program, "program", "", "program ID (default base)")
	cmd.Flags().Float64Var(&lf.price, "price", 0, "property price")
	cmd.Flags().Float64Var(&lf.payment, "payment", 0, "down payment")
	cmd.Flags().Float64Var(&lf.years, "years", 0, "loan term in years")
}

// model feeds the flags through a Model in the order a visitor fills the page,
// so every value is clamped exactly as the interactive calculator would
func (lf *loanFlags) model(cmd *cobra.Command, catalog *mortgage.Catalog) (*mortgage.Model, error) {
	m := mortgage.NewModel(catalog)

	var updates []models.Update
	if cmd.Flags().Changed("program") {
		updates = append(updates, models.Update{Origin: models.OriginRadioProgram, ProgramID: &lf.program})
	}
	if cmd.Flags().Changed("price") {
		updates = append(updates, models.Update{Origin: models.OriginCostInput, Price: &lf.price})
	}
	if cmd.Flags().Changed("payment") {
		updates = append(updates, models.Update{Origin: models.OriginPaymentInput, DownPayment: &lf.payment})
	}
	if cmd.Flags().Changed("years") {
		updates = append(updates, models.Update{Origin: models.OriginTimeInput, TermYears: &lf.years})
	}
	for _, u := range updates {
		if err := m.SetData(u); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func calcCmd(opts *options) *cobra.Command {
	lf := &loanFlags{}
	cmd := &cobra.Command{
		Use:   "calc",
		Short: "Calculate the monthly payment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := lf.model(cmd, opts.catalog)
			if err != nil {
				return err
			}
			data := m.Data()
			f := opts.view.Formatter()
			out := opts.view.Render(m.Results())

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Program:       %s\n", data.ProgramID)
			fmt.Fprintf(w, "Price:         %s\n", f.Money(data.Price))
			fmt.Fprintf(w, "Down payment:  %s (%s)\n", f.Money(data.DownPayment), f.Percent(data.DownPaymentRatio*100))
			fmt.Fprintf(w, "Term:          %d years\n", data.TermYears)
			fmt.Fprintf(w, "Rate:          %s\n", out.Percent)
			fmt.Fprintf(w, "Monthly:       %s\n", out.MonthPayment)
			fmt.Fprintf(w, "Overpayment:   %s\n", out.OverPayment)
			fmt.Fprintf(w, "Loan amount:   %s\n", out.TotalAmount)
			return nil
		},
	}
	lf.register(cmd)
	return cmd
}
