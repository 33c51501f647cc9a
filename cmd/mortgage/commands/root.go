package commands

import (
	"io"
	"os"

	"github.com/Dan9191/mortgage-service/internal/config"
	"github.com/Dan9191/mortgage-service/internal/mortgage"
	"github.com/Dan9191/mortgage-service/internal/view"
	"github.com/spf13/cobra"
)

type options struct {
	programsFile string
	locale       string
	symbol       string

	catalog *mortgage.Catalog
	view    *view.View
}

// Execute runs the mortgage CLI against os.Args
func Execute() error {
	return NewRootCmd(os.Stdout).Execute()
}

// NewRootCmd builds the command tree writing to out
func NewRootCmd(out io.Writer) *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:          "mortgage",
		Short:        "Mortgage payment calculator",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			programs := mortgage.DefaultPrograms()
			if opts.programsFile != "" {
				loaded, err := config.LoadPrograms(opts.programsFile)
				if err != nil {
					return err
				}
				programs = loaded
			}
			catalog, err := mortgage.NewCatalog(programs)
			if err != nil {
				return err
			}
			f, err := view.NewFormatter(opts.locale, opts.symbol)
			if err != nil {
				return err
			}
			opts.catalog = catalog
			opts.view = view.NewView(f)
			return nil
		},
	}
	root.SetOut(out)

	root.PersistentFlags().StringVar(&opts.programsFile, "programs", "", "YAML program catalog (default built-in)")
	root.PersistentFlags().StringVar(&opts.locale, "locale", "ru", "locale for number formatting")
	root.PersistentFlags().StringVar(&opts.symbol, "symbol", "₽", "currency symbol")

	root.AddCommand(programsCmd(opts), calcCmd(opts), scheduleCmd(opts))
	return root
}
