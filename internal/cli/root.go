// Package cli implements the printcost command line.
package cli

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/doferlabs/printcost/internal/config"
	"github.com/doferlabs/printcost/internal/hub"
	"github.com/doferlabs/printcost/internal/logging"
	"github.com/doferlabs/printcost/internal/printers"
)

// app carries what every subcommand shares. The profile is loaded once flags
// are parsed.
type app struct {
	profilePath string
	logLevel    string

	profile config.Profile
	table   *printers.Table
	tools   *hub.Registry
	log     zerolog.Logger
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	a := &app{
		profile: config.DefaultProfile(),
		table:   printers.DefaultTable(),
		tools:   hub.Default(),
		log:     zerolog.Nop(),
	}

	root := &cobra.Command{
		Use:           "printcost",
		Short:         "Estimate the cost of a 3D print from its slicer file",
		Long:          `Reads G-code, 3MF and STL files, recovers mass, print time and printer, and prices the job.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a.log = logging.Setup(a.logLevel, true)
			p, err := config.LoadProfile(a.profilePath)
			if err != nil {
				return err
			}
			a.profile = p
			return nil
		},
	}

	root.PersistentFlags().StringVar(&a.profilePath, "profile", "", "pricing profile (default is ./printcost.yaml or ./profile.yaml)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "warn", "log level: debug, info, warn, error")

	root.AddCommand(a.estimateCmd(), a.costCmd(), a.printersCmd(), a.toolsCmd())
	return root
}

func Execute() error {
	return NewRootCmd().Execute()
}
