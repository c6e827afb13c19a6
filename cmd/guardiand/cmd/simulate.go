package cmd

import (
	"os"

	"cosmossdk.io/log"
	"github.com/spf13/cobra"

	"github.com/defiguardian/guardian/tools/scenario"
)

// NewSimulateCmd runs a scripted scenario against a fresh deployment.
func NewSimulateCmd() *cobra.Command {
	var (
		scenarioPath string
		verbose      bool
	)

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run a scripted deposit/purchase/claim scenario",
		Long: `Simulate boots both ledgers in memory, applies the owner configuration
from the scenario file and plays its deposits, coverage purchases and claims
end to end, draining the message channel between stages. Without --scenario a
built-in baseline runs: one liquidity provider, one policy, one approved claim.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s := scenario.Default()
			if scenarioPath != "" {
				loaded, err := scenario.Load(scenarioPath)
				if err != nil {
					return err
				}
				s = loaded
			}

			logger := log.NewNopLogger()
			if verbose {
				logger = log.NewLogger(os.Stderr)
			}

			_, err := scenario.Run(s, logger, cmd.OutOrStdout())
			return err
		},
	}

	cmd.Flags().StringVar(&scenarioPath, "scenario", "", "Path to a YAML scenario file")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "Log channel and handler activity to stderr")
	return cmd
}
