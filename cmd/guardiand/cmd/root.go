// Package cmd assembles the guardiand command tree.
package cmd

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for guardiand.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "guardiand",
		Short: "Guardian - cross-ledger coverage pools with governed payouts",
		Long: `Guardian runs an insurance protocol across two ledgers: liquidity,
premiums and payouts live on the asset ledger, while policies, mirrored
voting power and claim governance live on the governance ledger. A fee-metered
message channel connects the two.

guardiand drives scripted end-to-end flows against an in-memory deployment.`,
	}

	rootCmd.AddCommand(
		NewSimulateCmd(),
	)
	return rootCmd
}
