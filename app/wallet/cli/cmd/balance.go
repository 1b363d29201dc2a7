package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// balanceCmd represents the balance command.
var balanceCmd = &cobra.Command{
	Use:   "balance <address>",
	Short: "Show balance for an address",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := loadState(cmd)
		if err != nil {
			return err
		}
		defer st.Shutdown()

		address := args[0]
		fmt.Fprintf(cmd.OutOrStdout(), "Balance for %s: %.4f DYC\n", address, st.Balance(address))

		return nil
	},
}

func init() {
	rootCmd.AddCommand(balanceCmd)
}
