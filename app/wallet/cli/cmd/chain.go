package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/doniyorcoin/ledger/foundation/blockchain/database"
)

// showChainCmd represents the show-chain command.
var showChainCmd = &cobra.Command{
	Use:   "show-chain",
	Short: "Display the full blockchain",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := loadState(cmd)
		if err != nil {
			return err
		}
		defer st.Shutdown()

		data, err := database.EncodeDocument(st.Document())
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

// validateCmd represents the validate command.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the blockchain integrity",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := loadState(cmd)
		if err != nil {
			return err
		}
		defer st.Shutdown()

		if st.IsChainValid() {
			fmt.Fprintln(cmd.OutOrStdout(), "Chain valid")
			return nil
		}

		fmt.Fprintln(cmd.OutOrStdout(), "Chain invalid")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(showChainCmd)
	rootCmd.AddCommand(validateCmd)
}
