package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/doniyorcoin/ledger/foundation/blockchain/wallet"
)

var output string

// createWalletCmd represents the create-wallet command.
var createWalletCmd = &cobra.Command{
	Use:   "create-wallet",
	Short: "Generate a new wallet",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := wallet.New()
		if err != nil {
			return err
		}

		if output != "" {
			if err := w.Save(output); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wallet saved to %s\n", output)
			return nil
		}

		data, err := json.MarshalIndent(w, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))

		return nil
	},
}

// accountCmd represents the account command.
var accountCmd = &cobra.Command{
	Use:   "account <wallet-file>",
	Short: "Print the address of the specified wallet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := wallet.Load(args[0])
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), w.Address)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(createWalletCmd)
	rootCmd.AddCommand(accountCmd)
	createWalletCmd.Flags().StringVarP(&output, "output", "o", "", "File path to save the wallet JSON.")
}
