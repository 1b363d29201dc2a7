package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/spf13/cobra"

	"github.com/doniyorcoin/ledger/foundation/blockchain/database"
	"github.com/doniyorcoin/ledger/foundation/blockchain/wallet"
)

var nodeURL string

// transferCmd represents the transfer command.
var transferCmd = &cobra.Command{
	Use:   "transfer <private_key> <to> <amount>",
	Short: "Create a new transaction",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, err := strconv.ParseFloat(args[2], 64)
		if err != nil {
			return fmt.Errorf("invalid amount %q: %w", args[2], err)
		}

		w, err := wallet.FromPrivateKey(args[0])
		if err != nil {
			return err
		}

		tx, err := w.CreateTransaction(args[1], amount)
		if err != nil {
			return err
		}

		switch nodeURL {
		case "":
			err = submitLocal(cmd, tx)
		default:
			err = submitNode(nodeURL, tx)
		}
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), "Transaction queued for mining.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(transferCmd)
	transferCmd.Flags().StringVarP(&nodeURL, "node", "n", "", "Url of a node to submit to instead of the state file.")
}

// submitLocal adds the transaction to the ledger in the state file.
func submitLocal(cmd *cobra.Command, tx database.Tx) error {
	st, err := loadState(cmd)
	if err != nil {
		return err
	}
	defer st.Shutdown()

	return st.AddTransaction(tx)
}

// submitNode posts the transaction to a running node.
func submitNode(url string, tx database.Tx) error {
	var failure struct {
		Error string `json:"error"`
	}

	client := resty.New().
		SetBaseURL(strings.TrimSuffix(url, "/")).
		SetTimeout(10 * time.Second)

	resp, err := client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(tx).
		SetError(&failure).
		Post("/v1/tx/submit")
	if err != nil {
		return fmt.Errorf("submitting transaction: %w", err)
	}

	if resp.IsError() {
		if failure.Error != "" {
			return fmt.Errorf("node rejected transaction: %s", failure.Error)
		}
		return fmt.Errorf("node rejected transaction: %s", resp.Status())
	}

	return nil
}
