package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/doniyorcoin/ledger/foundation/blockchain/database"
	"github.com/doniyorcoin/ledger/foundation/blockchain/state"
)

// mineCmd represents the mine command.
var mineCmd = &cobra.Command{
	Use:   "mine <miner>",
	Short: "Mine pending transactions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := loadState(cmd)
		if err != nil {
			return err
		}
		defer st.Shutdown()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		block, err := runMine(ctx, st, args[0])
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Mined block #%d with hash %s\n", block.Number, block.Hash)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mineCmd)
}

// runMine mines the pending transactions while a spinner shows progress
// on stderr.
func runMine(ctx context.Context, st *state.State, miner string) (database.Block, error) {
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription(fmt.Sprintf("Mining block (difficulty %d)...", st.Difficulty())),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
	)

	type result struct {
		block database.Block
		err   error
	}
	done := make(chan result, 1)

	go func() {
		block, err := st.MinePendingTransactions(ctx, miner)
		done <- result{block, err}
	}()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case res := <-done:
			if err := bar.Finish(); err != nil {
				return database.Block{}, fmt.Errorf("failed to finish progress bar: %w", err)
			}
			return res.block, res.err

		case <-ticker.C:
			bar.Add(1)
		}
	}
}
