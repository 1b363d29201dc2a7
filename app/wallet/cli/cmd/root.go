// Package cmd contains the doniyorcoin command line commands.
package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/doniyorcoin/ledger/foundation/blockchain/database"
	"github.com/doniyorcoin/ledger/foundation/blockchain/state"
	"github.com/doniyorcoin/ledger/foundation/blockchain/storage/disk"
	"github.com/doniyorcoin/ledger/foundation/logger"
)

const defaultStateFile = "doniyorcoin_state.json"

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:           "doniyorcoin",
	Short:         "Interact with the Doniyorcoin blockchain",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and runs it.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "ERROR:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("state", "s", defaultStateFile, "Path to the blockchain state file.")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log ledger events to stderr.")
}

// statePath returns the state file selected on the command line.
func statePath(cmd *cobra.Command) (string, error) {
	path, err := cmd.Flags().GetString("state")
	if err != nil {
		return "", err
	}
	if path == "" {
		return "", errors.New("state file path is required")
	}
	return path, nil
}

// eventHandler returns a handler logging ledger events when verbose output
// is requested.
func eventHandler(cmd *cobra.Command) (state.EventHandler, error) {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil || !verbose {
		return nil, err
	}

	log, err := logger.New("CLI", "stderr")
	if err != nil {
		return nil, fmt.Errorf("constructing logger: %w", err)
	}

	return logger.EventHandler(log, "00000000-0000-0000-0000-000000000000"), nil
}

// loadState opens the ledger held in the state file. A missing file yields
// a fresh ledger with default settings.
func loadState(cmd *cobra.Command) (*state.State, error) {
	path, err := statePath(cmd)
	if err != nil {
		return nil, err
	}

	ev, err := eventHandler(cmd)
	if err != nil {
		return nil, err
	}

	store, err := disk.New(path)
	if err != nil {
		return nil, err
	}

	return state.New(state.Config{
		Difficulty:   database.DefaultDifficulty,
		MiningReward: database.DefaultMiningReward,
		Storage:      store,
		EvHandler:    ev,
	})
}
