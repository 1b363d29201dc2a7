package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/doniyorcoin/ledger/foundation/blockchain/database"
	"github.com/doniyorcoin/ledger/foundation/blockchain/state"
	"github.com/doniyorcoin/ledger/foundation/blockchain/storage/disk"
)

var (
	difficulty int
	reward     float64
)

// initCmd represents the init command.
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a blockchain state file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := statePath(cmd)
		if err != nil {
			return err
		}

		if err := runInit(path, difficulty, reward); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Initialized new Doniyorcoin blockchain at %s\n", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().IntVarP(&difficulty, "difficulty", "d", database.DefaultDifficulty, "Proof-of-work difficulty.")
	initCmd.Flags().Float64VarP(&reward, "reward", "r", database.DefaultMiningReward, "Mining reward.")
}

// runInit replaces whatever the state file holds with a new chain.
func runInit(path string, difficulty int, reward float64) error {
	st, err := state.Restore(database.Document{
		Difficulty:   difficulty,
		MiningReward: reward,
	}, nil)
	if err != nil {
		return err
	}

	store, err := disk.New(path)
	if err != nil {
		return err
	}

	return store.Write(st.Document())
}
