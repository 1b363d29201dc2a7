package public

import (
	"github.com/doniyorcoin/ledger/foundation/blockchain/database"
)

type genesis struct {
	Difficulty   int            `json:"difficulty"`
	MiningReward float64        `json:"mining_reward"`
	Block        database.Block `json:"block"`
}

type pending struct {
	Count        int           `json:"count"`
	Transactions []database.Tx `json:"transactions"`
}

type balance struct {
	Address string  `json:"address"`
	Balance float64 `json:"balance"`
}

type mineRequest struct {
	Miner string `json:"miner" validate:"required,hexadecimal"`
}

type chainStatus struct {
	Valid  bool   `json:"valid"`
	Length int    `json:"length"`
	Error  string `json:"error,omitempty"`
}

type status struct {
	Status string `json:"status"`
}
