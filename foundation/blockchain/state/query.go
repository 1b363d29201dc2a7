package state

import (
	"github.com/doniyorcoin/ledger/foundation/blockchain/database"
)

// QueryLatest represents a query to the latest block in the chain.
const QueryLatest = ^uint64(0) >> 1

// Balance returns the balance of the account derived by replaying the chain.
// Value the account is sending in pending transactions is already deducted,
// value it is receiving is not credited until mined.
func (s *State) Balance(accountID string) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	balance := s.db.Balance(accountID)
	for _, tx := range s.mempool.Copy() {
		if !tx.IsReward() && tx.FromID == accountID {
			balance -= tx.Value
		}
	}

	return balance
}

// IsChainValid reports whether every block links to its parent, carries the
// hash of its content, and holds only valid transactions.
func (s *State) IsChainValid() bool {
	return s.ValidateChain() == nil
}

// ValidateChain performs the checks of IsChainValid and describes the first
// failure.
func (s *State) ValidateChain() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.db.Validate()
}

// RetrieveGenesis returns the first block in the chain.
func (s *State) RetrieveGenesis() database.Block {
	return s.db.Genesis()
}

// RetrieveLatestBlock returns the latest block in the chain.
func (s *State) RetrieveLatestBlock() database.Block {
	return s.db.LatestBlock()
}

// RetrieveChain returns a copy of every block in the chain.
func (s *State) RetrieveChain() []database.Block {
	return s.db.Blocks()
}

// RetrieveMempool returns a copy of the pending transactions.
func (s *State) RetrieveMempool() []database.Tx {
	return s.mempool.Copy()
}

// QueryMempoolLength returns the number of pending transactions.
func (s *State) QueryMempoolLength() int {
	return s.mempool.Count()
}

// QueryBlocksByNumber returns the set of blocks based on block numbers.
func (s *State) QueryBlocksByNumber(from, to uint64) []database.Block {
	latest := uint64(s.db.Length() - 1)

	if from == QueryLatest {
		from = latest
		to = from
	}

	if to == QueryLatest || to > latest {
		to = latest
	}

	var out []database.Block
	for i := from; i <= to; i++ {
		block, err := s.db.GetBlock(i)
		if err != nil {
			s.evHandler("state: QueryBlocksByNumber: ERROR: %s", err)
			return nil
		}
		out = append(out, block)
	}

	return out
}

// QueryBlocksByAccount returns the set of blocks holding a transaction sent
// or received by the account. If the account is empty, all blocks are
// returned.
func (s *State) QueryBlocksByAccount(accountID string) []database.Block {
	blocks := s.db.Blocks()
	if accountID == "" {
		return blocks
	}

	var out []database.Block
	for _, block := range blocks {
		for _, tx := range block.Transactions {
			if tx.FromID == accountID || tx.ToID == accountID {
				out = append(out, block)
				break
			}
		}
	}

	return out
}

// ChainLength returns the number of blocks in the chain.
func (s *State) ChainLength() int {
	return s.db.Length()
}
