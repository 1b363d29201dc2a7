package state

import (
	"context"
	"fmt"
	"time"

	"github.com/doniyorcoin/ledger/foundation/blockchain/database"
)

// MinePendingTransactions builds a block holding every pending transaction
// followed by the reward for the miner, solves the proof of work, and appends
// the block to the chain. The pending transactions included in the block are
// removed from the pool. Only one mining operation runs at a time.
func (s *State) MinePendingTransactions(ctx context.Context, minerID string) (database.Block, error) {
	s.miningMu.Lock()
	defer s.miningMu.Unlock()

	reward := database.NewRewardTx(minerID, s.miningReward)
	if err := reward.Validate(); err != nil {
		return database.Block{}, fmt.Errorf("mining reward for %q: %w", minerID, err)
	}

	s.evHandler("state: MinePendingTransactions: MINING: snapshot mempool")

	// Transactions submitted from here on wait for the next block.
	pending := s.mempool.Copy()
	txs := append(pending, reward)

	latest := s.db.LatestBlock()
	block := database.NewBlock(uint64(s.db.Length()), latest.Hash, txs)

	s.evHandler("state: MinePendingTransactions: MINING: perform POW: block[%d] txs[%d] difficulty[%d]", block.Number, len(txs), s.difficulty)

	t := time.Now()
	block, err := database.Mine(ctx, block, s.difficulty)
	if err != nil {
		s.evHandler("state: MinePendingTransactions: MINING: CANCELLED: %s", err)
		return database.Block{}, err
	}

	s.evHandler("state: MinePendingTransactions: MINING: solved: block[%d] nonce[%d] hash[%s] duration[%v]", block.Number, block.Nonce, block.Hash, time.Since(t))

	if err := s.commitBlock(block, len(pending)); err != nil {
		return database.Block{}, err
	}

	return block, nil
}

// commitBlock writes the mined block to the chain and drops the mined
// transactions from the mempool.
func (s *State) commitBlock(block database.Block, mined int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evHandler("state: commitBlock: validate and write block[%d]", block.Number)

	if err := block.ValidateBlock(s.db.LatestBlock()); err != nil {
		return fmt.Errorf("validating mined block: %w", err)
	}

	doc := s.document()
	doc.Chain = append(doc.Chain, block)
	doc.PendingTransactions = doc.PendingTransactions[mined:]
	if err := s.persist(doc); err != nil {
		return err
	}

	if err := s.db.Write(block); err != nil {
		return err
	}
	s.mempool.Truncate(mined)

	s.evHandler("state: commitBlock: block[%d] written: pending[%d]", block.Number, s.mempool.Count())

	return nil
}
