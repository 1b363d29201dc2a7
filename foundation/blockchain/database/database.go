// Package database maintains the chain of blocks and derives account
// balances by replaying the transactions stored in them.
package database

import (
	"errors"
	"fmt"
	"sync"
)

// ErrInvalidChain is returned when the chain fails validation.
var ErrInvalidChain = errors.New("invalid chain")

// Database manages the blocks that make up the chain. The chain is never
// empty, the first block is always the genesis block.
type Database struct {
	mu     sync.RWMutex
	blocks []Block
}

// New constructs a database holding the specified blocks. A genesis block is
// created when no blocks are provided. The blocks are trusted as provided,
// use Validate to check their integrity.
func New(blocks []Block) *Database {
	db := Database{
		blocks: make([]Block, 0, len(blocks)+1),
	}

	switch len(blocks) {
	case 0:
		db.blocks = append(db.blocks, NewGenesisBlock())
	default:
		db.blocks = append(db.blocks, blocks...)
	}

	return &db
}

// Genesis returns the first block in the chain.
func (db *Database) Genesis() Block {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return db.blocks[0]
}

// LatestBlock returns the latest block.
func (db *Database) LatestBlock() Block {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return db.blocks[len(db.blocks)-1]
}

// Length returns the number of blocks in the chain.
func (db *Database) Length() int {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return len(db.blocks)
}

// Blocks returns a copy of the chain.
func (db *Database) Blocks() []Block {
	db.mu.RLock()
	defer db.mu.RUnlock()

	blocks := make([]Block, len(db.blocks))
	copy(blocks, db.blocks)

	return blocks
}

// GetBlock returns the block at the specified height.
func (db *Database) GetBlock(num uint64) (Block, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if num >= uint64(len(db.blocks)) {
		return Block{}, fmt.Errorf("block %d not found, chain height %d", num, len(db.blocks)-1)
	}

	return db.blocks[num], nil
}

// Write adds a new block to the end of the chain after validating it
// against the current latest block.
func (db *Database) Write(block Block) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if err := block.ValidateBlock(db.blocks[len(db.blocks)-1]); err != nil {
		return err
	}

	db.blocks = append(db.blocks, block)

	return nil
}

// Balance replays every transaction in the chain, debiting the account when
// it is the sender and crediting it when it is the recipient.
func (db *Database) Balance(accountID string) float64 {
	db.mu.RLock()
	defer db.mu.RUnlock()

	var balance float64
	for _, block := range db.blocks {
		for _, tx := range block.Transactions {
			if !tx.IsReward() && tx.FromID == accountID {
				balance -= tx.Value
			}
			if tx.ToID == accountID {
				balance += tx.Value
			}
		}
	}

	return balance
}

// Validate walks the chain and returns an error describing the first block
// that breaks the hash linkage or holds an invalid transaction. The genesis
// block is not checked.
func (db *Database) Validate() error {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if len(db.blocks) == 0 {
		return fmt.Errorf("%w: chain is empty", ErrInvalidChain)
	}

	for i := 1; i < len(db.blocks); i++ {
		if err := db.blocks[i].ValidateBlock(db.blocks[i-1]); err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidChain, err)
		}
	}

	return nil
}
