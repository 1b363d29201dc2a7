// Package mempool maintains the pool of transactions waiting to be mined.
package mempool

import (
	"sync"

	"github.com/doniyorcoin/ledger/foundation/blockchain/database"
)

// Mempool represents a cache of validated transactions kept in the order
// they were submitted.
type Mempool struct {
	mu   sync.RWMutex
	pool []database.Tx
}

// New constructs a new mempool holding the specified transactions.
func New(txs ...database.Tx) *Mempool {
	pool := make([]database.Tx, len(txs))
	copy(pool, txs)

	return &Mempool{pool: pool}
}

// Count returns the current number of transactions in the pool.
func (mp *Mempool) Count() int {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	return len(mp.pool)
}

// Add appends a transaction to the end of the pool.
func (mp *Mempool) Add(tx database.Tx) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.pool = append(mp.pool, tx)
}

// Copy returns the transactions in the pool in submission order.
func (mp *Mempool) Copy() []database.Tx {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	cpy := make([]database.Tx, len(mp.pool))
	copy(cpy, mp.pool)

	return cpy
}

// Truncate replaces the pool with a new one that no longer holds the first
// n transactions. Transactions submitted after a snapshot of n transactions
// was taken survive for the next block.
func (mp *Mempool) Truncate(n int) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if n > len(mp.pool) {
		n = len(mp.pool)
	}

	pool := make([]database.Tx, len(mp.pool)-n)
	copy(pool, mp.pool[n:])

	mp.pool = pool
}
