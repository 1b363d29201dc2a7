// Package memory implements a storage that keeps the ledger document in
// memory. It is used when a node runs without a state file and in tests.
package memory

import (
	"sync"

	"github.com/doniyorcoin/ledger/foundation/blockchain/database"
)

// Memory represents the storage implementation for keeping the ledger
// document in memory. This implements the database.Storage interface.
type Memory struct {
	mu     sync.RWMutex
	doc    database.Document
	stored bool
	writes int
}

// New constructs a Memory value for use. An optional document seeds the
// storage as if it had been written before.
func New(docs ...database.Document) *Memory {
	var m Memory
	if len(docs) > 0 {
		m.doc = docs[0]
		m.stored = true
	}

	return &m
}

// Close in this implementation has nothing to do.
func (m *Memory) Close() error {
	return nil
}

// Write keeps the specified document.
func (m *Memory) Write(doc database.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.doc = doc
	m.stored = true
	m.writes++

	return nil
}

// Read returns the last document written.
func (m *Memory) Read() (database.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.stored {
		return database.Document{}, database.ErrNotFound
	}

	return m.doc, nil
}

// Writes returns the number of times a document was written.
func (m *Memory) Writes() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.writes
}
