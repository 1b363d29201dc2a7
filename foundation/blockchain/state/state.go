// Package state is the core API for the blockchain and implements
// all the business rules and processing.
package state

import (
	"errors"
	"fmt"
	"sync"

	"github.com/doniyorcoin/ledger/foundation/blockchain/database"
	"github.com/doniyorcoin/ledger/foundation/blockchain/mempool"
)

// EventHandler defines a function that is called
// when events occur in the processing of the ledger.
type EventHandler func(v string, args ...any)

// Worker interface represents the behavior required to be implemented
// by any package providing support for background mining.
type Worker interface {
	Shutdown()
	SignalStartMining()
	SignalCancelMining() (done func())
}

// /////////////////////////////////////////////////////////////////

// Config represents the configuration required to construct the ledger.
// Difficulty and MiningReward only apply when the storage holds no
// document yet, an existing document keeps its own settings.
type Config struct {
	Difficulty   int
	MiningReward float64
	Storage      database.Storage
	EvHandler    EventHandler
}

// State manages the chain and the pool of pending transactions.
type State struct {
	mu       sync.RWMutex
	miningMu sync.Mutex

	difficulty   int
	miningReward float64
	evHandler    EventHandler

	storage database.Storage
	mempool *mempool.Mempool
	db      *database.Database

	Worker Worker
}

// New constructs a ledger. When a storage is configured, the document it
// holds is loaded and every change is written back to it. Without one the
// ledger lives in memory only.
func New(cfg Config) (*State, error) {
	// Build a safe event handler for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	doc := database.Document{
		Difficulty:   cfg.Difficulty,
		MiningReward: cfg.MiningReward,
	}

	if cfg.Storage != nil {
		stored, err := cfg.Storage.Read()
		switch {
		case errors.Is(err, database.ErrNotFound):
			ev("state: New: no stored document, starting a new chain")
		case err != nil:
			return nil, fmt.Errorf("reading ledger document: %w", err)
		default:
			doc = stored
		}
	}

	st, err := Restore(doc, ev)
	if err != nil {
		return nil, err
	}
	st.storage = cfg.Storage

	// Make sure a brand-new chain exists on storage with its genesis block.
	if cfg.Storage != nil && len(doc.Chain) == 0 {
		if err := cfg.Storage.Write(st.document()); err != nil {
			return nil, fmt.Errorf("writing genesis document: %w", err)
		}
	}

	ev("state: New: chain loaded: blocks[%d] pending[%d] difficulty[%d]", st.db.Length(), st.mempool.Count(), st.difficulty)

	return st, nil
}

// Restore constructs an in-memory ledger from a document. Stored block hashes
// are trusted as is, pending transactions must be valid.
func Restore(doc database.Document, evHandler EventHandler) (*State, error) {
	if evHandler == nil {
		evHandler = func(v string, args ...any) {}
	}

	if doc.Difficulty < 0 {
		return nil, fmt.Errorf("difficulty must not be negative, got %d", doc.Difficulty)
	}

	for i, tx := range doc.PendingTransactions {
		if err := tx.Validate(); err != nil {
			return nil, fmt.Errorf("pending transaction %d: %w", i, err)
		}
	}

	st := State{
		difficulty:   doc.Difficulty,
		miningReward: doc.MiningReward,
		evHandler:    evHandler,
		mempool:      mempool.New(doc.PendingTransactions...),
		db:           database.New(doc.Chain),
	}

	return &st, nil
}

// Shutdown cleanly brings the ledger down.
func (s *State) Shutdown() error {
	s.evHandler("state: shutdown: started")
	defer s.evHandler("state: shutdown: completed")

	// Stop any background mining.
	if s.Worker != nil {
		s.Worker.Shutdown()
	}

	if s.storage != nil {
		return s.storage.Close()
	}

	return nil
}

// Difficulty returns the number of leading zeros a block hash needs.
func (s *State) Difficulty() int {
	return s.difficulty
}

// MiningReward returns the amount paid to the miner of a block.
func (s *State) MiningReward() float64 {
	return s.miningReward
}

// Document returns the serializable form of the ledger.
func (s *State) Document() database.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.document()
}

// /////////////////////////////////////////////////////////////////

// document builds the document without taking the lock.
func (s *State) document() database.Document {
	return database.Document{
		Difficulty:          s.difficulty,
		MiningReward:        s.miningReward,
		Chain:               s.db.Blocks(),
		PendingTransactions: s.mempool.Copy(),
	}
}

// persist writes the document to storage when one is configured.
func (s *State) persist(doc database.Document) error {
	if s.storage == nil {
		return nil
	}

	if err := s.storage.Write(doc); err != nil {
		return fmt.Errorf("writing ledger document: %w", err)
	}

	return nil
}
