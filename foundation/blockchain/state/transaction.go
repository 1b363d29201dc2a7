package state

import (
	"github.com/doniyorcoin/ledger/foundation/blockchain/database"
)

// AddTransaction accepts a signed transaction for inclusion in the next
// block. The account's balance is not checked, an account may overdraw.
func (s *State) AddTransaction(tx database.Tx) error {
	if err := tx.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.document()
	doc.PendingTransactions = append(doc.PendingTransactions, tx)
	if err := s.persist(doc); err != nil {
		return err
	}

	s.mempool.Add(tx)
	s.evHandler("state: AddTransaction: tx[%s] accepted: pending[%d]", tx, s.mempool.Count())

	if s.Worker != nil {
		s.Worker.SignalStartMining()
	}

	return nil
}
