package state_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/doniyorcoin/ledger/foundation/blockchain/database"
	"github.com/doniyorcoin/ledger/foundation/blockchain/signature"
	"github.com/doniyorcoin/ledger/foundation/blockchain/state"
	"github.com/doniyorcoin/ledger/foundation/blockchain/storage/memory"
	"github.com/doniyorcoin/ledger/foundation/blockchain/wallet"
)

const difficulty = 1

func newWallet(t *testing.T) wallet.Wallet {
	t.Helper()

	w, err := wallet.New()
	if err != nil {
		t.Fatalf("error: unable to create wallet: %v", err)
	}
	return w
}

func newState(t *testing.T, cfg state.Config) *state.State {
	t.Helper()

	if cfg.Difficulty == 0 {
		cfg.Difficulty = difficulty
	}
	if cfg.MiningReward == 0 {
		cfg.MiningReward = 50
	}

	st, err := state.New(cfg)
	if err != nil {
		t.Fatalf("error: unable to construct state: %v", err)
	}
	t.Cleanup(func() { st.Shutdown() })

	return st
}

func transfer(t *testing.T, from wallet.Wallet, to string, value float64) database.Tx {
	t.Helper()

	tx, err := from.CreateTransaction(to, value)
	if err != nil {
		t.Fatalf("error: unable to create transaction: %v", err)
	}
	return tx
}

func mine(t *testing.T, st *state.State, miner string) database.Block {
	t.Helper()

	block, err := st.MinePendingTransactions(context.Background(), miner)
	if err != nil {
		t.Fatalf("error: unable to mine: %v", err)
	}
	return block
}

// =============================================================================

func TestGenesis(t *testing.T) {
	st := newState(t, state.Config{})

	if st.ChainLength() != 1 {
		t.Fatalf("error: expected 1 block, got %d", st.ChainLength())
	}

	gen := st.RetrieveGenesis()
	if gen.PrevBlockHash != signature.ZeroHash || len(gen.Transactions) != 0 {
		t.Fatalf("error: unexpected genesis block %+v", gen)
	}

	if !st.IsChainValid() {
		t.Fatalf("error: expected a valid chain: %v", st.ValidateChain())
	}

	if st.Difficulty() != difficulty || st.MiningReward() != 50 {
		t.Fatalf("error: unexpected settings %d/%v", st.Difficulty(), st.MiningReward())
	}
}

func TestBalanceRoundTrip(t *testing.T) {
	st := newState(t, state.Config{})
	a, b, c := newWallet(t), newWallet(t), newWallet(t)

	// A earns the reward for mining an empty pool.
	block := mine(t, st, a.Address)
	if len(block.Transactions) != 1 || !block.Transactions[0].IsReward() {
		t.Fatalf("error: expected only the reward, got %+v", block.Transactions)
	}
	if got := st.Balance(a.Address); got != 50 {
		t.Fatalf("error: expected balance 50, got %v", got)
	}

	if err := st.AddTransaction(transfer(t, a, b.Address, 10)); err != nil {
		t.Fatalf("error: unable to add transaction: %v", err)
	}

	// Pending value is deducted from the sender, not yet credited.
	if got := st.Balance(a.Address); got != 40 {
		t.Errorf("error: expected pending balance 40, got %v", got)
	}
	if got := st.Balance(b.Address); got != 0 {
		t.Errorf("error: expected pending recipient balance 0, got %v", got)
	}

	block = mine(t, st, c.Address)
	if block.Number != 2 || len(block.Transactions) != 2 {
		t.Fatalf("error: unexpected block %d with %d txs", block.Number, len(block.Transactions))
	}
	if !block.Transactions[1].IsReward() {
		t.Fatal("error: expected the reward last")
	}

	tt := []struct {
		account string
		balance float64
	}{
		{account: a.Address, balance: 40},
		{account: b.Address, balance: 10},
		{account: c.Address, balance: 50},
	}
	for i, tst := range tt {
		if got := st.Balance(tst.account); got != tst.balance {
			t.Errorf("[case:%d] error: expected balance %v, got %v", i, tst.balance, got)
		}
	}

	if st.QueryMempoolLength() != 0 {
		t.Errorf("error: expected an empty pool, got %d", st.QueryMempoolLength())
	}
	if st.ChainLength() != 3 || !st.IsChainValid() {
		t.Errorf("error: expected a valid chain of 3 blocks: %v", st.ValidateChain())
	}
	if !st.RetrieveLatestBlock().IsHashSolved(difficulty) {
		t.Error("error: expected the latest block to meet the difficulty")
	}
}

func TestOverdraft(t *testing.T) {
	st := newState(t, state.Config{})
	a, b := newWallet(t), newWallet(t)

	if err := st.AddTransaction(transfer(t, a, b.Address, 25)); err != nil {
		t.Fatalf("error: expected an overdraft to be accepted: %v", err)
	}
	mine(t, st, b.Address)

	if got := st.Balance(a.Address); got != -25 {
		t.Fatalf("error: expected balance -25, got %v", got)
	}
}

func TestAddTransactionRejects(t *testing.T) {
	st := newState(t, state.Config{})
	a, b := newWallet(t), newWallet(t)

	unsigned := database.NewTx(a.Address, b.Address, 5)

	forged := transfer(t, a, b.Address, 5)
	forged.Value = 500

	self := database.NewTx(a.Address, a.Address, 5)

	for i, tx := range []database.Tx{unsigned, forged, self} {
		if err := st.AddTransaction(tx); !errors.Is(err, database.ErrInvalidTransaction) {
			t.Errorf("[case:%d] error: expected ErrInvalidTransaction, got %v", i, err)
		}
	}

	if st.QueryMempoolLength() != 0 {
		t.Fatalf("error: expected an empty pool, got %d", st.QueryMempoolLength())
	}
}

func TestMineRejectsMiner(t *testing.T) {
	st := newState(t, state.Config{})

	if _, err := st.MinePendingTransactions(context.Background(), ""); !errors.Is(err, database.ErrInvalidTransaction) {
		t.Fatalf("error: expected ErrInvalidTransaction, got %v", err)
	}

	if st.ChainLength() != 1 {
		t.Fatalf("error: expected the chain unchanged, got %d blocks", st.ChainLength())
	}
}

func TestMineCancel(t *testing.T) {
	st := newState(t, state.Config{Difficulty: 64})
	a, b := newWallet(t), newWallet(t)

	if err := st.AddTransaction(transfer(t, a, b.Address, 1)); err != nil {
		t.Fatalf("error: unable to add transaction: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := st.MinePendingTransactions(ctx, b.Address); !errors.Is(err, context.Canceled) {
		t.Fatalf("error: expected context.Canceled, got %v", err)
	}

	if st.ChainLength() != 1 || st.QueryMempoolLength() != 1 {
		t.Fatalf("error: expected nothing committed, got %d blocks and %d pending", st.ChainLength(), st.QueryMempoolLength())
	}
}

func TestTamperedChain(t *testing.T) {
	st := newState(t, state.Config{})
	a, b := newWallet(t), newWallet(t)

	mine(t, st, a.Address)
	if err := st.AddTransaction(transfer(t, a, b.Address, 10)); err != nil {
		t.Fatalf("error: unable to add transaction: %v", err)
	}
	mine(t, st, a.Address)

	doc := st.Document()
	doc.Chain[2].Transactions = append([]database.Tx{}, doc.Chain[2].Transactions...)
	doc.Chain[2].Transactions[0].Value = 1000

	tampered, err := state.Restore(doc, nil)
	if err != nil {
		t.Fatalf("error: unable to restore: %v", err)
	}

	if tampered.IsChainValid() {
		t.Fatal("error: expected the tampered chain to be invalid")
	}
	if !errors.Is(tampered.ValidateChain(), database.ErrInvalidChain) {
		t.Fatalf("error: expected ErrInvalidChain, got %v", tampered.ValidateChain())
	}

	// The source ledger is unaffected.
	if !st.IsChainValid() {
		t.Fatal("error: expected the source chain to stay valid")
	}
}

func TestRestore(t *testing.T) {
	a, b := newWallet(t), newWallet(t)

	t.Run("invalid pending", func(t *testing.T) {
		doc := database.Document{
			Difficulty:          1,
			MiningReward:        50,
			PendingTransactions: []database.Tx{database.NewTx(a.Address, b.Address, 1)},
		}

		if _, err := state.Restore(doc, nil); !errors.Is(err, database.ErrInvalidTransaction) {
			t.Fatalf("error: expected ErrInvalidTransaction, got %v", err)
		}
	})

	t.Run("negative difficulty", func(t *testing.T) {
		if _, err := state.Restore(database.Document{Difficulty: -1}, nil); err == nil {
			t.Fatal("error: expected negative difficulty to be rejected")
		}
	})

	t.Run("pending kept", func(t *testing.T) {
		tx := transfer(t, a, b.Address, 1)
		doc := database.Document{
			Difficulty:          1,
			MiningReward:        50,
			PendingTransactions: []database.Tx{tx},
		}

		st, err := state.Restore(doc, nil)
		if err != nil {
			t.Fatalf("error: unexpected error: %v", err)
		}
		if pending := st.RetrieveMempool(); len(pending) != 1 || pending[0] != tx {
			t.Fatalf("error: expected the pending transaction, got %+v", pending)
		}
	})
}

func TestPersistence(t *testing.T) {
	store := memory.New()
	st := newState(t, state.Config{Storage: store})
	a, b := newWallet(t), newWallet(t)

	if store.Writes() != 1 {
		t.Fatalf("error: expected the genesis document written, got %d writes", store.Writes())
	}

	mine(t, st, a.Address)
	if err := st.AddTransaction(transfer(t, a, b.Address, 5)); err != nil {
		t.Fatalf("error: unable to add transaction: %v", err)
	}

	if store.Writes() != 3 {
		t.Fatalf("error: expected 3 writes, got %d", store.Writes())
	}

	// A second ledger over the same storage sees the same state and keeps
	// its settings over the configured ones.
	loaded := newState(t, state.Config{Storage: store, Difficulty: 5, MiningReward: 1})

	if loaded.Difficulty() != difficulty || loaded.MiningReward() != 50 {
		t.Fatalf("error: expected stored settings, got %d/%v", loaded.Difficulty(), loaded.MiningReward())
	}
	if loaded.ChainLength() != 2 || loaded.QueryMempoolLength() != 1 {
		t.Fatalf("error: expected 2 blocks and 1 pending, got %d/%d", loaded.ChainLength(), loaded.QueryMempoolLength())
	}
	if loaded.RetrieveLatestBlock().Hash != st.RetrieveLatestBlock().Hash {
		t.Fatal("error: expected the same latest block")
	}
	if got := loaded.Balance(a.Address); got != 45 {
		t.Fatalf("error: expected balance 45, got %v", got)
	}
}

// failingStorage fails every write after the first.
type failingStorage struct {
	mu     sync.Mutex
	writes int
	doc    database.Document
}

func (fs *failingStorage) Write(doc database.Document) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	fs.writes++
	if fs.writes > 1 {
		return errors.New("disk full")
	}
	fs.doc = doc
	return nil
}

func (fs *failingStorage) Read() (database.Document, error) {
	return database.Document{}, database.ErrNotFound
}

func (fs *failingStorage) Close() error {
	return nil
}

func TestPersistenceFailure(t *testing.T) {
	st := newState(t, state.Config{Storage: &failingStorage{}})
	a, b := newWallet(t), newWallet(t)

	if err := st.AddTransaction(transfer(t, a, b.Address, 5)); err == nil {
		t.Fatal("error: expected the write failure to be reported")
	}
	if st.QueryMempoolLength() != 0 {
		t.Fatalf("error: expected the pool unchanged, got %d", st.QueryMempoolLength())
	}

	if _, err := st.MinePendingTransactions(context.Background(), a.Address); err == nil {
		t.Fatal("error: expected the write failure to be reported")
	}
	if st.ChainLength() != 1 {
		t.Fatalf("error: expected the chain unchanged, got %d blocks", st.ChainLength())
	}
}

func TestConcurrentSubmit(t *testing.T) {
	st := newState(t, state.Config{Difficulty: 3})
	a, b, miner := newWallet(t), newWallet(t), newWallet(t)

	const total = 20
	submitted := make(map[string]bool, total)
	var txs []database.Tx
	for i := 0; i < total; i++ {
		tx := transfer(t, a, b.Address, float64(i+1))
		txs = append(txs, tx)
		submitted[tx.Signature] = true
	}

	if err := st.AddTransaction(txs[0]); err != nil {
		t.Fatalf("error: unable to add transaction: %v", err)
	}

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		if _, err := st.MinePendingTransactions(context.Background(), miner.Address); err != nil {
			t.Errorf("error: unable to mine: %v", err)
		}
	}()

	go func() {
		defer wg.Done()
		for _, tx := range txs[1:] {
			if err := st.AddTransaction(tx); err != nil {
				t.Errorf("error: unable to add transaction: %v", err)
			}
		}
	}()

	wg.Wait()
	mine(t, st, miner.Address)

	if st.QueryMempoolLength() != 0 {
		t.Fatalf("error: expected an empty pool, got %d", st.QueryMempoolLength())
	}

	seen := make(map[string]int)
	for _, block := range st.RetrieveChain() {
		for _, tx := range block.Transactions {
			if !tx.IsReward() {
				seen[tx.Signature]++
			}
		}
	}

	if len(seen) != total {
		t.Fatalf("error: expected %d mined transactions, got %d", total, len(seen))
	}
	for sig, n := range seen {
		if !submitted[sig] || n != 1 {
			t.Fatalf("error: transaction %s mined %d times", sig, n)
		}
	}

	if !st.IsChainValid() {
		t.Fatalf("error: expected a valid chain: %v", st.ValidateChain())
	}
}

func TestQueryBlocks(t *testing.T) {
	st := newState(t, state.Config{})
	a, b := newWallet(t), newWallet(t)

	mine(t, st, a.Address)
	if err := st.AddTransaction(transfer(t, a, b.Address, 5)); err != nil {
		t.Fatalf("error: unable to add transaction: %v", err)
	}
	mine(t, st, a.Address)

	tt := []struct {
		name string
		from uint64
		to   uint64
		exp  []uint64
	}{
		{name: "all", from: 0, to: state.QueryLatest, exp: []uint64{0, 1, 2}},
		{name: "range", from: 1, to: 1, exp: []uint64{1}},
		{name: "latest", from: state.QueryLatest, to: state.QueryLatest, exp: []uint64{2}},
		{name: "clamped", from: 1, to: 99, exp: []uint64{1, 2}},
	}

	for i, tst := range tt {
		t.Run(tst.name, func(t *testing.T) {
			blocks := st.QueryBlocksByNumber(tst.from, tst.to)
			if len(blocks) != len(tst.exp) {
				t.Fatalf("[case:%d] error: expected %d blocks, got %d", i, len(tst.exp), len(blocks))
			}
			for j, block := range blocks {
				if block.Number != tst.exp[j] {
					t.Fatalf("[case:%d] error: expected block %d, got %d", i, tst.exp[j], block.Number)
				}
			}
		})
	}

	if got := st.QueryBlocksByAccount(b.Address); len(got) != 1 || got[0].Number != 2 {
		t.Fatalf("error: expected block 2 for the recipient, got %d blocks", len(got))
	}
	if got := st.QueryBlocksByAccount(a.Address); len(got) != 2 {
		t.Fatalf("error: expected 2 blocks for the miner, got %d", len(got))
	}
	if got := st.QueryBlocksByAccount(""); len(got) != 3 {
		t.Fatalf("error: expected every block, got %d", len(got))
	}
}
