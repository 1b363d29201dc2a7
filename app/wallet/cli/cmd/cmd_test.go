package cmd

import (
	"bytes"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/doniyorcoin/ledger/app/services/node/handlers"
	"github.com/doniyorcoin/ledger/foundation/blockchain/database"
	"github.com/doniyorcoin/ledger/foundation/blockchain/state"
	"github.com/doniyorcoin/ledger/foundation/blockchain/wallet"
)

// execute runs the command line with the arguments and returns its output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	defer rootCmd.SetOut(nil)

	err := rootCmd.Execute()
	return out.String(), err
}

func mustExecute(t *testing.T, args ...string) string {
	t.Helper()

	out, err := execute(t, args...)
	if err != nil {
		t.Fatalf("error: %v: unexpected error: %v", args, err)
	}
	return out
}

func TestWorkflow(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")
	walletPath := filepath.Join(dir, "a.json")

	out := mustExecute(t, "init", "--state", path, "--difficulty", "1", "--reward", "50")
	if out != "Initialized new Doniyorcoin blockchain at "+path+"\n" {
		t.Fatalf("error: unexpected init output %q", out)
	}

	out = mustExecute(t, "create-wallet", "--output", walletPath)
	if out != "Wallet saved to "+walletPath+"\n" {
		t.Fatalf("error: unexpected create-wallet output %q", out)
	}

	a, err := wallet.Load(walletPath)
	if err != nil {
		t.Fatalf("error: unable to load wallet: %v", err)
	}
	b, err := wallet.New()
	if err != nil {
		t.Fatalf("error: unable to create wallet: %v", err)
	}

	if out := mustExecute(t, "account", walletPath); strings.TrimSpace(out) != a.Address {
		t.Fatalf("error: expected address %s, got %q", a.Address, out)
	}

	out = mustExecute(t, "mine", a.Address, "--state", path)
	if !strings.HasPrefix(out, "Mined block #1 with hash 0") {
		t.Fatalf("error: unexpected mine output %q", out)
	}

	out = mustExecute(t, "balance", a.Address, "--state", path)
	if out != "Balance for "+a.Address+": 50.0000 DYC\n" {
		t.Fatalf("error: unexpected balance output %q", out)
	}

	out = mustExecute(t, "transfer", a.PrivateKey, b.Address, "12.5", "--state", path, "--node", "")
	if out != "Transaction queued for mining.\n" {
		t.Fatalf("error: unexpected transfer output %q", out)
	}

	mustExecute(t, "mine", b.Address, "--state", path)

	tt := []struct {
		address string
		exp     string
	}{
		{address: a.Address, exp: "37.5000"},
		{address: b.Address, exp: "62.5000"},
	}
	for i, tst := range tt {
		out := mustExecute(t, "balance", tst.address, "--state", path)
		if !strings.Contains(out, ": "+tst.exp+" DYC") {
			t.Errorf("[case:%d] error: expected balance %s, got %q", i, tst.exp, out)
		}
	}

	if out := mustExecute(t, "validate", "--state", path); out != "Chain valid\n" {
		t.Fatalf("error: unexpected validate output %q", out)
	}

	out = mustExecute(t, "show-chain", "--state", path)
	doc, err := database.DecodeDocument([]byte(out))
	if err != nil {
		t.Fatalf("error: expected show-chain to print the document: %v", err)
	}
	if len(doc.Chain) != 3 || doc.Difficulty != 1 {
		t.Fatalf("error: unexpected document with %d blocks", len(doc.Chain))
	}

	// Tamper with an amount in the state file.
	doc.Chain[2].Transactions[0].Value = 1000
	data, err := database.EncodeDocument(doc)
	if err != nil {
		t.Fatalf("error: unexpected error: %v", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatalf("error: unexpected error: %v", err)
	}

	if out := mustExecute(t, "validate", "--state", path); out != "Chain invalid\n" {
		t.Fatalf("error: unexpected validate output %q", out)
	}
}

func TestMissingStateFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fresh.json")

	out := mustExecute(t, "balance", "abc", "--state", path)
	if out != "Balance for abc: 0.0000 DYC\n" {
		t.Fatalf("error: unexpected balance output %q", out)
	}

	if out := mustExecute(t, "validate", "--state", path); out != "Chain valid\n" {
		t.Fatalf("error: unexpected validate output %q", out)
	}
}

func TestCommandErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	w, err := wallet.New()
	if err != nil {
		t.Fatalf("error: unable to create wallet: %v", err)
	}

	tt := []struct {
		name string
		args []string
	}{
		{name: "bad amount", args: []string{"transfer", w.PrivateKey, "abc", "ten", "--state", path, "--node", ""}},
		{name: "bad key", args: []string{"transfer", "zz", "abc", "1", "--state", path, "--node", ""}},
		{name: "self transfer", args: []string{"transfer", w.PrivateKey, w.Address, "1", "--state", path, "--node", ""}},
		{name: "missing miner", args: []string{"mine", "", "--state", path}},
		{name: "missing wallet", args: []string{"account", filepath.Join(t.TempDir(), "none.json")}},
	}

	for i, tst := range tt {
		t.Run(tst.name, func(t *testing.T) {
			if _, err := execute(t, tst.args...); err == nil {
				t.Fatalf("[case:%d] error: expected the command to fail", i)
			}
		})
	}
}

func TestTransferToNode(t *testing.T) {
	st, err := state.New(state.Config{Difficulty: 1, MiningReward: 50})
	if err != nil {
		t.Fatalf("error: unable to construct state: %v", err)
	}
	defer st.Shutdown()

	srv := httptest.NewServer(handlers.PublicMux(handlers.MuxConfig{
		Shutdown: make(chan os.Signal, 1),
		Log:      zap.NewNop().Sugar(),
		State:    st,
	}))
	defer srv.Close()

	a, err := wallet.New()
	if err != nil {
		t.Fatalf("error: unable to create wallet: %v", err)
	}
	b, err := wallet.New()
	if err != nil {
		t.Fatalf("error: unable to create wallet: %v", err)
	}

	out := mustExecute(t, "transfer", a.PrivateKey, b.Address, "3", "--node", srv.URL)
	if out != "Transaction queued for mining.\n" {
		t.Fatalf("error: unexpected transfer output %q", out)
	}

	pending := st.RetrieveMempool()
	if len(pending) != 1 || pending[0].FromID != a.Address || pending[0].Value != 3 {
		t.Fatalf("error: expected the transaction at the node, got %+v", pending)
	}

	if _, err := execute(t, "transfer", a.PrivateKey, a.Address, "3", "--node", srv.URL); err == nil {
		t.Fatal("error: expected the node to reject a self transfer")
	}

	// Reset the flag for the other tests.
	mustExecute(t, "transfer", a.PrivateKey, b.Address, "1", "--state", filepath.Join(t.TempDir(), "s.json"), "--node", "")
}
