// Package wallet manages the key material of an account: the private key
// seed, the public key and the address derived from it.
package wallet

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/doniyorcoin/ledger/foundation/blockchain/database"
	"github.com/doniyorcoin/ledger/foundation/blockchain/signature"
	"github.com/doniyorcoin/ledger/foundation/validate"
)

// Wallet represents the key material of an account.
type Wallet struct {
	PrivateKey string `json:"private_key" validate:"required,hexadecimal"`
	PublicKey  string `json:"public_key" validate:"required,hexadecimal"`
	Address    string `json:"address" validate:"required,hexadecimal"`
}

// New mints a wallet from a random private key seed.
func New() (Wallet, error) {
	seed := make([]byte, signature.SeedLength)
	if _, err := rand.Read(seed); err != nil {
		return Wallet{}, fmt.Errorf("generating private key: %w", err)
	}

	return FromPrivateKey(hex.EncodeToString(seed))
}

// FromPrivateKey recovers the wallet owning the hex encoded private key.
func FromPrivateKey(privateKey string) (Wallet, error) {
	publicKey, address, err := signature.DeriveIdentityHex(privateKey)
	if err != nil {
		return Wallet{}, err
	}

	w := Wallet{
		PrivateKey: privateKey,
		PublicKey:  publicKey,
		Address:    address,
	}

	return w, nil
}

// Load reads a wallet from the specified file. The stored public key and
// address must be the ones derived from the stored private key.
func Load(path string) (Wallet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Wallet{}, err
	}

	var w Wallet
	if err := json.Unmarshal(data, &w); err != nil {
		return Wallet{}, fmt.Errorf("decoding wallet %s: %w", path, err)
	}

	if err := validate.Check(w); err != nil {
		return Wallet{}, fmt.Errorf("wallet %s: %w", path, err)
	}

	derived, err := FromPrivateKey(w.PrivateKey)
	if err != nil {
		return Wallet{}, fmt.Errorf("wallet %s: %w", path, err)
	}

	if derived != w {
		return Wallet{}, fmt.Errorf("wallet %s: %w", path, database.ErrIdentityMismatch)
	}

	return w, nil
}

// Save writes the wallet to the specified file, creating the parent
// directory when needed. The file is only readable by its owner.
func (w Wallet) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	data, err := json.MarshalIndent(w, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}

// CreateTransaction builds and signs a transfer from the wallet's account.
func (w Wallet) CreateTransaction(toID string, value float64) (database.Tx, error) {
	tx := database.NewTx(w.Address, toID, value)
	tx.PublicKey = w.PublicKey

	return tx.Sign(w.PrivateKey)
}
