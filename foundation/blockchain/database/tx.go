package database

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/doniyorcoin/ledger/foundation/blockchain/signature"
	"github.com/doniyorcoin/ledger/foundation/validate"
)

// Set of error variables for transaction handling.
var (
	ErrInvalidTransaction = errors.New("invalid transaction")
	ErrIdentityMismatch   = errors.New("private key does not match the from address")
)

// Tx is a transfer of value between two accounts. A Tx without a FromID is
// a reward minted by the ledger for the miner of a block.
type Tx struct {
	FromID    string  // Account sending the value, empty for rewards.
	ToID      string  // Account receiving the value.
	Value     float64 // Amount being transferred.
	TimeStamp float64 // Seconds since the Unix epoch when the tx was created.
	PublicKey string  // Public key of the signer, empty when unsigned.
	Signature string  // Authentication tag, empty when unsigned.
}

// NewTx constructs an unsigned transaction stamped with the current time.
func NewTx(fromID string, toID string, value float64) Tx {
	return Tx{
		FromID:    fromID,
		ToID:      toID,
		Value:     value,
		TimeStamp: Now(),
	}
}

// NewRewardTx constructs the transaction paying a miner for a block.
func NewRewardTx(minerID string, reward float64) Tx {
	return NewTx("", minerID, reward)
}

// IsReward reports whether the transaction was issued by the ledger.
func (tx Tx) IsReward() bool {
	return tx.FromID == ""
}

// Payload returns the message authenticated by the signature.
func (tx Tx) Payload() []byte {
	return []byte(fmt.Sprintf("%s->%s:%s:%s", tx.FromID, tx.ToID, formatFloat(tx.Value), formatFloat(tx.TimeStamp)))
}

// Sign returns a copy of the transaction signed with the hex encoded private
// key. An empty FromID is filled with the address owned by the key, a FromID
// owned by a different key is rejected.
func (tx Tx) Sign(privateKey string) (Tx, error) {
	publicKey, address, err := signature.DeriveIdentityHex(privateKey)
	if err != nil {
		return Tx{}, err
	}

	switch {
	case tx.FromID == "":
		tx.FromID = address
	case tx.FromID != address:
		return Tx{}, fmt.Errorf("%w: from %s, key owns %s", ErrIdentityMismatch, tx.FromID, address)
	}

	sig, err := signature.Sign(publicKey, tx.Payload())
	if err != nil {
		return Tx{}, err
	}

	tx.PublicKey = publicKey
	tx.Signature = sig

	return tx, nil
}

// Validate performs the checks of IsValid and describes the first failure.
func (tx Tx) Validate() error {
	if tx.FromID == tx.ToID {
		return fmt.Errorf("%w: sending money to yourself, from %s, to %s", ErrInvalidTransaction, tx.FromID, tx.ToID)
	}

	if !(tx.Value > 0) {
		return fmt.Errorf("%w: amount must be positive, got %s", ErrInvalidTransaction, formatFloat(tx.Value))
	}

	if tx.IsReward() {
		return nil
	}

	if tx.Signature == "" || tx.PublicKey == "" {
		return fmt.Errorf("%w: transfer is not signed", ErrInvalidTransaction)
	}

	if signature.AddressFromPublicKey(tx.PublicKey) != tx.FromID {
		return fmt.Errorf("%w: public key does not own the from address", ErrInvalidTransaction)
	}

	if !signature.Verify(tx.PublicKey, tx.Payload(), tx.Signature) {
		return fmt.Errorf("%w: signature does not match", ErrInvalidTransaction)
	}

	return nil
}

// IsValid reports whether the transaction can be included in a block.
func (tx Tx) IsValid() bool {
	return tx.Validate() == nil
}

// String implements the fmt.Stringer interface for logging.
func (tx Tx) String() string {
	from := tx.FromID
	if from == "" {
		from = "reward"
	}
	return fmt.Sprintf("%s->%s:%s", from, tx.ToID, formatFloat(tx.Value))
}

// =============================================================================

// txJSON is the document layout of a transaction.
type txJSON struct {
	FromID    *string  `json:"from_address"`
	ToID      *string  `json:"to_address" validate:"required"`
	Value     *float64 `json:"amount" validate:"required"`
	TimeStamp *float64 `json:"timestamp"`
	PublicKey *string  `json:"public_key"`
	Signature *string  `json:"signature"`
}

// MarshalJSON writes the document layout of the transaction. Absent optional
// fields are written as null.
func (tx Tx) MarshalJSON() ([]byte, error) {
	if !isFinite(tx.Value) || !isFinite(tx.TimeStamp) {
		return nil, fmt.Errorf("transaction %s: amount and timestamp must be finite", tx)
	}

	var b strings.Builder
	canonicalTx(&b, tx)

	return []byte(b.String()), nil
}

// UnmarshalJSON reads the document layout of a transaction. The recipient and
// amount are required, a missing timestamp is set to the current time.
func (tx *Tx) UnmarshalJSON(data []byte) error {
	var doc txJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}

	if err := validate.Check(doc); err != nil {
		return fmt.Errorf("transaction: %w", err)
	}

	*tx = Tx{
		ToID:      *doc.ToID,
		Value:     *doc.Value,
		TimeStamp: Now(),
	}
	if doc.FromID != nil {
		tx.FromID = *doc.FromID
	}
	if doc.TimeStamp != nil {
		tx.TimeStamp = *doc.TimeStamp
	}
	if doc.PublicKey != nil {
		tx.PublicKey = *doc.PublicKey
	}
	if doc.Signature != nil {
		tx.Signature = *doc.Signature
	}

	return nil
}

// =============================================================================

// isFinite reports whether f can be written as a JSON number.
func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Now returns the current time as fractional seconds since the Unix epoch.
func Now() float64 {
	return float64(time.Now().UnixMicro()) / 1e6
}
