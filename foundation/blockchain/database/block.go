package database

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/doniyorcoin/ledger/foundation/blockchain/signature"
	"github.com/doniyorcoin/ledger/foundation/validate"
)

// cancelCheckInterval is how many hash attempts run between checks of the
// mining context.
const cancelCheckInterval = 1024

// Block represents a group of transactions batched together.
type Block struct {
	Number        uint64  // The height of the block in the chain, genesis is 0.
	TimeStamp     float64 // Seconds since the Unix epoch when the block was built.
	Transactions  []Tx    // Ordered transactions, the order is part of the hash.
	PrevBlockHash string  // Hash of the previous block in the chain.
	Nonce         uint64  // Value identified to solve the hash solution.
	Hash          string  // Hash of the block content.
}

// NewBlock constructs an unmined block at the current time. The block holds
// its own copy of the transactions and a hash computed with a zero nonce.
func NewBlock(number uint64, prevBlockHash string, txs []Tx) Block {
	trans := make([]Tx, len(txs))
	copy(trans, txs)

	block := Block{
		Number:        number,
		TimeStamp:     Now(),
		Transactions:  trans,
		PrevBlockHash: prevBlockHash,
	}
	block.Hash = block.CalculateHash()

	return block
}

// NewGenesisBlock constructs the first block of a chain.
func NewGenesisBlock() Block {
	return NewBlock(0, signature.ZeroHash, nil)
}

// CalculateHash returns the hash of the block content. The stored Hash field
// is not part of the input.
func (b Block) CalculateHash() string {
	return signature.Hash([]byte(canonicalBlock(b)))
}

// IsHashSolved reports whether the stored hash meets the difficulty.
func (b Block) IsHashSolved(difficulty int) bool {
	return isHashSolved(difficulty, b.Hash)
}

// Mine performs the proof of work search for the block. Starting from the
// block's nonce, the nonce is incremented until the hash starts with
// difficulty zeros. The result is a new block carrying the solved nonce and
// hash. The search only stops early if the context is cancelled.
func Mine(ctx context.Context, block Block, difficulty int) (Block, error) {
	trans := make([]Tx, len(block.Transactions))
	copy(trans, block.Transactions)
	block.Transactions = trans

	block.Hash = block.CalculateHash()

	for attempts := 1; !isHashSolved(difficulty, block.Hash); attempts++ {
		if attempts%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return Block{}, fmt.Errorf("mining block %d cancelled after %d attempts: %w", block.Number, attempts, err)
			}
		}

		block.Nonce++
		block.Hash = block.CalculateHash()
	}

	return block, nil
}

// ValidateBlock takes a block and validates it to be included into the
// blockchain after the previous block.
func (b Block) ValidateBlock(previousBlock Block) error {
	if hash := b.CalculateHash(); b.Hash != hash {
		return fmt.Errorf("block %d: stored hash does not match content, got %s, exp %s", b.Number, b.Hash, hash)
	}

	if b.PrevBlockHash != previousBlock.Hash {
		return fmt.Errorf("block %d: previous hash does not match parent, got %s, exp %s", b.Number, b.PrevBlockHash, previousBlock.Hash)
	}

	for i, tx := range b.Transactions {
		if err := tx.Validate(); err != nil {
			return fmt.Errorf("block %d: tx %d: %w", b.Number, i, err)
		}
	}

	return nil
}

// isHashSolved checks the hash to make sure it complies with
// the POW rules. We need to match a difficulty number of 0's.
func isHashSolved(difficulty int, hash string) bool {
	if difficulty <= 0 {
		return true
	}

	if len(hash) < difficulty {
		return false
	}

	return strings.Count(hash[:difficulty], "0") == difficulty
}

// =============================================================================

// blockJSON is the document layout of a block.
type blockJSON struct {
	Number        *uint64  `json:"index" validate:"required"`
	TimeStamp     *float64 `json:"timestamp" validate:"required"`
	Transactions  []Tx     `json:"transactions" validate:"required"`
	PrevBlockHash *string  `json:"previous_hash" validate:"required"`
	Nonce         *uint64  `json:"nonce"`
	Hash          *string  `json:"hash"`
}

// MarshalJSON writes the document layout of the block.
func (b Block) MarshalJSON() ([]byte, error) {
	if !isFinite(b.TimeStamp) {
		return nil, fmt.Errorf("block %d: timestamp must be finite", b.Number)
	}

	trans := b.Transactions
	if trans == nil {
		trans = []Tx{}
	}

	txs, err := json.Marshal(trans)
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	sb.WriteString(`{"index":`)
	sb.WriteString(strconv.FormatUint(b.Number, 10))
	sb.WriteString(`,"timestamp":`)
	sb.WriteString(jsonNumber(b.TimeStamp))
	sb.WriteString(`,"transactions":`)
	sb.Write(txs)
	sb.WriteString(`,"previous_hash":`)
	sb.WriteString(jsonString(b.PrevBlockHash))
	sb.WriteString(`,"nonce":`)
	sb.WriteString(strconv.FormatUint(b.Nonce, 10))
	sb.WriteString(`,"hash":`)
	sb.WriteString(jsonString(b.Hash))
	sb.WriteByte('}')

	return []byte(sb.String()), nil
}

// UnmarshalJSON reads the document layout of a block. A stored hash is
// trusted as is, a missing hash is recomputed from the content.
func (b *Block) UnmarshalJSON(data []byte) error {
	var doc blockJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}

	if err := validate.Check(doc); err != nil {
		return fmt.Errorf("block: %w", err)
	}

	*b = Block{
		Number:        *doc.Number,
		TimeStamp:     *doc.TimeStamp,
		Transactions:  doc.Transactions,
		PrevBlockHash: *doc.PrevBlockHash,
	}
	if doc.Nonce != nil {
		b.Nonce = *doc.Nonce
	}

	switch doc.Hash {
	case nil:
		b.Hash = b.CalculateHash()
	default:
		b.Hash = *doc.Hash
	}

	return nil
}
