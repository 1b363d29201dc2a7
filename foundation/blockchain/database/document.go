package database

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Default ledger settings used when a document does not provide them.
const (
	DefaultDifficulty   = 3
	DefaultMiningReward = 50.0
)

// ErrNotFound is returned by a Storage that holds no document yet.
var ErrNotFound = errors.New("document not found")

// Storage interface represents the behavior required to be implemented by any
// package providing support for reading and writing the ledger document.
type Storage interface {
	Write(doc Document) error
	Read() (Document, error)
	Close() error
}

// Document is the serialized form of a ledger: its settings, the chain and
// the transactions waiting to be mined.
type Document struct {
	Difficulty          int     `json:"difficulty"`
	MiningReward        float64 `json:"mining_reward"`
	Chain               []Block `json:"chain"`
	PendingTransactions []Tx    `json:"pending_transactions"`
}

// documentJSON is the layout used to read a document and apply defaults to
// the missing settings.
type documentJSON struct {
	Difficulty          *int     `json:"difficulty"`
	MiningReward        *float64 `json:"mining_reward"`
	Chain               []Block  `json:"chain"`
	PendingTransactions []Tx     `json:"pending_transactions"`
}

// MarshalJSON writes the document with the mining reward in the same float
// form used for every other amount.
func (doc Document) MarshalJSON() ([]byte, error) {
	if !isFinite(doc.MiningReward) {
		return nil, fmt.Errorf("mining reward must be finite")
	}

	chain := doc.Chain
	if chain == nil {
		chain = []Block{}
	}

	pending := doc.PendingTransactions
	if pending == nil {
		pending = []Tx{}
	}

	out := struct {
		Difficulty          int             `json:"difficulty"`
		MiningReward        json.RawMessage `json:"mining_reward"`
		Chain               []Block         `json:"chain"`
		PendingTransactions []Tx            `json:"pending_transactions"`
	}{
		Difficulty:          doc.Difficulty,
		MiningReward:        json.RawMessage(jsonNumber(doc.MiningReward)),
		Chain:               chain,
		PendingTransactions: pending,
	}

	return json.Marshal(out)
}

// UnmarshalJSON reads a document, filling missing settings with defaults.
func (doc *Document) UnmarshalJSON(data []byte) error {
	var dj documentJSON
	if err := json.Unmarshal(data, &dj); err != nil {
		return err
	}

	*doc = Document{
		Difficulty:          DefaultDifficulty,
		MiningReward:        DefaultMiningReward,
		Chain:               dj.Chain,
		PendingTransactions: dj.PendingTransactions,
	}
	if dj.Difficulty != nil {
		doc.Difficulty = *dj.Difficulty
	}
	if dj.MiningReward != nil {
		doc.MiningReward = *dj.MiningReward
	}

	return nil
}

// DecodeDocument parses a serialized ledger document.
func DecodeDocument(data []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("decoding document: %w", err)
	}

	if doc.Difficulty < 0 {
		return Document{}, fmt.Errorf("decoding document: difficulty must not be negative, got %d", doc.Difficulty)
	}

	return doc, nil
}

// EncodeDocument serializes a ledger document in an indented form.
func EncodeDocument(doc Document) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding document: %w", err)
	}

	return data, nil
}
