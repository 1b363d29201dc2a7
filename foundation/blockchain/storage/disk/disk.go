// Package disk implements the ability to read and write the ledger document
// to a single JSON file on disk.
package disk

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/doniyorcoin/ledger/foundation/blockchain/database"
)

// Disk represents the storage implementation for reading and storing the
// ledger document in a file. This implements the database.Storage interface.
type Disk struct {
	mu   sync.Mutex
	path string
}

// New constructs a Disk value for use. The parent directory of the file is
// created when it does not exist.
func New(path string) (*Disk, error) {
	if path == "" {
		return nil, errors.New("state file path is required")
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}

	return &Disk{path: path}, nil
}

// Path returns the location of the state file.
func (d *Disk) Path() string {
	return d.path
}

// Close in this implementation has nothing to do since the file is
// rewritten on every change and then immediately closed.
func (d *Disk) Close() error {
	return nil
}

// Write replaces the state file with the specified document. The document
// is written to a temporary file first and renamed into place so a crash
// never leaves a partial document behind.
func (d *Disk) Write(doc database.Document) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	// Marshal the document in a human readable format.
	data, err := database.EncodeDocument(doc)
	if err != nil {
		return err
	}

	f, err := os.CreateTemp(filepath.Dir(d.path), filepath.Base(d.path)+".*.tmp")
	if err != nil {
		return err
	}
	tmp := f.Name()

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}

	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}

	if err := os.Rename(tmp, d.path); err != nil {
		os.Remove(tmp)
		return err
	}

	return nil
}

// Read decodes the document held in the state file. A missing file is
// reported as database.ErrNotFound.
func (d *Disk) Read() (database.Document, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	data, err := os.ReadFile(d.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return database.Document{}, database.ErrNotFound
		}
		return database.Document{}, err
	}

	doc, err := database.DecodeDocument(data)
	if err != nil {
		return database.Document{}, fmt.Errorf("%s: %w", d.path, err)
	}

	return doc, nil
}

// Reset removes the state file.
func (d *Disk) Reset() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := os.Remove(d.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	return nil
}
