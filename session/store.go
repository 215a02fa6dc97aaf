// ABOUTME: Durable key-value storage for the session token and user identity
// ABOUTME: Backed by BadgerDB on disk, or in memory for tests
package session

import (
	"errors"
	"fmt"
	"os"

	"github.com/dgraph-io/badger/v3"
)

// ErrNotFound is returned by Store.Get for a missing key.
var ErrNotFound = errors.New("key not found")

// Store is the durable storage the session persists into.
type Store interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Delete(key string) error
	Close() error
}

// BadgerStore implements Store on a BadgerDB instance.
type BadgerStore struct {
	db *badger.DB
}

// OpenBadger opens (creating if needed) a store in dir.
func OpenBadger(dir string) (*BadgerStore, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create session dir: %w", err)
	}
	db, err := badger.Open(badger.DefaultOptions(dir).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

// OpenInMemory opens a store that lives only as long as the process.
func OpenInMemory() (*BadgerStore, error) {
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory session store: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

func (s *BadgerStore) Get(key string) ([]byte, error) {
	var result []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		result, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	return result, err
}

func (s *BadgerStore) Set(key string, value []byte) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
}

// Delete removes key. Deleting a missing key is not an error.
func (s *BadgerStore) Delete(key string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}
