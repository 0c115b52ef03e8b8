package prefs

import (
	"errors"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v4"

	"github.com/mesh-intelligence/datatable/pkg/types"
)

// keyPrefix namespaces preference keys inside the badger keyspace.
const keyPrefix = "pref/"

// Badger stores preferences in an embedded badger database.
type Badger struct {
	mu sync.RWMutex
	db *badger.DB
}

// OpenBadger opens or creates a badger database in dir. An empty dir opens
// an in-memory database.
func OpenBadger(dir string) (*Badger, error) {
	var opts badger.Options
	if dir == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(dir)
	}
	opts = opts.WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open prefs badger: %w", err)
	}
	return &Badger{db: db}, nil
}

func (b *Badger) Get(key string) (string, bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.db == nil {
		return "", false, types.ErrProviderClosed
	}
	var (
		v     string
		found bool
	)
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyPrefix + key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			v = string(val)
			found = true
			return nil
		})
	})
	if err != nil {
		return "", false, fmt.Errorf("get pref %s: %w", key, err)
	}
	return v, found, nil
}

func (b *Badger) Set(key, value string) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.db == nil {
		return types.ErrProviderClosed
	}
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyPrefix+key), []byte(value))
	})
	if err != nil {
		return fmt.Errorf("set pref %s: %w", key, err)
	}
	return nil
}

func (b *Badger) Delete(key string) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.db == nil {
		return types.ErrProviderClosed
	}
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(keyPrefix + key))
	})
	if err != nil {
		return fmt.Errorf("delete pref %s: %w", key, err)
	}
	return nil
}

// Close closes the database. It is idempotent.
func (b *Badger) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.db == nil {
		return nil
	}
	err := b.db.Close()
	b.db = nil
	return err
}
