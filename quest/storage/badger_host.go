package storage

import (
	"errors"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/wbrown/janus-quest/quest"
)

// keyPrefix namespaces world values inside the database
const keyPrefix = "v/"

// BadgerHost keeps world data in BadgerDB, one key per path
type BadgerHost struct {
	db    *badger.DB
	funcs *Functions

	mu  sync.Mutex
	err error
}

// NewBadgerHost opens a Badger-backed host at path. An empty path keeps the
// database in memory. A nil registry uses DefaultFunctions.
func NewBadgerHost(path string, funcs *Functions) (*BadgerHost, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil // Disable BadgerDB logs
	if path == "" {
		opts = opts.WithInMemory(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger: %w", err)
	}

	if funcs == nil {
		funcs = DefaultFunctions
	}
	return &BadgerHost{db: db, funcs: funcs}, nil
}

func valueKey(path string) []byte {
	return []byte(keyPrefix + path)
}

// Get returns the value stored under path. Read failures are recorded and
// reported as a missing value.
func (h *BadgerHost) Get(path string) (quest.Value, bool) {
	var result quest.Value

	err := h.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(valueKey(path))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			v, err := quest.DecodeValue(val)
			if err != nil {
				return err
			}
			result = v
			return nil
		})
	})

	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false
	}
	if err != nil {
		h.record(fmt.Errorf("failed to read %q: %w", path, err))
		return nil, false
	}
	return result, true
}

// Set stores v under path. Write failures are recorded and available
// through Err.
func (h *BadgerHost) Set(path string, v quest.Value) {
	err := h.db.Update(func(txn *badger.Txn) error {
		return txn.Set(valueKey(path), quest.EncodeValue(v))
	})
	if err != nil {
		h.record(fmt.Errorf("failed to write %q: %w", path, err))
	}
}

// Call dispatches to the function registry
func (h *BadgerHost) Call(receiver quest.Value, fn string, args []quest.Value) (quest.Value, bool) {
	return h.funcs.Call(receiver, fn, args)
}

// Load stores every entry of world in a single transaction
func (h *BadgerHost) Load(world map[string]quest.Value) error {
	return h.db.Update(func(txn *badger.Txn) error {
		for path, v := range world {
			if err := txn.Set(valueKey(path), quest.EncodeValue(v)); err != nil {
				return fmt.Errorf("failed to write %q: %w", path, err)
			}
		}
		return nil
	})
}

// Paths returns the stored paths in key order
func (h *BadgerHost) Paths() ([]string, error) {
	var paths []string

	err := h.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false // keys only
		opts.Prefix = []byte(keyPrefix)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			key := it.Item().Key()
			paths = append(paths, string(key[len(keyPrefix):]))
		}
		return nil
	})

	return paths, err
}

// Snapshot returns every stored value
func (h *BadgerHost) Snapshot() (map[string]quest.Value, error) {
	out := make(map[string]quest.Value)

	err := h.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(keyPrefix)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			path := string(item.Key()[len(keyPrefix):])
			err := item.Value(func(val []byte) error {
				v, err := quest.DecodeValue(val)
				if err != nil {
					return fmt.Errorf("failed to decode %q: %w", path, err)
				}
				out[path] = v
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})

	return out, err
}

// Err returns the most recent read or write failure
func (h *BadgerHost) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

func (h *BadgerHost) record(err error) {
	h.mu.Lock()
	h.err = err
	h.mu.Unlock()
}

// Close closes the database
func (h *BadgerHost) Close() error {
	return h.db.Close()
}
