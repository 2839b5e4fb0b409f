package kvstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"

	"royaltyhub/native/royalty"
)

var errReadOnly = errors.New("kvstore: write attempted in read-only unit")

type reader interface {
	Get(key []byte, ro *opt.ReadOptions) ([]byte, error)
	Has(key []byte, ro *opt.ReadOptions) (bool, error)
	NewIterator(slice *util.Range, ro *opt.ReadOptions) iterator.Iterator
}

type writer interface {
	Put(key, value []byte, wo *opt.WriteOptions) error
	Delete(key []byte, wo *opt.WriteOptions) error
}

// Store implements royalty.Store on LevelDB. Updates run inside an exclusive
// LevelDB transaction; views read from a snapshot.
type Store struct {
	db *leveldb.DB
}

// Open creates or opens a LevelDB database at path.
func Open(path string) (*Store, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("kvstore: open %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// OpenMemory opens a LevelDB database backed by memory storage.
func OpenMemory() (*Store, error) {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, fmt.Errorf("kvstore: open memory: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// Update implements royalty.Store.
func (s *Store) Update(ctx context.Context, fn func(royalty.State) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tr, err := s.db.OpenTransaction()
	if err != nil {
		return fmt.Errorf("kvstore: open transaction: %w", err)
	}
	if err := fn(&state{r: tr, w: tr}); err != nil {
		tr.Discard()
		return err
	}
	if err := ctx.Err(); err != nil {
		tr.Discard()
		return err
	}
	if err := tr.Commit(); err != nil {
		return fmt.Errorf("kvstore: commit: %w", err)
	}
	return nil
}

// View implements royalty.Store.
func (s *Store) View(ctx context.Context, fn func(royalty.State) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	snap, err := s.db.GetSnapshot()
	if err != nil {
		return fmt.Errorf("kvstore: snapshot: %w", err)
	}
	defer snap.Release()
	return fn(&state{r: snap})
}
