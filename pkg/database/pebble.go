package database

import (
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"
	"github.com/syndtr/goleveldb/leveldb/util"
)

type pebbleStore struct {
	db *pebble.DB
}

func openPebbleDB(path string) (Store, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open pebble database at %s: %w", path, err)
	}
	return &pebbleStore{db: db}, nil
}

func (s *pebbleStore) Get(key []byte) ([]byte, error) {
	data, closer, err := s.db.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	return append([]byte(nil), data...), nil
}

func (s *pebbleStore) Put(key, value []byte) error {
	return s.db.Set(key, value, pebble.Sync)
}

func (s *pebbleStore) Delete(key []byte) error {
	return s.db.Delete(key, pebble.Sync)
}

func (s *pebbleStore) Iterate(prefix []byte, fn func(key, value []byte) error) error {
	bounds := util.BytesPrefix(prefix)
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: bounds.Start,
		UpperBound: bounds.Limit,
	})
	if err != nil {
		return fmt.Errorf("failed to create iterator: %w", err)
	}

	for iter.First(); iter.Valid(); iter.Next() {
		key := append([]byte(nil), iter.Key()...)
		value := append([]byte(nil), iter.Value()...)
		if err := fn(key, value); err != nil {
			iter.Close()
			return err
		}
	}
	return iter.Close()
}

func (s *pebbleStore) Close() error {
	return s.db.Close()
}
