// Package database provides the key/value stores backing the balance cache.
package database

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotFound is returned by Get when the key is absent
var ErrNotFound = errors.New("not found")

// DatabaseType represents the database backend type
type DatabaseType string

const (
	Auto     DatabaseType = "auto"
	LevelDB  DatabaseType = "leveldb"
	PebbleDB DatabaseType = "pebbledb"
	BadgerDB DatabaseType = "badgerdb"
	MemoryDB DatabaseType = "memory"
)

// Store is a minimal key/value store
type Store interface {
	Get(key []byte) ([]byte, error)
	Put(key, value []byte) error
	Delete(key []byte) error

	// Iterate calls fn for every key starting with prefix, in key order.
	// Keys and values passed to fn are copies.
	Iterate(prefix []byte, fn func(key, value []byte) error) error

	Close() error
}

// ParseType maps a user supplied backend name to a DatabaseType
func ParseType(name string) (DatabaseType, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "auto":
		return Auto, nil
	case "leveldb", "level", "goleveldb":
		return LevelDB, nil
	case "pebbledb", "pebble":
		return PebbleDB, nil
	case "badgerdb", "badger":
		return BadgerDB, nil
	case "memory", "mem", "memdb":
		return MemoryDB, nil
	default:
		return "", fmt.Errorf("unknown database type %q", name)
	}
}

// Open opens the store of the given type at path. Auto detects the type
// of an existing directory.
func Open(dbType DatabaseType, path string) (Store, error) {
	if dbType == Auto {
		dbType = DetectType(path)
	}

	switch dbType {
	case LevelDB:
		return openLevelDB(path)
	case PebbleDB:
		return openPebbleDB(path)
	case BadgerDB:
		return openBadgerDB(path)
	case MemoryDB:
		return OpenMemory()
	default:
		return nil, fmt.Errorf("unsupported database type %q", dbType)
	}
}

// DetectType tries to determine the database type from the files in path
func DetectType(path string) DatabaseType {
	// Check if directory exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		// Default to LevelDB for new databases
		return LevelDB
	}

	// BadgerDB keeps values in a value log next to its key registry
	if matches, _ := filepath.Glob(filepath.Join(path, "*.vlog")); len(matches) > 0 {
		return BadgerDB
	}
	if _, err := os.Stat(filepath.Join(path, "KEYREGISTRY")); err == nil {
		return BadgerDB
	}

	// PebbleDB writes an OPTIONS file, LevelDB does not
	if matches, _ := filepath.Glob(filepath.Join(path, "OPTIONS-*")); len(matches) > 0 {
		return PebbleDB
	}

	// Check for LevelDB markers (LDB files)
	if matches, _ := filepath.Glob(filepath.Join(path, "*.ldb")); len(matches) > 0 {
		return LevelDB
	}

	// Check for PebbleDB markers (SST files)
	if matches, _ := filepath.Glob(filepath.Join(path, "*.sst")); len(matches) > 0 {
		return PebbleDB
	}

	return LevelDB
}

// Copy writes every entry of src under prefix into dst and returns the
// number of entries copied
func Copy(dst, src Store, prefix []byte) (int, error) {
	count := 0
	err := src.Iterate(prefix, func(key, value []byte) error {
		if err := dst.Put(key, value); err != nil {
			return fmt.Errorf("failed to copy key %x: %w", key, err)
		}
		count++
		return nil
	})
	return count, err
}
