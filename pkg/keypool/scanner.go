// Package keypool extracts the public keys of the key pool stored in a
// legacy Berkeley DB wallet file.
//
// The records are found by scanning the raw file for the "key" and "ckey"
// tags that prefix them, so no database library is needed to read the
// file.
package keypool

import (
	"fmt"
	"os"
)

// MaxKeyLen is the exclusive upper bound on the length of a serialized
// public key: one prefix byte plus at most 64 coordinate bytes.
const MaxKeyLen = 65

// RawKey is a serialized public key copied out of a wallet file.
type RawKey []byte

// Scan walks data once and returns every public key found after a "key" or
// "ckey" tag, in file order. Malformed or truncated records are skipped.
func Scan(data []byte) []RawKey {
	var (
		keys  []RawKey
		state = StateNone
	)

	for i := 0; i < len(data); i++ {
		var prev byte
		if i > 0 {
			prev = data[i-1]
		}

		var action Action
		state, action = Next(state, prev, i > 0, data[i])
		if action != ActionReadLength {
			continue
		}

		i++
		if i >= len(data) {
			break
		}
		length := int(data[i])
		if length >= MaxKeyLen {
			continue
		}

		start, end := i+1, i+1+length
		if end > len(data) {
			break
		}
		key := make(RawKey, length)
		copy(key, data[start:end])
		keys = append(keys, key)

		// Resume on the byte after the key.
		i = end - 1
	}

	return keys
}

// ScanFile reads the wallet file at path and scans it.
func ScanFile(path string) ([]RawKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read wallet file %s: %w", path, err)
	}
	return Scan(data), nil
}
