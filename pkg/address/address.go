// Package address derives pay-to-pubkey-hash addresses from serialized
// public keys.
package address

import (
	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/minio/sha256-simd"
	"golang.org/x/crypto/ripemd160" //nolint:staticcheck
)

const (
	// MainNetVersion is the P2PKH version byte of the main network.
	MainNetVersion byte = 0x00

	// TestNetVersion is the P2PKH version byte of the test networks.
	TestNetVersion byte = 0x6f

	hash160Len  = ripemd160.Size
	checksumLen = 4
	payloadLen  = 1 + hash160Len
)

// Hash160 returns RIPEMD-160(SHA-256(b)).
func Hash160(b []byte) []byte {
	h := sha256.Sum256(b)
	r := ripemd160.New()
	r.Write(h[:])
	return r.Sum(nil)
}

// FromPubKey returns the main network address of a serialized public key.
// Compressed and uncompressed encodings of the same point give different
// addresses.
func FromPubKey(key []byte) string {
	return FromPubKeyVersion(key, MainNetVersion)
}

// FromPubKeyVersion returns the address of key under the given version
// byte. Any input, including an empty one, yields an address.
func FromPubKeyVersion(key []byte, version byte) string {
	buf := make([]byte, 0, payloadLen+checksumLen)
	buf = append(buf, version)
	buf = append(buf, Hash160(key)...)

	first := sha256.Sum256(buf)
	second := sha256.Sum256(first[:])
	buf = append(buf, second[:checksumLen]...)

	return base58.Encode(buf)
}
