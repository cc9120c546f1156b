// Package ident derives the fixed-width opaque identifiers that address
// every record in the protection suite.
//
// Identifiers are deterministic: the same parts under the same domain always
// yield the same ID, and any party holding the source tuple can recompute the
// address without a directory lookup. Distinct domains never collide, so a
// transaction ID can never be replayed as a batch or proof ID.
package ident

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"github.com/mr-tron/base58"
)

// Size is the width of every identifier in bytes.
const Size = 32

// ID is a fixed-width opaque identifier.
type ID [Size]byte

// Domain is the separation tag mixed into derivation, one per entity kind.
type Domain string

const (
	DomainTransaction Domain = "transaction"
	DomainBatch       Domain = "batch"
	DomainBatchSeal   Domain = "batch-seal"
	DomainProof       Domain = "proof"
	DomainSession     Domain = "session"
	DomainCommit      Domain = "commit"
	DomainExecution   Domain = "execution"
)

const derivePrefix = "zephyra-ident-v1"

// Derive mixes the ordered parts into a 32-byte identifier under the given
// domain. Parts are length-prefixed before hashing so no two distinct part
// sequences share an encoding; empty or short parts are handled like any
// other value and never panic.
func Derive(domain Domain, parts ...[]byte) ID {
	h := sha256.New()
	_, _ = h.Write([]byte(derivePrefix))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(domain))
	_, _ = h.Write([]byte{0})

	var n [8]byte
	binary.LittleEndian.PutUint64(n[:], uint64(len(parts)))
	_, _ = h.Write(n[:])
	for _, p := range parts {
		binary.LittleEndian.PutUint64(n[:], uint64(len(p)))
		_, _ = h.Write(n[:])
		_, _ = h.Write(p)
	}

	var id ID
	copy(id[:], h.Sum(nil))
	return id
}

// U64 encodes an unsigned 64-bit value as a derivation part.
func U64(v uint64) []byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	return b[:]
}

// I64 encodes a signed 64-bit value (typically a timestamp) as a derivation part.
func I64(v int64) []byte {
	return U64(uint64(v))
}

// FromBytes copies b into an ID. Short input is zero-padded; long input fails.
func FromBytes(b []byte) (ID, error) {
	var id ID
	if len(b) > Size {
		return ID{}, fmt.Errorf("ident: %d bytes exceeds identifier width %d", len(b), Size)
	}
	copy(id[:], b)
	return id, nil
}

// Decode parses the base58 text form produced by String.
func Decode(s string) (ID, error) {
	b, err := base58.Decode(s)
	if err != nil {
		return ID{}, fmt.Errorf("ident: invalid identifier text: %w", err)
	}
	if len(b) != Size {
		return ID{}, fmt.Errorf("ident: decoded identifier is %d bytes, want %d", len(b), Size)
	}
	var id ID
	copy(id[:], b)
	return id, nil
}

// String renders the identifier as base58 text.
func (id ID) String() string {
	return base58.Encode(id[:])
}

// IsZero reports whether the identifier is all zero bytes.
func (id ID) IsZero() bool {
	return id == ID{}
}

// Bytes returns a copy of the identifier bytes.
func (id ID) Bytes() []byte {
	out := make([]byte, Size)
	copy(out, id[:])
	return out
}
