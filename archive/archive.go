// Package archive persists canonical audit artifacts (rendered proof
// documents, rollup commit records) in content-addressed storage.
//
// Artifacts are immutable and keyed strictly by CID, so any party holding an
// artifact's bytes can recompute its address and any party holding the CID
// can detect tampering on read.
package archive

import (
	"errors"

	"github.com/ipfs/go-cid"
)

// Store is a minimal content-addressable archive.
//
// Contract:
// - Put MUST be idempotent.
// - Stored artifacts MUST be immutable.
// - CIDs MUST be derived from the bytes written (callers supply canonical bytes).
// - Get MUST return ErrNotFound when the CID is absent.
type Store interface {
	Put(bytes []byte) (cid.Cid, error)
	Get(id cid.Cid) ([]byte, error)
	Has(id cid.Cid) bool
}

var (
	ErrNotFound    = errors.New("archive: not found")
	ErrInvalidCID  = errors.New("archive: invalid cid")
	ErrCIDMismatch = errors.New("archive: cid mismatch")
	ErrImmutable   = errors.New("archive: immutable artifact mismatch")
)

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
