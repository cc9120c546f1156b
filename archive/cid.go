package archive

import (
	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
)

// CIDFor returns a CIDv1 (raw + sha2-256) derived from artifact bytes.
func CIDFor(data []byte) (cid.Cid, error) {
	sum, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(cid.Raw, sum), nil
}

// CIDString returns the string form of CIDFor, or "" on error.
//
// multihash.Sum only errors for invalid inputs; with SHA2_256 and -1 length
// the error path should be unreachable.
func CIDString(data []byte) string {
	id, err := CIDFor(data)
	if err != nil {
		return ""
	}
	return id.String()
}
