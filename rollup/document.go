package rollup

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// renderCommit produces the canonical archived form of a commit proof.
// Stable layout, same record always renders to the same bytes.
func renderCommit(s *Session, p CommitProof) []byte {
	var b strings.Builder
	b.WriteString("ZEPHYRA-COMMIT v1\n")
	fmt.Fprintf(&b, "session: %s\n", s.ID)
	fmt.Fprintf(&b, "transaction: %s\n", s.Transaction)
	fmt.Fprintf(&b, "proof: %s\n", p.Hash)
	fmt.Fprintf(&b, "state_hash: %s\n", hex.EncodeToString(p.StateHash[:]))
	fmt.Fprintf(&b, "instructions: %d\n", p.Instructions)
	fmt.Fprintf(&b, "total_cost: %d\n", s.TotalCost)
	fmt.Fprintf(&b, "committed_at: %d\n", p.Timestamp)
	return []byte(b.String())
}
