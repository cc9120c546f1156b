package proof

import (
	"fmt"
	"strings"
)

// renderDocument produces the canonical archived form of a proof. The layout
// is line oriented and stable: the same record always renders to the same
// bytes, so the archived content address is reproducible.
func renderDocument(p *ProofOfRoute) []byte {
	var b strings.Builder
	b.WriteString("ZEPHYRA-PROOF v1\n")
	fmt.Fprintf(&b, "transaction: %s\n", p.Transaction)
	fmt.Fprintf(&b, "fingerprint: %s\n", p.Fingerprint)
	fmt.Fprintf(&b, "created_at: %d\n", p.CreatedAt)
	b.WriteString("\nBINDING\n")
	fmt.Fprintf(&b, "selected: %s\n", p.Selected)
	b.WriteString("\nROUTES\n")
	for i, r := range p.Routes {
		fmt.Fprintf(&b, "%d: venue=%s output=%d impact_bps=%d risk=%d liquidity=%d\n",
			i, r.Venue, r.EstimatedOutput, r.PriceImpactBps, r.RiskScore, r.LiquidityDepth)
	}
	b.WriteString("\nREASONING\n")
	b.WriteString(p.Reasoning)
	b.WriteString("\n")
	return []byte(b.String())
}
