// Package route scores candidate swap venues, executes the selected one
// through an injected venue capability, and persists execution receipts with
// embedded integrity proofs.
package route

import (
	"zephyra.io/zephyra/ident"
	"zephyra.io/zephyra/sign"
)

// Venue tags an external swap-liquidity source.
type Venue uint8

const (
	VenueJupiter Venue = iota
	VenueRaydium
	VenueOrca
)

func (v Venue) String() string {
	switch v {
	case VenueJupiter:
		return "Jupiter"
	case VenueRaydium:
		return "Raydium"
	case VenueOrca:
		return "Orca"
	default:
		return "Unknown"
	}
}

// MaxOptions bounds the candidate list considered by one selection.
const MaxOptions = 10

// Option is one candidate venue under consideration.
type Option struct {
	Venue           Venue
	EstimatedOutput uint64
	PriceImpactBps  uint16
	RiskScore       uint8 // 0-100
	LiquidityDepth  uint64
}

// Selection is the outcome of scoring a candidate list.
type Selection struct {
	Venue           Venue
	EstimatedOutput uint64
	Reasoning       string
}

// ExecutionProof binds the observed balance movement of one execution.
type ExecutionProof struct {
	PreBalance  uint64
	PostBalance uint64
	Signature   sign.Signature
	Timestamp   int64
}

// Receipt is the persisted record of one executed route, one per
// (transaction, venue) pair.
type Receipt struct {
	TransactionID  ident.ID
	Venue          Venue
	InputAmount    uint64
	OutputAmount   uint64
	PriceImpactBps uint16
	ExecutedAt     int64
	Proof          ExecutionProof
}
