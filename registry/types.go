// Package registry admits protected transactions and owns the per-owner
// protection profiles and per-transaction lifecycle records.
package registry

import (
	"zephyra.io/zephyra/ident"
	"zephyra.io/zephyra/route"
)

// Status is the transaction lifecycle state.
//
// The ordering of the non-terminal values is significant: accepted calls may
// only move a transaction forward, never back. Failed is the only state
// reachable out of order, from any non-terminal state.
type Status uint8

const (
	StatusPending Status = iota
	StatusSimulating
	StatusAnalyzing
	StatusExecuting
	StatusCompleted
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "Pending"
	case StatusSimulating:
		return "Simulating"
	case StatusAnalyzing:
		return "Analyzing"
	case StatusExecuting:
		return "Executing"
	case StatusCompleted:
		return "Completed"
	case StatusFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Terminal reports whether no further lifecycle mutation is accepted.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Settings are the mutable protection policy for one owner.
type Settings struct {
	MaxSlippageBps uint16 // basis points, at most 1000 (10%)
	MaxRiskScore   uint8  // 0-100
	AutoExecute    bool
	BatchEnabled   bool
}

// DefaultSettings are applied when a profile is initialized.
func DefaultSettings() Settings {
	return Settings{
		MaxSlippageBps: 100, // 1%
		MaxRiskScore:   50,  // medium risk threshold
		AutoExecute:    true,
		BatchEnabled:   true,
	}
}

// Profile aggregates one owner's protection history and policy.
// Counters only ever grow.
type Profile struct {
	Owner             ident.ID
	TotalTransactions uint64
	TotalSavings      uint64
	AttacksBlocked    uint32
	Settings          Settings
	CreatedAt         int64
}

// Transaction is one submitted swap intent. Records are never deleted; they
// remain as the audit trail after completion or failure.
type Transaction struct {
	ID               ident.ID
	Owner            ident.ID
	InputAsset       ident.ID
	OutputAsset      ident.ID
	InputAmount      uint64
	MinOutputAmount  uint64
	OutputAmount     uint64 // zero until completed
	RiskScore        uint8  // zero until analyzed
	SelectedVenue    route.Venue
	Status           Status
	ProofFingerprint ident.ID // zero until completion
	BatchID          ident.ID // zero unless batched
	CreatedAt        int64
	CompletedAt      int64 // zero until terminal
	FailureReason    string
}
