package registry

import (
	"zephyra.io/zephyra/ident"
	"zephyra.io/zephyra/route"
)

// ProtectionInitialized is emitted once when an owner's profile is created.
type ProtectionInitialized struct {
	Owner     ident.ID
	Timestamp int64
}

func (ProtectionInitialized) EventName() string { return "protection_initialized" }

// TransactionSubmitted is emitted when a transaction record is admitted.
type TransactionSubmitted struct {
	Transaction ident.ID
	Owner       ident.ID
	InputAmount uint64
	Timestamp   int64
}

func (TransactionSubmitted) EventName() string { return "transaction_submitted" }

// SimulationStarted is emitted when a transaction enters simulation.
type SimulationStarted struct {
	Transaction ident.ID
	Timestamp   int64
}

func (SimulationStarted) EventName() string { return "simulation_started" }

// RiskAnalyzed is emitted when a risk score is recorded.
type RiskAnalyzed struct {
	Transaction ident.ID
	RiskScore   uint8
	Detected    bool
	Timestamp   int64
}

func (RiskAnalyzed) EventName() string { return "risk_analyzed" }

// ExecutionStarted is emitted when a transaction moves to Executing.
type ExecutionStarted struct {
	Transaction ident.ID
	Venue       route.Venue
	Timestamp   int64
}

func (ExecutionStarted) EventName() string { return "execution_started" }

// AttackDetected is emitted when risk analysis flags a transaction.
type AttackDetected struct {
	Transaction ident.ID
	Owner       ident.ID
	RiskScore   uint8
	Timestamp   int64
}

func (AttackDetected) EventName() string { return "attack_detected" }

// TransactionCompleted is emitted on successful completion, with the
// realized savings credited to the owner's profile.
type TransactionCompleted struct {
	Transaction  ident.ID
	Owner        ident.ID
	OutputAmount uint64
	Savings      uint64
	Timestamp    int64
}

func (TransactionCompleted) EventName() string { return "transaction_completed" }

// TransactionFailed is emitted when a transaction is marked failed.
type TransactionFailed struct {
	Transaction ident.ID
	Owner       ident.ID
	Reason      string
	Timestamp   int64
}

func (TransactionFailed) EventName() string { return "transaction_failed" }

// SettingsUpdated is emitted after an accepted settings change.
type SettingsUpdated struct {
	Owner     ident.ID
	Settings  Settings
	Timestamp int64
}

func (SettingsUpdated) EventName() string { return "settings_updated" }
