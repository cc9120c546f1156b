package registry

import (
	"sync"
	"time"

	"zephyra.io/zephyra/event"
	"zephyra.io/zephyra/fault"
	"zephyra.io/zephyra/ident"
	"zephyra.io/zephyra/route"
)

const (
	maxSlippageBps = 1000
	maxRiskScore   = 100
)

// Service keeps the protection profiles and transaction records.
// All methods are safe for concurrent use.
type Service struct {
	mu       sync.Mutex
	profiles map[ident.ID]*Profile
	txs      map[ident.ID]*Transaction
	events   event.Sink

	// Now supplies timestamps and may be replaced in tests.
	Now func() int64
}

func NewService(events event.Sink) *Service {
	if events == nil {
		events = event.NopSink{}
	}
	return &Service{
		profiles: make(map[ident.ID]*Profile),
		txs:      make(map[ident.ID]*Transaction),
		events:   events,
		Now:      func() int64 { return time.Now().Unix() },
	}
}

// InitProtection creates the profile for owner with default settings.
// A second call for the same owner is rejected.
func (s *Service) InitProtection(owner ident.ID) error {
	if owner.IsZero() {
		return fault.New(fault.KindIdentity, "ZX-REG-001", "owner identity is zero")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[owner]; ok {
		return fault.New(fault.KindState, "ZX-REG-002", "protection already initialized for owner")
	}
	now := s.Now()
	s.profiles[owner] = &Profile{
		Owner:     owner,
		Settings:  DefaultSettings(),
		CreatedAt: now,
	}
	s.events.Emit(ProtectionInitialized{Owner: owner, Timestamp: now})
	return nil
}

// UpdateSettings replaces the owner's protection policy after validating
// its bounds.
func (s *Service) UpdateSettings(owner ident.ID, settings Settings) error {
	if settings.MaxSlippageBps > maxSlippageBps {
		return fault.New(fault.KindBound, "ZX-REG-003", "max slippage exceeds 1000 bps")
	}
	if settings.MaxRiskScore > maxRiskScore {
		return fault.New(fault.KindBound, "ZX-REG-004", "max risk score exceeds 100")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[owner]
	if !ok {
		return fault.New(fault.KindIdentity, "ZX-REG-005", "no protection profile for owner")
	}
	p.Settings = settings
	s.events.Emit(SettingsUpdated{Owner: owner, Settings: settings, Timestamp: s.Now()})
	return nil
}

// SubmitTransaction admits a new transaction record in the Pending state and
// returns its derived identifier. The identifier commits to the owner, the
// asset pair, the input amount and the submission time.
func (s *Service) SubmitTransaction(owner, inputAsset, outputAsset ident.ID, inputAmount, minOutputAmount uint64) (ident.ID, error) {
	if inputAmount == 0 {
		return ident.ID{}, fault.New(fault.KindBound, "ZX-REG-006", "input amount must be positive")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[owner]
	if !ok {
		return ident.ID{}, fault.New(fault.KindIdentity, "ZX-REG-005", "no protection profile for owner")
	}
	now := s.Now()
	id := ident.Derive(ident.DomainTransaction,
		owner.Bytes(), inputAsset.Bytes(), outputAsset.Bytes(),
		ident.U64(inputAmount), ident.I64(now))
	if _, dup := s.txs[id]; dup {
		return ident.ID{}, fault.New(fault.KindState, "ZX-REG-007", "transaction already submitted")
	}
	s.txs[id] = &Transaction{
		ID:              id,
		Owner:           owner,
		InputAsset:      inputAsset,
		OutputAsset:     outputAsset,
		InputAmount:     inputAmount,
		MinOutputAmount: minOutputAmount,
		Status:          StatusPending,
		CreatedAt:       now,
	}
	p.TotalTransactions++
	s.events.Emit(TransactionSubmitted{Transaction: id, Owner: owner, InputAmount: inputAmount, Timestamp: now})
	return id, nil
}

// lookup fetches a transaction and verifies the stored record answers to the
// requested identifier and owner. Callers hold the lock.
func (s *Service) lookup(txID, owner ident.ID) (*Transaction, error) {
	tx, ok := s.txs[txID]
	if !ok {
		return nil, fault.New(fault.KindIdentity, "ZX-REG-008", "unknown transaction")
	}
	if tx.ID != txID {
		return nil, fault.New(fault.KindIdentity, "ZX-REG-009", "transaction record identity mismatch")
	}
	if tx.Owner != owner {
		return nil, fault.New(fault.KindIdentity, "ZX-REG-010", "transaction owned by another identity")
	}
	return tx, nil
}

// BeginSimulation moves a Pending transaction to Simulating.
func (s *Service) BeginSimulation(txID, owner ident.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, err := s.lookup(txID, owner)
	if err != nil {
		return err
	}
	if tx.Status != StatusPending {
		return fault.New(fault.KindState, "ZX-REG-011", "transaction is not pending")
	}
	tx.Status = StatusSimulating
	s.events.Emit(SimulationStarted{Transaction: txID, Timestamp: s.Now()})
	return nil
}

// UpdateRiskAnalysis records the risk score and moves the transaction to
// Analyzing. It is accepted from Pending, Simulating or Analyzing; a
// transaction that has advanced further keeps its original assessment.
// A detection increments the owner's blocked counter and is announced.
func (s *Service) UpdateRiskAnalysis(txID, owner ident.ID, riskScore uint8, attackDetected bool) error {
	if riskScore > maxRiskScore {
		return fault.New(fault.KindBound, "ZX-REG-012", "risk score exceeds 100")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, err := s.lookup(txID, owner)
	if err != nil {
		return err
	}
	if tx.Status > StatusAnalyzing {
		return fault.New(fault.KindState, "ZX-REG-013", "transaction has passed analysis")
	}
	now := s.Now()
	tx.RiskScore = riskScore
	tx.Status = StatusAnalyzing
	s.events.Emit(RiskAnalyzed{Transaction: txID, RiskScore: riskScore, Detected: attackDetected, Timestamp: now})
	if attackDetected {
		p := s.profiles[owner]
		p.AttacksBlocked++
		s.events.Emit(AttackDetected{Transaction: txID, Owner: owner, RiskScore: riskScore, Timestamp: now})
	}
	return nil
}

// BeginExecution moves an analyzed transaction to Executing with the chosen
// venue. Transactions whose risk score exceeds the owner's threshold are
// refused.
func (s *Service) BeginExecution(txID, owner ident.ID, venue route.Venue) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, err := s.lookup(txID, owner)
	if err != nil {
		return err
	}
	if tx.Status != StatusAnalyzing {
		return fault.New(fault.KindState, "ZX-REG-014", "transaction has not been analyzed")
	}
	p := s.profiles[owner]
	if tx.RiskScore > p.Settings.MaxRiskScore {
		return fault.New(fault.KindBound, "ZX-REG-015", "risk score exceeds owner threshold")
	}
	tx.SelectedVenue = venue
	tx.Status = StatusExecuting
	s.events.Emit(ExecutionStarted{Transaction: txID, Venue: venue, Timestamp: s.Now()})
	return nil
}

// CompleteTransaction marks a transaction Completed, binds its proof
// fingerprint and credits realized savings to the owner's profile. Savings
// are the output surplus over the input amount, floored at zero. The
// declared minimum is enforced at route execution, not here, so a direct
// settlement below it can still close the record.
func (s *Service) CompleteTransaction(txID, owner ident.ID, outputAmount uint64, proofFingerprint ident.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, err := s.lookup(txID, owner)
	if err != nil {
		return err
	}
	if tx.Status.Terminal() {
		return fault.New(fault.KindState, "ZX-REG-016", "transaction already settled")
	}
	now := s.Now()
	tx.OutputAmount = outputAmount
	tx.ProofFingerprint = proofFingerprint
	tx.Status = StatusCompleted
	tx.CompletedAt = now

	var savings uint64
	if outputAmount > tx.InputAmount {
		savings = outputAmount - tx.InputAmount
	}
	p := s.profiles[owner]
	p.TotalSavings += savings
	s.events.Emit(TransactionCompleted{
		Transaction:  txID,
		Owner:        owner,
		OutputAmount: outputAmount,
		Savings:      savings,
		Timestamp:    now,
	})
	return nil
}

// FailTransaction marks a transaction Failed from any non-terminal state.
func (s *Service) FailTransaction(txID, owner ident.ID, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, err := s.lookup(txID, owner)
	if err != nil {
		return err
	}
	if tx.Status.Terminal() {
		return fault.New(fault.KindState, "ZX-REG-016", "transaction already settled")
	}
	now := s.Now()
	tx.Status = StatusFailed
	tx.FailureReason = reason
	tx.CompletedAt = now
	s.events.Emit(TransactionFailed{Transaction: txID, Owner: owner, Reason: reason, Timestamp: now})
	return nil
}

// TransactionStatus reports the current lifecycle state.
func (s *Service) TransactionStatus(txID ident.ID) (Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.txs[txID]
	if !ok {
		return 0, fault.New(fault.KindIdentity, "ZX-REG-008", "unknown transaction")
	}
	return tx.Status, nil
}

// Transaction returns a copy of the record.
func (s *Service) Transaction(txID ident.ID) (Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.txs[txID]
	if !ok {
		return Transaction{}, fault.New(fault.KindIdentity, "ZX-REG-008", "unknown transaction")
	}
	return *tx, nil
}

// Profile returns a copy of the owner's profile.
func (s *Service) Profile(owner ident.ID) (Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[owner]
	if !ok {
		return Profile{}, fault.New(fault.KindIdentity, "ZX-REG-005", "no protection profile for owner")
	}
	return *p, nil
}

// InputAmount reports the input amount of a Pending transaction for batching.
func (s *Service) InputAmount(txID ident.ID) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.txs[txID]
	if !ok {
		return 0, fault.New(fault.KindIdentity, "ZX-REG-008", "unknown transaction")
	}
	return tx.InputAmount, nil
}

// AssignBatch records batch membership on a Pending transaction. The owner's
// policy must allow batching and a transaction joins at most one batch.
func (s *Service) AssignBatch(txID, batchID ident.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.txs[txID]
	if !ok {
		return fault.New(fault.KindIdentity, "ZX-REG-008", "unknown transaction")
	}
	if tx.Status != StatusPending {
		return fault.New(fault.KindState, "ZX-REG-018", "only pending transactions may be batched")
	}
	if !tx.BatchID.IsZero() {
		return fault.New(fault.KindState, "ZX-REG-019", "transaction already assigned to a batch")
	}
	if p, ok := s.profiles[tx.Owner]; ok && !p.Settings.BatchEnabled {
		return fault.New(fault.KindCapability, "ZX-REG-020", "owner has disabled batching")
	}
	tx.BatchID = batchID
	return nil
}
