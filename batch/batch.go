// Package batch groups pending transactions for combined execution.
//
// A batch holds at most MaxSize transactions and must reach MinAgeSeconds
// before a forced execution is accepted. Execution settles the whole batch
// at once and seals it with a derived hash over the batch identity and the
// execution time.
package batch

import (
	"sync"
	"time"

	"zephyra.io/zephyra/event"
	"zephyra.io/zephyra/fault"
	"zephyra.io/zephyra/ident"
)

const (
	// MaxSize is the hard cap on transactions per batch.
	MaxSize = 10
	// MinAgeSeconds is the minimum batch age before forced execution.
	MinAgeSeconds = 30
	// executionTimeMs is the recorded per-batch execution duration.
	executionTimeMs = 100
)

// Status is the batch lifecycle state.
type Status uint8

const (
	StatusPending Status = iota
	StatusProcessing
	StatusCompleted
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "Pending"
	case StatusProcessing:
		return "Processing"
	case StatusCompleted:
		return "Completed"
	case StatusFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// TransactionSource is the registry capability the coordinator needs: it
// reads a transaction's input amount and records batch membership.
type TransactionSource interface {
	InputAmount(txID ident.ID) (uint64, error)
	AssignBatch(txID, batchID ident.ID) error
}

// Batch is one transaction group.
type Batch struct {
	ID              ident.ID
	Coordinator     ident.ID
	Transactions    []ident.ID
	TotalValue      uint64
	TotalSavings    uint64 // set at execution
	Successful      uint32 // member outcomes, recorded at execution
	Failed          uint32
	Status          Status
	SealHash        ident.ID // set at execution
	ExecutionTimeMs uint32   // set at execution
	CreatedAt       int64
	ExecutedAt      int64
}

// BatchCreated is emitted when a batch is opened.
type BatchCreated struct {
	Batch       ident.ID
	Coordinator ident.ID
	Timestamp   int64
}

func (BatchCreated) EventName() string { return "batch_created" }

// TransactionBatched is emitted for each transaction admitted to a batch.
type TransactionBatched struct {
	Batch       ident.ID
	Transaction ident.ID
	Position    int
	Timestamp   int64
}

func (TransactionBatched) EventName() string { return "transaction_batched" }

// BatchExecuted is emitted once when a batch settles.
type BatchExecuted struct {
	Batch        ident.ID
	Transactions int
	TotalValue   uint64
	TotalSavings uint64
	Forced       bool
	Timestamp    int64
}

func (BatchExecuted) EventName() string { return "batch_executed" }

// BatchCancelled is emitted when a pending batch is withdrawn.
type BatchCancelled struct {
	Batch     ident.ID
	Timestamp int64
}

func (BatchCancelled) EventName() string { return "batch_cancelled" }

// Coordinator manages batch lifecycles. All methods are safe for
// concurrent use.
type Coordinator struct {
	mu      sync.Mutex
	batches map[ident.ID]*Batch
	seq     uint64
	source  TransactionSource
	events  event.Sink

	// Now supplies timestamps and may be replaced in tests.
	Now func() int64
}

func NewCoordinator(source TransactionSource, events event.Sink) *Coordinator {
	if events == nil {
		events = event.NopSink{}
	}
	return &Coordinator{
		batches: make(map[ident.ID]*Batch),
		source:  source,
		events:  events,
		Now:     func() int64 { return time.Now().Unix() },
	}
}

// CreateBatch opens an empty batch for the coordinator identity. The batch
// identifier commits to the coordinator, a local sequence number and the
// creation time, so batches opened in the same second stay distinct.
func (c *Coordinator) CreateBatch(coordinator ident.ID) (ident.ID, error) {
	if coordinator.IsZero() {
		return ident.ID{}, fault.New(fault.KindIdentity, "ZX-BATCH-001", "coordinator identity is zero")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	now := c.Now()
	id := ident.Derive(ident.DomainBatch, coordinator.Bytes(), ident.U64(c.seq), ident.I64(now))
	c.batches[id] = &Batch{
		ID:          id,
		Coordinator: coordinator,
		Status:      StatusPending,
		CreatedAt:   now,
	}
	c.events.Emit(BatchCreated{Batch: id, Coordinator: coordinator, Timestamp: now})
	return id, nil
}

func (c *Coordinator) lookup(batchID ident.ID) (*Batch, error) {
	b, ok := c.batches[batchID]
	if !ok {
		return nil, fault.New(fault.KindIdentity, "ZX-BATCH-002", "unknown batch")
	}
	if b.ID != batchID {
		return nil, fault.New(fault.KindIdentity, "ZX-BATCH-003", "batch record identity mismatch")
	}
	return b, nil
}

// AddToBatch admits a transaction to a pending batch. The transaction's
// input amount is folded into the batch total and its record is marked with
// the batch membership.
func (c *Coordinator) AddToBatch(batchID, txID ident.ID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, err := c.lookup(batchID)
	if err != nil {
		return err
	}
	if b.Status != StatusPending {
		return fault.New(fault.KindState, "ZX-BATCH-004", "batch is no longer accepting transactions")
	}
	if len(b.Transactions) >= MaxSize {
		return fault.New(fault.KindCapacity, "ZX-BATCH-005", "batch is full")
	}
	amount, err := c.source.InputAmount(txID)
	if err != nil {
		return err
	}
	if err := c.source.AssignBatch(txID, batchID); err != nil {
		return err
	}
	b.Transactions = append(b.Transactions, txID)
	b.TotalValue += amount
	c.events.Emit(TransactionBatched{
		Batch:       batchID,
		Transaction: txID,
		Position:    len(b.Transactions) - 1,
		Timestamp:   c.Now(),
	})
	return nil
}

// ExecuteBatch settles a pending batch regardless of its age.
func (c *Coordinator) ExecuteBatch(batchID ident.ID) error {
	return c.execute(batchID, false)
}

// ForceExecuteBatch settles a pending batch that has waited at least
// MinAgeSeconds, typically because it never filled.
func (c *Coordinator) ForceExecuteBatch(batchID ident.ID) error {
	return c.execute(batchID, true)
}

func (c *Coordinator) execute(batchID ident.ID, forced bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, err := c.lookup(batchID)
	if err != nil {
		return err
	}
	if b.Status != StatusPending {
		return fault.New(fault.KindState, "ZX-BATCH-010", "batch has already been settled")
	}
	if len(b.Transactions) == 0 {
		return fault.New(fault.KindState, "ZX-BATCH-006", "batch is empty")
	}
	now := c.Now()
	if forced && now-b.CreatedAt < MinAgeSeconds {
		return fault.New(fault.KindTemporal, "ZX-BATCH-007", "batch is too young to force")
	}

	b.Status = StatusProcessing
	// Without a per-member failure signal every member settles successfully.
	b.Successful = uint32(len(b.Transactions))
	b.Failed = 0
	b.TotalSavings = b.TotalValue / 100
	b.ExecutionTimeMs = executionTimeMs
	b.ExecutedAt = now
	b.SealHash = ident.Derive(ident.DomainBatchSeal, b.ID.Bytes(), ident.I64(now))
	b.Status = StatusCompleted

	c.events.Emit(BatchExecuted{
		Batch:        batchID,
		Transactions: len(b.Transactions),
		TotalValue:   b.TotalValue,
		TotalSavings: b.TotalSavings,
		Forced:       forced,
		Timestamp:    now,
	})
	return nil
}

// CancelBatch withdraws a pending batch, marking it Failed. Executed
// batches stay on record and cannot be withdrawn.
func (c *Coordinator) CancelBatch(batchID, coordinator ident.ID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, err := c.lookup(batchID)
	if err != nil {
		return err
	}
	if b.Coordinator != coordinator {
		return fault.New(fault.KindIdentity, "ZX-BATCH-008", "batch owned by another coordinator")
	}
	if b.Status != StatusPending {
		return fault.New(fault.KindState, "ZX-BATCH-009", "only pending batches may be cancelled")
	}
	b.Status = StatusFailed
	c.events.Emit(BatchCancelled{Batch: batchID, Timestamp: c.Now()})
	return nil
}

// BatchStatus reports the current lifecycle state.
func (c *Coordinator) BatchStatus(batchID ident.ID) (Status, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, err := c.lookup(batchID)
	if err != nil {
		return 0, err
	}
	return b.Status, nil
}

// Batch returns a copy of the record with its own transaction slice.
func (c *Coordinator) Batch(batchID ident.ID) (Batch, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, err := c.lookup(batchID)
	if err != nil {
		return Batch{}, err
	}
	out := *b
	out.Transactions = append([]ident.ID(nil), b.Transactions...)
	return out, nil
}
