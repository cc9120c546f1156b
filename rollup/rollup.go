// Package rollup provides short-lived scratch sessions for off-main-path
// instruction execution. A session accumulates a running state hash over the
// instructions it executes and is either committed, producing a signed commit
// proof, or rolled back and discarded. Expired sessions accept no further
// work.
package rollup

import (
	"sync"
	"time"

	"github.com/zeebo/blake3"

	"zephyra.io/zephyra/archive"
	"zephyra.io/zephyra/event"
	"zephyra.io/zephyra/fault"
	"zephyra.io/zephyra/ident"
	"zephyra.io/zephyra/sign"
)

const (
	// SessionTimeoutSeconds is the session lifetime from creation.
	SessionTimeoutSeconds = 300
	// MaxRollbackReasonLen bounds the recorded rollback reason, in bytes.
	MaxRollbackReasonLen = 200
)

// Status is the session lifecycle state.
type Status uint8

const (
	StatusActive Status = iota
	StatusCommitted
	StatusRolledBack
)

func (s Status) String() string {
	switch s {
	case StatusActive:
		return "Active"
	case StatusCommitted:
		return "Committed"
	case StatusRolledBack:
		return "RolledBack"
	default:
		return "Unknown"
	}
}

// Executor is the execution capability behind a session. Implementations
// interpret the instruction bytes and report the outcome and its cost.
type Executor interface {
	Execute(instruction []byte) (success bool, output []byte, cost uint64)
}

// HashExecutor is the default executor: it succeeds on any non-empty
// instruction and answers with a digest of it. Useful for tests and demos
// where no real execution substrate is attached.
type HashExecutor struct{}

func (HashExecutor) Execute(instruction []byte) (bool, []byte, uint64) {
	if len(instruction) == 0 {
		return false, nil, 0
	}
	sum := blake3.Sum256(instruction)
	return true, sum[:], uint64(len(instruction))
}

// Session is one ephemeral execution scope, bound to a single transaction.
type Session struct {
	ID           ident.ID
	Transaction  ident.ID
	Owner        ident.ID
	Status       Status
	StateHash    [32]byte
	Instructions uint32
	TotalCost    uint64
	CreatedAt    int64
	ExpiresAt    int64
	ClosedAt     int64
	Reason       string // rollback reason, if rolled back
}

// Expired reports whether the session lifetime has elapsed at time now.
func (s *Session) Expired(now int64) bool {
	return now >= s.ExpiresAt
}

// CommitProof is the signed closing record of a committed session.
type CommitProof struct {
	Hash         ident.ID
	StateHash    [32]byte
	Instructions uint32
	Timestamp    int64
	Signature    sign.Signature
	ArchiveCID   string
}

// SessionOpened is emitted when a session is created.
type SessionOpened struct {
	Session     ident.ID
	Transaction ident.ID
	ExpiresAt   int64
	Timestamp   int64
}

func (SessionOpened) EventName() string { return "session_opened" }

// InstructionExecuted is emitted for each accepted instruction.
type InstructionExecuted struct {
	Session   ident.ID
	Sequence  uint32
	Success   bool
	Cost      uint64
	Timestamp int64
}

func (InstructionExecuted) EventName() string { return "instruction_executed" }

// SessionCommitted is emitted once when a session commits.
type SessionCommitted struct {
	Session      ident.ID
	Transaction  ident.ID
	Proof        ident.ID
	Instructions uint32
	Timestamp    int64
}

func (SessionCommitted) EventName() string { return "session_committed" }

// ArchiveFailed is emitted when a configured archive rejects the commit
// document; the proof then carries no CID.
type ArchiveFailed struct {
	Session   ident.ID
	Err       string
	Timestamp int64
}

func (ArchiveFailed) EventName() string { return "archive_failed" }

// SessionRolledBack is emitted once when a session is discarded.
type SessionRolledBack struct {
	Session     ident.ID
	Transaction ident.ID
	Reason      string
	Timestamp   int64
}

func (SessionRolledBack) EventName() string { return "session_rolled_back" }

// Manager owns the session records. All methods are safe for concurrent use.
type Manager struct {
	mu       sync.Mutex
	sessions map[ident.ID]*Session
	byTx     map[ident.ID]ident.ID // transaction -> open session
	exec     Executor
	signer   *sign.Signer
	store    archive.Store // optional commit-proof archive
	events   event.Sink

	// Now supplies timestamps and may be replaced in tests.
	Now func() int64
}

// NewManager builds a Manager. exec defaults to HashExecutor when nil;
// store may be nil, in which case commit proofs are not archived.
func NewManager(exec Executor, signer *sign.Signer, store archive.Store, events event.Sink) *Manager {
	if exec == nil {
		exec = HashExecutor{}
	}
	if events == nil {
		events = event.NopSink{}
	}
	return &Manager{
		sessions: make(map[ident.ID]*Session),
		byTx:     make(map[ident.ID]ident.ID),
		exec:     exec,
		signer:   signer,
		store:    store,
		events:   events,
		Now:      func() int64 { return time.Now().Unix() },
	}
}

// Open creates a session bound to txID. A transaction holds at most one
// live session; a new one may only be opened once the previous session has
// closed or expired.
func (m *Manager) Open(txID, owner ident.ID) (ident.ID, error) {
	if txID.IsZero() {
		return ident.ID{}, fault.New(fault.KindIdentity, "ZX-ROLLUP-001", "transaction identity is zero")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.Now()
	if prev, ok := m.byTx[txID]; ok {
		s := m.sessions[prev]
		if s.Status == StatusActive && !s.Expired(now) {
			return ident.ID{}, fault.New(fault.KindState, "ZX-ROLLUP-002", "transaction already has an active session")
		}
	}
	id := ident.Derive(ident.DomainSession, txID.Bytes(), owner.Bytes(), ident.I64(now))
	if _, dup := m.sessions[id]; dup {
		return ident.ID{}, fault.New(fault.KindState, "ZX-ROLLUP-003", "session already exists")
	}
	m.sessions[id] = &Session{
		ID:          id,
		Transaction: txID,
		Owner:       owner,
		Status:      StatusActive,
		CreatedAt:   now,
		ExpiresAt:   now + SessionTimeoutSeconds,
	}
	m.byTx[txID] = id
	m.events.Emit(SessionOpened{Session: id, Transaction: txID, ExpiresAt: now + SessionTimeoutSeconds, Timestamp: now})
	return id, nil
}

func (m *Manager) lookup(sessionID, owner ident.ID) (*Session, error) {
	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, fault.New(fault.KindIdentity, "ZX-ROLLUP-004", "unknown session")
	}
	if s.Owner != owner {
		return nil, fault.New(fault.KindIdentity, "ZX-ROLLUP-005", "session owned by another identity")
	}
	return s, nil
}

// ExecuteInstruction runs one instruction inside an active, unexpired
// session and folds the outcome into the running state hash.
func (m *Manager) ExecuteInstruction(sessionID, owner ident.ID, instruction []byte) (bool, []byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.lookup(sessionID, owner)
	if err != nil {
		return false, nil, err
	}
	if s.Status != StatusActive {
		return false, nil, fault.New(fault.KindState, "ZX-ROLLUP-006", "session is closed")
	}
	now := m.Now()
	if s.Expired(now) {
		return false, nil, fault.New(fault.KindTemporal, "ZX-ROLLUP-007", "session has expired")
	}

	success, output, cost := m.exec.Execute(instruction)
	s.StateHash = foldState(s.StateHash, instruction, success)
	s.Instructions++
	s.TotalCost += cost
	m.events.Emit(InstructionExecuted{
		Session:   sessionID,
		Sequence:  s.Instructions,
		Success:   success,
		Cost:      cost,
		Timestamp: now,
	})
	return success, output, nil
}

// foldState advances the running state hash with one instruction outcome.
func foldState(prev [32]byte, instruction []byte, success bool) [32]byte {
	h := blake3.New()
	h.Write(prev[:])
	h.Write(instruction)
	if success {
		h.Write([]byte{1})
	} else {
		h.Write([]byte{0})
	}
	var out [32]byte
	h.Digest().Read(out[:])
	return out
}

// Commit closes an active, unexpired session and returns its signed proof.
// The proof hash commits to the final state hash, the instruction count and
// the commit time.
func (m *Manager) Commit(sessionID, owner ident.ID) (CommitProof, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.lookup(sessionID, owner)
	if err != nil {
		return CommitProof{}, err
	}
	if s.Status != StatusActive {
		return CommitProof{}, fault.New(fault.KindState, "ZX-ROLLUP-006", "session is closed")
	}
	now := m.Now()
	if s.Expired(now) {
		return CommitProof{}, fault.New(fault.KindTemporal, "ZX-ROLLUP-007", "session has expired")
	}

	hash := ident.Derive(ident.DomainCommit,
		s.StateHash[:], ident.U64(uint64(s.Instructions)), ident.I64(now))
	proof := CommitProof{
		Hash:         hash,
		StateHash:    s.StateHash,
		Instructions: s.Instructions,
		Timestamp:    now,
	}
	if m.signer != nil {
		proof.Signature = m.signer.Sign(hash.Bytes())
	}
	if m.store != nil {
		if c, err := m.store.Put(renderCommit(s, proof)); err == nil {
			proof.ArchiveCID = c.String()
		} else {
			m.events.Emit(ArchiveFailed{Session: sessionID, Err: err.Error(), Timestamp: now})
		}
	}
	s.Status = StatusCommitted
	s.ClosedAt = now
	m.events.Emit(SessionCommitted{
		Session:      sessionID,
		Transaction:  s.Transaction,
		Proof:        hash,
		Instructions: s.Instructions,
		Timestamp:    now,
	})
	return proof, nil
}

// Rollback discards an active session, recording the reason. An expired
// session may still be rolled back; the scratch state is abandoned either
// way.
func (m *Manager) Rollback(sessionID, owner ident.ID, reason string) error {
	if len(reason) > MaxRollbackReasonLen {
		return fault.New(fault.KindBound, "ZX-ROLLUP-008", "rollback reason too long")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.lookup(sessionID, owner)
	if err != nil {
		return err
	}
	if s.Status != StatusActive {
		return fault.New(fault.KindState, "ZX-ROLLUP-006", "session is closed")
	}
	now := m.Now()
	s.Status = StatusRolledBack
	s.Reason = reason
	s.ClosedAt = now
	m.events.Emit(SessionRolledBack{
		Session:     sessionID,
		Transaction: s.Transaction,
		Reason:      reason,
		Timestamp:   now,
	})
	return nil
}

// Session returns a copy of the record.
func (m *Manager) Session(sessionID ident.ID) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return Session{}, fault.New(fault.KindIdentity, "ZX-ROLLUP-004", "unknown session")
	}
	return *s, nil
}
