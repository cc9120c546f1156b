// Package proof records the rationale behind a route decision and answers
// verification queries against a write-once fingerprint.
//
// The fingerprint binds the decision fields only: the transaction
// identifier, the evaluated routes, the selected venue, the reasoning text
// and the generation time. Later annotations (detections, timings, an
// executor signature) never change it, so a fingerprint handed out at
// generation time stays verifiable for the life of the record.
package proof

import (
	"sync"
	"time"

	"zephyra.io/zephyra/archive"
	"zephyra.io/zephyra/event"
	"zephyra.io/zephyra/fault"
	"zephyra.io/zephyra/ident"
	"zephyra.io/zephyra/route"
	"zephyra.io/zephyra/sign"
)

const (
	// MaxRoutes bounds the recorded venue alternatives.
	MaxRoutes = route.MaxOptions
	// MaxReasoningLen bounds the reasoning text, in bytes.
	MaxReasoningLen = 500
	// MaxDetections bounds the appended suspicious-activity records.
	MaxDetections = 20
)

// Default phase timings recorded until an execution reports real ones.
const (
	DefaultSimulationMs = 50
	DefaultSelectionMs  = 30
	DefaultExecutionMs  = 20
)

// AttackType classifies a suspicious-activity detection.
type AttackType uint8

const (
	AttackSandwich AttackType = iota
	AttackFrontRunning
	AttackBackRunning
	AttackArbitrage
)

func (a AttackType) String() string {
	switch a {
	case AttackSandwich:
		return "Sandwich"
	case AttackFrontRunning:
		return "FrontRunning"
	case AttackBackRunning:
		return "BackRunning"
	case AttackArbitrage:
		return "Arbitrage"
	default:
		return "Unknown"
	}
}

// Detection is one appended suspicious-activity observation.
type Detection struct {
	Type       AttackType
	Confidence uint8 // 0-100
	Timestamp  int64
}

// Timing holds the per-phase durations in milliseconds. Total is always
// the sum of the three phases.
type Timing struct {
	SimulationMs uint32
	SelectionMs  uint32
	ExecutionMs  uint32
	TotalMs      uint32
}

// ProofOfRoute is the stored decision record for one transaction.
type ProofOfRoute struct {
	Transaction ident.ID
	Fingerprint ident.ID
	Routes      []route.Option
	Selected    route.Venue
	Reasoning   string
	Detections  []Detection
	Timing      Timing
	Signature   sign.Signature
	ArchiveCID  string // set when the canonical document is archived
	CreatedAt   int64
}

// ProofGenerated is emitted when a decision record is stored.
type ProofGenerated struct {
	Transaction ident.ID
	Fingerprint ident.ID
	Selected    route.Venue
	Routes      int
	Timestamp   int64
}

func (ProofGenerated) EventName() string { return "proof_generated" }

// ProofVerified is emitted on every verification query, accepted or not.
type ProofVerified struct {
	Transaction ident.ID
	Fingerprint ident.ID
	Valid       bool
	Timestamp   int64
}

func (ProofVerified) EventName() string { return "proof_verified" }

// TimingUpdated is emitted when the phase timings are overwritten.
type TimingUpdated struct {
	Transaction ident.ID
	Timing      Timing
	Timestamp   int64
}

func (TimingUpdated) EventName() string { return "timing_updated" }

// SignatureSet is emitted when the executor signature is attached.
type SignatureSet struct {
	Transaction ident.ID
	Timestamp   int64
}

func (SignatureSet) EventName() string { return "signature_set" }

// ArchiveFailed is emitted when a configured archive rejects the canonical
// document; the record then carries no CID.
type ArchiveFailed struct {
	Transaction ident.ID
	Err         string
	Timestamp   int64
}

func (ArchiveFailed) EventName() string { return "archive_failed" }

// DetectionRecorded is emitted when a detection is appended.
type DetectionRecorded struct {
	Transaction ident.ID
	Type        AttackType
	Confidence  uint8
	Timestamp   int64
}

func (DetectionRecorded) EventName() string { return "detection_recorded" }

// Verifier stores one proof per transaction. All methods are safe for
// concurrent use.
type Verifier struct {
	mu     sync.Mutex
	byTx   map[ident.ID]*ProofOfRoute
	byFP   map[ident.ID]ident.ID // fingerprint -> transaction
	store  archive.Store         // optional canonical-document archive
	events event.Sink

	// Now supplies timestamps and may be replaced in tests.
	Now func() int64
}

// NewVerifier builds a Verifier. store may be nil, in which case no
// canonical documents are archived.
func NewVerifier(store archive.Store, events event.Sink) *Verifier {
	if events == nil {
		events = event.NopSink{}
	}
	return &Verifier{
		byTx:   make(map[ident.ID]*ProofOfRoute),
		byFP:   make(map[ident.ID]ident.ID),
		store:  store,
		events: events,
		Now:    func() int64 { return time.Now().Unix() },
	}
}

// fingerprint commits to the decision-binding fields only.
func fingerprint(txID ident.ID, routes []route.Option, selected route.Venue, reasoning string, createdAt int64) ident.ID {
	parts := [][]byte{txID.Bytes()}
	for _, r := range routes {
		parts = append(parts,
			[]byte{byte(r.Venue)},
			ident.U64(r.EstimatedOutput),
			ident.U64(uint64(r.PriceImpactBps)),
			[]byte{r.RiskScore},
			ident.U64(r.LiquidityDepth),
		)
	}
	parts = append(parts, []byte{byte(selected)}, []byte(reasoning), ident.I64(createdAt))
	return ident.Derive(ident.DomainProof, parts...)
}

// Generate stores the decision record for txID and returns its fingerprint.
// At most one proof exists per transaction; a second call is rejected.
func (v *Verifier) Generate(txID ident.ID, routes []route.Option, selected route.Venue, reasoning string) (ident.ID, error) {
	if txID.IsZero() {
		return ident.ID{}, fault.New(fault.KindIdentity, "ZX-PROOF-001", "transaction identity is zero")
	}
	if len(routes) == 0 {
		return ident.ID{}, fault.New(fault.KindBound, "ZX-PROOF-002", "no routes recorded")
	}
	if len(routes) > MaxRoutes {
		return ident.ID{}, fault.New(fault.KindCapacity, "ZX-PROOF-003", "too many routes")
	}
	if len(reasoning) > MaxReasoningLen {
		return ident.ID{}, fault.New(fault.KindBound, "ZX-PROOF-004", "reasoning text too long")
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, ok := v.byTx[txID]; ok {
		return ident.ID{}, fault.New(fault.KindState, "ZX-PROOF-005", "proof already generated for transaction")
	}
	now := v.Now()
	stored := append([]route.Option(nil), routes...)
	fp := fingerprint(txID, stored, selected, reasoning, now)
	p := &ProofOfRoute{
		Transaction: txID,
		Fingerprint: fp,
		Routes:      stored,
		Selected:    selected,
		Reasoning:   reasoning,
		Timing: Timing{
			SimulationMs: DefaultSimulationMs,
			SelectionMs:  DefaultSelectionMs,
			ExecutionMs:  DefaultExecutionMs,
			TotalMs:      DefaultSimulationMs + DefaultSelectionMs + DefaultExecutionMs,
		},
		CreatedAt: now,
	}
	if v.store != nil {
		if c, err := v.store.Put(renderDocument(p)); err == nil {
			p.ArchiveCID = c.String()
		} else {
			v.events.Emit(ArchiveFailed{Transaction: txID, Err: err.Error(), Timestamp: now})
		}
	}
	v.byTx[txID] = p
	v.byFP[fp] = txID
	v.events.Emit(ProofGenerated{
		Transaction: txID,
		Fingerprint: fp,
		Selected:    selected,
		Routes:      len(stored),
		Timestamp:   now,
	})
	return fp, nil
}

// Verify reports whether fp is the stored fingerprint for txID. It never
// mutates state and emits an audit event for every query, including misses.
func (v *Verifier) Verify(txID, fp ident.ID) bool {
	v.mu.Lock()
	p, ok := v.byTx[txID]
	valid := ok && p.Transaction == txID && p.Fingerprint == fp
	now := v.Now()
	v.mu.Unlock()
	v.events.Emit(ProofVerified{Transaction: txID, Fingerprint: fp, Valid: valid, Timestamp: now})
	return valid
}

// lookup validates the caller-supplied fingerprint against the stored one.
// Callers hold the lock.
func (v *Verifier) lookup(txID, fp ident.ID) (*ProofOfRoute, error) {
	p, ok := v.byTx[txID]
	if !ok {
		return nil, fault.New(fault.KindIdentity, "ZX-PROOF-006", "no proof for transaction")
	}
	if p.Fingerprint != fp {
		return nil, fault.New(fault.KindIdentity, "ZX-PROOF-007", "fingerprint mismatch")
	}
	return p, nil
}

// AddDetection appends a suspicious-activity observation. The fingerprint
// guards the append but is not altered by it.
func (v *Verifier) AddDetection(txID, fp ident.ID, typ AttackType, confidence uint8) error {
	if confidence > 100 {
		return fault.New(fault.KindBound, "ZX-PROOF-008", "confidence exceeds 100")
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	p, err := v.lookup(txID, fp)
	if err != nil {
		return err
	}
	if len(p.Detections) >= MaxDetections {
		return fault.New(fault.KindCapacity, "ZX-PROOF-009", "detection list is full")
	}
	now := v.Now()
	p.Detections = append(p.Detections, Detection{Type: typ, Confidence: confidence, Timestamp: now})
	v.events.Emit(DetectionRecorded{Transaction: txID, Type: typ, Confidence: confidence, Timestamp: now})
	return nil
}

// UpdateTiming overwrites the phase timings. Total is recomputed as the
// exact sum, never accumulated.
func (v *Verifier) UpdateTiming(txID, fp ident.ID, simulationMs, selectionMs, executionMs uint32) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	p, err := v.lookup(txID, fp)
	if err != nil {
		return err
	}
	p.Timing = Timing{
		SimulationMs: simulationMs,
		SelectionMs:  selectionMs,
		ExecutionMs:  executionMs,
		TotalMs:      simulationMs + selectionMs + executionMs,
	}
	v.events.Emit(TimingUpdated{Transaction: txID, Timing: p.Timing, Timestamp: v.Now()})
	return nil
}

// SetSignature attaches the executor signature to the record.
func (v *Verifier) SetSignature(txID, fp ident.ID, sig sign.Signature) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	p, err := v.lookup(txID, fp)
	if err != nil {
		return err
	}
	p.Signature = sig
	v.events.Emit(SignatureSet{Transaction: txID, Timestamp: v.Now()})
	return nil
}

// Proof returns a copy of the record for txID.
func (v *Verifier) Proof(txID ident.ID) (ProofOfRoute, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	p, ok := v.byTx[txID]
	if !ok {
		return ProofOfRoute{}, fault.New(fault.KindIdentity, "ZX-PROOF-006", "no proof for transaction")
	}
	return copyProof(p), nil
}

// ByFingerprint resolves a fingerprint back to its record.
func (v *Verifier) ByFingerprint(fp ident.ID) (ProofOfRoute, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	txID, ok := v.byFP[fp]
	if !ok {
		return ProofOfRoute{}, fault.New(fault.KindIdentity, "ZX-PROOF-010", "unknown fingerprint")
	}
	return copyProof(v.byTx[txID]), nil
}

func copyProof(p *ProofOfRoute) ProofOfRoute {
	out := *p
	out.Routes = append([]route.Option(nil), p.Routes...)
	out.Detections = append([]Detection(nil), p.Detections...)
	return out
}
