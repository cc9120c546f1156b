package route

import (
	"fmt"
	"sync"
	"time"

	"zephyra.io/zephyra/event"
	"zephyra.io/zephyra/fault"
	"zephyra.io/zephyra/ident"
	"zephyra.io/zephyra/sign"
)

// SwapVenue is the external swap capability boundary. Implementations quote
// and execute atomically from the caller's perspective: the returned output
// is final.
type SwapVenue interface {
	QuoteAndExecute(inputAmount uint64, params []byte) (outputAmount uint64, priceImpactBps uint16, err error)
}

// StaticVenue is a deterministic SwapVenue charging a fixed fee. Used by
// tests and the CLI demo in place of a live liquidity source.
type StaticVenue struct {
	FeeBps uint16
}

func (v StaticVenue) QuoteAndExecute(inputAmount uint64, params []byte) (uint64, uint16, error) {
	_ = params
	out := inputAmount * uint64(10000-v.FeeBps) / 10000
	return out, PriceImpact(inputAmount, out), nil
}

type receiptKey struct {
	tx    ident.ID
	venue Venue
}

// Executor executes selected routes and persists one receipt per
// (transaction, venue) pair.
type Executor struct {
	// Now supplies the clock; defaults to wall time.
	Now func() int64

	signer *sign.Signer
	events event.Sink

	mu       sync.Mutex
	receipts map[receiptKey]*Receipt
	venues   map[Venue]SwapVenue
}

// NewExecutor builds an Executor signing receipts with signer.
func NewExecutor(signer *sign.Signer, events event.Sink) *Executor {
	if events == nil {
		events = event.NopSink{}
	}
	return &Executor{
		signer:   signer,
		events:   events,
		receipts: make(map[receiptKey]*Receipt),
		venues:   make(map[Venue]SwapVenue),
	}
}

func (e *Executor) now() int64 {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now().Unix()
}

// Execute runs the swap for transactionID on venue and persists the receipt.
//
// Fails with a capability error if the venue rejects, and with a bound error
// if the realized output falls below minOutput (slippage). No receipt is
// stored on failure.
func (e *Executor) Execute(transactionID ident.ID, venue Venue, inputAmount, minOutput uint64, params []byte) (Receipt, error) {
	if transactionID.IsZero() {
		return Receipt{}, fault.New(fault.KindIdentity, "ZX-ROUTE-005", "zero transaction identifier")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	key := receiptKey{tx: transactionID, venue: venue}
	if _, exists := e.receipts[key]; exists {
		return Receipt{}, fault.New(fault.KindState, "ZX-ROUTE-006",
			fmt.Sprintf("receipt already exists for transaction %s on %s", transactionID, venue))
	}

	swap, ok := e.venueFor(venue, params)
	if !ok {
		return Receipt{}, fault.New(fault.KindCapability, "ZX-ROUTE-007",
			fmt.Sprintf("no venue capability registered for %s", venue))
	}

	output, impact, err := swap.QuoteAndExecute(inputAmount, params)
	if err != nil {
		return Receipt{}, fault.Wrap(fault.KindCapability, "ZX-ROUTE-004", "venue execution failed", err)
	}
	if output < minOutput {
		return Receipt{}, fault.New(fault.KindCapability, "ZX-ROUTE-008",
			fmt.Sprintf("output %d below minimum %d (slippage exceeded)", output, minOutput))
	}
	if impact == 0 {
		impact = PriceImpact(inputAmount, output)
	}

	now := e.now()
	receipt := &Receipt{
		TransactionID:  transactionID,
		Venue:          venue,
		InputAmount:    inputAmount,
		OutputAmount:   output,
		PriceImpactBps: impact,
		ExecutedAt:     now,
		Proof: ExecutionProof{
			PreBalance:  inputAmount,
			PostBalance: output,
			Signature:   e.signReceipt(transactionID, output),
			Timestamp:   now,
		},
	}
	e.receipts[key] = receipt

	e.events.Emit(RouteExecuted{
		TransactionID: transactionID,
		Venue:         venue,
		InputAmount:   inputAmount,
		OutputAmount:  output,
		At:            now,
	})
	return *receipt, nil
}

// Receipt returns a copy of the stored receipt for (transactionID, venue).
func (e *Executor) Receipt(transactionID ident.ID, venue Venue) (Receipt, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	r, ok := e.receipts[receiptKey{tx: transactionID, venue: venue}]
	if !ok {
		return Receipt{}, fault.New(fault.KindIdentity, "ZX-ROUTE-009",
			fmt.Sprintf("no receipt for transaction %s on %s", transactionID, venue))
	}
	if r.TransactionID != transactionID {
		return Receipt{}, fault.New(fault.KindIdentity, "ZX-ROUTE-010", "stored receipt does not match requested transaction")
	}
	return *r, nil
}

// Select scores candidates via SelectBest and emits the selection event.
// The scoring itself is pure; this entry point exists so that route
// decisions leave an audit record tied to the transaction.
func (e *Executor) Select(transactionID ident.ID, options []Option) (Selection, error) {
	sel, err := SelectBest(options)
	if err != nil {
		return Selection{}, err
	}
	e.events.Emit(RouteSelected{
		TransactionID:     transactionID,
		Venue:             sel.Venue,
		AlternativesCount: uint8(len(options)),
		Reasoning:         sel.Reasoning,
		At:                e.now(),
	})
	return sel, nil
}

// Register installs the capability used for a given venue tag.
func (e *Executor) Register(venue Venue, swap SwapVenue) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.venues[venue] = swap
}

func (e *Executor) venueFor(venue Venue, params []byte) (SwapVenue, bool) {
	_ = params
	v, ok := e.venues[venue]
	return v, ok
}

func (e *Executor) signReceipt(transactionID ident.ID, output uint64) sign.Signature {
	if e.signer == nil {
		return sign.Signature{}
	}
	msg := receiptMessage(transactionID, output)
	return e.signer.Sign(msg)
}

// ReceiptMessage is the byte string signed into an execution proof. Exposed
// so verifiers can rebuild it from the receipt fields.
func ReceiptMessage(transactionID ident.ID, outputAmount uint64) []byte {
	return receiptMessage(transactionID, outputAmount)
}

func receiptMessage(transactionID ident.ID, outputAmount uint64) []byte {
	msg := make([]byte, 0, ident.Size+8+len("zephyra-execution-v1")+1)
	msg = append(msg, []byte("zephyra-execution-v1")...)
	msg = append(msg, 0)
	msg = append(msg, transactionID[:]...)
	msg = append(msg, ident.U64(outputAmount)...)
	return msg
}
