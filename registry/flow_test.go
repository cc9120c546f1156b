package registry_test

import (
	"testing"

	"zephyra.io/zephyra/event"
	"zephyra.io/zephyra/ident"
	"zephyra.io/zephyra/proof"
	"zephyra.io/zephyra/registry"
	"zephyra.io/zephyra/route"
	"zephyra.io/zephyra/sign"
)

// TestProtectedTransactionFlow drives one transaction through every
// component: submission, simulation, risk analysis, route selection and
// execution, proof generation and final completion with savings accounting.
func TestProtectedTransactionFlow(t *testing.T) {
	sink := &event.MemorySink{}
	now := int64(1_700_000_000)

	reg := registry.NewService(sink)
	reg.Now = func() int64 { return now }

	seed := make([]byte, 32)
	seed[0] = 0x77
	signer, err := sign.NewSignerFromSeed(seed)
	if err != nil {
		t.Fatalf("signer: %v", err)
	}
	exec := route.NewExecutor(signer, sink)
	exec.Register(route.VenueRaydium, route.StaticVenue{FeeBps: 200})
	verifier := proof.NewVerifier(nil, sink)
	verifier.Now = func() int64 { return now }

	owner := ident.Derive(ident.DomainTransaction, []byte("owner"))
	solAsset := ident.Derive(ident.DomainTransaction, []byte("sol"))
	usdcAsset := ident.Derive(ident.DomainTransaction, []byte("usdc"))

	if err := reg.InitProtection(owner); err != nil {
		t.Fatalf("init: %v", err)
	}
	txID, err := reg.SubmitTransaction(owner, solAsset, usdcAsset, 1_000_000, 900_000)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	if err := reg.BeginSimulation(txID, owner); err != nil {
		t.Fatalf("simulate: %v", err)
	}
	if err := reg.UpdateRiskAnalysis(txID, owner, 20, false); err != nil {
		t.Fatalf("analyze: %v", err)
	}

	options := []route.Option{
		{Venue: route.VenueJupiter, EstimatedOutput: 100, RiskScore: 50},
		{Venue: route.VenueRaydium, EstimatedOutput: 90, RiskScore: 10},
	}
	sel, err := exec.Select(txID, options)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if sel.Venue != route.VenueRaydium {
		t.Fatalf("selected %s, want Raydium (score 81 beats 50)", sel.Venue)
	}
	if err := reg.BeginExecution(txID, owner, sel.Venue); err != nil {
		t.Fatalf("begin execution: %v", err)
	}

	fp, err := verifier.Generate(txID, options, sel.Venue, sel.Reasoning)
	if err != nil {
		t.Fatalf("proof: %v", err)
	}
	if err := reg.CompleteTransaction(txID, owner, 1_050_000, fp); err != nil {
		t.Fatalf("complete: %v", err)
	}

	p, err := reg.Profile(owner)
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if p.TotalSavings != 50_000 {
		t.Fatalf("TotalSavings = %d, want 50000", p.TotalSavings)
	}
	if p.TotalTransactions != 1 || p.AttacksBlocked != 0 {
		t.Fatalf("profile = %+v", p)
	}

	tx, err := reg.Transaction(txID)
	if err != nil {
		t.Fatalf("transaction: %v", err)
	}
	if tx.Status != registry.StatusCompleted || tx.CompletedAt == 0 {
		t.Fatalf("record = %+v", tx)
	}
	if tx.ProofFingerprint != fp {
		t.Fatal("stored fingerprint differs from the generated one")
	}
	if !verifier.Verify(txID, tx.ProofFingerprint) {
		t.Fatal("stored fingerprint does not verify against the proof record")
	}

	// One event per accepted transition across the whole flow.
	for _, name := range []string{
		"protection_initialized", "transaction_submitted", "simulation_started",
		"risk_analyzed", "execution_started", "route_selected",
		"proof_generated", "transaction_completed", "proof_verified",
	} {
		if got := len(sink.Named(name)); got != 1 {
			t.Fatalf("emitted %d %s events, want 1", got, name)
		}
	}
}
