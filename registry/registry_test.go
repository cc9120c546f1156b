package registry

import (
	"testing"

	"zephyra.io/zephyra/event"
	"zephyra.io/zephyra/fault"
	"zephyra.io/zephyra/ident"
	"zephyra.io/zephyra/route"
)

func testService() (*Service, *event.MemorySink) {
	sink := &event.MemorySink{}
	svc := NewService(sink)
	now := int64(1_700_000_000)
	svc.Now = func() int64 { now++; return now }
	return svc, sink
}

func owner(n byte) ident.ID {
	var id ident.ID
	id[0] = n
	return id
}

func TestInitProtectionOnce(t *testing.T) {
	svc, sink := testService()
	o := owner(1)
	if err := svc.InitProtection(o); err != nil {
		t.Fatalf("init: %v", err)
	}
	err := svc.InitProtection(o)
	if !fault.IsKind(err, fault.KindState) {
		t.Fatalf("second init: got %v, want state fault", err)
	}
	if got := len(sink.Named("protection_initialized")); got != 1 {
		t.Fatalf("emitted %d init events, want 1", got)
	}
	p, err := svc.Profile(o)
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if p.Settings != DefaultSettings() {
		t.Fatalf("settings = %+v, want defaults", p.Settings)
	}
}

func TestInitProtectionZeroOwner(t *testing.T) {
	svc, _ := testService()
	if err := svc.InitProtection(ident.ID{}); !fault.IsKind(err, fault.KindIdentity) {
		t.Fatalf("got %v, want identity fault", err)
	}
}

func TestUpdateSettingsBounds(t *testing.T) {
	svc, _ := testService()
	o := owner(1)
	if err := svc.InitProtection(o); err != nil {
		t.Fatal(err)
	}
	err := svc.UpdateSettings(o, Settings{MaxSlippageBps: 1001})
	if !fault.IsKind(err, fault.KindBound) {
		t.Fatalf("slippage 1001: got %v, want bound fault", err)
	}
	err = svc.UpdateSettings(o, Settings{MaxRiskScore: 101})
	if !fault.IsKind(err, fault.KindBound) {
		t.Fatalf("risk 101: got %v, want bound fault", err)
	}
	want := Settings{MaxSlippageBps: 1000, MaxRiskScore: 100, AutoExecute: false, BatchEnabled: true}
	if err := svc.UpdateSettings(o, want); err != nil {
		t.Fatalf("update at bounds: %v", err)
	}
	p, _ := svc.Profile(o)
	if p.Settings != want {
		t.Fatalf("settings = %+v, want %+v", p.Settings, want)
	}
}

func TestSubmitRequiresProfile(t *testing.T) {
	svc, _ := testService()
	_, err := svc.SubmitTransaction(owner(9), owner(2), owner(3), 100, 90)
	if !fault.IsKind(err, fault.KindIdentity) {
		t.Fatalf("got %v, want identity fault", err)
	}
}

func TestSubmitZeroAmount(t *testing.T) {
	svc, _ := testService()
	o := owner(1)
	svc.InitProtection(o)
	_, err := svc.SubmitTransaction(o, owner(2), owner(3), 0, 0)
	if !fault.IsKind(err, fault.KindBound) {
		t.Fatalf("got %v, want bound fault", err)
	}
}

func TestSubmitCountsTransactions(t *testing.T) {
	svc, _ := testService()
	o := owner(1)
	svc.InitProtection(o)
	a, err := svc.SubmitTransaction(o, owner(2), owner(3), 100, 90)
	if err != nil {
		t.Fatal(err)
	}
	b, err := svc.SubmitTransaction(o, owner(2), owner(3), 100, 90)
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Fatal("distinct submissions derived the same identifier")
	}
	p, _ := svc.Profile(o)
	if p.TotalTransactions != 2 {
		t.Fatalf("TotalTransactions = %d, want 2", p.TotalTransactions)
	}
}

func TestLifecycleOrder(t *testing.T) {
	svc, _ := testService()
	o := owner(1)
	svc.InitProtection(o)
	id, _ := svc.SubmitTransaction(o, owner(2), owner(3), 100, 90)

	if err := svc.BeginExecution(id, o, route.VenueJupiter); !fault.IsKind(err, fault.KindState) {
		t.Fatalf("execute before analysis: got %v, want state fault", err)
	}
	if err := svc.BeginSimulation(id, o); err != nil {
		t.Fatalf("begin simulation: %v", err)
	}
	if err := svc.BeginSimulation(id, o); !fault.IsKind(err, fault.KindState) {
		t.Fatalf("second simulation: got %v, want state fault", err)
	}
	if err := svc.UpdateRiskAnalysis(id, o, 20, false); err != nil {
		t.Fatalf("risk analysis: %v", err)
	}
	if err := svc.BeginExecution(id, o, route.VenueRaydium); err != nil {
		t.Fatalf("begin execution: %v", err)
	}
	if err := svc.UpdateRiskAnalysis(id, o, 5, false); !fault.IsKind(err, fault.KindState) {
		t.Fatalf("risk after execution: got %v, want state fault", err)
	}
	tx, _ := svc.Transaction(id)
	if tx.RiskScore != 20 || tx.SelectedVenue != route.VenueRaydium {
		t.Fatalf("record = %+v", tx)
	}
}

func TestRiskDetectionCountsAndEmits(t *testing.T) {
	svc, sink := testService()
	o := owner(1)
	svc.InitProtection(o)
	id, _ := svc.SubmitTransaction(o, owner(2), owner(3), 100, 90)
	if err := svc.UpdateRiskAnalysis(id, o, 85, true); err != nil {
		t.Fatalf("risk analysis: %v", err)
	}
	p, _ := svc.Profile(o)
	if p.AttacksBlocked != 1 {
		t.Fatalf("AttacksBlocked = %d, want 1", p.AttacksBlocked)
	}
	evs := sink.Named("attack_detected")
	if len(evs) != 1 {
		t.Fatalf("emitted %d detection events, want 1", len(evs))
	}
	det := evs[0].(AttackDetected)
	if det.RiskScore != 85 || det.Transaction != id {
		t.Fatalf("event = %+v", det)
	}
}

func TestExecutionRespectsRiskThreshold(t *testing.T) {
	svc, _ := testService()
	o := owner(1)
	svc.InitProtection(o)
	id, _ := svc.SubmitTransaction(o, owner(2), owner(3), 100, 90)
	svc.UpdateRiskAnalysis(id, o, 60, false) // default threshold is 50
	if err := svc.BeginExecution(id, o, route.VenueOrca); !fault.IsKind(err, fault.KindBound) {
		t.Fatalf("got %v, want bound fault", err)
	}
}

func TestCompleteBelowMinimum(t *testing.T) {
	// The declared minimum only gates route execution; a direct settlement
	// below it still closes the record, with savings floored at zero.
	svc, sink := testService()
	o := owner(1)
	svc.InitProtection(o)
	id, _ := svc.SubmitTransaction(o, owner(2), owner(3), 1_000_000, 900_000)
	if err := svc.CompleteTransaction(id, o, 800_000, ident.ID{}); err != nil {
		t.Fatalf("complete: %v", err)
	}
	tx, _ := svc.Transaction(id)
	if tx.Status != StatusCompleted || tx.OutputAmount != 800_000 {
		t.Fatalf("record = %+v", tx)
	}
	p, _ := svc.Profile(o)
	if p.TotalSavings != 0 {
		t.Fatalf("TotalSavings = %d, want 0", p.TotalSavings)
	}
	evs := sink.Named("transaction_completed")
	if len(evs) != 1 || evs[0].(TransactionCompleted).Savings != 0 {
		t.Fatalf("completion events = %+v", evs)
	}
}

func TestCompleteCreditsSavings(t *testing.T) {
	svc, sink := testService()
	o := owner(1)
	svc.InitProtection(o)
	id, _ := svc.SubmitTransaction(o, owner(2), owner(3), 1_000_000, 990_000)
	fp := ident.Derive(ident.DomainProof, []byte("proof"))
	if err := svc.CompleteTransaction(id, o, 1_050_000, fp); err != nil {
		t.Fatalf("complete: %v", err)
	}
	p, _ := svc.Profile(o)
	if p.TotalSavings != 50_000 {
		t.Fatalf("TotalSavings = %d, want 50000", p.TotalSavings)
	}
	tx, _ := svc.Transaction(id)
	if tx.Status != StatusCompleted || tx.ProofFingerprint != fp || tx.CompletedAt == 0 {
		t.Fatalf("record = %+v", tx)
	}
	evs := sink.Named("transaction_completed")
	if len(evs) != 1 || evs[0].(TransactionCompleted).Savings != 50_000 {
		t.Fatalf("completion events = %+v", evs)
	}
	// No surplus means no savings, never a deduction.
	id2, _ := svc.SubmitTransaction(o, owner(2), owner(3), 1000, 0)
	svc.CompleteTransaction(id2, o, 900, ident.ID{})
	p, _ = svc.Profile(o)
	if p.TotalSavings != 50_000 {
		t.Fatalf("TotalSavings = %d after break-even, want 50000", p.TotalSavings)
	}
}

func TestTerminalIsFinal(t *testing.T) {
	svc, _ := testService()
	o := owner(1)
	svc.InitProtection(o)
	id, _ := svc.SubmitTransaction(o, owner(2), owner(3), 1000, 0)
	if err := svc.FailTransaction(id, o, "simulation reverted"); err != nil {
		t.Fatalf("fail: %v", err)
	}
	if err := svc.CompleteTransaction(id, o, 2000, ident.ID{}); !fault.IsKind(err, fault.KindState) {
		t.Fatalf("complete after fail: got %v, want state fault", err)
	}
	if err := svc.FailTransaction(id, o, "again"); !fault.IsKind(err, fault.KindState) {
		t.Fatalf("double fail: got %v, want state fault", err)
	}
	st, _ := svc.TransactionStatus(id)
	if st != StatusFailed {
		t.Fatalf("status = %v, want Failed", st)
	}
}

func TestOwnerMismatch(t *testing.T) {
	svc, _ := testService()
	a, b := owner(1), owner(2)
	svc.InitProtection(a)
	svc.InitProtection(b)
	id, _ := svc.SubmitTransaction(a, owner(3), owner(4), 100, 0)
	if err := svc.BeginSimulation(id, b); !fault.IsKind(err, fault.KindIdentity) {
		t.Fatalf("got %v, want identity fault", err)
	}
}

func TestRecordIdentityMismatch(t *testing.T) {
	svc, _ := testService()
	o := owner(1)
	svc.InitProtection(o)
	id, _ := svc.SubmitTransaction(o, owner(2), owner(3), 100, 0)
	// Corrupt the stored record so its identifier no longer matches the key.
	svc.txs[id].ID = ident.Derive(ident.DomainTransaction, []byte("tampered"))
	err := svc.BeginSimulation(id, o)
	if !fault.IsKind(err, fault.KindIdentity) || fault.Code(err) != "ZX-REG-009" {
		t.Fatalf("got %v, want ZX-REG-009", err)
	}
}

func TestAssignBatch(t *testing.T) {
	svc, _ := testService()
	o := owner(1)
	svc.InitProtection(o)
	id, _ := svc.SubmitTransaction(o, owner(2), owner(3), 100, 0)
	batchID := ident.Derive(ident.DomainBatch, []byte("batch"))
	if err := svc.AssignBatch(id, batchID); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if err := svc.AssignBatch(id, batchID); !fault.IsKind(err, fault.KindState) {
		t.Fatalf("second assign: got %v, want state fault", err)
	}
	tx, _ := svc.Transaction(id)
	if tx.BatchID != batchID {
		t.Fatalf("BatchID = %v, want %v", tx.BatchID, batchID)
	}
}

func TestAssignBatchDisabled(t *testing.T) {
	svc, _ := testService()
	o := owner(1)
	svc.InitProtection(o)
	st := DefaultSettings()
	st.BatchEnabled = false
	svc.UpdateSettings(o, st)
	id, _ := svc.SubmitTransaction(o, owner(2), owner(3), 100, 0)
	err := svc.AssignBatch(id, ident.Derive(ident.DomainBatch, []byte("batch")))
	if !fault.IsKind(err, fault.KindCapability) {
		t.Fatalf("got %v, want capability fault", err)
	}
}
