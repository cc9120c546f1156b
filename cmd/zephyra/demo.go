package main

import (
	"flag"
	"fmt"
	"io"

	"zephyra.io/zephyra/archive"
	"zephyra.io/zephyra/event"
	"zephyra.io/zephyra/ident"
	"zephyra.io/zephyra/proof"
	"zephyra.io/zephyra/registry"
	"zephyra.io/zephyra/route"
	"zephyra.io/zephyra/rollup"
	"zephyra.io/zephyra/sign"
)

// cmdDemo drives one protected transaction end to end against in-memory
// components: submit, risk analysis, route selection, execution against
// static venues, proof generation, rollup commit and completion.
func cmdDemo(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("demo", flag.ContinueOnError)
	fs.SetOutput(errOut)
	input := fs.Uint64("input", 1_000_000, "input amount")
	minOutput := fs.Uint64("min-output", 900_000, "minimum acceptable output")
	risk := fs.Uint("risk", 20, "risk score assigned by analysis (0-100)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *risk > 100 {
		fmt.Fprintln(errOut, "risk must be in 0-100")
		return 2
	}

	sink := &event.MemorySink{}
	store := archive.NewMemoryStore()
	demoSeed, err := sign.DeriveServiceSeed(make([]byte, 32), "demo")
	if err != nil {
		fmt.Fprintf(errOut, "seed: %v\n", err)
		return 1
	}
	signer, err := sign.NewSignerFromSeed(demoSeed)
	if err != nil {
		fmt.Fprintf(errOut, "signer: %v\n", err)
		return 1
	}

	reg := registry.NewService(sink)
	exec := route.NewExecutor(signer, sink)
	exec.Register(route.VenueJupiter, route.StaticVenue{FeeBps: 100})
	exec.Register(route.VenueRaydium, route.StaticVenue{FeeBps: 200})
	exec.Register(route.VenueOrca, route.StaticVenue{FeeBps: 300})
	verifier := proof.NewVerifier(store, sink)
	sessions := rollup.NewManager(nil, signer, store, sink)

	owner := ident.Derive(ident.DomainTransaction, []byte("demo-owner"))
	inAsset := ident.Derive(ident.DomainTransaction, []byte("asset-in"))
	outAsset := ident.Derive(ident.DomainTransaction, []byte("asset-out"))

	if err := reg.InitProtection(owner); err != nil {
		fmt.Fprintf(errOut, "init protection: %v\n", err)
		return 1
	}
	txID, err := reg.SubmitTransaction(owner, inAsset, outAsset, *input, *minOutput)
	if err != nil {
		fmt.Fprintf(errOut, "submit: %v\n", err)
		return 1
	}
	fmt.Fprintf(out, "transaction: %s\n", txID)

	if err := reg.BeginSimulation(txID, owner); err != nil {
		fmt.Fprintf(errOut, "simulate: %v\n", err)
		return 1
	}
	if err := reg.UpdateRiskAnalysis(txID, owner, uint8(*risk), false); err != nil {
		fmt.Fprintf(errOut, "analyze: %v\n", err)
		return 1
	}

	options := []route.Option{
		{Venue: route.VenueJupiter, EstimatedOutput: *input - *input/100, RiskScore: 15, LiquidityDepth: 10 * *input},
		{Venue: route.VenueRaydium, EstimatedOutput: *input - *input/50, RiskScore: 5, LiquidityDepth: 4 * *input},
		{Venue: route.VenueOrca, EstimatedOutput: *input - 3*(*input)/100, RiskScore: 10, LiquidityDepth: 2 * *input},
	}
	sel, err := exec.Select(txID, options)
	if err != nil {
		fmt.Fprintf(errOut, "select: %v\n", err)
		return 1
	}
	fmt.Fprintf(out, "selected venue: %s (estimated output %d)\n", sel.Venue, sel.EstimatedOutput)

	if err := reg.BeginExecution(txID, owner, sel.Venue); err != nil {
		fmt.Fprintf(errOut, "begin execution: %v\n", err)
		return 1
	}
	receipt, err := exec.Execute(txID, sel.Venue, *input, *minOutput, nil)
	if err != nil {
		fmt.Fprintf(errOut, "execute: %v\n", err)
		return 1
	}
	fmt.Fprintf(out, "executed: output %d (impact %d bps)\n", receipt.OutputAmount, receipt.PriceImpactBps)

	fp, err := verifier.Generate(txID, options, sel.Venue, sel.Reasoning)
	if err != nil {
		fmt.Fprintf(errOut, "proof: %v\n", err)
		return 1
	}
	fmt.Fprintf(out, "proof fingerprint: %s\n", fp)
	fmt.Fprintf(out, "proof verifies: %v\n", verifier.Verify(txID, fp))

	sessID, err := sessions.Open(txID, owner)
	if err != nil {
		fmt.Fprintf(errOut, "open session: %v\n", err)
		return 1
	}
	if _, _, err := sessions.ExecuteInstruction(sessID, owner, []byte("settle")); err != nil {
		fmt.Fprintf(errOut, "session execute: %v\n", err)
		return 1
	}
	commit, err := sessions.Commit(sessID, owner)
	if err != nil {
		fmt.Fprintf(errOut, "commit: %v\n", err)
		return 1
	}
	fmt.Fprintf(out, "session commit: %s (%d instruction)\n", commit.Hash, commit.Instructions)

	if err := reg.CompleteTransaction(txID, owner, receipt.OutputAmount, fp); err != nil {
		fmt.Fprintf(errOut, "complete: %v\n", err)
		return 1
	}
	p, err := reg.Profile(owner)
	if err != nil {
		fmt.Fprintf(errOut, "profile: %v\n", err)
		return 1
	}
	fmt.Fprintf(out, "completed: savings %d, total transactions %d\n", p.TotalSavings, p.TotalTransactions)
	fmt.Fprintf(out, "events emitted: %d\n", len(sink.Events()))
	return 0
}
