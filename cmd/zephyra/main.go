// Command zephyra is the protection-workflow CLI: it derives record
// identifiers, computes archive CIDs and runs a full protected-transaction
// demo against in-memory components.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"zephyra.io/zephyra/archive"
	"zephyra.io/zephyra/ident"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		printUsage(errOut)
		return 2
	}

	switch args[0] {
	case "demo":
		return cmdDemo(args[1:], out, errOut)
	case "derive-id":
		return cmdDeriveID(args[1:], out, errOut)
	case "doc-cid":
		return cmdDocCID(args[1:], out, errOut)
	case "help", "-h", "--help":
		printUsage(out)
		return 0
	default:
		fmt.Fprintf(errOut, "unknown command: %s\n\n", args[0])
		printUsage(errOut)
		return 2
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "zephyra: protected-transaction workflow CLI")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  zephyra demo [--input <amount>] [--min-output <amount>] [--risk <0-100>]")
	fmt.Fprintln(w, "  zephyra derive-id --domain <tag> <part> [<part> ...]")
	fmt.Fprintln(w, "  zephyra doc-cid <file>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Notes:")
	fmt.Fprintln(w, "  - demo runs submit/analyze/select/execute/prove/complete in memory")
	fmt.Fprintln(w, "  - derive-id domains: transaction, batch, batch-seal, proof, session, commit, execution")
	fmt.Fprintln(w, "  - doc-cid prints the content address the archive would assign the file")
}

func cmdDeriveID(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("derive-id", flag.ContinueOnError)
	fs.SetOutput(errOut)
	domain := fs.String("domain", "transaction", "identifier namespace tag")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(errOut, "usage: zephyra derive-id --domain <tag> <part> [<part> ...]")
		return 2
	}
	tag, ok := domainTag(*domain)
	if !ok {
		fmt.Fprintf(errOut, "unknown domain: %s\n", *domain)
		return 2
	}
	parts := make([][]byte, 0, fs.NArg())
	for _, a := range fs.Args() {
		parts = append(parts, []byte(a))
	}
	fmt.Fprintln(out, ident.Derive(tag, parts...))
	return 0
}

func domainTag(name string) (ident.Domain, bool) {
	switch name {
	case "transaction":
		return ident.DomainTransaction, true
	case "batch":
		return ident.DomainBatch, true
	case "batch-seal":
		return ident.DomainBatchSeal, true
	case "proof":
		return ident.DomainProof, true
	case "session":
		return ident.DomainSession, true
	case "commit":
		return ident.DomainCommit, true
	case "execution":
		return ident.DomainExecution, true
	default:
		return "", false
	}
}

func cmdDocCID(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("doc-cid", flag.ContinueOnError)
	fs.SetOutput(errOut)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: zephyra doc-cid <file>")
		return 2
	}
	b, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(errOut, "read file: %v\n", err)
		return 1
	}
	c, err := archive.CIDFor(b)
	if err != nil {
		fmt.Fprintf(errOut, "cid: %v\n", err)
		return 1
	}
	fmt.Fprintln(out, c)
	return 0
}
