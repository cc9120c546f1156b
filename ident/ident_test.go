package ident

import "testing"

func TestDerive_Deterministic(t *testing.T) {
	a := Derive(DomainTransaction, []byte("owner"), []byte("in"), []byte("out"), U64(1_000_000), I64(1700000000))
	b := Derive(DomainTransaction, []byte("owner"), []byte("in"), []byte("out"), U64(1_000_000), I64(1700000000))
	if a != b {
		t.Fatalf("same parts produced different identifiers: %s vs %s", a, b)
	}
}

func TestDerive_DomainSeparation(t *testing.T) {
	parts := [][]byte{[]byte("owner"), U64(42)}
	domains := []Domain{DomainTransaction, DomainBatch, DomainProof, DomainSession, DomainCommit, DomainBatchSeal}
	seen := map[ID]Domain{}
	for _, d := range domains {
		id := Derive(d, parts...)
		if prev, dup := seen[id]; dup {
			t.Fatalf("domains %q and %q collided on identical parts", prev, d)
		}
		seen[id] = d
	}
}

func TestDerive_PartBoundariesMatter(t *testing.T) {
	a := Derive(DomainTransaction, []byte("ab"), []byte("c"))
	b := Derive(DomainTransaction, []byte("a"), []byte("bc"))
	if a == b {
		t.Fatalf("length prefixing failed: shifted part boundary produced the same identifier")
	}
}

func TestDerive_EmptyAndShortInputs(t *testing.T) {
	// Must not panic and must still separate.
	a := Derive(DomainBatch)
	b := Derive(DomainBatch, nil)
	c := Derive(DomainBatch, []byte{})
	if a == b {
		t.Fatalf("zero parts and one empty part should differ")
	}
	if b != c {
		t.Fatalf("nil part and empty part should encode identically")
	}
}

func TestFromBytes_ZeroPadsShortInput(t *testing.T) {
	id, err := FromBytes([]byte{1, 2, 3})
	if err != nil {
		t.Fatalf("FromBytes: %v", err)
	}
	if id[0] != 1 || id[3] != 0 || id[31] != 0 {
		t.Fatalf("short input not zero-padded: %v", id)
	}
	if _, err := FromBytes(make([]byte, Size+1)); err == nil {
		t.Fatalf("expected error for oversized input")
	}
}

func TestStringDecode_RoundTrip(t *testing.T) {
	id := Derive(DomainProof, []byte("tx"))
	got, err := Decode(id.String())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got != id {
		t.Fatalf("round trip mismatch: %s vs %s", got, id)
	}
	if _, err := Decode("not-base58-!!"); err == nil {
		t.Fatalf("expected error for invalid text")
	}
}

func TestIsZero(t *testing.T) {
	var zero ID
	if !zero.IsZero() {
		t.Fatalf("zero value should report IsZero")
	}
	if Derive(DomainTransaction, []byte("x")).IsZero() {
		t.Fatalf("derived identifier should not be zero")
	}
}
