package archive_test

import (
	"testing"

	"zephyra.io/zephyra/archive"
	"zephyra.io/zephyra/archive/testkit"
)

func TestMemoryStore_Conformance(t *testing.T) {
	testkit.RunConformance(t, func(t *testing.T) archive.Store {
		return archive.NewMemoryStore()
	})
}

func TestLocalStore_Conformance(t *testing.T) {
	testkit.RunConformance(t, func(t *testing.T) archive.Store {
		store, err := archive.NewLocalStore(t.TempDir())
		if err != nil {
			t.Fatalf("NewLocalStore: %v", err)
		}
		return store
	})
}

func TestReplicatingStore_Conformance(t *testing.T) {
	testkit.RunConformance(t, func(t *testing.T) archive.Store {
		local, err := archive.NewLocalStore(t.TempDir())
		if err != nil {
			t.Fatalf("NewLocalStore: %v", err)
		}
		return archive.ReplicatingStore{Backends: []archive.NamedStore{
			{Name: "mem", Store: archive.NewMemoryStore()},
			{Name: "local", Store: local},
		}}
	})
}

func TestReplicatingStore_PutAllWritesEveryBackend(t *testing.T) {
	a := archive.NewMemoryStore()
	b := archive.NewMemoryStore()
	rep := archive.ReplicatingStore{Backends: []archive.NamedStore{
		{Name: "a", Store: a},
		{Name: "b", Store: b},
	}}

	payload := []byte("replicated artifact")
	id, perBackend, err := rep.PutAll(payload)
	if err != nil {
		t.Fatalf("PutAll: %v", err)
	}
	if len(perBackend) != 2 {
		t.Fatalf("expected 2 backend CIDs, got %d", len(perBackend))
	}
	if !a.Has(id) || !b.Has(id) {
		t.Fatalf("artifact missing from a backend after PutAll")
	}
}

func TestReplicatingStore_ReadFallsBack(t *testing.T) {
	empty := archive.NewMemoryStore()
	full := archive.NewMemoryStore()
	payload := []byte("only in second backend")
	id, err := full.Put(payload)
	if err != nil {
		t.Fatalf("Put: %v", err)
	}

	rep := archive.ReplicatingStore{Backends: []archive.NamedStore{
		{Name: "empty", Store: empty},
		{Name: "full", Store: full},
	}}
	got, err := rep.Get(id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != string(payload) {
		t.Fatalf("payload mismatch")
	}
}
