package grpcarchive

import (
	"context"
	"net"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"

	"zephyra.io/zephyra/archive"
)

func dialTestServer(t *testing.T, store archive.Store) *Client {
	t.Helper()

	lis := bufconn.Listen(1024 * 1024)
	srv := grpc.NewServer()
	RegisterArchiveServer(srv, &Server{Store: store})

	go func() {
		_ = srv.Serve(lis)
	}()
	t.Cleanup(srv.Stop)

	dialer := func(ctx context.Context, s string) (net.Conn, error) { return lis.Dial() }
	cc, err := grpc.DialContext(
		context.Background(),
		"bufnet",
		grpc.WithContextDialer(dialer),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("DialContext: %v", err)
	}
	t.Cleanup(func() { _ = cc.Close() })

	return &Client{cc: cc, client: NewArchiveClient(cc), Timeout: 2 * time.Second}
}

func TestArchive_LocalFS_RoundTrip(t *testing.T) {
	store, err := archive.NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}
	client := dialTestServer(t, store)

	payload := []byte("hello archive")
	id, err := client.Put(payload)
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if !id.Defined() {
		t.Fatalf("expected defined CID")
	}
	if !client.Has(id) {
		t.Fatalf("Has: expected true")
	}
	got, err := client.Get(id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != string(payload) {
		t.Fatalf("payload mismatch")
	}
}

func TestArchive_GetMissingMapsToNotFound(t *testing.T) {
	client := dialTestServer(t, archive.NewMemoryStore())

	id, err := archive.CIDFor([]byte("never stored"))
	if err != nil {
		t.Fatalf("CIDFor: %v", err)
	}
	if _, err := client.Get(id); !archive.IsNotFound(err) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if client.Has(id) {
		t.Fatalf("Has should be false for missing artifact")
	}
}
