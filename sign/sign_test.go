package sign

import (
	"bytes"
	"crypto/rand"
	"testing"
)

func fixedSeed(b byte) []byte {
	seed := make([]byte, 32)
	for i := range seed {
		seed[i] = b
	}
	return seed
}

func TestSignVerify_RoundTrip(t *testing.T) {
	s, err := NewSignerFromSeed(fixedSeed(0x42))
	if err != nil {
		t.Fatalf("NewSignerFromSeed: %v", err)
	}
	msg := []byte("execution receipt payload")
	sig := s.Sign(msg)
	if !Verify(s.PublicKey(), msg, sig) {
		t.Fatalf("valid signature did not verify")
	}
	if Verify(s.PublicKey(), []byte("tampered"), sig) {
		t.Fatalf("signature verified over different message")
	}
	sig[0] ^= 0xFF
	if Verify(s.PublicKey(), msg, sig) {
		t.Fatalf("corrupted signature verified")
	}
}

func TestNewSignerFromSeed_RejectsBadSeed(t *testing.T) {
	if _, err := NewSignerFromSeed([]byte("short")); err == nil {
		t.Fatalf("expected error for short seed")
	}
}

func TestDeriveServiceSeed_DistinctPerService(t *testing.T) {
	root := fixedSeed(0x11)
	a, err := DeriveServiceSeed(root, "router")
	if err != nil {
		t.Fatalf("DeriveServiceSeed: %v", err)
	}
	b, err := DeriveServiceSeed(root, "rollup")
	if err != nil {
		t.Fatalf("DeriveServiceSeed: %v", err)
	}
	if bytes.Equal(a, b) {
		t.Fatalf("different services derived the same seed")
	}
	a2, _ := DeriveServiceSeed(root, "router")
	if !bytes.Equal(a, a2) {
		t.Fatalf("service seed derivation not deterministic")
	}
	if _, err := DeriveServiceSeed(root, ""); err == nil {
		t.Fatalf("expected error for empty service name")
	}
}

func TestDilithium3_RoundTrip(t *testing.T) {
	pub, priv, err := GenerateDilithium3Keypair(rand.Reader)
	if err != nil {
		t.Fatalf("GenerateDilithium3Keypair: %v", err)
	}
	msg := []byte("archived proof document")
	for _, alg := range []string{"sha256", "sha512", "sha3-256"} {
		sig, err := SignDilithium3(msg, alg, priv)
		if err != nil {
			t.Fatalf("SignDilithium3(%s): %v", alg, err)
		}
		ok, err := VerifyDilithium3(msg, alg, sig, pub)
		if err != nil {
			t.Fatalf("VerifyDilithium3(%s): %v", alg, err)
		}
		if !ok {
			t.Fatalf("dilithium3 signature did not verify under %s", alg)
		}
	}
	if _, err := SignDilithium3(msg, "md5", priv); err == nil {
		t.Fatalf("expected error for unsupported hash algorithm")
	}
}
