// Package sign provides the signature schemes used for execution receipts,
// rollup commit proofs, and archived proof documents.
//
// Execution and commit signatures are ed25519 over sha256(message): exactly
// 64 bytes, matching the fixed signature width stored in records. Archived
// documents may additionally carry a Dilithium3 attestation for long-lived
// audit trails.
package sign

import (
	"crypto/ed25519"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"github.com/cloudflare/circl/sign/dilithium/mode3"
	"golang.org/x/crypto/sha3"
)

// SignatureSize is the width of every stored signature.
const SignatureSize = ed25519.SignatureSize

// Signature is a fixed-width ed25519 signature over sha256(message).
type Signature [SignatureSize]byte

func digestFor(hashAlg string, message []byte) ([]byte, error) {
	switch hashAlg {
	case "sha256":
		s := sha256.Sum256(message)
		return s[:], nil
	case "sha512":
		s := sha512.Sum512(message)
		return s[:], nil
	case "sha3-256":
		s := sha3.Sum256(message)
		return s[:], nil
	default:
		return nil, fmt.Errorf("sign: unsupported hash algorithm %q", hashAlg)
	}
}

// Signer signs on behalf of one service identity.
type Signer struct {
	priv ed25519.PrivateKey
}

// NewSignerFromSeed builds a Signer from a 32-byte ed25519 seed.
func NewSignerFromSeed(seed []byte) (*Signer, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("sign: seed must be %d bytes", ed25519.SeedSize)
	}
	return &Signer{priv: ed25519.NewKeyFromSeed(seed)}, nil
}

// DeriveServiceSeed deterministically derives a service-specific seed from a
// root seed, so each component signs under its own key.
func DeriveServiceSeed(rootSeed []byte, service string) ([]byte, error) {
	if len(rootSeed) != ed25519.SeedSize {
		return nil, fmt.Errorf("sign: root seed must be %d bytes", ed25519.SeedSize)
	}
	if service == "" {
		return nil, errors.New("sign: service name is required")
	}

	h := sha256.New()
	_, _ = h.Write(rootSeed)
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte("zephyra-service-key-v1"))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte("service:"))
	_, _ = h.Write([]byte(service))
	sum := h.Sum(nil)
	out := make([]byte, ed25519.SeedSize)
	copy(out, sum[:ed25519.SeedSize])
	return out, nil
}

// PublicKey returns the signer's verification key.
func (s *Signer) PublicKey() ed25519.PublicKey {
	return s.priv.Public().(ed25519.PublicKey)
}

// Sign returns the fixed-width signature over sha256(message).
func (s *Signer) Sign(message []byte) Signature {
	digest := sha256.Sum256(message)
	raw := ed25519.Sign(s.priv, digest[:])
	var sig Signature
	copy(sig[:], raw)
	return sig
}

// Verify reports whether sig is a valid signature over sha256(message) by pub.
func Verify(pub ed25519.PublicKey, message []byte, sig Signature) bool {
	if len(pub) != ed25519.PublicKeySize {
		return false
	}
	digest := sha256.Sum256(message)
	return ed25519.Verify(pub, digest[:], sig[:])
}

// SignDilithium3 returns a base64 dilithium3 signature over hash(message).
// hashAlg must be one of: sha256, sha512, sha3-256.
func SignDilithium3(message []byte, hashAlg string, privateKey *mode3.PrivateKey) (string, error) {
	if privateKey == nil {
		return "", errors.New("sign: missing private key")
	}
	digest, err := digestFor(hashAlg, message)
	if err != nil {
		return "", err
	}
	sig := make([]byte, mode3.SignatureSize)
	mode3.SignTo(privateKey, digest, sig)
	return base64.StdEncoding.EncodeToString(sig), nil
}

// VerifyDilithium3 verifies a base64 dilithium3 signature produced by SignDilithium3.
func VerifyDilithium3(message []byte, hashAlg, sigB64 string, publicKey *mode3.PublicKey) (bool, error) {
	if publicKey == nil {
		return false, errors.New("sign: missing public key")
	}
	digest, err := digestFor(hashAlg, message)
	if err != nil {
		return false, err
	}
	sig, err := base64.StdEncoding.DecodeString(sigB64)
	if err != nil {
		return false, fmt.Errorf("sign: invalid signature encoding: %w", err)
	}
	return mode3.Verify(publicKey, digest, sig), nil
}

// GenerateDilithium3Keypair returns a new Dilithium3 keypair.
func GenerateDilithium3Keypair(rand io.Reader) (*mode3.PublicKey, *mode3.PrivateKey, error) {
	return mode3.GenerateKey(rand)
}
