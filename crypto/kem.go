package crypto

import (
	"crypto/rand"
	"fmt"
	"slices"

	"golang.org/x/crypto/curve25519"
	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/sha3"
)

// SharedKey is a secret key shared out of band between protocol parties,
// for example the verification key the two aggregation servers agree on
// before a batch. Shared keys must carry at least 128 bits of entropy and
// are always run through a derivation step before use; they are never used
// as raw key material directly.
type SharedKey []byte

// NewSharedKey creates a SharedKey from a byte slice. The input is copied
// so later mutation of the caller's buffer cannot change the key.
func NewSharedKey(data []byte) SharedKey {
	sk := make([]byte, len(data))
	copy(sk, data)
	return SharedKey(sk)
}

// Bytes returns a copy of the shared key material.
func (sk SharedKey) Bytes() []byte {
	return slices.Clone(sk)
}

// KemPublicKey is an X25519 public key a client seals share payloads to.
type KemPublicKey [32]byte

// KemPrivateKey is an X25519 private key held by one aggregation server.
type KemPrivateKey [32]byte

// GenerateKemKeyPair generates a new X25519 key pair for payload sealing.
func GenerateKemKeyPair() (KemPublicKey, KemPrivateKey, error) {
	var privKey KemPrivateKey
	var pubKey KemPublicKey

	if _, err := rand.Read(privKey[:]); err != nil {
		return pubKey, privKey, err
	}

	curve25519.ScalarBaseMult((*[32]byte)(&pubKey), (*[32]byte)(&privKey))
	return pubKey, privKey, nil
}

// DeriveSharedSecret performs X25519 key agreement and expands the result
// through HKDF-SHA3 into a SharedKey bound to the given context info.
func DeriveSharedSecret(privateKey KemPrivateKey, publicKey KemPublicKey, info []byte) (SharedKey, error) {
	sharedPoint, err := curve25519.X25519(privateKey[:], publicKey[:])
	if err != nil {
		return nil, fmt.Errorf("X25519: %w", err)
	}

	kdf := hkdf.New(sha3.New256, sharedPoint, nil, info)
	secret := make([]byte, 32)
	if _, err := kdf.Read(secret); err != nil {
		return nil, err
	}

	return SharedKey(secret), nil
}
