package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"

	"golang.org/x/crypto/curve25519"
	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/sha3"
)

// SealedPayload contains an ECIES-sealed share payload. A client seals each
// server's (data share, proof share) packet to that server's KEM key so the
// transport, the aggregator and the other server only ever see ciphertext.
//
// Layout: ephemeral X25519 public key, AES-GCM nonce, ciphertext with tag.
type SealedPayload struct {
	EphemeralPublicKey []byte `json:"ephemeral_public_key"`
	Nonce              []byte `json:"nonce"`
	Ciphertext         []byte `json:"ciphertext"`
}

const sealInfo = "prio share payload v1"

// sealKey derives the AES-256-GCM key for one sealed payload from an
// X25519 shared point.
func sealKey(sharedPoint, ephemeralPub []byte) ([]byte, error) {
	kdf := hkdf.New(sha3.New256, sharedPoint, ephemeralPub, []byte(sealInfo))
	key := make([]byte, 32)
	if _, err := kdf.Read(key); err != nil {
		return nil, err
	}
	return key, nil
}

// Seal encrypts plaintext to a recipient's KEM public key using an
// ephemeral X25519 agreement and AES-256-GCM. The ephemeral public key is
// bound into both the KDF and the GCM additional data, so a payload cannot
// be re-attached to a different key.
func Seal(recipient KemPublicKey, plaintext []byte) (*SealedPayload, error) {
	var ephemeralPriv [32]byte
	if _, err := rand.Read(ephemeralPriv[:]); err != nil {
		return nil, fmt.Errorf("generate ephemeral key: %w", err)
	}
	var ephemeralPub [32]byte
	curve25519.ScalarBaseMult(&ephemeralPub, &ephemeralPriv)

	sharedPoint, err := curve25519.X25519(ephemeralPriv[:], recipient[:])
	if err != nil {
		return nil, fmt.Errorf("X25519: %w", err)
	}

	key, err := sealKey(sharedPoint, ephemeralPub[:])
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create GCM: %w", err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	ciphertext := gcm.Seal(nil, nonce, plaintext, ephemeralPub[:])

	return &SealedPayload{
		EphemeralPublicKey: ephemeralPub[:],
		Nonce:              nonce,
		Ciphertext:         ciphertext,
	}, nil
}

// Open decrypts a sealed payload using the recipient server's KEM private
// key. Tampered ciphertext, a wrong key or a mangled ephemeral key all fail
// authentication.
func Open(recipient KemPrivateKey, payload *SealedPayload) ([]byte, error) {
	if len(payload.EphemeralPublicKey) != 32 {
		return nil, errors.New("invalid ephemeral public key length")
	}

	sharedPoint, err := curve25519.X25519(recipient[:], payload.EphemeralPublicKey)
	if err != nil {
		return nil, fmt.Errorf("X25519: %w", err)
	}

	key, err := sealKey(sharedPoint, payload.EphemeralPublicKey)
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create GCM: %w", err)
	}
	if len(payload.Nonce) != gcm.NonceSize() {
		return nil, errors.New("invalid nonce length")
	}

	plaintext, err := gcm.Open(nil, payload.Nonce, payload.Ciphertext, payload.EphemeralPublicKey)
	if err != nil {
		return nil, fmt.Errorf("open payload: %w", err)
	}
	return plaintext, nil
}
