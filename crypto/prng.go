package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/binary"
	"fmt"

	"golang.org/x/crypto/sha3"
)

// SeedLength is the byte width of a generator seed (an AES-128 key).
const SeedLength = 16

// Generator is a deterministic stream of field elements. It runs AES in
// counter mode under a fixed-width seed and slices the key stream into
// element-sized chunks, rejecting the rare chunk at or above the modulus so
// the output is uniform with no modulo bias.
//
// Determinism is load-bearing: both servers derive the verification
// challenge from the same seed and must arrive at the same point without
// communicating, so the same seed produces a byte-identical element
// sequence on every machine.
//
// A Generator owns its cipher state and must not be shared across
// goroutines.
type Generator struct {
	field   *Field
	block   cipher.Block
	counter uint64
	buf     [aes.BlockSize]byte
	used    int
}

// NewGenerator creates a deterministic generator over the given field,
// keyed by a SeedLength-byte seed.
func NewGenerator(field *Field, seed []byte) (*Generator, error) {
	if len(seed) != SeedLength {
		return nil, fmt.Errorf("seed must be %d bytes, got %d", SeedLength, len(seed))
	}
	block, err := aes.NewCipher(seed)
	if err != nil {
		return nil, fmt.Errorf("initialize seed cipher: %w", err)
	}
	return &Generator{
		field: field,
		block: block,
		used:  aes.BlockSize,
	}, nil
}

// NewRandomGenerator creates a generator keyed by a fresh seed from the
// operating system's entropy source. Clients use this for the private
// masking randomness, which must be independent of the servers' shared
// verification seed.
func NewRandomGenerator(field *Field) (*Generator, error) {
	seed, err := NewSeed()
	if err != nil {
		return nil, err
	}
	return NewGenerator(field, seed)
}

// NewSeed returns a fresh SeedLength-byte seed from the operating system's
// entropy source.
func NewSeed() ([]byte, error) {
	seed := make([]byte, SeedLength)
	if _, err := rand.Read(seed); err != nil {
		return nil, fmt.Errorf("read seed entropy: %w", err)
	}
	return seed, nil
}

// refill encrypts the next counter block into the chunk buffer.
func (g *Generator) refill() error {
	var counterBlock [aes.BlockSize]byte
	binary.BigEndian.PutUint64(counterBlock[8:], g.counter)
	g.counter++
	if g.counter == 0 {
		return ErrRandomnessExhausted
	}
	g.block.Encrypt(g.buf[:], counterBlock[:])
	g.used = 0
	return nil
}

// nextChunk returns the next element-sized chunk of the key stream.
func (g *Generator) nextChunk() (uint64, error) {
	size := g.field.ElementSize()
	if g.used+size > aes.BlockSize {
		if err := g.refill(); err != nil {
			return 0, err
		}
	}
	chunk := uint64(binary.BigEndian.Uint32(g.buf[g.used:]))
	g.used += size
	return chunk, nil
}

// Next returns the next field element of the stream. Chunks at or above
// the modulus are discarded and the following chunk is used instead, so
// every residue is equally likely.
func (g *Generator) Next() (Element, error) {
	for {
		chunk, err := g.nextChunk()
		if err != nil {
			return 0, err
		}
		if chunk < g.field.p {
			return Element(chunk), nil
		}
	}
}

// NextN returns the next n field elements of the stream.
func (g *Generator) NextN(n int) ([]Element, error) {
	out := make([]Element, n)
	for i := range out {
		e, err := g.Next()
		if err != nil {
			return nil, err
		}
		out[i] = e
	}
	return out, nil
}

// SplitVector additively secret-shares v into two vectors that sum to v
// component-wise. The second share is drawn from the generator's stream;
// neither share alone carries any information about v.
func (g *Generator) SplitVector(v []Element) ([]Element, []Element, error) {
	shareA := make([]Element, len(v))
	shareB, err := g.NextN(len(v))
	if err != nil {
		return nil, nil, err
	}
	for i := range v {
		shareA[i] = g.field.Sub(v[i], shareB[i])
	}
	return shareA, shareB, nil
}

// DeriveChallengeSeed derives the per-instance verification seed from the
// out-of-band shared key and an instance nonce. Both servers apply the same
// derivation, so they key identical generators without communicating. The
// nonce binds the challenge to one verification instance; reusing it across
// instances would reuse the challenge point.
func DeriveChallengeSeed(sharedKey SharedKey, nonce []byte) []byte {
	h := sha3.New256()
	h.Write(sharedKey.Bytes())
	h.Write(nonce)
	return h.Sum(nil)[:SeedLength]
}
