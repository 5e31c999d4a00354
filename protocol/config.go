package protocol

import (
	"fmt"

	"github.com/abetterinternet/prio-go/crypto"
)

// EncodingType selects the measurement encoding and, with it, the validity
// predicate the proof certifies.
type EncodingType uint8

const (
	// EncodingSum encodes a bounded integer as its little-endian bit
	// decomposition; aggregates reconstruct the sum of all measurements.
	EncodingSum EncodingType = 1

	// EncodingHistogram encodes a category choice as a one-hot vector;
	// aggregates reconstruct per-bucket counts.
	EncodingHistogram EncodingType = 2
)

// MaxSumBits bounds the bit width of a sum encoding.
const MaxSumBits = 32

// MaxHistogramBuckets bounds the bucket count of a histogram encoding.
// The proof needs transforms of twice the padded dimension, which must fit
// the field's power-of-two subgroup.
const MaxHistogramBuckets = 1<<19 - 1

// Config describes one encoding instance: the encoding type, its size
// parameter and the field everything is computed over. A Config is
// immutable after construction; a client and both servers of a protocol
// run must hold identical configurations.
type Config struct {
	encoding EncodingType
	size     int
	field    *crypto.Field
}

// NewSumConfig creates the configuration for summing integers of the given
// bit width.
func NewSumConfig(bits int) (*Config, error) {
	if bits < 1 || bits > MaxSumBits {
		return nil, fmt.Errorf("sum bit width must be in [1, %d], got %d", MaxSumBits, bits)
	}
	return &Config{encoding: EncodingSum, size: bits, field: crypto.Field32}, nil
}

// NewHistogramConfig creates the configuration for counting categorical
// measurements over the given number of buckets.
func NewHistogramConfig(buckets int) (*Config, error) {
	if buckets < 1 || buckets > MaxHistogramBuckets {
		return nil, fmt.Errorf("histogram bucket count must be in [1, %d], got %d", MaxHistogramBuckets, buckets)
	}
	return &Config{encoding: EncodingHistogram, size: buckets, field: crypto.Field32}, nil
}

// Encoding returns the configured encoding type.
func (c *Config) Encoding() EncodingType { return c.encoding }

// Size returns the encoding's size parameter: the bit width for sums, the
// bucket count for histograms.
func (c *Config) Size() int { return c.size }

// Field returns the field all protocol arithmetic runs over.
func (c *Config) Field() *crypto.Field { return c.field }

// Dimension returns the length of the measurement vector.
func (c *Config) Dimension() int { return c.size }

// proofPoints returns N, the number of interpolation points for the proof
// polynomials: the smallest power of two covering the measurement vector
// plus the random leading point.
func (c *Config) proofPoints() int {
	return crypto.NextPowerOfTwo(c.Dimension() + 1)
}

// ProofLength returns the length of the proof vector: the three zeroth
// points f(1), g(1), h(1) followed by h's N off-grid evaluations.
func (c *Config) ProofLength() int {
	return 3 + c.proofPoints()
}

// Equal reports whether two configurations describe the same protocol
// instance.
func (c *Config) Equal(other *Config) bool {
	return other != nil && c.encoding == other.encoding && c.size == other.size
}
