package protocol

import (
	"fmt"

	"github.com/abetterinternet/prio-go/crypto"
)

// EncodeMeasurement turns an application value into the measurement vector
// for this configuration.
//
// For EncodingSum the value is decomposed into its little-endian bits; a
// value needing more than the configured width fails with
// ErrValueOutOfRange. For EncodingHistogram the value is a category index
// turned into a one-hot vector; an index at or beyond the bucket count
// fails with ErrValueOutOfRange.
func (c *Config) EncodeMeasurement(value uint64) ([]crypto.Element, error) {
	data := make([]crypto.Element, c.Dimension())
	switch c.encoding {
	case EncodingSum:
		if c.size < 64 && value>>uint(c.size) != 0 {
			return nil, fmt.Errorf("%w: %d does not fit %d bits", ErrValueOutOfRange, value, c.size)
		}
		for i := range data {
			data[i] = crypto.Element((value >> uint(i)) & 1)
		}
	case EncodingHistogram:
		if value >= uint64(c.size) {
			return nil, fmt.Errorf("%w: category %d with %d buckets", ErrValueOutOfRange, value, c.size)
		}
		data[value] = 1
	default:
		return nil, fmt.Errorf("unknown encoding type %d", c.encoding)
	}
	return data, nil
}

// DecodeAggregate interprets a reconstructed vector of per-coordinate
// totals as the batch statistic.
//
// For EncodingSum the result is a single value, the sum of all clients'
// integers. For EncodingHistogram the result is one count per bucket. The
// totals live in the field, so the statistic is exact only while it stays
// below the modulus.
func (c *Config) DecodeAggregate(totals []crypto.Element) ([]uint64, error) {
	if len(totals) != c.Dimension() {
		return nil, ErrMalformedShare
	}
	switch c.encoding {
	case EncodingSum:
		sum := crypto.Element(0)
		weight := crypto.Element(1)
		two := c.field.NewElement(2)
		for _, t := range totals {
			sum = c.field.Add(sum, c.field.Mul(weight, t))
			weight = c.field.Mul(weight, two)
		}
		return []uint64{uint64(sum)}, nil
	case EncodingHistogram:
		counts := make([]uint64, len(totals))
		for i, t := range totals {
			counts[i] = uint64(t)
		}
		return counts, nil
	default:
		return nil, fmt.Errorf("unknown encoding type %d", c.encoding)
	}
}
