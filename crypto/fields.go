package crypto

import (
	"encoding/binary"
	"math/bits"
)

// Element is a field element: a canonical residue in [0, p). Elements are
// plain values with no shared mutable state; all arithmetic goes through a
// Field, which carries the modulus and derived constants.
type Element uint64

// Field holds the parameters of GF(p) for a prime p such that p-1 is
// divisible by a large power of two. A Field is immutable after
// construction and safe for concurrent use.
type Field struct {
	p        uint64 // modulus
	mu       uint64 // floor(2^64 / p), Barrett reciprocal
	g        Element
	numRoots int
	// roots[l] is a principal 2^l-th root of unity, l in [0, numRoots].
	roots []Element
}

// Field32 is the protocol field GF(4293918721). The modulus is
// 2^32 - 2^20 + 1, so the multiplicative group has a subgroup of order 2^20
// generated by 3925978153. Field elements encode to 4 bytes.
var Field32 = NewField(4293918721, 3925978153, 20)

// NewField constructs the immutable parameter object for GF(p). generator
// must generate a multiplicative subgroup of order 2^numRoots. The
// parameters are public protocol constants; NewField panics on nonsense
// input (modulus too small or too large for the 32-bit encoding) rather
// than returning an error, since a bad field is a programming mistake, not
// a runtime condition.
func NewField(p uint64, generator uint64, numRoots int) *Field {
	if p < 2 || p > 1<<32 {
		panic("crypto: field modulus out of range")
	}
	mu, _ := bits.Div64(1, 0, p)
	f := &Field{
		p:        p,
		mu:       mu,
		g:        Element(generator),
		numRoots: numRoots,
		roots:    make([]Element, numRoots+1),
	}
	// roots[numRoots] is the generator itself; each step down squares it,
	// halving the order.
	f.roots[numRoots] = f.g
	for l := numRoots - 1; l >= 0; l-- {
		f.roots[l] = f.Mul(f.roots[l+1], f.roots[l+1])
	}
	if f.roots[0] != 1 {
		panic("crypto: generator order is not 2^numRoots")
	}
	return f
}

// Modulus returns the prime modulus p.
func (f *Field) Modulus() uint64 { return f.p }

// ElementSize returns the fixed byte width of an encoded field element.
func (f *Field) ElementSize() int { return 4 }

// NumRoots returns k such that the field supports transforms of length up
// to 2^k.
func (f *Field) NumRoots() int { return f.numRoots }

// Root returns a principal 2^l-th root of unity, and false when l exceeds
// the order of the field's power-of-two subgroup.
func (f *Field) Root(l int) (Element, bool) {
	if l < 0 || l > f.numRoots {
		return 0, false
	}
	return f.roots[l], true
}

// reduceOnce maps x in [0, 2p) to [0, p) without branching on the value.
func (f *Field) reduceOnce(x uint64) uint64 {
	t, borrow := bits.Sub64(x, f.p, 0)
	// borrow is 1 exactly when x < p; adding borrow*p undoes the subtract.
	return t + borrow*f.p
}

// reduce maps any 64-bit x to [0, p) using a Barrett reduction. The
// instruction sequence does not depend on the value of x.
func (f *Field) reduce(x uint64) uint64 {
	q, _ := bits.Mul64(x, f.mu)
	r := x - q*f.p
	return f.reduceOnce(f.reduceOnce(r))
}

// NewElement reduces an arbitrary integer into the field.
func (f *Field) NewElement(v uint64) Element {
	return Element(f.reduce(v))
}

// Add returns a + b mod p.
func (f *Field) Add(a, b Element) Element {
	return Element(f.reduceOnce(uint64(a) + uint64(b)))
}

// Sub returns a - b mod p.
func (f *Field) Sub(a, b Element) Element {
	return Element(f.reduceOnce(uint64(a) + f.p - uint64(b)))
}

// Neg returns -a mod p.
func (f *Field) Neg(a Element) Element {
	return Element(f.reduceOnce(f.p - uint64(a)))
}

// Mul returns a * b mod p. Both operands are below 2^32, so the full
// product fits a uint64 and a single Barrett step reduces it.
func (f *Field) Mul(a, b Element) Element {
	return Element(f.reduce(uint64(a) * uint64(b)))
}

// Pow returns a^exp mod p by square-and-multiply. The exponent is always a
// public quantity in this protocol (subgroup orders, p-2 for inversion), so
// iterating over its bits leaks nothing about measurements.
func (f *Field) Pow(a Element, exp uint64) Element {
	result := Element(1)
	base := a
	for e := exp; e != 0; e >>= 1 {
		if e&1 == 1 {
			result = f.Mul(result, base)
		}
		base = f.Mul(base, base)
	}
	return result
}

// Inv returns the multiplicative inverse a^-1 mod p, computed as a^(p-2).
// Inverting the additive identity fails with ErrDivisionByZero.
func (f *Field) Inv(a Element) (Element, error) {
	if a == 0 {
		return 0, ErrDivisionByZero
	}
	return f.Pow(a, f.p-2), nil
}

// mustInv inverts a value the caller guarantees to be nonzero, such as a
// root of unity or a transform length.
func (f *Field) mustInv(a Element) Element {
	inv, err := f.Inv(a)
	if err != nil {
		panic("crypto: inverse of zero")
	}
	return inv
}

// AppendElement appends the fixed-width big-endian encoding of e to dst.
func (f *Field) AppendElement(dst []byte, e Element) []byte {
	return binary.BigEndian.AppendUint32(dst, uint32(e))
}

// DecodeElement decodes a canonical big-endian field element from the first
// ElementSize bytes of b. It fails with ErrMalformedField when b is too
// short or encodes a value at or above the modulus.
func (f *Field) DecodeElement(b []byte) (Element, error) {
	if len(b) < f.ElementSize() {
		return 0, ErrMalformedField
	}
	v := uint64(binary.BigEndian.Uint32(b))
	if v >= f.p {
		return 0, ErrMalformedField
	}
	return Element(v), nil
}

// MergeVector adds other into acc component-wise. It fails with
// ErrInputSizeMismatch when the lengths differ, leaving acc untouched.
func (f *Field) MergeVector(acc, other []Element) error {
	if len(acc) != len(other) {
		return ErrInputSizeMismatch
	}
	for i := range acc {
		acc[i] = f.Add(acc[i], other[i])
	}
	return nil
}

// ReconstructShares adds two additive share vectors component-wise,
// recovering the shared vector.
func (f *Field) ReconstructShares(a, b []Element) ([]Element, error) {
	if len(a) != len(b) {
		return nil, ErrInputSizeMismatch
	}
	out := make([]Element, len(a))
	for i := range out {
		out[i] = f.Add(a[i], b[i])
	}
	return out, nil
}
