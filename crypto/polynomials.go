package crypto

import "math/bits"

// The transform engine converts polynomials between coefficient form and
// evaluation form at the field's 2^k-th roots of unity in O(n log n), using
// an iterative radix-2 decimation-in-time butterfly network over exact
// modular arithmetic. The engine is the hot path of proof construction:
// interpolation through the measurement points and the f*g product both run
// through it.

// NextPowerOfTwo returns the smallest power of two >= n. n must be > 0.
func NextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(n-1))
}

// checkTransformLength validates that n is a supported transform size and
// returns log2(n).
func checkTransformLength(field *Field, n int) (int, error) {
	if n <= 0 || n&(n-1) != 0 {
		return 0, ErrUnsupportedLength
	}
	logN := bits.TrailingZeros(uint(n))
	if logN > field.numRoots {
		return 0, ErrUnsupportedLength
	}
	return logN, nil
}

// bitReverseCopy permutes in into a fresh slice by bit-reversed index.
func bitReverseCopy(in []Element, logN int) []Element {
	out := make([]Element, len(in))
	for i, v := range in {
		out[bits.Reverse32(uint32(i))>>(32-logN)] = v
	}
	return out
}

// transform runs the butterfly network over in (length a power of two)
// using w as the principal len(in)-th root of unity.
func transform(field *Field, in []Element, logN int, w Element) []Element {
	out := bitReverseCopy(in, logN)
	for s := 1; s <= logN; s++ {
		m := 1 << s
		// wm is a principal m-th root: w raised to n/m.
		wm := field.Pow(w, uint64(len(in)/m))
		for k := 0; k < len(out); k += m {
			wj := Element(1)
			for j := 0; j < m/2; j++ {
				t := field.Mul(wj, out[k+j+m/2])
				u := out[k+j]
				out[k+j] = field.Add(u, t)
				out[k+j+m/2] = field.Sub(u, t)
				wj = field.Mul(wj, wm)
			}
		}
	}
	return out
}

// ForwardTransform maps a coefficient vector to its evaluations at the
// 2^logN-th roots of unity. The input length must be a power of two no
// larger than the field's supported transform size; anything else fails
// with ErrUnsupportedLength. A length-1 input is returned as a copy.
func ForwardTransform(field *Field, coeffs []Element) ([]Element, error) {
	logN, err := checkTransformLength(field, len(coeffs))
	if err != nil {
		return nil, err
	}
	if logN == 0 {
		return []Element{coeffs[0]}, nil
	}
	w, _ := field.Root(logN)
	return transform(field, coeffs, logN, w), nil
}

// InverseTransform is the exact inverse of ForwardTransform: it maps
// evaluations at the 2^logN-th roots of unity back to coefficients. The
// round trip InverseTransform(ForwardTransform(p)) is the identity.
func InverseTransform(field *Field, evals []Element) ([]Element, error) {
	logN, err := checkTransformLength(field, len(evals))
	if err != nil {
		return nil, err
	}
	if logN == 0 {
		return []Element{evals[0]}, nil
	}
	w, _ := field.Root(logN)
	out := transform(field, evals, logN, field.mustInv(w))
	nInv := field.mustInv(field.NewElement(uint64(len(evals))))
	for i := range out {
		out[i] = field.Mul(out[i], nInv)
	}
	return out, nil
}

// MulPolynomials multiplies two coefficient-form polynomials by zero
// padding to a power of two covering the combined degree, transforming
// both, multiplying point-wise and transforming back. The result has
// len(a)+len(b)-1 coefficients. Fails with ErrUnsupportedLength when the
// padded size exceeds the field's transform capacity.
func MulPolynomials(field *Field, a, b []Element) ([]Element, error) {
	if len(a) == 0 || len(b) == 0 {
		return nil, ErrUnsupportedLength
	}
	outLen := len(a) + len(b) - 1
	n := NextPowerOfTwo(outLen)

	pa := make([]Element, n)
	copy(pa, a)
	pb := make([]Element, n)
	copy(pb, b)

	ea, err := ForwardTransform(field, pa)
	if err != nil {
		return nil, err
	}
	eb, err := ForwardTransform(field, pb)
	if err != nil {
		return nil, err
	}
	for i := range ea {
		ea[i] = field.Mul(ea[i], eb[i])
	}
	prod, err := InverseTransform(field, ea)
	if err != nil {
		return nil, err
	}
	return prod[:outLen], nil
}

// EvalPoly evaluates a coefficient-form polynomial at x by Horner's rule.
// The loop structure depends only on the polynomial length, never on
// coefficient values.
func EvalPoly(field *Field, coeffs []Element, x Element) Element {
	var acc Element
	for i := len(coeffs) - 1; i >= 0; i-- {
		acc = field.Add(field.Mul(acc, x), coeffs[i])
	}
	return acc
}
