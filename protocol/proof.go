package protocol

import (
	"github.com/abetterinternet/prio-go/crypto"
)

// Proof vector layout: f(1) || g(1) || h(1) || h at the odd 2N-th roots of
// unity. Together with the data share, this is exactly enough for a server
// to rebuild its additive share of all three polynomials.

// unpackedProof is a view over a proof vector's subcomponents.
type unpackedProof struct {
	f0      crypto.Element
	g0      crypto.Element
	h0      crypto.Element
	pointsH []crypto.Element
}

// unpackProof validates the proof vector's shape for this configuration
// and splits it into its subcomponents.
func (c *Config) unpackProof(proof []crypto.Element) (*unpackedProof, error) {
	if len(proof) != c.ProofLength() {
		return nil, ErrMalformedShare
	}
	return &unpackedProof{
		f0:      proof[0],
		g0:      proof[1],
		h0:      proof[2],
		pointsH: proof[3:],
	}, nil
}

// BuildProof constructs the validity proof for a measurement vector.
//
// The prover interpolates f through (r0, data...) at the N-th roots of
// unity, where r0 is fresh randomness from the client's private generator,
// and g = f - 1 through the corresponding points. h = f*g is computed by
// evaluating both factors at the 2N-th roots and multiplying point-wise;
// its odd-indexed evaluations are shipped in the proof. For a valid
// measurement h vanishes on the data grid, which is what verification
// checks.
//
// r0 masks the polynomials so that a single server's view of f(r), g(r),
// h(r) is uniform; without it the verification shares would leak a linear
// function of the measurement.
func (c *Config) BuildProof(data []crypto.Element, gen *crypto.Generator) ([]crypto.Element, error) {
	if len(data) != c.Dimension() {
		return nil, ErrMalformedShare
	}
	f := c.field
	n := c.proofPoints()

	r0, err := gen.Next()
	if err != nil {
		return nil, err
	}

	pointsF := make([]crypto.Element, n)
	pointsG := make([]crypto.Element, n)
	pointsF[0] = r0
	pointsG[0] = f.Sub(r0, 1)
	for i, d := range data {
		pointsF[i+1] = d
		pointsG[i+1] = f.Sub(d, 1)
	}

	coeffsF, err := crypto.InverseTransform(f, pointsF)
	if err != nil {
		return nil, err
	}
	coeffsG, err := crypto.InverseTransform(f, pointsG)
	if err != nil {
		return nil, err
	}

	paddedF := make([]crypto.Element, 2*n)
	copy(paddedF, coeffsF)
	paddedG := make([]crypto.Element, 2*n)
	copy(paddedG, coeffsG)

	evalsF, err := crypto.ForwardTransform(f, paddedF)
	if err != nil {
		return nil, err
	}
	evalsG, err := crypto.ForwardTransform(f, paddedG)
	if err != nil {
		return nil, err
	}

	proof := make([]crypto.Element, c.ProofLength())
	proof[0] = pointsF[0]
	proof[1] = pointsG[0]
	proof[2] = f.Mul(pointsF[0], pointsG[0])
	for i := 0; i < n; i++ {
		proof[3+i] = f.Mul(evalsF[2*i+1], evalsG[2*i+1])
	}
	return proof, nil
}
