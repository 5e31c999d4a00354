package protocol

import (
	"github.com/abetterinternet/prio-go/crypto"
)

// VerificationShare is one server's contribution to the proof check: its
// additive share of f, g and h evaluated at the challenge point, plus its
// share of the coordinate sum (used by the histogram predicate's
// exactly-one constraint). Each component is linear in the server's
// (data share, proof share) pair, so the two servers' contributions add up
// to the unshared evaluations.
//
// A verification share on its own is uniformly random and reveals nothing
// about the measurement.
type VerificationShare struct {
	FR  crypto.Element `json:"f_r"`
	GR  crypto.Element `json:"g_r"`
	HR  crypto.Element `json:"h_r"`
	Sum crypto.Element `json:"sum"`
}

// ChallengePoint derives the proof evaluation point from a verification
// seed. The derivation is deterministic, so both servers reach the same
// point from the shared seed without communicating. Points on the
// interpolation grid (the 2N-th roots of unity) and zero are skipped:
// there the proof identity holds by construction regardless of validity.
func (c *Config) ChallengePoint(seed []byte) (crypto.Element, error) {
	gen, err := crypto.NewGenerator(c.field, seed)
	if err != nil {
		return 0, err
	}
	gridOrder := uint64(2 * c.proofPoints())
	for {
		r, err := gen.Next()
		if err != nil {
			return 0, err
		}
		if r != 0 && c.field.Pow(r, gridOrder) != 1 {
			return r, nil
		}
	}
}

// GenerateVerificationShare evaluates the server's half of the proof
// identity at the challenge point r.
//
// The server rebuilds its additive share of the three polynomials' grid
// evaluations from its data and proof shares, interpolates them, and
// evaluates at r. The constant offsets of the predicate (the -1 in
// g = f - 1) are public, so exactly one server, the leader, folds them into
// its share; both folding them would cancel nothing and double the offset.
//
// Shares whose lengths are inconsistent with the configuration fail with
// ErrMalformedShare before any arithmetic.
func (c *Config) GenerateVerificationShare(dataShare, proofShare []crypto.Element, isLeader bool, r crypto.Element) (*VerificationShare, error) {
	if len(dataShare) != c.Dimension() {
		return nil, ErrMalformedShare
	}
	proof, err := c.unpackProof(proofShare)
	if err != nil {
		return nil, err
	}

	f := c.field
	n := c.proofPoints()

	pointsF := make([]crypto.Element, n)
	pointsG := make([]crypto.Element, n)
	pointsH := make([]crypto.Element, 2*n)
	pointsF[0] = proof.f0
	pointsG[0] = proof.g0
	pointsH[0] = proof.h0

	sum := crypto.Element(0)
	for i, d := range dataShare {
		pointsF[i+1] = d
		if isLeader {
			pointsG[i+1] = f.Sub(d, 1)
		} else {
			pointsG[i+1] = d
		}
		sum = f.Add(sum, d)
	}
	// h vanishes on the data grid for valid measurements, so the even
	// points past the first are an implicit zero in both servers' shares;
	// the odd points come from the proof.
	for i := 0; i < n; i++ {
		pointsH[2*i+1] = proof.pointsH[i]
	}

	coeffsF, err := crypto.InverseTransform(f, pointsF)
	if err != nil {
		return nil, err
	}
	coeffsG, err := crypto.InverseTransform(f, pointsG)
	if err != nil {
		return nil, err
	}
	coeffsH, err := crypto.InverseTransform(f, pointsH)
	if err != nil {
		return nil, err
	}

	return &VerificationShare{
		FR:  crypto.EvalPoly(f, coeffsF, r),
		GR:  crypto.EvalPoly(f, coeffsG, r),
		HR:  crypto.EvalPoly(f, coeffsH, r),
		Sum: sum,
	}, nil
}

// VerificationCheckValue combines the two servers' verification shares
// into the check element f(r)*g(r) - h(r). The combined value is the
// additive identity exactly when the shared proof identity holds at r.
func (c *Config) VerificationCheckValue(a, b *VerificationShare) crypto.Element {
	f := c.field
	fr := f.Add(a.FR, b.FR)
	gr := f.Add(a.GR, b.GR)
	hr := f.Add(a.HR, b.HR)
	return f.Sub(f.Mul(fr, gr), hr)
}

// CombineVerificationShares decides accept or reject for one measurement.
// Rejection is a protocol outcome, not an error: the combined check value
// is nonzero with overwhelming probability over the challenge point
// whenever the unshared measurement violates its predicate.
//
// For histograms the bit predicate alone would admit all-zero and
// multi-hot vectors, so the combined coordinate sum must additionally
// equal one.
func (c *Config) CombineVerificationShares(a, b *VerificationShare) bool {
	if c.VerificationCheckValue(a, b) != 0 {
		return false
	}
	if c.encoding == EncodingHistogram {
		return c.field.Add(a.Sum, b.Sum) == 1
	}
	return true
}
