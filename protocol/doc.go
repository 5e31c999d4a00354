// Package protocol implements the two-server private aggregation protocol:
// the measurement encodings, the validity proof construction, the
// verification math and the wire formats.
//
// # Protocol flow
//
// A client holds a private measurement (a bounded integer, or a category
// selection). It encodes the measurement as a vector of field elements
// whose validity is certified by a fixed polynomial predicate, builds a
// proof vector witnessing that predicate, and additively secret-shares both
// vectors into two halves, one per aggregation server. Neither half alone
// carries any information about the measurement.
//
// Each server, given its (data share, proof share) pair and a shared
// verification seed, derives the same challenge point and evaluates its
// share of the proof identity there, producing a small verification share.
// A party allowed to see both verification shares combines them: the
// combined check value is the additive identity exactly when the original
// measurement was valid. A server alone can never decide accept or reject.
//
// Accepted data shares are summed per batch into an aggregate share; the
// two servers' aggregate shares combine into the batch statistic.
//
// # Proof construction
//
// For a measurement vector d of dimension dim, let N be the smallest power
// of two covering dim+1 points. The prover fixes a polynomial f through
// (r0, d[0], ..., d[dim-1]) at the N-th roots of unity, with r0 freshly
// random, and g = f - 1 alongside it. The product h = f*g vanishes at every
// data point exactly when each d[i] is 0 or 1; for one-hot vectors the
// combiner additionally checks that the coordinates sum to one, which is
// linear in the shares. The proof ships f(1), g(1), h(1) and h's evaluations at the
// odd 2N-th roots of unity, which is exactly enough for each server to
// rebuild its share of h and evaluate the identity f(r)*g(r) = h(r) at a
// random challenge r.
//
// The construction is pluggable behind the encoding type; both supported
// encodings (bit-decomposed sums and one-hot histograms) reduce validity to
// the "every coordinate is a bit" predicate above.
package protocol
