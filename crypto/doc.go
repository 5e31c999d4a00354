// Package crypto provides the cryptographic primitives for the private
// statistics aggregation protocol.
//
// This package implements the low-level operations the protocol layer is
// built on:
//
//   - Finite field arithmetic over a fixed prime modulus chosen so that the
//     multiplicative group contains a large power-of-two subgroup
//   - Fast polynomial transforms (radix-2 FFT over the field's roots of
//     unity) for efficient interpolation and multiplication of proof
//     polynomials
//   - A deterministic AES-CTR based pseudorandom generator that maps a
//     fixed-width seed to a reproducible stream of field elements
//   - Key encapsulation (X25519) for deriving per-server shared secrets
//   - Authenticated payload sealing (ECIES) so share blobs can cross an
//     untrusted transport
//
// Field and transform operations avoid secret-dependent branches and
// secret-indexed table lookups; the measurement must not leak through
// timing.
//
// The field modulus, generator and root-of-unity table live in an immutable
// Field object constructed once at package initialization. All operations
// take the Field explicitly; there is no hidden mutable global state.
package crypto
