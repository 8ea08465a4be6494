// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package transcript implements the scalar utilities and Fiat-Shamir
// transcript derivation shared by the GIPA, KZG, and aggregation prover
// components: structured scalar powers, the polynomial induced by a GIPA
// challenge transcript (in both expanded and product-evaluation form), and
// the SHA-256-based challenge retry loop used at every derivation site.
package transcript

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"

	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"github.com/holiman/uint256"
)

// ErrShortDigest is a programmer error: callers must always pass at least
// 16 bytes (a SHA-256 digest is 32).
var ErrShortDigest = errors.New("transcript: need at least 16 bytes to derive an Fr element")

// StructuredScalarPower returns [1, r, r^2, ..., r^(n-1)].
func StructuredScalarPower(n int, r *fr.Element) []fr.Element {
	out := make([]fr.Element, n)
	if n == 0 {
		return out
	}
	out[0].SetOne()
	for i := 1; i < n; i++ {
		out[i].Mul(&out[i-1], r)
	}
	return out
}

// InvertAll returns the pointwise inverse of every element. Every input
// must be non-zero; this is a prover-side invariant, not a user error.
func InvertAll(values []fr.Element) []fr.Element {
	out := make([]fr.Element, len(values))
	for i := range values {
		if values[i].IsZero() {
			panic("transcript: cannot invert zero field element")
		}
		out[i].Inverse(&values[i])
	}
	return out
}

// FrFromU128 interprets the first 16 bytes of b as a big-endian unsigned
// 128-bit integer and canonicalizes it into Fr. Since 2^128 < the BLS12-381
// scalar field modulus, this is a direct embedding, not a reduction. The
// 128-bit value is staged through a fixed-width uint256.Int and handed to
// SetBigInt via ToBig, which allocates one big.Int per call.
func FrFromU128(b []byte) fr.Element {
	if len(b) < 16 {
		panic(ErrShortDigest)
	}
	var staged uint256.Int
	staged.SetBytes(b[:16])

	var z fr.Element
	z.SetBigInt(staged.ToBig())
	return z
}

// PolynomialCoefficientsFromTranscript computes, in O(2^l) time, the dense
// coefficient vector (low degree first) of
//
//	prod_{j=0}^{l-1} (1 + x_{l-j} * (r*X)^(2^j))
//
// by doubling: c_i = c_{i-1} || (x_i * r^(2^i) * c_{i-1}), r := r^2.
func PolynomialCoefficientsFromTranscript(transcript []fr.Element, rShift fr.Element) []fr.Element {
	coeffs := make([]fr.Element, 1, 1<<uint(len(transcript)))
	coeffs[0].SetOne()
	power2r := rShift

	for _, x := range transcript {
		base := len(coeffs)
		var xr fr.Element
		xr.Mul(&x, &power2r)
		for j := 0; j < base; j++ {
			var c fr.Element
			c.Mul(&coeffs[j], &xr)
			coeffs = append(coeffs, c)
		}
		power2r.Square(&power2r)
	}
	return coeffs
}

// PolynomialEvaluationProductFormFromTranscript evaluates the same
// polynomial as PolynomialCoefficientsFromTranscript at z, in O(l) time via
// iterated squaring of z*r_shift. transcript must be non-empty.
func PolynomialEvaluationProductFormFromTranscript(transcript []fr.Element, z, rShift fr.Element) fr.Element {
	var power2zr fr.Element
	power2zr.Mul(&z, &rShift)

	var res, term fr.Element
	res.Mul(&transcript[0], &power2zr)
	res.Add(&res, one())
	power2zr.Square(&power2zr)

	for _, x := range transcript[1:] {
		term.Mul(&x, &power2zr)
		term.Add(&term, one())
		res.Mul(&res, &term)
		power2zr.Square(&power2zr)
	}
	return res
}

func one() *fr.Element {
	var o fr.Element
	o.SetOne()
	return &o
}

// HashInputFunc builds the bytes to hash for a given retry counter. The
// transcript prefix it writes must be identical across every counter value;
// only the encoded counter itself changes.
type HashInputFunc func(counter uint64) []byte

// DeriveFull derives a Fiat-Shamir challenge by SHA-256-hashing the
// transcript-prefix produced by build and reducing the full digest into Fr
// (the "full-width" path used for the aggregator's r and the KZG challenge
// point z). Since Fr is a prime field every non-zero element is invertible,
// so the only retry condition is a zero digest.
func DeriveFull(build HashInputFunc) fr.Element {
	var counter uint64
	for {
		digest := sha256.Sum256(build(counter))
		var c fr.Element
		c.SetBytes(digest[:])
		if !c.IsZero() {
			return c
		}
		counter++
	}
}

// DeriveRoundChallenge derives a GIPA-round challenge pair via the
// 128-bit-truncation path. Per the scheme's deliberate role swap, c_inv is
// bound directly to the (128-bit-bounded) digest and c to its inverse, so
// that c_inv is the cheaper scalar to multiply into the G2/Fr side of a
// fold.
func DeriveRoundChallenge(build HashInputFunc) (c, cInv fr.Element) {
	var counter uint64
	for {
		digest := sha256.Sum256(build(counter))
		cInv = FrFromU128(digest[:16])
		if !cInv.IsZero() {
			c.Inverse(&cInv)
			return c, cInv
		}
		counter++
	}
}

// EncodeCounter returns the big-endian 8-byte encoding of n, matching the
// be(n) prefix used at every Fiat-Shamir derivation site.
func EncodeCounter(n uint64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], n)
	return buf[:]
}
