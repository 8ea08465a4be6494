// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package transcript

import (
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"github.com/stretchr/testify/require"
)

func TestStructuredScalarPower(t *testing.T) {
	var r fr.Element
	r.SetUint64(3)

	powers := StructuredScalarPower(5, &r)
	require.Len(t, powers, 5)

	var expect fr.Element
	expect.SetOne()
	for i, p := range powers {
		require.True(t, p.Equal(&expect), "power %d mismatch", i)
		expect.Mul(&expect, &r)
	}
}

func TestFrFromU128Deterministic(t *testing.T) {
	digest := make([]byte, 32)
	for i := range digest {
		digest[i] = byte(i)
	}
	a := FrFromU128(digest)
	b := FrFromU128(digest)
	require.True(t, a.Equal(&b))

	// Only the first 16 bytes matter.
	digest2 := append([]byte(nil), digest...)
	digest2[20] ^= 0xFF
	c := FrFromU128(digest2)
	require.True(t, a.Equal(&c))
}

func TestFrFromU128LimbPlacement(t *testing.T) {
	b := make([]byte, 16)
	b[15] = 1 // lower 64 bits = 1, upper = 0
	got := FrFromU128(b)

	var want fr.Element
	want.SetOne()
	require.True(t, got.Equal(&want))
}

// Both evaluation paths for the GIPA-transcript-induced polynomial must
// agree: the O(2^l) coefficient expansion evaluated at z, and the O(l)
// product-form evaluator.
func TestPolynomialEvaluationPathsAgree(t *testing.T) {
	var r, z fr.Element
	r.SetUint64(7)
	z.SetUint64(11)

	for l := 0; l <= 6; l++ {
		transcript := make([]fr.Element, l)
		for i := range transcript {
			transcript[i].SetUint64(uint64(100 + i))
		}

		coeffs := PolynomialCoefficientsFromTranscript(transcript, r)
		require.Len(t, coeffs, 1<<uint(l))

		evalFromCoeffs := evalPoly(coeffs, z)

		if l == 0 {
			var one fr.Element
			one.SetOne()
			require.True(t, evalFromCoeffs.Equal(&one))
			continue
		}

		evalProductForm := PolynomialEvaluationProductFormFromTranscript(transcript, z, r)
		require.True(t, evalFromCoeffs.Equal(&evalProductForm), "mismatch at l=%d", l)
	}
}

func evalPoly(coeffs []fr.Element, z fr.Element) fr.Element {
	var res fr.Element
	for i := len(coeffs) - 1; i >= 0; i-- {
		res.Mul(&res, &z)
		res.Add(&res, &coeffs[i])
	}
	return res
}

func TestDeriveFullIsDeterministic(t *testing.T) {
	build := func(counter uint64) []byte {
		return append(EncodeCounter(counter), []byte("fixed-prefix")...)
	}
	a := DeriveFull(build)
	b := DeriveFull(build)
	require.True(t, a.Equal(&b))
	require.False(t, a.IsZero())
}

func TestDeriveRoundChallengeInvertible(t *testing.T) {
	build := func(counter uint64) []byte {
		return append(EncodeCounter(counter), []byte("round-prefix")...)
	}
	c, cInv := DeriveRoundChallenge(build)
	require.False(t, c.IsZero())
	require.False(t, cInv.IsZero())

	var prod fr.Element
	prod.Mul(&c, &cInv)
	var one fr.Element
	one.SetOne()
	require.True(t, prod.Equal(&one))
}
