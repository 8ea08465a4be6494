// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package commitment

import (
	"math/big"
	"testing"

	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/aggregate/srs"
)

func testSRS(t *testing.T, n int) *srs.SRS {
	t.Helper()
	var tau, alpha, beta fr.Element
	tau.SetUint64(5)
	alpha.SetUint64(7)
	beta.SetUint64(11)
	return srs.NewTestSRS(n, tau, alpha, beta)
}

func randomG1G2(n int) ([]bls12381.G1Affine, []bls12381.G2Affine) {
	_, _, g1Gen, g2Gen := bls12381.Generators()
	a := make([]bls12381.G1Affine, n)
	b := make([]bls12381.G2Affine, n)
	for i := 0; i < n; i++ {
		var s fr.Element
		s.SetUint64(uint64(3*i + 1))
		sBig := s.BigInt(new(big.Int))
		a[i].ScalarMultiplication(&g1Gen, sBig)
		b[i].ScalarMultiplication(&g2Gen, sBig)
	}
	return a, b
}

func pairOne(p bls12381.G1Affine, q bls12381.G2Affine) bls12381.GT {
	e, err := bls12381.Pair([]bls12381.G1Affine{p}, []bls12381.G2Affine{q})
	if err != nil {
		panic(err)
	}
	return e
}

func TestPairMatchesDefinition(t *testing.T) {
	s := testSRS(t, 4)
	vkey, wkey := s.CommitmentKeys()
	a, b := randomG1G2(4)

	out, err := Pair(vkey, wkey, a, b)
	require.NoError(t, err)

	var wantT, wantU bls12381.GT
	wantT.SetOne()
	wantU.SetOne()
	for i := range a {
		tA := pairOne(a[i], vkey.A[i])
		tW := pairOne(wkey.A[i], b[i])
		wantT.Mul(&wantT, &tA)
		wantT.Mul(&wantT, &tW)

		uA := pairOne(a[i], vkey.B[i])
		uW := pairOne(wkey.B[i], b[i])
		wantU.Mul(&wantU, &uA)
		wantU.Mul(&wantU, &uW)
	}
	require.True(t, out.T.Equal(&wantT))
	require.True(t, out.U.Equal(&wantU))
}

func TestPairRejectsLengthMismatch(t *testing.T) {
	s := testSRS(t, 4)
	vkey, wkey := s.CommitmentKeys()
	a, b := randomG1G2(2)
	_, err := Pair(vkey, wkey, a, b)
	require.ErrorIs(t, err, ErrLengthMismatch)
}

func TestSingleG1MatchesDefinition(t *testing.T) {
	s := testSRS(t, 4)
	vkey, _ := s.CommitmentKeys()
	c, _ := randomG1G2(4)

	got, err := SingleG1(vkey, c)
	require.NoError(t, err)

	var wantT, wantU bls12381.GT
	wantT.SetOne()
	wantU.SetOne()
	for i := range c {
		wantT.Mul(&wantT, ptr(pairOne(c[i], vkey.A[i])))
		wantU.Mul(&wantU, ptr(pairOne(c[i], vkey.B[i])))
	}
	require.True(t, got.T.Equal(&wantT))
	require.True(t, got.U.Equal(&wantU))
}

func ptr(g bls12381.GT) *bls12381.GT { return &g }

func TestMultiExponentiationMatchesDefinition(t *testing.T) {
	c, _ := randomG1G2(4)
	r := make([]fr.Element, 4)
	for i := range r {
		r[i].SetUint64(uint64(i + 2))
	}

	got, err := MultiExponentiation(c, r)
	require.NoError(t, err)

	var want bls12381.G1Affine
	for i := range c {
		rb := r[i].BigInt(new(big.Int))
		var term bls12381.G1Affine
		term.ScalarMultiplication(&c[i], rb)
		want.Add(&want, &term)
	}
	require.True(t, got.Equal(&want))
}

func TestMultiPairingEmptyIsIdentity(t *testing.T) {
	got, err := MultiPairing(nil, nil)
	require.NoError(t, err)
	var one bls12381.GT
	one.SetOne()
	require.True(t, got.Equal(&one))
}
