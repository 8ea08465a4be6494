// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package srs

import (
	"math/big"

	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
)

// NewTestSRS builds a toy structured reference string of size n (a power
// of two) from explicit secret scalars. It exists for tests and for the
// deterministic-regression fixture; production callers must obtain an SRS
// from an external trusted-setup ceremony, never from this constructor.
func NewTestSRS(n int, tau, alpha, beta fr.Element) *SRS {
	_, _, g1Gen, g2Gen := bls12381.Generators()

	hAlpha := make([]bls12381.G2Affine, n)
	hBeta := make([]bls12381.G2Affine, n)
	gAlpha := make([]bls12381.G1Affine, n)
	gBeta := make([]bls12381.G1Affine, n)

	hAlphaG1 := make([]bls12381.G1Affine, n)
	hBetaG1 := make([]bls12381.G1Affine, n)
	gAlphaG1 := make([]bls12381.G1Affine, n)
	gBetaG1 := make([]bls12381.G1Affine, n)

	var tauPow fr.Element
	tauPow.SetOne()

	for i := 0; i < n; i++ {
		var hAlphaExp, hBetaExp, gAlphaExp, gBetaExp fr.Element
		hAlphaExp.Mul(&tauPow, &alpha)
		hBetaExp.Mul(&tauPow, &beta)
		gAlphaExp.Mul(&tauPow, &alpha)
		gBetaExp.Mul(&tauPow, &beta)

		var hAlphaBig, hBetaBig, gAlphaBig, gBetaBig, tauBig big.Int
		hAlphaExp.BigInt(&hAlphaBig)
		hBetaExp.BigInt(&hBetaBig)
		gAlphaExp.BigInt(&gAlphaBig)
		gBetaExp.BigInt(&gBetaBig)
		tauPow.BigInt(&tauBig)

		hAlpha[i].ScalarMultiplication(&g2Gen, &hAlphaBig)
		hBeta[i].ScalarMultiplication(&g2Gen, &hBetaBig)
		gAlpha[i].ScalarMultiplication(&g1Gen, &gAlphaBig)
		gBeta[i].ScalarMultiplication(&g1Gen, &gBetaBig)

		hAlphaG1[i].ScalarMultiplication(&g1Gen, &hAlphaBig)
		hBetaG1[i].ScalarMultiplication(&g1Gen, &hBetaBig)
		gAlphaG1[i].ScalarMultiplication(&g1Gen, &gAlphaBig)
		gBetaG1[i].ScalarMultiplication(&g1Gen, &gBetaBig)

		tauPow.Mul(&tauPow, &tau)
	}

	return &SRS{
		N: n,
		VKeyBase: VKey{A: hAlpha, B: hBeta},
		WKeyBase: WKey{A: gAlpha, B: gBeta},

		HAlphaPowersTable: MultiscalarTable{Points: hAlphaG1},
		HBetaPowersTable:  MultiscalarTable{Points: hBetaG1},
		GAlphaPowersTable: MultiscalarTable{Points: gAlphaG1},
		GBetaPowersTable:  MultiscalarTable{Points: gBetaG1},
	}
}
