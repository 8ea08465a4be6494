// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package commitment implements the doubly-homomorphic commitment scheme
// TIPP and MIPP fold over: a two-key pairing product for paired G1/G2
// proof-element vectors (TIPP) and a single-key pairing product for a
// lone G1 vector (MIPP), each built from a dual-component commitment key.
package commitment

import (
	"errors"

	"github.com/consensys/gnark-crypto/ecc"
	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"

	"github.com/luxfi/aggregate/srs"
)

// ErrLengthMismatch signals that a commitment input's vectors disagree in
// length with each other or with the commitment key.
var ErrLengthMismatch = errors.New("commitment: input vector length mismatch")

// Output is the pair of target-group elements produced by a commitment:
// T is the witness against a key's alpha component, U against its beta
// component. GIPA folds both halves of a round simultaneously, so both
// are always carried together.
type Output struct {
	T bls12381.GT
	U bls12381.GT
}

// Pair computes the two-key commitment of (A, B) under (vkey, wkey):
//
//	T = prod_i e(A_i, vkey.A_i) * prod_i e(wkey.A_i, B_i)
//	U = prod_i e(A_i, vkey.B_i) * prod_i e(wkey.B_i, B_i)
//
// This is TIPP's commitment binding.
func Pair(vkey srs.VKey, wkey srs.WKey, a []bls12381.G1Affine, b []bls12381.G2Affine) (Output, error) {
	if len(a) != len(vkey.A) || len(b) != len(wkey.A) || len(a) != len(b) {
		return Output{}, ErrLengthMismatch
	}

	tA, err := MultiPairing(a, vkey.A)
	if err != nil {
		return Output{}, err
	}
	tW, err := MultiPairing(wkey.A, b)
	if err != nil {
		return Output{}, err
	}
	var t bls12381.GT
	t.Mul(&tA, &tW)

	uA, err := MultiPairing(a, vkey.B)
	if err != nil {
		return Output{}, err
	}
	uW, err := MultiPairing(wkey.B, b)
	if err != nil {
		return Output{}, err
	}
	var u bls12381.GT
	u.Mul(&uA, &uW)

	return Output{T: t, U: u}, nil
}

// SingleG1 computes the single-key commitment of C under vkey:
//
//	T = prod_i e(C_i, vkey.A_i)
//	U = prod_i e(C_i, vkey.B_i)
//
// This is MIPP's commitment binding: a lone G1 vector witnessed against
// both components of a VKey, with no WKey-side cross term.
func SingleG1(vkey srs.VKey, c []bls12381.G1Affine) (Output, error) {
	if len(c) != len(vkey.A) {
		return Output{}, ErrLengthMismatch
	}
	t, err := MultiPairing(c, vkey.A)
	if err != nil {
		return Output{}, err
	}
	u, err := MultiPairing(c, vkey.B)
	if err != nil {
		return Output{}, err
	}
	return Output{T: t, U: u}, nil
}

// MultiPairing computes the product e(P[0],Q[0]) * ... * e(P[n-1],Q[n-1])
// as a single multi-Miller-loop followed by one final exponentiation.
func MultiPairing(p []bls12381.G1Affine, q []bls12381.G2Affine) (bls12381.GT, error) {
	if len(p) != len(q) {
		return bls12381.GT{}, ErrLengthMismatch
	}
	if len(p) == 0 {
		var one bls12381.GT
		one.SetOne()
		return one, nil
	}
	return bls12381.Pair(p, q)
}

// MultiExponentiation computes sum_i r[i]*C[i] in G1.
func MultiExponentiation(c []bls12381.G1Affine, r []fr.Element) (bls12381.G1Affine, error) {
	if len(c) != len(r) {
		return bls12381.G1Affine{}, ErrLengthMismatch
	}
	var result bls12381.G1Affine
	if len(c) == 0 {
		return result, nil
	}
	_, err := result.MultiExp(c, r, ecc.MultiExpConfig{})
	return result, err
}

// VerifyPairingEquality checks e(P[0],Q[0])*...*e(P[n-1],Q[n-1]) == 1,
// using gnark-crypto's single fused Miller-loop-plus-check path rather
// than computing and comparing two separate GT elements.
func VerifyPairingEquality(p []bls12381.G1Affine, q []bls12381.G2Affine) (bool, error) {
	if len(p) != len(q) {
		return false, ErrLengthMismatch
	}
	return bls12381.PairingCheck(p, q)
}
