// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package gipa implements the Generalized Inner Product Argument: the
// recursive halving engine that folds a pair of input vectors down to a
// single element while emitting, at each round, a cross-commitment and a
// Fiat-Shamir challenge derived from it. TIPP specializes GIPA to prove
// knowledge of (A, B, VKey, WKey) witnessing a pairing-product relation;
// MIPP specializes it to prove knowledge of (C, r, VKey) witnessing a
// multi-exponentiation relation.
package gipa

import (
	"context"
	"errors"
	"math/big"

	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"golang.org/x/sync/errgroup"

	"github.com/luxfi/aggregate/commitment"
	"github.com/luxfi/aggregate/srs"
	"github.com/luxfi/aggregate/transcript"
	"github.com/luxfi/aggregate/wire"
)

// ErrMalformedInput signals that the GIPA input vectors disagree in
// length, or that the batch size is not a power of two.
var ErrMalformedInput = errors.New("gipa: input vectors must share a power-of-two length")

// TIPPRound is the per-round state GIPA-TIPP appends to its proof
// transcript: the cross-commitment pair and the cross inner-product pair.
type TIPPRound struct {
	CL, CR commitment.Output
	ZL, ZR bls12381.GT
}

// GipaTIPP is the full TIPP recursion transcript plus the final,
// fully-compressed elements left after folding to batch size one.
type GipaTIPP struct {
	Rounds     []TIPPRound
	Challenges []fr.Element

	AFinal    bls12381.G1Affine
	BFinal    bls12381.G2Affine
	VKeyFinal srs.VKey
	WKeyFinal srs.WKey
}

// MIPPRound is the per-round state GIPA-MIPP appends to its proof
// transcript: the cross single-key commitment pair and the cross
// multi-exponentiation pair.
type MIPPRound struct {
	TUL, TUR commitment.Output
	ZL, ZR   bls12381.G1Affine
}

// GipaMIPP is the full MIPP recursion transcript plus the final elements.
type GipaMIPP struct {
	Rounds     []MIPPRound
	Challenges []fr.Element

	CFinal    bls12381.G1Affine
	RFinal    fr.Element
	VKeyFinal srs.VKey
}

// TIPP runs the GIPA-TIPP recursion on (A, B) under (vkey, wkey). All
// four inputs must share the same power-of-two length. A, B, vkey and
// wkey are consumed by value (their backing slices are never mutated):
// each round works against freshly split/compressed copies.
func TIPP(a []bls12381.G1Affine, b []bls12381.G2Affine, vkey srs.VKey, wkey srs.WKey) (*GipaTIPP, error) {
	n := len(a)
	if n == 0 || n&(n-1) != 0 || len(b) != n || !vkey.CorrectLen(n) || !wkey.CorrectLen(n) {
		return nil, ErrMalformedInput
	}

	mA := append([]bls12381.G1Affine(nil), a...)
	mB := append([]bls12381.G2Affine(nil), b...)

	var rounds []TIPPRound
	var challenges []fr.Element

	for len(mA) > 1 {
		split := len(mA) / 2
		aL, aR := mA[:split], mA[split:]
		bL, bR := mB[:split], mB[split:]
		vkL, vkR := vkey.Split(split)
		wkL, wkR := wkey.Split(split)

		var cL, cR commitment.Output
		var zL, zR bls12381.GT

		g, _ := errgroup.WithContext(context.Background())
		g.Go(func() (err error) {
			cL, err = commitment.Pair(vkL, wkR, aR, bL)
			return err
		})
		g.Go(func() (err error) {
			cR, err = commitment.Pair(vkR, wkL, aL, bR)
			return err
		})
		g.Go(func() (err error) {
			zL, err = commitment.MultiPairing(aR, bL)
			return err
		})
		g.Go(func() (err error) {
			zR, err = commitment.MultiPairing(aL, bR)
			return err
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}

		prev := lastOrZero(challenges)
		build := func(counter uint64) []byte {
			return wire.NewBuffer(0).
				Counter(counter).
				Fr(prev).
				GT(cR.T).GT(cR.U).GT(zR).
				GT(cL.T).GT(cL.U).GT(zL).
				Bytes()
		}
		c, cInv := transcript.DeriveRoundChallenge(build)

		newA, err := foldG1(aL, aR, c)
		if err != nil {
			return nil, err
		}
		newB, err := foldG2(bL, bR, cInv)
		if err != nil {
			return nil, err
		}
		newVKey, err := srs.CompressVKey(vkL, vkR, cInv)
		if err != nil {
			return nil, err
		}
		newWKey, err := srs.CompressWKey(wkL, wkR, c)
		if err != nil {
			return nil, err
		}

		mA, mB, vkey, wkey = newA, newB, newVKey, newWKey
		rounds = append(rounds, TIPPRound{CL: cL, CR: cR, ZL: zL, ZR: zR})
		challenges = append(challenges, c)
	}

	return &GipaTIPP{
		Rounds:     rounds,
		Challenges: challenges,
		AFinal:     mA[0],
		BFinal:     mB[0],
		VKeyFinal:  vkey,
		WKeyFinal:  wkey,
	}, nil
}

// MIPP runs the GIPA-MIPP recursion on (C, r) under vkey. All three
// inputs must share the same power-of-two length.
func MIPP(c []bls12381.G1Affine, r []fr.Element, vkey srs.VKey) (*GipaMIPP, error) {
	n := len(c)
	if n == 0 || n&(n-1) != 0 || len(r) != n || !vkey.CorrectLen(n) {
		return nil, ErrMalformedInput
	}

	mC := append([]bls12381.G1Affine(nil), c...)
	mR := append([]fr.Element(nil), r...)

	var rounds []MIPPRound
	var challenges []fr.Element

	for len(mC) > 1 {
		split := len(mC) / 2
		cL, cR := mC[:split], mC[split:]
		rL, rR := mR[:split], mR[split:]
		vkL, vkR := vkey.Split(split)

		var zL, zR bls12381.G1Affine
		var tuL, tuR commitment.Output

		g, _ := errgroup.WithContext(context.Background())
		g.Go(func() (err error) {
			zL, err = commitment.MultiExponentiation(cR, rL)
			return err
		})
		g.Go(func() (err error) {
			zR, err = commitment.MultiExponentiation(cL, rR)
			return err
		})
		g.Go(func() (err error) {
			tuR, err = commitment.SingleG1(vkR, cL)
			return err
		})
		g.Go(func() (err error) {
			tuL, err = commitment.SingleG1(vkL, cR)
			return err
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}

		prev := lastOrZero(challenges)
		build := func(counter uint64) []byte {
			return wire.NewBuffer(0).
				Counter(counter).
				Fr(prev).
				GT(tuR.T).GT(tuR.U).G1(zR).
				GT(tuL.T).GT(tuL.U).G1(zL).
				Bytes()
		}
		chal, chalInv := transcript.DeriveRoundChallenge(build)

		newC, err := foldG1(cL, cR, chal)
		if err != nil {
			return nil, err
		}
		newR := foldFr(rL, rR, chalInv)
		newVKey, err := srs.CompressVKey(vkL, vkR, chalInv)
		if err != nil {
			return nil, err
		}

		mC, mR, vkey = newC, newR, newVKey
		rounds = append(rounds, MIPPRound{TUL: tuL, TUR: tuR, ZL: zL, ZR: zR})
		challenges = append(challenges, chal)
	}

	return &GipaMIPP{
		Rounds:     rounds,
		Challenges: challenges,
		CFinal:     mC[0],
		RFinal:     mR[0],
		VKeyFinal:  vkey,
	}, nil
}

func lastOrZero(challenges []fr.Element) fr.Element {
	if len(challenges) == 0 {
		var zero fr.Element
		return zero
	}
	return challenges[len(challenges)-1]
}

// foldG1 returns left[i] + scalar*right[i] in G1, in parallel chunks.
func foldG1(left, right []bls12381.G1Affine, scalar fr.Element) ([]bls12381.G1Affine, error) {
	if len(left) != len(right) {
		return nil, ErrMalformedInput
	}
	out := make([]bls12381.G1Affine, len(left))
	var scalarBig big.Int
	scalar.BigInt(&scalarBig)

	g, _ := errgroup.WithContext(context.Background())
	const chunk = 64
	for start := 0; start < len(left); start += chunk {
		start := start
		end := min(start+chunk, len(left))
		g.Go(func() error {
			for i := start; i < end; i++ {
				var scaled bls12381.G1Affine
				scaled.ScalarMultiplication(&right[i], &scalarBig)
				out[i].Add(&left[i], &scaled)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// foldG2 returns left[i] + scalar*right[i] in G2, in parallel chunks.
func foldG2(left, right []bls12381.G2Affine, scalar fr.Element) ([]bls12381.G2Affine, error) {
	if len(left) != len(right) {
		return nil, ErrMalformedInput
	}
	out := make([]bls12381.G2Affine, len(left))
	var scalarBig big.Int
	scalar.BigInt(&scalarBig)

	g, _ := errgroup.WithContext(context.Background())
	const chunk = 64
	for start := 0; start < len(left); start += chunk {
		start := start
		end := min(start+chunk, len(left))
		g.Go(func() error {
			for i := start; i < end; i++ {
				var scaled bls12381.G2Affine
				scaled.ScalarMultiplication(&right[i], &scalarBig)
				out[i].Add(&left[i], &scaled)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// foldFr returns left[i] + scalar*right[i] in Fr.
func foldFr(left, right []fr.Element, scalar fr.Element) []fr.Element {
	out := make([]fr.Element, len(left))
	for i := range left {
		var scaled fr.Element
		scaled.Mul(&right[i], &scalar)
		out[i].Add(&left[i], &scaled)
	}
	return out
}
