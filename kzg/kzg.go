// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package kzg implements the commitment-key opening proof: after GIPA
// folds a commitment key down to a single element, that element is a
// known polynomial of the round challenges evaluated at the SRS's secret
// trapdoor. This package builds that polynomial, evaluates it at a
// Fiat-Shamir point z, and produces a KZG-style opening proof of the
// quotient (f(X) - f(z)) / (X - z) against the SRS's precomputed power
// tables.
package kzg

import (
	"context"
	"errors"

	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"golang.org/x/sync/errgroup"

	"github.com/luxfi/aggregate/srs"
	"github.com/luxfi/aggregate/transcript"
	"github.com/luxfi/aggregate/wire"
)

// ErrMalformedSrs signals that the SRS's precomputed power tables do not
// have the length the challenge transcript's induced polynomial requires.
var ErrMalformedSrs = errors.New("kzg: srs power table length does not match transcript-induced polynomial degree")

// Opening is a KZG-style evaluation proof: two G1 elements witnessing the
// quotient polynomial evaluated against the alpha-powers and beta-powers
// tables respectively. The proof is always in G1, regardless of whether
// the key polynomial being opened is itself housed in G1 (WKey) or G2
// (VKey) — the opening groups the quotient coefficients against G1 power
// tables derived from the same alpha/beta trapdoor components.
type Opening struct {
	PiAlpha bls12381.G1Affine
	PiBeta  bls12381.G1Affine
}

// DeriveOpeningChallenge derives the Fiat-Shamir evaluation point z from
// the round counter, the first GIPA challenge (field zero if there were
// no rounds), and the canonical encoding of the final commitment key(s)
// being opened (ckB is empty for MIPP, which has no wkey).
func DeriveOpeningChallenge(firstChallenge fr.Element, ckA, ckB []byte) fr.Element {
	build := func(counter uint64) []byte {
		buf := wire.NewBuffer(len(ckA)+len(ckB)+40).Counter(counter).Fr(firstChallenge)
		out := buf.Bytes()
		out = append(out, ckA...)
		out = append(out, ckB...)
		return out
	}
	return transcript.DeriveFull(build)
}

// ProveVKeyOpening opens the polynomial induced by challenges (GIPA's
// round-challenge transcript, in round order) for the vkey side: the
// transcript is reversed and the structural shift is r^-1.
func ProveVKeyOpening(s *srs.SRS, challenges []fr.Element, r, z fr.Element) (Opening, error) {
	var rInv fr.Element
	if len(challenges) > 0 {
		rInv.Inverse(&r)
	} else {
		rInv.SetOne()
	}
	reversed := reverseTranscript(challenges)
	return proveOpening(s.HAlphaPowersTable, s.HBetaPowersTable, reversed, rInv, z)
}

// ProveWKeyOpening opens the polynomial induced by challenges for the
// wkey side (TIPP only): the transcript is used in round order and the
// structural shift is 1.
func ProveWKeyOpening(s *srs.SRS, challenges []fr.Element, z fr.Element) (Opening, error) {
	var one fr.Element
	one.SetOne()
	return proveOpening(s.GAlphaPowersTable, s.GBetaPowersTable, challenges, one, z)
}

// ProveMIPPVKeyOpening opens the polynomial induced by challenges for
// MIPP's vkey. MIPP folds its commitment key unscaled — the orchestrator
// never applies TIPP's r^-1 rescale to the vkey it hands to MIPP's GIPA
// recursion — so the folded key carries no r factor at all: unlike
// ProveVKeyOpening, the transcript is used in its natural round order and
// the structural shift is 1, the same as ProveWKeyOpening but against the
// vkey's alpha/beta power tables.
func ProveMIPPVKeyOpening(s *srs.SRS, challenges []fr.Element, z fr.Element) (Opening, error) {
	var one fr.Element
	one.SetOne()
	return proveOpening(s.HAlphaPowersTable, s.HBetaPowersTable, challenges, one, z)
}

func proveOpening(alphaTable, betaTable srs.MultiscalarTable, challenges []fr.Element, rShift, z fr.Element) (Opening, error) {
	coeffs := transcript.PolynomialCoefficientsFromTranscript(challenges, rShift)
	if len(coeffs) != alphaTable.Len() || len(coeffs) != betaTable.Len() {
		return Opening{}, ErrMalformedSrs
	}

	fz := evaluateAt(challenges, z, rShift)
	quotient := quotientByLinearFactor(coeffs, fz, z)
	padded := make([]fr.Element, len(coeffs))
	copy(padded, quotient)

	var piAlpha, piBeta bls12381.G1Affine
	g, _ := errgroup.WithContext(context.Background())
	g.Go(func() (err error) {
		piAlpha, err = alphaTable.MultiExp(padded)
		return err
	})
	g.Go(func() (err error) {
		piBeta, err = betaTable.MultiExp(padded)
		return err
	})
	if err := g.Wait(); err != nil {
		return Opening{}, err
	}
	return Opening{PiAlpha: piAlpha, PiBeta: piBeta}, nil
}

// evaluateAt evaluates the transcript-induced polynomial at z, handling
// the zero-round (n=1 batch) boundary case where the polynomial is the
// constant 1.
func evaluateAt(challenges []fr.Element, z, rShift fr.Element) fr.Element {
	if len(challenges) == 0 {
		var one fr.Element
		one.SetOne()
		return one
	}
	return transcript.PolynomialEvaluationProductFormFromTranscript(challenges, z, rShift)
}

// quotientByLinearFactor computes q(X) = (f(X) - fz) / (X - z) via exact
// synthetic division, given f's low-degree-first coefficient vector.
// Since z is a root of f(X)-fz by construction, the remainder is zero.
func quotientByLinearFactor(coeffs []fr.Element, fz, z fr.Element) []fr.Element {
	n := len(coeffs)
	shifted := make([]fr.Element, n)
	copy(shifted, coeffs)
	shifted[0].Sub(&shifted[0], &fz)

	if n == 1 {
		return nil
	}

	q := make([]fr.Element, n-1)
	q[n-2] = shifted[n-1]
	for i := n - 2; i >= 1; i-- {
		var term fr.Element
		term.Mul(&z, &q[i])
		q[i-1].Add(&shifted[i], &term)
	}
	return q
}

func reverseTranscript(challenges []fr.Element) []fr.Element {
	out := make([]fr.Element, len(challenges))
	for i, c := range challenges {
		out[len(challenges)-1-i] = c
	}
	return out
}
