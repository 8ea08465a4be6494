// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package srs implements the structured reference string and the
// commitment-key algebra (VKey/WKey split, compress, scale) that the GIPA
// engine folds across rounds.
package srs

import (
	"context"
	"errors"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc"
	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"golang.org/x/sync/errgroup"
)

// ErrMalformedSrs signals a commitment-key length mismatch against the
// expected batch size.
var ErrMalformedSrs = errors.New("srs: commitment key length does not match batch size")

// VKey is the G2-side commitment key: two parallel sequences (the alpha
// and beta powers of tau in G2), one element of each per proof in the
// batch. A single-vector commitment against a VKey yields a (T, U) pair
// by pairing against A and B independently; a two-key commitment folds
// both components together with a WKey.
type VKey struct {
	A []bls12381.G2Affine
	B []bls12381.G2Affine
}

// WKey is the G1-side commitment key, the analogous dual sequence in G1.
type WKey struct {
	A []bls12381.G1Affine
	B []bls12381.G1Affine
}

// MultiscalarTable is a precomputed G1 power table (alpha or beta powers of
// tau) used as the evaluation basis for a KZG-style opening.
type MultiscalarTable struct {
	Points []bls12381.G1Affine
}

// Len reports the number of precomputed points.
func (t MultiscalarTable) Len() int { return len(t.Points) }

// MultiExp computes the multi-scalar multiplication of t's points against
// coeffs. Points past len(coeffs) get an implicit zero coefficient;
// coefficients past t.Len() are ignored.
func (t MultiscalarTable) MultiExp(coeffs []fr.Element) (bls12381.G1Affine, error) {
	n := len(coeffs)
	if n > len(t.Points) {
		n = len(t.Points)
	}
	var result bls12381.G1Affine
	if n == 0 {
		return result, nil
	}
	_, err := result.MultiExp(t.Points[:n], coeffs[:n], ecc.MultiExpConfig{})
	return result, err
}

// SRS is the structured reference string. VKeyBase/WKeyBase derive the
// initial commitment keys returned by CommitmentKeys(); the four power
// tables serve as the KZG opening evaluation basis (§4.4): HAlpha/HBeta
// open a VKey polynomial, GAlpha/GBeta open a WKey polynomial, all in G1
// regardless of which key's polynomial they witness.
type SRS struct {
	N int

	VKeyBase VKey
	WKeyBase WKey

	HAlphaPowersTable MultiscalarTable
	HBetaPowersTable  MultiscalarTable
	GAlphaPowersTable MultiscalarTable
	GBetaPowersTable  MultiscalarTable
}

// CommitmentKeys returns fresh clones of the SRS's initial VKey/WKey pair.
func (s *SRS) CommitmentKeys() (VKey, WKey) {
	vkey := VKey{
		A: append([]bls12381.G2Affine(nil), s.VKeyBase.A...),
		B: append([]bls12381.G2Affine(nil), s.VKeyBase.B...),
	}
	wkey := WKey{
		A: append([]bls12381.G1Affine(nil), s.WKeyBase.A...),
		B: append([]bls12381.G1Affine(nil), s.WKeyBase.B...),
	}
	return vkey, wkey
}

// CorrectLen reports whether the key's components both match the
// expected batch size.
func (v VKey) CorrectLen(n int) bool { return len(v.A) == n && len(v.B) == n }

// CorrectLen reports whether the key's components both match the
// expected batch size.
func (w WKey) CorrectLen(n int) bool { return len(w.A) == n && len(w.B) == n }

// Split returns the first-k and last-(n-k) halves of v as independent
// key values; k must equal len(v.A)/2.
func (v VKey) Split(k int) (VKey, VKey) {
	left := VKey{
		A: append([]bls12381.G2Affine(nil), v.A[:k]...),
		B: append([]bls12381.G2Affine(nil), v.B[:k]...),
	}
	right := VKey{
		A: append([]bls12381.G2Affine(nil), v.A[k:]...),
		B: append([]bls12381.G2Affine(nil), v.B[k:]...),
	}
	return left, right
}

// Split returns the first-k and last-(n-k) halves of w as independent
// key values; k must equal len(w.A)/2.
func (w WKey) Split(k int) (WKey, WKey) {
	left := WKey{
		A: append([]bls12381.G1Affine(nil), w.A[:k]...),
		B: append([]bls12381.G1Affine(nil), w.B[:k]...),
	}
	right := WKey{
		A: append([]bls12381.G1Affine(nil), w.A[k:]...),
		B: append([]bls12381.G1Affine(nil), w.B[k:]...),
	}
	return left, right
}

// First returns the sole element pair of a fully-compressed key
// (len(v.A) == 1).
func (v VKey) First() (bls12381.G2Affine, bls12381.G2Affine) { return v.A[0], v.B[0] }

// First returns the sole element pair of a fully-compressed key
// (len(w.A) == 1).
func (w WKey) First() (bls12381.G1Affine, bls12381.G1Affine) { return w.A[0], w.B[0] }

// CompressVKey returns, componentwise, (left.X[i] + scalar*right.X[i])_i
// for X in {A, B}.
func CompressVKey(left, right VKey, scalar fr.Element) (VKey, error) {
	if len(left.A) != len(right.A) || len(left.B) != len(right.B) || len(left.A) != len(left.B) {
		return VKey{}, ErrMalformedSrs
	}
	a, err := compressG2(left.A, right.A, scalar)
	if err != nil {
		return VKey{}, err
	}
	b, err := compressG2(left.B, right.B, scalar)
	if err != nil {
		return VKey{}, err
	}
	return VKey{A: a, B: b}, nil
}

// CompressWKey returns, componentwise, (left.X[i] + scalar*right.X[i])_i
// for X in {A, B}.
func CompressWKey(left, right WKey, scalar fr.Element) (WKey, error) {
	if len(left.A) != len(right.A) || len(left.B) != len(right.B) || len(left.A) != len(left.B) {
		return WKey{}, ErrMalformedSrs
	}
	a, err := compressG1(left.A, right.A, scalar)
	if err != nil {
		return WKey{}, err
	}
	b, err := compressG1(left.B, right.B, scalar)
	if err != nil {
		return WKey{}, err
	}
	return WKey{A: a, B: b}, nil
}

func compressG2(left, right []bls12381.G2Affine, scalar fr.Element) ([]bls12381.G2Affine, error) {
	if len(left) != len(right) {
		return nil, ErrMalformedSrs
	}
	out := make([]bls12381.G2Affine, len(left))
	scalarBig := new(big.Int)
	scalar.BigInt(scalarBig)

	g, _ := errgroup.WithContext(context.Background())
	const chunk = 64
	for start := 0; start < len(left); start += chunk {
		start := start
		end := start + chunk
		if end > len(left) {
			end = len(left)
		}
		g.Go(func() error {
			for i := start; i < end; i++ {
				var scaled bls12381.G2Affine
				scaled.ScalarMultiplication(&right[i], scalarBig)
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

func compressG1(left, right []bls12381.G1Affine, scalar fr.Element) ([]bls12381.G1Affine, error) {
	if len(left) != len(right) {
		return nil, ErrMalformedSrs
	}
	out := make([]bls12381.G1Affine, len(left))
	scalarBig := new(big.Int)
	scalar.BigInt(scalarBig)

	g, _ := errgroup.WithContext(context.Background())
	const chunk = 64
	for start := 0; start < len(left); start += chunk {
		start := start
		end := start + chunk
		if end > len(left) {
			end = len(left)
		}
		g.Go(func() error {
			for i := start; i < end; i++ {
				var scaled bls12381.G1Affine
				scaled.ScalarMultiplication(&right[i], scalarBig)
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

// Scale returns (v.A[i]*scalars[i], v.B[i]*scalars[i])_i; len(scalars)
// must equal len(v.A).
func (v VKey) Scale(scalars []fr.Element) (VKey, error) {
	if len(scalars) != len(v.A) || len(v.A) != len(v.B) {
		return VKey{}, ErrMalformedSrs
	}
	a, err := scaleG2(v.A, scalars)
	if err != nil {
		return VKey{}, err
	}
	b, err := scaleG2(v.B, scalars)
	if err != nil {
		return VKey{}, err
	}
	return VKey{A: a, B: b}, nil
}

// Scale returns (w.A[i]*scalars[i], w.B[i]*scalars[i])_i; len(scalars)
// must equal len(w.A).
func (w WKey) Scale(scalars []fr.Element) (WKey, error) {
	if len(scalars) != len(w.A) || len(w.A) != len(w.B) {
		return WKey{}, ErrMalformedSrs
	}
	a, err := scaleG1(w.A, scalars)
	if err != nil {
		return WKey{}, err
	}
	b, err := scaleG1(w.B, scalars)
	if err != nil {
		return WKey{}, err
	}
	return WKey{A: a, B: b}, nil
}

func scaleG2(points []bls12381.G2Affine, scalars []fr.Element) ([]bls12381.G2Affine, error) {
	if len(scalars) != len(points) {
		return nil, ErrMalformedSrs
	}
	out := make([]bls12381.G2Affine, len(points))
	g, _ := errgroup.WithContext(context.Background())
	const chunk = 64
	for start := 0; start < len(points); start += chunk {
		start := start
		end := start + chunk
		if end > len(points) {
			end = len(points)
		}
		g.Go(func() error {
			for i := start; i < end; i++ {
				var s big.Int
				scalars[i].BigInt(&s)
				out[i].ScalarMultiplication(&points[i], &s)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func scaleG1(points []bls12381.G1Affine, scalars []fr.Element) ([]bls12381.G1Affine, error) {
	if len(scalars) != len(points) {
		return nil, ErrMalformedSrs
	}
	out := make([]bls12381.G1Affine, len(points))
	g, _ := errgroup.WithContext(context.Background())
	const chunk = 64
	for start := 0; start < len(points); start += chunk {
		start := start
		end := start + chunk
		if end > len(points) {
			end = len(points)
		}
		g.Go(func() error {
			for i := start; i < end; i++ {
				var s big.Int
				scalars[i].BigInt(&s)
				out[i].ScalarMultiplication(&points[i], &s)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
