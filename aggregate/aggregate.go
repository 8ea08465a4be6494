// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package aggregate implements the aggregation orchestrator: it drives
// the commitment of a batch of Groth16 proofs, derives the Fiat-Shamir
// rescaling challenge, and invokes GIPA-TIPP and GIPA-MIPP in parallel to
// assemble a single succinct AggregateProof.
package aggregate

import (
	"context"
	"errors"
	"math/big"

	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"github.com/luxfi/log"
	"golang.org/x/sync/errgroup"

	"github.com/luxfi/aggregate/commitment"
	"github.com/luxfi/aggregate/gipa"
	"github.com/luxfi/aggregate/gpu"
	"github.com/luxfi/aggregate/kzg"
	"github.com/luxfi/aggregate/srs"
	"github.com/luxfi/aggregate/transcript"
	"github.com/luxfi/aggregate/wire"
)

// ErrMalformedProofs signals that the batch size is not a power of two,
// or does not match the SRS's commitment-key length.
var ErrMalformedProofs = errors.New("aggregate: batch size must be a power of two matching the srs")

// Groth16Proof is a single Groth16 proof's group elements, in the order
// the circuit's verifier pairing equation consumes them.
type Groth16Proof struct {
	A bls12381.G1Affine
	B bls12381.G2Affine
	C bls12381.G1Affine
}

// TIPPProof bundles a GIPA-TIPP transcript with the KZG openings of its
// final, fully-compressed commitment keys.
type TIPPProof struct {
	Gipa        *gipa.GipaTIPP
	VKeyOpening kzg.Opening
	WKeyOpening kzg.Opening
}

// MIPPProof bundles a GIPA-MIPP transcript with the KZG opening of its
// final vkey (MIPP has no wkey).
type MIPPProof struct {
	Gipa        *gipa.GipaMIPP
	VKeyOpening kzg.Opening
}

// Proof is the aggregate proof produced by AggregateProofs.
type Proof struct {
	ComAB   commitment.Output
	ComC    commitment.Output
	IPAB    bls12381.GT
	AggC    bls12381.G1Affine
	ProofAB TIPPProof
	ProofC  MIPPProof
}

// AggregateProofs aggregates an ordered batch of Groth16 proofs into a
// single AggregateProof, using a quiet default Config.
func AggregateProofs(s *srs.SRS, proofs []Groth16Proof) (*Proof, error) {
	return AggregateProofsWithConfig(Config{}, s, proofs)
}

// AggregateProofsWithConfig aggregates an ordered batch of Groth16 proofs
// into a single AggregateProof, per the SRS's commitment keys. The batch
// size must be a power of two matching the SRS's key length.
func AggregateProofsWithConfig(cfg Config, s *srs.SRS, proofs []Groth16Proof) (*Proof, error) {
	logger := cfg.logger()
	n := len(proofs)
	if n == 0 || n&(n-1) != 0 {
		return nil, ErrMalformedProofs
	}

	vkey, wkey := s.CommitmentKeys()
	if !vkey.CorrectLen(n) || !wkey.CorrectLen(n) {
		return nil, ErrMalformedProofs
	}

	a := make([]bls12381.G1Affine, n)
	b := make([]bls12381.G2Affine, n)
	c := make([]bls12381.G1Affine, n)
	for i, p := range proofs {
		a[i], b[i], c[i] = p.A, p.B, p.C
	}

	var comAB commitment.Output
	var comC commitment.Output
	{
		g, _ := errgroup.WithContext(context.Background())
		g.Go(func() (err error) {
			comAB, err = commitment.Pair(vkey, wkey, a, b)
			return err
		})
		g.Go(func() (err error) {
			comC, err = commitment.SingleG1(vkey, c)
			return err
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	r := deriveRescalingChallenge(comAB, comC)
	logger.Debug("derived rescaling challenge", "batch_size", n)
	rVec := transcript.StructuredScalarPower(n, &r)
	rInv := transcript.InvertAll(rVec)

	vkeyRInv, err := vkey.Scale(rInv)
	if err != nil {
		return nil, err
	}
	aR, err := rescaleG1(a, rVec)
	if err != nil {
		return nil, err
	}

	var (
		tippGipa *gipa.GipaTIPP
		mippGipa *gipa.GipaMIPP
		ipab     bls12381.GT
		aggC     bls12381.G1Affine
	)
	{
		g, _ := errgroup.WithContext(context.Background())
		g.Go(func() (err error) {
			tippGipa, err = gipa.TIPP(aR, b, vkeyRInv, wkey)
			return err
		})
		g.Go(func() (err error) {
			mippGipa, err = gipa.MIPP(c, rVec, vkey)
			return err
		})
		g.Go(func() (err error) {
			ipab, err = commitment.MultiPairing(aR, b)
			return err
		})
		g.Go(func() (err error) {
			aggC, err = aggregateC(cfg, logger, c, rVec)
			return err
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	tippProof, err := proveTIPPOpenings(s, tippGipa, r)
	if err != nil {
		return nil, err
	}
	mippProof, err := proveMIPPOpenings(s, mippGipa)
	if err != nil {
		return nil, err
	}

	return &Proof{
		ComAB:   comAB,
		ComC:    comC,
		IPAB:    ipab,
		AggC:    aggC,
		ProofAB: *tippProof,
		ProofC:  *mippProof,
	}, nil
}

// deriveRescalingChallenge derives r by hashing (counter, com_ab, com_c)
// with full-width Fr reduction.
func deriveRescalingChallenge(comAB, comC commitment.Output) fr.Element {
	build := func(counter uint64) []byte {
		return wire.NewBuffer(0).
			Counter(counter).
			GT(comAB.T).GT(comAB.U).
			GT(comC.T).GT(comC.U).
			Bytes()
	}
	return transcript.DeriveFull(build)
}

// aggregateC computes sum_i r[i]*C[i] via the gpu package's dispatch
// path: this module ships no device binding of its own, so the kernel is
// always uninitialized, but the dispatch still runs through the same
// Wait/AcquireGPULock-guarded LockedKernel every real device binding
// would, so concurrent aggregators on the same host genuinely serialize
// on the GPU lock file before falling through to gpu.Worker's CPU pool.
func aggregateC(cfg Config, logger log.Logger, c []bls12381.G1Affine, rVec []fr.Element) (bls12381.G1Affine, error) {
	worker := gpu.NewWorker(0)
	kernel := gpu.NewKernel(nil, nil)
	gpuCfg := gpu.Config{
		DisableGPU: cfg.DisableGPU,
		GPULockDir: cfg.GPULockDir,
		Priority:   cfg.Priority,
		Logger:     logger,
	}
	logger.Debug("aggregating C via multiexp", "count", len(c))
	return gpu.MultiExp(gpuCfg, kernel, worker, nil, c, rVec)
}

func rescaleG1(a []bls12381.G1Affine, rVec []fr.Element) ([]bls12381.G1Affine, error) {
	out := make([]bls12381.G1Affine, len(a))
	g, _ := errgroup.WithContext(context.Background())
	const chunk = 64
	for start := 0; start < len(a); start += chunk {
		start := start
		end := start + chunk
		if end > len(a) {
			end = len(a)
		}
		g.Go(func() error {
			for i := start; i < end; i++ {
				var rBig big.Int
				rVec[i].BigInt(&rBig)
				out[i].ScalarMultiplication(&a[i], &rBig)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func proveTIPPOpenings(s *srs.SRS, g *gipa.GipaTIPP, r fr.Element) (*TIPPProof, error) {
	first := firstChallengeOrZero(g.Challenges)
	z := kzg.DeriveOpeningChallenge(first, serializeVKey(g.VKeyFinal), serializeWKey(g.WKeyFinal))

	vkeyOpening, err := kzg.ProveVKeyOpening(s, g.Challenges, r, z)
	if err != nil {
		return nil, err
	}
	wkeyOpening, err := kzg.ProveWKeyOpening(s, g.Challenges, z)
	if err != nil {
		return nil, err
	}
	return &TIPPProof{Gipa: g, VKeyOpening: vkeyOpening, WKeyOpening: wkeyOpening}, nil
}

func proveMIPPOpenings(s *srs.SRS, g *gipa.GipaMIPP) (*MIPPProof, error) {
	first := firstChallengeOrZero(g.Challenges)
	z := kzg.DeriveOpeningChallenge(first, serializeVKey(g.VKeyFinal), nil)

	vkeyOpening, err := kzg.ProveMIPPVKeyOpening(s, g.Challenges, z)
	if err != nil {
		return nil, err
	}
	return &MIPPProof{Gipa: g, VKeyOpening: vkeyOpening}, nil
}

func firstChallengeOrZero(challenges []fr.Element) fr.Element {
	if len(challenges) == 0 {
		var zero fr.Element
		return zero
	}
	return challenges[0]
}

func serializeVKey(v srs.VKey) []byte {
	a, b := v.First()
	return wire.NewBuffer(0).G2(a).G2(b).Bytes()
}

func serializeWKey(w srs.WKey) []byte {
	a, b := w.First()
	return wire.NewBuffer(0).G1(a).G1(b).Bytes()
}
