// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package gpu

import (
	"context"
	"errors"
	"runtime"

	"github.com/consensys/gnark-crypto/ecc"
	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"golang.org/x/sync/errgroup"
)

// ErrLengthMismatch signals that the bases and scalars supplied to a
// multi-scalar multiplication disagree in length.
var ErrLengthMismatch = errors.New("gpu: bases and scalars must have equal length")

// Worker is a bounded CPU goroutine pool standing in for the original's
// rayon-backed thread pool: it partitions a multi-scalar multiplication
// into chunks, runs each chunk concurrently, and combines the partial
// sums. It is always available, unlike a Kernel, and is the terminal
// fallback for every GPU dispatch.
type Worker struct {
	concurrency int
}

// NewWorker builds a Worker with the given concurrency. A non-positive
// value uses runtime.NumCPU().
func NewWorker(concurrency int) *Worker {
	if concurrency <= 0 {
		concurrency = runtime.NumCPU()
	}
	return &Worker{concurrency: concurrency}
}

// MultiExpCPU computes sum(scalars[i] * bases[i]) by chunking the input
// across the worker's concurrency and combining partial sums.
func (w *Worker) MultiExpCPU(bases []bls12381.G1Affine, scalars []fr.Element) (bls12381.G1Affine, error) {
	if len(bases) != len(scalars) {
		return bls12381.G1Affine{}, ErrLengthMismatch
	}
	if len(bases) == 0 {
		var identity bls12381.G1Affine
		return identity, nil
	}

	chunk := (len(bases) + w.concurrency - 1) / w.concurrency
	if chunk == 0 {
		chunk = len(bases)
	}
	numChunks := (len(bases) + chunk - 1) / chunk
	partials := make([]bls12381.G1Affine, numChunks)

	g, _ := errgroup.WithContext(context.Background())
	for idx := 0; idx < numChunks; idx++ {
		idx := idx
		start := idx * chunk
		end := start + chunk
		if end > len(bases) {
			end = len(bases)
		}
		g.Go(func() error {
			var acc bls12381.G1Affine
			if _, err := acc.MultiExp(bases[start:end], scalars[start:end], ecc.MultiExpConfig{}); err != nil {
				return err
			}
			partials[idx] = acc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return bls12381.G1Affine{}, err
	}

	var acc bls12381.G1Affine
	acc.Set(&partials[0])
	for _, p := range partials[1:] {
		p := p
		acc.Add(&acc, &p)
	}
	return acc, nil
}
