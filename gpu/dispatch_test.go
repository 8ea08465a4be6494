// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package gpu

import (
	"errors"
	"math/big"
	"testing"
	"time"

	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"github.com/stretchr/testify/require"
)

func sampleMSM(t *testing.T, n int) ([]bls12381.G1Affine, []fr.Element, bls12381.G1Affine) {
	t.Helper()
	_, _, g1Gen, _ := bls12381.Generators()
	bases := make([]bls12381.G1Affine, n)
	scalars := make([]fr.Element, n)
	var want bls12381.G1Affine
	for i := 0; i < n; i++ {
		scalars[i].SetUint64(uint64(2 + i))
		var exp big.Int
		scalars[i].BigInt(&exp)
		bases[i].ScalarMultiplication(&g1Gen, &exp)

		var term bls12381.G1Affine
		term.ScalarMultiplication(&g1Gen, &exp)
		want.Add(&want, &term)
	}
	return bases, scalars, want
}

func TestMultiExpDisabledGoesStraightToCPU(t *testing.T) {
	bases, scalars, want := sampleMSM(t, 5)
	worker := NewWorker(2)
	kernel := NewKernel([]int{0}, nil)

	cfg := Config{DisableGPU: true}
	got, err := MultiExp(cfg, kernel, worker, func(b []bls12381.G1Affine, s []fr.Element) (bls12381.G1Affine, error) {
		t.Fatal("gpu function must not run when disabled")
		return bls12381.G1Affine{}, nil
	}, bases, scalars)
	require.NoError(t, err)
	require.True(t, got.Equal(&want))
}

func TestMultiExpFallsBackOnGPUFailure(t *testing.T) {
	bases, scalars, want := sampleMSM(t, 5)
	worker := NewWorker(2)
	kernel := NewKernel([]int{0}, nil)

	cfg := Config{}
	got, err := MultiExp(cfg, kernel, worker, func(b []bls12381.G1Affine, s []fr.Element) (bls12381.G1Affine, error) {
		return bls12381.G1Affine{}, errors.New("simulated device fault")
	}, bases, scalars)
	require.NoError(t, err)
	require.True(t, got.Equal(&want))
}

func TestMultiExpUsesGPUResultOnSuccess(t *testing.T) {
	_, _, g1Gen, _ := bls12381.Generators()
	worker := NewWorker(2)
	kernel := NewKernel([]int{0}, nil)

	cfg := Config{}
	got, err := MultiExp(cfg, kernel, worker, func(b []bls12381.G1Affine, s []fr.Element) (bls12381.G1Affine, error) {
		return g1Gen, nil
	}, nil, nil)
	require.NoError(t, err)
	require.True(t, got.Equal(&g1Gen))
}

func TestMultiExpNilKernelGoesToCPU(t *testing.T) {
	bases, scalars, want := sampleMSM(t, 3)
	worker := NewWorker(2)

	got, err := MultiExp(Config{}, nil, worker, nil, bases, scalars)
	require.NoError(t, err)
	require.True(t, got.Equal(&want))
}

func TestMultiExpNilGpuFnStillLocksThenFallsBackToCPU(t *testing.T) {
	bases, scalars, want := sampleMSM(t, 4)
	worker := NewWorker(2)
	kernel := NewKernel([]int{0}, nil)

	cfg := Config{GPULockDir: t.TempDir()}
	got, err := MultiExp(cfg, kernel, worker, nil, bases, scalars)
	require.NoError(t, err)
	require.True(t, got.Equal(&want))

	// the GPU lock must have been released, not left held by the failed attempt.
	lock, err := AcquireGPULock(cfg.GPULockDir, nil)
	require.NoError(t, err)
	require.NoError(t, lock.Release())
}

func TestMultiExpRetriesOnGpuTakenThenSucceeds(t *testing.T) {
	_, _, g1Gen, _ := bls12381.Generators()
	worker := NewWorker(2)

	taken := true
	kernel := NewKernel([]int{0}, func() bool {
		if taken {
			taken = false
			return true
		}
		return false
	})

	calls := 0
	cfg := Config{GPULockDir: t.TempDir()}
	got, err := MultiExp(cfg, kernel, worker, func(b []bls12381.G1Affine, s []fr.Element) (bls12381.G1Affine, error) {
		calls++
		return g1Gen, nil
	}, nil, nil)
	require.NoError(t, err)
	require.True(t, got.Equal(&g1Gen))
	require.Equal(t, 1, calls)
}

func TestMultiExpSerializesOnGPULockDir(t *testing.T) {
	dir := t.TempDir()
	_, _, g1Gen, _ := bls12381.Generators()
	worker := NewWorker(2)

	// hold the same GPU lock file MultiExp will try to acquire, so the
	// dispatch underneath it is forced to block until we release it.
	held, err := AcquireGPULock(dir, nil)
	require.NoError(t, err)

	kernel := NewKernel([]int{0}, nil)
	resultCh := make(chan bls12381.G1Affine, 1)
	go func() {
		got, err := MultiExp(Config{GPULockDir: dir}, kernel, worker, func(b []bls12381.G1Affine, s []fr.Element) (bls12381.G1Affine, error) {
			return g1Gen, nil
		}, nil, nil)
		require.NoError(t, err)
		resultCh <- got
	}()

	select {
	case <-resultCh:
		t.Fatal("MultiExp returned before the held GPU lock was released")
	case <-time.After(100 * time.Millisecond):
	}

	require.NoError(t, held.Release())

	select {
	case got := <-resultCh:
		require.True(t, got.Equal(&g1Gen))
	case <-time.After(2 * time.Second):
		t.Fatal("MultiExp did not acquire the GPU lock after it was released")
	}
}
