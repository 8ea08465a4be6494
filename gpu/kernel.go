// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package gpu

import (
	"errors"
	"fmt"

	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"github.com/luxfi/log"
)

// GPUMultiExpFunc is a caller-supplied function performing the actual
// device multi-scalar multiplication. This module has no CUDA/OpenCL
// binding of its own; callers on a GPU-equipped build plug their device
// binding in here.
type GPUMultiExpFunc func(bases []bls12381.G1Affine, scalars []fr.Element) (bls12381.G1Affine, error)

// Kernel wraps a set of GPU device handles with an abort callback,
// mirroring the original's CreateWithAbort-constructed kernel: the abort
// function is consulted once before every dispatch, so a higher-priority
// caller can stop a dispatch from starting; a dispatch already running is
// not interrupted.
type Kernel struct {
	devices []int
	abort   func() bool
}

// NewKernel builds a Kernel bound to the given device indices. abort may
// be nil, in which case the kernel never preempts itself.
func NewKernel(devices []int, abort func() bool) *Kernel {
	return &Kernel{devices: devices, abort: abort}
}

func (k *Kernel) available() bool {
	return k != nil && len(k.devices) > 0
}

// With runs fn on the kernel's devices, returning ErrKernelUninitialized
// if no device is bound or fn is nil, and ErrGpuTaken if the abort
// callback fires first. Any other error from fn is wrapped in
// ErrGpuKernelFailure.
func (k *Kernel) With(fn GPUMultiExpFunc, bases []bls12381.G1Affine, scalars []fr.Element) (bls12381.G1Affine, error) {
	if !k.available() || fn == nil {
		return bls12381.G1Affine{}, ErrKernelUninitialized
	}
	if k.abort != nil && k.abort() {
		return bls12381.G1Affine{}, ErrGpuTaken
	}
	result, err := fn(bases, scalars)
	if err != nil {
		return bls12381.G1Affine{}, fmt.Errorf("%w: %w", ErrGpuKernelFailure, err)
	}
	return result, nil
}

// LockedKernel wraps a Kernel with the cross-process GPU mutual-exclusion
// protocol: each attempt waits for any pending priority waiter, takes the
// exclusive GPU lock for the duration of the call, and releases it
// afterward. An ErrGpuTaken result (the kernel's own abort callback firing
// because a priority waiter showed up mid-flight) frees the lock and
// re-enters the wait/acquire cycle rather than propagating to the caller;
// every other outcome — success or a genuine device failure — returns
// directly. This mirrors the original's locked-kernel "with" loop: init,
// try, and on GpuTaken free-and-reinit-and-retry.
type LockedKernel struct {
	kernel   *Kernel
	priority bool
	lockDir  string
	logger   log.Logger
}

// NewLockedKernel binds kernel to the GPU/priority lock files under
// lockDir. priority marks the caller as the high-priority party that never
// waits on or yields to another process's priority signal.
func NewLockedKernel(kernel *Kernel, priority bool, lockDir string, logger log.Logger) *LockedKernel {
	return &LockedKernel{kernel: kernel, priority: priority, lockDir: lockDir, logger: orNop(logger)}
}

// Run executes fn on the locked kernel, retrying on ErrGpuTaken until the
// kernel either succeeds or fails for a different reason.
func (lk *LockedKernel) Run(fn GPUMultiExpFunc, bases []bls12381.G1Affine, scalars []fr.Element) (bls12381.G1Affine, error) {
	for {
		if err := Wait(lk.lockDir, lk.priority, lk.logger); err != nil {
			return bls12381.G1Affine{}, err
		}
		lock, err := AcquireGPULock(lk.lockDir, lk.logger)
		if err != nil {
			return bls12381.G1Affine{}, err
		}

		result, runErr := lk.kernel.With(fn, bases, scalars)
		_ = lock.Release()

		if runErr == nil {
			return result, nil
		}
		if errors.Is(runErr, ErrGpuTaken) {
			lk.logger.Warn("gpu taken by a higher-priority process, freeing lock and retrying")
			continue
		}
		return bls12381.G1Affine{}, runErr
	}
}
