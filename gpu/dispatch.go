// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package gpu

import (
	"errors"
	"os"

	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"

	"github.com/luxfi/log"
)

// Config controls GPU dispatch for a Worker/Kernel pair.
type Config struct {
	// DisableGPU forces every dispatch straight to the CPU worker,
	// mirroring the BELLMAN_NO_GPU environment variable.
	DisableGPU bool
	// GPULockDir overrides the system temp dir used for the GPU and
	// priority lock files. Test-only; production leaves this empty.
	GPULockDir string
	// Priority marks this dispatcher as the high-priority GPU caller: it
	// never waits on or yields to another process's priority signal.
	Priority bool
	Logger   log.Logger
}

func (c Config) gpuDisabled() bool {
	if c.DisableGPU {
		return true
	}
	_, set := os.LookupEnv("BELLMAN_NO_GPU")
	return set
}

func (c Config) logger() log.Logger {
	return orNop(c.Logger)
}

// MultiExp dispatches a multi-scalar multiplication to kernel's GPU
// devices via gpuFn, routed through the GPU/priority lock protocol
// (LockedKernel), falling back to worker's CPU pool whenever the GPU path
// is disabled, uninitialized, or fails for a reason other than a priority
// preemption. A priority preemption (ErrGpuTaken) is never surfaced here:
// LockedKernel frees the lock and retries internally until the kernel
// either succeeds or fails for a different reason, so two callers
// dispatching concurrently genuinely serialize on the GPU lock file
// rather than one silently falling back to CPU. This holds even when
// kernel has no bound devices or gpuFn is nil: the lock is still taken
// and released around the (immediately ErrKernelUninitialized) attempt,
// so a no-GPU build still participates in the same mutual-exclusion
// window a real device binding would.
func MultiExp(cfg Config, kernel *Kernel, worker *Worker, gpuFn GPUMultiExpFunc, bases []bls12381.G1Affine, scalars []fr.Element) (bls12381.G1Affine, error) {
	logger := cfg.logger()

	if cfg.gpuDisabled() || kernel == nil {
		logger.Debug("gpu disabled, dispatching multiexp to cpu worker")
		return worker.MultiExpCPU(bases, scalars)
	}

	locked := NewLockedKernel(kernel, cfg.Priority, cfg.GPULockDir, logger)
	result, err := locked.Run(gpuFn, bases, scalars)
	if err == nil {
		return result, nil
	}

	switch {
	case errors.Is(err, ErrKernelUninitialized):
		logger.Debug("gpu kernel uninitialized, dispatching to cpu worker")
	default:
		logger.Warn("gpu multiexp failed, falling back to cpu", "error", err)
	}
	return worker.MultiExpCPU(bases, scalars)
}
