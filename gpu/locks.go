// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package gpu coordinates exclusive access to a single local GPU across
// cooperating processes, and dispatches multi-scalar-multiplication work
// to a bounded CPU worker pool with a GPU-first, CPU-fallback strategy.
// Go has no destructor, so the RAII discipline the original's lock guards
// enforced via Drop is instead a contract: callers must defer Release()
// immediately after a successful Acquire().
package gpu

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/luxfi/log"
)

const (
	gpuLockName      = "bellman.gpu.lock"
	priorityLockName = "bellman.priority.lock"
)

// ErrGpuDisabled names the disabled-GPU condition (BELLMAN_NO_GPU or
// Config.DisableGPU). MultiExp does not return it: a disabled GPU sends the
// dispatch straight to the CPU worker.
var ErrGpuDisabled = errors.New("gpu: disabled")

// ErrGpuTaken is returned by a kernel operation when a higher-priority
// process has signaled it needs the GPU, and the caller should free its
// kernel and retry acquisition.
var ErrGpuTaken = errors.New("gpu: taken by a higher-priority process")

// ErrKernelUninitialized is returned when With is called before a kernel
// could be instantiated.
var ErrKernelUninitialized = errors.New("gpu: kernel uninitialized")

// ErrGpuKernelFailure wraps any error surfaced by a kernel callback that
// is not one of the two sentinels above.
var ErrGpuKernelFailure = errors.New("gpu: kernel failure")

func lockPath(dir, filename string) string {
	if dir == "" {
		dir = os.TempDir()
	}
	return filepath.Join(dir, filename)
}

// GPULock is the exclusive lock held for the lifetime of one GPU kernel.
// Only one process may hold it at a time.
type GPULock struct {
	fl     *flock.Flock
	logger log.Logger
}

// AcquireGPULock blocks until the exclusive GPU lock file is held.
func AcquireGPULock(dir string, logger log.Logger) (*GPULock, error) {
	logger = orNop(logger)
	path := lockPath(dir, gpuLockName)
	logger.Debug("acquiring gpu lock", "path", path)

	fl := flock.New(path)
	if err := fl.Lock(); err != nil {
		return nil, err
	}
	logger.Debug("gpu lock acquired")
	return &GPULock{fl: fl, logger: logger}, nil
}

// Release unlocks and closes the underlying lock file. Callers must defer
// this immediately after a successful AcquireGPULock.
func (l *GPULock) Release() error {
	err := l.fl.Unlock()
	l.logger.Debug("gpu lock released")
	return err
}

// PriorityLock signals to other processes that a high-priority caller
// needs the GPU soon; only one process may hold it at a time.
type PriorityLock struct {
	fl     *flock.Flock
	logger log.Logger
}

// AcquirePriorityLock blocks until the exclusive priority lock is held.
func AcquirePriorityLock(dir string, logger log.Logger) (*PriorityLock, error) {
	logger = orNop(logger)
	path := lockPath(dir, priorityLockName)
	logger.Debug("acquiring priority lock", "path", path)

	fl := flock.New(path)
	if err := fl.Lock(); err != nil {
		return nil, err
	}
	logger.Debug("priority lock acquired")
	return &PriorityLock{fl: fl, logger: logger}, nil
}

// Release unlocks and closes the priority lock file.
func (l *PriorityLock) Release() error {
	err := l.fl.Unlock()
	l.logger.Debug("priority lock released")
	return err
}

// Wait blocks until the priority lock is free, unless the caller itself
// is the high-priority party: a non-priority caller takes the priority
// lock exclusively (blocking while another process holds it) and releases
// it again immediately.
func Wait(dir string, priority bool, logger log.Logger) error {
	if priority {
		return nil
	}
	logger = orNop(logger)
	fl := flock.New(lockPath(dir, priorityLockName))
	if err := fl.Lock(); err != nil {
		logger.Warn("failed to wait on priority lock", "error", err)
		return err
	}
	return fl.Unlock()
}

// ShouldBreak reports whether a non-priority kernel should free the GPU
// because a priority waiter is pending. A priority caller never breaks
// for itself.
func ShouldBreak(dir string, priority bool, logger log.Logger) bool {
	if priority {
		return false
	}
	logger = orNop(logger)
	fl := flock.New(lockPath(dir, priorityLockName))
	locked, err := fl.TryRLock()
	if err != nil {
		logger.Warn("failed to check priority lock", "error", err)
		return false
	}
	if !locked {
		return true
	}
	_ = fl.Unlock()
	return false
}

func orNop(logger log.Logger) log.Logger {
	if logger == nil {
		return log.NewTestLogger(log.InfoLevel)
	}
	return logger
}
