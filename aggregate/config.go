// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package aggregate

import (
	"os"

	"github.com/luxfi/log"
)

// Config holds the orchestrator's ambient settings: GPU participation and
// the logger used for retry/fallback diagnostics. The zero Config is
// usable — DisableGPU falls back to the BELLMAN_NO_GPU environment
// variable and a nil Logger is replaced with a quiet test logger.
type Config struct {
	// DisableGPU forces every multiexp dispatch the orchestrator drives
	// through gpu.MultiExp onto the CPU worker pool.
	DisableGPU bool
	// GPULockDir overrides the system temp dir used for the GPU and
	// priority lock files. Test-only.
	GPULockDir string
	// Priority marks this orchestrator as the high-priority GPU caller:
	// it never waits on or yields to another process's priority signal.
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
	if c.Logger == nil {
		return log.NewTestLogger(log.InfoLevel)
	}
	return c.Logger
}
