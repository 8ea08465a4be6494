// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package gpu

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGPULockExclusion(t *testing.T) {
	dir := t.TempDir()

	first, err := AcquireGPULock(dir, nil)
	require.NoError(t, err)
	defer first.Release()

	done := make(chan struct{})
	go func() {
		second, err := AcquireGPULock(dir, nil)
		require.NoError(t, err)
		defer second.Release()
		close(done)
	}()

	require.NoError(t, first.Release())
	<-done
}

func TestShouldBreakReportsContendedPriorityLock(t *testing.T) {
	dir := t.TempDir()

	require.False(t, ShouldBreak(dir, false, nil))

	lock, err := AcquirePriorityLock(dir, nil)
	require.NoError(t, err)
	defer lock.Release()

	require.True(t, ShouldBreak(dir, false, nil))
	require.False(t, ShouldBreak(dir, true, nil))
}
