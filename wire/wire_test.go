// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package wire

import (
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"github.com/stretchr/testify/require"
)

func TestBufferDeterministic(t *testing.T) {
	var x fr.Element
	x.SetUint64(42)

	a := NewBuffer(0).Counter(7).Fr(x).Bytes()
	b := NewBuffer(0).Counter(7).Fr(x).Bytes()
	require.Equal(t, a, b)

	c := NewBuffer(0).Counter(8).Fr(x).Bytes()
	require.NotEqual(t, a, c)
}
