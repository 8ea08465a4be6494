// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package wire implements the canonical compressed byte encoding used to
// build every Fiat-Shamir hash input in the aggregator: the same encoder
// every derivation site reuses, so the hash input format never drifts
// from gnark-crypto's own canonical point encoding.
package wire

import (
	"encoding/binary"

	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
)

// Buffer accumulates canonical-encoded field and group elements for a
// Fiat-Shamir hash input or a wire-format proof body.
type Buffer struct {
	buf []byte
}

// NewBuffer returns an empty Buffer with cap bytes pre-reserved.
func NewBuffer(cap int) *Buffer {
	return &Buffer{buf: make([]byte, 0, cap)}
}

// Bytes returns the accumulated byte slice.
func (b *Buffer) Bytes() []byte { return b.buf }

// Counter appends the big-endian 8-byte encoding of n.
func (b *Buffer) Counter(n uint64) *Buffer {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], n)
	b.buf = append(b.buf, tmp[:]...)
	return b
}

// Fr appends the canonical 32-byte big-endian encoding of an Fr element.
func (b *Buffer) Fr(x fr.Element) *Buffer {
	bz := x.Bytes()
	b.buf = append(b.buf, bz[:]...)
	return b
}

// G1 appends the canonical compressed encoding of a G1 point.
func (b *Buffer) G1(p bls12381.G1Affine) *Buffer {
	bz := p.Bytes()
	b.buf = append(b.buf, bz[:]...)
	return b
}

// G2 appends the canonical compressed encoding of a G2 point.
func (b *Buffer) G2(p bls12381.G2Affine) *Buffer {
	bz := p.Bytes()
	b.buf = append(b.buf, bz[:]...)
	return b
}

// GT appends the canonical encoding of a target-group element.
func (b *Buffer) GT(e bls12381.GT) *Buffer {
	bz := e.Bytes()
	b.buf = append(b.buf, bz[:]...)
	return b
}
