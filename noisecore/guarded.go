/* SPDX-License-Identifier: MIT
 *
 * Copyright (C) 2017-2025 WireGuard LLC. All Rights Reserved.
 */

package noisecore

import (
	"sync"

	"github.com/noisepoint/wgcore/replay"
)

// GuardedDecryptor pairs a Decryptor with a replay.Filter. §3 and §9
// explicitly keep replay defense out of the core Decryptor type; this is
// the optional wrapper those notes describe, for callers that want one.
type GuardedDecryptor struct {
	mu     sync.Mutex
	d      *Decryptor
	filter replay.Filter
}

// NewGuardedDecryptor wraps d with a fresh replay window.
func NewGuardedDecryptor(d *Decryptor) *GuardedDecryptor {
	return &GuardedDecryptor{d: d}
}

// DecryptInPlace opens buf and rejects the counter if it falls outside the
// sliding window or has already been seen.
func (g *GuardedDecryptor) DecryptInPlace(buf []byte) ([]byte, error) {
	plaintext, counter, err := g.d.DecryptInPlace(buf)
	if err != nil {
		return nil, err
	}

	g.mu.Lock()
	ok := g.filter.ValidateCounter(counter, RejectAfterMessages)
	g.mu.Unlock()
	if !ok {
		return nil, ErrAuthFailed
	}
	return plaintext, nil
}

// LocalIndex delegates to the wrapped Decryptor.
func (g *GuardedDecryptor) LocalIndex() uint32 { return g.d.LocalIndex() }

// Clear zeroes the wrapped Decryptor's key and resets the window.
func (g *GuardedDecryptor) Clear() {
	g.d.Clear()
	g.mu.Lock()
	g.filter.Reset()
	g.mu.Unlock()
}
