/* SPDX-License-Identifier: MIT
 *
 * Copyright (C) 2017-2025 WireGuard LLC. All Rights Reserved.
 */

// Package tai64n implements the 12-byte timestamp format used in the
// WireGuard handshake's encrypted_timestamp field.
package tai64n

import (
	"encoding/binary"
	"time"
)

// TimestampSize is the wire length of a Timestamp.
const TimestampSize = 12

// Timestamp is an opaque 12-byte timestamp: 8 big-endian bytes of seconds
// since the Unix epoch followed by 4 big-endian bytes of subsecond
// nanoseconds.
type Timestamp [TimestampSize]byte

// Now returns the current time encoded as a Timestamp.
func Now() Timestamp {
	return stamp(time.Now())
}

func stamp(t time.Time) Timestamp {
	var ts Timestamp
	binary.BigEndian.PutUint64(ts[0:8], uint64(t.Unix()))
	binary.BigEndian.PutUint32(ts[8:12], uint32(t.Nanosecond()))
	return ts
}

// After reports whether ts is strictly later than other, used to reject
// replayed or out-of-order handshake initiations.
func (ts Timestamp) After(other Timestamp) bool {
	tSec := binary.BigEndian.Uint64(ts[0:8])
	oSec := binary.BigEndian.Uint64(other[0:8])
	if tSec != oSec {
		return tSec > oSec
	}
	tNano := binary.BigEndian.Uint32(ts[8:12])
	oNano := binary.BigEndian.Uint32(other[8:12])
	return tNano > oNano
}
