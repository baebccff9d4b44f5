/* SPDX-License-Identifier: MIT
 *
 * Copyright (C) 2017-2025 WireGuard LLC. All Rights Reserved.
 */

package noisecore

import "sync"

// RejectAfterMessages bounds how many transport messages a single
// Encryptor may send before its keys must be rotated by a fresh
// handshake. §9 Open Questions resolves sendUpperBound to this value
// rather than the full 2^64-1 counter space, matching WireGuard's
// REJECT_AFTER_MESSAGES.
const RejectAfterMessages = uint64(1) << 60

// Encryptor holds one direction's transport send key and the strictly
// increasing counter used as its AEAD nonce. §3 Encryptor, §4.4.
type Encryptor struct {
	mu             sync.Mutex
	receiverIndex  uint32
	key            [32]byte
	sendCounter    uint64
	sendUpperBound uint64
}

// NewEncryptor builds an Encryptor bound to the peer's receiverIndex (the
// index the peer assigned to its Decryptor for this direction) and key.
func NewEncryptor(receiverIndex uint32, key [32]byte) *Encryptor {
	return &Encryptor{
		receiverIndex:  receiverIndex,
		key:            key,
		sendUpperBound: RejectAfterMessages,
	}
}

// Clear zeroes the session key, so a dropped Encryptor leaves no secret
// material behind.
func (e *Encryptor) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()
	setZero(e.key[:])
}

// Reserve atomically hands out amount contiguous counter values starting at
// the returned base, without holding the lock for the AEAD seals that will
// use them — §5, §9 batch reservation.
func (e *Encryptor) Reserve(amount uint64) (base uint64, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if amount == 0 {
		return e.sendCounter, nil
	}
	if e.sendCounter >= e.sendUpperBound || e.sendUpperBound-e.sendCounter < amount {
		return 0, ErrCounterExhausted
	}
	base = e.sendCounter
	e.sendCounter += amount
	return base, nil
}

// PaddedLen rounds n up to the next multiple of 16, the block size the
// transport plaintext is zero-padded to before sealing. §4.4.1 step 2,
// original_source/src/cipher.rs's `buffer.len() % 0x10`.
func PaddedLen(n int) int {
	const block = 16
	if rem := n % block; rem != 0 {
		return n + (block - rem)
	}
	return n
}

// TransportSize returns the wire size of a TransportData record carrying
// plaintextLen bytes of payload once zero-padded to a 16-byte multiple —
// the size a caller must give EncryptInPlace/EncryptWithCounter for out.
func TransportSize(plaintextLen int) int {
	return MessageTransportHeaderSize + PaddedLen(plaintextLen) + MessageTransportTagSize
}

// EncryptInPlace zero-pads plaintext to a 16-byte multiple and seals it into
// out (sized per TransportSize(len(plaintext))), using a freshly reserved
// counter value. §4.4.1.
func (e *Encryptor) EncryptInPlace(out []byte, plaintext []byte) error {
	base, err := e.Reserve(1)
	if err != nil {
		return err
	}
	return e.sealAt(out, plaintext, base)
}

// EncryptWithCounter seals plaintext at an explicitly reserved counter, for
// callers that batch-reserve a range with Reserve and then seal each
// message outside the lock.
func (e *Encryptor) EncryptWithCounter(out []byte, plaintext []byte, counter uint64) error {
	return e.sealAt(out, plaintext, counter)
}

func (e *Encryptor) sealAt(out []byte, plaintext []byte, counter uint64) error {
	padded := PaddedLen(len(plaintext))
	view, err := WrapTransportData(out[:MessageTransportHeaderSize+padded+MessageTransportTagSize])
	if err != nil {
		return err
	}
	view.SetType(MessageTransportType)
	view.SetReceiverIndex(e.receiverIndex)
	view.SetCounter(counter)

	e.mu.Lock()
	key := e.key
	e.mu.Unlock()

	// encapsulated_packet = encapsulated_packet || zero padding, so the
	// sealed length is always a multiple of 16.
	paddedPlaintext := make([]byte, padded)
	copy(paddedPlaintext, plaintext)

	aeadSeal(view.CiphertextAndTag()[:0], key[:], counter, nil, paddedPlaintext)
	return nil
}

// Decryptor holds one direction's transport receive key. It carries no
// replay-window state of its own — see the replay package for an optional
// wrapper (§3 Decryptor, §9).
type Decryptor struct {
	mu         sync.Mutex
	localIndex uint32
	key        [32]byte
}

// NewDecryptor builds a Decryptor keyed for localIndex (the index to be
// published in outgoing Encryptor records so the peer can address us).
func NewDecryptor(localIndex uint32, key [32]byte) *Decryptor {
	return &Decryptor{localIndex: localIndex, key: key}
}

// LocalIndex returns the index this Decryptor is addressed by.
func (d *Decryptor) LocalIndex() uint32 { return d.localIndex }

// Clear zeroes the session key.
func (d *Decryptor) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	setZero(d.key[:])
}

// DecryptInPlace opens a TransportData record in buf, returning the
// plaintext slice (a view into buf) and the counter it was sent under, so a
// caller can apply its own replay policy. §4.4.
func (d *Decryptor) DecryptInPlace(buf []byte) (plaintext []byte, counter uint64, err error) {
	view, err := WrapTransportData(buf)
	if err != nil {
		return nil, 0, err
	}
	// encapsulated_packet was zero-padded to a multiple of 16 before
	// sealing; a length that doesn't round-trip that padding can't be a
	// genuine TransportData record. §4.4.2 step 2.
	if len(buf)%16 != 0 {
		return nil, 0, ErrBufferLengthInvalid
	}
	if view.Type() != MessageTransportType {
		return nil, 0, ErrInvalidMessageType
	}

	counter = view.Counter()

	d.mu.Lock()
	key := d.key
	d.mu.Unlock()

	plaintext, err = aeadOpen(view.CiphertextAndTag()[:0], key[:], counter, nil, view.CiphertextAndTag())
	if err != nil {
		return nil, 0, err
	}
	return plaintext, counter, nil
}
