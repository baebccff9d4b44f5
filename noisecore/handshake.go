/* SPDX-License-Identifier: MIT
 *
 * Copyright (C) 2017-2025 WireGuard LLC. All Rights Reserved.
 */

package noisecore

import (
	"crypto/subtle"
	"encoding/binary"
	"time"

	"golang.org/x/crypto/blake2s"

	"github.com/noisepoint/wgcore/tai64n"
)

// Protocol constants, §3.
const (
	NoiseConstruction = "Noise_IKpsk2_25519_ChaChaPoly_BLAKE2s"
	NoiseIdentifier   = "WireGuard v1 zx2c4 Jason@zx2c4.com"
	LabelMAC1         = "mac1----"
	LabelCookie       = "cookie--"
)

var (
	initialChainKey [blake2s.Size]byte
	initialHash     [blake2s.Size]byte
)

func init() {
	initialChainKey = blake2s.Sum256([]byte(NoiseConstruction))
	hashInto(&initialHash, initialChainKey[:], []byte(NoiseIdentifier))
}

// InitiatorHalfState is the transient state an initiator carries between
// SendHandshakeInitiation and ConsumeHandshakeResponse. §3
// HandshakeHalfState.
type InitiatorHalfState struct {
	chainKey   [blake2s.Size]byte
	hash       [blake2s.Size]byte
	ephemeral  NoisePrivateKey
	localIndex uint32
	consumed   bool
}

// Clear zeroes the secret material in h and marks it consumed, so any
// further use is a caller bug rather than a silent key reuse.
func (h *InitiatorHalfState) Clear() {
	setZero(h.chainKey[:])
	setZero(h.hash[:])
	setZero(h.ephemeral[:])
	h.consumed = true
}

// ResponderHalfState is the transient state a responder carries between
// ConsumeHandshakeInitiation and SendHandshakeResponse.
type ResponderHalfState struct {
	chainKey        [blake2s.Size]byte
	hash            [blake2s.Size]byte
	remoteEphemeral NoisePublicKey
	initiatorIndex  uint32
	consumed        bool
}

// Clear zeroes the secret material in h and marks it consumed.
func (h *ResponderHalfState) Clear() {
	setZero(h.chainKey[:])
	setZero(h.hash[:])
	h.consumed = true
}

// SendHandshakeInitiation implements §4.3.1: it generates a fresh ephemeral
// key, writes a HandshakeInit record into out, and returns the half-state
// to be consumed by the matching ConsumeHandshakeResponse. cookie, if
// non-nil, is used as the mac2 key (cookie state machine is out of scope;
// Tunnel always passes nil).
func SendHandshakeInitiation(
	selfPriv NoisePrivateKey,
	selfPub NoisePublicKey,
	peerPub NoisePublicKey,
	localIndex uint32,
	now time.Time,
	cookie *[16]byte,
	out []byte,
) (*InitiatorHalfState, error) {
	view, err := WrapHandshakeInit(out)
	if err != nil {
		return nil, err
	}

	hs := &InitiatorHalfState{localIndex: localIndex}
	hashInto(&hs.hash, initialHash[:], peerPub[:])

	view.SetType(MessageInitiationType)
	view.SetSenderIndex(localIndex)

	hs.ephemeral, err = newPrivateKey()
	if err != nil {
		return nil, err
	}
	ephemeralPub := hs.ephemeral.publicKey()
	copy(view.Ephemeral(), ephemeralPub[:])

	kdf1(&hs.chainKey, initialChainKey[:], ephemeralPub[:])
	hashInto(&hs.hash, hs.hash[:], ephemeralPub[:])

	ss, err := hs.ephemeral.sharedSecret(peerPub)
	if err != nil {
		return nil, err
	}
	var key [32]byte
	kdf2(&hs.chainKey, &key, hs.chainKey[:], ss[:])
	setZero(ss[:])

	aeadSeal(view.EncryptedStatic()[:0], key[:], 0, hs.hash[:], selfPub[:])
	hashInto(&hs.hash, hs.hash[:], view.EncryptedStatic())

	ss2, err := selfPriv.sharedSecret(peerPub)
	if err != nil {
		return nil, err
	}
	kdf2(&hs.chainKey, &key, hs.chainKey[:], ss2[:])
	setZero(ss2[:])

	// TAI64N(now): 8 big-endian seconds, 4 big-endian nanoseconds.
	var ts tai64n.Timestamp
	binary.BigEndian.PutUint64(ts[0:8], uint64(now.Unix()))
	binary.BigEndian.PutUint32(ts[8:12], uint32(now.Nanosecond()))
	aeadSeal(view.EncryptedTimestamp()[:0], key[:], 0, hs.hash[:], ts[:])
	hashInto(&hs.hash, hs.hash[:], view.EncryptedTimestamp())
	setZero(key[:])

	var mac1Key [blake2s.Size]byte
	hashInto(&mac1Key, []byte(LabelMAC1), peerPub[:])
	var mac1 [16]byte
	macInto(&mac1, mac1Key[:], view.PrefixBeforeMAC1())
	copy(view.MAC1(), mac1[:])

	if cookie != nil {
		var mac2 [16]byte
		macInto(&mac2, cookie[:], view.PrefixBeforeMAC2())
		copy(view.MAC2(), mac2[:])
	}

	return hs, nil
}

// ConsumeHandshakeInitiation implements §4.3.2. peerPub is the initiator's
// static public key, known a priori (IK pattern). Returns the half-state to
// be consumed by SendHandshakeResponse and the decrypted initiator
// timestamp, so a caller may apply its own replay/monotonicity policy.
func ConsumeHandshakeInitiation(
	selfPriv NoisePrivateKey,
	selfPub NoisePublicKey,
	peerPub NoisePublicKey,
	cookie *[16]byte,
	buf []byte,
) (*ResponderHalfState, tai64n.Timestamp, error) {
	var zeroTS tai64n.Timestamp

	view, err := WrapHandshakeInit(buf)
	if err != nil {
		return nil, zeroTS, err
	}
	if view.Type() != MessageInitiationType {
		return nil, zeroTS, ErrInvalidMessageType
	}

	hs := &ResponderHalfState{initiatorIndex: view.SenderIndex()}
	hashInto(&hs.hash, initialHash[:], selfPub[:])

	copy(hs.remoteEphemeral[:], view.Ephemeral())
	hashInto(&hs.hash, hs.hash[:], hs.remoteEphemeral[:])

	kdf1(&hs.chainKey, initialChainKey[:], hs.remoteEphemeral[:])

	ss, err := selfPriv.sharedSecret(hs.remoteEphemeral)
	if err != nil {
		return nil, zeroTS, ErrAuthFailed
	}
	var key [32]byte
	kdf2(&hs.chainKey, &key, hs.chainKey[:], ss[:])
	setZero(ss[:])

	var decryptedStatic [32]byte
	if _, err := aeadOpen(decryptedStatic[:0], key[:], 0, hs.hash[:], view.EncryptedStatic()); err != nil {
		return nil, zeroTS, ErrAuthFailed
	}
	if subtle.ConstantTimeCompare(decryptedStatic[:], peerPub[:]) != 1 {
		setZero(decryptedStatic[:])
		return nil, zeroTS, ErrAuthFailed
	}
	setZero(decryptedStatic[:])
	hashInto(&hs.hash, hs.hash[:], view.EncryptedStatic())

	ss2, err := selfPriv.sharedSecret(peerPub)
	if err != nil {
		return nil, zeroTS, ErrAuthFailed
	}
	kdf2(&hs.chainKey, &key, hs.chainKey[:], ss2[:])
	setZero(ss2[:])

	var ts tai64n.Timestamp
	if _, err := aeadOpen(ts[:0], key[:], 0, hs.hash[:], view.EncryptedTimestamp()); err != nil {
		setZero(key[:])
		return nil, zeroTS, ErrAuthFailed
	}
	setZero(key[:])
	hashInto(&hs.hash, hs.hash[:], view.EncryptedTimestamp())

	var mac1Key [blake2s.Size]byte
	hashInto(&mac1Key, []byte(LabelMAC1), selfPub[:])
	var wantMAC1 [16]byte
	macInto(&wantMAC1, mac1Key[:], view.PrefixBeforeMAC1())
	if subtle.ConstantTimeCompare(wantMAC1[:], view.MAC1()) != 1 {
		return nil, zeroTS, ErrMacMismatch
	}

	if cookie != nil {
		var wantMAC2 [16]byte
		macInto(&wantMAC2, cookie[:], view.PrefixBeforeMAC2())
		if subtle.ConstantTimeCompare(wantMAC2[:], view.MAC2()) != 1 {
			return nil, zeroTS, ErrMacMismatch
		}
	} else if !isZero(view.MAC2()) {
		return nil, zeroTS, ErrMacMismatch
	}

	return hs, ts, nil
}

// SendHandshakeResponse implements §4.3.3. peerPub is the initiator's
// static public key. psk is the preshared key (all-zero if none
// configured). Returns (sendKey, recvKey) from the responder's vantage.
func SendHandshakeResponse(
	hs *ResponderHalfState,
	peerPub NoisePublicKey,
	psk NoisePresharedKey,
	localIndex uint32,
	cookie *[16]byte,
	out []byte,
) (sendKey, recvKey [32]byte, err error) {
	if hs.consumed {
		return sendKey, recvKey, ErrHandshakeConsumed
	}

	view, err := WrapHandshakeResp(out)
	if err != nil {
		return sendKey, recvKey, err
	}

	view.SetType(MessageResponseType)
	view.SetSenderIndex(localIndex)
	view.SetReceiverIndex(hs.initiatorIndex)

	ephemeral, err := newPrivateKey()
	if err != nil {
		return sendKey, recvKey, err
	}
	ephemeralPub := ephemeral.publicKey()
	copy(view.Ephemeral(), ephemeralPub[:])
	hashInto(&hs.hash, hs.hash[:], ephemeralPub[:])

	kdf1(&hs.chainKey, hs.chainKey[:], ephemeralPub[:])

	ss, err := ephemeral.sharedSecret(hs.remoteEphemeral)
	if err != nil {
		return sendKey, recvKey, err
	}
	kdf1(&hs.chainKey, hs.chainKey[:], ss[:])
	setZero(ss[:])

	ss2, err := ephemeral.sharedSecret(peerPub)
	if err != nil {
		return sendKey, recvKey, err
	}
	kdf1(&hs.chainKey, hs.chainKey[:], ss2[:])
	setZero(ss2[:])
	setZero(ephemeral[:])

	var tau, key [32]byte
	kdf3(&hs.chainKey, &tau, &key, hs.chainKey[:], psk[:])
	hashInto(&hs.hash, hs.hash[:], tau[:])
	setZero(tau[:])

	aeadSeal(view.EncryptedNothing()[:0], key[:], 0, hs.hash[:], nil)
	setZero(key[:])
	hashInto(&hs.hash, hs.hash[:], view.EncryptedNothing())

	var mac1Key [blake2s.Size]byte
	hashInto(&mac1Key, []byte(LabelMAC1), peerPub[:])
	var mac1 [16]byte
	macInto(&mac1, mac1Key[:], view.PrefixBeforeMAC1())
	copy(view.MAC1(), mac1[:])

	if cookie != nil {
		var mac2 [16]byte
		macInto(&mac2, cookie[:], view.PrefixBeforeMAC2())
		copy(view.MAC2(), mac2[:])
	}

	var discard [32]byte
	kdf3(&discard, &recvKey, &sendKey, hs.chainKey[:], nil)
	setZero(discard[:])

	hs.Clear()
	return sendKey, recvKey, nil
}

// ConsumeHandshakeResponse implements §4.3.4. Returns (sendKey, recvKey)
// from the initiator's vantage.
func ConsumeHandshakeResponse(
	hs *InitiatorHalfState,
	selfPriv NoisePrivateKey,
	psk NoisePresharedKey,
	buf []byte,
) (sendKey, recvKey [32]byte, err error) {
	if hs.consumed {
		return sendKey, recvKey, ErrHandshakeConsumed
	}

	view, err := WrapHandshakeResp(buf)
	if err != nil {
		return sendKey, recvKey, err
	}
	if view.Type() != MessageResponseType {
		return sendKey, recvKey, ErrInvalidMessageType
	}
	if view.ReceiverIndex() != hs.localIndex {
		return sendKey, recvKey, ErrUnknownIndex
	}

	var remoteEphemeral NoisePublicKey
	copy(remoteEphemeral[:], view.Ephemeral())
	hashInto(&hs.hash, hs.hash[:], remoteEphemeral[:])

	kdf1(&hs.chainKey, hs.chainKey[:], remoteEphemeral[:])

	ss, err := hs.ephemeral.sharedSecret(remoteEphemeral)
	if err != nil {
		return sendKey, recvKey, ErrAuthFailed
	}
	kdf1(&hs.chainKey, hs.chainKey[:], ss[:])
	setZero(ss[:])

	ss2, err := selfPriv.sharedSecret(remoteEphemeral)
	if err != nil {
		return sendKey, recvKey, ErrAuthFailed
	}
	kdf1(&hs.chainKey, hs.chainKey[:], ss2[:])
	setZero(ss2[:])

	var tau, key [32]byte
	kdf3(&hs.chainKey, &tau, &key, hs.chainKey[:], psk[:])
	hashInto(&hs.hash, hs.hash[:], tau[:])
	setZero(tau[:])

	if _, err := aeadOpen(nil, key[:], 0, hs.hash[:], view.EncryptedNothing()); err != nil {
		setZero(key[:])
		return sendKey, recvKey, ErrAuthFailed
	}
	setZero(key[:])

	var discard [32]byte
	kdf3(&discard, &sendKey, &recvKey, hs.chainKey[:], nil)
	setZero(discard[:])

	hs.Clear()
	return sendKey, recvKey, nil
}
