/* SPDX-License-Identifier: MIT
 *
 * Copyright (C) 2017-2025 WireGuard LLC. All Rights Reserved.
 */

package noisecore

import (
	"crypto/rand"
	"encoding/binary"
	"sync"
	"time"
)

// DatagramKind tags the outcome of Tunnel.OnDatagram.
type DatagramKind int

const (
	// DatagramHandled means the input was a protocol message fully
	// consumed internally with no output (a handshake response that
	// completed a session, or a cookie reply — cookie replies are
	// recognized by their type tag only and otherwise ignored).
	DatagramHandled DatagramKind = iota
	// DatagramResponse carries a HandshakeResp the caller must send back.
	DatagramResponse
	// DatagramPlaintext carries decrypted transport payload.
	DatagramPlaintext
	// DatagramDiscarded means the input was not recognized and was
	// silently dropped, per §4.5 "other → discard".
	DatagramDiscarded
)

// DatagramResult is the Go rendering of the Core API's
// {Handled | Response(bytes) | Plaintext(range) | Err} result, §6.
type DatagramResult struct {
	Kind    DatagramKind
	Payload []byte
}

// Tunnel is a single-peer IKpsk2 session manager: one local static
// identity, one fixed remote peer, and the index-keyed handshake/session
// tables described in §3 and §4.5.
type Tunnel struct {
	selfPriv NoisePrivateKey
	selfPub  NoisePublicKey
	peerPub  NoisePublicKey
	psk      NoisePresharedKey
	log      *Logger

	initiatorMu  sync.Mutex
	initiatorMap map[uint32]*InitiatorHalfState

	decryptorMu  sync.RWMutex
	decryptorMap map[uint32]*Decryptor

	encryptorMu      sync.Mutex
	currentEncryptor *Encryptor
}

// NewTunnel implements Tunnel::new (§6): self_secret, peer_public and an
// optional preshared_key (pass a zero NoisePresharedKey if none).
func NewTunnel(selfPriv NoisePrivateKey, peerPub NoisePublicKey, psk NoisePresharedKey, log *Logger) *Tunnel {
	if log == nil {
		log = discardLogger
	}
	return &Tunnel{
		selfPriv:     selfPriv,
		selfPub:      selfPriv.publicKey(),
		peerPub:      peerPub,
		psk:          psk,
		log:          log,
		initiatorMap: make(map[uint32]*InitiatorHalfState),
		decryptorMap: make(map[uint32]*Decryptor),
	}
}

// freshIndex draws a random, currently-unused 32-bit index for
// initiatorMap or decryptorMap. Both tables share the index namespace
// convention from the teacher's device.indexTable (a single flat space),
// but this module keeps them as two maps per §3.8, so uniqueness is
// checked against whichever table the caller is inserting into.
func freshIndex(taken func(uint32) bool) (uint32, error) {
	for attempt := 0; attempt < 1<<12; attempt++ {
		var b [4]byte
		if _, err := rand.Read(b[:]); err != nil {
			return 0, err
		}
		idx := binary.LittleEndian.Uint32(b[:])
		if idx != 0 && !taken(idx) {
			return idx, nil
		}
	}
	return 0, ErrIndexSpaceExhausted
}

// BeginHandshake implements Tunnel::begin_handshake (§4.5, §6): allocates a
// fresh local index, runs §4.3.1, and stores the half-state for the
// eventual ConsumeHandshakeResponse.
func (t *Tunnel) BeginHandshake(now time.Time) ([]byte, error) {
	t.initiatorMu.Lock()
	defer t.initiatorMu.Unlock()

	localIndex, err := freshIndex(func(idx uint32) bool {
		_, ok := t.initiatorMap[idx]
		return ok
	})
	if err != nil {
		return nil, err
	}

	out := make([]byte, MessageInitiationSize)
	hs, err := SendHandshakeInitiation(t.selfPriv, t.selfPub, t.peerPub, localIndex, now, nil, out)
	if err != nil {
		return nil, err
	}
	t.initiatorMap[localIndex] = hs
	return out, nil
}

// OnDatagram implements Tunnel::on_datagram (§4.5, §6): dispatches on the
// wire message type and mutates the handshake/session tables accordingly.
func (t *Tunnel) OnDatagram(buf []byte) (DatagramResult, error) {
	if len(buf) < 4 {
		return DatagramResult{Kind: DatagramDiscarded}, nil
	}
	switch binary.LittleEndian.Uint32(buf[:4]) {
	case MessageInitiationType:
		return t.handleInitiation(buf)
	case MessageResponseType:
		return t.handleResponse(buf)
	case MessageCookieReplyType:
		return DatagramResult{Kind: DatagramHandled}, nil
	case MessageTransportType:
		return t.handleTransport(buf)
	default:
		return DatagramResult{Kind: DatagramDiscarded}, nil
	}
}

func (t *Tunnel) handleInitiation(buf []byte) (DatagramResult, error) {
	hs, _, err := ConsumeHandshakeInitiation(t.selfPriv, t.selfPub, t.peerPub, nil, buf)
	if err != nil {
		t.log.Errorf("handshake initiation rejected: %v", err)
		return DatagramResult{}, err
	}

	localIndex, err := freshIndex(func(idx uint32) bool {
		t.decryptorMu.RLock()
		_, ok := t.decryptorMap[idx]
		t.decryptorMu.RUnlock()
		return ok
	})
	if err != nil {
		return DatagramResult{}, err
	}

	out := make([]byte, MessageResponseSize)
	sendKey, recvKey, err := SendHandshakeResponse(hs, t.peerPub, t.psk, localIndex, nil, out)
	if err != nil {
		return DatagramResult{}, err
	}

	t.decryptorMu.Lock()
	t.decryptorMap[localIndex] = NewDecryptor(localIndex, recvKey)
	t.decryptorMu.Unlock()

	t.installEncryptor(NewEncryptor(hs.initiatorIndex, sendKey))

	return DatagramResult{Kind: DatagramResponse, Payload: out}, nil
}

func (t *Tunnel) handleResponse(buf []byte) (DatagramResult, error) {
	view, err := WrapHandshakeResp(buf)
	if err != nil {
		return DatagramResult{}, err
	}
	localIndex := view.ReceiverIndex()

	t.initiatorMu.Lock()
	hs, ok := t.initiatorMap[localIndex]
	if ok {
		delete(t.initiatorMap, localIndex)
	}
	t.initiatorMu.Unlock()
	if !ok {
		return DatagramResult{}, ErrUnknownIndex
	}

	sendKey, recvKey, err := ConsumeHandshakeResponse(hs, t.selfPriv, t.psk, buf)
	if err != nil {
		t.log.Errorf("handshake response rejected: %v", err)
		return DatagramResult{}, err
	}

	t.decryptorMu.Lock()
	t.decryptorMap[localIndex] = NewDecryptor(localIndex, recvKey)
	t.decryptorMu.Unlock()

	t.installEncryptor(NewEncryptor(view.SenderIndex(), sendKey))

	return DatagramResult{Kind: DatagramHandled}, nil
}

func (t *Tunnel) handleTransport(buf []byte) (DatagramResult, error) {
	view, err := WrapTransportData(buf)
	if err != nil {
		return DatagramResult{}, err
	}

	t.decryptorMu.RLock()
	d, ok := t.decryptorMap[view.ReceiverIndex()]
	t.decryptorMu.RUnlock()
	if !ok {
		return DatagramResult{}, ErrUnknownIndex
	}

	plaintext, _, err := d.DecryptInPlace(buf)
	if err != nil {
		return DatagramResult{}, err
	}
	return DatagramResult{Kind: DatagramPlaintext, Payload: plaintext}, nil
}

// installEncryptor replaces current_encryptor atomically: a new handshake
// always produces a fresh session rather than editing one in place (§4.5
// "Sessions are replaced, not edited").
func (t *Tunnel) installEncryptor(e *Encryptor) {
	t.encryptorMu.Lock()
	old := t.currentEncryptor
	t.currentEncryptor = e
	t.encryptorMu.Unlock()
	if old != nil {
		old.Clear()
	}
}

// Encrypt implements Tunnel::encrypt (§4.5, §6): seals plaintext into a
// freshly allocated TransportData-sized buffer using the current session.
func (t *Tunnel) Encrypt(plaintext []byte) ([]byte, error) {
	t.encryptorMu.Lock()
	e := t.currentEncryptor
	t.encryptorMu.Unlock()
	if e == nil {
		return nil, ErrNoSession
	}

	out := make([]byte, TransportSize(len(plaintext)))
	if err := e.EncryptInPlace(out, plaintext); err != nil {
		return nil, err
	}
	return out, nil
}
