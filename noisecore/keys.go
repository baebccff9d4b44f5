/* SPDX-License-Identifier: MIT
 *
 * Copyright (C) 2017-2025 WireGuard LLC. All Rights Reserved.
 */

package noisecore

import (
	"crypto/rand"
	"crypto/subtle"

	"golang.org/x/crypto/curve25519"
)

const (
	// NoisePublicKeySize is the Curve25519 public key size.
	NoisePublicKeySize = 32
	// NoisePrivateKeySize is the Curve25519 private key size.
	NoisePrivateKeySize = 32
	// NoisePresharedKeySize is the preshared key size.
	NoisePresharedKeySize = 32
)

type (
	// NoisePrivateKey is a clamped Curve25519 scalar.
	NoisePrivateKey [NoisePrivateKeySize]byte
	// NoisePublicKey is a Curve25519 point.
	NoisePublicKey [NoisePublicKeySize]byte
	// NoisePresharedKey is the optional IKpsk2 preshared secret; the zero
	// value is the all-zero key used when no PSK was configured.
	NoisePresharedKey [NoisePresharedKeySize]byte
)

// newPrivateKey generates a fresh, correctly clamped Curve25519 scalar.
func newPrivateKey() (sk NoisePrivateKey, err error) {
	_, err = rand.Read(sk[:])
	if err != nil {
		return
	}
	sk.clamp()
	return
}

// clamp applies the standard X25519 scalar clamp (RFC 7748 §5).
func (sk *NoisePrivateKey) clamp() {
	sk[0] &= 248
	sk[31] = (sk[31] & 127) | 64
}

// publicKey computes DH_BASE(sk): the Curve25519 point of sk with the
// standard base point.
func (sk *NoisePrivateKey) publicKey() (pk NoisePublicKey) {
	apk := (*[NoisePublicKeySize]byte)(&pk)
	ask := (*[NoisePrivateKeySize]byte)(sk)
	curve25519.ScalarBaseMult(apk, ask)
	return
}

// sharedSecret computes DH(sk, pk): the X25519 scalar multiplication of sk
// with the peer point pk.
func (sk *NoisePrivateKey) sharedSecret(pk NoisePublicKey) (ss [NoisePublicKeySize]byte, err error) {
	apk := (*[NoisePublicKeySize]byte)(&pk)
	ask := (*[NoisePrivateKeySize]byte)(sk)
	curve25519.ScalarMult(&ss, ask, apk)
	if isZero(ss[:]) {
		return ss, errInvalidPublicKey
	}
	return ss, nil
}

// setZero overwrites b with zero bytes, used on every drop path that holds
// secret material (ephemeral scalars, chaining keys, session keys).
func setZero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// isZero reports whether b is all-zero bytes, in constant time.
func isZero(b []byte) bool {
	acc := byte(0)
	for _, v := range b {
		acc |= v
	}
	return subtle.ConstantTimeByteEq(acc, 0) == 1
}
