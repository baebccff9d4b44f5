/* SPDX-License-Identifier: MIT
 *
 * Copyright (C) 2017-2025 WireGuard LLC. All Rights Reserved.
 */

package noisecore

import (
	"crypto/hmac"
	"encoding/binary"
	"hash"

	"golang.org/x/crypto/blake2s"
	"golang.org/x/crypto/chacha20poly1305"
)

func newBlake2s() hash.Hash {
	h, _ := blake2s.New256(nil)
	return h
}

// hashInto computes HASH(one, two) = BLAKE2s-256(one || two) into dst.
func hashInto(dst *[blake2s.Size]byte, one, two []byte) {
	h, _ := blake2s.New256(nil)
	h.Write(one)
	h.Write(two)
	h.Sum(dst[:0])
}

// macInto computes MAC(key, text) = keyed BLAKE2s-128(text) into dst.
func macInto(dst *[blake2s.Size128]byte, key, text []byte) {
	m, _ := blake2s.New128(key)
	m.Write(text)
	m.Sum(dst[:0])
}

// hmacBLAKE2s computes HMAC with BLAKE2s-256 as the inner hash into dst.
func hmacBLAKE2s(dst *[blake2s.Size]byte, key, text []byte) {
	m := hmac.New(newBlake2s, key)
	m.Write(text)
	m.Sum(dst[:0])
}

// kdf1 is KDF_N for N=1.
func kdf1(t1 *[blake2s.Size]byte, key, input []byte) {
	var t0 [blake2s.Size]byte
	hmacBLAKE2s(&t0, key, input)
	hmacBLAKE2s(t1, t0[:], []byte{0x01})
	setZero(t0[:])
}

// kdf2 is KDF_N for N=2.
func kdf2(t1, t2 *[blake2s.Size]byte, key, input []byte) {
	var t0 [blake2s.Size]byte
	hmacBLAKE2s(&t0, key, input)
	hmacBLAKE2s(t1, t0[:], []byte{0x01})

	var buf [blake2s.Size + 1]byte
	copy(buf[:blake2s.Size], t1[:])
	buf[blake2s.Size] = 0x02
	hmacBLAKE2s(t2, t0[:], buf[:])

	setZero(t0[:])
	setZero(buf[:])
}

// kdf3 is KDF_N for N=3.
func kdf3(t1, t2, t3 *[blake2s.Size]byte, key, input []byte) {
	var t0 [blake2s.Size]byte
	hmacBLAKE2s(&t0, key, input)
	hmacBLAKE2s(t1, t0[:], []byte{0x01})

	var buf [blake2s.Size + 1]byte
	copy(buf[:blake2s.Size], t1[:])
	buf[blake2s.Size] = 0x02
	hmacBLAKE2s(t2, t0[:], buf[:])

	copy(buf[:blake2s.Size], t2[:])
	buf[blake2s.Size] = 0x03
	hmacBLAKE2s(t3, t0[:], buf[:])

	setZero(t0[:])
	setZero(buf[:])
}

// nonceFor builds the 12-byte AEAD nonce [0,0,0,0] || LE64(counter).
func nonceFor(counter uint64) [chacha20poly1305.NonceSize]byte {
	var nonce [chacha20poly1305.NonceSize]byte
	binary.LittleEndian.PutUint64(nonce[4:], counter)
	return nonce
}

// aeadSeal appends ciphertext||tag for plaintext to dst, under key, counter
// and aad. dst and plaintext may alias for in-place use (dst == plaintext[:0]).
func aeadSeal(dst, key []byte, counter uint64, aad, plaintext []byte) []byte {
	aead, _ := chacha20poly1305.New(key)
	nonce := nonceFor(counter)
	return aead.Seal(dst, nonce[:], plaintext, aad)
}

// aeadOpen verifies and decrypts ciphertext (with trailing tag) into dst.
func aeadOpen(dst, key []byte, counter uint64, aad, ciphertext []byte) ([]byte, error) {
	aead, _ := chacha20poly1305.New(key)
	nonce := nonceFor(counter)
	out, err := aead.Open(dst, nonce[:], ciphertext, aad)
	if err != nil {
		return nil, ErrAuthFailed
	}
	return out, nil
}
