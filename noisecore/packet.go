/* SPDX-License-Identifier: MIT
 *
 * Copyright (C) 2017-2025 WireGuard LLC. All Rights Reserved.
 */

package noisecore

import "encoding/binary"

// Message type tags, §3.
const (
	MessageInitiationType  = 1
	MessageResponseType    = 2
	MessageCookieReplyType = 3
	MessageTransportType   = 4
)

// Wire record sizes, §3.
const (
	MessageInitiationSize      = 148
	MessageResponseSize        = 92
	MessageCookieReplySize     = 64
	MessageTransportHeaderSize = 16
	MessageTransportTagSize    = 16
	MessageTransportMinSize    = MessageTransportHeaderSize + MessageTransportTagSize

	noisePublicKeySize = NoisePublicKeySize
	aeadTagSize        = 16
	tai64nEncSize      = 12 + aeadTagSize
)

// Field offsets within HandshakeInit.
const (
	offInitType      = 0
	offInitSender    = 4
	offInitEphemeral = 8
	offInitStatic    = offInitEphemeral + noisePublicKeySize             // 40, 48 bytes (32 ct + 16 tag)
	offInitTimestamp = offInitStatic + noisePublicKeySize + aeadTagSize  // 88, 28 bytes
	offInitMAC1      = offInitTimestamp + tai64nEncSize                 // 116
	offInitMAC2      = offInitMAC1 + 16                                 // 132
)

// Field offsets within HandshakeResp.
const (
	offRespType      = 0
	offRespSender    = 4
	offRespReceiver  = 8
	offRespEphemeral = 12
	offRespEmpty     = offRespEphemeral + noisePublicKeySize // 44, 16 bytes (tag only)
	offRespMAC1      = offRespEmpty + aeadTagSize             // 60
	offRespMAC2      = offRespMAC1 + 16                       // 76
)

// Field offsets within TransportData.
const (
	offTransportType     = 0
	offTransportReceiver = 4
	offTransportCounter  = 8
	offTransportContent  = 16
)

// Field offsets within CookieReply.
const (
	offCookieType     = 0
	offCookieReceiver = 4
	offCookieNonce    = 8
	offCookieCookie   = offCookieNonce + 24 // 32, 32 bytes (16 cookie + 16 tag)
)

// HandshakeInitView is a zero-copy typed view over a HandshakeInit record.
type HandshakeInitView struct{ buf []byte }

// WrapHandshakeInit returns a view (read through its getters, written
// through its setters) if buf is at least MessageInitiationSize bytes.
func WrapHandshakeInit(buf []byte) (HandshakeInitView, error) {
	if len(buf) < MessageInitiationSize {
		return HandshakeInitView{}, &BufferTooShort{Expected: MessageInitiationSize, Got: len(buf)}
	}
	return HandshakeInitView{buf: buf[:MessageInitiationSize]}, nil
}

func (v HandshakeInitView) Bytes() []byte { return v.buf }

func (v HandshakeInitView) Type() uint32 { return binary.LittleEndian.Uint32(v.buf[offInitType:]) }
func (v HandshakeInitView) SetType(t uint32) {
	binary.LittleEndian.PutUint32(v.buf[offInitType:], t)
}

func (v HandshakeInitView) SenderIndex() uint32 {
	return binary.LittleEndian.Uint32(v.buf[offInitSender:])
}
func (v HandshakeInitView) SetSenderIndex(idx uint32) {
	binary.LittleEndian.PutUint32(v.buf[offInitSender:], idx)
}

func (v HandshakeInitView) Ephemeral() []byte {
	return v.buf[offInitEphemeral : offInitEphemeral+noisePublicKeySize]
}

func (v HandshakeInitView) EncryptedStatic() []byte {
	return v.buf[offInitStatic : offInitStatic+noisePublicKeySize+aeadTagSize]
}

func (v HandshakeInitView) EncryptedTimestamp() []byte {
	return v.buf[offInitTimestamp : offInitTimestamp+tai64nEncSize]
}

func (v HandshakeInitView) MAC1() []byte { return v.buf[offInitMAC1:offInitMAC2] }
func (v HandshakeInitView) MAC2() []byte { return v.buf[offInitMAC2:MessageInitiationSize] }

// PrefixBeforeMAC1 returns the bytes the mac1 field is computed over.
func (v HandshakeInitView) PrefixBeforeMAC1() []byte { return v.buf[:offInitMAC1] }

// PrefixBeforeMAC2 returns the bytes the mac2 field is computed over.
func (v HandshakeInitView) PrefixBeforeMAC2() []byte { return v.buf[:offInitMAC2] }

// HandshakeRespView is a zero-copy typed view over a HandshakeResp record.
type HandshakeRespView struct{ buf []byte }

// WrapHandshakeResp returns a view if buf is at least MessageResponseSize bytes.
func WrapHandshakeResp(buf []byte) (HandshakeRespView, error) {
	if len(buf) < MessageResponseSize {
		return HandshakeRespView{}, &BufferTooShort{Expected: MessageResponseSize, Got: len(buf)}
	}
	return HandshakeRespView{buf: buf[:MessageResponseSize]}, nil
}

func (v HandshakeRespView) Bytes() []byte { return v.buf }

func (v HandshakeRespView) Type() uint32 { return binary.LittleEndian.Uint32(v.buf[offRespType:]) }
func (v HandshakeRespView) SetType(t uint32) {
	binary.LittleEndian.PutUint32(v.buf[offRespType:], t)
}

func (v HandshakeRespView) SenderIndex() uint32 {
	return binary.LittleEndian.Uint32(v.buf[offRespSender:])
}
func (v HandshakeRespView) SetSenderIndex(idx uint32) {
	binary.LittleEndian.PutUint32(v.buf[offRespSender:], idx)
}

func (v HandshakeRespView) ReceiverIndex() uint32 {
	return binary.LittleEndian.Uint32(v.buf[offRespReceiver:])
}
func (v HandshakeRespView) SetReceiverIndex(idx uint32) {
	binary.LittleEndian.PutUint32(v.buf[offRespReceiver:], idx)
}

func (v HandshakeRespView) Ephemeral() []byte {
	return v.buf[offRespEphemeral : offRespEphemeral+noisePublicKeySize]
}

func (v HandshakeRespView) EncryptedNothing() []byte {
	return v.buf[offRespEmpty : offRespEmpty+aeadTagSize]
}

func (v HandshakeRespView) MAC1() []byte { return v.buf[offRespMAC1:offRespMAC2] }
func (v HandshakeRespView) MAC2() []byte { return v.buf[offRespMAC2:MessageResponseSize] }

func (v HandshakeRespView) PrefixBeforeMAC1() []byte { return v.buf[:offRespMAC1] }
func (v HandshakeRespView) PrefixBeforeMAC2() []byte { return v.buf[:offRespMAC2] }

// TransportDataView is a zero-copy typed view over a TransportData record.
type TransportDataView struct{ buf []byte }

// WrapTransportData returns a view if buf is at least MessageTransportMinSize bytes.
func WrapTransportData(buf []byte) (TransportDataView, error) {
	if len(buf) < MessageTransportMinSize {
		return TransportDataView{}, &BufferLengthTooShort{Expected: MessageTransportMinSize, Got: len(buf)}
	}
	return TransportDataView{buf: buf}, nil
}

func (v TransportDataView) Bytes() []byte { return v.buf }

func (v TransportDataView) Type() uint32 { return binary.LittleEndian.Uint32(v.buf[offTransportType:]) }
func (v TransportDataView) SetType(t uint32) {
	binary.LittleEndian.PutUint32(v.buf[offTransportType:], t)
}

func (v TransportDataView) ReceiverIndex() uint32 {
	return binary.LittleEndian.Uint32(v.buf[offTransportReceiver:])
}
func (v TransportDataView) SetReceiverIndex(idx uint32) {
	binary.LittleEndian.PutUint32(v.buf[offTransportReceiver:], idx)
}

func (v TransportDataView) Counter() uint64 {
	return binary.LittleEndian.Uint64(v.buf[offTransportCounter:])
}
func (v TransportDataView) SetCounter(c uint64) {
	binary.LittleEndian.PutUint64(v.buf[offTransportCounter:], c)
}

// CiphertextAndTag returns the trailing ciphertext||tag portion.
func (v TransportDataView) CiphertextAndTag() []byte { return v.buf[offTransportContent:] }

// Header returns the 16-byte header used as the encryption destination prefix.
func (v TransportDataView) Header() []byte { return v.buf[:offTransportContent] }

// CookieReplyView is a zero-copy typed view over a CookieReply record.
type CookieReplyView struct{ buf []byte }

// WrapCookieReply returns a view if buf is at least MessageCookieReplySize bytes.
func WrapCookieReply(buf []byte) (CookieReplyView, error) {
	if len(buf) < MessageCookieReplySize {
		return CookieReplyView{}, &BufferTooShort{Expected: MessageCookieReplySize, Got: len(buf)}
	}
	return CookieReplyView{buf: buf[:MessageCookieReplySize]}, nil
}

func (v CookieReplyView) Bytes() []byte { return v.buf }

func (v CookieReplyView) ReceiverIndex() uint32 {
	return binary.LittleEndian.Uint32(v.buf[offCookieReceiver:])
}
func (v CookieReplyView) SetReceiverIndex(idx uint32) {
	binary.LittleEndian.PutUint32(v.buf[offCookieReceiver:], idx)
}

func (v CookieReplyView) Nonce() []byte { return v.buf[offCookieNonce:offCookieCookie] }
func (v CookieReplyView) Cookie() []byte {
	return v.buf[offCookieCookie:MessageCookieReplySize]
}
