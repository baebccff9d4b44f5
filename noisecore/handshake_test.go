package noisecore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func genIdentity(t *testing.T) (NoisePrivateKey, NoisePublicKey) {
	t.Helper()
	sk, err := newPrivateKey()
	require.NoError(t, err)
	return sk, sk.publicKey()
}

func TestHandshakeRoundTripDerivesMatchingTransportKeys(t *testing.T) {
	privA, pubA := genIdentity(t)
	privB, pubB := genIdentity(t)
	var psk NoisePresharedKey

	initBuf := make([]byte, MessageInitiationSize)
	hsI, err := SendHandshakeInitiation(privA, pubA, pubB, 0xAAAAAAAA, time.Now(), nil, initBuf)
	require.NoError(t, err)

	hsR, ts, err := ConsumeHandshakeInitiation(privB, pubB, pubA, nil, initBuf)
	require.NoError(t, err)
	require.NotZero(t, ts)

	respBuf := make([]byte, MessageResponseSize)
	sendKeyB, recvKeyB, err := SendHandshakeResponse(hsR, pubA, psk, 0xBBBBBBBB, nil, respBuf)
	require.NoError(t, err)

	sendKeyA, recvKeyA, err := ConsumeHandshakeResponse(hsI, privA, psk, respBuf)
	require.NoError(t, err)

	require.Equal(t, sendKeyA, recvKeyB, "A's send key must be B's recv key")
	require.Equal(t, recvKeyA, sendKeyB, "A's recv key must be B's send key")
	require.NotEqual(t, sendKeyA, recvKeyA)
}

func TestHandshakeRoundTripWithPresharedKey(t *testing.T) {
	privA, pubA := genIdentity(t)
	privB, pubB := genIdentity(t)
	psk := NoisePresharedKey{1, 2, 3, 4, 5}

	initBuf := make([]byte, MessageInitiationSize)
	hsI, err := SendHandshakeInitiation(privA, pubA, pubB, 1, time.Now(), nil, initBuf)
	require.NoError(t, err)

	hsR, _, err := ConsumeHandshakeInitiation(privB, pubB, pubA, nil, initBuf)
	require.NoError(t, err)

	respBuf := make([]byte, MessageResponseSize)
	sendKeyB, recvKeyB, err := SendHandshakeResponse(hsR, pubA, psk, 2, nil, respBuf)
	require.NoError(t, err)

	sendKeyA, recvKeyA, err := ConsumeHandshakeResponse(hsI, privA, psk, respBuf)
	require.NoError(t, err)

	require.Equal(t, sendKeyA, recvKeyB)
	require.Equal(t, recvKeyA, sendKeyB)
}

func TestConsumeHandshakeInitiationRejectsTamperedMAC1(t *testing.T) {
	privA, pubA := genIdentity(t)
	privB, pubB := genIdentity(t)

	initBuf := make([]byte, MessageInitiationSize)
	_, err := SendHandshakeInitiation(privA, pubA, pubB, 1, time.Now(), nil, initBuf)
	require.NoError(t, err)

	initBuf[offInitMAC1] ^= 0xFF

	_, _, err = ConsumeHandshakeInitiation(privB, pubB, pubA, nil, initBuf)
	require.ErrorIs(t, err, ErrMacMismatch)
}

func TestConsumeHandshakeInitiationRejectsWrongExpectedPeer(t *testing.T) {
	privA, pubA := genIdentity(t)
	privB, pubB := genIdentity(t)
	_, impostorPub := genIdentity(t)

	initBuf := make([]byte, MessageInitiationSize)
	_, err := SendHandshakeInitiation(privA, pubA, pubB, 1, time.Now(), nil, initBuf)
	require.NoError(t, err)

	_, _, err = ConsumeHandshakeInitiation(privB, pubB, impostorPub, nil, initBuf)
	require.ErrorIs(t, err, ErrAuthFailed)
}

func TestConsumeHandshakeInitiationRejectsWrongMessageType(t *testing.T) {
	_, pubB := genIdentity(t)
	privB, _ := genIdentity(t)
	buf := make([]byte, MessageInitiationSize)
	buf[0] = MessageResponseType

	_, _, err := ConsumeHandshakeInitiation(privB, pubB, pubB, nil, buf)
	require.ErrorIs(t, err, ErrInvalidMessageType)
}

func TestConsumeHandshakeResponseRejectsWrongReceiverIndex(t *testing.T) {
	privA, pubA := genIdentity(t)
	privB, pubB := genIdentity(t)

	initBuf := make([]byte, MessageInitiationSize)
	hsI, err := SendHandshakeInitiation(privA, pubA, pubB, 42, time.Now(), nil, initBuf)
	require.NoError(t, err)

	hsR, _, err := ConsumeHandshakeInitiation(privB, pubB, pubA, nil, initBuf)
	require.NoError(t, err)

	respBuf := make([]byte, MessageResponseSize)
	var psk NoisePresharedKey
	_, _, err = SendHandshakeResponse(hsR, pubA, psk, 7, nil, respBuf)
	require.NoError(t, err)

	view, err := WrapHandshakeResp(respBuf)
	require.NoError(t, err)
	view.SetReceiverIndex(9999)

	_, _, err = ConsumeHandshakeResponse(hsI, privA, psk, respBuf)
	require.ErrorIs(t, err, ErrUnknownIndex)
}

func TestHalfStateCannotBeConsumedTwice(t *testing.T) {
	privA, pubA := genIdentity(t)
	privB, pubB := genIdentity(t)
	var psk NoisePresharedKey

	initBuf := make([]byte, MessageInitiationSize)
	hsI, err := SendHandshakeInitiation(privA, pubA, pubB, 1, time.Now(), nil, initBuf)
	require.NoError(t, err)

	hsR, _, err := ConsumeHandshakeInitiation(privB, pubB, pubA, nil, initBuf)
	require.NoError(t, err)

	respBuf := make([]byte, MessageResponseSize)
	_, _, err = SendHandshakeResponse(hsR, pubA, psk, 2, nil, respBuf)
	require.NoError(t, err)
	_, _, err = SendHandshakeResponse(hsR, pubA, psk, 2, nil, respBuf)
	require.ErrorIs(t, err, ErrHandshakeConsumed)

	_, _, err = ConsumeHandshakeResponse(hsI, privA, psk, respBuf)
	require.NoError(t, err)
	_, _, err = ConsumeHandshakeResponse(hsI, privA, psk, respBuf)
	require.ErrorIs(t, err, ErrHandshakeConsumed)
}
