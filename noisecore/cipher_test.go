package noisecore

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func pairedCipherState() (*Encryptor, *Decryptor) {
	var key [32]byte
	for i := range key {
		key[i] = byte(i + 1)
	}
	return NewEncryptor(0x1234, key), NewDecryptor(0x1234, key)
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	e, d := pairedCipherState()
	plaintext := []byte("sixteen-byte-msg")
	require.Len(t, plaintext, 16)

	out := make([]byte, TransportSize(len(plaintext)))
	require.NoError(t, e.EncryptInPlace(out, plaintext))

	view, err := WrapTransportData(out)
	require.NoError(t, err)
	require.EqualValues(t, MessageTransportType, view.Type())
	require.EqualValues(t, 0x1234, view.ReceiverIndex())
	require.EqualValues(t, 0, view.Counter())

	got, counter, err := d.DecryptInPlace(out)
	require.NoError(t, err)
	require.EqualValues(t, 0, counter)
	require.Equal(t, plaintext, got)
}

func TestEncryptPadsPlaintextToBlockMultiple(t *testing.T) {
	// §8 scenario 3: a length-7 plaintext is padded to 16 bytes before
	// sealing, and decryption recovers plaintext ∥ 0x00^9, not the
	// original 7 bytes.
	e, d := pairedCipherState()
	plaintext := []byte("payload") // 7 bytes
	require.Len(t, plaintext, 7)

	out := make([]byte, TransportSize(len(plaintext)))
	require.Len(t, out, MessageTransportHeaderSize+16+MessageTransportTagSize)
	require.NoError(t, e.EncryptInPlace(out, plaintext))

	got, _, err := d.DecryptInPlace(out)
	require.NoError(t, err)
	require.Len(t, got, 16)

	want := append(append([]byte{}, plaintext...), bytes.Repeat([]byte{0x00}, 9)...)
	require.Equal(t, want, got)
}

func TestEncryptCounterStrictlyIncreasing(t *testing.T) {
	e, d := pairedCipherState()
	plaintext := []byte("sixteen-byte-msg")
	var last uint64
	for i := 0; i < 1000; i++ {
		out := make([]byte, TransportSize(len(plaintext)))
		require.NoError(t, e.EncryptInPlace(out, plaintext))
		_, counter, err := d.DecryptInPlace(out)
		require.NoError(t, err)
		if i > 0 {
			require.Equal(t, last+1, counter)
		}
		last = counter
	}
}

func TestDecryptRejectsTamperedCiphertext(t *testing.T) {
	e, d := pairedCipherState()
	plaintext := []byte("howdy")
	out := make([]byte, TransportSize(len(plaintext)))
	require.NoError(t, e.EncryptInPlace(out, plaintext))
	out[len(out)-1] ^= 0xFF

	_, _, err := d.DecryptInPlace(out)
	require.ErrorIs(t, err, ErrAuthFailed)
}

func TestDecryptRejectsBufferLengthNotBlockAligned(t *testing.T) {
	e, d := pairedCipherState()
	plaintext := []byte("sixteen-byte-msg")
	out := make([]byte, TransportSize(len(plaintext)))
	require.NoError(t, e.EncryptInPlace(out, plaintext))

	misaligned := out[:len(out)-1]
	_, _, err := d.DecryptInPlace(misaligned)
	require.ErrorIs(t, err, ErrBufferLengthInvalid)
}

func TestReserveHandsOutContiguousDisjointRanges(t *testing.T) {
	e, _ := pairedCipherState()
	base1, err := e.Reserve(10)
	require.NoError(t, err)
	require.EqualValues(t, 0, base1)

	base2, err := e.Reserve(5)
	require.NoError(t, err)
	require.EqualValues(t, 10, base2)
}

func TestReserveRejectsWhenExhausted(t *testing.T) {
	e, _ := pairedCipherState()
	e.sendUpperBound = 3
	_, err := e.Reserve(3)
	require.NoError(t, err)

	_, err = e.Reserve(1)
	require.ErrorIs(t, err, ErrCounterExhausted)
}

func TestEncryptWithCounterUsesExplicitValue(t *testing.T) {
	e, d := pairedCipherState()
	base, err := e.Reserve(3)
	require.NoError(t, err)

	plaintext := []byte("sixteen-byte-msg")
	out := make([]byte, TransportSize(len(plaintext)))
	require.NoError(t, e.EncryptWithCounter(out, plaintext, base+2))

	_, counter, err := d.DecryptInPlace(out)
	require.NoError(t, err)
	require.Equal(t, base+2, counter)
}

func TestClearZeroesKey(t *testing.T) {
	e, d := pairedCipherState()
	e.Clear()
	require.True(t, isZero(e.key[:]))
	d.Clear()
	require.True(t, isZero(d.key[:]))
}
