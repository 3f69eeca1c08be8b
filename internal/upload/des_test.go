package upload

import (
	"bytes"
	"crypto/des"
	"testing"

	"github.com/stretchr/testify/require"
)

// decode is the test-only inverse of desECB.transform: reverse, ECB
// decrypt, reverse. Property P1 requires decode(encode(p, k)) == p.
func decode(t *testing.T, key [8]byte, ciphertext []byte) []byte {
	t.Helper()
	block, err := des.NewCipher(reversed(key[:]))
	require.NoError(t, err)

	rev := reversed(ciphertext)
	dst := make([]byte, len(rev))
	for off := 0; off < len(rev); off += des.BlockSize {
		block.Decrypt(dst[off:off+des.BlockSize], rev[off:off+des.BlockSize])
	}
	return reversed(dst)
}

func TestTransformRoundTrip(t *testing.T) {
	key := [8]byte{1, 2, 3, 4, 5, 6, 7, 8}
	cipher, err := newDESECB(key)
	require.NoError(t, err)

	plaintexts := [][]byte{
		bytes.Repeat([]byte{0x00}, 8),
		{0, 1, 2, 3, 4, 5, 6, 7},
		bytes.Repeat([]byte{0xAB}, 32768),
	}

	for _, pt := range plaintexts {
		ct, err := cipher.transform(pt)
		require.NoError(t, err)
		require.Equal(t, pt, decode(t, key, ct))
	}
}

func TestTransformRejectsNonBlockMultiple(t *testing.T) {
	key := [8]byte{1, 2, 3, 4, 5, 6, 7, 8}
	cipher, err := newDESECB(key)
	require.NoError(t, err)

	_, err = cipher.transform([]byte{1, 2, 3})
	require.Error(t, err)
}

func TestNewDESECBKeyIsReversed(t *testing.T) {
	// Grounded on spec.md §8 scenario 3: key 01..08 must be supplied to DES
	// as 08 07 06 05 04 03 02 01.
	key := [8]byte{1, 2, 3, 4, 5, 6, 7, 8}
	want, err := des.NewCipher([]byte{8, 7, 6, 5, 4, 3, 2, 1})
	require.NoError(t, err)

	got, err := newDESECB(key)
	require.NoError(t, err)

	src := []byte{0, 1, 2, 3, 4, 5, 6, 7}
	wantBuf := make([]byte, 8)
	want.Encrypt(wantBuf, src)

	gotBuf := make([]byte, 8)
	got.block.Encrypt(gotBuf, src)

	require.Equal(t, wantBuf, gotBuf)
}
