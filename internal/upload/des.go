package upload

import (
	"crypto/cipher"
	"crypto/des" //nolint:staticcheck // DES is the device's native cipher, not a choice of ours.
	"fmt"
)

// desECB is a small single-purpose ECB-mode wrapper around crypto/des.
//
// Go's standard cipher package deliberately does not expose an ECB mode
// (it's an unsafe general-purpose primitive), and nothing in the retrieved
// example corpus ships a DES implementation at all — x/crypto covers
// blowfish/tea/twofish/salsa20 but not the DES family. crypto/des is the
// only place a standards-compliant DES block cipher exists for this driver,
// so block-by-block ECB is implemented here directly rather than pulled
// from a library. See DESIGN.md for the full justification.
type desECB struct {
	block cipher.Block
}

// newDESECB builds a DES-ECB cipher keyed with key taken in reverse byte
// order, per spec.md §4.5 step 1.
func newDESECB(key [8]byte) (*desECB, error) {
	block, err := des.NewCipher(reversed(key[:]))
	if err != nil {
		return nil, fmt.Errorf("upload: des key: %w", err)
	}
	return &desECB{block: block}, nil
}

// encrypt runs ECB-mode DES encryption over src, which must be a multiple of
// the 8-byte DES block size. The output is the same length as src.
func (e *desECB) encrypt(src []byte) ([]byte, error) {
	if len(src)%des.BlockSize != 0 {
		return nil, fmt.Errorf("upload: slice of %d bytes is not a multiple of the DES block size", len(src))
	}

	dst := make([]byte, len(src))
	for off := 0; off < len(src); off += des.BlockSize {
		e.block.Encrypt(dst[off:off+des.BlockSize], src[off:off+des.BlockSize])
	}
	return dst, nil
}

func reversed(b []byte) []byte {
	out := make([]byte, len(b))
	for i, c := range b {
		out[len(b)-1-i] = c
	}
	return out
}

// transform applies the device's odd "reverse, ECB-encrypt, reverse" cipher
// (spec.md §4.5/§9): it is equivalent to running DES on a little-endian view
// of what DES natively treats as big-endian. slice must be a non-zero
// multiple of 8 bytes.
func (e *desECB) transform(slice []byte) ([]byte, error) {
	cipherText, err := e.encrypt(reversed(slice))
	if err != nil {
		return nil, err
	}
	return reversed(cipherText), nil
}
