// Package pkcs1 implements PKCS#1 v1.5 padding: block-type 1 (sign) and
// block-type 2 (encrypt) pad/unpad, byte-exact against RFC 8017 §9.2/§7.2.
// There is no OAEP or PSS here by design.
package pkcs1

import (
	"io"

	"github.com/pkg/errors"
)

// minPadding is the minimum run of padding bytes (0x01/0xFF or random
// nonzero bytes) RFC 8017 requires between the block-type byte and the
// zero terminator.
const minPadding = 8

// DoPad builds an L-byte PKCS#1 v1.5 block around msg (L = modulusLen):
// 0x00 || 0x01 || 0xFF...0xFF || 0x00 || msg for sign,
// 0x00 || 0x02 || random-nonzero...  || 0x00 || msg for encrypt. rng
// supplies the nonzero padding bytes for the encrypt case.
func DoPad(msg []byte, modulusLen int, sign bool, rng io.Reader) ([]byte, error) {
	n := len(msg)
	if modulusLen-n-3 < minPadding {
		return nil, errors.Errorf("pkcs1: message too long for %d-byte modulus", modulusLen)
	}

	r := make([]byte, modulusLen)
	r[0] = 0x00
	zeroAt := modulusLen - n - 1

	if sign {
		r[1] = 0x01
		for i := 2; i < zeroAt; i++ {
			r[i] = 0xFF
		}
	} else {
		r[1] = 0x02
		padding := r[2:zeroAt]
		if err := fillNonzero(padding, rng); err != nil {
			return nil, errors.Wrap(err, "pkcs1: padding entropy")
		}
	}
	r[zeroAt] = 0x00
	copy(r[modulusLen-n:], msg)
	return r, nil
}

// fillNonzero fills buf with random bytes from rng, redrawing any byte
// that comes up zero (RFC 8017 requires every PS byte be nonzero).
func fillNonzero(buf []byte, rng io.Reader) error {
	for i := range buf {
		for {
			var b [1]byte
			if _, err := io.ReadFull(rng, b[:]); err != nil {
				return err
			}
			if b[0] != 0 {
				buf[i] = b[0]
				break
			}
		}
	}
	return nil
}

// DoUnPad strips PKCS#1 v1.5 padding from p, checking the block-type byte
// matches verify (0x01 for signature verification) or not (0x02 for
// decryption). Returns an error -- callers must treat any error as a
// padding failure and must not distinguish its cause (leaking *why*
// padding failed is itself a Bleichenbacher-class oracle).
func DoUnPad(p []byte, verify bool) ([]byte, error) {
	if len(p) < 3 || p[0] != 0x00 {
		return nil, errors.New("pkcs1: malformed padding")
	}

	wantType := byte(0x02)
	if verify {
		wantType = byte(0x01)
	}
	if p[1] != wantType {
		return nil, errors.New("pkcs1: malformed padding")
	}

	i := 2
	if verify {
		for i < len(p) && p[i] == 0xFF {
			i++
		}
	} else {
		for i < len(p) && p[i] != 0x00 {
			i++
		}
	}
	if i-2 < minPadding {
		return nil, errors.New("pkcs1: malformed padding")
	}
	if i >= len(p) || p[i] != 0x00 {
		return nil, errors.New("pkcs1: malformed padding")
	}
	return p[i+1:], nil
}
