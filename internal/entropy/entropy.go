// Package entropy defines the RNG collaborators spec.md §6 treats as
// external: an audited (if slow) system RNG, an optional hardware entropy
// source, and a CSPRNG stream used both to densify prime candidates and to
// pad PKCS#1 v1.5 block-type-2 messages.
package entropy

import (
	"crypto/rand"
	"io"

	"golang.org/x/sys/cpu"
)

// Source is implemented by anything that can supply the three entropy
// collaborators prime generation and padding need. Default is the
// production implementation; rsaengine.NewWithSource accepts any other.
type Source interface {
	// FillSystemRandom fills buf from the slow, audited system RNG.
	FillSystemRandom(buf []byte) error
	// XorHardwareRandom XORs additional hardware-sourced entropy into buf
	// when available; it is a no-op, not an error, when no hardware
	// source exists on this platform.
	XorHardwareRandom(buf []byte)
	// XorRandom XORs a CSPRNG keystream into buf.
	XorRandom(buf []byte) error
	// CSPRNG returns a reader suitable for Miller-Rabin witness selection
	// and PKCS#1 v1.5 padding.
	CSPRNG() io.Reader
}

// Default wires crypto/rand as both the audited system RNG and the CSPRNG
// stream. Hardware entropy is gated on CPU feature detection (RDRAND)
// rather than an assembly intrinsic, and simply contributes another
// crypto/rand draw XORed in -- the point of the collaborator interface is
// that fill_prime never has to know whether a hardware source exists.
type Default struct{}

// NewDefault returns the production entropy source.
func NewDefault() Default { return Default{} }

func (Default) FillSystemRandom(buf []byte) error {
	_, err := io.ReadFull(rand.Reader, buf)
	return err
}

func (Default) XorHardwareRandom(buf []byte) {
	if !cpu.X86.HasRDRAND {
		return
	}
	extra := make([]byte, len(buf))
	if _, err := io.ReadFull(rand.Reader, extra); err != nil {
		return
	}
	for i := range buf {
		buf[i] ^= extra[i]
	}
}

func (Default) XorRandom(buf []byte) error {
	stream := make([]byte, len(buf))
	if _, err := io.ReadFull(rand.Reader, stream); err != nil {
		return err
	}
	for i := range buf {
		buf[i] ^= stream[i]
	}
	return nil
}

func (Default) CSPRNG() io.Reader { return rand.Reader }
