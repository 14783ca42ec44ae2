// Package rsaengine is the RSA façade: load/save key material, sign,
// verify, encrypt, decrypt, generate, and check_private_key, composed over
// pkcs1 padding, the rsakey ASN.1 codec, and the bigint modular engine.
package rsaengine

import (
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/bastionzero/rsaforge/bigint"
	"github.com/bastionzero/rsaforge/internal/digestinfo"
	"github.com/bastionzero/rsaforge/internal/entropy"
	"github.com/bastionzero/rsaforge/pkcs1"
	"github.com/bastionzero/rsaforge/prime"
	"github.com/bastionzero/rsaforge/rsakey"
)

const minModulusBytes = 10
const minExponentBytes = 2

// Engine is one RSA context: an arena, the key it currently holds (if
// any), and the entropy source driving key generation and padding. Per
// §5, sign/verify/encrypt/decrypt share a dedicated lock; generate and the
// load/save family do not and must not be interleaved with crypto
// operations on the same Engine from another goroutine.
type Engine struct {
	cryptoMu sync.Mutex

	arena *bigint.Arena
	key   *rsakey.Key
	src   entropy.Source
}

// New returns an empty engine backed by the default (crypto/rand-based)
// entropy source.
func New() *Engine {
	return &Engine{arena: bigint.NewArena(), src: entropy.NewDefault()}
}

// NewWithSource returns an empty engine backed by a caller-supplied entropy
// source, for deterministic testing.
func NewWithSource(src entropy.Source) *Engine {
	return &Engine{arena: bigint.NewArena(), src: src}
}

// HasKey reports whether a key (public or private) is currently loaded.
func (e *Engine) HasKey() bool { return e.key != nil }

// Close wipes any loaded key material and closes the arena, surfacing a
// leak if any value is still active.
func (e *Engine) Close() error {
	if e.key != nil {
		e.key.Wipe()
		e.key = nil
	}
	return e.arena.Close()
}

func (e *Engine) requireEmpty() error {
	if e.key != nil {
		return errors.New("rsaengine: a key is already loaded")
	}
	return nil
}

// Generate produces a fresh key pair and loads it, per FIPS 186-4
// §B.3.1/§B.3.3. coverage/iterations tune the Miller-Rabin search;
// iterations is raised to at least the FIPS minimum for the bits/2-bit
// primes, so iterations=0 defers entirely to that minimum.
func (e *Engine) Generate(bits int, coverage prime.Coverage, iterations int, timeout time.Duration) error {
	if err := e.requireEmpty(); err != nil {
		return err
	}
	k, err := rsakey.Generate(e.arena, bits, coverage, iterations, timeout, e.src)
	if err != nil {
		return err
	}
	e.key = k
	logrus.WithFields(logFields(e)).Info("rsaengine: key loaded")
	return nil
}

// requirePublic and requirePrivate below validate that the key material
// the façade requires is present, matching §4.10's "enforce sanity bounds"
// contract for the crypto entry points.

func (e *Engine) requirePublic() error {
	if e.key == nil || e.key.M == nil || e.key.E == nil {
		return errors.New("rsaengine: no public key loaded")
	}
	return nil
}

func (e *Engine) requirePrivate() error {
	if e.key == nil || !e.key.IsPrivate() {
		return errors.New("rsaengine: no private key loaded")
	}
	return nil
}

// BufferDecryptVerify loads input (which must be exactly ModulusLenBytes)
// as ciphertext/signature, applies the public operation when verify is
// true or the CRT-accelerated private operation otherwise, and strips
// PKCS#1 v1.5 padding in the matching mode.
func (e *Engine) BufferDecryptVerify(input []byte, verify bool) ([]byte, error) {
	if verify {
		if err := e.requirePublic(); err != nil {
			return nil, err
		}
	} else if err := e.requirePrivate(); err != nil {
		return nil, err
	}
	if len(input) != e.key.ModulusLenBytes {
		return nil, errors.Errorf("rsaengine: input length %d != modulus length %d", len(input), e.key.ModulusLenBytes)
	}

	e.cryptoMu.Lock()
	defer e.cryptoMu.Unlock()

	c := e.arena.Load(input)
	var result *bigint.Value
	if verify {
		result = e.key.PublicOp(c)
	} else {
		result = e.key.PrivateOp(c)
		e.arena.WipeReleased()
	}
	padded := result.Save(e.key.ModulusLenBytes)
	e.arena.Release(result)

	msg, err := pkcs1.DoUnPad(padded, verify)
	if err != nil {
		return nil, err
	}
	return msg, nil
}

// BufferEncryptSign pads input per PKCS#1 v1.5 (block-type 1 when sign,
// block-type 2 otherwise) and applies the CRT-accelerated private
// operation when sign is true or the public operation otherwise.
func (e *Engine) BufferEncryptSign(input []byte, sign bool) ([]byte, error) {
	if sign {
		if err := e.requirePrivate(); err != nil {
			return nil, err
		}
	} else if err := e.requirePublic(); err != nil {
		return nil, err
	}

	e.cryptoMu.Lock()
	defer e.cryptoMu.Unlock()

	padded, err := pkcs1.DoPad(input, e.key.ModulusLenBytes, sign, e.src.CSPRNG())
	if err != nil {
		return nil, err
	}

	m := e.arena.Load(padded)
	var result *bigint.Value
	if sign {
		result = e.key.PrivateOp(m)
		e.arena.WipeReleased()
	} else {
		result = e.key.PublicOp(m)
	}
	out := result.Save(e.key.ModulusLenBytes)
	e.arena.Release(result)
	return out, nil
}

// Sign wraps digest in a DigestInfo for algo and produces a PKCS#1 v1.5
// signature.
func (e *Engine) Sign(digest []byte, algo digestinfo.HashAlgo) ([]byte, error) {
	info, err := digestinfo.Encode(algo, digest)
	if err != nil {
		return nil, errors.Wrap(err, "rsaengine: sign")
	}
	return e.BufferEncryptSign(info, true)
}

// Verify recovers the DigestInfo under sig and returns its hash algorithm
// OID and digest bytes.
func (e *Engine) Verify(sig []byte) (hashOID string, digest []byte, err error) {
	info, err := e.BufferDecryptVerify(sig, true)
	if err != nil {
		return "", nil, err
	}
	oid, digest, err := digestinfo.Decode(info)
	if err != nil {
		return "", nil, errors.Wrap(err, "rsaengine: verify")
	}
	return oid, digest, nil
}

func logFields(e *Engine) logrus.Fields {
	bits := 0
	if e.key != nil {
		bits = e.key.ModulusBits
	}
	return logrus.Fields{"modulus_bits": bits}
}
