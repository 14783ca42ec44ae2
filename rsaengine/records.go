package rsaengine

import (
	"encoding/hex"
	"encoding/pem"

	"github.com/pkg/errors"

	"github.com/bastionzero/rsaforge/bigint"
	"github.com/bastionzero/rsaforge/rsakey"
)

const (
	publicPEMLabel  = "RSA PUBLIC KEY"
	privatePEMLabel = "RSA PRIVATE KEY"
)

// PublicKeyRecord is the bytes-only transport form of a public key.
type PublicKeyRecord struct {
	Modulus  []byte
	Exponent []byte
}

// PrivateKeyRecord is the bytes-only transport form of a private key's
// eight PKCS#1 integer fields. The PKCS#1 version field is not carried.
type PrivateKeyRecord struct {
	Modulus     []byte
	PublicExp   []byte
	PrivateExp  []byte
	Prime1      []byte
	Prime2      []byte
	Exponent1   []byte
	Exponent2   []byte
	Coefficient []byte
}

// Wipe zeroes every byte field, per §3's record wipe() contract.
func (r *PrivateKeyRecord) Wipe() {
	for _, b := range [][]byte{r.Modulus, r.PublicExp, r.PrivateExp, r.Prime1, r.Prime2, r.Exponent1, r.Exponent2, r.Coefficient} {
		for i := range b {
			b[i] = 0
		}
	}
}

func checkPublicSanity(modulus, exponent []byte) error {
	if len(modulus) < minModulusBytes {
		return errors.Errorf("rsaengine: modulus too short (%d bytes)", len(modulus))
	}
	if len(exponent) < minExponentBytes {
		return errors.Errorf("rsaengine: exponent too short (%d bytes)", len(exponent))
	}
	return nil
}

// LoadPublicRecord loads a public key from raw modulus/exponent bytes.
func (e *Engine) LoadPublicRecord(rec PublicKeyRecord) error {
	if err := e.requireEmpty(); err != nil {
		return err
	}
	if err := checkPublicSanity(rec.Modulus, rec.Exponent); err != nil {
		return err
	}
	m := e.arena.Load(rec.Modulus)
	exp := e.arena.Load(rec.Exponent)
	if err := e.arena.SetModulo(m, bigint.SlotN); err != nil {
		return errors.Wrap(err, "rsaengine: installing modulus")
	}
	e.arena.Promote(exp)
	e.key = &rsakey.Key{
		Arena:           e.arena,
		M:               m,
		E:               exp,
		ModulusLenBytes: len(rec.Modulus),
		ModulusBits:     m.BitCount(),
	}
	return nil
}

// LoadPublicHex loads a public key from hex-encoded modulus/exponent.
func (e *Engine) LoadPublicHex(modulusHex, exponentHex string) error {
	m, err := hex.DecodeString(modulusHex)
	if err != nil {
		return errors.Wrap(err, "rsaengine: decoding modulus hex")
	}
	exp, err := hex.DecodeString(exponentHex)
	if err != nil {
		return errors.Wrap(err, "rsaengine: decoding exponent hex")
	}
	return e.LoadPublicRecord(PublicKeyRecord{Modulus: m, Exponent: exp})
}

// LoadPublicBinary loads a public key from a fixed binary layout: a
// 4-byte big-endian modulus length, the modulus, then the exponent.
func (e *Engine) LoadPublicBinary(buf []byte) error {
	if len(buf) < 4 {
		return errors.New("rsaengine: truncated binary public key")
	}
	n := int(buf[0])<<24 | int(buf[1])<<16 | int(buf[2])<<8 | int(buf[3])
	if len(buf) < 4+n {
		return errors.New("rsaengine: truncated binary public key")
	}
	return e.LoadPublicRecord(PublicKeyRecord{Modulus: buf[4 : 4+n], Exponent: buf[4+n:]})
}

// LoadPublicDER loads a public key from its SubjectPublicKeyInfo (or bare
// fallback) DER encoding.
func (e *Engine) LoadPublicDER(der []byte) error {
	if err := e.requireEmpty(); err != nil {
		return err
	}
	m, exp, err := rsakey.DecodePublicKeyDER(der, e.arena)
	if err != nil {
		return errors.Wrap(err, "rsaengine: decoding public key DER")
	}
	if err := checkPublicSanity(m.Bytes(), exp.Bytes()); err != nil {
		e.arena.Release(m)
		e.arena.Release(exp)
		return err
	}
	if err := e.arena.SetModulo(m, bigint.SlotN); err != nil {
		return errors.Wrap(err, "rsaengine: installing modulus")
	}
	e.arena.Promote(exp)
	e.key = &rsakey.Key{
		Arena:           e.arena,
		M:               m,
		E:               exp,
		ModulusLenBytes: (m.BitCount() + 7) / 8,
		ModulusBits:     m.BitCount(),
	}
	return nil
}

// LoadPublicPEM loads a public key from PEM text.
func (e *Engine) LoadPublicPEM(text string) error {
	block, _ := pem.Decode([]byte(text))
	if block == nil {
		return errors.New("rsaengine: malformed PEM")
	}
	return e.LoadPublicDER(block.Bytes)
}

func promotePrivate(arena *bigint.Arena, k *rsakey.Key) error {
	if err := arena.SetModulo(k.P, bigint.SlotP); err != nil {
		return errors.Wrap(err, "rsaengine: installing p")
	}
	if err := arena.SetModulo(k.Q, bigint.SlotQ); err != nil {
		return errors.Wrap(err, "rsaengine: installing q")
	}
	if err := arena.SetModulo(k.M, bigint.SlotN); err != nil {
		return errors.Wrap(err, "rsaengine: installing m")
	}
	arena.Promote(k.E)
	arena.Promote(k.D)
	arena.Promote(k.DP)
	arena.Promote(k.DQ)
	arena.Promote(k.QInv)
	return nil
}

// LoadPrivateRecord loads a private key from its eight raw PKCS#1 integer
// fields.
func (e *Engine) LoadPrivateRecord(rec PrivateKeyRecord) error {
	if err := e.requireEmpty(); err != nil {
		return err
	}
	if err := checkPublicSanity(rec.Modulus, rec.PublicExp); err != nil {
		return err
	}
	k := &rsakey.Key{
		Arena: e.arena,
		M:     e.arena.Load(rec.Modulus),
		E:     e.arena.Load(rec.PublicExp),
		D:     e.arena.Load(rec.PrivateExp),
		P:     e.arena.Load(rec.Prime1),
		Q:     e.arena.Load(rec.Prime2),
		DP:    e.arena.Load(rec.Exponent1),
		DQ:    e.arena.Load(rec.Exponent2),
		QInv:  e.arena.Load(rec.Coefficient),
	}
	k.ModulusBits = k.M.BitCount()
	k.ModulusLenBytes = (k.ModulusBits + 7) / 8
	if err := promotePrivate(e.arena, k); err != nil {
		return err
	}
	e.key = k
	return nil
}

// LoadPrivateDER loads a private key from its PKCS#8 (or bare PKCS#1
// fallback) DER encoding.
func (e *Engine) LoadPrivateDER(der []byte) error {
	if err := e.requireEmpty(); err != nil {
		return err
	}
	k, err := rsakey.DecodePrivateKeyDER(der, e.arena)
	if err != nil {
		return errors.Wrap(err, "rsaengine: decoding private key DER")
	}
	if err := checkPublicSanity(k.M.Bytes(), k.E.Bytes()); err != nil {
		return err
	}
	if err := promotePrivate(e.arena, k); err != nil {
		return err
	}
	e.key = k
	return nil
}

// LoadPrivatePEM loads a private key from PEM text.
func (e *Engine) LoadPrivatePEM(text string) error {
	block, _ := pem.Decode([]byte(text))
	if block == nil {
		return errors.New("rsaengine: malformed PEM")
	}
	return e.LoadPrivateDER(block.Bytes)
}

// SavePublicRecord returns the raw modulus/exponent bytes of the loaded
// key (public or private).
func (e *Engine) SavePublicRecord() (PublicKeyRecord, error) {
	if err := e.requirePublic(); err != nil {
		return PublicKeyRecord{}, err
	}
	return PublicKeyRecord{Modulus: e.key.M.Bytes(), Exponent: e.key.E.Bytes()}, nil
}

// SavePublicDER emits the loaded key's public half as SubjectPublicKeyInfo
// DER.
func (e *Engine) SavePublicDER() ([]byte, error) {
	if err := e.requirePublic(); err != nil {
		return nil, err
	}
	return rsakey.EncodePublicKeyDER(e.key.M, e.key.E)
}

// SavePublicPEM emits the loaded key's public half as PEM text.
func (e *Engine) SavePublicPEM() (string, error) {
	der, err := e.SavePublicDER()
	if err != nil {
		return "", err
	}
	return string(pem.EncodeToMemory(&pem.Block{Type: publicPEMLabel, Bytes: der})), nil
}

// SavePrivateRecord returns the eight raw PKCS#1 integer field bytes of the
// loaded private key.
func (e *Engine) SavePrivateRecord() (PrivateKeyRecord, error) {
	if err := e.requirePrivate(); err != nil {
		return PrivateKeyRecord{}, err
	}
	k := e.key
	return PrivateKeyRecord{
		Modulus:     k.M.Bytes(),
		PublicExp:   k.E.Bytes(),
		PrivateExp:  k.D.Bytes(),
		Prime1:      k.P.Bytes(),
		Prime2:      k.Q.Bytes(),
		Exponent1:   k.DP.Bytes(),
		Exponent2:   k.DQ.Bytes(),
		Coefficient: k.QInv.Bytes(),
	}, nil
}

// SavePrivateDER emits the loaded private key as PKCS#8 DER.
func (e *Engine) SavePrivateDER() ([]byte, error) {
	if err := e.requirePrivate(); err != nil {
		return nil, err
	}
	return rsakey.EncodePrivateKeyDER(e.key)
}

// SavePrivatePEM emits the loaded private key as PEM text.
func (e *Engine) SavePrivatePEM() (string, error) {
	der, err := e.SavePrivateDER()
	if err != nil {
		return "", err
	}
	return string(pem.EncodeToMemory(&pem.Block{Type: privatePEMLabel, Bytes: der})), nil
}
