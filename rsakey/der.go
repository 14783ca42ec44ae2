package rsakey

import (
	"encoding/asn1"

	"github.com/pkg/errors"
	"golang.org/x/crypto/cryptobyte"
	casn1 "golang.org/x/crypto/cryptobyte/asn1"

	"github.com/bastionzero/rsaforge/bigint"
)

// rsaEncryptionOID is the AlgorithmIdentifier for every key this package
// emits: id-RSAES-PKCS1-v1_5 = 1.2.840.113549.1.1.1.
var rsaEncryptionOID = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 1}

func addInteger(b *cryptobyte.Builder, v *bigint.Value) {
	raw := v.Bytes()
	if raw[0]&0x80 != 0 {
		padded := make([]byte, len(raw)+1)
		copy(padded[1:], raw)
		raw = padded
	}
	b.AddASN1(casn1.INTEGER, func(b *cryptobyte.Builder) {
		b.AddBytes(raw)
	})
}

func readInteger(s *cryptobyte.String, arena *bigint.Arena) (*bigint.Value, error) {
	var raw cryptobyte.String
	if !s.ReadASN1(&raw, casn1.INTEGER) {
		return nil, errors.New("rsakey: malformed INTEGER")
	}
	buf := []byte(raw)
	if len(buf) > 1 && buf[0] == 0x00 && buf[1]&0x80 != 0 {
		buf = buf[1:]
	}
	return arena.Load(buf), nil
}

func addAlgorithmIdentifier(b *cryptobyte.Builder) {
	b.AddASN1(casn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1ObjectIdentifier(rsaEncryptionOID)
		b.AddASN1NULL()
	})
}

func skipAlgorithmIdentifier(s *cryptobyte.String) error {
	var alg cryptobyte.String
	if !s.ReadASN1(&alg, casn1.SEQUENCE) {
		return errors.New("rsakey: malformed AlgorithmIdentifier")
	}
	return nil
}

// EncodePublicKeyDER emits the SubjectPublicKeyInfo wrapping a PKCS#1
// RSAPublicKey: SEQUENCE{ SEQUENCE{OID,NULL}, BIT STRING{ SEQUENCE{
// INTEGER modulus, INTEGER exponent } } }.
func EncodePublicKeyDER(m, e *bigint.Value) ([]byte, error) {
	var inner cryptobyte.Builder
	inner.AddASN1(casn1.SEQUENCE, func(b *cryptobyte.Builder) {
		addInteger(b, m)
		addInteger(b, e)
	})
	innerDER, err := inner.Bytes()
	if err != nil {
		return nil, errors.Wrap(err, "rsakey: encoding RSAPublicKey")
	}

	var outer cryptobyte.Builder
	outer.AddASN1(casn1.SEQUENCE, func(b *cryptobyte.Builder) {
		addAlgorithmIdentifier(b)
		b.AddASN1BitString(innerDER)
	})
	return outer.Bytes()
}

// EncodeBarePublicKeyDER emits the bare fallback form: a raw
// SEQUENCE{INTEGER modulus, INTEGER exponent} with no SubjectPublicKeyInfo
// envelope.
func EncodeBarePublicKeyDER(m, e *bigint.Value) ([]byte, error) {
	var b cryptobyte.Builder
	b.AddASN1(casn1.SEQUENCE, func(b *cryptobyte.Builder) {
		addInteger(b, m)
		addInteger(b, e)
	})
	return b.Bytes()
}

// DecodePublicKeyDER parses a SubjectPublicKeyInfo-wrapped RSA public key,
// falling back to the bare SEQUENCE{modulus, exponent} form when the
// wrapped parse fails.
func DecodePublicKeyDER(der []byte, arena *bigint.Arena) (m, e *bigint.Value, err error) {
	if m, e, err = decodeWrappedPublicKey(der, arena); err == nil {
		return m, e, nil
	}
	return decodeBarePublicKey(der, arena)
}

func decodeWrappedPublicKey(der []byte, arena *bigint.Arena) (m, e *bigint.Value, err error) {
	input := cryptobyte.String(der)
	var outer cryptobyte.String
	if !input.ReadASN1(&outer, casn1.SEQUENCE) {
		return nil, nil, errors.New("rsakey: malformed SubjectPublicKeyInfo")
	}
	if err := skipAlgorithmIdentifier(&outer); err != nil {
		return nil, nil, err
	}
	var bitString cryptobyte.String
	if !outer.ReadASN1BitStringAsBytes(&bitString) {
		return nil, nil, errors.New("rsakey: malformed public key BIT STRING")
	}
	return decodeBarePublicKey([]byte(bitString), arena)
}

func decodeBarePublicKey(der []byte, arena *bigint.Arena) (m, e *bigint.Value, err error) {
	input := cryptobyte.String(der)
	var seq cryptobyte.String
	if !input.ReadASN1(&seq, casn1.SEQUENCE) {
		return nil, nil, errors.New("rsakey: malformed RSAPublicKey")
	}
	m, err = readInteger(&seq, arena)
	if err != nil {
		return nil, nil, err
	}
	e, err = readInteger(&seq, arena)
	if err != nil {
		arena.Release(m)
		return nil, nil, err
	}
	return m, e, nil
}

// addPrivateKeyBody writes the PKCS#1 RSAPrivateKey SEQUENCE so the bare
// and PKCS#8-wrapped encoders can share one body builder.
func addPrivateKeyBody(b *cryptobyte.Builder, k *Key) {
	b.AddASN1(casn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1Int64(0)
		addInteger(b, k.M)
		addInteger(b, k.E)
		addInteger(b, k.D)
		addInteger(b, k.P)
		addInteger(b, k.Q)
		addInteger(b, k.DP)
		addInteger(b, k.DQ)
		addInteger(b, k.QInv)
	})
}

// EncodeBarePrivateKeyDER emits the bare PKCS#1 RSAPrivateKey form.
func EncodeBarePrivateKeyDER(k *Key) ([]byte, error) {
	var b cryptobyte.Builder
	addPrivateKeyBody(&b, k)
	return b.Bytes()
}

// EncodePrivateKeyDER emits a PKCS#8 PrivateKeyInfo wrapping the PKCS#1
// body in an OCTET STRING.
func EncodePrivateKeyDER(k *Key) ([]byte, error) {
	body, err := EncodeBarePrivateKeyDER(k)
	if err != nil {
		return nil, err
	}
	var b cryptobyte.Builder
	b.AddASN1(casn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1Int64(0)
		addAlgorithmIdentifier(b)
		b.AddASN1OctetString(body)
	})
	return b.Bytes()
}

// DecodePrivateKeyDER parses a PKCS#8-wrapped private key, falling back to
// the bare PKCS#1 RSAPrivateKey form when the wrapped parse fails.
func DecodePrivateKeyDER(der []byte, arena *bigint.Arena) (*Key, error) {
	if k, err := decodeWrappedPrivateKey(der, arena); err == nil {
		return k, nil
	}
	return decodeBarePrivateKey(der, arena)
}

func decodeWrappedPrivateKey(der []byte, arena *bigint.Arena) (*Key, error) {
	input := cryptobyte.String(der)
	var outer cryptobyte.String
	if !input.ReadASN1(&outer, casn1.SEQUENCE) {
		return nil, errors.New("rsakey: malformed PrivateKeyInfo")
	}
	var version int64
	if !outer.ReadASN1Integer(&version) {
		return nil, errors.New("rsakey: malformed PrivateKeyInfo version")
	}
	if err := skipAlgorithmIdentifier(&outer); err != nil {
		return nil, err
	}
	var body cryptobyte.String
	if !outer.ReadASN1(&body, casn1.OCTET_STRING) {
		return nil, errors.New("rsakey: malformed PrivateKeyInfo body")
	}
	return decodeBarePrivateKey([]byte(body), arena)
}

func decodeBarePrivateKey(der []byte, arena *bigint.Arena) (*Key, error) {
	input := cryptobyte.String(der)
	var seq cryptobyte.String
	if !input.ReadASN1(&seq, casn1.SEQUENCE) {
		return nil, errors.New("rsakey: malformed RSAPrivateKey")
	}
	var version int64
	if !seq.ReadASN1Integer(&version) {
		return nil, errors.New("rsakey: malformed RSAPrivateKey version")
	}

	fields := make([]*bigint.Value, 0, 8)
	for i := 0; i < 8; i++ {
		v, err := readInteger(&seq, arena)
		if err != nil {
			for _, f := range fields {
				arena.Release(f)
			}
			return nil, err
		}
		fields = append(fields, v)
	}

	k := &Key{
		Arena: arena,
		M:     fields[0],
		E:     fields[1],
		D:     fields[2],
		P:     fields[3],
		Q:     fields[4],
		DP:    fields[5],
		DQ:    fields[6],
		QInv:  fields[7],
	}
	k.ModulusBits = k.M.BitCount()
	k.ModulusLenBytes = (k.ModulusBits + 7) / 8
	return k, nil
}
