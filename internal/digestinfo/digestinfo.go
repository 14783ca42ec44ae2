// Package digestinfo builds and parses the ASN.1 DigestInfo structure that
// is the plaintext of a PKCS#1 v1.5 signature:
//
//	DigestInfo ::= SEQUENCE {
//	  digestAlgorithm SEQUENCE { OID, NULL },
//	  digest          OCTET STRING
//	}
package digestinfo

import (
	"encoding/asn1"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/crypto/cryptobyte"
	casn1 "golang.org/x/crypto/cryptobyte/asn1"
)

// HashAlgo names a hash function by its DigestInfo OID.
type HashAlgo int

const (
	MD5 HashAlgo = iota
	SHA1
	SHA256
	SHA384
	SHA512
	SHA512_256
	SHA3_256
	SHA3_512
)

var oidByAlgo = map[HashAlgo]string{
	MD5:        "1.2.840.113549.2.5",
	SHA1:       "1.3.14.3.2.26",
	SHA256:     "2.16.840.1.101.3.4.2.1",
	SHA384:     "2.16.840.1.101.3.4.2.2",
	SHA512:     "2.16.840.1.101.3.4.2.3",
	SHA512_256: "2.16.840.1.101.3.4.2.6",
	SHA3_256:   "2.16.840.1.101.3.4.2.8",
	SHA3_512:   "2.16.840.1.101.3.4.2.10",
}

var algoByOID = func() map[string]HashAlgo {
	m := make(map[string]HashAlgo, len(oidByAlgo))
	for algo, oid := range oidByAlgo {
		m[oid] = algo
	}
	return m
}()

// Hasher is the opaque collaborator spec'd in §6: it knows which algorithm
// it is and can produce a digest, but this package never touches the
// actual hash computation.
type Hasher interface {
	Algo() HashAlgo
	Sum(msg []byte) []byte
}

// OID returns the dotted-decimal object identifier for algo.
func OID(algo HashAlgo) (string, bool) {
	oid, ok := oidByAlgo[algo]
	return oid, ok
}

// FromOID resolves a dotted-decimal OID back to a HashAlgo.
func FromOID(oid string) (HashAlgo, bool) {
	algo, ok := algoByOID[oid]
	return algo, ok
}

// dottedToOID parses a dotted-decimal string ("1.2.840...") into the arc
// form cryptobyte's ASN.1 OID primitives expect.
func dottedToOID(s string) (asn1.ObjectIdentifier, error) {
	parts := strings.Split(s, ".")
	arcs := make(asn1.ObjectIdentifier, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, errors.Wrapf(err, "digestinfo: invalid OID arc %q", p)
		}
		arcs[i] = n
	}
	return arcs, nil
}

// Encode builds a DigestInfo DER payload for algo/digest.
func Encode(algo HashAlgo, digest []byte) ([]byte, error) {
	oid, ok := OID(algo)
	if !ok {
		return nil, errors.Errorf("digestinfo: unsupported hash algorithm %d", algo)
	}
	arcs, err := dottedToOID(oid)
	if err != nil {
		return nil, err
	}

	var b cryptobyte.Builder
	b.AddASN1(casn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1(casn1.SEQUENCE, func(b *cryptobyte.Builder) {
			b.AddASN1ObjectIdentifier(arcs)
			b.AddASN1NULL()
		})
		b.AddASN1OctetString(digest)
	})
	return b.Bytes()
}

// Decode parses a DigestInfo DER payload, returning the hash algorithm OID
// (dotted-decimal, so callers can surface unrecognized-but-well-formed
// OIDs rather than rejecting them outright) and the digest bytes.
func Decode(der []byte) (oid string, digest []byte, err error) {
	input := cryptobyte.String(der)
	var outer cryptobyte.String
	if !input.ReadASN1(&outer, casn1.SEQUENCE) {
		return "", nil, errors.New("digestinfo: malformed outer SEQUENCE")
	}

	var algID cryptobyte.String
	if !outer.ReadASN1(&algID, casn1.SEQUENCE) {
		return "", nil, errors.New("digestinfo: malformed AlgorithmIdentifier")
	}
	var arcs asn1.ObjectIdentifier
	if !algID.ReadASN1ObjectIdentifier(&arcs) {
		return "", nil, errors.New("digestinfo: malformed algorithm OID")
	}
	oid = arcs.String()

	var digestStr cryptobyte.String
	if !outer.ReadASN1(&digestStr, casn1.OCTET_STRING) {
		return "", nil, errors.New("digestinfo: malformed digest OCTET STRING")
	}
	return oid, []byte(digestStr), nil
}
