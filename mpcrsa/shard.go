// Package mpcrsa implements multi-party RSA signing: splitting a private
// exponent d into k shards -- by multiplication or addition mod φ(n) --
// such that recombining partial signatures from every shard reproduces an
// ordinary RSA signature, without any shard ever holding the whole key.
package mpcrsa

import (
	"bytes"
	"encoding/asn1"
	"encoding/pem"

	"github.com/pkg/errors"

	"github.com/bastionzero/rsaforge/bigint"
)

// SplitBy selects how SplitD divides d among shards.
type SplitBy int

const (
	Multiplication SplitBy = iota
	Addition
)

const shardPEMType = "RSA SPLIT PRIVATE KEY"

// Shard is one party's share of a split RSA private key: the shared
// public key plus this party's fragment of the private exponent, each
// owned by a dedicated arena (BigInts never cross arena boundaries, and
// each shard is meant to live in a different process or machine).
type Shard struct {
	arena           *bigint.Arena
	m, e            *bigint.Value
	d               *bigint.Value
	modulusLenBytes int
	splitBy         SplitBy
}

// Close releases the shard's BigInts and closes its arena, which wipes the
// released buffers.
func (s *Shard) Close() error {
	s.arena.Release(s.d)
	s.arena.Release(s.m)
	s.arena.Release(s.e)
	return s.arena.Close()
}

// record is the wire form asn1.Marshal can handle directly (no pointers,
// no unexported fields), mirroring the teacher's splitPrivateKey/
// privateKeyShard placeholder structs.
type record struct {
	Modulus  []byte
	Exponent []byte
	D        []byte
	SplitBy  SplitBy
}

// EncodePEM renders the shard as ASN.1 DER wrapped in PEM, labeled "RSA
// SPLIT PRIVATE KEY".
func (s *Shard) EncodePEM() (string, error) {
	der, err := asn1.Marshal(record{
		Modulus:  s.m.Bytes(),
		Exponent: s.e.Bytes(),
		D:        s.d.Bytes(),
		SplitBy:  s.splitBy,
	})
	if err != nil {
		return "", errors.Wrap(err, "mpcrsa: DER-encoding shard")
	}
	var buf bytes.Buffer
	if err := pem.Encode(&buf, &pem.Block{Type: shardPEMType, Bytes: der}); err != nil {
		return "", errors.Wrap(err, "mpcrsa: PEM-encoding shard")
	}
	return buf.String(), nil
}

// DecodeShardPEM parses a shard previously produced by EncodePEM, loading
// its BigInts into a freshly created arena.
func DecodeShardPEM(text string) (*Shard, error) {
	block, _ := pem.Decode([]byte(text))
	if block == nil || block.Type != shardPEMType {
		return nil, errors.New("mpcrsa: malformed private key shard PEM")
	}

	var rec record
	if _, err := asn1.Unmarshal(block.Bytes, &rec); err != nil {
		return nil, errors.Wrap(err, "mpcrsa: DER-decoding shard")
	}

	arena := bigint.NewArena()
	return &Shard{
		arena:           arena,
		m:               arena.Load(rec.Modulus),
		e:               arena.Load(rec.Exponent),
		d:               arena.Load(rec.D),
		modulusLenBytes: len(rec.Modulus),
		splitBy:         rec.SplitBy,
	}, nil
}
