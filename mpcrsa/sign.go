package mpcrsa

import (
	"io"

	"github.com/pkg/errors"

	"github.com/bastionzero/rsaforge/internal/digestinfo"
	"github.com/bastionzero/rsaforge/pkcs1"
)

// SignFirst produces the first partial signature in a chain: it pads
// digest's DigestInfo per PKCS#1 v1.5 block-type 1 and raises it to
// shard's private exponent fragment mod the shared modulus.
func SignFirst(shard *Shard, digest []byte, algo digestinfo.HashAlgo, rng io.Reader) ([]byte, error) {
	info, err := digestinfo.Encode(algo, digest)
	if err != nil {
		return nil, errors.Wrap(err, "mpcrsa: sign")
	}
	padded, err := pkcs1.DoPad(info, shard.modulusLenBytes, true, rng)
	if err != nil {
		return nil, err
	}
	c := shard.arena.Load(padded)
	result := shard.arena.ModPower(c, shard.d.Copy(), shard.m)
	out := result.Save(shard.modulusLenBytes)
	shard.arena.Release(result)
	return out, nil
}

// SignNext folds shard's fragment into a partial signature produced by the
// chain so far. Under multiplicative splitting the partial signature is
// itself raised to shard's fragment; under additive splitting shard signs
// the same digest independently and the two signatures are multiplied
// together modulo the shared modulus.
func SignNext(shard *Shard, digest []byte, algo digestinfo.HashAlgo, rng io.Reader, partial []byte) ([]byte, error) {
	arena := shard.arena

	switch shard.splitBy {
	case Multiplication:
		c := arena.Load(partial)
		result := arena.ModPower(c, shard.d.Copy(), shard.m)
		out := result.Save(shard.modulusLenBytes)
		arena.Release(result)
		return out, nil

	case Addition:
		own, err := SignFirst(shard, digest, algo, rng)
		if err != nil {
			return nil, err
		}
		a := arena.Load(own)
		b := arena.Load(partial)
		product := a.Mul(b)
		result := arena.Reduce(product, shard.m)
		out := result.Save(shard.modulusLenBytes)
		arena.Release(result)
		return out, nil

	default:
		return nil, errors.Errorf("mpcrsa: unrecognized split mode %d", shard.splitBy)
	}
}
