package mpcrsa

import (
	"io"

	"github.com/pkg/errors"

	"github.com/bastionzero/rsaforge/bigint"
	"github.com/bastionzero/rsaforge/internal/entropy"
	"github.com/bastionzero/rsaforge/rsakey"
)

// SplitD divides source's private exponent among shardCount shards so that
// recombining a partial signature from each shard (via SignFirst/SignNext)
// reproduces an ordinary signature under source's public key, without any
// single shard ever holding d. Each returned Shard owns its own arena,
// since a BigInt never crosses arena boundaries and each shard is meant to
// be handed to a different party.
func SplitD(source *rsakey.Key, shardCount int, splitBy SplitBy, src entropy.Source) ([]*Shard, error) {
	if shardCount < 2 {
		return nil, errors.New("mpcrsa: cannot split a key into fewer than 2 shards")
	}
	if !source.IsPrivate() {
		return nil, errors.New("mpcrsa: splitting requires a private key")
	}

	arena := source.Arena
	pMinus1 := source.P.Clone().IntSub(1)
	qMinus1 := source.Q.Clone().IntSub(1)
	phi := pMinus1.Mul(qMinus1)

	var shardExponents []*bigint.Value
	var err error
	switch splitBy {
	case Multiplication:
		shardExponents, err = splitMultiplicative(arena, source.D, phi, shardCount, src.CSPRNG())
	case Addition:
		shardExponents, err = splitAdditive(arena, source.D, phi, shardCount, src.CSPRNG())
	default:
		err = errors.Errorf("mpcrsa: unrecognized split mode %d", splitBy)
	}
	arena.Release(phi)
	if err != nil {
		return nil, err
	}

	modulus := source.M.Bytes()
	exponent := source.E.Bytes()

	shards := make([]*Shard, 0, shardCount)
	for _, d := range shardExponents {
		dBytes := d.Bytes()
		arena.Release(d)

		shardArena := bigint.NewArena()
		shards = append(shards, &Shard{
			arena:           shardArena,
			m:               shardArena.Load(modulus),
			e:               shardArena.Load(exponent),
			d:               shardArena.Load(dBytes),
			modulusLenBytes: source.ModulusLenBytes,
			splitBy:         splitBy,
		})
	}
	return shards, nil
}

// validRandomNumber draws a uniformly random candidate in (1, phi), rejects
// it against seed and retries, and rejects it again unless it is coprime to
// phi -- the common shard-selection step both split modes use.
func validRandomNumber(arena *bigint.Arena, phi, seed *bigint.Value, rng io.Reader) (*bigint.Value, error) {
	byteLen := (phi.BitCount() + 7) / 8
	if byteLen == 0 {
		byteLen = 1
	}
	for attempt := 0; attempt < 100; attempt++ {
		buf := make([]byte, byteLen)
		if _, err := io.ReadFull(rng, buf); err != nil {
			return nil, errors.Wrap(err, "mpcrsa: drawing a random shard candidate")
		}
		r := arena.Load(buf)
		if r.CompareHalf(1) <= 0 || r.Compare(phi) >= 0 || r.Compare(seed) == 0 {
			arena.Release(r)
			continue
		}
		g := r.Gcd(phi)
		coprime := g.CompareHalf(1) == 0
		arena.Release(g)
		if !coprime {
			arena.Release(r)
			continue
		}
		return r, nil
	}
	return nil, errors.New("mpcrsa: could not find a valid random shard value")
}

// splitMultiplicative produces k values whose product is congruent to d
// modulo phi: pick k-1 random units a_i mod phi, and let the last shard be
// the running seed times a_i's modular inverse, so the final shard absorbs
// whatever is left over.
func splitMultiplicative(arena *bigint.Arena, d, phi *bigint.Value, k int, rng io.Reader) ([]*bigint.Value, error) {
	shards := make([]*bigint.Value, 0, k)
	seed := d.Clone()
	for len(shards) < k-1 {
		a, err := validRandomNumber(arena, phi, seed, rng)
		if err != nil {
			arena.Release(seed)
			for _, s := range shards {
				arena.Release(s)
			}
			return nil, err
		}
		aInv := a.ModInverse(phi)
		next := seed.Clone().Mul(aInv)
		next = arena.Reduce(next, phi)
		arena.Release(seed)
		seed = next
		shards = append(shards, a)
	}
	shards = append(shards, seed)
	return shards, nil
}

// shardSum adds up the shards selected so far, releasing none of them.
func shardSum(arena *bigint.Arena, shards []*bigint.Value) *bigint.Value {
	sum := arena.AllocateFrom(0)
	for _, s := range shards {
		sum = sum.Add(s.Copy())
	}
	return sum
}

// shardIn reports whether v already equals one of the selected shards.
func shardIn(shards []*bigint.Value, v *bigint.Value) bool {
	for _, s := range shards {
		if s.Compare(v) == 0 {
			return true
		}
	}
	return false
}

// splitAdditive produces k values summing to d: pick k-1 random units mod
// phi (rejecting duplicates), then let the last shard be whatever brings
// the running sum to d mod phi. Restarts from scratch on the rare
// coincidence that the final shard would duplicate an earlier one or come
// out to exactly zero.
func splitAdditive(arena *bigint.Arena, d, phi *bigint.Value, k int, rng io.Reader) ([]*bigint.Value, error) {
ShardSearchLoop:
	for {
		shards := make([]*bigint.Value, 0, k)
		for len(shards) < k-1 {
			cand, err := validRandomNumber(arena, phi, d, rng)
			if err != nil {
				for _, s := range shards {
					arena.Release(s)
				}
				return nil, err
			}
			if shardIn(shards, cand) {
				arena.Release(cand)
				continue
			}
			shards = append(shards, cand)
		}

		sum := arena.Reduce(shardSum(arena, shards), phi)
		var final *bigint.Value
		switch sum.Compare(d) {
		case -1:
			final, _ = d.Clone().Sub(sum)
		case 1:
			diff, _ := sum.Clone().Sub(d.Copy())
			final, _ = phi.Clone().Sub(diff)
			arena.Release(sum)
		default:
			arena.Release(sum)
			for _, s := range shards {
				arena.Release(s)
			}
			continue ShardSearchLoop
		}

		if final.IsZero() || shardIn(shards, final) {
			arena.Release(final)
			for _, s := range shards {
				arena.Release(s)
			}
			continue ShardSearchLoop
		}

		shards = append(shards, final)
		return shards, nil
	}
}
