package prime

import (
	"io"

	"github.com/bastionzero/rsaforge/bigint"
)

// randomWitness draws a random base in the open interval (1, upper) by
// rejection sampling against rng, retrying up to 30 times before reporting
// the source too weak to trust. upper is compared against, not consumed.
func randomWitness(arena *bigint.Arena, upper *bigint.Value, rng io.Reader) (*bigint.Value, bool) {
	nBytes := (upper.BitCount() + 7) / 8
	if nBytes == 0 {
		nBytes = 1
	}
	buf := make([]byte, nBytes)
	// Mask the top byte so candidates have upper's bit length, not just its
	// byte length.
	topMask := byte(0xFF >> uint(nBytes*8-upper.BitCount()))
	for attempt := 0; attempt < 30; attempt++ {
		if _, err := io.ReadFull(rng, buf); err != nil {
			continue
		}
		buf[0] &= topMask
		a := arena.Load(buf)
		if a.BitSetCount() <= 1 || a.CompareHalf(1) <= 0 || a.Compare(upper) >= 0 {
			arena.Release(a)
			continue
		}
		return a, true
	}
	return nil, false
}

// IsPrime runs a Miller-Rabin test with the given number of rounds, having
// first rejected candidates divisible by a sieved small prime. rng supplies
// witnesses; iterations should already reflect FIPS 186-4's per-bit-length
// minimum (see MinIterations). Returns false both for composites and for a
// witness source judged too weak to trust after 30 rejection attempts.
func IsPrime(candidate *bigint.Value, coverage Coverage, iterations int, rng io.Reader) bool {
	if candidate.CompareHalf(2) == 0 {
		return true
	}
	if candidate.IsEven() {
		return false
	}
	if MatchesKnownPrime(candidate, coverage) {
		return false
	}

	arena := candidate.Arena()
	nMinus1 := candidate.Clone().IntSub(1)
	r := nMinus1.Clone()
	s := 0
	for r.IsEven() {
		r.ShrBits(1)
		s++
	}

	prime := true
	for round := 0; round < iterations && prime; round++ {
		a, ok := randomWitness(arena, nMinus1, rng)
		if !ok {
			prime = false
			break
		}
		y := arena.ModPower(a, r.Clone(), candidate)
		if y.CompareHalf(1) == 0 || y.Compare(nMinus1) == 0 {
			arena.Release(y)
			continue
		}
		composite := true
		for i := 0; i < s-1; i++ {
			y = arena.Reduce(y.Square(), candidate)
			if y.Compare(nMinus1) == 0 {
				composite = false
				break
			}
		}
		arena.Release(y)
		if composite {
			prime = false
		}
	}

	arena.Release(nMinus1)
	arena.Release(r)
	return prime
}

// MinIterations returns the larger of requested and the FIPS 186-4 Table
// C.2/C.3 minimum Miller-Rabin round count for a candidate of the given bit
// length, so callers can ask for extra assurance but never less than the
// standard mandates.
func MinIterations(bits, requested int) int {
	min := 51
	switch {
	case bits >= 1450:
		min = 4
	case bits >= 1150:
		min = 5
	case bits >= 1000:
		min = 6
	case bits >= 850:
		min = 7
	case bits >= 750:
		min = 8
	case bits >= 500:
		min = 13
	case bits >= 250:
		min = 28
	case bits >= 150:
		min = 40
	}
	if requested > min {
		return requested
	}
	return min
}
