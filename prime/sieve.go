// Package prime implements FIPS 186-4 §B.3.2/§B.3.3-style probabilistic
// prime generation over the bigint arena: a small-prime trial-division
// sieve, Miller-Rabin, and the fill_prime candidate search that key
// generation drives.
package prime

import (
	"sync"

	"github.com/bastionzero/rsaforge/bigint"
)

// Coverage selects how many small primes matches_known_prime trial-divides
// by before giving up and deferring to Miller-Rabin. Fast is cheap and
// catches most composites; All is the full sieve used when a candidate has
// already survived Fast and is worth the extra trial-division cost before
// paying for modular exponentiation.
type Coverage int

const (
	Fast Coverage = iota
	Most
	All
)

const (
	fastBound = 53
	mostBound = 1999
	allBound  = 17989
)

var (
	sieveOnce sync.Once
	oddPrimes []uint32 // ascending odd primes in (2, allBound]
)

func ensureSieve() {
	sieveOnce.Do(func() {
		composite := make([]bool, allBound+1)
		for i := 2; i*i <= allBound; i++ {
			if !composite[i] {
				for j := i * i; j <= allBound; j += i {
					composite[j] = true
				}
			}
		}
		for n := 3; n <= allBound; n += 2 {
			if !composite[n] {
				oddPrimes = append(oddPrimes, uint32(n))
			}
		}
	})
}

func boundFor(c Coverage) uint32 {
	switch c {
	case Fast:
		return fastBound
	case Most:
		return mostBound
	default:
		return allBound
	}
}

// MatchesKnownPrime reports whether v has a proper divisor among 2 or the
// sieved odd primes up to coverage's bound -- a cheap filter meant to
// reject most composite candidates before Miller-Rabin ever runs. v itself
// being one of those small primes is not a match: it's prime, not composite.
func MatchesKnownPrime(v *bigint.Value, coverage Coverage) bool {
	if v.CompareHalf(2) == 0 {
		return false
	}
	if v.IsEven() {
		return true
	}
	ensureSieve()
	bound := boundFor(coverage)
	for _, p := range oddPrimes {
		if p > bound {
			break
		}
		if v.CompareHalf(p) == 0 {
			return false
		}
		if v.IntMod(bigint.Word(p)) == 0 {
			return true
		}
	}
	return false
}
