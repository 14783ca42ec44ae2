package prime

import (
	"encoding/binary"
	"math/bits"
	"time"

	"github.com/bastionzero/rsaforge/bigint"
	"github.com/bastionzero/rsaforge/internal/entropy"
)

// minTopWord is the FIPS 186-4 B.3.3 minimum for a candidate's leading 32
// bits: sqrt(2) scaled to Q0.32. A freshly drawn candidate below it has
// 0xB5050000 ORed into its top word; a candidate that falls below it while
// being incremented is abandoned and a new one is drawn.
const minTopWord = 0xB504F334

// densityRetries bounds how many times fill_prime XORs in another CSPRNG
// draw while trying to reach the minimum population density; if the
// density is still too low after that, FillPrime reports failure.
const densityRetries = 16

func popcount(buf []byte) int {
	n := 0
	for _, b := range buf {
		n += bits.OnesCount8(b)
	}
	return n
}

func enforceMinimumTopWord(buf []byte) {
	if len(buf) < 4 {
		return
	}
	top := binary.BigEndian.Uint32(buf[:4])
	if top < minTopWord {
		binary.BigEndian.PutUint32(buf[:4], top|0xB5050000)
	}
}

func topWordAboveMinimum(v *bigint.Value, nBytes int) bool {
	buf := v.Save(nBytes)
	if len(buf) < 4 {
		return true
	}
	return binary.BigEndian.Uint32(buf[:4]) >= minTopWord
}

// FillPrime searches for a probable prime of the given bit length, per
// FIPS 186-4 §B.3.3: a candidate is drawn from the system RNG, densified by
// XOR-ing in hardware and CSPRNG entropy until its population count clears
// a 1/3 floor, forced odd, forced above the minimum leading-word density,
// and then walked upward by 2 under Miller-Rabin until one survives,
// deadline, or a weak entropy source is detected. coverage controls how
// hard MatchesKnownPrime trial-divides before Miller-Rabin runs at all.
func FillPrime(arena *bigint.Arena, bits int, coverage Coverage, iterations int, deadline time.Time, src entropy.Source) (*bigint.Value, bool) {
	iterations = MinIterations(bits, iterations)
	nBytes := (bits + 7) / 8

	for {
		if time.Now().After(deadline) {
			return nil, false
		}

		buf := make([]byte, nBytes)
		if err := src.FillSystemRandom(buf); err != nil {
			return nil, false
		}
		src.XorHardwareRandom(buf)

		dense := popcount(buf) >= len(buf)*8/3
		for attempt := 0; !dense && attempt < densityRetries; attempt++ {
			if err := src.XorRandom(buf); err != nil {
				return nil, false
			}
			dense = popcount(buf) >= len(buf)*8/3
		}
		if !dense {
			return nil, false
		}

		buf[len(buf)-1] |= 1
		enforceMinimumTopWord(buf)

		candidate := arena.Load(buf)
		for {
			if time.Now().After(deadline) {
				arena.Release(candidate)
				return nil, false
			}
			if IsPrime(candidate, coverage, iterations, src.CSPRNG()) {
				return candidate, true
			}
			candidate.IntAdd(2)
			if candidate.BitCount() > bits || !topWordAboveMinimum(candidate, nBytes) {
				arena.Release(candidate)
				break
			}
		}
	}
}
