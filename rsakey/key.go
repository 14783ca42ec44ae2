// Package rsakey implements FIPS 186-4 §B.3.1/§B.3.3 RSA key generation
// and the ASN.1 DER codec for PKCS#1/PKCS#8 key material, over the bigint
// arena.
package rsakey

import (
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/bastionzero/rsaforge/bigint"
	"github.com/bastionzero/rsaforge/internal/entropy"
	"github.com/bastionzero/rsaforge/prime"
)

// publicExponent is fixed per spec: e = 65537 for every generated key.
const publicExponent = bigint.Word(65537)

var validBitLengths = map[int]bool{
	512: true, 1024: true, 2048: true, 3072: true, 4096: true, 7680: true,
}

// Key holds the permanent BigInts of one RSA key pair, all owned by a
// single arena. A public-only key has M, E set and the rest nil.
type Key struct {
	Arena *bigint.Arena

	M, E   *bigint.Value
	D      *bigint.Value
	P, Q   *bigint.Value
	DP, DQ *bigint.Value
	QInv   *bigint.Value

	ModulusLenBytes int
	ModulusBits     int
}

// IsPrivate reports whether k carries private-key material.
func (k *Key) IsPrivate() bool { return k.D != nil }

// Wipe zeroes and releases every permanent BigInt the key holds, then
// resets the struct to its empty state. Safe to call on a public-only key.
func (k *Key) Wipe() {
	a := k.Arena
	if a == nil {
		return
	}
	a.ResetModulo(bigint.SlotN)
	a.ResetModulo(bigint.SlotP)
	a.ResetModulo(bigint.SlotQ)
	a.Forget(k.E)
	a.Forget(k.D)
	a.Forget(k.DP)
	a.Forget(k.DQ)
	a.Forget(k.QInv)
	a.WipeReleased()
	*k = Key{Arena: a}
}

// Generate produces a fresh RSA key pair of the given bit length following
// FIPS 186-4 §B.3.1/§B.3.3: e = 65537, primes p > q with a minimum
// bit-distance, d as the smallest modular inverse of e mod λ(n), and CRT
// parameters dP = d mod (p-1), dQ = d mod (q-1), qInv = q^-1 mod p.
func Generate(arena *bigint.Arena, bits int, coverage prime.Coverage, iterations int, timeout time.Duration, src entropy.Source) (*Key, error) {
	if !validBitLengths[bits] {
		return nil, errors.Errorf("rsakey: unsupported bit length %d", bits)
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	deadline := time.Now().Add(timeout)
	half := bits / 2

	log := logrus.WithFields(logrus.Fields{"bits": bits})
	log.Debug("generating RSA key")

	for {
		if time.Now().After(deadline) {
			return nil, errors.New("rsakey: generation deadline exceeded")
		}

		p, ok := fillPrimeCoprimeToE(arena, half, coverage, iterations, deadline, src)
		if !ok {
			return nil, errors.New("rsakey: prime generation failed (timeout or weak entropy)")
		}
		q, ok := fillPrimeCoprimeToE(arena, half, coverage, iterations, deadline, src)
		if !ok {
			arena.Release(p)
			return nil, errors.New("rsakey: prime generation failed (timeout or weak entropy)")
		}

		if p.Compare(q) == 0 {
			arena.Release(p)
			arena.Release(q)
			return nil, errors.New("rsakey: prime generator produced p == q")
		}
		if p.Compare(q) < 0 {
			p, q = q, p
		}

		diff := p.Clone()
		diff, _ = diff.Sub(q.Copy())
		farEnough := diff.BitCount() > half-100
		arena.Release(diff)
		if !farEnough {
			arena.Release(p)
			arena.Release(q)
			continue
		}

		pPrime := p.Clone().IntSub(1)
		qPrime := q.Clone().IntSub(1)
		hProduct := pPrime.Clone().Mul(qPrime.Clone())

		e := arena.AllocateFrom(publicExponent)

		// Gcd, ModInverse, Mod and DivMod are all pure queries: they never
		// mutate or release the values passed to them, so no Copy/Clone is
		// needed just to call them -- only for values consumed elsewhere.
		gcdEH := e.Gcd(hProduct)
		coprime := gcdEH.CompareHalf(1) == 0
		arena.Release(gcdEH)
		if !coprime {
			arena.Release(hProduct)
			arena.Release(pPrime)
			arena.Release(qPrime)
			arena.Release(e)
			arena.Release(p)
			arena.Release(q)
			continue
		}

		gcdPQ := pPrime.Gcd(qPrime)
		lambda, rem := hProduct.DivMod(gcdPQ)
		arena.Release(rem)
		arena.Release(gcdPQ)
		arena.Release(hProduct)

		d := e.ModInverse(lambda)
		accept := d.BitCount() > (bits+1)/2
		if !accept {
			arena.Release(d)
			arena.Release(lambda)
			arena.Release(pPrime)
			arena.Release(qPrime)
			arena.Release(e)
			arena.Release(p)
			arena.Release(q)
			continue
		}
		arena.Release(lambda)

		dP := d.Mod(pPrime)
		dQ := d.Mod(qPrime)
		arena.Release(pPrime)
		arena.Release(qPrime)
		qInv := q.ModInverse(p)

		m := p.Clone().Mul(q.Clone())
		m.Trim()
		if bc := m.BitCount(); bc != bits && bc != bits-1 {
			arena.Release(m)
			arena.Release(dP)
			arena.Release(dQ)
			arena.Release(qInv)
			arena.Release(d)
			arena.Release(e)
			arena.Release(p)
			arena.Release(q)
			continue
		}

		if err := arena.SetModulo(p, bigint.SlotP); err != nil {
			return nil, errors.Wrap(err, "rsakey: promoting p")
		}
		if err := arena.SetModulo(q, bigint.SlotQ); err != nil {
			return nil, errors.Wrap(err, "rsakey: promoting q")
		}
		if err := arena.SetModulo(m, bigint.SlotN); err != nil {
			return nil, errors.Wrap(err, "rsakey: promoting m")
		}
		arena.Promote(e)
		arena.Promote(d)
		arena.Promote(dP)
		arena.Promote(dQ)
		arena.Promote(qInv)

		key := &Key{
			Arena:           arena,
			M:               m,
			E:               e,
			D:               d,
			P:               p,
			Q:               q,
			DP:              dP,
			DQ:              dQ,
			QInv:            qInv,
			ModulusLenBytes: (bits + 7) / 8,
			ModulusBits:     m.BitCount(),
		}
		arena.WipeReleased()
		log.Info("RSA key generated")
		return key, nil
	}
}

func fillPrimeCoprimeToE(arena *bigint.Arena, bits int, coverage prime.Coverage, iterations int, deadline time.Time, src entropy.Source) (*bigint.Value, bool) {
	for {
		candidate, ok := prime.FillPrime(arena, bits, coverage, iterations, deadline, src)
		if !ok {
			return nil, false
		}
		if candidate.IntMod(publicExponent) != 1 {
			return candidate, true
		}
		arena.Release(candidate)
	}
}
