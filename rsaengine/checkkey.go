package rsaengine

import "github.com/bastionzero/rsaforge/prime"

// CheckPrivateKey verifies every consistency relation §4.10 requires of a
// loaded private key: p*q = m, e is prime, q^-1 mod p = qInv,
// d mod (p-1) = dP, d mod (q-1) = dQ, gcd(e, (p-1)(q-1)) = 1, and
// e*d ≡ 1 (mod λ). Any failure returns false; all temporaries are
// released and the free list is wiped before returning.
func (e *Engine) CheckPrivateKey() bool {
	if e.key == nil || !e.key.IsPrivate() {
		return false
	}
	k := e.key
	arena := e.arena
	ok := true

	pq := k.P.Clone().Mul(k.Q.Copy())
	if pq.Compare(k.M) != 0 {
		ok = false
	}
	arena.Release(pq)

	if ok && !prime.IsPrime(k.E, prime.All, prime.MinIterations(k.E.BitCount(), 0), e.src.CSPRNG()) {
		ok = false
	}

	if ok {
		qInv := k.Q.ModInverse(k.P)
		if qInv.Compare(k.QInv) != 0 {
			ok = false
		}
		arena.Release(qInv)
	}

	if ok {
		pm1 := k.P.Clone().IntSub(1)
		dModP := k.D.Mod(pm1)
		if dModP.Compare(k.DP) != 0 {
			ok = false
		}
		arena.Release(dModP)
		arena.Release(pm1)
	}

	if ok {
		qm1 := k.Q.Clone().IntSub(1)
		dModQ := k.D.Mod(qm1)
		if dModQ.Compare(k.DQ) != 0 {
			ok = false
		}
		arena.Release(dModQ)
		arena.Release(qm1)
	}

	if ok {
		pm1 := k.P.Clone().IntSub(1)
		qm1 := k.Q.Clone().IntSub(1)
		h := pm1.Mul(qm1)

		gcdEH := k.E.Gcd(h)
		coprime := gcdEH.CompareHalf(1) == 0
		arena.Release(gcdEH)

		if !coprime {
			ok = false
			arena.Release(h)
		} else {
			pm1b := k.P.Clone().IntSub(1)
			qm1b := k.Q.Clone().IntSub(1)
			gcdPQ := pm1b.Gcd(qm1b)
			lambda, rem := h.DivMod(gcdPQ)
			arena.Release(rem)
			arena.Release(gcdPQ)
			arena.Release(h)
			arena.Release(pm1b)
			arena.Release(qm1b)

			ed := k.E.Clone().Mul(k.D.Copy())
			edMod := ed.Mod(lambda)
			if edMod.CompareHalf(1) != 0 {
				ok = false
			}
			arena.Release(edMod)
			arena.Release(ed)
			arena.Release(lambda)
		}
	}

	arena.WipeReleased()
	return ok
}
