package rsakey

import "github.com/bastionzero/rsaforge/bigint"

// PublicOp computes c^e mod m, consuming c (matching the arena's usual
// "operations release their operands" convention -- callers that still
// need c afterward must pass c.Copy()).
func (k *Key) PublicOp(c *bigint.Value) *bigint.Value {
	arena := k.Arena
	arena.SetCurrentModulo(bigint.SlotN)
	return arena.ModPower(c, k.E.Copy(), nil)
}

// PrivateOp computes c^d mod m via CRT acceleration (§4.11):
//
//	m1 = c^dP mod p
//	m2 = c^dQ mod q
//	h  = qInv * (m1 + p - m2) mod p   -- add p first so the subtraction never goes negative
//	out = m2 + q*h
//
// c is consumed. The key must carry private material (P, Q, DP, DQ, QInv).
func (k *Key) PrivateOp(c *bigint.Value) *bigint.Value {
	arena := k.Arena

	arena.SetCurrentModulo(bigint.SlotP)
	m1 := arena.ModPower(c.Copy(), k.DP.Copy(), nil)
	arena.SetCurrentModulo(bigint.SlotQ)
	m2 := arena.ModPower(c, k.DQ.Copy(), nil)

	arena.SetCurrentModulo(bigint.SlotP)
	t := m1.Clone().Add(k.P.Copy())
	t, _ = t.Sub(m2.Copy())
	h := arena.Reduce(t, nil)
	h = h.Mul(k.QInv.Copy())
	h = arena.Reduce(h, nil)

	out := h.Mul(k.Q.Copy())
	out = out.Add(m2)
	arena.Release(m1)
	return out
}
