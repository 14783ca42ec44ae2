package bigint

// Reduce returns b mod m, releasing b. If m is nil, the arena's currently
// selected cached modulo (and its precomputed normalization factor) is
// used instead of normalizing from scratch.
func (a *Arena) Reduce(b *Value, m *Value) *Value {
	mode := DivModeMod
	divisor := m
	if divisor == nil {
		divisor = a.mod[a.currentModulo]
		if divisor == nil {
			panic("bigint: reduce with no default modulo installed")
		}
		mode = DivModeModNorm
	}
	_, rem := b.Divide(divisor, mode)
	a.Release(b)
	return rem
}

// ModPower computes base^exp mod m by square-and-multiply, scanning the
// exponent from its least significant bit. Both base and exp are released;
// the result is a fresh trimmed value. This is deliberately not
// constant-time: per spec.md's Non-goals, no blinding or fixed-window
// scheduling is applied, so both the branch taken per bit and the number
// of iterations leak through timing.
func (a *Arena) ModPower(base, exp *Value, m *Value) *Value {
	result := a.AllocateFrom(1)
	base = a.Reduce(base, m)
	// exp may be shared (Copy) or permanent key material, so the bit scan
	// shifts a private clone rather than exp itself.
	e := exp.Clone()
	a.Release(exp)
	for !e.IsZero() {
		if e.IsOdd() {
			result = a.Reduce(result.Mul(base.Copy()), m)
		}
		e.ShrBits(1)
		base = a.Reduce(base.Square(), m)
	}
	a.Release(base)
	a.Release(e)
	return result
}
