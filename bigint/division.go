package bigint

// DivMode selects what Divide computes: a full quotient+remainder, a
// remainder only, or a remainder computed by reusing a pre-normalized
// cached modulo (see Arena.SetModulo).
type DivMode int

const (
	DivModeDivide DivMode = iota
	DivModeMod
	DivModeModNorm
)

// Divide implements Knuth's Algorithm D: self = quotient*v + remainder,
// with 0 <= remainder < v. Neither self nor v is mutated or released; the
// two returned values are freshly allocated and owned by the caller. For
// DivModeMod/DivModeModNorm the quotient return is nil (not computed into
// a caller-visible value, since Knuth's algorithm must derive it as a
// byproduct regardless).
func (self *Value) Divide(v *Value, mode DivMode) (quotient *Value, remainder *Value) {
	arena := self.arena
	self.Trim()
	v.Trim()

	if v.IsZero() {
		panic("bigint: division by zero")
	}

	if self.Compare(v) < 0 {
		q := arena.AllocateFrom(0)
		r := self.Clone()
		if mode != DivModeDivide {
			arena.Release(q)
			return nil, r
		}
		return q, r
	}

	if v.size == 1 {
		q, rem := self.IntDiv(v.limbs[0])
		r := arena.AllocateFrom(rem)
		if mode != DivModeDivide {
			arena.Release(q)
			return nil, r
		}
		return q, r
	}

	d := normalizationFactor(v)
	dWord := d.limbs[0]

	var normV *Value
	if mode == DivModeModNorm && arena.mod[arena.currentModulo] == v && arena.normMod[arena.currentModulo] != nil {
		normV = arena.normMod[arena.currentModulo].Clone()
	} else {
		normV = v.Clone().IntMul(dWord)
	}
	normSelf := self.Clone().IntMul(dWord)

	n := normV.size
	normSelf.growTo(normSelf.size + 1)
	m := normSelf.size - n - 1
	if m < 0 {
		m = 0
		normSelf.growTo(n + 1)
	}

	qLimbs := make([]Word, m+1)
	vTop := uint64(normV.limbs[n-1])
	vNext := uint64(0)
	if n >= 2 {
		vNext = uint64(normV.limbs[n-2])
	}

	for j := m; j >= 0; j-- {
		top := uint64(normSelf.limbs[j+n])
		numHi := top<<limbBits | uint64(normSelf.limbs[j+n-1])
		qhat := numHi / vTop
		rhat := numHi % vTop
		if qhat > uint64(wordMax) {
			qhat = uint64(wordMax)
			rhat = numHi - qhat*vTop
		}
		if n >= 2 {
			for rhat <= uint64(wordMax) {
				var lowDigit uint64
				if j+n-2 >= 0 {
					lowDigit = uint64(normSelf.limbs[j+n-2])
				}
				if qhat*vNext <= rhat<<limbBits|lowDigit {
					break
				}
				qhat--
				rhat += vTop
			}
		}

		// Multiply-subtract: normSelf[j:j+n+1] -= qhat * normV[0:n].
		borrow := int64(0)
		carryMul := uint64(0)
		for i := 0; i < n; i++ {
			p := qhat*uint64(normV.limbs[i]) + carryMul
			carryMul = p >> limbBits
			t := int64(normSelf.limbs[j+i]) - borrow - int64(p&uint64(wordMax))
			normSelf.limbs[j+i] = Word(t)
			if t < 0 {
				borrow = 1
			} else {
				borrow = 0
			}
		}
		t := int64(normSelf.limbs[j+n]) - borrow - int64(carryMul)
		normSelf.limbs[j+n] = Word(t)

		if t < 0 {
			// qhat was one too large: add v back and correct.
			qhat--
			carry := uint64(0)
			for i := 0; i < n; i++ {
				s := uint64(normSelf.limbs[j+i]) + uint64(normV.limbs[i]) + carry
				normSelf.limbs[j+i] = Word(s)
				carry = s >> limbBits
			}
			normSelf.limbs[j+n] = Word(uint64(normSelf.limbs[j+n]) + carry)
		}
		qLimbs[j] = Word(qhat)
	}

	q := arena.Allocate(len(qLimbs), false)
	copy(q.limbs, qLimbs)
	q.Trim()

	remRaw := arena.Allocate(n, false)
	copy(remRaw.limbs, normSelf.limbs[:n])
	remRaw.Trim()
	rem, _ := remRaw.IntDiv(dWord)
	arena.Release(remRaw)

	arena.Release(normV)
	arena.Release(normSelf)
	arena.Release(d)

	if mode != DivModeDivide {
		arena.Release(q)
		return nil, rem
	}
	return q, rem
}

// Mod returns v mod m without consuming v or m.
func (v *Value) Mod(m *Value) *Value {
	_, r := v.Divide(m, DivModeMod)
	return r
}

// DivMod returns v/m and v mod m without consuming v or m.
func (v *Value) DivMod(m *Value) (*Value, *Value) {
	return v.Divide(m, DivModeDivide)
}
