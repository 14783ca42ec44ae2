package bigint

import "math/bits"

// growTo ensures v has capacity for at least n limbs and, if n is larger
// than the current logical size, zero-fills the newly exposed limbs and
// extends size to n. It never shrinks size.
func (v *Value) growTo(n int) {
	if cap(v.limbs) < n {
		grown := make([]Word, nextGrow(n))
		copy(grown, v.limbs)
		v.limbs = grown
	}
	if n > v.size {
		for i := v.size; i < n; i++ {
			v.limbs[i] = 0
		}
		v.size = n
	}
}

// padView returns a view of b zero-extended to n limbs (n >= b.size)
// without mutating b's logical size.
func padView(b *Value, n int) []Word {
	if cap(b.limbs) >= n {
		bl := b.limbs[:n]
		for i := b.size; i < n; i++ {
			bl[i] = 0
		}
		return bl
	}
	out := make([]Word, n)
	copy(out, b.limbs[:b.size])
	return out
}

func padWord(u Word, n int) []Word {
	out := make([]Word, n)
	out[0] = u
	return out
}

// Arena returns the owning arena.
func (v *Value) Arena() *Arena { return v.arena }

// Size returns the number of meaningful limbs.
func (v *Value) Size() int { return v.size }

// Trim strips trailing (most-significant) zero limbs, leaving size >= 1.
// Idempotent.
func (v *Value) Trim() {
	for v.size > 1 && v.limbs[v.size-1] == 0 {
		v.size--
	}
}

// IsZero reports whether v is the logical value 0.
func (v *Value) IsZero() bool {
	v.Trim()
	return v.size == 1 && v.limbs[0] == 0
}

// IsEven reports whether v's lowest bit is clear.
func (v *Value) IsEven() bool { return v.limbs[0]&1 == 0 }

// IsOdd reports whether v's lowest bit is set.
func (v *Value) IsOdd() bool { return v.limbs[0]&1 == 1 }

// BitCount returns the position of the highest set bit plus one (0 for the
// value zero).
func (v *Value) BitCount() int {
	v.Trim()
	top := v.limbs[v.size-1]
	n := 0
	for top != 0 {
		n++
		top >>= 1
	}
	return (v.size-1)*limbBits + n
}

// FindMaxBit returns the index of the highest set bit, or -1 if v is zero.
func (v *Value) FindMaxBit() int {
	bc := v.BitCount()
	if bc == 0 {
		return -1
	}
	return bc - 1
}

// FindMinBit returns the index of the lowest set bit, or -1 if v is zero.
func (v *Value) FindMinBit() int {
	v.Trim()
	for i := 0; i < v.size; i++ {
		if v.limbs[i] != 0 {
			return i*limbBits + bits.TrailingZeros32(v.limbs[i])
		}
	}
	return -1
}

// BitIsSet reports whether bit k (0 = least significant) is set.
func (v *Value) BitIsSet(k int) bool {
	if k < 0 {
		return false
	}
	limb := k / limbBits
	if limb >= v.size {
		return false
	}
	return v.limbs[limb]&(1<<uint(k%limbBits)) != 0
}

// BitSetCount returns the number of set bits (population count).
func (v *Value) BitSetCount() int {
	n := 0
	for i := 0; i < v.size; i++ {
		n += bits.OnesCount32(v.limbs[i])
	}
	return n
}

// Compare returns -1, 0, or 1 as v is less than, equal to, or greater than
// other, after trimming both.
func (v *Value) Compare(other *Value) int {
	v.Trim()
	other.Trim()
	if v.size != other.size {
		if v.size < other.size {
			return -1
		}
		return 1
	}
	for i := v.size - 1; i >= 0; i-- {
		if v.limbs[i] != other.limbs[i] {
			if v.limbs[i] < other.limbs[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

// CompareHalf compares v against a single half-limb value u.
func (v *Value) CompareHalf(u Word) int {
	v.Trim()
	if v.size > 1 {
		return 1
	}
	if v.limbs[0] < u {
		return -1
	}
	if v.limbs[0] > u {
		return 1
	}
	return 0
}

// CompareAndRelease compares v against other, releases other, and returns
// the comparison result.
func (v *Value) CompareAndRelease(other *Value) int {
	c := v.Compare(other)
	v.arena.Release(other)
	return c
}

// Copy implements copy-on-write sharing: a permanent value (refCnt == -1)
// is returned unchanged, otherwise the reference count is bumped and the
// same pointer handed back.
func (v *Value) Copy() *Value {
	if v.refCnt == permanentRefCnt {
		return v
	}
	v.refCnt++
	return v
}

// Clone makes an independent deep copy of v, regardless of its current
// sharing state.
func (v *Value) Clone() *Value {
	v.Trim()
	out := v.arena.Allocate(v.size, false)
	copy(out.limbs, v.limbs[:v.size])
	return out
}

// ShlBits shifts v left by k bits in place, growing as needed, and returns
// v.
func (v *Value) ShlBits(k int) *Value {
	if k <= 0 {
		return v
	}
	v.Trim()
	limbShift := k / limbBits
	bitShift := uint(k % limbBits)
	oldSize := v.size
	newSize := oldSize + limbShift + 1
	v.growTo(newSize)
	if limbShift > 0 {
		for i := oldSize - 1; i >= 0; i-- {
			v.limbs[i+limbShift] = v.limbs[i]
		}
		for i := 0; i < limbShift; i++ {
			v.limbs[i] = 0
		}
	}
	if bitShift > 0 {
		for i := newSize - 1; i >= limbShift; i-- {
			hi := v.limbs[i] << bitShift
			var lo Word
			if i > limbShift {
				lo = v.limbs[i-1] >> (limbBits - bitShift)
			}
			v.limbs[i] = hi | lo
		}
	}
	v.size = newSize
	v.Trim()
	return v
}

// ShrBits shifts v right by k bits in place and returns v.
func (v *Value) ShrBits(k int) *Value {
	if k <= 0 {
		return v
	}
	v.Trim()
	limbShift := k / limbBits
	bitShift := uint(k % limbBits)
	if limbShift >= v.size {
		v.limbs[0] = 0
		v.size = 1
		return v
	}
	n := v.size - limbShift
	for i := 0; i < n; i++ {
		v.limbs[i] = v.limbs[i+limbShift]
	}
	for i := n; i < v.size; i++ {
		v.limbs[i] = 0
	}
	v.size = n
	if bitShift > 0 {
		for i := 0; i < v.size; i++ {
			lo := v.limbs[i] >> bitShift
			var hi Word
			if i+1 < v.size {
				hi = v.limbs[i+1] << (limbBits - bitShift)
			}
			v.limbs[i] = lo | hi
		}
	}
	v.Trim()
	return v
}

// Add computes self := self + b in place, growing self by a limb if the
// addition overflows, and releases b. Returns self.
func (v *Value) Add(b *Value) *Value {
	v.Trim()
	b.Trim()
	n := v.size
	if b.size > n {
		n = b.size
	}
	v.growTo(n)
	carry := addLimbs(v.limbs[:n], padView(b, n), n, 0)
	if carry != 0 {
		v.growTo(n + 1)
		v.limbs[n] = carry
	}
	v.Trim()
	v.arena.Release(b)
	return v
}

// Sub computes self := |self - b| in place, reports whether b was larger
// (negative), and releases b. Returns self.
func (v *Value) Sub(b *Value) (result *Value, negative bool) {
	v.Trim()
	b.Trim()
	n := v.size
	if b.size > n {
		n = b.size
	}
	v.growTo(n)
	borrow := subLimbs(v.limbs[:n], padView(b, n), n, 0)
	if borrow != 0 {
		carry := uint64(1)
		for i := 0; i < n; i++ {
			nv := uint64(^v.limbs[i]) + carry
			v.limbs[i] = Word(nv)
			carry = nv >> limbBits
		}
		negative = true
	}
	v.size = n
	v.Trim()
	v.arena.Release(b)
	return v, negative
}

// Mul returns a freshly allocated product self*b using schoolbook
// multiplication, and releases both operands.
func (v *Value) Mul(b *Value) *Value {
	v.Trim()
	b.Trim()
	arena := v.arena
	result := arena.Allocate(v.size+b.size, true)
	for i := 0; i < b.size; i++ {
		carry := mulAddLimbs(v.limbs[:v.size], result.limbs[i:i+v.size], v.size, b.limbs[i], 0)
		result.limbs[i+v.size] += carry
	}
	arena.Release(v)
	arena.Release(b)
	result.Trim()
	return result
}

// Square returns self*self, releasing self (matching Mul's contract).
func (v *Value) Square() *Value {
	return v.Mul(v.Copy())
}

// IntMul multiplies v in place by a single half-limb, growing as needed.
func (v *Value) IntMul(u Word) *Value {
	v.Trim()
	n := v.size
	carry := mulLimbsByWord(v.limbs[:n], n, u, 0)
	if carry != 0 {
		v.growTo(n + 1)
		v.limbs[n] = carry
	}
	v.Trim()
	return v
}

// IntDiv divides v by a single half-limb, returning a freshly cloned
// quotient and the remainder. v itself is untouched.
func (v *Value) IntDiv(u Word) (*Value, Word) {
	q := v.Clone()
	rem := divOneLimbs(q.limbs[:q.size], q.size, u, 0)
	q.Trim()
	return q, rem
}

// IntMod returns v mod u without mutating v.
func (v *Value) IntMod(u Word) Word {
	tmp := make([]Word, v.size)
	copy(tmp, v.limbs[:v.size])
	return modOneLimbs(tmp, v.size, u, 0)
}

// IntDivMod10 divides v by ten, returning the quotient and the removed
// decimal digit; used by DecString.
func (v *Value) IntDivMod10() (*Value, Word) {
	return v.IntDiv(10)
}

// IntAdd adds a single half-limb to v in place, growing as needed.
func (v *Value) IntAdd(u Word) *Value {
	v.Trim()
	c := uint64(u)
	i := 0
	for ; i < v.size && c != 0; i++ {
		sum := uint64(v.limbs[i]) + c
		v.limbs[i] = Word(sum)
		c = sum >> limbBits
	}
	if c != 0 {
		v.growTo(v.size + 1)
		v.limbs[v.size-1] = Word(c)
	}
	return v
}

// IntSub subtracts a single half-limb from v in place. The caller is
// responsible for ensuring v >= u; this is a primitive, not a checked API.
func (v *Value) IntSub(u Word) *Value {
	v.Trim()
	subLimbs(v.limbs[:v.size], padWord(u, v.size), v.size, 0)
	v.Trim()
	return v
}

// Gcd computes the greatest common divisor of v and b via the binary
// (Stein's) algorithm. Both operands must be nonzero. Neither operand is
// mutated or released; the result is a fresh value.
func (v *Value) Gcd(b *Value) *Value {
	if v.IsZero() || b.IsZero() {
		panic("bigint: gcd requires both operands to be nonzero")
	}
	arena := v.arena
	x := v.Clone()
	y := b.Clone()
	shift := 0
	for x.IsEven() && y.IsEven() {
		x.ShrBits(1)
		y.ShrBits(1)
		shift++
	}
	for x.IsEven() {
		x.ShrBits(1)
	}
	for !y.IsZero() {
		for y.IsEven() {
			y.ShrBits(1)
		}
		if x.Compare(y) > 0 {
			x, y = y, x
		}
		y, _ = y.Sub(x.Copy())
	}
	x.ShlBits(shift)
	arena.Release(y)
	return x
}

// ModInverse computes the multiplicative inverse of v modulo m using the
// classic "positive" extended Euclidean algorithm: coefficients are kept
// non-negative throughout, and the parity of the iteration count says
// whether the raw coefficient or m minus it is the answer. m must be > 1.
// Returns a fresh zero value if v has no inverse mod m.
func (v *Value) ModInverse(m *Value) *Value {
	if m.CompareHalf(1) <= 0 {
		panic("bigint: mod_inverse requires modulus > 1")
	}
	arena := v.arena
	u1 := arena.AllocateFrom(1)
	u3 := v.Clone()
	v1 := arena.AllocateFrom(0)
	v3 := m.Clone()
	iter := 0

	for !v3.IsZero() {
		q, t3 := u3.Divide(v3, DivModeDivide)
		t1 := q.Mul(v1.Clone())
		t1 = t1.Add(u1.Clone())

		arena.Release(u1)
		arena.Release(u3)
		u1, u3 = v1, v3
		v1, v3 = t1, t3
		iter++
	}

	invertible := u3.CompareHalf(1) == 0
	arena.Release(u3)
	arena.Release(v3)
	if !invertible {
		arena.Release(u1)
		arena.Release(v1)
		return arena.AllocateFrom(0)
	}
	arena.Release(v1)
	if iter%2 == 1 {
		result, _ := m.Clone().Sub(u1)
		return result
	}
	return u1
}

// Reduce and ModPower are thin conveniences over the arena-level modular
// engine (see modular.go) so callers can chain off a Value directly.
func (v *Value) Reduce(m *Value) *Value         { return v.arena.Reduce(v, m) }
func (v *Value) ModPower(exp, m *Value) *Value  { return v.arena.ModPower(v, exp, m) }
