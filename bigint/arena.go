package bigint

import "fmt"

// ModSlot names one of the three long-lived modulos an arena can cache:
// the RSA modulus N, and the two primes P and Q used by CRT acceleration.
type ModSlot int

const (
	SlotN ModSlot = iota
	SlotP
	SlotQ
	numSlots
)

// Value is a multi-precision integer owned by exactly one Arena. It is
// copy-on-write: ordinary values are shared by reference count, and
// "permanent" values (refCnt == -1) are long-lived key material that the
// ordinary release path must not recycle.
type Value struct {
	arena    *Arena
	limbs    []Word
	size     int
	refCnt   int32
	nextFree *Value
}

const permanentRefCnt = -1

// Arena is the RSA context: an owner of Values that pools allocations, wipes
// released buffers on request (WipeReleased) and on Close, and caches the
// normalized modulos used by the modular
// engine. An Arena is not safe for concurrent use; exactly one goroutine may
// touch a given arena (and the Values it owns) at a time.
type Arena struct {
	freeList      *Value
	activeCount   int
	freeCount     int
	currentModulo ModSlot
	mod           [numSlots]*Value
	normMod       [numSlots]*Value
}

// NewArena returns an empty arena with no cached modulos.
func NewArena() *Arena {
	return &Arena{currentModulo: SlotN}
}

// nextGrow implements the arena's doubling growth policy: the smallest
// power of two (at least 4) that is >= n.
func nextGrow(n int) int {
	c := 4
	for c < n {
		c *= 2
	}
	return c
}

// Allocate returns a value with size n, reusing the most recently released
// value if one is on the free list (LIFO reuse), and growing it first if its
// capacity is too small.
func (a *Arena) Allocate(n int, zero bool) *Value {
	if n < 1 {
		n = 1
	}
	var v *Value
	if a.freeList != nil {
		v = a.freeList
		a.freeList = v.nextFree
		v.nextFree = nil
		a.freeCount--
		if cap(v.limbs) < n {
			grown := make([]Word, nextGrow(n))
			copy(grown, v.limbs)
			v.limbs = grown
		} else {
			v.limbs = v.limbs[:cap(v.limbs)]
		}
	} else {
		v = &Value{arena: a, limbs: make([]Word, nextGrow(n))}
	}
	v.size = n
	v.refCnt = 1
	if zero {
		for i := 0; i < n; i++ {
			v.limbs[i] = 0
		}
	}
	a.activeCount++
	return v
}

// AllocateFrom returns a single-limb value equal to u.
func (a *Arena) AllocateFrom(u Word) *Value {
	v := a.Allocate(1, false)
	v.limbs[0] = u
	return v
}

// AllocateFromHex parses a display-order (most-significant-digit-first) hex
// string into a value, ignoring a leading "0x"/"0X".
func (a *Arena) AllocateFromHex(s string) (*Value, error) {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	if len(s) == 0 {
		return nil, fmt.Errorf("bigint: empty hex string")
	}
	nibbles := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
			nibbles[i] = c - '0'
		case c >= 'a' && c <= 'f':
			nibbles[i] = c - 'a' + 10
		case c >= 'A' && c <= 'F':
			nibbles[i] = c - 'A' + 10
		default:
			return nil, fmt.Errorf("bigint: invalid hex digit %q", c)
		}
	}
	// 8 hex digits per 32-bit limb, least-significant limb first.
	n := (len(nibbles) + 7) / 8
	v := a.Allocate(n, true)
	for i := 0; i < len(nibbles); i++ {
		// nibbles is most-significant-first; position from the end.
		pos := len(nibbles) - 1 - i
		limb := pos / 8
		shift := uint((pos % 8)) * 4
		v.limbs[limb] |= Word(nibbles[i]) << shift
	}
	v.Trim()
	return v, nil
}

// Load converts a big-endian byte buffer into a value, swapping into
// little-endian limb order.
func (a *Arena) Load(b []byte) *Value {
	if len(b) == 0 {
		v := a.Allocate(1, true)
		return v
	}
	n := (len(b) + 3) / 4
	v := a.Allocate(n, true)
	for i, bi := 0, len(b)-1; bi >= 0; i, bi = i+1, bi-1 {
		limb := i / 4
		shift := uint(i%4) * 8
		v.limbs[limb] |= Word(b[bi]) << shift
	}
	v.Trim()
	return v
}

// Release decrements v's reference count; when it reaches zero the value is
// pushed onto the free list. Releasing a permanent value (refCnt == -1) is a
// silent no-op: permanents are managed exclusively through SetModulo /
// ResetModulo and Promote / Forget.
func (a *Arena) Release(v *Value) {
	if v == nil {
		return
	}
	if v.arena != a {
		panic("bigint: release of a value owned by a different arena")
	}
	if v.refCnt == permanentRefCnt {
		return
	}
	v.refCnt--
	if v.refCnt > 0 {
		return
	}
	v.refCnt = 0
	v.nextFree = a.freeList
	a.freeList = v
	a.freeCount++
	a.activeCount--
}

// WipeReleased zero-fills every buffer currently sitting on the free list.
// The RSA facade calls this after every private-key operation so that stray
// intermediate values (partial exponents, CRT remainders) never linger in
// memory past their use.
func (a *Arena) WipeReleased() {
	for v := a.freeList; v != nil; v = v.nextFree {
		wipeLimbs(v.limbs)
	}
}

//go:noinline
func wipeLimbs(limbs []Word) {
	for i := range limbs {
		limbs[i] = 0
	}
}

// SetModulo installs v as the permanent modulo for slot, precomputing and
// caching its Knuth normalization product. v must be uniquely referenced
// (refCnt == 1); promoting a shared value is a misuse error.
func (a *Arena) SetModulo(v *Value, slot ModSlot) error {
	if v.arena != a {
		return fmt.Errorf("bigint: value belongs to a different arena")
	}
	if v.refCnt != 1 {
		return fmt.Errorf("bigint: cannot promote a non-unique value to permanent (refCnt=%d)", v.refCnt)
	}
	v.Trim()
	d := normalizationFactor(v)
	arg := v.Copy() // safe: v is about to become permanent, but isn't yet
	norm := arg.Mul(d)
	norm.refCnt = permanentRefCnt

	v.refCnt = permanentRefCnt
	a.mod[slot] = v
	a.normMod[slot] = norm
	return nil
}

// ResetModulo reverses SetModulo: it demotes the permanent value in slot
// back into the ordinary COW pool and releases it (and its cached
// normalized product). Calling it on a slot that isn't currently permanent
// is a misuse error.
func (a *Arena) ResetModulo(slot ModSlot) error {
	v := a.mod[slot]
	if v == nil || v.refCnt != permanentRefCnt {
		return fmt.Errorf("bigint: modulo slot %d is not installed", slot)
	}
	v.refCnt = 1
	a.Release(v)
	if n := a.normMod[slot]; n != nil {
		n.refCnt = 1
		a.Release(n)
	}
	a.mod[slot] = nil
	a.normMod[slot] = nil
	return nil
}

// Promote marks v permanent without caching it as a modulo slot -- for key
// material (d, dP, dQ, qInv, e) that needs a permanent lifetime but no
// Knuth normalization product. v must be uniquely referenced.
func (a *Arena) Promote(v *Value) error {
	if v.arena != a {
		return fmt.Errorf("bigint: value belongs to a different arena")
	}
	if v.refCnt != 1 {
		return fmt.Errorf("bigint: cannot promote a non-unique value to permanent (refCnt=%d)", v.refCnt)
	}
	v.refCnt = permanentRefCnt
	return nil
}

// Forget reverses Promote: it wipes v's limbs, demotes it back into the
// ordinary COW pool, and releases it. A no-op if v is nil or not permanent.
func (a *Arena) Forget(v *Value) {
	if v == nil || v.refCnt != permanentRefCnt {
		return
	}
	wipeLimbs(v.limbs)
	v.refCnt = 1
	a.Release(v)
}

// Modulo returns the permanent value cached in slot, or nil if unset.
func (a *Arena) Modulo(slot ModSlot) *Value { return a.mod[slot] }

// NormModulo returns the cached normalized product (modulo * d) for slot.
func (a *Arena) NormModulo(slot ModSlot) *Value { return a.normMod[slot] }

// CurrentModulo returns the slot used when callers pass a nil modulo to
// Reduce / ModPower.
func (a *Arena) CurrentModulo() ModSlot { return a.currentModulo }

// SetCurrentModulo changes which cached modulo "default modulo" refers to.
func (a *Arena) SetCurrentModulo(slot ModSlot) { a.currentModulo = slot }

// ActiveCount reports the number of values currently allocated and not yet
// released -- used by tests asserting no intermediate value ever leaks.
func (a *Arena) ActiveCount() int { return a.activeCount }

// Close wipes every cached permanent value and the free list, then reports
// a leak if any value is still active. Arenas holding key material should
// always be closed once the facade using them is done.
func (a *Arena) Close() error {
	for _, v := range a.mod {
		if v != nil {
			wipeLimbs(v.limbs)
		}
	}
	for _, v := range a.normMod {
		if v != nil {
			wipeLimbs(v.limbs)
		}
	}
	a.WipeReleased()
	if a.activeCount != 0 {
		return fmt.Errorf("bigint: arena closed with %d value(s) still active (leak)", a.activeCount)
	}
	return nil
}

// normalizationFactor computes d = R / (top_limb(m) + 1), the Knuth
// Algorithm D normalization factor for modulo m, as a one-limb value.
func normalizationFactor(m *Value) *Value {
	top := uint64(m.limbs[m.size-1])
	d := radix / (top + 1)
	return m.arena.AllocateFrom(Word(d))
}
