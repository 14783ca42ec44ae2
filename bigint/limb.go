// Package bigint implements a reference-counted, arena-pooled multi-precision
// integer suitable for RSA-scale modular arithmetic. Values are stored as
// little-endian slices of half-limb words; all carry/borrow propagation is
// done in a double-width (64-bit) accumulator so overflow never has to be
// detected separately from the arithmetic that produces it.
package bigint

// Word is a single half-limb. The host word is 64 bits, so a half-limb is
// 32 bits and the radix R is 1<<32.
type Word = uint32

const (
	limbBits = 32
	radix    = uint64(1) << limbBits
	wordMax  = Word(radix - 1)
)

// addLimbs adds b into a over n limbs with an incoming carry (0 or 1) and
// returns the outgoing carry. Used by Value.Add.
func addLimbs(a, b []Word, n int, carry Word) Word {
	c := uint64(carry)
	for i := 0; i < n; i++ {
		sum := uint64(a[i]) + uint64(b[i]) + c
		a[i] = Word(sum)
		c = sum >> limbBits
	}
	return Word(c)
}

// subLimbs subtracts b from a over n limbs with an incoming borrow (0 or 1)
// and returns the outgoing borrow. Used by Value.Sub and Value.IntSub.
func subLimbs(a, b []Word, n int, borrow Word) Word {
	bw := uint64(borrow)
	for i := 0; i < n; i++ {
		diff := uint64(a[i]) - uint64(b[i]) - bw
		a[i] = Word(diff)
		if diff > uint64(wordMax) {
			bw = 1
		} else {
			bw = 0
		}
	}
	return Word(bw)
}

// mulAddLimbs computes dst[i] += src[i]*factor + carry for i in [0,n),
// propagating carry across limbs, and returns the final carry. This is the
// inner loop of schoolbook multiplication (Value.Mul).
func mulAddLimbs(src, dst []Word, n int, factor Word, carry Word) Word {
	c := uint64(carry)
	f := uint64(factor)
	for i := 0; i < n; i++ {
		prod := uint64(src[i])*f + uint64(dst[i]) + c
		dst[i] = Word(prod)
		c = prod >> limbBits
	}
	return Word(c)
}

// mulLimbsByWord scales a[0:n] in place by factor, propagating carry, and
// returns the final carry. Used by Value.IntMul.
func mulLimbsByWord(a []Word, n int, factor Word, carry Word) Word {
	c := uint64(carry)
	f := uint64(factor)
	for i := 0; i < n; i++ {
		prod := uint64(a[i])*f + c
		a[i] = Word(prod)
		c = prod >> limbBits
	}
	return Word(c)
}

// divOneLimbs divides the big integer stored in a[0:n] (little-endian) by
// the single half-limb divisor, writing the quotient back into a and
// returning the remainder. carry is the remainder carried in from a more
// significant block (normally 0 for a standalone call).
func divOneLimbs(a []Word, n int, divisor Word, carry Word) Word {
	d := uint64(divisor)
	rem := uint64(carry)
	for i := n - 1; i >= 0; i-- {
		cur := rem<<limbBits | uint64(a[i])
		a[i] = Word(cur / d)
		rem = cur % d
	}
	return Word(rem)
}

// modOneLimbs is divOneLimbs without writing the quotient back, used when
// only the remainder is wanted.
func modOneLimbs(a []Word, n int, divisor Word, carry Word) Word {
	d := uint64(divisor)
	rem := uint64(carry)
	for i := n - 1; i >= 0; i-- {
		cur := rem<<limbBits | uint64(a[i])
		rem = cur % d
	}
	return Word(rem)
}
