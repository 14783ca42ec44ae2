package prime_test

import (
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/bastionzero/rsaforge/bigint"
	"github.com/bastionzero/rsaforge/internal/entropy"
	"github.com/bastionzero/rsaforge/prime"
)

func TestPrime(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "prime suite")
}

var _ = Describe("MatchesKnownPrime", func() {
	var arena *bigint.Arena

	BeforeEach(func() {
		arena = bigint.NewArena()
	})

	It("flags small composites via trial division", func() {
		v := arena.AllocateFrom(91) // 7 * 13
		Expect(prime.MatchesKnownPrime(v, prime.Fast)).To(BeTrue())
		arena.Release(v)
	})

	It("does not flag a large prime under the Fast bound", func() {
		// 2^61 - 1, a Mersenne prime well above the Fast sieve's bound.
		v, err := arena.AllocateFromHex("1FFFFFFFFFFFFFFF")
		Expect(err).NotTo(HaveOccurred())
		Expect(prime.MatchesKnownPrime(v, prime.Fast)).To(BeFalse())
		arena.Release(v)
	})
})

var _ = Describe("IsPrime", func() {
	var arena *bigint.Arena

	BeforeEach(func() {
		arena = bigint.NewArena()
	})

	It("accepts a known prime", func() {
		v := arena.AllocateFrom(7919)
		Expect(prime.IsPrime(v, prime.All, prime.MinIterations(16, 0), entropy.NewDefault().CSPRNG())).To(BeTrue())
		arena.Release(v)
	})

	DescribeTable("accepts a prime at or under its own coverage's sieve bound",
		func(n bigint.Word, coverage prime.Coverage) {
			v := arena.AllocateFrom(n)
			Expect(prime.IsPrime(v, coverage, prime.MinIterations(16, 0), entropy.NewDefault().CSPRNG())).To(BeTrue())
			arena.Release(v)
		},
		Entry("2 (Fast)", bigint.Word(2), prime.Fast),
		Entry("53, the Fast bound, under Fast", bigint.Word(53), prime.Fast),
		Entry("53, the Fast bound, under Most", bigint.Word(53), prime.Most),
		Entry("1999, the Most bound, under Most", bigint.Word(1999), prime.Most),
		Entry("1999, the Most bound, under All", bigint.Word(1999), prime.All),
		Entry("17989, the All bound, under All", bigint.Word(17989), prime.All),
	)

	DescribeTable("rejects classic Fermat-pseudoprime composites",
		func(n bigint.Word) {
			v := arena.AllocateFrom(n)
			Expect(prime.IsPrime(v, prime.All, prime.MinIterations(16, 0), entropy.NewDefault().CSPRNG())).To(BeFalse())
			arena.Release(v)
		},
		Entry("561 (Carmichael)", bigint.Word(561)),
		Entry("1729 (Carmichael)", bigint.Word(1729)),
	)
})

var _ = Describe("FillPrime", func() {
	It("produces a probable prime of the requested bit length within a generous deadline", func() {
		arena := bigint.NewArena()
		defer arena.Close()

		deadline := time.Now().Add(5 * time.Second)
		v, ok := prime.FillPrime(arena, 64, prime.Most, 0, deadline, entropy.NewDefault())
		Expect(ok).To(BeTrue())
		Expect(prime.IsPrime(v, prime.All, prime.MinIterations(64, 0), entropy.NewDefault().CSPRNG())).To(BeTrue())
		Expect(v.BitCount()).To(BeNumerically("<=", 64))
		arena.Release(v)
	})
})
