package rsakey_test

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/bastionzero/rsaforge/bigint"
	"github.com/bastionzero/rsaforge/internal/entropy"
	"github.com/bastionzero/rsaforge/prime"
	"github.com/bastionzero/rsaforge/rsakey"
)

// keyFields is the byte-level shape of a Key's eight PKCS#1 integer fields, used to
// diff a decoded key against the one that produced it.
type keyFields struct {
	M, E, D, P, Q, DP, DQ, QInv []byte
}

func fieldsOf(k *rsakey.Key) keyFields {
	f := keyFields{M: k.M.Bytes(), E: k.E.Bytes()}
	if k.IsPrivate() {
		f.D = k.D.Bytes()
		f.P = k.P.Bytes()
		f.Q = k.Q.Bytes()
		f.DP = k.DP.Bytes()
		f.DQ = k.DQ.Bytes()
		f.QInv = k.QInv.Bytes()
	}
	return f
}

func TestRsakey(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "rsakey suite")
}

var _ = Describe("Generate", func() {
	It("rejects an unsupported bit length", func() {
		arena := bigint.NewArena()
		defer arena.Close()
		_, err := rsakey.Generate(arena, 999, prime.Fast, 0, time.Second, entropy.NewDefault())
		Expect(err).To(HaveOccurred())
	})

	It("produces a key satisfying the FIPS 186-4 shape invariants", func() {
		arena := bigint.NewArena()
		defer func() {
			if k := lastKey; k != nil {
				k.Wipe()
			}
			arena.Close()
		}()

		k, err := rsakey.Generate(arena, 512, prime.Fast, 0, 20*time.Second, entropy.NewDefault())
		Expect(err).NotTo(HaveOccurred())
		lastKey = k

		Expect(k.ModulusBits == 512 || k.ModulusBits == 511).To(BeTrue())
		Expect(k.P.Compare(k.Q)).To(BeNumerically(">", 0))

		diff := k.P.Clone()
		diff, _ = diff.Sub(k.Q.Copy())
		Expect(diff.BitCount()).To(BeNumerically(">", 256-100))
		arena.Release(diff)

		Expect(k.P.IntMod(2)).To(Equal(bigint.Word(1)))
		Expect(k.Q.IntMod(2)).To(Equal(bigint.Word(1)))
		Expect(k.P.IntMod(65537)).NotTo(Equal(bigint.Word(1)))
		Expect(k.Q.IntMod(65537)).NotTo(Equal(bigint.Word(1)))
	})
})

// lastKey lets the deferred cleanup in the It block above wipe whatever key
// the test produced, including on assertion failure.
var lastKey *rsakey.Key

var _ = Describe("DER codec", func() {
	It("round-trips a public key through the wrapped and bare forms", func() {
		arena := bigint.NewArena()
		defer arena.Close()

		m, err := arena.AllocateFromHex("C0958FFF0000000000000000000000000000000000000000000000000000FF")
		Expect(err).NotTo(HaveOccurred())
		e := arena.AllocateFrom(65537)

		der, err := rsakey.EncodePublicKeyDER(m, e)
		Expect(err).NotTo(HaveOccurred())

		gotM, gotE, err := rsakey.DecodePublicKeyDER(der, arena)
		Expect(err).NotTo(HaveOccurred())
		Expect(gotM.Compare(m)).To(Equal(0))
		Expect(gotE.Compare(e)).To(Equal(0))

		bare, err := rsakey.EncodeBarePublicKeyDER(m, e)
		Expect(err).NotTo(HaveOccurred())
		bareM, bareE, err := rsakey.DecodePublicKeyDER(bare, arena)
		Expect(err).NotTo(HaveOccurred())
		Expect(bareM.Compare(m)).To(Equal(0))
		Expect(bareE.Compare(e)).To(Equal(0))

		arena.Release(m)
		arena.Release(e)
		arena.Release(gotM)
		arena.Release(gotE)
		arena.Release(bareM)
		arena.Release(bareE)
	})

	It("round-trips a private key's eight PKCS#1 integer fields through DER", func() {
		arena := bigint.NewArena()
		defer func() {
			if k := lastKey; k != nil {
				k.Wipe()
			}
			arena.Close()
		}()

		k, err := rsakey.Generate(arena, 512, prime.Fast, 0, 20*time.Second, entropy.NewDefault())
		Expect(err).NotTo(HaveOccurred())
		lastKey = k
		want := fieldsOf(k)

		der, err := rsakey.EncodePrivateKeyDER(k)
		Expect(err).NotTo(HaveOccurred())

		loadArena := bigint.NewArena()
		defer loadArena.Close()
		got, err := rsakey.DecodePrivateKeyDER(der, loadArena)
		Expect(err).NotTo(HaveOccurred())

		if diff := cmp.Diff(want, fieldsOf(got)); diff != "" {
			Fail("decoded private key differs from the original (-want +got):\n" + diff)
		}

		loadArena.Release(got.M)
		loadArena.Release(got.E)
		loadArena.Release(got.D)
		loadArena.Release(got.P)
		loadArena.Release(got.Q)
		loadArena.Release(got.DP)
		loadArena.Release(got.DQ)
		loadArena.Release(got.QInv)
	})
})
