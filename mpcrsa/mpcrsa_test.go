package mpcrsa_test

import (
	"crypto/rand"
	"fmt"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/bastionzero/rsaforge/bigint"
	"github.com/bastionzero/rsaforge/internal/digestinfo"
	"github.com/bastionzero/rsaforge/internal/entropy"
	"github.com/bastionzero/rsaforge/mpcrsa"
	"github.com/bastionzero/rsaforge/prime"
	"github.com/bastionzero/rsaforge/rsakey"
	"github.com/bastionzero/rsaforge/rsaengine"
)

func TestMPCRSA(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "mpcrsa Suite")
}

// shardCombine folds a slice of shards through SignFirst/SignNext in order,
// mirroring how independent parties would relay a partial signature.
func shardCombine(shards []*mpcrsa.Shard, digest []byte, algo digestinfo.HashAlgo) ([]byte, error) {
	sig, err := mpcrsa.SignFirst(shards[0], digest, algo, rand.Reader)
	if err != nil {
		return nil, err
	}
	for _, s := range shards[1:] {
		sig, err = mpcrsa.SignNext(s, digest, algo, rand.Reader, sig)
		if err != nil {
			return nil, err
		}
	}
	return sig, nil
}

var _ = Describe("mpcrsa", func() {
	var (
		arena *bigint.Arena
		key   *rsakey.Key
		src   entropy.Source
	)

	BeforeEach(func() {
		src = entropy.NewDefault()
		arena = bigint.NewArena()
		var err error
		key, err = rsakey.Generate(arena, 512, prime.Fast, 5, 10*time.Second, src)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		key.Wipe()
		Expect(arena.Close()).To(Succeed())
	})

	for _, shardCount := range []int{2, 3, 5} {
		shardCount := shardCount

		for _, splitBy := range []mpcrsa.SplitBy{mpcrsa.Multiplication, mpcrsa.Addition} {
			splitBy := splitBy
			label := "multiplicative"
			if splitBy == mpcrsa.Addition {
				label = "additive"
			}

			It(fmt.Sprintf("signs via %d %s shards and verifies under the original public key", shardCount, label), func() {
				shards, err := mpcrsa.SplitD(key, shardCount, splitBy, src)
				Expect(err).NotTo(HaveOccurred())
				for _, s := range shards {
					defer s.Close()
				}

				digest := make([]byte, 64)
				_, err = rand.Read(digest)
				Expect(err).NotTo(HaveOccurred())

				sig, err := shardCombine(shards, digest, digestinfo.SHA512)
				Expect(err).NotTo(HaveOccurred())

				verifier := rsaengine.New()
				defer verifier.Close()
				Expect(verifier.LoadPublicDER(mustPublicDER(key))).To(Succeed())

				oid, recoveredDigest, err := verifier.Verify(sig)
				Expect(err).NotTo(HaveOccurred())
				wantOID, _ := digestinfo.OID(digestinfo.SHA512)
				Expect(oid).To(Equal(wantOID))
				Expect(recoveredDigest).To(Equal(digest))
			})
		}
	}

	It("round-trips a shard through PEM", func() {
		shards, err := mpcrsa.SplitD(key, 3, mpcrsa.Addition, src)
		Expect(err).NotTo(HaveOccurred())
		defer func() {
			for _, s := range shards {
				s.Close()
			}
		}()

		text, err := shards[0].EncodePEM()
		Expect(err).NotTo(HaveOccurred())

		reloaded, err := mpcrsa.DecodeShardPEM(text)
		Expect(err).NotTo(HaveOccurred())
		defer reloaded.Close()

		digest := make([]byte, 32)
		_, err = rand.Read(digest)
		Expect(err).NotTo(HaveOccurred())

		sigA, err := mpcrsa.SignFirst(shards[0], digest, digestinfo.SHA256, rand.Reader)
		Expect(err).NotTo(HaveOccurred())
		sigB, err := mpcrsa.SignFirst(reloaded, digest, digestinfo.SHA256, rand.Reader)
		Expect(err).NotTo(HaveOccurred())
		Expect(sigA).To(Equal(sigB))
	})
})

func mustPublicDER(key *rsakey.Key) []byte {
	der, err := rsakey.EncodePublicKeyDER(key.M, key.E)
	if err != nil {
		panic(err)
	}
	return der
}
