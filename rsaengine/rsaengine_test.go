package rsaengine_test

import (
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/bastionzero/rsaforge/internal/digestinfo"
	"github.com/bastionzero/rsaforge/prime"
	"github.com/bastionzero/rsaforge/rsaengine"
)

func TestRsaengine(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "rsaengine suite")
}

var _ = Describe("load/save round-trips", func() {
	It("saves and reloads its own generated public key as DER and PEM", func() {
		e := rsaengine.New()
		defer e.Close()
		Expect(e.Generate(512, prime.Fast, 0, 20*time.Second)).To(Succeed())

		pubDER, err := e.SavePublicDER()
		Expect(err).NotTo(HaveOccurred())

		reloaded := rsaengine.New()
		defer reloaded.Close()
		Expect(reloaded.LoadPublicDER(pubDER)).To(Succeed())

		rec, err := reloaded.SavePublicRecord()
		Expect(err).NotTo(HaveOccurred())
		wantRec, err := e.SavePublicRecord()
		Expect(err).NotTo(HaveOccurred())
		Expect(rec).To(Equal(wantRec))

		pubPEM, err := e.SavePublicPEM()
		Expect(err).NotTo(HaveOccurred())
		fromPEM := rsaengine.New()
		defer fromPEM.Close()
		Expect(fromPEM.LoadPublicPEM(pubPEM)).To(Succeed())
		pemRec, err := fromPEM.SavePublicRecord()
		Expect(err).NotTo(HaveOccurred())
		Expect(pemRec).To(Equal(wantRec))
	})
})

var _ = Describe("sign/verify", func() {
	It("round-trips a digest through Sign and Verify", func() {
		e := rsaengine.New()
		defer e.Close()
		Expect(e.Generate(512, prime.Fast, 0, 20*time.Second)).To(Succeed())

		digest := make([]byte, 32)
		for i := range digest {
			digest[i] = byte(i)
		}

		sig, err := e.Sign(digest, digestinfo.SHA256)
		Expect(err).NotTo(HaveOccurred())

		oid, recovered, err := e.Verify(sig)
		Expect(err).NotTo(HaveOccurred())
		wantOID, _ := digestinfo.OID(digestinfo.SHA256)
		Expect(oid).To(Equal(wantOID))
		Expect(recovered).To(Equal(digest))
	})

	It("rejects a signature from a different key", func() {
		signer := rsaengine.New()
		defer signer.Close()
		Expect(signer.Generate(512, prime.Fast, 0, 20*time.Second)).To(Succeed())

		other := rsaengine.New()
		defer other.Close()
		Expect(other.Generate(512, prime.Fast, 0, 20*time.Second)).To(Succeed())

		digest := make([]byte, 32)
		sig, err := signer.Sign(digest, digestinfo.SHA256)
		Expect(err).NotTo(HaveOccurred())

		otherPub, err := other.SavePublicRecord()
		Expect(err).NotTo(HaveOccurred())
		verifier := rsaengine.New()
		defer verifier.Close()
		Expect(verifier.LoadPublicRecord(otherPub)).To(Succeed())

		_, _, err = verifier.Verify(sig)
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("encrypt/decrypt", func() {
	It("round-trips a short message through BufferEncryptSign and BufferDecryptVerify", func() {
		e := rsaengine.New()
		defer e.Close()
		Expect(e.Generate(512, prime.Fast, 0, 20*time.Second)).To(Succeed())

		msg := []byte("a short plaintext message")
		ciphertext, err := e.BufferEncryptSign(msg, false)
		Expect(err).NotTo(HaveOccurred())

		recovered, err := e.BufferDecryptVerify(ciphertext, false)
		Expect(err).NotTo(HaveOccurred())
		Expect(recovered).To(Equal(msg))
	})

	It("rejects ciphertext of the wrong length", func() {
		e := rsaengine.New()
		defer e.Close()
		Expect(e.Generate(512, prime.Fast, 0, 20*time.Second)).To(Succeed())

		_, err := e.BufferDecryptVerify([]byte{1, 2, 3}, false)
		Expect(err).To(HaveOccurred())
	})

	It("rejects a ciphertext whose padding was corrupted", func() {
		e := rsaengine.New()
		defer e.Close()
		Expect(e.Generate(512, prime.Fast, 0, 20*time.Second)).To(Succeed())

		msg := []byte("another message")
		ciphertext, err := e.BufferEncryptSign(msg, false)
		Expect(err).NotTo(HaveOccurred())

		rec, err := e.SavePrivateRecord()
		Expect(err).NotTo(HaveOccurred())

		attacker := rsaengine.New()
		defer attacker.Close()
		Expect(attacker.LoadPrivateRecord(rec)).To(Succeed())

		corrupted := make([]byte, len(ciphertext))
		copy(corrupted, ciphertext)
		corrupted[len(corrupted)-1] ^= 0xFF
		_, err = attacker.BufferDecryptVerify(corrupted, false)
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("CheckPrivateKey", func() {
	It("accepts a freshly generated key", func() {
		e := rsaengine.New()
		defer e.Close()
		Expect(e.Generate(512, prime.Fast, 0, 20*time.Second)).To(Succeed())
		Expect(e.CheckPrivateKey()).To(BeTrue())
	})

	It("rejects a key whose dP field was tampered with", func() {
		e := rsaengine.New()
		defer e.Close()
		Expect(e.Generate(512, prime.Fast, 0, 20*time.Second)).To(Succeed())

		rec, err := e.SavePrivateRecord()
		Expect(err).NotTo(HaveOccurred())
		rec.Exponent1[len(rec.Exponent1)-1] ^= 0x01

		tampered := rsaengine.New()
		defer tampered.Close()
		Expect(tampered.LoadPrivateRecord(rec)).To(Succeed())
		Expect(tampered.CheckPrivateKey()).To(BeFalse())
	})

	It("rejects a public-only key", func() {
		e := rsaengine.New()
		defer e.Close()
		Expect(e.Generate(512, prime.Fast, 0, 20*time.Second)).To(Succeed())

		rec, err := e.SavePublicRecord()
		Expect(err).NotTo(HaveOccurred())

		pubOnly := rsaengine.New()
		defer pubOnly.Close()
		Expect(pubOnly.LoadPublicRecord(rec)).To(Succeed())
		Expect(pubOnly.CheckPrivateKey()).To(BeFalse())
	})
})
