package pkcs1_test

import (
	"bytes"
	"crypto/rand"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/bastionzero/rsaforge/pkcs1"
)

func TestPkcs1(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "pkcs1 suite")
}

var _ = Describe("DoPad/DoUnPad", func() {
	const modulusLen = 256

	When("padding for signing", func() {
		It("round-trips the message through verify-mode unpadding", func() {
			msg := []byte("The quick brown fox jumps over the lazy dog")
			padded, err := pkcs1.DoPad(msg, modulusLen, true, rand.Reader)
			Expect(err).NotTo(HaveOccurred())
			Expect(padded).To(HaveLen(modulusLen))
			Expect(padded[0]).To(Equal(byte(0x00)))
			Expect(padded[1]).To(Equal(byte(0x01)))

			out, err := pkcs1.DoUnPad(padded, true)
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(Equal(msg))
		})
	})

	When("padding for encryption", func() {
		It("produces different padding each call and round-trips", func() {
			msg := []byte("hi")
			a, err := pkcs1.DoPad(msg, modulusLen, false, rand.Reader)
			Expect(err).NotTo(HaveOccurred())
			b, err := pkcs1.DoPad(msg, modulusLen, false, rand.Reader)
			Expect(err).NotTo(HaveOccurred())
			Expect(a).NotTo(Equal(b))

			out, err := pkcs1.DoUnPad(a, false)
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(Equal(msg))
		})

		It("never emits a zero padding byte", func() {
			msg := []byte("x")
			padded, err := pkcs1.DoPad(msg, modulusLen, false, rand.Reader)
			Expect(err).NotTo(HaveOccurred())
			for _, b := range padded[2 : modulusLen-len(msg)-1] {
				Expect(b).NotTo(Equal(byte(0x00)))
			}
		})
	})

	It("rejects a message too long for the modulus", func() {
		msg := bytes.Repeat([]byte{0x42}, modulusLen)
		_, err := pkcs1.DoPad(msg, modulusLen, true, rand.Reader)
		Expect(err).To(HaveOccurred())
	})

	It("rejects an unrecognized block-type byte", func() {
		buf := make([]byte, modulusLen)
		buf[0] = 0x00
		buf[1] = 0x03
		_, err := pkcs1.DoUnPad(buf, true)
		Expect(err).To(HaveOccurred())
	})

	It("rejects a verify-mode buffer with a short padding run", func() {
		buf := make([]byte, modulusLen)
		buf[0] = 0x00
		buf[1] = 0x01
		buf[2] = 0x00 // zero terminator after zero padding bytes -- too short
		_, err := pkcs1.DoUnPad(buf, true)
		Expect(err).To(HaveOccurred())
	})
})
