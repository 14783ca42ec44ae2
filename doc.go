/*
Package rsaforge is a self-contained RSA public-key cryptography engine: a
from-scratch multi-precision integer layer (bigint), FIPS 186-4 prime
generation and key generation (prime, rsakey), PKCS#1 v1.5 padding and the
ASN.1 DER codec for PKCS#1/PKCS#8 key material (pkcs1, rsakey), a façade
tying load/save/sign/verify/encrypt/decrypt/generate together (rsaengine),
and multi-party RSA signing by private-exponent splitting (mpcrsa).

# Overview

An Engine is the entry point for ordinary single-party use:

	e := rsaengine.New()
	defer e.Close()
	if err := e.Generate(2048, prime.Most, 0, 30*time.Second); err != nil {
	    return err
	}
	sig, err := e.Sign(digest, digestinfo.SHA256)

# Multi-party signing

mpcrsa supports splitting a private exponent into k shards -- by
multiplication or addition mod φ(n) -- so that recombining a partial
signature from each shard reproduces an ordinary signature, without any
shard ever holding the whole key:

	shards, err := mpcrsa.SplitD(key, 3, mpcrsa.Addition, src)
	sig1, err := mpcrsa.SignFirst(shards[0], digest, digestinfo.SHA512, rand.Reader)
	sig2, err := mpcrsa.SignNext(shards[1], digest, digestinfo.SHA512, rand.Reader, sig1)
	sig3, err := mpcrsa.SignNext(shards[2], digest, digestinfo.SHA512, rand.Reader, sig2)

Both split schemes are equally secure; the difference is in how partial
signatures combine:
  - Multiplication can only be combined sequentially: each partial
    signature is itself raised to the next shard's exponent fragment.
  - Addition can be combined sequentially or in parallel (all parties sign
    independently and a broker multiplies the results together mod n,
    without ever touching a shard).

# Sources

	[1] https://eprint.iacr.org/2001/060.pdf
	[2] https://crypto.stanford.edu/semmail/mrsa.pdf
*/
package rsaforge
