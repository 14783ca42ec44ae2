package main

import (
	"fmt"
	"strings"

	"github.com/bastionzero/rsaforge/internal/digestinfo"
)

var hashAlgoByName = map[string]digestinfo.HashAlgo{
	"md5":        digestinfo.MD5,
	"sha1":       digestinfo.SHA1,
	"sha256":     digestinfo.SHA256,
	"sha384":     digestinfo.SHA384,
	"sha512":     digestinfo.SHA512,
	"sha512-256": digestinfo.SHA512_256,
	"sha3-256":   digestinfo.SHA3_256,
	"sha3-512":   digestinfo.SHA3_512,
}

func parseHashAlgo(name string) (digestinfo.HashAlgo, error) {
	algo, ok := hashAlgoByName[strings.ToLower(name)]
	if !ok {
		return 0, fmt.Errorf("unrecognized hash algorithm %q", name)
	}
	return algo, nil
}
