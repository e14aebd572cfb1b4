// Copyright lowRISC contributors (OpenTitan project).
// Licensed under the Apache License, Version 2.0, see LICENSE for details.
// SPDX-License-Identifier: Apache-2.0

// Package sigverify implements the signature-verification capability: verify
// an already-hashed digest against a signature using key material the
// verifier owns. Callers supply only the digest, never the raw message.
package sigverify

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rsa"
	"fmt"
)

// Verifier checks a signature over a digest that the caller has already
// hashed. Implementations own their key material and are not required to be
// re-entrant.
type Verifier interface {
	Verify(digest, signature []byte) error
}

// RSAVerifier verifies PKCS#1 v1.5 signatures with a software RSA public key.
type RSAVerifier struct {
	Pub  *rsa.PublicKey
	Hash crypto.Hash
}

// NewRSAVerifier builds a software RSA PKCS#1 v1.5 verifier bound to pub.
func NewRSAVerifier(pub *rsa.PublicKey, hash crypto.Hash) *RSAVerifier {
	return &RSAVerifier{Pub: pub, Hash: hash}
}

func (v *RSAVerifier) Verify(digest, signature []byte) error {
	if v.Pub == nil {
		return fmt.Errorf("sigverify: RSAVerifier has no public key")
	}
	if err := rsa.VerifyPKCS1v15(v.Pub, v.Hash, digest, signature); err != nil {
		return fmt.Errorf("sigverify: rsa verify failed: %w", err)
	}
	return nil
}

// ECDSAVerifier verifies ASN.1 DER-encoded ECDSA signatures with a software
// public key.
type ECDSAVerifier struct {
	Pub *ecdsa.PublicKey
}

// NewECDSAVerifier builds a software ECDSA verifier bound to pub.
func NewECDSAVerifier(pub *ecdsa.PublicKey) *ECDSAVerifier {
	return &ECDSAVerifier{Pub: pub}
}

func (v *ECDSAVerifier) Verify(digest, signature []byte) error {
	if v.Pub == nil {
		return fmt.Errorf("sigverify: ECDSAVerifier has no public key")
	}
	if !ecdsa.VerifyASN1(v.Pub, digest, signature) {
		return fmt.Errorf("sigverify: ecdsa signature does not verify")
	}
	return nil
}
