// Copyright lowRISC contributors (OpenTitan project).
// Licensed under the Apache License, Version 2.0, see LICENSE for details.
// SPDX-License-Identifier: Apache-2.0

package decrypt

import (
	"bytes"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/sha256"
	"testing"

	"github.com/lowRISC/aux-attestation-core/src/credential"
	"github.com/lowRISC/aux-attestation-core/src/keystore"
)

func TestFacade_DecryptOAEP(t *testing.T) {
	m := credential.NewManager(keystore.NewFake())
	if err := m.GenerateKey(); err != nil {
		t.Fatalf("GenerateKey() error = %v", err)
	}
	priv, err := m.PrivateKey()
	if err != nil {
		t.Fatalf("PrivateKey() error = %v", err)
	}

	plaintext := []byte("transport secret")
	ciphertext, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, &priv.PublicKey, plaintext, nil)
	if err != nil {
		t.Fatalf("EncryptOAEP() error = %v", err)
	}

	f := New(m)
	got, err := f.Decrypt(ciphertext, PaddingOAEP)
	if err != nil {
		t.Fatalf("Decrypt() error = %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Errorf("Decrypt() = %q, want %q", got, plaintext)
	}
}

func TestFacade_DecryptOAEPSHA1(t *testing.T) {
	m := credential.NewManager(keystore.NewFake())
	if err := m.GenerateKey(); err != nil {
		t.Fatalf("GenerateKey() error = %v", err)
	}
	priv, err := m.PrivateKey()
	if err != nil {
		t.Fatalf("PrivateKey() error = %v", err)
	}

	plaintext := []byte("legacy verifier secret")
	label := []byte("aux-attest")
	ciphertext, err := rsa.EncryptOAEP(sha1.New(), rand.Reader, &priv.PublicKey, plaintext, label)
	if err != nil {
		t.Fatalf("EncryptOAEP(sha1) error = %v", err)
	}

	f := New(m)
	got, err := f.Decrypt(ciphertext, PaddingOAEP, OAEPParams{Hash: crypto.SHA1, Label: label})
	if err != nil {
		t.Fatalf("Decrypt() error = %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Errorf("Decrypt() = %q, want %q", got, plaintext)
	}
}

func TestFacade_DecryptPKCS1v15(t *testing.T) {
	m := credential.NewManager(keystore.NewFake())
	if err := m.GenerateKey(); err != nil {
		t.Fatalf("GenerateKey() error = %v", err)
	}
	priv, err := m.PrivateKey()
	if err != nil {
		t.Fatalf("PrivateKey() error = %v", err)
	}

	plaintext := []byte("legacy transport secret")
	ciphertext, err := rsa.EncryptPKCS1v15(rand.Reader, &priv.PublicKey, plaintext)
	if err != nil {
		t.Fatalf("EncryptPKCS1v15() error = %v", err)
	}

	f := New(m)
	got, err := f.Decrypt(ciphertext, PaddingPKCS1v15)
	if err != nil {
		t.Fatalf("Decrypt() error = %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Errorf("Decrypt() = %q, want %q", got, plaintext)
	}
}
