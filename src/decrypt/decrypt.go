// Copyright lowRISC contributors (OpenTitan project).
// Licensed under the Apache License, Version 2.0, see LICENSE for details.
// SPDX-License-Identifier: Apache-2.0

// Package decrypt implements the decrypt facade: a thin wrapper over the
// credential manager's stored private key used outside the unseal protocol
// to directly decrypt a verifier-encrypted blob (e.g. transport secrets
// wrapped to the device's public attestation key).
package decrypt

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/sha256"
	"fmt"
	"hash"

	"github.com/lowRISC/aux-attestation-core/src/credential"
)

// Padding selects the RSA decryption padding.
type Padding int

const (
	PaddingOAEP Padding = iota
	PaddingPKCS1v15
)

// OAEPParams carries the optional OAEP label and hash selector. The zero
// value selects SHA-256 with no label, matching the unseal engine's default.
type OAEPParams struct {
	Hash  crypto.Hash
	Label []byte
}

func (p OAEPParams) hashFunc() (func() hash.Hash, error) {
	switch p.Hash {
	case 0, crypto.SHA256:
		return sha256.New, nil
	case crypto.SHA1:
		return sha1.New, nil
	default:
		return nil, fmt.Errorf("decrypt: unsupported OAEP hash %v", p.Hash)
	}
}

// Facade decrypts ciphertext addressed to a credential manager's private
// key.
type Facade struct {
	Credential *credential.Manager
}

// New creates a decrypt facade backed by m.
func New(m *credential.Manager) *Facade {
	return &Facade{Credential: m}
}

// Decrypt decrypts ciphertext under the managed private key using padding.
// oaep is only consulted for PaddingOAEP; passing none selects SHA-256 with
// no label.
func (f *Facade) Decrypt(ciphertext []byte, padding Padding, oaep ...OAEPParams) ([]byte, error) {
	priv, err := f.Credential.PrivateKey()
	if err != nil {
		return nil, fmt.Errorf("decrypt: load private key: %w", err)
	}

	switch padding {
	case PaddingOAEP:
		var params OAEPParams
		if len(oaep) > 0 {
			params = oaep[0]
		}
		newHash, err := params.hashFunc()
		if err != nil {
			return nil, err
		}
		plaintext, err := rsa.DecryptOAEP(newHash(), rand.Reader, priv, ciphertext, params.Label)
		if err != nil {
			return nil, fmt.Errorf("decrypt: oaep decrypt: %w", err)
		}
		return plaintext, nil
	case PaddingPKCS1v15:
		plaintext, err := rsa.DecryptPKCS1v15(rand.Reader, priv, ciphertext)
		if err != nil {
			return nil, fmt.Errorf("decrypt: pkcs1v15 decrypt: %w", err)
		}
		return plaintext, nil
	default:
		return nil, fmt.Errorf("decrypt: unsupported padding %d", padding)
	}
}
