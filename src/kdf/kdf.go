// Copyright lowRISC contributors (OpenTitan project).
// Licensed under the Apache License, Version 2.0, see LICENSE for details.
// SPDX-License-Identifier: Apache-2.0

// Package kdf implements the NIST SP 800-108 counter-mode key derivation
// function used by the unseal engine to split a key-derivation key into a
// signing key and an encryption key.
package kdf

import (
	"crypto"
	"crypto/hmac"
	"encoding/binary"
	"fmt"
	"hash"

	// Both HMAC-SHA1 and HMAC-SHA256 must be linked in: SHA-256 is the
	// mandatory unseal-path algorithm, SHA-1 exists only to reproduce the
	// CAVP counter-mode test vectors.
	_ "crypto/sha1"
	_ "crypto/sha256"
)

// Counter derives L = len(out) bytes from ki using the NIST SP 800-108
// counter-mode construction over HMAC-alg:
//
//	block_i = HMAC(ki, BE32(i) || label || 0x00 || context || BE32(L_bits))
//
// blocks are concatenated and truncated to len(out). alg must be a hash
// registered with the crypto package (crypto.SHA1 or crypto.SHA256). i
// begins at 1; out must be non-empty.
func Counter(alg crypto.Hash, ki, label, context, out []byte) error {
	if len(out) == 0 {
		return fmt.Errorf("kdf: requested output length must be non-zero")
	}
	if !alg.Available() {
		return fmt.Errorf("kdf: hash algorithm %v is not available", alg)
	}

	h := hmac.New(alg.New, ki)

	lBits := make([]byte, 4)
	binary.BigEndian.PutUint32(lBits, uint32(len(out))*8)

	n := (len(out) + h.Size() - 1) / h.Size()
	derived := make([]byte, 0, n*h.Size())

	for i := 1; i <= n; i++ {
		block, err := block(h, uint32(i), label, context, lBits)
		if err != nil {
			return fmt.Errorf("kdf: block %d: %w", i, err)
		}
		derived = append(derived, block...)
	}

	copy(out, derived[:len(out)])
	return nil
}

// block computes one HMAC iteration of the counter-mode construction,
// cancelling (resetting) h before returning so a caller that reuses the
// instance never sees state left over from a failed sub-step.
func block(h hash.Hash, counter uint32, label, context, lBits []byte) ([]byte, error) {
	h.Reset()

	ctr := make([]byte, 4)
	binary.BigEndian.PutUint32(ctr, counter)

	for _, part := range [][]byte{ctr, label, {0x00}, context, lBits} {
		if _, err := h.Write(part); err != nil {
			h.Reset()
			return nil, err
		}
	}

	return h.Sum(nil), nil
}
