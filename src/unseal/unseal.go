// Copyright lowRISC contributors (OpenTitan project).
// Licensed under the Apache License, Version 2.0, see LICENSE for details.
// SPDX-License-Identifier: Apache-2.0

// Package unseal implements the unseal engine: the protocol that binds
// release of a derived key pair to possession of the device's attestation
// private key and to the device's current measurement state matching a
// verifier-supplied sealing policy.
package unseal

import (
	"crypto"
	"crypto/ecdh"
	"crypto/hmac"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/subtle"
	"fmt"

	"github.com/lowRISC/aux-attestation-core/src/credential"
	"github.com/lowRISC/aux-attestation-core/src/kdf"
	"github.com/lowRISC/aux-attestation-core/src/measurement"
	"github.com/lowRISC/aux-attestation-core/src/utils"
)

// SeedType selects how the seed field is interpreted during decapsulation.
type SeedType int

const (
	SeedRSA SeedType = iota
	SeedECDH
)

// Padding selects the RSA decryption padding used for SeedRSA.
type Padding int

const (
	PaddingOAEP Padding = iota
	PaddingPKCS1v15
)

// HMACAlgorithm enumerates the confirmation-tag HMAC, kept as a type even
// though only one value is wired today (mirrors the reference firmware's
// enum-of-one pattern so a future algorithm is a type change, not a
// protocol change).
type HMACAlgorithm int

const (
	HMACSHA256 HMACAlgorithm = iota
)

// RequestedKeyLen is the only key length the protocol currently issues.
const RequestedKeyLen = 32

// Decrypter performs the caller-owned AES decryption step (protocol step 6).
// The unseal engine never links an AES implementation of its own.
type Decrypter func(encryptionKey, ciphertext []byte) (plaintext []byte, err error)

// Request bundles one unseal call's inputs.
type Request struct {
	Seed          []byte
	SeedType      SeedType
	Padding       Padding
	// OAEPHash selects the MGF1/digest hash for PaddingOAEP decapsulation.
	// The zero value defaults to SHA-256; SHA-1 is accepted for
	// interoperability with verifiers that still emit OAEP-SHA1 seeds.
	// Ignored for PaddingPKCS1v15.
	OAEPHash      crypto.Hash
	HMACAlg       HMACAlgorithm
	HMACTag       []byte
	Ciphertext    []byte
	SealingPolicy measurement.Policy
	RequestedLen  int
}

// oaepHash resolves a Request's OAEPHash selector to a concrete hash
// function, defaulting to SHA-256 and rejecting anything but SHA-1/SHA-256.
func oaepHash(h crypto.Hash) (crypto.Hash, error) {
	switch h {
	case 0, crypto.SHA256:
		return crypto.SHA256, nil
	case crypto.SHA1:
		return crypto.SHA1, nil
	default:
		return 0, ErrUnsupportedCrypto
	}
}

// DerivedKeys holds the two keys split from the key-derivation key. Zeroize
// must be called on every exit path once the caller is done with them.
type DerivedKeys struct {
	SigningKey    []byte
	EncryptionKey []byte
}

// Zeroize overwrites both keys with zero bytes.
func (d *DerivedKeys) Zeroize() {
	if d == nil {
		return
	}
	utils.Zeroize(d.SigningKey)
	utils.Zeroize(d.EncryptionKey)
}

// Engine runs the unseal protocol against a credential manager (for seed
// decapsulation) and a measurement store (for policy evaluation).
type Engine struct {
	Credential *credential.Manager
	ECDHKey    *ecdh.PrivateKey
	Store      measurement.Store
	Decrypt    Decrypter
}

// Unseal runs the full six-step protocol and returns the caller-decrypted
// plaintext. On any failure, all derived key material generated so far is
// zeroized before the error is returned.
func (e *Engine) Unseal(req Request) (plaintext []byte, err error) {
	if err := checkArgs(req); err != nil {
		return nil, err
	}

	kdk, zeroizeSeed, err := e.decapsulate(req)
	if err != nil {
		return nil, err
	}
	defer zeroizeSeed()

	keys, err := deriveKeys(kdk)
	if err != nil {
		return nil, err
	}
	defer keys.Zeroize()

	if err := verifyHMAC(keys.SigningKey, req.SealingPolicy.Bytes(), req.Ciphertext, req.HMACTag); err != nil {
		return nil, err
	}

	if err := measurement.Evaluate(e.Store, req.SealingPolicy); err != nil {
		return nil, ErrPCRMismatch
	}

	plaintext, err = e.Decrypt(keys.EncryptionKey, req.Ciphertext)
	if err != nil {
		return nil, fmt.Errorf("unseal: payload decryption failed: %w", err)
	}
	return plaintext, nil
}

func checkArgs(req Request) error {
	if req.RequestedLen != RequestedKeyLen {
		return ErrUnsupportedKeyLength
	}
	if req.HMACAlg != HMACSHA256 {
		return ErrUnsupportedHMAC
	}
	if len(req.Seed) == 0 || len(req.HMACTag) == 0 {
		return ErrInvalidArgument
	}
	switch req.SeedType {
	case SeedRSA, SeedECDH:
	default:
		return ErrUnknownSeed
	}
	if req.SeedType == SeedECDH && req.Padding == PaddingPKCS1v15 {
		return ErrBadSeedPadding
	}
	if req.SeedType == SeedRSA && req.Padding == PaddingOAEP {
		if _, err := oaepHash(req.OAEPHash); err != nil {
			return err
		}
	}
	return nil
}

// decapsulate recovers the key-derivation key from the seed, returning a
// function that zeroizes it once the caller is done.
func (e *Engine) decapsulate(req Request) (kdk []byte, zeroize func(), err error) {
	switch req.SeedType {
	case SeedRSA:
		priv, err := e.Credential.PrivateKey()
		if err != nil {
			return nil, func() {}, fmt.Errorf("unseal: load private key: %w", err)
		}
		var out []byte
		switch req.Padding {
		case PaddingOAEP:
			h, hashErr := oaepHash(req.OAEPHash)
			if hashErr != nil {
				return nil, func() {}, hashErr
			}
			if h == crypto.SHA1 {
				out, err = rsa.DecryptOAEP(sha1.New(), nil, priv, req.Seed, nil)
			} else {
				out, err = rsa.DecryptOAEP(sha256.New(), nil, priv, req.Seed, nil)
			}
		case PaddingPKCS1v15:
			out, err = rsa.DecryptPKCS1v15(nil, priv, req.Seed)
		default:
			return nil, func() {}, ErrBadSeedPadding
		}
		if err != nil {
			return nil, func() {}, fmt.Errorf("%w: %v", ErrBadSeedPadding, err)
		}
		return out, func() { utils.Zeroize(out) }, nil

	case SeedECDH:
		if e.ECDHKey == nil {
			return nil, func() {}, fmt.Errorf("unseal: no ECDH key configured")
		}
		peer, err := e.ECDHKey.Curve().NewPublicKey(req.Seed)
		if err != nil {
			return nil, func() {}, fmt.Errorf("unseal: invalid ECDH peer key: %w", err)
		}
		z, err := e.ECDHKey.ECDH(peer)
		if err != nil {
			return nil, func() {}, fmt.Errorf("unseal: ECDH exchange failed: %w", err)
		}
		return z, func() { utils.Zeroize(z) }, nil

	default:
		return nil, func() {}, ErrUnknownSeed
	}
}

func deriveKeys(kdk []byte) (*DerivedKeys, error) {
	signingKey := make([]byte, 32)
	if err := kdf.Counter(crypto.SHA256, kdk, []byte("signing key"), nil, signingKey); err != nil {
		return nil, fmt.Errorf("unseal: derive signing key: %w", err)
	}
	encryptionKey := make([]byte, 32)
	if err := kdf.Counter(crypto.SHA256, kdk, []byte("encryption key"), nil, encryptionKey); err != nil {
		utils.Zeroize(signingKey)
		return nil, fmt.Errorf("unseal: derive encryption key: %w", err)
	}
	return &DerivedKeys{SigningKey: signingKey, EncryptionKey: encryptionKey}, nil
}

// verifyHMAC must run before any policy evaluation: this ordering prevents
// an attacker from learning which sealing-policy clause mismatched via
// timing. A tag mismatch is reported as HMAC_MISMATCH; a policy failure that
// follows a valid tag is reported as a single PCR_MISMATCH that never names
// the failing clause.
func verifyHMAC(signingKey, policyBytes, ciphertext, tag []byte) error {
	mac := hmac.New(sha256.New, signingKey)
	mac.Write(policyBytes)
	mac.Write(ciphertext)
	computed := mac.Sum(nil)

	if subtle.ConstantTimeCompare(computed, tag) != 1 {
		return ErrHMACMismatch
	}
	return nil
}
