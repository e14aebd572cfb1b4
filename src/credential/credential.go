// Copyright lowRISC contributors (OpenTitan project).
// Licensed under the Apache License, Version 2.0, see LICENSE for details.
// SPDX-License-Identifier: Apache-2.0

// Package credential implements the credential manager: the lifecycle of
// the auxiliary private key and its certificate (generate, certify, install,
// fetch, erase), serialized against concurrent mutation with a read-write
// lock, grounded on the same SKU-initialization locking pattern the
// reference appliance uses to arbitrate concurrent provisioning sessions.
package credential

import (
	"crypto/ecdh"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"fmt"
	"sync"

	"github.com/lowRISC/aux-attestation-core/src/cert/signer"
	"github.com/lowRISC/aux-attestation-core/src/cert/templates/auxcred"
	"github.com/lowRISC/aux-attestation-core/src/keystore"
	"github.com/lowRISC/aux-attestation-core/src/utils/devid"
)

// auxKeyID is the fixed keystore slot the auxiliary private key is always
// persisted under; the credential manager never multiplexes more than one
// credential.
const auxKeyID = 0

// DefaultRSAKeyBits is the reference key size for GenerateKey.
const DefaultRSAKeyBits = 2048

// certState tags which of the three certificate states (see Cert) is
// currently installed.
type certState int

const (
	certNone certState = iota
	certOwned
	certStatic
)

// Cert is the tagged union of a credential manager's certificate slot:
// no certificate, an owned DER blob (this package's to free/replace), or a
// static DER blob borrowed from caller-owned, read-only memory.
type Cert struct {
	state certState
	der   []byte
}

// None reports whether no certificate is installed.
func (c Cert) None() bool { return c.state == certNone }

// DER returns the certificate's DER bytes, or nil if none is installed.
// The returned slice must not be modified: for a static certificate it is a
// borrow of caller-owned memory.
func (c Cert) DER() []byte { return c.der }

// DeviceIdentity binds a credential to the device's RIoT identity: the raw
// device ID (used to derive a subject CommonName) and the ECDH key used in
// the ECDH seed-decapsulation path. RIoT's own key derivation is out of
// scope here; this struct is populated by whatever component owns that
// derivation and handed to the credential manager.
type DeviceIdentity struct {
	RawID     []byte
	SubjectCN string
	ECDHKey   *ecdh.PrivateKey
}

// NewDeviceIdentity builds a DeviceIdentity from a raw 32-byte device ID,
// formatting SubjectCN with the same field layout the reference firmware's
// device-ID encoding uses.
func NewDeviceIdentity(rawID []byte, key *ecdh.PrivateKey) (*DeviceIdentity, error) {
	id, err := devid.FromRawBytes(rawID)
	if err != nil {
		return nil, fmt.Errorf("credential: invalid device id: %w", err)
	}
	return &DeviceIdentity{
		RawID:     append([]byte(nil), rawID...),
		SubjectCN: devid.Format(id),
		ECDHKey:   key,
	}, nil
}

// Manager is the credential manager: it owns the auxiliary private key
// (via a keystore.Store) and at most one certificate.
type Manager struct {
	mu    sync.RWMutex
	store keystore.Store

	hasKey bool
	cert   Cert
}

// NewManager creates a credential manager backed by store.
func NewManager(store keystore.Store) *Manager {
	return &Manager{store: store}
}

// GenerateKey generates a fresh RSA private key and persists it under the
// auxiliary key slot. Rejected with HAS_CERTIFICATE if a certificate is
// already installed; otherwise idempotent — regenerating overwrites any
// previously stored key.
func (m *Manager) GenerateKey() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.cert.None() {
		return ErrHasCertificate
	}

	priv, err := rsa.GenerateKey(rand.Reader, DefaultRSAKeyBits)
	if err != nil {
		return fmt.Errorf("credential: generate key: %w", err)
	}
	der := x509.MarshalPKCS1PrivateKey(priv)
	if err := m.store.SaveKey(auxKeyID, der); err != nil {
		return fmt.Errorf("credential: persist key: %w", err)
	}
	m.hasKey = true
	return nil
}

// CreateCertificate loads the persisted private key, builds a leaf
// certificate whose subject carries identity's device ID, signs it with
// caPriv under caCert, and installs the result as an owned certificate.
func (m *Manager) CreateCertificate(caCert *x509.Certificate, caPriv any, identity *DeviceIdentity, serial []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.cert.None() {
		return ErrHasCertificate
	}

	keyDER, err := m.store.LoadKey(auxKeyID)
	if err != nil {
		return fmt.Errorf("credential: load key: %w", err)
	}
	priv, err := x509.ParsePKCS1PrivateKey(keyDER)
	if err != nil {
		return fmt.Errorf("credential: parse stored key: %w", err)
	}

	params := &signer.Params{
		SerialNumber: serial,
		Subject:      pkix.Name{CommonName: identity.SubjectCN},
		Issuer:       caCert.Subject,
		NotBefore:    caCert.NotBefore,
		NotAfter:     caCert.NotAfter,
		KeyUsage:     x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
	}

	template, err := auxcred.New().Build(params)
	if err != nil {
		return fmt.Errorf("credential: build template: %w", err)
	}

	der, err := signer.CreateCertificate(template, caCert, &priv.PublicKey, caPriv)
	if err != nil {
		return fmt.Errorf("credential: sign certificate: %w", err)
	}

	m.cert = Cert{state: certOwned, der: der}
	return nil
}

// SetCertificate installs an externally produced DER certificate, taking
// ownership of der.
func (m *Manager) SetCertificate(der []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.cert.None() {
		return ErrHasCertificate
	}
	m.cert = Cert{state: certOwned, der: der}
	return nil
}

// SetStaticCertificate installs an externally produced DER certificate
// borrowed from caller-owned, read-only memory. The credential manager
// never modifies or frees der.
func (m *Manager) SetStaticCertificate(der []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.cert.None() {
		return ErrHasCertificate
	}
	m.cert = Cert{state: certStatic, der: der}
	return nil
}

// GetCertificate returns the currently installed certificate, or Cert{} with
// None() true if none is installed.
func (m *Manager) GetCertificate() Cert {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cert
}

// EraseKey erases the keystore slot and clears any installed certificate
// (owned or static). Safe to call when nothing is installed.
func (m *Manager) EraseKey() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.EraseKey(auxKeyID); err != nil {
		return fmt.Errorf("credential: erase key: %w", err)
	}
	m.hasKey = false
	m.cert = Cert{}
	return nil
}

// HasKey reports whether a private key is currently persisted.
func (m *Manager) HasKey() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.hasKey
}

// PrivateKey loads and parses the persisted auxiliary private key, for use
// by the decrypt facade. Callers must treat the returned key as sensitive
// and must not retain it beyond the decrypt operation.
func (m *Manager) PrivateKey() (*rsa.PrivateKey, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keyDER, err := m.store.LoadKey(auxKeyID)
	if err != nil {
		return nil, fmt.Errorf("credential: load key: %w", err)
	}
	return x509.ParsePKCS1PrivateKey(keyDER)
}
