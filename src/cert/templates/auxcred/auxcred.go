// Copyright lowRISC contributors (OpenTitan project).
// Licensed under the Apache License, Version 2.0, see LICENSE for details.
// SPDX-License-Identifier: Apache-2.0

// Package auxcred implements the certificate template for an auxiliary
// attestation credential: a non-CA leaf certificate binding a device
// identity to the public half of a credential key.
package auxcred

import (
	"crypto/x509"
	"math/big"

	"github.com/lowRISC/aux-attestation-core/src/cert/signer"
)

type builder struct{}

// New creates a new instance of the auxiliary-credential template builder.
func New() signer.Template {
	return new(builder)
}

// Build creates the auxiliary-credential certificate template. Unlike a CA
// certificate, it is never IsCA and carries no path-length constraint.
func (b *builder) Build(p *signer.Params) (*x509.Certificate, error) {
	serialNumber := new(big.Int).SetBytes(p.SerialNumber)

	return &x509.Certificate{
		SerialNumber:          serialNumber,
		NotBefore:             p.NotBefore,
		NotAfter:              p.NotAfter,
		Subject:               p.Subject,
		Issuer:                p.Issuer,
		UnknownExtKeyUsage:    p.ExtKeyUsage,
		BasicConstraintsValid: true,
		IsCA:                  false,
		KeyUsage:              p.KeyUsage,
		IssuingCertificateURL: p.IssuingCertificateURL,
		ExtraExtensions:       p.Extension,
	}, nil
}
