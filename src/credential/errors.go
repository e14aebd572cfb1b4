// Copyright lowRISC contributors (OpenTitan project).
// Licensed under the Apache License, Version 2.0, see LICENSE for details.
// SPDX-License-Identifier: Apache-2.0

package credential

import (
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Code enumerates the credential manager's module-local error conditions.
type Code int

const (
	CodeInvalidArgument Code = iota
	CodeHasCertificate
	CodeNoCertificate
)

func (c Code) String() string {
	switch c {
	case CodeInvalidArgument:
		return "INVALID_ARGUMENT"
	case CodeHasCertificate:
		return "HAS_CERTIFICATE"
	case CodeNoCertificate:
		return "NO_CERTIFICATE"
	default:
		return "UNKNOWN"
	}
}

func (c Code) grpcCode() codes.Code {
	switch c {
	case CodeInvalidArgument:
		return codes.InvalidArgument
	case CodeHasCertificate:
		return codes.FailedPrecondition
	default:
		return codes.Internal
	}
}

// Err wraps c in a grpc status error carrying msg.
func Err(c Code, msg string) error {
	return status.Errorf(c.grpcCode(), "credential: %s: %s", c.String(), msg)
}

// ErrHasCertificate is returned by any mutator that would replace an
// already-installed certificate.
var ErrHasCertificate = Err(CodeHasCertificate, "a certificate is already installed")
