// Copyright lowRISC contributors (OpenTitan project).
// Licensed under the Apache License, Version 2.0, see LICENSE for details.
// SPDX-License-Identifier: Apache-2.0

package unseal

import (
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Code enumerates the unseal engine's module-local error conditions.
type Code int

const (
	CodeInvalidArgument Code = iota
	CodeUnsupportedCrypto
	CodeUnsupportedKeyLength
	CodeUnsupportedHMAC
	CodeUnknownSeed
	CodeBadSeedPadding
	CodeHMACMismatch
	CodePCRMismatch
	CodeBufferTooSmall
)

func (c Code) String() string {
	switch c {
	case CodeInvalidArgument:
		return "INVALID_ARGUMENT"
	case CodeUnsupportedCrypto:
		return "UNSUPPORTED_CRYPTO"
	case CodeUnsupportedKeyLength:
		return "UNSUPPORTED_KEY_LENGTH"
	case CodeUnsupportedHMAC:
		return "UNSUPPORTED_HMAC"
	case CodeUnknownSeed:
		return "UNKNOWN_SEED"
	case CodeBadSeedPadding:
		return "BAD_SEED_PADDING"
	case CodeHMACMismatch:
		return "HMAC_MISMATCH"
	case CodePCRMismatch:
		return "PCR_MISMATCH"
	case CodeBufferTooSmall:
		return "BUFFER_TOO_SMALL"
	default:
		return "UNKNOWN"
	}
}

func (c Code) grpcCode() codes.Code {
	switch c {
	case CodeInvalidArgument, CodeUnsupportedCrypto, CodeUnsupportedKeyLength,
		CodeUnsupportedHMAC, CodeUnknownSeed, CodeBadSeedPadding, CodeBufferTooSmall:
		return codes.InvalidArgument
	case CodeHMACMismatch, CodePCRMismatch:
		return codes.PermissionDenied
	default:
		return codes.Internal
	}
}

// Err wraps c in a grpc status error carrying msg.
func Err(c Code, msg string) error {
	return status.Errorf(c.grpcCode(), "unseal: %s: %s", c.String(), msg)
}

var (
	ErrInvalidArgument      = Err(CodeInvalidArgument, "missing or malformed request field")
	ErrUnsupportedKeyLength = Err(CodeUnsupportedKeyLength, "requested key length must be 32 bytes")
	ErrUnsupportedHMAC      = Err(CodeUnsupportedHMAC, "only HMAC-SHA256 is supported")
	ErrUnknownSeed          = Err(CodeUnknownSeed, "seed type not recognized")
	ErrBadSeedPadding       = Err(CodeBadSeedPadding, "padding selector invalid for seed type")
	ErrHMACMismatch         = Err(CodeHMACMismatch, "confirmation tag does not verify")
	ErrPCRMismatch          = Err(CodePCRMismatch, "sealing policy unsatisfied")
	ErrUnsupportedCrypto    = Err(CodeUnsupportedCrypto, "requested OAEP hash is not supported")
)
