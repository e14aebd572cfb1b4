// Copyright lowRISC contributors (OpenTitan project).
// Licensed under the Apache License, Version 2.0, see LICENSE for details.
// SPDX-License-Identifier: Apache-2.0

// Package keystore implements the external key-storage capability the
// credential manager persists the auxiliary private key through: save,
// load, and erase a key blob addressed by a fixed integer ID.
package keystore

import (
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Code enumerates the stable keystore error conditions, mirroring the
// reference firmware's keystore error enumeration.
type Code int

const (
	CodeOK Code = iota
	CodeInvalidArgument
	CodeNoMemory
	CodeSaveFailed
	CodeLoadFailed
	CodeUnsupportedID
	CodeKeyTooLong
	CodeNoKey
	CodeBadKey
	CodeEraseFailed
	CodeInsufficientStorage
)

func (c Code) String() string {
	switch c {
	case CodeOK:
		return "OK"
	case CodeInvalidArgument:
		return "INVALID_ARGUMENT"
	case CodeNoMemory:
		return "NO_MEMORY"
	case CodeSaveFailed:
		return "SAVE_FAILED"
	case CodeLoadFailed:
		return "LOAD_FAILED"
	case CodeUnsupportedID:
		return "UNSUPPORTED_ID"
	case CodeKeyTooLong:
		return "KEY_TOO_LONG"
	case CodeNoKey:
		return "NO_KEY"
	case CodeBadKey:
		return "BAD_KEY"
	case CodeEraseFailed:
		return "ERASE_FAILED"
	case CodeInsufficientStorage:
		return "INSUFFICIENT_STORAGE"
	default:
		return "UNKNOWN"
	}
}

// Err wraps a Code in a grpc status error, consistent with the rest of the
// attestation core's error-handling design.
func Err(c Code, format string, args ...interface{}) error {
	return status.Errorf(toGRPC(c), "keystore: "+c.String()+": "+format, args...)
}

func toGRPC(c Code) codes.Code {
	switch c {
	case CodeOK:
		return codes.OK
	case CodeInvalidArgument, CodeUnsupportedID, CodeKeyTooLong:
		return codes.InvalidArgument
	case CodeNoMemory, CodeInsufficientStorage:
		return codes.ResourceExhausted
	case CodeNoKey:
		return codes.NotFound
	case CodeBadKey:
		return codes.DataLoss
	default:
		return codes.Internal
	}
}

// Store persists key blobs addressed by a fixed integer ID. The credential
// manager uses exactly one ID (the auxiliary key slot); backends may support
// more.
type Store interface {
	// SaveKey stores key under id, overwriting any existing blob.
	SaveKey(id int, key []byte) error
	// LoadKey returns the blob stored under id, or CodeNoKey if none exists.
	LoadKey(id int) ([]byte, error)
	// EraseKey removes the blob stored under id. Erasing an empty slot is a
	// no-op, not an error.
	EraseKey(id int) error
}
