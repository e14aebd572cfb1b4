// Copyright lowRISC contributors (OpenTitan project).
// Licensed under the Apache License, Version 2.0, see LICENSE for details.
// SPDX-License-Identifier: Apache-2.0

package measurement

import (
	"crypto/sha256"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParsePolicy_RoundTrip(t *testing.T) {
	digest := sha256.Sum256([]byte("bootloader v1"))
	var clause Clause
	copy(clause[:], digest[:])

	policy := Policy{clause, Clause{}}
	wire := policy.Bytes()

	if len(wire) != 2*ClauseSize {
		t.Fatalf("Bytes() length = %d, want %d", len(wire), 2*ClauseSize)
	}

	got, err := ParsePolicy(wire)
	if err != nil {
		t.Fatalf("ParsePolicy() error = %v", err)
	}
	if diff := cmp.Diff(policy, got); diff != "" {
		t.Errorf("ParsePolicy() mismatch (-want +got):\n%s", diff)
	}
}

func TestParsePolicy_BadLength(t *testing.T) {
	if _, err := ParsePolicy(make([]byte, ClauseSize+1)); err == nil {
		t.Error("ParsePolicy() with misaligned length expected error, got nil")
	}
}

func TestParsePolicy_TooManyClauses(t *testing.T) {
	if _, err := ParsePolicy(make([]byte, (MaxClauses+1)*ClauseSize)); err == nil {
		t.Error("ParsePolicy() with too many clauses expected error, got nil")
	}
}

func TestEvaluate_WildcardAlwaysSatisfied(t *testing.T) {
	store := NewFake(nil)
	policy := Policy{Clause{}}
	if err := Evaluate(store, policy); err != nil {
		t.Errorf("Evaluate(wildcard) error = %v, want nil", err)
	}
}

func TestEvaluate_EmptyPolicyTriviallySucceeds(t *testing.T) {
	store := NewFake(nil)
	if err := Evaluate(store, nil); err != nil {
		t.Errorf("Evaluate(empty policy) error = %v, want nil", err)
	}
}

func TestEvaluate_Match(t *testing.T) {
	digest := sha256.Sum256([]byte("bootloader v1"))
	var clause Clause
	copy(clause[:], digest[:])

	store := NewFake(map[int][]byte{0: digest[:]})
	if err := Evaluate(store, Policy{clause}); err != nil {
		t.Errorf("Evaluate(match) error = %v, want nil", err)
	}
}

func TestEvaluate_Mismatch(t *testing.T) {
	digest := sha256.Sum256([]byte("bootloader v1"))
	altered := sha256.Sum256([]byte("bootloader v2"))
	var clause Clause
	copy(clause[:], digest[:])

	store := NewFake(map[int][]byte{0: altered[:]})
	if err := Evaluate(store, Policy{clause}); err == nil {
		t.Error("Evaluate(mismatch) expected error, got nil")
	}
}
