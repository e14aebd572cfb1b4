// Copyright lowRISC contributors (OpenTitan project).
// Licensed under the Apache License, Version 2.0, see LICENSE for details.
// SPDX-License-Identifier: Apache-2.0

package measurement

import (
	"context"
	"testing"

	mvccpb "go.etcd.io/etcd/api/v3/mvccpb"
	clientv3 "go.etcd.io/etcd/client/v3"
)

// mockTxn implements the clientv3.Txn interface; EtcdStore never calls it,
// but clientv3.KV requires a Txn method to be satisfied.
type mockTxn struct{}

func (m *mockTxn) If(cs ...clientv3.Cmp) clientv3.Txn     { return m }
func (m *mockTxn) Then(ops ...clientv3.Op) clientv3.Txn    { return m }
func (m *mockTxn) Else(ops ...clientv3.Op) clientv3.Txn    { return m }
func (m *mockTxn) Commit() (*clientv3.TxnResponse, error) { return new(clientv3.TxnResponse), nil }

// mockKV implements the clientv3.KV interface backing EtcdStore in tests, in
// place of a real etcd cluster.
type mockKV struct {
	putResponse clientv3.PutResponse
	putError    error

	getResponse clientv3.GetResponse
	getError    error
}

func (m *mockKV) addKV(key, value string) {
	m.getResponse.Kvs = append(m.getResponse.Kvs, &mvccpb.KeyValue{
		Key:   []byte(key),
		Value: []byte(value),
	})
}

func (m *mockKV) Put(ctx context.Context, key, val string, opts ...clientv3.OpOption) (*clientv3.PutResponse, error) {
	return &m.putResponse, m.putError
}

func (m *mockKV) Get(ctx context.Context, key string, opts ...clientv3.OpOption) (*clientv3.GetResponse, error) {
	return &m.getResponse, m.getError
}

func (m *mockKV) Delete(ctx context.Context, key string, opts ...clientv3.OpOption) (*clientv3.DeleteResponse, error) {
	return new(clientv3.DeleteResponse), nil
}

func (m *mockKV) Compact(ctx context.Context, rev int64, opts ...clientv3.CompactOption) (*clientv3.CompactResponse, error) {
	return new(clientv3.CompactResponse), nil
}

func (m *mockKV) Do(ctx context.Context, op clientv3.Op) (clientv3.OpResponse, error) {
	return clientv3.OpResponse{}, nil
}

func (m *mockKV) Txn(ctx context.Context) clientv3.Txn {
	return &mockTxn{}
}

func TestEtcdStore_WriteRead(t *testing.T) {
	kv := &mockKV{}
	store := NewEtcdStore(kv)

	if err := store.WritePCR(0, []byte("digest-zero")); err != nil {
		t.Fatalf("WritePCR() error = %v", err)
	}

	kv.addKV("/aux-attest/pcr/00", "digest-zero")

	got, err := store.ReadPCR(0)
	if err != nil {
		t.Fatalf("ReadPCR() error = %v", err)
	}
	if string(got) != "digest-zero" {
		t.Errorf("ReadPCR() = %q, want %q", got, "digest-zero")
	}
}

func TestEtcdStore_ReadMissingBank(t *testing.T) {
	kv := &mockKV{}
	store := NewEtcdStore(kv)

	if _, err := store.ReadPCR(3); err == nil {
		t.Error("ReadPCR(unset bank) expected error, got nil")
	}
}

func TestEtcdStore_ReadPropagatesKVError(t *testing.T) {
	kv := &mockKV{getError: context.DeadlineExceeded}
	store := NewEtcdStore(kv)

	if _, err := store.ReadPCR(0); err == nil {
		t.Error("ReadPCR() with failing KV expected error, got nil")
	}
}

// Evaluate exercises the etcd-backed Store through the same policy-evaluation
// path the unseal engine drives, confirming EtcdStore satisfies Store end to
// end rather than just its own two methods.
func TestEtcdStore_Evaluate(t *testing.T) {
	kv := &mockKV{}
	store := NewEtcdStore(kv)

	digest := make([]byte, ClauseSize)
	for i := range digest {
		digest[i] = byte(i)
	}
	kv.addKV("/aux-attest/pcr/00", string(digest))

	var clause Clause
	copy(clause[:], digest)
	policy := Policy{clause}

	if err := Evaluate(store, policy); err != nil {
		t.Errorf("Evaluate() error = %v, want nil", err)
	}
}
