// Copyright lowRISC contributors (OpenTitan project).
// Licensed under the Apache License, Version 2.0, see LICENSE for details.
// SPDX-License-Identifier: Apache-2.0

package measurement

import (
	"context"
	"fmt"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"
)

const pcrKeyTemplate = "/aux-attest/pcr/%02d"

// EtcdStore is the reference measurement-store backend: PCR bank digests
// held in etcd, adapted from the proxy buffer's etcd connector.
type EtcdStore struct {
	kv      clientv3.KV
	timeout time.Duration
}

// NewEtcdStore wraps an initialized etcd clientv3 KV handle.
func NewEtcdStore(kv clientv3.KV) *EtcdStore {
	return &EtcdStore{kv: kv, timeout: 5 * time.Second}
}

// WritePCR records the current digest of a PCR bank. Measurement extension
// is the responsibility of the device's measurement agent, not this
// package; WritePCR exists for the reference backend and for tests to seed
// bank state.
func (e *EtcdStore) WritePCR(bank int, digest []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
	defer cancel()

	key := fmt.Sprintf(pcrKeyTemplate, bank)
	if _, err := e.kv.Put(ctx, key, string(digest)); err != nil {
		return fmt.Errorf("measurement: failed to write PCR bank %d: %v", bank, err)
	}
	return nil
}

func (e *EtcdStore) ReadPCR(bank int) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
	defer cancel()

	key := fmt.Sprintf(pcrKeyTemplate, bank)
	res, err := e.kv.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("measurement: failed to read PCR bank %d: %v", bank, err)
	}
	if len(res.Kvs) == 0 {
		return nil, fmt.Errorf("measurement: no value recorded for PCR bank %d", bank)
	}
	return res.Kvs[0].Value, nil
}
