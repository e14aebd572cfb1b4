// Copyright lowRISC contributors (OpenTitan project).
// Licensed under the Apache License, Version 2.0, see LICENSE for details.
// SPDX-License-Identifier: Apache-2.0

package sigverify

import (
	"errors"
	"fmt"

	"github.com/miekg/pkcs11"
)

// sessionQueue is a thread-safe HSM session pool that reuses a fixed number
// of open PKCS#11 sessions across concurrent callers.
type sessionQueue struct {
	numSessions int
	s           chan pkcs11.SessionHandle
}

func newSessionQueue(num int) *sessionQueue {
	return &sessionQueue{
		numSessions: num,
		s:           make(chan pkcs11.SessionHandle, num),
	}
}

func (q *sessionQueue) insert(s pkcs11.SessionHandle) error {
	if len(q.s) >= q.numSessions {
		return errors.New("sigverify: reached maximum session queue capacity")
	}
	q.s <- s
	return nil
}

// getHandle returns a session from the queue and a release function that
// must be called to return it. Recommended use:
//
//	session, release := q.getHandle()
//	defer release()
func (q *sessionQueue) getHandle() (pkcs11.SessionHandle, func()) {
	s := <-q.s
	return s, func() { q.insert(s) }
}

// PKCS11Config configures a PKCS11Verifier.
type PKCS11Config struct {
	// SOPath is the path to the PKCS#11 shared library used to reach the HSM.
	SOPath string
	// SlotID is the HSM slot holding the public key object.
	SlotID int
	// KeyLabel is the CKA_LABEL of the public key object to verify with.
	KeyLabel string
	// Mechanism is the PKCS#11 verification mechanism, e.g. pkcs11.CKM_SHA256_RSA_PKCS.
	Mechanism uint
	// NumSessions configures the number of sessions opened on SlotID.
	NumSessions int
}

// PKCS11Verifier verifies digests against a public key object held by an
// HSM, reached over PKCS#11. It holds no key material of its own; the HSM
// owns it.
type PKCS11Verifier struct {
	ctx       *pkcs11.Ctx
	mechanism uint
	keyHandle pkcs11.ObjectHandle
	sessions  *sessionQueue
}

// NewPKCS11Verifier opens cfg.NumSessions sessions on the configured slot and
// locates the public key object named by cfg.KeyLabel.
func NewPKCS11Verifier(cfg PKCS11Config) (*PKCS11Verifier, error) {
	ctx := pkcs11.New(cfg.SOPath)
	if ctx == nil {
		return nil, fmt.Errorf("sigverify: failed to load PKCS#11 module %q", cfg.SOPath)
	}
	if err := ctx.Initialize(); err != nil {
		return nil, fmt.Errorf("sigverify: initialize PKCS#11 module: %w", err)
	}

	numSessions := cfg.NumSessions
	if numSessions <= 0 {
		numSessions = 1
	}

	queue := newSessionQueue(numSessions)
	var keyHandle pkcs11.ObjectHandle
	for i := 0; i < numSessions; i++ {
		session, err := ctx.OpenSession(uint(cfg.SlotID), pkcs11.CKF_SERIAL_SESSION)
		if err != nil {
			return nil, fmt.Errorf("sigverify: open session %d: %w", i, err)
		}
		if i == 0 {
			handle, err := findPublicKey(ctx, session, cfg.KeyLabel)
			if err != nil {
				return nil, err
			}
			keyHandle = handle
		}
		if err := queue.insert(session); err != nil {
			return nil, err
		}
	}

	return &PKCS11Verifier{
		ctx:       ctx,
		mechanism: cfg.Mechanism,
		keyHandle: keyHandle,
		sessions:  queue,
	}, nil
}

func findPublicKey(ctx *pkcs11.Ctx, session pkcs11.SessionHandle, label string) (pkcs11.ObjectHandle, error) {
	template := []*pkcs11.Attribute{
		pkcs11.NewAttribute(pkcs11.CKA_LABEL, label),
		pkcs11.NewAttribute(pkcs11.CKA_CLASS, pkcs11.CKO_PUBLIC_KEY),
	}
	if err := ctx.FindObjectsInit(session, template); err != nil {
		return 0, fmt.Errorf("sigverify: find objects init: %w", err)
	}
	defer ctx.FindObjectsFinal(session)

	objs, _, err := ctx.FindObjects(session, 1)
	if err != nil {
		return 0, fmt.Errorf("sigverify: find objects: %w", err)
	}
	if len(objs) == 0 {
		return 0, fmt.Errorf("sigverify: no public key object labeled %q", label)
	}
	return objs[0], nil
}

// Verify verifies signature over digest using the HSM-held public key.
func (v *PKCS11Verifier) Verify(digest, signature []byte) error {
	session, release := v.sessions.getHandle()
	defer release()

	mech := []*pkcs11.Mechanism{pkcs11.NewMechanism(v.mechanism, nil)}
	if err := v.ctx.VerifyInit(session, mech, v.keyHandle); err != nil {
		return fmt.Errorf("sigverify: verify init: %w", err)
	}
	if err := v.ctx.Verify(session, digest, signature); err != nil {
		return fmt.Errorf("sigverify: hsm verify failed: %w", err)
	}
	return nil
}

// Close releases every session in the pool and finalizes the PKCS#11 module.
func (v *PKCS11Verifier) Close() error {
	for i := 0; i < v.sessions.numSessions; i++ {
		session, release := v.sessions.getHandle()
		release()
		if err := v.ctx.CloseSession(session); err != nil {
			return fmt.Errorf("sigverify: close session: %w", err)
		}
	}
	v.ctx.Finalize()
	v.ctx.Destroy()
	return nil
}
