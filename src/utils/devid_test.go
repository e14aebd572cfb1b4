// Copyright lowRISC contributors (OpenTitan project).
// Licensed under the Apache License, Version 2.0, see LICENSE for details.
// SPDX-License-Identifier: Apache-2.0

package devid

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

const deviceIDHex = "0100000047425f54000000014742000000000000000790100500346400024001"

func wantID() *ID {
	return &ID{
		SiliconCreatorID: 0x4001,
		ProductID:        0x0002,
		DIN:              0x0007901005003464,
		Reserved:         0,
		SKUSpecific: []byte{
			0x00, 0x00, 0x42, 0x47, 0x01, 0x00, 0x00, 0x00,
			0x54, 0x5f, 0x42, 0x47, 0x00, 0x00, 0x00, 0x01,
		},
	}
}

func TestDevID(t *testing.T) {
	d, err := FromHex(deviceIDHex)
	if err != nil {
		t.Fatalf("FromHex() error = %v", err)
	}

	if diff := cmp.Diff(wantID(), d); diff != "" {
		t.Errorf("FromHex() mismatch (-want +got):\n%s", diff)
	}

	if h := d.Hex(); h != deviceIDHex {
		t.Errorf("Hex() = %s, want %s", h, deviceIDHex)
	}

	if got, want := Format(d), "creator:4001/product:0002/din:0007901005003464"; got != want {
		t.Errorf("Format() = %q, want %q", got, want)
	}
}

func TestDevID_RawBytesRoundTrip(t *testing.T) {
	d := wantID()
	roundTripped, err := FromRawBytes(d.RawBytes())
	if err != nil {
		t.Fatalf("FromRawBytes() error = %v", err)
	}
	if diff := cmp.Diff(d, roundTripped); diff != "" {
		t.Errorf("RawBytes() round trip mismatch (-want +got):\n%s", diff)
	}
}
