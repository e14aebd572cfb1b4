// Copyright lowRISC contributors (OpenTitan project).
// Licensed under the Apache License, Version 2.0, see LICENSE for details.
// SPDX-License-Identifier: Apache-2.0

// Package devid formats the binary device-ID layout used to name credential
// subjects. It is a plain-struct stand-in for the teacher's protobuf-backed
// DeviceId message: no protoc is available in this environment, so the
// silicon-creator/product/DIN/reserved/SKU fields are represented directly
// rather than generated.
package devid

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
)

// DeviceIDField marks the byte offsets of one field within the 32-byte raw
// device-ID encoding.
type DeviceIDField struct {
	start int
	end   int
}

var (
	FieldHWOriginSICreatorID = DeviceIDField{0, 2}
	FieldHWOriginProductID   = DeviceIDField{2, 4}
	FieldDIN                 = DeviceIDField{4, 12}
	FieldReserved1           = DeviceIDField{12, 16}
	FieldSKUSpecific         = DeviceIDField{16, 32}
)

// ID is the decoded form of a 32-byte device identifier: a hardware origin
// (silicon creator, product, device identification number, reserved word)
// plus a SKU-specific tail, used to name credential subjects.
type ID struct {
	SiliconCreatorID uint16
	ProductID        uint16
	DIN              uint64
	Reserved         uint32
	SKUSpecific      []byte
}

// FromRawBytes decodes a little-endian 32-byte device ID.
func FromRawBytes(raw []byte) (*ID, error) {
	if len(raw) < 32 {
		return nil, fmt.Errorf("raw bytes length is less than 32")
	}

	return &ID{
		SiliconCreatorID: binary.LittleEndian.Uint16(raw[FieldHWOriginSICreatorID.start:FieldHWOriginSICreatorID.end]),
		ProductID:        binary.LittleEndian.Uint16(raw[FieldHWOriginProductID.start:FieldHWOriginProductID.end]),
		DIN:              binary.LittleEndian.Uint64(raw[FieldDIN.start:FieldDIN.end]),
		Reserved:         binary.LittleEndian.Uint32(raw[FieldReserved1.start:FieldReserved1.end]),
		SKUSpecific:      append([]byte(nil), raw[FieldSKUSpecific.start:FieldSKUSpecific.end]...),
	}, nil
}

// reverse reverses a byte slice in place.
func reverse(b []byte) {
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
}

// FromHex decodes a big-endian hex string (64 characters) into an ID.
func FromHex(h string) (*ID, error) {
	raw, err := hex.DecodeString(h)
	if err != nil {
		return nil, fmt.Errorf("error decoding hex string: %v", err)
	}
	reverse(raw)
	return FromRawBytes(raw)
}

// RawBytes encodes an ID back to its little-endian 32-byte form.
func (d *ID) RawBytes() []byte {
	raw := make([]byte, 32)
	binary.LittleEndian.PutUint16(raw[FieldHWOriginSICreatorID.start:FieldHWOriginSICreatorID.end], d.SiliconCreatorID)
	binary.LittleEndian.PutUint16(raw[FieldHWOriginProductID.start:FieldHWOriginProductID.end], d.ProductID)
	binary.LittleEndian.PutUint64(raw[FieldDIN.start:FieldDIN.end], d.DIN)
	binary.LittleEndian.PutUint32(raw[FieldReserved1.start:FieldReserved1.end], d.Reserved)
	copy(raw[FieldSKUSpecific.start:FieldSKUSpecific.end], d.SKUSpecific)
	return raw
}

// Hex encodes an ID to its big-endian hex string form.
func (d *ID) Hex() string {
	raw := d.RawBytes()
	reverse(raw)
	return hex.EncodeToString(raw)
}

// Format renders the ID as a human-readable certificate-subject string, e.g.
// "creator:0001/product:0002/din:0000000000001234".
func Format(d *ID) string {
	return fmt.Sprintf("creator:%04x/product:%04x/din:%016x", d.SiliconCreatorID, d.ProductID, d.DIN)
}
