// Copyright 2026 The Wsmgr Authors
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"bytes"
	"fmt"

	"github.com/hyprshell/wsmgr/lib/codec"
	"github.com/hyprshell/wsmgr/lib/registry"
)

// Response is the structured-shape reply to one request.
type Response struct {
	// OK reports whether the request succeeded.
	OK bool `cbor:"ok"`

	// Error carries the failure text when OK is false.
	Error string `cbor:"error,omitempty"`

	// Workspaces and Registers carry the read snapshot. Not
	// omitempty: their marshalers walk a single-use sequence, and the
	// encoded-value emptiness check must not add a second walk. A nil
	// pointer encodes as null.
	Workspaces *WorkspaceMap `cbor:"workspaces"`
	Registers  *RegisterMap  `cbor:"registers"`

	// Reply carries the compositor's response bytes from a flush.
	Reply string `cbor:"reply,omitempty"`
}

// ErrorResponse wraps an error's display text in a Response.
func ErrorResponse(err error) Response {
	return Response{Error: err.Error()}
}

// SnapshotResponse wraps a registry snapshot in a Response. The
// snapshot is serialized when the response is encoded, which must
// happen while the registry view is still live (inside the View
// callback).
func SnapshotResponse(snap registry.Snapshot) Response {
	return Response{
		OK:         true,
		Workspaces: &WorkspaceMap{seq: snap.Workspaces},
		Registers:  &RegisterMap{seq: snap.Registers},
	}
}

// WorkspaceMap is the name → settings mapping of a read response. On
// the encoding side it wraps a live registry sequence and serializes
// it in a single pass straight into the wire format: no intermediate
// copy of the table is built, and encoding the same response twice
// fails with [registry.ErrConsumed]. On the decoding side Entries
// holds the received mapping.
type WorkspaceMap struct {
	seq     *registry.WorkspaceSeq
	Entries map[string]registry.Settings
}

// MarshalCBOR serializes the wrapped sequence (or, for a re-encoded
// decoded value, the Entries map).
func (m *WorkspaceMap) MarshalCBOR() ([]byte, error) {
	if m.seq == nil {
		return codec.Marshal(m.Entries)
	}
	var body bytes.Buffer
	count := 0
	err := m.seq.Each(func(name string, settings registry.Settings) error {
		if err := appendEntry(&body, name, settings); err != nil {
			return err
		}
		count++
		return nil
	})
	if err != nil {
		return nil, err
	}
	return prependMapHeader(count, body.Bytes()), nil
}

// UnmarshalCBOR decodes a received mapping into Entries.
func (m *WorkspaceMap) UnmarshalCBOR(data []byte) error {
	return codec.Unmarshal(data, &m.Entries)
}

// RegisterMap is the register → workspace-name mapping of a read
// response, serialized in ascending register order. Same single-use
// contract as [WorkspaceMap].
type RegisterMap struct {
	seq     *registry.RegisterSeq
	Entries map[uint8]string
}

// MarshalCBOR serializes the wrapped sequence (or, for a re-encoded
// decoded value, the Entries map).
func (m *RegisterMap) MarshalCBOR() ([]byte, error) {
	if m.seq == nil {
		return codec.Marshal(m.Entries)
	}
	var body bytes.Buffer
	count := 0
	err := m.seq.Each(func(register uint8, name string) error {
		if err := appendEntry(&body, register, name); err != nil {
			return err
		}
		count++
		return nil
	})
	if err != nil {
		return nil, err
	}
	return prependMapHeader(count, body.Bytes()), nil
}

// UnmarshalCBOR decodes a received mapping into Entries.
func (m *RegisterMap) UnmarshalCBOR(data []byte) error {
	return codec.Unmarshal(data, &m.Entries)
}

// appendEntry writes one encoded key/value pair to body.
func appendEntry(body *bytes.Buffer, key, value any) error {
	encodedKey, err := codec.Marshal(key)
	if err != nil {
		return fmt.Errorf("encoding snapshot key: %w", err)
	}
	encodedValue, err := codec.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding snapshot value: %w", err)
	}
	body.Write(encodedKey)
	body.Write(encodedValue)
	return nil
}

// prependMapHeader wraps already-encoded map entries in a
// definite-length CBOR map header (major type 5, RFC 8949 §3.1).
func prependMapHeader(count int, body []byte) []byte {
	const majorMap = 0xa0
	var header []byte
	switch {
	case count < 24:
		header = []byte{majorMap | byte(count)}
	case count < 1<<8:
		header = []byte{0xb8, byte(count)}
	case count < 1<<16:
		header = []byte{0xb9, byte(count >> 8), byte(count)}
	default:
		header = []byte{0xba, byte(count >> 24), byte(count >> 16), byte(count >> 8), byte(count)}
	}
	return append(header, body...)
}
