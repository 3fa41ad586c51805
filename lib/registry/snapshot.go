// Copyright 2026 The Wsmgr Authors
// SPDX-License-Identifier: Apache-2.0

package registry

import "errors"

// ErrConsumed is returned when a snapshot sequence is walked a second
// time. The sequences iterate the live table under the registry's
// read lock, so a second pass could observe different state than the
// first; failing loudly beats serializing a torn snapshot.
var ErrConsumed = errors.New("snapshot sequence already consumed")

// Snapshot is a filtered, single-pass view of the table handed to
// [Registry.View] callbacks. Both sequences are valid only inside the
// callback.
type Snapshot struct {
	Workspaces *WorkspaceSeq
	Registers  *RegisterSeq
}

// WorkspaceSeq is a single-use sequence of workspace entries.
type WorkspaceSeq struct {
	each     func(yield func(string, Settings) error) error
	consumed bool
}

func newWorkspaceSeq(each func(yield func(string, Settings) error) error) *WorkspaceSeq {
	return &WorkspaceSeq{each: each}
}

// Each walks the sequence exactly once, stopping at the first error
// from yield and propagating it. A second call fails with ErrConsumed.
func (s *WorkspaceSeq) Each(yield func(name string, settings Settings) error) error {
	if s.consumed {
		return ErrConsumed
	}
	s.consumed = true
	return s.each(yield)
}

// RegisterSeq is a single-use sequence of register bindings, yielded
// in ascending register order.
type RegisterSeq struct {
	each     func(yield func(uint8, string) error) error
	consumed bool
}

func newRegisterSeq(each func(yield func(uint8, string) error) error) *RegisterSeq {
	return &RegisterSeq{each: each}
}

// Each walks the sequence exactly once, stopping at the first error
// from yield and propagating it. A second call fails with ErrConsumed.
func (s *RegisterSeq) Each(yield func(register uint8, name string) error) error {
	if s.consumed {
		return ErrConsumed
	}
	s.consumed = true
	return s.each(yield)
}
