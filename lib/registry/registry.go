// Copyright 2026 The Wsmgr Authors
// SPDX-License-Identifier: Apache-2.0

// Package registry holds the shared workspace/register table.
//
// The table maps workspace names to their settings and registers
// (0-255) to workspace names. Registers are bindings to names, not to
// workspace entries: binding a register to a not-yet-created workspace
// is legal, and deleting a workspace leaves any registers pointing at
// its name bound (dangling). Workspace names are case-sensitive and
// never empty.
//
// A single Registry is shared by every client connection. One
// sync.RWMutex guards it: reads proceed concurrently, mutations take
// the write lock for the duration of a map operation. Snapshot
// encoding runs inside the read lock via [Registry.View] so the live
// maps are serialized in one pass without an intermediate copy.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Domain errors, reported verbatim to the issuing client. The
// connection stays open; the client decides whether to retry.
var (
	// ErrNameInUse is returned by Create for a duplicate name.
	ErrNameInUse = errors.New("name already in use")
	// ErrUnboundRegister is returned by Resolve for a register with
	// no current binding.
	ErrUnboundRegister = errors.New("register not bound")
	// ErrUnknownWorkspace is returned by Delete and by name-filtered
	// views when no workspace has the given name.
	ErrUnknownWorkspace = errors.New("no such workspace")
)

// Settings is the per-workspace settings record. It is empty today;
// per-workspace options (default monitor, persistence flags) land
// here without touching the table structure.
type Settings struct{}

// Registry is the process-wide workspace/register table.
type Registry struct {
	mu         sync.RWMutex
	workspaces map[string]Settings
	registers  map[uint8]string
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{
		workspaces: make(map[string]Settings),
		registers:  make(map[uint8]string),
	}
}

// Create registers a workspace with empty settings. Duplicate names
// fail with ErrNameInUse.
func (r *Registry) Create(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.workspaces[name]; exists {
		return fmt.Errorf("workspace %q: %w", name, ErrNameInUse)
	}
	r.workspaces[name] = Settings{}
	return nil
}

// Delete removes a workspace entry. Registers bound to the name stay
// bound; they become dangling and still appear in register listings.
func (r *Registry) Delete(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.workspaces[name]; !exists {
		return fmt.Errorf("workspace %q: %w", name, ErrUnknownWorkspace)
	}
	delete(r.workspaces, name)
	return nil
}

// Bind points a register at a workspace name, replacing any previous
// binding. The workspace does not have to exist; Bind never fails.
func (r *Registry) Bind(name string, register uint8) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.registers[register] = name
}

// Unbind removes a register's binding. Unbinding an already-unbound
// register is a no-op.
func (r *Registry) Unbind(register uint8) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.registers, register)
}

// Resolve returns the workspace name a register is bound to.
func (r *Registry) Resolve(register uint8) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	name, bound := r.registers[register]
	if !bound {
		return "", fmt.Errorf("register %d: %w", register, ErrUnboundRegister)
	}
	return name, nil
}

// Filter selects which slice of the table a View covers.
type Filter struct {
	kind     filterKind
	name     string
	register uint8
}

type filterKind int

const (
	filterAll filterKind = iota
	filterName
	filterRegister
)

// All selects every workspace and every register.
func All() Filter {
	return Filter{kind: filterAll}
}

// ByName selects one workspace and the registers bound to its name.
func ByName(name string) Filter {
	return Filter{kind: filterName, name: name}
}

// ByRegister selects one register and, if present, the workspace
// entry for the name it is bound to.
func ByRegister(register uint8) Filter {
	return Filter{kind: filterRegister, register: register}
}

// View calls fn with a snapshot of the table restricted to the
// filter, while holding the read lock. The snapshot's iterators walk
// the live maps; they are valid only until fn returns and must each
// be consumed at most once.
//
// A name filter fails with ErrUnknownWorkspace when the workspace
// does not exist. A register filter fails with ErrUnboundRegister
// when the register is unbound; a bound register whose target
// workspace was never created (or was deleted) yields the register
// entry and an empty workspace set.
func (r *Registry) View(filter Filter, fn func(Snapshot) error) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	switch filter.kind {
	case filterName:
		settings, exists := r.workspaces[filter.name]
		if !exists {
			return fmt.Errorf("workspace %q: %w", filter.name, ErrUnknownWorkspace)
		}
		return fn(Snapshot{
			Workspaces: singleWorkspace(filter.name, settings),
			Registers:  r.registersBoundTo(filter.name),
		})

	case filterRegister:
		name, bound := r.registers[filter.register]
		if !bound {
			return fmt.Errorf("register %d: %w", filter.register, ErrUnboundRegister)
		}
		workspaces := noWorkspaces()
		if settings, exists := r.workspaces[name]; exists {
			workspaces = singleWorkspace(name, settings)
		}
		return fn(Snapshot{
			Workspaces: workspaces,
			Registers:  singleRegister(filter.register, name),
		})

	default:
		return fn(Snapshot{
			Workspaces: r.allWorkspaces(),
			Registers:  r.allRegisters(),
		})
	}
}

func (r *Registry) allWorkspaces() *WorkspaceSeq {
	return newWorkspaceSeq(func(yield func(string, Settings) error) error {
		for name, settings := range r.workspaces {
			if err := yield(name, settings); err != nil {
				return err
			}
		}
		return nil
	})
}

// allRegisters yields every binding in ascending register order.
func (r *Registry) allRegisters() *RegisterSeq {
	return newRegisterSeq(func(yield func(uint8, string) error) error {
		for _, register := range r.sortedRegisters() {
			if err := yield(register, r.registers[register]); err != nil {
				return err
			}
		}
		return nil
	})
}

// registersBoundTo yields the registers pointing at name, ascending.
func (r *Registry) registersBoundTo(name string) *RegisterSeq {
	return newRegisterSeq(func(yield func(uint8, string) error) error {
		for _, register := range r.sortedRegisters() {
			if r.registers[register] != name {
				continue
			}
			if err := yield(register, name); err != nil {
				return err
			}
		}
		return nil
	})
}

// sortedRegisters returns the currently bound registers in ascending
// order. At most 256 entries, so sorting under the read lock is cheap.
func (r *Registry) sortedRegisters() []uint8 {
	registers := make([]uint8, 0, len(r.registers))
	for register := range r.registers {
		registers = append(registers, register)
	}
	sort.Slice(registers, func(i, j int) bool { return registers[i] < registers[j] })
	return registers
}

func singleWorkspace(name string, settings Settings) *WorkspaceSeq {
	return newWorkspaceSeq(func(yield func(string, Settings) error) error {
		return yield(name, settings)
	})
}

func noWorkspaces() *WorkspaceSeq {
	return newWorkspaceSeq(func(func(string, Settings) error) error {
		return nil
	})
}

func singleRegister(register uint8, name string) *RegisterSeq {
	return newRegisterSeq(func(yield func(uint8, string) error) error {
		return yield(register, name)
	})
}
