// Copyright 2026 The Wsmgr Authors
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"fmt"
	"strconv"

	"github.com/hyprshell/wsmgr/lib/codec"
	"github.com/hyprshell/wsmgr/lib/signature"
)

// Operation names, shared by both wire shapes.
const (
	OpCreate = "create"
	OpBind   = "bind"
	OpUnbind = "unbind"
	OpGoto   = "goto"
	OpMoveto = "moveto"
	OpRead   = "read"
	OpDelete = "delete"
	OpFlush  = "flush"
)

// Request is one decoded client request. The canonical definition
// lives here so the server and the one-shot client share one set of
// wire types.
type Request struct {
	// Op is the operation name (one of the Op constants).
	Op string `cbor:"op"`

	// Name is the workspace name for create, bind, and delete.
	Name string `cbor:"name,omitempty"`

	// Register is the register for bind, unbind, goto, and moveto.
	Register uint8 `cbor:"register,omitempty"`

	// Filter is the optional read filter; nil reads everything. Not
	// omitempty: a by-register filter for register 0 encodes as the
	// bare value 0, which the empty-value check would drop.
	Filter *Filter `cbor:"filter"`
}

// Filter is a read filter: either a workspace name or a register. On
// the CBOR wire it is encoded as the bare value: a text string means
// by-name, an unsigned integer means by-register.
type Filter struct {
	ByRegister bool
	Name       string
	Register   uint8
}

// MarshalCBOR encodes the filter as its bare value.
func (f Filter) MarshalCBOR() ([]byte, error) {
	if f.ByRegister {
		return codec.Marshal(f.Register)
	}
	return codec.Marshal(f.Name)
}

// UnmarshalCBOR decodes a bare value, classifying it by its encoded
// type. Unsigned integers above 255 are rejected, not truncated.
func (f *Filter) UnmarshalCBOR(data []byte) error {
	var register uint8
	if err := codec.Unmarshal(data, &register); err == nil {
		*f = Filter{ByRegister: true, Register: register}
		return nil
	}
	var name string
	if err := codec.Unmarshal(data, &name); err != nil {
		return fmt.Errorf("read filter must be a workspace name or a register (0-255): %w", err)
	}
	*f = Filter{Name: name}
	return nil
}

// Command signatures. Each drives both parsing and the usage string
// embedded in parse errors.
var (
	createSignature = signature.Signature{Cmd: OpCreate, Params: []signature.Param{
		{Name: "name", Kind: signature.String},
	}}
	bindSignature = signature.Signature{Cmd: OpBind, Params: []signature.Param{
		{Name: "name", Kind: signature.String},
		{Name: "register", Kind: signature.Byte},
	}}
	unbindSignature = signature.Signature{Cmd: OpUnbind, Params: []signature.Param{
		{Name: "register", Kind: signature.Byte},
	}}
	gotoSignature = signature.Signature{Cmd: OpGoto, Params: []signature.Param{
		{Name: "register", Kind: signature.Byte},
	}}
	movetoSignature = signature.Signature{Cmd: OpMoveto, Params: []signature.Param{
		{Name: "register", Kind: signature.Byte},
	}}
	readSignature = signature.Signature{Cmd: OpRead, Params: []signature.Param{
		{Kind: signature.Optional},
		{Name: "filter", Kind: signature.String},
	}}
	deleteSignature = signature.Signature{Cmd: OpDelete, Params: []signature.Param{
		{Name: "name", Kind: signature.String},
	}}
	flushSignature = signature.Signature{Cmd: OpFlush}
)

// ParseLine decodes one text command into a Request.
func ParseLine(line string) (Request, error) {
	cmd, rest, ok := signature.SplitCommand(line)
	if !ok {
		return Request{}, fmt.Errorf("empty command")
	}

	switch cmd {
	case OpCreate:
		return parseNameCommand(createSignature, rest)
	case OpDelete:
		return parseNameCommand(deleteSignature, rest)

	case OpBind:
		parser := bindSignature.Parser(rest)
		name, err := parser.ParseString()
		if err != nil {
			return Request{}, err
		}
		register, err := parser.ParseByte()
		if err != nil {
			return Request{}, err
		}
		if err := parser.Finish(); err != nil {
			return Request{}, err
		}
		return Request{Op: OpBind, Name: name, Register: register}, nil

	case OpUnbind:
		return parseRegisterCommand(unbindSignature, rest)
	case OpGoto:
		return parseRegisterCommand(gotoSignature, rest)
	case OpMoveto:
		return parseRegisterCommand(movetoSignature, rest)

	case OpRead:
		parser := readSignature.Parser(rest)
		token, present, err := parser.ParseOptionalString()
		if err != nil {
			return Request{}, err
		}
		if err := parser.Finish(); err != nil {
			return Request{}, err
		}
		request := Request{Op: OpRead}
		if present {
			request.Filter = classifyFilterToken(token)
		}
		return request, nil

	case OpFlush:
		parser := flushSignature.Parser(rest)
		if err := parser.Finish(); err != nil {
			return Request{}, err
		}
		return Request{Op: OpFlush}, nil

	default:
		return Request{}, fmt.Errorf("invalid command %q", cmd)
	}
}

func parseNameCommand(sig signature.Signature, rest string) (Request, error) {
	parser := sig.Parser(rest)
	name, err := parser.ParseString()
	if err != nil {
		return Request{}, err
	}
	if err := parser.Finish(); err != nil {
		return Request{}, err
	}
	return Request{Op: sig.Cmd, Name: name}, nil
}

func parseRegisterCommand(sig signature.Signature, rest string) (Request, error) {
	parser := sig.Parser(rest)
	register, err := parser.ParseByte()
	if err != nil {
		return Request{}, err
	}
	if err := parser.Finish(); err != nil {
		return Request{}, err
	}
	return Request{Op: sig.Cmd, Register: register}, nil
}

// classifyFilterToken types a text read filter the way the CBOR shape
// types its value: a token that parses as an unsigned byte filters by
// register, anything else filters by name. A workspace literally
// named "5" is reachable by name through the CBOR shape.
func classifyFilterToken(token string) *Filter {
	if register, err := strconv.ParseUint(token, 10, 8); err == nil {
		return &Filter{ByRegister: true, Register: uint8(register)}
	}
	return &Filter{Name: token}
}

// Validate checks a decoded request for constraint violations the
// codecs cannot catch: an unknown operation or an empty workspace
// name. Text parsing can produce neither, but the CBOR shape can
// carry both.
func (r Request) Validate() error {
	switch r.Op {
	case OpCreate, OpBind, OpDelete:
		if r.Name == "" {
			return fmt.Errorf("%s: workspace name must not be empty", r.Op)
		}
	case OpUnbind, OpGoto, OpMoveto, OpRead, OpFlush:
	default:
		return fmt.Errorf("invalid operation %q", r.Op)
	}
	if r.Filter != nil && !r.Filter.ByRegister && r.Filter.Name == "" {
		return fmt.Errorf("read: filter name must not be empty")
	}
	return nil
}
