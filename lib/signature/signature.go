// Copyright 2026 The Wsmgr Authors
// SPDX-License-Identifier: Apache-2.0

// Package signature implements declarative command signatures for the
// line-oriented client protocol.
//
// A [Signature] names a command and its ordered positional parameters.
// The same declaration drives both parsing and the usage string shown
// in error replies, so the two can never drift apart. Parameters after
// an [Optional] marker are optional; a parser asking for a required
// parameter where the schema declares an optional one (or vice versa,
// or the wrong type) is reported as a schema mismatch.
package signature

import (
	"strconv"
	"strings"
)

// Kind is the declared type of one positional parameter.
type Kind int

const (
	// String is a whitespace-delimited text token.
	String Kind = iota
	// Byte is an unsigned 8-bit integer (0-255).
	Byte
	// Optional is a marker entry, not a parameter: every parameter
	// after it is optional. A signature holds at most one.
	Optional
)

// String returns the type name used in usage strings and errors.
func (k Kind) String() string {
	switch k {
	case String:
		return "str"
	case Byte:
		return "u8"
	default:
		return ""
	}
}

// Param is one declared positional parameter.
type Param struct {
	Name string
	Kind Kind
}

// Signature declares a command: its name and positional parameters.
type Signature struct {
	Cmd    string
	Params []Param
}

// SplitCommand splits a raw line into the command name and the
// remaining parameter text at the first space. Returns ok=false for
// an empty line.
func SplitCommand(line string) (cmd, rest string, ok bool) {
	if line == "" {
		return "", "", false
	}
	if name, remainder, found := strings.Cut(line, " "); found {
		return name, remainder, true
	}
	return line, "", true
}

// String renders the usage form of the signature, derived from the
// same parameter table the parser consumes:
//
//	bind <name: str> <register: u8>
//	read [filter: str]
func (s Signature) String() string {
	var b strings.Builder
	b.WriteString(s.Cmd)

	required := true
	for _, param := range s.Params {
		if param.Kind == Optional {
			required = false
			continue
		}
		if required {
			b.WriteString(" <" + param.Name + ": " + param.Kind.String() + ">")
		} else {
			b.WriteString(" [" + param.Name + ": " + param.Kind.String() + "]")
		}
	}
	return b.String()
}

// Parser returns a parser for input bound to this signature. The
// parser walks the declared parameters in order; call one ParseX
// method per declared parameter and [Parser.Finish] at the end.
func (s Signature) Parser(input string) *Parser {
	return &Parser{sig: s, required: true, input: input}
}

// Parser consumes whitespace-delimited tokens against a signature's
// declared parameter list.
type Parser struct {
	sig      Signature
	required bool // flips to false when an Optional marker is crossed
	index    int
	input    string
}

// nextToken consumes the next space-delimited token from the raw
// input. Returns ok=false when the input is exhausted.
func (p *Parser) nextToken() (string, bool) {
	if p.input == "" {
		return "", false
	}
	if token, rest, found := strings.Cut(p.input, " "); found {
		p.input = rest
		return token, true
	}
	token := p.input
	p.input = ""
	return token, true
}

// parseParam advances past any Optional markers, checks the declared
// parameter against the requested (kind, required) pair, consumes one
// token and converts it. For an exhausted optional parameter it
// returns ok=false with the zero value.
func parseParam[T any](p *Parser, kind Kind, required bool, convert func(string) (T, error)) (T, bool, error) {
	var zero T
	access := &Access{Kind: kind, Required: required}

	var declared Kind
	for {
		if p.index >= len(p.sig.Params) {
			return zero, false, p.newError(access, nil)
		}
		declared = p.sig.Params[p.index].Kind
		if declared != Optional {
			break
		}
		p.required = false
		p.index++
	}

	if declared != kind || p.required != required {
		return zero, false, p.newError(access, nil)
	}

	token, haveToken := p.nextToken()
	if !haveToken {
		if p.required {
			return zero, false, p.newError(access, nil)
		}
		p.index++
		return zero, false, nil
	}

	value, err := convert(token)
	if err != nil {
		err = p.newError(access, err)
	}
	p.index++
	if err != nil {
		return zero, false, err
	}
	return value, true, nil
}

// ParseString consumes a required string parameter.
func (p *Parser) ParseString() (string, error) {
	value, _, err := parseParam(p, String, true, func(token string) (string, error) {
		return token, nil
	})
	return value, err
}

// ParseOptionalString consumes an optional string parameter. ok is
// false when the input was exhausted before this parameter.
func (p *Parser) ParseOptionalString() (value string, ok bool, err error) {
	return parseParam(p, String, false, func(token string) (string, error) {
		return token, nil
	})
}

// ParseByte consumes a required unsigned-byte parameter.
func (p *Parser) ParseByte() (uint8, error) {
	value, _, err := parseParam(p, Byte, true, parseByteToken)
	return value, err
}

// ParseOptionalByte consumes an optional unsigned-byte parameter.
func (p *Parser) ParseOptionalByte() (value uint8, ok bool, err error) {
	return parseParam(p, Byte, false, parseByteToken)
}

func parseByteToken(token string) (uint8, error) {
	n, err := strconv.ParseUint(token, 10, 8)
	if err != nil {
		return 0, err
	}
	return uint8(n), nil
}

// Finish fails if declared parameters remain unconsumed or raw input
// remains after the last consumed parameter. This guarantees exact
// arity: no silent truncation, no trailing garbage.
func (p *Parser) Finish() error {
	if p.index < len(p.sig.Params) || p.input != "" {
		return p.newError(nil, nil)
	}
	return nil
}
