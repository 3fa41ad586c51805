// Copyright 2026 The Wsmgr Authors
// SPDX-License-Identifier: Apache-2.0

package signature

import (
	"fmt"
	"strings"
)

// Access describes the parameter shape a ParseX call asked for.
type Access struct {
	Kind     Kind
	Required bool
}

// Error reports a parse failure against a signature. The rendered
// message always leads with the signature's usage string so a client
// sees how the command should have looked, then names the offending
// field, whether it was required, and what went wrong.
type Error struct {
	// Signature is the schema the input was parsed against.
	Signature Signature
	// Index is the declared parameter the parser was positioned at.
	Index int
	// Required reports whether the parser was still in the required
	// section of the parameter list.
	Required bool
	// Accessed is the shape the caller asked for; nil when the error
	// came from [Parser.Finish].
	Accessed *Access
	// Cause is the token conversion error, if any.
	Cause error
}

func (p *Parser) newError(accessed *Access, cause error) *Error {
	return &Error{
		Signature: p.sig,
		Index:     p.index,
		Required:  p.required,
		Accessed:  accessed,
		Cause:     cause,
	}
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s:\n", e.Signature)

	var expected *Param
	if e.Index < len(e.Signature.Params) {
		expected = &e.Signature.Params[e.Index]
	}

	switch {
	case expected == nil && e.Accessed != nil:
		fmt.Fprintf(&b, "tried to access %s field of type `%s`, expected to be done with parsing input",
			requiredWord(e.Accessed.Required), e.Accessed.Kind)

	case expected != nil && e.Accessed != nil:
		fmt.Fprintf(&b, "%s: ", expected.Name)
		switch {
		case expected.Kind != e.Accessed.Kind || e.Required != e.Accessed.Required:
			fmt.Fprintf(&b, "failed to access type `%s`, expected `%s`",
				e.Accessed.Kind, expected.Kind)
		case e.Cause != nil:
			fmt.Fprintf(&b, "failed parsing type `%s` with %q",
				e.Accessed.Kind, e.Cause.Error())
		default:
			fmt.Fprintf(&b, "missing input for required argument of type `%s`",
				expected.Kind)
		}

	case expected != nil && e.Accessed == nil:
		fmt.Fprintf(&b, "tried to stop parsing, but signature is expecting %s field `%s` of type `%s`",
			requiredWord(e.Required), expected.Name, expected.Kind)

	default:
		b.WriteString("expected to be done with parsing, but still has remaining input")
	}

	return b.String()
}

// Unwrap exposes the token conversion error for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Cause
}

func requiredWord(required bool) string {
	if required {
		return "required"
	}
	return "optional"
}
