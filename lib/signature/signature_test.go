// Copyright 2026 The Wsmgr Authors
// SPDX-License-Identifier: Apache-2.0

package signature

import (
	"strings"
	"testing"
)

var (
	bindSig = Signature{Cmd: "bind", Params: []Param{
		{Name: "name", Kind: String},
		{Name: "register", Kind: Byte},
	}}
	readSig = Signature{Cmd: "read", Params: []Param{
		{Kind: Optional},
		{Name: "filter", Kind: String},
	}}
)

func TestSplitCommand(t *testing.T) {
	tests := []struct {
		line     string
		cmd      string
		rest     string
		expectOK bool
	}{
		{line: "create web", cmd: "create", rest: "web", expectOK: true},
		{line: "flush", cmd: "flush", rest: "", expectOK: true},
		{line: "bind web 3", cmd: "bind", rest: "web 3", expectOK: true},
		{line: "", expectOK: false},
	}
	for _, test := range tests {
		cmd, rest, ok := SplitCommand(test.line)
		if ok != test.expectOK || cmd != test.cmd || rest != test.rest {
			t.Errorf("SplitCommand(%q) = (%q, %q, %v), want (%q, %q, %v)",
				test.line, cmd, rest, ok, test.cmd, test.rest, test.expectOK)
		}
	}
}

func TestUsageString(t *testing.T) {
	if got, want := bindSig.String(), "bind <name: str> <register: u8>"; got != want {
		t.Errorf("bind usage = %q, want %q", got, want)
	}
	if got, want := readSig.String(), "read [filter: str]"; got != want {
		t.Errorf("read usage = %q, want %q", got, want)
	}
}

func TestParseRequired(t *testing.T) {
	parser := bindSig.Parser("web 3")

	name, err := parser.ParseString()
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}
	if name != "web" {
		t.Errorf("name = %q, want %q", name, "web")
	}

	register, err := parser.ParseByte()
	if err != nil {
		t.Fatalf("ParseByte: %v", err)
	}
	if register != 3 {
		t.Errorf("register = %d, want 3", register)
	}

	if err := parser.Finish(); err != nil {
		t.Errorf("Finish: %v", err)
	}
}

func TestParseOptionalPresent(t *testing.T) {
	parser := readSig.Parser("web")
	filter, ok, err := parser.ParseOptionalString()
	if err != nil {
		t.Fatalf("ParseOptionalString: %v", err)
	}
	if !ok || filter != "web" {
		t.Errorf("filter = (%q, %v), want (%q, true)", filter, ok, "web")
	}
	if err := parser.Finish(); err != nil {
		t.Errorf("Finish: %v", err)
	}
}

func TestParseOptionalAbsent(t *testing.T) {
	parser := readSig.Parser("")
	filter, ok, err := parser.ParseOptionalString()
	if err != nil {
		t.Fatalf("ParseOptionalString: %v", err)
	}
	if ok || filter != "" {
		t.Errorf("filter = (%q, %v), want (\"\", false)", filter, ok)
	}
	if err := parser.Finish(); err != nil {
		t.Errorf("Finish: %v", err)
	}
}

func TestMissingRequired(t *testing.T) {
	parser := bindSig.Parser("web")
	if _, err := parser.ParseString(); err != nil {
		t.Fatalf("ParseString: %v", err)
	}
	_, err := parser.ParseByte()
	if err == nil {
		t.Fatal("ParseByte on exhausted input: want error")
	}
	if !strings.Contains(err.Error(), "missing input for required argument of type `u8`") {
		t.Errorf("error = %q, want missing-input message", err)
	}
	if !strings.Contains(err.Error(), "bind <name: str> <register: u8>") {
		t.Errorf("error = %q, want leading usage string", err)
	}
}

func TestConversionFailure(t *testing.T) {
	parser := bindSig.Parser("web not-a-number")
	if _, err := parser.ParseString(); err != nil {
		t.Fatalf("ParseString: %v", err)
	}
	_, err := parser.ParseByte()
	if err == nil {
		t.Fatal("ParseByte(\"not-a-number\"): want error")
	}
	if !strings.Contains(err.Error(), "failed parsing type `u8`") {
		t.Errorf("error = %q, want conversion-failure message", err)
	}
}

func TestByteRange(t *testing.T) {
	sig := Signature{Cmd: "unbind", Params: []Param{{Name: "register", Kind: Byte}}}

	parser := sig.Parser("255")
	register, err := parser.ParseByte()
	if err != nil {
		t.Fatalf("ParseByte(255): %v", err)
	}
	if register != 255 {
		t.Errorf("register = %d, want 255", register)
	}

	parser = sig.Parser("256")
	if _, err := parser.ParseByte(); err == nil {
		t.Error("ParseByte(256): want range error")
	}

	parser = sig.Parser("-1")
	if _, err := parser.ParseByte(); err == nil {
		t.Error("ParseByte(-1): want range error")
	}
}

func TestTypeMismatch(t *testing.T) {
	parser := bindSig.Parser("web 3")
	_, err := parser.ParseByte()
	if err == nil {
		t.Fatal("ParseByte where schema declares str: want error")
	}
	if !strings.Contains(err.Error(), "failed to access type `u8`, expected `str`") {
		t.Errorf("error = %q, want type-mismatch message", err)
	}
}

func TestRequirednessMismatch(t *testing.T) {
	// Asking for a required string where the schema has crossed the
	// optional marker is a mismatch even though the kinds agree.
	parser := readSig.Parser("web")
	_, err := parser.ParseString()
	if err == nil {
		t.Fatal("ParseString on optional field: want error")
	}
}

func TestFinishTrailingGarbage(t *testing.T) {
	parser := bindSig.Parser("web 3 extra")
	if _, err := parser.ParseString(); err != nil {
		t.Fatalf("ParseString: %v", err)
	}
	if _, err := parser.ParseByte(); err != nil {
		t.Fatalf("ParseByte: %v", err)
	}
	err := parser.Finish()
	if err == nil {
		t.Fatal("Finish with trailing input: want error")
	}
	if !strings.Contains(err.Error(), "still has remaining input") {
		t.Errorf("error = %q, want remaining-input message", err)
	}
}

func TestFinishUnconsumedField(t *testing.T) {
	parser := bindSig.Parser("web 3")
	if _, err := parser.ParseString(); err != nil {
		t.Fatalf("ParseString: %v", err)
	}
	err := parser.Finish()
	if err == nil {
		t.Fatal("Finish with unconsumed field: want error")
	}
	if !strings.Contains(err.Error(), "expecting required field `register` of type `u8`") {
		t.Errorf("error = %q, want unconsumed-field message", err)
	}
}

func TestAccessPastEnd(t *testing.T) {
	parser := bindSig.Parser("web 3")
	if _, err := parser.ParseString(); err != nil {
		t.Fatalf("ParseString: %v", err)
	}
	if _, err := parser.ParseByte(); err != nil {
		t.Fatalf("ParseByte: %v", err)
	}
	_, err := parser.ParseByte()
	if err == nil {
		t.Fatal("ParseByte past declared params: want error")
	}
	if !strings.Contains(err.Error(), "expected to be done with parsing input") {
		t.Errorf("error = %q, want past-end message", err)
	}
}
