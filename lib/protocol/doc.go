// Copyright 2026 The Wsmgr Authors
// SPDX-License-Identifier: Apache-2.0

// Package protocol defines the client wire protocol in both of its
// isomorphic shapes and the codecs between them and [Request].
//
// The text shape is one newline-terminated command per message,
// parsed against the declarative signatures in lib/signature:
//
//	create <name>
//	bind <name> <register>
//	unbind <register>
//	goto <register>
//	moveto <register>
//	read [name-or-register]
//	delete <name>
//	flush
//
// The structured shape is a CBOR map with an "op" field and the same
// operations; the read filter distinguishes "by name" from "by
// register" through the encoded type of the value itself (text string
// versus unsigned integer) rather than a second field.
//
// Both shapes share one socket: a connection whose first byte is a
// CBOR map header speaks CBOR for its lifetime, anything else is
// treated as text lines. Key-binding layers pipe text through socat;
// the wsmgr one-shot client speaks CBOR so workspace names containing
// whitespace survive the trip.
package protocol
