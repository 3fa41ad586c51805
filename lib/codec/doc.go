// Copyright 2026 The Wsmgr Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec wraps the CBOR encoder and decoder used for the
// structured variant of the client protocol. All CBOR in this
// repository goes through this package so the encoding options
// (deterministic encoding, string-keyed map defaults) are configured
// exactly once.
package codec
