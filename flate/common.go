// Copyright 2022, Miguel Castela. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

// Package flate implements a decoder for the subset of the DEFLATE
// compressed data format (RFC 1951) that uses dynamically generated
// Huffman codes. Every block must have BTYPE=2; stored and fixed
// Huffman blocks are rejected with ErrBlockType.
package flate

import "runtime"

const (
	maxHistSize = 1 << 15
	endBlockSym = 256
)

// Error is the wrapper type for errors specific to this package.
type Error string

func (e Error) Error() string { return "flate: " + string(e) }

var (
	// ErrBlockType indicates a block with BTYPE other than 2.
	ErrBlockType error = Error("unsupported block type")

	// ErrInvalidSymbol indicates a prefix code descended to a missing edge.
	ErrInvalidSymbol error = Error("invalid prefix symbol")

	// ErrLengthTable indicates a malformed code length table: the RLE
	// expansion overran the expected count, a repeat appeared before any
	// length, or the lengths over-subscribe the prefix tree.
	ErrLengthTable error = Error("malformed code length table")

	// ErrDistance indicates a back-reference beyond the start of history.
	ErrDistance error = Error("invalid back-reference distance")
)

// errRecover converts a panicked error into a returned error, so that the
// decoding hot path does not thread error values through every call.
// Runtime errors and non-error panics are re-raised.
func errRecover(err *error) {
	switch ex := recover().(type) {
	case nil:
	case runtime.Error:
		panic(ex)
	case error:
		*err = ex
	default:
		panic(ex)
	}
}
