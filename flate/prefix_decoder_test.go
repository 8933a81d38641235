// Copyright 2022, Miguel Castela. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package flate

import (
	"bytes"
	"testing"

	"github.com/MiguelCastela/gunzip/internal/testutil"
)

func initTree(pt *prefixTree, lens []uint) (err error) {
	defer errRecover(&err)
	pt.Init(lens)
	return nil
}

func readSymbol(br *bitReader, pt *prefixTree) (sym uint, err error) {
	defer errRecover(&err)
	return br.ReadSymbol(pt), nil
}

func TestPrefixTreeCanonical(t *testing.T) {
	// The example from RFC 1951 section 3.2.2: lengths (3,3,3,3,3,2,4,4)
	// produce the codes 010, 011, 100, 101, 110, 00, 1110, 1111.
	lens := []uint{3, 3, 3, 3, 3, 2, 4, 4}

	var pt prefixTree
	if err := initTree(&pt, lens); err != nil {
		t.Fatalf("unexpected Init error: %v", err)
	}

	var br bitReader
	br.Init(bytes.NewReader(testutil.MustDecodeBitGen(`<<<
		> 010 011 100 101 110 00 1110 1111
	`)))
	for want := uint(0); want < 8; want++ {
		got, err := readSymbol(&br, &pt)
		if err != nil {
			t.Fatalf("symbol %d, unexpected ReadSymbol error: %v", want, err)
		}
		if got != want {
			t.Errorf("symbol mismatch: got %d, want %d", got, want)
		}
	}
}

func TestPrefixTreePrefixFree(t *testing.T) {
	// No assigned code may be an interior node of another: every leaf
	// must terminate its walk.
	lens := []uint{4, 4, 4, 4, 4, 3, 3, 3, 2}

	var pt prefixTree
	if err := initTree(&pt, lens); err != nil {
		t.Fatalf("unexpected Init error: %v", err)
	}
	for _, n := range pt.nodes {
		if n.sym >= 0 && (n.next[0] != nilNode || n.next[1] != nilNode) {
			t.Errorf("symbol %d is assigned to an interior node", n.sym)
		}
	}
}

func TestPrefixTreeDegenerate(t *testing.T) {
	// A single one-bit code leaves the "1" edge unassigned. Building
	// the tree succeeds; only using the missing edge is an error.
	var pt prefixTree
	if err := initTree(&pt, []uint{1}); err != nil {
		t.Fatalf("unexpected Init error: %v", err)
	}

	var br bitReader
	br.Init(bytes.NewReader([]byte{0x02})) // Bits: 0, then 1
	if sym, err := readSymbol(&br, &pt); err != nil || sym != 0 {
		t.Errorf("ReadSymbol mismatch: got (%d, %v), want (0, nil)", sym, err)
	}
	if _, err := readSymbol(&br, &pt); err != ErrInvalidSymbol {
		t.Errorf("mismatching ReadSymbol error: got %v, want %v", err, ErrInvalidSymbol)
	}
}

func TestPrefixTreeEmpty(t *testing.T) {
	var pt prefixTree
	if err := initTree(&pt, make([]uint, 19)); err != nil {
		t.Fatalf("unexpected Init error: %v", err)
	}

	var br bitReader
	br.Init(bytes.NewReader([]byte{0x00}))
	if _, err := readSymbol(&br, &pt); err != ErrInvalidSymbol {
		t.Errorf("mismatching ReadSymbol error: got %v, want %v", err, ErrInvalidSymbol)
	}
}

func TestPrefixTreeOverSubscribed(t *testing.T) {
	vectors := [][]uint{
		{1, 1, 1},          // Three one-bit codes
		{1, 1, 2},          // No room left for the two-bit code
		{2, 2, 2, 2, 2},    // Five two-bit codes
		{1, 2, 2, 3},       // Full after the two-bit codes
		{8, 8, 8, 8, 8, 1, 1, 2}, // Deep conflict
	}
	for i, lens := range vectors {
		var pt prefixTree
		if err := initTree(&pt, lens); err != ErrLengthTable {
			t.Errorf("test %d, mismatching Init error: got %v, want %v", i, err, ErrLengthTable)
		}
	}
}

func TestPrefixTreeIncomplete(t *testing.T) {
	// Under-subscribed trees are usable for the codes they do assign.
	var pt prefixTree
	if err := initTree(&pt, []uint{2, 2, 2}); err != nil {
		t.Fatalf("unexpected Init error: %v", err)
	}

	var br bitReader
	br.Init(bytes.NewReader(testutil.MustDecodeBitGen("<<< > 00 01 10 11")))
	for want := uint(0); want < 3; want++ {
		if sym, err := readSymbol(&br, &pt); err != nil || sym != want {
			t.Errorf("ReadSymbol mismatch: got (%d, %v), want (%d, nil)", sym, err, want)
		}
	}
	if _, err := readSymbol(&br, &pt); err != ErrInvalidSymbol {
		t.Errorf("mismatching ReadSymbol error: got %v, want %v", err, ErrInvalidSymbol)
	}
}
