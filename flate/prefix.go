// Copyright 2022, Miguel Castela. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package flate

const maxPrefixBits = 15

const (
	maxNumCLenSyms = 19
	maxNumLitSyms  = 286
	maxNumDistSyms = 30
)

var (
	lenLUT  [maxNumLitSyms - 257]rangeCode // RFC section 3.2.5
	distLUT [maxNumDistSyms]rangeCode      // RFC section 3.2.5
)

// rangeCode describes how a symbol maps to a range of integer values:
// the decoded value is base plus an integer read from bits extra bits.
type rangeCode struct {
	base uint32 // Starting base offset of the range
	bits uint32 // Bit-width of a subsequent integer to add to base offset
}

var (
	// RFC section 3.2.7.
	// Order in which code lengths for the code length alphabet appear.
	clenLens = [maxNumCLenSyms]uint{
		16, 17, 18, 0, 8, 7, 9, 6, 10, 5, 11, 4, 12, 3, 13, 2, 14, 1, 15,
	}
)

func init() {
	// Length codes 257..285; from RFC section 3.2.5.
	for i, base := 0, 3; i < len(lenLUT)-1; i++ {
		nb := uint(i/4 - 1)
		if i < 4 {
			nb = 0
		}
		lenLUT[i] = rangeCode{base: uint32(base), bits: uint32(nb)}
		base += 1 << nb
	}
	lenLUT[len(lenLUT)-1] = rangeCode{base: 258, bits: 0}

	// Distance codes 0..29; from RFC section 3.2.5.
	for i, base := 0, 1; i < len(distLUT); i++ {
		nb := uint(i/2 - 1)
		if i < 2 {
			nb = 0
		}
		distLUT[i] = rangeCode{base: uint32(base), bits: uint32(nb)}
		base += 1 << nb
	}
}
