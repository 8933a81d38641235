// Copyright 2022, Miguel Castela. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package testutil

import (
	"bytes"
	"encoding/hex"
	"errors"
	"math/bits"
	"strconv"
	"strings"
)

// DecodeBitGen decodes a BitGen formatted string.
//
// The BitGen format describes a bit-stream as a series of whitespace
// separated tokens, so that test streams can be scripted by hand with
// comments recording authorial intent. The '#' character comments out
// the remainder of its line.
//
// The first token must be "<<<" (little-endian) or ">>>" (big-endian)
// and selects the bit-packing order of the output: whether bits fill
// each byte starting from the least-significant or the most-significant
// position. DEFLATE streams use "<<<".
//
// The remaining tokens each emit bits:
//
//	0110       bit-string, emitted per the current parsing mode
//	D7:102     a 7-bit value holding decimal 102
//	H16:fffe   a 16-bit value holding hexadecimal 0xfffe
//	X:deadcafe literal bytes (the stream must be byte-aligned)
//
// A standalone "<" or ">" token switches the bit-parsing mode for
// subsequent tokens: in little-endian mode the least-significant bits
// of a value are emitted first, in big-endian mode the most-significant
// bits are. The mode starts little-endian. Prefixing a single token
// with "<" or ">" overrides the mode for that token only. A "*n" suffix
// repeats a token n times.
//
// An output that does not end on a byte boundary is padded with zeros.
func DecodeBitGen(str string) ([]byte, error) {
	var toks []string
	for _, line := range strings.Split(str, "\n") {
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		toks = append(toks, strings.Fields(line)...)
	}
	if len(toks) == 0 {
		return nil, errors.New("testutil: empty bitgen input")
	}

	var packMSB bool // Bit-packing order: false is LE, true is BE
	switch toks[0] {
	case "<<<":
		packMSB = false
	case ">>>":
		packMSB = true
	default:
		return nil, errors.New("testutil: unknown stream bit-packing mode")
	}
	toks = toks[1:]

	var bw bitBuffer
	var parseMSB bool // Bit-parsing mode: false is LE, true is BE
	for _, t := range toks {
		pm := parseMSB
		if t[0] == '<' || t[0] == '>' {
			pm = t[0] == '>'
			t = t[1:]
			if len(t) == 0 {
				parseMSB = pm // Standalone token sets the global mode
				continue
			}
		}

		rep := 1
		if i := strings.LastIndexByte(t, '*'); i >= 0 {
			n, err := strconv.Atoi(t[i+1:])
			if err != nil {
				return nil, errors.New("testutil: invalid quantified token: " + t)
			}
			t, rep = t[:i], n
		}

		var v uint64
		var nb uint
		switch {
		case len(t) > 2 && t[0] == 'X' && t[1] == ':':
			b, err := hex.DecodeString(t[2:])
			if err != nil {
				return nil, errors.New("testutil: invalid raw bytes token: " + t)
			}
			b = bytes.Repeat(b, rep)
			if err := bw.Write(b); err != nil {
				return nil, err
			}
			continue
		case len(t) > 1 && (t[0] == 'D' || t[0] == 'H'):
			i := strings.IndexByte(t, ':')
			if i < 0 {
				return nil, errors.New("testutil: invalid numeric token: " + t)
			}
			base := 10
			if t[0] == 'H' {
				base = 16
			}
			n, err1 := strconv.Atoi(t[1:i])
			val, err2 := strconv.ParseUint(t[i+1:], base, 64)
			if err1 != nil || err2 != nil || n < 0 || n > 64 {
				return nil, errors.New("testutil: invalid numeric token: " + t)
			}
			if n < 64 && val>>uint(n) > 0 {
				return nil, errors.New("testutil: integer overflow on token: " + t)
			}
			v, nb = val, uint(n)
		case strings.Trim(t, "01") == "" && len(t) <= 64:
			for _, c := range t {
				v = v<<1 | uint64(c-'0')
			}
			nb = uint(len(t))
		default:
			return nil, errors.New("testutil: invalid token: " + t)
		}

		if pm {
			v = bits.Reverse64(v) >> (64 - nb)
		}
		for i := 0; i < rep; i++ {
			bw.WriteBits64(v, nb)
		}
	}

	buf := bw.Bytes()
	if packMSB {
		for i, b := range buf {
			buf[i] = bits.Reverse8(b)
		}
	}
	return buf, nil
}

// bitBuffer packs bits LSB-first into a growing byte slice.
type bitBuffer struct {
	b []byte
	m byte
}

func (b *bitBuffer) Write(buf []byte) error {
	if b.m != 0x00 {
		return errors.New("testutil: unaligned write")
	}
	b.b = append(b.b, buf...)
	return nil
}

func (b *bitBuffer) WriteBits64(v uint64, n uint) {
	for i := uint(0); i < n; i++ {
		if b.m == 0x00 {
			b.m = 0x01
			b.b = append(b.b, 0x00)
		}
		if v&(1<<i) != 0 {
			b.b[len(b.b)-1] |= b.m
		}
		b.m <<= 1
	}
}

func (b *bitBuffer) Bytes() []byte {
	return b.b
}
