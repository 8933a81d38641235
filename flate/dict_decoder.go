// Copyright 2022, Miguel Castela. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package flate

// dictDecoder implements the LZ77 sliding dictionary that back-copies
// are resolved against. It is a circular buffer of size bytes: once a
// full window has been written, the oldest bytes are overwritten, but
// only after they have been handed to the consumer via ReadFlush. The
// Reader drains the buffer whenever it fills, which is what bounds
// resident history to the window size.
//
// Invariant: 0 <= rdPos <= wrPos <= len(hist).
type dictDecoder struct {
	hist []byte // Sliding window history

	wrPos int  // Current output position in buffer
	rdPos int  // Have emitted hist[:rdPos] already
	full  bool // Has a full window length been written yet?
}

func (dd *dictDecoder) Init(size int) {
	*dd = dictDecoder{hist: dd.hist}
	if cap(dd.hist) < size {
		dd.hist = make([]byte, size)
	}
	dd.hist = dd.hist[:size]
}

// HistSize reports the total amount of historical data in the window.
func (dd *dictDecoder) HistSize() int {
	if dd.full {
		return len(dd.hist)
	}
	return dd.wrPos
}

// AvailSize reports the available amount of output buffer space.
func (dd *dictDecoder) AvailSize() int {
	return len(dd.hist) - dd.wrPos
}

// WriteByte writes a single byte to the dictionary.
// The caller must ensure that AvailSize returns > 0.
func (dd *dictDecoder) WriteByte(c byte) {
	dd.hist[dd.wrPos] = c
	dd.wrPos++
}

// WriteCopy copies a string at a given (distance, length) to the output.
// It reports the number of bytes copied; fewer than length when the
// write side of the window fills, in which case the caller must flush
// and call WriteCopy again with the remainder.
//
// The copy advances in incremental passes that re-read bytes written by
// earlier passes, so a distance shorter than the length produces the
// periodic extension that run-length matches rely on.
func (dd *dictDecoder) WriteCopy(dist, length int) int {
	dstBase := dd.wrPos
	dstPos := dstBase
	srcPos := dstPos - dist
	endPos := dstPos + length
	if endPos > len(dd.hist) {
		endPos = len(dd.hist)
	}

	// The source may wrap around to the end of the circular buffer.
	if srcPos < 0 {
		srcPos += len(dd.hist)
		dstPos += copy(dd.hist[dstPos:endPos], dd.hist[srcPos:])
		srcPos = 0
	}

	for dstPos < endPos {
		dstPos += copy(dd.hist[dstPos:endPos], dd.hist[srcPos:dstPos])
	}

	dd.wrPos = dstPos
	return dstPos - dstBase
}

// ReadFlush returns a slice of the unemitted portion of the window and
// marks it as emitted. The returned slice is only valid until the next
// write into the dictionary.
func (dd *dictDecoder) ReadFlush() []byte {
	toRead := dd.hist[dd.rdPos:dd.wrPos]
	dd.rdPos = dd.wrPos
	if dd.wrPos == len(dd.hist) {
		dd.wrPos, dd.rdPos = 0, 0
		dd.full = true
	}
	return toRead
}
