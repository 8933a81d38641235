// Copyright 2022, Miguel Castela. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package flate

import "io"

// Reader decompresses a DEFLATE stream whose blocks all use dynamic
// Huffman coding. Decoded bytes pass through a sliding window so that
// at most 32 KiB of history stays resident; older output is handed to
// the caller through Read as soon as the window fills.
type Reader struct {
	InputOffset  int64 // Total number of bytes read from underlying io.Reader
	OutputOffset int64 // Total number of bytes emitted from Read
	NumBlocks    int64 // Number of block headers decoded so far

	rd     bitReader // Input source
	toRead []byte    // Uncompressed data ready to be emitted from Read
	dist   int       // The current copy distance
	cpyLen int       // Bytes left to backward dictionary copy
	last   bool      // Last block bit detected
	err    error     // Persistent error

	step      func(*Reader) // Single step of decompression work (can panic)
	stepState int           // The sub-step state for certain steps

	dict     dictDecoder // Dynamic sliding dictionary
	clenTree prefixTree  // Code length symbol prefix tree
	litTree  prefixTree  // Literal and length symbol prefix tree
	distTree prefixTree  // Backward distance symbol prefix tree

	lensArr [maxNumLitSyms + maxNumDistSyms]uint // Scratch for code lengths
}

func NewReader(r io.Reader) *Reader {
	fr := new(Reader)
	fr.Reset(r)
	return fr
}

func (fr *Reader) Read(buf []byte) (int, error) {
	for {
		if len(fr.toRead) > 0 {
			cnt := copy(buf, fr.toRead)
			fr.toRead = fr.toRead[cnt:]
			fr.OutputOffset += int64(cnt)
			return cnt, nil
		}
		if fr.err != nil {
			return 0, fr.err
		}

		// Perform next step in decompression process.
		func() {
			defer errRecover(&fr.err)
			fr.step(fr)
		}()
		fr.InputOffset = fr.rd.offset
		if fr.err != nil {
			fr.toRead = fr.dict.ReadFlush() // Flush what's left in case of error
		}
	}
}

func (fr *Reader) Close() error {
	if fr.err == io.EOF || fr.err == io.ErrClosedPipe {
		fr.toRead = nil // Make sure future reads fail
		fr.err = io.ErrClosedPipe
		return nil
	}
	return fr.err // Return the persistent error
}

func (fr *Reader) Reset(r io.Reader) error {
	*fr = Reader{
		rd:       fr.rd,
		step:     (*Reader).readBlockHeader,
		dict:     fr.dict,
		clenTree: fr.clenTree,
		litTree:  fr.litTree,
		distTree: fr.distTree,
	}
	fr.rd.Init(r)
	fr.dict.Init(maxHistSize)
	return nil
}

// readBlockHeader reads the block header according to RFC section 3.2.3.
// Only dynamic prefix blocks (BTYPE=2) are in scope; stored and fixed
// prefix blocks fail with ErrBlockType.
func (fr *Reader) readBlockHeader() {
	if fr.last {
		fr.rd.ReadPads()
		panic(io.EOF)
	}

	fr.last = fr.rd.ReadBits(1) == 1
	if btype := fr.rd.ReadBits(2); btype != 2 {
		panic(ErrBlockType)
	}
	fr.readPrefixCodes()
	fr.NumBlocks++
	fr.step = (*Reader).readBlock
}

// readPrefixCodes reads the dynamic prefix code tables according to
// RFC section 3.2.7.
func (fr *Reader) readPrefixCodes() {
	numLitSyms := fr.rd.ReadBits(5) + 257
	numDistSyms := fr.rd.ReadBits(5) + 1
	numCLenSyms := fr.rd.ReadBits(4) + 4
	if numLitSyms > maxNumLitSyms || numDistSyms > maxNumDistSyms {
		panic(ErrLengthTable)
	}

	// Lengths for the code length alphabet itself, stored as 3-bit
	// integers in the clenLens scattering order. Entries not present
	// in the stream keep length zero.
	var clens [maxNumCLenSyms]uint
	for _, sym := range clenLens[:numCLenSyms] {
		clens[sym] = fr.rd.ReadBits(3)
	}
	fr.clenTree.Init(clens[:])

	// The code lengths for both alphabets form one run-length-encoded
	// sequence: the previous length persists across the boundary and a
	// repeat run may straddle it.
	lens := fr.lensArr[:numLitSyms+numDistSyms]
	prev := -1
	for i := 0; i < len(lens); {
		sym := fr.rd.ReadSymbol(&fr.clenTree)
		if sym < 16 {
			lens[i] = sym
			prev = int(sym)
			i++
			continue
		}

		var rep int
		var clen uint
		switch sym {
		case 16:
			if prev < 0 {
				panic(ErrLengthTable) // Repeat of a length never seen
			}
			clen = uint(prev)
			rep = 3 + int(fr.rd.ReadBits(2))
		case 17:
			rep = 3 + int(fr.rd.ReadBits(3))
		case 18:
			rep = 11 + int(fr.rd.ReadBits(7))
		}
		if i+rep > len(lens) {
			panic(ErrLengthTable)
		}
		for j := 0; j < rep; j++ {
			lens[i] = clen
			i++
		}
	}

	fr.litTree.Init(lens[:numLitSyms])
	fr.distTree.Init(lens[numLitSyms:])
}

// readBlock decodes block commands according to RFC section 3.2.3.
func (fr *Reader) readBlock() {
	const (
		stateInit = iota // Zero value must be stateInit
		stateDict
	)

	switch fr.stepState {
	case stateInit:
		goto readLiteral
	case stateDict:
		goto copyDistance
	}

readLiteral:
	// Read literal and/or (length, distance) according to RFC section 3.2.3.
	{
		if fr.dict.AvailSize() == 0 {
			fr.toRead = fr.dict.ReadFlush()
			fr.step = (*Reader).readBlock
			fr.stepState = stateInit // Need to continue work here
			return
		}

		litSym := fr.rd.ReadSymbol(&fr.litTree)
		switch {
		case litSym < endBlockSym:
			fr.dict.WriteByte(byte(litSym))
			goto readLiteral
		case litSym == endBlockSym:
			fr.step = (*Reader).readBlockHeader
			fr.stepState = stateInit // Next call to readBlock must start here
			return
		default:
			// Decode the copy length.
			fr.cpyLen = int(fr.rd.ReadOffset(litSym-257, lenLUT[:]))

			// Decode the copy distance.
			distSym := fr.rd.ReadSymbol(&fr.distTree)
			fr.dist = int(fr.rd.ReadOffset(distSym, distLUT[:]))
			if fr.dist > fr.dict.HistSize() {
				panic(ErrDistance)
			}
			goto copyDistance
		}
	}

copyDistance:
	// Perform a backwards copy according to RFC section 3.2.3.
	{
		cnt := fr.dict.WriteCopy(fr.dist, fr.cpyLen)
		fr.cpyLen -= cnt

		if fr.cpyLen > 0 {
			fr.toRead = fr.dict.ReadFlush()
			fr.step = (*Reader).readBlock
			fr.stepState = stateDict // Need to continue work here
			return
		}
		goto readLiteral
	}
}
