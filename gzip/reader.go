// Copyright 2022, Miguel Castela. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

// Package gzip implements reading of single-member GZIP files
// (RFC 1952). The DEFLATE payload is decoded by the flate package and
// is therefore restricted to dynamic Huffman blocks.
//
// The trailer checksum and size are captured but deliberately not
// verified; callers that care can compare Reader.Size against the
// number of bytes they consumed.
package gzip

import (
	"bufio"
	"encoding/binary"
	"io"
	"time"

	"github.com/MiguelCastela/gunzip/flate"
)

// Error is the wrapper type for errors specific to this package.
type Error string

func (e Error) Error() string { return "gzip: " + string(e) }

var (
	// ErrHeader indicates a malformed header: bad magic bytes, a
	// compression method other than DEFLATE, or reserved flag bits set.
	ErrHeader error = Error("invalid header")

	// ErrNoName indicates the header carries no FNAME field. The
	// package itself tolerates an anonymous member; this is for callers
	// that need the embedded file name to place their output.
	ErrNoName error = Error("header has no file name")
)

// FLG bit assignments from RFC section 2.3.1.
const (
	flagText = 1 << iota
	flagHdrCRC
	flagExtra
	flagName
	flagComment
)

// Header holds the metadata recorded in a GZIP file header.
type Header struct {
	Text    bool      // FTEXT: file is probably ASCII text
	ModTime time.Time // MTIME: modification time, zero if unset
	Extra   []byte    // FEXTRA: raw subfield data
	Name    string    // FNAME: original file name, empty if absent
	Comment string    // FCOMMENT: file comment
	OS      byte      // OS: filesystem the file came from
}

// Reader reads uncompressed data from a GZIP member. The Header fields
// are valid as soon as NewReader returns. After the stream has been
// fully read, CRC32 and Size hold the values found in the trailer.
type Reader struct {
	Header
	CRC32 uint32 // Trailer CRC-32 of the uncompressed data (not verified)
	Size  uint32 // Trailer ISIZE: uncompressed size mod 2^32 (not verified)

	rd           *bufio.Reader
	decompressor *flate.Reader
	err          error
}

// NewReader reads the GZIP header from r and returns a Reader for the
// member's uncompressed data.
func NewReader(r io.Reader) (*Reader, error) {
	zr := new(Reader)
	if err := zr.Reset(r); err != nil {
		return nil, err
	}
	return zr, nil
}

func (zr *Reader) Reset(r io.Reader) error {
	fr := zr.decompressor
	*zr = Reader{rd: bufio.NewReader(r), decompressor: fr}

	hdr, err := readHeader(zr.rd)
	if err != nil {
		return err
	}
	zr.Header = hdr

	if zr.decompressor == nil {
		zr.decompressor = flate.NewReader(zr.rd)
	} else {
		zr.decompressor.Reset(zr.rd)
	}
	return nil
}

func (zr *Reader) Read(buf []byte) (int, error) {
	if zr.err != nil {
		return 0, zr.err
	}
	cnt, err := zr.decompressor.Read(buf)
	if err == io.EOF {
		err = zr.readTrailer()
	}
	zr.err = err
	return cnt, err
}

func (zr *Reader) Close() error {
	return zr.decompressor.Close()
}

// BlockCount reports the number of DEFLATE blocks decoded so far.
func (zr *Reader) BlockCount() int64 {
	return zr.decompressor.NumBlocks
}

// readTrailer captures the CRC32 and ISIZE fields that follow the
// DEFLATE stream. It returns io.EOF on success so that Read surfaces
// the usual end-of-stream condition. Anything after the trailer (a
// second member, trailing garbage) is left unconsumed.
func (zr *Reader) readTrailer() error {
	var tr [8]byte
	if _, err := io.ReadFull(zr.rd, tr[:]); err != nil {
		return noEOF(err)
	}
	zr.CRC32 = binary.LittleEndian.Uint32(tr[0:4])
	zr.Size = binary.LittleEndian.Uint32(tr[4:8])
	return io.EOF
}

// readHeader parses the fixed prefix and the FLG-conditional fields of
// a member header according to RFC section 2.3.
func readHeader(rd *bufio.Reader) (hdr Header, err error) {
	var buf [10]byte
	if _, err := io.ReadFull(rd, buf[:]); err != nil {
		return hdr, noEOF(err)
	}
	if buf[0] != 0x1f || buf[1] != 0x8b || buf[2] != 0x08 {
		return hdr, ErrHeader
	}
	flg := buf[3]
	if flg&0xe0 > 0 {
		return hdr, ErrHeader // Reserved FLG bits must be zero
	}
	hdr.Text = flg&flagText > 0
	if t := binary.LittleEndian.Uint32(buf[4:8]); t > 0 {
		hdr.ModTime = time.Unix(int64(t), 0)
	}
	// buf[8] is XFL; informational only.
	hdr.OS = buf[9]

	if flg&flagExtra > 0 {
		var lenBuf [2]byte
		if _, err := io.ReadFull(rd, lenBuf[:]); err != nil {
			return hdr, noEOF(err)
		}
		xlen := int(lenBuf[0]) | int(lenBuf[1])<<8
		hdr.Extra = make([]byte, xlen)
		if _, err := io.ReadFull(rd, hdr.Extra); err != nil {
			return hdr, noEOF(err)
		}
	}
	if flg&flagName > 0 {
		if hdr.Name, err = readString(rd); err != nil {
			return hdr, err
		}
	}
	if flg&flagComment > 0 {
		if hdr.Comment, err = readString(rd); err != nil {
			return hdr, err
		}
	}
	if flg&flagHdrCRC > 0 {
		var crcBuf [2]byte
		if _, err := io.ReadFull(rd, crcBuf[:]); err != nil {
			return hdr, noEOF(err)
		}
		// CRC16 of the header bytes; captured fields are not verified.
	}
	return hdr, nil
}

// readString reads a NUL-terminated string field.
func readString(rd *bufio.Reader) (string, error) {
	s, err := rd.ReadString(0)
	if err != nil {
		return "", noEOF(err)
	}
	return s[:len(s)-1], nil
}

// noEOF maps io.EOF to io.ErrUnexpectedEOF: running out of input in the
// middle of a header or trailer field is always a truncation.
func noEOF(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}
