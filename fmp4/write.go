/*
NAME
  write.go

DESCRIPTION
  write.go provides the small big-endian write helpers shared by every box
  payload in this package, mirroring the write_u8!/write_u32!/write_all!
  helper macros of the original implementation's box writer.

AUTHOR
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package fmp4 implements the ISO BMFF box trees for an initialization
// segment (ftyp+moov) and a media segment (moof+mdat), suitable for MSE
// SourceBuffer.appendBuffer.
package fmp4

import (
	"encoding/binary"
	"io"

	"github.com/ausocean/av/errs"
)

func writeU8(w io.Writer, v uint8) error {
	_, err := w.Write([]byte{v})
	return wrapWrite(err)
}

func writeU16(w io.Writer, v uint16) error {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	_, err := w.Write(b[:])
	return wrapWrite(err)
}

func writeI16(w io.Writer, v int16) error {
	return writeU16(w, uint16(v))
}

func writeU32(w io.Writer, v uint32) error {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	_, err := w.Write(b[:])
	return wrapWrite(err)
}

func writeI32(w io.Writer, v int32) error {
	return writeU32(w, uint32(v))
}

func writeU64(w io.Writer, v uint64) error {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	_, err := w.Write(b[:])
	return wrapWrite(err)
}

func writeU24(w io.Writer, v uint32) error {
	b := []byte{byte(v >> 16), byte(v >> 8), byte(v)}
	_, err := w.Write(b)
	return wrapWrite(err)
}

func writeAll(w io.Writer, p []byte) error {
	_, err := w.Write(p)
	return wrapWrite(err)
}

func writeZeroes(w io.Writer, n int) error {
	_, err := w.Write(make([]byte, n))
	return wrapWrite(err)
}

func wrapWrite(err error) error {
	if err == nil {
		return nil
	}
	return errs.Wrap(errs.Other, err, "writing box payload")
}
