/*
NAME
  box.go

DESCRIPTION
  box.go provides the ISO base media file format box header model shared by
  every box type in the fmp4 package: the 8-byte box header (uuid extended
  types are rejected), the optional 4-byte full-box header, and the Box interface that
  lets a box compute its own size from a dry-run write before it writes its
  real header.

AUTHOR
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package isobmff implements the ISO base media file format box model:
// box headers, full-box headers, and the Box interface used to serialize
// an entire box tree to an io.Writer.
package isobmff

import (
	"encoding/binary"
	"io"

	"github.com/ausocean/av/errs"
)

// BoxType is the 4-byte box type code, e.g. "ftyp", "moov", "trak".
type BoxType [4]byte

func (t BoxType) String() string { return string(t[:]) }

// BoxHeader is the leading size+type pair present on every box.
type BoxHeader struct {
	Size uint32
	Type BoxType
}

// WriteTo writes the 8-byte box header. Per ISO/IEC 14496-12, size==0
// (box extends to end of file) and size==1 (64-bit largesize follows) are
// both valid on-wire forms that this module does not produce, so they are
// rejected as Unsupported; a size that can't even fit the header itself is
// InvalidInput.
func (h BoxHeader) WriteTo(w io.Writer) (int64, error) {
	if h.Size == 0 || h.Size == 1 {
		return 0, errs.New(errs.Unsupported, "box size 0 or 1 (largesize/to-eof) not produced by this module")
	}
	if h.Size < 8 {
		return 0, errs.Newf(errs.InvalidInput, "box size %d smaller than header", h.Size)
	}
	if h.Type == (BoxType{'u', 'u', 'i', 'd'}) {
		return 0, errs.New(errs.Unsupported, "extended (uuid) box types are not supported")
	}
	var buf [8]byte
	binary.BigEndian.PutUint32(buf[:4], h.Size)
	copy(buf[4:], h.Type[:])
	n, err := w.Write(buf[:])
	if err != nil {
		return int64(n), errs.Wrap(errs.Other, err, "writing box header")
	}
	return int64(n), nil
}

// FullBoxHeader is the version+flags pair that follows the box header on
// "full boxes" (ISO/IEC 14496-12 §4.2).
type FullBoxHeader struct {
	Version uint8
	Flags   uint32 // only the low 24 bits are significant
}

// WriteTo writes the 4-byte version+flags full-box header.
func (h FullBoxHeader) WriteTo(w io.Writer) (int64, error) {
	var buf [4]byte
	buf[0] = h.Version
	buf[1] = byte(h.Flags >> 16)
	buf[2] = byte(h.Flags >> 8)
	buf[3] = byte(h.Flags)
	n, err := w.Write(buf[:])
	if err != nil {
		return int64(n), errs.Wrap(errs.Other, err, "writing full box header")
	}
	return int64(n), nil
}

// Box is implemented by every box and full-box in the fmp4 package. Type
// returns the box's 4-byte type code. FullBoxHeader returns nil for plain
// boxes (ftyp, mdat, ...) and non-nil for full boxes (mvhd, tkhd, ...).
// WritePayload writes only the box's own content, not its header(s); it
// must be side-effect-free and idempotent, since BoxSize calls it into a
// throwaway counter before WriteBoxTo calls it again for real.
type Box interface {
	Type() BoxType
	FullBoxHeader() *FullBoxHeader
	WritePayload(w io.Writer) error
}

// byteCounter is an io.Writer that only counts bytes, used to size a box's
// payload without allocating or materializing it. It has no side effects
// and its Write never fails, so counting is safe to run as many times as
// needed.
type byteCounter struct{ n int64 }

func (c *byteCounter) Write(p []byte) (int, error) {
	c.n += int64(len(p))
	return len(p), nil
}

// BoxSize returns the total on-wire size of b, including its headers,
// by performing a dry-run write of its payload into a byte counter.
func BoxSize(b Box) (uint32, error) {
	var c byteCounter
	if err := b.WritePayload(&c); err != nil {
		return 0, err
	}
	size := int64(8) + c.n
	if b.FullBoxHeader() != nil {
		size += 4
	}
	if size > 1<<32-1 {
		return 0, errs.Newf(errs.Unsupported, "box %s size %d exceeds 32-bit box size field", b.Type(), size)
	}
	return uint32(size), nil
}

// WriteBoxTo writes b's complete on-wire representation: box header,
// optional full-box header, then payload.
func WriteBoxTo(w io.Writer, b Box) error {
	size, err := BoxSize(b)
	if err != nil {
		return err
	}
	if _, err := (BoxHeader{Size: size, Type: b.Type()}).WriteTo(w); err != nil {
		return err
	}
	if fb := b.FullBoxHeader(); fb != nil {
		if _, err := fb.WriteTo(w); err != nil {
			return err
		}
	}
	return b.WritePayload(w)
}

// WriteBoxesTo writes each box in boxes in order via WriteBoxTo.
func WriteBoxesTo(w io.Writer, boxes ...Box) error {
	for _, b := range boxes {
		if err := WriteBoxTo(w, b); err != nil {
			return err
		}
	}
	return nil
}
