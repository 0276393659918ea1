/*
NAME
  bitreader.go

DESCRIPTION
  bitreader.go provides an MSB-first bit reader over a byte slice, used to
  parse the bit-packed fields of a sequence parameter set. It follows the
  same ReadBits/byte-fill shape as codec/h264/h264dec/bits.BitReader, but
  reads from an in-memory slice instead of an io.Reader since SPS payloads
  here always arrive as a single already-buffered NAL unit.

AUTHOR
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package avc

import "github.com/ausocean/av/errs"

// bitReader reads bits MSB-first from a byte slice.
type bitReader struct {
	buf []byte
	pos int // bit position from the start of buf
}

func newBitReader(buf []byte) *bitReader {
	return &bitReader{buf: buf}
}

// readBit returns the next single bit.
func (r *bitReader) readBit() (uint8, error) {
	byteIdx := r.pos / 8
	if byteIdx >= len(r.buf) {
		return 0, errs.New(errs.InvalidInput, "SPS bit reader ran past end of buffer")
	}
	shift := 7 - uint(r.pos%8)
	bit := (r.buf[byteIdx] >> shift) & 0x1
	r.pos++
	return bit, nil
}

// readBits reads n (<=32) bits and returns them as the low n bits of the
// result, MSB first.
func (r *bitReader) readBits(n int) (uint32, error) {
	var v uint32
	for i := 0; i < n; i++ {
		b, err := r.readBit()
		if err != nil {
			return 0, err
		}
		v = (v << 1) | uint32(b)
	}
	return v, nil
}

// readUe reads an Exp-Golomb (ue(v)) coded unsigned integer per ITU-T
// H.264 §9.1.
func (r *bitReader) readUe() (uint64, error) {
	var leadingZeros uint
	for {
		b, err := r.readBit()
		if err != nil {
			return 0, err
		}
		if b != 0 {
			break
		}
		leadingZeros++
		if leadingZeros > 32 {
			return 0, errs.New(errs.InvalidInput, "ue(v) code longer than 32 leading zero bits")
		}
	}
	var suffix uint64
	for i := uint(0); i < leadingZeros; i++ {
		b, err := r.readBit()
		if err != nil {
			return 0, err
		}
		suffix = (suffix << 1) | uint64(b)
	}
	return suffix + (1<<leadingZeros - 1), nil
}
