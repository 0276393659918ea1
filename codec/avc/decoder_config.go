/*
NAME
  decoder_config.go

DESCRIPTION
  decoder_config.go serializes the AVC Decoder Configuration Record carried
  in the avcC box payload (ISO/IEC 14496-15 §5.2.4).

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

import (
	"encoding/binary"
	"io"

	"github.com/ausocean/av/errs"
)

// DecoderConfigurationRecord is the AVCDecoderConfigurationRecord payload
// of the avcC box: the SPS/PPS NAL units plus the profile/level triple
// needed by decoders that don't want to inspect the SPS themselves.
type DecoderConfigurationRecord struct {
	ProfileIdc            uint8
	ConstraintSetFlag     uint8
	LevelIdc              uint8
	SequenceParameterSet  []byte // NAL unit, including its header byte
	PictureParameterSet   []byte // NAL unit, including its header byte
}

// WriteTo writes the record's on-wire form to w.
func (c DecoderConfigurationRecord) WriteTo(w io.Writer) (int64, error) {
	if unsupportedProfiles[c.ProfileIdc] {
		return 0, errs.Newf(errs.Unsupported, "profile_idc=%d not supported in AVCDecoderConfigurationRecord", c.ProfileIdc)
	}
	if len(c.SequenceParameterSet) > 0xffff || len(c.PictureParameterSet) > 0xffff {
		return 0, errs.New(errs.InvalidInput, "SPS or PPS too long for a 16-bit length prefix")
	}

	var n int64
	write := func(b []byte) error {
		m, err := w.Write(b)
		n += int64(m)
		if err != nil {
			return errs.Wrap(errs.Other, err, "writing AVCDecoderConfigurationRecord")
		}
		return nil
	}

	if err := write([]byte{1}); err != nil { // configurationVersion
		return n, err
	}
	if err := write([]byte{c.ProfileIdc, c.ConstraintSetFlag, c.LevelIdc}); err != nil {
		return n, err
	}
	if err := write([]byte{0xfc | 0x03}); err != nil { // reserved(6)='111111' + lengthSizeMinusOne(2)='11' (4-byte lengths)
		return n, err
	}
	if err := write([]byte{0xe0 | 0x01}); err != nil { // reserved(3)='111' + numOfSequenceParameterSets(5)=1
		return n, err
	}
	var lenBuf [2]byte
	binary.BigEndian.PutUint16(lenBuf[:], uint16(len(c.SequenceParameterSet)))
	if err := write(lenBuf[:]); err != nil {
		return n, err
	}
	if err := write(c.SequenceParameterSet); err != nil {
		return n, err
	}
	if err := write([]byte{0x01}); err != nil { // numOfPictureParameterSets=1
		return n, err
	}
	binary.BigEndian.PutUint16(lenBuf[:], uint16(len(c.PictureParameterSet)))
	if err := write(lenBuf[:]); err != nil {
		return n, err
	}
	if err := write(c.PictureParameterSet); err != nil {
		return n, err
	}
	return n, nil
}
