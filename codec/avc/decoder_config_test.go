/*
NAME
  decoder_config_test.go

DESCRIPTION
  decoder_config_test.go contains testing for functionality found in
  decoder_config.go.

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
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ausocean/av/errs"
)

func TestDecoderConfigurationRecordWriteTo(t *testing.T) {
	c := DecoderConfigurationRecord{
		ProfileIdc:           0x42,
		ConstraintSetFlag:    0xc0,
		LevelIdc:             0x1f,
		SequenceParameterSet: []byte{0x67, 0xaa, 0xbb},
		PictureParameterSet:  []byte{0x68, 0xcc},
	}
	var buf bytes.Buffer
	n, err := c.WriteTo(&buf)
	if err != nil {
		t.Fatalf("WriteTo() unexpected error: %v", err)
	}
	want := []byte{
		1,                // configurationVersion
		0x42, 0xc0, 0x1f, // profile/constraint/level
		0xff,       // reserved(6) + lengthSizeMinusOne(2)
		0xe1,       // reserved(3) + numOfSequenceParameterSets(5)
		0, 3,       // SPS length
		0x67, 0xaa, 0xbb,
		1,    // numOfPictureParameterSets
		0, 2, // PPS length
		0x68, 0xcc,
	}
	if diff := cmp.Diff(want, buf.Bytes()); diff != "" {
		t.Errorf("WriteTo() mismatch (-want +got):\n%s", diff)
	}
	if n != int64(len(want)) {
		t.Errorf("WriteTo() n = %d, want %d", n, len(want))
	}
}

func TestDecoderConfigurationRecordWriteToUnsupportedProfile(t *testing.T) {
	c := DecoderConfigurationRecord{ProfileIdc: 100}
	var buf bytes.Buffer
	_, err := c.WriteTo(&buf)
	if !errs.Is(err, errs.Unsupported) {
		t.Fatalf("WriteTo() error = %v, want kind %v", err, errs.Unsupported)
	}
}

func TestDecoderConfigurationRecordWriteToOversizeParameterSet(t *testing.T) {
	c := DecoderConfigurationRecord{
		SequenceParameterSet: make([]byte, 0x10000),
	}
	var buf bytes.Buffer
	_, err := c.WriteTo(&buf)
	if !errs.Is(err, errs.InvalidInput) {
		t.Fatalf("WriteTo() error = %v, want kind %v", err, errs.InvalidInput)
	}
}
