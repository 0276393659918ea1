/*
NAME
  sps_test.go

DESCRIPTION
  sps_test.go contains testing for functionality found in sps.go.

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
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ausocean/av/errs"
)

// baselineSPS is a constructed baseline-profile SPS RBSP (header byte
// already stripped) describing a 64x48, frame-only, uncropped picture:
// seq_parameter_set_id=0, log2_max_frame_num_minus4=0, pic_order_cnt_type=0,
// log2_max_pic_order_cnt_lsb_minus4=0, max_num_ref_frames=1,
// gaps_in_frame_num_value_allowed_flag=0, pic_width_in_mbs_minus1=3,
// pic_height_in_map_units_minus1=2, frame_mbs_only_flag=1,
// direct_8x8_inference_flag=1, frame_cropping_flag=0.
var baselineSPS = []byte{0x42, 0xc0, 0x1f, 0xf4, 0x23, 0xc0}

func TestParseSPS(t *testing.T) {
	got, err := ParseSPS(baselineSPS)
	if err != nil {
		t.Fatalf("ParseSPS() unexpected error: %v", err)
	}
	want := SPS{
		ProfileIdc:        0x42,
		ConstraintSetFlag: 0xc0,
		LevelIdc:          0x1f,
		Width:             64,
		Height:            48,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ParseSPS() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseSPSTooShort(t *testing.T) {
	_, err := ParseSPS([]byte{1, 2})
	if !errs.Is(err, errs.InvalidInput) {
		t.Fatalf("ParseSPS() error = %v, want kind %v", err, errs.InvalidInput)
	}
}

func TestParseSPSUnsupportedProfile(t *testing.T) {
	rbsp := []byte{100, 0, 0, 0x80}
	_, err := ParseSPS(rbsp)
	if !errs.Is(err, errs.Unsupported) {
		t.Fatalf("ParseSPS() error = %v, want kind %v", err, errs.Unsupported)
	}
}

// TestParseSPSUnsupportedPicOrderCntType covers pic_order_cnt_type=2: a
// baseline-profile SPS whose bitstream after profile/constraint/level is
// seq_parameter_set_id=0 ("1"), log2_max_frame_num_minus4=0 ("1"),
// pic_order_cnt_type=2 ("011"), padded to a byte: 0b11011000.
func TestParseSPSUnsupportedPicOrderCntType(t *testing.T) {
	rbsp := []byte{0x42, 0xc0, 0x1f, 0xd8}
	_, err := ParseSPS(rbsp)
	if !errs.Is(err, errs.Unsupported) {
		t.Fatalf("ParseSPS() error = %v, want kind %v", err, errs.Unsupported)
	}
}
