/*
NAME
  sps.go

DESCRIPTION
  sps.go parses just enough of a sequence parameter set (SPS) NAL unit to
  determine the stream's profile/level and coded picture dimensions, which
  is everything the fmp4 AVC sample entry needs.

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

// unsupportedProfiles lists profile_idc values whose SPS carries the
// chroma-format/scaling-list extension fields this parser does not read.
// This is the full, consistent list (ITU-T H.264 §7.3.2.1.1's condition
// for the high-profile SPS extension), not the inconsistent 4-entry
// subset found in an early draft of this parser.
var unsupportedProfiles = map[uint8]bool{
	100: true, 110: true, 122: true, 244: true, 44: true,
	83: true, 86: true, 118: true, 128: true,
}

// SPS holds the fields of a sequence parameter set this module needs.
type SPS struct {
	ProfileIdc        uint8
	ConstraintSetFlag uint8
	LevelIdc          uint8
	Width             int
	Height            int
}

// ParseSPS parses the sequence parameter set NAL unit payload rbsp (the
// NAL unit with its one-byte header already stripped).
func ParseSPS(rbsp []byte) (SPS, error) {
	if len(rbsp) < 3 {
		return SPS{}, errs.New(errs.InvalidInput, "SPS too short")
	}
	profileIdc := rbsp[0]
	constraintSetFlag := rbsp[1]
	levelIdc := rbsp[2]

	r := newBitReader(rbsp[3:])

	if _, err := r.readUe(); err != nil { // seq_parameter_set_id
		return SPS{}, err
	}

	if unsupportedProfiles[profileIdc] {
		return SPS{}, errs.Newf(errs.Unsupported, "profile_idc=%d requires chroma-format SPS extension fields", profileIdc)
	}

	if _, err := r.readUe(); err != nil { // log2_max_frame_num_minus4
		return SPS{}, err
	}
	picOrderCntType, err := r.readUe()
	if err != nil {
		return SPS{}, err
	}
	switch picOrderCntType {
	case 0:
		if _, err := r.readUe(); err != nil { // log2_max_pic_order_cnt_lsb_minus4
			return SPS{}, err
		}
	case 1:
		if _, err := r.readBit(); err != nil { // delta_pic_order_always_zero_flag
			return SPS{}, err
		}
		if _, err := r.readSe(); err != nil { // offset_for_non_ref_pic
			return SPS{}, err
		}
		if _, err := r.readSe(); err != nil { // offset_for_top_to_bottom_field
			return SPS{}, err
		}
		n, err := r.readUe() // num_ref_frames_in_pic_order_cnt_cycle
		if err != nil {
			return SPS{}, err
		}
		for i := uint64(0); i < n; i++ {
			if _, err := r.readSe(); err != nil { // offset_for_ref_frame[i]
				return SPS{}, err
			}
		}
	default:
		return SPS{}, errs.Newf(errs.Unsupported, "unsupported pic_order_cnt_type %d", picOrderCntType)
	}

	if _, err := r.readUe(); err != nil { // max_num_ref_frames
		return SPS{}, err
	}
	if _, err := r.readBit(); err != nil { // gaps_in_frame_num_value_allowed_flag
		return SPS{}, err
	}
	picWidthInMbsMinus1, err := r.readUe()
	if err != nil {
		return SPS{}, err
	}
	picHeightInMapUnitsMinus1, err := r.readUe()
	if err != nil {
		return SPS{}, err
	}
	frameMbsOnlyFlag, err := r.readBit()
	if err != nil {
		return SPS{}, err
	}
	if frameMbsOnlyFlag == 0 {
		if _, err := r.readBit(); err != nil { // mb_adaptive_frame_field_flag
			return SPS{}, err
		}
	}
	if _, err := r.readBit(); err != nil { // direct_8x8_inference_flag
		return SPS{}, err
	}
	frameCroppingFlag, err := r.readBit()
	if err != nil {
		return SPS{}, err
	}
	var cropLeft, cropRight, cropTop, cropBottom uint64
	if frameCroppingFlag != 0 {
		if cropLeft, err = r.readUe(); err != nil {
			return SPS{}, err
		}
		if cropRight, err = r.readUe(); err != nil {
			return SPS{}, err
		}
		if cropTop, err = r.readUe(); err != nil {
			return SPS{}, err
		}
		if cropBottom, err = r.readUe(); err != nil {
			return SPS{}, err
		}
	}

	width := (int(picWidthInMbsMinus1)+1)*16 - 2*int(cropLeft+cropRight)
	heightMul := 2 - int(frameMbsOnlyFlag)
	height := heightMul*(int(picHeightInMapUnitsMinus1)+1)*16 - 2*int(cropTop+cropBottom)

	return SPS{
		ProfileIdc:        profileIdc,
		ConstraintSetFlag: constraintSetFlag,
		LevelIdc:          levelIdc,
		Width:             width,
		Height:            height,
	}, nil
}

// readSe reads a signed Exp-Golomb (se(v)) value per ITU-T H.264 §9.1.1,
// mapping the unsigned code k to (-1)^(k+1) * ceil(k/2).
func (r *bitReader) readSe() (int64, error) {
	k, err := r.readUe()
	if err != nil {
		return 0, err
	}
	v := int64((k + 1) / 2)
	if k%2 == 0 {
		v = -v
	}
	return v, nil
}
