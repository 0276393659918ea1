/*
NAME
  splitter.go

DESCRIPTION
  splitter.go splits an Annex-B byte-stream-format NAL unit sequence (as
  carried in an H.264 PES payload) into its individual NAL units, and
  decodes the one-byte NAL unit header.

AUTHOR
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package avc implements the subset of H.264/AVC elementary stream parsing
// this module needs: Annex-B NAL unit splitting, NAL unit type decode, SPS
// parsing (just enough to get profile/level/picture size), and AVC Decoder
// Configuration Record serialization for the avcC box.
package avc

import (
	"github.com/ausocean/av/errs"
)

// NalUnits splits a byte-stream-format (Annex-B) NAL unit sequence into
// its constituent NAL units. bytes must start with a 3-byte (00 00 01) or
// 4-byte (00 00 00 01) start code; returned slices alias bytes and exclude
// the start codes.
func NalUnits(bytes []byte) ([][]byte, error) {
	bytes, err := stripLeadingStartCode(bytes)
	if err != nil {
		return nil, err
	}

	var units [][]byte
	for len(bytes) > 0 {
		end := len(bytes)
		next := len(bytes)
		for i := 0; i < len(bytes); i++ {
			if hasPrefix(bytes[i:], startCode4) {
				end = i
				next = i + 4
				break
			}
			if hasPrefix(bytes[i:], startCode3) {
				end = i
				next = i + 3
				break
			}
		}
		units = append(units, bytes[:end])
		bytes = bytes[next:]
	}
	return units, nil
}

var (
	startCode3 = []byte{0, 0, 1}
	startCode4 = []byte{0, 0, 0, 1}
)

func hasPrefix(b, prefix []byte) bool {
	if len(b) < len(prefix) {
		return false
	}
	for i := range prefix {
		if b[i] != prefix[i] {
			return false
		}
	}
	return true
}

func stripLeadingStartCode(bytes []byte) ([]byte, error) {
	switch {
	case hasPrefix(bytes, startCode4):
		return bytes[4:], nil
	case hasPrefix(bytes, startCode3):
		return bytes[3:], nil
	default:
		return nil, errs.New(errs.InvalidInput, "NAL unit byte stream does not start with a start code")
	}
}

// NalUnitType enumerates the H.264 NAL unit types this module needs to
// distinguish (ITU-T H.264 Table 7-1).
type NalUnitType uint8

const (
	NalUnitTypeNonIDRSlice                NalUnitType = 1
	NalUnitTypeSliceDataPartitionA        NalUnitType = 2
	NalUnitTypeSliceDataPartitionB        NalUnitType = 3
	NalUnitTypeSliceDataPartitionC        NalUnitType = 4
	NalUnitTypeIDRSlice                    NalUnitType = 5
	NalUnitTypeSEI                         NalUnitType = 6
	NalUnitTypeSPS                         NalUnitType = 7
	NalUnitTypePPS                         NalUnitType = 8
	NalUnitTypeAccessUnitDelimiter         NalUnitType = 9
	NalUnitTypeEndOfSequence               NalUnitType = 10
	NalUnitTypeEndOfStream                 NalUnitType = 11
	NalUnitTypeFilterData                  NalUnitType = 12
	NalUnitTypeSPSExtension                NalUnitType = 13
	NalUnitTypePrefix                      NalUnitType = 14
	NalUnitTypeSubsetSPS                   NalUnitType = 15
	NalUnitTypeAuxiliaryCodedPictureSlice  NalUnitType = 19
	NalUnitTypeSliceExtension              NalUnitType = 20
)

// NalUnitHeader decodes the leading byte of a NAL unit.
type NalUnitHeader struct {
	RefIdc uint8
	Type   NalUnitType
}

// ReadNalUnitHeader decodes the NAL unit header from the first byte of
// nal (the start-code-stripped unit, as returned by NalUnits).
func ReadNalUnitHeader(nal []byte) (NalUnitHeader, error) {
	if len(nal) == 0 {
		return NalUnitHeader{}, errs.New(errs.InvalidInput, "empty NAL unit")
	}
	b := nal[0]
	t := b & 0x1f
	switch NalUnitType(t) {
	case NalUnitTypeNonIDRSlice, NalUnitTypeSliceDataPartitionA, NalUnitTypeSliceDataPartitionB,
		NalUnitTypeSliceDataPartitionC, NalUnitTypeIDRSlice, NalUnitTypeSEI, NalUnitTypeSPS,
		NalUnitTypePPS, NalUnitTypeAccessUnitDelimiter, NalUnitTypeEndOfSequence,
		NalUnitTypeEndOfStream, NalUnitTypeFilterData, NalUnitTypeSPSExtension,
		NalUnitTypePrefix, NalUnitTypeSubsetSPS, NalUnitTypeAuxiliaryCodedPictureSlice,
		NalUnitTypeSliceExtension:
		return NalUnitHeader{RefIdc: (b >> 5) & 0x3, Type: NalUnitType(t)}, nil
	default:
		return NalUnitHeader{}, errs.Newf(errs.InvalidInput, "unknown nal_unit_type %d", t)
	}
}

// IsKeyFrame reports whether nalType begins a coded IDR picture.
func (t NalUnitType) IsKeyFrame() bool { return t == NalUnitTypeIDRSlice }
