/*
NAME
  adts.go

DESCRIPTION
  adts.go parses ADTS (Audio Data Transport Stream) headers carrying raw
  AAC frames, and derives the AudioSpecificConfig this module needs for
  the esds box. Only CRC-absent (7-byte header) ADTS is supported; CRC
  present (9-byte header) is rejected, since no PES payload observed in
  practice sets it and parsing the CRC field adds nothing this module
  needs.

AUTHOR
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package aac implements the subset of ADTS-AAC parsing this module
// needs: 7-byte ADTS header decode and AudioSpecificConfig derivation.
package aac

import "github.com/ausocean/av/errs"

// Profile is the MPEG-4 audio object type carried in the ADTS header
// (minus one, per the ADTS encoding).
type Profile uint8

const (
	ProfileMain Profile = 0
	ProfileLC   Profile = 1
	ProfileSSR  Profile = 2
	ProfileLTP  Profile = 3
)

// samplingFrequencies maps the 4-bit sampling_frequency_index to Hz.
// Indices 13 and 14 are reserved and 15 means an explicit (non-indexed)
// frequency follows, none of which this module supports.
var samplingFrequencies = [13]uint32{
	96000, 88200, 64000, 48000, 44100, 32000,
	24000, 22050, 16000, 12000, 11025, 8000, 7350,
}

// ChannelConfiguration is the ADTS channel_configuration field (ISO/IEC
// 13818-7 Table 8).
type ChannelConfiguration uint8

// Channels returns the number of audio channels cc describes, or 0 if cc
// is the "sent via inband PCE" sentinel (0), which this module rejects
// since it leaves the channel count unspecified here.
func (cc ChannelConfiguration) Channels() int {
	switch cc {
	case 1, 2, 3, 4, 5, 6:
		return int(cc)
	case 7:
		return 8
	default:
		return 0
	}
}

// Header is a parsed ADTS header, including the length of the whole ADTS
// frame (header plus raw AAC payload).
type Header struct {
	Profile                Profile
	SamplingFrequencyIndex uint8
	ChannelConfiguration   ChannelConfiguration
	FrameLength            uint16 // whole ADTS frame, header included
}

// SamplingFrequency returns the sampling rate in Hz that h.SamplingFrequencyIndex encodes.
func (h Header) SamplingFrequency() uint32 {
	return samplingFrequencies[h.SamplingFrequencyIndex]
}

const (
	headerLen = 7
	// samplesPerFrame is the fixed AAC frame size this module supports;
	// ADTS frames with more than one raw_data_block (i.e. a non-zero
	// number_of_raw_data_blocks_in_frame field) pack several of these back
	// to back and are rejected since spec scope is one decode per sample.
	samplesPerFrame = 1024
)

// SamplesPerFrame is the number of PCM samples a supported AAC frame decodes to.
const SamplesPerFrame = samplesPerFrame

// ParseHeader parses the 7-byte ADTS header at the start of frame and
// returns it along with the raw AAC payload (the frame_length bytes with
// the header stripped). frame must contain at least one whole ADTS
// frame; trailing bytes beyond frame_length (e.g. further back-to-back
// ADTS frames) are ignored and left for the caller to parse separately.
func ParseHeader(frame []byte) (Header, []byte, error) {
	if len(frame) < headerLen {
		return Header{}, nil, errs.New(errs.InvalidInput, "ADTS frame shorter than header")
	}

	// Byte 0-1: syncword (12 bits) + ID (1) + layer (2) + protection_absent (1).
	if frame[0] != 0xff || frame[1]&0xf0 != 0xf0 {
		return Header{}, nil, errs.New(errs.InvalidInput, "ADTS syncword not found")
	}
	if frame[1]&0x08 != 0 {
		return Header{}, nil, errs.New(errs.Unsupported, "ADTS MPEG-2 (ID=1) frames are not supported")
	}
	if frame[1]&0x06 != 0 {
		return Header{}, nil, errs.New(errs.Unsupported, "ADTS layer must be 0")
	}
	protectionAbsent := frame[1]&0x01 != 0
	if !protectionAbsent {
		return Header{}, nil, errs.New(errs.Unsupported, "ADTS CRC-present (9-byte header) frames are not supported")
	}

	// Byte 2: profile (2) + sampling_frequency_index (4) + private_bit (1) + channel_configuration MSB (1).
	profile := Profile(frame[2] >> 6)
	sfi := (frame[2] >> 2) & 0x0f
	if sfi >= 13 {
		return Header{}, nil, errs.Newf(errs.Unsupported, "reserved/forbidden sampling_frequency_index %d", sfi)
	}
	channelConfigMSB := frame[2] & 0x01

	// Byte 3: channel_configuration LSBs (2) + original/copy (1) + home (1) +
	// copyright_identification_bit (1) + copyright_identification_start (1) +
	// frame_length MSBs (2).
	channelConfig := ChannelConfiguration(channelConfigMSB<<2 | frame[3]>>6)
	if channelConfig.Channels() == 0 {
		return Header{}, nil, errs.Newf(errs.Unsupported, "unsupported channel_configuration %d", channelConfig)
	}
	if frame[3]&0x3c != 0 {
		return Header{}, nil, errs.New(errs.Unsupported, "ADTS frames with originality/home/copyright bits set are not supported")
	}
	frameLen := uint16(frame[3]&0x03)<<11 | uint16(frame[4])<<3 | uint16(frame[5]>>5)

	// Byte 6: buffer_fullness LSBs (already spans bytes 5-6) + number_of_raw_data_blocks_in_frame (2).
	rdbsMinus1 := frame[6] & 0x03
	if rdbsMinus1 != 0 {
		return Header{}, nil, errs.New(errs.Unsupported, "ADTS frames with more than one raw_data_block are not supported")
	}

	if int(frameLen) > len(frame) {
		return Header{}, nil, errs.New(errs.InvalidInput, "ADTS frame_length exceeds available data")
	}

	h := Header{
		Profile:                profile,
		SamplingFrequencyIndex: sfi,
		ChannelConfiguration:   channelConfig,
		FrameLength:            frameLen,
	}
	return h, frame[headerLen:frameLen], nil
}

// AudioSpecificConfig returns the 2-byte MPEG-4 AudioSpecificConfig
// (ISO/IEC 14496-3 §1.6.2.1) this ADTS header implies, as carried in the
// decoder specific info descriptor of the esds box.
func (h Header) AudioSpecificConfig() [2]byte {
	objectType := uint16(h.Profile) + 1
	v := objectType<<11 | uint16(h.SamplingFrequencyIndex)<<7 | uint16(h.ChannelConfiguration)<<3
	return [2]byte{byte(v >> 8), byte(v)}
}
