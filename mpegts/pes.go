/*
NAME
  pes.go

DESCRIPTION
  pes.go declares the PES-packet boundary this package consumes: TS
  demultiplexing and PES reconstruction (PAT/PMT parsing, payload
  reassembly across TS packets) is an external collaborator's job, so
  Assembler only ever sees already-reconstructed PES packets plus the
  stream type each one's PID was declared as in the PMT.

AUTHOR
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package mpegts implements the TS-to-fMP4 assembler: it consumes
// reconstructed PES packets (see ESReader) and produces an
// InitializationSegment and a single MediaSegment covering the whole clip.
package mpegts

// StreamType mirrors the MPEG-2 stream_type values carried in the PMT
// (ISO/IEC 13818-1 Table 2-34) that this module recognizes. Named after
// github.com/Comcast/gots/psi's PmtStreamType* constants, which an
// ESReader implementation backed by that library would report directly.
type StreamType uint8

const (
	StreamTypeH264    StreamType = 0x1b
	StreamTypeAdtsAAC StreamType = 0x0f
)

// PESPacket is one reconstructed PES packet: a complete elementary stream
// payload (one video frame, or one or more back-to-back ADTS AAC frames)
// plus the PES header fields this module needs.
type PESPacket struct {
	// StreamID is the PES stream_id byte (ISO/IEC 13818-1 Table 2-21):
	// 0xE0-0xEF for video, 0xC0-0xDF for audio.
	StreamID uint8
	// StreamType is the PMT-declared stream_type for the PID this packet
	// arrived on, resolved by the ESReader implementation's own PID
	// bookkeeping (the "companion lookup").
	StreamType StreamType
	// PTS is the presentation timestamp in 90kHz units, already masked to
	// 33 bits (ISO/IEC 13818-1 §2.4.3.6).
	PTS uint64
	// HasPTS is false if this PES packet carried no PTS field; Assembler
	// rejects both video and audio packets without a PTS.
	HasPTS bool
	// DTS is the decoding timestamp in 90kHz units. HasDTS is false when
	// the PES header carried no DTS field, in which case spec §4.3.1
	// requires DTS to default to PTS.
	DTS    uint64
	HasDTS bool
	// DataAlignmentIndicator mirrors the PES header field of the same
	// name (ISO/IEC 13818-1 §2.4.3.7); video packets must have it set.
	DataAlignmentIndicator bool
	// Data is the PES packet's payload: one Annex-B NAL unit byte stream
	// for video, one or more back-to-back ADTS frames for audio.
	Data []byte
}

// IsVideo reports whether p's stream_id identifies a video stream
// (ISO/IEC 13818-1 Table 2-21: 1110 xxxx).
func (p PESPacket) IsVideo() bool { return p.StreamID&0xf0 == 0xe0 }

// IsAudio reports whether p's stream_id identifies an audio stream
// (ISO/IEC 13818-1 Table 2-21: 110x xxxx).
func (p PESPacket) IsAudio() bool { return p.StreamID&0xe0 == 0xc0 }

// ESReader supplies the next reconstructed PES packet, or io.EOF (wrapped
// via errs.Other, per this module's error taxonomy) once the transport
// stream is exhausted. Implementations typically wrap a TS demultiplexer
// such as github.com/Comcast/gots's packet/pes/psi packages, doing
// their own PID-to-stream-type and stream-id-to-PID bookkeeping from the
// PAT/PMT as they go, the way this package's TSReader does.
type ESReader interface {
	ReadPESPacket() (PESPacket, error)
}
