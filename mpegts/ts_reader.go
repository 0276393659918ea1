/*
NAME
  ts_reader.go

DESCRIPTION
  ts_reader.go is a concrete ESReader backed by github.com/Comcast/gots: it
  reads raw 188-byte MPEG-TS packets from an io.Reader, reassembles PES
  packets from the packets carrying a PAT-declared PMT PID's elementary
  streams, and resolves each one's PMT stream_type. This is the one
  implementation this module ships; callers with their own TS demuxer can
  implement ESReader directly instead.

AUTHOR
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package mpegts

import (
	"io"

	"github.com/Comcast/gots/packet"
	"github.com/Comcast/gots/pes"
	"github.com/Comcast/gots/psi"

	"github.com/ausocean/av/errs"
)

const tsPacketSize = 188

// patPid is fixed by ISO/IEC 13818-1; the PMT's PID is discovered from
// the PAT's program map instead of being assumed.
const patPid = 0

// TSReader implements ESReader over a raw MPEG-TS byte stream.
type TSReader struct {
	r io.Reader

	pmtPid        int
	pidStreamType map[int]StreamType
	pesBuf        map[int][]byte // per-PID accumulation buffer, keyed by PID
	pesPids       []int          // PIDs seen in pesBuf, in first-seen order, for EOF flush

	pending []PESPacket
	eof     bool // set once the underlying reader is exhausted and flushed
}

// NewTSReader returns a TSReader reading packets from r.
func NewTSReader(r io.Reader) *TSReader {
	return &TSReader{
		r:             r,
		pmtPid:        -1,
		pidStreamType: make(map[int]StreamType),
		pesBuf:        make(map[int][]byte),
	}
}

// ReadPESPacket implements ESReader.
func (t *TSReader) ReadPESPacket() (PESPacket, error) {
	for {
		if len(t.pending) > 0 {
			p := t.pending[0]
			t.pending = t.pending[1:]
			return p, nil
		}
		if t.eof {
			return PESPacket{}, errs.Wrap(errs.Other, io.EOF, "end of transport stream")
		}
		if err := t.readOnePacket(); err != nil {
			return PESPacket{}, err
		}
	}
}

// flushPending emits every PID's still-buffered PES payload once the
// transport stream is exhausted: a PES packet is otherwise only emitted
// when a later packet's payload_unit_start_indicator announces the next
// one, so the last packet of every stream would otherwise never surface.
func (t *TSReader) flushPending() error {
	for _, pid := range t.pesPids {
		if buf := t.pesBuf[pid]; len(buf) > 0 {
			if err := t.emit(pid, buf); err != nil {
				return err
			}
			t.pesBuf[pid] = nil
		}
	}
	return nil
}

func (t *TSReader) readOnePacket() error {
	var buf [tsPacketSize]byte
	if _, err := io.ReadFull(t.r, buf[:]); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			t.eof = true
			return t.flushPending()
		}
		return errs.Wrap(errs.Other, err, "reading MPEG-TS packet")
	}

	var pkt packet.Packet
	copy(pkt[:], buf[:])

	pid := int(pkt.PID())
	switch {
	case pid == patPid:
		return t.handlePAT(pkt)
	case pid == t.pmtPid:
		return t.handlePMT(pkt)
	default:
		return t.handleMedia(pid, pkt)
	}
}

func (t *TSReader) handlePAT(pkt packet.Packet) error {
	pat, err := psi.NewPAT(pkt[:])
	if err != nil {
		return errs.Wrap(errs.InvalidInput, err, "parsing PAT")
	}
	for _, pmtPid := range pat.ProgramMap() {
		t.pmtPid = int(pmtPid)
		break
	}
	if t.pmtPid < 0 {
		return errs.New(errs.InvalidInput, "PAT contains no programs")
	}
	return nil
}

func (t *TSReader) handlePMT(pkt packet.Packet) error {
	payload, err := pkt.Payload()
	if err != nil {
		return errs.Wrap(errs.Other, err, "reading PMT payload")
	}
	pmt, err := psi.NewPMT(payload)
	if err != nil {
		return errs.Wrap(errs.InvalidInput, err, "parsing PMT")
	}
	for _, es := range pmt.ElementaryStreams() {
		t.pidStreamType[int(es.ElementaryPid())] = StreamType(es.StreamType())
	}
	return nil
}

func (t *TSReader) handleMedia(pid int, pkt packet.Packet) error {
	payload, err := pkt.Payload()
	if err != nil {
		return errs.Wrap(errs.Other, err, "reading MPEG-TS payload")
	}

	if pkt.PayloadUnitStartIndicator() {
		if buf := t.pesBuf[pid]; len(buf) > 0 {
			if err := t.emit(pid, buf); err != nil {
				return err
			}
		}
		if _, seen := t.pesBuf[pid]; !seen {
			t.pesPids = append(t.pesPids, pid)
		}
		t.pesBuf[pid] = append([]byte(nil), payload...)
	} else if t.pesBuf[pid] != nil {
		t.pesBuf[pid] = append(t.pesBuf[pid], payload...)
	}
	return nil
}

// emit parses a complete, reassembled PES packet for pid and appends it
// to the pending queue.
func (t *TSReader) emit(pid int, buf []byte) error {
	header, err := pes.NewPESHeader(buf)
	if err != nil {
		return errs.Wrap(errs.InvalidInput, err, "parsing PES header")
	}
	streamType, known := t.pidStreamType[pid]
	if !known {
		return errs.Newf(errs.InvalidInput, "no PMT stream_type known for PID %d", pid)
	}
	t.pending = append(t.pending, PESPacket{
		StreamID:               header.StreamId(),
		StreamType:             streamType,
		PTS:                    header.PTS(),
		HasPTS:                 header.PTS() != 0,
		DTS:                    header.DTS(),
		HasDTS:                 header.DTS() != 0,
		DataAlignmentIndicator: dataAlignmentIndicator(buf),
		Data:                   header.Data(),
	})
	return nil
}

// dataAlignmentIndicator reports the data_alignment_indicator bit of a raw
// PES packet buf: start code (3 bytes) + stream_id (1) + PES_packet_length
// (2) leave the flags byte at index 6, with data_alignment_indicator at bit
// position 2 of that byte (see container/mts/pes.Packet.Bytes's PES layout
// diagram for the same octet 6 bit ordering). gots' PESHeader doesn't
// surface this flag itself, so it's read directly off the bytes already in
// hand rather than hardcoded.
func dataAlignmentIndicator(buf []byte) bool {
	return len(buf) > 6 && buf[6]&0x04 != 0
}
