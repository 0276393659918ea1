/*
NAME
  media.go

DESCRIPTION
  media.go builds the media segment: the moof box (mfhd + one traf per
  track, each with tfhd/tfdt/trun) and its mdat boxes.

AUTHOR
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package fmp4

import (
	"io"

	"github.com/ausocean/av/errs"
	"github.com/ausocean/av/isobmff"
)

// MediaSegment is the moof+mdat pair appended to a SourceBuffer after the
// initialization segment.
type MediaSegment struct {
	Moof MovieFragmentBox
	Mdat []MediaDataBox
}

// ErrEmptyMdatBoxes is returned by MediaSegment.WriteTo when given no
// mdat boxes to write.
var ErrEmptyMdatBoxes = errs.New(errs.InvalidInput, "media segment must contain at least one mdat")

// ErrEmptyTrafBoxes is returned by MovieFragmentBox.WritePayload when
// asked to write a moof with no track fragments.
var ErrEmptyTrafBoxes = errs.New(errs.InvalidInput, "moof must contain at least one traf")

// WriteTo writes the complete media segment to w, fixing up each traf's
// trun.DataOffset to point at the start of its samples within the
// concatenated mdat payloads first (spec behavior: data_offset is
// relative to the start of the moof box).
func (s *MediaSegment) WriteTo(w io.Writer) error {
	if len(s.Mdat) == 0 {
		return ErrEmptyMdatBoxes
	}
	if err := s.fixupDataOffsets(); err != nil {
		return err
	}
	boxes := make([]isobmff.Box, 0, 1+len(s.Mdat))
	boxes = append(boxes, s.Moof)
	for _, m := range s.Mdat {
		boxes = append(boxes, m)
	}
	return isobmff.WriteBoxesTo(w, boxes...)
}

// fixupDataOffsets computes moof's own size (via a dry-run write into a
// byte counter, the same mechanism isobmff.BoxSize uses for a single box)
// and then sets each traf's trun.DataOffset to moofSize + 8 (the mdat
// header) + the sum of the sizes of any mdat boxes preceding this traf's
// track, since one mdat is emitted per track in track order.
//
// Every trun must already carry a (placeholder) DataOffset before moof is
// sized: DataOffset's presence changes trun's on-wire size (it's an
// optional field), so sizing moof with it absent and then adding it
// after would size the box wrong. A zero placeholder fixes the size;
// only the value is corrected below.
func (s *MediaSegment) fixupDataOffsets() error {
	if len(s.Mdat) != len(s.Moof.Traf) {
		return errs.Newf(errs.InvalidInput, "%d mdat boxes for %d traf boxes", len(s.Mdat), len(s.Moof.Traf))
	}
	for i := range s.Moof.Traf {
		if s.Moof.Traf[i].Trun.DataOffset == nil {
			var placeholder int32
			s.Moof.Traf[i].Trun.DataOffset = &placeholder
		}
	}

	moofSize, err := isobmff.BoxSize(s.Moof)
	if err != nil {
		return err
	}

	offset := int32(moofSize)
	for i := range s.Moof.Traf {
		offset += 8 // this track's mdat header
		thisOffset := offset
		s.Moof.Traf[i].Trun.DataOffset = &thisOffset
		mdatSize, err := isobmff.BoxSize(s.Mdat[i])
		if err != nil {
			return err
		}
		offset += int32(mdatSize) - 8
	}
	return nil
}

// MovieFragmentBox is the moof box (ISO/IEC 14496-12 §8.8.4).
type MovieFragmentBox struct {
	Mfhd MovieFragmentHeaderBox
	Traf []TrackFragmentBox
}

func (MovieFragmentBox) Type() isobmff.BoxType                { return isobmff.BoxType{'m', 'o', 'o', 'f'} }
func (MovieFragmentBox) FullBoxHeader() *isobmff.FullBoxHeader { return nil }
func (b MovieFragmentBox) WritePayload(w io.Writer) error {
	if len(b.Traf) == 0 {
		return ErrEmptyTrafBoxes
	}
	if err := isobmff.WriteBoxTo(w, b.Mfhd); err != nil {
		return err
	}
	for _, t := range b.Traf {
		if err := isobmff.WriteBoxTo(w, t); err != nil {
			return err
		}
	}
	return nil
}

// MovieFragmentHeaderBox is the mfhd box (ISO/IEC 14496-12 §8.8.5).
// SequenceNumber must be nonzero and strictly increasing across the
// media segments of one presentation.
type MovieFragmentHeaderBox struct{ SequenceNumber uint32 }

func (MovieFragmentHeaderBox) Type() isobmff.BoxType { return isobmff.BoxType{'m', 'f', 'h', 'd'} }
func (MovieFragmentHeaderBox) FullBoxHeader() *isobmff.FullBoxHeader {
	return &isobmff.FullBoxHeader{}
}
func (b MovieFragmentHeaderBox) WritePayload(w io.Writer) error {
	if b.SequenceNumber == 0 {
		return errs.New(errs.InvalidInput, "mfhd sequence_number must be nonzero")
	}
	return writeU32(w, b.SequenceNumber)
}

// TrackFragmentBox is the traf box (ISO/IEC 14496-12 §8.8.6).
type TrackFragmentBox struct {
	Tfhd TrackFragmentHeaderBox
	Tfdt TrackFragmentBaseMediaDecodeTimeBox
	Trun TrackRunBox
}

func (TrackFragmentBox) Type() isobmff.BoxType                { return isobmff.BoxType{'t', 'r', 'a', 'f'} }
func (TrackFragmentBox) FullBoxHeader() *isobmff.FullBoxHeader { return nil }
func (b TrackFragmentBox) WritePayload(w io.Writer) error {
	if err := isobmff.WriteBoxTo(w, b.Tfhd); err != nil {
		return err
	}
	if err := isobmff.WriteBoxTo(w, b.Tfdt); err != nil {
		return err
	}
	return isobmff.WriteBoxTo(w, b.Trun)
}

// TrackFragmentHeaderBox is the tfhd box (ISO/IEC 14496-12 §8.8.7). This
// module always sets default-base-is-moof (spec §4.3.6); video additionally
// carries a default_sample_flags (non-sync, so only the trun
// first_sample_flags need mark the leading sync sample) and audio a
// default_sample_duration of 1024 (one AAC frame), so per-sample trun
// entries don't need to repeat either value.
type TrackFragmentHeaderBox struct {
	TrackID             uint32
	DefaultSampleDuration *uint32
	DefaultSampleFlags    *uint32
}

func (TrackFragmentHeaderBox) Type() isobmff.BoxType { return isobmff.BoxType{'t', 'f', 'h', 'd'} }
func (b TrackFragmentHeaderBox) FullBoxHeader() *isobmff.FullBoxHeader {
	const (
		defaultSampleDurationPresent = 0x000008
		defaultSampleFlagsPresent    = 0x000020
		defaultBaseIsMoof            = 0x020000
	)
	flags := uint32(defaultBaseIsMoof)
	if b.DefaultSampleDuration != nil {
		flags |= defaultSampleDurationPresent
	}
	if b.DefaultSampleFlags != nil {
		flags |= defaultSampleFlagsPresent
	}
	return &isobmff.FullBoxHeader{Flags: flags}
}
func (b TrackFragmentHeaderBox) WritePayload(w io.Writer) error {
	if err := writeU32(w, b.TrackID); err != nil {
		return err
	}
	if b.DefaultSampleDuration != nil {
		if err := writeU32(w, *b.DefaultSampleDuration); err != nil {
			return err
		}
	}
	if b.DefaultSampleFlags != nil {
		if err := writeU32(w, *b.DefaultSampleFlags); err != nil {
			return err
		}
	}
	return nil
}

// TrackFragmentBaseMediaDecodeTimeBox is the tfdt box (ISO/IEC 14496-12
// §8.8.12), written as a version-1 (64-bit) full box. A 32-bit
// base_media_decode_time, as an early draft of this box used, cannot
// represent more than ~13 hours of samples at a 90kHz clock; version 1
// is used throughout instead.
type TrackFragmentBaseMediaDecodeTimeBox struct{ BaseMediaDecodeTime uint64 }

func (TrackFragmentBaseMediaDecodeTimeBox) Type() isobmff.BoxType {
	return isobmff.BoxType{'t', 'f', 'd', 't'}
}
func (TrackFragmentBaseMediaDecodeTimeBox) FullBoxHeader() *isobmff.FullBoxHeader {
	return &isobmff.FullBoxHeader{Version: 1}
}
func (b TrackFragmentBaseMediaDecodeTimeBox) WritePayload(w io.Writer) error {
	return writeU64(w, b.BaseMediaDecodeTime)
}

// SampleFlags packs the per-sample flags field used by trun entries
// (ISO/IEC 14496-12 §8.8.3.1).
type SampleFlags struct {
	IsLeading                 uint8
	SampleDependsOn            uint8
	SampleIsDependedOn         uint8
	SampleHasRedundancy        uint8
	SamplePaddingValue         uint8
	SampleIsNonSyncSample      bool
	SampleDegradationPriority  uint16
}

// ToUint32 packs f into the 32-bit sample_flags wire value.
func (f SampleFlags) ToUint32() uint32 {
	nonSync := uint32(0)
	if f.SampleIsNonSyncSample {
		nonSync = 1
	}
	return uint32(f.IsLeading&0x3)<<26 |
		uint32(f.SampleDependsOn&0x3)<<24 |
		uint32(f.SampleIsDependedOn&0x3)<<22 |
		uint32(f.SampleHasRedundancy&0x3)<<20 |
		uint32(f.SamplePaddingValue&0x7)<<17 |
		nonSync<<16 |
		uint32(f.SampleDegradationPriority)
}

// SyncSampleFlags are the flags for a sync sample (an IDR frame or an
// audio sample, both of which are independently decodable).
var SyncSampleFlags = SampleFlags{SampleDependsOn: 2, SampleIsNonSyncSample: false}

// NonSyncSampleFlags are the flags for a sample that depends on a
// preceding sample.
var NonSyncSampleFlags = SampleFlags{SampleDependsOn: 1, SampleIsNonSyncSample: true}

// TrunEntry is one sample's worth of optional trun fields. A nil field
// means "not present for this entry"; every entry in a TrackRunBox must
// agree on which fields are nil (spec testable property: a trun's
// optional-field presence mask is uniform across all its entries).
type TrunEntry struct {
	Duration               *uint32
	Size                   *uint32
	Flags                  *uint32
	CompositionTimeOffset  *int32
}

// TrackRunBox is the trun box (ISO/IEC 14496-12 §8.8.8), written as a
// version-1 full box (signed sample_composition_time_offset).
type TrackRunBox struct {
	DataOffset       *int32
	FirstSampleFlags *uint32
	Entries          []TrunEntry
}

func (TrackRunBox) Type() isobmff.BoxType { return isobmff.BoxType{'t', 'r', 'u', 'n'} }
func (b TrackRunBox) FullBoxHeader() *isobmff.FullBoxHeader {
	const (
		dataOffsetPresent       = 0x000001
		firstSampleFlagsPresent = 0x000004
		sampleDurationPresent   = 0x000100
		sampleSizePresent       = 0x000200
		sampleFlagsPresent      = 0x000400
		sampleCompTimePresent   = 0x000800
	)
	var flags uint32
	if b.DataOffset != nil {
		flags |= dataOffsetPresent
	}
	if b.FirstSampleFlags != nil {
		flags |= firstSampleFlagsPresent
	}
	if len(b.Entries) > 0 {
		e := b.Entries[0]
		if e.Duration != nil {
			flags |= sampleDurationPresent
		}
		if e.Size != nil {
			flags |= sampleSizePresent
		}
		if e.Flags != nil {
			flags |= sampleFlagsPresent
		}
		if e.CompositionTimeOffset != nil {
			flags |= sampleCompTimePresent
		}
	}
	return &isobmff.FullBoxHeader{Version: 1, Flags: flags}
}
func (b TrackRunBox) WritePayload(w io.Writer) error {
	if err := b.checkUniformFieldPresence(); err != nil {
		return err
	}
	if err := writeU32(w, uint32(len(b.Entries))); err != nil {
		return err
	}
	if b.DataOffset != nil {
		if err := writeI32(w, *b.DataOffset); err != nil {
			return err
		}
	}
	if b.FirstSampleFlags != nil {
		if err := writeU32(w, *b.FirstSampleFlags); err != nil {
			return err
		}
	}
	for _, e := range b.Entries {
		if e.Duration != nil {
			if err := writeU32(w, *e.Duration); err != nil {
				return err
			}
		}
		if e.Size != nil {
			if err := writeU32(w, *e.Size); err != nil {
				return err
			}
		}
		if e.Flags != nil {
			if err := writeU32(w, *e.Flags); err != nil {
				return err
			}
		}
		if e.CompositionTimeOffset != nil {
			if err := writeI32(w, *e.CompositionTimeOffset); err != nil {
				return err
			}
		}
	}
	return nil
}

// checkUniformFieldPresence enforces that every entry in b.Entries
// agrees on which optional fields are present, since trun has only one
// presence mask (in its full-box flags) for the whole sample array.
func (b TrackRunBox) checkUniformFieldPresence() error {
	if len(b.Entries) == 0 {
		return nil
	}
	first := b.Entries[0]
	hasDuration := first.Duration != nil
	hasSize := first.Size != nil
	hasFlags := first.Flags != nil
	hasCTO := first.CompositionTimeOffset != nil
	for i, e := range b.Entries[1:] {
		if (e.Duration != nil) != hasDuration ||
			(e.Size != nil) != hasSize ||
			(e.Flags != nil) != hasFlags ||
			(e.CompositionTimeOffset != nil) != hasCTO {
			return errs.Newf(errs.InvalidInput, "trun entry %d has a different optional-field presence mask than entry 0", i+1)
		}
	}
	return nil
}

// MediaDataBox is the mdat box (ISO/IEC 14496-12 §8.1.1), a plain box
// whose payload is the raw sample bytes for one track's samples in this
// media segment.
type MediaDataBox struct{ Data []byte }

func (MediaDataBox) Type() isobmff.BoxType                { return isobmff.BoxType{'m', 'd', 'a', 't'} }
func (MediaDataBox) FullBoxHeader() *isobmff.FullBoxHeader { return nil }
func (b MediaDataBox) WritePayload(w io.Writer) error      { return writeAll(w, b.Data) }
