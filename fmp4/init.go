/*
NAME
  init.go

DESCRIPTION
  init.go builds the initialization segment: the ftyp box and the full
  moov subtree (mvhd, one trak per track with tkhd/edts/mdia, and mvex).

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

	"github.com/ausocean/av/codec/avc"
	"github.com/ausocean/av/errs"
	"github.com/ausocean/av/isobmff"
)

// InitializationSegment is the ftyp+moov pair MSE expects as the first
// buffer appended to a SourceBuffer.
type InitializationSegment struct {
	Ftyp FileTypeBox
	Moov MovieBox
}

// WriteTo writes the complete initialization segment to w.
func (s InitializationSegment) WriteTo(w io.Writer) error {
	return isobmff.WriteBoxesTo(w, s.Ftyp, s.Moov)
}

// videoTimescale is the clock rate video samples are always expressed in:
// PTS/DTS values in an MPEG-TS are 90kHz (ISO/IEC 13818-1 §2.4.3.6), and
// this module derives video sample timing from them directly, so the
// video track's native timescale is always 90000.
const videoTimescale = 90000

// nextTrackIDUnused is the mvhd next_track_id sentinel meaning "no further
// tracks will ever be added" (ISO/IEC 14496-12 §8.2.2.3), which always
// holds here since this module emits a fixed, closed track set.
const nextTrackIDUnused = 0xffffffff

// ErrEmptyTrakBoxes is returned by MovieBox.WritePayload when asked to
// write a moov with no tracks, which this module never constructs itself
// but guards against since MovieBox is exported.
var ErrEmptyTrakBoxes = errs.New(errs.InvalidInput, "moov must contain at least one trak")

// NewInitializationSegment builds an initialization segment with one
// video track (from avcConf/width/height/videoDuration/videoStartTime)
// and, if audio is non-nil, one audio track. videoDuration is the sum of
// the video track's per-sample durations, in the 90kHz video timescale.
// videoStartTime is start_time(): the first video sample's
// composition-time-offset (or 0), which becomes the video track's edit
// list media_time so the renderer aligns the first decoded frame's
// composition offset against the media timeline (spec §4.3.5).
//
// mvhd's timescale and duration (and mehd's mirroring fragment_duration)
// are taken from whichever track's real-time duration is longer (spec
// §4.3.5 / testable property 4); each track's own tkhd duration is then
// expressed in that chosen movie timescale, while each mdhd keeps the
// track's native timescale.
func NewInitializationSegment(
	avcConf avc.DecoderConfigurationRecord, width, height int,
	videoDuration uint64, videoStartTime int64,
	audio *AudioTrackConfig,
) (InitializationSegment, error) {
	if width <= 0 || height <= 0 {
		return InitializationSegment{}, errs.New(errs.InvalidInput, "video width/height must be positive")
	}

	movieTimescale := uint32(videoTimescale)
	movieDuration := videoDuration
	if audio != nil && audio.SampleRate > 0 {
		videoSeconds := float64(videoDuration) / float64(videoTimescale)
		audioSeconds := float64(audio.Duration) / float64(audio.SampleRate)
		if audioSeconds > videoSeconds {
			movieTimescale = audio.SampleRate
			movieDuration = audio.Duration
		}
	}

	videoTrak := TrackBox{
		TrackID:   1,
		Duration:  scaleDuration(videoDuration, videoTimescale, movieTimescale),
		IsVideo:   true,
		Width:     width,
		Height:    height,
		MediaTime: videoStartTime,
		Mdia: MediaBox{
			Timescale: videoTimescale,
			Duration:  videoDuration,
			Hdlr:      HandlerBox{HandlerType: [4]byte{'v', 'i', 'd', 'e'}, Name: "VideoHandler"},
			Minf: MediaInformationBox{
				IsVideo: true,
				Stbl: SampleTableBox{
					Stsd: SampleDescriptionBox{
						Entry: AvcSampleEntry{
							Width:  uint16(width),
							Height: uint16(height),
							AvcC:   AvcConfigurationBox{Config: avcConf},
						},
					},
				},
			},
		},
	}

	traks := []TrackBox{videoTrak}
	trexs := []TrackExtendsBox{{TrackID: 1}}

	if audio != nil {
		audioTrak := TrackBox{
			TrackID:   2,
			Duration:  scaleDuration(audio.Duration, audio.SampleRate, movieTimescale),
			IsVideo:   false,
			MediaTime: 0,
			Mdia: MediaBox{
				Timescale: audio.SampleRate,
				Duration:  audio.Duration,
				Hdlr:      HandlerBox{HandlerType: [4]byte{'s', 'o', 'u', 'n'}, Name: "SoundHandler"},
				Minf: MediaInformationBox{
					IsVideo: false,
					Stbl: SampleTableBox{
						Stsd: SampleDescriptionBox{
							Entry: Mp4aSampleEntry{
								ChannelCount: uint16(audio.Channels),
								SampleRate:   audio.SampleRate,
								Esds: EsdsBox{
									ObjectTypeIndication: audio.ObjectTypeIndication,
									AudioSpecificConfig:  audio.AudioSpecificConfig,
								},
							},
						},
					},
				},
			},
		}
		traks = append(traks, audioTrak)
		trexs = append(trexs, TrackExtendsBox{TrackID: 2})
	}

	return InitializationSegment{
		Ftyp: FileTypeBox{
			MajorBrand:   [4]byte{'i', 's', 'o', 'm'},
			MinorVersion: 512,
		},
		Moov: MovieBox{
			Mvhd: MovieHeaderBox{Timescale: movieTimescale, Duration: movieDuration, NextTrackID: nextTrackIDUnused},
			Trak: traks,
			Mvex: MovieExtendsBox{Trex: trexs, Mehd: MovieExtendsHeaderBox{FragmentDuration: movieDuration}},
		},
	}, nil
}

// scaleDuration converts a duration of ticks in the from timescale to the
// equivalent duration in the to timescale, rounding to the nearest tick.
func scaleDuration(ticks uint64, from, to uint32) uint64 {
	if from == to || ticks == 0 {
		return ticks
	}
	return (ticks*uint64(to) + uint64(from)/2) / uint64(from)
}

// AudioTrackConfig describes the audio track NewInitializationSegment
// should add.
type AudioTrackConfig struct {
	Channels             int
	SampleRate           uint32
	ObjectTypeIndication uint8 // AAC object type, per esds decoder-specific info
	AudioSpecificConfig  [2]byte
	Duration             uint64 // total audio duration, in SampleRate ticks
}

// FileTypeBox is the ftyp box (ISO/IEC 14496-12 §4.3).
type FileTypeBox struct {
	MajorBrand       [4]byte
	MinorVersion     uint32
	CompatibleBrands [][4]byte
}

func (FileTypeBox) Type() isobmff.BoxType                { return isobmff.BoxType{'f', 't', 'y', 'p'} }
func (FileTypeBox) FullBoxHeader() *isobmff.FullBoxHeader { return nil }
func (b FileTypeBox) WritePayload(w io.Writer) error {
	if err := writeAll(w, b.MajorBrand[:]); err != nil {
		return err
	}
	if err := writeU32(w, b.MinorVersion); err != nil {
		return err
	}
	for _, brand := range b.CompatibleBrands {
		if err := writeAll(w, brand[:]); err != nil {
			return err
		}
	}
	return nil
}

// MovieBox is the moov box.
type MovieBox struct {
	Mvhd MovieHeaderBox
	Trak []TrackBox
	Mvex MovieExtendsBox
}

func (MovieBox) Type() isobmff.BoxType                { return isobmff.BoxType{'m', 'o', 'o', 'v'} }
func (MovieBox) FullBoxHeader() *isobmff.FullBoxHeader { return nil }
func (b MovieBox) WritePayload(w io.Writer) error {
	if len(b.Trak) == 0 {
		return ErrEmptyTrakBoxes
	}
	if err := isobmff.WriteBoxTo(w, b.Mvhd); err != nil {
		return err
	}
	for _, t := range b.Trak {
		if err := isobmff.WriteBoxTo(w, t); err != nil {
			return err
		}
	}
	return isobmff.WriteBoxTo(w, b.Mvex)
}

// MovieHeaderBox is the mvhd box (ISO/IEC 14496-12 §8.2.2), written as a
// version-1 full box (64-bit duration) matching the original's fmp4
// writer.
type MovieHeaderBox struct {
	Timescale   uint32
	Duration    uint64
	NextTrackID uint32
}

func (MovieHeaderBox) Type() isobmff.BoxType { return isobmff.BoxType{'m', 'v', 'h', 'd'} }
func (MovieHeaderBox) FullBoxHeader() *isobmff.FullBoxHeader {
	return &isobmff.FullBoxHeader{Version: 1}
}
func (b MovieHeaderBox) WritePayload(w io.Writer) error {
	if err := writeU64(w, 0); err != nil { // creation_time
		return err
	}
	if err := writeU64(w, 0); err != nil { // modification_time
		return err
	}
	if err := writeU32(w, b.Timescale); err != nil {
		return err
	}
	if err := writeU64(w, b.Duration); err != nil {
		return err
	}
	if err := writeI32(w, 0x00010000); err != nil { // rate, 16.16 fixed point, 1.0
		return err
	}
	if err := writeI16(w, 0x0100); err != nil { // volume, 8.8 fixed point, 1.0
		return err
	}
	if err := writeZeroes(w, 2); err != nil { // reserved
		return err
	}
	if err := writeZeroes(w, 4*2); err != nil { // reserved
		return err
	}
	for _, v := range identityMatrix {
		if err := writeI32(w, v); err != nil {
			return err
		}
	}
	if err := writeZeroes(w, 4*6); err != nil { // pre_defined
		return err
	}
	return writeU32(w, b.NextTrackID)
}

var identityMatrix = [9]int32{0x00010000, 0, 0, 0, 0x00010000, 0, 0, 0, 0x40000000}

// TrackBox is the trak box (ISO/IEC 14496-12 §8.3.1).
type TrackBox struct {
	TrackID   uint32
	Duration  uint64 // in the movie (mvhd) timescale, not this track's own
	IsVideo   bool
	Width     int   // display width, 0 for audio
	Height    int   // display height, 0 for audio
	MediaTime int64 // edts/elst media_time; the video track's start_time(), 0 for audio
	Mdia      MediaBox
}

func (TrackBox) Type() isobmff.BoxType                { return isobmff.BoxType{'t', 'r', 'a', 'k'} }
func (TrackBox) FullBoxHeader() *isobmff.FullBoxHeader { return nil }
func (b TrackBox) WritePayload(w io.Writer) error {
	tkhd := TrackHeaderBox{
		TrackID:  b.TrackID,
		Duration: b.Duration,
		IsVideo:  b.IsVideo,
		Width:    b.Width,
		Height:   b.Height,
	}
	if err := isobmff.WriteBoxTo(w, tkhd); err != nil {
		return err
	}
	// SegmentDuration 0 means "spans all subsequent media" (spec §4.3.5);
	// MediaTime carries the composition-offset alignment instead.
	edts := EditBox{Elst: EditListBox{Entries: []EditListEntry{{
		SegmentDuration:   0,
		MediaTime:         b.MediaTime,
		MediaRateInteger:  1,
		MediaRateFraction: 0,
	}}}}
	if err := isobmff.WriteBoxTo(w, edts); err != nil {
		return err
	}
	return isobmff.WriteBoxTo(w, b.Mdia)
}

// TrackHeaderBox is the tkhd box (ISO/IEC 14496-12 §8.3.2), written as a
// version-1 full box.
type TrackHeaderBox struct {
	TrackID  uint32
	Duration uint64
	IsVideo  bool
	Width    int
	Height   int
}

func (TrackHeaderBox) Type() isobmff.BoxType { return isobmff.BoxType{'t', 'k', 'h', 'd'} }
func (TrackHeaderBox) FullBoxHeader() *isobmff.FullBoxHeader {
	const (
		trackEnabled = 0x1
		trackInMovie = 0x2
	)
	return &isobmff.FullBoxHeader{Version: 1, Flags: trackEnabled | trackInMovie}
}
func (b TrackHeaderBox) WritePayload(w io.Writer) error {
	if err := writeU64(w, 0); err != nil { // creation_time
		return err
	}
	if err := writeU64(w, 0); err != nil { // modification_time
		return err
	}
	if err := writeU32(w, b.TrackID); err != nil {
		return err
	}
	if err := writeU32(w, 0); err != nil { // reserved
		return err
	}
	if err := writeU64(w, b.Duration); err != nil {
		return err
	}
	if err := writeZeroes(w, 4*2); err != nil { // reserved
		return err
	}
	if err := writeI16(w, 0); err != nil { // layer
		return err
	}
	if err := writeI16(w, 0); err != nil { // alternate_group
		return err
	}
	volume := int16(0)
	if !b.IsVideo {
		volume = 0x0100
	}
	if err := writeI16(w, volume); err != nil {
		return err
	}
	if err := writeZeroes(w, 2); err != nil { // reserved
		return err
	}
	for _, v := range identityMatrix {
		if err := writeI32(w, v); err != nil {
			return err
		}
	}
	if err := writeU32(w, uint32(b.Width)<<16); err != nil {
		return err
	}
	return writeU32(w, uint32(b.Height)<<16)
}

// EditBox is the edts box (ISO/IEC 14496-12 §8.6.5).
type EditBox struct{ Elst EditListBox }

func (EditBox) Type() isobmff.BoxType                { return isobmff.BoxType{'e', 'd', 't', 's'} }
func (EditBox) FullBoxHeader() *isobmff.FullBoxHeader { return nil }
func (b EditBox) WritePayload(w io.Writer) error      { return isobmff.WriteBoxTo(w, b.Elst) }

// EditListEntry is one entry of an elst box.
type EditListEntry struct {
	SegmentDuration   uint64
	MediaTime         int64
	MediaRateInteger  int16
	MediaRateFraction int16
}

// EditListBox is the elst box (ISO/IEC 14496-12 §8.6.6), written as a
// version-1 full box (64-bit segment_duration/media_time).
type EditListBox struct{ Entries []EditListEntry }

func (EditListBox) Type() isobmff.BoxType { return isobmff.BoxType{'e', 'l', 's', 't'} }
func (EditListBox) FullBoxHeader() *isobmff.FullBoxHeader {
	return &isobmff.FullBoxHeader{Version: 1}
}
func (b EditListBox) WritePayload(w io.Writer) error {
	if err := writeU32(w, uint32(len(b.Entries))); err != nil {
		return err
	}
	for _, e := range b.Entries {
		if err := writeU64(w, e.SegmentDuration); err != nil {
			return err
		}
		if err := writeU64(w, uint64(e.MediaTime)); err != nil {
			return err
		}
		if err := writeI16(w, e.MediaRateInteger); err != nil {
			return err
		}
		if err := writeI16(w, e.MediaRateFraction); err != nil {
			return err
		}
	}
	return nil
}

// MediaBox is the mdia box (ISO/IEC 14496-12 §8.4.1).
type MediaBox struct {
	Timescale uint32
	Duration  uint64
	Hdlr      HandlerBox
	Minf      MediaInformationBox
}

func (MediaBox) Type() isobmff.BoxType                { return isobmff.BoxType{'m', 'd', 'i', 'a'} }
func (MediaBox) FullBoxHeader() *isobmff.FullBoxHeader { return nil }
func (b MediaBox) WritePayload(w io.Writer) error {
	mdhd := MediaHeaderBox{Timescale: b.Timescale, Duration: b.Duration}
	if err := isobmff.WriteBoxTo(w, mdhd); err != nil {
		return err
	}
	if err := isobmff.WriteBoxTo(w, b.Hdlr); err != nil {
		return err
	}
	return isobmff.WriteBoxTo(w, b.Minf)
}

// MediaHeaderBox is the mdhd box (ISO/IEC 14496-12 §8.4.2), version 1.
type MediaHeaderBox struct {
	Timescale uint32
	Duration  uint64
}

func (MediaHeaderBox) Type() isobmff.BoxType { return isobmff.BoxType{'m', 'd', 'h', 'd'} }
func (MediaHeaderBox) FullBoxHeader() *isobmff.FullBoxHeader {
	return &isobmff.FullBoxHeader{Version: 1}
}
func (b MediaHeaderBox) WritePayload(w io.Writer) error {
	if err := writeU64(w, 0); err != nil { // creation_time
		return err
	}
	if err := writeU64(w, 0); err != nil { // modification_time
		return err
	}
	if err := writeU32(w, b.Timescale); err != nil {
		return err
	}
	if err := writeU64(w, b.Duration); err != nil {
		return err
	}
	const undetermined = 21956 // packed ISO-639-2/T "und"
	if err := writeU16(w, undetermined); err != nil {
		return err
	}
	return writeU16(w, 0) // pre_defined
}

// HandlerBox is the hdlr box (ISO/IEC 14496-12 §8.4.3).
type HandlerBox struct {
	HandlerType [4]byte
	Name        string
}

func (HandlerBox) Type() isobmff.BoxType                { return isobmff.BoxType{'h', 'd', 'l', 'r'} }
func (HandlerBox) FullBoxHeader() *isobmff.FullBoxHeader { return &isobmff.FullBoxHeader{} }
func (b HandlerBox) WritePayload(w io.Writer) error {
	if err := writeU32(w, 0); err != nil { // pre_defined
		return err
	}
	if err := writeAll(w, b.HandlerType[:]); err != nil {
		return err
	}
	if err := writeZeroes(w, 4*3); err != nil { // reserved
		return err
	}
	if err := writeAll(w, []byte(b.Name)); err != nil {
		return err
	}
	return writeU8(w, 0) // name's terminating NUL
}

// MediaInformationBox is the minf box (ISO/IEC 14496-12 §8.4.4).
type MediaInformationBox struct {
	IsVideo bool
	Stbl    SampleTableBox
}

func (MediaInformationBox) Type() isobmff.BoxType                { return isobmff.BoxType{'m', 'i', 'n', 'f'} }
func (MediaInformationBox) FullBoxHeader() *isobmff.FullBoxHeader { return nil }
func (b MediaInformationBox) WritePayload(w io.Writer) error {
	if b.IsVideo {
		if err := isobmff.WriteBoxTo(w, VideoMediaHeaderBox{}); err != nil {
			return err
		}
	} else {
		if err := isobmff.WriteBoxTo(w, SoundMediaHeaderBox{}); err != nil {
			return err
		}
	}
	if err := isobmff.WriteBoxTo(w, DataInformationBox{}); err != nil {
		return err
	}
	return isobmff.WriteBoxTo(w, b.Stbl)
}

// VideoMediaHeaderBox is the vmhd box (ISO/IEC 14496-12 §12.1.2). Its
// flags field is mandatorily 1, unlike every other full box here.
type VideoMediaHeaderBox struct{}

func (VideoMediaHeaderBox) Type() isobmff.BoxType { return isobmff.BoxType{'v', 'm', 'h', 'd'} }
func (VideoMediaHeaderBox) FullBoxHeader() *isobmff.FullBoxHeader {
	return &isobmff.FullBoxHeader{Flags: 1}
}
func (VideoMediaHeaderBox) WritePayload(w io.Writer) error {
	if err := writeU16(w, 0); err != nil { // graphicsmode
		return err
	}
	return writeZeroes(w, 2*3) // opcolor
}

// SoundMediaHeaderBox is the smhd box (ISO/IEC 14496-12 §12.2.2).
type SoundMediaHeaderBox struct{}

func (SoundMediaHeaderBox) Type() isobmff.BoxType                { return isobmff.BoxType{'s', 'm', 'h', 'd'} }
func (SoundMediaHeaderBox) FullBoxHeader() *isobmff.FullBoxHeader { return &isobmff.FullBoxHeader{} }
func (SoundMediaHeaderBox) WritePayload(w io.Writer) error {
	if err := writeI16(w, 0); err != nil { // balance
		return err
	}
	return writeZeroes(w, 2) // reserved
}

// DataInformationBox is the dinf box (ISO/IEC 14496-12 §8.7.1).
type DataInformationBox struct{}

func (DataInformationBox) Type() isobmff.BoxType                { return isobmff.BoxType{'d', 'i', 'n', 'f'} }
func (DataInformationBox) FullBoxHeader() *isobmff.FullBoxHeader { return nil }
func (DataInformationBox) WritePayload(w io.Writer) error {
	return isobmff.WriteBoxTo(w, DataReferenceBox{})
}

// DataReferenceBox is the dref box (ISO/IEC 14496-12 §8.7.2), containing a
// single self-contained "url " entry.
type DataReferenceBox struct{}

func (DataReferenceBox) Type() isobmff.BoxType                { return isobmff.BoxType{'d', 'r', 'e', 'f'} }
func (DataReferenceBox) FullBoxHeader() *isobmff.FullBoxHeader { return &isobmff.FullBoxHeader{} }
func (DataReferenceBox) WritePayload(w io.Writer) error {
	if err := writeU32(w, 1); err != nil { // entry_count
		return err
	}
	return isobmff.WriteBoxTo(w, DataEntryUrlBox{})
}

// DataEntryUrlBox is the "url " box, self-contained (flags=1, no
// location string), meaning media data is found in the same file/stream.
type DataEntryUrlBox struct{}

func (DataEntryUrlBox) Type() isobmff.BoxType { return isobmff.BoxType{'u', 'r', 'l', ' '} }
func (DataEntryUrlBox) FullBoxHeader() *isobmff.FullBoxHeader {
	return &isobmff.FullBoxHeader{Flags: 1}
}
func (DataEntryUrlBox) WritePayload(io.Writer) error { return nil }

// SampleTableBox is the stbl box (ISO/IEC 14496-12 §8.5.1). Since this
// module only ever emits empty movie-fragment-relative tracks, stts/stsc
// /stsz/stco all carry zero entries; all sample timing/location comes
// from the moof/traf/trun boxes of each media segment instead.
type SampleTableBox struct{ Stsd SampleDescriptionBox }

func (SampleTableBox) Type() isobmff.BoxType                { return isobmff.BoxType{'s', 't', 'b', 'l'} }
func (SampleTableBox) FullBoxHeader() *isobmff.FullBoxHeader { return nil }
func (b SampleTableBox) WritePayload(w io.Writer) error {
	return isobmff.WriteBoxesTo(w,
		b.Stsd,
		emptySampleTableBox{kind: isobmff.BoxType{'s', 't', 't', 's'}},
		emptySampleTableBox{kind: isobmff.BoxType{'s', 't', 's', 'c'}},
		emptySampleSizeBox{},
		emptySampleTableBox{kind: isobmff.BoxType{'s', 't', 'c', 'o'}},
	)
}

// emptySampleTableBox writes the common "version/flags + entry_count=0"
// shape shared by stts/stsc/stco.
type emptySampleTableBox struct{ kind isobmff.BoxType }

func (b emptySampleTableBox) Type() isobmff.BoxType                { return b.kind }
func (emptySampleTableBox) FullBoxHeader() *isobmff.FullBoxHeader { return &isobmff.FullBoxHeader{} }
func (emptySampleTableBox) WritePayload(w io.Writer) error         { return writeU32(w, 0) }

// emptySampleSizeBox is stsz, which carries an extra sample_size field
// before the entry count.
type emptySampleSizeBox struct{}

func (emptySampleSizeBox) Type() isobmff.BoxType                { return isobmff.BoxType{'s', 't', 's', 'z'} }
func (emptySampleSizeBox) FullBoxHeader() *isobmff.FullBoxHeader { return &isobmff.FullBoxHeader{} }
func (emptySampleSizeBox) WritePayload(w io.Writer) error {
	if err := writeU32(w, 0); err != nil { // sample_size
		return err
	}
	return writeU32(w, 0) // sample_count
}

// SampleEntry is implemented by AvcSampleEntry and Mp4aSampleEntry.
type SampleEntry interface {
	isobmff.Box
}

// SampleDescriptionBox is the stsd box (ISO/IEC 14496-12 §8.5.2),
// carrying exactly one sample entry (this module emits one coding per
// track).
type SampleDescriptionBox struct{ Entry SampleEntry }

func (SampleDescriptionBox) Type() isobmff.BoxType                { return isobmff.BoxType{'s', 't', 's', 'd'} }
func (SampleDescriptionBox) FullBoxHeader() *isobmff.FullBoxHeader { return &isobmff.FullBoxHeader{} }
func (b SampleDescriptionBox) WritePayload(w io.Writer) error {
	if err := writeU32(w, 1); err != nil { // entry_count
		return err
	}
	return isobmff.WriteBoxTo(w, b.Entry)
}

// sampleEntryHeader writes the 8-byte SampleEntry header (ISO/IEC
// 14496-12 §8.5.2.2) common to avc1/mp4a: 6 reserved bytes then
// data_reference_index.
func sampleEntryHeader(w io.Writer) error {
	if err := writeZeroes(w, 6); err != nil {
		return err
	}
	return writeU16(w, 1) // data_reference_index
}

// AvcSampleEntry is the avc1 VisualSampleEntry (ISO/IEC 14496-15 §5.3.4).
type AvcSampleEntry struct {
	Width, Height uint16
	AvcC          AvcConfigurationBox
}

func (AvcSampleEntry) Type() isobmff.BoxType                { return isobmff.BoxType{'a', 'v', 'c', '1'} }
func (AvcSampleEntry) FullBoxHeader() *isobmff.FullBoxHeader { return nil }
func (b AvcSampleEntry) WritePayload(w io.Writer) error {
	if err := sampleEntryHeader(w); err != nil {
		return err
	}
	if err := writeZeroes(w, 2*8); err != nil { // pre_defined/reserved
		return err
	}
	if err := writeU16(w, b.Width); err != nil {
		return err
	}
	if err := writeU16(w, b.Height); err != nil {
		return err
	}
	if err := writeU32(w, 0x00480000); err != nil { // horizresolution, 72 dpi
		return err
	}
	if err := writeU32(w, 0x00480000); err != nil { // vertresolution, 72 dpi
		return err
	}
	if err := writeU32(w, 0); err != nil { // reserved
		return err
	}
	if err := writeU16(w, 1); err != nil { // frame_count
		return err
	}
	if err := writeZeroes(w, 32); err != nil { // compressorname
		return err
	}
	if err := writeU16(w, 0x0018); err != nil { // depth
		return err
	}
	if err := writeI16(w, -1); err != nil { // pre_defined
		return err
	}
	return isobmff.WriteBoxTo(w, b.AvcC)
}

// AvcConfigurationBox is the avcC box (ISO/IEC 14496-15 §5.2.4), a plain
// box whose payload is the AVCDecoderConfigurationRecord.
type AvcConfigurationBox struct{ Config avc.DecoderConfigurationRecord }

func (AvcConfigurationBox) Type() isobmff.BoxType                { return isobmff.BoxType{'a', 'v', 'c', 'C'} }
func (AvcConfigurationBox) FullBoxHeader() *isobmff.FullBoxHeader { return nil }
func (b AvcConfigurationBox) WritePayload(w io.Writer) error {
	_, err := b.Config.WriteTo(w)
	return err
}

// Mp4aSampleEntry is the mp4a AudioSampleEntry (ISO/IEC 14496-14 §6.6,
// ISO/IEC 14496-12 §12.2.3).
type Mp4aSampleEntry struct {
	ChannelCount uint16
	SampleRate   uint32 // Hz; written as a 16.16 fixed-point value per ISO BMFF
	Esds         EsdsBox
}

func (Mp4aSampleEntry) Type() isobmff.BoxType                { return isobmff.BoxType{'m', 'p', '4', 'a'} }
func (Mp4aSampleEntry) FullBoxHeader() *isobmff.FullBoxHeader { return nil }
func (b Mp4aSampleEntry) WritePayload(w io.Writer) error {
	if err := sampleEntryHeader(w); err != nil {
		return err
	}
	if err := writeZeroes(w, 4*2); err != nil { // reserved
		return err
	}
	if err := writeU16(w, b.ChannelCount); err != nil {
		return err
	}
	if err := writeU16(w, 16); err != nil { // samplesize
		return err
	}
	if err := writeZeroes(w, 4); err != nil { // pre_defined/reserved
		return err
	}
	if err := writeU32(w, b.SampleRate<<16); err != nil { // 16.16 fixed point
		return err
	}
	return isobmff.WriteBoxTo(w, b.Esds)
}

// EsdsBox is the esds box (ISO/IEC 14496-14 §5.6), the 4-descriptor
// nesting (ES / DecoderConfig / DecoderSpecificInfo / SLConfig) an AAC
// mp4a sample entry requires.
type EsdsBox struct {
	ObjectTypeIndication uint8 // 0x40 = MPEG-4 Audio
	AudioSpecificConfig  [2]byte
}

func (EsdsBox) Type() isobmff.BoxType                { return isobmff.BoxType{'e', 's', 'd', 's'} }
func (EsdsBox) FullBoxHeader() *isobmff.FullBoxHeader { return &isobmff.FullBoxHeader{} }
func (b EsdsBox) WritePayload(w io.Writer) error {
	const (
		esDescrTag             = 0x03
		decoderConfigDescrTag  = 0x04
		decSpecificInfoTag     = 0x05
		slConfigDescrTag       = 0x06
	)
	if err := writeU8(w, esDescrTag); err != nil {
		return err
	}
	if err := writeU8(w, 25); err != nil { // descriptor length
		return err
	}
	if err := writeU16(w, 0); err != nil { // ES_ID
		return err
	}
	if err := writeU8(w, 0); err != nil { // flags
		return err
	}

	if err := writeU8(w, decoderConfigDescrTag); err != nil {
		return err
	}
	if err := writeU8(w, 17); err != nil {
		return err
	}
	if err := writeU8(w, b.ObjectTypeIndication); err != nil {
		return err
	}
	if err := writeU8(w, (5<<2)|1); err != nil { // streamType=audio, upStream=0, reserved=1
		return err
	}
	if err := writeU24(w, 0); err != nil { // bufferSizeDB
		return err
	}
	if err := writeU32(w, 0); err != nil { // maxBitrate
		return err
	}
	if err := writeU32(w, 0); err != nil { // avgBitrate
		return err
	}

	if err := writeU8(w, decSpecificInfoTag); err != nil {
		return err
	}
	if err := writeU8(w, 2); err != nil {
		return err
	}
	if err := writeAll(w, b.AudioSpecificConfig[:]); err != nil {
		return err
	}

	if err := writeU8(w, slConfigDescrTag); err != nil {
		return err
	}
	if err := writeU8(w, 1); err != nil {
		return err
	}
	return writeU8(w, 2) // predefined = reserved for use in MP4
}

// MovieExtendsBox is the mvex box (ISO/IEC 14496-12 §8.8.1).
type MovieExtendsBox struct {
	Mehd MovieExtendsHeaderBox
	Trex []TrackExtendsBox
}

func (MovieExtendsBox) Type() isobmff.BoxType                { return isobmff.BoxType{'m', 'v', 'e', 'x'} }
func (MovieExtendsBox) FullBoxHeader() *isobmff.FullBoxHeader { return nil }
func (b MovieExtendsBox) WritePayload(w io.Writer) error {
	if err := isobmff.WriteBoxTo(w, b.Mehd); err != nil {
		return err
	}
	for _, t := range b.Trex {
		if err := isobmff.WriteBoxTo(w, t); err != nil {
			return err
		}
	}
	return nil
}

// MovieExtendsHeaderBox is the mehd box (ISO/IEC 14496-12 §8.8.2),
// version 1, mirroring mvhd's duration: this module always knows the
// full presentation length up front, since it converts one complete clip
// into a single media segment rather than appending fragments over time.
type MovieExtendsHeaderBox struct{ FragmentDuration uint64 }

func (MovieExtendsHeaderBox) Type() isobmff.BoxType { return isobmff.BoxType{'m', 'e', 'h', 'd'} }
func (MovieExtendsHeaderBox) FullBoxHeader() *isobmff.FullBoxHeader {
	return &isobmff.FullBoxHeader{Version: 1}
}
func (b MovieExtendsHeaderBox) WritePayload(w io.Writer) error {
	return writeU64(w, b.FragmentDuration)
}

// TrackExtendsBox is the trex box (ISO/IEC 14496-12 §8.8.3), giving the
// per-fragment defaults every traf in this module overrides explicitly
// via tfhd, so all default_* fields here are zero/one placeholders.
type TrackExtendsBox struct{ TrackID uint32 }

func (TrackExtendsBox) Type() isobmff.BoxType                { return isobmff.BoxType{'t', 'r', 'e', 'x'} }
func (TrackExtendsBox) FullBoxHeader() *isobmff.FullBoxHeader { return &isobmff.FullBoxHeader{} }
func (b TrackExtendsBox) WritePayload(w io.Writer) error {
	if err := writeU32(w, b.TrackID); err != nil {
		return err
	}
	if err := writeU32(w, 1); err != nil { // default_sample_description_index
		return err
	}
	if err := writeU32(w, 0); err != nil { // default_sample_duration
		return err
	}
	if err := writeU32(w, 0); err != nil { // default_sample_size
		return err
	}
	return writeU32(w, 0) // default_sample_flags
}
