/*
NAME
  assembler.go

DESCRIPTION
  assembler.go implements the TS-to-fMP4 assembler: it drains an ESReader
  of every PES packet in one MPEG-TS clip containing one H.264 video
  elementary stream and one ADTS-AAC audio elementary stream, and builds
  the initialization segment and single media segment for it.

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
	"errors"
	"io"
	"sort"

	"github.com/ausocean/av/codec/aac"
	"github.com/ausocean/av/codec/avc"
	"github.com/ausocean/av/errs"
	"github.com/ausocean/av/fmp4"
	"github.com/ausocean/av/internal/logging"
)

// videoTimescale is the clock rate PTS/DTS values in a Transport Stream
// are always expressed in (ISO/IEC 13818-1 §2.4.3.6): 90kHz.
const videoTimescale = 90000

// ptsModulus is the 33-bit wrap point of the PTS/DTS counter.
const ptsModulus = uint64(1) << 33

// Fixed, parameter-free failures ToFmp4 can return.
var (
	ErrNoVideoStream            = errs.New(errs.InvalidInput, "no video stream found")
	ErrNoAudioStream            = errs.New(errs.InvalidInput, "no audio stream found")
	ErrInsufficientVideoSamples = errs.New(errs.InvalidInput, "at least two video samples are required to derive sample durations")
)

// Assembler accumulates PES packets from one TS clip and produces its
// fMP4 initialization and media segments.
type Assembler struct {
	log logging.Logger

	majorBrand       [4]byte
	compatibleBrands [][4]byte
	sequenceNumber   uint32

	videoConf   *avc.DecoderConfigurationRecord
	videoWidth  int
	videoHeight int
	videoPTS    []uint64
	videoDTS    []uint64
	videoData   [][]byte // one length-prefixed NAL stream per sample

	audioConf    *audioConfig
	audioSamples [][]byte
}

type audioConfig struct {
	profile                aac.Profile
	samplingFrequencyIndex uint8
	channelConfiguration   aac.ChannelConfiguration
	channels               int
	sampleRate             uint32
	objectTypeIndication   uint8
	asc                    [2]byte
}

// Option configures an Assembler.
type Option func(*Assembler)

// MajorBrand overrides the ftyp major_brand (default "isom").
func MajorBrand(brand [4]byte) Option {
	return func(a *Assembler) { a.majorBrand = brand }
}

// CompatibleBrands overrides the ftyp compatible_brands list (default none).
func CompatibleBrands(brands ...[4]byte) Option {
	return func(a *Assembler) { a.compatibleBrands = brands }
}

// SequenceNumber sets the moof mfhd sequence_number for the media segment
// this Assembler produces (default 1; must be nonzero).
func SequenceNumber(n uint32) Option {
	return func(a *Assembler) { a.sequenceNumber = n }
}

// NewAssembler returns an Assembler that logs via log (use
// logging.Discard for no logging).
func NewAssembler(log logging.Logger, opts ...Option) *Assembler {
	a := &Assembler{
		log:            log,
		majorBrand:     [4]byte{'i', 's', 'o', 'm'},
		sequenceNumber: 1,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// ToFmp4 drains reader of every PES packet in one TS clip and returns the
// initialization segment and the single media segment covering it.
func (a *Assembler) ToFmp4(reader ESReader) (fmp4.InitializationSegment, *fmp4.MediaSegment, error) {
	if err := a.readAll(reader); err != nil {
		return fmp4.InitializationSegment{}, nil, err
	}

	if a.videoConf == nil {
		return fmp4.InitializationSegment{}, nil, ErrNoVideoStream
	}
	if len(a.audioSamples) == 0 {
		return fmp4.InitializationSegment{}, nil, ErrNoAudioStream
	}

	videoDurs, videoCTOs, err := videoTiming(a.videoPTS, a.videoDTS)
	if err != nil {
		return fmp4.InitializationSegment{}, nil, err
	}
	var videoTotalDuration uint64
	for _, d := range videoDurs {
		videoTotalDuration += uint64(d)
	}
	startTime := int64(videoCTOs[0])

	audioConf := fmp4.AudioTrackConfig{
		Channels:             a.audioConf.channels,
		SampleRate:           a.audioConf.sampleRate,
		ObjectTypeIndication: a.audioConf.objectTypeIndication,
		AudioSpecificConfig:  a.audioConf.asc,
		Duration:             uint64(len(a.audioSamples)) * aac.SamplesPerFrame,
	}

	init, err := fmp4.NewInitializationSegment(*a.videoConf, a.videoWidth, a.videoHeight, videoTotalDuration, startTime, &audioConf)
	if err != nil {
		return fmp4.InitializationSegment{}, nil, err
	}
	init.Ftyp.MajorBrand = a.majorBrand
	init.Ftyp.CompatibleBrands = a.compatibleBrands

	media, err := a.buildMediaSegment(videoDurs, videoCTOs)
	if err != nil {
		return fmp4.InitializationSegment{}, nil, err
	}
	return init, media, nil
}

func (a *Assembler) readAll(reader ESReader) error {
	for {
		pkt, err := reader.ReadPESPacket()
		if err != nil {
			if errs.Is(err, errs.Other) && errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if err := a.feed(pkt); err != nil {
			return err
		}
	}
}

func (a *Assembler) feed(pkt PESPacket) error {
	switch {
	case pkt.IsVideo():
		return a.feedVideo(pkt)
	case pkt.IsAudio():
		return a.feedAudio(pkt)
	default:
		return errs.Newf(errs.InvalidInput, "PES stream_id 0x%02x is neither video nor audio", pkt.StreamID)
	}
}

func (a *Assembler) feedVideo(pkt PESPacket) error {
	if pkt.StreamType != StreamTypeH264 {
		return errs.Newf(errs.Unsupported, "video stream_type 0x%02x is not H.264", pkt.StreamType)
	}
	if !pkt.DataAlignmentIndicator {
		return errs.New(errs.Unsupported, "video PES packet without data_alignment_indicator")
	}
	if !pkt.HasPTS {
		return errs.New(errs.InvalidInput, "video PES packet without PTS")
	}

	nalUnits, err := avc.NalUnits(pkt.Data)
	if err != nil {
		return err
	}

	var sample []byte
	var sps, pps []byte
	for _, nal := range nalUnits {
		hdr, err := avc.ReadNalUnitHeader(nal)
		if err != nil {
			return err
		}
		switch hdr.Type {
		case avc.NalUnitTypeSPS:
			sps = nal
		case avc.NalUnitTypePPS:
			pps = nal
		}
		sample = appendLengthPrefixed(sample, nal)
	}

	if a.videoConf == nil {
		if sps == nil || pps == nil {
			return errs.New(errs.InvalidInput, "first video access unit has no SPS/PPS")
		}
		info, err := avc.ParseSPS(sps[1:])
		if err != nil {
			return err
		}
		conf := avc.DecoderConfigurationRecord{
			ProfileIdc:           info.ProfileIdc,
			ConstraintSetFlag:    info.ConstraintSetFlag,
			LevelIdc:             info.LevelIdc,
			SequenceParameterSet: sps,
			PictureParameterSet:  pps,
		}
		a.videoConf = &conf
		a.videoWidth = info.Width
		a.videoHeight = info.Height
		a.log.Info("parsed video stream parameters", "width", info.Width, "height", info.Height, "profile_idc", info.ProfileIdc)
	}

	dts := pkt.PTS
	if pkt.HasDTS {
		dts = pkt.DTS
	}
	a.videoPTS = append(a.videoPTS, pkt.PTS)
	a.videoDTS = append(a.videoDTS, dts)
	a.videoData = append(a.videoData, sample)
	return nil
}

func appendLengthPrefixed(dst []byte, nal []byte) []byte {
	var lenBuf [4]byte
	n := uint32(len(nal))
	lenBuf[0] = byte(n >> 24)
	lenBuf[1] = byte(n >> 16)
	lenBuf[2] = byte(n >> 8)
	lenBuf[3] = byte(n)
	dst = append(dst, lenBuf[:]...)
	dst = append(dst, nal...)
	return dst
}

func (a *Assembler) feedAudio(pkt PESPacket) error {
	if pkt.StreamType != StreamTypeAdtsAAC {
		return errs.Newf(errs.Unsupported, "audio stream_type 0x%02x is not ADTS-AAC", pkt.StreamType)
	}
	if !pkt.HasPTS {
		return errs.New(errs.InvalidInput, "audio PES packet without PTS")
	}

	// A PES payload may carry one or more back-to-back ADTS frames; each
	// becomes its own sample.
	data := pkt.Data
	for len(data) > 0 {
		header, payload, err := aac.ParseHeader(data)
		if err != nil {
			return err
		}

		if a.audioConf == nil {
			asc := header.AudioSpecificConfig()
			a.audioConf = &audioConfig{
				profile:                header.Profile,
				samplingFrequencyIndex: header.SamplingFrequencyIndex,
				channelConfiguration:   header.ChannelConfiguration,
				channels:               header.ChannelConfiguration.Channels(),
				sampleRate:             header.SamplingFrequency(),
				objectTypeIndication:   0x40, // MPEG-4 Audio, ISO/IEC 14496-1 Table 5
				asc:                    asc,
			}
			a.log.Info("parsed audio stream parameters", "channels", a.audioConf.channels, "sample_rate", a.audioConf.sampleRate)
		} else if header.Profile != a.audioConf.profile ||
			header.SamplingFrequencyIndex != a.audioConf.samplingFrequencyIndex ||
			header.ChannelConfiguration != a.audioConf.channelConfiguration {
			return errs.New(errs.InvalidInput, "ADTS header fields changed mid-stream")
		}

		a.audioSamples = append(a.audioSamples, payload)
		data = data[header.FrameLength:]
	}
	return nil
}

// videoTiming derives, per spec §4.3.4, each video sample's duration (in
// the 90kHz video timescale) and composition-time-offset from its PTS/DTS
// pair, given in decode order. It requires at least two samples, since a
// single sample's duration can't be derived from PTS deltas alone (spec
// §9's open question; this module takes the "require the caller to supply
// more than one sample" branch rather than guessing a trailing duration).
func videoTiming(pts, dts []uint64) ([]uint32, []int32, error) {
	n := len(pts)
	if n < 2 {
		return nil, nil, ErrInsufficientVideoSamples
	}

	ctos := make([]int32, n)
	for i := range pts {
		ctos[i] = int32(int64(pts[i]) - int64(dts[i]))
	}

	type pair struct {
		t uint64
		i int
	}
	firstPTS := pts[0]
	pairs := make([]pair, n)
	for i, p := range pts {
		var rebased uint64
		if p >= firstPTS {
			rebased = p - firstPTS
		} else {
			// The 33-bit PTS counter wrapped between firstPTS and p; adding
			// the modulus recovers a monotone presentation-order key (spec
			// §4.3.4 step 1), valid for streams spanning at most one wrap.
			rebased = p + ptsModulus - firstPTS
		}
		pairs[i] = pair{t: rebased, i: i}
	}
	sort.Slice(pairs, func(a, b int) bool { return pairs[a].t < pairs[b].t })

	durations := make([]uint32, n)
	for k := 1; k < n; k++ {
		durations[pairs[k].i] = uint32(pairs[k].t - pairs[k-1].t)
	}
	// sample[0] (decode order) always rebases to timestamp 0, so it is
	// always pairs[0] and never received a duration from the loop above;
	// step 4 assigns it explicitly instead.
	startTime := int64(ctos[0])
	if startTime < 0 {
		startTime = 0
	}
	durations[0] = uint32(startTime)

	return durations, ctos, nil
}

func (a *Assembler) buildMediaSegment(videoDurs []uint32, videoCTOs []int32) (*fmp4.MediaSegment, error) {
	// Per sample, video trun entries carry duration/size/composition-time-
	// offset (all vary per sample); sync-vs-non-sync is instead carried by
	// tfhd.default_sample_flags (non-sync) and trun.first_sample_flags
	// (sync), per the data model in spec §3 and §4.3.6.
	videoEntries := make([]fmp4.TrunEntry, len(a.videoData))
	var videoData []byte
	for i, sample := range a.videoData {
		size := uint32(len(sample))
		dur := videoDurs[i]
		cto := videoCTOs[i]
		videoEntries[i] = fmp4.TrunEntry{Duration: &dur, Size: &size, CompositionTimeOffset: &cto}
		videoData = append(videoData, sample...)
	}
	videoDefaultFlags := fmp4.NonSyncSampleFlags.ToUint32()
	videoFirstFlags := fmp4.SyncSampleFlags.ToUint32()

	// Audio trun entries carry only size; duration comes from
	// tfhd.default_sample_duration (spec §4.3.3/§4.3.6) and audio has no
	// key-frame distinction to encode via sample flags (spec §3).
	audioEntries := make([]fmp4.TrunEntry, len(a.audioSamples))
	var audioData []byte
	for i, sample := range a.audioSamples {
		size := uint32(len(sample))
		audioEntries[i] = fmp4.TrunEntry{Size: &size}
		audioData = append(audioData, sample...)
	}
	audioDefaultDuration := uint32(aac.SamplesPerFrame)

	moof := fmp4.MovieFragmentBox{
		Mfhd: fmp4.MovieFragmentHeaderBox{SequenceNumber: a.sequenceNumber},
		Traf: []fmp4.TrackFragmentBox{
			{
				Tfhd: fmp4.TrackFragmentHeaderBox{TrackID: 1, DefaultSampleFlags: &videoDefaultFlags},
				Tfdt: fmp4.TrackFragmentBaseMediaDecodeTimeBox{BaseMediaDecodeTime: 0},
				Trun: fmp4.TrackRunBox{FirstSampleFlags: &videoFirstFlags, Entries: videoEntries},
			},
			{
				Tfhd: fmp4.TrackFragmentHeaderBox{TrackID: 2, DefaultSampleDuration: &audioDefaultDuration},
				Tfdt: fmp4.TrackFragmentBaseMediaDecodeTimeBox{BaseMediaDecodeTime: 0},
				Trun: fmp4.TrackRunBox{Entries: audioEntries},
			},
		},
	}

	return &fmp4.MediaSegment{
		Moof: moof,
		Mdat: []fmp4.MediaDataBox{
			{Data: videoData},
			{Data: audioData},
		},
	}, nil
}
