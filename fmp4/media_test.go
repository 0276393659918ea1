/*
NAME
  media_test.go

DESCRIPTION
  media_test.go contains testing for functionality found in media.go.

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
	"bytes"
	"testing"

	"github.com/ausocean/av/errs"
	"github.com/ausocean/av/isobmff"
)

func TestSampleFlagsToUint32(t *testing.T) {
	if got, want := SyncSampleFlags.ToUint32(), uint32(2<<24); got != want {
		t.Errorf("SyncSampleFlags.ToUint32() = %#x, want %#x", got, want)
	}
	want := uint32(1<<24) | 1<<16
	if got := NonSyncSampleFlags.ToUint32(); got != want {
		t.Errorf("NonSyncSampleFlags.ToUint32() = %#x, want %#x", got, want)
	}
}

func TestTrackRunBoxCheckUniformFieldPresence(t *testing.T) {
	size1, size2 := uint32(10), uint32(20)
	var dur uint32 = 3000

	uniform := TrackRunBox{Entries: []TrunEntry{{Size: &size1}, {Size: &size2}}}
	if err := uniform.checkUniformFieldPresence(); err != nil {
		t.Errorf("checkUniformFieldPresence() unexpected error: %v", err)
	}

	mixed := TrackRunBox{Entries: []TrunEntry{{Size: &size1}, {Size: &size2, Duration: &dur}}}
	if err := mixed.checkUniformFieldPresence(); !errs.Is(err, errs.InvalidInput) {
		t.Errorf("checkUniformFieldPresence() error = %v, want kind %v", err, errs.InvalidInput)
	}
}

func TestMovieFragmentHeaderBoxRejectsZeroSequenceNumber(t *testing.T) {
	var buf bytes.Buffer
	err := MovieFragmentHeaderBox{SequenceNumber: 0}.WritePayload(&buf)
	if !errs.Is(err, errs.InvalidInput) {
		t.Fatalf("WritePayload() error = %v, want kind %v", err, errs.InvalidInput)
	}
}

func TestMovieFragmentBoxWritePayloadRejectsEmptyTraf(t *testing.T) {
	var buf bytes.Buffer
	err := MovieFragmentBox{}.WritePayload(&buf)
	if !errs.Is(err, errs.InvalidInput) {
		t.Fatalf("WritePayload() error = %v, want kind %v", err, errs.InvalidInput)
	}
}

func TestMediaSegmentWriteToRejectsEmptyMdat(t *testing.T) {
	seg := &MediaSegment{Moof: MovieFragmentBox{Mfhd: MovieFragmentHeaderBox{SequenceNumber: 1}}}
	if err := seg.WriteTo(&bytes.Buffer{}); !errs.Is(err, errs.InvalidInput) {
		t.Fatalf("WriteTo() error = %v, want kind %v", err, errs.InvalidInput)
	}
}

func TestMediaSegmentFixupDataOffsetsMismatchedCounts(t *testing.T) {
	seg := &MediaSegment{
		Moof: MovieFragmentBox{Traf: []TrackFragmentBox{{}, {}}},
		Mdat: []MediaDataBox{{}},
	}
	if err := seg.fixupDataOffsets(); !errs.Is(err, errs.InvalidInput) {
		t.Fatalf("fixupDataOffsets() error = %v, want kind %v", err, errs.InvalidInput)
	}
}

func TestMediaSegmentFixupDataOffsetsSingleTrack(t *testing.T) {
	size := uint32(4)
	seg := &MediaSegment{
		Moof: MovieFragmentBox{
			Mfhd: MovieFragmentHeaderBox{SequenceNumber: 1},
			Traf: []TrackFragmentBox{{
				Tfhd: TrackFragmentHeaderBox{TrackID: 1},
				Trun: TrackRunBox{Entries: []TrunEntry{{Size: &size}}},
			}},
		},
		Mdat: []MediaDataBox{{Data: []byte{1, 2, 3, 4}}},
	}
	if err := seg.fixupDataOffsets(); err != nil {
		t.Fatalf("fixupDataOffsets() unexpected error: %v", err)
	}
	got := seg.Moof.Traf[0].Trun.DataOffset
	if got == nil {
		t.Fatal("fixupDataOffsets(): DataOffset left nil")
	}
	moofSize, err := isobmff.BoxSize(seg.Moof)
	if err != nil {
		t.Fatalf("BoxSize(Moof) unexpected error: %v", err)
	}
	if want := int32(moofSize) + 8; *got != want {
		t.Errorf("DataOffset = %d, want %d (moof size %d + mdat header)", *got, want, moofSize)
	}
}

func TestMediaSegmentFixupDataOffsetsTwoTracks(t *testing.T) {
	videoSize, audioSize := uint32(100), uint32(10)
	seg := &MediaSegment{
		Moof: MovieFragmentBox{
			Mfhd: MovieFragmentHeaderBox{SequenceNumber: 1},
			Traf: []TrackFragmentBox{
				{
					Tfhd: TrackFragmentHeaderBox{TrackID: 1},
					Trun: TrackRunBox{Entries: []TrunEntry{{Size: &videoSize}}},
				},
				{
					Tfhd: TrackFragmentHeaderBox{TrackID: 2},
					Trun: TrackRunBox{Entries: []TrunEntry{{Size: &audioSize}}},
				},
			},
		},
		Mdat: []MediaDataBox{
			{Data: make([]byte, 100)},
			{Data: make([]byte, 10)},
		},
	}
	if err := seg.fixupDataOffsets(); err != nil {
		t.Fatalf("fixupDataOffsets() unexpected error: %v", err)
	}
	moofSize, err := isobmff.BoxSize(seg.Moof)
	if err != nil {
		t.Fatalf("BoxSize(Moof) unexpected error: %v", err)
	}
	firstOffset := seg.Moof.Traf[0].Trun.DataOffset
	secondOffset := seg.Moof.Traf[1].Trun.DataOffset
	if firstOffset == nil || secondOffset == nil {
		t.Fatal("fixupDataOffsets(): a DataOffset was left nil")
	}
	if want := int32(moofSize) + 8; *firstOffset != want {
		t.Errorf("first DataOffset = %d, want %d", *firstOffset, want)
	}
	firstMdatSize, err := isobmff.BoxSize(seg.Mdat[0])
	if err != nil {
		t.Fatalf("BoxSize(Mdat[0]) unexpected error: %v", err)
	}
	if want := *firstOffset + int32(firstMdatSize)-8+8; *secondOffset != want {
		t.Errorf("second DataOffset = %d, want %d", *secondOffset, want)
	}
}

func TestMediaDataBoxWritePayload(t *testing.T) {
	var buf bytes.Buffer
	if err := (MediaDataBox{Data: []byte{1, 2, 3}}).WritePayload(&buf); err != nil {
		t.Fatalf("WritePayload() unexpected error: %v", err)
	}
	if got, want := buf.Bytes(), []byte{1, 2, 3}; !bytes.Equal(got, want) {
		t.Errorf("WritePayload() wrote %v, want %v", got, want)
	}
}
