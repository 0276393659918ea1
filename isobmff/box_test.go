/*
NAME
  box_test.go

DESCRIPTION
  box_test.go contains testing for functionality found in box.go.

AUTHOR
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package isobmff

import (
	"bytes"
	"io"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ausocean/av/errs"
)

func TestBoxHeaderWriteTo(t *testing.T) {
	tests := []struct {
		name    string
		header  BoxHeader
		want    []byte
		wantErr errs.Kind
	}{
		{
			name:   "ordinary box",
			header: BoxHeader{Size: 16, Type: BoxType{'f', 't', 'y', 'p'}},
			want:   []byte{0, 0, 0, 16, 'f', 't', 'y', 'p'},
		},
		{
			name:    "size zero rejected",
			header:  BoxHeader{Size: 0, Type: BoxType{'m', 'o', 'o', 'v'}},
			wantErr: errs.Unsupported,
		},
		{
			name:    "size one rejected",
			header:  BoxHeader{Size: 1, Type: BoxType{'m', 'o', 'o', 'v'}},
			wantErr: errs.Unsupported,
		},
		{
			name:    "size smaller than header rejected",
			header:  BoxHeader{Size: 4, Type: BoxType{'m', 'o', 'o', 'v'}},
			wantErr: errs.InvalidInput,
		},
		{
			name:    "uuid type rejected",
			header:  BoxHeader{Size: 16, Type: BoxType{'u', 'u', 'i', 'd'}},
			wantErr: errs.Unsupported,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var buf bytes.Buffer
			_, err := test.header.WriteTo(&buf)
			if test.wantErr != 0 {
				if !errs.Is(err, test.wantErr) {
					t.Fatalf("WriteTo() error = %v, want kind %v", err, test.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("WriteTo() unexpected error: %v", err)
			}
			if diff := cmp.Diff(test.want, buf.Bytes()); diff != "" {
				t.Errorf("WriteTo() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFullBoxHeaderWriteTo(t *testing.T) {
	h := FullBoxHeader{Version: 1, Flags: 0x010203}
	var buf bytes.Buffer
	if _, err := h.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo() unexpected error: %v", err)
	}
	want := []byte{1, 0x01, 0x02, 0x03}
	if diff := cmp.Diff(want, buf.Bytes()); diff != "" {
		t.Errorf("WriteTo() mismatch (-want +got):\n%s", diff)
	}
}

// fakeBox is a minimal Box implementation used to exercise BoxSize,
// WriteBoxTo and WriteBoxesTo without depending on the fmp4 package.
type fakeBox struct {
	boxType BoxType
	full    *FullBoxHeader
	payload []byte
}

func (b fakeBox) Type() BoxType                { return b.boxType }
func (b fakeBox) FullBoxHeader() *FullBoxHeader { return b.full }
func (b fakeBox) WritePayload(w io.Writer) error {
	_, err := w.Write(b.payload)
	return err
}

func TestBoxSize(t *testing.T) {
	tests := []struct {
		name string
		box  fakeBox
		want uint32
	}{
		{
			name: "plain box",
			box:  fakeBox{boxType: BoxType{'f', 'r', 'e', 'e'}, payload: []byte{1, 2, 3, 4}},
			want: 8 + 4,
		},
		{
			name: "full box",
			box:  fakeBox{boxType: BoxType{'m', 'v', 'h', 'd'}, full: &FullBoxHeader{}, payload: []byte{1, 2, 3, 4}},
			want: 8 + 4 + 4,
		},
		{
			name: "empty payload",
			box:  fakeBox{boxType: BoxType{'f', 'r', 'e', 'e'}},
			want: 8,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := BoxSize(test.box)
			if err != nil {
				t.Fatalf("BoxSize() unexpected error: %v", err)
			}
			if got != test.want {
				t.Errorf("BoxSize() = %d, want %d", got, test.want)
			}
		})
	}
}

func TestWriteBoxTo(t *testing.T) {
	b := fakeBox{
		boxType: BoxType{'f', 'r', 'e', 'e'},
		payload: []byte{0xaa, 0xbb},
	}
	var buf bytes.Buffer
	if err := WriteBoxTo(&buf, b); err != nil {
		t.Fatalf("WriteBoxTo() unexpected error: %v", err)
	}
	want := []byte{0, 0, 0, 10, 'f', 'r', 'e', 'e', 0xaa, 0xbb}
	if diff := cmp.Diff(want, buf.Bytes()); diff != "" {
		t.Errorf("WriteBoxTo() mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteBoxesTo(t *testing.T) {
	boxes := []Box{
		fakeBox{boxType: BoxType{'f', 'r', 'e', 'e'}, payload: []byte{1}},
		fakeBox{boxType: BoxType{'s', 'k', 'i', 'p'}, payload: []byte{2, 3}},
	}
	var buf bytes.Buffer
	if err := WriteBoxesTo(&buf, boxes...); err != nil {
		t.Fatalf("WriteBoxesTo() unexpected error: %v", err)
	}
	want := []byte{
		0, 0, 0, 9, 'f', 'r', 'e', 'e', 1,
		0, 0, 0, 10, 's', 'k', 'i', 'p', 2, 3,
	}
	if diff := cmp.Diff(want, buf.Bytes()); diff != "" {
		t.Errorf("WriteBoxesTo() mismatch (-want +got):\n%s", diff)
	}
}
