/*
NAME
  ts_reader_test.go

DESCRIPTION
  ts_reader_test.go contains testing for functionality found in
  ts_reader.go.

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

import "testing"

func TestDataAlignmentIndicator(t *testing.T) {
	tests := []struct {
		name string
		buf  []byte
		want bool
	}{
		{
			name: "set",
			buf:  []byte{0x00, 0x00, 0x01, 0xe0, 0x00, 0x00, 0x04, 0x80, 0x00},
			want: true,
		},
		{
			name: "clear",
			buf:  []byte{0x00, 0x00, 0x01, 0xe0, 0x00, 0x00, 0x00, 0x80, 0x00},
			want: false,
		},
		{
			name: "other flag bits set, DAI clear",
			buf:  []byte{0x00, 0x00, 0x01, 0xe0, 0x00, 0x00, 0xfb, 0x80, 0x00},
			want: false,
		},
		{
			name: "buffer too short to contain the flags byte",
			buf:  []byte{0x00, 0x00, 0x01, 0xe0, 0x00, 0x00},
			want: false,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := dataAlignmentIndicator(test.buf); got != test.want {
				t.Errorf("dataAlignmentIndicator(%v) = %v, want %v", test.buf, got, test.want)
			}
		})
	}
}
