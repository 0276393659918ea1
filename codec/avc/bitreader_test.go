/*
NAME
  bitreader_test.go

DESCRIPTION
  bitreader_test.go contains testing for functionality found in bitreader.go.

AUTHOR
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package avc

import "testing"

func TestBitReaderReadBits(t *testing.T) {
	r := newBitReader([]byte{0xb4}) // 1011 0100
	tests := []struct {
		n    int
		want uint32
	}{
		{1, 1},
		{2, 1},
		{1, 1},
		{4, 0x4},
	}
	for i, test := range tests {
		got, err := r.readBits(test.n)
		if err != nil {
			t.Fatalf("readBits(%d) step %d unexpected error: %v", test.n, i, err)
		}
		if got != test.want {
			t.Errorf("readBits(%d) step %d = %#x, want %#x", test.n, i, got, test.want)
		}
	}
}

func TestBitReaderReadBitsPastEnd(t *testing.T) {
	r := newBitReader([]byte{0xff})
	if _, err := r.readBits(9); err == nil {
		t.Fatal("readBits(9) on a single byte: expected error, got nil")
	}
}

func TestBitReaderReadUe(t *testing.T) {
	tests := []struct {
		name string
		bits []byte // MSB-first bits, padded with trailing zeros to a byte boundary
		want uint64
	}{
		{"code 0", []byte{1, 0, 0, 0, 0, 0, 0, 0}, 0},
		{"code 1", []byte{0, 1, 0, 0, 0, 0, 0, 0}, 1},
		{"code 2", []byte{0, 1, 1, 0, 0, 0, 0, 0}, 2},
		{"code 3", []byte{0, 0, 1, 0, 0, 0, 0, 0}, 3},
		{"code 4", []byte{0, 0, 1, 0, 1, 0, 0, 0}, 4},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			r := newBitReader([]byte{bitsToByte(test.bits)})
			got, err := r.readUe()
			if err != nil {
				t.Fatalf("readUe() unexpected error: %v", err)
			}
			if got != test.want {
				t.Errorf("readUe() = %d, want %d", got, test.want)
			}
		})
	}
}

func TestBitReaderReadSe(t *testing.T) {
	// se(v) maps ue(v) codes 0,1,2,3,4 to 0,1,-1,2,-2.
	tests := []struct {
		name string
		bits []byte
		want int64
	}{
		{"ue 0 -> 0", []byte{1, 0, 0, 0, 0, 0, 0, 0}, 0},
		{"ue 1 -> 1", []byte{0, 1, 0, 0, 0, 0, 0, 0}, 1},
		{"ue 2 -> -1", []byte{0, 1, 1, 0, 0, 0, 0, 0}, -1},
		{"ue 3 -> 2", []byte{0, 0, 1, 0, 0, 0, 0, 0}, 2},
		{"ue 4 -> -2", []byte{0, 0, 1, 0, 1, 0, 0, 0}, -2},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			r := newBitReader([]byte{bitsToByte(test.bits)})
			got, err := r.readSe()
			if err != nil {
				t.Fatalf("readSe() unexpected error: %v", err)
			}
			if got != test.want {
				t.Errorf("readSe() = %d, want %d", got, test.want)
			}
		})
	}
}

// bitsToByte packs 8 MSB-first 0/1 values into a single byte.
func bitsToByte(bits []byte) byte {
	var b byte
	for _, bit := range bits {
		b = b<<1 | bit
	}
	return b
}
