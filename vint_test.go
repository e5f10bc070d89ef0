package ebml

import (
	"bytes"
	"testing"
)

func TestVintMinWidth(t *testing.T) {
	cases := []struct {
		n    uint64
		want int
	}{
		{0, 1},
		{126, 1},
		{127, 2},
		{1<<14 - 3, 2},
		{1<<14 - 2, 2},
		{1 << 16, 3},
		{MaxDataSize, 8},
		{MaxDataSize + 1, 0},
	}
	for _, c := range cases {
		if got := vintMinWidth(c.n); got != c.want {
			t.Errorf("vintMinWidth(%d) = %d, want %d", c.n, got, c.want)
		}
	}
}

func TestEncodeDecodeVIntRoundTrip(t *testing.T) {
	widths := []int{1, 2, 3, 4, 5, 6, 7, 8}
	values := []uint64{0, 1, 126, 127, 1000, 1 << 20, MaxDataSize}

	for _, w := range widths {
		for _, v := range values {
			if v > vintMaxValue(w) {
				continue
			}
			buf, err := encodeVInt(v, w)
			if err != nil {
				t.Fatalf("encodeVInt(%d, %d): %v", v, w, err)
			}
			if len(buf) != w {
				t.Fatalf("encodeVInt(%d, %d) produced %d bytes, want %d", v, w, len(buf), w)
			}
			got, unknown, raw, err := decodeVInt(bytes.NewReader(buf), 8, false)
			if err != nil {
				t.Fatalf("decodeVInt: %v", err)
			}
			if unknown {
				t.Fatalf("decodeVInt(%d,%d) reported unknown length", v, w)
			}
			if got != v {
				t.Errorf("round trip %d width %d: got %d", v, w, got)
			}
			if len(raw) != w {
				t.Errorf("raw width = %d, want %d", len(raw), w)
			}
		}
	}
}

func TestDecodeVIntKeepMarker(t *testing.T) {
	// Segment ID: 0x18538067, 4-byte vint with marker.
	buf := []byte{0x18, 0x53, 0x80, 0x67}
	val, unknown, _, err := decodeVInt(bytes.NewReader(buf), 4, true)
	if err != nil {
		t.Fatal(err)
	}
	if unknown {
		t.Fatal("unexpectedly reported unknown length")
	}
	if val != 0x18538067 {
		t.Errorf("got 0x%X, want 0x18538067", val)
	}
}

func TestDecodeVIntUnknownLength(t *testing.T) {
	buf := []byte{0xFF} // all-ones, 1-byte reserved pattern
	_, unknown, _, err := decodeVInt(bytes.NewReader(buf), 8, false)
	if err != nil {
		t.Fatal(err)
	}
	if !unknown {
		t.Error("expected unknown length to be reported")
	}
}

func TestDecodeVIntZeroLeadingByte(t *testing.T) {
	buf := []byte{0x00, 0x01}
	_, _, _, err := decodeVInt(bytes.NewReader(buf), 8, false)
	if !IsDecodeError(err) {
		t.Errorf("expected a decode error, got %v", err)
	}
}

func TestEncodeVIntTooNarrow(t *testing.T) {
	if _, err := encodeVInt(1000, 1); err == nil {
		t.Error("expected error encoding 1000 in a 1-byte vint")
	}
}
