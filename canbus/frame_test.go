package canbus

import (
	"bytes"
	"testing"
)

func TestFrameRoundTrip(t *testing.T) {
	cases := []Frame{
		{ID: 0x680, Data: []byte{0x01, 0x00, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00}},
		{ID: 0x180 + 0x20, Data: []byte{0x05}},
		{ID: 0x700, Data: []byte{0x00}},
		{ID: 0x000, Data: nil},
	}

	for _, f := range cases {
		raw, err := f.toRaw()
		if err != nil {
			t.Fatalf("toRaw(%v): %v", f, err)
		}
		if len(raw) != 16 {
			t.Fatalf("expected 16-byte raw frame, got %d", len(raw))
		}
		got := frameFromRaw(raw)
		if got.ID != f.ID {
			t.Errorf("ID = %#x, want %#x", got.ID, f.ID)
		}
		if !bytes.Equal(got.Data, f.Data) {
			t.Errorf("Data = %v, want %v", got.Data, f.Data)
		}
	}
}

func TestFrameDataTooLong(t *testing.T) {
	f := Frame{ID: 0x1, Data: make([]byte, 9)}
	if _, err := f.toRaw(); err != ErrDataTooLong {
		t.Fatalf("expected ErrDataTooLong, got %v", err)
	}
}

func TestFrameBit(t *testing.T) {
	f := Frame{Data: []byte{0b00000101}}
	if !f.Bit(0, 0) {
		t.Error("bit 0 of byte 0 should be set")
	}
	if f.Bit(0, 1) {
		t.Error("bit 1 of byte 0 should be clear")
	}
	if !f.Bit(0, 2) {
		t.Error("bit 2 of byte 0 should be set")
	}
	if f.Bit(1, 0) {
		t.Error("out-of-range byte should read false, not panic")
	}
}
