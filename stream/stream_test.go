package stream

import (
	"bytes"
	"errors"
	"io"
	"testing"
	"time"
)

func TestReaderScalars(t *testing.T) {
	t.Parallel()

	r := NewBytesReader([]byte{
		0x2A,                   // uint8
		0xFE,                   // int8 (-2)
		0x01,                   // bool
		0x34, 0x12,             // uint16
		0x78, 0x56, 0x34, 0x12, // uint32
		0x00, 0x00, 0x80, 0x3F, // float32 1.0
	})

	if v, err := r.Uint8(); err != nil || v != 0x2A {
		t.Fatalf("Uint8: %v %v", v, err)
	}
	if v, err := r.Int8(); err != nil || v != -2 {
		t.Fatalf("Int8: %v %v", v, err)
	}
	if v, err := r.Bool(); err != nil || !v {
		t.Fatalf("Bool: %v %v", v, err)
	}
	if v, err := r.Uint16(); err != nil || v != 0x1234 {
		t.Fatalf("Uint16: %#x %v", v, err)
	}
	if v, err := r.Uint32(); err != nil || v != 0x12345678 {
		t.Fatalf("Uint32: %#x %v", v, err)
	}
	if v, err := r.Float32(); err != nil || v != 1.0 {
		t.Fatalf("Float32: %v %v", v, err)
	}
}

func TestReaderUint24(t *testing.T) {
	t.Parallel()

	r := NewBytesReader([]byte{0x01, 0x02, 0x03})
	v, err := r.Uint24()
	if err != nil {
		t.Fatal(err)
	}
	if v != 0x030201 {
		t.Errorf("Uint24: got %#x", v)
	}
}

func TestCompressedInteger(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   []byte
		want uint32
	}{
		{name: "single byte", in: []byte{0x05}, want: 5},
		{name: "boundary no continuation", in: []byte{0x7F}, want: 0x7F},
		// 0x81 has the high bit: ret = 0x81, then 0x02 adds (2-1)*128.
		{name: "two bytes", in: []byte{0x81, 0x02}, want: 0x81 + (0x02-1)*0x80},
		// Continuation keeps accumulating into the same sum: the second
		// continuation byte is not shifted by another factor of 128.
		{name: "three bytes", in: []byte{0x81, 0x82, 0x03}, want: 0x81 + (0x82-1)*0x80 + (0x03-1)*0x80},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := NewBytesReader(tc.in)
			v, err := r.CompressedInteger()
			if err != nil {
				t.Fatal(err)
			}
			if v != tc.want {
				t.Errorf("got %d, want %d", v, tc.want)
			}
		})
	}
}

func TestZeroTerminated(t *testing.T) {
	t.Parallel()

	r := NewBytesReader([]byte("prefix\x00foo\x00"))
	for _, want := range []string{"prefix", "foo"} {
		got, err := r.ZeroTerminated()
		if err != nil {
			t.Fatal(err)
		}
		if got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	}

	if _, err := r.ZeroTerminated(); !errors.Is(err, ErrUnexpectedEOF) {
		t.Errorf("expected ErrUnexpectedEOF, got %v", err)
	}
}

func TestPeekRestoresOffset(t *testing.T) {
	t.Parallel()

	r := NewBytesReader([]byte{0x11, 0x22, 0x33, 0x44})
	if v, err := r.PeekUint16(); err != nil || v != 0x2211 {
		t.Fatalf("PeekUint16: %#x %v", v, err)
	}
	if off, err := r.Offset(); err != nil || off != 0 {
		t.Fatalf("offset after peek: %d %v", off, err)
	}
	if v, err := r.Uint32(); err != nil || v != 0x44332211 {
		t.Fatalf("Uint32 after peek: %#x %v", v, err)
	}
}

func TestReaderShortInput(t *testing.T) {
	t.Parallel()

	r := NewBytesReader([]byte{0x01, 0x02})
	if _, err := r.Uint32(); !errors.Is(err, ErrUnexpectedEOF) {
		t.Errorf("expected ErrUnexpectedEOF, got %v", err)
	}
}

func TestXYZAndMatrix(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	w := NewWriter(&buf)
	want := [3]float32{1, -2.5, 3.25}
	if err := w.XYZ(want); err != nil {
		t.Fatal(err)
	}

	r := NewBytesReader(buf.Bytes())
	got, err := r.XYZ()
	if err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Errorf("XYZ: got %v, want %v", got, want)
	}

	buf.Reset()
	wantM := [4][3]float32{{1, 2, 3}, {4, 5, 6}, {7, 8, 9}, {10, 11, 12}}
	if err := NewWriter(&buf).Matrix4x3(wantM); err != nil {
		t.Fatal(err)
	}
	gotM, err := NewBytesReader(buf.Bytes()).Matrix4x3()
	if err != nil {
		t.Fatal(err)
	}
	if gotM != wantM {
		t.Errorf("Matrix4x3: got %v, want %v", gotM, wantM)
	}
}

func TestWriterRoundTrip(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	w := NewWriter(&buf)

	if err := w.Uint8(0xAB); err != nil {
		t.Fatal(err)
	}
	if err := w.Uint16(0xBEEF); err != nil {
		t.Fatal(err)
	}
	if err := w.Uint32(0xDEADBEEF); err != nil {
		t.Fatal(err)
	}
	if err := w.Uint24(0x123456); err != nil {
		t.Fatal(err)
	}
	if err := w.ZeroTerminated("abc"); err != nil {
		t.Fatal(err)
	}
	if err := w.Timestamp(time.Unix(1700000000, 0)); err != nil {
		t.Fatal(err)
	}

	if w.Count() != int64(buf.Len()) {
		t.Errorf("Count: %d != %d", w.Count(), buf.Len())
	}

	r := NewBytesReader(buf.Bytes())
	if v, _ := r.Uint8(); v != 0xAB {
		t.Errorf("uint8: %#x", v)
	}
	if v, _ := r.Uint16(); v != 0xBEEF {
		t.Errorf("uint16: %#x", v)
	}
	if v, _ := r.Uint32(); v != 0xDEADBEEF {
		t.Errorf("uint32: %#x", v)
	}
	if v, _ := r.Uint24(); v != 0x123456 {
		t.Errorf("uint24: %#x", v)
	}
	if s, _ := r.ZeroTerminated(); s != "abc" {
		t.Errorf("string: %q", s)
	}
	ts, err := r.Timestamp()
	if err != nil {
		t.Fatal(err)
	}
	if ts.Unix() != 1700000000 {
		t.Errorf("timestamp: %v", ts)
	}
	if _, err := r.Uint8(); !errors.Is(err, ErrUnexpectedEOF) {
		t.Errorf("expected end of stream, got %v", err)
	}
}

func TestWriterUint24Overflow(t *testing.T) {
	t.Parallel()

	w := NewWriter(io.Discard)
	if err := w.Uint24(0x1000000); !errors.Is(err, ErrValueTooLarge) {
		t.Errorf("expected ErrValueTooLarge, got %v", err)
	}
}
