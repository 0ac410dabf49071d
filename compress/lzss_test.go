package compress

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

func TestDecompressLZSSRun(t *testing.T) {
	t.Parallel()

	// flag 0x03: two literals then three pointers with offset 1.
	// Pointer lengths: 18, 18, 4 -> 2 + 40 = 42 output bytes.
	src := []byte{
		0x03,
		'a', 'a',
		0x01, 0x0F,
		0x01, 0x0F,
		0x01, 0x01,
	}
	var checksum [4]byte
	binary.LittleEndian.PutUint32(checksum[:], 42*uint32('a'))
	src = append(src, checksum[:]...)

	out, err := DecompressLZSS(src, 42, false)
	if err != nil {
		t.Fatal(err)
	}

	want := bytes.Repeat([]byte{'a'}, 42)
	if !bytes.Equal(out, want) {
		t.Errorf("got %q", out)
	}
}

func TestDecompressLZSSLiterals(t *testing.T) {
	t.Parallel()

	plain := []byte("hello go")
	src := []byte{0xFF}
	src = append(src, plain...)

	var sum int32
	for _, b := range plain {
		sum += int32(b)
	}
	var checksum [4]byte
	binary.LittleEndian.PutUint32(checksum[:], uint32(sum))
	src = append(src, checksum[:]...)

	out, err := DecompressLZSS(src, len(plain), false)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(out, plain) {
		t.Errorf("got %q, want %q", out, plain)
	}
}

func TestDecompressLZSSSignedChecksum(t *testing.T) {
	t.Parallel()

	// 0xFE accumulates as -2 per byte in signed mode.
	plain := []byte{0xFE, 0xFE}
	src := []byte{0xFF}
	src = append(src, plain...)

	var checksum [4]byte
	binary.LittleEndian.PutUint32(checksum[:], uint32(int32(-4)))
	src = append(src, checksum[:]...)

	out, err := DecompressLZSS(src, len(plain), true)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(out, plain) {
		t.Errorf("got %v", out)
	}

	// The same stream fails under the unsigned convention.
	if _, err := DecompressLZSS(src, len(plain), false); !errors.Is(err, ErrChecksumMismatch) {
		t.Errorf("expected ErrChecksumMismatch, got %v", err)
	}
}

func TestDecompressLZSSChecksumMismatch(t *testing.T) {
	t.Parallel()

	plain := []byte("payload")
	src := []byte{0xFF}
	src = append(src, plain...)
	src = append(src, 0xDE, 0xAD, 0xBE, 0xEF)

	out, err := DecompressLZSS(src, len(plain), false)
	if !errors.Is(err, ErrChecksumMismatch) {
		t.Fatalf("expected ErrChecksumMismatch, got %v", err)
	}
	if out != nil {
		t.Errorf("partial output returned on checksum failure")
	}
}

func TestDecompressLZSSOverflow(t *testing.T) {
	t.Parallel()

	// One literal, then a pointer that would emit 18 bytes into a
	// 2-byte output budget.
	src := []byte{0x01, 'x', 0x01, 0x0F, 0, 0, 0, 0}
	if _, err := DecompressLZSS(src, 2, false); !errors.Is(err, ErrOverflow) {
		t.Errorf("expected ErrOverflow, got %v", err)
	}
}

func TestDecompressLZSSTruncated(t *testing.T) {
	t.Parallel()

	src := []byte{0xFF, 'a'}
	if _, err := DecompressLZSS(src, 8, false); !errors.Is(err, ErrTruncatedInput) {
		t.Errorf("expected ErrTruncatedInput, got %v", err)
	}
}

func TestCompressDecompressRoundTrip(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		data []byte
	}{
		{name: "text", data: bytes.Repeat([]byte("the quick brown fox "), 64)},
		{name: "runs", data: bytes.Repeat([]byte{0x00, 0xFF}, 700)},
		{name: "boundary", data: bytes.Repeat([]byte{'b'}, 1024)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			packed, err := CompressLZSS(tc.data)
			if err != nil {
				t.Fatal(err)
			}

			out, err := DecompressLZSS(packed, len(tc.data), false)
			if err != nil {
				t.Fatal(err)
			}
			if !bytes.Equal(out, tc.data) {
				t.Error("round trip mismatch")
			}
		})
	}
}

func TestReadLZSSFile(t *testing.T) {
	t.Parallel()

	plain := []byte("filelike")
	src := []byte{0xFF}
	src = append(src, plain...)

	var sum int32
	for _, b := range plain {
		sum += int32(b)
	}
	var checksum [4]byte
	binary.LittleEndian.PutUint32(checksum[:], uint32(sum))
	src = append(src, checksum[:]...)

	out, err := ReadLZSSFile(src)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(out, plain) {
		t.Errorf("got %q", out)
	}
}
