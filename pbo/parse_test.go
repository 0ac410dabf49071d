package pbo

import (
	"bytes"
	"crypto/sha1" //nolint:gosec // Trailer format requires SHA1.
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// entryFixture describes one entry for the manual archive builder.
type entryFixture struct {
	path         string
	payload      []byte
	originalSize uint32
	mime         MimeType
}

// buildManualPBO assembles a complete archive in memory, including the
// SHA1 trailer, and returns the raw bytes.
func buildManualPBO(t *testing.T, headers []HeaderPair, entries []entryFixture) []byte {
	t.Helper()

	var buf bytes.Buffer
	head := make([]byte, headerSize)
	binary.LittleEndian.PutUint32(head[1:5], uint32(MimeHeader))
	buf.Write(head)

	for _, h := range headers {
		buf.WriteString(h.Key)
		buf.WriteByte(0)
		buf.WriteString(h.Value)
		buf.WriteByte(0)
	}
	buf.WriteByte(0)

	var fields [20]byte
	for _, e := range entries {
		buf.WriteString(e.path)
		buf.WriteByte(0)

		clear(fields[:])
		binary.LittleEndian.PutUint32(fields[0:4], uint32(e.mime))
		binary.LittleEndian.PutUint32(fields[4:8], e.originalSize)
		binary.LittleEndian.PutUint32(fields[16:20], uint32(len(e.payload)))
		buf.Write(fields[:])
	}

	// 21 zero bytes terminate the index.
	buf.Write(make([]byte, 21))

	for _, e := range entries {
		buf.Write(e.payload)
	}

	sum := sha1.Sum(buf.Bytes()) //nolint:gosec // Trailer format requires SHA1.
	buf.WriteByte(0)
	buf.Write(sum[:])

	return buf.Bytes()
}

// writeManualPBO writes a manual archive to a temp file and returns the path.
func writeManualPBO(t *testing.T, headers []HeaderPair, entries []entryFixture) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "manual.pbo")
	if err := os.WriteFile(path, buildManualPBO(t, headers, entries), 0o600); err != nil {
		t.Fatal(err)
	}

	return path
}

func TestParseHeaderOnly(t *testing.T) {
	t.Parallel()

	raw := buildManualPBO(t, []HeaderPair{{Key: "prefix", Value: "foo"}}, nil)
	r, err := NewReaderFromReaderAt(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		t.Fatal(err)
	}

	headers := r.Headers()
	if len(headers) != 1 || headers[0].Key != "prefix" || headers[0].Value != "foo" {
		t.Errorf("headers: %+v", headers)
	}
	if len(r.Entries()) != 0 {
		t.Errorf("expected no entries, got %d", len(r.Entries()))
	}

	// data_start sits right after the 21-byte index terminator:
	// 21 head + "prefix\0foo\0" + product terminator + 21 zero bytes.
	wantDataStart := int64(21 + len("prefix") + 1 + len("foo") + 1 + 1 + 21)
	if r.DataStart() != wantDataStart {
		t.Errorf("dataStart: got %d, want %d", r.DataStart(), wantDataStart)
	}
}

func TestParseRejectsBadMagic(t *testing.T) {
	t.Parallel()

	raw := buildManualPBO(t, nil, nil)

	cases := []struct {
		name   string
		mutate func(b []byte)
	}{
		{name: "nonzero lead byte", mutate: func(b []byte) { b[0] = 0x01 }},
		{name: "bad signature", mutate: func(b []byte) { b[2] = 'X' }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mutated := make([]byte, len(raw))
			copy(mutated, raw)
			tc.mutate(mutated)

			_, err := NewReaderFromReaderAt(bytes.NewReader(mutated), int64(len(mutated)))
			if !errors.Is(err, ErrInvalidHeader) {
				t.Errorf("expected ErrInvalidHeader, got %v", err)
			}
		})
	}
}

func TestParseEntriesAndTrailer(t *testing.T) {
	t.Parallel()

	raw := buildManualPBO(t, nil, []entryFixture{
		{path: `scripts\main.c`, payload: []byte("content one")},
		{path: `config.bin`, payload: []byte("content two!")},
	})

	r, err := NewReaderFromReaderAt(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		t.Fatal(err)
	}

	entries := r.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Path != `scripts\main.c` || entries[0].DataSize != 11 {
		t.Errorf("entry 0: %+v", entries[0])
	}
	if entries[1].Offset != entries[0].Offset+entries[0].DataSize {
		t.Errorf("offsets are not sequential: %+v", entries)
	}

	if _, ok := r.SHA1Trailer(); !ok {
		t.Error("expected trailer to be detected")
	}

	ok, err := r.VerifyHash()
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Error("expected trailer hash to verify")
	}
}

func TestVerifyHashMismatch(t *testing.T) {
	t.Parallel()

	raw := buildManualPBO(t, nil, []entryFixture{
		{path: "a.txt", payload: []byte("hello")},
	})
	// Corrupt one digest byte.
	raw[len(raw)-1] ^= 0xFF

	r, err := NewReaderFromReaderAt(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		t.Fatal(err)
	}

	ok, err := r.VerifyHash()
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("expected hash mismatch to report false")
	}
}

func TestOpenManualFile(t *testing.T) {
	t.Parallel()

	path := writeManualPBO(t, nil, []entryFixture{
		{path: "a.txt", payload: []byte("hello")},
	})

	r, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = r.Close() }()

	data, err := r.ReadEntry("a.txt")
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "hello" {
		t.Errorf("data: got %q", data)
	}
}

func TestEmptyArchiveRoundTrip(t *testing.T) {
	t.Parallel()

	raw := buildManualPBO(t, nil, nil)
	r, err := NewReaderFromReaderAt(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		t.Fatal(err)
	}

	ok, err := r.VerifyHash()
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Error("header-only hash should verify")
	}

	out := filepath.Join(t.TempDir(), "copy.pbo")
	if err := r.WriteFile(t.Context(), out); err != nil {
		t.Fatal(err)
	}

	copied, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(copied, raw) {
		t.Error("empty archive did not round-trip byte-exact")
	}
}
