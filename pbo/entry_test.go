package pbo

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

// lzssRun42 builds an LZSS stream decoding to 42 'a' bytes: two literals
// and three pointer tokens with offset one, plus the unsigned checksum.
func lzssRun42() []byte {
	src := []byte{
		0x03,
		'a', 'a',
		0x01, 0x0F,
		0x01, 0x0F,
		0x01, 0x01,
	}
	var checksum [4]byte
	binary.LittleEndian.PutUint32(checksum[:], 42*uint32('a'))
	return append(src, checksum[:]...)
}

func TestReadEntryCompressed(t *testing.T) {
	t.Parallel()

	// The stored payload region is data_size bytes; the LZSS stream sits
	// at its head and decompresses back to data_size bytes.
	packed := lzssRun42()
	payload := make([]byte, 42)
	copy(payload, packed)

	raw := buildManualPBO(t, nil, []entryFixture{
		{path: "data.bin", payload: payload, originalSize: 100, mime: MimeCompress},
	})

	r, err := NewReaderFromReaderAt(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		t.Fatal(err)
	}

	entries := r.Entries()
	if len(entries) != 1 || !entries[0].IsCompressed() {
		t.Fatalf("entries: %+v", entries)
	}

	data, err := r.ReadEntry("data.bin")
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(data, bytes.Repeat([]byte{'a'}, 42)) {
		t.Errorf("decompressed payload mismatch: %q", data)
	}

	ok, err := r.VerifyHash()
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Error("expected stored trailer to match")
	}
}

func TestReadEntryCompressedChecksumFailure(t *testing.T) {
	t.Parallel()

	packed := lzssRun42()
	packed[1] ^= 0x01 // corrupt one payload byte
	payload := make([]byte, 42)
	copy(payload, packed)

	raw := buildManualPBO(t, nil, []entryFixture{
		{path: "data.bin", payload: payload, originalSize: 100, mime: MimeCompress},
	})

	r, err := NewReaderFromReaderAt(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := r.ReadEntry("data.bin"); err == nil {
		t.Fatal("expected checksum failure")
	}
}

func TestReadEntryVerbatimWhenSizesAgree(t *testing.T) {
	t.Parallel()

	// original_size == data_size means the payload is returned as-is even
	// with a "Cprs" marker present.
	payload := []byte("not actually packed")
	raw := buildManualPBO(t, nil, []entryFixture{
		{path: "plain.txt", payload: payload, originalSize: uint32(len(payload)), mime: MimeCompress},
	})

	r, err := NewReaderFromReaderAt(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		t.Fatal(err)
	}

	data, err := r.ReadEntry("plain.txt")
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(data, payload) {
		t.Errorf("got %q", data)
	}
}

func TestLookupCaseInsensitive(t *testing.T) {
	t.Parallel()

	raw := buildManualPBO(t, nil, []entryFixture{
		{path: `Scripts\Main.C`, payload: []byte("x")},
	})

	r, err := NewReaderFromReaderAt(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{`scripts\main.c`, `SCRIPTS/MAIN.C`, `Scripts\Main.C`} {
		if !r.HasEntry(name) {
			t.Errorf("HasEntry(%q) = false", name)
		}
	}

	if r.HasEntry(`scripts\other.c`) {
		t.Error("unexpected entry matched")
	}
}

func TestLookupHonorsPrefix(t *testing.T) {
	t.Parallel()

	raw := buildManualPBO(t,
		[]HeaderPair{{Key: "prefix", Value: `z\my_mod`}},
		[]entryFixture{{path: "config.bin", payload: []byte("cfg")}},
	)

	r, err := NewReaderFromReaderAt(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		t.Fatal(err)
	}

	if !r.HasEntry("config.bin") {
		t.Error("bare path lookup failed")
	}
	if !r.HasEntry(`z\my_mod\config.bin`) {
		t.Error("prefixed path lookup failed")
	}
	if !r.HasEntry(`Z\My_Mod\CONFIG.BIN`) {
		t.Error("case-insensitive prefixed lookup failed")
	}
	if r.HasEntry(`z\other_mod\config.bin`) {
		t.Error("foreign prefix matched")
	}

	data, err := r.ReadEntry(`z\my_mod\config.bin`)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "cfg" {
		t.Errorf("got %q", data)
	}
}

func TestReadEntryNotFound(t *testing.T) {
	t.Parallel()

	raw := buildManualPBO(t, nil, []entryFixture{
		{path: "a.txt", payload: []byte("x")},
	})

	r, err := NewReaderFromReaderAt(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := r.ReadEntry("missing.txt"); !errors.Is(err, ErrEntryNotFound) {
		t.Errorf("expected ErrEntryNotFound, got %v", err)
	}
}
