// SPDX-License-Identifier: MIT
// Copyright (c) 2026 bzed
// Source: github.com/bzed/grad-aff

package pbo

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"sync"
)

const (
	// readerEntryBufferSize is a sequential read buffer for entry table parsing.
	readerEntryBufferSize = 64 * 1024
)

// Reader provides read-only access to a parsed PBO file.
//
// Opening parses the product header and entry index (headers-loaded state);
// entry payloads are read on demand through OpenEntry/ReadEntry/Extract.
type Reader struct {
	// ra is the underlying random-access reader used for payload reads.
	ra io.ReaderAt
	// file is set when Reader owns an *os.File opened via Open.
	file *os.File
	// headers are product entries kept in parse order for deterministic behavior.
	headers []HeaderPair
	// entries stores parsed immutable entry metadata in declared order.
	entries []EntryInfo
	// size is total source size in bytes.
	size int64
	// dataStart is absolute offset of first payload byte.
	dataStart int64
	// mu guards closed state and close operation.
	mu sync.Mutex
	// sha1Trailer stores optional trailer hash when present.
	sha1Trailer [shaSize]byte
	// hasTrailer reports whether trailing 0x00 + SHA1 was detected.
	hasTrailer bool
	// closed reports whether Close was already called.
	closed bool
}

// Open opens PBO file by path and parses index/header structures.
func Open(path string) (*Reader, error) {
	return OpenWithOptions(path, ReaderOptions{})
}

// OpenWithOptions opens PBO file by path and parses index/header structures using explicit reader options.
func OpenWithOptions(path string, opts ReaderOptions) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open PBO: %w", err)
	}

	fi, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stat: %w", err)
	}

	r, err := NewReaderFromReaderAtWithOptions(f, fi.Size(), opts)
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	r.file = f
	return r, nil
}

// NewReaderFromReaderAt parses PBO from existing ReaderAt and known size.
func NewReaderFromReaderAt(ra io.ReaderAt, size int64) (*Reader, error) {
	return NewReaderFromReaderAtWithOptions(ra, size, ReaderOptions{})
}

// NewReaderFromReaderAtWithOptions parses PBO from existing ReaderAt and known size using explicit reader options.
func NewReaderFromReaderAtWithOptions(ra io.ReaderAt, size int64, opts ReaderOptions) (*Reader, error) {
	r := &Reader{ra: ra, size: size}
	if err := r.parse(opts); err != nil {
		return nil, err
	}

	return r, nil
}

// Entries returns a copy of parsed entries in declared order.
func (r *Reader) Entries() []EntryInfo {
	if r == nil {
		return nil
	}

	entries := make([]EntryInfo, len(r.entries))
	copy(entries, r.entries)
	return entries
}

// Headers returns parsed product entries in original order.
func (r *Reader) Headers() []HeaderPair {
	if r == nil {
		return nil
	}

	out := make([]HeaderPair, len(r.headers))
	copy(out, r.headers)
	return out
}

// Header returns the value of the named product entry. Keys are matched
// case-insensitively and the last occurrence wins on duplicates.
func (r *Reader) Header(key string) (string, bool) {
	if r == nil {
		return "", false
	}

	value, ok := "", false
	for i := range r.headers {
		if strings.EqualFold(r.headers[i].Key, key) {
			value, ok = r.headers[i].Value, true
		}
	}

	return value, ok
}

// DataStart returns the absolute offset of the first payload byte.
func (r *Reader) DataStart() int64 {
	if r == nil {
		return 0
	}

	return r.dataStart
}

// Close closes the underlying file if reader owns one.
func (r *Reader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}

	r.closed = true
	if r.file != nil {
		return r.file.Close()
	}

	return nil
}

// SHA1Trailer returns parsed 20-byte trailer hash when present.
func (r *Reader) SHA1Trailer() ([shaSize]byte, bool) {
	if r == nil || !r.hasTrailer {
		var z [shaSize]byte
		return z, false
	}

	return r.sha1Trailer, true
}

// parse reads and validates PBO structure.
func (r *Reader) parse(opts ReaderOptions) error {
	off, err := r.parseHeaderSection()
	if err != nil {
		return err
	}

	entriesEnd, err := r.parseEntries(off)
	if err != nil {
		return err
	}

	r.dataStart = entriesEnd
	if err := assignSequentialOffsets(r.entries, entriesEnd); err != nil {
		return err
	}

	if opts.EnableJunkFilter {
		r.entries = filterJunkEntries(r.entries)
	}

	// check for SHA1 trailer
	if r.size >= shaSize+1 {
		var tail [shaSize + 1]byte
		if _, err := r.ra.ReadAt(tail[:], r.size-shaSize-1); err == nil && tail[0] == 0x00 {
			r.hasTrailer = true
			copy(r.sha1Trailer[:], tail[1:])
		}
	}

	return nil
}

// parseHeaderSection validates the fixed header block and reads product
// entries; it returns the entry table offset.
func (r *Reader) parseHeaderSection() (int64, error) {
	header := make([]byte, headerSize)
	if _, err := r.ra.ReadAt(header, 0); err != nil {
		if err == io.EOF {
			return 0, fmt.Errorf("%w: short header", ErrInvalidHeader)
		}

		return 0, fmt.Errorf("read header: %w", err)
	}

	// One leading null, then the "Vers" record. The 16 reserved bytes that
	// follow are read but not validated.
	if header[0] != 0x00 {
		return 0, fmt.Errorf("%w: missing leading null", ErrInvalidHeader)
	}
	if MimeType(binary.LittleEndian.Uint32(header[1:5])) != MimeHeader {
		return 0, ErrInvalidHeader
	}

	r.headers = make([]HeaderPair, 0, 4)
	off := int64(headerSize)
	for {
		key, n, err := readNullTerminated(r.ra, off)
		if err != nil {
			return 0, fmt.Errorf("read product key: %w", err)
		}

		off += int64(n)
		if key == "" {
			break
		}

		value, n, err := readNullTerminated(r.ra, off)
		if err != nil {
			return 0, fmt.Errorf("read product value: %w", err)
		}

		off += int64(n)
		r.headers = append(r.headers, HeaderPair{Key: key, Value: value})
	}

	return off, nil
}

// parseEntries parses entry records from index table and returns payload start offset.
func (r *Reader) parseEntries(tableOffset int64) (int64, error) {
	if tableOffset >= r.size {
		return 0, fmt.Errorf("read entry filename: %w", io.EOF)
	}

	sr := io.NewSectionReader(r.ra, tableOffset, r.size-tableOffset)
	br := bufio.NewReaderSize(sr, readerEntryBufferSize)

	off := tableOffset
	r.entries = make([]EntryInfo, 0, 16)

	for {
		filename, nameBytes, err := readNullTerminatedBuffered(br)
		if err != nil {
			return 0, fmt.Errorf("read entry filename: %w", err)
		}

		off += int64(nameBytes)
		var fields [20]byte
		if _, err := io.ReadFull(br, fields[:]); err != nil {
			return 0, fmt.Errorf("read entry fields: %w", err)
		}

		off += int64(len(fields))
		mimeType := MimeType(binary.LittleEndian.Uint32(fields[0:4]))
		originalSize := binary.LittleEndian.Uint32(fields[4:8])
		reserved := binary.LittleEndian.Uint32(fields[8:12])
		timestamp := binary.LittleEndian.Uint32(fields[12:16])
		dataSize := binary.LittleEndian.Uint32(fields[16:20])

		if filename == "" && mimeType == 0 && originalSize == 0 && reserved == 0 && timestamp == 0 && dataSize == 0 {
			return off, nil
		}

		if len(filename) > maxNameLen {
			return 0, ErrFileNameTooLong
		}

		r.entries = append(r.entries, EntryInfo{
			Path:         filename,
			DataSize:     dataSize,
			OriginalSize: originalSize,
			Reserved:     reserved,
			TimeStamp:    timestamp,
			MimeType:     mimeType,
		})
	}
}

// assignSequentialOffsets derives payload offsets from dataStart and previous entry sizes.
func assignSequentialOffsets(entries []EntryInfo, dataStart int64) error {
	if dataStart < 0 || uint64(dataStart) > uint64(math.MaxUint32) {
		return fmt.Errorf("%w: data start offset %d", ErrSizeOverflow, dataStart)
	}

	current := uint32(dataStart)
	for i := range entries {
		entries[i].Offset = current

		if uint64(entries[i].DataSize) > uint64(math.MaxUint32-current) {
			return fmt.Errorf("%w: entry %s size would exceed 4 GiB", ErrSizeOverflow, entries[i].Path)
		}

		current += entries[i].DataSize
	}

	return nil
}

// filterJunkEntries removes malformed or unusable entries from parsed table.
func filterJunkEntries(entries []EntryInfo) []EntryInfo {
	if len(entries) == 0 {
		return entries
	}

	filtered := make([]EntryInfo, 0, len(entries))
	for i := range entries {
		e := entries[i]
		if e.DataSize == 0 {
			continue
		}
		if _, err := normalizeExtractEntryPath(e.Path); err != nil {
			continue
		}

		filtered = append(filtered, e)
	}

	return filtered
}

// readNullTerminatedBuffered reads a NUL-terminated string from buffered stream.
func readNullTerminatedBuffered(br *bufio.Reader) (string, int, error) {
	var spill []byte
	consumed := 0

	for {
		chunk, err := br.ReadSlice(0)
		consumed += len(chunk)

		if err == bufio.ErrBufferFull {
			spill = append(spill, chunk...)
			continue
		}

		if err != nil {
			return "", 0, err
		}

		segment := chunk[:len(chunk)-1]
		if len(spill) == 0 {
			return string(segment), consumed, nil
		}

		spill = append(spill, segment...)
		return string(spill), consumed, nil
	}
}

// readNullTerminated reads a zero-terminated string from ReaderAt starting at offset.
func readNullTerminated(ra io.ReaderAt, offset int64) (string, int, error) {
	const chunkSize = 256

	total := 0
	var out []byte
	var chunk [chunkSize]byte

	for {
		n, err := ra.ReadAt(chunk[:], offset+int64(total))
		if n > 0 {
			part := chunk[:n]
			if idx := bytes.IndexByte(part, 0); idx >= 0 {
				consumed := total + idx + 1
				if len(out) == 0 {
					return string(part[:idx]), consumed, nil
				}

				out = append(out, part[:idx]...)
				return string(out), consumed, nil
			}

			out = append(out, part...)
			total += n
		}

		if err != nil {
			return "", 0, err
		}

		if n == 0 {
			return "", 0, io.EOF
		}
	}
}
