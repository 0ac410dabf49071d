// SPDX-License-Identifier: MIT
// Copyright (c) 2026 bzed
// Source: github.com/bzed/grad-aff

package pbo

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"
)

// packCopyBufferSize is per-pack temporary buffer used by streaming payload copy.
const packCopyBufferSize = 64 * 1024

// entryFieldsSize is the fixed record tail after the entry filename.
const entryFieldsSize = 20

// Pack writes a new PBO to out from the given inputs and returns written
// entry metadata in archive order. Inputs are sorted by path for
// deterministic output. The SHA1 trailer is not written; use PackFile for
// a complete on-disk archive.
func Pack(ctx context.Context, out io.WriteSeeker, inputs []Input, opts PackOptions) ([]EntryInfo, error) {
	if out == nil {
		return nil, ErrNilWriter
	}
	if len(inputs) == 0 {
		return nil, ErrEmptyInputs
	}
	if ctx == nil {
		ctx = context.Background()
	}

	opts.applyDefaults()

	plan, err := preparePackPlan(inputs)
	if err != nil {
		return nil, err
	}

	matcher, err := newCompressMatcher(opts.Compress, opts.CompressMatcherOptions)
	if err != nil {
		return nil, err
	}

	w := bufio.NewWriterSize(out, opts.WriterBufferSize)

	if err := writeArchiveHead(w, opts.Headers); err != nil {
		return nil, err
	}
	if err := w.Flush(); err != nil {
		return nil, fmt.Errorf("flush head: %w", err)
	}

	indexStart, err := out.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, fmt.Errorf("seek after head: %w", err)
	}

	// First pass: index records with zeroed fields, patched after the
	// payload sizes are known.
	var placeholder [entryFieldsSize]byte
	for _, in := range plan {
		if _, err := w.WriteString(in.Path); err != nil {
			return nil, fmt.Errorf("write entry path: %w", err)
		}
		if err := w.WriteByte(0); err != nil {
			return nil, fmt.Errorf("write entry path terminator: %w", err)
		}
		if _, err := w.Write(placeholder[:]); err != nil {
			return nil, fmt.Errorf("write entry placeholder: %w", err)
		}
	}

	if err := w.WriteByte(0); err != nil {
		return nil, fmt.Errorf("write index terminator: %w", err)
	}
	if _, err := w.Write(placeholder[:]); err != nil {
		return nil, fmt.Errorf("write index tail fields: %w", err)
	}
	if err := w.Flush(); err != nil {
		return nil, fmt.Errorf("flush index: %w", err)
	}

	dataStart, err := out.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, err
	}
	if dataStart > maxPBOData {
		return nil, fmt.Errorf("%w: data start offset %d", ErrSizeOverflow, dataStart)
	}

	entries := make([]EntryInfo, 0, len(plan))
	currentOffset := uint32(dataStart)
	copyBuf := make([]byte, packCopyBufferSize)

	for _, in := range plan {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		entry, err := writeInputPayload(w, in, opts, matcher, currentOffset, copyBuf)
		if err != nil {
			return nil, err
		}

		entries = append(entries, entry)
		currentOffset += entry.DataSize

		if opts.OnEntryDone != nil {
			opts.OnEntryDone(entry)
		}
	}

	if err := w.Flush(); err != nil {
		return nil, fmt.Errorf("flush payloads: %w", err)
	}

	// Second pass: patch index records in place.
	pos := indexStart
	var fields [entryFieldsSize]byte
	for i, entry := range entries {
		pos += int64(len(plan[i].Path) + 1)
		if _, err := out.Seek(pos, io.SeekStart); err != nil {
			return nil, fmt.Errorf("seek to entry %d: %w", i, err)
		}

		putEntryFields(fields[:], entry)
		if _, err := out.Write(fields[:]); err != nil {
			return nil, fmt.Errorf("patch entry %d: %w", i, err)
		}

		pos += entryFieldsSize
	}

	if _, err := out.Seek(0, io.SeekEnd); err != nil {
		return nil, fmt.Errorf("seek end: %w", err)
	}

	return entries, nil
}

// PackFile writes a PBO to outPath and appends the SHA1 trailer.
func PackFile(ctx context.Context, outPath string, inputs []Input, opts PackOptions) ([]EntryInfo, error) {
	f, err := os.OpenFile(outPath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return nil, fmt.Errorf("create PBO file: %w", err)
	}
	defer func() {
		if f != nil {
			_ = f.Close()
		}
	}()

	entries, err := Pack(ctx, f, inputs, opts)
	if err != nil {
		return nil, err
	}

	if err := f.Sync(); err != nil {
		return nil, fmt.Errorf("sync PBO file: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("close PBO file: %w", err)
	}
	f = nil

	if err := writeSHA1Trailer(outPath); err != nil {
		return nil, fmt.Errorf("write SHA1 trailer: %w", err)
	}

	return entries, nil
}

// WriteArchive re-serializes the parsed archive body into out: head, product
// entries and index in declared order, then stored payload bytes copied
// verbatim (no recompression). The trailing 0x00 + SHA1 is not written.
func (r *Reader) WriteArchive(ctx context.Context, out io.Writer) error {
	if r == nil || r.ra == nil {
		return ErrNilReader
	}
	if out == nil {
		return ErrNilWriter
	}
	if ctx == nil {
		ctx = context.Background()
	}

	w := bufio.NewWriterSize(out, packCopyBufferSize)

	if err := writeArchiveHead(w, r.headers); err != nil {
		return err
	}

	var fields [entryFieldsSize]byte
	for _, entry := range r.entries {
		if _, err := w.WriteString(entry.Path); err != nil {
			return fmt.Errorf("write entry path: %w", err)
		}
		if err := w.WriteByte(0); err != nil {
			return fmt.Errorf("write entry path terminator: %w", err)
		}

		putEntryFields(fields[:], entry)
		if _, err := w.Write(fields[:]); err != nil {
			return fmt.Errorf("write entry fields: %w", err)
		}
	}

	// Index terminator: empty name plus zeroed fields, 21 nulls in total.
	terminator := make([]byte, entryFieldsSize+1)
	if _, err := w.Write(terminator); err != nil {
		return fmt.Errorf("write index terminator: %w", err)
	}

	copyBuf := make([]byte, packCopyBufferSize)
	for _, entry := range r.entries {
		if err := ctx.Err(); err != nil {
			return err
		}

		sr := io.NewSectionReader(r.ra, int64(entry.Offset), int64(entry.DataSize))
		if _, err := io.CopyBuffer(w, sr, copyBuf); err != nil {
			return fmt.Errorf("copy payload %s: %w", entry.Path, err)
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush archive: %w", err)
	}

	return nil
}

// WriteFile re-serializes the parsed archive to outPath and appends the
// SHA1 trailer computed over the just-written bytes.
func (r *Reader) WriteFile(ctx context.Context, outPath string) error {
	f, err := os.OpenFile(outPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("create PBO file: %w", err)
	}

	writeErr := r.WriteArchive(ctx, f)
	if writeErr == nil {
		writeErr = f.Sync()
	}

	closeErr := f.Close()
	if writeErr != nil {
		return writeErr
	}
	if closeErr != nil {
		return fmt.Errorf("close PBO file: %w", closeErr)
	}

	return writeSHA1Trailer(outPath)
}

// writeArchiveHead writes the leading null, "Vers" record, reserved block
// and product entries, terminated with a single null byte.
func writeArchiveHead(w *bufio.Writer, headers []HeaderPair) error {
	head := make([]byte, headerSize)
	binary.LittleEndian.PutUint32(head[1:5], uint32(MimeHeader))
	if _, err := w.Write(head); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, h := range headers {
		value := h.Value
		if strings.EqualFold(strings.TrimSpace(h.Key), "prefix") {
			value = NormalizePrefixHeader(value)
		}

		if _, err := w.WriteString(h.Key); err != nil {
			return fmt.Errorf("write product key: %w", err)
		}
		if err := w.WriteByte(0); err != nil {
			return fmt.Errorf("write product key terminator: %w", err)
		}
		if _, err := w.WriteString(value); err != nil {
			return fmt.Errorf("write product value: %w", err)
		}
		if err := w.WriteByte(0); err != nil {
			return fmt.Errorf("write product value terminator: %w", err)
		}
	}

	if err := w.WriteByte(0); err != nil {
		return fmt.Errorf("write product terminator: %w", err)
	}

	return nil
}

// putEntryFields serializes the fixed entry record tail.
func putEntryFields(dst []byte, entry EntryInfo) {
	binary.LittleEndian.PutUint32(dst[0:4], uint32(entry.MimeType))
	binary.LittleEndian.PutUint32(dst[4:8], entry.OriginalSize)
	binary.LittleEndian.PutUint32(dst[8:12], entry.Reserved)
	binary.LittleEndian.PutUint32(dst[12:16], entry.TimeStamp)
	binary.LittleEndian.PutUint32(dst[16:20], entry.DataSize)
}

// preparePackPlan normalizes, sorts and validates pack inputs.
func preparePackPlan(inputs []Input) ([]Input, error) {
	sorted := make([]Input, len(inputs))
	copy(sorted, inputs)

	for i := range sorted {
		normalizedPath, err := normalizeArchiveEntryPath(sorted[i].Path)
		if err != nil {
			return nil, err
		}

		sorted[i].Path = normalizedPath
	}

	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Path < sorted[j].Path
	})

	seen := make(map[string]string, len(sorted))
	for _, in := range sorted {
		key := strings.ToLower(in.Path)
		if existing, ok := seen[key]; ok {
			return nil, fmt.Errorf("%w: %q conflicts with %q", ErrDuplicateEntryPath, in.Path, existing)
		}

		seen[key] = in.Path
	}

	return sorted, nil
}

// writeInputPayload writes one entry payload, compressing it in memory
// when the compression policy selects the input and the result is smaller.
func writeInputPayload(
	dst io.Writer,
	in Input,
	opts PackOptions,
	matcher *compressMatcher,
	currentOffset uint32,
	copyBuf []byte,
) (EntryInfo, error) {
	if in.Open == nil {
		return EntryInfo{}, fmt.Errorf("input %s: Open is nil", in.Path)
	}

	rc, err := in.Open()
	if err != nil {
		return EntryInfo{}, fmt.Errorf("open input %s: %w", in.Path, err)
	}
	defer func() { _ = rc.Close() }()

	maxEntrySize := int64(^uint32(0)) - int64(currentOffset)

	candidate := matcher.Match(in.Path) &&
		(in.SizeHint <= 0 || shouldCompressBySize(opts, clampSizeHint(in.SizeHint)))
	if !candidate || in.SizeHint > int64(opts.MaxCompressSize) {
		return streamRawPayload(dst, rc, in, currentOffset, maxEntrySize, copyBuf)
	}

	var buf bytes.Buffer
	if in.SizeHint > 0 {
		buf.Grow(int(in.SizeHint))
	}

	streamed, err := copyPayloadBounded(&buf, rc, maxEntrySize, copyBuf)
	if err != nil {
		return EntryInfo{}, fmt.Errorf("stream input %s: %w", in.Path, err)
	}

	rawSize, err := checkedDataSize(in.Path, streamed, currentOffset)
	if err != nil {
		return EntryInfo{}, err
	}

	entry := EntryInfo{
		Path:      in.Path,
		Offset:    currentOffset,
		DataSize:  rawSize,
		TimeStamp: timeToUint32(in.ModTime),
		MimeType:  MimeNil,
	}

	raw := buf.Bytes()
	if !shouldCompress(opts, matcher, in.Path, rawSize) {
		if _, err := dst.Write(raw); err != nil {
			return EntryInfo{}, fmt.Errorf("write payload %s: %w", in.Path, err)
		}

		return entry, nil
	}

	compressed, err := compressLZSS(raw)
	if err != nil {
		return EntryInfo{}, fmt.Errorf("compress %s: %w", in.Path, err)
	}

	// Compression is kept only when the stream fits the payload region.
	// The region stays DataSize bytes long with the LZSS stream at its
	// head, so compressed entries decompress back to exactly DataSize
	// bytes; OriginalSize records the stream length and arms the
	// size-discrepancy trigger.
	if len(compressed) >= len(raw) {
		if _, err := dst.Write(raw); err != nil {
			return EntryInfo{}, fmt.Errorf("write payload %s: %w", in.Path, err)
		}

		return entry, nil
	}

	entry.OriginalSize = uint32(len(compressed))
	entry.MimeType = MimeCompress
	if _, err := dst.Write(compressed); err != nil {
		return EntryInfo{}, fmt.Errorf("write payload %s: %w", in.Path, err)
	}
	if _, err := dst.Write(make([]byte, len(raw)-len(compressed))); err != nil {
		return EntryInfo{}, fmt.Errorf("write payload padding %s: %w", in.Path, err)
	}

	return entry, nil
}

// streamRawPayload copies one input straight to the destination.
func streamRawPayload(
	dst io.Writer,
	src io.Reader,
	in Input,
	currentOffset uint32,
	maxEntrySize int64,
	copyBuf []byte,
) (EntryInfo, error) {
	streamed, err := copyPayloadBounded(dst, src, maxEntrySize, copyBuf)
	if err != nil {
		return EntryInfo{}, fmt.Errorf("stream input %s: %w", in.Path, err)
	}

	dataSize, err := checkedDataSize(in.Path, streamed, currentOffset)
	if err != nil {
		return EntryInfo{}, err
	}

	return EntryInfo{
		Path:      in.Path,
		Offset:    currentOffset,
		DataSize:  dataSize,
		TimeStamp: timeToUint32(in.ModTime),
		MimeType:  MimeNil,
	}, nil
}

// copyPayloadBounded streams payload from src to dst and enforces strict size limit.
func copyPayloadBounded(dst io.Writer, src io.Reader, limit int64, buf []byte) (int64, error) {
	if limit < 0 {
		return 0, ErrSizeOverflow
	}
	if len(buf) == 0 {
		buf = make([]byte, 32*1024)
	}

	var written int64
	for written < limit {
		chunkSize := len(buf)
		if remaining := limit - written; int64(chunkSize) > remaining {
			chunkSize = int(remaining)
		}

		n, readErr := src.Read(buf[:chunkSize])
		if n > 0 {
			nw, writeErr := dst.Write(buf[:n])
			written += int64(nw)

			if writeErr != nil {
				return written, writeErr
			}
			if nw != n {
				return written, io.ErrShortWrite
			}
		}

		if readErr != nil {
			if readErr == io.EOF {
				break
			}

			return written, readErr
		}
	}

	// If we consumed exactly the limit, probe one extra byte to ensure source is not longer.
	if written == limit {
		var probe [1]byte
		n, err := src.Read(probe[:])
		if n > 0 {
			return written, ErrSizeOverflow
		}
		if err != nil && err != io.EOF {
			return written, err
		}
	}

	return written, nil
}

// checkedDataSize validates entry size for uint32-based PBO fields and running offset.
func checkedDataSize(path string, size int64, currentOffset uint32) (uint32, error) {
	if size < 0 || size > int64(^uint32(0)) {
		return 0, fmt.Errorf("%w: entry %s size %d is out of uint32 range", ErrSizeOverflow, path, size)
	}

	if size > int64(^uint32(0))-int64(currentOffset) {
		return 0, fmt.Errorf("%w: entry %s size would exceed 4 GiB", ErrSizeOverflow, path)
	}

	return uint32(size), nil
}

// clampSizeHint converts a positive size hint to uint32 bounds.
func clampSizeHint(hint int64) uint32 {
	if hint < 0 {
		return 0
	}
	if hint > int64(^uint32(0)) {
		return ^uint32(0)
	}

	return uint32(hint)
}

// timeToUint32 converts time to uint32 Unix timestamp with bounds clamping.
func timeToUint32(t time.Time) uint32 {
	u := t.Unix()
	if u < 0 {
		return 0
	}

	if u > 0xffffffff {
		return 0xffffffff
	}

	return uint32(u)
}
