// SPDX-License-Identifier: MIT
// Copyright (c) 2026 bzed
// Source: github.com/bzed/grad-aff

package pbo

import (
	"fmt"
	"io"
	"os"
)

// ReadHeaders opens a PBO and returns only product header key-value pairs
// without parsing the entry table.
func ReadHeaders(path string) ([]HeaderPair, error) {
	f, size, err := openFileWithSize(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	return ReadHeadersFromReaderAt(f, size)
}

// ReadHeadersFromReaderAt reads only PBO product header pairs from a random-access source.
func ReadHeadersFromReaderAt(ra io.ReaderAt, size int64) ([]HeaderPair, error) {
	if ra == nil {
		return nil, ErrNilReader
	}
	if size < headerSize {
		return nil, fmt.Errorf("%w: short header", ErrInvalidHeader)
	}

	r := &Reader{ra: ra, size: size}
	if _, err := r.parseHeaderSection(); err != nil {
		return nil, err
	}

	return r.headers, nil
}

// ListEntries opens a PBO and returns entry metadata without payload reads.
func ListEntries(path string) ([]EntryInfo, error) {
	f, size, err := openFileWithSize(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	r, err := NewReaderFromReaderAt(f, size)
	if err != nil {
		return nil, err
	}

	return r.Entries(), nil
}

// openFileWithSize opens a file and returns a handle plus current size.
func openFileWithSize(path string) (*os.File, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open PBO: %w", err)
	}

	fi, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, 0, fmt.Errorf("stat: %w", err)
	}

	return f, fi.Size(), nil
}
