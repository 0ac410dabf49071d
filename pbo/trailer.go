// SPDX-License-Identifier: MIT
// Copyright (c) 2026 bzed
// Source: github.com/bzed/grad-aff

package pbo

import (
	"bytes"
	"crypto/sha1" //nolint:gosec // Trailer format requires SHA1.
	"fmt"
	"io"
	"os"
)

// writeSHA1Trailer appends SHA1 trailer (0x00 + 20-byte hash) to the file.
// The hash is computed over all content up to (but not including) the trailer.
// If the file already ends with a valid trailer, it is left as-is.
func writeSHA1Trailer(path string) error {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return fmt.Errorf("open for trailer: %w", err)
	}
	defer func() { _ = f.Close() }()

	size, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		return fmt.Errorf("seek end: %w", err)
	}

	if size >= shaSize+1 {
		tail := make([]byte, shaSize+1)
		if _, err := f.ReadAt(tail, size-shaSize-1); err == nil && tail[0] == 0x00 {
			candidateSum, err := hashPrefixSHA1(f, size-shaSize-1)
			if err != nil {
				return fmt.Errorf("hash trailer candidate: %w", err)
			}

			if bytes.Equal(candidateSum, tail[1:]) {
				return nil
			}
		}
	}

	sum, err := hashPrefixSHA1(f, size)
	if err != nil {
		return fmt.Errorf("hash content: %w", err)
	}

	if _, err := f.Seek(size, io.SeekStart); err != nil {
		return fmt.Errorf("seek for trailer write: %w", err)
	}

	if _, err := f.Write([]byte{0x00}); err != nil {
		return fmt.Errorf("write trailer null: %w", err)
	}
	if _, err := f.Write(sum); err != nil {
		return fmt.Errorf("write trailer hash: %w", err)
	}

	return f.Sync()
}

// hashPrefixSHA1 calculates SHA1 over first n bytes of a random-access source.
func hashPrefixSHA1(ra io.ReaderAt, n int64) ([]byte, error) {
	h := sha1.New() //nolint:gosec // Trailer format requires SHA1.
	if _, err := io.Copy(h, io.NewSectionReader(ra, 0, n)); err != nil {
		return nil, err
	}

	return h.Sum(nil), nil
}

// VerifyHash recomputes SHA1 over all bytes preceding the trailer and
// compares it with the stored digest. A mismatch is reported as a false
// result, not an error.
func (r *Reader) VerifyHash() (bool, error) {
	if r == nil || r.ra == nil {
		return false, ErrNilReader
	}
	if !r.hasTrailer {
		return false, ErrNoTrailer
	}

	sum, err := hashPrefixSHA1(r.ra, r.size-shaSize-1)
	if err != nil {
		return false, fmt.Errorf("hash content: %w", err)
	}

	return bytes.Equal(sum, r.sha1Trailer[:]), nil
}
