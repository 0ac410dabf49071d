// SPDX-License-Identifier: MIT
// Copyright (c) 2026 bzed
// Source: github.com/bzed/grad-aff

package compress

import "errors"

// Sentinel errors for compression paths. Use errors.Is in callers.
var (
	// ErrChecksumMismatch means the LZSS trailer checksum did not match.
	ErrChecksumMismatch = errors.New("lzss checksum mismatch")
	// ErrOverflow means a back-reference would write past the declared output size.
	ErrOverflow = errors.New("lzss output overflow")
	// ErrLzo means the underlying LZO codec returned a failure.
	ErrLzo = errors.New("lzo codec failure")
	// ErrTruncatedInput means the compressed input ended before the block was complete.
	ErrTruncatedInput = errors.New("truncated compressed input")
)
