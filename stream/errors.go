// SPDX-License-Identifier: MIT
// Copyright (c) 2026 bzed
// Source: github.com/bzed/grad-aff

package stream

import "errors"

// Sentinel errors for stream operations. Use errors.Is in callers.
var (
	// ErrUnexpectedEOF means the source could not supply the requested bytes.
	ErrUnexpectedEOF = errors.New("unexpected end of stream")
	// ErrValueTooLarge means a value does not fit the requested on-disk width.
	ErrValueTooLarge = errors.New("value does not fit field width")
)
