// SPDX-License-Identifier: MIT
// Copyright (c) 2026 bzed
// Source: github.com/bzed/grad-aff

package paa

import "errors"

// Sentinel errors for PAA operations. Use errors.Is in callers.
var (
	// ErrInvalidMagic means the leading magic number maps to no known kind.
	ErrInvalidMagic = errors.New("invalid PAA file: unknown magic number")
	// ErrInvalidFormat means a structural expectation was violated.
	ErrInvalidFormat = errors.New("invalid PAA file: malformed structure")
	// ErrUnsupported means the requested operation is not supported for this texture.
	ErrUnsupported = errors.New("unsupported PAA feature")
	// ErrInvalidDimensions means mipmap dimensions are out of range or inconsistent.
	ErrInvalidDimensions = errors.New("invalid texture dimensions")
	// ErrDxt means DXT block encode/decode rejected the input.
	ErrDxt = errors.New("dxt codec failure")
	// ErrNoMipMaps means the texture carries no mipmap to operate on.
	ErrNoMipMaps = errors.New("texture has no mipmaps")
	// ErrTaggTooLarge means a tagg payload cannot be represented in uint32.
	ErrTaggTooLarge = errors.New("tagg payload too large")
)
