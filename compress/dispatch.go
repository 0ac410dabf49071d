// SPDX-License-Identifier: MIT
// Copyright (c) 2026 bzed
// Source: github.com/bzed/grad-aff

package compress

import (
	"encoding/binary"
	"math"

	"github.com/bzed/grad-aff/stream"
)

// maybeCompressedBoundary is the size at which flag-less envelopes switch
// from raw bytes to a compressed body.
const maybeCompressedBoundary = 1024

// ReadMaybeCompressed reads n payload bytes with the format-specific
// envelope: an optional one-byte compression flag (or the 1024-byte size
// boundary when flag-less), then either raw bytes or an LZO block that
// decompresses to exactly n bytes.
func ReadMaybeCompressed(r *stream.Reader, n int, useFlag bool) ([]byte, error) {
	if n == 0 {
		return nil, nil
	}

	flag := n >= maybeCompressedBoundary
	if useFlag {
		v, err := r.Bool()
		if err != nil {
			return nil, err
		}

		flag = v
	}

	if !flag {
		return r.Fixed(n)
	}

	return DecompressLZOFrom(r, n)
}

// ReadMaybeCompressedLegacy reads n payload bytes with the older envelope:
// LZO when useLzo is set, raw bytes below the size boundary, and an LZSS
// block (unsigned checksum) otherwise.
func ReadMaybeCompressedLegacy(r *stream.Reader, n int, useLzo bool) ([]byte, error) {
	if n == 0 {
		return nil, nil
	}

	if useLzo {
		return DecompressLZOFrom(r, n)
	}

	if n < maybeCompressedBoundary {
		return r.Fixed(n)
	}

	return DecompressLZSSFrom(r, n, false)
}

// ReadUint16Array reads a u32 count followed by a maybe-compressed body of
// little-endian uint16 elements.
func ReadUint16Array(r *stream.Reader, useFlag bool) ([]uint16, error) {
	raw, err := readArrayBody(r, 2, useFlag)
	if err != nil {
		return nil, err
	}

	out := make([]uint16, len(raw)/2)
	for i := range out {
		out[i] = binary.LittleEndian.Uint16(raw[i*2:])
	}

	return out, nil
}

// ReadUint32Array reads a u32 count followed by a maybe-compressed body of
// little-endian uint32 elements.
func ReadUint32Array(r *stream.Reader, useFlag bool) ([]uint32, error) {
	raw, err := readArrayBody(r, 4, useFlag)
	if err != nil {
		return nil, err
	}

	return bytesToUint32s(raw), nil
}

// ReadFloat32Array reads a u32 count followed by a maybe-compressed body of
// little-endian float32 elements.
func ReadFloat32Array(r *stream.Reader, useFlag bool) ([]float32, error) {
	raw, err := readArrayBody(r, 4, useFlag)
	if err != nil {
		return nil, err
	}

	out := make([]float32, len(raw)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}

	return out, nil
}

// ReadUint32ArrayLegacy is ReadUint32Array over the legacy LZO/LZSS envelope.
func ReadUint32ArrayLegacy(r *stream.Reader, useLzo bool) ([]uint32, error) {
	count, err := r.Uint32()
	if err != nil {
		return nil, err
	}

	raw, err := ReadMaybeCompressedLegacy(r, int(count)*4, useLzo)
	if err != nil {
		return nil, err
	}

	return bytesToUint32s(raw), nil
}

// ReadFloat32ArrayLegacy is ReadFloat32Array over the legacy LZO/LZSS envelope.
func ReadFloat32ArrayLegacy(r *stream.Reader, useLzo bool) ([]float32, error) {
	count, err := r.Uint32()
	if err != nil {
		return nil, err
	}

	raw, err := ReadMaybeCompressedLegacy(r, int(count)*4, useLzo)
	if err != nil {
		return nil, err
	}

	out := make([]float32, len(raw)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}

	return out, nil
}

// ReadUint32FillArray reads a u32 count, a default-fill flag, and either a
// repeated fill value or a maybe-compressed element body.
func ReadUint32FillArray(r *stream.Reader, useFlag bool) ([]uint32, error) {
	count, err := r.Uint32()
	if err != nil {
		return nil, err
	}

	fill, err := r.Bool()
	if err != nil {
		return nil, err
	}

	if fill {
		value, err := r.Uint32()
		if err != nil {
			return nil, err
		}

		out := make([]uint32, count)
		for i := range out {
			out[i] = value
		}

		return out, nil
	}

	raw, err := ReadMaybeCompressed(r, int(count)*4, useFlag)
	if err != nil {
		return nil, err
	}

	return bytesToUint32s(raw), nil
}

// readArrayBody reads the u32 element count and the enveloped body bytes.
func readArrayBody(r *stream.Reader, elemSize int, useFlag bool) ([]byte, error) {
	count, err := r.Uint32()
	if err != nil {
		return nil, err
	}

	return ReadMaybeCompressed(r, int(count)*elemSize, useFlag)
}

// bytesToUint32s reinterprets a little-endian byte body as uint32 elements.
func bytesToUint32s(raw []byte) []uint32 {
	out := make([]uint32, len(raw)/4)
	for i := range out {
		out[i] = binary.LittleEndian.Uint32(raw[i*4:])
	}

	return out
}
