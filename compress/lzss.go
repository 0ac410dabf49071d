// SPDX-License-Identifier: MIT
// Copyright (c) 2026 bzed
// Source: github.com/bzed/grad-aff

package compress

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/woozymasta/lzss"
)

// LZSS parameters shared with the engine: sliding window, longest match,
// minimum encoded match length.
const (
	lzssWindowSize = 4096
	lzssBestMatch  = 18
	lzssThreshold  = 2
)

// DecompressLZSSFrom decodes an LZSS block with a known uncompressed size
// from src. The signed flag selects the trailer checksum convention:
// unsigned byte addition for PBO entry data, signed for legacy call sites.
func DecompressLZSSFrom(src io.Reader, outLen int, signed bool) ([]byte, error) {
	if outLen <= 0 {
		return nil, nil
	}

	var one [1]byte
	readByte := func() (byte, error) {
		if _, err := io.ReadFull(src, one[:]); err != nil {
			return 0, fmt.Errorf("%w: %w", ErrTruncatedInput, err)
		}

		return one[0], nil
	}

	ring := make([]byte, lzssWindowSize+lzssBestMatch-1)
	for i := 0; i < lzssWindowSize-lzssBestMatch; i++ {
		ring[i] = ' '
	}

	out := make([]byte, 0, outLen)
	cursor := lzssWindowSize - lzssBestMatch
	remaining := outLen
	var checksum int32
	flags := 0

	emit := func(b byte) {
		if signed {
			checksum += int32(int8(b))
		} else {
			checksum += int32(b)
		}

		out = append(out, b)
		remaining--
		ring[cursor] = b
		cursor = (cursor + 1) & (lzssWindowSize - 1)
	}

	for remaining > 0 {
		flags >>= 1
		if flags&256 == 0 {
			b, err := readByte()
			if err != nil {
				return nil, err
			}

			flags = int(b) | 0xFF00
		}

		if flags&1 != 0 {
			b, err := readByte()
			if err != nil {
				return nil, err
			}

			emit(b)
			continue
		}

		p, err := readByte()
		if err != nil {
			return nil, err
		}
		l, err := readByte()
		if err != nil {
			return nil, err
		}

		pos := int(p) | int(l&0xF0)<<4
		length := int(l&0x0F) + lzssThreshold
		if length+1 > remaining {
			return nil, fmt.Errorf("%w: back-reference of %d bytes with %d remaining", ErrOverflow, length+1, remaining)
		}

		from := cursor - pos
		for i := from; i <= from+length; i++ {
			emit(ring[i&(lzssWindowSize-1)])
		}
	}

	var trailer [4]byte
	if _, err := io.ReadFull(src, trailer[:]); err != nil {
		return nil, fmt.Errorf("%w: checksum trailer: %w", ErrTruncatedInput, err)
	}

	stored := int32(binary.LittleEndian.Uint32(trailer[:]))
	if stored != checksum {
		return nil, fmt.Errorf("%w: stored %#x, computed %#x", ErrChecksumMismatch, uint32(stored), uint32(checksum))
	}

	return out, nil
}

// DecompressLZSS decodes an in-memory LZSS block with a known uncompressed size.
func DecompressLZSS(src []byte, outLen int, signed bool) ([]byte, error) {
	return DecompressLZSSFrom(bytes.NewReader(src), outLen, signed)
}

// ReadLZSSFile decodes a whole LZSS-compressed buffer whose uncompressed
// size is unknown: tokens are consumed until four bytes remain, which hold
// the unsigned additive checksum.
func ReadLZSSFile(src []byte) ([]byte, error) {
	if len(src) < 4 {
		return nil, fmt.Errorf("%w: %d bytes", ErrTruncatedInput, len(src))
	}

	ring := make([]byte, lzssWindowSize+lzssBestMatch-1)
	out := make([]byte, 0, len(src)*4)
	cursor := lzssWindowSize - lzssBestMatch
	var checksum int32
	flags := 0
	idx := 0
	end := len(src) - 4

	emit := func(b byte) {
		checksum += int32(b)
		out = append(out, b)
		ring[cursor] = b
		cursor = (cursor + 1) & (lzssWindowSize - 1)
	}

	for idx < end {
		flags >>= 1
		if flags&256 == 0 {
			flags = int(src[idx]) | 0xFF00
			idx++
		}

		if idx >= end {
			break
		}

		if flags&1 != 0 {
			emit(src[idx])
			idx++
			continue
		}

		if idx+1 >= end {
			return nil, fmt.Errorf("%w: dangling back-reference", ErrTruncatedInput)
		}

		pos := int(src[idx]) | int(src[idx+1]&0xF0)<<4
		length := int(src[idx+1]&0x0F) + lzssThreshold
		idx += 2

		from := cursor - pos
		for i := from; i <= from+length; i++ {
			emit(ring[i&(lzssWindowSize-1)])
		}
	}

	stored := int32(binary.LittleEndian.Uint32(src[end:]))
	if stored != checksum {
		return nil, fmt.Errorf("%w: stored %#x, computed %#x", ErrChecksumMismatch, uint32(stored), uint32(checksum))
	}

	return out, nil
}

// CompressLZSS encodes data with the engine's LZSS token format and
// unsigned trailer checksum.
func CompressLZSS(data []byte) ([]byte, error) {
	return lzss.Compress(data, lzss.DefaultCompressOptions())
}
