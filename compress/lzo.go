// SPDX-License-Identifier: MIT
// Copyright (c) 2026 bzed
// Source: github.com/bzed/grad-aff

package compress

import (
	"fmt"
	"io"

	"github.com/woozymasta/lzo"
)

// DecompressLZO decodes an LZO1X block into exactly outLen bytes.
func DecompressLZO(src []byte, outLen int) ([]byte, error) {
	out, err := lzo.Decompress(src, lzo.DefaultDecompressOptions(outLen))
	if err != nil {
		return nil, fmt.Errorf("%w: decompress: %w", ErrLzo, err)
	}

	return out, nil
}

// DecompressLZON decodes an LZO1X block and also reports how many input
// bytes the block consumed, for back-to-back compressed runs.
func DecompressLZON(src []byte, outLen int) ([]byte, int, error) {
	out, n, err := lzo.DecompressN(src, lzo.DefaultDecompressOptions(outLen))
	if err != nil {
		return nil, 0, fmt.Errorf("%w: decompress: %w", ErrLzo, err)
	}

	return out, n, nil
}

// DecompressLZOFrom decodes an LZO1X block of known uncompressed size from
// a byte stream, consuming only the block's compressed bytes.
func DecompressLZOFrom(src io.Reader, outLen int) ([]byte, error) {
	out, err := lzo.DecompressFromReader(src, lzo.DefaultDecompressOptions(outLen))
	if err != nil {
		return nil, fmt.Errorf("%w: decompress: %w", ErrLzo, err)
	}

	return out, nil
}

// CompressLZO encodes data as an LZO1X-1 block.
func CompressLZO(data []byte) ([]byte, error) {
	out, err := lzo.Compress(data, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: compress: %w", ErrLzo, err)
	}

	return out, nil
}
