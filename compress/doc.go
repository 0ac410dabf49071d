// SPDX-License-Identifier: MIT
// Copyright (c) 2026 bzed
// Source: github.com/bzed/grad-aff

/*
Package compress bundles the compression paths shared by the Arma format
codecs: the engine's LZSS variant (4096-byte window, 16-bit back-reference
tokens, additive trailer checksum), an LZO1X bridge, and the
"maybe-compressed" envelope used for typed scalar arrays.

LZSS decompression with a known output size is implemented here because the
trailer checksum has two sign conventions and overflow must be detected
against the declared output size. Compression delegates to
github.com/woozymasta/lzss, whose token format is identical.

LZO compress/decompress delegates to github.com/woozymasta/lzo, a pure-Go
LZO1X implementation; failures surface as ErrLzo.
*/
package compress
