// SPDX-License-Identifier: MIT
// Copyright (c) 2026 bzed
// Source: github.com/bzed/grad-aff

/*
Package stream provides typed little-endian read and write primitives for
the binary file formats of the Arma engine family.

A Reader is a single-owner cursor over an io.ReadSeeker: all format codecs
in this module drive reads through one Reader, consuming the byte stream in
file order. Peek operations save the offset, read, and restore the offset.

Beyond fixed-width scalars the Reader knows the engine-specific shapes:
the 3-byte little-endian unsigned integer ("arma ushort"), zero-terminated
strings, the raP variable-width compressed integer, XYZ float triplets and
4x3 transform matrices.
*/
package stream
