// SPDX-License-Identifier: MIT
// Copyright (c) 2026 bzed
// Source: github.com/bzed/grad-aff

package stream

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"time"
)

// Reader is a typed little-endian cursor over a seekable byte source.
// It is not safe for concurrent use; each codec owns exactly one Reader.
type Reader struct {
	rs      io.ReadSeeker
	scratch [16]byte
}

// NewReader returns a Reader over rs. The cursor starts wherever rs points.
func NewReader(rs io.ReadSeeker) *Reader {
	return &Reader{rs: rs}
}

// NewBytesReader returns a Reader over an in-memory buffer.
func NewBytesReader(b []byte) *Reader {
	return &Reader{rs: bytes.NewReader(b)}
}

// Read exposes the underlying source so the Reader composes with
// stream-consuming codecs. The cursor advances by the bytes read.
func (r *Reader) Read(p []byte) (int, error) {
	return r.rs.Read(p)
}

// Offset returns the current cursor position.
func (r *Reader) Offset() (int64, error) {
	return r.rs.Seek(0, io.SeekCurrent)
}

// Seek repositions the cursor and returns the new absolute offset.
func (r *Reader) Seek(offset int64, whence int) (int64, error) {
	return r.rs.Seek(offset, whence)
}

// readFull fills the first n scratch bytes or fails with ErrUnexpectedEOF.
func (r *Reader) readFull(n int) ([]byte, error) {
	buf := r.scratch[:n]
	if _, err := io.ReadFull(r.rs, buf); err != nil {
		return nil, wrapReadErr(err)
	}

	return buf, nil
}

// wrapReadErr maps short-read conditions onto ErrUnexpectedEOF.
func wrapReadErr(err error) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return fmt.Errorf("%w: %w", ErrUnexpectedEOF, err)
	}

	return err
}

// Uint8 reads one unsigned byte.
func (r *Reader) Uint8() (uint8, error) {
	buf, err := r.readFull(1)
	if err != nil {
		return 0, err
	}

	return buf[0], nil
}

// Int8 reads one signed byte.
func (r *Reader) Int8() (int8, error) {
	v, err := r.Uint8()
	return int8(v), err
}

// Bool reads one byte; any nonzero value is true.
func (r *Reader) Bool() (bool, error) {
	v, err := r.Uint8()
	return v != 0, err
}

// Uint16 reads a little-endian unsigned 16-bit value.
func (r *Reader) Uint16() (uint16, error) {
	buf, err := r.readFull(2)
	if err != nil {
		return 0, err
	}

	return binary.LittleEndian.Uint16(buf), nil
}

// Int16 reads a little-endian signed 16-bit value.
func (r *Reader) Int16() (int16, error) {
	v, err := r.Uint16()
	return int16(v), err
}

// Uint32 reads a little-endian unsigned 32-bit value.
func (r *Reader) Uint32() (uint32, error) {
	buf, err := r.readFull(4)
	if err != nil {
		return 0, err
	}

	return binary.LittleEndian.Uint32(buf), nil
}

// Int32 reads a little-endian signed 32-bit value.
func (r *Reader) Int32() (int32, error) {
	v, err := r.Uint32()
	return int32(v), err
}

// Float32 reads a little-endian IEEE 754 single.
func (r *Reader) Float32() (float32, error) {
	v, err := r.Uint32()
	return math.Float32frombits(v), err
}

// Uint24 reads a 3-byte little-endian unsigned value ("arma ushort").
func (r *Reader) Uint24() (uint32, error) {
	buf, err := r.readFull(3)
	if err != nil {
		return 0, err
	}

	return uint32(buf[0]) | uint32(buf[1])<<8 | uint32(buf[2])<<16, nil
}

// CompressedInteger reads the raP variable-width integer: continuation
// while the high bit is set, accumulating ret += (b - 1) * 0x80 per
// continuation byte. The accumulation deliberately matches the engine's
// arithmetic rather than LEB128.
func (r *Reader) CompressedInteger() (uint32, error) {
	val, err := r.Uint8()
	if err != nil {
		return 0, err
	}

	ret := uint32(val)
	for val&0x80 != 0 {
		val, err = r.Uint8()
		if err != nil {
			return 0, err
		}

		ret += (uint32(val) - 1) * 0x80
	}

	return ret, nil
}

// Fixed reads exactly n raw bytes into a fresh slice.
func (r *Reader) Fixed(n int) ([]byte, error) {
	if n == 0 {
		return nil, nil
	}

	buf := make([]byte, n)
	if _, err := io.ReadFull(r.rs, buf); err != nil {
		return nil, wrapReadErr(err)
	}

	return buf, nil
}

// String reads a fixed-count byte string without terminator handling.
func (r *Reader) String(n int) (string, error) {
	buf, err := r.Fixed(n)
	if err != nil {
		return "", err
	}

	return string(buf), nil
}

// ZeroTerminated consumes bytes up to and including the next 0x00 and
// returns the preceding bytes as a string.
func (r *Reader) ZeroTerminated() (string, error) {
	var out []byte
	for {
		b, err := r.Uint8()
		if err != nil {
			return "", err
		}

		if b == 0 {
			return string(out), nil
		}

		out = append(out, b)
	}
}

// Timestamp reads a uint32 as seconds since the Unix epoch.
func (r *Reader) Timestamp() (time.Time, error) {
	v, err := r.Uint32()
	if err != nil {
		return time.Time{}, err
	}

	return time.Unix(int64(v), 0).UTC(), nil
}

// XYZ reads three consecutive float32 values.
func (r *Reader) XYZ() ([3]float32, error) {
	var t [3]float32
	for i := range t {
		v, err := r.Float32()
		if err != nil {
			return t, err
		}

		t[i] = v
	}

	return t, nil
}

// Matrix4x3 reads four consecutive XYZ triplets.
func (r *Reader) Matrix4x3() ([4][3]float32, error) {
	var m [4][3]float32
	for i := range m {
		t, err := r.XYZ()
		if err != nil {
			return m, err
		}

		m[i] = t
	}

	return m, nil
}

// ColorValue reads four consecutive float32 values (RGBA color).
func (r *Reader) ColorValue() ([4]float32, error) {
	var c [4]float32
	for i := range c {
		v, err := r.Float32()
		if err != nil {
			return c, err
		}

		c[i] = v
	}

	return c, nil
}

// peek runs read with the cursor restored afterwards.
func (r *Reader) peek(read func() error) error {
	pos, err := r.Offset()
	if err != nil {
		return err
	}

	if err := read(); err != nil {
		return err
	}

	_, err = r.Seek(pos, io.SeekStart)
	return err
}

// PeekUint8 reads one byte without advancing the cursor.
func (r *Reader) PeekUint8() (uint8, error) {
	var v uint8
	err := r.peek(func() (err error) {
		v, err = r.Uint8()
		return err
	})

	return v, err
}

// PeekUint16 reads a uint16 without advancing the cursor.
func (r *Reader) PeekUint16() (uint16, error) {
	var v uint16
	err := r.peek(func() (err error) {
		v, err = r.Uint16()
		return err
	})

	return v, err
}

// PeekUint32 reads a uint32 without advancing the cursor.
func (r *Reader) PeekUint32() (uint32, error) {
	var v uint32
	err := r.peek(func() (err error) {
		v, err = r.Uint32()
		return err
	})

	return v, err
}
