// SPDX-License-Identifier: MIT
// Copyright (c) 2026 bzed
// Source: github.com/bzed/grad-aff

package stream

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"
)

// ByteWriter is the sink interface required by Writer.
type ByteWriter interface {
	Write(p []byte) (int, error)
}

// Writer appends typed little-endian values to a sink. It never seeks;
// callers that need offset fixups compute sizes up front.
type Writer struct {
	w       ByteWriter
	count   int64
	scratch [16]byte
}

// NewWriter returns a Writer appending to w.
func NewWriter(w ByteWriter) *Writer {
	return &Writer{w: w}
}

// Count returns the number of bytes written so far.
func (w *Writer) Count() int64 {
	return w.count
}

// write flushes the first n scratch bytes to the sink.
func (w *Writer) write(n int) error {
	written, err := w.w.Write(w.scratch[:n])
	w.count += int64(written)
	return err
}

// Uint8 writes one unsigned byte.
func (w *Writer) Uint8(v uint8) error {
	w.scratch[0] = v
	return w.write(1)
}

// Bool writes one byte: 1 for true, 0 for false.
func (w *Writer) Bool(v bool) error {
	if v {
		return w.Uint8(1)
	}

	return w.Uint8(0)
}

// Uint16 writes a little-endian unsigned 16-bit value.
func (w *Writer) Uint16(v uint16) error {
	binary.LittleEndian.PutUint16(w.scratch[:2], v)
	return w.write(2)
}

// Uint32 writes a little-endian unsigned 32-bit value.
func (w *Writer) Uint32(v uint32) error {
	binary.LittleEndian.PutUint32(w.scratch[:4], v)
	return w.write(4)
}

// Int32 writes a little-endian signed 32-bit value.
func (w *Writer) Int32(v int32) error {
	return w.Uint32(uint32(v))
}

// Float32 writes a little-endian IEEE 754 single.
func (w *Writer) Float32(v float32) error {
	return w.Uint32(math.Float32bits(v))
}

// Uint24 writes the low three bytes of v little-endian ("arma ushort").
// Values above 0xFFFFFF do not fit and are rejected.
func (w *Writer) Uint24(v uint32) error {
	if v > 0xFFFFFF {
		return fmt.Errorf("%w: %d exceeds 24 bits", ErrValueTooLarge, v)
	}

	w.scratch[0] = byte(v)
	w.scratch[1] = byte(v >> 8)
	w.scratch[2] = byte(v >> 16)
	return w.write(3)
}

// Bytes writes a raw byte span.
func (w *Writer) Bytes(p []byte) error {
	n, err := w.w.Write(p)
	w.count += int64(n)
	return err
}

// String writes the raw bytes of s without a terminator.
func (w *Writer) String(s string) error {
	return w.Bytes([]byte(s))
}

// ZeroTerminated writes s followed by a single 0x00.
func (w *Writer) ZeroTerminated(s string) error {
	if err := w.String(s); err != nil {
		return err
	}

	return w.Uint8(0)
}

// Timestamp writes t as uint32 seconds since the Unix epoch, clamped.
func (w *Writer) Timestamp(t time.Time) error {
	u := t.Unix()
	if u < 0 {
		u = 0
	}
	if u > math.MaxUint32 {
		u = math.MaxUint32
	}

	return w.Uint32(uint32(u))
}

// XYZ writes three consecutive float32 values.
func (w *Writer) XYZ(t [3]float32) error {
	for _, v := range t {
		if err := w.Float32(v); err != nil {
			return err
		}
	}

	return nil
}

// Matrix4x3 writes four consecutive XYZ triplets.
func (w *Writer) Matrix4x3(m [4][3]float32) error {
	for _, t := range m {
		if err := w.XYZ(t); err != nil {
			return err
		}
	}

	return nil
}
