// SPDX-License-Identifier: MIT
// Copyright (c) 2026 bzed
// Source: github.com/bzed/grad-aff

package paa

import (
	"fmt"
	"io"
	"os"

	"github.com/mauserzjeh/dxt"

	"github.com/bzed/grad-aff/compress"
	"github.com/bzed/grad-aff/stream"
)

// Open reads and decodes a PAA texture file.
func Open(path string) (*Paa, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open PAA: %w", err)
	}
	defer func() { _ = f.Close() }()

	return Decode(f)
}

// DecodeBytes decodes a PAA texture from an in-memory buffer.
func DecodeBytes(b []byte) (*Paa, error) {
	return Decode(stream.NewBytesReader(b))
}

// Decode reads one PAA texture from rs: magic, taggs, palette, then the
// mipmap chain terminated by three zero uint16 values. DXT1 and DXT5
// mipmaps are unwrapped from LZO where flagged and block-decoded into
// RGBA8 rasters; other kinds keep their stored payload.
func Decode(rs io.ReadSeeker) (*Paa, error) {
	r := stream.NewReader(rs)
	p := &Paa{}

	magic, err := r.Uint16()
	if err != nil {
		return nil, fmt.Errorf("read magic: %w", err)
	}

	kind, ok := magicToKind[magic]
	if !ok {
		return nil, fmt.Errorf("%w: %#04x", ErrInvalidMagic, magic)
	}
	p.Kind = kind

	if err := p.readTaggs(r); err != nil {
		return nil, err
	}

	if err := p.readPalette(r); err != nil {
		return nil, err
	}

	if err := p.readMipMaps(r); err != nil {
		return nil, err
	}

	// Trailer: three zero uint16 values terminate the mipmap chain.
	for i := 0; i < 3; i++ {
		v, err := r.Uint16()
		if err != nil {
			return nil, fmt.Errorf("read trailer: %w", err)
		}

		if v != 0 {
			return nil, fmt.Errorf("%w: nonzero trailer word %#04x", ErrInvalidFormat, v)
		}
	}

	return p, nil
}

// readTaggs consumes TLV chunks while the next byte is nonzero.
func (p *Paa) readTaggs(r *stream.Reader) error {
	for {
		next, err := r.PeekUint8()
		if err != nil {
			return fmt.Errorf("peek tagg: %w", err)
		}

		if next == 0 {
			return nil
		}

		signature, err := r.String(taggSignatureSize)
		if err != nil {
			return fmt.Errorf("read tagg signature: %w", err)
		}

		length, err := r.Uint32()
		if err != nil {
			return fmt.Errorf("read tagg length: %w", err)
		}

		data, err := r.Fixed(int(length))
		if err != nil {
			return fmt.Errorf("read tagg %s data: %w", signature, err)
		}

		p.Taggs = append(p.Taggs, Tagg{Signature: signature, Data: data})

		switch signature {
		case SignatureTransparency:
			p.HasTransparency = true
		case SignatureAverageColor:
			if len(data) == 4 {
				copy(p.AverageColor[:], data)
			}
		}
	}
}

// readPalette consumes the palette length slot and body.
func (p *Paa) readPalette(r *stream.Reader) error {
	length, err := r.Uint16()
	if err != nil {
		return fmt.Errorf("read palette length: %w", err)
	}

	if length == 0 {
		return nil
	}

	data, err := r.Fixed(int(length))
	if err != nil {
		return fmt.Errorf("read palette data: %w", err)
	}

	p.Palette.Data = data
	return nil
}

// readMipMaps consumes mipmap records while the next uint16 is nonzero.
func (p *Paa) readMipMaps(r *stream.Reader) error {
	for {
		next, err := r.PeekUint16()
		if err != nil {
			return fmt.Errorf("peek mipmap: %w", err)
		}

		if next == 0 {
			return nil
		}

		m, err := p.readMipMap(r)
		if err != nil {
			return err
		}

		p.MipMaps = append(p.MipMaps, m)
	}
}

// readMipMap reads one record and decodes its payload for DXT kinds.
func (p *Paa) readMipMap(r *stream.Reader) (MipMap, error) {
	var m MipMap

	width, err := r.Uint16()
	if err != nil {
		return m, fmt.Errorf("read mipmap width: %w", err)
	}

	// Top width bit flags LZO wrapping of the block payload.
	if width&lzoWidthFlag != 0 {
		m.LzoPacked = true
		width &^= lzoWidthFlag
	}
	m.Width = width

	if m.Height, err = r.Uint16(); err != nil {
		return m, fmt.Errorf("read mipmap height: %w", err)
	}

	length, err := r.Uint24()
	if err != nil {
		return m, fmt.Errorf("read mipmap length: %w", err)
	}

	data, err := r.Fixed(int(length))
	if err != nil {
		return m, fmt.Errorf("read mipmap data: %w", err)
	}

	if m.LzoPacked {
		expected, err := blockBytes(p.Kind, int(m.Width), int(m.Height))
		if err != nil {
			return m, err
		}

		if data, err = compress.DecompressLZO(data, expected); err != nil {
			return m, fmt.Errorf("mipmap %dx%d: %w", m.Width, m.Height, err)
		}
	}

	switch p.Kind {
	case KindDXT1:
		pix, err := dxt.DecodeDXT1(data, uint(m.Width), uint(m.Height))
		if err != nil {
			return m, fmt.Errorf("%w: decode DXT1 %dx%d: %w", ErrDxt, m.Width, m.Height, err)
		}

		m.Data = pix
	case KindDXT5:
		pix, err := dxt.DecodeDXT5(data, uint(m.Width), uint(m.Height))
		if err != nil {
			return m, fmt.Errorf("%w: decode DXT5 %dx%d: %w", ErrDxt, m.Width, m.Height, err)
		}

		m.Data = pix
	default:
		m.Data = data
	}

	return m, nil
}

// blockBytes returns the DXT block stream size for one level.
func blockBytes(kind PaxKind, width, height int) (int, error) {
	tiles := ((width + 3) / 4) * ((height + 3) / 4)

	switch kind {
	case KindDXT1:
		return tiles * 8, nil
	case KindDXT5:
		return tiles * 16, nil
	default:
		return 0, fmt.Errorf("%w: LZO-wrapped %s mipmap", ErrUnsupported, kind)
	}
}
