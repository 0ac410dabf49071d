// SPDX-License-Identifier: MIT
// Copyright (c) 2026 bzed
// Source: github.com/bzed/grad-aff

package paa

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/bzed/grad-aff/compress"
	"github.com/bzed/grad-aff/stream"
)

// EncodeFile encodes the texture into a PAA file at path.
// Kind selects the target encoding; KindUnknown picks DXT5 for transparent
// textures and DXT1 otherwise.
func (p *Paa) EncodeFile(path string, kind PaxKind) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create PAA: %w", err)
	}

	encodeErr := p.Encode(f, kind)
	closeErr := f.Close()
	if encodeErr != nil {
		return encodeErr
	}

	return closeErr
}

// Encode serializes the texture: magic, taggs (with a freshly computed
// mipmap offset table), palette slot, DXT-encoded mipmap records and the
// zero trailer. Mipmaps wider than 128 pixels carry an LZO-wrapped payload
// flagged in the stored width.
//
// Offsets embedded in the OFFS tagg depend on the tagg block size itself,
// so record sizes are computed before anything is emitted.
func (p *Paa) Encode(w io.Writer, kind PaxKind) error {
	if p == nil || len(p.MipMaps) == 0 {
		return ErrNoMipMaps
	}

	if len(p.Palette.Data) > 0 {
		return fmt.Errorf("%w: palettized texture", ErrUnsupported)
	}

	if len(p.MipMaps) <= 1 {
		if err := p.CalculateMipmapsAndTaggs(); err != nil {
			return err
		}
	}

	if kind == KindUnknown {
		kind = KindDXT1
		if p.HasTransparency {
			kind = KindDXT5
		}
	}

	if kind != KindDXT1 && kind != KindDXT5 {
		return fmt.Errorf("%w: write as %s", ErrUnsupported, kind)
	}
	p.Kind = kind

	encoded, err := p.encodeMipMaps(kind)
	if err != nil {
		return err
	}

	// A stale offset table from a previous read would double up.
	p.dropTaggs(SignatureOffsets)

	taggs := make([]Tagg, 0, len(p.Taggs)+1)
	taggs = append(taggs, p.Taggs...)

	offsets, err := mipMapOffsets(taggs, encoded)
	if err != nil {
		return err
	}
	taggs = append(taggs, offsets)

	sw := stream.NewWriter(w)
	if err := sw.Uint16(kindToMagic[kind]); err != nil {
		return fmt.Errorf("write magic: %w", err)
	}

	for _, t := range taggs {
		if err := writeTagg(sw, t); err != nil {
			return err
		}
	}

	// Empty palette slot.
	if err := sw.Uint16(0); err != nil {
		return fmt.Errorf("write palette length: %w", err)
	}

	for _, m := range encoded {
		width := m.Width
		if m.LzoPacked {
			width |= lzoWidthFlag
		}

		if err := sw.Uint16(width); err != nil {
			return fmt.Errorf("write mipmap width: %w", err)
		}
		if err := sw.Uint16(m.Height); err != nil {
			return fmt.Errorf("write mipmap height: %w", err)
		}
		if err := sw.Uint24(uint32(len(m.Data))); err != nil {
			return fmt.Errorf("write mipmap length: %w", err)
		}
		if err := sw.Bytes(m.Data); err != nil {
			return fmt.Errorf("write mipmap data: %w", err)
		}
	}

	for i := 0; i < 3; i++ {
		if err := sw.Uint16(0); err != nil {
			return fmt.Errorf("write trailer: %w", err)
		}
	}

	return nil
}

// encodeMipMaps block-compresses every level and LZO-wraps the wide ones.
func (p *Paa) encodeMipMaps(kind PaxKind) ([]MipMap, error) {
	encoded := make([]MipMap, len(p.MipMaps))
	for i, m := range p.MipMaps {
		if len(m.Data) != int(m.Width)*int(m.Height)*4 {
			return nil, fmt.Errorf("%w: level %d is not an RGBA raster", ErrInvalidDimensions, i)
		}

		var blocks []byte
		var err error
		switch kind {
		case KindDXT1:
			blocks, err = encodeDXT1(m.Data, int(m.Width), int(m.Height))
		default:
			blocks, err = encodeDXT5(m.Data, int(m.Width), int(m.Height))
		}
		if err != nil {
			return nil, fmt.Errorf("encode level %d: %w", i, err)
		}

		out := MipMap{Width: m.Width, Height: m.Height, Data: blocks}
		if m.Width > lzoWrapMinWidth {
			packed, err := compress.CompressLZO(blocks)
			if err != nil {
				return nil, fmt.Errorf("wrap level %d: %w", i, err)
			}

			out.Data = packed
			out.LzoPacked = true
		}

		encoded[i] = out
	}

	return encoded, nil
}

// mipMapOffsets builds the OFFS tagg for the final file layout: magic,
// every tagg including this one, the palette slot, then the records.
func mipMapOffsets(taggs []Tagg, encoded []MipMap) (Tagg, error) {
	offset := uint64(2)
	for _, t := range taggs {
		offset += taggSignatureSize + 4 + uint64(len(t.Data))
	}

	offset += taggSignatureSize + 4 + 4*uint64(len(encoded))
	offset += 2 // palette length slot

	data := make([]byte, 0, 4*len(encoded))
	for _, m := range encoded {
		if offset > math.MaxUint32 {
			return Tagg{}, fmt.Errorf("%w: mipmap offset", ErrTaggTooLarge)
		}

		var slot [4]byte
		binary.LittleEndian.PutUint32(slot[:], uint32(offset))
		data = append(data, slot[:]...)

		offset += 2 + 2 + 3 + uint64(len(m.Data))
	}

	return Tagg{Signature: SignatureOffsets, Data: data}, nil
}

// writeTagg emits one TLV chunk.
func writeTagg(sw *stream.Writer, t Tagg) error {
	if len(t.Signature) != taggSignatureSize {
		return fmt.Errorf("%w: signature %q", ErrInvalidFormat, t.Signature)
	}
	if uint64(len(t.Data)) > math.MaxUint32 {
		return fmt.Errorf("%w: %s", ErrTaggTooLarge, t.Signature)
	}

	if err := sw.String(t.Signature); err != nil {
		return fmt.Errorf("write tagg signature: %w", err)
	}
	if err := sw.Uint32(uint32(len(t.Data))); err != nil {
		return fmt.Errorf("write tagg length: %w", err)
	}
	if err := sw.Bytes(t.Data); err != nil {
		return fmt.Errorf("write tagg data: %w", err)
	}

	return nil
}
