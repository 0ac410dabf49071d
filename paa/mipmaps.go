// SPDX-License-Identifier: MIT
// Copyright (c) 2026 bzed
// Source: github.com/bzed/grad-aff

package paa

import (
	"image"

	"github.com/anthonynsimon/bild/transform"
)

// CalculateMipmapsAndTaggs rebuilds the mipmap pyramid below the
// full-resolution level and recomputes the color taggs.
//
// Levels are produced by halving width and height with a bilinear resample
// of the previous level, stopping before a level whose smaller dimension
// would be 4 or less. The average color tagg is the integer mean over the
// full-resolution pixels; a transparency flag tagg is added when the
// average alpha is not opaque.
func (p *Paa) CalculateMipmapsAndTaggs() error {
	if p == nil || len(p.MipMaps) == 0 {
		return ErrNoMipMaps
	}

	base := p.MipMaps[0]
	if len(base.Data) != int(base.Width)*int(base.Height)*4 {
		return ErrInvalidDimensions
	}

	p.MipMaps = p.MipMaps[:1]

	cur := base
	for min(cur.Width, cur.Height)/2 > 4 {
		next := halveMipMap(cur)
		p.MipMaps = append(p.MipMaps, next)
		cur = next
	}

	p.computeColorTaggs()
	return nil
}

// halveMipMap bilinearly resamples one level down to half size.
func halveMipMap(m MipMap) MipMap {
	src := &image.RGBA{
		Pix:    m.Data,
		Stride: int(m.Width) * 4,
		Rect:   image.Rect(0, 0, int(m.Width), int(m.Height)),
	}

	newWidth := int(m.Width) / 2
	newHeight := int(m.Height) / 2
	dst := transform.Resize(src, newWidth, newHeight, transform.Linear)

	return MipMap{
		Width:  uint16(newWidth),
		Height: uint16(newHeight),
		Data:   dst.Pix,
	}
}

// computeColorTaggs replaces the average/max color and transparency taggs.
func (p *Paa) computeColorTaggs() {
	base := p.MipMaps[0]
	pixelCount := uint64(base.Width) * uint64(base.Height)
	if pixelCount == 0 {
		return
	}

	var sum [4]uint64
	for i := 0; i+3 < len(base.Data); i += 4 {
		sum[0] += uint64(base.Data[i])
		sum[1] += uint64(base.Data[i+1])
		sum[2] += uint64(base.Data[i+2])
		sum[3] += uint64(base.Data[i+3])
	}

	for i := range p.AverageColor {
		p.AverageColor[i] = uint8(sum[i] / pixelCount)
	}

	p.dropTaggs(SignatureAverageColor, SignatureMaxColor, SignatureTransparency)

	p.Taggs = append(p.Taggs, Tagg{
		Signature: SignatureAverageColor,
		Data:      []byte{p.AverageColor[0], p.AverageColor[1], p.AverageColor[2], p.AverageColor[3]},
	})
	p.Taggs = append(p.Taggs, Tagg{
		Signature: SignatureMaxColor,
		Data:      []byte{0xFF, 0xFF, 0xFF, 0xFF},
	})

	if p.AverageColor[3] != 0xFF {
		p.HasTransparency = true
		p.Taggs = append(p.Taggs, Tagg{
			Signature: SignatureTransparency,
			Data:      []byte{0x01, 0xFF, 0xFF, 0xFF},
		})
	}
}

// dropTaggs removes all taggs with one of the given signatures.
func (p *Paa) dropTaggs(signatures ...string) {
	kept := p.Taggs[:0]
	for _, t := range p.Taggs {
		drop := false
		for _, sig := range signatures {
			if t.Signature == sig {
				drop = true
				break
			}
		}

		if !drop {
			kept = append(kept, t)
		}
	}

	p.Taggs = kept
}
