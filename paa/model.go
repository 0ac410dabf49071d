// SPDX-License-Identifier: MIT
// Copyright (c) 2026 bzed
// Source: github.com/bzed/grad-aff

package paa

// PaxKind identifies the pixel encoding of a PAA/PAC texture.
type PaxKind uint8

// Texture kinds selected by the leading magic number.
const (
	KindUnknown PaxKind = iota
	KindDXT1
	KindDXT2
	KindDXT3
	KindDXT4
	KindDXT5
	KindRGBA4444
	KindRGBA5551
	KindRGBA8888
	KindGrayAlpha
)

// magicToKind is the magic number lookup table.
var magicToKind = map[uint16]PaxKind{
	0xFF01: KindDXT1,
	0xFF02: KindDXT2,
	0xFF03: KindDXT3,
	0xFF04: KindDXT4,
	0xFF05: KindDXT5,
	0x4444: KindRGBA4444,
	0x1555: KindRGBA5551,
	0x8888: KindRGBA8888,
	0x8080: KindGrayAlpha,
}

// kindToMagic is the inverse of magicToKind.
var kindToMagic = map[PaxKind]uint16{
	KindDXT1:      0xFF01,
	KindDXT2:      0xFF02,
	KindDXT3:      0xFF03,
	KindDXT4:      0xFF04,
	KindDXT5:      0xFF05,
	KindRGBA4444:  0x4444,
	KindRGBA5551:  0x1555,
	KindRGBA8888:  0x8888,
	KindGrayAlpha: 0x8080,
}

// String returns the conventional kind name.
func (k PaxKind) String() string {
	switch k {
	case KindDXT1:
		return "DXT1"
	case KindDXT2:
		return "DXT2"
	case KindDXT3:
		return "DXT3"
	case KindDXT4:
		return "DXT4"
	case KindDXT5:
		return "DXT5"
	case KindRGBA4444:
		return "RGBA4444"
	case KindRGBA5551:
		return "RGBA5551"
	case KindRGBA8888:
		return "RGBA8888"
	case KindGrayAlpha:
		return "GRAYwAlpha"
	default:
		return "unknown"
	}
}

// Tagg signatures as stored on disk (byte-reversed tokens).
const (
	// SignatureAverageColor is the 4-byte RGBA average color tagg ("AVGCTAGG").
	SignatureAverageColor = "GGATCGVA"
	// SignatureMaxColor is the 4-byte RGBA maximum color tagg ("MAXCTAGG").
	SignatureMaxColor = "GGATCXAM"
	// SignatureOffsets is the mipmap offset table tagg ("OFFSTAGG").
	SignatureOffsets = "GGATSFFO"
	// SignatureTransparency is the transparency flag tagg ("FLAGTAGG").
	SignatureTransparency = "GGATGALF"
)

// taggSignatureSize is the fixed on-disk signature width.
const taggSignatureSize = 8

// lzoWidthFlag marks an LZO-wrapped mipmap in the stored width field.
const lzoWidthFlag = 0x8000

// lzoWrapMinWidth is the width above which mipmap data is LZO-wrapped on write.
const lzoWrapMinWidth = 128

// Tagg is one TLV chunk preceding the mipmap chain. Unknown signatures are
// kept as-is and survive a round-trip.
type Tagg struct {
	// Signature is the 8-byte on-disk token, e.g. "GGATCGVA".
	Signature string `json:"signature" yaml:"signature"`
	// Data is the raw tagg payload; its length is authoritative.
	Data []byte `json:"data" yaml:"data"`
}

// Palette is the palette slot of palettized formats. The length is zero for
// every DXT texture; writing a nonzero palette is unsupported.
type Palette struct {
	Data []byte `json:"data,omitempty" yaml:"data,omitempty"`
}

// MipMap is one level of the texture pyramid. After a successful read of a
// DXT1/DXT5 texture, Data holds the decoded width*height*4 RGBA8 raster;
// for other kinds it holds the raw stored bytes.
type MipMap struct {
	// Data is the pixel payload.
	Data []byte `json:"data" yaml:"data"`
	// Width is the level width in pixels (LZO flag already stripped).
	Width uint16 `json:"width" yaml:"width"`
	// Height is the level height in pixels.
	Height uint16 `json:"height" yaml:"height"`
	// LzoPacked reports whether the stored payload was LZO-wrapped.
	LzoPacked bool `json:"lzo_packed,omitempty" yaml:"lzo_packed,omitempty"`
}

// Paa is a parsed texture: kind, taggs, palette and the mipmap pyramid
// ordered full resolution first.
type Paa struct {
	// Taggs holds leading chunks in parse order.
	Taggs []Tagg `json:"taggs,omitempty" yaml:"taggs,omitempty"`
	// MipMaps is the pyramid, index 0 = full resolution.
	MipMaps []MipMap `json:"mipmaps" yaml:"mipmaps"`
	// Palette is the palette slot (empty for DXT kinds).
	Palette Palette `json:"palette,omitzero" yaml:"palette,omitzero"`
	// Kind is the pixel encoding.
	Kind PaxKind `json:"kind" yaml:"kind"`
	// HasTransparency is set when the transparency flag tagg was seen or
	// the computed average alpha is not opaque.
	HasTransparency bool `json:"has_transparency,omitempty" yaml:"has_transparency,omitempty"`
	// AverageColor is the computed or parsed average RGBA color.
	AverageColor [4]uint8 `json:"average_color,omitempty" yaml:"average_color,omitempty"`
}

// New returns an empty texture defaulting to DXT5.
func New() *Paa {
	return &Paa{Kind: KindDXT5}
}

// FromRGBA returns a texture seeded with one full-resolution RGBA8 level.
// Width and height must match len(pix) == w*h*4.
func FromRGBA(pix []byte, width, height int) (*Paa, error) {
	if width <= 0 || height <= 0 || len(pix) != width*height*4 {
		return nil, ErrInvalidDimensions
	}
	if width > 0x7FFF || height > 0xFFFF {
		return nil, ErrInvalidDimensions
	}

	data := make([]byte, len(pix))
	copy(data, pix)

	return &Paa{
		Kind: KindDXT5,
		MipMaps: []MipMap{{
			Width:  uint16(width),
			Height: uint16(height),
			Data:   data,
		}},
	}, nil
}

// RawPixelData returns the pixel buffer of one mipmap level.
func (p *Paa) RawPixelData(level int) []byte {
	if p == nil || level < 0 || level >= len(p.MipMaps) {
		return nil
	}

	return p.MipMaps[level].Data
}

// Tagg returns the first tagg with the given on-disk signature.
func (p *Paa) Tagg(signature string) (Tagg, bool) {
	if p == nil {
		return Tagg{}, false
	}

	for _, t := range p.Taggs {
		if t.Signature == signature {
			return t, true
		}
	}

	return Tagg{}, false
}
