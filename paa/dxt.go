// SPDX-License-Identifier: MIT
// Copyright (c) 2026 bzed
// Source: github.com/bzed/grad-aff

package paa

import "fmt"

// DXT block encoding. Decoding goes through github.com/mauserzjeh/dxt; the
// encoder lives here because the texture writer needs the inverse path.
// Blocks cover 4x4 tiles; tiles crossing the right/bottom edge are padded
// by clamping the sample coordinates.

// encodeDXT1 packs an RGBA8 raster into 8-byte DXT1 blocks.
func encodeDXT1(pix []byte, width, height int) ([]byte, error) {
	if err := checkRaster(pix, width, height); err != nil {
		return nil, err
	}

	tilesX := (width + 3) / 4
	tilesY := (height + 3) / 4
	out := make([]byte, 0, tilesX*tilesY*8)

	var tile [16][4]uint8
	for ty := 0; ty < tilesY; ty++ {
		for tx := 0; tx < tilesX; tx++ {
			gatherTile(pix, width, height, tx, ty, &tile)
			out = appendColorBlock(out, &tile)
		}
	}

	return out, nil
}

// encodeDXT5 packs an RGBA8 raster into 16-byte DXT5 blocks
// (interpolated alpha block followed by the color block).
func encodeDXT5(pix []byte, width, height int) ([]byte, error) {
	if err := checkRaster(pix, width, height); err != nil {
		return nil, err
	}

	tilesX := (width + 3) / 4
	tilesY := (height + 3) / 4
	out := make([]byte, 0, tilesX*tilesY*16)

	var tile [16][4]uint8
	for ty := 0; ty < tilesY; ty++ {
		for tx := 0; tx < tilesX; tx++ {
			gatherTile(pix, width, height, tx, ty, &tile)
			out = appendAlphaBlock(out, &tile)
			out = appendColorBlock(out, &tile)
		}
	}

	return out, nil
}

// checkRaster validates raster dimensions against the pixel buffer.
func checkRaster(pix []byte, width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	if len(pix) != width*height*4 {
		return fmt.Errorf("%w: %dx%d raster with %d bytes", ErrInvalidDimensions, width, height, len(pix))
	}

	return nil
}

// gatherTile copies one 4x4 tile, clamping coordinates at the raster edge.
func gatherTile(pix []byte, width, height, tx, ty int, tile *[16][4]uint8) {
	for py := 0; py < 4; py++ {
		y := ty*4 + py
		if y >= height {
			y = height - 1
		}

		for px := 0; px < 4; px++ {
			x := tx*4 + px
			if x >= width {
				x = width - 1
			}

			off := (y*width + x) * 4
			copy(tile[py*4+px][:], pix[off:off+4])
		}
	}
}

// appendColorBlock encodes the RGB endpoints and 2-bit index table.
// Endpoints are the extremes of the tile along the principal luminance
// order; equal endpoints degenerate to a solid block that decodes exactly.
func appendColorBlock(out []byte, tile *[16][4]uint8) []byte {
	minC, maxC := colorBounds(tile)

	c0 := pack565(maxC)
	c1 := pack565(minC)
	if c0 < c1 {
		c0, c1 = c1, c0
		minC, maxC = maxC, minC
	}

	// Four-interpolant palette of the decoder, reproduced for index search.
	var palette [4][3]uint8
	palette[0] = unpack565(c0)
	palette[1] = unpack565(c1)
	if c0 > c1 {
		for i := 0; i < 3; i++ {
			palette[2][i] = uint8((2*int(palette[0][i]) + int(palette[1][i])) / 3)
			palette[3][i] = uint8((int(palette[0][i]) + 2*int(palette[1][i])) / 3)
		}
	} else {
		for i := 0; i < 3; i++ {
			palette[2][i] = uint8((int(palette[0][i]) + int(palette[1][i])) / 2)
		}
		palette[3] = [3]uint8{}
	}

	var indices uint32
	for i := 0; i < 16; i++ {
		best := 0
		bestDist := 1 << 30
		for pi := range palette {
			if c0 <= c1 && pi == 3 {
				continue
			}

			d := colorDist(tile[i], palette[pi])
			if d < bestDist {
				bestDist = d
				best = pi
			}
		}

		indices |= uint32(best) << (uint(i) * 2)
	}

	out = append(out,
		byte(c0), byte(c0>>8),
		byte(c1), byte(c1>>8),
		byte(indices), byte(indices>>8), byte(indices>>16), byte(indices>>24),
	)

	return out
}

// appendAlphaBlock encodes the DXT5 interpolated alpha block.
func appendAlphaBlock(out []byte, tile *[16][4]uint8) []byte {
	a0, a1 := tile[0][3], tile[0][3]
	for i := 1; i < 16; i++ {
		a := tile[i][3]
		if a > a0 {
			a0 = a
		}
		if a < a1 {
			a1 = a
		}
	}

	// Eight-interpolant ramp of the decoder (a0 > a1 mode).
	var ramp [8]uint8
	ramp[0] = a0
	ramp[1] = a1
	if a0 > a1 {
		for i := 1; i < 7; i++ {
			ramp[i+1] = uint8(((7-i)*int(a0) + i*int(a1)) / 7)
		}
	} else {
		for i := 2; i < 8; i++ {
			ramp[i] = a0
		}
	}

	var bits uint64
	for i := 0; i < 16; i++ {
		best := 0
		bestDist := 1 << 30
		for ri, rv := range ramp {
			if a0 <= a1 && ri > 1 {
				break
			}

			d := int(tile[i][3]) - int(rv)
			if d < 0 {
				d = -d
			}
			if d < bestDist {
				bestDist = d
				best = ri
			}
		}

		bits |= uint64(best) << (uint(i) * 3)
	}

	out = append(out, a0, a1)
	for i := 0; i < 6; i++ {
		out = append(out, byte(bits>>(uint(i)*8)))
	}

	return out
}

// colorBounds returns the tile color extremes along luminance order.
func colorBounds(tile *[16][4]uint8) (minC, maxC [3]uint8) {
	minL, maxL := 1<<30, -1
	for i := 0; i < 16; i++ {
		l := luminance(tile[i])
		if l < minL {
			minL = l
			minC = [3]uint8{tile[i][0], tile[i][1], tile[i][2]}
		}
		if l > maxL {
			maxL = l
			maxC = [3]uint8{tile[i][0], tile[i][1], tile[i][2]}
		}
	}

	return minC, maxC
}

// luminance approximates perceptual brightness for endpoint ordering.
func luminance(c [4]uint8) int {
	return int(c[0])*299 + int(c[1])*587 + int(c[2])*114
}

// colorDist is the squared RGB distance used by the index search.
func colorDist(c [4]uint8, p [3]uint8) int {
	dr := int(c[0]) - int(p[0])
	dg := int(c[1]) - int(p[1])
	db := int(c[2]) - int(p[2])
	return dr*dr + dg*dg + db*db
}

// pack565 quantizes an RGB8 color to RGB565.
func pack565(c [3]uint8) uint16 {
	r := (uint16(c[0])*31 + 127) / 255
	g := (uint16(c[1])*63 + 127) / 255
	b := (uint16(c[2])*31 + 127) / 255
	return r<<11 | g<<5 | b
}

// unpack565 expands an RGB565 color back to RGB8 the way decoders do.
func unpack565(v uint16) [3]uint8 {
	r := uint8(v >> 11 & 0x1F)
	g := uint8(v >> 5 & 0x3F)
	b := uint8(v & 0x1F)
	return [3]uint8{
		r<<3 | r>>2,
		g<<2 | g>>4,
		b<<3 | b>>2,
	}
}
