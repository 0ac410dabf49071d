// SPDX-License-Identifier: MIT
// Copyright (c) 2026 bzed
// Source: github.com/bzed/grad-aff

/*
Package paa decodes and encodes PAA/PAC textures of the Arma engine family.

A PAA is a magic number selecting the pixel encoding, a run of TLV "tagg"
chunks with byte-reversed signatures, a palette slot, and a mipmap pyramid
terminated by three zero words. DXT1 and DXT5 mipmaps may additionally be
LZO-wrapped, flagged in the top bit of the stored width.

# Reading

	p, err := paa.Open("texture.paa")
	if err != nil {
	    return err
	}
	pix := p.RawPixelData(0) // width*height*4 RGBA8 for DXT kinds

# Writing

Seed a texture from an RGBA raster and encode it; the mipmap pyramid and
color taggs are computed on demand:

	p, err := paa.FromRGBA(pix, 256, 256)
	if err != nil {
	    return err
	}
	if err := p.EncodeFile("texture.paa", paa.KindUnknown); err != nil {
	    return err
	}

KindUnknown selects DXT5 when the texture has transparency and DXT1
otherwise. Palettized textures are not writable.
*/
package paa
