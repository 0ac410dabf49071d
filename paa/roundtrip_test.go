package paa

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

// gradientRGBA builds a w*h raster with a horizontal red and vertical
// green gradient at the given constant alpha.
func gradientRGBA(w, h int, alpha uint8) []byte {
	pix := make([]byte, w*h*4)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			off := (y*w + x) * 4
			pix[off] = uint8(x * 255 / (w - 1))
			pix[off+1] = uint8(y * 255 / (h - 1))
			pix[off+2] = 64
			pix[off+3] = alpha
		}
	}

	return pix
}

func TestEncodeDecodeDXT5(t *testing.T) {
	t.Parallel()

	src := gradientRGBA(64, 64, 128)
	p, err := FromRGBA(src, 64, 64)
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := p.Encode(&buf, KindUnknown); err != nil {
		t.Fatal(err)
	}

	// Alpha 128 marks the texture transparent, so automatic kind
	// selection must land on DXT5.
	decoded, err := DecodeBytes(buf.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if decoded.Kind != KindDXT5 {
		t.Fatalf("kind: %s", decoded.Kind)
	}

	// 64 -> 32 -> 16 -> 8; the next level would reach 4 and is not emitted.
	if len(decoded.MipMaps) != 4 {
		t.Fatalf("mipmap count: %d", len(decoded.MipMaps))
	}
	for i, wantW := range []uint16{64, 32, 16, 8} {
		m := decoded.MipMaps[i]
		if m.Width != wantW || m.Height != wantW {
			t.Errorf("level %d: %dx%d", i, m.Width, m.Height)
		}
		if len(m.Data) != int(m.Width)*int(m.Height)*4 {
			t.Errorf("level %d: %d data bytes", i, len(m.Data))
		}
	}

	if _, ok := decoded.Tagg(SignatureAverageColor); !ok {
		t.Error("average color tagg missing")
	}
	if _, ok := decoded.Tagg(SignatureTransparency); !ok {
		t.Error("transparency tagg missing")
	}
	if !decoded.HasTransparency {
		t.Error("transparency flag not set")
	}

	// No level is wide enough for LZO wrapping.
	for i, m := range decoded.MipMaps {
		if m.LzoPacked {
			t.Errorf("level %d unexpectedly LZO-wrapped", i)
		}
	}

	const tolerance = 32
	out := decoded.MipMaps[0].Data
	for i := 0; i < 64*64; i++ {
		if out[i*4+3] != 128 {
			t.Fatalf("pixel %d alpha: %d", i, out[i*4+3])
		}
		for ch := 0; ch < 3; ch++ {
			diff := int(out[i*4+ch]) - int(src[i*4+ch])
			if diff < 0 {
				diff = -diff
			}
			if diff > tolerance {
				t.Fatalf("pixel %d channel %d: diff %d", i, ch, diff)
			}
		}
	}
}

func TestEncodeDecodeDXT1LzoWrapped(t *testing.T) {
	t.Parallel()

	src := gradientRGBA(256, 256, 0xFF)
	p, err := FromRGBA(src, 256, 256)
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := p.Encode(&buf, KindUnknown); err != nil {
		t.Fatal(err)
	}

	decoded, err := DecodeBytes(buf.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if decoded.Kind != KindDXT1 {
		t.Fatalf("kind: %s", decoded.Kind)
	}

	// 256 -> 128 -> 64 -> 32 -> 16 -> 8.
	if len(decoded.MipMaps) != 6 {
		t.Fatalf("mipmap count: %d", len(decoded.MipMaps))
	}

	// Only the 256-wide level crosses the LZO wrapping boundary.
	if !decoded.MipMaps[0].LzoPacked {
		t.Error("level 0 should be LZO-wrapped")
	}
	for i := 1; i < len(decoded.MipMaps); i++ {
		if decoded.MipMaps[i].LzoPacked {
			t.Errorf("level %d unexpectedly LZO-wrapped", i)
		}
	}

	offs, ok := decoded.Tagg(SignatureOffsets)
	if !ok {
		t.Fatal("offset tagg missing")
	}
	if len(offs.Data) != 4*len(decoded.MipMaps) {
		t.Fatalf("offset tagg length: %d", len(offs.Data))
	}

	prev := uint32(0)
	for i := 0; i < len(offs.Data); i += 4 {
		off := binary.LittleEndian.Uint32(offs.Data[i:])
		if off <= prev {
			t.Fatalf("offset %d not monotonically increasing: %d <= %d", i/4, off, prev)
		}

		prev = off
	}

	if decoded.HasTransparency {
		t.Error("opaque texture flagged transparent")
	}

	const tolerance = 32
	out := decoded.MipMaps[0].Data
	for i := 0; i < 256*256; i++ {
		for ch := 0; ch < 3; ch++ {
			diff := int(out[i*4+ch]) - int(src[i*4+ch])
			if diff < 0 {
				diff = -diff
			}
			if diff > tolerance {
				t.Fatalf("pixel %d channel %d: diff %d", i, ch, diff)
			}
		}
	}
}

func TestOffsetTaggPointsAtMipmaps(t *testing.T) {
	t.Parallel()

	src := gradientRGBA(32, 32, 0xFF)
	p, err := FromRGBA(src, 32, 32)
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := p.Encode(&buf, KindDXT1); err != nil {
		t.Fatal(err)
	}

	raw := buf.Bytes()
	decoded, err := DecodeBytes(raw)
	if err != nil {
		t.Fatal(err)
	}

	offs, ok := decoded.Tagg(SignatureOffsets)
	if !ok {
		t.Fatal("offset tagg missing")
	}

	// Each table slot points at the width word of its mipmap record.
	for i, m := range decoded.MipMaps {
		off := binary.LittleEndian.Uint32(offs.Data[i*4:])
		width := binary.LittleEndian.Uint16(raw[off:])
		if width != m.Width {
			t.Errorf("level %d: stored width %d at offset %d, want %d", i, width, off, m.Width)
		}
	}
}

func TestUnknownTaggSurvivesRoundTrip(t *testing.T) {
	t.Parallel()

	p, err := FromRGBA(gradientRGBA(16, 16, 0xFF), 16, 16)
	if err != nil {
		t.Fatal(err)
	}
	p.Taggs = append(p.Taggs, Tagg{Signature: "GGATKNUJ", Data: []byte{1, 2, 3}})

	var buf bytes.Buffer
	if err := p.Encode(&buf, KindDXT1); err != nil {
		t.Fatal(err)
	}

	decoded, err := DecodeBytes(buf.Bytes())
	if err != nil {
		t.Fatal(err)
	}

	tagg, ok := decoded.Tagg("GGATKNUJ")
	if !ok {
		t.Fatal("unknown tagg lost in round trip")
	}
	if !bytes.Equal(tagg.Data, []byte{1, 2, 3}) {
		t.Errorf("tagg payload: %v", tagg.Data)
	}
}

func TestDecodeRejectsUnknownMagic(t *testing.T) {
	t.Parallel()

	if _, err := DecodeBytes([]byte{0x99, 0x99, 0, 0, 0, 0, 0, 0}); !errors.Is(err, ErrInvalidMagic) {
		t.Errorf("expected ErrInvalidMagic, got %v", err)
	}
}

func TestEncodeRejectsPalette(t *testing.T) {
	t.Parallel()

	p, err := FromRGBA(gradientRGBA(16, 16, 0xFF), 16, 16)
	if err != nil {
		t.Fatal(err)
	}
	p.Palette.Data = []byte{1, 2, 3}

	var buf bytes.Buffer
	if err := p.Encode(&buf, KindDXT1); !errors.Is(err, ErrUnsupported) {
		t.Errorf("expected ErrUnsupported, got %v", err)
	}
}

func TestEncodeRejectsUnsupportedKind(t *testing.T) {
	t.Parallel()

	p, err := FromRGBA(gradientRGBA(16, 16, 0xFF), 16, 16)
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := p.Encode(&buf, KindRGBA8888); !errors.Is(err, ErrUnsupported) {
		t.Errorf("expected ErrUnsupported, got %v", err)
	}
}
