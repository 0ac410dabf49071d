// SPDX-License-Identifier: MIT
// Copyright (c) 2026 bzed
// Source: github.com/bzed/grad-aff

package main

import (
	"fmt"
	"image"
	"image/draw"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/spf13/cobra"

	"github.com/bzed/grad-aff/paa"
)

var (
	paaToPngLevel  int
	paaToPngOutput string
	paaFromPngOut  string
	paaFromPngKind string
)

var paaCmd = &cobra.Command{
	Use:   "paa",
	Short: "Operations on PAA textures",
}

var paaInfoCmd = &cobra.Command{
	Use:   "info <paa_file>",
	Short: "Show information about a PAA file",
	Args:  cobra.ExactArgs(1),
	RunE:  runPaaInfo,
}

var paaToPngCmd = &cobra.Command{
	Use:   "to-png <paa_file>",
	Short: "Convert a PAA texture to PNG",
	Args:  cobra.ExactArgs(1),
	RunE:  runPaaToPng,
}

var paaFromPngCmd = &cobra.Command{
	Use:   "from-png <png_file>",
	Short: "Convert a PNG image to a PAA texture",
	Args:  cobra.ExactArgs(1),
	RunE:  runPaaFromPng,
}

func init() {
	rootCmd.AddCommand(paaCmd)
	paaCmd.AddCommand(paaInfoCmd)
	paaCmd.AddCommand(paaToPngCmd)
	paaCmd.AddCommand(paaFromPngCmd)

	paaToPngCmd.Flags().IntVarP(&paaToPngLevel, "level", "l", 0,
		"mipmap level to convert (0 is full resolution)")
	paaToPngCmd.Flags().StringVarP(&paaToPngOutput, "output", "o", "",
		"output PNG path (default: input with .png extension)")
	paaFromPngCmd.Flags().StringVarP(&paaFromPngOut, "output", "o", "",
		"output PAA path (default: input with .paa extension)")
	paaFromPngCmd.Flags().StringVarP(&paaFromPngKind, "kind", "k", "",
		`target encoding: "dxt1", "dxt5" or empty for automatic`)
}

func runPaaInfo(cmd *cobra.Command, args []string) error {
	p, err := paa.Open(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("PAA Info: %s\n", args[0])
	fmt.Printf("  Kind: %s\n", p.Kind)
	if len(p.MipMaps) > 0 {
		fmt.Printf("  Dimensions: %dx%d\n", p.MipMaps[0].Width, p.MipMaps[0].Height)
	}
	fmt.Printf("  Mipmap levels: %d\n", len(p.MipMaps))
	fmt.Printf("  Taggs: %d\n", len(p.Taggs))
	fmt.Printf("  Has transparency: %v\n", p.HasTransparency)

	return nil
}

func runPaaToPng(cmd *cobra.Command, args []string) error {
	p, err := paa.Open(args[0])
	if err != nil {
		return err
	}

	if paaToPngLevel < 0 || paaToPngLevel >= len(p.MipMaps) {
		return fmt.Errorf("level %d exceeds the mipmap count of %d", paaToPngLevel, len(p.MipMaps))
	}

	m := p.MipMaps[paaToPngLevel]
	if len(m.Data) != int(m.Width)*int(m.Height)*4 {
		return fmt.Errorf("level %d carries no decoded RGBA data", paaToPngLevel)
	}

	img := &image.RGBA{
		Pix:    m.Data,
		Stride: int(m.Width) * 4,
		Rect:   image.Rect(0, 0, int(m.Width), int(m.Height)),
	}

	out := paaToPngOutput
	if out == "" {
		out = replaceExtension(args[0], ".png")
	}

	if err := imgio.Save(out, img, imgio.PNGEncoder()); err != nil {
		return err
	}

	fmt.Printf("Wrote %s\n", out)
	return nil
}

func runPaaFromPng(cmd *cobra.Command, args []string) error {
	kind := paa.KindUnknown
	switch paaFromPngKind {
	case "":
	case "dxt1":
		kind = paa.KindDXT1
	case "dxt5":
		kind = paa.KindDXT5
	default:
		return fmt.Errorf("unknown target kind %q", paaFromPngKind)
	}

	img, err := imgio.Open(args[0])
	if err != nil {
		return err
	}

	bounds := img.Bounds()
	rgba := image.NewRGBA(bounds)
	draw.Draw(rgba, bounds, img, bounds.Min, draw.Src)

	p, err := paa.FromRGBA(rgba.Pix, bounds.Dx(), bounds.Dy())
	if err != nil {
		return err
	}

	out := paaFromPngOut
	if out == "" {
		out = replaceExtension(args[0], ".paa")
	}

	if err := p.EncodeFile(out, kind); err != nil {
		return err
	}

	fmt.Printf("Wrote %s\n", out)
	return nil
}

// replaceExtension swaps the extension of path for ext.
func replaceExtension(path, ext string) string {
	for i := len(path) - 1; i >= 0; i-- {
		switch path[i] {
		case '.':
			return path[:i] + ext
		case '/', '\\':
			return path + ext
		}
	}

	return path + ext
}
