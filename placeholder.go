package main

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

var (
	placeholderBackground = color.RGBA{0x20, 0x20, 0x24, 0xff}
	placeholderText       = color.RGBA{0xc8, 0xc8, 0xc8, 0xff}
)

// lineHeight is the advance between text lines for basicfont.Face7x13.
const lineHeight = 15

// placeholder draws lines of text on a flat background. It stands in for
// the shader output whenever the offscreen surface cannot produce a frame.
func placeholder(w, h int, lines ...string) image.Image {
	if w <= 0 || h <= 0 {
		return image.NewRGBA(image.Rect(0, 0, 1, 1))
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(placeholderBackground), image.Point{}, draw.Src)

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(placeholderText),
		Face: basicfont.Face7x13,
	}
	for i, line := range lines {
		// 13px ascent puts the first baseline just inside the top margin.
		d.Dot = fixed.P(8, 8+13+i*lineHeight)
		d.DrawString(line)
	}
	return img
}
