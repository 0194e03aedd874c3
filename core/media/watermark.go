package media

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

var (
	bandColor = color.NRGBA{A: 150}
	textColor = color.White
	padding   = 6
)

// Watermark returns a copy of img with lines burned onto a translucent band along its bottom edge.
func Watermark(img image.Image, lines []string) *image.RGBA {
	bounds := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(out, out.Bounds(), img, bounds.Min, draw.Src)
	if len(lines) == 0 {
		return out
	}

	face := basicfont.Face7x13
	lineHeight := face.Metrics().Height.Ceil()
	bandHeight := len(lines)*lineHeight + 2*padding
	if bandHeight > out.Bounds().Dy() {
		bandHeight = out.Bounds().Dy()
	}
	band := image.Rect(0, out.Bounds().Dy()-bandHeight, out.Bounds().Dx(), out.Bounds().Dy())
	draw.Draw(out, band, image.NewUniform(bandColor), image.Point{}, draw.Over)

	d := &font.Drawer{
		Dst:  out,
		Src:  image.NewUniform(textColor),
		Face: face,
	}
	ascent := face.Metrics().Ascent.Ceil()
	for i, line := range lines {
		y := band.Min.Y + padding + i*lineHeight + ascent
		d.Dot = fixed.P(padding, y)
		d.DrawString(line)
	}
	return out
}
