// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pager

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// maxRasterPixels caps a single raster (about 64 MiB of RGBA).
const maxRasterPixels = 16 << 20

// Raster is the pixel buffer of one page rendered at one scale.
type Raster struct {
	Page  int
	Scale float64
	Image *image.RGBA
}

// Bytes reports how much pixel memory the raster holds.
func (r *Raster) Bytes() int {
	if r == nil || r.Image == nil {
		return 0
	}
	return len(r.Image.Pix)
}

// Release drops the pixel buffer. Safe to call more than once.
func (r *Raster) Release() {
	if r == nil {
		return
	}
	r.Image = nil
}

var (
	paperColor  = color.RGBA{0xff, 0xff, 0xff, 0xff}
	frameColor  = color.RGBA{0xcc, 0xcc, 0xcc, 0xff}
	labelColor  = color.RGBA{0x66, 0x66, 0x66, 0xff}
	placeholder = color.RGBA{0xf9, 0xf9, 0xf9, 0xff}
)

// Rasterizer paints low-fidelity page rasters: paper, frame and page label.
// Decoders that can paint real content implement Document.RenderPage
// themselves and only borrow the geometry checks.
type Rasterizer struct {
	Face font.Face
}

func NewRasterizer() *Rasterizer {
	return &Rasterizer{Face: basicfont.Face7x13}
}

// pixelSize converts a page size in points at scale into whole pixels.
func pixelSize(pageSize Size, scale float64) (int, int, error) {
	if pageSize.Empty() || scale <= 0 || math.IsNaN(scale) {
		return 0, 0, fmt.Errorf("invalid geometry %vx%v at scale %v", pageSize.W, pageSize.H, scale)
	}
	w := int(math.Ceil(pageSize.W * scale))
	h := int(math.Ceil(pageSize.H * scale))
	if w*h > maxRasterPixels {
		return 0, 0, fmt.Errorf("raster %dx%d exceeds %d pixels", w, h, maxRasterPixels)
	}
	return w, h, nil
}

// Render paints page at pageSize×scale.
func (rz *Rasterizer) Render(ctx context.Context, page int, pageSize Size, scale float64) (*Raster, error) {
	w, h, err := pixelSize(pageSize, scale)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: paperColor}, image.Point{}, draw.Src)
	strokeFrame(img, frameColor)
	rz.label(img, fmt.Sprintf("Page %d", page))
	return &Raster{Page: page, Scale: scale, Image: img}, nil
}

// Placeholder paints the lightweight stand-in shown while a page is not
// resident: a dashed-looking frame with the page label.
func (rz *Rasterizer) Placeholder(page int, box Box) *image.RGBA {
	w, h := int(math.Ceil(box.Width)), int(math.Ceil(box.Height))
	if w <= 0 || h <= 0 {
		return image.NewRGBA(image.Rectangle{})
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: placeholder}, image.Point{}, draw.Src)
	strokeFrame(img, frameColor)
	rz.label(img, fmt.Sprintf("Page %d", page))
	return img
}

func (rz *Rasterizer) label(img *image.RGBA, text string) {
	face := rz.Face
	if face == nil {
		face = basicfont.Face7x13
	}
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(labelColor),
		Face: face,
	}
	b := img.Bounds()
	width := d.MeasureString(text).Ceil()
	x := (b.Dx() - width) / 2
	y := b.Dy() / 2
	d.Dot = fixed.P(max(x, 0), max(y, face.Metrics().Ascent.Ceil()))
	d.DrawString(text)
}

func strokeFrame(img *image.RGBA, c color.Color) {
	b := img.Bounds()
	src := &image.Uniform{C: c}
	edges := []image.Rectangle{
		image.Rect(b.Min.X, b.Min.Y, b.Max.X, b.Min.Y+1),
		image.Rect(b.Min.X, b.Max.Y-1, b.Max.X, b.Max.Y),
		image.Rect(b.Min.X, b.Min.Y, b.Min.X+1, b.Max.Y),
		image.Rect(b.Max.X-1, b.Min.Y, b.Max.X, b.Max.Y),
	}
	for _, e := range edges {
		draw.Draw(img, e, src, image.Point{}, draw.Src)
	}
}

// ScalePreview resamples a resident raster by ratio. Surfaces without a
// compositor use it to show the live gesture scale without re-rendering.
func ScalePreview(r *Raster, ratio float64) *image.RGBA {
	if r == nil || r.Image == nil || ratio <= 0 {
		return nil
	}
	b := r.Image.Bounds()
	w := max(1, int(math.Round(float64(b.Dx())*ratio)))
	h := max(1, int(math.Round(float64(b.Dy())*ratio)))
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), r.Image, b, draw.Src, nil)
	return dst
}
