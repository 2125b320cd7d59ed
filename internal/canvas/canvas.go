// Package canvas provides the flat RGB pixel buffer the renderer composes
// into. It is deliberately minimal: three bytes per pixel, no alpha, with an
// image.Image adapter for encoding.
package canvas

import (
	"image"
	"image/color"
)

// BytesPerPixel is the channel layout of a Canvas: R, G, B at 8 bits each.
const BytesPerPixel = 3

// Canvas is a width x height RGB pixel buffer backed by a single flat slice.
//
// The zero Canvas is empty. A Canvas is not safe for concurrent writers;
// callers must ensure exactly one writer per region at a time.
type Canvas struct {
	// Pix holds the pixels in row-major order, BytesPerPixel bytes each.
	Pix    []uint8
	width  int
	height int
}

// New allocates a canvas of the given dimensions. All pixels start black.
// The backing slice is allocated in one piece; the OS provides pages lazily,
// so very large canvases are cheap until written.
func New(width, height int) *Canvas {
	return &Canvas{
		Pix:    make([]uint8, width*height*BytesPerPixel),
		width:  width,
		height: height,
	}
}

// Width returns the canvas width in pixels.
func (c *Canvas) Width() int { return c.width }

// Height returns the canvas height in pixels.
func (c *Canvas) Height() int { return c.height }

// SetRGB writes one pixel. Coordinates outside the canvas are ignored.
func (c *Canvas) SetRGB(x, y int, col color.RGBA) {
	if x < 0 || y < 0 || x >= c.width || y >= c.height {
		return
	}
	i := (y*c.width + x) * BytesPerPixel
	c.Pix[i] = col.R
	c.Pix[i+1] = col.G
	c.Pix[i+2] = col.B
}

// RGBAt reads one pixel. Coordinates outside the canvas return black.
func (c *Canvas) RGBAt(x, y int) color.RGBA {
	if x < 0 || y < 0 || x >= c.width || y >= c.height {
		return color.RGBA{A: 0xff}
	}
	i := (y*c.width + x) * BytesPerPixel
	return color.RGBA{R: c.Pix[i], G: c.Pix[i+1], B: c.Pix[i+2], A: 0xff}
}

// FillRect paints a solid rectangle. The rectangle is clipped to the canvas.
func (c *Canvas) FillRect(x, y, w, h int, col color.RGBA) {
	if x < 0 {
		w += x
		x = 0
	}
	if y < 0 {
		h += y
		y = 0
	}
	if x+w > c.width {
		w = c.width - x
	}
	if y+h > c.height {
		h = c.height - y
	}
	if w <= 0 || h <= 0 {
		return
	}
	for row := y; row < y+h; row++ {
		i := (row*c.width + x) * BytesPerPixel
		for px := 0; px < w; px++ {
			c.Pix[i] = col.R
			c.Pix[i+1] = col.G
			c.Pix[i+2] = col.B
			i += BytesPerPixel
		}
	}
}

// Blit copies a w x h pixel block from src at (0, srcY) to (dstX, dstY).
// Rows are copied with copy, one row at a time. The block must lie within
// both canvases.
func (c *Canvas) Blit(src *Canvas, srcY, dstX, dstY, w, h int) {
	rowBytes := w * BytesPerPixel
	for row := 0; row < h; row++ {
		si := (srcY+row)*src.width*BytesPerPixel
		di := ((dstY+row)*c.width + dstX) * BytesPerPixel
		copy(c.Pix[di:di+rowBytes], src.Pix[si:si+rowBytes])
	}
}

// Image returns a read-only image.Image view of the canvas, suitable for
// handing to an encoder. The view shares the canvas's backing slice.
func (c *Canvas) Image() image.Image {
	return (*rgbImage)(c)
}

// rgbImage adapts Canvas to image.Image without copying pixels.
type rgbImage Canvas

func (m *rgbImage) ColorModel() color.Model { return color.RGBAModel }

func (m *rgbImage) Bounds() image.Rectangle {
	return image.Rect(0, 0, m.width, m.height)
}

func (m *rgbImage) At(x, y int) color.Color {
	return (*Canvas)(m).RGBAt(x, y)
}
