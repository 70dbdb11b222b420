package sensepanel

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

const (
	// PanelWidth is the width of the e-paper panel in pixels.
	PanelWidth = 1072
	// PanelHeight is the height of the e-paper panel in pixels.
	PanelHeight = 1448
	// PanelMargin is the blank border kept on every side.
	PanelMargin = 30
)

// Canvas is the grayscale pixel buffer every panel draws into.
type Canvas struct {
	img   *image.Gray
	faces *FaceSet
}

// NewCanvas returns a white canvas of the panel's size.
func NewCanvas(faces *FaceSet) *Canvas {
	img := image.NewGray(image.Rect(0, 0, PanelWidth, PanelHeight))
	xdraw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, xdraw.Src)
	return &Canvas{img: img, faces: faces}
}

// Image returns the underlying pixel buffer.
func (c *Canvas) Image() *image.Gray {
	return c.img
}

// Bounds returns the area panels may draw into.
func (c *Canvas) Bounds() image.Rectangle {
	return c.img.Bounds().Inset(PanelMargin)
}

// DrawText stamps text at pos and returns the Y just below it.
// For AlignLeft the leftmost inked pixel sits at pos.X. For AlignRight the ink ends at pos.X.
// Text leaving the canvas is clipped.
func (c *Canvas) DrawText(text string, pos image.Point, f Face, align Align, gray uint8) int {
	b := c.faces.Measure(f, text)
	d := &font.Drawer{
		Dst:  c.img,
		Src:  image.NewUniform(color.Gray{Y: gray}),
		Face: c.faces.Face(f),
		Dot:  fixed.Point26_6{X: c.faces.dotX(f, text, pos.X, align), Y: fixed.I(pos.Y + c.faces.Ascent(f))},
	}
	d.DrawString(text)
	return pos.Y + b.H
}

// DrawIcon composites icon with its top-left corner at pos and returns the Y just below it.
func (c *Canvas) DrawIcon(icon image.Image, pos image.Point) int {
	r := icon.Bounds().Sub(icon.Bounds().Min).Add(pos)
	xdraw.Draw(c.img, r, icon, icon.Bounds().Min, xdraw.Over)
	return r.Max.Y
}

// Apply executes the ops of plan in order.
func (c *Canvas) Apply(plan *Plan) {
	for _, op := range plan.Ops {
		if op.Icon != nil {
			c.DrawIcon(op.Icon, op.Pos)
			continue
		}
		c.DrawText(op.Text, op.Pos, op.Face, op.Align, op.Gray)
	}
}

// EncodePNG writes the canvas as a grayscale PNG.
func (c *Canvas) EncodePNG(w io.Writer) error {
	enc := &png.Encoder{CompressionLevel: png.DefaultCompression}
	if err := enc.Encode(w, c.img); err != nil {
		return fmt.Errorf("failed to encode png: %w", err)
	}
	return nil
}

// PNG returns the encoded canvas.
func (c *Canvas) PNG() ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := c.EncodePNG(buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ScaleIcon resizes icon to a size×size square. size <= 0 returns icon unchanged.
func ScaleIcon(icon image.Image, size int) image.Image {
	if size <= 0 {
		return icon
	}
	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), icon, icon.Bounds(), xdraw.Over, nil)
	return dst
}
