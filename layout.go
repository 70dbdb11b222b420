package sensepanel

import (
	"image"
)

// Box is the measured pixel size of a string in a face.
type Box struct {
	W int `json:"w"`
	H int `json:"h"`
}

// Measurer reports the box of text drawn in a face.
type Measurer interface {
	Measure(f Face, text string) Box
}

// Region is the area a panel lays itself out in.
type Region struct {
	Offset image.Point
	Width  int
}

// Align selects which edge of a text box the anchor X refers to.
type Align int

const (
	// AlignLeft anchors the left edge of the text.
	AlignLeft Align = iota
	// AlignRight anchors the right edge of the text.
	AlignRight
)

func (a Align) String() string {
	if a == AlignRight {
		return "right"
	}
	return "left"
}

// DrawOp is a single text or icon stamp onto the canvas.
type DrawOp struct {
	// Target is the semantic name of the op, e.g. "power_max_value".
	Target string
	Text   string
	Face   Face
	Pos    image.Point
	Align  Align
	Gray   uint8
	// Icon is drawn instead of text when set. Pos is its top-left corner.
	Icon image.Image
}

// Rect returns the rectangle covered by op once alignment is applied.
func (op DrawOp) Rect(m Measurer) image.Rectangle {
	if op.Icon != nil {
		return op.Icon.Bounds().Sub(op.Icon.Bounds().Min).Add(op.Pos)
	}
	b := m.Measure(op.Face, op.Text)
	x := op.Pos.X
	if op.Align == AlignRight {
		x -= b.W
	}
	return image.Rect(x, op.Pos.Y, x+b.W, op.Pos.Y+b.H)
}

// Bottom returns the Y just below the drawn op.
func (op DrawOp) Bottom(m Measurer) int {
	return op.Rect(m).Max.Y
}

// Plan is the result of laying out one panel.
type Plan struct {
	Ops   []DrawOp
	NextY int
}

// Op returns the first op with target, if any.
func (p *Plan) Op(target string) (DrawOp, bool) {
	for _, op := range p.Ops {
		if op.Target == target {
			return op, true
		}
	}
	return DrawOp{}, false
}

// Panel lays out one part of the dashboard.
type Panel interface {
	Name() string
	Plan(m Measurer, r Region) (*Plan, error)
}

// maxBottom returns the lowest bottom edge of ops, or fallback when ops is empty.
func maxBottom(m Measurer, ops []DrawOp, fallback int) int {
	if len(ops) == 0 {
		return fallback
	}
	y := ops[0].Bottom(m)
	for _, op := range ops[1:] {
		if b := op.Bottom(m); b > y {
			y = b
		}
	}
	return y
}

// scaleW widens a unit box the way suffixes get breathing room after a value.
func scaleW(b Box, ratio float64) Box {
	return Box{W: int(float64(b.W) * ratio), H: b.H}
}

// tallest returns the greatest height of boxes.
func tallest(boxes ...Box) int {
	h := 0
	for _, b := range boxes {
		if b.H > h {
			h = b.H
		}
	}
	return h
}
