package sensepanel

import (
	"image"
)

const (
	updateTimeLift        = 20
	updateTimeTrailingGap = 40
)

// UpdateTimePanel draws when the image was generated.
type UpdateTimePanel struct {
	Text string
}

var _ Panel = (*UpdateTimePanel)(nil)

func (p *UpdateTimePanel) Name() string { return "update_time" }

func (p *UpdateTimePanel) Plan(m Measurer, r Region) (*Plan, error) {
	plan := &Plan{
		Ops: []DrawOp{{
			Target: "time",
			Text:   p.Text,
			Face:   FaceTime,
			Pos:    r.Offset.Add(image.Pt(r.Width, -updateTimeLift)),
			Align:  AlignRight,
		}},
	}
	plan.NextY = maxBottom(m, plan.Ops, r.Offset.Y) + updateTimeTrailingGap
	return plan, nil
}
