package sensepanel

import (
	"image"
)

const (
	footerDateExample = "12331"
	footerWdayExample = "(金)"
	grayDate          = 0x66
	grayWeekday       = 0x33
)

// FooterPanel draws today's date and weekday, right-aligned.
type FooterPanel struct {
	Date    string
	Weekday string
}

var _ Panel = (*FooterPanel)(nil)

func (p *FooterPanel) Name() string { return "footer" }

func (p *FooterPanel) Plan(m Measurer, r Region) (*Plan, error) {
	date := m.Measure(FaceDateLarge, footerDateExample)
	wday := m.Measure(FaceWdayLarge, footerWdayExample)
	plan := &Plan{
		Ops: []DrawOp{
			{
				Target: "date",
				Text:   p.Date,
				Face:   FaceDateLarge,
				Pos:    r.Offset.Add(image.Pt(r.Width-wday.W, 0)),
				Align:  AlignRight,
				Gray:   grayDate,
			},
			{
				Target: "wday",
				Text:   p.Weekday,
				Face:   FaceWdayLarge,
				Pos:    r.Offset.Add(image.Pt(r.Width, date.H-wday.H)),
				Align:  AlignRight,
				Gray:   grayWeekday,
			},
		},
	}
	plan.NextY = maxBottom(m, plan.Ops, r.Offset.Y)
	return plan, nil
}
