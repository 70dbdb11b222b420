package sensepanel

import (
	"image"
)

const (
	headerRowGap       = 45
	headerLabelGap     = 20
	headerUnitGap      = 50
	headerValueGap     = 10
	headerTrailingGap  = 20
	headerValueExample = 2444
)

// PowerSummary is the trailing-window aggregate of the power meter.
type PowerSummary struct {
	Last float64 `json:"last"`
	Mean float64 `json:"mean"`
	Max  float64 `json:"max"`
	Min  float64 `json:"min"`
}

// HeaderPanel draws the power icon, the latest power draw in large type and
// the max/min/avg column on the right.
type HeaderPanel struct {
	Power PowerSummary
	Icon  image.Image
}

var _ Panel = (*HeaderPanel)(nil)

func (p *HeaderPanel) Name() string { return "header" }

type headerRow struct {
	label string
	value float64
}

func (p *HeaderPanel) rows() []headerRow {
	return []headerRow{
		{"max", p.Power.Max},
		{"min", p.Power.Min},
		{"avg", p.Power.Mean},
	}
}

func (p *HeaderPanel) Plan(m Measurer, r Region) (*Plan, error) {
	last := formatThousands(p.Power.Last)
	// The unit line follows the mean so it does not jump with every reading.
	power := m.Measure(FacePowerLarge, measureProxy(formatThousands(p.Power.Mean)))
	unit := scaleW(m.Measure(FaceUnitLarge, UnitPower), 1.2)
	labelW := m.Measure(FacePowerDetailLabel, "max").W
	dv := m.Measure(FacePowerDetailValue, measureProxy(formatThousands(headerValueExample)))
	right := r.Offset.X + r.Width
	pitch := dv.H + headerRowGap

	plan := &Plan{}
	if p.Icon != nil {
		plan.Ops = append(plan.Ops, DrawOp{Target: "power_icon", Icon: p.Icon, Pos: r.Offset})
	}

	var firstLabelX int
	for i, row := range p.rows() {
		valueRight := image.Pt(right, r.Offset.Y+i*pitch)
		label := m.Measure(FacePowerDetailLabel, row.label)
		labelLeft := valueRight.Add(image.Pt(
			-dv.W-labelW-headerLabelGap,
			dv.H-label.H,
		))
		if i == 0 {
			firstLabelX = labelLeft.X
		}
		plan.Ops = append(plan.Ops,
			DrawOp{Target: "power_" + row.label + "_label", Text: row.label, Face: FacePowerDetailLabel, Pos: labelLeft, Align: AlignLeft},
			DrawOp{Target: "power_" + row.label + "_value", Text: formatThousands(row.value), Face: FacePowerDetailValue, Pos: valueRight, Align: AlignRight},
		)
	}

	unitRight := image.Pt(firstLabelX-headerUnitGap, r.Offset.Y+power.H-unit.H)
	powerRight := image.Pt(unitRight.X-unit.W-headerValueGap, r.Offset.Y)
	plan.Ops = append(plan.Ops,
		DrawOp{Target: "power_unit", Text: UnitPower, Face: FaceUnitLarge, Pos: unitRight, Align: AlignRight},
		DrawOp{Target: "power", Text: last, Face: FacePowerLarge, Pos: powerRight, Align: AlignRight},
	)

	plan.NextY = maxBottom(m, plan.Ops, r.Offset.Y) + headerTrailingGap
	return plan, nil
}
