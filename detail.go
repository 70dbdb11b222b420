package sensepanel

import (
	"image"
)

const (
	detailValueExample = "44.4"
	detailTrailingGap  = 40
)

// SensorReading is the latest reading of one monitored location.
type SensorReading struct {
	Place       string  `json:"place"`
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	CO2         int     `json:"co2"`
}

// DetailPanel draws one row per location: the place name on its own line,
// then temperature, humidity and CO2 with their units.
type DetailPanel struct {
	Readings []SensorReading
	// Places sizes the place line. Readings' places are used when empty.
	Places []string
}

var _ Panel = (*DetailPanel)(nil)

func (p *DetailPanel) Name() string { return "detail" }

// DetailLayout is the offset map of the first row plus the row pitch.
type DetailLayout struct {
	Place          image.Point `json:"place_left"`
	Temperature    image.Point `json:"temp_right"`
	TemperatureU   image.Point `json:"temp_unit_right"`
	Humidity       image.Point `json:"humi_right"`
	HumidityU      image.Point `json:"humi_unit_right"`
	CO2            image.Point `json:"co2_right"`
	CO2U           image.Point `json:"co2_unit_right"`
	ColumnGap      int         `json:"column_gap"`
	RowHeight      int         `json:"row_height"`
	ValueRowOffset int         `json:"value_row_offset"`
}

// placeHeight returns the tallest place name, so the row pitch does not depend on which places have data.
func (p *DetailPanel) placeHeight(m Measurer) int {
	places := p.Places
	if len(places) == 0 {
		for _, r := range p.Readings {
			places = append(places, r.Place)
		}
	}
	h := 0
	for _, place := range places {
		h = max(h, m.Measure(FacePlace, place).H)
	}
	return h
}

// Layout computes the offset map of the first row in r.
//
// The place name sits on its own line, so the value row is laid out across
// the full width: the leftover after all value and unit boxes is split evenly
// into the two gaps between the temperature, humidity and CO2 groups. Every
// cell is bottom-aligned to the tallest box of the row.
func (p *DetailPanel) Layout(m Measurer, r Region) DetailLayout {
	placeH := p.placeHeight(m)
	temp := m.Measure(FaceTemp, detailValueExample)
	tempU := scaleW(m.Measure(FaceUnit, UnitTemperature), 1.2)
	humi := m.Measure(FaceHumi, detailValueExample)
	humiU := scaleW(m.Measure(FaceUnit, UnitHumidity), 1.2)
	co2 := Box{
		W: m.Measure(FaceCO2, "4,444").W,
		H: m.Measure(FaceCO2, "4").H,
	}
	// "mmm" has no descender, unlike "ppm".
	co2U := m.Measure(FaceUnit, "mmm")

	cells := []Box{temp, tempU, humi, humiU, co2, co2U}
	used := 0
	for _, c := range cells {
		used += c.W
	}
	gap := (r.Width - used) / 2
	rowH := max(tallest(cells...), placeH)
	valueY := int(float64(placeH) * 1.2)

	at := func(x int, b Box) image.Point {
		return r.Offset.Add(image.Pt(x, valueY+rowH-b.H))
	}
	l := DetailLayout{
		Place:          r.Offset,
		ColumnGap:      gap,
		RowHeight:      placeH + int(float64(rowH)*1.4),
		ValueRowOffset: valueY,
	}
	x := temp.W
	l.Temperature = at(x, temp)
	x += tempU.W
	l.TemperatureU = at(x, tempU)
	x += gap + humi.W
	l.Humidity = at(x, humi)
	x += humiU.W
	l.HumidityU = at(x, humiU)
	x += gap + co2.W
	l.CO2 = at(x, co2)
	x += co2U.W
	l.CO2U = at(x, co2U)
	return l
}

func (p *DetailPanel) Plan(m Measurer, r Region) (*Plan, error) {
	l := p.Layout(m, r)
	plan := &Plan{}
	for i, reading := range p.Readings {
		d := image.Pt(0, l.RowHeight*i)
		plan.Ops = append(plan.Ops,
			DrawOp{Target: "place", Text: reading.Place, Face: FacePlace, Pos: l.Place.Add(d), Align: AlignLeft},
			DrawOp{Target: "temp", Text: formatDecimal(reading.Temperature), Face: FaceTemp, Pos: l.Temperature.Add(d), Align: AlignRight},
			DrawOp{Target: "temp_unit", Text: UnitTemperature, Face: FaceUnit, Pos: l.TemperatureU.Add(d), Align: AlignRight},
			DrawOp{Target: "humi", Text: formatDecimal(reading.Humidity), Face: FaceHumi, Pos: l.Humidity.Add(d), Align: AlignRight},
			DrawOp{Target: "humi_unit", Text: UnitHumidity, Face: FaceUnit, Pos: l.HumidityU.Add(d), Align: AlignRight},
			DrawOp{Target: "co2", Text: formatThousands(float64(reading.CO2)), Face: FaceCO2, Pos: l.CO2.Add(d), Align: AlignRight},
			DrawOp{Target: "co2_unit", Text: UnitCO2, Face: FaceUnit, Pos: l.CO2U.Add(d), Align: AlignRight},
		)
	}
	plan.NextY = maxBottom(m, plan.Ops, r.Offset.Y) + detailTrailingGap
	return plan, nil
}
