package sensepanel

import (
	"fmt"
	"math"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Unit suffixes drawn after values.
const (
	UnitPower       = "W"
	UnitTemperature = "℃"
	UnitHumidity    = "％"
	UnitCO2         = "ppm"
)

var printer = message.NewPrinter(language.English)

// formatThousands renders v rounded to an integer with comma grouping, e.g. 2,444.
func formatThousands(v float64) string {
	return printer.Sprintf("%d", int64(math.Round(v)))
}

// formatDecimal renders v with one decimal place.
func formatDecimal(v float64) string {
	return fmt.Sprintf("%.1f", v)
}

// measureProxy swaps commas for periods: a comma's descender would make a
// value box taller than the digits it is aligned against.
func measureProxy(s string) string {
	return strings.ReplaceAll(s, ",", ".")
}

var weekdaysJa = [...]string{
	time.Sunday:    "日",
	time.Monday:    "月",
	time.Tuesday:   "火",
	time.Wednesday: "水",
	time.Thursday:  "木",
	time.Friday:    "金",
	time.Saturday:  "土",
}

// WeekdayJa returns the one-letter Japanese abbreviation of d.
func WeekdayJa(d time.Weekday) string {
	return weekdaysJa[d]
}
