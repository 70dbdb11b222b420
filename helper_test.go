package sensepanel

import (
	"context"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/k1LoW/sensepanel/config"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

// fakeMeasurer sizes every rune as half the face size wide and the face size tall.
type fakeMeasurer struct{}

func (fakeMeasurer) Measure(f Face, text string) Box {
	size := int(defaultFaceTable[f].Size)
	return Box{W: utf8.RuneCountInString(text) * size / 2, H: size}
}

// testFonts maps every family to a Go font so the default face table can be opened.
func testFonts() map[FontFamily][]byte {
	fonts := map[FontFamily][]byte{}
	for _, family := range defaultFaceTable.Families() {
		switch family {
		case FamilyShinGoBold, FamilyFuturaBold, FamilyFuturaCondBold:
			fonts[family] = gobold.TTF
		default:
			fonts[family] = goregular.TTF
		}
	}
	return fonts
}

func testFaceSet(t *testing.T) *FaceSet {
	t.Helper()
	fs, err := NewFaceSet(testFonts(), defaultFaceTable)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		_ = fs.Close()
	})
	return fs
}

var testNow = time.Date(2026, time.October, 7, 9, 5, 0, 0, time.UTC)

func testData() *Data {
	return &Data{
		Readings: []SensorReading{
			{Place: "Living", Temperature: 23.5, Humidity: 48.2, CO2: 612},
			{Place: "Tatami", Temperature: 21.0, Humidity: 52.9, CO2: 1234},
			{Place: "Utility", Temperature: 19.8, Humidity: 60.1, CO2: 455},
			{Place: "Study", Temperature: 24.4, Humidity: 41.0, CO2: 980},
		},
		Power: PowerSummary{Last: 320, Mean: 310, Max: 450, Min: 200},
		Now:   testNow,
	}
}

type fakeFetcher struct {
	data *Data
	err  error
}

func (f *fakeFetcher) FetchReadings(ctx context.Context, places []config.Place) ([]SensorReading, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.data.Readings, nil
}

func (f *fakeFetcher) FetchPower(ctx context.Context, host string) (*PowerSummary, error) {
	if f.err != nil {
		return nil, f.err
	}
	p := f.data.Power
	return &p, nil
}
