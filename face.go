package sensepanel

import (
	"fmt"
	"os"
	"sort"

	"github.com/k1LoW/errors"
	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

// FontFamily names a font file in the configuration.
type FontFamily string

const (
	FamilyShinGoRegular  FontFamily = "shingo-regular"
	FamilyShinGoMedium   FontFamily = "shingo-medium"
	FamilyShinGoBold     FontFamily = "shingo-bold"
	FamilyFuturaCondBold FontFamily = "futura-cond-bold"
	FamilyFuturaCond     FontFamily = "futura-cond"
	FamilyFuturaMedium   FontFamily = "futura-medium"
	FamilyFuturaBold     FontFamily = "futura-bold"
)

// Face is a symbolic text style used by the panels.
type Face int

const (
	FaceDateLarge Face = iota
	FaceWdayLarge
	FacePowerLarge
	FacePowerDetailLabel
	FacePowerDetailValue
	FaceTempLarge
	FaceHumiLarge
	FaceUnitLarge
	FacePlace
	FaceTemp
	FaceHumi
	FaceCO2
	FaceUnit
	FaceTime
	numFaces
)

// FaceSpec is the font family and pixel size of a Face.
type FaceSpec struct {
	Family FontFamily
	Size   float64
}

var faceNames = [numFaces]string{
	FaceDateLarge:        "date_large",
	FaceWdayLarge:        "wday_large",
	FacePowerLarge:       "power_large",
	FacePowerDetailLabel: "power_detail_label",
	FacePowerDetailValue: "power_detail_value",
	FaceTempLarge:        "temp_large",
	FaceHumiLarge:        "humi_large",
	FaceUnitLarge:        "unit_large",
	FacePlace:            "place",
	FaceTemp:             "temp",
	FaceHumi:             "humi",
	FaceCO2:              "co2",
	FaceUnit:             "unit",
	FaceTime:             "time",
}

// FaceTable maps every Face to its font family and size.
type FaceTable [numFaces]FaceSpec

var defaultFaceTable = FaceTable{
	FaceDateLarge:        {FamilyFuturaCondBold, 120},
	FaceWdayLarge:        {FamilyShinGoBold, 100},
	FacePowerLarge:       {FamilyFuturaCondBold, 200},
	FacePowerDetailLabel: {FamilyFuturaMedium, 50},
	FacePowerDetailValue: {FamilyFuturaMedium, 70},
	FaceTempLarge:        {FamilyFuturaCondBold, 210},
	FaceHumiLarge:        {FamilyFuturaCondBold, 210},
	FaceUnitLarge:        {FamilyFuturaMedium, 40},
	FacePlace:            {FamilyShinGoMedium, 40},
	FaceTemp:             {FamilyFuturaCondBold, 170},
	FaceHumi:             {FamilyFuturaCondBold, 170},
	FaceCO2:              {FamilyFuturaCondBold, 80},
	FaceUnit:             {FamilyShinGoRegular, 40},
	FaceTime:             {FamilyShinGoRegular, 20},
}

func (f Face) String() string {
	if f < 0 || f >= numFaces {
		return fmt.Sprintf("Face(%d)", int(f))
	}
	return faceNames[f]
}

// ParseFace returns the Face named name.
func ParseFace(name string) (Face, error) {
	for i, n := range faceNames {
		if n == name {
			return Face(i), nil
		}
	}
	return 0, fmt.Errorf("unknown face: %s", name)
}

// NewFaceTable returns the default face table with sizes overridden by face name.
func NewFaceTable(sizes map[string]float64) (FaceTable, error) {
	t := defaultFaceTable
	for name, size := range sizes {
		f, err := ParseFace(name)
		if err != nil {
			return t, err
		}
		t[f].Size = size
	}
	return t, nil
}

// Families returns the font families referenced by t, sorted.
func (t FaceTable) Families() []FontFamily {
	m := map[FontFamily]struct{}{}
	for _, s := range t {
		m[s.Family] = struct{}{}
	}
	families := make([]FontFamily, 0, len(m))
	for f := range m {
		families = append(families, f)
	}
	sort.Slice(families, func(i, j int) bool { return families[i] < families[j] })
	return families
}

// FaceSet holds one font.Face per Face, resolved once.
type FaceSet struct {
	faces [numFaces]font.Face
}

var _ Measurer = (*FaceSet)(nil)

// LoadFaceSet reads the font files of every family used by table. A missing file is an error.
func LoadFaceSet(paths map[FontFamily]string, table FaceTable) (_ *FaceSet, err error) {
	defer func() {
		err = errors.WithStack(err)
	}()
	fonts := map[FontFamily][]byte{}
	for _, family := range table.Families() {
		p, ok := paths[family]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrNoFontForFamily, family)
		}
		b, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("failed to read font %s: %w", family, err)
		}
		fonts[family] = b
	}
	return NewFaceSet(fonts, table)
}

// NewFaceSet parses font data and opens a face per Face.
func NewFaceSet(fonts map[FontFamily][]byte, table FaceTable) (_ *FaceSet, err error) {
	defer func() {
		err = errors.WithStack(err)
	}()
	parsed := map[FontFamily]*sfnt.Font{}
	fs := &FaceSet{}
	for i, spec := range table {
		f, ok := parsed[spec.Family]
		if !ok {
			b, ok := fonts[spec.Family]
			if !ok {
				return nil, fmt.Errorf("%w: %s (face %s)", ErrNoFontForFamily, spec.Family, Face(i))
			}
			f, err = opentype.Parse(b)
			if err != nil {
				return nil, fmt.Errorf("failed to parse font %s: %w", spec.Family, err)
			}
			parsed[spec.Family] = f
		}
		face, err := opentype.NewFace(f, &opentype.FaceOptions{
			Size:    spec.Size,
			DPI:     72,
			Hinting: font.HintingNone,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create face %s: %w", Face(i), err)
		}
		fs.faces[i] = face
	}
	return fs, nil
}

// Face returns the font.Face of f.
func (fs *FaceSet) Face(f Face) font.Face {
	return fs.faces[f]
}

// Measure returns the ink box of text drawn in f with its top at the face's ascent line.
// The width spans the leftmost to the rightmost inked pixel, so side bearings are excluded.
// The height is the ascent plus the deepest descender actually present in text.
func (fs *FaceSet) Measure(f Face, text string) Box {
	face := fs.faces[f]
	bounds, _ := font.BoundString(face, text)
	h := face.Metrics().Ascent.Ceil()
	if bounds.Max.Y > 0 {
		h += bounds.Max.Y.Ceil()
	}
	w := 0
	if bounds.Max.X > bounds.Min.X {
		w = (bounds.Max.X - bounds.Min.X).Ceil()
	}
	return Box{W: w, H: h}
}

// dotX returns the pen X that puts the ink of text flush with x on the side given by align.
func (fs *FaceSet) dotX(f Face, text string, x int, align Align) fixed.Int26_6 {
	bounds, _ := font.BoundString(fs.faces[f], text)
	if bounds.Max.X <= bounds.Min.X {
		return fixed.I(x)
	}
	if align == AlignRight {
		return fixed.I(x) - bounds.Max.X
	}
	return fixed.I(x) - bounds.Min.X
}

// Ascent returns the baseline offset from the top of a text box drawn in f.
func (fs *FaceSet) Ascent(f Face) int {
	return fs.faces[f].Metrics().Ascent.Ceil()
}

// Close releases the faces.
func (fs *FaceSet) Close() error {
	for _, f := range fs.faces {
		if f == nil {
			continue
		}
		if err := f.Close(); err != nil {
			return err
		}
	}
	return nil
}
