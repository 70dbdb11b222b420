package sensepanel

import "errors"

var (
	// ErrSeriesNotFound indicates the query matched no series in the lookback window.
	ErrSeriesNotFound = errors.New("series not found")
	// ErrColumnNotFound indicates a queried column is missing from the result.
	ErrColumnNotFound = errors.New("column not found")
	// ErrNoFontForFamily indicates a face refers to a font family without a font file.
	ErrNoFontForFamily = errors.New("no font for family")
)
