package sensepanel

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/k1LoW/errors"
	"github.com/k1LoW/sensepanel/config"
)

// Fetcher retrieves the readings a render needs.
type Fetcher interface {
	FetchReadings(ctx context.Context, places []config.Place) ([]SensorReading, error)
	FetchPower(ctx context.Context, host string) (*PowerSummary, error)
}

// FetchReadings returns the latest reading of every place, in order.
// The first failing place aborts the fetch.
func (c *InfluxClient) FetchReadings(ctx context.Context, places []config.Place) (_ []SensorReading, err error) {
	defer func() {
		err = errors.WithStack(err)
	}()
	readings := make([]SensorReading, 0, len(places))
	for _, p := range places {
		row, err := c.Query(ctx, "*", p.Host)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch reading of %s: %w", p.Name, err)
		}
		r := SensorReading{Place: p.Name}
		if r.Temperature, err = row.Float(c.fields.Temperature); err != nil {
			return nil, fmt.Errorf("failed to fetch reading of %s: %w", p.Name, err)
		}
		if r.Humidity, err = row.Float(c.fields.Humidity); err != nil {
			return nil, fmt.Errorf("failed to fetch reading of %s: %w", p.Name, err)
		}
		co2, err := row.Float(c.fields.CO2)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch reading of %s: %w", p.Name, err)
		}
		r.CO2 = int(math.Round(co2))
		c.logger.Info("fetched reading", slog.String("place", p.Name), slog.String("host", p.Host))
		readings = append(readings, r)
	}
	return readings, nil
}

// FetchPower returns the last, mean, max and min of the power field within the window.
func (c *InfluxClient) FetchPower(ctx context.Context, host string) (_ *PowerSummary, err error) {
	defer func() {
		err = errors.WithStack(err)
	}()
	s := &PowerSummary{}
	for _, agg := range []struct {
		fn  string
		dst *float64
	}{
		{"last", &s.Last},
		{"mean", &s.Mean},
		{"max", &s.Max},
		{"min", &s.Min},
	} {
		row, err := c.Query(ctx, fmt.Sprintf("%s(%s)", agg.fn, c.fields.Power), host)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch %s power: %w", agg.fn, err)
		}
		v, err := row.Float(agg.fn)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch %s power: %w", agg.fn, err)
		}
		*agg.dst = v
	}
	c.logger.Info("fetched power", slog.String("host", host))
	return s, nil
}
