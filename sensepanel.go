package sensepanel

import (
	"context"
	"fmt"
	"image"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/k1LoW/errors"
	"github.com/k1LoW/sensepanel/config"
)

// detailFooterGap separates the detail rows from the footer.
const detailFooterGap = 50

// Renderer fetches sensor data and draws the dashboard.
type Renderer struct {
	cfg      *config.Config
	faces    *FaceSet
	ownFaces bool
	icon     image.Image
	iconSet  bool
	fetcher  Fetcher
	labels   *Labels
	now      func() time.Time
	logger   *slog.Logger
}

type Option func(*Renderer) error

func WithConfig(cfg *config.Config) Option {
	return func(r *Renderer) error {
		if cfg == nil {
			return fmt.Errorf("config is nil")
		}
		r.cfg = cfg
		return nil
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Renderer) error {
		r.logger = logger
		return nil
	}
}

// WithFaceSet uses faces instead of loading the configured font files.
// The caller keeps ownership of faces.
func WithFaceSet(faces *FaceSet) Option {
	return func(r *Renderer) error {
		r.faces = faces
		return nil
	}
}

// WithPowerIcon uses icon instead of loading the configured icon file. A nil icon draws none.
func WithPowerIcon(icon image.Image) Option {
	return func(r *Renderer) error {
		r.icon = icon
		r.iconSet = true
		return nil
	}
}

// WithFetcher replaces the InfluxDB client.
func WithFetcher(f Fetcher) Option {
	return func(r *Renderer) error {
		r.fetcher = f
		return nil
	}
}

// WithClock sets the source of the date and update time.
func WithClock(now func() time.Time) Option {
	return func(r *Renderer) error {
		r.now = now
		return nil
	}
}

func WithLabels(l Labels) Option {
	return func(r *Renderer) error {
		r.labels = &l
		return nil
	}
}

// Data is everything a render pass draws.
type Data struct {
	Readings []SensorReading `json:"readings"`
	Power    PowerSummary    `json:"power"`
	Now      time.Time       `json:"now"`
}

// New creates a Renderer. Fonts and the power icon are loaded from the configuration unless given.
func New(opts ...Option) (_ *Renderer, err error) {
	defer func() {
		err = errors.WithStack(err)
	}()
	r := &Renderer{
		now: time.Now,
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	if r.cfg == nil {
		r.cfg = config.Default()
	}
	if r.logger == nil {
		r.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if r.labels == nil {
		r.labels = &Labels{
			Date:       r.cfg.Labels.Date,
			Weekday:    r.cfg.Labels.Weekday,
			UpdateTime: r.cfg.Labels.UpdateTime,
		}
	}
	if r.faces == nil {
		faces, err := LoadFaces(r.cfg)
		if err != nil {
			return nil, err
		}
		r.faces = faces
		r.ownFaces = true
	}
	if !r.iconSet && r.cfg.Icons.Power != "" {
		icon, err := LoadIcon(filepath.Clean(r.cfg.Icons.Power))
		if err != nil {
			_ = r.Close()
			return nil, err
		}
		r.icon = ScaleIcon(icon, r.cfg.Icons.PowerSize)
	}
	if r.fetcher == nil {
		r.fetcher = NewInfluxClient(r.cfg.Influx, r.cfg.Timeout(), r.logger)
	}
	return r, nil
}

// LoadFaces opens the faces of cfg: the default face table with cfg.Faces size overrides, read from cfg.Fonts.
func LoadFaces(cfg *config.Config) (_ *FaceSet, err error) {
	defer func() {
		err = errors.WithStack(err)
	}()
	table, err := NewFaceTable(cfg.Faces)
	if err != nil {
		return nil, fmt.Errorf("invalid faces: %w", err)
	}
	paths := map[FontFamily]string{}
	for family, p := range cfg.Fonts {
		paths[FontFamily(family)] = p
	}
	return LoadFaceSet(paths, table)
}

// Close releases fonts loaded by New.
func (r *Renderer) Close() error {
	if r.ownFaces && r.faces != nil {
		return r.faces.Close()
	}
	return nil
}

// Fetch queries the readings of every configured place and the power summary.
func (r *Renderer) Fetch(ctx context.Context) (*Data, error) {
	return FetchData(ctx, r.fetcher, r.cfg, r.now)
}

// FetchData queries the readings of every place in cfg and the power summary of cfg.PowerHost.
// Now is taken from now once both queries succeed.
func FetchData(ctx context.Context, f Fetcher, cfg *config.Config, now func() time.Time) (_ *Data, err error) {
	defer func() {
		err = errors.WithStack(err)
	}()
	readings, err := f.FetchReadings(ctx, cfg.Places)
	if err != nil {
		return nil, err
	}
	power, err := f.FetchPower(ctx, cfg.PowerHost)
	if err != nil {
		return nil, err
	}
	return &Data{
		Readings: readings,
		Power:    *power,
		Now:      now(),
	}, nil
}

// Panels returns the panels for data in drawing order.
func (r *Renderer) Panels(data *Data) (_ []Panel, err error) {
	defer func() {
		err = errors.WithStack(err)
	}()
	footer, err := r.labels.Footer(data.Now)
	if err != nil {
		return nil, err
	}
	updateTime, err := r.labels.UpdateTimePanel(data.Now)
	if err != nil {
		return nil, err
	}
	places := make([]string, 0, len(r.cfg.Places))
	for _, p := range r.cfg.Places {
		places = append(places, p.Name)
	}
	return []Panel{
		&HeaderPanel{Power: data.Power, Icon: r.icon},
		&DetailPanel{Readings: data.Readings, Places: places},
		footer,
		updateTime,
	}, nil
}

// RenderData draws data onto a new canvas.
func (r *Renderer) RenderData(data *Data) (_ *Canvas, err error) {
	defer func() {
		err = errors.WithStack(err)
	}()
	if data == nil {
		return nil, fmt.Errorf("data is nil")
	}
	logger := r.logger.With(slog.String("render_id", uuid.NewString()))
	panels, err := r.Panels(data)
	if err != nil {
		return nil, err
	}
	c := NewCanvas(r.faces)
	bounds := c.Bounds()
	margin := image.Pt(PanelMargin, PanelMargin)
	width := PanelWidth - PanelMargin*2
	nextY := 0
	for _, p := range panels {
		region := Region{Offset: margin.Add(image.Pt(0, nextY)), Width: width}
		plan, err := p.Plan(r.faces, region)
		if err != nil {
			return nil, fmt.Errorf("failed to lay out %s panel: %w", p.Name(), err)
		}
		for _, op := range plan.Ops {
			if rect := op.Rect(r.faces); !rect.In(bounds) {
				logger.Warn("draw op leaves the panel area",
					slog.String("panel", p.Name()),
					slog.String("target", op.Target),
					slog.String("rect", rect.String()),
				)
			}
		}
		c.Apply(plan)
		logger.Info("rendered panel", slog.String("panel", p.Name()), slog.Int("ops", len(plan.Ops)), slog.Int("next_y", plan.NextY))
		nextY = plan.NextY
		if _, ok := p.(*DetailPanel); ok {
			nextY += detailFooterGap
		}
	}
	logger.Info("render completed", slog.Int("places", len(data.Readings)))
	return c, nil
}

// RenderImage fetches data and returns the drawn image.
func (r *Renderer) RenderImage(ctx context.Context) (_ *image.Gray, err error) {
	defer func() {
		err = errors.WithStack(err)
	}()
	data, err := r.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	c, err := r.RenderData(data)
	if err != nil {
		return nil, err
	}
	return c.Image(), nil
}

// Render fetches data and writes the dashboard to w as PNG.
func (r *Renderer) Render(ctx context.Context, w io.Writer) (err error) {
	defer func() {
		err = errors.WithStack(err)
	}()
	data, err := r.Fetch(ctx)
	if err != nil {
		return err
	}
	c, err := r.RenderData(data)
	if err != nil {
		return err
	}
	return c.EncodePNG(w)
}
