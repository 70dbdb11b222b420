package sensepanel

import (
	"fmt"
	"time"

	"github.com/k1LoW/sensepanel/config"
	"github.com/k1LoW/sensepanel/template"
)

// Labels expands the configured date and update time templates.
type Labels struct {
	Date       string
	Weekday    string
	UpdateTime string
}

// DefaultLabels returns the labels used when nothing is configured.
func DefaultLabels() Labels {
	c := config.Default().Labels
	return Labels{Date: c.Date, Weekday: c.Weekday, UpdateTime: c.UpdateTime}
}

func dateStore(t time.Time) map[string]any {
	return map[string]any{
		"year":   t.Year(),
		"month":  int(t.Month()),
		"day":    t.Day(),
		"hour":   t.Hour(),
		"minute": t.Minute(),
		"wday":   WeekdayJa(t.Weekday()),
		"date":   t.Format("2006-01-02"),
		"time":   t.Format("15:04"),
	}
}

// Footer returns the footer panel for t.
func (l Labels) Footer(t time.Time) (*FooterPanel, error) {
	store := dateStore(t)
	date, err := template.Expand(l.Date, store)
	if err != nil {
		return nil, fmt.Errorf("failed to expand date label: %w", err)
	}
	wday, err := template.Expand(l.Weekday, store)
	if err != nil {
		return nil, fmt.Errorf("failed to expand weekday label: %w", err)
	}
	return &FooterPanel{Date: date, Weekday: wday}, nil
}

// UpdateTimePanel returns the update time panel for t.
func (l Labels) UpdateTimePanel(t time.Time) (*UpdateTimePanel, error) {
	s, err := template.Expand(l.UpdateTime, dateStore(t))
	if err != nil {
		return nil, fmt.Errorf("failed to expand update time label: %w", err)
	}
	return &UpdateTimePanel{Text: s}, nil
}

// Validate compiles every template and expands it once against t.
func (l Labels) Validate(t time.Time) error {
	store := dateStore(t)
	for _, label := range []struct{ name, text string }{
		{"date", l.Date},
		{"weekday", l.Weekday},
		{"update time", l.UpdateTime},
	} {
		tmpl, err := template.Parse(label.text, store)
		if err != nil {
			return fmt.Errorf("invalid %s label: %w", label.name, err)
		}
		if _, err := tmpl.Execute(store); err != nil {
			return fmt.Errorf("failed to expand %s label: %w", label.name, err)
		}
	}
	return nil
}
