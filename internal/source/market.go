package source

import (
	"errors"
	"fmt"
	"time"

	"townfeed/internal/config"
	"townfeed/internal/model"
	"townfeed/internal/recur"
)

// Market emits the upcoming occurrences of the weekly farmers market.
type Market struct {
	tpl config.MarketTemplate
}

func NewMarket(tpl config.MarketTemplate) *Market {
	return &Market{tpl: tpl}
}

func (m *Market) Name() string { return "market" }

func (m *Market) Events(now time.Time) ([]model.Event, error) {
	if m.tpl.Title == "" {
		return nil, errors.New("market template has no title")
	}
	if err := checkClock(m.tpl.Weekday, m.tpl.Hour); err != nil {
		return nil, fmt.Errorf("market template: %w", err)
	}

	max := m.tpl.Occurrences
	if max <= 0 {
		max = 4
	}

	starts := recur.Weekly(now, time.Weekday(m.tpl.Weekday), m.tpl.Hour, max)
	out := make([]model.Event, 0, len(starts))
	for _, start := range starts {
		out = append(out, model.Event{
			Title:       m.tpl.Title,
			Description: m.tpl.Description,
			Start:       start,
			Location:    m.tpl.Location,
			ImageURL:    m.tpl.ImageURL,
			SourceURL:   m.tpl.SourceURL,
			Category:    m.tpl.Category,
			IsFree:      m.tpl.Free,
		})
	}
	return out, nil
}
