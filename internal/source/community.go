package source

import (
	"fmt"
	"time"

	"townfeed/internal/config"
	"townfeed/internal/model"
	"townfeed/internal/recur"
)

// Community emits one-off community items, each a single occurrence at a
// fixed day-offset from now. Items whose date has already passed are
// silently dropped.
type Community struct {
	tpls []config.OneOffTemplate
}

func NewCommunity(tpls []config.OneOffTemplate) *Community {
	return &Community{tpls: tpls}
}

func (s *Community) Name() string { return "community" }

func (s *Community) Events(now time.Time) ([]model.Event, error) {
	out := make([]model.Event, 0, len(s.tpls))

	for _, tpl := range s.tpls {
		if tpl.Title == "" {
			return nil, fmt.Errorf("community template has no title")
		}
		if tpl.Hour < 0 || tpl.Hour > 23 {
			return nil, fmt.Errorf("community item %q: hour %d out of range [0,23]", tpl.Title, tpl.Hour)
		}

		start, ok := recur.Offset(now, tpl.OffsetDays, tpl.Hour)
		if !ok {
			continue
		}
		out = append(out, model.Event{
			Title:       tpl.Title,
			Description: tpl.Description,
			Start:       start,
			Location:    tpl.Location,
			ImageURL:    tpl.ImageURL,
			SourceURL:   tpl.SourceURL,
			Category:    tpl.Category,
			IsFree:      tpl.Free,
		})
	}
	return out, nil
}
