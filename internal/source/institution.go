package source

import (
	"fmt"
	"time"

	"townfeed/internal/config"
	"townfeed/internal/model"
	"townfeed/internal/recur"
)

// maxInstitutionOccurrences caps the weekly projection per institution.
const maxInstitutionOccurrences = 8

// Institutions emits upcoming weekly occurrences for a set of named
// institutions (churches, clubs), each with its own weekday and hour.
type Institutions struct {
	tpls []config.InstitutionTemplate
}

func NewInstitutions(tpls []config.InstitutionTemplate) *Institutions {
	return &Institutions{tpls: tpls}
}

func (s *Institutions) Name() string { return "institutions" }

func (s *Institutions) Events(now time.Time) ([]model.Event, error) {
	out := make([]model.Event, 0, len(s.tpls)*maxInstitutionOccurrences)

	for _, tpl := range s.tpls {
		if tpl.Name == "" {
			return nil, fmt.Errorf("institution template has no name")
		}
		if err := checkClock(tpl.Weekday, tpl.Hour); err != nil {
			return nil, fmt.Errorf("institution %q: %w", tpl.Name, err)
		}

		starts := recur.Weekly(now, time.Weekday(tpl.Weekday), tpl.Hour, maxInstitutionOccurrences)
		for _, start := range starts {
			out = append(out, model.Event{
				Title:       tpl.Name,
				Description: tpl.Description,
				Start:       start,
				Location:    tpl.Location,
				ImageURL:    tpl.ImageURL,
				SourceURL:   tpl.SourceURL,
				Category:    tpl.Category,
				IsFree:      tpl.Free,
			})
		}
	}
	return out, nil
}
