package feed

import (
	"fmt"
	"sort"
	"sync"
	"time"

	appLog "townfeed/internal/log"
	"townfeed/internal/metrics"
	"townfeed/internal/model"
	"townfeed/internal/source"
)

// Feed aggregates the registered sources into one deduplicated,
// time-ordered event list.
type Feed struct {
	sources []source.Source
}

func New(sources ...source.Source) *Feed {
	return &Feed{sources: sources}
}

// Events runs every source against now, concatenates the results in
// registration order, deduplicates by the event identity key and returns
// the records sorted ascending by start time.
//
// Sources run concurrently; they share no state. A failing or panicking
// source contributes nothing but never affects the others, and any fault
// in the aggregation itself degrades to an empty list. The result is
// deterministic for a fixed now and fixed templates.
func (f *Feed) Events(now time.Time) (out []model.Event) {
	defer func() {
		if r := recover(); r != nil {
			appLog.Error("feed aggregation failed", fmt.Errorf("panic: %v", r))
			out = []model.Event{}
		}
	}()

	metrics.PipelineRuns.Inc()

	results := make([][]model.Event, len(f.sources))
	var wg sync.WaitGroup
	for i, s := range f.sources {
		wg.Add(1)
		go func(i int, s source.Source) {
			defer wg.Done()
			evs, err := runSource(s, now)
			if err != nil {
				appLog.Error("source generation failed", err, "source", s.Name())
				metrics.SourceFailures.WithLabelValues(s.Name()).Inc()
				return
			}
			appLog.Debug("source generated events", "source", s.Name(), "count", len(evs))
			metrics.SourceEvents.WithLabelValues(s.Name()).Add(float64(len(evs)))
			results[i] = evs
		}(i, s)
	}
	wg.Wait()

	var all []model.Event
	for _, evs := range results {
		all = append(all, evs...)
	}

	// Dedup tie-break: the first occurrence of a key fixes the record's
	// position, the last occurrence of that key supplies its content.
	slot := make(map[string]int, len(all))
	deduped := make([]model.Event, 0, len(all))
	for _, ev := range all {
		k := ev.Key()
		if i, ok := slot[k]; ok {
			deduped[i] = ev
			continue
		}
		slot[k] = len(deduped)
		deduped = append(deduped, ev)
	}

	// Stable: equal start times keep their dedup order.
	sort.SliceStable(deduped, func(i, j int) bool {
		return deduped[i].Start.Before(deduped[j].Start)
	})

	metrics.FeedSize.Set(float64(len(deduped)))
	return deduped
}

// runSource invokes s.Events with panic isolation, converting a panic
// into an ordinary error so one source can never take down a run.
func runSource(s source.Source, now time.Time) (evs []model.Event, err error) {
	defer func() {
		if r := recover(); r != nil {
			evs, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()
	return s.Events(now)
}
