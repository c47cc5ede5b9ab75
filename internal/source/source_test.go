package source

import (
	"testing"
	"time"

	"townfeed/internal/config"
)

func marketTemplate() config.MarketTemplate {
	return config.MarketTemplate{
		Title:       "Riverside Farmers Market",
		Description: "Produce and crafts",
		Location:    "Riverside Park Pavilion",
		SourceURL:   "https://riversidemarket.example.org",
		ImageURL:    "https://riversidemarket.example.org/banner.jpg",
		Weekday:     int(time.Saturday),
		Hour:        8,
		Occurrences: 4,
		Category:    "food",
		Free:        true,
	}
}

func TestMarket_EmitsUpcomingSaturdays(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC) // Monday
	m := NewMarket(marketTemplate())

	evs, err := m.Events(now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(evs) != 4 {
		t.Fatalf("expected 4 events, got %d", len(evs))
	}
	for i, ev := range evs {
		if !ev.Start.After(now) {
			t.Fatalf("event %d not in the future: %v", i, ev.Start)
		}
		if ev.Start.Weekday() != time.Saturday || ev.Start.Hour() != 8 {
			t.Fatalf("event %d at wrong slot: %v", i, ev.Start)
		}
		if ev.Title != "Riverside Farmers Market" || ev.Category != "food" || !ev.IsFree {
			t.Fatalf("event %d fields not populated from template: %+v", i, ev)
		}
	}
}

func TestMarket_NeverExceedsOccurrenceCap(t *testing.T) {
	t.Parallel()

	tpl := marketTemplate()
	m := NewMarket(tpl)

	// Sweep a full week of "now" values; the cap holds regardless.
	base := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	for d := 0; d < 7; d++ {
		for _, h := range []int{0, 7, 8, 9, 23} {
			now := base.AddDate(0, 0, d).Add(time.Duration(h) * time.Hour)
			evs, err := m.Events(now)
			if err != nil {
				t.Fatalf("unexpected error at %v: %v", now, err)
			}
			if len(evs) > tpl.Occurrences {
				t.Fatalf("cap exceeded at %v: %d events", now, len(evs))
			}
		}
	}
}

func TestMarket_MalformedTemplate(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	tpl := marketTemplate()
	tpl.Weekday = 9
	if _, err := NewMarket(tpl).Events(now); err == nil {
		t.Fatal("expected error for out-of-range weekday")
	}

	if _, err := NewMarket(config.MarketTemplate{}).Events(now); err == nil {
		t.Fatal("expected error for empty template")
	}
}

func TestInstitutions_PerInstitutionCap(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	tpls := []config.InstitutionTemplate{
		{Name: "First Baptist", Weekday: int(time.Sunday), Hour: 10, SourceURL: "https://a.example.org", Category: "community", Free: true},
		{Name: "St. Mary's", Weekday: int(time.Sunday), Hour: 9, SourceURL: "https://b.example.org", Category: "community", Free: true},
	}

	evs, err := NewInstitutions(tpls).Events(now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	perName := map[string]int{}
	for _, ev := range evs {
		perName[ev.Title]++
		if !ev.Start.After(now) {
			t.Fatalf("event not in the future: %v", ev.Start)
		}
	}
	for name, n := range perName {
		if n > maxInstitutionOccurrences {
			t.Fatalf("%s: %d occurrences exceeds cap %d", name, n, maxInstitutionOccurrences)
		}
		if n != maxInstitutionOccurrences {
			t.Fatalf("%s: expected full projection of %d, got %d", name, maxInstitutionOccurrences, n)
		}
	}
	if len(perName) != 2 {
		t.Fatalf("expected 2 institutions in output, got %d", len(perName))
	}
}

func TestInstitutions_MalformedEntryDegradesWholeSource(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	tpls := []config.InstitutionTemplate{
		{Name: "Valid", Weekday: int(time.Sunday), Hour: 10},
		{Name: "Broken", Weekday: 2, Hour: 99},
	}

	if _, err := NewInstitutions(tpls).Events(now); err == nil {
		t.Fatal("expected error for malformed institution template")
	}
}

func TestCommunity_OneRecordPerItemFutureOnly(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC) // Tuesday
	tpls := []config.OneOffTemplate{
		{Title: "Potluck", OffsetDays: 4, Hour: 18, Location: "Community Center", SourceURL: "https://c.example.org", Category: "food", Free: true},
		{Title: "Already Over", OffsetDays: 0, Hour: 9, SourceURL: "https://c.example.org", Category: "community"},
	}

	evs, err := NewCommunity(tpls).Events(now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(evs) != 1 {
		t.Fatalf("expected 1 event, got %d", len(evs))
	}

	want := time.Date(2026, 2, 7, 18, 0, 0, 0, time.UTC) // the following Saturday
	if evs[0].Title != "Potluck" || !evs[0].Start.Equal(want) {
		t.Fatalf("unexpected event: %+v (want start %v)", evs[0], want)
	}
}

func TestCommunity_Empty(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC)
	evs, err := NewCommunity(nil).Events(now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(evs) != 0 {
		t.Fatalf("expected no events, got %d", len(evs))
	}
}
