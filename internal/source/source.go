package source

import (
	"fmt"
	"time"

	"townfeed/internal/model"
)

// Source produces event records for one logical data source. Events is a
// pure computation over the source's templates and now; it must never
// block on I/O. A non-nil error means the whole source degraded and
// contributed nothing for this run.
type Source interface {
	Name() string
	Events(now time.Time) ([]model.Event, error)
}

func checkClock(weekday, hour int) error {
	if weekday < 0 || weekday > 6 {
		return fmt.Errorf("weekday %d out of range [0,6]", weekday)
	}
	if hour < 0 || hour > 23 {
		return fmt.Errorf("hour %d out of range [0,23]", hour)
	}
	return nil
}
