package model

import "time"

// Event is a single future happening produced by a source generator.
// Events are value objects: once emitted they are never mutated.
type Event struct {
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Start       time.Time `json:"startTime"`
	Location    string    `json:"location,omitempty"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	SourceURL   string    `json:"sourceUrl"`
	Category    string    `json:"category"`
	IsFree      bool      `json:"isFree"`
}

// Key returns the identity key used for de-duplication across sources.
// Two events with the same title, start and location are the same event.
func (e Event) Key() string {
	return e.Title + "|" + e.Start.Format(time.RFC3339) + "|" + e.Location
}
