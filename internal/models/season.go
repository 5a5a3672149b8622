package models

import "time"

// Season is a bounded time window scoping score accumulation and ranking.
// At most one season is active at any moment.
type Season struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
	IsActive  bool      `json:"isActive"`
}

// Covers reports whether the season window contains the given instant.
func (s *Season) Covers(t time.Time) bool {
	return !t.Before(s.StartDate) && !t.After(s.EndDate)
}
