package domain

import "time"

// TimeRange полуинтервал [Start, End) в реальном времени
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// Duration возвращает длительность интервала
func (r TimeRange) Duration() time.Duration {
	return r.End.Sub(r.Start)
}

// IsZero возвращает true для пустого интервала
func (r TimeRange) IsZero() bool {
	return r.Start.IsZero() && r.End.IsZero()
}

// Contains возвращает true, если момент t попадает в [Start, End)
func (r TimeRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && t.Before(r.End)
}
