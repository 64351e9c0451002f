package services

import (
	"sort"
	"time"

	"weather-dashboard/internal/models"
)

// CalendarService lists weather-related events relative to the current day
type CalendarService struct {
	loc *time.Location
	now func() time.Time
}

// NewCalendarService creates a calendar service with days computed in loc
func NewCalendarService(loc *time.Location) *CalendarService {
	if loc == nil {
		loc = time.Local
	}
	return &CalendarService{loc: loc, now: time.Now}
}

// Events returns the scheduled events relative to from: an all-day storm
// alert review that day and a report meeting two days later.
func (s *CalendarService) Events(from time.Time) []models.CalendarEvent {
	from = from.In(s.loc)
	day := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, s.loc)
	meeting := from.AddDate(0, 0, 2)

	return []models.CalendarEvent{
		{
			Title:  "Storm Alert Review",
			Start:  day,
			End:    day.AddDate(0, 0, 1),
			AllDay: true,
		},
		{
			Title: "Weather Report Meeting",
			Start: meeting,
			End:   meeting,
		},
	}
}

// Range returns today's events that overlap [start, end), ordered by start
func (s *CalendarService) Range(start, end time.Time) []models.CalendarEvent {
	out := make([]models.CalendarEvent, 0)
	for _, e := range s.Events(s.now()) {
		if e.Start.Before(end) && (e.End.After(start) || !e.Start.Before(start)) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out
}

// Location returns the zone days are computed in
func (s *CalendarService) Location() *time.Location {
	return s.loc
}
