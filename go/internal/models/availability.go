package models

import (
	"time"

	"github.com/google/uuid"
)

// Weekday is the day of week an availability slot repeats on.
type Weekday string

const (
	WeekdayMonday    Weekday = "MONDAY"
	WeekdayTuesday   Weekday = "TUESDAY"
	WeekdayWednesday Weekday = "WEDNESDAY"
	WeekdayThursday  Weekday = "THURSDAY"
	WeekdayFriday    Weekday = "FRIDAY"
	WeekdaySaturday  Weekday = "SATURDAY"
	WeekdaySunday    Weekday = "SUNDAY"
)

// WeekdayOf converts a timestamp's day of week.
func WeekdayOf(t time.Time) Weekday {
	switch t.Weekday() {
	case time.Monday:
		return WeekdayMonday
	case time.Tuesday:
		return WeekdayTuesday
	case time.Wednesday:
		return WeekdayWednesday
	case time.Thursday:
		return WeekdayThursday
	case time.Friday:
		return WeekdayFriday
	case time.Saturday:
		return WeekdaySaturday
	default:
		return WeekdaySunday
	}
}

// TimeOfDay is minutes since midnight. Slot windows are half-open:
// [Start, End) with End > Start.
type TimeOfDay int

// TimeOfDayOf extracts the minutes since midnight from a timestamp.
func TimeOfDayOf(t time.Time) TimeOfDay {
	return TimeOfDay(t.Hour()*60 + t.Minute())
}

// AvailabilitySlot is a recurring weekly window in which a team is willing to
// play at a venue it has a relationship with. A team may not have two slots
// with identical (day, start, end).
type AvailabilitySlot struct {
	ID                uuid.UUID `json:"id"`
	TeamID            uuid.UUID `json:"team_id"`
	RelationshipID    uuid.UUID `json:"relationship_id"`
	DayOfWeek         Weekday   `json:"day_of_week"`
	StartTime         TimeOfDay `json:"start_time"`
	EndTime           TimeOfDay `json:"end_time"`
	MaxMatchesPerWeek int       `json:"max_matches_per_week"` // 1-7
	CourtType         *string   `json:"court_type,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}
