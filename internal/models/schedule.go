package models

import (
	"fmt"
	"time"
)

// AvailabilitySlot is one recurring weekly window a consultant is bookable in.
// Times are wall clock in the owning schedule's timezone, format "15:04".
type AvailabilitySlot struct {
	ID                  int64     `json:"id"`
	ConsultantID        int64     `json:"consultant_id"`
	DayOfWeek           int       `json:"day_of_week"` // 0=Sunday .. 6=Saturday, matches time.Weekday
	StartTime           string    `json:"start_time"`
	EndTime             string    `json:"end_time"`
	SlotIntervalMinutes int       `json:"slot_interval_minutes"`
	IsActive            bool      `json:"is_active"`
	CreatedAt           time.Time `json:"created_at"`
}

// WeeklySchedule aggregates a consultant's recurring slots under a single
// authoritative timezone.
type WeeklySchedule struct {
	ConsultantID int64              `json:"consultant_id"`
	Timezone     string             `json:"timezone"`
	Slots        []AvailabilitySlot `json:"slots"`
}

// BlockedTime is an absolute exception period overriding the weekly schedule.
type BlockedTime struct {
	ID           int64     `json:"id"`
	ConsultantID int64     `json:"consultant_id"`
	StartAt      time.Time `json:"start_datetime"`
	EndAt        time.Time `json:"end_datetime"`
	Reason       string    `json:"reason"`
	CreatedAt    time.Time `json:"created_at"`
}

// Covers reports whether the blocked period overlaps [start, end).
func (b BlockedTime) Covers(start, end time.Time) bool {
	return start.Before(b.EndAt) && b.StartAt.Before(end)
}

// OpenSlot is a concrete bookable interval produced by expanding the weekly
// schedule for a date range.
type OpenSlot struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// ParseWallClock parses "HH:MM" into hour and minute.
func ParseWallClock(value string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", value)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid time %q: expected HH:MM", value)
	}
	return t.Hour(), t.Minute(), nil
}
