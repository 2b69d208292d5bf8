package service

import (
	"context"
	"fmt"
	"time"

	"rciconnect/internal/database"
	"rciconnect/internal/domain"
	"rciconnect/internal/models"

	"github.com/rs/zerolog"
)

// AvailabilityService manages a consultant's weekly recurrence pattern, the
// blocked-time exceptions laid over it, and the expansion of both into
// bookable open slots.
type AvailabilityService struct {
	repo   domain.Repository
	logger *zerolog.Logger
}

func NewAvailabilityService(repo domain.Repository, logger *zerolog.Logger) *AvailabilityService {
	return &AvailabilityService{
		repo:   repo,
		logger: logger,
	}
}

func (s *AvailabilityService) GetSchedule(ctx context.Context, consultantID int64) (*models.WeeklySchedule, error) {
	return s.repo.GetWeeklySchedule(ctx, consultantID)
}

func (s *AvailabilityService) CreateSlot(ctx context.Context, slot *models.AvailabilitySlot) error {
	if err := validateSlot(slot); err != nil {
		return err
	}
	return s.repo.CreateSlot(ctx, slot)
}

// validateSlot runs before anything touches storage. A slot missing fields
// or with an inverted range never reaches the database.
func validateSlot(slot *models.AvailabilitySlot) error {
	if slot.StartTime == "" || slot.EndTime == "" {
		return fmt.Errorf("%w: start and end time are required", database.ErrInvalidInput)
	}
	if slot.DayOfWeek < 0 || slot.DayOfWeek > 6 {
		return fmt.Errorf("%w: day of week must be 0-6", database.ErrInvalidInput)
	}

	startH, startM, err := models.ParseWallClock(slot.StartTime)
	if err != nil {
		return fmt.Errorf("%w: %v", database.ErrInvalidInput, err)
	}
	endH, endM, err := models.ParseWallClock(slot.EndTime)
	if err != nil {
		return fmt.Errorf("%w: %v", database.ErrInvalidInput, err)
	}
	if endH*60+endM <= startH*60+startM {
		return fmt.Errorf("%w: end time must be after start time", database.ErrRangeInverted)
	}

	if !models.IsValidSlotInterval(slot.SlotIntervalMinutes) {
		return fmt.Errorf("%w: slot interval must be one of %v", database.ErrInvalidInput, models.ValidSlotIntervals)
	}
	return nil
}

func (s *AvailabilityService) DeleteSlot(ctx context.Context, consultantID, slotID int64) error {
	return s.repo.DeleteSlot(ctx, consultantID, slotID)
}

func (s *AvailabilityService) SetTimezone(ctx context.Context, consultantID int64, timezone string) error {
	if _, err := time.LoadLocation(timezone); err != nil {
		return fmt.Errorf("%w: %s", database.ErrUnknownTimezone, timezone)
	}
	return s.repo.SetScheduleTimezone(ctx, consultantID, timezone)
}

func (s *AvailabilityService) ListBlockedTimes(ctx context.Context, consultantID int64) ([]models.BlockedTime, error) {
	return s.repo.ListBlockedTimes(ctx, consultantID)
}

func (s *AvailabilityService) CreateBlockedTime(ctx context.Context, blocked *models.BlockedTime) error {
	if blocked.StartAt.IsZero() || blocked.EndAt.IsZero() {
		return fmt.Errorf("%w: start and end are required", database.ErrInvalidInput)
	}
	return s.repo.CreateBlockedTime(ctx, blocked)
}

func (s *AvailabilityService) DeleteBlockedTime(ctx context.Context, consultantID, blockedID int64) error {
	return s.repo.DeleteBlockedTime(ctx, consultantID, blockedID)
}

// ListTimezones never fails: if the reference table is empty or the query
// errors, callers get the builtin list.
func (s *AvailabilityService) ListTimezones(ctx context.Context) []string {
	list, err := s.repo.ListTimezones(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list timezones, serving defaults")
		return models.DefaultTimezones
	}
	if len(list) == 0 {
		return models.DefaultTimezones
	}
	return list
}

// ExpandOpenSlots materializes the weekly pattern into concrete bookable
// intervals between from and to, minus anything covered by a blocked time.
// Chunking happens in the consultant's schedule timezone so a 09:00 slot
// means 09:00 wall clock on every matching day.
func (s *AvailabilityService) ExpandOpenSlots(ctx context.Context, consultantID int64, from, to time.Time) ([]models.OpenSlot, error) {
	if !to.After(from) {
		return nil, database.ErrRangeInverted
	}

	schedule, err := s.repo.GetWeeklySchedule(ctx, consultantID)
	if err != nil {
		return nil, err
	}
	blocked, err := s.repo.ListBlockedTimes(ctx, consultantID)
	if err != nil {
		return nil, err
	}

	loc, err := time.LoadLocation(schedule.Timezone)
	if err != nil {
		s.logger.Warn().Str("timezone", schedule.Timezone).Msg("unknown schedule timezone, using UTC")
		loc = time.UTC
	}

	// walk local calendar days: truncating to UTC midnights would land on
	// the previous local date for negative-offset timezones
	first := from.In(loc)
	last := to.In(loc)
	day := time.Date(first.Year(), first.Month(), first.Day(), 0, 0, 0, 0, loc)
	lastDay := time.Date(last.Year(), last.Month(), last.Day(), 0, 0, 0, 0, loc)

	var out []models.OpenSlot
	for !day.After(lastDay) {
		for _, slot := range schedule.Slots {
			if !slot.IsActive || int(day.Weekday()) != slot.DayOfWeek {
				continue
			}
			chunks, err := expandSlot(slot, day, loc)
			if err != nil {
				return nil, err
			}
			for _, c := range chunks {
				if c.Start.Before(from) || c.End.After(to) {
					continue
				}
				if coveredByBlocked(blocked, c) {
					continue
				}
				out = append(out, c)
			}
		}
		day = day.AddDate(0, 0, 1)
	}
	return out, nil
}

// expandSlot cuts one weekly slot on one concrete day into interval-sized
// chunks. A trailing remainder shorter than the interval is dropped.
func expandSlot(slot models.AvailabilitySlot, day time.Time, loc *time.Location) ([]models.OpenSlot, error) {
	startH, startM, err := models.ParseWallClock(slot.StartTime)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", database.ErrInvalidInput, err)
	}
	endH, endM, err := models.ParseWallClock(slot.EndTime)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", database.ErrInvalidInput, err)
	}

	start := time.Date(day.Year(), day.Month(), day.Day(), startH, startM, 0, 0, loc)
	end := time.Date(day.Year(), day.Month(), day.Day(), endH, endM, 0, 0, loc)
	step := time.Duration(slot.SlotIntervalMinutes) * time.Minute

	var out []models.OpenSlot
	for cur := start; !cur.Add(step).After(end); cur = cur.Add(step) {
		out = append(out, models.OpenSlot{Start: cur, End: cur.Add(step)})
	}
	return out, nil
}

func coveredByBlocked(blocked []models.BlockedTime, slot models.OpenSlot) bool {
	for _, b := range blocked {
		if b.Covers(slot.Start, slot.End) {
			return true
		}
	}
	return false
}
