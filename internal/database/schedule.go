package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"rciconnect/internal/models"
)

func (db *DB) GetWeeklySchedule(ctx context.Context, consultantID int64) (*models.WeeklySchedule, error) {
	tz, err := db.GetScheduleTimezone(ctx, consultantID)
	if err != nil {
		return nil, err
	}

	query := `SELECT id, consultant_id, day_of_week, start_time, end_time, slot_interval_minutes, is_active, created_at
              FROM availability_slots
              WHERE consultant_id = ?
              ORDER BY day_of_week, start_time`
	rows, err := db.QueryContext(ctx, query, consultantID)
	if err != nil {
		return nil, fmt.Errorf("failed to get schedule: %w", err)
	}
	defer rows.Close()

	schedule := &models.WeeklySchedule{ConsultantID: consultantID, Timezone: tz}
	for rows.Next() {
		var s models.AvailabilitySlot
		if err := rows.Scan(&s.ID, &s.ConsultantID, &s.DayOfWeek, &s.StartTime, &s.EndTime,
			&s.SlotIntervalMinutes, &s.IsActive, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan slot: %w", err)
		}
		schedule.Slots = append(schedule.Slots, s)
	}
	return schedule, rows.Err()
}

func (db *DB) CreateSlot(ctx context.Context, slot *models.AvailabilitySlot) error {
	query := `INSERT INTO availability_slots (consultant_id, day_of_week, start_time, end_time, slot_interval_minutes, is_active, created_at)
              VALUES (?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	result, err := db.ExecContext(ctx, query,
		slot.ConsultantID,
		slot.DayOfWeek,
		slot.StartTime,
		slot.EndTime,
		slot.SlotIntervalMinutes,
		slot.IsActive,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create slot: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	slot.ID = id
	slot.CreatedAt = now
	return nil
}

func (db *DB) DeleteSlot(ctx context.Context, consultantID, slotID int64) error {
	result, err := db.ExecContext(ctx,
		`DELETE FROM availability_slots WHERE id = ? AND consultant_id = ?`, slotID, consultantID)
	if err != nil {
		return fmt.Errorf("failed to delete slot: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *DB) SetScheduleTimezone(ctx context.Context, consultantID int64, timezone string) error {
	query := `INSERT INTO schedule_timezones (consultant_id, timezone, updated_at) VALUES (?, ?, ?)
              ON CONFLICT(consultant_id) DO UPDATE SET timezone = excluded.timezone, updated_at = excluded.updated_at`
	if _, err := db.ExecContext(ctx, query, consultantID, timezone, time.Now()); err != nil {
		return fmt.Errorf("failed to set timezone: %w", err)
	}
	return nil
}

// GetScheduleTimezone returns the stored timezone or America/Toronto when
// the consultant never picked one.
func (db *DB) GetScheduleTimezone(ctx context.Context, consultantID int64) (string, error) {
	var tz string
	err := db.QueryRowContext(ctx,
		`SELECT timezone FROM schedule_timezones WHERE consultant_id = ?`, consultantID).Scan(&tz)
	if errors.Is(err, sql.ErrNoRows) {
		return "America/Toronto", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get timezone: %w", err)
	}
	return tz, nil
}

func (db *DB) ListBlockedTimes(ctx context.Context, consultantID int64) ([]models.BlockedTime, error) {
	query := `SELECT id, consultant_id, start_at, end_at, reason, created_at
              FROM blocked_times WHERE consultant_id = ? ORDER BY start_at`
	rows, err := db.QueryContext(ctx, query, consultantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list blocked times: %w", err)
	}
	defer rows.Close()

	var out []models.BlockedTime
	for rows.Next() {
		var b models.BlockedTime
		if err := rows.Scan(&b.ID, &b.ConsultantID, &b.StartAt, &b.EndAt, &b.Reason, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan blocked time: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (db *DB) CreateBlockedTime(ctx context.Context, blocked *models.BlockedTime) error {
	if !blocked.EndAt.After(blocked.StartAt) {
		return ErrRangeInverted
	}
	if blocked.Reason == "" {
		blocked.Reason = models.DefaultBlockedReason
	}

	now := time.Now()
	result, err := db.ExecContext(ctx,
		`INSERT INTO blocked_times (consultant_id, start_at, end_at, reason, created_at) VALUES (?, ?, ?, ?, ?)`,
		blocked.ConsultantID, blocked.StartAt, blocked.EndAt, blocked.Reason, now)
	if err != nil {
		return fmt.Errorf("failed to create blocked time: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	blocked.ID = id
	blocked.CreatedAt = now
	return nil
}

func (db *DB) DeleteBlockedTime(ctx context.Context, consultantID, blockedID int64) error {
	result, err := db.ExecContext(ctx,
		`DELETE FROM blocked_times WHERE id = ? AND consultant_id = ?`, blockedID, consultantID)
	if err != nil {
		return fmt.Errorf("failed to delete blocked time: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *DB) ListTimezones(ctx context.Context) ([]string, error) {
	rows, err := db.QueryContext(ctx, `SELECT name FROM timezones ORDER BY sort_order, name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list timezones: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan timezone: %w", err)
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

func (db *DB) SeedTimezones(ctx context.Context, names []string) error {
	for i, name := range names {
		_, err := db.ExecContext(ctx,
			`INSERT INTO timezones (name, sort_order) VALUES (?, ?) ON CONFLICT(name) DO NOTHING`, name, i)
		if err != nil {
			return fmt.Errorf("failed to seed timezone %s: %w", name, err)
		}
	}
	return nil
}
