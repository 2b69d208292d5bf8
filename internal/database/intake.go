package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"rciconnect/internal/models"
)

func (db *DB) GetIntakeSummary(ctx context.Context, userID int64) (*models.IntakeSummary, error) {
	var (
		s      models.IntakeSummary
		stages string
	)
	err := db.QueryRowContext(ctx,
		`SELECT user_id, completion_percent, completed_stages, updated_at FROM intake_summaries WHERE user_id = ?`,
		userID).Scan(&s.UserID, &s.CompletionPercent, &stages, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get intake summary: %w", err)
	}
	if stages != "" {
		s.CompletedStages = strings.Split(stages, ",")
	}
	return &s, nil
}

func (db *DB) UpsertIntakeSummary(ctx context.Context, summary *models.IntakeSummary) error {
	now := time.Now()
	query := `INSERT INTO intake_summaries (user_id, completion_percent, completed_stages, updated_at) VALUES (?, ?, ?, ?)
              ON CONFLICT(user_id) DO UPDATE SET
                completion_percent = excluded.completion_percent,
                completed_stages = excluded.completed_stages,
                updated_at = excluded.updated_at`
	_, err := db.ExecContext(ctx, query,
		summary.UserID, summary.CompletionPercent, strings.Join(summary.CompletedStages, ","), now)
	if err != nil {
		return fmt.Errorf("failed to upsert intake summary: %w", err)
	}
	summary.UpdatedAt = now
	return nil
}
