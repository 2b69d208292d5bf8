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

func (db *DB) GetSubscriber(ctx context.Context, email string) (*models.NewsletterSubscriber, error) {
	var (
		s            models.NewsletterSubscriber
		unsubscribed sql.NullTime
	)
	err := db.QueryRowContext(ctx,
		`SELECT id, email, status, subscribed_at, unsubscribed_at FROM newsletter_subscribers WHERE email = ?`,
		strings.ToLower(email)).
		Scan(&s.ID, &s.Email, &s.Status, &s.SubscribedAt, &unsubscribed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get subscriber: %w", err)
	}
	s.UnsubscribedAt = unsubscribed.Time
	return &s, nil
}

// UpsertSubscriber inserts the email or flips an existing row's status.
func (db *DB) UpsertSubscriber(ctx context.Context, email, status string) error {
	now := time.Now()
	email = strings.ToLower(email)

	var query string
	var args []any
	if status == models.SubscriberStatusSubscribed {
		query = `INSERT INTO newsletter_subscribers (email, status, subscribed_at) VALUES (?, ?, ?)
                 ON CONFLICT(email) DO UPDATE SET status = excluded.status, subscribed_at = excluded.subscribed_at, unsubscribed_at = NULL`
		args = []any{email, status, now}
	} else {
		query = `INSERT INTO newsletter_subscribers (email, status, subscribed_at, unsubscribed_at) VALUES (?, ?, ?, ?)
                 ON CONFLICT(email) DO UPDATE SET status = excluded.status, unsubscribed_at = excluded.unsubscribed_at`
		args = []any{email, status, now, now}
	}

	if _, err := db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to upsert subscriber: %w", err)
	}
	return nil
}
