package repository

import (
	"context"
	"sync"
	"time"

	"rciconnect/internal/models"
)

// MemorySessionRepository is the in-process fallback used when Redis is
// unavailable. Sessions held here do not survive a restart.
type MemorySessionRepository struct {
	sessions    sync.Map
	resetTokens sync.Map
	rateLimits  sync.Map
	ttl         time.Duration
}

func NewMemorySessionRepository(ttl time.Duration) *MemorySessionRepository {
	return &MemorySessionRepository{
		ttl: ttl,
	}
}

func (r *MemorySessionRepository) GetSession(ctx context.Context, token string) (*models.Session, error) {
	val, ok := r.sessions.Load(token)
	if !ok {
		return nil, nil
	}
	session := val.(*models.Session)
	if session.Expired(time.Now()) {
		r.sessions.Delete(token)
		return nil, nil
	}
	return session, nil
}

func (r *MemorySessionRepository) SetSession(ctx context.Context, session *models.Session) error {
	if session.ExpiresAt.IsZero() {
		session.ExpiresAt = time.Now().Add(r.ttl)
	}
	r.sessions.Store(session.Token, session)
	return nil
}

func (r *MemorySessionRepository) ClearSession(ctx context.Context, token string) error {
	r.sessions.Delete(token)
	return nil
}

type resetTokenEntry struct {
	email     string
	expiresAt time.Time
}

func (r *MemorySessionRepository) SetResetToken(ctx context.Context, token, email string, ttl time.Duration) error {
	r.resetTokens.Store(token, &resetTokenEntry{email: email, expiresAt: time.Now().Add(ttl)})
	return nil
}

func (r *MemorySessionRepository) GetResetToken(ctx context.Context, token string) (string, error) {
	val, ok := r.resetTokens.Load(token)
	if !ok {
		return "", nil
	}
	entry := val.(*resetTokenEntry)
	if time.Now().After(entry.expiresAt) {
		r.resetTokens.Delete(token)
		return "", nil
	}
	return entry.email, nil
}

func (r *MemorySessionRepository) ClearResetToken(ctx context.Context, token string) error {
	r.resetTokens.Delete(token)
	return nil
}

type rateLimitEntry struct {
	count     int
	expiresAt time.Time
}

func (r *MemorySessionRepository) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	now := time.Now()
	val, ok := r.rateLimits.Load(key)

	var entry *rateLimitEntry
	if !ok {
		entry = &rateLimitEntry{
			count:     1,
			expiresAt: now.Add(window),
		}
	} else {
		entry = val.(*rateLimitEntry)
		if now.After(entry.expiresAt) {
			entry.count = 1
			entry.expiresAt = now.Add(window)
		} else {
			entry.count++
		}
	}

	r.rateLimits.Store(key, entry)
	return entry.count <= limit, nil
}
