package database

import (
	"context"
	"testing"

	"rciconnect/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpsertSubscriber(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.UpsertSubscriber(ctx, "News@Example.com", models.SubscriberStatusSubscribed))

	got, err := db.GetSubscriber(ctx, "news@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.SubscriberStatusSubscribed, got.Status)
	assert.True(t, got.UnsubscribedAt.IsZero())

	require.NoError(t, db.UpsertSubscriber(ctx, "news@example.com", models.SubscriberStatusUnsubscribed))
	got, err = db.GetSubscriber(ctx, "news@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.SubscriberStatusUnsubscribed, got.Status)
	assert.False(t, got.UnsubscribedAt.IsZero())

	// Resubscribing clears the unsubscribed timestamp.
	require.NoError(t, db.UpsertSubscriber(ctx, "news@example.com", models.SubscriberStatusSubscribed))
	got, err = db.GetSubscriber(ctx, "news@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.SubscriberStatusSubscribed, got.Status)
	assert.True(t, got.UnsubscribedAt.IsZero())
}

func TestGetSubscriberNotFound(t *testing.T) {
	db := setupTestDB(t)

	_, err := db.GetSubscriber(context.Background(), "ghost@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}
