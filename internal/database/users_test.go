package database

import (
	"context"
	"testing"

	"rciconnect/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAndGetUser(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	user := &models.User{
		Email:        "Admin@Example.com",
		FullName:     "Site Admin",
		Role:         models.RoleAdmin,
		PasswordHash: "$2a$10$fakehash",
		IsActive:     true,
	}
	require.NoError(t, db.CreateUser(ctx, user))
	assert.NotZero(t, user.ID)

	// Stored and looked up lowercase.
	got, err := db.GetUserByEmail(ctx, "admin@example.com")
	require.NoError(t, err)
	assert.Equal(t, "admin@example.com", got.Email)
	assert.Equal(t, models.RoleAdmin, got.Role)

	byID, err := db.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, got.Email, byID.Email)
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	user := &models.User{Email: "dup@example.com", FullName: "A", Role: models.RoleClient, PasswordHash: "h", IsActive: true}
	require.NoError(t, db.CreateUser(ctx, user))

	again := &models.User{Email: "DUP@example.com", FullName: "B", Role: models.RoleClient, PasswordHash: "h", IsActive: true}
	err := db.CreateUser(ctx, again)
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestGetUserNotFound(t *testing.T) {
	db := setupTestDB(t)

	_, err := db.GetUserByEmail(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateUserPassword(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	user := &models.User{Email: "reset@example.com", FullName: "R", Role: models.RoleClient, PasswordHash: "old", IsActive: true}
	require.NoError(t, db.CreateUser(ctx, user))

	require.NoError(t, db.UpdateUserPassword(ctx, user.ID, "new"))
	got, err := db.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "new", got.PasswordHash)

	err = db.UpdateUserPassword(ctx, 9999, "new")
	assert.ErrorIs(t, err, ErrNotFound)
}
