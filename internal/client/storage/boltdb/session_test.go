package boltdb

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/mealsync/internal/client/storage"
)

func setupTestStorage(t *testing.T) (*Storage, func()) {
	ctx := context.Background()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := New(ctx, dbPath)
	require.NoError(t, err)

	cleanup := func() {
		_ = s.Close()
	}

	return s, cleanup
}

func TestSessionStorage_SaveAndGetSession(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	session := &storage.Session{
		Username:    "alice",
		UserID:      "user-1",
		HouseholdID: "household-1",
		AccessToken: "token",
		DeviceID:    "device-1",
		ExpiresAt:   time.Now().Add(time.Hour).Unix(),
	}

	require.NoError(t, s.SaveSession(ctx, session))

	got, err := s.GetSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, session.Username, got.Username)
	assert.Equal(t, session.UserID, got.UserID)
	assert.Equal(t, session.HouseholdID, got.HouseholdID)
	assert.Equal(t, session.AccessToken, got.AccessToken)
	assert.Equal(t, session.ExpiresAt, got.ExpiresAt)
}

func TestSessionStorage_GetSession_NotFound(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	_, err := s.GetSession(ctx)
	assert.ErrorIs(t, err, storage.ErrSessionNotFound)
}

func TestSessionStorage_DeleteSession(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	session := &storage.Session{Username: "alice"}
	require.NoError(t, s.SaveSession(ctx, session))

	require.NoError(t, s.DeleteSession(ctx))

	_, err := s.GetSession(ctx)
	assert.ErrorIs(t, err, storage.ErrSessionNotFound)

	// Повторное удаление - no-op
	assert.NoError(t, s.DeleteSession(ctx))
}

func TestSessionStorage_EnsureDeviceID(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	first, err := s.EnsureDeviceID(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, first)

	// Повторный вызов возвращает тот же идентификатор
	second, err := s.EnsureDeviceID(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// Device ID переживает logout
	require.NoError(t, s.DeleteSession(ctx))
	third, err := s.EnsureDeviceID(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, third)
}

func TestStorage_ClosedErrors(t *testing.T) {
	ctx := context.Background()

	s, err := New(ctx, filepath.Join(t.TempDir(), "closed.db"))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = s.GetSession(ctx)
	assert.ErrorIs(t, err, storage.ErrStorageClosed)

	err = s.SaveSession(ctx, &storage.Session{Username: "alice"})
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
}
