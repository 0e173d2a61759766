package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/mealsync/internal/client/storage"
	"github.com/iudanet/mealsync/internal/models"
)

func testConflict(entityID string, detectedAt time.Time) *models.ConflictRecord {
	local := testRecord("household-1", models.EntityTypeDish)
	local.ID = entityID
	server := local.Clone()
	server.UpdatedBy = "device-2"

	return &models.ConflictRecord{
		EntityType:      models.EntityTypeDish,
		EntityID:        entityID,
		LocalVersion:    local,
		ServerVersion:   server,
		LocalChangedBy:  "device-1",
		ServerChangedBy: "device-2",
		DetectedAt:      detectedAt,
	}
}

func TestConflictStorage_SaveAndGetConflict(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	conflict := testConflict("entity-1", time.Now())
	require.NoError(t, s.SaveConflict(ctx, conflict))

	got, err := s.GetConflict(ctx, "entity-1")
	require.NoError(t, err)
	assert.Equal(t, conflict.EntityID, got.EntityID)
	assert.Equal(t, conflict.EntityType, got.EntityType)
	assert.Equal(t, "device-1", got.LocalChangedBy)
	assert.Equal(t, "device-2", got.ServerChangedBy)

	// Снимки версий переживают сериализацию целиком
	require.NotNil(t, got.LocalVersion)
	require.NotNil(t, got.ServerVersion)
	assert.Equal(t, conflict.LocalVersion.Payload, got.LocalVersion.Payload)
	assert.Equal(t, conflict.ServerVersion.UpdatedBy, got.ServerVersion.UpdatedBy)
}

func TestConflictStorage_GetConflict_NotFound(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	_, err := s.GetConflict(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrConflictNotFound)
}

func TestConflictStorage_SaveConflict_ReplacesByEntity(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	first := testConflict("entity-1", time.Now())
	require.NoError(t, s.SaveConflict(ctx, first))

	// Повторное обнаружение заменяет запись, не дублирует
	second := testConflict("entity-1", time.Now().Add(time.Minute))
	second.ServerChangedBy = "device-3"
	require.NoError(t, s.SaveConflict(ctx, second))

	count, err := s.CountConflicts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	got, err := s.GetConflict(ctx, "entity-1")
	require.NoError(t, err)
	assert.Equal(t, "device-3", got.ServerChangedBy)
}

func TestConflictStorage_ListConflicts_OrderedByDetection(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	base := time.Now()
	second := testConflict("entity-2", base.Add(time.Second))
	first := testConflict("entity-1", base)

	require.NoError(t, s.SaveConflict(ctx, second))
	require.NoError(t, s.SaveConflict(ctx, first))

	conflicts, err := s.ListConflicts(ctx)
	require.NoError(t, err)
	require.Len(t, conflicts, 2)
	assert.Equal(t, "entity-1", conflicts[0].EntityID)
	assert.Equal(t, "entity-2", conflicts[1].EntityID)
}

func TestConflictStorage_DeleteConflict(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	conflict := testConflict("entity-1", time.Now())
	require.NoError(t, s.SaveConflict(ctx, conflict))

	require.NoError(t, s.DeleteConflict(ctx, "entity-1"))

	_, err := s.GetConflict(ctx, "entity-1")
	assert.ErrorIs(t, err, storage.ErrConflictNotFound)

	count, err := s.CountConflicts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}
